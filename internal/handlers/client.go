package handlers

import (
	"net/http"
	"strconv"

	"gorm.io/gorm"

	"github.com/simplifaq/simplifaq/internal/httpx"
	"github.com/simplifaq/simplifaq/internal/models"
	"github.com/simplifaq/simplifaq/internal/services"
	"github.com/simplifaq/simplifaq/internal/validation"
)

type ClientHandler struct {
	DB *gorm.DB
}

func NewClientHandler(db *gorm.DB) *ClientHandler { return &ClientHandler{DB: db} }

type clientReq struct {
	Nom       string `json:"nom"`
	Contact   string `json:"contact"`
	Email     string `json:"email"`
	Telephone string `json:"telephone"`
	IDE       string `json:"ide"`
	Notes     string `json:"notes"`
	Address   struct {
		Ligne1     string `json:"ligne1"`
		Ligne2     string `json:"ligne2"`
		CodePostal string `json:"code_postal"`
		Ville      string `json:"ville"`
		Pays       string `json:"pays"`
	} `json:"address"`
}

// List: GET /clients
func (h *ClientHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.DB)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	q := h.DB.Where("user_id = ?", user.ID)
	if search := r.URL.Query().Get("q"); search != "" {
		q = q.Where("lower(nom) LIKE ?", "%"+sanitizeLike(search)+"%")
	}
	var total int64
	q.Model(&models.Client{}).Count(&total)
	var clients []models.Client
	if err := q.Preload("Address").Order("nom asc").Limit(limit).Offset(offset).Find(&clients).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_clients", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": clients, "total": total, "limit": limit, "offset": offset})
}

// Create: POST /clients
func (h *ClientHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.DB)
	if !ok {
		return
	}
	var req clientReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.Required("nom", req.Nom, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	client := models.Client{
		UserID: user.ID, Nom: req.Nom, Contact: req.Contact,
		Email: req.Email, Telephone: req.Telephone, IDE: req.IDE, Notes: req.Notes,
	}
	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if req.Address.Ligne1 != "" {
			addr := models.Address{
				Ligne1: req.Address.Ligne1, Ligne2: req.Address.Ligne2,
				CodePostal: req.Address.CodePostal, Ville: req.Address.Ville,
			}
			if req.Address.Pays != "" {
				addr.Pays = req.Address.Pays
			}
			if err := tx.Create(&addr).Error; err != nil {
				return err
			}
			client.AddressID = addr.ID
		}
		return tx.Create(&client).Error
	})
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_client", nil)
		return
	}
	services.Audit(h.DB, user.ID, "Client", client.ID, "create", client.Nom)
	httpx.JSON(w, http.StatusCreated, client)
}

// Update: POST /clients/update?id=...
func (h *ClientHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.DB)
	if !ok {
		return
	}
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	var client models.Client
	if err := h.DB.Where("user_id = ?", user.ID).First(&client, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	var req clientReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.Required("nom", req.Nom, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	client.Nom = req.Nom
	client.Contact = req.Contact
	client.Email = req.Email
	client.Telephone = req.Telephone
	client.IDE = req.IDE
	client.Notes = req.Notes
	if err := h.DB.Save(&client).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_client", nil)
		return
	}
	services.Audit(h.DB, user.ID, "Client", client.ID, "update", client.Nom)
	httpx.JSON(w, http.StatusOK, client)
}

// Delete: POST /clients/delete?id=...
func (h *ClientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.DB)
	if !ok {
		return
	}
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	// refuse deletion while invoices reference the client
	var count int64
	h.DB.Model(&models.Invoice{}).Where("user_id = ? AND client_id = ?", user.ID, id).Count(&count)
	if count > 0 {
		httpx.JSONError(w, http.StatusConflict, "client_has_invoices", nil)
		return
	}
	res := h.DB.Where("user_id = ?", user.ID).Delete(&models.Client{}, id)
	if res.Error != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_client", nil)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	services.Audit(h.DB, user.ID, "Client", uint(id), "delete", "")
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// queryID parses the id query parameter or writes a 400.
func queryID(w http.ResponseWriter, r *http.Request) (int, bool) {
	idStr := r.URL.Query().Get("id")
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_id", nil)
		return 0, false
	}
	return id, true
}
