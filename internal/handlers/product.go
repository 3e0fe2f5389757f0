package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/simplifaq/simplifaq/internal/httpx"
	"github.com/simplifaq/simplifaq/internal/models"
	"github.com/simplifaq/simplifaq/internal/services"
	"github.com/simplifaq/simplifaq/internal/validation"
)

type ProductHandler struct {
	DB *gorm.DB
}

func NewProductHandler(db *gorm.DB) *ProductHandler { return &ProductHandler{DB: db} }

// Swiss VAT rates in force since 2024.
var allowedVATRates = []float64{0, 2.6, 3.8, 8.1}

type productReq struct {
	Code        string  `json:"code"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	UnitPrice   float64 `json:"unit_price"`
	VATRate     float64 `json:"vat_rate"`
	Unit        string  `json:"unit"`
}

func (req *productReq) validate() validation.Violations {
	v := validation.Violations{}
	validation.Required("code", req.Code, v)
	validation.Required("name", req.Name, v)
	validation.PositiveFloat("unit_price", req.UnitPrice, v)
	ok := false
	for _, rate := range allowedVATRates {
		if req.VATRate == rate {
			ok = true
			break
		}
	}
	if !ok {
		v["vat_rate"] = "unknown_swiss_rate"
	}
	return v
}

// List: GET /products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.DB)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	q := h.DB.Where("user_id = ?", user.ID)
	if search := r.URL.Query().Get("q"); search != "" {
		like := "%" + sanitizeLike(search) + "%"
		q = q.Where("lower(name) LIKE ? OR lower(code) LIKE ?", like, like)
	}
	var total int64
	q.Model(&models.Product{}).Count(&total)
	var products []models.Product
	if err := q.Order("code asc").Limit(limit).Offset(offset).Find(&products).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_products", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": products, "total": total, "limit": limit, "offset": offset})
}

// Create: POST /products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.DB)
	if !ok {
		return
	}
	var req productReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	product := models.Product{
		UserID: user.ID, Code: req.Code, Name: req.Name, Description: req.Description,
		UnitPrice: req.UnitPrice, VATRate: req.VATRate,
	}
	if req.Unit != "" {
		product.Unit = req.Unit
	}
	if err := h.DB.Create(&product).Error; err != nil {
		httpx.JSONError(w, http.StatusConflict, "code_already_exists", nil)
		return
	}
	services.Audit(h.DB, user.ID, "Product", product.ID, "create", product.Code)
	httpx.JSON(w, http.StatusCreated, product)
}

// Update: POST /products/update?id=...
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.DB)
	if !ok {
		return
	}
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	var product models.Product
	if err := h.DB.Where("user_id = ?", user.ID).First(&product, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	var req productReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	if v := req.validate(); !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	product.Code = req.Code
	product.Name = req.Name
	product.Description = req.Description
	product.UnitPrice = req.UnitPrice
	product.VATRate = req.VATRate
	if req.Unit != "" {
		product.Unit = req.Unit
	}
	if err := h.DB.Save(&product).Error; err != nil {
		httpx.JSONError(w, http.StatusConflict, "code_already_exists", nil)
		return
	}
	services.Audit(h.DB, user.ID, "Product", product.ID, "update", product.Code)
	httpx.JSON(w, http.StatusOK, product)
}

// Delete: POST /products/delete?id=... (soft delete: invoices keep frozen copies)
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.DB)
	if !ok {
		return
	}
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	res := h.DB.Where("user_id = ?", user.ID).Delete(&models.Product{}, id)
	if res.Error != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_delete_product", nil)
		return
	}
	if res.RowsAffected == 0 {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	services.Audit(h.DB, user.ID, "Product", uint(id), "delete", "")
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
