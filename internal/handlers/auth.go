package handlers

import (
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/simplifaq/simplifaq/internal/auth"
	"github.com/simplifaq/simplifaq/internal/httpx"
	"github.com/simplifaq/simplifaq/internal/models"
	"github.com/simplifaq/simplifaq/internal/validation"
)

type AuthHandler struct {
	DB *gorm.DB
}

func NewAuthHandler(db *gorm.DB) *AuthHandler { return &AuthHandler{DB: db} }

// Register mounts the auth endpoints on mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/auth/register", h.RegisterUser)
	mux.HandleFunc("/auth/login", h.Login)
	mux.HandleFunc("/auth/logout", h.Logout)
}

// RegisterUser: POST /auth/register
func (h *AuthHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Nom      string `json:"nom"`
		Prenom   string `json:"prenom"`
		Company  string `json:"company"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	v := validation.Violations{}
	validation.Required("email", req.Email, v)
	validation.Required("password", req.Password, v)
	if len(req.Password) > 0 && len(req.Password) < 8 {
		v["password"] = "too_short"
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "hash_failed", nil)
		return
	}
	user := models.User{
		Email: req.Email, Password: hash,
		Nom: req.Nom, Prenom: req.Prenom, Company: req.Company,
		QRReferenceMode: "auto",
		InvoicePadding:  4, NextInvoiceNumber: 1,
		QuotePadding: 4, NextQuoteNumber: 1,
	}
	if err := h.DB.Create(&user).Error; err != nil {
		httpx.JSONError(w, http.StatusConflict, "email_already_registered", nil)
		return
	}
	auth.CreateSession(w, user.ID)
	httpx.JSON(w, http.StatusCreated, map[string]any{"id": user.ID, "email": user.Email})
}

// Login: POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	var user models.User
	err := h.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error
	if err != nil || !auth.CheckPassword(user.Password, req.Password) {
		// identical answer for unknown email and wrong password
		httpx.JSONError(w, http.StatusUnauthorized, "invalid_credentials", nil)
		return
	}
	auth.CreateSession(w, user.ID)
	httpx.JSON(w, http.StatusOK, map[string]any{"id": user.ID, "email": user.Email})
}

// Logout: POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSession(w)
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// currentUser loads the authenticated user or writes a 401.
func currentUser(w http.ResponseWriter, r *http.Request, db *gorm.DB) (models.User, bool) {
	uid, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return models.User{}, false
	}
	var user models.User
	if err := db.First(&user, uid).Error; err != nil {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return models.User{}, false
	}
	return user, true
}
