package handlers

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/simplifaq/simplifaq/internal/httpx"
	"github.com/simplifaq/simplifaq/internal/models"
	"github.com/simplifaq/simplifaq/internal/services"
	"github.com/simplifaq/simplifaq/internal/validation"
)

type PaymentHandler struct {
	DB  *gorm.DB
	Svc *services.InvoiceService
}

func NewPaymentHandler(db *gorm.DB, svc *services.InvoiceService) *PaymentHandler {
	return &PaymentHandler{DB: db, Svc: svc}
}

var allowedPaymentModes = []string{"virement", "carte", "especes", "twint"}

// List: GET /payments?invoice_id=...
func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.DB)
	if !ok {
		return
	}
	invoiceID, ok := queryUint(w, r, "invoice_id")
	if !ok {
		return
	}
	var inv models.Invoice
	if err := h.DB.Where("user_id = ?", user.ID).First(&inv, invoiceID).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	var payments []models.Payment
	if err := h.DB.Where("invoice_id = ?", inv.ID).Order("date asc").Find(&payments).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_payments", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": payments, "invoice_status": inv.Status})
}

// Create: POST /payments records a payment and flips the invoice to paid
// once the recorded payments cover the total.
func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.DB)
	if !ok {
		return
	}
	var req struct {
		InvoiceID   uint    `json:"invoice_id"`
		Montant     float64 `json:"montant"`
		Mode        string  `json:"mode"`
		Date        string  `json:"date"`
		Commentaire string  `json:"commentaire"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.PositiveFloat("montant", req.Montant, v)
	validation.OneOf("mode", req.Mode, allowedPaymentModes, v)
	if req.InvoiceID == 0 {
		v["invoice_id"] = "required"
	}
	date := time.Now()
	if req.Date != "" {
		parsed, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			v["date"] = "invalid_date"
		} else {
			date = parsed
		}
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	var inv models.Invoice
	if err := h.DB.Where("user_id = ?", user.ID).First(&inv, req.InvoiceID).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	if inv.Status == "cancelled" {
		httpx.JSONError(w, http.StatusConflict, "invoice_cancelled", nil)
		return
	}

	payment := models.Payment{
		InvoiceID:   inv.ID,
		Date:        date,
		Montant:     req.Montant,
		Mode:        req.Mode,
		Reference:   uuid.NewString(),
		Commentaire: req.Commentaire,
	}
	if err := h.DB.Create(&payment).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_payment", nil)
		return
	}
	if err := h.Svc.MarkPaidWhenCovered(inv.ID); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_invoice", nil)
		return
	}
	services.Audit(h.DB, user.ID, "Payment", payment.ID, "create", payment.Reference)
	httpx.JSON(w, http.StatusCreated, payment)
}
