package handlers

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/simplifaq/simplifaq/internal/httpx"
	"github.com/simplifaq/simplifaq/internal/models"
	"github.com/simplifaq/simplifaq/internal/services"
	"github.com/simplifaq/simplifaq/internal/swiss"
	"github.com/simplifaq/simplifaq/internal/validation"
)

type SettingsHandler struct {
	DB *gorm.DB
}

func NewSettingsHandler(db *gorm.DB) *SettingsHandler {
	return &SettingsHandler{DB: db}
}

type settingsView struct {
	Email           string          `json:"email"`
	Nom             string          `json:"nom"`
	Prenom          string          `json:"prenom"`
	Company         string          `json:"company"`
	IBAN            string          `json:"iban"`
	IBANIsQR        bool            `json:"iban_is_qr"`
	QRReferenceMode string          `json:"qr_reference_mode"`
	InvoicePrefix   string          `json:"invoice_prefix"`
	InvoicePadding  int             `json:"invoice_padding"`
	NextInvoice     int             `json:"next_invoice_number"`
	QuotePrefix     string          `json:"quote_prefix"`
	QuotePadding    int             `json:"quote_padding"`
	NextQuote       int             `json:"next_quote_number"`
	Address         *models.Address `json:"address,omitempty"`
}

func viewOf(u models.User, addr *models.Address) settingsView {
	_, qr := swiss.ValidateIBAN(u.IBAN)
	return settingsView{
		Email:           u.Email,
		Nom:             u.Nom,
		Prenom:          u.Prenom,
		Company:         u.Company,
		IBAN:            u.IBAN,
		IBANIsQR:        qr,
		QRReferenceMode: u.QRReferenceMode,
		InvoicePrefix:   u.InvoicePrefix,
		InvoicePadding:  u.InvoicePadding,
		NextInvoice:     u.NextInvoiceNumber,
		QuotePrefix:     u.QuotePrefix,
		QuotePadding:    u.QuotePadding,
		NextQuote:       u.NextQuoteNumber,
		Address:         addr,
	}
}

// Get: GET /settings
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.DB)
	if !ok {
		return
	}
	var addr *models.Address
	if user.AddressID != 0 {
		var a models.Address
		if err := h.DB.First(&a, user.AddressID).Error; err == nil {
			addr = &a
		}
	}
	httpx.JSON(w, http.StatusOK, viewOf(user, addr))
}

type settingsReq struct {
	Nom             string          `json:"nom"`
	Prenom          string          `json:"prenom"`
	Company         string          `json:"company"`
	IBAN            string          `json:"iban"`
	QRReferenceMode string          `json:"qr_reference_mode"`
	InvoicePrefix   string          `json:"invoice_prefix"`
	InvoicePadding  int             `json:"invoice_padding"`
	QuotePrefix     string          `json:"quote_prefix"`
	QuotePadding    int             `json:"quote_padding"`
	Address         *models.Address `json:"address"`
}

var allowedQRModes = []string{"auto", "manual", "disabled"}

// Update: POST /settings. Numbering, QR and company configuration. The
// counters themselves are never settable through this endpoint.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.DB)
	if !ok {
		return
	}
	var req settingsReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	if req.QRReferenceMode != "" {
		validation.OneOf("qr_reference_mode", req.QRReferenceMode, allowedQRModes, v)
	}
	qrIBAN := false
	if req.IBAN != "" {
		valid, qr := swiss.ValidateIBAN(req.IBAN)
		if !valid {
			v["iban"] = "invalid_iban"
		}
		qrIBAN = qr
	}
	if req.InvoicePadding < 0 || req.InvoicePadding > 10 {
		v["invoice_padding"] = "out_of_range"
	}
	if req.QuotePadding < 0 || req.QuotePadding > 10 {
		v["quote_padding"] = "out_of_range"
	}
	if len(req.InvoicePrefix) > 20 {
		v["invoice_prefix"] = "too_long"
	}
	if len(req.QuotePrefix) > 20 {
		v["quote_prefix"] = "too_long"
	}
	// auto mode needs a QR-IBAN to ever emit a structured reference; reject
	// early rather than letting every invoice degrade to NON.
	if req.QRReferenceMode == "auto" && req.IBAN != "" && !qrIBAN {
		v["qr_reference_mode"] = "auto_requires_qr_iban"
	}
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}

	updates := map[string]any{}
	if req.Nom != "" {
		updates["nom"] = req.Nom
	}
	if req.Prenom != "" {
		updates["prenom"] = req.Prenom
	}
	if req.Company != "" {
		updates["company"] = req.Company
	}
	if req.IBAN != "" {
		updates["iban"] = swiss.NormalizeIBAN(req.IBAN)
	}
	if req.QRReferenceMode != "" {
		updates["qr_reference_mode"] = req.QRReferenceMode
	}
	if req.InvoicePrefix != "" {
		updates["invoice_prefix"] = req.InvoicePrefix
	}
	if req.InvoicePadding != 0 {
		updates["invoice_padding"] = req.InvoicePadding
	}
	if req.QuotePrefix != "" {
		updates["quote_prefix"] = req.QuotePrefix
	}
	if req.QuotePadding != 0 {
		updates["quote_padding"] = req.QuotePadding
	}

	err := h.DB.Transaction(func(tx *gorm.DB) error {
		if req.Address != nil {
			req.Address.ID = user.AddressID
			if user.AddressID == 0 {
				if err := tx.Create(req.Address).Error; err != nil {
					return err
				}
				updates["address_id"] = req.Address.ID
			} else if err := tx.Save(req.Address).Error; err != nil {
				return err
			}
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error
	})
	if err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_settings", nil)
		return
	}

	var fresh models.User
	if err := h.DB.First(&fresh, user.ID).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_settings", nil)
		return
	}
	var addr *models.Address
	if fresh.AddressID != 0 {
		var a models.Address
		if err := h.DB.First(&a, fresh.AddressID).Error; err == nil {
			addr = &a
		}
	}
	services.Audit(h.DB, user.ID, "User", user.ID, "settings", "")
	httpx.JSON(w, http.StatusOK, viewOf(fresh, addr))
}
