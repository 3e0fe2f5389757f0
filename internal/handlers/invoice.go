package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"github.com/simplifaq/simplifaq/internal/httpx"
	"github.com/simplifaq/simplifaq/internal/mail"
	"github.com/simplifaq/simplifaq/internal/models"
	"github.com/simplifaq/simplifaq/internal/numbering"
	"github.com/simplifaq/simplifaq/internal/pdf"
	"github.com/simplifaq/simplifaq/internal/services"
	"github.com/simplifaq/simplifaq/internal/swiss"
	"github.com/simplifaq/simplifaq/internal/validation"
)

type InvoiceHandler struct {
	DB     *gorm.DB
	Svc    *services.InvoiceService
	Mailer mail.Sender
}

func NewInvoiceHandler(db *gorm.DB, svc *services.InvoiceService, mailer mail.Sender) *InvoiceHandler {
	return &InvoiceHandler{DB: db, Svc: svc, Mailer: mailer}
}

type discountReq struct {
	Type  string  `json:"type"`
	Value float64 `json:"value"`
}

type lineReq struct {
	ProductID   uint         `json:"product_id"`
	Description string       `json:"description"`
	Quantity    float64      `json:"quantity"`
	UnitPrice   float64      `json:"unit_price"`
	VATRate     float64      `json:"vat_rate"`
	Discount    *discountReq `json:"discount"`
}

type invoiceCreateReq struct {
	ClientID          uint         `json:"client_id"`
	Items             []lineReq    `json:"items"`
	Discount          *discountReq `json:"discount"`
	ManualNumber      string       `json:"manual_number"`
	ManualQRReference string       `json:"manual_qr_reference"`
	Currency          string       `json:"currency"`
}

// List: GET /invoices
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.DB)
	if !ok {
		return
	}
	limit, offset := pagination(r)
	q := h.DB.Where("user_id = ?", user.ID)
	if status := r.URL.Query().Get("status"); status != "" {
		q = q.Where("status = ?", sanitizeLike(status))
	}
	var total int64
	q.Model(&models.Invoice{}).Count(&total)
	var invs []models.Invoice
	if err := q.Preload("Items").Preload("Client").Order("id desc").Limit(limit).Offset(offset).Find(&invs).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_invoices", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": invs, "total": total, "limit": limit, "offset": offset})
}

// Create: POST /invoices
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.DB)
	if !ok {
		return
	}
	var req invoiceCreateReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	in, v := h.buildInput(user, req)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	inv, err := h.Svc.Create(r.Context(), user, in)
	if err != nil {
		writeNumberingError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

// buildInput validates the request and resolves product lines into frozen
// line inputs.
func (h *InvoiceHandler) buildInput(user models.User, req invoiceCreateReq) (services.InvoiceInput, validation.Violations) {
	v := validation.Violations{}
	if req.ClientID == 0 {
		v["client_id"] = "required"
	} else {
		var count int64
		h.DB.Model(&models.Client{}).Where("id = ? AND user_id = ?", req.ClientID, user.ID).Count(&count)
		if count == 0 {
			v["client_id"] = "unknown_client"
		}
	}
	if len(req.Items) == 0 {
		v["items"] = "required"
	}
	if req.Discount != nil {
		validation.Discount("discount", req.Discount.Type, req.Discount.Value, v)
	}

	in := services.InvoiceInput{
		ClientID:          req.ClientID,
		ManualNumber:      req.ManualNumber,
		ManualQRReference: req.ManualQRReference,
		Currency:          req.Currency,
	}
	if req.Discount != nil {
		in.DiscountType = req.Discount.Type
		in.DiscountValue = req.Discount.Value
	}
	for i, item := range req.Items {
		field := fmt.Sprintf("items[%d]", i)
		if item.Quantity <= 0 {
			v[field] = "invalid_quantity"
			continue
		}
		ln := services.LineInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			VATRate:     item.VATRate,
		}
		if item.Discount != nil {
			validation.Discount(field+".discount", item.Discount.Type, item.Discount.Value, v)
			ln.DiscountType = item.Discount.Type
			ln.DiscountValue = item.Discount.Value
		}
		if item.ProductID != 0 {
			// freeze price, rate and description from the catalogue
			var p models.Product
			if err := h.DB.Where("user_id = ?", user.ID).First(&p, item.ProductID).Error; err != nil {
				v[field] = "unknown_product"
				continue
			}
			ln.ProductID = p.ID
			ln.UnitPrice = p.UnitPrice
			ln.VATRate = p.VATRate
			if ln.Description == "" {
				ln.Description = p.Name
			}
		} else if ln.Description == "" {
			v[field] = "description_required"
			continue
		}
		in.Lines = append(in.Lines, ln)
	}
	return in, v
}

// Duplicate: POST /invoices/duplicate?id=...
func (h *InvoiceHandler) Duplicate(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.DB)
	if !ok {
		return
	}
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	inv, err := h.Svc.Duplicate(r.Context(), user, uint(id))
	if err != nil {
		if services.IsNotFound(err) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		writeNumberingError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}

var allowedInvoiceStatus = []string{"draft", "sent", "paid", "cancelled"}

// UpdateStatus: POST /invoices/status?id=...
func (h *InvoiceHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.DB)
	if !ok {
		return
	}
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	v := validation.Violations{}
	validation.OneOf("status", req.Status, allowedInvoiceStatus, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	var inv models.Invoice
	if err := h.DB.Where("user_id = ?", user.ID).First(&inv, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	if err := h.DB.Model(&inv).Update("status", req.Status).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_status", nil)
		return
	}
	services.Audit(h.DB, user.ID, "Invoice", inv.ID, "status", req.Status)
	httpx.JSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

// PDF: GET /invoices/pdf?id=...
func (h *InvoiceHandler) PDF(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.DB)
	if !ok {
		return
	}
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	data, inv, err := h.renderPDF(user, uint(id))
	if err != nil {
		if services.IsNotFound(err) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "pdf_generation_failed", nil)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "facture-"+inv.Number+".pdf"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Send: POST /invoices/send?id=... mails the PDF to the client and marks
// the invoice sent.
func (h *InvoiceHandler) Send(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.DB)
	if !ok {
		return
	}
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	data, inv, err := h.renderPDF(user, uint(id))
	if err != nil {
		if services.IsNotFound(err) {
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		httpx.JSONError(w, http.StatusInternalServerError, "pdf_generation_failed", nil)
		return
	}
	if inv.Client.Email == "" {
		httpx.JSONError(w, http.StatusBadRequest, "client_has_no_email", nil)
		return
	}
	subject := "Facture " + inv.Number
	body := fmt.Sprintf("Bonjour,\n\nVeuillez trouver en annexe la facture %s (%.2f %s).\n\nMeilleures salutations,\n%s",
		inv.Number, inv.Total, inv.Currency, user.Company)
	if err := h.Mailer.Send(inv.Client.Email, subject, body, data, "facture-"+inv.Number+".pdf"); err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "mail_dispatch_failed", nil)
		return
	}
	if inv.Status == "draft" {
		_ = h.DB.Model(&models.Invoice{}).Where("id = ?", inv.ID).Update("status", "sent").Error
	}
	services.Audit(h.DB, user.ID, "Invoice", inv.ID, "send", inv.Client.Email)
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

// renderPDF loads the invoice with its relations and renders the document,
// re-deriving the payment part from the frozen QR reference.
func (h *InvoiceHandler) renderPDF(user models.User, id uint) ([]byte, *models.Invoice, error) {
	var inv models.Invoice
	if err := h.DB.Preload("Items").Preload("Client.Address").
		Where("user_id = ?", user.ID).First(&inv, id).Error; err != nil {
		return nil, nil, err
	}
	var userAddr models.Address
	if user.AddressID != 0 {
		_ = h.DB.First(&userAddr, user.AddressID).Error
	}

	doc := pdf.Document{
		Number:         inv.Number,
		Date:           inv.IssuedAt.Format("02.01.2006"),
		DueDate:        inv.DueAt.Format("02.01.2006"),
		Currency:       inv.Currency,
		CompanyName:    user.Company,
		CompanyAddress: addressLines(userAddr),
		ClientName:     inv.Client.Nom,
		ClientAddress:  addressLines(inv.Client.Address),
		Subtotal:       inv.Subtotal,
		Discount:       inv.Discount,
		VAT:            inv.VAT,
		Total:          inv.Total,
	}
	for _, it := range inv.Items {
		doc.Items = append(doc.Items, pdf.Item{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			VATRate:     it.VATRate,
			Subtotal:    it.Subtotal,
		})
	}
	if valid, _ := swiss.ValidateIBAN(user.IBAN); valid {
		doc.Bill = swiss.Bill{
			IBAN: user.IBAN,
			Creditor: swiss.Party{
				Name: user.Company, Street: userAddr.Ligne1,
				PostalCode: userAddr.CodePostal, City: userAddr.Ville, Country: userAddr.Pays,
			},
			Debtor: swiss.Party{
				Name: inv.Client.Nom, Street: inv.Client.Address.Ligne1,
				PostalCode: inv.Client.Address.CodePostal, City: inv.Client.Address.Ville,
				Country: inv.Client.Address.Pays,
			},
			Amount:   inv.Total,
			Currency: inv.Currency,
			Reference: swiss.ReferenceResult{
				Reference: inv.QRReference,
				Type:      swiss.ReferenceType(inv.QRReferenceType),
			},
			AdditionalInfo: "Facture " + inv.Number,
		}
	}
	data, err := pdf.Invoice(doc)
	return data, &inv, err
}

func addressLines(a models.Address) []string {
	var lines []string
	if a.Ligne1 != "" {
		lines = append(lines, a.Ligne1)
	}
	if a.Ligne2 != "" {
		lines = append(lines, a.Ligne2)
	}
	if a.CodePostal != "" || a.Ville != "" {
		lines = append(lines, a.CodePostal+" "+a.Ville)
	}
	return lines
}

// writeNumberingError maps numbering failures to their HTTP codes.
func writeNumberingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, numbering.ErrBadFormat):
		httpx.JSONError(w, http.StatusBadRequest, "invalid_number_format", nil)
	case errors.Is(err, numbering.ErrTaken):
		httpx.JSONError(w, http.StatusConflict, "number_already_taken", nil)
	case errors.Is(err, numbering.ErrExhausted):
		httpx.JSONError(w, http.StatusInternalServerError, "numbering_exhausted", nil)
	default:
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_create_invoice", nil)
	}
}
