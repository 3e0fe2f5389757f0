package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"github.com/simplifaq/simplifaq/internal/httpx"
	"github.com/simplifaq/simplifaq/internal/models"
	"github.com/simplifaq/simplifaq/internal/services"
	"github.com/simplifaq/simplifaq/internal/validation"
)

type QuoteHandler struct {
	DB  *gorm.DB
	Svc *services.QuoteService
}

func NewQuoteHandler(db *gorm.DB, svc *services.QuoteService) *QuoteHandler {
	return &QuoteHandler{DB: db, Svc: svc}
}

type quoteCreateReq struct {
	ClientID     uint         `json:"client_id"`
	Items        []lineReq    `json:"items"`
	Discount     *discountReq `json:"discount"`
	ManualNumber string       `json:"manual_number"`
	Currency     string       `json:"currency"`
}

// List: GET /quotes
func (h *QuoteHandler) List(w http.ResponseWriter, r *http.Request) {
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
	q.Model(&models.Quote{}).Count(&total)
	var quotes []models.Quote
	if err := q.Preload("Items").Preload("Client").Order("id desc").Limit(limit).Offset(offset).Find(&quotes).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_list_quotes", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": quotes, "total": total, "limit": limit, "offset": offset})
}

// Create: POST /quotes
func (h *QuoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.DB)
	if !ok {
		return
	}
	var req quoteCreateReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_json", nil)
		return
	}
	in, v := h.buildInput(user, req)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	quote, err := h.Svc.Create(r.Context(), user, in)
	if err != nil {
		writeNumberingError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, quote)
}

func (h *QuoteHandler) buildInput(user models.User, req quoteCreateReq) (services.QuoteInput, validation.Violations) {
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

	in := services.QuoteInput{
		ClientID:     req.ClientID,
		ManualNumber: req.ManualNumber,
		Currency:     req.Currency,
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

var allowedQuoteStatus = []string{"draft", "sent", "accepted", "declined", "expired"}

// UpdateStatus: POST /quotes/status?id=...
func (h *QuoteHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
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
	validation.OneOf("status", req.Status, allowedQuoteStatus, v)
	if !v.Empty() {
		httpx.JSONError(w, http.StatusBadRequest, "validation_failed", v)
		return
	}
	var quote models.Quote
	if err := h.DB.Where("user_id = ?", user.ID).First(&quote, id).Error; err != nil {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		return
	}
	if quote.Status == "converted" {
		httpx.JSONError(w, http.StatusConflict, "quote_already_converted", nil)
		return
	}
	if err := h.DB.Model(&quote).Update("status", req.Status).Error; err != nil {
		httpx.JSONError(w, http.StatusInternalServerError, "failed_to_update_status", nil)
		return
	}
	services.Audit(h.DB, user.ID, "Quote", quote.ID, "status", req.Status)
	httpx.JSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

// Convert: POST /quotes/convert?id=... creates an invoice from the quote.
func (h *QuoteHandler) Convert(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.DB)
	if !ok {
		return
	}
	id, ok := queryID(w, r)
	if !ok {
		return
	}
	inv, err := h.Svc.Convert(r.Context(), user, uint(id))
	if err != nil {
		switch {
		case services.IsNotFound(err):
			httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
		case errors.Is(err, services.ErrAlreadyConverted):
			httpx.JSONError(w, http.StatusConflict, "quote_already_converted", nil)
		default:
			writeNumberingError(w, err)
		}
		return
	}
	httpx.JSON(w, http.StatusCreated, inv)
}
