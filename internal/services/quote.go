package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/simplifaq/simplifaq/internal/models"
	"github.com/simplifaq/simplifaq/internal/numbering"
)

// QuoteService handles quote numbering, totals and conversion to invoices.
type QuoteService struct {
	DB       *gorm.DB
	Invoices *InvoiceService
}

func NewQuoteService(db *gorm.DB, inv *InvoiceService) *QuoteService {
	return &QuoteService{DB: db, Invoices: inv}
}

// QuoteInput is a validated quote creation request.
type QuoteInput struct {
	ClientID      uint
	Lines         []LineInput
	DiscountType  string
	DiscountValue float64
	// ManualNumber bypasses the counter when set.
	ManualNumber string
	Currency     string
	ValidUntil   time.Time
}

var ErrAlreadyConverted = errors.New("quote already converted")

// Create allocates the next quote number and persists the quote. Before
// allocating, the counter is re-synced against the most recent existing
// quote for the current prefix: manual edits or partial failures may have
// left documents ahead of the stored counter.
func (s *QuoteService) Create(ctx context.Context, user models.User, in QuoteInput) (*models.Quote, error) {
	totals := ComputeTotals(in.Lines, in.DiscountType, in.DiscountValue)

	validUntil := in.ValidUntil
	if validUntil.IsZero() {
		validUntil = time.Now().AddDate(0, 1, 0)
	}
	currency := in.Currency
	if currency == "" {
		currency = "CHF"
	}

	build := func(number string) *models.Quote {
		q := &models.Quote{
			UserID:        user.ID,
			Number:        number,
			Status:        "draft",
			ClientID:      in.ClientID,
			DiscountType:  in.DiscountType,
			DiscountValue: in.DiscountValue,
			Subtotal:      totals.Subtotal,
			Discount:      totals.Discount,
			VAT:           totals.VAT,
			Total:         totals.Total,
			Currency:      currency,
			ValidUntil:    validUntil,
		}
		for _, ln := range totals.Lines {
			q.Items = append(q.Items, models.QuoteItem{
				ProductID:     ln.ProductID,
				Description:   ln.Description,
				Quantity:      ln.Quantity,
				UnitPrice:     ln.UnitPrice,
				VATRate:       ln.VATRate,
				DiscountType:  ln.DiscountType,
				DiscountValue: ln.DiscountValue,
				Subtotal:      ln.Subtotal,
				VAT:           ln.VAT,
			})
		}
		return q
	}

	store := &quoteNumberStore{db: s.DB, userID: user.ID, build: build}

	if in.ManualNumber != "" {
		if err := numbering.UseManual(ctx, store, in.ManualNumber); err != nil {
			return nil, err
		}
		Audit(s.DB, user.ID, "Quote", store.created.ID, "create", store.created.Number)
		return store.created, nil
	}

	latest, err := latestQuoteNumber(s.DB, user.ID, user.QuotePrefix)
	if err != nil {
		return nil, err
	}
	if latest != "" {
		if err := numbering.Sync(ctx, store, latest); err != nil {
			return nil, err
		}
	}

	if _, err := numbering.Allocate(ctx, store, numbering.CreateAttempts); err != nil {
		return nil, err
	}
	Audit(s.DB, user.ID, "Quote", store.created.ID, "create", store.created.Number)
	return store.created, nil
}

// Convert turns an accepted quote into a draft invoice. The invoice gets its
// own freshly allocated number; the quote is marked converted and linked.
func (s *QuoteService) Convert(ctx context.Context, user models.User, quoteID uint) (*models.Invoice, error) {
	var q models.Quote
	if err := s.DB.Preload("Items").Where("user_id = ?", user.ID).First(&q, quoteID).Error; err != nil {
		return nil, err
	}
	if q.Status == "converted" || q.ConvertedToInvoiceID != 0 {
		return nil, ErrAlreadyConverted
	}

	in := InvoiceInput{
		ClientID:      q.ClientID,
		DiscountType:  q.DiscountType,
		DiscountValue: q.DiscountValue,
		Currency:      q.Currency,
	}
	for _, it := range q.Items {
		in.Lines = append(in.Lines, LineInput{
			ProductID:     it.ProductID,
			Description:   it.Description,
			Quantity:      it.Quantity,
			UnitPrice:     it.UnitPrice,
			VATRate:       it.VATRate,
			DiscountType:  it.DiscountType,
			DiscountValue: it.DiscountValue,
		})
	}
	inv, err := s.Invoices.Create(ctx, user, in)
	if err != nil {
		return nil, err
	}
	if err := s.DB.Model(&q).Updates(models.Quote{Status: "converted", ConvertedToInvoiceID: inv.ID}).Error; err != nil {
		return nil, err
	}
	Audit(s.DB, user.ID, "Quote", q.ID, "convert", inv.Number)
	return inv, nil
}
