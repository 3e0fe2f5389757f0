package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/simplifaq/simplifaq/internal/models"
	"github.com/simplifaq/simplifaq/internal/numbering"
	"github.com/simplifaq/simplifaq/internal/swiss"
)

// InvoiceService encapsulates invoice business logic: numbering, totals and
// QR reference assignment.
type InvoiceService struct{ DB *gorm.DB }

func NewInvoiceService(db *gorm.DB) *InvoiceService { return &InvoiceService{DB: db} }

// InvoiceInput is a validated invoice creation request.
type InvoiceInput struct {
	ClientID      uint
	Lines         []LineInput
	DiscountType  string
	DiscountValue float64
	// ManualNumber bypasses the counter when set.
	ManualNumber string
	// ManualQRReference is used when the user's reference mode is manual.
	ManualQRReference string
	Currency          string
	IssuedAt          time.Time
	DueAt             time.Time
}

// Create computes totals, assigns the next invoice number (or the manual
// override) and persists the invoice with its frozen QR reference.
func (s *InvoiceService) Create(ctx context.Context, user models.User, in InvoiceInput) (*models.Invoice, error) {
	store := &invoiceNumberStore{db: s.DB, userID: user.ID, build: s.builder(user, in)}
	if in.ManualNumber != "" {
		if err := numbering.UseManual(ctx, store, in.ManualNumber); err != nil {
			return nil, err
		}
	} else if _, err := numbering.Allocate(ctx, store, numbering.CreateAttempts); err != nil {
		return nil, err
	}
	Audit(s.DB, user.ID, "Invoice", store.created.ID, "create", store.created.Number)
	return store.created, nil
}

// Duplicate copies an existing invoice of the user under a freshly allocated
// number. The duplicate starts over as a draft with today's dates and gets
// the wider retry budget: duplicates are created in bursts next to the
// original, so counter conflicts are likelier.
func (s *InvoiceService) Duplicate(ctx context.Context, user models.User, invoiceID uint) (*models.Invoice, error) {
	var src models.Invoice
	if err := s.DB.Preload("Items").Where("user_id = ?", user.ID).First(&src, invoiceID).Error; err != nil {
		return nil, err
	}
	in := InvoiceInput{
		ClientID:      src.ClientID,
		DiscountType:  src.DiscountType,
		DiscountValue: src.DiscountValue,
		Currency:      src.Currency,
	}
	for _, it := range src.Items {
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
	store := &invoiceNumberStore{db: s.DB, userID: user.ID, build: s.builder(user, in)}
	if _, err := numbering.Allocate(ctx, store, numbering.DuplicateAttempts); err != nil {
		return nil, err
	}
	Audit(s.DB, user.ID, "Invoice", store.created.ID, "duplicate", store.created.Number)
	return store.created, nil
}

// builder returns the constructor invoked per allocation attempt. The QR
// reference depends on the candidate number, so it is derived inside.
func (s *InvoiceService) builder(user models.User, in InvoiceInput) func(number string) *models.Invoice {
	totals := ComputeTotals(in.Lines, in.DiscountType, in.DiscountValue)

	issuedAt := in.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = time.Now()
	}
	dueAt := in.DueAt
	if dueAt.IsZero() {
		dueAt = issuedAt.AddDate(0, 1, 0)
	}
	currency := in.Currency
	if currency == "" {
		currency = "CHF"
	}

	return func(number string) *models.Invoice {
		ref := swiss.ComputeQRReference(swiss.ReferenceOptions{
			Mode:            swiss.ReferenceMode(user.QRReferenceMode),
			Prefix:          user.InvoicePrefix,
			IBAN:            user.IBAN,
			InvoiceNumber:   number,
			ManualReference: in.ManualQRReference,
		})
		inv := &models.Invoice{
			UserID:          user.ID,
			Number:          number,
			Status:          "draft",
			ClientID:        in.ClientID,
			DiscountType:    in.DiscountType,
			DiscountValue:   in.DiscountValue,
			QRReference:     ref.Reference,
			QRReferenceType: string(ref.Type),
			Subtotal:        totals.Subtotal,
			Discount:        totals.Discount,
			VAT:             totals.VAT,
			Total:           totals.Total,
			Currency:        currency,
			IssuedAt:        issuedAt,
			DueAt:           dueAt,
		}
		for _, ln := range totals.Lines {
			inv.Items = append(inv.Items, models.InvoiceItem{
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
		return inv
	}
}

// MarkPaidWhenCovered flips an invoice to paid once recorded payments reach
// its total.
func (s *InvoiceService) MarkPaidWhenCovered(invoiceID uint) error {
	var inv models.Invoice
	if err := s.DB.First(&inv, invoiceID).Error; err != nil {
		return err
	}
	var paid float64
	if err := s.DB.Model(&models.Payment{}).Where("invoice_id = ?", invoiceID).
		Select("COALESCE(SUM(montant), 0)").Scan(&paid).Error; err != nil {
		return err
	}
	if paid+0.005 >= inv.Total && inv.Status != "paid" {
		return s.DB.Model(&inv).Update("status", "paid").Error
	}
	return nil
}

// IsNotFound reports whether err is the gorm record-not-found sentinel.
func IsNotFound(err error) bool { return errors.Is(err, gorm.ErrRecordNotFound) }
