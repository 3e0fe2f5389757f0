package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/simplifaq/simplifaq/internal/models"
	"github.com/simplifaq/simplifaq/internal/numbering"
)

// isUniqueViolation detects a unique-constraint failure across the drivers
// we run against (postgres in production, sqlite in tests).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

// invoiceNumberStore adapts the users.next_invoice_number counter and the
// invoices (user_id, number) unique index to the numbering.Store contract.
// build constructs the full invoice for a candidate number so the row and
// its number are created atomically.
type invoiceNumberStore struct {
	db      *gorm.DB
	userID  uint
	build   func(number string) *models.Invoice
	created *models.Invoice
}

func (st *invoiceNumberStore) Counter(_ context.Context) (numbering.Counter, error) {
	var u models.User
	if err := st.db.Select("invoice_prefix", "invoice_padding", "next_invoice_number").First(&u, st.userID).Error; err != nil {
		return numbering.Counter{}, err
	}
	return numbering.Counter{Prefix: u.InvoicePrefix, Padding: u.InvoicePadding, Next: u.NextInvoiceNumber}, nil
}

func (st *invoiceNumberStore) Create(_ context.Context, number string) error {
	inv := st.build(number)
	if err := st.db.Create(inv).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("invoice %s: %w", number, numbering.ErrTaken)
		}
		return err
	}
	st.created = inv
	return nil
}

func (st *invoiceNumberStore) SetNext(_ context.Context, next int) error {
	// guarded update keeps the counter monotonic under concurrent allocation
	return st.db.Model(&models.User{}).
		Where("id = ? AND next_invoice_number < ?", st.userID, next).
		Update("next_invoice_number", next).Error
}

func (st *invoiceNumberStore) Exists(_ context.Context, number string) (bool, error) {
	var count int64
	err := st.db.Model(&models.Invoice{}).
		Where("user_id = ? AND number = ?", st.userID, number).
		Count(&count).Error
	return count > 0, err
}

// quoteNumberStore is the quote counterpart, backed by the separate quote
// counter and the quotes (user_id, number) unique index.
type quoteNumberStore struct {
	db      *gorm.DB
	userID  uint
	build   func(number string) *models.Quote
	created *models.Quote
}

func (st *quoteNumberStore) Counter(_ context.Context) (numbering.Counter, error) {
	var u models.User
	if err := st.db.Select("quote_prefix", "quote_padding", "next_quote_number").First(&u, st.userID).Error; err != nil {
		return numbering.Counter{}, err
	}
	return numbering.Counter{Prefix: u.QuotePrefix, Padding: u.QuotePadding, Next: u.NextQuoteNumber}, nil
}

func (st *quoteNumberStore) Create(_ context.Context, number string) error {
	q := st.build(number)
	if err := st.db.Create(q).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("quote %s: %w", number, numbering.ErrTaken)
		}
		return err
	}
	st.created = q
	return nil
}

func (st *quoteNumberStore) SetNext(_ context.Context, next int) error {
	return st.db.Model(&models.User{}).
		Where("id = ? AND next_quote_number < ?", st.userID, next).
		Update("next_quote_number", next).Error
}

func (st *quoteNumberStore) Exists(_ context.Context, number string) (bool, error) {
	var count int64
	err := st.db.Model(&models.Quote{}).
		Where("user_id = ? AND number = ?", st.userID, number).
		Count(&count).Error
	return count > 0, err
}

// latestQuoteNumber returns the most recent quote number of the user matching
// the current prefix pattern, or "" when none exists. Feeds numbering.Sync
// before allocation.
func latestQuoteNumber(db *gorm.DB, userID uint, prefix string) (string, error) {
	pattern := "%"
	if prefix != "" {
		pattern = prefix + "-%"
	}
	var q models.Quote
	err := db.Select("number").
		Where("user_id = ? AND number LIKE ?", userID, pattern).
		Order("id desc").First(&q).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return q.Number, nil
}
