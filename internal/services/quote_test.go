package services

import (
	"context"
	"errors"
	"testing"

	"github.com/simplifaq/simplifaq/internal/models"
)

func TestQuoteCreateSequentialNumbers(t *testing.T) {
	db := setupServiceDB(t)
	user, client := seedUserAndClient(t, db)
	svc := NewQuoteService(db, NewInvoiceService(db))
	ctx := context.Background()

	q1, err := svc.Create(ctx, user, QuoteInput{ClientID: client.ID, Lines: simpleLines()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if q1.Number != "DEV-0001" {
		t.Fatalf("number = %q", q1.Number)
	}
	q2, err := svc.Create(ctx, user, QuoteInput{ClientID: client.ID, Lines: simpleLines()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if q2.Number != "DEV-0002" {
		t.Fatalf("number = %q", q2.Number)
	}
}

func TestQuoteCreateSyncsCounterAgainstExisting(t *testing.T) {
	db := setupServiceDB(t)
	user, client := seedUserAndClient(t, db)
	// a quote exists way ahead of the stored counter (manual edit)
	ahead := models.Quote{UserID: user.ID, Number: "DEV-0009", ClientID: client.ID, Status: "sent"}
	if err := db.Create(&ahead).Error; err != nil {
		t.Fatalf("seed: %v", err)
	}
	svc := NewQuoteService(db, NewInvoiceService(db))
	q, err := svc.Create(context.Background(), user, QuoteInput{ClientID: client.ID, Lines: simpleLines()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if q.Number != "DEV-0010" {
		t.Fatalf("expected counter to sync past existing quote, got %q", q.Number)
	}
	var u models.User
	_ = db.First(&u, user.ID).Error
	if u.NextQuoteNumber != 11 {
		t.Fatalf("counter = %d, want 11", u.NextQuoteNumber)
	}
}

func TestQuoteConvert(t *testing.T) {
	db := setupServiceDB(t)
	user, client := seedUserAndClient(t, db)
	svc := NewQuoteService(db, NewInvoiceService(db))
	ctx := context.Background()

	q, err := svc.Create(ctx, user, QuoteInput{ClientID: client.ID, Lines: simpleLines()})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	inv, err := svc.Convert(ctx, user, q.ID)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if inv.Number != "FAC-0001" {
		t.Fatalf("invoice number = %q", inv.Number)
	}
	if inv.Total != q.Total || len(inv.Items) != len(q.Items) {
		t.Fatalf("conversion must copy lines and totals")
	}
	var got models.Quote
	_ = db.First(&got, q.ID).Error
	if got.Status != "converted" || got.ConvertedToInvoiceID != inv.ID {
		t.Fatalf("quote not linked: %+v", got)
	}

	// idempotence guard
	if _, err := svc.Convert(ctx, user, q.ID); !errors.Is(err, ErrAlreadyConverted) {
		t.Fatalf("expected ErrAlreadyConverted, got %v", err)
	}
}
