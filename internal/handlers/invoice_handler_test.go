package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"gorm.io/gorm"

	"github.com/simplifaq/simplifaq/internal/auth"
	"github.com/simplifaq/simplifaq/internal/models"
	"github.com/simplifaq/simplifaq/internal/services"
	"github.com/simplifaq/simplifaq/internal/swiss"
)

type fakeMailer struct {
	to       string
	subject  string
	attached int
}

func (f *fakeMailer) Send(to, subject, _ string, attachment []byte, _ string) error {
	f.to = to
	f.subject = subject
	f.attached = len(attachment)
	return nil
}

func invoiceMux(db *gorm.DB, mailer *fakeMailer) http.Handler {
	svc := services.NewInvoiceService(db)
	ih := NewInvoiceHandler(db, svc, mailer)
	payh := NewPaymentHandler(db, svc)
	mux := http.NewServeMux()
	mux.HandleFunc("/invoices", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			ih.List(w, r)
			return
		}
		ih.Create(w, r)
	})
	mux.HandleFunc("/invoices/duplicate", ih.Duplicate)
	mux.HandleFunc("/invoices/status", ih.UpdateStatus)
	mux.HandleFunc("/invoices/pdf", ih.PDF)
	mux.HandleFunc("/invoices/send", ih.Send)
	mux.HandleFunc("/payments", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			payh.List(w, r)
			return
		}
		payh.Create(w, r)
	})
	return auth.Middleware(mux)
}

func TestInvoiceCreateFlow(t *testing.T) {
	db := setupHandlerDB(t)
	_, client, product, cookie := seedAccount(t, db)
	h := invoiceMux(db, &fakeMailer{})

	body := fmt.Sprintf(`{
		"client_id": %d,
		"discount": {"type":"PERCENT","value":10},
		"items": [
			{"product_id": %d, "quantity": 2},
			{"description":"Déplacement","quantity":1,"unit_price":100,"vat_rate":8.1}
		]
	}`, client.ID, product.ID)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, jsonRequest(http.MethodPost, "/invoices", body, cookie))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", rec.Code, rec.Body.String())
	}
	var inv models.Invoice
	if err := json.Unmarshal(rec.Body.Bytes(), &inv); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if inv.Number != "FAC-0001" {
		t.Fatalf("expected FAC-0001 got %s", inv.Number)
	}
	// 2x150 + 100 = 400 gross, 10% global discount = 40, VAT 8.1 on 360
	if inv.Subtotal != 400 || inv.Discount != 40 {
		t.Fatalf("unexpected totals: subtotal=%v discount=%v", inv.Subtotal, inv.Discount)
	}
	if inv.VAT != 29.16 || inv.Total != 389.16 {
		t.Fatalf("unexpected tax: vat=%v total=%v", inv.VAT, inv.Total)
	}
	// QR-IBAN account in auto mode must yield a structured reference
	if inv.QRReferenceType != "QRR" || !swiss.IsValidQRReference(inv.QRReference) {
		t.Fatalf("expected valid QRR reference, got %s %q", inv.QRReferenceType, inv.QRReference)
	}

	// description frozen from the catalogue
	var items []models.InvoiceItem
	if err := db.Where("invoice_id = ?", inv.ID).Order("id").Find(&items).Error; err != nil {
		t.Fatalf("load items: %v", err)
	}
	if len(items) != 2 || items[0].Description != "Conseil" || items[0].UnitPrice != 150 {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestInvoiceCreateValidation(t *testing.T) {
	db := setupHandlerDB(t)
	_, client, _, cookie := seedAccount(t, db)
	h := invoiceMux(db, &fakeMailer{})

	cases := []struct {
		name string
		body string
		code int
	}{
		{"missing client", `{"items":[{"description":"x","quantity":1,"unit_price":10,"vat_rate":0}]}`, http.StatusBadRequest},
		{"no items", fmt.Sprintf(`{"client_id":%d,"items":[]}`, client.ID), http.StatusBadRequest},
		{"bad discount type", fmt.Sprintf(`{"client_id":%d,"discount":{"type":"FLAT","value":1},"items":[{"description":"x","quantity":1,"unit_price":10,"vat_rate":0}]}`, client.ID), http.StatusBadRequest},
		{"percent over 100", fmt.Sprintf(`{"client_id":%d,"discount":{"type":"PERCENT","value":150},"items":[{"description":"x","quantity":1,"unit_price":10,"vat_rate":0}]}`, client.ID), http.StatusBadRequest},
		{"manual number bad format", fmt.Sprintf(`{"client_id":%d,"manual_number":"FAC 001","items":[{"description":"x","quantity":1,"unit_price":10,"vat_rate":0}]}`, client.ID), http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, jsonRequest(http.MethodPost, "/invoices", tc.body, cookie))
		if rec.Code != tc.code {
			t.Errorf("%s: expected %d got %d body=%s", tc.name, tc.code, rec.Code, rec.Body.String())
		}
	}
}

func TestInvoiceManualNumberConflict(t *testing.T) {
	db := setupHandlerDB(t)
	_, client, _, cookie := seedAccount(t, db)
	h := invoiceMux(db, &fakeMailer{})

	body := fmt.Sprintf(`{"client_id":%d,"manual_number":"SPECIAL-1","items":[{"description":"x","quantity":1,"unit_price":10,"vat_rate":0}]}`, client.ID)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, jsonRequest(http.MethodPost, "/invoices", body, cookie))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", rec.Code, rec.Body.String())
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, jsonRequest(http.MethodPost, "/invoices", body, cookie))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestInvoiceDuplicateAndStatus(t *testing.T) {
	db := setupHandlerDB(t)
	_, client, product, cookie := seedAccount(t, db)
	h := invoiceMux(db, &fakeMailer{})

	body := fmt.Sprintf(`{"client_id":%d,"items":[{"product_id":%d,"quantity":1}]}`, client.ID, product.ID)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, jsonRequest(http.MethodPost, "/invoices", body, cookie))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201 got %d", rec.Code)
	}
	var inv models.Invoice
	_ = json.Unmarshal(rec.Body.Bytes(), &inv)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, jsonRequest(http.MethodPost, fmt.Sprintf("/invoices/duplicate?id=%d", inv.ID), "", cookie))
	if rec.Code != http.StatusCreated {
		t.Fatalf("duplicate: expected 201 got %d body=%s", rec.Code, rec.Body.String())
	}
	var dup models.Invoice
	_ = json.Unmarshal(rec.Body.Bytes(), &dup)
	if dup.Number != "FAC-0002" || dup.Total != inv.Total {
		t.Fatalf("unexpected duplicate: number=%s total=%v", dup.Number, dup.Total)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, jsonRequest(http.MethodPost, fmt.Sprintf("/invoices/status?id=%d", inv.ID), `{"status":"sent"}`, cookie))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: expected 200 got %d body=%s", rec.Code, rec.Body.String())
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, jsonRequest(http.MethodPost, fmt.Sprintf("/invoices/status?id=%d", inv.ID), `{"status":"archived"}`, cookie))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad status: expected 400 got %d", rec.Code)
	}
}

func TestInvoicePDFAndSend(t *testing.T) {
	db := setupHandlerDB(t)
	_, client, product, cookie := seedAccount(t, db)
	mailer := &fakeMailer{}
	h := invoiceMux(db, mailer)

	body := fmt.Sprintf(`{"client_id":%d,"items":[{"product_id":%d,"quantity":2}]}`, client.ID, product.ID)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, jsonRequest(http.MethodPost, "/invoices", body, cookie))
	var inv models.Invoice
	_ = json.Unmarshal(rec.Body.Bytes(), &inv)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, jsonRequest(http.MethodGet, fmt.Sprintf("/invoices/pdf?id=%d", inv.ID), "", cookie))
	if rec.Code != http.StatusOK {
		t.Fatalf("pdf: expected 200 got %d body=%s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Fatalf("unexpected content type %q", ct)
	}
	if rec.Body.Len() < 4 || rec.Body.String()[:4] != "%PDF" {
		t.Fatalf("response is not a PDF")
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, jsonRequest(http.MethodPost, fmt.Sprintf("/invoices/send?id=%d", inv.ID), "", cookie))
	if rec.Code != http.StatusOK {
		t.Fatalf("send: expected 200 got %d body=%s", rec.Code, rec.Body.String())
	}
	if mailer.to != client.Email || mailer.attached == 0 {
		t.Fatalf("mail not dispatched: to=%q attached=%d", mailer.to, mailer.attached)
	}
	var fresh models.Invoice
	if err := db.First(&fresh, inv.ID).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if fresh.Status != "sent" {
		t.Fatalf("expected status sent got %s", fresh.Status)
	}
}

func TestPaymentsCoverInvoice(t *testing.T) {
	db := setupHandlerDB(t)
	_, client, product, cookie := seedAccount(t, db)
	h := invoiceMux(db, &fakeMailer{})

	body := fmt.Sprintf(`{"client_id":%d,"items":[{"product_id":%d,"quantity":2}]}`, client.ID, product.ID)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, jsonRequest(http.MethodPost, "/invoices", body, cookie))
	var inv models.Invoice
	_ = json.Unmarshal(rec.Body.Bytes(), &inv)
	// 2x150 at 8.1% VAT
	if inv.Total != 324.30 {
		t.Fatalf("unexpected total %v", inv.Total)
	}

	pay := fmt.Sprintf(`{"invoice_id":%d,"montant":200,"mode":"virement","date":"2026-08-01"}`, inv.ID)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, jsonRequest(http.MethodPost, "/payments", pay, cookie))
	if rec.Code != http.StatusCreated {
		t.Fatalf("payment: expected 201 got %d body=%s", rec.Code, rec.Body.String())
	}
	var fresh models.Invoice
	_ = db.First(&fresh, inv.ID).Error
	if fresh.Status == "paid" {
		t.Fatalf("partial payment must not mark invoice paid")
	}

	pay = fmt.Sprintf(`{"invoice_id":%d,"montant":124.30,"mode":"twint"}`, inv.ID)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, jsonRequest(http.MethodPost, "/payments", pay, cookie))
	if rec.Code != http.StatusCreated {
		t.Fatalf("payment 2: expected 201 got %d body=%s", rec.Code, rec.Body.String())
	}
	_ = db.First(&fresh, inv.ID).Error
	if fresh.Status != "paid" {
		t.Fatalf("expected paid got %s", fresh.Status)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, jsonRequest(http.MethodGet, fmt.Sprintf("/payments?invoice_id=%d", inv.ID), "", cookie))
	if rec.Code != http.StatusOK {
		t.Fatalf("list payments: expected 200 got %d", rec.Code)
	}
	var listing struct {
		Items         []models.Payment `json:"items"`
		InvoiceStatus string           `json:"invoice_status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listing.Items) != 2 || listing.InvoiceStatus != "paid" {
		t.Fatalf("unexpected listing: %d items status=%s", len(listing.Items), listing.InvoiceStatus)
	}
	if listing.Items[0].Reference == listing.Items[1].Reference {
		t.Fatalf("payment references must be unique")
	}
}

func TestInvoiceRoutesRequireAuth(t *testing.T) {
	db := setupHandlerDB(t)
	seedAccount(t, db)
	svc := services.NewInvoiceService(db)
	ih := NewInvoiceHandler(db, svc, &fakeMailer{})
	rec := httptest.NewRecorder()
	ih.List(rec, jsonRequest(http.MethodGet, "/invoices", "", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}
