package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/simplifaq/simplifaq/internal/models"
)

type nullMailer struct{}

func (nullMailer) Send(_, _, _ string, _ []byte, _ string) error { return nil }

func setupRouter(t *testing.T) (http.Handler, *gorm.DB) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Address{}, &models.User{}, &models.Client{}, &models.Product{},
		&models.Invoice{}, &models.InvoiceItem{}, &models.Quote{}, &models.QuoteItem{},
		&models.Payment{}, &models.AuditLog{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return New(db, nullMailer{}), db
}

func TestHealthEndpoints(t *testing.T) {
	h, _ := setupRouter(t)
	for _, path := range []string{"/health", "/healthz"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: expected 200 got %d", path, rec.Code)
		}
	}
}

func TestProtectedRoutesRejectAnonymous(t *testing.T) {
	h, _ := setupRouter(t)
	for _, path := range []string{"/clients", "/products", "/invoices", "/quotes", "/payments", "/settings"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s: expected 401 got %d", path, rec.Code)
		}
	}
}

func TestFullInvoiceJourney(t *testing.T) {
	h, _ := setupRouter(t)

	do := func(method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, path, nil)
		} else {
			req = httptest.NewRequest(method, path, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		}
		for _, c := range cookies {
			req.AddCookie(c)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := do(http.MethodPost, "/auth/register", `{"email":"indep@example.com","password":"motdepasse","company":"Indép Sàrl"}`, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201 got %d body=%s", rec.Code, rec.Body.String())
	}
	cookies := rec.Result().Cookies()

	rec = do(http.MethodPost, "/settings", `{"iban":"CH4431999123000889012","invoice_prefix":"FAC"}`, cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("settings: expected 200 got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = do(http.MethodPost, "/clients", `{"nom":"Muster AG","email":"compta@muster.ch","address":{"ligne1":"Bahnhofstrasse 10","code_postal":"8001","ville":"Zürich"}}`, cookies)
	if rec.Code != http.StatusCreated {
		t.Fatalf("client: expected 201 got %d body=%s", rec.Code, rec.Body.String())
	}
	var client models.Client
	_ = json.Unmarshal(rec.Body.Bytes(), &client)

	rec = do(http.MethodPost, "/invoices", fmt.Sprintf(`{"client_id":%d,"items":[{"description":"Conseil","quantity":2,"unit_price":150,"vat_rate":8.1}]}`, client.ID), cookies)
	if rec.Code != http.StatusCreated {
		t.Fatalf("invoice: expected 201 got %d body=%s", rec.Code, rec.Body.String())
	}
	var inv models.Invoice
	_ = json.Unmarshal(rec.Body.Bytes(), &inv)
	if inv.Number != "FAC-0001" || inv.QRReferenceType != "QRR" {
		t.Fatalf("unexpected invoice: number=%s ref=%s", inv.Number, inv.QRReferenceType)
	}

	rec = do(http.MethodGet, fmt.Sprintf("/invoices/pdf?id=%d", inv.ID), "", cookies)
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Body.String(), "%PDF") {
		t.Fatalf("pdf: code=%d", rec.Code)
	}

	// wrong verb on a POST-only route
	rec = do(http.MethodGet, "/invoices/duplicate?id=1", "", cookies)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 got %d", rec.Code)
	}
}

func TestSessionOfDeletedUserIsRejected(t *testing.T) {
	h, db := setupRouter(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(`{"email":"ghost@example.com","password":"motdepasse"}`))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: got %d", rec.Code)
	}
	cookies := rec.Result().Cookies()

	if err := db.Where("email = ?", "ghost@example.com").Delete(&models.User{}).Error; err != nil {
		t.Fatalf("delete user: %v", err)
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/clients", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for deleted user, got %d", rec.Code)
	}
}
