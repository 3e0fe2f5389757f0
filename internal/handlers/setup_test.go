package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/simplifaq/simplifaq/internal/auth"
	"github.com/simplifaq/simplifaq/internal/models"
)

func setupHandlerDB(t *testing.T) *gorm.DB {
	// unique in-memory DB per test name to avoid leakage via shared cache
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
	return db
}

// seedAccount creates a user with a QR-IBAN, a client and a product, and
// returns a valid session cookie for the user.
func seedAccount(t *testing.T, db *gorm.DB) (models.User, models.Client, models.Product, *http.Cookie) {
	t.Helper()
	addr := models.Address{Ligne1: "Rue du Stand 1", CodePostal: "1204", Ville: "Genève", Pays: "Suisse"}
	if err := db.Create(&addr).Error; err != nil {
		t.Fatalf("create address: %v", err)
	}
	user := models.User{
		Email:             "tester@example.com",
		Password:          "hash",
		Nom:               "Dupont",
		Prenom:            "Marie",
		Company:           "Dupont Conseil Sàrl",
		AddressID:         addr.ID,
		IBAN:              "CH4431999123000889012",
		QRReferenceMode:   "auto",
		InvoicePrefix:     "FAC",
		InvoicePadding:    4,
		NextInvoiceNumber: 1,
		QuotePrefix:       "DEV",
		QuotePadding:      4,
		NextQuoteNumber:   1,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	clientAddr := models.Address{Ligne1: "Bahnhofstrasse 10", CodePostal: "8001", Ville: "Zürich", Pays: "Suisse"}
	if err := db.Create(&clientAddr).Error; err != nil {
		t.Fatalf("create client address: %v", err)
	}
	client := models.Client{UserID: user.ID, Nom: "Muster AG", Email: "compta@muster.ch", AddressID: clientAddr.ID}
	if err := db.Create(&client).Error; err != nil {
		t.Fatalf("create client: %v", err)
	}
	product := models.Product{
		UserID: user.ID, Code: "CONSEIL", Name: "Conseil", UnitPrice: 150, VATRate: 8.1, Unit: "h",
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}

	sessW := httptest.NewRecorder()
	auth.CreateSession(sessW, user.ID)
	return user, client, product, sessW.Result().Cookies()[0]
}

func jsonRequest(method, target, body string, cookie *http.Cookie) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}
