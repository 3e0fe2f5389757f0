package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/simplifaq/simplifaq/internal/auth"
	"github.com/simplifaq/simplifaq/internal/models"
)

func TestRegisterLoginLogout(t *testing.T) {
	db := setupHandlerDB(t)
	mux := http.NewServeMux()
	NewAuthHandler(db).Register(mux)
	h := auth.Middleware(mux)

	rec := httptest.NewRecorder()
	body := `{"email":"Nouveau@Example.com","password":"motdepasse","nom":"Petit","company":"Petit Sàrl"}`
	h.ServeHTTP(rec, jsonRequest(http.MethodPost, "/auth/register", body, nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201 got %d body=%s", rec.Code, rec.Body.String())
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Fatalf("register must open a session")
	}
	var user models.User
	if err := db.Where("email = ?", "nouveau@example.com").First(&user).Error; err != nil {
		t.Fatalf("user not stored with lowercased email: %v", err)
	}
	if user.Password == "motdepasse" {
		t.Fatalf("password stored in clear")
	}
	if user.QRReferenceMode != "auto" || user.NextInvoiceNumber != 1 || user.InvoicePadding != 4 {
		t.Fatalf("unexpected defaults: %+v", user)
	}

	// duplicate email
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, jsonRequest(http.MethodPost, "/auth/register", body, nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: expected 409 got %d", rec.Code)
	}

	// wrong password and unknown email produce the same error
	for _, login := range []string{
		`{"email":"nouveau@example.com","password":"mauvais-mdp"}`,
		`{"email":"inconnu@example.com","password":"motdepasse"}`,
	} {
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, jsonRequest(http.MethodPost, "/auth/login", login, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("login: expected 401 got %d", rec.Code)
		}
		var resp map[string]any
		_ = json.Unmarshal(rec.Body.Bytes(), &resp)
		if resp["error"] != "invalid_credentials" {
			t.Fatalf("unexpected error body: %v", resp)
		}
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, jsonRequest(http.MethodPost, "/auth/login", `{"email":"NOUVEAU@example.com","password":"motdepasse"}`, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200 got %d body=%s", rec.Code, rec.Body.String())
	}
	cookie := rec.Result().Cookies()[0]

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, jsonRequest(http.MethodPost, "/auth/logout", "", cookie))
	if rec.Code != http.StatusOK {
		t.Fatalf("logout: expected 200 got %d", rec.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	db := setupHandlerDB(t)
	mux := http.NewServeMux()
	NewAuthHandler(db).Register(mux)

	for name, body := range map[string]string{
		"missing email":  `{"password":"motdepasse"}`,
		"short password": `{"email":"a@b.ch","password":"court"}`,
		"bad json":       `{"email":`,
	} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, jsonRequest(http.MethodPost, "/auth/register", body, nil))
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400 got %d", name, rec.Code)
		}
	}
}
