package user

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/usched/usched-api/database/dbtest"
	"github.com/usched/usched-api/services/identity"
	authutil "github.com/usched/usched-api/utils/auth"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	authutil.Cost = bcrypt.MinCost
}

type stubMailer struct {
	err   error
	count int
}

func (m *stubMailer) SendAccountCredentials(string, string, string) error {
	m.count++
	return m.err
}

func newApp(t *testing.T, mailer identity.Mailer) (*fiber.App, uint) {
	t.Helper()
	db := dbtest.Open(t)
	college := dbtest.SeedCollege(t, db, "CCS", "BSCS")

	h := NewUserHandler(identity.NewService(db, mailer))
	app := fiber.New()
	app.Get("/api/users", h.ListUsers)
	app.Post("/api/users", h.CreateAdmin)
	app.Post("/api/users/deanchair", h.CreateDeanChair)
	app.Put("/api/users/admin/:userId", h.UpdateAdmin)
	app.Put("/api/users/deanchair/:userId", h.UpdateDeanChair)
	app.Put("/api/users/professor/:userId/send-password", h.SendPassword)
	return app, college.ID
}

func call(t *testing.T, app *fiber.App, method, path string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	var out map[string]interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return resp.StatusCode, out
}

func TestDeanChairAccounts(t *testing.T) {
	mailer := &stubMailer{}
	app, collegeID := newApp(t, mailer)
	input := map[string]interface{}{
		"first_name":   "Jose",
		"last_name":    "Cruz",
		"college_id":   collegeID,
		"faculty_type": "Full-time",
		"position":     "Dean",
		"status":       "Active",
		"email":        "jose@school.edu",
	}

	status, body := call(t, app, http.MethodPost, "/api/users/deanchair", input)
	if status != fiber.StatusCreated {
		t.Fatalf("create = %d %v", status, body)
	}
	user := body["data"].(map[string]interface{})["user"].(map[string]interface{})
	userID := int(user["user_id"].(float64))
	if user["role"] != "DEAN" || mailer.count != 1 {
		t.Errorf("role = %v, mails = %d", user["role"], mailer.count)
	}

	if status, _ = call(t, app, http.MethodPost, "/api/users/deanchair", input); status != fiber.StatusConflict {
		t.Errorf("duplicate email = %d, want 409", status)
	}

	input["position"] = "Chair"
	status, _ = call(t, app, http.MethodPut, fmt.Sprintf("/api/users/deanchair/%d", userID), input)
	if status != fiber.StatusOK {
		t.Fatalf("update = %d", status)
	}

	_, body = call(t, app, http.MethodGet, "/api/users", nil)
	accounts := body["data"].([]interface{})
	if len(accounts) != 1 || accounts[0].(map[string]interface{})["role"] != "CHAIR" {
		t.Errorf("accounts = %v", accounts)
	}

	mailer.err = errors.New("smtp down")
	status, _ = call(t, app, http.MethodPut, fmt.Sprintf("/api/users/professor/%d/send-password", userID), nil)
	if status != fiber.StatusBadGateway {
		t.Errorf("send-password with failing mail = %d, want 502", status)
	}
}

func TestCreateAdminValidation(t *testing.T) {
	app, _ := newApp(t, nil)

	status, body := call(t, app, http.MethodPost, "/api/users", map[string]interface{}{
		"first_name": "Ana", "last_name": "Lim", "email": "not-an-email", "password": "long-enough", "status": "Active",
	})
	if status != fiber.StatusBadRequest {
		t.Fatalf("status = %d %v", status, body)
	}

	status, _ = call(t, app, http.MethodPost, "/api/users", map[string]interface{}{
		"first_name": "Ana", "last_name": "Lim", "email": "ana@school.edu", "password": "long-enough", "status": "Active",
	})
	if status != fiber.StatusCreated {
		t.Fatalf("create = %d", status)
	}

	status, _ = call(t, app, http.MethodPut, "/api/users/admin/999", map[string]interface{}{
		"first_name": "Ana", "last_name": "Lim", "email": "ana@school.edu", "status": "Active",
	})
	if status != fiber.StatusNotFound {
		t.Errorf("unknown admin = %d, want 404", status)
	}
}
