package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/usched/usched-api/database/dbtest"
	"github.com/usched/usched-api/model"
	"github.com/usched/usched-api/services/identity"
	authutil "github.com/usched/usched-api/utils/auth"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	authutil.Cost = bcrypt.MinCost
}

const testSecret = "a-test-signing-secret-of-32-bytes!!"

type resetMail struct{ to, name, token string }

type fakeResetMailer struct {
	sent []resetMail
	err  error
}

func (m *fakeResetMailer) SendPasswordResetEmail(to, name, token string) error {
	m.sent = append(m.sent, resetMail{to, name, token})
	return m.err
}

type fixture struct {
	app     *fiber.App
	db      *gorm.DB
	handler *AuthHandler
	mailer  *fakeResetMailer
	user    *model.User
	admin   *model.Admin
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.Open(t)
	ids := identity.NewService(db, nil)

	admin, user, err := ids.CreateAdmin(t.Context(), identity.AdminInput{
		FirstName: "Ana", LastName: "Lim", Email: "ana@school.edu", Password: "correct-horse", Status: model.StatusActive,
	})
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}

	jwtManager, err := authutil.NewJWTManager(authutil.JWTConfig{Secret: testSecret})
	if err != nil {
		t.Fatalf("jwt: %v", err)
	}
	mailer := &fakeResetMailer{}
	h := NewAuthHandler(db, jwtManager, nil, ids, mailer)

	app := fiber.New()
	app.Post("/api/login", h.Login)
	app.Get("/api/dashboard", h.Dashboard)
	app.Post("/api/logout", h.Logout)
	app.Post("/api/password-reset/request", h.ForgotPassword)
	app.Post("/api/password-reset/reset", h.ResetPassword)

	return &fixture{app: app, db: db, handler: h, mailer: mailer, user: user, admin: admin}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}, token string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := f.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, out
}

func decode(t *testing.T, raw []byte) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return m
}

func TestLoginRequiresCredentials(t *testing.T) {
	f := newFixture(t)
	status, body := f.do(t, http.MethodPost, "/api/login", LoginRequest{Username: "ana@school.edu"}, "")
	if status != fiber.StatusBadRequest {
		t.Fatalf("status = %d", status)
	}
	if msg := decode(t, body)["message"]; msg != MsgCredentialsRequired {
		t.Errorf("message = %v", msg)
	}
}

func TestLoginFailuresShareOneShape(t *testing.T) {
	f := newFixture(t)

	wrongStatus, wrongBody := f.do(t, http.MethodPost, "/api/login",
		LoginRequest{Username: "ana@school.edu", Password: "not-the-password"}, "")
	unknownStatus, unknownBody := f.do(t, http.MethodPost, "/api/login",
		LoginRequest{Username: "nobody@school.edu", Password: "not-the-password"}, "")

	if wrongStatus != fiber.StatusUnauthorized || unknownStatus != fiber.StatusUnauthorized {
		t.Fatalf("statuses = %d, %d", wrongStatus, unknownStatus)
	}
	if !bytes.Equal(wrongBody, unknownBody) {
		t.Errorf("bodies differ:\n%s\n%s", wrongBody, unknownBody)
	}
	if msg := decode(t, wrongBody)["message"]; msg != MsgInvalidCredentials {
		t.Errorf("message = %v", msg)
	}
}

func TestLoginAndDashboard(t *testing.T) {
	f := newFixture(t)

	status, body := f.do(t, http.MethodPost, "/api/login",
		LoginRequest{Username: " ANA@school.edu ", Password: "correct-horse"}, "")
	if status != fiber.StatusOK {
		t.Fatalf("login status = %d: %s", status, body)
	}
	res := decode(t, body)
	token, _ := res["token"].(string)
	if token == "" {
		t.Fatalf("no token in %s", body)
	}
	user, _ := res["user"].(map[string]interface{})
	if user["fullName"] != "Ana Lim" || user["role"] != model.RoleAdmin || user["user_type"] != "ADMIN" {
		t.Errorf("unexpected user %v", user)
	}

	claims, err := f.handler.jwtManager.ValidateToken(token)
	if err != nil {
		t.Fatalf("issued token invalid: %v", err)
	}
	if ttl := claims.ExpiresAt.Sub(claims.IssuedAt.Time); ttl != time.Hour {
		t.Errorf("token lifetime = %v, want 1h", ttl)
	}

	status, body = f.do(t, http.MethodGet, "/api/dashboard", nil, token)
	if status != fiber.StatusOK {
		t.Fatalf("dashboard status = %d", status)
	}
	dash := decode(t, body)
	if dash["message"] != "Welcome to the Dashboard!" {
		t.Errorf("message = %v", dash["message"])
	}
	if u, _ := dash["user"].(map[string]interface{}); u["email"] != "ana@school.edu" {
		t.Errorf("dashboard user = %v", dash["user"])
	}
}

func TestDashboardRejectsMissingAndBadTokens(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name, token, want string
	}{
		{"missing", "", "No token provided."},
		{"garbage", "not.a.token", "Invalid token."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := f.do(t, http.MethodGet, "/api/dashboard", nil, tt.token)
			if status != fiber.StatusUnauthorized {
				t.Fatalf("status = %d", status)
			}
			if msg := decode(t, body)["message"]; msg != tt.want {
				t.Errorf("message = %v, want %q", msg, tt.want)
			}
		})
	}
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	status, body := f.do(t, http.MethodPost, "/api/logout", nil, "")
	if status != fiber.StatusOK || decode(t, body)["message"] != "Sign out successful." {
		t.Fatalf("logout = %d %s", status, body)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	f := newFixture(t)

	// unknown email gets the same reply and no mail
	status, body := f.do(t, http.MethodPost, "/api/password-reset/request", ForgotPasswordRequest{Email: "ghost@school.edu"}, "")
	if status != fiber.StatusOK || decode(t, body)["message"] != MsgResetRequested {
		t.Fatalf("unknown email = %d %s", status, body)
	}
	if len(f.mailer.sent) != 0 {
		t.Fatalf("mail sent for unknown email")
	}

	status, _ = f.do(t, http.MethodPost, "/api/password-reset/request", ForgotPasswordRequest{Email: "ana@school.edu"}, "")
	if status != fiber.StatusOK || len(f.mailer.sent) != 1 {
		t.Fatalf("status = %d, mails = %d", status, len(f.mailer.sent))
	}
	mail := f.mailer.sent[0]
	if mail.name != "Ana Lim" || len(mail.token) != 40 {
		t.Errorf("unexpected mail %+v", mail)
	}

	status, body = f.do(t, http.MethodPost, "/api/password-reset/reset",
		ResetPasswordRequest{Token: "deadbeef", NewPassword: "brand-new-pass"}, "")
	if status != fiber.StatusBadRequest || decode(t, body)["message"] != MsgResetInvalid {
		t.Fatalf("wrong token = %d %s", status, body)
	}

	status, body = f.do(t, http.MethodPost, "/api/password-reset/reset",
		ResetPasswordRequest{Token: mail.token, NewPassword: "brand-new-pass"}, "")
	if status != fiber.StatusOK {
		t.Fatalf("reset = %d %s", status, body)
	}

	var user model.User
	f.db.First(&user, f.user.ID)
	if user.ResetToken != nil || user.ResetExpires != nil {
		t.Error("reset token not cleared")
	}
	var admin model.Admin
	f.db.First(&admin, f.admin.ID)
	if err := authutil.VerifyPassword(admin.PasswordHash, "brand-new-pass"); err != nil {
		t.Errorf("admin row not updated: %v", err)
	}

	status, _ = f.do(t, http.MethodPost, "/api/login", LoginRequest{Username: "ana@school.edu", Password: "brand-new-pass"}, "")
	if status != fiber.StatusOK {
		t.Errorf("login with new password = %d", status)
	}

	// a used token cannot be replayed
	status, _ = f.do(t, http.MethodPost, "/api/password-reset/reset",
		ResetPasswordRequest{Token: mail.token, NewPassword: "another-pass"}, "")
	if status != fiber.StatusBadRequest {
		t.Errorf("replayed token = %d", status)
	}
}

func TestPasswordResetTokenExpires(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/password-reset/request", ForgotPasswordRequest{Email: "ana@school.edu"}, "")
	if len(f.mailer.sent) != 1 {
		t.Fatalf("mails = %d", len(f.mailer.sent))
	}

	later := time.Now().Add(ResetTokenTTL + time.Minute)
	f.handler.now = func() time.Time { return later }

	status, body := f.do(t, http.MethodPost, "/api/password-reset/reset",
		ResetPasswordRequest{Token: f.mailer.sent[0].token, NewPassword: "brand-new-pass"}, "")
	if status != fiber.StatusBadRequest || decode(t, body)["message"] != MsgResetInvalid {
		t.Fatalf("expired token = %d %s", status, body)
	}
}

func TestPasswordResetMailFailureStillGeneric(t *testing.T) {
	f := newFixture(t)
	f.mailer.err = errors.New("smtp down")

	status, body := f.do(t, http.MethodPost, "/api/password-reset/request", ForgotPasswordRequest{Email: "ana@school.edu"}, "")
	if status != fiber.StatusOK || decode(t, body)["message"] != MsgResetRequested {
		t.Fatalf("status = %d %s", status, body)
	}
}
