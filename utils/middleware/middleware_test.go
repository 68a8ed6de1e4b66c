package middleware

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/usched/usched-api/utils/auth"
)

type memStore struct {
	counters map[string]int64
	values   map[string]time.Duration
}

func newMemStore() *memStore {
	return &memStore{counters: map[string]int64{}, values: map[string]time.Duration{}}
}

func (m *memStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := m.values[key]
	return ok, nil
}

func (m *memStore) TTL(_ context.Context, key string) (time.Duration, error) {
	return m.values[key], nil
}

func (m *memStore) Increment(_ context.Context, key string) (int64, error) {
	m.counters[key]++
	return m.counters[key], nil
}

func (m *memStore) Expire(context.Context, string, time.Duration) error { return nil }

func (m *memStore) Set(_ context.Context, key string, _ interface{}, d time.Duration) error {
	m.values[key] = d
	return nil
}

func (m *memStore) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
		delete(m.counters, k)
	}
	return nil
}

func TestLockoutFor(t *testing.T) {
	tests := []struct {
		attempts int64
		want     time.Duration
	}{
		{1, 0},
		{4, 0},
		{5, 2 * time.Minute},
		{9, 2 * time.Minute},
		{10, time.Hour},
		{25, 24 * time.Hour},
	}
	for _, tt := range tests {
		if got := LockoutFor(tt.attempts); got != tt.want {
			t.Errorf("LockoutFor(%d) = %v, want %v", tt.attempts, got, tt.want)
		}
	}
}

func TestBruteForceLocksAfterFiveFailures(t *testing.T) {
	store := newMemStore()
	bf := NewBruteForceProtection(store)

	app := fiber.New()
	app.Post("/login", bf.CheckAndRecordAttempt(), func(c *fiber.Ctx) error {
		bf.RecordFailedAttempt(context.Background(), c.IP())
		return c.SendStatus(fiber.StatusUnauthorized)
	})

	for i := 0; i < 5; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
		if err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
		if resp.StatusCode != fiber.StatusUnauthorized {
			t.Fatalf("request %d status = %d", i, resp.StatusCode)
		}
	}

	resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	if err != nil {
		t.Fatalf("locked request: %v", err)
	}
	if resp.StatusCode != fiber.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") != "120" {
		t.Errorf("Retry-After = %q, want 120", resp.Header.Get("Retry-After"))
	}

	bf.RecordSuccessfulAttempt(context.Background(), "0.0.0.0")
	if len(store.values) != 0 {
		t.Errorf("lock not cleared: %v", store.values)
	}
}

func TestDisabledBruteForcePassesThrough(t *testing.T) {
	var bf *BruteForceProtection
	app := fiber.New()
	app.Get("/", bf.CheckAndRecordAttempt(), func(c *fiber.Ctx) error { return c.SendString("ok") })
	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil || resp.StatusCode != fiber.StatusOK {
		t.Fatalf("status = %v, err = %v", resp, err)
	}
	bf.RecordFailedAttempt(context.Background(), "1.2.3.4")
}

func TestRequiredAndRequireRole(t *testing.T) {
	jwtManager, err := auth.NewJWTManager(auth.JWTConfig{Secret: "0123456789abcdef0123456789abcdef"})
	if err != nil {
		t.Fatalf("NewJWTManager: %v", err)
	}
	m := NewAuthMiddleware(jwtManager)

	app := fiber.New()
	app.Get("/admin", m.Required(), m.RequireRole("ADMIN"), func(c *fiber.Ctx) error {
		id, _ := GetUserID(c)
		return c.SendString(strconv.FormatUint(uint64(id), 10))
	})

	adminToken, _, _ := jwtManager.GenerateAccessToken(auth.Subject{UserID: 1, Email: "root@school.edu", Role: "ADMIN"})
	profToken, _, _ := jwtManager.GenerateAccessToken(auth.Subject{UserID: 2, Email: "prof@school.edu", Role: "PROFESSOR"})

	tests := []struct {
		name    string
		header  string
		status  int
		message string
	}{
		{"no token", "", fiber.StatusUnauthorized, MsgNoToken},
		{"garbage", "Bearer nope", fiber.StatusUnauthorized, MsgInvalidToken},
		{"wrong role", "Bearer " + profToken, fiber.StatusForbidden, "Insufficient permissions"},
		{"admin", "Bearer " + adminToken, fiber.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/admin", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test: %v", err)
			}
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if tt.message == "" {
				return
			}
			var body struct {
				Message string `json:"message"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Message != tt.message {
				t.Errorf("message = %q, want %q", body.Message, tt.message)
			}
		})
	}
}
