package services

import (
	"errors"
	"strings"
	"testing"

	"github.com/usched/usched-api/config"
)

func TestResetLink(t *testing.T) {
	svc := NewEmailService(config.SMTPConfig{}, "https://usched.example.edu/")
	want := "https://usched.example.edu/reset-password/set?token=abc123"
	if got := svc.ResetLink("abc123"); got != want {
		t.Errorf("ResetLink = %q, want %q", got, want)
	}
}

func TestUnconfiguredMailerRefuses(t *testing.T) {
	svc := NewEmailService(config.SMTPConfig{Host: "smtp.example.edu", Port: 587}, "http://localhost")
	if svc.IsConfigured() {
		t.Fatal("expected unconfigured mailer")
	}
	if err := svc.SendPasswordResetEmail("a@b.co", "A", "tok"); !errors.Is(err, ErrMailNotConfigured) {
		t.Errorf("SendPasswordResetEmail err = %v", err)
	}
	if err := svc.SendAccountCredentials("a@b.co", "A", "pw"); !errors.Is(err, ErrMailNotConfigured) {
		t.Errorf("SendAccountCredentials err = %v", err)
	}
}

func TestLayoutEscapesName(t *testing.T) {
	svc := NewEmailService(config.SMTPConfig{}, "")
	body := svc.layout("Title", "<b>Eve</b>", "<p>x</p>")
	if !strings.Contains(body, "&lt;b&gt;Eve&lt;/b&gt;") {
		t.Error("user name not escaped")
	}
	if !strings.Contains(body, "<p>x</p>") {
		t.Error("content should be inserted verbatim")
	}
}
