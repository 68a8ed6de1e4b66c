package services

import (
	"crypto/tls"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"net/smtp"
	"strings"

	"github.com/usched/usched-api/config"
)

// ErrMailNotConfigured is returned when SMTP credentials are absent.
var ErrMailNotConfigured = errors.New("SMTP not configured")

// EmailService handles sending emails via SMTP
type EmailService struct {
	host     string
	port     int
	username string
	password string
	from     string
	appURL   string
}

// NewEmailService creates a new email service instance
func NewEmailService(cfg config.SMTPConfig, appURL string) *EmailService {
	return &EmailService{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     cfg.From,
		appURL:   strings.TrimRight(appURL, "/"),
	}
}

// IsConfigured checks if SMTP is properly configured
func (e *EmailService) IsConfigured() bool {
	return e.username != "" && e.password != ""
}

// ResetLink builds the link mailed for a reset token.
func (e *EmailService) ResetLink(token string) string {
	return e.appURL + "/reset-password/set?token=" + token
}

// SendPasswordResetEmail mails the reset link for token.
func (e *EmailService) SendPasswordResetEmail(toEmail, userName, token string) error {
	if !e.IsConfigured() {
		return ErrMailNotConfigured
	}

	link := e.ResetLink(token)
	body := e.layout("Reset Your Password", userName, fmt.Sprintf(
		`<p>We received a request to reset your U-SCHED password. The link below expires in 60 minutes.</p>
<p><a href="%[1]s" class="button">Reset Password</a></p>
<p>If the button doesn't work, copy this link into your browser:</p>
<div class="link-text">%[1]s</div>
<p>If you didn't request this, you can ignore this email.</p>`, html.EscapeString(link)))

	return e.sendEmail(toEmail, "Reset Your Password - U-SCHED", body)
}

// SendAccountCredentials mails a newly issued login credential.
func (e *EmailService) SendAccountCredentials(toEmail, userName, password string) error {
	if !e.IsConfigured() {
		return ErrMailNotConfigured
	}

	body := e.layout("Your U-SCHED Account", userName, fmt.Sprintf(
		`<p>An account has been set up for you. Sign in with the credentials below and change your password afterwards.</p>
<div class="link-text">Email: %s<br>Password: %s</div>
<p><a href="%s" class="button">Sign In</a></p>`,
		html.EscapeString(toEmail), html.EscapeString(password), html.EscapeString(e.appURL)))

	return e.sendEmail(toEmail, "Your U-SCHED Account", body)
}

func (e *EmailService) layout(title, userName, content string) string {
	if userName == "" {
		userName = "User"
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>%[1]s</title>
    <style>
        body { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; background-color: #f5f5f5; }
        .container { background-color: #ffffff; border-radius: 8px; padding: 40px; }
        h2 { color: #1d3b6f; margin-top: 0; }
        .button { display: inline-block; background-color: #1d3b6f; color: #ffffff !important; padding: 14px 28px; text-decoration: none; border-radius: 6px; font-weight: 600; }
        .link-text { word-break: break-all; color: #666; font-size: 12px; background-color: #f5f5f5; padding: 10px; border-radius: 4px; }
    </style>
</head>
<body>
    <div class="container">
        <h2>%[1]s</h2>
        <p>Hello %[2]s,</p>
        %[3]s
    </div>
</body>
</html>`, html.EscapeString(title), html.EscapeString(userName), content)
}

// sendEmail sends an email using SMTP with STARTTLS
func (e *EmailService) sendEmail(to, subject, htmlBody string) error {
	headers := []string{
		fmt.Sprintf("From: U-SCHED <%s>", e.from),
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}

	var message strings.Builder
	for _, h := range headers {
		message.WriteString(h + "\r\n")
	}
	message.WriteString("\r\n")
	message.WriteString(htmlBody)

	addr := fmt.Sprintf("%s:%d", e.host, e.port)

	conn, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	if err := conn.StartTLS(&tls.Config{ServerName: e.host}); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if err := conn.Auth(smtp.PlainAuth("", e.username, e.password, e.host)); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}

	if err := conn.Mail(e.from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := conn.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := conn.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err := w.Write([]byte(message.String())); err != nil {
		return fmt.Errorf("failed to write email body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	conn.Quit()

	slog.Info("email sent", "to", to, "subject", subject)
	return nil
}
