// internal/app/system/mailer/mailer.go

// Package mailer sends transactional email. The only mail this app sends
// today is the verification message after registration; delivery goes over
// SMTP when configured and falls back to logging the code in dev.
package mailer

import (
	"context"
	"fmt"
	"mime/quotedprintable"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Email is a single outbound message with both plain-text and HTML bodies.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender delivers an Email.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// Config holds delivery settings. An empty Host selects the logging
// sender.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	SiteName string
	BaseURL  string
	// ExpiresIn is the human-readable verification expiry, e.g. "10 minutes".
	ExpiresIn string
}

// Mailer builds and sends the app's transactional messages. A nil Mailer
// silently drops everything, so handlers never need to nil-check.
type Mailer struct {
	sender    Sender
	from      string
	siteName  string
	baseURL   string
	expiresIn string
	log       *zap.Logger
}

// New builds a Mailer from config. Without an SMTP host the returned
// Mailer logs instead of sending, which is what dev and test want.
func New(cfg Config, logger *zap.Logger) *Mailer {
	m := &Mailer{
		from:      cfg.From,
		siteName:  cfg.SiteName,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		expiresIn: cfg.ExpiresIn,
		log:       logger,
	}
	if cfg.Host == "" {
		m.sender = &logSender{log: logger}
		return m
	}
	m.sender = &smtpSender{
		addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		auth: smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host),
		from: cfg.From,
	}
	return m
}

// SendVerification emails the sign-up verification code and magic link to
// a newly registered user.
func (m *Mailer) SendVerification(ctx context.Context, to, code, token string) error {
	if m == nil {
		return nil
	}
	e := BuildVerificationEmail(VerificationEmailData{
		SiteName:  m.siteName,
		Code:      code,
		MagicLink: m.baseURL + "/login/verify?token=" + token,
		ExpiresIn: m.expiresIn,
	})
	e.To = to
	if err := m.sender.Send(ctx, e); err != nil {
		m.log.Error("send verification email", zap.String("to", to), zap.Error(err))
		return err
	}
	return nil
}

// logSender writes the message to the log instead of delivering it.
type logSender struct {
	log *zap.Logger
}

func (s *logSender) Send(_ context.Context, e Email) error {
	s.log.Info("email (smtp not configured)",
		zap.String("to", e.To),
		zap.String("subject", e.Subject),
		zap.String("body", e.TextBody))
	return nil
}

// smtpSender delivers over plain SMTP with a multipart/alternative body.
type smtpSender struct {
	addr string
	auth smtp.Auth
	from string
}

func (s *smtpSender) Send(_ context.Context, e Email) error {
	msg, err := buildMessage(s.from, e)
	if err != nil {
		return err
	}
	return smtp.SendMail(s.addr, s.auth, s.from, []string{e.To}, msg)
}

const mimeBoundary = "shepherd-mail-boundary"

func buildMessage(from string, e Email) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", e.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", e.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", mimeBoundary)

	for _, part := range []struct {
		ctype string
		body  string
	}{
		{"text/plain; charset=utf-8", e.TextBody},
		{"text/html; charset=utf-8", e.HTMLBody},
	} {
		fmt.Fprintf(&b, "--%s\r\n", mimeBoundary)
		fmt.Fprintf(&b, "Content-Type: %s\r\n", part.ctype)
		b.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
		qp := quotedprintable.NewWriter(&b)
		if _, err := qp.Write([]byte(part.body)); err != nil {
			return nil, err
		}
		if err := qp.Close(); err != nil {
			return nil, err
		}
		b.WriteString("\r\n")
	}
	fmt.Fprintf(&b, "--%s--\r\n", mimeBoundary)
	return []byte(b.String()), nil
}
