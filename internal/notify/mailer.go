// NodeWatch - Mesh Node Online/Offline Monitoring
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/nodewatch

package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/nodewatch/internal/config"
	"github.com/tomtom215/nodewatch/internal/logging"
)

// Message is one plain text email.
type Message struct {
	FromName string
	To       string
	Subject  string
	Body     string

	// ListUnsubscribe is an optional URL for the List-Unsubscribe header.
	ListUnsubscribe string
}

// Mailer delivers messages.
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// SMTPMailer delivers mail through an SMTP relay. Sends wait on a shared
// rate limiter so a large fan-out does not trip relay limits.
type SMTPMailer struct {
	host     string
	port     int
	user     string
	password string
	startTLS bool
	from     string

	dialTimeout time.Duration
	limiter     *rate.Limiter
	log         zerolog.Logger
}

// NewSMTPMailer creates a mailer from the secrets and notify configuration.
func NewSMTPMailer(secrets config.SecretsConfig, from string, cfg config.NotifyConfig) *SMTPMailer {
	return &SMTPMailer{
		host:        secrets.SMTPHost,
		port:        secrets.SMTPPort,
		user:        secrets.SMTPUser,
		password:    secrets.SMTPPassword,
		startTLS:    secrets.SMTPStartTLS,
		from:        from,
		dialTimeout: cfg.SendTimeout,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		log:         logging.WithComponent("smtp"),
	}
}

// Send delivers msg. The context bounds both the rate limiter wait and the
// SMTP conversation.
func (m *SMTPMailer) Send(ctx context.Context, msg *Message) error {
	if _, err := mail.ParseAddress(msg.To); err != nil {
		return fmt.Errorf("invalid recipient: %w", err)
	}
	if err := m.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	if err := m.sendSMTP(ctx, msg.To, m.buildMessage(msg)); err != nil {
		return err
	}
	m.log.Debug().
		Str("to", logging.MaskEmail(msg.To)).
		Str("relay", net.JoinHostPort(m.host, fmt.Sprint(m.port))).
		Msg("Email accepted by relay")
	return nil
}

// buildMessage constructs the RFC 5322 message with headers.
func (m *SMTPMailer) buildMessage(msg *Message) string {
	var b strings.Builder

	from := (&mail.Address{Name: headerValue(msg.FromName), Address: m.from}).String()
	b.WriteString(fmt.Sprintf("From: %s\r\n", from))
	b.WriteString(fmt.Sprintf("To: %s\r\n", headerValue(msg.To)))
	b.WriteString(fmt.Sprintf("Subject: %s\r\n", mime.QEncoding.Encode("utf-8", headerValue(msg.Subject))))
	b.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().Format(time.RFC1123Z)))
	b.WriteString(fmt.Sprintf("Message-ID: <%s@%s>\r\n", uuid.NewString(), domainOf(m.from)))
	if msg.ListUnsubscribe != "" {
		b.WriteString(fmt.Sprintf("List-Unsubscribe: <%s>\r\n", headerValue(msg.ListUnsubscribe)))
	}
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(msg.Body, "\r\n", "\n"), "\n", "\r\n"))

	return b.String()
}

// headerValue strips CR and LF so values cannot inject headers.
func headerValue(s string) string {
	return strings.NewReplacer("\r", "", "\n", " ").Replace(s)
}

func domainOf(addr string) string {
	if i := strings.LastIndex(addr, "@"); i >= 0 && i+1 < len(addr) {
		return addr[i+1:]
	}
	return "localhost"
}

// sendSMTP sends the email via SMTP.
func (m *SMTPMailer) sendSMTP(ctx context.Context, to, msg string) error {
	addr := net.JoinHostPort(m.host, fmt.Sprint(m.port))

	dialer := &net.Dialer{Timeout: m.dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer func() { _ = conn.Close() }() //nolint:errcheck // Best effort cleanup

	// The whole conversation shares the context deadline.
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer func() { _ = client.Close() }() //nolint:errcheck // Best effort cleanup

	if m.startTLS {
		tlsConfig := &tls.Config{
			ServerName: m.host,
			MinVersion: tls.VersionTLS12,
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if m.user != "" && m.password != "" {
		auth := smtp.PlainAuth("", m.user, m.password, m.host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(m.from); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	writer, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to start message: %w", err)
	}
	if _, err := writer.Write([]byte(msg)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close message: %w", err)
	}

	// The message is accepted once DATA is closed; a failed QUIT is ignored.
	_ = client.Quit()
	return nil
}
