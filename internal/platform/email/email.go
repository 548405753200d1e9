package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"

	"hrpay/internal/domain/payroll"
	"hrpay/internal/platform/config"
)

// New returns the mail gateway. When email is disabled the simulated
// mailer is used: sends succeed instantly with a synthetic message id so
// the closing pipeline can be exercised without a transport.
func New(cfg config.Config) payroll.Mailer {
	if !cfg.EmailEnabled || cfg.SMTPHost == "" {
		return simulatedMailer{}
	}
	return &smtpMailer{cfg: cfg}
}

type simulatedMailer struct{}

func (simulatedMailer) Verify(ctx context.Context) error { return nil }

func (simulatedMailer) Send(ctx context.Context, to, subject, html string) (string, error) {
	return "simulated-" + uuid.NewString(), nil
}

type smtpMailer struct {
	cfg config.Config
}

func (s *smtpMailer) addr() string {
	return fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
}

// Verify establishes a connection and exchanges the greeting, then quits.
// A failure here means the transport is unreachable, which callers treat
// as fatal rather than a per-recipient problem.
func (s *smtpMailer) Verify(ctx context.Context) error {
	client, conn, err := s.connect(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()
	defer client.Close()
	return client.Quit()
}

func (s *smtpMailer) Send(ctx context.Context, to, subject, html string) (string, error) {
	if strings.TrimSpace(to) == "" {
		return "", fmt.Errorf("empty recipient address")
	}

	client, conn, err := s.connect(ctx)
	if err != nil {
		return "", err
	}
	defer conn.Close()
	defer client.Close()

	if s.cfg.SMTPUser != "" {
		auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPassword, s.cfg.SMTPHost)
		if err := client.Auth(auth); err != nil {
			return "", err
		}
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.NewString(), s.cfg.SMTPHost)
	msg := buildMessage(s.cfg.EmailFrom, to, subject, html, messageID)

	if err := client.Mail(s.cfg.EmailFrom); err != nil {
		return "", err
	}
	if err := client.Rcpt(to); err != nil {
		return "", err
	}
	w, err := client.Data()
	if err != nil {
		return "", err
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	if err := client.Quit(); err != nil {
		return "", err
	}
	return messageID, nil
}

// connect dials with the configured timeout and pins the socket deadline
// to the caller's context so a stuck greeting or send cannot outlive the
// per-send timeout.
func (s *smtpMailer) connect(ctx context.Context) (*smtp.Client, net.Conn, error) {
	dialer := net.Dialer{Timeout: s.cfg.SMTPDialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", s.addr())
	if err != nil {
		return nil, nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(s.cfg.SMTPDialTimeout))
	}

	client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
	if err != nil {
		conn.Close()
		return nil, nil, err
	}

	if s.cfg.SMTPUseTLS {
		tlsConfig := &tls.Config{ServerName: s.cfg.SMTPHost}
		if err := client.StartTLS(tlsConfig); err != nil {
			client.Close()
			conn.Close()
			return nil, nil, err
		}
	}
	return client, conn, nil
}

func buildMessage(from, to, subject, html, messageID string) []byte {
	headers := []string{
		fmt.Sprintf("From: %s", from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		fmt.Sprintf("Message-ID: %s", messageID),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"",
	}
	return []byte(strings.Join(headers, "\r\n") + "\r\n" + html)
}
