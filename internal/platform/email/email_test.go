package email

import (
	"context"
	"strings"
	"testing"

	"hrpay/internal/platform/config"
)

func TestBuildMessageHeaders(t *testing.T) {
	msg := string(buildMessage("payroll@example.com", "emp@example.com", "Your payslip for 2025-05", "<p>hi</p>", "<abc@mail.example.com>"))

	headerBlock, body, found := strings.Cut(msg, "\r\n\r\n")
	if !found {
		t.Fatal("message has no header/body separator")
	}
	for _, want := range []string{
		"From: payroll@example.com",
		"To: emp@example.com",
		"Subject: Your payslip for 2025-05",
		"Message-ID: <abc@mail.example.com>",
		"Content-Type: text/html",
	} {
		if !strings.Contains(headerBlock, want) {
			t.Fatalf("headers missing %q:\n%s", want, headerBlock)
		}
	}
	if body != "<p>hi</p>" {
		t.Fatalf("body = %q, want the html payload", body)
	}
}

func TestNewReturnsSimulatedMailerWhenDisabled(t *testing.T) {
	mailer := New(config.Config{EmailEnabled: false})
	if err := mailer.Verify(context.Background()); err != nil {
		t.Fatalf("simulated verify failed: %v", err)
	}
	id, err := mailer.Send(context.Background(), "emp@example.com", "subject", "<p>hi</p>")
	if err != nil {
		t.Fatalf("simulated send failed: %v", err)
	}
	if !strings.HasPrefix(id, "simulated-") {
		t.Fatalf("message id = %q, want simulated- prefix", id)
	}
}

func TestNewFallsBackWithoutHost(t *testing.T) {
	// Enabled but no host configured still must not produce a dialing
	// mailer, config validation catches this earlier in the boot path.
	mailer := New(config.Config{EmailEnabled: true, SMTPHost: ""})
	if _, ok := mailer.(simulatedMailer); !ok {
		t.Fatalf("got %T, want simulatedMailer", mailer)
	}
}
