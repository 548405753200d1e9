package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const maxLastErrorLen = 500

// Dispatcher delivers payslip notices for a period. Sends run on a
// semaphore-bounded pool so at most `limit` connections to the mail
// transport are in flight; one recipient's failure never cancels its
// siblings. Every outcome is persisted as it completes.
type Dispatcher struct {
	store       StoreAPI
	mailer      Mailer
	limit       int
	sendTimeout time.Duration
	simulate    bool
}

func NewDispatcher(store StoreAPI, mailer Mailer, limit int, sendTimeout time.Duration, simulate bool) *Dispatcher {
	if limit <= 0 {
		limit = 1
	}
	return &Dispatcher{store: store, mailer: mailer, limit: limit, sendTimeout: sendTimeout, simulate: simulate}
}

// Preflight checks that the mail transport can be established. Its failure
// is the fatal path of a close operation.
func (d *Dispatcher) Preflight(ctx context.Context) error {
	if err := d.mailer.Verify(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	return nil
}

// Deliver fans the recipients out to the mailer. Recipients without an
// address are recorded as failed immediately, with no network call. The
// returned error is non-nil only when the context was cancelled
// mid-dispatch; per-recipient failures are reported in the result.
func (d *Dispatcher) Deliver(ctx context.Context, period string, recipients []Recipient) (DeliveryResult, error) {
	var result DeliveryResult

	// Outcome writes run on a detached context: a dispatch aborted by
	// cancellation must still leave rows that reflect what happened.
	recordCtx := context.WithoutCancel(ctx)

	var pending []Recipient
	for _, recipient := range recipients {
		if recipient.Email == "" {
			if err := d.store.RecordEmailFailure(recordCtx, recipient.EmployeeID, period, ReasonNoAddress, false); err != nil {
				slog.Warn("recording missing address failed", "employeeId", recipient.EmployeeID, "period", period, "err", err)
			}
			result.Failed = append(result.Failed, DeliveryOutcome{EmployeeID: recipient.EmployeeID, Reason: ReasonNoAddress})
			continue
		}
		pending = append(pending, recipient)
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, d.limit)

	for _, recipient := range pending {
		select {
		case <-ctx.Done():
		case sem <- struct{}{}:
			wg.Add(1)
			go func(r Recipient) {
				defer wg.Done()
				defer func() { <-sem }()
				outcome, ok := d.send(ctx, period, r)
				mu.Lock()
				if ok {
					result.Sent = append(result.Sent, outcome)
				} else {
					result.Failed = append(result.Failed, outcome)
				}
				mu.Unlock()
			}(recipient)
		}
		if ctx.Err() != nil {
			break
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("%w: dispatch aborted: %v", ErrTransport, err)
	}
	return result, nil
}

func (d *Dispatcher) send(ctx context.Context, period string, r Recipient) (DeliveryOutcome, bool) {
	sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
	defer cancel()
	recordCtx := context.WithoutCancel(ctx)

	subject, body := payslipNotice(r, period)
	messageID, err := d.mailer.Send(sendCtx, r.Email, subject, body)
	if err != nil {
		reason := err.Error()
		if len(reason) > maxLastErrorLen {
			reason = reason[:maxLastErrorLen]
		}
		slog.Warn("payslip notice failed", "employeeId", r.EmployeeID, "period", period, "err", err)
		if storeErr := d.store.RecordEmailFailure(recordCtx, r.EmployeeID, period, reason, true); storeErr != nil {
			slog.Warn("recording send failure failed", "employeeId", r.EmployeeID, "period", period, "err", storeErr)
		}
		return DeliveryOutcome{EmployeeID: r.EmployeeID, Email: r.Email, Reason: reason}, false
	}

	status := EmailStatusSent
	if d.simulate {
		status = EmailStatusSimulated
	}
	if storeErr := d.store.RecordEmailSent(recordCtx, r.EmployeeID, period, status, messageID); storeErr != nil {
		slog.Warn("recording send success failed", "employeeId", r.EmployeeID, "period", period, "err", storeErr)
	}
	return DeliveryOutcome{EmployeeID: r.EmployeeID, Email: r.Email, MessageID: messageID}, true
}

func payslipNotice(r Recipient, period string) (subject, body string) {
	subject = fmt.Sprintf("Your payslip for %s", period)
	body = fmt.Sprintf(
		`<html><body><p>Hello %s,</p><p>Your salary for <strong>%s</strong> has been processed.</p><p>Net amount: <strong>%s</strong></p><p>Please contact HR for the detailed payslip.</p></body></html>`,
		r.Name, period, r.NetSalary.StringFixed(2),
	)
	return subject, body
}
