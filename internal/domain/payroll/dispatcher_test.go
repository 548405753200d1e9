package payroll

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliverBoundsConcurrency(t *testing.T) {
	store := newFakeStore()
	mailer := &fakeMailer{delay: 20 * time.Millisecond}
	d := NewDispatcher(store, mailer, 2, time.Second, false)

	var recipients []Recipient
	for i := 0; i < 6; i++ {
		recipients = append(recipients, Recipient{
			EmployeeID: fmt.Sprintf("emp-%d", i),
			Name:       fmt.Sprintf("Employee %d", i),
			Email:      fmt.Sprintf("emp-%d@example.com", i),
			NetSalary:  dec("100"),
		})
	}

	result, err := d.Deliver(context.Background(), "2025-05", recipients)
	require.NoError(t, err)
	assert.Len(t, result.Sent, 6)
	assert.Empty(t, result.Failed)
	assert.LessOrEqual(t, mailer.maxInFlight, 2, "no more than limit sends may be in flight")
}

func TestDeliverFailureDoesNotAffectSiblings(t *testing.T) {
	store := newFakeStore()
	mailer := &fakeMailer{sendErr: map[string]error{"bad@example.com": errors.New("550 rejected")}}
	d := NewDispatcher(store, mailer, 3, time.Second, false)

	recipients := []Recipient{
		{EmployeeID: "emp-1", Name: "One", Email: "ok1@example.com", NetSalary: dec("100")},
		{EmployeeID: "emp-2", Name: "Two", Email: "bad@example.com", NetSalary: dec("200")},
		{EmployeeID: "emp-3", Name: "Three", Email: "ok2@example.com", NetSalary: dec("300")},
	}

	result, err := d.Deliver(context.Background(), "2025-05", recipients)
	require.NoError(t, err)
	assert.Len(t, result.Sent, 2)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "emp-2", result.Failed[0].EmployeeID)
	assert.Equal(t, "550 rejected", store.lastErr["emp-2"])
	assert.Equal(t, 1, store.attempts["emp-2"])
	assert.Equal(t, EmailStatusSent, store.emailStatus["emp-1"])
	assert.Equal(t, EmailStatusSent, store.emailStatus["emp-3"])
}

func TestDeliverSkipsMissingAddressWithoutSend(t *testing.T) {
	store := newFakeStore()
	mailer := &fakeMailer{}
	d := NewDispatcher(store, mailer, 3, time.Second, false)

	recipients := []Recipient{
		{EmployeeID: "emp-1", Name: "One", NetSalary: dec("100")},
	}

	result, err := d.Deliver(context.Background(), "2025-05", recipients)
	require.NoError(t, err)
	assert.Empty(t, result.Sent)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, ReasonNoAddress, result.Failed[0].Reason)
	assert.Empty(t, mailer.sent, "no network call for a missing address")
	assert.Equal(t, 0, store.attempts["emp-1"])
	assert.Equal(t, EmailStatusFailed, store.emailStatus["emp-1"])
}

func TestDeliverCancelledContext(t *testing.T) {
	store := newFakeStore()
	mailer := &fakeMailer{delay: 50 * time.Millisecond}
	d := NewDispatcher(store, mailer, 1, time.Second, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	recipients := []Recipient{
		{EmployeeID: "emp-1", Name: "One", Email: "one@example.com", NetSalary: dec("100")},
		{EmployeeID: "emp-2", Name: "Two", Email: "two@example.com", NetSalary: dec("200")},
	}

	_, err := d.Deliver(ctx, "2025-05", recipients)
	assert.ErrorIs(t, err, ErrTransport)
}

func TestDeliverRecordsOutcomesAfterCancellation(t *testing.T) {
	store := newFakeStore()
	strict := &strictStore{fakeStore: store}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	mailer := &cancellingMailer{cancel: cancel}
	d := NewDispatcher(strict, mailer, 1, time.Second, false)

	recipients := []Recipient{
		{EmployeeID: "emp-1", Name: "One", Email: "one@example.com", NetSalary: dec("100")},
	}

	result, err := d.Deliver(ctx, "2025-05", recipients)
	assert.ErrorIs(t, err, ErrTransport)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, EmailStatusFailed, store.emailStatus["emp-1"], "outcome must be persisted even when the dispatch context is cancelled")
	assert.Equal(t, 1, store.attempts["emp-1"])
}

func TestDeliverSimulatedStatus(t *testing.T) {
	store := newFakeStore()
	d := NewDispatcher(store, &fakeMailer{}, 2, time.Second, true)

	recipients := []Recipient{
		{EmployeeID: "emp-1", Name: "One", Email: "one@example.com", NetSalary: dec("100")},
	}

	result, err := d.Deliver(context.Background(), "2025-05", recipients)
	require.NoError(t, err)
	require.Len(t, result.Sent, 1)
	assert.Equal(t, EmailStatusSimulated, store.emailStatus["emp-1"])
}

func TestDeliverTruncatesLongFailureReason(t *testing.T) {
	store := newFakeStore()
	long := make([]byte, maxLastErrorLen+100)
	for i := range long {
		long[i] = 'x'
	}
	mailer := &fakeMailer{sendErr: map[string]error{"one@example.com": errors.New(string(long))}}
	d := NewDispatcher(store, mailer, 1, time.Second, false)

	recipients := []Recipient{
		{EmployeeID: "emp-1", Name: "One", Email: "one@example.com", NetSalary: dec("100")},
	}

	result, err := d.Deliver(context.Background(), "2025-05", recipients)
	require.NoError(t, err)
	require.Len(t, result.Failed, 1)
	assert.Len(t, store.lastErr["emp-1"], maxLastErrorLen)
}

func TestPreflightWrapsVerifyError(t *testing.T) {
	d := NewDispatcher(newFakeStore(), &fakeMailer{verifyErr: errors.New("dial tcp: refused")}, 1, time.Second, false)
	err := d.Preflight(context.Background())
	assert.ErrorIs(t, err, ErrTransport)

	d = NewDispatcher(newFakeStore(), &fakeMailer{}, 1, time.Second, false)
	assert.NoError(t, d.Preflight(context.Background()))
}

func TestPayslipNoticeContents(t *testing.T) {
	subject, body := payslipNotice(Recipient{Name: "Amina Haddad", NetSalary: dec("745.32")}, "2025-05")
	assert.Contains(t, subject, "2025-05")
	assert.Contains(t, body, "Amina Haddad")
	assert.Contains(t, body, "745.32")
}
