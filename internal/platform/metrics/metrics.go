package metrics

import (
	"sync/atomic"
	"time"
)

// Collector keeps process-wide counters. All methods are nil-receiver
// safe so callers can run without metrics wired.
type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	totalDurationMs uint64

	calculationsRun  uint64
	paymentsComputed uint64
	emailsSent       uint64
	emailsFailed     uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) RecordRequest(status int, duration time.Duration) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) RecordCalculation(payments int) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.calculationsRun, 1)
	atomic.AddUint64(&c.paymentsComputed, uint64(payments))
}

func (c *Collector) RecordEmails(sent, failed int) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.emailsSent, uint64(sent))
	atomic.AddUint64(&c.emailsFailed, uint64(failed))
}

func (c *Collector) Snapshot() map[string]any {
	if c == nil {
		return map[string]any{}
	}
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":    total,
		"errorsTotal":      atomic.LoadUint64(&c.errorRequests),
		"avgDurationMs":    avg,
		"calculationsRun":  atomic.LoadUint64(&c.calculationsRun),
		"paymentsComputed": atomic.LoadUint64(&c.paymentsComputed),
		"emailsSent":       atomic.LoadUint64(&c.emailsSent),
		"emailsFailed":     atomic.LoadUint64(&c.emailsFailed),
	}
}
