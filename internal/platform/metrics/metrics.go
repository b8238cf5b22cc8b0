package metrics

import (
	"sync/atomic"
	"time"
)

// Collector keeps process-wide request and batch counters.
type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	clientErrors    uint64
	rateLimited     uint64
	totalDurationMs uint64
	batchCommits    uint64
	batchFailures   uint64
	batchWrites     uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.totalRequests, 1)
	switch {
	case status >= 500:
		atomic.AddUint64(&c.errorRequests, 1)
	case status == 429:
		atomic.AddUint64(&c.rateLimited, 1)
		atomic.AddUint64(&c.clientErrors, 1)
	case status >= 400:
		atomic.AddUint64(&c.clientErrors, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// RecordBatch counts one atomic multi-row write and the rows it carried.
func (c *Collector) RecordBatch(rows int, err error) {
	if c == nil {
		return
	}
	if err != nil {
		atomic.AddUint64(&c.batchFailures, 1)
		return
	}
	atomic.AddUint64(&c.batchCommits, 1)
	atomic.AddUint64(&c.batchWrites, uint64(rows))
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":     total,
		"errorsTotal":       atomic.LoadUint64(&c.errorRequests),
		"clientErrorsTotal": atomic.LoadUint64(&c.clientErrors),
		"rateLimitedTotal":  atomic.LoadUint64(&c.rateLimited),
		"avgDurationMs":     avg,
		"totalDurationMs":   totalMs,
		"batchCommitsTotal": atomic.LoadUint64(&c.batchCommits),
		"batchFailedTotal":  atomic.LoadUint64(&c.batchFailures),
		"batchRowsTotal":    atomic.LoadUint64(&c.batchWrites),
	}
}
