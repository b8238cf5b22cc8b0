package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollectorSnapshot(t *testing.T) {
	c := New()
	c.Record(200, 10*time.Millisecond)
	c.Record(404, 20*time.Millisecond)
	c.Record(429, 0)
	c.Record(503, 30*time.Millisecond)
	c.RecordBatch(12, nil)
	c.RecordBatch(3, errors.New("commit failed"))

	snap := c.Snapshot()
	assert.Equal(t, uint64(4), snap["requestsTotal"])
	assert.Equal(t, uint64(1), snap["errorsTotal"])
	assert.Equal(t, uint64(2), snap["clientErrorsTotal"])
	assert.Equal(t, uint64(1), snap["rateLimitedTotal"])
	assert.Equal(t, 15.0, snap["avgDurationMs"])
	assert.Equal(t, uint64(1), snap["batchCommitsTotal"])
	assert.Equal(t, uint64(1), snap["batchFailedTotal"])
	assert.Equal(t, uint64(12), snap["batchRowsTotal"])
}

func TestNilCollectorIgnoresRecords(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.Record(200, time.Second)
		c.RecordBatch(1, nil)
	})
}
