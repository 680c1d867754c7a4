package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/seed4me/radclient/pkg/client"
)

func TestRecordAttemptBuckets(t *testing.T) {
	m := New()
	m.RecordAttempt(true, 0, 10*time.Millisecond)
	m.RecordAttempt(false, client.ErrCodeRejected, 20*time.Millisecond)
	m.RecordAttempt(false, client.ErrCodeTimeout, 3*time.Second)
	m.RecordAttempt(false, client.ErrCodeProtocol, 5*time.Millisecond)

	stats := m.GetStats()
	assert.EqualValues(t, 4, stats["total_attempts"])
	assert.EqualValues(t, 1, stats["accepted"])
	assert.EqualValues(t, 1, stats["rejected"])
	assert.EqualValues(t, 1, stats["timeouts"])
	assert.EqualValues(t, 1, stats["errors"])
	assert.EqualValues(t, 5, stats["min_latency_ms"])
	assert.EqualValues(t, 3000, stats["max_latency_ms"])
}

func TestLatencyWindowBounded(t *testing.T) {
	m := New()
	for i := 0; i < latencyWindow+50; i++ {
		m.RecordAttempt(true, 0, time.Millisecond)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	assert.Len(t, m.latencies, latencyWindow)
}
