package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/seed4me/radclient/pkg/client"
)

// latencyWindow bounds the rolling latency sample.
const latencyWindow = 1000

// Metrics collects authentication attempt counters and a rolling
// latency window. Safe for concurrent use.
type Metrics struct {
	TotalAttempts uint64
	Accepted      uint64
	Rejected      uint64
	Timeouts      uint64
	Errors        uint64

	latencies []time.Duration
	mu        sync.RWMutex
}

func New() *Metrics {
	return &Metrics{
		latencies: make([]time.Duration, 0, latencyWindow),
	}
}

// RecordAttempt records one finished authentication attempt.
// errorCode is the client error code, 0 on success.
func (m *Metrics) RecordAttempt(success bool, errorCode int, duration time.Duration) {
	atomic.AddUint64(&m.TotalAttempts, 1)
	switch {
	case success:
		atomic.AddUint64(&m.Accepted, 1)
	case errorCode == client.ErrCodeRejected:
		atomic.AddUint64(&m.Rejected, 1)
	case errorCode == client.ErrCodeTimeout:
		atomic.AddUint64(&m.Timeouts, 1)
	default:
		atomic.AddUint64(&m.Errors, 1)
	}

	m.mu.Lock()
	m.latencies = append(m.latencies, duration)
	if len(m.latencies) > latencyWindow {
		m.latencies = m.latencies[1:]
	}
	m.mu.Unlock()
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var avg, min, max time.Duration
	if len(m.latencies) > 0 {
		min = m.latencies[0]
		var total time.Duration
		for _, d := range m.latencies {
			total += d
			if d < min {
				min = d
			}
			if d > max {
				max = d
			}
		}
		avg = total / time.Duration(len(m.latencies))
	}

	return map[string]interface{}{
		"total_attempts": atomic.LoadUint64(&m.TotalAttempts),
		"accepted":       atomic.LoadUint64(&m.Accepted),
		"rejected":       atomic.LoadUint64(&m.Rejected),
		"timeouts":       atomic.LoadUint64(&m.Timeouts),
		"errors":         atomic.LoadUint64(&m.Errors),
		"avg_latency_ms": avg.Milliseconds(),
		"min_latency_ms": min.Milliseconds(),
		"max_latency_ms": max.Milliseconds(),
	}
}
