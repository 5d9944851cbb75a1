package aioblkcopy

import (
	"fmt"
	"sync/atomic"
	"time"
)

// LatencyBuckets are the histogram boundaries in nanoseconds, covering
// 1us to 10s with logarithmic spacing.
var LatencyBuckets = []uint64{
	1_000,
	10_000,
	100_000,
	1_000_000,
	10_000_000,
	100_000_000,
	1_000_000_000,
	10_000_000_000,
}

const numLatencyBuckets = 8

// Metrics is the built-in Observer implementation. It is safe to read
// its atomic fields concurrently with the copy in progress (e.g. to
// print a running rate), though the scheduler itself only ever calls
// from its own single control-flow goroutine.
type Metrics struct {
	ReadOps  atomic.Uint64
	WriteOps atomic.Uint64

	ReadBytes  atomic.Uint64
	WriteBytes atomic.Uint64

	ReadErrors  atomic.Uint64
	WriteErrors atomic.Uint64

	InputQueueDepthTotal  atomic.Uint64
	OutputQueueDepthTotal atomic.Uint64
	QueueDepthSamples     atomic.Uint64
	MaxInputQueueDepth    atomic.Uint32
	MaxOutputQueueDepth   atomic.Uint32

	TotalLatencyNs atomic.Uint64
	OpCount        atomic.Uint64
	LatencyBuckets [numLatencyBuckets]atomic.Uint64

	StartTime atomic.Int64
	StopTime  atomic.Int64
}

// NewMetrics creates a Metrics instance with its start time stamped
// now.
func NewMetrics() *Metrics {
	m := &Metrics{}
	m.StartTime.Store(time.Now().UnixNano())
	return m
}

func (m *Metrics) ObserveRead(bytes uint64, latencyNs uint64, success bool) {
	m.ReadOps.Add(1)
	if success {
		m.ReadBytes.Add(bytes)
	} else {
		m.ReadErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

func (m *Metrics) ObserveWrite(bytes uint64, latencyNs uint64, success bool) {
	m.WriteOps.Add(1)
	if success {
		m.WriteBytes.Add(bytes)
	} else {
		m.WriteErrors.Add(1)
	}
	m.recordLatency(latencyNs)
}

func (m *Metrics) ObserveQueueDepth(inputDepth, outputDepth uint32) {
	m.InputQueueDepthTotal.Add(uint64(inputDepth))
	m.OutputQueueDepthTotal.Add(uint64(outputDepth))
	m.QueueDepthSamples.Add(1)

	for {
		cur := m.MaxInputQueueDepth.Load()
		if inputDepth <= cur || m.MaxInputQueueDepth.CompareAndSwap(cur, inputDepth) {
			break
		}
	}
	for {
		cur := m.MaxOutputQueueDepth.Load()
		if outputDepth <= cur || m.MaxOutputQueueDepth.CompareAndSwap(cur, outputDepth) {
			break
		}
	}
}

func (m *Metrics) recordLatency(latencyNs uint64) {
	m.TotalLatencyNs.Add(latencyNs)
	m.OpCount.Add(1)
	for i, bucket := range LatencyBuckets {
		if latencyNs <= bucket {
			m.LatencyBuckets[i].Add(1)
		}
	}
}

// Stop stamps the metrics' stop time; call once the copy finishes.
func (m *Metrics) Stop() {
	m.StopTime.Store(time.Now().UnixNano())
}

// Summary is the final report produced by Copy: the public,
// non-atomic counterpart to Metrics' live counters.
type Summary struct {
	BytesCopied uint64
	Duration    time.Duration
	Throughput  float64 // MB/s, i.e. bytes/seconds/2^20
}

// String formats the summary the way the command line prints it:
// "<bytes> bytes copied, <seconds> s, <MB/s> MB/s".
func (s Summary) String() string {
	return fmt.Sprintf("%d bytes copied, %.3f s, %.2f MB/s", s.BytesCopied, s.Duration.Seconds(), s.Throughput)
}
