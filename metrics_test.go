package aioblkcopy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMetricsObserveReadAccumulatesBytes(t *testing.T) {
	m := NewMetrics()
	m.ObserveRead(4096, 1000, true)
	m.ObserveRead(4096, 1000, true)
	m.ObserveRead(0, 1000, false)

	require.Equal(t, uint64(8192), m.ReadBytes.Load())
	require.Equal(t, uint64(3), m.ReadOps.Load())
	require.Equal(t, uint64(1), m.ReadErrors.Load())
}

func TestMetricsObserveQueueDepthTracksMax(t *testing.T) {
	m := NewMetrics()
	m.ObserveQueueDepth(2, 1)
	m.ObserveQueueDepth(4, 3)
	m.ObserveQueueDepth(1, 1)

	require.Equal(t, uint32(4), m.MaxInputQueueDepth.Load())
	require.Equal(t, uint32(3), m.MaxOutputQueueDepth.Load())
}

func TestSummaryStringFormat(t *testing.T) {
	s := Summary{BytesCopied: 1048576, Duration: time.Second, Throughput: 1.0}
	require.Equal(t, "1048576 bytes copied, 1.000 s, 1.00 MB/s", s.String())
}
