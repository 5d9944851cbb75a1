package aioblkcopy

import "sync"

// MockObserver is a test double for Observer that records every call
// for assertions, guarded by a mutex since the scheduler may be driven
// from a goroutine separate from the test's.
type MockObserver struct {
	mu sync.Mutex

	ReadCalls  int
	WriteCalls int

	BytesRead    uint64
	BytesWritten uint64

	MaxInputDepth  uint32
	MaxOutputDepth uint32
}

func (o *MockObserver) ObserveRead(bytes uint64, _ uint64, success bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ReadCalls++
	if success {
		o.BytesRead += bytes
	}
}

func (o *MockObserver) ObserveWrite(bytes uint64, _ uint64, success bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.WriteCalls++
	if success {
		o.BytesWritten += bytes
	}
}

func (o *MockObserver) ObserveQueueDepth(inputDepth, outputDepth uint32) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if inputDepth > o.MaxInputDepth {
		o.MaxInputDepth = inputDepth
	}
	if outputDepth > o.MaxOutputDepth {
		o.MaxOutputDepth = outputDepth
	}
}

// MockLogger is a test double for Logger that discards all output
// while recording a call count, enough for tests that only care
// whether logging happened, not what it said.
type MockLogger struct {
	mu    sync.Mutex
	Calls int
}

func (l *MockLogger) Printf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Calls++
}

func (l *MockLogger) Debugf(format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Calls++
}
