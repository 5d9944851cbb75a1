//go:build linux

package aio

// NewPreferredEngine tries to create the io_uring engine and falls
// back to ThreadEngine if ring creation fails (kernel too old, or the
// io_uring_setup syscall is blocked by a seccomp profile — common in
// containers). queueDepth should cover the scheduler's Qi+Qo so every
// slot can have an operation outstanding at once.
func NewPreferredEngine(queueDepth uint32) (Engine, error) {
	ring, err := NewIOURingEngine(queueDepth)
	if err != nil {
		return NewThreadEngine(), nil
	}
	return ring, nil
}
