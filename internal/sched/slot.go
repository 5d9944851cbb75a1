package sched

import (
	"os"
	"time"

	"github.com/nstaroverov/aioblkcopy/internal/aio"
)

// Status is a request slot's position in its state machine.
type Status int32

const (
	// StatusFree means the slot holds no buffer and no operation; it is
	// available for a new read (input side) or a new write (output
	// side) to be submitted into it.
	StatusFree Status = iota
	// StatusInProgress means an operation has been submitted against
	// this slot's Op and has not yet been observed complete.
	StatusInProgress
	// StatusReady is an input-side-only state: the slot holds a filled
	// buffer that has not yet been handed to an output slot.
	StatusReady
)

func (s Status) String() string {
	switch s {
	case StatusFree:
		return "free"
	case StatusInProgress:
		return "in-progress"
	case StatusReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Slot is one entry of either the input or the output queue. Input
// slots cycle Free -> InProgress -> Ready -> Free; output slots cycle
// Free -> InProgress -> Free. Seq orders input slots by the sequence
// in which their reads were submitted, which is also the order their
// buffers must be written out for non-seekable destinations.
type Slot struct {
	Seq    uint64
	Status Status
	File   *os.File
	Offset int64
	Buffer []byte
	Filled int
	Op     aio.Op
	EOF    bool // this slot's read returned 0 bytes: source is exhausted

	SubmittedAt time.Time // set when Status becomes InProgress, read by the observer on completion
}

// Reset returns a slot to its initial Free state, detaching it from
// whatever operation and buffer it last held. It does not release the
// buffer back to a pool; callers that own the buffer's lifetime must
// do that themselves before or after calling Reset.
func (s *Slot) Reset() {
	s.Status = StatusFree
	s.Buffer = nil
	s.Filled = 0
	s.Op = nil
}

// moveBuffer transfers buffer ownership from src to dst as an explicit
// move: dst takes src's buffer and fill count, and src is left with
// neither. A handoff between an input slot and an output slot is
// always a single transfer of ownership; no two slots ever hold the
// same backing array at once.
func moveBuffer(dst, src *Slot) {
	dst.Buffer = src.Buffer
	dst.Filled = src.Filled
	src.Buffer = nil
	src.Filled = 0
}
