package sched

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/nstaroverov/aioblkcopy/internal/aio"
	"github.com/nstaroverov/aioblkcopy/internal/interfaces"
)

// Config configures one Scheduler run. Both queue depths are clamped
// to 1 by the scheduler itself when the corresponding side is
// non-seekable; callers do not need to pre-clamp.
type Config struct {
	InputFile        *os.File
	OutputFile       *os.File
	InputSeekable    bool
	OutputSeekable   bool
	BlockSize        int
	InputQueueDepth  int
	OutputQueueDepth int
	PollInterval     time.Duration
	Engine           aio.Engine
	Logger           interfaces.Logger
	Observer         interfaces.Observer

	// FreeBytes, if set, is consulted whenever a write completes short
	// of the bytes it was asked to transfer without an explicit error.
	// A result of 0 confirms the destination is exhausted (some hosts
	// surface a full block device as a short write rather than
	// ENOSPC/EFBIG); a nonzero result means treat the shortfall as a
	// transient condition and resubmit the remainder.
	FreeBytes func() (int64, error)
}

// Scheduler drives the dual-queue copy loop described in package doc.
// It is single-threaded: Run must be called from one goroutine and
// performs no internal locking, matching the notifier's "the scheduler
// re-scans, never trusts identity" contract in package aio.
type Scheduler struct {
	cfg Config

	input  *Queue
	output *Queue
	pool   *BufferPool

	readSeq  uint64
	writeSeq uint64
	ioff     int64 // next input offset for seekable reads
	ooff     int64 // next output offset when writes go out in read order (either side non-seekable)
	eof      bool

	bytesWritten uint64
}

// New builds a Scheduler ready to Run. It clamps queue depths to 1 on
// non-seekable sides, per the hard invariant that a non-seekable
// source cannot be read concurrently and a non-seekable sink cannot
// receive out-of-order writes.
func New(cfg Config) *Scheduler {
	qi := cfg.InputQueueDepth
	if !cfg.InputSeekable {
		qi = 1
	}
	qo := cfg.OutputQueueDepth
	if !cfg.OutputSeekable {
		qo = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 100 * time.Microsecond
	}

	s := &Scheduler{
		cfg:    cfg,
		input:  NewQueue(qi),
		output: NewQueue(qo),
		pool:   NewBufferPool(cfg.BlockSize),
	}
	for i := 0; i < qi; i++ {
		s.input.At(i).File = cfg.InputFile
	}
	for i := 0; i < qo; i++ {
		s.output.At(i).File = cfg.OutputFile
	}
	return s
}

// BytesWritten reports the total bytes successfully written so far.
// Safe to call only after Run has returned.
func (s *Scheduler) BytesWritten() uint64 {
	return s.bytesWritten
}

// ClosePool releases the scheduler's buffer pool. Call after Run
// returns.
func (s *Scheduler) ClosePool() error {
	return s.pool.Close()
}

// Run drives the scheduler loop to completion: every input and output
// slot Free and eof latched. It returns the first fatal error
// encountered, if any; a clean end-of-source with nothing left
// in-flight returns nil.
func (s *Scheduler) Run(stop <-chan struct{}) error {
	for {
		select {
		case <-stop:
			return fmt.Errorf("sched: run cancelled before completion")
		default:
		}

		if err := s.passA(); err != nil {
			return err
		}
		if err := s.passB(); err != nil {
			return err
		}
		if s.cfg.Observer != nil {
			s.cfg.Observer.ObserveQueueDepth(
				uint32(s.input.CountStatus(StatusInProgress)+s.input.CountStatus(StatusReady)),
				uint32(s.output.CountStatus(StatusInProgress)),
			)
		}
		if s.passC() {
			return nil
		}
		s.passD()
	}
}

// passA drains and advances every input slot: probe in-flight reads,
// apply their completion to the state machine, and submit fresh reads
// into any slot that is Free while the source is not yet exhausted.
func (s *Scheduler) passA() error {
	for i := 0; i < s.input.Len(); i++ {
		slot := s.input.At(i)

		switch slot.Status {
		case StatusReady:
			continue

		case StatusInProgress:
			n, done, err := slot.Op.Poll()
			if !done {
				continue
			}
			if errors.Is(err, aio.ErrCancelled) {
				if slot.Buffer != nil {
					s.pool.Put(slot.Buffer)
				}
				slot.Reset()
				continue
			}
			if err != nil {
				if s.cfg.Logger != nil {
					s.cfg.Logger.Printf("input read failed: %v", err)
				}
				return fmt.Errorf("sched: input read failed: %w", err)
			}
			if s.cfg.Observer != nil {
				s.cfg.Observer.ObserveRead(uint64(n), uint64(time.Since(slot.SubmittedAt).Nanoseconds()), true)
			}
			if err := s.completeRead(slot, n); err != nil {
				return err
			}

		case StatusFree:
			if s.eof {
				continue
			}
			if err := s.submitRead(slot); err != nil {
				return err
			}
		}
	}
	return nil
}

// completeRead applies one read completion to slot's state machine:
// short read resubmits the remainder, a full block or an EOF-with-data
// promotes to Ready, and a bare EOF with nothing buffered releases the
// slot and latches eof. A resubmission failure is a submission error
// and is fatal, per the same contract as submitRead.
func (s *Scheduler) completeRead(slot *Slot, n int) error {
	if n == 0 {
		slot.EOF = true
		if slot.Filled > 0 {
			slot.Status = StatusReady
		} else {
			s.pool.Put(slot.Buffer)
			slot.Reset()
		}
		s.eof = true
		return nil
	}

	slot.Filled += n
	if slot.Filled >= s.pool.BlockSize() {
		slot.Status = StatusReady
		return nil
	}

	// Short read: resubmit for the remainder on the same slot.
	off := slot.Offset + int64(slot.Filled)
	if !s.cfg.InputSeekable {
		off = 0
	}
	op, err := s.cfg.Engine.SubmitRead(slot.File, slot.Buffer[slot.Filled:], off, s.cfg.InputSeekable)
	if err != nil {
		if s.cfg.Logger != nil {
			s.cfg.Logger.Printf("input read resubmission failed: %v", err)
		}
		return fmt.Errorf("sched: input read resubmission failed: %w", err)
	}
	slot.Op = op
	slot.Status = StatusInProgress
	slot.SubmittedAt = time.Now()
	return nil
}

// submitRead allocates a buffer, assigns the next read sequence, and
// submits a fresh read into slot. A submission failure is fatal: it is
// reported to the caller rather than latching eof, since a source that
// cannot accept a read request is a fault, not end-of-data.
func (s *Scheduler) submitRead(slot *Slot) error {
	buf := s.pool.Get()
	off := s.ioff
	if !s.cfg.InputSeekable {
		off = 0
	}
	op, err := s.cfg.Engine.SubmitRead(slot.File, buf, off, s.cfg.InputSeekable)
	if err != nil {
		s.pool.Put(buf)
		if s.cfg.Logger != nil {
			s.cfg.Logger.Printf("input read submission failed: %v", err)
		}
		return fmt.Errorf("sched: input read submission failed: %w", err)
	}
	s.readSeq++
	slot.Seq = s.readSeq
	slot.Offset = off
	slot.Buffer = buf
	slot.Filled = 0
	slot.Op = op
	slot.Status = StatusInProgress
	slot.SubmittedAt = time.Now()
	if s.cfg.InputSeekable {
		s.ioff += int64(s.pool.BlockSize())
	}
	return nil
}

// passB drains output completions and matches Ready input slots to
// idle output slots under the ordering rule: a non-seekable output
// only accepts the input whose read sequence is exactly writeSeq+1.
func (s *Scheduler) passB() error {
	j := 0
	for o := 0; o < s.output.Len(); o++ {
		slot := s.output.At(o)

		if slot.Status == StatusInProgress {
			n, done, err := slot.Op.Poll()
			if !done {
				continue
			}
			if errors.Is(err, aio.ErrCancelled) {
				s.pool.Put(slot.Buffer)
				slot.Reset()
				continue
			}
			if isDestinationFull(err) {
				if s.cfg.Observer != nil {
					s.cfg.Observer.ObserveWrite(uint64(n), uint64(time.Since(slot.SubmittedAt).Nanoseconds()), false)
				}
				s.pool.Put(slot.Buffer)
				slot.Reset()
				s.eof = true
				continue
			}
			if err != nil {
				if s.cfg.Logger != nil {
					s.cfg.Logger.Printf("output write failed: %v", err)
				}
				return fmt.Errorf("sched: output write failed: %w", err)
			}
			if n < slot.Filled && s.cfg.FreeBytes != nil {
				if free, probeErr := s.cfg.FreeBytes(); probeErr == nil && free <= 0 {
					if s.cfg.Observer != nil {
						s.cfg.Observer.ObserveWrite(uint64(n), uint64(time.Since(slot.SubmittedAt).Nanoseconds()), false)
					}
					s.bytesWritten += uint64(n)
					s.pool.Put(slot.Buffer)
					slot.Reset()
					s.eof = true
					continue
				}
				// Space remains: resubmit the unwritten remainder on the
				// same slot.
				s.bytesWritten += uint64(n)
				copy(slot.Buffer, slot.Buffer[n:slot.Filled])
				slot.Filled -= n
				slot.Offset += int64(n)
				op, err := s.cfg.Engine.SubmitWrite(slot.File, slot.Buffer[:slot.Filled], slot.Offset, s.cfg.OutputSeekable)
				if err != nil {
					return fmt.Errorf("sched: write resubmission failed: %w", err)
				}
				slot.Op = op
				continue
			}
			if s.cfg.Observer != nil {
				s.cfg.Observer.ObserveWrite(uint64(n), uint64(time.Since(slot.SubmittedAt).Nanoseconds()), true)
			}
			s.bytesWritten += uint64(n)
			s.pool.Put(slot.Buffer)
			slot.Reset()
		}

		if slot.Status != StatusFree {
			continue
		}

		for ; j < s.input.Len(); j++ {
			in := s.input.At(j)
			if in.Status != StatusReady {
				continue
			}
			if !s.cfg.OutputSeekable && in.Seq != s.writeSeq+1 {
				continue
			}

			off := in.Offset
			if !s.cfg.OutputSeekable || !s.cfg.InputSeekable {
				off = s.ooff
			}
			moveBuffer(slot, in)
			op, err := s.cfg.Engine.SubmitWrite(slot.File, slot.Buffer[:slot.Filled], off, s.cfg.OutputSeekable)
			if err != nil {
				return fmt.Errorf("sched: write submission failed: %w", err)
			}
			s.writeSeq++
			slot.Seq = s.writeSeq
			slot.Offset = off
			slot.Op = op
			slot.Status = StatusInProgress
			slot.SubmittedAt = time.Now()
			if !s.cfg.OutputSeekable || !s.cfg.InputSeekable {
				s.ooff += int64(slot.Filled)
			}
			in.Status = StatusFree
			j++
			break
		}
	}
	return nil
}

// passC reports whether the loop may terminate: every slot Free and
// eof latched.
func (s *Scheduler) passC() bool {
	return s.eof && s.input.AllFree() && s.output.AllFree()
}

// passD is the scheduler's sole suspension point: a bounded wait on
// the completion notifier.
func (s *Scheduler) passD() {
	s.cfg.Engine.Wait(s.cfg.PollInterval)
}

// isDestinationFull reports whether err is aio.ErrDestinationFull,
// which the engines return for a write that failed with ENOSPC or
// EFBIG. A short write without an error is handled separately in
// passB through the FreeBytes probe. The scheduler treats a full
// destination the same as cancellation: release the slot, but also
// latch eof since no further writes can succeed.
func isDestinationFull(err error) bool {
	return errors.Is(err, aio.ErrDestinationFull)
}
