package aio

import (
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

// ThreadEngine is the portable Engine implementation: every submission
// runs a blocking read/write on its own goroutine (positioned Pread/
// Pwrite when seekable, plain Read/Write on the stream otherwise) and
// reports its outcome through a shared completion signal. It has no
// platform dependency beyond golang.org/x/sys/unix's Pread/Pwrite, so
// it is the engine exercised by the test suite and the default choice
// on any OS (or any Linux kernel too old for the io_uring opcodes the
// real engine needs).
//
// This is the Go-idiomatic stand-in for kernel AIO/io_uring: Go gives
// no portable non-blocking file I/O primitive, so "asynchronous" here
// means "performed on a goroutine the caller does not wait on",
// matching the notifier contract in package aio's doc comment exactly
// even though the underlying syscalls block.
type ThreadEngine struct {
	signal chan struct{}
}

// NewThreadEngine creates a ThreadEngine. There is no fixed worker
// pool: the scheduler already bounds the number of simultaneously
// outstanding operations to Qi+Qo (at most 64), so one goroutine per
// in-flight operation is cheap and avoids a second queue in front of
// the one the scheduler already manages.
func NewThreadEngine() *ThreadEngine {
	return &ThreadEngine{signal: make(chan struct{}, 1)}
}

func (e *ThreadEngine) wake() {
	select {
	case e.signal <- struct{}{}:
	default:
	}
}

func (e *ThreadEngine) Wait(timeout time.Duration) {
	select {
	case <-e.signal:
	case <-time.After(timeout):
	}
}

func (e *ThreadEngine) Close() error {
	return nil
}

func (e *ThreadEngine) SubmitRead(f *os.File, buf []byte, off int64, seekable bool) (Op, error) {
	op := &threadOp{}
	go func() {
		var n int
		var err error
		if seekable {
			n, err = unix.Pread(int(f.Fd()), buf, off)
		} else {
			n, err = f.Read(buf)
			if errors.Is(err, io.EOF) {
				n, err = 0, nil
			}
		}
		op.finish(n, err, e)
	}()
	return op, nil
}

func (e *ThreadEngine) SubmitWrite(f *os.File, buf []byte, off int64, seekable bool) (Op, error) {
	op := &threadOp{}
	go func() {
		var n int
		var err error
		if seekable {
			n, err = unix.Pwrite(int(f.Fd()), buf, off)
		} else {
			n, err = f.Write(buf)
		}
		if errors.Is(err, unix.ENOSPC) || errors.Is(err, unix.EFBIG) {
			err = ErrDestinationFull
		}
		op.finish(n, err, e)
	}()
	return op, nil
}

type threadOp struct {
	mu        sync.Mutex
	n         int
	err       error
	done      bool
	cancelled bool
}

func (op *threadOp) finish(n int, err error, e *ThreadEngine) {
	op.mu.Lock()
	if !op.cancelled {
		op.n, op.err, op.done = n, err, true
	} else {
		op.n, op.err, op.done = n, ErrCancelled, true
	}
	op.mu.Unlock()
	e.wake()
}

func (op *threadOp) Poll() (int, bool, error) {
	op.mu.Lock()
	defer op.mu.Unlock()
	return op.n, op.done, op.err
}

// Cancel marks the operation cancelled. Go cannot interrupt a blocking
// Pread/Pwrite already in flight, so the underlying syscall still runs
// to completion; Cancel only changes how that completion is reported.
func (op *threadOp) Cancel() error {
	op.mu.Lock()
	defer op.mu.Unlock()
	if !op.done {
		op.cancelled = true
	}
	return nil
}

var _ Engine = (*ThreadEngine)(nil)
