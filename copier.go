// Package aioblkcopy copies a byte stream between two descriptors
// using a bounded pool of concurrent reads and writes, preserving
// byte-exact ordering of the written stream even when the output
// cannot be written out of order.
package aioblkcopy

import (
	"context"
	"os"
	"time"

	"github.com/nstaroverov/aioblkcopy/internal/aio"
	"github.com/nstaroverov/aioblkcopy/internal/descriptor"
	"github.com/nstaroverov/aioblkcopy/internal/sched"
)

// Copy runs a copy to completion according to cfg, blocking until the
// source is exhausted, the destination reports full, or ctx is
// cancelled. It returns a Summary describing the work done even when
// it also returns an error, so a partial-copy byte count is always
// available.
func Copy(ctx context.Context, cfg Config) (Summary, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return Summary{}, err
	}

	inSeekable, err := descriptor.Classify(cfg.Source)
	if err != nil {
		return Summary{}, WrapError("classify source", CodeOpenFailed, err)
	}
	outSeekable, err := descriptor.Classify(cfg.Destination)
	if err != nil {
		return Summary{}, WrapError("classify destination", CodeOpenFailed, err)
	}

	inFile, err := descriptor.OpenInputSlot(cfg.Source, inSeekable && cfg.DirectIOInput)
	if err != nil {
		return Summary{}, WrapError("open source", CodeOpenFailed, err)
	}
	defer func() {
		if inFile != os.Stdin {
			_ = inFile.Close()
		}
	}()

	outFile, err := descriptor.OpenOutputSlot(cfg.Destination, outSeekable && cfg.DirectIOOutput, true)
	if err != nil {
		return Summary{}, WrapError("open destination", CodeOpenFailed, err)
	}
	defer func() {
		if outFile != os.Stdout {
			_ = outFile.Close()
		}
	}()

	engine, err := newEngine(cfg)
	if err != nil {
		return Summary{}, WrapError("create engine", CodeSubmissionFailed, err)
	}
	defer func() { _ = engine.Close() }()

	var freeBytes func() (int64, error)
	if outSeekable {
		freeBytes = func() (int64, error) { return descriptor.FreeBytes(outFile) }
	}

	scheduler := sched.New(sched.Config{
		InputFile:        inFile,
		OutputFile:       outFile,
		InputSeekable:    inSeekable,
		OutputSeekable:   outSeekable,
		BlockSize:        cfg.BlockSize,
		InputQueueDepth:  cfg.MaxQueueSize,
		OutputQueueDepth: cfg.MaxQueueSize,
		PollInterval:     cfg.PollInterval,
		Engine:           engine,
		Logger:           cfg.Logger,
		Observer:         cfg.Observer,
		FreeBytes:        freeBytes,
	})
	defer scheduler.ClosePool()

	start := time.Now()
	stop := make(chan struct{})
	done := make(chan error, 1)
	go func() { done <- scheduler.Run(stop) }()

	var runErr error
	select {
	case runErr = <-done:
	case <-ctx.Done():
		close(stop)
		runErr = <-done
		if runErr == nil {
			runErr = ctx.Err()
		}
	}

	elapsed := time.Since(start)
	bytes := scheduler.BytesWritten()
	summary := Summary{
		BytesCopied: bytes,
		Duration:    elapsed,
		Throughput:  throughputMBps(bytes, elapsed),
	}

	if runErr != nil {
		return summary, WrapError("scheduler run", CodeIOError, runErr)
	}
	return summary, nil
}

func throughputMBps(bytes uint64, elapsed time.Duration) float64 {
	seconds := elapsed.Seconds()
	if seconds <= 0 {
		return 0
	}
	return float64(bytes) / seconds / (1024 * 1024)
}

// newEngine selects the asynchronous I/O backend per cfg.
// UseThreadEngine forces the portable engine; otherwise the
// platform-preferred engine is used (io_uring on Linux when
// available, the thread engine everywhere else).
func newEngine(cfg Config) (aio.Engine, error) {
	if cfg.UseThreadEngine {
		return aio.NewThreadEngine(), nil
	}
	return aio.NewPreferredEngine(uint32(2 * cfg.MaxQueueSize))
}
