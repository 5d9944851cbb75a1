package sched

import (
	"crypto/rand"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nstaroverov/aioblkcopy/internal/aio"
)

func runCopy(t *testing.T, in, out *os.File, inSeekable, outSeekable bool, blockSize, depth int) *Scheduler {
	t.Helper()
	engine := aio.NewThreadEngine()
	defer engine.Close()

	s := New(Config{
		InputFile:        in,
		OutputFile:       out,
		InputSeekable:    inSeekable,
		OutputSeekable:   outSeekable,
		BlockSize:        blockSize,
		InputQueueDepth:  depth,
		OutputQueueDepth: depth,
		PollInterval:     time.Millisecond,
		Engine:           engine,
	})
	defer s.ClosePool()

	stop := make(chan struct{})
	require.NoError(t, s.Run(stop))
	return s
}

func TestSchedulerEmptySource(t *testing.T) {
	dir := t.TempDir()
	in, err := os.Create(filepath.Join(dir, "in"))
	require.NoError(t, err)
	defer in.Close()
	out, err := os.Create(filepath.Join(dir, "out"))
	require.NoError(t, err)
	defer out.Close()

	s := runCopy(t, in, out, true, true, 4096, 4)
	require.Equal(t, uint64(0), s.BytesWritten())

	st, err := out.Stat()
	require.NoError(t, err)
	require.Equal(t, int64(0), st.Size())
}

func TestSchedulerByteIdenticalSeekableToSeekable(t *testing.T) {
	dir := t.TempDir()
	size := 3*1024*1024 + 17
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}

	inPath := filepath.Join(dir, "in")
	require.NoError(t, os.WriteFile(inPath, data, 0644))

	in, err := os.Open(inPath)
	require.NoError(t, err)
	defer in.Close()
	outPath := filepath.Join(dir, "out")
	out, err := os.Create(outPath)
	require.NoError(t, err)
	defer out.Close()

	s := runCopy(t, in, out, true, true, 1024*1024, 4)
	require.Equal(t, uint64(size), s.BytesWritten())

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestSchedulerOrderingPipeSource(t *testing.T) {
	dir := t.TempDir()
	r, w, err := os.Pipe()
	require.NoError(t, err)

	go func() {
		_, _ = w.Write([]byte("HELLO\n"))
		_ = w.Close()
	}()

	outPath := filepath.Join(dir, "out")
	out, err := os.Create(outPath)
	require.NoError(t, err)
	defer out.Close()

	// Qi=32 requested, but a non-seekable input clamps to 1.
	s := New(Config{
		InputFile:        r,
		OutputFile:       out,
		InputSeekable:    false,
		OutputSeekable:   true,
		BlockSize:        512,
		InputQueueDepth:  32,
		OutputQueueDepth: 4,
		PollInterval:     time.Millisecond,
		Engine:           aio.NewThreadEngine(),
	})
	require.Equal(t, 1, s.input.Len())
	defer s.ClosePool()

	require.NoError(t, s.Run(nil))

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Equal(t, "HELLO\n", string(got))
}

func TestSchedulerNonSeekableOutputNeverExceedsOneOutstandingWrite(t *testing.T) {
	dir := t.TempDir()
	size := 8 * 1024 * 1024
	data := make([]byte, size)
	_, err := rand.Read(data)
	require.NoError(t, err)

	inPath := filepath.Join(dir, "in")
	require.NoError(t, os.WriteFile(inPath, data, 0644))
	in, err := os.Open(inPath)
	require.NoError(t, err)
	defer in.Close()

	r, w, err := os.Pipe()
	require.NoError(t, err)

	received := make([]byte, 0, size)
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		buf := make([]byte, 4096)
		for {
			n, err := r.Read(buf)
			received = append(received, buf[:n]...)
			if err == io.EOF || err != nil {
				return
			}
		}
	}()

	s := New(Config{
		InputFile:        in,
		OutputFile:       w,
		InputSeekable:    true,
		OutputSeekable:   false,
		BlockSize:        1024 * 1024,
		InputQueueDepth:  4,
		OutputQueueDepth: 8,
		PollInterval:     time.Millisecond,
		Engine:           aio.NewThreadEngine(),
	})
	require.Equal(t, 1, s.output.Len())
	defer s.ClosePool()

	require.NoError(t, s.Run(nil))
	require.NoError(t, w.Close())
	<-readDone

	require.Equal(t, data, received)
}

func TestSchedulerSynchronousEquivalenceAtQueueDepthOne(t *testing.T) {
	dir := t.TempDir()
	data := make([]byte, 10000)
	_, err := rand.Read(data)
	require.NoError(t, err)
	inPath := filepath.Join(dir, "in")
	require.NoError(t, os.WriteFile(inPath, data, 0644))
	in, err := os.Open(inPath)
	require.NoError(t, err)
	defer in.Close()
	outPath := filepath.Join(dir, "out")
	out, err := os.Create(outPath)
	require.NoError(t, err)
	defer out.Close()

	s := runCopy(t, in, out, true, true, 512, 1)
	require.Equal(t, uint64(10000), s.BytesWritten())

	got, err := os.ReadFile(outPath)
	require.NoError(t, err)
	require.Equal(t, data, got)
}
