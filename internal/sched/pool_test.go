package sched

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestBufferPoolGetReturnsFixedSize(t *testing.T) {
	p := NewBufferPool(4096)
	defer p.Close()

	buf := p.Get()
	require.Len(t, buf, 4096)
	require.Equal(t, 4096, cap(buf))
}

func TestBufferPoolPutAllowsReuse(t *testing.T) {
	p := NewBufferPool(4096)
	defer p.Close()

	buf := p.Get()
	buf[0] = 0xAB
	p.Put(buf)

	buf2 := p.Get()
	require.Len(t, buf2, 4096)
}

func TestBufferPoolAlignment(t *testing.T) {
	p := NewBufferPool(512)
	defer p.Close()

	buf := p.Get()
	// mmap always returns page-aligned memory, a stronger guarantee
	// than the 512-byte minimum direct-I/O alignment.
	addr := uintptr(unsafe.Pointer(&buf[0]))
	require.Equal(t, uintptr(0), addr%512)
}
