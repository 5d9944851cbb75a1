// Package sched implements the dual-queue scheduling loop: fixed-size
// pools of request slots for the input and output sides, a buffer pool
// supplying the memory those slots move between them, and the
// scheduling loop itself.
package sched

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// BufferPool hands out page-aligned buffers of a single fixed size,
// sized once at construction from the configured block size. Every
// slot in every queue pulls from the same pool, so conservation of
// buffers (every buffer is always owned by exactly one slot, free
// list, or in-flight operation) reduces to conservation within this
// pool.
//
// Buffers are allocated via an anonymous mmap rather than make([]byte,
// ...): O_DIRECT requires the buffer address itself (not just length
// and offset) to be aligned to the device's logical block size, which
// Go's allocator does not guarantee. mmap always returns page-aligned
// memory, which satisfies every alignment requirement this program
// needs (the minimum required alignment is 512 bytes; a page is at
// least that).
//
// Every buffer submitted to the engines is the same size, so the pool
// is a single bucket rather than a size-bucketed set of pools.
type BufferPool struct {
	blockSize int
	free      sync.Pool
	mu        sync.Mutex
	allocated [][]byte // tracked so Close can munmap everything
}

// NewBufferPool creates a pool that hands out buffers of exactly
// blockSize bytes.
func NewBufferPool(blockSize int) *BufferPool {
	p := &BufferPool{blockSize: blockSize}
	p.free.New = func() any {
		buf, err := p.allocate()
		if err != nil {
			// sync.Pool.New cannot return an error; a failed mmap here
			// means the process is nearly out of address space or memory,
			// conditions the rest of the program cannot recover from
			// either.
			panic(fmt.Sprintf("sched: buffer allocation failed: %v", err))
		}
		return buf
	}
	return p
}

func (p *BufferPool) allocate() ([]byte, error) {
	buf, err := unix.Mmap(-1, 0, p.blockSize, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_PRIVATE|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, fmt.Errorf("mmap buffer: %w", err)
	}
	p.mu.Lock()
	p.allocated = append(p.allocated, buf)
	p.mu.Unlock()
	return buf, nil
}

// Get returns an available buffer, allocating a new one if the pool is
// empty. The returned slice always has length and capacity equal to
// the pool's configured block size.
func (p *BufferPool) Get() []byte {
	return p.free.Get().([]byte)
}

// Put returns buf to the pool. buf must have been obtained from this
// pool's Get and must not be referenced again by the caller afterward.
func (p *BufferPool) Put(buf []byte) {
	p.free.Put(buf[:p.blockSize])
}

// BlockSize reports the fixed size of every buffer this pool hands out.
func (p *BufferPool) BlockSize() int {
	return p.blockSize
}

// Close unmaps every buffer this pool has ever allocated, including
// ones currently checked out. Callers must ensure no operation is
// still using a buffer from this pool before calling Close.
func (p *BufferPool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for _, buf := range p.allocated {
		if err := unix.Munmap(buf); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.allocated = nil
	return firstErr
}
