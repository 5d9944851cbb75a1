// Package descriptor classifies source/destination descriptors as
// seekable or non-seekable and opens the file descriptors the
// scheduler reads and writes through.
package descriptor

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Side describes one direction (source or destination) of a copy: the
// path to open (empty meaning the corresponding standard stream), and
// whether it classified as seekable.
type Side struct {
	Path     string
	Seekable bool
	Direct   bool // O_DIRECT requested; ignored when !Seekable
}

// Classify stats path and reports whether it is seekable: a regular
// file or block device. Anything else (pipe, FIFO, character device)
// is non-seekable. An empty path is always non-seekable (it stands in
// for a standard stream).
func Classify(path string) (seekable bool, err error) {
	if path == "" {
		return false, nil
	}
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		if err == unix.ENOENT {
			// Destination may not exist yet; it will be created as a
			// regular file, which is seekable.
			return true, nil
		}
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
	mode := st.Mode & unix.S_IFMT
	return mode == unix.S_IFREG || mode == unix.S_IFBLK, nil
}

// OpenInputSlot opens the file descriptor the scheduler reads the
// source through. The scheduler shares this single descriptor across
// every input slot and issues every read at an explicit offset
// (Pread, or the io_uring equivalent), so the descriptor's own file
// cursor is never consulted and concurrent slots never race over it.
// When path is empty, stdin is returned directly (there can only ever
// be one input slot in that case, since a non-seekable input forces
// Qi=1).
func OpenInputSlot(path string, direct bool) (*os.File, error) {
	if path == "" {
		return os.Stdin, nil
	}
	flags := os.O_RDONLY
	if direct {
		flags |= unix.O_DIRECT
	}
	f, err := os.OpenFile(path, flags, 0)
	if err != nil {
		return nil, fmt.Errorf("open input %s: %w", path, err)
	}
	return f, nil
}

// OpenOutputSlot opens the file descriptor the scheduler writes the
// destination through, shared across every output slot the same way
// OpenInputSlot's descriptor is shared across input slots: every write
// goes through an explicit offset (Pwrite, or the io_uring
// equivalent), never the descriptor's own cursor. truncate requests
// O_CREAT|O_TRUNC and should be passed true exactly once per
// destination path, when Copy opens it.
func OpenOutputSlot(path string, direct, truncate bool) (*os.File, error) {
	if path == "" {
		return os.Stdout, nil
	}
	flags := os.O_WRONLY
	if truncate {
		flags |= os.O_CREATE | os.O_TRUNC
	}
	if direct {
		flags |= unix.O_DIRECT
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, fmt.Errorf("open output %s: %w", path, err)
	}
	return f, nil
}

// FreeBytes returns the number of bytes of storage remaining on the
// filesystem backing fd, used to probe residual destination capacity
// before concluding a short/failed write means the device is full.
func FreeBytes(f *os.File) (int64, error) {
	var st unix.Statfs_t
	if err := unix.Fstatfs(int(f.Fd()), &st); err != nil {
		return 0, err
	}
	return int64(st.Bavail) * int64(st.Bsize), nil
}
