package descriptor

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyRegularFileIsSeekable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0644))

	seekable, err := Classify(path)
	require.NoError(t, err)
	require.True(t, seekable)
}

func TestClassifyMissingPathIsSeekable(t *testing.T) {
	dir := t.TempDir()
	seekable, err := Classify(filepath.Join(dir, "does-not-exist"))
	require.NoError(t, err)
	require.True(t, seekable)
}

func TestClassifyEmptyPathIsNonSeekable(t *testing.T) {
	seekable, err := Classify("")
	require.NoError(t, err)
	require.False(t, seekable)
}

func TestClassifyPipeIsNonSeekable(t *testing.T) {
	r, w, err := os.Pipe()
	require.NoError(t, err)
	defer r.Close()
	defer w.Close()

	seekable, err := Classify(fmt.Sprintf("/dev/fd/%d", r.Fd()))
	require.NoError(t, err)
	require.False(t, seekable)

	st, err := r.Stat()
	require.NoError(t, err)
	require.True(t, st.Mode()&os.ModeNamedPipe != 0 || !st.Mode().IsRegular())
}

func TestOpenInputSlotStdin(t *testing.T) {
	f, err := OpenInputSlot("", false)
	require.NoError(t, err)
	require.Equal(t, os.Stdin, f)
}

func TestOpenOutputSlotStdout(t *testing.T) {
	f, err := OpenOutputSlot("", false, false)
	require.NoError(t, err)
	require.Equal(t, os.Stdout, f)
}

func TestOpenOutputSlotTruncatesAndCreates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out")
	require.NoError(t, os.WriteFile(path, []byte("stale content"), 0644))

	f, err := OpenOutputSlot(path, false, true)
	require.NoError(t, err)
	defer f.Close()

	st, err := f.Stat()
	require.NoError(t, err)
	require.Equal(t, int64(0), st.Size())
}

func TestFreeBytesReportsPositiveAvailability(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	free, err := FreeBytes(f)
	require.NoError(t, err)
	require.Greater(t, free, int64(0))
}
