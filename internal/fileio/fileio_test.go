package fileio

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopyN(t *testing.T) {
	t.Run("exact copy", func(t *testing.T) {
		src := bytes.NewReader([]byte("0123456789"))
		var dst bytes.Buffer
		require.NoError(t, CopyN(&dst, src, 10, nil))
		assert.Equal(t, "0123456789", dst.String())
	})

	t.Run("partial copy", func(t *testing.T) {
		src := bytes.NewReader([]byte("0123456789"))
		var dst bytes.Buffer
		require.NoError(t, CopyN(&dst, src, 4, nil))
		assert.Equal(t, "0123", dst.String())
	})

	t.Run("zero bytes", func(t *testing.T) {
		var dst bytes.Buffer
		require.NoError(t, CopyN(&dst, bytes.NewReader(nil), 0, nil))
		assert.Zero(t, dst.Len())
	})

	t.Run("short read", func(t *testing.T) {
		src := bytes.NewReader([]byte("abc"))
		var dst bytes.Buffer
		err := CopyN(&dst, src, 10, nil)
		assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("progress deltas sum to n", func(t *testing.T) {
		data := make([]byte, 100_000)
		var dst bytes.Buffer
		var total int64
		require.NoError(t, CopyN(&dst, bytes.NewReader(data), int64(len(data)), func(delta int64) {
			assert.Positive(t, delta)
			total += delta
		}))
		assert.Equal(t, int64(len(data)), total)
	})
}

func TestDirSize(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a"), make([]byte, 100), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b"), make([]byte, 250), 0o644))

	size, err := DirSize(dir)
	require.NoError(t, err)
	assert.Equal(t, int64(350), size)
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "sub", "b"), []byte("y"), 0o644))

	files, err := ListFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a"),
		filepath.Join(dir, "sub", "b"),
	}, files)
}

func TestIsZipFile(t *testing.T) {
	dir := t.TempDir()

	zipPath := filepath.Join(dir, "x.zip")
	require.NoError(t, os.WriteFile(zipPath, []byte("PK\x03\x04rest-of-archive"), 0o644))
	emptyZip := filepath.Join(dir, "empty.zip")
	require.NoError(t, os.WriteFile(emptyZip, []byte("PK\x05\x06"), 0o644))
	plain := filepath.Join(dir, "plain.txt")
	require.NoError(t, os.WriteFile(plain, []byte("just text"), 0o644))
	tiny := filepath.Join(dir, "tiny")
	require.NoError(t, os.WriteFile(tiny, []byte("PK"), 0o644))

	tests := []struct {
		path string
		want bool
	}{
		{zipPath, true},
		{emptyZip, true},
		{plain, false},
		{tiny, false},
	}
	for _, tt := range tests {
		got, err := IsZipFile(tt.path)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, filepath.Base(tt.path))
	}
}

func TestDirEmpty(t *testing.T) {
	dir := t.TempDir()
	empty, err := DirEmpty(dir)
	require.NoError(t, err)
	assert.True(t, empty)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "f"), nil, 0o644))
	empty, err = DirEmpty(dir)
	require.NoError(t, err)
	assert.False(t, empty)
}
