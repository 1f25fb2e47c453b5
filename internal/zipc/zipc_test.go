package zipc

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildArchive writes a small archive and returns its path.
func buildArchive(t *testing.T, level int, password string, entries map[string][]byte, dirs ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.zip")
	w, err := NewWriter(path, level, password)
	require.NoError(t, err)
	for _, d := range dirs {
		require.NoError(t, w.CreateDir(d))
	}
	for name, data := range entries {
		ew, err := w.Create(name, Deflate)
		require.NoError(t, err)
		_, err = ew.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return path
}

func TestWriterRoundTrip(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog")
	path := buildArchive(t, 6, "", map[string][]byte{"doc.txt": payload})

	dest := t.TempDir()
	require.NoError(t, ExtractAll(context.Background(), path, dest, "", nil))
	got, err := os.ReadFile(filepath.Join(dest, "doc.txt"))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestWriterStoreMethod(t *testing.T) {
	payload := make([]byte, 50_000)
	for i := range payload {
		payload[i] = 'a'
	}
	path := filepath.Join(t.TempDir(), "stored.zip")
	w, err := NewWriter(path, 6, "")
	require.NoError(t, err)
	ew, err := w.Create("blob", Store)
	require.NoError(t, err)
	_, err = ew.Write(payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	// A stored entry cannot shrink; the archive must be at least payload-size.
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, info.Size(), int64(len(payload)))

	e, err := SoleEntry(path, "")
	require.NoError(t, err)
	assert.Equal(t, "blob", e.Name)
	assert.Equal(t, int64(len(payload)), e.Size)
}

func TestWriterDeflateShrinks(t *testing.T) {
	payload := make([]byte, 50_000)
	for i := range payload {
		payload[i] = 'a'
	}
	path := buildArchive(t, 9, "", map[string][]byte{"blob": payload})
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Less(t, info.Size(), int64(len(payload)/10))
}

func TestEncryptedRoundTrip(t *testing.T) {
	payload := []byte("classified payload bytes")
	path := buildArchive(t, 6, "hunter2", map[string][]byte{"secret.bin": payload})

	t.Run("correct password", func(t *testing.T) {
		dest := t.TempDir()
		require.NoError(t, ExtractAll(context.Background(), path, dest, "hunter2", nil))
		got, err := os.ReadFile(filepath.Join(dest, "secret.bin"))
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("wrong password", func(t *testing.T) {
		err := ExtractAll(context.Background(), path, t.TempDir(), "wrong", nil)
		assert.Error(t, err)
	})

	t.Run("missing password", func(t *testing.T) {
		err := ExtractAll(context.Background(), path, t.TempDir(), "", nil)
		assert.ErrorIs(t, err, ErrPasswordRequired)
	})

	t.Run("sole entry without password", func(t *testing.T) {
		_, err := SoleEntry(path, "")
		assert.ErrorIs(t, err, ErrPasswordRequired)
	})
}

func TestSoleEntry(t *testing.T) {
	t.Run("single entry", func(t *testing.T) {
		path := buildArchive(t, 6, "", map[string][]byte{"chunk": []byte("data")})
		e, err := SoleEntry(path, "")
		require.NoError(t, err)
		assert.Equal(t, "chunk", e.Name)
		assert.Equal(t, int64(4), e.Size)
	})

	t.Run("multiple entries", func(t *testing.T) {
		path := buildArchive(t, 6, "", map[string][]byte{"a": []byte("1"), "b": []byte("2")})
		_, err := SoleEntry(path, "")
		assert.ErrorContains(t, err, "want 1")
	})

	t.Run("directory entry", func(t *testing.T) {
		path := buildArchive(t, 6, "", nil, "only-a-dir")
		_, err := SoleEntry(path, "")
		assert.ErrorContains(t, err, "directory")
	})
}

func TestListAndTotal(t *testing.T) {
	path := buildArchive(t, 6, "", map[string][]byte{
		"tree/a.txt": []byte("aaaa"),
		"tree/b.txt": []byte("bbbbbb"),
	}, "tree", "tree/empty")

	entries, err := List(path)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	byName := make(map[string]Entry)
	for _, e := range entries {
		byName[e.Name] = e
	}
	assert.True(t, byName["tree/"].Dir)
	assert.True(t, byName["tree/empty/"].Dir)
	assert.False(t, byName["tree/a.txt"].Dir)

	total, err := TotalUncompressed(path)
	require.NoError(t, err)
	assert.Equal(t, int64(10), total)
}

func TestExtractAllEmptyDirs(t *testing.T) {
	path := buildArchive(t, 6, "", map[string][]byte{"tree/a.txt": []byte("x")}, "tree", "tree/hollow")
	dest := t.TempDir()
	require.NoError(t, ExtractAll(context.Background(), path, dest, "", nil))

	info, err := os.Stat(filepath.Join(dest, "tree", "hollow"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestExtractAllSkipsTraversal(t *testing.T) {
	path := buildArchive(t, 6, "", map[string][]byte{
		"../escape.txt": []byte("nope"),
		"safe.txt":      []byte("ok"),
	})
	dest := filepath.Join(t.TempDir(), "dest")
	require.NoError(t, ExtractAll(context.Background(), path, dest, "", nil))

	_, err := os.Stat(filepath.Join(dest, "..", "escape.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dest, "safe.txt"))
	assert.NoError(t, err)
}

func TestExtractAllProgress(t *testing.T) {
	payload := make([]byte, 10_000)
	path := buildArchive(t, 6, "", map[string][]byte{"blob": payload})

	var seen int64
	err := ExtractAll(context.Background(), path, t.TempDir(), "", func(delta int64) { seen += delta })
	require.NoError(t, err)
	assert.Equal(t, int64(len(payload)), seen)
}

func TestExtractAllCancellation(t *testing.T) {
	path := buildArchive(t, 6, "", map[string][]byte{"blob": []byte("data")})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ExtractAll(ctx, path, t.TempDir(), "", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
