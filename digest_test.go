package partzip

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	helloDigest = "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	emptyDigest = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
)

func writeFixture(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestDigestFile(t *testing.T) {
	dir := t.TempDir()
	hello := writeFixture(t, dir, "hello.txt", []byte("hello world"))
	empty := writeFixture(t, dir, "empty.bin", nil)

	got, err := digestFile(hello)
	require.NoError(t, err)
	assert.Equal(t, helloDigest, got)

	got, err = digestFile(empty)
	require.NoError(t, err)
	assert.Equal(t, emptyDigest, got)
}

func TestVerifyParts(t *testing.T) {
	dir := t.TempDir()
	a := writeFixture(t, dir, "a", []byte("hello world"))
	b := writeFixture(t, dir, "b", nil)
	c := writeFixture(t, dir, "c", []byte("hello world"))

	t.Run("all match", func(t *testing.T) {
		bad, err := VerifyParts([]string{a, b}, []string{helloDigest, emptyDigest})
		require.NoError(t, err)
		assert.Empty(t, bad)
	})

	t.Run("case-insensitive expected", func(t *testing.T) {
		bad, err := VerifyParts([]string{a}, []string{strings.ToUpper(helloDigest)})
		require.NoError(t, err)
		assert.Empty(t, bad)
	})

	t.Run("mismatch subset in order", func(t *testing.T) {
		bad, err := VerifyParts([]string{a, b, c}, []string{helloDigest, helloDigest, emptyDigest})
		require.NoError(t, err)
		assert.Equal(t, []string{b, c}, bad)
	})

	t.Run("missing expected entries", func(t *testing.T) {
		bad, err := VerifyParts([]string{a, b, c}, []string{helloDigest})
		require.NoError(t, err)
		assert.Equal(t, []string{b, c}, bad)
	})

	t.Run("unreadable path", func(t *testing.T) {
		_, err := VerifyParts([]string{filepath.Join(dir, "missing")}, []string{helloDigest})
		assert.Error(t, err)
	})
}
