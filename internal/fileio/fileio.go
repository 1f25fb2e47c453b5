// Package fileio provides buffered file helpers shared by the pack and
// restore engines.
package fileio

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// CopyBufSize is the transfer buffer size used by CopyN.
const CopyBufSize = 8 << 20

// CopyN copies exactly n bytes from src to dst, invoking progress with the
// byte delta after every buffer write. A short read surfaces as
// io.ErrUnexpectedEOF.
func CopyN(dst io.Writer, src io.Reader, n int64, progress func(delta int64)) error {
	buf := make([]byte, min(int64(CopyBufSize), max(n, 1)))
	remaining := n
	for remaining > 0 {
		limit := min(remaining, int64(len(buf)))
		read, err := src.Read(buf[:limit])
		if read > 0 {
			if _, werr := dst.Write(buf[:read]); werr != nil {
				return werr
			}
			remaining -= int64(read)
			if progress != nil {
				progress(int64(read))
			}
		}
		if err != nil {
			if err == io.EOF && remaining > 0 {
				return io.ErrUnexpectedEOF
			}
			if err != io.EOF {
				return err
			}
		}
	}
	return nil
}

// DirSize returns the total size of regular files under root.
// Symbolic links are not followed.
func DirSize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}

// ListFiles returns the paths of all regular files under root, sorted by
// the walk order of filepath.WalkDir (lexical).
func ListFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// zip local-file, empty-archive, and spanned-marker signatures.
var zipSignatures = [][4]byte{
	{0x50, 0x4b, 0x03, 0x04},
	{0x50, 0x4b, 0x05, 0x06},
	{0x50, 0x4b, 0x07, 0x08},
}

// IsZipFile sniffs the file's leading bytes for a zip signature.
func IsZipFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	var sig [4]byte
	if _, err := io.ReadFull(f, sig[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return false, nil
		}
		return false, err
	}
	for _, want := range zipSignatures {
		if sig == want {
			return true, nil
		}
	}
	return false, nil
}

// DirEmpty reports whether the directory at path has no entries.
func DirEmpty(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}
