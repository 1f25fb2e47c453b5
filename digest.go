package partzip

import (
	"os"
	"strings"

	"github.com/opencontainers/go-digest"
)

// digestFile computes the lowercase hex SHA-256 of the file at path.
func digestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	d, err := digest.SHA256.FromReader(f)
	if err != nil {
		return "", err
	}
	return d.Encoded(), nil
}

// VerifyParts digests each path and compares it against the expected hash at
// the same position, case-insensitively. It returns the subsequence of paths
// whose digest mismatches or whose expected entry is missing, preserving
// input order; nil when everything matches. Digest I/O failures abort with
// an error.
func VerifyParts(paths, expected []string) ([]string, error) {
	var bad []string
	for i, path := range paths {
		if i >= len(expected) {
			bad = append(bad, path)
			continue
		}
		got, err := digestFile(path)
		if err != nil {
			return nil, err
		}
		if !strings.EqualFold(got, expected[i]) {
			bad = append(bad, path)
		}
	}
	return bad, nil
}
