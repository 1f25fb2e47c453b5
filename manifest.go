package partzip

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Manifest is the hash sidecar written into the parts directory of a
// split-then-zip pack run. It carries everything an external consumer needs
// to independently re-verify and re-merge the parts: the base name, the pack
// mode, and the ordered per-part digests. The encoding is camelCase JSON.
type Manifest struct {
	BaseName string         `json:"baseName"`
	PackMode string         `json:"packMode"`
	Parts    []ManifestPart `json:"parts"`
}

// ManifestPart pairs a part file name with its SHA-256 digest.
type ManifestPart struct {
	Name   string `json:"name"`
	SHA256 string `json:"sha256"`
}

// manifestName returns the sidecar file name for a base name.
func manifestName(base string) string {
	return base + ".manifest.json"
}

// writeManifest writes the sidecar atomically (temp file + rename) so a
// crash never leaves a truncated manifest next to valid parts.
func writeManifest(dir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".manifest-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	target := filepath.Join(dir, manifestName(m.BaseName))
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// ReadManifest loads and validates a hash manifest.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("partzip: parse manifest %s: %w", path, err)
	}
	if m.BaseName == "" {
		return nil, fmt.Errorf("partzip: manifest %s missing baseName", path)
	}
	if _, err := ParsePackMode(m.PackMode); err != nil {
		return nil, err
	}
	return &m, nil
}

// expectedFor returns the manifest digests ordered to match the given parts,
// with empty strings for parts the manifest does not know.
func (m *Manifest) expectedFor(parts []partRef) []string {
	byName := make(map[string]string, len(m.Parts))
	for _, p := range m.Parts {
		byName[p.Name] = p.SHA256
	}
	expected := make([]string, len(parts))
	for i, p := range parts {
		expected[i] = byName[nameOf(p.partMatch, SplitThenZip)]
	}
	return expected
}
