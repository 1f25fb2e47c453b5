package partzip

import (
	"fmt"
	"os"
	"path/filepath"
)

// PackMode governs whether splitting happens before or after compression.
type PackMode uint8

const (
	// SplitThenZip chunks the input first; every chunk becomes its own
	// zip part.
	SplitThenZip PackMode = iota

	// ZipThenSplit compresses the whole input into one archive first and
	// chunks the archive's byte stream into raw parts.
	ZipThenSplit
)

// String returns the wire name of the mode, as used in manifests and by
// external automation consumers.
func (m PackMode) String() string {
	switch m {
	case SplitThenZip:
		return "split-then-zip"
	case ZipThenSplit:
		return "zip-then-split"
	default:
		return "unknown"
	}
}

// ParsePackMode converts a wire name back into a PackMode.
func ParsePackMode(s string) (PackMode, error) {
	switch s {
	case "split-then-zip":
		return SplitThenZip, nil
	case "zip-then-split":
		return ZipThenSplit, nil
	}
	return 0, fmt.Errorf("partzip: unknown pack mode %q", s)
}

// DirSplitMode selects the compression strategy for directory input under
// SplitThenZip. It has no effect on file input or ZipThenSplit.
type DirSplitMode uint8

const (
	// CompressSplitStore zips the directory with deflate, chunks the
	// archive, and wraps each chunk as a store-method zip part. The payload
	// is already compressed, so the wrapper never recompresses it.
	CompressSplitStore DirSplitMode = iota

	// StoreSplitCompress zips the directory with the store method, chunks
	// the archive, and wraps each chunk as a deflate zip part.
	StoreSplitCompress
)

// String returns the wire name of the directory split mode.
func (m DirSplitMode) String() string {
	switch m {
	case CompressSplitStore:
		return "compress-split-store"
	case StoreSplitCompress:
		return "store-split-compress"
	default:
		return "unknown"
	}
}

// splitKind discriminates the SplitSpec variants.
type splitKind uint8

const (
	splitBySize splitKind = iota
	splitByCount
)

// MinPartSize is the smallest accepted BySize target in bytes.
const MinPartSize = 1024

// SplitSpec describes how the input is divided: either by a per-part byte
// target or by a fixed part count. Construct with BySize or ByCount.
type SplitSpec struct {
	kind  splitKind
	value int64
}

// BySize returns a spec producing parts of at most target bytes.
// Targets below MinPartSize are rejected at pack time.
func BySize(target int64) SplitSpec {
	return SplitSpec{kind: splitBySize, value: target}
}

// ByCount returns a spec producing exactly n parts.
func ByCount(n int64) SplitSpec {
	return SplitSpec{kind: splitByCount, value: n}
}

// validate enforces the public-interface invariants: size targets must be at
// least MinPartSize and counts at least one.
func (s SplitSpec) validate() error {
	switch s.kind {
	case splitBySize:
		if s.value < MinPartSize {
			return fmt.Errorf("%w: size target %d below minimum %d", ErrInvalidSpec, s.value, MinPartSize)
		}
	case splitByCount:
		if s.value < 1 {
			return fmt.Errorf("%w: part count %d", ErrInvalidSpec, s.value)
		}
	}
	return nil
}

// String returns a human-readable description of the spec.
func (s SplitSpec) String() string {
	if s.kind == splitBySize {
		return fmt.Sprintf("by-size(%d)", s.value)
	}
	return fmt.Sprintf("by-count(%d)", s.value)
}

// InputItem is a resolved pack input. Immutable once resolved.
type InputItem struct {
	// Path is the cleaned input path.
	Path string

	// IsDir reports whether the input is a directory tree.
	IsDir bool

	// SizeBytes is the file size, or zero for directories (directory sizes
	// are computed lazily during packing).
	SizeBytes int64
}

// Base returns the input's base name, shared by all parts of a pack run.
func (it InputItem) Base() string {
	return filepath.Base(it.Path)
}

// resolveInput stats the input path and captures its immutable shape.
func resolveInput(path string) (InputItem, error) {
	path = filepath.Clean(path)
	info, err := os.Stat(path)
	if err != nil {
		return InputItem{}, err
	}
	item := InputItem{Path: path, IsDir: info.IsDir()}
	if !item.IsDir {
		item.SizeBytes = info.Size()
	}
	return item, nil
}

// PartDescriptor identifies one produced part.
type PartDescriptor struct {
	// Index is 1-based; parts order by index ascending.
	Index int `json:"index"`

	// Label is the zero-padded decimal form of Index used in file names.
	Label string `json:"label"`

	// Path is the part's location on disk.
	Path string `json:"path"`

	// SHA256 is the part file's digest, lowercase hex. Empty for
	// ZipThenSplit parts, which are verified implicitly by the final unzip.
	SHA256 string `json:"sha256,omitempty"`
}

// PackResult reports the outcome of a pack operation.
type PackResult struct {
	// PartCount is the number of parts written.
	PartCount int `json:"parts"`

	// PartPaths lists the parts in index order.
	PartPaths []string `json:"outputFiles"`

	// IsDir reports whether the input was a directory.
	IsDir bool `json:"isDir"`

	// BaseName is the input's base name shared by all parts.
	BaseName string `json:"baseName"`

	// Parts describes each part, including digests for SplitThenZip.
	Parts []PartDescriptor `json:"partSha256s,omitempty"`
}

// RestoreSource locates the parts of one pack operation, either as an
// explicit path list or as a directory scan. Construct with ExplicitParts
// or DirectoryScan.
type RestoreSource struct {
	paths []string
	dir   string
	base  string
	scan  bool
}

// ExplicitParts restores from the given part paths. Non-matching names are
// dropped silently; the remaining paths must agree on one base name.
func ExplicitParts(paths ...string) RestoreSource {
	return RestoreSource{paths: paths}
}

// DirectoryScan restores from parts found in dir. When base is empty the
// scan must resolve to a single base name on its own.
func DirectoryScan(dir, base string) RestoreSource {
	return RestoreSource{dir: dir, base: base, scan: true}
}

// RestoreRequest describes one restore operation.
type RestoreRequest struct {
	// Source locates the part set.
	Source RestoreSource

	// Mode must match the mode the parts were packed with.
	Mode PackMode

	// OutputDir receives the merged file and any extracted contents.
	// It is created if missing.
	OutputDir string
}

// RestoreResult reports the outcome of a restore operation.
type RestoreResult struct {
	// MergedFile is the reassembled artifact, or the extracted file when
	// auto-extraction replaced a single-file archive. Empty when extraction
	// produced a directory.
	MergedFile string `json:"mergedFile,omitempty"`

	// ExtractedDir is the directory reproduced by auto-extraction, if any.
	ExtractedDir string `json:"extractedDir,omitempty"`

	// OutputFiles enumerates the user-relevant outputs: the single merged
	// file, or the recursively listed extracted contents.
	OutputFiles []string `json:"outputFiles"`
}
