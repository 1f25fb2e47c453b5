package partzip

import (
	"fmt"
	"regexp"
	"strconv"
)

// partLabelWidth is the minimum zero-padded width of part labels.
// Indexes beyond 9999 grow the label naturally.
const partLabelWidth = 4

var (
	splitThenZipPattern = regexp.MustCompile(`^(.*)\.part-(\d+)\.zip$`)
	zipThenSplitPattern = regexp.MustCompile(`^(.*)\.zip\.part-(\d+)$`)
)

// partLabel formats a 1-based part index as its file-name label.
func partLabel(index int) string {
	return fmt.Sprintf("%0*d", partLabelWidth, index)
}

// partName builds the deterministic part file name for a base and index:
// {base}.part-{label}.zip under SplitThenZip, {base}.zip.part-{label} under
// ZipThenSplit.
func partName(mode PackMode, base string, index int) string {
	if mode == ZipThenSplit {
		return fmt.Sprintf("%s.zip.part-%s", base, partLabel(index))
	}
	return fmt.Sprintf("%s.part-%s.zip", base, partLabel(index))
}

// chunkEntryName is the name of the single chunk entry stored inside a
// SplitThenZip part archive: the part name without its .zip suffix.
func chunkEntryName(base string, index int) string {
	return fmt.Sprintf("%s.part-%s", base, partLabel(index))
}

// partMatch is a parsed part file name.
type partMatch struct {
	Base  string
	Index int
	Label string
}

// parsePartName inverts partName for the given mode. It reports false for
// names that do not follow the mode's pattern, have an empty base, or carry
// an index below one.
func parsePartName(mode PackMode, name string) (partMatch, bool) {
	pattern := splitThenZipPattern
	if mode == ZipThenSplit {
		pattern = zipThenSplitPattern
	}
	m := pattern.FindStringSubmatch(name)
	if m == nil || m[1] == "" {
		return partMatch{}, false
	}
	index, err := strconv.Atoi(m[2])
	if err != nil || index < 1 {
		return partMatch{}, false
	}
	return partMatch{Base: m[1], Index: index, Label: m[2]}, true
}
