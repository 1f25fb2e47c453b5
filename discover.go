package partzip

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// partRef is a discovered part: its parsed name plus on-disk location.
type partRef struct {
	partMatch
	Path string
}

// selectPartNames is the pure discovery core: given a set of file names, it
// keeps those matching the mode's pattern (and base, when non-empty), orders
// them by numeric index, and enforces that they agree on a single base name.
// Non-matching names are dropped silently.
func selectPartNames(mode PackMode, names []string, base string) ([]partMatch, error) {
	var matches []partMatch
	for _, name := range names {
		m, ok := parsePartName(mode, name)
		if !ok {
			continue
		}
		if base != "" && m.Base != base {
			continue
		}
		matches = append(matches, m)
	}
	if len(matches) == 0 {
		return nil, ErrNoPartsFound
	}
	for _, m := range matches[1:] {
		if m.Base != matches[0].Base {
			return nil, fmt.Errorf("%w: %q vs %q", ErrInconsistentBase, matches[0].Base, m.Base)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Index < matches[j].Index })
	return matches, nil
}

// checkContiguity enforces that sorted part indexes are exactly 1..n.
// A gap means a part is silently missing and reassembly would produce
// corrupted output.
func checkContiguity(parts []partRef) error {
	for i, p := range parts {
		if p.Index != i+1 {
			return fmt.Errorf("%w: expected part %d, found %d", ErrMissingPart, i+1, p.Index)
		}
	}
	return nil
}

// discoverParts resolves a RestoreSource into an ordered, contiguous part
// set and the base name shared by all parts.
func discoverParts(mode PackMode, src RestoreSource) ([]partRef, string, error) {
	if src.scan {
		return scanDirectory(mode, src.dir, src.base)
	}
	return matchExplicit(mode, src.paths)
}

func matchExplicit(mode PackMode, paths []string) ([]partRef, string, error) {
	var refs []partRef
	names := make(map[string]string, len(paths))
	for _, p := range paths {
		names[filepath.Base(p)] = p
	}
	ordered := make([]string, 0, len(paths))
	for _, p := range paths {
		ordered = append(ordered, filepath.Base(p))
	}
	matches, err := selectPartNames(mode, ordered, "")
	if err != nil {
		return nil, "", err
	}
	for _, m := range matches {
		refs = append(refs, partRef{partMatch: m, Path: names[nameOf(m, mode)]})
	}
	if err := checkContiguity(refs); err != nil {
		return nil, "", err
	}
	return refs, matches[0].Base, nil
}

// nameOf reconstructs the original file name from a parsed match, keeping
// the label exactly as it appeared on disk.
func nameOf(m partMatch, mode PackMode) string {
	if mode == ZipThenSplit {
		return m.Base + ".zip.part-" + m.Label
	}
	return m.Base + ".part-" + m.Label + ".zip"
}

func scanDirectory(mode PackMode, dir, base string) ([]partRef, string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, "", err
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	matches, err := selectPartNames(mode, names, base)
	if err != nil {
		return nil, "", err
	}
	refs := make([]partRef, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, partRef{partMatch: m, Path: filepath.Join(dir, nameOf(m, mode))})
	}
	if err := checkContiguity(refs); err != nil {
		return nil, "", err
	}
	return refs, matches[0].Base, nil
}

// ResolveSource maps a user-facing input path to a RestoreSource: a part
// file resolves to a scan of its directory filtered to the part's base
// name, a directory resolves to an unfiltered scan.
func ResolveSource(inputPath string, mode PackMode) (RestoreSource, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return RestoreSource{}, err
	}
	if info.IsDir() {
		return DirectoryScan(inputPath, ""), nil
	}
	m, ok := parsePartName(mode, filepath.Base(inputPath))
	if !ok {
		return RestoreSource{}, fmt.Errorf("%w: %s does not match the %s part pattern", ErrNoPartsFound, inputPath, mode)
	}
	return DirectoryScan(filepath.Dir(inputPath), m.Base), nil
}
