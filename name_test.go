package partzip

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartNameRoundTrip(t *testing.T) {
	bases := []string{"backup.tar", "video.mp4", "archive", "data set.bin", "nested.name.gz"}
	indexes := []int{1, 2, 9, 99, 9999, 10000, 123456}
	for _, mode := range []PackMode{SplitThenZip, ZipThenSplit} {
		for _, base := range bases {
			for _, index := range indexes {
				name := partName(mode, base, index)
				m, ok := parsePartName(mode, name)
				require.True(t, ok, "parse %q", name)
				assert.Equal(t, base, m.Base)
				assert.Equal(t, index, m.Index)
				assert.Equal(t, name, nameOf(m, mode))
			}
		}
	}
}

func TestPartNameFormat(t *testing.T) {
	assert.Equal(t, "file.bin.part-0001.zip", partName(SplitThenZip, "file.bin", 1))
	assert.Equal(t, "file.bin.part-0042.zip", partName(SplitThenZip, "file.bin", 42))
	assert.Equal(t, "dirname.zip.part-0001", partName(ZipThenSplit, "dirname", 1))
	// width grows naturally past 9999
	assert.Equal(t, "file.part-10001.zip", partName(SplitThenZip, "file", 10001))
	assert.Equal(t, "file.part-0007", chunkEntryName("file", 7))
}

func TestParsePartNameRejects(t *testing.T) {
	tests := []struct {
		name string
		mode PackMode
		in   string
	}{
		{"wrong mode suffix", SplitThenZip, "file.zip.part-0001"},
		{"wrong mode prefix", ZipThenSplit, "file.part-0001.zip"},
		{"no digits", SplitThenZip, "file.part-.zip"},
		{"letters in label", SplitThenZip, "file.part-00a1.zip"},
		{"empty base", SplitThenZip, ".part-0001.zip"},
		{"index zero", SplitThenZip, "file.part-0000.zip"},
		{"plain file", SplitThenZip, "file.zip"},
		{"manifest sidecar", SplitThenZip, "file.manifest.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := parsePartName(tt.mode, tt.in)
			assert.False(t, ok)
		})
	}
}

func TestParsePartNameLabelValue(t *testing.T) {
	// Labels round-trip through their numeric value, not their padding.
	m, ok := parsePartName(SplitThenZip, "file.part-000012.zip")
	require.True(t, ok)
	assert.Equal(t, 12, m.Index)
	assert.Equal(t, "000012", m.Label)
	assert.Equal(t, fmt.Sprintf("file.part-%s.zip", m.Label), nameOf(m, SplitThenZip))
}
