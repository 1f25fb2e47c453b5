package partzip

import "fmt"

// chunkRange is one planned byte-range of the split input.
type chunkRange struct {
	// Index is 1-based and matches the part index the chunk produces.
	Index int

	// Offset is the chunk's start within the input.
	Offset int64

	// Length is the chunk's byte count. Only a zero-byte input yields a
	// zero-length chunk.
	Length int64
}

// planChunks computes ordered, non-overlapping byte-ranges covering
// [0, totalBytes) exactly.
//
// BySize emits full chunks of the target size with the remainder in the last
// chunk; an exact multiple emits no zero-length tail. ByCount distributes the
// remainder over the leading chunks, so the first totalBytes mod n chunks are
// one byte longer than the rest. A zero-byte input yields a single zero-length
// chunk under BySize and n zero-length chunks under ByCount.
func planChunks(totalBytes int64, spec SplitSpec) ([]chunkRange, error) {
	if totalBytes < 0 {
		return nil, fmt.Errorf("%w: negative total %d", ErrInvalidSpec, totalBytes)
	}
	switch spec.kind {
	case splitBySize:
		return planBySize(totalBytes, spec.value)
	case splitByCount:
		return planByCount(totalBytes, spec.value)
	}
	return nil, fmt.Errorf("%w: unknown spec kind", ErrInvalidSpec)
}

func planBySize(total, target int64) ([]chunkRange, error) {
	if target <= 0 {
		return nil, fmt.Errorf("%w: size target %d", ErrInvalidSpec, target)
	}
	if total == 0 {
		return []chunkRange{{Index: 1, Offset: 0, Length: 0}}, nil
	}
	n := total / target
	if total%target != 0 {
		n++
	}
	chunks := make([]chunkRange, 0, n)
	var offset int64
	for i := int64(1); i <= n; i++ {
		length := min(target, total-offset)
		chunks = append(chunks, chunkRange{Index: int(i), Offset: offset, Length: length})
		offset += length
	}
	return chunks, nil
}

func planByCount(total, n int64) ([]chunkRange, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: part count %d", ErrInvalidSpec, n)
	}
	small := total / n
	extra := total % n
	chunks := make([]chunkRange, 0, n)
	var offset int64
	for i := int64(1); i <= n; i++ {
		length := small
		if i <= extra {
			length++
		}
		chunks = append(chunks, chunkRange{Index: int(i), Offset: offset, Length: length})
		offset += length
	}
	return chunks, nil
}
