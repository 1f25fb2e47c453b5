// Package partzip splits large files or directory trees into a sequence of
// bounded-size part archives and reconstitutes them byte-exactly.
//
// Two pack modes are supported:
//   - SplitThenZip: the input is chunked first and every chunk becomes its
//     own zip part ({base}.part-0001.zip, ...). Each part is independently
//     verifiable via its SHA-256 digest.
//   - ZipThenSplit: the input is zipped into a single archive first and the
//     archive's byte stream is chunked into raw parts
//     ({base}.zip.part-0001, ...).
//
// All parts of one pack operation live under {outputDir}/{base}.parts/.
// Restoration re-derives everything from part file names (plus an optional
// hash manifest), so packing and restoring can run in different processes
// or on different machines.
//
// # Quick Start
//
// Split a file into 64 MiB parts:
//
//	res, err := partzip.Pack(ctx, "backup.tar", "out",
//	    partzip.BySize(64<<20), partzip.SplitThenZip)
//
// Reassemble from the parts directory:
//
//	src, err := partzip.ResolveSource("out/backup.tar.parts", partzip.SplitThenZip)
//	if err != nil {
//	    return err
//	}
//	restored, err := partzip.Restore(ctx, partzip.RestoreRequest{
//	    Source:    src,
//	    Mode:      partzip.SplitThenZip,
//	    OutputDir: "restored",
//	})
//
// # Progress
//
// Both operations report progress through a ProgressFunc callback or a
// Reporter, which fans events out to subscriber channels in emission order.
package partzip
