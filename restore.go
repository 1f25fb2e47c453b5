package partzip

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/partzip/partzip/internal/fileio"
	"github.com/partzip/partzip/internal/zipc"
)

// Restore discovers, validates, and reassembles a part set into the request's
// output directory.
//
// Discovery is driven entirely by part file names; nothing from the
// originating pack run is required. For SplitThenZip, part digests are
// verified against a hash manifest when one is supplied or found beside the
// parts. The context is checked between parts; cancellation leaves no merged
// output behind.
func Restore(ctx context.Context, req RestoreRequest, opts ...RestoreOption) (*RestoreResult, error) {
	cfg := restoreConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := os.MkdirAll(req.OutputDir, 0o750); err != nil {
		return nil, err
	}

	r := &restorer{cfg: cfg, req: req, logger: cfg.logger}
	r.log().Info("restoring", "op", uuid.NewString(), "mode", req.Mode.String(), "output", req.OutputDir)

	parts, base, err := discoverParts(req.Mode, req.Source)
	if err != nil {
		return nil, err
	}
	r.parts = parts
	r.base = base
	r.log().Debug("discovered parts", "base", base, "count", len(parts))

	if req.Mode == SplitThenZip {
		if err := r.verifyManifest(); err != nil {
			return nil, err
		}
	}

	var merged string
	if req.Mode == ZipThenSplit {
		merged, err = r.mergeZipThenSplit(ctx)
	} else {
		merged, err = r.mergeSplitThenZip(ctx)
	}
	if err != nil {
		return nil, err
	}
	return r.finish(ctx, merged)
}

// restorer holds state for one restore operation.
type restorer struct {
	cfg    restoreConfig
	req    RestoreRequest
	logger *slog.Logger
	parts  []partRef
	base   string
}

// log returns the logger, falling back to a discard logger if nil.
func (r *restorer) log() *slog.Logger {
	if r.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r.logger
}

// report sends a progress event if a callback is configured.
func (r *restorer) report(phase Phase, processed, total int64, partIndex, partTotal int, msg string) {
	if r.cfg.progress == nil {
		return
	}
	r.cfg.progress(ProgressEvent{
		Phase:          phase,
		ProcessedBytes: processed,
		TotalBytes:     total,
		PartIndex:      partIndex,
		PartTotal:      partTotal,
		Message:        msg,
	})
}

// verifyManifest checks part digests against the hash manifest, when one is
// available. An explicitly supplied manifest is required to load; an
// auto-discovered one sits beside scanned parts.
func (r *restorer) verifyManifest() error {
	path := r.cfg.manifestPath
	if path == "" && r.req.Source.scan {
		candidate := filepath.Join(r.req.Source.dir, manifestName(r.base))
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		}
	}
	if path == "" {
		return nil
	}
	m, err := ReadManifest(path)
	if err != nil {
		return err
	}
	paths := make([]string, len(r.parts))
	for i, p := range r.parts {
		paths[i] = p.Path
	}
	bad, err := VerifyParts(paths, m.expectedFor(r.parts))
	if err != nil {
		return opErr("restore", PhaseHashing, 0, path, nil, err)
	}
	if len(bad) > 0 {
		return opErr("restore", PhaseHashing, 0, strings.Join(bad, ", "), ErrHashMismatch,
			fmt.Errorf("%d of %d parts failed verification", len(bad), len(r.parts)))
	}
	r.log().Debug("manifest verified", "manifest", path, "parts", len(r.parts))
	return nil
}

// mergeSplitThenZip unpacks every part into a private scratch directory and
// concatenates the chunk files in index order into the final output path.
// The merged name gains a .zip suffix when the payload is itself an archive.
func (r *restorer) mergeSplitThenZip(ctx context.Context) (string, error) {
	scratch, err := os.MkdirTemp("", "partzip-restore-*")
	if err != nil {
		return "", err
	}
	cleanup := func() {
		if !r.cfg.keepScratch {
			os.RemoveAll(scratch)
		}
	}

	// Size pass: every part must hold exactly one chunk entry.
	entries := make([]zipc.Entry, len(r.parts))
	var total int64
	for i, part := range r.parts {
		e, err := zipc.SoleEntry(part.Path, r.cfg.password)
		if err != nil {
			cleanup()
			return "", opErr("restore", PhaseMerging, part.Index, part.Path, ErrCodecFailure, err)
		}
		entries[i] = e
		total += e.Size
	}

	// Unpack pass: wrong passwords surface here, before any output exists.
	var processed int64
	for i, part := range r.parts {
		if err := ctx.Err(); err != nil {
			cleanup()
			return "", err
		}
		if err := zipc.ExtractAll(ctx, part.Path, scratch, r.cfg.password, nil); err != nil {
			cleanup()
			return "", opErr("restore", PhaseMerging, part.Index, part.Path, ErrCodecFailure, err)
		}
		processed += entries[i].Size
		r.report(PhaseMerging, processed, total, part.Index, len(r.parts), fmt.Sprintf("unpacked part %d of %d", part.Index, len(r.parts)))
	}

	// Concatenate chunk files in index order, byte-exact.
	tmp := filepath.Join(r.req.OutputDir, r.base+".merge.tmp")
	if err := r.concatChunks(ctx, tmp, scratch, entries); err != nil {
		os.Remove(tmp)
		cleanup()
		return "", err
	}

	name := r.base
	isZip, err := fileio.IsZipFile(tmp)
	if err != nil {
		os.Remove(tmp)
		cleanup()
		return "", err
	}
	if isZip && !strings.HasSuffix(name, ".zip") {
		name += ".zip"
	}
	final := filepath.Join(r.req.OutputDir, name)
	if err := replaceFile(tmp, final); err != nil {
		os.Remove(tmp)
		cleanup()
		return "", err
	}
	cleanup()
	return final, nil
}

// concatChunks appends the unpacked chunk files to tmp in index order.
func (r *restorer) concatChunks(ctx context.Context, tmp, scratch string, entries []zipc.Entry) error {
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	for i, part := range r.parts {
		if err := ctx.Err(); err != nil {
			out.Close()
			return err
		}
		chunk := filepath.Join(scratch, filepath.FromSlash(entries[i].Name))
		f, err := os.Open(chunk)
		if err != nil {
			out.Close()
			return opErr("restore", PhaseMerging, part.Index, chunk, nil, err)
		}
		copyErr := fileio.CopyN(out, f, entries[i].Size, nil)
		f.Close()
		if copyErr != nil {
			out.Close()
			return opErr("restore", PhaseMerging, part.Index, chunk, nil, copyErr)
		}
	}
	return out.Close()
}

// mergeZipThenSplit concatenates raw part bytes in index order into the
// reassembled archive, overwriting any stale temp file.
func (r *restorer) mergeZipThenSplit(ctx context.Context) (string, error) {
	zipName := r.base + ".zip"
	tmp := filepath.Join(r.req.OutputDir, zipName+".merge.tmp")

	var total int64
	sizes := make([]int64, len(r.parts))
	for i, part := range r.parts {
		info, err := os.Stat(part.Path)
		if err != nil {
			return "", err
		}
		sizes[i] = info.Size()
		total += sizes[i]
	}

	out, err := os.Create(tmp)
	if err != nil {
		return "", err
	}
	var processed int64
	for i, part := range r.parts {
		if err := ctx.Err(); err != nil {
			out.Close()
			os.Remove(tmp)
			return "", err
		}
		f, err := os.Open(part.Path)
		if err != nil {
			out.Close()
			os.Remove(tmp)
			return "", opErr("restore", PhaseMerging, part.Index, part.Path, nil, err)
		}
		copyErr := fileio.CopyN(out, f, sizes[i], nil)
		f.Close()
		if copyErr != nil {
			out.Close()
			os.Remove(tmp)
			return "", opErr("restore", PhaseMerging, part.Index, part.Path, nil, copyErr)
		}
		processed += sizes[i]
		r.report(PhaseMerging, processed, total, part.Index, len(r.parts), fmt.Sprintf("merged part %d of %d", part.Index, len(r.parts)))
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}

	final := filepath.Join(r.req.OutputDir, zipName)
	if err := replaceFile(tmp, final); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return final, nil
}

// finish optionally auto-extracts the merged artifact and shapes the result.
// A failed extraction keeps the merged zip; it is the only successfully
// produced artifact at that point.
func (r *restorer) finish(ctx context.Context, merged string) (*RestoreResult, error) {
	res := &RestoreResult{MergedFile: merged, OutputFiles: []string{merged}}
	if !r.cfg.autoExtract {
		return res, nil
	}
	isZip, err := fileio.IsZipFile(merged)
	if err != nil {
		return nil, err
	}
	if !isZip {
		return res, nil
	}

	entries, err := zipc.List(merged)
	if err != nil {
		return nil, opErr("restore", PhaseExtracting, 0, merged, ErrCodecFailure, err)
	}
	var total int64
	for _, e := range entries {
		if !e.Dir {
			total += e.Size
		}
	}
	var processed int64
	extractErr := zipc.ExtractAll(ctx, merged, r.req.OutputDir, r.cfg.password, func(delta int64) {
		processed += delta
		r.report(PhaseExtracting, processed, total, 0, 0, "extracting "+filepath.Base(merged))
	})
	if extractErr != nil {
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
		return nil, opErr("restore", PhaseExtracting, 0, merged, ErrCodecFailure, extractErr)
	}
	if err := os.Remove(merged); err != nil {
		return nil, err
	}
	return r.extractedResult(entries)
}

// extractedResult derives the result shape from the archive's root entries:
// a single root file is a file-shaped output, anything else is a directory.
func (r *restorer) extractedResult(entries []zipc.Entry) (*RestoreResult, error) {
	type rootInfo struct {
		name string
		dir  bool
	}
	var roots []rootInfo
	seen := make(map[string]int)
	for _, e := range entries {
		seg, rest, _ := strings.Cut(e.Name, "/")
		dir := e.Dir || rest != ""
		if i, ok := seen[seg]; ok {
			roots[i].dir = roots[i].dir || dir
			continue
		}
		seen[seg] = len(roots)
		roots = append(roots, rootInfo{name: seg, dir: dir})
	}

	res := &RestoreResult{}
	if len(roots) == 1 && !roots[0].dir {
		path := filepath.Join(r.req.OutputDir, roots[0].name)
		res.MergedFile = path
		res.OutputFiles = []string{path}
		return res, nil
	}
	if len(roots) == 1 {
		res.ExtractedDir = filepath.Join(r.req.OutputDir, roots[0].name)
	} else {
		res.ExtractedDir = r.req.OutputDir
	}
	files, err := fileio.ListFiles(res.ExtractedDir)
	if err != nil {
		return nil, err
	}
	res.OutputFiles = files
	return res, nil
}

// replaceFile moves src into place at dst, removing any previous artifact
// first so the rename cannot fail on platforms that refuse to overwrite.
func replaceFile(src, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		if err := os.Remove(dst); err != nil {
			return err
		}
	}
	return os.Rename(src, dst)
}
