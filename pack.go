package partzip

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/partzip/partzip/internal/fileio"
	"github.com/partzip/partzip/internal/zipc"
)

// Pack splits the file or directory at inputPath into bounded-size parts
// under {outputDir}/{base}.parts/.
//
// SplitThenZip chunks the input (or its zipped form, for directories) and
// wraps every chunk in its own zip part; each part gets a SHA-256 digest and
// a JSON manifest is written beside the parts. ZipThenSplit zips the whole
// input once and slices the archive into raw parts.
//
// The context is checked between chunks; a canceled operation leaves only
// whole parts behind, never a torn one. Partially written part sets are not
// cleaned up — re-running with PackWithOverwrite replaces them.
func Pack(ctx context.Context, inputPath, outputDir string, spec SplitSpec, mode PackMode, opts ...PackOption) (*PackResult, error) {
	cfg := packConfig{level: DefaultCompressionLevel}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := spec.validate(); err != nil {
		return nil, err
	}
	item, err := resolveInput(inputPath)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outputDir, 0o750); err != nil {
		return nil, err
	}

	p := &packer{cfg: cfg, item: item, outputDir: outputDir, spec: spec, mode: mode}
	p.base = item.Base()
	p.partsDir = filepath.Join(outputDir, p.base+".parts")
	p.logger = cfg.logger
	p.log().Info("packing",
		"op", uuid.NewString(),
		"input", item.Path,
		"mode", mode.String(),
		"spec", spec.String(),
		"dir", item.IsDir,
	)

	if err := p.ensurePartsDir(); err != nil {
		return nil, err
	}
	if mode == ZipThenSplit {
		return p.packZipThenSplit(ctx)
	}
	return p.packSplitThenZip(ctx)
}

// packer holds state for one pack operation.
type packer struct {
	cfg       packConfig
	item      InputItem
	outputDir string
	spec      SplitSpec
	mode      PackMode
	logger    *slog.Logger
	base      string
	partsDir  string
}

// log returns the logger, falling back to a discard logger if nil.
func (p *packer) log() *slog.Logger {
	if p.logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return p.logger
}

// report sends a progress event if a callback is configured.
func (p *packer) report(phase Phase, processed, total int64, partIndex, partTotal int, msg string) {
	if p.cfg.progress == nil {
		return
	}
	p.cfg.progress(ProgressEvent{
		Phase:          phase,
		ProcessedBytes: processed,
		TotalBytes:     total,
		PartIndex:      partIndex,
		PartTotal:      partTotal,
		Message:        msg,
	})
}

// ensurePartsDir creates the parts directory. A non-empty existing
// directory requires overwrite authorization and is then cleared, so old
// and new parts never mix.
func (p *packer) ensurePartsDir() error {
	info, err := os.Stat(p.partsDir)
	switch {
	case err == nil && !info.IsDir():
		return fmt.Errorf("partzip: parts path %s exists and is not a directory", p.partsDir)
	case err == nil:
		empty, err := fileio.DirEmpty(p.partsDir)
		if err != nil {
			return err
		}
		if !empty {
			if !p.cfg.overwrite {
				return opErr("pack", "", 0, p.partsDir, ErrConfirmationRequired, nil)
			}
			if err := os.RemoveAll(p.partsDir); err != nil {
				return err
			}
		}
	case !os.IsNotExist(err):
		return err
	}
	return os.MkdirAll(p.partsDir, 0o750)
}

func (p *packer) packSplitThenZip(ctx context.Context) (*PackResult, error) {
	source := p.item.Path
	partMethod := zipc.Deflate
	if p.item.IsDir {
		blobMethod := zipc.Deflate
		if p.cfg.dirMode == StoreSplitCompress {
			blobMethod = zipc.Store
		} else {
			// Payload is already deflated; wrapping must not recompress.
			partMethod = zipc.Store
		}
		scratch, err := os.MkdirTemp("", "partzip-*")
		if err != nil {
			return nil, err
		}
		defer os.RemoveAll(scratch)
		blob := filepath.Join(scratch, p.base+".zip")
		if err := p.zipDirectory(ctx, blob, blobMethod, ""); err != nil {
			return nil, err
		}
		source = blob
		return p.splitIntoZipParts(ctx, source, partMethod)
	}
	return p.splitIntoZipParts(ctx, source, partMethod)
}

// splitIntoZipParts chunks source and writes each chunk as its own zip part,
// then digests every part and writes the hash manifest.
func (p *packer) splitIntoZipParts(ctx context.Context, source string, partMethod zipc.Method) (*PackResult, error) {
	info, err := os.Stat(source)
	if err != nil {
		return nil, err
	}
	total := info.Size()
	chunks, err := planChunks(total, p.spec)
	if err != nil {
		return nil, err
	}
	p.log().Debug("planned chunks", "count", len(chunks), "total_bytes", total)

	if p.cfg.workers > 1 && len(chunks) > 1 && partMethod == zipc.Deflate {
		err = p.writeZipPartsParallel(ctx, source, partMethod, chunks, total)
	} else {
		err = p.writeZipPartsSequential(ctx, source, partMethod, chunks, total)
	}
	if err != nil {
		return nil, err
	}
	return p.finishSplitThenZip(ctx, chunks)
}

func (p *packer) writeZipPartsSequential(ctx context.Context, source string, m zipc.Method, chunks []chunkRange, total int64) error {
	var processed int64
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.writeZipPart(source, m, c); err != nil {
			return err
		}
		processed += c.Length
		p.report(PhaseSplitting, processed, total, c.Index, len(chunks), fmt.Sprintf("wrote part %d of %d", c.Index, len(chunks)))
	}
	return nil
}

// writeZipPartsParallel compresses independent chunks concurrently. Progress
// stays monotone because events are emitted from completed chunks against a
// shared byte counter.
func (p *packer) writeZipPartsParallel(ctx context.Context, source string, m zipc.Method, chunks []chunkRange, total int64) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.workers)
	var done atomic.Int64
	for _, c := range chunks {
		c := c
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := p.writeZipPart(source, m, c); err != nil {
				return err
			}
			p.report(PhaseSplitting, done.Add(c.Length), total, c.Index, len(chunks), fmt.Sprintf("wrote part %d of %d", c.Index, len(chunks)))
			return nil
		})
	}
	return g.Wait()
}

// writeZipPart wraps one chunk of source as the part archive for c.Index.
func (p *packer) writeZipPart(source string, m zipc.Method, c chunkRange) error {
	partPath := filepath.Join(p.partsDir, partName(SplitThenZip, p.base, c.Index))
	src, err := os.Open(source)
	if err != nil {
		return opErr("pack", PhaseSplitting, c.Index, source, nil, err)
	}
	defer src.Close()

	zw, err := zipc.NewWriter(partPath, p.cfg.level, p.cfg.password)
	if err != nil {
		return opErr("pack", PhaseSplitting, c.Index, partPath, nil, err)
	}
	entry, err := zw.Create(chunkEntryName(p.base, c.Index), m)
	if err != nil {
		zw.Close()
		return opErr("pack", PhaseSplitting, c.Index, partPath, ErrCodecFailure, err)
	}
	sr := io.NewSectionReader(src, c.Offset, c.Length)
	if err := fileio.CopyN(entry, sr, c.Length, nil); err != nil {
		zw.Close()
		return opErr("pack", PhaseSplitting, c.Index, partPath, nil, err)
	}
	if err := zw.Close(); err != nil {
		return opErr("pack", PhaseSplitting, c.Index, partPath, ErrCodecFailure, err)
	}
	return nil
}

// finishSplitThenZip digests every part and writes the hash manifest.
func (p *packer) finishSplitThenZip(ctx context.Context, chunks []chunkRange) (*PackResult, error) {
	res := &PackResult{
		PartCount: len(chunks),
		IsDir:     p.item.IsDir,
		BaseName:  p.base,
	}
	manifest := &Manifest{BaseName: p.base, PackMode: SplitThenZip.String()}
	var hashed int64
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := partName(SplitThenZip, p.base, c.Index)
		path := filepath.Join(p.partsDir, name)
		sum, err := digestFile(path)
		if err != nil {
			return nil, opErr("pack", PhaseHashing, c.Index, path, nil, err)
		}
		if info, err := os.Stat(path); err == nil {
			hashed += info.Size()
		}
		p.report(PhaseHashing, hashed, 0, c.Index, len(chunks), fmt.Sprintf("hashed part %d of %d", c.Index, len(chunks)))

		res.PartPaths = append(res.PartPaths, path)
		res.Parts = append(res.Parts, PartDescriptor{Index: c.Index, Label: partLabel(c.Index), Path: path, SHA256: sum})
		manifest.Parts = append(manifest.Parts, ManifestPart{Name: name, SHA256: sum})
	}
	if err := writeManifest(p.partsDir, manifest); err != nil {
		return nil, opErr("pack", PhaseHashing, 0, p.partsDir, nil, err)
	}
	p.log().Info("pack complete", "parts", res.PartCount)
	return res, nil
}

func (p *packer) packZipThenSplit(ctx context.Context) (*PackResult, error) {
	scratch, err := os.MkdirTemp("", "partzip-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(scratch)

	blob := filepath.Join(scratch, p.base+".zip")
	if p.item.IsDir {
		err = p.zipDirectory(ctx, blob, zipc.Deflate, p.cfg.password)
	} else {
		err = p.zipFile(ctx, blob)
	}
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(blob)
	if err != nil {
		return nil, err
	}
	zipSize := info.Size()
	chunks, err := planChunks(zipSize, p.spec)
	if err != nil {
		return nil, err
	}

	src, err := os.Open(blob)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	res := &PackResult{PartCount: len(chunks), IsDir: p.item.IsDir, BaseName: p.base}
	var processed int64
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := filepath.Join(p.partsDir, partName(ZipThenSplit, p.base, c.Index))
		if err := writeRawPart(path, src, c); err != nil {
			return nil, err
		}
		processed += c.Length
		p.report(PhaseSplitting, processed, zipSize, c.Index, len(chunks), fmt.Sprintf("wrote part %d of %d", c.Index, len(chunks)))
		res.PartPaths = append(res.PartPaths, path)
		res.Parts = append(res.Parts, PartDescriptor{Index: c.Index, Label: partLabel(c.Index), Path: path})
	}
	p.log().Info("pack complete", "parts", res.PartCount)
	return res, nil
}

// writeRawPart copies one chunk of the archive byte stream into a raw part
// file, no re-encoding.
func writeRawPart(path string, src io.ReaderAt, c chunkRange) error {
	out, err := os.Create(path)
	if err != nil {
		return opErr("pack", PhaseSplitting, c.Index, path, nil, err)
	}
	sr := io.NewSectionReader(src, c.Offset, c.Length)
	if err := fileio.CopyN(out, sr, c.Length, nil); err != nil {
		out.Close()
		return opErr("pack", PhaseSplitting, c.Index, path, nil, err)
	}
	if err := out.Close(); err != nil {
		return opErr("pack", PhaseSplitting, c.Index, path, nil, err)
	}
	return nil
}

// zipFile compresses the single input file into blob with one entry named
// after the base.
func (p *packer) zipFile(ctx context.Context, blob string) error {
	zw, err := zipc.NewWriter(blob, p.cfg.level, p.cfg.password)
	if err != nil {
		return opErr("pack", PhaseZipping, 0, blob, nil, err)
	}
	entry, err := zw.Create(p.base, zipc.Deflate)
	if err != nil {
		zw.Close()
		return opErr("pack", PhaseZipping, 0, blob, ErrCodecFailure, err)
	}
	f, err := os.Open(p.item.Path)
	if err != nil {
		zw.Close()
		return opErr("pack", PhaseZipping, 0, p.item.Path, nil, err)
	}
	defer f.Close()

	total := p.item.SizeBytes
	var processed int64
	copyErr := fileio.CopyN(entry, f, total, func(delta int64) {
		processed += delta
		p.report(PhaseZipping, processed, total, 0, 0, "compressing "+p.base)
	})
	if err := ctx.Err(); err != nil {
		zw.Close()
		return err
	}
	if copyErr != nil {
		zw.Close()
		return opErr("pack", PhaseZipping, 0, p.item.Path, nil, copyErr)
	}
	if err := zw.Close(); err != nil {
		return opErr("pack", PhaseZipping, 0, blob, ErrCodecFailure, err)
	}
	return nil
}

// zipDirectory archives the whole directory tree into blob. Entries are
// rooted at the directory's base name and explicit directory entries are
// written so empty directories survive the round trip. Symbolic links are
// not followed.
func (p *packer) zipDirectory(ctx context.Context, blob string, method zipc.Method, password string) error {
	total, err := fileio.DirSize(p.item.Path)
	if err != nil {
		return err
	}
	zw, err := zipc.NewWriter(blob, p.cfg.level, password)
	if err != nil {
		return opErr("pack", PhaseZipping, 0, blob, nil, err)
	}

	var processed int64
	walkErr := filepath.WalkDir(p.item.Path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(p.item.Path, path)
		if err != nil {
			return err
		}
		name := p.base
		if rel != "." {
			name = p.base + "/" + filepath.ToSlash(rel)
		}
		if d.IsDir() {
			if cerr := zw.CreateDir(name); cerr != nil {
				return opErr("pack", PhaseZipping, 0, blob, ErrCodecFailure, cerr)
			}
			return nil
		}
		if !d.Type().IsRegular() {
			p.log().Debug("skipped non-regular file", "path", path)
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		w, err := zw.Create(name, method)
		if err != nil {
			return opErr("pack", PhaseZipping, 0, blob, ErrCodecFailure, err)
		}
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return fileio.CopyN(w, f, info.Size(), func(delta int64) {
			processed += delta
			p.report(PhaseZipping, processed, total, 0, 0, "archiving "+rel)
		})
	})
	if walkErr != nil {
		zw.Close()
		return walkErr
	}
	if err := zw.Close(); err != nil {
		return opErr("pack", PhaseZipping, 0, blob, ErrCodecFailure, err)
	}
	return nil
}
