package partzip

import "log/slog"

// DefaultCompressionLevel is used when no PackWithCompressionLevel option
// is set.
const DefaultCompressionLevel = 6

// packConfig holds configuration for a pack operation.
type packConfig struct {
	password  string
	level     int
	dirMode   DirSplitMode
	overwrite bool
	workers   int
	progress  ProgressFunc
	logger    *slog.Logger
}

// PackOption configures a pack operation.
type PackOption func(*packConfig)

// PackWithPassword AES-256 encrypts part payloads (SplitThenZip) or the
// whole archive (ZipThenSplit). An empty password disables encryption.
func PackWithPassword(password string) PackOption {
	return func(cfg *packConfig) {
		cfg.password = password
	}
}

// PackWithCompressionLevel sets the deflate level, clamped to [1, 9].
// The default is DefaultCompressionLevel.
func PackWithCompressionLevel(level int) PackOption {
	return func(cfg *packConfig) {
		if level < 1 {
			level = 1
		}
		if level > 9 {
			level = 9
		}
		cfg.level = level
	}
}

// PackWithDirSplitMode selects the directory strategy for SplitThenZip.
// The default is CompressSplitStore.
func PackWithDirSplitMode(m DirSplitMode) PackOption {
	return func(cfg *packConfig) {
		cfg.dirMode = m
	}
}

// PackWithOverwrite authorizes clearing a non-empty parts directory.
// Without it, packing into one fails with ErrConfirmationRequired.
func PackWithOverwrite(overwrite bool) PackOption {
	return func(cfg *packConfig) {
		cfg.overwrite = overwrite
	}
}

// PackWithWorkers enables concurrent part compression where parts are
// independent (file input under SplitThenZip, and deflate-wrapped directory
// chunks). Values below two keep the default sequential behavior.
func PackWithWorkers(n int) PackOption {
	return func(cfg *packConfig) {
		cfg.workers = n
	}
}

// PackWithProgress registers a progress callback. Use Reporter.Func to feed
// a Reporter.
func PackWithProgress(fn ProgressFunc) PackOption {
	return func(cfg *packConfig) {
		cfg.progress = fn
	}
}

// PackWithLogger sets the operation logger. A nil logger discards logs.
func PackWithLogger(logger *slog.Logger) PackOption {
	return func(cfg *packConfig) {
		cfg.logger = logger
	}
}
