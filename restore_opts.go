package partzip

import "log/slog"

// restoreConfig holds configuration for a restore operation.
type restoreConfig struct {
	password     string
	autoExtract  bool
	keepScratch  bool
	manifestPath string
	progress     ProgressFunc
	logger       *slog.Logger
}

// RestoreOption configures a restore operation.
type RestoreOption func(*restoreConfig)

// RestoreWithPassword decrypts encrypted part entries or archives.
func RestoreWithPassword(password string) RestoreOption {
	return func(cfg *restoreConfig) {
		cfg.password = password
	}
}

// RestoreWithAutoExtract unpacks the merged artifact into the output
// directory when it is itself a zip archive. The intermediate zip is deleted
// only after extraction succeeds.
func RestoreWithAutoExtract(extract bool) RestoreOption {
	return func(cfg *restoreConfig) {
		cfg.autoExtract = extract
	}
}

// RestoreWithKeepScratch retains the scratch directory holding unpacked
// chunk files, for debugging.
func RestoreWithKeepScratch(keep bool) RestoreOption {
	return func(cfg *restoreConfig) {
		cfg.keepScratch = keep
	}
}

// RestoreWithManifest verifies part digests against the given hash manifest
// before reassembly. Without this option, a manifest found beside scanned
// parts is used automatically.
func RestoreWithManifest(path string) RestoreOption {
	return func(cfg *restoreConfig) {
		cfg.manifestPath = path
	}
}

// RestoreWithProgress registers a progress callback. Use Reporter.Func to
// feed a Reporter.
func RestoreWithProgress(fn ProgressFunc) RestoreOption {
	return func(cfg *restoreConfig) {
		cfg.progress = fn
	}
}

// RestoreWithLogger sets the operation logger. A nil logger discards logs.
func RestoreWithLogger(logger *slog.Logger) RestoreOption {
	return func(cfg *restoreConfig) {
		cfg.logger = logger
	}
}
