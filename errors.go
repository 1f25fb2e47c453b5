package partzip

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSpec is returned when a split spec is out of range.
	ErrInvalidSpec = errors.New("partzip: invalid split spec")

	// ErrNoPartsFound is returned when discovery matches no part files.
	ErrNoPartsFound = errors.New("partzip: no parts found")

	// ErrInconsistentBase is returned when discovered parts disagree on
	// their base name.
	ErrInconsistentBase = errors.New("partzip: inconsistent base name")

	// ErrMissingPart is returned when the discovered part indexes have a gap.
	ErrMissingPart = errors.New("partzip: missing part")

	// ErrConfirmationRequired is returned when the parts directory already
	// holds files and overwriting was not authorized. Callers can re-prompt
	// and retry with overwrite enabled.
	ErrConfirmationRequired = errors.New("partzip: parts directory not empty, overwrite not authorized")

	// ErrCodecFailure is returned when an archive cannot be read or written,
	// including wrong-password decryption failures.
	ErrCodecFailure = errors.New("partzip: archive codec failure")

	// ErrHashMismatch is returned when a part's digest does not match the
	// manifest entry.
	ErrHashMismatch = errors.New("partzip: part hash mismatch")
)

// OpError describes a pack or restore failure with enough context to
// diagnose which phase and part it occurred in.
type OpError struct {
	// Op is "pack" or "restore".
	Op string

	// Phase is the operation phase at the time of failure.
	Phase Phase

	// PartIndex is the 1-based part being processed, or 0 when the failure
	// is not tied to a specific part.
	PartIndex int

	// Path is the file the failure relates to, if any.
	Path string

	// Kind is the taxonomy sentinel (ErrCodecFailure, ErrHashMismatch, ...)
	// or nil for plain I/O failures.
	Kind error

	// Err is the underlying cause.
	Err error
}

func (e *OpError) Error() string {
	msg := fmt.Sprintf("partzip: %s", e.Op)
	if e.Phase != "" {
		msg += " " + string(e.Phase)
	}
	if e.PartIndex > 0 {
		msg += fmt.Sprintf(" part %d", e.PartIndex)
	}
	if e.Path != "" {
		msg += " " + e.Path
	}
	switch {
	case e.Err != nil:
		return msg + ": " + e.Err.Error()
	case e.Kind != nil:
		return msg + ": " + e.Kind.Error()
	}
	return msg
}

func (e *OpError) Unwrap() error { return e.Err }

// Is reports whether target matches this error's taxonomy sentinel, so
// errors.Is(err, ErrCodecFailure) works without unwrapping the cause chain.
func (e *OpError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

func opErr(op string, phase Phase, part int, path string, kind, err error) *OpError {
	return &OpError{Op: op, Phase: phase, PartIndex: part, Path: path, Kind: kind, Err: err}
}
