package partzip

import "sync"

// Phase identifies the current stage of a pack or restore operation.
type Phase string

// Phases reported during pack and restore operations.
const (
	// PhaseZipping indicates input bytes are being compressed into an
	// intermediate archive.
	PhaseZipping Phase = "zipping"

	// PhaseSplitting indicates chunks are being written out as parts.
	PhaseSplitting Phase = "splitting"

	// PhaseHashing indicates per-part digests are being computed.
	PhaseHashing Phase = "hashing"

	// PhaseMerging indicates parts are being reassembled.
	PhaseMerging Phase = "merging"

	// PhaseExtracting indicates the merged archive is being unpacked.
	PhaseExtracting Phase = "extracting"
)

// ProgressEvent represents a progress update during pack or restore
// operations. ProcessedBytes is monotonically non-decreasing within a phase
// and is tracked against the phase's dominant cost axis: source bytes while
// compressing, output bytes while chunking a prebuilt archive.
type ProgressEvent struct {
	Phase          Phase  `json:"phase"`
	ProcessedBytes int64  `json:"processedBytes"`
	TotalBytes     int64  `json:"totalBytes"`
	PartIndex      int    `json:"partIndex"`
	PartTotal      int    `json:"partTotal"`
	Message        string `json:"message,omitempty"`
}

// ProgressFunc receives progress updates during operations.
// Implementations must be safe for concurrent calls.
type ProgressFunc func(ProgressEvent)

// subscriberBuffer is the per-subscriber channel capacity. A subscriber that
// falls further behind than this skips events instead of blocking the
// operation.
const subscriberBuffer = 64

// Reporter is an ordered broadcast sink for one operation's progress stream.
// The operation goroutine publishes; any number of consumers subscribe.
// Subscribe before starting the operation to observe every event; the only
// replay guarantee is that the latest event stays queryable.
type Reporter struct {
	mu     sync.Mutex
	subs   []chan ProgressEvent
	last   ProgressEvent
	seen   bool
	closed bool
}

// NewReporter returns an empty Reporter.
func NewReporter() *Reporter {
	return &Reporter{}
}

// Subscribe registers a consumer channel. The channel is closed when the
// Reporter is closed.
func (r *Reporter) Subscribe() <-chan ProgressEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch := make(chan ProgressEvent, subscriberBuffer)
	if r.closed {
		close(ch)
		return ch
	}
	r.subs = append(r.subs, ch)
	return ch
}

// Publish delivers ev to all subscribers in emission order and records it as
// the latest event. A full subscriber channel skips the event rather than
// blocking the publisher.
func (r *Reporter) Publish(ev ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.last = ev
	r.seen = true
	for _, ch := range r.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Latest returns the most recently published event, if any.
func (r *Reporter) Latest() (ProgressEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last, r.seen
}

// Close terminates all subscriber streams. Publish becomes a no-op.
func (r *Reporter) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for _, ch := range r.subs {
		close(ch)
	}
	r.subs = nil
}

// Func adapts the Reporter into a ProgressFunc for use with
// PackWithProgress and RestoreWithProgress.
func (r *Reporter) Func() ProgressFunc {
	return r.Publish
}
