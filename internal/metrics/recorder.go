package metrics

import "time"

// FileOutcome enumerates per-file scan outcomes for counters.
type FileOutcome string

const (
	FileScanned  FileOutcome = "scanned"
	FileFailed   FileOutcome = "failed"
	FileCanceled FileOutcome = "canceled"
)

// Recorder defines observability hooks for scans and link resolution.
// Labels are plain strings so callers do not drag their types in here.
type Recorder interface {
	IncLinkResult(status, strategy string)
	IncFileOutcome(outcome FileOutcome)
	ObserveFileDuration(d time.Duration)
	ObserveBatchDuration(d time.Duration)
	IncCacheLookup(hit bool)
	IncEventPublished(success bool)
	SetWatchedDirectories(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncLinkResult(string, string)       {}
func (NoopRecorder) IncFileOutcome(FileOutcome)         {}
func (NoopRecorder) ObserveFileDuration(time.Duration)  {}
func (NoopRecorder) ObserveBatchDuration(time.Duration) {}
func (NoopRecorder) IncCacheLookup(bool)                {}
func (NoopRecorder) IncEventPublished(bool)             {}
func (NoopRecorder) SetWatchedDirectories(int)          {}

// OrNoop returns r, or NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
