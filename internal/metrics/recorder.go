package metrics

// Cause enumerates why a countdown phase ended.
type Cause string

const (
	CauseNatural    Cause = "natural"
	CauseSkipped    Cause = "skipped"
	CauseReconciled Cause = "reconciled"
)

// Recorder defines observability hooks for countdown consumers.
type Recorder interface {
	IncPhaseCompleted(widget, phase string, cause Cause)
	AddFocusMinutes(minutes int)
	IncPersistFailure(widget, store string)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncPhaseCompleted(string, string, Cause) {}
func (NoopRecorder) AddFocusMinutes(int)                     {}
func (NoopRecorder) IncPersistFailure(string, string)        {}
