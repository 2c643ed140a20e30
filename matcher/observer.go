package matcher

// Stage is a non-terminal state of a run
type Stage int

const (
	StageIdle Stage = iota
	StageExtractingQuery
	StageScanning
	StageDispatchingBatches
	StageAwaitingCompletion
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageExtractingQuery:
		return "extracting_query"
	case StageScanning:
		return "scanning"
	case StageDispatchingBatches:
		return "dispatching_batches"
	case StageAwaitingCompletion:
		return "awaiting_completion"
	default:
		return "unknown"
	}
}

// Observer receives progress of a run. Implementations must be safe for
// concurrent use: OnCandidate is called from worker goroutines.
type Observer interface {
	OnStage(stage Stage)
	// OnCandidate is called once per candidate whose processing finished
	OnCandidate(done, total int)
	// OnFinish is called exactly once with the final outcome
	OnFinish(out *Outcome)
}

type nopObserver struct{}

func (nopObserver) OnStage(Stage)        {}
func (nopObserver) OnCandidate(int, int) {}
func (nopObserver) OnFinish(*Outcome)    {}
