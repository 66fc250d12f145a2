package enums

// RunPhase is the run-level stage of a composition run.
type RunPhase string

const (
	RunPhaseCollecting RunPhase = "collecting"
	RunPhaseGenerating RunPhase = "generating"
	RunPhaseReviewing  RunPhase = "reviewing"
	RunPhasePublishing RunPhase = "publishing"
	RunPhaseDone       RunPhase = "done"
)

// String returns the literal string for the phase.
func (r RunPhase) String() string {
	return string(r)
}
