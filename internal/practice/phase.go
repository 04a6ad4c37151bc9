package practice

// Phase enumerates the states of a practice session.
type Phase string

const (
	PhaseIdle      Phase = "IDLE"
	PhaseRunning   Phase = "RUNNING"
	PhasePaused    Phase = "PAUSED"
	PhaseExpired   Phase = "EXPIRED"
	PhaseSubmitted Phase = "SUBMITTED"
	PhaseReviewed  Phase = "REVIEWED"
)

// Active reports whether answers may still be recorded in this phase.
func (p Phase) Active() bool {
	return p == PhaseRunning || p == PhasePaused
}

// Finished reports whether a result summary is available in this phase.
func (p Phase) Finished() bool {
	return p == PhaseSubmitted || p == PhaseReviewed
}
