package websocket

import "github.com/stemsi/englishgpt-practice/internal/practice"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionStart  Action = "start"
	ActionPause  Action = "pause"
	ActionResume Action = "resume"
	ActionAnswer Action = "answer"
	ActionSubmit Action = "submit"
	ActionReset  Action = "reset"
	ActionReview Action = "review"
	ActionSelect Action = "select"
	ActionNext   Action = "next"
	ActionPing   Action = "ping"
)

// RequestPayload is every client message. Fields beyond Action are only
// read by the actions that need them.
type RequestPayload struct {
	Action        Action `json:"action"`
	QuestionIndex *int   `json:"question_index,omitempty"`
	OptionIndex   *int   `json:"option_index,omitempty"`
	Category      string `json:"category,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventState  Event = "state"
	EventTick   Event = "tick"
	EventGraded Event = "graded"
	EventError  Event = "error"
	EventPong   Event = "pong"
)

// StateResponse carries the session snapshot after a command or tick.
type StateResponse struct {
	Event Event             `json:"event"`
	State practice.Snapshot `json:"state"`
}

// GradedResponse is sent once when the session is graded.
type GradedResponse struct {
	Event  Event                  `json:"event"`
	State  practice.Snapshot      `json:"state"`
	Result practice.ResultSummary `json:"result"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}

// FromRunnerEvent maps a session event onto its wire message.
func FromRunnerEvent(ev practice.Event) any {
	switch ev.Type {
	case practice.EventGraded:
		if ev.Result != nil {
			return GradedResponse{Event: EventGraded, State: ev.Snapshot, Result: *ev.Result}
		}
		return StateResponse{Event: EventState, State: ev.Snapshot}
	case practice.EventTick:
		return StateResponse{Event: EventTick, State: ev.Snapshot}
	default:
		return StateResponse{Event: EventState, State: ev.Snapshot}
	}
}
