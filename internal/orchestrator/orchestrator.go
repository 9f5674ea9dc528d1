package orchestrator

import "errors"

// ErrNoResponses is returned when a subtask's fan-out produced nothing to
// rank, so there is no best response to select.
var ErrNoResponses = errors.New("no model responses to rank")

// Role identifies who produced a Turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of a Transcript.
type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// ModelResponse is the raw reply of one model to one prompt. Failed calls
// carry an error sentinel in Text (see ErrorText).
type ModelResponse struct {
	Model string `json:"model"`
	Text  string `json:"text"`
}

// RankedResponse is a ModelResponse scored against the prompt that
// produced it. Score is a cosine similarity rounded to 4 decimal places.
type RankedResponse struct {
	Model string  `json:"model"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Step identifies a phase of a turn.
type Step string

const (
	StepRewrite  Step = "rewrite"
	StepPlan     Step = "plan"
	StepQuery    Step = "query"
	StepRank     Step = "rank"
	StepCritique Step = "critique"
)

// ProgressEvent is emitted while a turn runs.
type ProgressEvent struct {
	Step    Step           `json:"step"`
	Subtask int            `json:"subtask,omitempty"` // 1-based, zero before planning
	Model   string         `json:"model,omitempty"`
	Status  ProgressStatus `json:"status"`
	Message string         `json:"message,omitempty"`
}

// ProgressStatus is the state of a step or of one model call.
type ProgressStatus string

const (
	ProgressPending  ProgressStatus = "pending"
	ProgressWorking  ProgressStatus = "working"
	ProgressComplete ProgressStatus = "complete"
	ProgressFailed   ProgressStatus = "failed"
)
