package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Transcript is the append-only log of a session's turns.
type Transcript struct {
	turns []Turn
}

// Append adds turn to the end of the transcript.
func (t *Transcript) Append(turn Turn) {
	t.turns = append(t.turns, turn)
}

// Turns returns a copy of the recorded turns.
func (t *Transcript) Turns() []Turn {
	return append([]Turn(nil), t.turns...)
}

// Len returns the number of recorded turns.
func (t *Transcript) Len() int {
	return len(t.turns)
}

// Session owns the state of one conversation: its transcript and the
// ranking of its most recent successful run. Respond and ShowAlternates
// are serialized, so a Session may be shared between goroutines.
type Session struct {
	mu          sync.Mutex
	id          string
	pipeline    *Pipeline
	transcript  Transcript
	lastRanking []RankedResponse
	logger      *zap.Logger
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Respond runs one turn for input and returns the combined answer.
func (s *Session) Respond(ctx context.Context, input string) string {
	return s.RespondWithProgress(ctx, input, nil)
}

// RespondWithProgress is Respond with a progress callback. onProgress may
// be called from several goroutines at once while models are queried.
//
// Failures after the user turn is recorded are returned as a single
// warning line (see FormatError). State already changed by the failed turn
// is kept.
func (s *Session) RespondWithProgress(ctx context.Context, input string, onProgress func(ProgressEvent)) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transcript.Append(Turn{Role: RoleUser, Text: input})

	output, err := s.run(ctx, input, onProgress)
	if err != nil {
		s.logger.Error("turn failed", zap.Error(err))
		return FormatError(err)
	}
	return output
}

func (s *Session) run(ctx context.Context, input string, onProgress func(ProgressEvent)) (string, error) {
	p := s.pipeline
	emit := func(ev ProgressEvent) {
		if onProgress != nil {
			onProgress(ev)
		}
	}

	emit(ProgressEvent{Step: StepRewrite, Status: ProgressWorking})
	rewritten := p.rewriter.Rewrite(ctx, input)
	emit(ProgressEvent{Step: StepRewrite, Status: ProgressComplete, Message: rewritten})

	emit(ProgressEvent{Step: StepPlan, Status: ProgressWorking})
	subtasks := p.planner.Plan(ctx, rewritten)
	emit(ProgressEvent{Step: StepPlan, Status: ProgressComplete, Message: fmt.Sprintf("%d subtask(s)", len(subtasks))})

	s.logger.Debug("planned turn",
		zap.String("rewritten", rewritten),
		zap.Strings("subtasks", subtasks))

	var (
		out      strings.Builder
		combined []RankedResponse
	)
	for i, task := range subtasks {
		n := i + 1
		fanout := NewFanOut(p.backend, func(ev ProgressEvent) {
			ev.Subtask = n
			emit(ev)
		}, s.logger)

		responses := fanout.Query(ctx, task, p.cfg.Models, p.cfg.QueryTokens)

		emit(ProgressEvent{Step: StepRank, Subtask: n, Status: ProgressWorking})
		ranked, err := p.ranker.Rank(ctx, task, responses)
		if err != nil {
			emit(ProgressEvent{Step: StepRank, Subtask: n, Status: ProgressFailed, Message: err.Error()})
			return "", fmt.Errorf("rank task %d: %w", n, err)
		}
		if len(ranked) == 0 {
			emit(ProgressEvent{Step: StepRank, Subtask: n, Status: ProgressFailed, Message: ErrNoResponses.Error()})
			return "", fmt.Errorf("task %d: %w", n, ErrNoResponses)
		}
		combined = append(combined, ranked...)
		top := ranked[0]
		emit(ProgressEvent{Step: StepRank, Subtask: n, Model: top.Model, Status: ProgressComplete})

		emit(ProgressEvent{Step: StepCritique, Subtask: n, Model: top.Model, Status: ProgressWorking})
		final, err := p.critic.Review(ctx, task, top.Text)
		if err != nil {
			emit(ProgressEvent{Step: StepCritique, Subtask: n, Status: ProgressFailed, Message: err.Error()})
			return "", fmt.Errorf("critique task %d: %w", n, err)
		}
		emit(ProgressEvent{Step: StepCritique, Subtask: n, Model: top.Model, Status: ProgressComplete})

		out.WriteString(FormatTaskBlock(n, task, top.Model, final))
	}

	s.lastRanking = combined
	out.WriteString(ShowMoreHint)

	output := out.String()
	s.transcript.Append(Turn{Role: RoleAssistant, Text: output})
	return output, nil
}

// ShowAlternates renders the responses of the last run that were not
// reported as best. It never queries a model.
func (s *Session) ShowAlternates() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return FormatAlternates(s.lastRanking)
}

// Transcript returns a copy of the session's turns.
func (s *Session) Transcript() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.Turns()
}

// LastRanking returns a copy of the combined ranking of the last
// successful run.
func (s *Session) LastRanking() []RankedResponse {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RankedResponse(nil), s.lastRanking...)
}
