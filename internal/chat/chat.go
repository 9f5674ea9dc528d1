// Package chat is the conversational surface in front of the orchestrator.
// It keeps the visible history of each conversation and routes every
// message either to a new orchestration run or to the alternate-response
// viewer.
package chat

import (
	"context"
	"strings"
	"sync"

	"github.com/dusk-indust/ensemble/internal/orchestrator"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultConversation is used when a caller supplies no conversation id.
const DefaultConversation = "default"

// ShowMoreCommand asks for the alternates of the previous answer.
const ShowMoreCommand = "show more"

// Title and Description are shown by the agent card and the terminal UI.
const (
	Title       = "🧠 Simple Research Assistant"
	Description = "Ask a question. The assistant rewrites it, splits it into subtasks when needed, " +
		"queries several models in parallel, picks the best answer and improves it after critique. " +
		"Type `show more` to see the other models' responses."
)

// Exchange is one visible message/reply pair.
type Exchange struct {
	Message string `json:"message"`
	Reply   string `json:"reply"`
}

// IsShowMore reports whether message is the show-more command.
func IsShowMore(message string) bool {
	return strings.EqualFold(strings.TrimSpace(message), ShowMoreCommand)
}

// NewConversationID returns a fresh random conversation id.
func NewConversationID() string {
	return uuid.NewString()
}

type conversation struct {
	session *orchestrator.Session

	mu      sync.Mutex
	history []Exchange
}

// Surface maps conversation ids to orchestrator sessions. It is safe for
// concurrent use; turns within one conversation are serialized by its
// session.
type Surface struct {
	pipeline *orchestrator.Pipeline
	logger   *zap.Logger

	mu            sync.Mutex
	conversations map[string]*conversation
}

// Option configures a Surface.
type Option func(*Surface)

// WithLogger sets the surface logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Surface) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewSurface creates a Surface whose sessions share pipeline.
func NewSurface(pipeline *orchestrator.Pipeline, opts ...Option) *Surface {
	s := &Surface{
		pipeline:      pipeline,
		logger:        zap.NewNop(),
		conversations: make(map[string]*conversation),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit handles one user message in conversation id.
func (s *Surface) Submit(ctx context.Context, id, message string) Exchange {
	return s.SubmitWithProgress(ctx, id, message, nil)
}

// SubmitWithProgress is Submit with a progress callback for orchestration
// runs. The callback is never invoked for show-more requests.
func (s *Surface) SubmitWithProgress(ctx context.Context, id, message string, onProgress func(orchestrator.ProgressEvent)) Exchange {
	conv := s.conversation(id)

	var reply string
	if IsShowMore(message) {
		s.logger.Debug("showing alternates", zap.String("conversation", conv.session.ID()))
		reply = conv.session.ShowAlternates()
	} else {
		s.logger.Info("orchestrating turn",
			zap.String("conversation", conv.session.ID()),
			zap.Int("length", len(message)))
		reply = conv.session.RespondWithProgress(ctx, message, onProgress)
	}

	ex := Exchange{Message: message, Reply: reply}
	conv.mu.Lock()
	conv.history = append(conv.history, ex)
	conv.mu.Unlock()
	return ex
}

// History returns a copy of the visible exchanges of conversation id.
func (s *Surface) History(id string) []Exchange {
	conv, ok := s.lookup(id)
	if !ok {
		return nil
	}
	conv.mu.Lock()
	defer conv.mu.Unlock()
	return append([]Exchange(nil), conv.history...)
}

// Clear empties the visible history of conversation id. The session's
// transcript and last ranking are kept, so show more still works.
func (s *Surface) Clear(id string) {
	conv, ok := s.lookup(id)
	if !ok {
		return
	}
	conv.mu.Lock()
	conv.history = nil
	conv.mu.Unlock()
	s.logger.Debug("cleared history", zap.String("conversation", conv.session.ID()))
}

// Session returns the orchestrator session of conversation id, creating
// it if needed.
func (s *Surface) Session(id string) *orchestrator.Session {
	return s.conversation(id).session
}

// Conversations returns the number of known conversations.
func (s *Surface) Conversations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.conversations)
}

func (s *Surface) conversation(id string) *conversation {
	if id == "" {
		id = DefaultConversation
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[id]
	if !ok {
		conv = &conversation{session: s.pipeline.NewSession(id)}
		s.conversations[id] = conv
	}
	return conv
}

func (s *Surface) lookup(id string) (*conversation, bool) {
	if id == "" {
		id = DefaultConversation
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[id]
	return conv, ok
}
