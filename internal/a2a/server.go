package a2a

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"

	"go.uber.org/zap"
)

// ErrTaskNotFound is returned by handlers for unknown task ids. The server
// maps it to ErrCodeTaskNotFound.
var ErrTaskNotFound = errors.New("task not found")

// Handler processes incoming chat requests.
type Handler interface {
	// HandleSendMessage runs one chat turn and returns the finished task.
	HandleSendMessage(ctx context.Context, req SendMessageRequest) (*Task, error)

	// HandleStreamMessage runs one chat turn, reporting progress through
	// emit. emit is safe for concurrent use.
	HandleStreamMessage(ctx context.Context, req SendMessageRequest, emit func(StreamEvent) error) error

	// HandleGetTask returns the current state of a task.
	HandleGetTask(ctx context.Context, req GetTaskRequest) (*Task, error)

	// HandleListTasks returns tasks matching the filter.
	HandleListTasks(ctx context.Context, req ListTasksRequest) (*ListTasksResponse, error)

	// HandleClearConversation resets the visible history of a conversation.
	HandleClearConversation(ctx context.Context, req ClearConversationRequest) (*ClearConversationResponse, error)
}

// Server is the HTTP server that exposes the assistant.
type Server struct {
	card    AgentCard
	handler Handler
	logger  *zap.Logger

	mu       sync.Mutex
	http     *http.Server
	listener net.Listener
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the request logger.
func WithServerLogger(l *zap.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates a server for the given agent.
func NewServer(card AgentCard, handler Handler, opts ...ServerOption) *Server {
	s := &Server{
		card:    card,
		handler: handler,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
