package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dusk-indust/ensemble/internal/a2a"
	"go.uber.org/zap"
)

// Compile-time interface checks.
var (
	_ Agent       = (*BaseAgent)(nil)
	_ a2a.Handler = (*BaseAgent)(nil)
)

// Reporter publishes an intermediate working status while a task runs.
// metadata may be nil.
type Reporter func(status a2a.TaskStatus, metadata json.RawMessage)

// ProcessFunc handles one incoming message. It receives the task in
// WORKING state and returns the artifacts to attach to the completed task.
// report is never nil and is safe for concurrent use.
type ProcessFunc func(ctx context.Context, task *a2a.Task, msg a2a.Message, report Reporter) ([]a2a.Artifact, error)

// BaseAgent drives the task lifecycle around a ProcessFunc. It composes an
// A2A server and task store and implements both Agent and a2a.Handler.
type BaseAgent struct {
	server  *a2a.Server
	store   *a2a.TaskStore
	card    a2a.AgentCard
	process ProcessFunc
	clear   func(contextID string)
	logger  *zap.Logger
}

// Option configures a BaseAgent.
type Option func(*BaseAgent)

// WithLogger sets the agent logger. The HTTP server logs through it too.
func WithLogger(l *zap.Logger) Option {
	return func(b *BaseAgent) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithClearFunc sets the function that resets a conversation's visible
// history on conversation/clear.
func WithClearFunc(fn func(contextID string)) Option {
	return func(b *BaseAgent) {
		b.clear = fn
	}
}

// NewBaseAgent creates a BaseAgent with the given card and process function.
func NewBaseAgent(card a2a.AgentCard, process ProcessFunc, opts ...Option) *BaseAgent {
	b := &BaseAgent{
		store:   a2a.NewTaskStore(),
		card:    card,
		process: process,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.server = a2a.NewServer(card, b, a2a.WithServerLogger(b.logger.Named("http")))
	return b
}

// Card returns the agent's A2A Agent Card.
func (b *BaseAgent) Card() a2a.AgentCard {
	return b.card
}

// HandleTask processes an A2A task with a message and returns the completed task.
func (b *BaseAgent) HandleTask(ctx context.Context, task a2a.Task, msg a2a.Message) (*a2a.Task, error) {
	return b.run(ctx, task, msg, nil)
}

// run moves task through submitted, working and a terminal state. When emit
// is non-nil every transition is also sent as a stream event.
func (b *BaseAgent) run(ctx context.Context, task a2a.Task, msg a2a.Message, emit func(a2a.StreamEvent) error) (*a2a.Task, error) {
	send := func(ev a2a.StreamEvent) {
		if emit == nil {
			return
		}
		if err := emit(ev); err != nil {
			b.logger.Debug("dropped stream event", zap.String("task", task.ID), zap.Error(err))
		}
	}
	status := func(state a2a.TaskState, final bool, message *a2a.Message, metadata json.RawMessage) {
		send(a2a.StreamEvent{StatusUpdate: &a2a.TaskStatusUpdateEvent{
			TaskID:    task.ID,
			ContextID: task.ContextID,
			Status:    a2a.TaskStatus{State: state, Message: message, Timestamp: time.Now()},
			Final:     final,
			Metadata:  metadata,
		}})
	}

	task.Status = a2a.TaskStatus{
		State:     a2a.TaskStateSubmitted,
		Timestamp: time.Now(),
	}
	task.History = append(task.History, msg)
	if err := b.store.Create(task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	if emit != nil {
		submitted, err := b.store.Get(task.ID)
		if err == nil {
			send(a2a.StreamEvent{Task: submitted})
		}
	}

	if err := b.store.Update(task.ID, func(t *a2a.Task) {
		t.Status = a2a.TaskStatus{
			State:     a2a.TaskStateWorking,
			Timestamp: time.Now(),
		}
	}); err != nil {
		return nil, fmt.Errorf("update task to working: %w", err)
	}
	status(a2a.TaskStateWorking, false, nil, nil)

	report := func(st a2a.TaskStatus, metadata json.RawMessage) {
		status(a2a.TaskStateWorking, false, st.Message, metadata)
	}

	working := task
	working.Status = a2a.TaskStatus{State: a2a.TaskStateWorking, Timestamp: time.Now()}
	artifacts, err := b.process(ctx, &working, msg, report)
	if err != nil {
		b.logger.Warn("task failed", zap.String("task", task.ID), zap.Error(err))
		failure := &a2a.Message{
			MessageID: a2a.NewTaskID(),
			ContextID: task.ContextID,
			TaskID:    task.ID,
			Role:      a2a.RoleAgent,
			Parts:     []a2a.Part{a2a.TextPart(err.Error())},
		}
		_ = b.store.Update(task.ID, func(t *a2a.Task) {
			t.Status = a2a.TaskStatus{
				State:     a2a.TaskStateFailed,
				Timestamp: time.Now(),
				Message:   failure,
			}
		})
		status(a2a.TaskStateFailed, true, failure, nil)
		result, _ := b.store.Get(task.ID)
		return result, err
	}

	if err := b.store.Update(task.ID, func(t *a2a.Task) {
		t.Status = a2a.TaskStatus{
			State:     a2a.TaskStateCompleted,
			Timestamp: time.Now(),
		}
		t.Artifacts = artifacts
	}); err != nil {
		return nil, fmt.Errorf("update task to completed: %w", err)
	}
	for i, a := range artifacts {
		send(a2a.StreamEvent{ArtifactUpdate: &a2a.TaskArtifactUpdateEvent{
			TaskID:    task.ID,
			ContextID: task.ContextID,
			Artifact:  a,
			LastChunk: i == len(artifacts)-1,
		}})
	}
	status(a2a.TaskStateCompleted, true, nil, nil)

	return b.store.Get(task.ID)
}

// Start launches the agent's HTTP server on the given address.
func (b *BaseAgent) Start(ctx context.Context, addr string) error {
	return b.server.Start(ctx, addr)
}

// Addr returns the address the server is bound to.
func (b *BaseAgent) Addr() string {
	return b.server.Addr()
}

// Stop gracefully shuts down the agent.
func (b *BaseAgent) Stop(ctx context.Context) error {
	return b.server.Stop(ctx)
}

// --- a2a.Handler implementation ---

// HandleSendMessage creates a task from the incoming message and processes it.
func (b *BaseAgent) HandleSendMessage(ctx context.Context, req a2a.SendMessageRequest) (*a2a.Task, error) {
	return b.HandleTask(ctx, b.newTask(req.Message), req.Message)
}

// HandleStreamMessage processes the message like HandleSendMessage and
// streams every status change. A failed task is reported in the stream
// rather than as an error.
func (b *BaseAgent) HandleStreamMessage(ctx context.Context, req a2a.SendMessageRequest, emit func(a2a.StreamEvent) error) error {
	result, err := b.run(ctx, b.newTask(req.Message), req.Message, emit)
	if result == nil {
		return err
	}
	return nil
}

// HandleGetTask retrieves a task by ID from the store.
func (b *BaseAgent) HandleGetTask(_ context.Context, req a2a.GetTaskRequest) (*a2a.Task, error) {
	return b.store.Get(req.ID)
}

// HandleListTasks returns tasks matching the filter.
func (b *BaseAgent) HandleListTasks(_ context.Context, req a2a.ListTasksRequest) (*a2a.ListTasksResponse, error) {
	return b.store.List(req)
}

// HandleClearConversation resets the visible history of a conversation:
// its finished tasks leave the store, so tasks/list no longer shows them,
// and the clear function, if any, runs. Cleared reports whether anything
// was reset.
func (b *BaseAgent) HandleClearConversation(_ context.Context, req a2a.ClearConversationRequest) (*a2a.ClearConversationResponse, error) {
	removed := b.store.ClearConversation(req.ContextID)
	if b.clear != nil {
		b.clear(req.ContextID)
	}
	b.logger.Debug("cleared conversation",
		zap.String("context", req.ContextID),
		zap.Int("tasks", removed))
	return &a2a.ClearConversationResponse{
		ContextID: req.ContextID,
		Cleared:   removed > 0 || b.clear != nil,
	}, nil
}

// newTask allocates a task for msg. An empty context id starts a new
// conversation.
func (b *BaseAgent) newTask(msg a2a.Message) a2a.Task {
	contextID := msg.ContextID
	if contextID == "" {
		contextID = a2a.NewTaskID()
	}
	return a2a.Task{
		ID:        a2a.NewTaskID(),
		ContextID: contextID,
	}
}
