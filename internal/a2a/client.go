package a2a

import "context"

// Client is the interface for talking to a running assistant server.
type Client interface {
	// SendMessage sends a chat message and waits for the finished task.
	SendMessage(ctx context.Context, endpoint string, req SendMessageRequest) (*Task, error)

	// StreamMessage sends a chat message and streams progress events. The
	// channel is closed after the final event.
	StreamMessage(ctx context.Context, endpoint string, req SendMessageRequest) (<-chan StreamEvent, error)

	// GetTask retrieves a task by ID.
	GetTask(ctx context.Context, endpoint string, req GetTaskRequest) (*Task, error)

	// ListTasks queries the tasks of a conversation.
	ListTasks(ctx context.Context, endpoint string, req ListTasksRequest) (*ListTasksResponse, error)

	// ClearConversation resets the visible history of a conversation.
	ClearConversation(ctx context.Context, endpoint string, req ClearConversationRequest) (*ClearConversationResponse, error)

	// DiscoverAgent fetches the Agent Card from a well-known URI.
	DiscoverAgent(ctx context.Context, baseURL string) (*AgentCard, error)
}

// StreamEvent is a typed event received from an SSE stream.
type StreamEvent struct {
	// Exactly one of these is set.
	Task           *Task                    `json:"task,omitempty"`
	StatusUpdate   *TaskStatusUpdateEvent   `json:"statusUpdate,omitempty"`
	ArtifactUpdate *TaskArtifactUpdateEvent `json:"artifactUpdate,omitempty"`

	// Error carries a server-side failure that ended the stream.
	Error string `json:"error,omitempty"`

	// Err is set if the stream encountered an error.
	Err error `json:"-"`
}
