// Package agent serves the chat surface as an A2A agent.
package agent

import (
	"context"

	"github.com/dusk-indust/ensemble/internal/a2a"
)

// Agent is an A2A agent with its own HTTP server.
type Agent interface {
	// Card returns the agent's A2A Agent Card.
	Card() a2a.AgentCard

	// HandleTask processes an A2A task and returns the completed task.
	HandleTask(ctx context.Context, task a2a.Task, msg a2a.Message) (*a2a.Task, error)

	// Start launches the agent's HTTP server on the given address.
	Start(ctx context.Context, addr string) error

	// Addr returns the bound address once started.
	Addr() string

	// Stop gracefully shuts down the agent.
	Stop(ctx context.Context) error
}

// Skill ids advertised by the assistant card.
const (
	SkillAsk      = "ask"
	SkillShowMore = "show_more"
)
