package agent

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/dusk-indust/ensemble/internal/a2a"
	"github.com/dusk-indust/ensemble/internal/chat"
	"github.com/dusk-indust/ensemble/internal/orchestrator"
	"go.uber.org/zap"
)

// ErrEmptyMessage is returned for messages without text.
var ErrEmptyMessage = errors.New("message has no text")

// ReplyArtifactName names the artifact that carries the chat reply.
const ReplyArtifactName = "reply"

// AssistantAgent answers chat messages through a chat.Surface. The A2A
// context id is the conversation id.
type AssistantAgent struct {
	*BaseAgent
	surface *chat.Surface
	logger  *zap.Logger
}

// NewAssistantAgent creates an assistant serving surface under card.
func NewAssistantAgent(card a2a.AgentCard, surface *chat.Surface, opts ...Option) *AssistantAgent {
	a := &AssistantAgent{surface: surface}
	opts = append([]Option{WithClearFunc(surface.Clear)}, opts...)
	a.BaseAgent = NewBaseAgent(card, a.process, opts...)
	a.logger = a.BaseAgent.logger
	return a
}

// AssistantCard describes the assistant served at url.
func AssistantCard(url, version string) a2a.AgentCard {
	return a2a.AgentCard{
		Name:        chat.Title,
		Description: chat.Description,
		Version:     version,
		Interfaces: []a2a.AgentInterface{{
			URL:             url,
			ProtocolBinding: "JSONRPC",
			ProtocolVersion: "1.0",
		}},
		Capabilities:       a2a.AgentCapabilities{Streaming: true},
		DefaultInputModes:  []string{"text/plain"},
		DefaultOutputModes: []string{"text/markdown"},
		Skills: []a2a.AgentSkill{
			{
				ID:          SkillAsk,
				Name:        "Ask",
				Description: "Answers a question with the best of several models, improved after critique.",
				Tags:        []string{"research", "ensemble"},
				Examples:    []string{"What are the advantages of Go over Rust?"},
			},
			{
				ID:          SkillShowMore,
				Name:        "Show more",
				Description: "Shows the other models' responses to the previous question.",
				Tags:        []string{"research"},
				Examples:    []string{chat.ShowMoreCommand},
			},
		},
	}
}

// process submits the message to the conversation and returns the reply
// as a markdown artifact. Orchestrator progress becomes working status
// updates carrying the event in their metadata.
func (a *AssistantAgent) process(ctx context.Context, task *a2a.Task, msg a2a.Message, report Reporter) ([]a2a.Artifact, error) {
	text := msg.Text()
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}

	onProgress := func(ev orchestrator.ProgressEvent) {
		metadata, err := json.Marshal(ev)
		if err != nil {
			a.logger.Debug("marshal progress", zap.Error(err))
			metadata = nil
		}
		report(a2a.TaskStatus{
			State: a2a.TaskStateWorking,
			Message: &a2a.Message{
				MessageID: a2a.NewTaskID(),
				ContextID: task.ContextID,
				TaskID:    task.ID,
				Role:      a2a.RoleAgent,
				Parts:     []a2a.Part{a2a.TextPart(orchestrator.FormatProgress(ev))},
			},
			Timestamp: time.Now(),
		}, metadata)
	}

	ex := a.surface.SubmitWithProgress(ctx, task.ContextID, text, onProgress)
	return []a2a.Artifact{{
		ArtifactID: a2a.NewTaskID(),
		Name:       ReplyArtifactName,
		Parts:      []a2a.Part{a2a.MarkdownPart(ex.Reply)},
	}}, nil
}
