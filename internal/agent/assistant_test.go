package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dusk-indust/ensemble/internal/a2a"
	"github.com/dusk-indust/ensemble/internal/chat"
	"github.com/dusk-indust/ensemble/internal/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoBackend answers fan-out prompts with the model name and accepts
// every critique.
type echoBackend struct {
	queries atomic.Int32
}

func (b *echoBackend) Chat(_ context.Context, model, prompt string, _ int) (string, error) {
	switch {
	case strings.HasPrefix(prompt, "Rewrite this prompt for clarity:"):
		return strings.TrimPrefix(prompt, "Rewrite this prompt for clarity:\n"), nil
	case strings.HasPrefix(prompt, "Evaluate this answer:"):
		return "Accurate.", nil
	}
	b.queries.Add(1)
	return fmt.Sprintf("%s answers", model), nil
}

func (b *echoBackend) Name() string { return "echo" }

// constEngine embeds every text as the same vector.
type constEngine struct{}

func (constEngine) Embed(context.Context, string) ([]float32, error) { return []float32{1, 0}, nil }

func (constEngine) Name() string { return "const" }

func newTestAssistant(t *testing.T) (*AssistantAgent, *chat.Surface, *echoBackend) {
	t.Helper()
	cfg := orchestrator.DefaultConfig()
	cfg.Models = []string{"tinyllama", "phi3"}
	backend := &echoBackend{}
	surface := chat.NewSurface(orchestrator.NewPipeline(cfg, backend, constEngine{}))
	return NewAssistantAgent(AssistantCard("http://127.0.0.1:7860", "test"), surface), surface, backend
}

func userMessage(contextID, text string) a2a.Message {
	return a2a.Message{
		MessageID: a2a.NewTaskID(),
		ContextID: contextID,
		Role:      a2a.RoleUser,
		Parts:     []a2a.Part{a2a.TextPart(text)},
	}
}

func TestAssistantCard(t *testing.T) {
	card := AssistantCard("http://localhost:7860", "1.2.3")

	assert.Equal(t, chat.Title, card.Name)
	assert.Equal(t, "1.2.3", card.Version)
	assert.True(t, card.Capabilities.Streaming)
	require.Len(t, card.Interfaces, 1)
	assert.Equal(t, "http://localhost:7860", card.Interfaces[0].URL)

	var ids []string
	for _, s := range card.Skills {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{SkillAsk, SkillShowMore}, ids)
}

func TestAssistant_SendMessage(t *testing.T) {
	agent, surface, backend := newTestAssistant(t)

	task, err := agent.HandleSendMessage(context.Background(), a2a.SendMessageRequest{Message: userMessage("conv-1", "What is Go?")})
	require.NoError(t, err)

	assert.Equal(t, a2a.TaskStateCompleted, task.Status.State)
	require.Len(t, task.Artifacts, 1)
	assert.Equal(t, ReplyArtifactName, task.Artifacts[0].Name)
	assert.Equal(t, "text/markdown", task.Artifacts[0].Parts[0].MediaType)

	reply := task.ReplyText()
	assert.Contains(t, reply, "### 🔹 Task 1: `What is Go?`")
	assert.True(t, strings.HasSuffix(reply, orchestrator.ShowMoreHint))
	assert.Equal(t, int32(2), backend.queries.Load())

	history := surface.History("conv-1")
	require.Len(t, history, 1)
	assert.Equal(t, reply, history[0].Reply)
}

func TestAssistant_ShowMoreUsesSameConversation(t *testing.T) {
	agent, _, backend := newTestAssistant(t)
	ctx := context.Background()

	_, err := agent.HandleSendMessage(ctx, a2a.SendMessageRequest{Message: userMessage("conv-1", "What is Go?")})
	require.NoError(t, err)

	more, err := agent.HandleSendMessage(ctx, a2a.SendMessageRequest{Message: userMessage("conv-1", "show more")})
	require.NoError(t, err)
	assert.Contains(t, more.ReplyText(), "**📚 Other Model Responses:**")
	assert.Equal(t, int32(2), backend.queries.Load(), "show more must not query models")

	other, err := agent.HandleSendMessage(ctx, a2a.SendMessageRequest{Message: userMessage("conv-2", "show more")})
	require.NoError(t, err)
	assert.Equal(t, orchestrator.NoResultsMessage, other.ReplyText())
}

func TestAssistant_EmptyMessageFails(t *testing.T) {
	agent, _, backend := newTestAssistant(t)

	task, err := agent.HandleSendMessage(context.Background(), a2a.SendMessageRequest{Message: userMessage("conv-1", "   ")})

	assert.ErrorIs(t, err, ErrEmptyMessage)
	require.NotNil(t, task)
	assert.Equal(t, a2a.TaskStateFailed, task.Status.State)
	assert.Zero(t, backend.queries.Load())
}

func TestAssistant_StreamReportsProgress(t *testing.T) {
	agent, _, _ := newTestAssistant(t)
	rec := &recorder{}

	err := agent.HandleStreamMessage(context.Background(), a2a.SendMessageRequest{Message: userMessage("conv-1", "What is Go?")}, rec.emit)
	require.NoError(t, err)

	var (
		queried []string
		reply   string
		final   *a2a.TaskStatusUpdateEvent
	)
	for _, ev := range rec.all() {
		switch {
		case ev.ArtifactUpdate != nil:
			reply = ev.ArtifactUpdate.Artifact.Parts[0].Text
		case ev.StatusUpdate != nil && ev.StatusUpdate.Final:
			final = ev.StatusUpdate
		case ev.StatusUpdate != nil && len(ev.StatusUpdate.Metadata) > 0:
			var progress orchestrator.ProgressEvent
			require.NoError(t, json.Unmarshal(ev.StatusUpdate.Metadata, &progress))
			assert.Equal(t, orchestrator.FormatProgress(progress), ev.StatusUpdate.Status.Message.Text())
			if progress.Step == orchestrator.StepQuery && progress.Status == orchestrator.ProgressComplete {
				queried = append(queried, progress.Model)
			}
		}
	}

	assert.ElementsMatch(t, []string{"tinyllama", "phi3"}, queried)
	assert.Contains(t, reply, "### 🔹 Task 1")
	require.NotNil(t, final)
	assert.Equal(t, a2a.TaskStateCompleted, final.Status.State)
}

func TestAssistant_ClearKeepsRanking(t *testing.T) {
	agent, surface, _ := newTestAssistant(t)
	ctx := context.Background()

	_, err := agent.HandleSendMessage(ctx, a2a.SendMessageRequest{Message: userMessage("conv-1", "What is Go?")})
	require.NoError(t, err)

	resp, err := agent.HandleClearConversation(ctx, a2a.ClearConversationRequest{ContextID: "conv-1"})
	require.NoError(t, err)
	assert.True(t, resp.Cleared)
	assert.Empty(t, surface.History("conv-1"))

	list, err := agent.HandleListTasks(ctx, a2a.ListTasksRequest{ContextID: "conv-1"})
	require.NoError(t, err)
	assert.Empty(t, list.Tasks, "cleared turns are no longer listed")

	more, err := agent.HandleSendMessage(ctx, a2a.SendMessageRequest{Message: userMessage("conv-1", "show more")})
	require.NoError(t, err)
	assert.NotEqual(t, orchestrator.NoResultsMessage, more.ReplyText())

	list, err = agent.HandleListTasks(ctx, a2a.ListTasksRequest{ContextID: "conv-1"})
	require.NoError(t, err)
	require.Len(t, list.Tasks, 1)
	assert.Equal(t, more.ID, list.Tasks[0].ID)
}

func TestAssistant_OverHTTP(t *testing.T) {
	agent, _, _ := newTestAssistant(t)
	ctx := context.Background()

	require.NoError(t, agent.Start(ctx, "127.0.0.1:0"))
	t.Cleanup(func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = agent.Stop(stopCtx)
	})
	baseURL := "http://" + agent.Addr()
	client := a2a.NewHTTPClient()

	card, err := client.DiscoverAgent(ctx, baseURL)
	require.NoError(t, err)
	assert.Equal(t, chat.Title, card.Name)

	ch, err := client.StreamMessage(ctx, baseURL, a2a.SendMessageRequest{Message: userMessage("conv-http", "What is Go?")})
	require.NoError(t, err)

	var taskID, reply string
	for ev := range ch {
		require.NoError(t, ev.Err)
		if ev.Task != nil {
			taskID = ev.Task.ID
		}
		if ev.ArtifactUpdate != nil {
			reply = ev.ArtifactUpdate.Artifact.Parts[0].Text
		}
	}
	require.NotEmpty(t, taskID)

	task, err := client.GetTask(ctx, baseURL, a2a.GetTaskRequest{ID: taskID})
	require.NoError(t, err)
	assert.Equal(t, a2a.TaskStateCompleted, task.Status.State)
	assert.Equal(t, reply, task.ReplyText())

	list, err := client.ListTasks(ctx, baseURL, a2a.ListTasksRequest{ContextID: "conv-http"})
	require.NoError(t, err)
	assert.Equal(t, 1, list.TotalSize)
}
