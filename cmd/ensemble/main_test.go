package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dusk-indust/ensemble/internal/agent"
	"github.com/dusk-indust/ensemble/internal/chat"
	"github.com/dusk-indust/ensemble/internal/orchestrator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ollamaStub answers every chat with "<model> answer" (rewrites echo the
// prompt) and every embedding with the same vector.
func ollamaStub(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/chat":
			var req struct {
				Model    string `json:"model"`
				Messages []struct {
					Content string `json:"content"`
				} `json:"messages"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			prompt := req.Messages[0].Content
			reply := req.Model + " answer"
			switch {
			case strings.HasPrefix(prompt, "Rewrite this prompt for clarity:\n"):
				reply = strings.TrimPrefix(prompt, "Rewrite this prompt for clarity:\n")
			case strings.HasPrefix(prompt, "Evaluate this answer:"):
				reply = "Accurate."
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"message": map[string]string{"role": "assistant", "content": reply}})
		case "/api/embeddings":
			_ = json.NewEncoder(w).Encode(map[string]any{"embedding": []float32{1, 0}})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeConfig(t *testing.T, yml string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ensemble.yml"), []byte(yml), 0o644))
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	stderr = io.Discard
	t.Cleanup(func() { stderr = os.Stderr })

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, version+"\n", out)
}

func TestSetup_InvalidConfig(t *testing.T) {
	dir := writeConfig(t, "backend:\n  provider: bogus\n")

	_, err := execute(t, "--config-dir", dir, "search", "golang")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported backend provider")
}

func TestSearchCmd(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query().Get("q")
		_, _ = io.WriteString(w, `{"RelatedTopics":[{"Text":"Go is a programming language."}]}`)
	}))
	defer srv.Close()
	dir := writeConfig(t, "search:\n  endpoint: "+srv.URL+"\n")

	out, err := execute(t, "--config-dir", dir, "search", "go", "language")
	require.NoError(t, err)
	assert.Equal(t, "go language", query)
	assert.Equal(t, "Go is a programming language.\n", out)
}

func TestAskCmd_Local(t *testing.T) {
	srv := ollamaStub(t)
	dir := writeConfig(t, "backend:\n  endpoint: "+srv.URL+"\nembedding:\n  endpoint: "+srv.URL+"\n")

	out, err := execute(t, "--config-dir", dir, "--models", "tinyllama,phi3", "ask", "What", "is", "Go?")
	require.NoError(t, err)
	assert.Contains(t, out, "### 🔹 Task 1: `What is Go?`\n**Best Model:** `tinyllama`")
	assert.Contains(t, out, "Want to see more responses?")
}

// stubBackend answers every fan-out prompt with the model name.
type stubBackend struct{}

func (stubBackend) Chat(_ context.Context, model, prompt string, _ int) (string, error) {
	if strings.HasPrefix(prompt, "Evaluate this answer:") {
		return "Accurate.", nil
	}
	return model + " answer", nil
}

func (stubBackend) Name() string { return "stub" }

type stubEngine struct{}

func (stubEngine) Embed(context.Context, string) ([]float32, error) { return []float32{1, 0}, nil }

func (stubEngine) Name() string { return "stub" }

func TestAskCmd_Remote(t *testing.T) {
	cfg := orchestrator.DefaultConfig()
	cfg.Models = []string{"phi3"}
	surface := chat.NewSurface(orchestrator.NewPipeline(cfg, stubBackend{}, stubEngine{}))
	assistant := agent.NewAssistantAgent(agent.AssistantCard("http://127.0.0.1:0", "test"), surface)
	require.NoError(t, assistant.Start(context.Background(), "127.0.0.1:0"))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = assistant.Stop(ctx)
	})

	out, err := execute(t, "--config-dir", t.TempDir(), "ask", "--remote", "http://"+assistant.Addr(), "--conversation", "conv-9", "What is Go?")
	require.NoError(t, err)
	assert.Contains(t, out, "**Best Model:** `phi3`")
	assert.Len(t, surface.History("conv-9"), 1)
}
