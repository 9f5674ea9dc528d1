package a2a

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rpcHandler decodes a JSONRPCRequest and writes back the JSONRPCResponse
// built by fn.
func rpcHandler(t *testing.T, fn func(req JSONRPCRequest) JSONRPCResponse) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req JSONRPCRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		assert.Equal(t, JSONRPCVersion, req.JSONRPC)

		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(fn(req)))
	}
}

func TestSendMessage_HappyPath(t *testing.T) {
	handler := &mockHandler{
		sendMessage: func(ctx context.Context, req SendMessageRequest) (*Task, error) {
			assert.Equal(t, "What is Go?", req.Message.Text())
			return &Task{
				ID:        "task-001",
				ContextID: req.Message.ContextID,
				Status:    TaskStatus{State: TaskStateCompleted, Timestamp: time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)},
				Artifacts: []Artifact{{ArtifactID: "art-1", Name: "reply", Parts: []Part{MarkdownPart("Go is a language.")}}},
			}, nil
		},
	}
	baseURL, _ := startTestServer(t, handler, testCard())

	task, err := NewHTTPClient().SendMessage(context.Background(), baseURL, userMessage("conv-1", "What is Go?"))

	require.NoError(t, err)
	assert.Equal(t, "task-001", task.ID)
	assert.Equal(t, "conv-1", task.ContextID)
	assert.Equal(t, "Go is a language.", task.ReplyText())
}

func TestSendMessage_RPCError(t *testing.T) {
	ts := httptest.NewServer(rpcHandler(t, func(req JSONRPCRequest) JSONRPCResponse {
		return JSONRPCResponse{
			JSONRPC: JSONRPCVersion,
			ID:      req.ID,
			Error:   &JSONRPCError{Code: ErrCodeInternal, Message: "backend down", Data: json.RawMessage(`"ollama"`)},
		}
	}))
	defer ts.Close()

	_, err := NewHTTPClient().SendMessage(context.Background(), ts.URL, userMessage("c", "x"))

	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, MethodSendMessage, rpcErr.Method)
	assert.Equal(t, ErrCodeInternal, rpcErr.Code)
	assert.Equal(t, `a2a: message/send: rpc error -32603: backend down (data: "ollama")`, err.Error())
}

func TestGetTask_NotFound(t *testing.T) {
	handler := &mockHandler{
		getTask: func(ctx context.Context, req GetTaskRequest) (*Task, error) {
			return nil, ErrTaskNotFound
		},
	}
	baseURL, _ := startTestServer(t, handler, testCard())

	_, err := NewHTTPClient().GetTask(context.Background(), baseURL, GetTaskRequest{ID: "nope"})

	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, ErrCodeTaskNotFound, rpcErr.Code)
}

func TestListTasks(t *testing.T) {
	handler := &mockHandler{
		listTasks: func(ctx context.Context, req ListTasksRequest) (*ListTasksResponse, error) {
			assert.Equal(t, "conv-9", req.ContextID)
			assert.Equal(t, 10, req.PageSize)
			return &ListTasksResponse{Tasks: []Task{{ID: "t1", ContextID: "conv-9"}}, TotalSize: 1}, nil
		},
	}
	baseURL, _ := startTestServer(t, handler, testCard())

	resp, err := NewHTTPClient().ListTasks(context.Background(), baseURL, ListTasksRequest{ContextID: "conv-9", PageSize: 10})

	require.NoError(t, err)
	assert.Equal(t, 1, resp.TotalSize)
	assert.Equal(t, "t1", resp.Tasks[0].ID)
}

func TestClearConversation(t *testing.T) {
	handler := &mockHandler{
		clear: func(ctx context.Context, req ClearConversationRequest) (*ClearConversationResponse, error) {
			return &ClearConversationResponse{ContextID: req.ContextID, Cleared: true}, nil
		},
	}
	baseURL, _ := startTestServer(t, handler, testCard())

	resp, err := NewHTTPClient().ClearConversation(context.Background(), baseURL, ClearConversationRequest{ContextID: "conv-3"})

	require.NoError(t, err)
	assert.Equal(t, &ClearConversationResponse{ContextID: "conv-3", Cleared: true}, resp)
}

func TestStreamMessage(t *testing.T) {
	handler := &mockHandler{
		streamMessage: func(ctx context.Context, req SendMessageRequest, emit func(StreamEvent) error) error {
			for _, state := range []TaskState{TaskStateSubmitted, TaskStateWorking} {
				if err := emit(StreamEvent{StatusUpdate: &TaskStatusUpdateEvent{TaskID: "t", Status: TaskStatus{State: state}}}); err != nil {
					return err
				}
			}
			return emit(StreamEvent{Task: &Task{ID: "t", ContextID: req.Message.ContextID, Status: TaskStatus{State: TaskStateCompleted}}})
		},
	}
	baseURL, _ := startTestServer(t, handler, testCard())

	ch, err := NewHTTPClient().StreamMessage(context.Background(), baseURL, userMessage("conv-s", "hi"))
	require.NoError(t, err)

	var states []TaskState
	for ev := range ch {
		require.NoError(t, ev.Err)
		switch {
		case ev.StatusUpdate != nil:
			states = append(states, ev.StatusUpdate.Status.State)
		case ev.Task != nil:
			states = append(states, ev.Task.Status.State)
			assert.Equal(t, "conv-s", ev.Task.ContextID)
		}
	}
	assert.Equal(t, []TaskState{TaskStateSubmitted, TaskStateWorking, TaskStateCompleted}, states)
}

func TestStreamMessage_IgnoresClientTimeout(t *testing.T) {
	handler := &mockHandler{
		streamMessage: func(ctx context.Context, req SendMessageRequest, emit func(StreamEvent) error) error {
			time.Sleep(150 * time.Millisecond)
			return emit(StreamEvent{Task: &Task{ID: "slow"}})
		},
	}
	baseURL, _ := startTestServer(t, handler, testCard())

	ch, err := NewHTTPClient(WithTimeout(50*time.Millisecond)).StreamMessage(context.Background(), baseURL, userMessage("c", "x"))
	require.NoError(t, err)

	ev := <-ch
	require.NoError(t, ev.Err)
	require.NotNil(t, ev.Task)
	assert.Equal(t, "slow", ev.Task.ID)
	for range ch {
	}
}

func TestStreamMessage_RejectedBeforeStreaming(t *testing.T) {
	ts := httptest.NewServer(rpcHandler(t, func(req JSONRPCRequest) JSONRPCResponse {
		return JSONRPCResponse{JSONRPC: JSONRPCVersion, ID: req.ID, Error: &JSONRPCError{Code: ErrCodeInvalidParams, Message: "Invalid params"}}
	}))
	defer ts.Close()

	_, err := NewHTTPClient().StreamMessage(context.Background(), ts.URL, userMessage("c", "x"))

	var rpcErr *RPCError
	require.True(t, errors.As(err, &rpcErr))
	assert.Equal(t, ErrCodeInvalidParams, rpcErr.Code)
	assert.Equal(t, MethodStreamMessage, rpcErr.Method)
}

func TestDiscoverAgent(t *testing.T) {
	card := testCard()
	baseURL, _ := startTestServer(t, &mockHandler{}, card)

	for _, url := range []string{baseURL, baseURL + "/"} {
		got, err := NewHTTPClient().DiscoverAgent(context.Background(), url)
		require.NoError(t, err)
		assert.Equal(t, card.Name, got.Name)
		assert.True(t, got.Capabilities.Streaming)
	}
}

func TestDiscoverAgent_Non200(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("not found"))
	}))
	defer ts.Close()

	_, err := NewHTTPClient().DiscoverAgent(context.Background(), ts.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 404")
}

func TestContextTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewHTTPClient().SendMessage(ctx, ts.URL, userMessage("c", "x"))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNon200HTTPStatus(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer ts.Close()

	_, err := NewHTTPClient().GetTask(context.Background(), ts.URL, GetTaskRequest{ID: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 502")

	var rpcErr *RPCError
	assert.False(t, errors.As(err, &rpcErr), "transport errors are not RPC errors")
}

func TestRequestIDsIncrease(t *testing.T) {
	var (
		mu  sync.Mutex
		ids []float64
	)
	ts := httptest.NewServer(rpcHandler(t, func(req JSONRPCRequest) JSONRPCResponse {
		mu.Lock()
		ids = append(ids, req.ID.(float64))
		mu.Unlock()
		return JSONRPCResponse{JSONRPC: JSONRPCVersion, ID: req.ID, Result: json.RawMessage(`{}`)}
	}))
	defer ts.Close()

	c := NewHTTPClient()
	for i := 0; i < 3; i++ {
		_, err := c.GetTask(context.Background(), ts.URL, GetTaskRequest{ID: "x"})
		require.NoError(t, err)
	}
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []float64{1, 2, 3}, ids)
}
