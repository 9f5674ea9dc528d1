package mcptools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dusk-indust/ensemble/internal/chat"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// Searcher looks up a query on the web.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// AssistantService handles MCP tool calls against a chat surface.
type AssistantService struct {
	surface  *chat.Surface
	searcher Searcher
	logger   *zap.Logger
}

// NewAssistantService creates an AssistantService. searcher may be nil, in
// which case web_search fails.
func NewAssistantService(surface *chat.Surface, searcher Searcher, logger *zap.Logger) *AssistantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssistantService{surface: surface, searcher: searcher, logger: logger}
}

// Ask submits a message to a conversation and returns the reply.
func (s *AssistantService) Ask(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if strings.TrimSpace(input.Message) == "" {
		return nil, AskOutput{}, errors.New("message is required")
	}

	id := conversationID(input.ConversationID)
	ex := s.surface.Submit(ctx, id, input.Message)
	return textResult(ex.Reply), AskOutput{ConversationID: id, Reply: ex.Reply}, nil
}

// ShowMore returns the other models' responses to the previous question.
func (s *AssistantService) ShowMore(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ShowMoreInput,
) (*mcp.CallToolResult, ShowMoreOutput, error) {
	id := conversationID(input.ConversationID)
	ex := s.surface.Submit(ctx, id, chat.ShowMoreCommand)
	return textResult(ex.Reply), ShowMoreOutput{ConversationID: id, Reply: ex.Reply}, nil
}

// Clear resets the visible history of a conversation.
func (s *AssistantService) Clear(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input ClearInput,
) (*mcp.CallToolResult, ClearOutput, error) {
	id := conversationID(input.ConversationID)
	s.surface.Clear(id)
	return nil, ClearOutput{ConversationID: id, Cleared: true}, nil
}

// History returns the visible exchanges of a conversation.
func (s *AssistantService) History(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input HistoryInput,
) (*mcp.CallToolResult, HistoryOutput, error) {
	id := conversationID(input.ConversationID)
	exchanges := s.surface.History(id)
	if exchanges == nil {
		exchanges = []chat.Exchange{}
	}

	var b strings.Builder
	for _, ex := range exchanges {
		fmt.Fprintf(&b, "**You:** %s\n\n%s\n\n", ex.Message, ex.Reply)
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		text = "No messages yet."
	}
	return textResult(text), HistoryOutput{ConversationID: id, Exchanges: exchanges}, nil
}

// WebSearch returns the first related topic for a query.
func (s *AssistantService) WebSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input WebSearchInput,
) (*mcp.CallToolResult, WebSearchOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, WebSearchOutput{}, errors.New("query is required")
	}
	if s.searcher == nil {
		return nil, WebSearchOutput{}, errors.New("web search is not configured")
	}

	result, err := s.searcher.Search(ctx, input.Query)
	if err != nil {
		s.logger.Warn("web search failed", zap.String("query", input.Query), zap.Error(err))
		return nil, WebSearchOutput{}, fmt.Errorf("web search: %w", err)
	}
	return textResult(result), WebSearchOutput{Query: input.Query, Result: result}, nil
}

func conversationID(id string) string {
	if id == "" {
		return chat.DefaultConversation
	}
	return id
}

// textResult returns the reply as plain text content; the structured
// output is attached by the SDK.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}
}
