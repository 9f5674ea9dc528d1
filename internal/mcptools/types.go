package mcptools

import "github.com/dusk-indust/ensemble/internal/chat"

// --- MCP tool types for the assistant server (ensemble mcp) ---

// AskInput is the input for the ask tool.
type AskInput struct {
	Message        string `json:"message" jsonschema:"the question to ask, or 'show more'"`
	ConversationID string `json:"conversationId,omitempty" jsonschema:"conversation to continue (default: default)"`
}

// AskOutput is the result of the ask tool.
type AskOutput struct {
	ConversationID string `json:"conversationId"`
	Reply          string `json:"reply"`
}

// ShowMoreInput is the input for the show_more tool.
type ShowMoreInput struct {
	ConversationID string `json:"conversationId,omitempty" jsonschema:"conversation whose previous answer to expand (default: default)"`
}

// ShowMoreOutput is the result of the show_more tool.
type ShowMoreOutput struct {
	ConversationID string `json:"conversationId"`
	Reply          string `json:"reply"`
}

// ClearInput is the input for the clear tool.
type ClearInput struct {
	ConversationID string `json:"conversationId,omitempty" jsonschema:"conversation whose visible history to clear (default: default)"`
}

// ClearOutput is the result of the clear tool.
type ClearOutput struct {
	ConversationID string `json:"conversationId"`
	Cleared        bool   `json:"cleared"`
}

// HistoryInput is the input for the history tool.
type HistoryInput struct {
	ConversationID string `json:"conversationId,omitempty" jsonschema:"conversation to read (default: default)"`
}

// HistoryOutput is the result of the history tool, oldest exchange first.
type HistoryOutput struct {
	ConversationID string          `json:"conversationId"`
	Exchanges      []chat.Exchange `json:"exchanges"`
}

// WebSearchInput is the input for the web_search tool.
type WebSearchInput struct {
	Query string `json:"query" jsonschema:"search terms"`
}

// WebSearchOutput is the result of the web_search tool.
type WebSearchOutput struct {
	Query  string `json:"query"`
	Result string `json:"result"`
}
