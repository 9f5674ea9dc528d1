package mcptools

import (
	"context"
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewAssistantMCPServer creates an MCP server with the assistant tools
// registered: ask, show_more, history, clear and web_search.
func NewAssistantMCPServer(svc *AssistantService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "ensemble",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "ask",
		Description: "Ask the research assistant a question. The question is rewritten, split into subtasks when needed, sent to several models in parallel, and the best answer is critiqued and improved. Sending 'show more' behaves like show_more.",
	}, svc.Ask)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "show_more",
		Description: "Show the responses of the other models to the previous question of a conversation, ranked by similarity to the question.",
	}, svc.ShowMore)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "history",
		Description: "List the visible exchanges of a conversation, oldest first.",
	}, svc.History)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "clear",
		Description: "Clear the visible history of a conversation. The previous answer's alternates stay available through show_more.",
	}, svc.Clear)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "web_search",
		Description: "Look up a query with the DuckDuckGo Instant Answer API and return the first related topic.",
	}, svc.WebSearch)

	return server
}

// RunStdio runs the MCP server on stdio transport, blocking until stdin is
// closed or the context is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the MCP server over streamable HTTP on addr until ctx is
// cancelled.
func RunHTTP(ctx context.Context, server *mcp.Server, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Shutdown gracefully when context is cancelled.
	go func() {
		<-ctx.Done()
		_ = httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
