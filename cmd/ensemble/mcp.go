package main

import (
	"github.com/dusk-indust/ensemble/internal/mcptools"
	"github.com/dusk-indust/ensemble/internal/search"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMCPCmd(a *app) *cobra.Command {
	var httpAddr string

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Run as an MCP server (stdio by default)",
		Long: `Exposes the assistant as MCP tools: ask, show_more, history, clear and
web_search.
The server speaks MCP over stdio unless --http is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			surface, err := a.newSurface(ctx)
			if err != nil {
				return err
			}
			svc := mcptools.NewAssistantService(surface,
				search.NewClient(a.cfg.Search.Endpoint, nil),
				a.logger.Named("mcp"))
			server := mcptools.NewAssistantMCPServer(svc)

			if httpAddr != "" {
				a.logger.Info("serving MCP over HTTP", zap.String("addr", httpAddr))
				return mcptools.RunHTTP(ctx, server, httpAddr)
			}
			return mcptools.RunStdio(ctx, server)
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http", "", "serve streamable HTTP on this address instead of stdio")
	return cmd
}
