package main

import (
	"context"
	"fmt"
	"time"

	"github.com/dusk-indust/ensemble/internal/agent"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(a *app) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the assistant over HTTP (JSON-RPC and SSE)",
		Long: `Starts the chat server. Clients send messages with message/send or
message/stream, read past turns with tasks/get and tasks/list, and reset a
conversation's visible history with conversation/clear. The agent card is
served at /.well-known/agent-card.json.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if listen != "" {
				a.cfg.Listen = listen
			}
			return a.serve(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides the config file)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	surface, err := a.newSurface(ctx)
	if err != nil {
		return err
	}

	card := agent.AssistantCard("http://"+a.cfg.Listen, version)
	assistant := agent.NewAssistantAgent(card, surface, agent.WithLogger(a.logger.Named("agent")))
	if err := assistant.Start(ctx, a.cfg.Listen); err != nil {
		return err
	}
	fmt.Fprintf(stderr, "%s listening on http://%s\n", card.Name, assistant.Addr())

	<-ctx.Done()
	a.logger.Info("shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := assistant.Stop(stopCtx); err != nil {
		a.logger.Warn("shutdown", zap.Error(err))
		return err
	}
	return nil
}
