package main

import (
	"context"

	"github.com/dusk-indust/ensemble/internal/tui"
	"github.com/spf13/cobra"
)

type chatOptions struct {
	conversation string
	style        string
}

func newChatCmd(a *app) *cobra.Command {
	var opts chatOptions

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start the interactive terminal chat",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runChat(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringVar(&opts.conversation, "conversation", "", "conversation id")
	cmd.Flags().StringVar(&opts.style, "style", "auto", "markdown style: auto, dark, light, notty")
	return cmd
}

func (a *app) runChat(ctx context.Context, opts chatOptions) error {
	surface, err := a.newSurface(ctx)
	if err != nil {
		return err
	}
	return tui.Run(ctx, surface,
		tui.WithConversation(opts.conversation),
		tui.WithMarkdownStyle(opts.style))
}
