package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dusk-indust/ensemble/internal/a2a"
	"github.com/dusk-indust/ensemble/internal/orchestrator"
	"github.com/spf13/cobra"
)

// stderr receives progress lines and notices; stdout only carries replies.
var stderr io.Writer = os.Stderr

type askOptions struct {
	conversation string
	remote       string
	quiet        bool
}

func newAskCmd(a *app) *cobra.Command {
	var opts askOptions

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask one question and print the answer",
		Long: `Runs one chat turn and prints the markdown reply. With --remote the
question is sent to a running "ensemble serve" and progress is streamed
from it.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			question := strings.Join(args, " ")
			if opts.remote != "" {
				return askRemote(cmd.Context(), cmd.OutOrStdout(), opts, question)
			}
			return a.askLocal(cmd.Context(), cmd.OutOrStdout(), opts, question)
		},
	}
	cmd.Flags().StringVar(&opts.conversation, "conversation", "", "conversation id")
	cmd.Flags().StringVar(&opts.remote, "remote", "", "URL of a running ensemble server")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "do not print progress")
	return cmd
}

func (a *app) askLocal(ctx context.Context, out io.Writer, opts askOptions, question string) error {
	surface, err := a.newSurface(ctx)
	if err != nil {
		return err
	}

	var onProgress func(orchestrator.ProgressEvent)
	if !opts.quiet {
		reporter := orchestrator.NewProgressReporter()
		done := make(chan struct{})
		go func() {
			defer close(done)
			for ev := range reporter.Subscribe() {
				fmt.Fprintln(stderr, orchestrator.FormatProgress(ev))
			}
		}()
		defer func() {
			reporter.Close()
			<-done
		}()
		onProgress = reporter.Emit
	}

	ex := surface.SubmitWithProgress(ctx, opts.conversation, question, onProgress)
	_, err = fmt.Fprintln(out, ex.Reply)
	return err
}

func askRemote(ctx context.Context, out io.Writer, opts askOptions, question string) error {
	client := a2a.NewHTTPClient()
	events, err := client.StreamMessage(ctx, opts.remote, a2a.SendMessageRequest{Message: a2a.Message{
		MessageID: a2a.NewTaskID(),
		ContextID: opts.conversation,
		Role:      a2a.RoleUser,
		Parts:     []a2a.Part{a2a.TextPart(question)},
	}})
	if err != nil {
		return err
	}

	var reply strings.Builder
	for ev := range events {
		switch {
		case ev.Err != nil:
			return ev.Err
		case ev.Task != nil && !opts.quiet:
			fmt.Fprintf(stderr, "conversation %s\n", ev.Task.ContextID)
		case ev.ArtifactUpdate != nil:
			for _, p := range ev.ArtifactUpdate.Artifact.Parts {
				reply.WriteString(p.Text)
			}
		case ev.StatusUpdate != nil:
			st := ev.StatusUpdate.Status
			if st.State == a2a.TaskStateFailed && st.Message != nil {
				return fmt.Errorf("remote: %s", st.Message.Text())
			}
			if !opts.quiet && st.Message != nil {
				fmt.Fprintln(stderr, st.Message.Text())
			}
		}
	}
	_, err = fmt.Fprintln(out, reply.String())
	return err
}
