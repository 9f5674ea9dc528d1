package main

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/ensemble/internal/search"
	"github.com/spf13/cobra"
)

func newSearchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Look up a query with the DuckDuckGo Instant Answer API",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := search.NewClient(a.cfg.Search.Endpoint, nil)
			result, err := client.Search(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), result)
			return err
		},
	}
}
