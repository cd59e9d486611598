package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"relcut/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past publish runs",
	}

	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))

	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent publish runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *history.Store) error {
				runs, err := store.List(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, runs)
				}
				if len(runs) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No publish runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						strconv.FormatInt(run.ID, 10),
						run.TagName,
						run.Channel,
						string(run.Status),
						run.CreatedAt.Local().Format(time.DateTime),
					})
				}
				out := renderTable([]string{"ID", "Tag", "Channel", "Status", "Created"}, rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft})
				fmt.Fprintln(cmd.OutOrStdout(), out)
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit runs as JSON")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <tag|id>",
		Short: "Show the newest publish run for a tag, or a run by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *history.Store) error {
				run, err := lookupRun(cmd, store, args[0])
				if err != nil {
					return err
				}
				if run == nil {
					return fmt.Errorf("no publish run found for %q", args[0])
				}
				if asJSON {
					return writeJSON(cmd, run)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run #%d\n", run.ID)
				fmt.Fprintf(out, "Tag:      %s (%s)\n", run.TagName, run.Channel)
				fmt.Fprintf(out, "Status:   %s\n", run.Status)
				fmt.Fprintf(out, "Created:  %s\n", run.CreatedAt.Local().Format(time.DateTime))
				fmt.Fprintf(out, "Updated:  %s\n", run.UpdatedAt.Local().Format(time.DateTime))
				if run.PublishedAt != nil {
					fmt.Fprintf(out, "Published: %s\n", run.PublishedAt.Local().Format(time.DateTime))
				}
				if run.NotifiedAt != nil {
					fmt.Fprintf(out, "Notified: %s\n", run.NotifiedAt.Local().Format(time.DateTime))
				}
				if run.ReleaseURL != "" {
					fmt.Fprintf(out, "Release:  %s\n", run.ReleaseURL)
				}
				if run.ErrorMessage != "" {
					fmt.Fprintf(out, "Error:    %s\n", run.ErrorMessage)
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the run as JSON")
	return cmd
}

func lookupRun(cmd *cobra.Command, store *history.Store, key string) (*history.Run, error) {
	if id, err := strconv.ParseInt(key, 10, 64); err == nil {
		return store.GetByID(cmd.Context(), id)
	}
	return store.GetByTag(cmd.Context(), key)
}
