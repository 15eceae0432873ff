package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rezkam/tally/internal/analytics"
	"github.com/rezkam/tally/internal/domain"
	"github.com/rezkam/tally/internal/form"
)

var errNothingToUpdate = errors.New("nothing to update: pass at least one field flag")

func listCmd(opts *globalOptions) *cobra.Command {
	var status, priority, query string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks sorted by ROI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := filterParams(status, priority, query)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), cmd, opts, slog.LevelWarn)
			if err != nil {
				return err
			}
			defer a.Close()

			derived := analytics.Derive(analytics.Filter(a.session.Tasks(), params))
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), derived)
			}
			return writeTable(cmd.OutOrStdout(), derived)
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "Only tasks with this status")
	cmd.Flags().StringVarP(&priority, "priority", "P", "", "Only tasks with this priority")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Case-insensitive search in title and notes")
	cmd.Flags().BoolVarP(&asJSON, "json", "j", false, "Output as JSON")

	return cmd
}

func addCmd(opts *globalOptions) *cobra.Command {
	var c form.Candidate

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cmd, opts, slog.LevelWarn)
			if err != nil {
				return err
			}
			defer a.Close()

			if errs := form.Validate(c, form.TitlesExcept(a.session.Tasks(), "")); !errs.Valid() {
				return errs
			}
			task, err := c.Task()
			if err != nil {
				return err
			}

			added := a.session.AddTask(cmd.Context(), task)
			fmt.Fprintf(cmd.OutOrStdout(), "added %s %q\n", added.ID, added.Title)
			return nil
		},
	}

	cmd.Flags().StringVarP(&c.Title, "title", "t", "", "Task title")
	cmd.Flags().StringVarP(&c.Revenue, "revenue", "r", "", "Revenue produced")
	cmd.Flags().StringVarP(&c.TimeTaken, "time", "T", "", "Hours spent")
	cmd.Flags().StringVarP(&c.Priority, "priority", "P", string(domain.TaskPriorityMedium), "High, Medium or Low")
	cmd.Flags().StringVarP(&c.Status, "status", "s", string(domain.TaskStatusTodo), "Todo, In Progress or Done")
	cmd.Flags().StringVarP(&c.Notes, "notes", "n", "", "Free-form notes")

	return cmd
}

func updateCmd(opts *globalOptions) *cobra.Command {
	var title, revenue, timeTaken, priority, status, notes string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a task; only the flags given are applied",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			flags := cmd.Flags()

			var p form.Patch
			if flags.Changed("title") {
				p.Title = &title
			}
			if flags.Changed("revenue") {
				v := form.Text(revenue)
				p.Revenue = &v
			}
			if flags.Changed("time") {
				v := form.Text(timeTaken)
				p.TimeTaken = &v
			}
			if flags.Changed("priority") {
				p.Priority = &priority
			}
			if flags.Changed("status") {
				p.Status = &status
			}
			if flags.Changed("notes") {
				p.Notes = &notes
			}

			a, err := openApp(cmd.Context(), cmd, opts, slog.LevelWarn)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, ok := a.session.Task(id); !ok {
				return fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
			}
			if errs := form.ValidatePatch(p, form.TitlesExcept(a.session.Tasks(), id)); !errs.Valid() {
				return errs
			}
			patch, err := p.TaskPatch()
			if err != nil {
				return err
			}
			if patch.IsEmpty() {
				return errNothingToUpdate
			}

			updated, ok := a.session.UpdateTask(cmd.Context(), id, patch)
			if !ok {
				return fmt.Errorf("%w: %s", domain.ErrTaskNotFound, id)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated %s %q\n", updated.ID, updated.Title)
			return nil
		},
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "Task title")
	cmd.Flags().StringVarP(&revenue, "revenue", "r", "", "Revenue produced")
	cmd.Flags().StringVarP(&timeTaken, "time", "T", "", "Hours spent")
	cmd.Flags().StringVarP(&priority, "priority", "P", "", "High, Medium or Low")
	cmd.Flags().StringVarP(&status, "status", "s", "", "Todo, In Progress or Done")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "Free-form notes")

	return cmd
}

func deleteCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cmd, opts, slog.LevelWarn)
			if err != nil {
				return err
			}
			defer a.Close()

			deleted, ok := a.session.DeleteTask(cmd.Context(), args[0])
			if !ok {
				return fmt.Errorf("%w: %s", domain.ErrTaskNotFound, args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s %q\n", deleted.ID, deleted.Title)
			return nil
		},
	}
}

func resetCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard stored tasks and reload from the seed or generator",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context(), cmd, opts, slog.LevelWarn)
			if err != nil {
				return err
			}
			defer a.Close()

			if _, err := a.session.Reset(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reset: %d tasks from %s\n", len(a.session.Tasks()), a.session.Source())
			return nil
		},
	}
}

func filterParams(status, priority, query string) (analytics.FilterParams, error) {
	params := analytics.FilterParams{Query: query}
	if status != "" {
		s, err := domain.NewTaskStatus(status)
		if err != nil {
			return params, err
		}
		params.Status = &s
	}
	if priority != "" {
		p, err := domain.NewTaskPriority(priority)
		if err != nil {
			return params, err
		}
		params.Priority = &p
	}
	return params, nil
}

func writeTable(w io.Writer, tasks []analytics.DerivedTask) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tPRIORITY\tREVENUE\tHOURS\tROI")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Title, t.Status, t.Priority,
			formatFloat(t.Revenue), formatFloat(t.TimeTaken), formatFloat(t.ROI))
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
