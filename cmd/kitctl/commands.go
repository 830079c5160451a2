package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fekuna/mystery-kit-service/internal/planning/dto"
	"github.com/fekuna/mystery-kit-service/migrations"
	"github.com/fekuna/mystery-kit-service/pkg/httpx"
	"github.com/spf13/cobra"
)

func rootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:           "kitctl",
		Short:         "Administer scenario kit inventory and transfers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(
		migrateCmd(&verbose),
		planCmd(&verbose),
		clearCompletionsCmd(&verbose),
		reconcileCmd(&verbose),
	)
	return cmd
}

func migrateCmd(verbose *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*verbose)
			if err != nil {
				return err
			}
			defer a.Close()

			applied, err := migrations.Up(cmd.Context(), a.db)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
			}
			return nil
		},
	}
}

// windowFlags are the organization and date range shared by most commands.
type windowFlags struct {
	org   string
	start string
	end   string
}

func (f *windowFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.org, "org", "", "Organization ID")
	cmd.Flags().StringVar(&f.start, "start", "", "First day of the window (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "Last day of the window (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("org")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
}

func (f *windowFlags) parse() (time.Time, time.Time, error) {
	start, err := httpx.ParseDate(f.start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("--start: %w", err)
	}
	end, err := httpx.ParseDate(f.end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("--end: %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("--end %s is before --start %s", f.end, f.start)
	}
	return start, end, nil
}

func parseDays(values []string) ([]time.Time, error) {
	days := make([]time.Time, 0, len(values))
	for _, v := range values {
		d, err := httpx.ParseDate(v)
		if err != nil {
			return nil, fmt.Errorf("--transfer-date %q: %w", v, err)
		}
		days = append(days, d)
	}
	return days, nil
}

func planCmd(verbose *bool) *cobra.Command {
	var (
		window        windowFlags
		transferDates []string
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Preview the transfer plan for a window as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := window.parse()
			if err != nil {
				return err
			}
			days, err := parseDays(transferDates)
			if err != nil {
				return err
			}

			a, err := newApp(*verbose)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.planningUseCase().PlanTransfers(cmd.Context(), &dto.PlanInput{
				OrganizationID: window.org,
				TransferDates:  days,
				Start:          start,
				End:            end,
			})
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	window.register(cmd)
	cmd.Flags().StringSliceVar(&transferDates, "transfer-date", nil, "Transfer day (repeatable, YYYY-MM-DD)")
	return cmd
}

func clearCompletionsCmd(verbose *bool) *cobra.Command {
	var window windowFlags

	cmd := &cobra.Command{
		Use:   "clear-completions",
		Short: "Delete pickup and delivery records for a window",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, end, err := window.parse()
			if err != nil {
				return err
			}

			a, err := newApp(*verbose)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.completionUseCase().ClearCompletions(cmd.Context(), window.org, start, end)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %d completion records\n", n)
			return nil
		},
	}
	window.register(cmd)
	return cmd
}

func reconcileCmd(verbose *bool) *cobra.Command {
	var org string

	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Make kit rows match each scenario's kit count",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*verbose)
			if err != nil {
				return err
			}
			defer a.Close()

			results, err := a.kitUseCase().ReconcileKits(cmd.Context(), org)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().StringVar(&org, "org", "", "Organization ID")
	_ = cmd.MarkFlagRequired("org")
	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
