package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/KasumiMercury/primind-med-remind/internal/app"
	"github.com/KasumiMercury/primind-med-remind/internal/config"
)

type rootOptions struct {
	ConfigPath string
	Format     string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "medremind",
		Short: "Medication reminder scheduling service",
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if opts.Format != "text" && opts.Format != "json" {
				return fmt.Errorf("invalid format %q: must be text or json", opts.Format)
			}

			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newReconcileCommand(opts))
	cmd.AddCommand(newNextCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the notification scheduler and the reconciliation loop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg)
		},
	}
}

func newReconcileCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Run one reconciliation pass against the configured backend and print the report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd.Context(), opts, func(ctx context.Context, svc *service) error {
				report, err := svc.useCase.Reconcile(ctx, app.ReasonManual)
				if err != nil {
					return err
				}

				return printReport(cmd.OutOrStdout(), opts.Format, report)
			})
		},
	}
}

func newNextCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "List the next occurrence of every enabled reminder slot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd.Context(), opts, func(ctx context.Context, svc *service) error {
				upcoming, err := svc.useCase.Upcoming(ctx)
				if err != nil {
					return err
				}

				return printUpcoming(cmd.OutOrStdout(), opts.Format, upcoming)
			})
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), Version)
		},
	}
}

// withService wires the service for a one-shot command with logging kept
// on stderr so stdout only carries the result.
func withService(ctx context.Context, opts *rootOptions, fn func(ctx context.Context, svc *service) error) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	svc, err := newService(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer svc.Close()

	return fn(ctx, svc)
}

func printReport(w io.Writer, format string, report app.ReconcileReport) error {
	if format == "json" {
		return json.NewEncoder(w).Encode(report)
	}

	fmt.Fprintf(w, "reminders=%d armed=%d kept=%d cancelled=%d deferred=%d failed=%d duration=%s\n",
		report.Reminders, report.Armed, report.Kept, report.Cancelled, report.Deferred, report.Failed,
		report.Duration.Round(time.Millisecond))

	for _, warning := range report.Warnings {
		fmt.Fprintln(w, "warning:", warning)
	}

	return nil
}

func printUpcoming(w io.Writer, format string, upcoming []app.OccurrenceOutput) error {
	if format == "json" {
		return json.NewEncoder(w).Encode(upcoming)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tMEDICATION\tSLOT")

	for _, o := range upcoming {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", o.ScheduledTime.Format(time.RFC3339), o.MedicationName, o.SlotID)
	}

	return tw.Flush()
}
