package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	auditdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/audit/domain"
	notificationservice "github.com/FelipeFraul/buscai-v2-sub000/internal/notification/service"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/scheduler"
	"github.com/spf13/cobra"
)

func newDispatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch",
		Short: "Send one batch of pending advertiser notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			var d *notificationservice.Dispatcher
			return withApp(cmd.Context(), func(ctx context.Context) error {
				n, err := d.ProcessPending(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "dispatched %d notifications\n", n)
				return nil
			}, &d)
		},
	}
}

func newSchedulerCmd() *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "scheduler",
		Short: "Run background notification jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var s *scheduler.Scheduler
			return withApp(ctx, func(ctx context.Context) error {
				if once {
					return s.RunOnce(ctx)
				}
				return s.Run(ctx)
			}, &s)
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run every job a single time and exit")
	return cmd
}

func newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit trail",
	}
	cmd.AddCommand(newAuditExportCmd())
	return cmd
}

func newAuditExportCmd() *cobra.Command {
	var (
		from      string
		to        string
		format    string
		actions   []string
		companyID string
		searchID  string
		out       string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export audit logs with a checksum",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := time.Parse(time.DateOnly, from)
			if err != nil {
				return fmt.Errorf("invalid --from: %w", err)
			}
			end, err := time.Parse(time.DateOnly, to)
			if err != nil {
				return fmt.Errorf("invalid --to: %w", err)
			}

			var svc auditdomain.ExportService
			return withApp(cmd.Context(), func(ctx context.Context) error {
				res, err := svc.Export(ctx, auditdomain.ExportRequest{
					StartDate: start,
					EndDate:   end.AddDate(0, 0, 1),
					Format:    auditdomain.ExportFormat(format),
					Actions:   actions,
					CompanyID: companyID,
					SearchID:  searchID,
				})
				if err != nil {
					return err
				}

				if out == "" || out == "-" {
					if _, err := cmd.OutOrStdout().Write(res.Data); err != nil {
						return err
					}
				} else if err := os.WriteFile(out, res.Data, 0o600); err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "exported %d entries sha256=%s\n", res.Count, res.Checksum)
				return nil
			}, &svc)
		},
	}
	cmd.Flags().StringVar(&from, "from", time.Now().UTC().AddDate(0, 0, -7).Format(time.DateOnly), "first day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&to, "to", time.Now().UTC().Format(time.DateOnly), "last day, inclusive (YYYY-MM-DD)")
	cmd.Flags().StringVar(&format, "format", string(auditdomain.ExportFormatCSV), "csv or json")
	cmd.Flags().StringSliceVar(&actions, "action", nil, "only export these actions (repeatable)")
	cmd.Flags().StringVar(&companyID, "company", "", "only export entries for this company")
	cmd.Flags().StringVar(&searchID, "search", "", "only export entries for this search")
	cmd.Flags().StringVar(&out, "out", "-", "output file, - for stdout")
	return cmd
}
