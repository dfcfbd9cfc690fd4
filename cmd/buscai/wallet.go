package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	auditdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/audit/domain"
	walletdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/wallet/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/spf13/cobra"
)

func newRechargeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recharge",
		Short: "Manage wallet recharges",
	}
	cmd.AddCommand(newRechargeCreateCmd(), newRechargeTransitionCmd("confirm"), newRechargeTransitionCmd("cancel"))
	return cmd
}

func newRechargeCreateCmd() *cobra.Command {
	var (
		companyID string
		amount    int64
		reason    string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Record a pending recharge",
		RunE: func(cmd *cobra.Command, args []string) error {
			var svc walletdomain.Service
			return withApp(cmd.Context(), func(ctx context.Context) error {
				tx, err := svc.CreateRecharge(ctx, companyID, amount, reason)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), tx)
			}, &svc)
		},
	}
	cmd.Flags().StringVar(&companyID, "company", "", "company id")
	cmd.Flags().Int64Var(&amount, "amount", 0, "amount in minor units")
	cmd.Flags().StringVar(&reason, "reason", "manual_recharge", "ledger reason")
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newRechargeTransitionCmd(action string) *cobra.Command {
	var operator string
	cmd := &cobra.Command{
		Use:   action + " <transaction-id>",
		Short: fmt.Sprintf("%s a pending recharge", action),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := snowflake.ParseString(args[0])
			if err != nil {
				return fmt.Errorf("invalid transaction id %q: %w", args[0], err)
			}

			var (
				svc   walletdomain.Service
				audit auditdomain.Service
			)
			return withApp(cmd.Context(), func(ctx context.Context) error {
				var (
					tx          *walletdomain.Transaction
					err         error
					auditAction = auditdomain.ActionRechargeConfirmed
				)
				if action == "confirm" {
					tx, err = svc.ConfirmRecharge(ctx, id)
				} else {
					tx, err = svc.CancelRecharge(ctx, id)
					auditAction = auditdomain.ActionRechargeCancelled
				}
				if err != nil {
					return err
				}

				target := tx.ID.String()
				if err := audit.AuditLog(ctx, auditdomain.ActorTypeUser, &operator, auditAction, "wallet_transaction", &target, map[string]any{
					"company_id": tx.CompanyID,
					"amount":     tx.Amount,
					"status":     string(tx.Status),
				}); err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), tx)
			}, &svc, &audit)
		},
	}
	cmd.Flags().StringVar(&operator, "operator", os.Getenv("USER"), "operator recorded in the audit trail")
	return cmd
}

func newWalletCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "wallet <company-id>",
		Short: "Show a company wallet and its latest transactions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var svc walletdomain.Service
			return withApp(cmd.Context(), func(ctx context.Context) error {
				w, err := svc.GetWallet(ctx, args[0])
				if err != nil {
					return err
				}
				txs, err := svc.ListTransactions(ctx, args[0], limit)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"wallet":       w,
					"available":    w.Available(),
					"transactions": txs,
				})
			}, &svc)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of transactions to list")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
