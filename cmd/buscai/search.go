package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	searchdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/search/domain"
	slotresultdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/slotresult/domain"
	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var (
		cityID  string
		nicheID string
		channel string
		force   bool
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Rank and allocate the result slots of one search",
		RunE: func(cmd *cobra.Command, args []string) error {
			var svc searchdomain.Service
			return withApp(cmd.Context(), func(ctx context.Context) error {
				resp, err := svc.Run(ctx, searchdomain.Request{
					CityID:          cityID,
					NicheID:         nicheID,
					Channel:         slotresultdomain.Channel(channel),
					ForceVisibility: force,
				})
				if err != nil {
					return err
				}
				return printResults(cmd.OutOrStdout(), resp)
			}, &svc)
		},
	}
	cmd.Flags().StringVar(&cityID, "city", "", "city id")
	cmd.Flags().StringVar(&nicheID, "niche", "", "niche id")
	cmd.Flags().StringVar(&channel, "channel", string(slotresultdomain.ChannelWeb), "delivery channel (web, whatsapp)")
	cmd.Flags().BoolVar(&force, "force", false, "place paid candidates even when their wallet cannot cover the bid")
	_ = cmd.MarkFlagRequired("city")
	_ = cmd.MarkFlagRequired("niche")
	return cmd
}

func newSettleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "settle <search-id>",
		Short: "Charge the paid placements of a delivered search",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var svc searchdomain.Service
			return withApp(cmd.Context(), func(ctx context.Context) error {
				resp, err := svc.SettleDelivery(ctx, args[0])
				if err != nil {
					return err
				}
				return printResults(cmd.OutOrStdout(), resp)
			}, &svc)
		},
	}
}

func printResults(w io.Writer, resp *searchdomain.Response) error {
	fmt.Fprintf(w, "search %s\n", resp.SearchID)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "POSITION\tCOMPANY\tPAID\tCHARGED\tCONFIG")
	for _, r := range resp.Results {
		fmt.Fprintf(tw, "%d\t%s\t%t\t%d\t%s\n", r.Position, r.CompanyID, r.IsPaid, r.ChargedAmount, r.ConfigID)
	}
	return tw.Flush()
}
