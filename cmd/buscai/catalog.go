package main

import (
	"context"
	"time"

	bidconfigdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/bidconfig/domain"
	companydomain "github.com/FelipeFraul/buscai-v2-sub000/internal/company/domain"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

func newCompanyCmd() *cobra.Command {
	var (
		id       string
		cityID   string
		name     string
		rating   float64
		reviews  int
		niches   []string
		inactive bool
	)
	cmd := &cobra.Command{
		Use:   "company",
		Short: "Create or update a catalog company",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id == "" {
				id = uuid.NewString()
			}

			var (
				conn *gorm.DB
				repo companydomain.Repository
			)
			return withApp(cmd.Context(), func(ctx context.Context) error {
				now := time.Now().UTC()
				company := &companydomain.Company{
					ID:          id,
					CityID:      cityID,
					Name:        name,
					Rating:      rating,
					ReviewCount: reviews,
					Active:      !inactive,
					CreatedAt:   &now,
				}
				if err := repo.Upsert(ctx, conn, company, niches...); err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), company)
			}, &conn, &repo)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "company id (generated when empty)")
	cmd.Flags().StringVar(&cityID, "city", "", "city id")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().Float64Var(&rating, "rating", 0, "average rating")
	cmd.Flags().IntVar(&reviews, "reviews", 0, "review count")
	cmd.Flags().StringSliceVar(&niches, "niche", nil, "niche id (repeatable)")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "store the company as inactive")
	_ = cmd.MarkFlagRequired("city")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newBidCmd() *cobra.Command {
	var (
		id           string
		companyID    string
		cityID       string
		nicheID      string
		mode         string
		bids         []int64
		target       int
		share        int
		dailyBudget  int64
		pauseOnLimit bool
		inactive     bool
	)
	cmd := &cobra.Command{
		Use:   "bid",
		Short: "Create or update a bid configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := bidconfigdomain.ParseMode(mode)
			if err != nil {
				return err
			}
			if id == "" {
				id = uuid.NewString()
			}

			now := time.Now().UTC()
			cfg := &bidconfigdomain.BidConfiguration{
				ID:           id,
				CompanyID:    companyID,
				CityID:       cityID,
				NicheID:      nicheID,
				Mode:         string(parsed),
				PauseOnLimit: pauseOnLimit,
				Active:       !inactive,
				CreatedAt:    &now,
			}
			for i, amount := range bids {
				switch i {
				case 0:
					cfg.BidPosition1 = amount
				case 1:
					cfg.BidPosition2 = amount
				case 2:
					cfg.BidPosition3 = amount
				}
			}
			if cmd.Flags().Changed("target") {
				cfg.TargetPosition = &target
			}
			if cmd.Flags().Changed("share") {
				cfg.TargetShare = &share
			}
			if cmd.Flags().Changed("daily-budget") {
				cfg.DailyBudget = &dailyBudget
			}
			if _, err := cfg.Strategy(); err != nil {
				return err
			}

			var (
				conn *gorm.DB
				repo bidconfigdomain.Repository
			)
			return withApp(cmd.Context(), func(ctx context.Context) error {
				if err := repo.Upsert(ctx, conn, cfg); err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), cfg)
			}, &conn, &repo)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "configuration id (generated when empty)")
	cmd.Flags().StringVar(&companyID, "company", "", "company id")
	cmd.Flags().StringVar(&cityID, "city", "", "city id")
	cmd.Flags().StringVar(&nicheID, "niche", "", "niche id")
	cmd.Flags().StringVar(&mode, "mode", string(bidconfigdomain.ModeManual), "bidding mode (manual, auto)")
	cmd.Flags().Int64SliceVar(&bids, "bids", nil, "manual bids for positions 1..3 in minor units")
	cmd.Flags().IntVar(&target, "target", 1, "target position for auto mode")
	cmd.Flags().IntVar(&share, "share", 100, "target share for auto mode")
	cmd.Flags().Int64Var(&dailyBudget, "daily-budget", 0, "daily spend cap in minor units")
	cmd.Flags().BoolVar(&pauseOnLimit, "pause-on-limit", false, "stop bidding once the daily budget is spent")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "store the configuration as inactive")
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("city")
	_ = cmd.MarkFlagRequired("niche")
	return cmd
}
