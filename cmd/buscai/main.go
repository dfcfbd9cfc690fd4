package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/FelipeFraul/buscai-v2-sub000/internal/allocation"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/audit"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/bidconfig"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/bootstrap"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/clock"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/company"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/config"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/impression"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/migration"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/notification"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/observability"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/organic"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/ranking"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/redis"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/scheduler"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/search"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/slotresult"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/wallet"
	"github.com/FelipeFraul/buscai-v2-sub000/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "buscai",
		Short:         "Buscai paid-slot ranking and wallet operations",
		Version:       readVersionFromEnv(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newMigrateCmd(),
		newSearchCmd(),
		newSettleCmd(),
		newRechargeCmd(),
		newWalletCmd(),
		newCompanyCmd(),
		newBidCmd(),
		newDispatchCmd(),
		newSchedulerCmd(),
		newAuditCmd(),
	)
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations and activate schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate()
		},
	}
}

func runMigrate() error {
	app := fx.New(
		config.Module,
		observability.Module,
		db.Module,
		migration.Module,
		fx.NopLogger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := app.Start(ctx); err != nil {
		return fmt.Errorf("migrate failed: %w", err)
	}
	_ = app.Stop(context.Background())
	return nil
}

// coreModules wires every domain module behind the schema gate.
func coreModules() fx.Option {
	return fx.Options(
		config.Module,
		observability.Module,
		fx.Provide(registerSnowflake),
		db.Module,
		clock.Module,
		redis.Module,
		bootstrap.Module,
		fx.Invoke(bootstrap.EnforceSchemaGate),
		wallet.Module,
		company.Module,
		bidconfig.Module,
		ranking.Module,
		notification.Module,
		allocation.Module,
		audit.Module,
		slotresult.Module,
		impression.Module,
		organic.Module,
		search.Module,
		scheduler.Module,
		fx.NopLogger,
	)
}

// withApp starts the core graph, populates targets and runs fn before
// stopping the graph again.
func withApp(ctx context.Context, fn func(context.Context) error, targets ...any) error {
	app := fx.New(coreModules(), fx.Populate(targets...))
	if err := app.Err(); err != nil {
		return err
	}

	startCtx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		_ = app.Stop(stopCtx)
	}()

	return fn(ctx)
}

func registerSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}

func readVersionFromEnv() string {
	if v := strings.TrimSpace(os.Getenv("APP_VERSION")); v != "" {
		return v
	}
	return "dev"
}
