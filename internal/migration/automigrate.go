package migration

import (
	"context"
	"errors"
	"strings"
	"time"

	auditdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/audit/domain"
	bidconfigdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/bidconfig/domain"
	companydomain "github.com/FelipeFraul/buscai-v2-sub000/internal/company/domain"
	impressiondomain "github.com/FelipeFraul/buscai-v2-sub000/internal/impression/domain"
	notificationdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/notification/domain"
	slotresultdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/slotresult/domain"
	walletdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/wallet/domain"
	"gorm.io/gorm"
)

const migrationTimeout = 2 * time.Minute

// Models lists every table owned by this service, in creation order.
func Models() []any {
	return []any{
		&walletdomain.Wallet{},
		&walletdomain.Transaction{},
		&companydomain.Company{},
		&companydomain.CompanyNiche{},
		&bidconfigdomain.BidConfiguration{},
		&slotresultdomain.SlotResult{},
		&impressiondomain.Event{},
		&auditdomain.AuditLog{},
		&notificationdomain.Notification{},
		&notificationdomain.ConsumerOffset{},
		&BootstrapState{},
	}
}

// Run migrates the schema for the configured driver and activates the
// bootstrap state. Postgres uses the versioned SQL migrations under an
// advisory lock; the other drivers are for local development and are brought
// up with gorm's AutoMigrate.
func Run(conn *gorm.DB, driver string) (Manifest, error) {
	if conn == nil {
		return Manifest{}, errors.New("migration database handle is required")
	}
	m, err := LoadManifest()
	if err != nil {
		return Manifest{}, err
	}

	ctx, cancel := withTimeout(context.Background())
	defer cancel()

	if isPostgres(driver) {
		sqlDB, err := conn.DB()
		if err != nil {
			return Manifest{}, err
		}
		err = withAdvisoryLock(ctx, sqlDB, func() error {
			if err := applyVersioned(sqlDB, m); err != nil {
				return err
			}
			return activateBootstrapState(ctx, conn, m)
		})
		return m, err
	}

	if err := conn.WithContext(ctx).AutoMigrate(Models()...); err != nil {
		return Manifest{}, err
	}
	return m, activateBootstrapState(ctx, conn, m)
}

func isPostgres(driver string) bool {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", "postgres", "postgresql", "pgx":
		return true
	}
	return false
}
