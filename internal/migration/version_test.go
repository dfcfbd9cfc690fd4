package migration

import (
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestLoadManifest(t *testing.T) {
	m, err := LoadManifest()
	require.NoError(t, err)
	assert.Equal(t, uint(4), m.Version)
	assert.Equal(t, "4", m.SchemaVersion())
	assert.Len(t, m.Checksum, 64)
	assert.Equal(t, []string{
		"000001_wallet_ledger.up.sql",
		"000002_ranking.up.sql",
		"000003_settlement.up.sql",
		"000004_notifications.up.sql",
	}, m.Files)

	again, err := LoadManifest()
	require.NoError(t, err)
	assert.Equal(t, m.Checksum, again.Checksum)

	version, err := LatestMigrationVersion()
	require.NoError(t, err)
	assert.Equal(t, m.Version, version)
	checksum, err := MigrationsChecksum()
	require.NoError(t, err)
	assert.Equal(t, m.Checksum, checksum)
}

func TestParseMigrationVersion(t *testing.T) {
	v, ok := parseMigrationVersion("000003_settlement.up.sql")
	assert.True(t, ok)
	assert.Equal(t, uint(3), v)

	_, ok = parseMigrationVersion("settlement.up.sql")
	assert.False(t, ok)

	_, ok = parseMigrationVersion("v3_settlement.up.sql")
	assert.False(t, ok)
}

func TestIsPostgres(t *testing.T) {
	assert.True(t, isPostgres(""))
	assert.True(t, isPostgres(" Postgres "))
	assert.False(t, isPostgres("sqlite"))
	assert.False(t, isPostgres("mysql"))
}

func TestRunAutoMigratesNonPostgresDrivers(t *testing.T) {
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	m, err := Run(db, "sqlite")
	require.NoError(t, err)

	for _, table := range []string{
		"company_wallets",
		"wallet_transactions",
		"bid_configurations",
		"companies",
		"company_niches",
		"search_slot_results",
		"impression_events",
		"audit_logs",
		"advertiser_notifications",
		"notification_consumer_offsets",
		"system_bootstrap_state",
	} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}

	var state BootstrapState
	require.NoError(t, db.First(&state).Error)
	assert.Equal(t, StateActive, state.Status)
	assert.Equal(t, m.SchemaVersion(), state.SchemaVersion)
	require.NotNil(t, state.Checksum)
	assert.Equal(t, m.Checksum, *state.Checksum)

	// A second run re-activates the same single row.
	_, err = Run(db, "sqlite")
	require.NoError(t, err)
	var count int64
	require.NoError(t, db.Model(&BootstrapState{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
