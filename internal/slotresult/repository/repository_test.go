package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	slotresultdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/slotresult/domain"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&slotresultdomain.SlotResult{}))
	return db
}

func TestInsertListDemote(t *testing.T) {
	db := setupTestDB(t)
	repo := Provide()
	ctx := context.Background()
	now := time.Date(2026, 4, 2, 15, 0, 0, 0, time.UTC)

	results := []slotresultdomain.SlotResult{
		{ID: 2, SearchID: "s-1", CompanyID: "B", Position: 2, IsPaid: true, ChargedAmount: 200, CreatedAt: now, UpdatedAt: now},
		{ID: 1, SearchID: "s-1", CompanyID: "A", Position: 1, IsPaid: true, ChargedAmount: 300, CreatedAt: now, UpdatedAt: now},
		{ID: 3, SearchID: "s-2", CompanyID: "A", Position: 1, IsPaid: true, ChargedAmount: 300, CreatedAt: now, UpdatedAt: now},
	}
	require.NoError(t, repo.InsertBatch(ctx, db, results))

	got, err := repo.ListBySearch(ctx, db, "s-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].CompanyID)
	assert.Equal(t, "B", got[1].CompanyID)

	require.NoError(t, repo.Demote(ctx, db, "s-1", "A", now.Add(time.Minute)))

	got, err = repo.ListBySearch(ctx, db, "s-1")
	require.NoError(t, err)
	assert.False(t, got[0].IsPaid)
	assert.Zero(t, got[0].ChargedAmount)
	assert.True(t, got[1].IsPaid)

	other, err := repo.ListBySearch(ctx, db, "s-2")
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.True(t, other[0].IsPaid)
}

func TestInsertBatchRejectsOutOfRangePosition(t *testing.T) {
	db := setupTestDB(t)
	err := Provide().InsertBatch(context.Background(), db, []slotresultdomain.SlotResult{{ID: 1, SearchID: "s", CompanyID: "A", Position: 6}})
	assert.ErrorIs(t, err, slotresultdomain.ErrInvalidPosition)
}
