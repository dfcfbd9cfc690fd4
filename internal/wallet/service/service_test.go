package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/FelipeFraul/buscai-v2-sub000/internal/clock"
	testclockctx "github.com/FelipeFraul/buscai-v2-sub000/internal/testclock/context"
	walletdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/wallet/domain"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/wallet/repository"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (walletdomain.Service, *gorm.DB) {
	t.Helper()

	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// SQLite has no row locks; a single connection serialises the
	// transactions so concurrent tests exercise the check-then-debit logic.
	// The FOR UPDATE clause itself is covered in the repository tests.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&walletdomain.Wallet{}, &walletdomain.Transaction{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.New(),
		Repo:  repository.Provide(),
	})
	return svc, db
}

func fund(t *testing.T, svc walletdomain.Service, companyID string, amount int64) {
	t.Helper()
	ctx := context.Background()
	tx, err := svc.CreateRecharge(ctx, companyID, amount, "test funding")
	require.NoError(t, err)
	_, err = svc.ConfirmRecharge(ctx, tx.ID)
	require.NoError(t, err)
}

func countTransactions(t *testing.T, db *gorm.DB, companyID string, txType walletdomain.TransactionType) int64 {
	t.Helper()
	var count int64
	require.NoError(t, db.Model(&walletdomain.Transaction{}).
		Where("company_id = ? AND type = ?", companyID, txType).
		Count(&count).Error)
	return count
}

func TestReserveChargeDebitsWallet(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()
	fund(t, svc, "company-a", 500)

	res, err := svc.ReserveCharge(ctx, "company-a", 300, "search_slot", walletdomain.ChargeMetadata{
		SearchID: "search-1",
		Position: 1,
		CityID:   "city-1",
		NicheID:  "niche-1",
		Channel:  "whatsapp",
	})
	require.NoError(t, err)
	require.True(t, res.Reserved())
	assert.Equal(t, int64(200), res.Balance)
	require.NotNil(t, res.Transaction)
	assert.Equal(t, walletdomain.TransactionTypeSearchDebit, res.Transaction.Type)
	assert.Equal(t, walletdomain.TransactionStatusConfirmed, res.Transaction.Status)
	assert.Equal(t, "search-1", res.Transaction.Metadata["search_id"])

	var stored walletdomain.Transaction
	require.NoError(t, db.Where("id = ?", res.Transaction.ID).First(&stored).Error)
	assert.Equal(t, "city-1", stored.CityID)
	assert.Equal(t, "niche-1", stored.NicheID)
	assert.Equal(t, int64(300), stored.Amount)

	res, err = svc.ReserveCharge(ctx, "company-a", 300, "search_slot", walletdomain.ChargeMetadata{})
	require.NoError(t, err)
	assert.Equal(t, walletdomain.ReserveStatusInsufficientFunds, res.Status)
	assert.Equal(t, int64(200), res.Balance)
	assert.Nil(t, res.Transaction)
	assert.Equal(t, int64(1), countTransactions(t, db, "company-a", walletdomain.TransactionTypeSearchDebit))

	wallet, err := svc.GetWallet(ctx, "company-a")
	require.NoError(t, err)
	assert.Equal(t, int64(200), wallet.Balance)
}

func TestReserveChargeCreatesWalletLazily(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	var count int64
	require.NoError(t, db.Model(&walletdomain.Wallet{}).Count(&count).Error)
	require.Zero(t, count)

	res, err := svc.ReserveCharge(ctx, "fresh", 100, "search_slot", walletdomain.ChargeMetadata{})
	require.NoError(t, err)
	assert.Equal(t, walletdomain.ReserveStatusInsufficientFunds, res.Status)
	assert.Zero(t, res.Balance)

	require.NoError(t, db.Model(&walletdomain.Wallet{}).Where("company_id = ?", "fresh").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestReserveChargeValidatesInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ReserveCharge(ctx, " ", 100, "", walletdomain.ChargeMetadata{})
	assert.ErrorIs(t, err, walletdomain.ErrInvalidCompany)

	_, err = svc.ReserveCharge(ctx, "company-a", 0, "", walletdomain.ChargeMetadata{})
	assert.ErrorIs(t, err, walletdomain.ErrInvalidAmount)

	_, err = svc.CreateRecharge(ctx, "company-a", -5, "")
	assert.ErrorIs(t, err, walletdomain.ErrInvalidAmount)
}

// Twelve concurrent reservations of the full balance, serialised by the
// single connection: exactly one debits, the rest see insufficient funds.
func TestReserveChargeSerialisedRacersNeverOverdraw(t *testing.T) {
	svc, db := newTestService(t)
	fund(t, svc, "company-a", 300)

	const workers = 12
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		reserved int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.ReserveCharge(context.Background(), "company-a", 300, "search_slot", walletdomain.ChargeMetadata{})
			if !assert.NoError(t, err) {
				return
			}
			if res.Reserved() {
				mu.Lock()
				reserved++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, reserved)
	wallet, err := svc.GetWallet(context.Background(), "company-a")
	require.NoError(t, err)
	assert.Equal(t, int64(0), wallet.Balance)
	assert.GreaterOrEqual(t, wallet.Available(), int64(0))
	assert.Equal(t, int64(1), countTransactions(t, db, "company-a", walletdomain.TransactionTypeSearchDebit))
}

func TestConfirmRechargeIsIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tx, err := svc.CreateRecharge(ctx, "company-a", 1000, "pix")
	require.NoError(t, err)
	assert.Equal(t, walletdomain.TransactionStatusPending, tx.Status)

	wallet, err := svc.GetWallet(ctx, "company-a")
	require.NoError(t, err)
	assert.Zero(t, wallet.Balance, "pending recharge must not affect balance")

	first, err := svc.ConfirmRecharge(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, walletdomain.TransactionStatusConfirmed, first.Status)

	second, err := svc.ConfirmRecharge(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, walletdomain.TransactionStatusConfirmed, second.Status)

	wallet, err = svc.GetWallet(ctx, "company-a")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), wallet.Balance)
}

func TestCancelledRechargeNeverCredits(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	tx, err := svc.CreateRecharge(ctx, "company-a", 700, "boleto")
	require.NoError(t, err)

	cancelled, err := svc.CancelRecharge(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, walletdomain.TransactionStatusCancelled, cancelled.Status)

	confirmed, err := svc.ConfirmRecharge(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, walletdomain.TransactionStatusCancelled, confirmed.Status)

	wallet, err := svc.GetWallet(ctx, "company-a")
	require.NoError(t, err)
	assert.Zero(t, wallet.Balance)
}

func TestConfirmRechargeErrors(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.ConfirmRecharge(ctx, snowflake.ID(42))
	assert.ErrorIs(t, err, walletdomain.ErrTransactionNotFound)

	fund(t, svc, "company-a", 500)
	res, err := svc.ReserveCharge(ctx, "company-a", 100, "search_slot", walletdomain.ChargeMetadata{})
	require.NoError(t, err)
	_, err = svc.ConfirmRecharge(ctx, res.Transaction.ID)
	assert.ErrorIs(t, err, walletdomain.ErrNotRechargeTransaction)
}

func TestCanCoverCharge(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	fund(t, svc, "company-a", 100)

	cov, err := svc.CanCoverCharge(ctx, "company-a", 300)
	require.NoError(t, err)
	assert.False(t, cov.OK)
	assert.Equal(t, walletdomain.CoverageReasonInsufficientAvailable, cov.Reason)
	assert.Equal(t, int64(100), cov.Balance)
	assert.Equal(t, int64(100), cov.Available)

	cov, err = svc.CanCoverCharge(ctx, "company-a", 100)
	require.NoError(t, err)
	assert.True(t, cov.OK)
	assert.Equal(t, walletdomain.CoverageReasonOK, cov.Reason)

	cov, err = svc.CanCoverCharge(ctx, "nobody", 50)
	require.NoError(t, err)
	assert.False(t, cov.OK)
	assert.Zero(t, cov.Balance)
}

func TestCoverageForAccountsForReserved(t *testing.T) {
	cov := walletdomain.CoverageFor(walletdomain.Wallet{Balance: 500, Reserved: 300}, 250)
	assert.False(t, cov.OK)
	assert.Equal(t, int64(200), cov.Available)

	cov = walletdomain.CoverageFor(walletdomain.Wallet{Balance: 500}, 0)
	assert.False(t, cov.OK)
	assert.Equal(t, walletdomain.CoverageReasonInvalidAmount, cov.Reason)
}

func TestSpentBetweenSumsConfirmedDebitsInWindow(t *testing.T) {
	svc, _ := newTestService(t)
	fund(t, svc, "company-a", 5000)
	fund(t, svc, "company-b", 5000)

	dayStart := time.Date(2026, 5, 10, 3, 0, 0, 0, time.UTC)
	at := func(d time.Duration) context.Context {
		return testclockctx.WithSimulatedTime(context.Background(), dayStart.Add(d))
	}
	meta := walletdomain.ChargeMetadata{CityID: "city-1", NicheID: "niche-1"}

	for _, c := range []struct {
		ctx     context.Context
		company string
		amount  int64
		meta    walletdomain.ChargeMetadata
	}{
		{at(-time.Hour), "company-a", 999, meta},
		{at(time.Hour), "company-a", 200, meta},
		{at(5 * time.Hour), "company-a", 300, meta},
		{at(2 * time.Hour), "company-a", 400, walletdomain.ChargeMetadata{CityID: "city-1", NicheID: "other"}},
		{at(3 * time.Hour), "company-b", 150, meta},
		{at(25 * time.Hour), "company-b", 999, meta},
	} {
		res, err := svc.ReserveCharge(c.ctx, c.company, c.amount, "search_slot", c.meta)
		require.NoError(t, err)
		require.True(t, res.Reserved())
	}

	spent, err := svc.SpentBetween(context.Background(), walletdomain.SpendFilter{
		CompanyIDs: []string{"company-a", "company-b", "company-c"},
		CityID:     "city-1",
		NicheID:    "niche-1",
		From:       dayStart,
		To:         dayStart.Add(24 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(500), spent["company-a"])
	assert.Equal(t, int64(150), spent["company-b"])
	assert.Zero(t, spent["company-c"])
}

func TestListTransactionsNewestFirst(t *testing.T) {
	svc, _ := newTestService(t)
	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		ctx := testclockctx.WithSimulatedTime(context.Background(), base.Add(time.Duration(i)*time.Minute))
		_, err := svc.CreateRecharge(ctx, "company-a", int64(100*(i+1)), "")
		require.NoError(t, err)
	}

	txs, err := svc.ListTransactions(context.Background(), "company-a", 2)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, int64(300), txs[0].Amount)
	assert.Equal(t, int64(200), txs[1].Amount)
}
