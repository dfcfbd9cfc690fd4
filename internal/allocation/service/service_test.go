package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	allocationdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/allocation/domain"
	bidconfigdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/bidconfig/domain"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/clock"
	notificationdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/notification/domain"
	rankingdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/ranking/domain"
	rankingservice "github.com/FelipeFraul/buscai-v2-sub000/internal/ranking/service"
	slotresultdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/slotresult/domain"
	testclockctx "github.com/FelipeFraul/buscai-v2-sub000/internal/testclock/context"
	walletdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/wallet/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Mocks ---

type MockWallet struct {
	mock.Mock
}

func (m *MockWallet) ReserveCharge(ctx context.Context, companyID string, amount int64, reason string, meta walletdomain.ChargeMetadata) (walletdomain.ReserveResult, error) {
	args := m.Called(ctx, companyID, amount, reason, meta)
	return args.Get(0).(walletdomain.ReserveResult), args.Error(1)
}
func (m *MockWallet) CreateRecharge(ctx context.Context, companyID string, amount int64, reason string) (*walletdomain.Transaction, error) {
	return nil, nil
}
func (m *MockWallet) ConfirmRecharge(ctx context.Context, id snowflake.ID) (*walletdomain.Transaction, error) {
	return nil, nil
}
func (m *MockWallet) CancelRecharge(ctx context.Context, id snowflake.ID) (*walletdomain.Transaction, error) {
	return nil, nil
}
func (m *MockWallet) CanCoverCharge(ctx context.Context, companyID string, amount int64) (walletdomain.Coverage, error) {
	args := m.Called(ctx, companyID, amount)
	return args.Get(0).(walletdomain.Coverage), args.Error(1)
}
func (m *MockWallet) GetWallet(ctx context.Context, companyID string) (walletdomain.Wallet, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).(walletdomain.Wallet), args.Error(1)
}
func (m *MockWallet) GetWallets(ctx context.Context, companyIDs []string) (map[string]walletdomain.Wallet, error) {
	args := m.Called(ctx, companyIDs)
	return args.Get(0).(map[string]walletdomain.Wallet), args.Error(1)
}
func (m *MockWallet) ListTransactions(ctx context.Context, companyID string, limit int) ([]walletdomain.Transaction, error) {
	return nil, nil
}
func (m *MockWallet) SpentBetween(ctx context.Context, filter walletdomain.SpendFilter) (map[string]int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(map[string]int64), args.Error(1)
}

type fakeScheduler struct {
	mu     sync.Mutex
	alerts []notificationdomain.Alert
	err    error
}

func (f *fakeScheduler) Schedule(_ context.Context, alert notificationdomain.Alert) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alerts = append(f.alerts, alert)
	return f.err == nil, f.err
}

func (f *fakeScheduler) byKind(kind notificationdomain.Kind) []notificationdomain.Alert {
	var out []notificationdomain.Alert
	for _, a := range f.alerts {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

// --- Helpers ---

func int64Ptr(v int64) *int64 { return &v }

func manual(id, company string, bids [3]int64) bidconfigdomain.BidConfiguration {
	return bidconfigdomain.BidConfiguration{
		ID:           id,
		CompanyID:    company,
		CityID:       "city-1",
		NicheID:      "niche-1",
		Mode:         "manual",
		BidPosition1: bids[0],
		BidPosition2: bids[1],
		BidPosition3: bids[2],
		Active:       true,
	}
}

func buildRanking(configs ...bidconfigdomain.BidConfiguration) *rankingdomain.Ranking {
	r := rankingservice.BuildRanking(configs, nil, rankingdomain.AutoBidConfig{Step: 50, Floors: [3]int64{300, 300, 300}})
	r.CityID = "city-1"
	r.NicheID = "niche-1"
	return r
}

func newAllocator(t *testing.T, wallet walletdomain.Service, scheduler notificationdomain.Scheduler) allocationdomain.Service {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	cal, err := clock.NewBusinessCalendar("America/Sao_Paulo")
	require.NoError(t, err)
	return NewService(Params{
		Log:       zap.NewNop(),
		GenID:     node,
		Clock:     clock.New(),
		Calendar:  cal,
		Wallet:    wallet,
		Scheduler: scheduler,
	})
}

// 2026-05-10 02:30 UTC is still 2026-05-09 in Sao Paulo.
var searchTime = time.Date(2026, 5, 10, 2, 30, 0, 0, time.UTC)

func searchCtx() context.Context {
	return testclockctx.WithSimulatedTime(context.Background(), searchTime)
}

func webContext() allocationdomain.Context {
	return allocationdomain.Context{CityID: "city-1", NicheID: "niche-1", Channel: slotresultdomain.ChannelWeb}
}

// --- Tests ---

func TestAllocateSkipsUncoveredBidder(t *testing.T) {
	wallet := new(MockWallet)
	wallet.On("GetWallets", mock.Anything, []string{"A", "B"}).Return(map[string]walletdomain.Wallet{
		"A": {CompanyID: "A", Balance: 100},
		"B": {CompanyID: "B", Balance: 1000},
	}, nil)
	sched := &fakeScheduler{}

	ranking := buildRanking(
		manual("cfg-a", "A", [3]int64{300, 0, 0}),
		manual("cfg-b", "B", [3]int64{200, 0, 0}),
	)

	results, err := newAllocator(t, wallet, sched).Allocate(searchCtx(), ranking, "search-1", webContext())
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "B", results[0].CompanyID)
	assert.Equal(t, 1, results[0].Position)
	assert.True(t, results[0].IsPaid)
	assert.Equal(t, int64(200), results[0].ChargedAmount)
	assert.NotNil(t, results[0].ClickTrackingID)

	funds := sched.byKind(notificationdomain.KindInsufficientBalance)
	require.Len(t, funds, 1)
	assert.Equal(t, "cfg-a", funds[0].ConfigID)
	assert.Equal(t, int64(100), funds[0].Balance)
	// Funds-blocked bidders are not also told they were outbid.
	assert.Empty(t, sched.byKind(notificationdomain.KindOutbid))

	wallet.AssertNotCalled(t, "SpentBetween", mock.Anything, mock.Anything)
	wallet.AssertExpectations(t)
}

func TestAllocateBudgetGate(t *testing.T) {
	gated := manual("cfg-a", "A", [3]int64{900, 0, 0})
	gated.DailyBudget = int64Ptr(500)
	gated.PauseOnLimit = true

	ungated := manual("cfg-b", "B", [3]int64{800, 0, 0})
	ungated.DailyBudget = int64Ptr(500)
	ungated.PauseOnLimit = false

	wallet := new(MockWallet)
	wallet.On("SpentBetween", mock.Anything, mock.MatchedBy(func(f walletdomain.SpendFilter) bool {
		return assert.ObjectsAreEqual([]string{"A"}, f.CompanyIDs) &&
			f.CityID == "city-1" && f.NicheID == "niche-1" &&
			f.From.Equal(time.Date(2026, 5, 9, 3, 0, 0, 0, time.UTC)) &&
			f.To.Equal(time.Date(2026, 5, 10, 3, 0, 0, 0, time.UTC))
	})).Return(map[string]int64{"A": 500}, nil)
	wallet.On("GetWallets", mock.Anything, []string{"A", "B"}).Return(map[string]walletdomain.Wallet{
		"A": {CompanyID: "A", Balance: 10000},
		"B": {CompanyID: "B", Balance: 10000},
	}, nil)
	sched := &fakeScheduler{}

	results, err := newAllocator(t, wallet, sched).Allocate(searchCtx(), buildRanking(gated, ungated), "search-1", webContext())
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "B", results[0].CompanyID)
	assert.Equal(t, int64(800), results[0].ChargedAmount)

	limits := sched.byKind(notificationdomain.KindDailyLimitReached)
	require.Len(t, limits, 1)
	assert.Equal(t, "cfg-a", limits[0].ConfigID)
	assert.Equal(t, "2026-05-09", limits[0].BusinessDay)
	assert.Equal(t, int64(500), limits[0].SpentToday)
	assert.Empty(t, sched.byKind(notificationdomain.KindOutbid))
	wallet.AssertExpectations(t)
}

func TestAllocateBudgetBelowLimitStillWins(t *testing.T) {
	gated := manual("cfg-a", "A", [3]int64{300, 0, 0})
	gated.DailyBudget = int64Ptr(500)
	gated.PauseOnLimit = true

	wallet := new(MockWallet)
	wallet.On("SpentBetween", mock.Anything, mock.Anything).Return(map[string]int64{"A": 499}, nil)
	wallet.On("GetWallets", mock.Anything, []string{"A"}).Return(map[string]walletdomain.Wallet{
		"A": {CompanyID: "A", Balance: 300},
	}, nil)

	results, err := newAllocator(t, wallet, &fakeScheduler{}).Allocate(searchCtx(), buildRanking(gated), "search-1", webContext())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "A", results[0].CompanyID)
}

func TestAllocateDistinctCompaniesWithFallback(t *testing.T) {
	wallet := new(MockWallet)
	wallet.On("GetWallets", mock.Anything, []string{"A", "B", "C"}).Return(map[string]walletdomain.Wallet{
		"A": {CompanyID: "A", Balance: 10000},
		"B": {CompanyID: "B", Balance: 0},
		"C": {CompanyID: "C", Balance: 10000},
	}, nil)
	sched := &fakeScheduler{}

	ranking := buildRanking(
		manual("cfg-a", "A", [3]int64{500, 500, 500}),
		manual("cfg-b", "B", [3]int64{400, 400, 400}),
		manual("cfg-c", "C", [3]int64{300, 300, 300}),
	)

	results, err := newAllocator(t, wallet, sched).Allocate(searchCtx(), ranking, "search-1", webContext())
	require.NoError(t, err)

	// B heads position 2 but cannot pay; C falls in from the list, and
	// position 3 has nobody left.
	require.Len(t, results, 2)
	assert.Equal(t, "A", results[0].CompanyID)
	assert.Equal(t, 1, results[0].Position)
	assert.Equal(t, "C", results[1].CompanyID)
	assert.Equal(t, 2, results[1].Position)
	assert.Equal(t, int64(300), results[1].ChargedAmount)

	// B is re-checked at position 3 but alerted only once.
	funds := sched.byKind(notificationdomain.KindInsufficientBalance)
	require.Len(t, funds, 1)
	assert.Equal(t, "cfg-b", funds[0].ConfigID)
	assert.Equal(t, 2, funds[0].Position)
}

func TestAllocateUncoveredAtOnePositionWinsCheaperPosition(t *testing.T) {
	wallet := new(MockWallet)
	wallet.On("GetWallets", mock.Anything, []string{"A"}).Return(map[string]walletdomain.Wallet{
		"A": {CompanyID: "A", Balance: 250},
	}, nil)
	sched := &fakeScheduler{}

	ranking := buildRanking(manual("cfg-a", "A", [3]int64{300, 200, 0}))

	results, err := newAllocator(t, wallet, sched).Allocate(searchCtx(), ranking, "search-1", webContext())
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, "A", results[0].CompanyID)
	assert.Equal(t, 2, results[0].Position)
	assert.True(t, results[0].IsPaid)
	assert.Equal(t, int64(200), results[0].ChargedAmount)

	funds := sched.byKind(notificationdomain.KindInsufficientBalance)
	require.Len(t, funds, 1)
	assert.Equal(t, 1, funds[0].Position)
	assert.Equal(t, int64(300), funds[0].Bid)
	assert.Empty(t, sched.byKind(notificationdomain.KindOutbid))
}

func TestAllocateForceVisibility(t *testing.T) {
	wallet := new(MockWallet)
	wallet.On("GetWallets", mock.Anything, []string{"A"}).Return(map[string]walletdomain.Wallet{}, nil)
	sched := &fakeScheduler{}

	actx := webContext()
	actx.ForceVisibility = true

	results, err := newAllocator(t, wallet, sched).Allocate(searchCtx(), buildRanking(manual("cfg-a", "A", [3]int64{300, 0, 0})), "search-1", actx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "A", results[0].CompanyID)
	assert.True(t, results[0].IsPaid)
	assert.Zero(t, results[0].ChargedAmount)
	assert.Empty(t, sched.alerts)
}

func TestAllocateNotifiesOutbid(t *testing.T) {
	wallet := new(MockWallet)
	wallet.On("GetWallets", mock.Anything, []string{"A", "B", "C"}).Return(map[string]walletdomain.Wallet{
		"A": {CompanyID: "A", Balance: 10000},
		"B": {CompanyID: "B", Balance: 10000},
		"C": {CompanyID: "C", Balance: 10000},
	}, nil)
	sched := &fakeScheduler{}

	ranking := buildRanking(
		manual("cfg-a", "A", [3]int64{500, 0, 0}),
		manual("cfg-b", "B", [3]int64{400, 0, 0}),
		manual("cfg-c", "C", [3]int64{300, 100, 0}),
	)

	results, err := newAllocator(t, wallet, sched).Allocate(searchCtx(), ranking, "search-1", webContext())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "A", results[0].CompanyID)
	assert.Equal(t, "C", results[1].CompanyID)

	outbid := sched.byKind(notificationdomain.KindOutbid)
	require.Len(t, outbid, 1)
	assert.Equal(t, "cfg-b", outbid[0].ConfigID)
	assert.Equal(t, int64(400), outbid[0].Bid)
	assert.Equal(t, "2026-05-09", outbid[0].BusinessDay)
}

func TestAllocateIgnoresNotificationFailures(t *testing.T) {
	wallet := new(MockWallet)
	wallet.On("GetWallets", mock.Anything, mock.Anything).Return(map[string]walletdomain.Wallet{
		"B": {CompanyID: "B", Balance: 1000},
	}, nil)
	sched := &fakeScheduler{err: errors.New("redis down")}

	ranking := buildRanking(
		manual("cfg-a", "A", [3]int64{300, 0, 0}),
		manual("cfg-b", "B", [3]int64{200, 0, 0}),
	)

	results, err := newAllocator(t, wallet, sched).Allocate(searchCtx(), ranking, "search-1", webContext())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "B", results[0].CompanyID)
	assert.NotEmpty(t, sched.alerts)
}

func TestAllocatePropagatesLookupErrors(t *testing.T) {
	wallet := new(MockWallet)
	wallet.On("GetWallets", mock.Anything, mock.Anything).Return(map[string]walletdomain.Wallet(nil), errors.New("db down"))

	_, err := newAllocator(t, wallet, &fakeScheduler{}).Allocate(searchCtx(), buildRanking(manual("cfg-a", "A", [3]int64{300, 0, 0})), "search-1", webContext())
	assert.EqualError(t, err, "db down")
}

func TestAllocateValidatesInput(t *testing.T) {
	svc := newAllocator(t, new(MockWallet), &fakeScheduler{})

	_, err := svc.Allocate(context.Background(), nil, "search-1", webContext())
	assert.ErrorIs(t, err, allocationdomain.ErrMissingRanking)

	_, err = svc.Allocate(context.Background(), buildRanking(), "", webContext())
	assert.ErrorIs(t, err, allocationdomain.ErrMissingSearchID)
}

func TestAllocateEmptyRanking(t *testing.T) {
	results, err := newAllocator(t, new(MockWallet), &fakeScheduler{}).Allocate(searchCtx(), buildRanking(), "search-1", webContext())
	require.NoError(t, err)
	assert.Empty(t, results)
}
