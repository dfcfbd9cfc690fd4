package service

import (
	"context"
	"maps"
	"slices"
	"strconv"
	"time"

	allocationdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/allocation/domain"
	bidconfigdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/bidconfig/domain"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/clock"
	notificationdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/notification/domain"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/observability"
	rankingdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/ranking/domain"
	slotresultdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/slotresult/domain"
	walletdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/wallet/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Calendar  *clock.BusinessCalendar
	Wallet    walletdomain.Service
	Scheduler notificationdomain.Scheduler
}

type Service struct {
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	calendar  *clock.BusinessCalendar
	wallet    walletdomain.Service
	scheduler notificationdomain.Scheduler
}

func NewService(p Params) allocationdomain.Service {
	return &Service{
		log:       p.Log.Named("allocation.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		calendar:  p.Calendar,
		wallet:    p.Wallet,
		scheduler: p.Scheduler,
	}
}

// allocationState is the per-search bookkeeping. Nothing here outlives one
// Allocate call.
type allocationState struct {
	searchID string
	actx     allocationdomain.Context
	day      clock.BusinessDay

	spent   map[string]int64
	wallets map[string]walletdomain.Wallet

	selectedCompanies map[string]struct{}
	selectedConfigs   map[string]struct{}
	budgetBlocked     map[string]struct{}
	fundsBlocked      map[string]struct{}
}

func (s *Service) Allocate(
	ctx context.Context,
	ranking *rankingdomain.Ranking,
	searchID string,
	actx allocationdomain.Context,
) ([]slotresultdomain.SlotResult, error) {
	if ranking == nil {
		return nil, allocationdomain.ErrMissingRanking
	}
	if searchID == "" {
		return nil, allocationdomain.ErrMissingSearchID
	}
	if actx.CityID == "" {
		actx.CityID = ranking.CityID
	}
	if actx.NicheID == "" {
		actx.NicheID = ranking.NicheID
	}

	ctx, span := observability.Tracer("allocation").Start(ctx, "allocation.Allocate")
	defer span.End()
	span.SetAttributes(
		attribute.String("search_id", searchID),
		attribute.String("city_id", actx.CityID),
		attribute.String("niche_id", actx.NicheID),
		attribute.Bool("force_visibility", actx.ForceVisibility),
	)

	started := time.Now()
	defer func() {
		observability.AllocationDuration.Observe(time.Since(started).Seconds())
	}()

	now := s.clock.Now(ctx)
	st := &allocationState{
		searchID:          searchID,
		actx:              actx,
		day:               s.calendar.Day(now),
		selectedCompanies: map[string]struct{}{},
		selectedConfigs:   map[string]struct{}{},
		budgetBlocked:     map[string]struct{}{},
		fundsBlocked:      map[string]struct{}{},
	}

	if err := s.loadLookups(ctx, ranking, st); err != nil {
		return nil, err
	}

	var results []slotresultdomain.SlotResult
	for position := 1; position <= bidconfigdomain.PaidPositions; position++ {
		if res, ok := s.resolvePosition(ctx, ranking.Candidates(position), position, now, st); ok {
			results = append(results, res)
		}
	}

	s.notifyOutbid(ctx, ranking, st)

	span.SetAttributes(attribute.Int("slots_filled", len(results)))
	s.log.Info("paid slots allocated",
		zap.String("search_id", searchID),
		zap.String("city_id", actx.CityID),
		zap.String("niche_id", actx.NicheID),
		zap.Int("slots_filled", len(results)),
		zap.Int("budget_blocked", len(st.budgetBlocked)),
		zap.Int("funds_blocked", len(st.fundsBlocked)),
	)
	return results, nil
}

// loadLookups fetches today's spend for budget-gated bidders and the wallets
// of every positive bidder in two batched reads. The spend read takes no
// lock, so concurrent searches may both pass the budget gate before either
// charge lands.
func (s *Service) loadLookups(ctx context.Context, ranking *rankingdomain.Ranking, st *allocationState) error {
	gated := map[string]struct{}{}
	bidders := map[string]struct{}{}
	for position := 1; position <= bidconfigdomain.PaidPositions; position++ {
		for _, cand := range ranking.Paid[position] {
			if cand.Bid <= 0 {
				continue
			}
			bidders[cand.CompanyID] = struct{}{}
			if cand.Config != nil && cand.Config.BudgetGated() {
				gated[cand.CompanyID] = struct{}{}
			}
		}
	}

	st.spent = map[string]int64{}
	if len(gated) > 0 {
		spent, err := s.wallet.SpentBetween(ctx, walletdomain.SpendFilter{
			CompanyIDs: keys(gated),
			CityID:     st.actx.CityID,
			NicheID:    st.actx.NicheID,
			From:       st.day.Start,
			To:         st.day.End,
		})
		if err != nil {
			return err
		}
		st.spent = spent
	}

	st.wallets = map[string]walletdomain.Wallet{}
	if len(bidders) > 0 {
		wallets, err := s.wallet.GetWallets(ctx, keys(bidders))
		if err != nil {
			return err
		}
		st.wallets = wallets
	}
	return nil
}

func (s *Service) resolvePosition(
	ctx context.Context,
	candidates []rankingdomain.Candidate,
	position int,
	now time.Time,
	st *allocationState,
) (slotresultdomain.SlotResult, bool) {
	for _, cand := range candidates {
		if _, ok := st.selectedCompanies[cand.CompanyID]; ok {
			recordDecision(position, allocationdomain.OutcomeAlreadySelected)
			continue
		}
		if _, ok := st.selectedConfigs[cand.ConfigID]; ok {
			recordDecision(position, allocationdomain.OutcomeAlreadySelected)
			continue
		}
		if cand.Bid <= 0 {
			recordDecision(position, allocationdomain.OutcomeNoBid)
			continue
		}
		if _, ok := st.budgetBlocked[cand.ConfigID]; ok {
			recordDecision(position, allocationdomain.OutcomeBudgetBlocked)
			continue
		}

		if cand.Config != nil && cand.Config.BudgetGated() {
			budget := *cand.Config.DailyBudget
			spent := st.spent[cand.CompanyID]
			if spent >= budget {
				st.budgetBlocked[cand.ConfigID] = struct{}{}
				recordDecision(position, allocationdomain.OutcomeBudgetBlocked)
				s.schedule(ctx, notificationdomain.Alert{
					Kind:        notificationdomain.KindDailyLimitReached,
					CompanyID:   cand.CompanyID,
					ConfigID:    cand.ConfigID,
					CityID:      st.actx.CityID,
					NicheID:     st.actx.NicheID,
					SearchID:    st.searchID,
					Position:    position,
					Bid:         cand.Bid,
					DailyBudget: budget,
					SpentToday:  spent,
					BusinessDay: st.day.Key,
				})
				continue
			}
		}

		charge := cand.Bid
		outcome := allocationdomain.OutcomeSelected
		coverage := walletdomain.CoverageFor(st.wallets[cand.CompanyID], cand.Bid)
		if !coverage.OK {
			if !st.actx.ForceVisibility {
				// Later positions re-check coverage against their own bid;
				// the alert goes out once per search.
				recordDecision(position, allocationdomain.OutcomeFundsBlocked)
				if _, alerted := st.fundsBlocked[cand.ConfigID]; alerted {
					continue
				}
				st.fundsBlocked[cand.ConfigID] = struct{}{}
				s.schedule(ctx, notificationdomain.Alert{
					Kind:        notificationdomain.KindInsufficientBalance,
					CompanyID:   cand.CompanyID,
					ConfigID:    cand.ConfigID,
					CityID:      st.actx.CityID,
					NicheID:     st.actx.NicheID,
					SearchID:    st.searchID,
					Position:    position,
					Bid:         cand.Bid,
					Balance:     coverage.Balance,
					BusinessDay: st.day.Key,
				})
				continue
			}
			charge = 0
			outcome = allocationdomain.OutcomeSelectedForced
		}

		st.selectedCompanies[cand.CompanyID] = struct{}{}
		st.selectedConfigs[cand.ConfigID] = struct{}{}
		recordDecision(position, outcome)

		clickID := uuid.NewString()
		return slotresultdomain.SlotResult{
			ID:              s.genID.Generate(),
			SearchID:        st.searchID,
			CompanyID:       cand.CompanyID,
			ConfigID:        cand.ConfigID,
			CityID:          st.actx.CityID,
			NicheID:         st.actx.NicheID,
			Channel:         st.actx.Channel,
			Position:        position,
			IsPaid:          true,
			ChargedAmount:   charge,
			ClickTrackingID: &clickID,
			CreatedAt:       now,
			UpdatedAt:       now,
		}, true
	}
	return slotresultdomain.SlotResult{}, false
}

// notifyOutbid alerts every configuration that bid but lost purely on price.
func (s *Service) notifyOutbid(ctx context.Context, ranking *rankingdomain.Ranking, st *allocationState) {
	losers := map[string]rankingdomain.Candidate{}
	var order []string

	for position := 1; position <= bidconfigdomain.PaidPositions; position++ {
		for _, cand := range ranking.Paid[position] {
			if cand.Bid <= 0 || st.beatenOnOtherGrounds(cand) {
				continue
			}
			prev, seen := losers[cand.ConfigID]
			if !seen {
				order = append(order, cand.ConfigID)
			}
			if !seen || cand.Bid > prev.Bid {
				losers[cand.ConfigID] = cand
			}
		}
	}

	for _, configID := range order {
		cand := losers[configID]
		s.schedule(ctx, notificationdomain.Alert{
			Kind:        notificationdomain.KindOutbid,
			CompanyID:   cand.CompanyID,
			ConfigID:    cand.ConfigID,
			CityID:      st.actx.CityID,
			NicheID:     st.actx.NicheID,
			SearchID:    st.searchID,
			Position:    cand.Position,
			Bid:         cand.Bid,
			BusinessDay: st.day.Key,
		})
	}
}

func (st *allocationState) beatenOnOtherGrounds(cand rankingdomain.Candidate) bool {
	for _, set := range []map[string]struct{}{st.selectedConfigs, st.budgetBlocked, st.fundsBlocked} {
		if _, ok := set[cand.ConfigID]; ok {
			return true
		}
	}
	_, ok := st.selectedCompanies[cand.CompanyID]
	return ok
}

// schedule never fails the allocation; alerts are best effort.
func (s *Service) schedule(ctx context.Context, alert notificationdomain.Alert) {
	if s.scheduler == nil {
		return
	}
	if _, err := s.scheduler.Schedule(ctx, alert); err != nil {
		s.log.Warn("failed to schedule advertiser notification",
			zap.String("kind", string(alert.Kind)),
			zap.String("config_id", alert.ConfigID),
			zap.String("search_id", alert.SearchID),
			zap.Error(err),
		)
	}
}

func recordDecision(position int, outcome allocationdomain.Outcome) {
	observability.SlotDecisionsTotal.WithLabelValues(strconv.Itoa(position), string(outcome)).Inc()
}

func keys(set map[string]struct{}) []string {
	return slices.Sorted(maps.Keys(set))
}
