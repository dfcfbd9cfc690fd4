package service

import (
	"context"
	"fmt"
	"time"

	auditdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/audit/domain"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/clock"
	impressiondomain "github.com/FelipeFraul/buscai-v2-sub000/internal/impression/domain"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/observability"
	slotresultdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/slotresult/domain"
	walletdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/wallet/domain"
	"github.com/bwmarrin/snowflake"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Repo        impressiondomain.Repository
	SlotResults slotresultdomain.Repository
	Wallet      walletdomain.Service
	Audit       auditdomain.Service
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	repo        impressiondomain.Repository
	slotResults slotresultdomain.Repository
	wallet      walletdomain.Service
	audit       auditdomain.Service
}

func NewService(p Params) impressiondomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("impression.service"),
		genID:       p.GenID,
		clock:       p.Clock,
		repo:        p.Repo,
		slotResults: p.SlotResults,
		wallet:      p.Wallet,
		audit:       p.Audit,
	}
}

func (s *Service) Settle(ctx context.Context, searchID string, results []slotresultdomain.SlotResult) ([]slotresultdomain.SlotResult, error) {
	ctx, span := observability.Tracer("impression").Start(ctx, "impression.Settle")
	defer span.End()
	span.SetAttributes(attribute.String("search_id", searchID), attribute.Int("results", len(results)))

	out := make([]slotresultdomain.SlotResult, len(results))
	copy(out, results)

	for i := range out {
		res := &out[i]
		if !res.IsPaid || res.ChargedAmount <= 0 {
			continue
		}
		if err := s.settleOne(ctx, searchID, res); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (s *Service) settleOne(ctx context.Context, searchID string, res *slotresultdomain.SlotResult) error {
	exists, err := s.repo.Exists(ctx, s.db, searchID, res.CompanyID)
	if err != nil {
		return err
	}
	if exists {
		observability.ImpressionSettlementsTotal.WithLabelValues("already_charged").Inc()
		return nil
	}

	now := s.clock.Now(ctx)
	inserted, err := s.repo.Insert(ctx, s.db, &impressiondomain.Event{
		ID:        s.genID.Generate(),
		SearchID:  searchID,
		CompanyID: res.CompanyID,
		Type:      impressiondomain.TypeImpression,
		CreatedAt: now,
	})
	if err != nil {
		return err
	}
	if !inserted {
		observability.ImpressionSettlementsTotal.WithLabelValues("lost_race").Inc()
		return nil
	}

	reserve, err := s.wallet.ReserveCharge(ctx, res.CompanyID, res.ChargedAmount, impressiondomain.ChargeReason, walletdomain.ChargeMetadata{
		SearchID: searchID,
		Position: res.Position,
		CityID:   res.CityID,
		NicheID:  res.NicheID,
		Channel:  string(res.Channel),
	})
	if err != nil {
		// Without the debit the guard row would block every retry.
		if delErr := s.repo.Delete(ctx, s.db, searchID, res.CompanyID); delErr != nil {
			s.log.Error("failed to release impression guard", zap.String("search_id", searchID), zap.Error(delErr))
		}
		return fmt.Errorf("reserve impression charge: %w", err)
	}

	if reserve.Reserved() {
		observability.ImpressionSettlementsTotal.WithLabelValues("charged").Inc()
		s.log.Info("impression charged",
			zap.String("search_id", searchID),
			zap.String("company_id", res.CompanyID),
			zap.Int("position", res.Position),
			zap.Int64("amount", res.ChargedAmount),
			zap.Int64("balance", reserve.Balance),
		)
		return nil
	}

	return s.demote(ctx, searchID, res, reserve, now)
}

// demote rolls back a failed charge: the guard row goes away, the slot is
// persisted as unpaid and the failure is audited.
func (s *Service) demote(
	ctx context.Context,
	searchID string,
	res *slotresultdomain.SlotResult,
	reserve walletdomain.ReserveResult,
	now time.Time,
) error {
	amount := res.ChargedAmount

	if err := s.repo.Delete(ctx, s.db, searchID, res.CompanyID); err != nil {
		return err
	}
	res.Demote()
	if err := s.slotResults.Demote(ctx, s.db, searchID, res.CompanyID, now); err != nil {
		return err
	}

	observability.ImpressionSettlementsTotal.WithLabelValues("demoted").Inc()
	s.log.Warn("impression charge failed; slot demoted",
		zap.String("search_id", searchID),
		zap.String("company_id", res.CompanyID),
		zap.Int("position", res.Position),
		zap.Int64("amount", amount),
		zap.Int64("balance", reserve.Balance),
	)

	if s.audit == nil {
		return nil
	}
	target := searchID
	err := s.audit.AuditLog(ctx, auditdomain.ActorTypeSystem, nil, auditdomain.ActionImpressionChargeFailed, auditdomain.TargetSearch, &target, map[string]any{
		"company_id": res.CompanyID,
		"config_id":  res.ConfigID,
		"position":   res.Position,
		"amount":     amount,
		"balance":    reserve.Balance,
		"reason":     string(reserve.Status),
	})
	if err != nil {
		// The demotion already stands; a missing audit row is not fatal.
		s.log.Error("failed to audit impression charge failure", zap.String("search_id", searchID), zap.Error(err))
	}
	return nil
}
