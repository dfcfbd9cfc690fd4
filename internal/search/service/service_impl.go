package service

import (
	"context"

	allocationdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/allocation/domain"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/config"
	impressiondomain "github.com/FelipeFraul/buscai-v2-sub000/internal/impression/domain"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/observability"
	organicdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/organic/domain"
	rankingdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/ranking/domain"
	searchdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/search/domain"
	slotresultdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/slotresult/domain"
	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Config      config.Config
	Ranking     rankingdomain.Service
	Allocation  allocationdomain.Service
	Settlement  impressiondomain.Service
	Organic     organicdomain.Ranker
	SlotResults slotresultdomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	chargeSync  bool
	ranking     rankingdomain.Service
	allocation  allocationdomain.Service
	settlement  impressiondomain.Service
	organic     organicdomain.Ranker
	slotResults slotresultdomain.Repository
}

func NewService(p Params) searchdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("search.service"),
		chargeSync:  p.Config.ChargeSyncChannel,
		ranking:     p.Ranking,
		allocation:  p.Allocation,
		settlement:  p.Settlement,
		organic:     p.Organic,
		slotResults: p.SlotResults,
	}
}

func (s *Service) Run(ctx context.Context, req searchdomain.Request) (*searchdomain.Response, error) {
	if req.Channel == "" {
		req.Channel = slotresultdomain.ChannelWeb
	}
	searchID := ulid.Make().String()

	ctx, span := observability.Tracer("search").Start(ctx, "search.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("search_id", searchID),
		attribute.String("channel", string(req.Channel)),
	)

	ranking, err := s.ranking.GetRanking(ctx, req.CityID, req.NicheID)
	if err != nil {
		return nil, err
	}

	paid, err := s.allocation.Allocate(ctx, ranking, searchID, allocationdomain.Context{
		CityID:          ranking.CityID,
		NicheID:         ranking.NicheID,
		ForceVisibility: req.ForceVisibility,
		Channel:         req.Channel,
	})
	if err != nil {
		return nil, err
	}

	exclude := make(map[string]struct{}, len(paid))
	for _, res := range paid {
		exclude[res.CompanyID] = struct{}{}
	}
	organic := s.organic.Rank(ranking.OrganicPool, exclude, slotresultdomain.MaxPosition-len(paid))
	results := s.organic.Merge(ctx, organicdomain.Placement{
		SearchID: searchID,
		CityID:   ranking.CityID,
		NicheID:  ranking.NicheID,
		Channel:  req.Channel,
	}, paid, organic)

	if err := s.slotResults.InsertBatch(ctx, s.db, results); err != nil {
		return nil, err
	}

	// Deferred channels are charged on delivery through SettleDelivery.
	if !req.Channel.Deferred() && s.chargeSync {
		results, err = s.settlement.Settle(ctx, searchID, results)
		if err != nil {
			return nil, err
		}
	}

	s.log.Info("search served",
		zap.String("search_id", searchID),
		zap.String("city_id", ranking.CityID),
		zap.String("niche_id", ranking.NicheID),
		zap.String("channel", string(req.Channel)),
		zap.Int("paid", len(paid)),
		zap.Int("results", len(results)),
	)
	return &searchdomain.Response{SearchID: searchID, Results: results}, nil
}

func (s *Service) SettleDelivery(ctx context.Context, searchID string) (*searchdomain.Response, error) {
	ctx, span := observability.Tracer("search").Start(ctx, "search.SettleDelivery")
	defer span.End()
	span.SetAttributes(attribute.String("search_id", searchID))

	results, err := s.slotResults.ListBySearch(ctx, s.db, searchID)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, searchdomain.ErrSearchNotFound
	}

	settled, err := s.settlement.Settle(ctx, searchID, results)
	if err != nil {
		return nil, err
	}
	return &searchdomain.Response{SearchID: searchID, Results: settled}, nil
}
