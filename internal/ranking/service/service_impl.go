package service

import (
	"context"
	"strings"

	bidconfigdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/bidconfig/domain"
	companydomain "github.com/FelipeFraul/buscai-v2-sub000/internal/company/domain"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/observability"
	rankingdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/ranking/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	AutoBid     *rankingdomain.AutoBidConfig
	BidConfigs  bidconfigdomain.Repository
	CompanyRepo companydomain.Repository
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	autoBid     rankingdomain.AutoBidConfig
	bidConfigs  bidconfigdomain.Repository
	companyRepo companydomain.Repository
}

func NewService(p Params) rankingdomain.Service {
	autoBid := rankingdomain.AutoBidConfig{Step: rankingdomain.DefaultAutoBidStep}
	if p.AutoBid != nil {
		autoBid = *p.AutoBid
	}
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("ranking.service"),
		autoBid:     autoBid,
		bidConfigs:  p.BidConfigs,
		companyRepo: p.CompanyRepo,
	}
}

func (s *Service) GetRanking(ctx context.Context, cityID, nicheID string) (*rankingdomain.Ranking, error) {
	cityID = strings.TrimSpace(cityID)
	nicheID = strings.TrimSpace(nicheID)
	if cityID == "" || nicheID == "" {
		return nil, rankingdomain.ErrInvalidMarket
	}

	ctx, span := observability.Tracer("ranking").Start(ctx, "ranking.GetRanking")
	defer span.End()
	span.SetAttributes(attribute.String("city_id", cityID), attribute.String("niche_id", nicheID))

	configs, err := s.bidConfigs.ListActive(ctx, s.db, cityID, nicheID)
	if err != nil {
		return nil, err
	}
	pool, err := s.companyRepo.ListByCityNiche(ctx, s.db, cityID, nicheID)
	if err != nil {
		return nil, err
	}

	ranking := BuildRanking(configs, pool, s.autoBid)
	ranking.CityID = cityID
	ranking.NicheID = nicheID

	for _, id := range ranking.Rejected {
		s.log.Warn("ignoring uninterpretable bid configuration",
			zap.String("config_id", id),
			zap.String("city_id", cityID),
			zap.String("niche_id", nicheID),
		)
	}
	s.log.Debug("ranking built",
		zap.String("city_id", cityID),
		zap.String("niche_id", nicheID),
		zap.Int("configs", len(configs)),
		zap.Int("p1", len(ranking.Paid[1])),
		zap.Int("p2", len(ranking.Paid[2])),
		zap.Int("p3", len(ranking.Paid[3])),
		zap.Int("organic_pool", len(ranking.OrganicPool)),
	)
	return ranking, nil
}
