package service

import (
	"slices"
	"strings"

	bidconfigdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/bidconfig/domain"
	companydomain "github.com/FelipeFraul/buscai-v2-sub000/internal/company/domain"
	rankingdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/ranking/domain"
)

type resolvedConfig struct {
	config   bidconfigdomain.BidConfiguration
	strategy bidconfigdomain.Strategy
}

// BuildRanking turns the active configurations and company pool of one market
// into ranked candidate lists. It does not touch storage.
func BuildRanking(
	configs []bidconfigdomain.BidConfiguration,
	pool []companydomain.Company,
	cfg rankingdomain.AutoBidConfig,
) *rankingdomain.Ranking {
	ranking := &rankingdomain.Ranking{Paid: make(map[int][]rankingdomain.Candidate, bidconfigdomain.PaidPositions)}

	resolved := make([]resolvedConfig, 0, len(configs))
	for _, c := range configs {
		if !c.Active {
			continue
		}
		strategy, err := c.Strategy()
		if err != nil {
			ranking.Rejected = append(ranking.Rejected, c.ID)
			continue
		}
		resolved = append(resolved, resolvedConfig{config: c, strategy: strategy})
	}

	ranking.Market = marketFromConfigs(resolved)

	ranked := make(map[int][]rankingdomain.Candidate, bidconfigdomain.PaidPositions)
	bidding := make(map[string]struct{})
	for position := 1; position <= bidconfigdomain.PaidPositions; position++ {
		var list []rankingdomain.Candidate
		for i := range resolved {
			cand, ok := candidateAt(&resolved[i], position, ranking.Market, cfg)
			if !ok {
				continue
			}
			list = append(list, cand)
			bidding[cand.CompanyID] = struct{}{}
		}
		slices.SortStableFunc(list, compareCandidates)
		ranked[position] = list
	}

	ranking.Paid = AssignDistinctHeads(ranked)

	for _, company := range pool {
		if _, ok := bidding[company.ID]; ok {
			continue
		}
		ranking.OrganicPool = append(ranking.OrganicPool, company)
	}
	return ranking
}

// marketFromConfigs scans manual configurations only; automatic bidders never
// move the market they are priced against.
func marketFromConfigs(resolved []resolvedConfig) rankingdomain.MarketSnapshot {
	var market rankingdomain.MarketSnapshot
	for _, r := range resolved {
		manual, ok := r.strategy.(bidconfigdomain.Manual)
		if !ok {
			continue
		}
		for i, bid := range manual.Bids {
			if bid > market[i] {
				market[i] = bid
			}
		}
	}
	return market
}

func candidateAt(
	r *resolvedConfig,
	position int,
	market rankingdomain.MarketSnapshot,
	cfg rankingdomain.AutoBidConfig,
) (rankingdomain.Candidate, bool) {
	cand := rankingdomain.Candidate{
		CompanyID: r.config.CompanyID,
		ConfigID:  r.config.ID,
		Position:  position,
		Market:    market,
		CreatedAt: r.config.CreatedAt,
		Config:    &r.config,
	}

	switch s := r.strategy.(type) {
	case bidconfigdomain.Manual:
		cand.Mode = bidconfigdomain.ModeManual
		cand.Bid = s.BidAt(position)
	case bidconfigdomain.Auto:
		if s.TargetPosition != position {
			return cand, false
		}
		auto := CalculateAutoBid(s.TargetPosition, market, cfg)
		cand.Mode = bidconfigdomain.ModeAuto
		cand.Bid = auto.EffectiveBid
		cand.AutoBid = &auto
	}

	return cand, cand.Bid > 0
}

// compareCandidates orders by bid descending, then earlier configuration
// first. When either creation time is missing the smaller company id wins.
func compareCandidates(a, b rankingdomain.Candidate) int {
	if a.Bid != b.Bid {
		if a.Bid > b.Bid {
			return -1
		}
		return 1
	}
	if a.CreatedAt != nil && b.CreatedAt != nil && !a.CreatedAt.Equal(*b.CreatedAt) {
		return a.CreatedAt.Compare(*b.CreatedAt)
	}
	if c := strings.Compare(a.CompanyID, b.CompanyID); c != 0 {
		return c
	}
	return strings.Compare(a.ConfigID, b.ConfigID)
}

// AssignDistinctHeads walks positions 1..3 and moves to the front of each list
// the first company not already heading an earlier position. The remaining
// entries keep their order and stay available as fallbacks. The input is left
// untouched.
func AssignDistinctHeads(ranked map[int][]rankingdomain.Candidate) map[int][]rankingdomain.Candidate {
	out := make(map[int][]rankingdomain.Candidate, len(ranked))
	assigned := make(map[string]struct{})

	for position := 1; position <= bidconfigdomain.PaidPositions; position++ {
		list := ranked[position]
		next := make([]rankingdomain.Candidate, 0, len(list))

		head := -1
		for i, cand := range list {
			if _, taken := assigned[cand.CompanyID]; !taken {
				head = i
				break
			}
		}

		if head < 0 {
			next = append(next, list...)
		} else {
			next = append(next, list[head])
			next = append(next, list[:head]...)
			next = append(next, list[head+1:]...)
			assigned[list[head].CompanyID] = struct{}{}
		}
		out[position] = next
	}
	return out
}
