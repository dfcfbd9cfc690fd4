package service

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/FelipeFraul/buscai-v2-sub000/internal/clock"
	companydomain "github.com/FelipeFraul/buscai-v2-sub000/internal/company/domain"
	organicdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/organic/domain"
	slotresultdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/slotresult/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

type Params struct {
	fx.In

	GenID *snowflake.Node
	Clock clock.Clock
}

type Ranker struct {
	genID *snowflake.Node
	clock clock.Clock
}

func NewRanker(p Params) organicdomain.Ranker {
	return &Ranker{genID: p.GenID, clock: p.Clock}
}

func (r *Ranker) Rank(pool []companydomain.Company, exclude map[string]struct{}, limit int) []companydomain.Company {
	if limit <= 0 {
		return nil
	}

	eligible := make([]companydomain.Company, 0, len(pool))
	for _, c := range pool {
		if !c.Active {
			continue
		}
		if _, skip := exclude[c.ID]; skip {
			continue
		}
		eligible = append(eligible, c)
	}

	slices.SortFunc(eligible, compareOrganic)
	if len(eligible) > limit {
		eligible = eligible[:limit]
	}
	return eligible
}

// compareOrganic ranks by rating, then review count, both descending, then
// the older listing, then id.
func compareOrganic(a, b companydomain.Company) int {
	if c := cmp.Compare(b.Rating, a.Rating); c != 0 {
		return c
	}
	if c := cmp.Compare(b.ReviewCount, a.ReviewCount); c != 0 {
		return c
	}
	if c := compareCreated(a.CreatedAt, b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// compareCreated puts known creation times before unknown ones.
func compareCreated(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	default:
		return a.Compare(*b)
	}
}

func (r *Ranker) Merge(
	ctx context.Context,
	placement organicdomain.Placement,
	paid []slotresultdomain.SlotResult,
	organic []companydomain.Company,
) []slotresultdomain.SlotResult {
	taken := make(map[int]slotresultdomain.SlotResult, len(paid))
	shown := make(map[string]struct{}, len(paid))
	for _, res := range paid {
		taken[res.Position] = res
		shown[res.CompanyID] = struct{}{}
	}

	now := r.clock.Now(ctx)
	merged := make([]slotresultdomain.SlotResult, 0, slotresultdomain.MaxPosition)
	next := 0
	for position := 1; position <= slotresultdomain.MaxPosition; position++ {
		if res, ok := taken[position]; ok {
			merged = append(merged, res)
			continue
		}
		for next < len(organic) {
			if _, dup := shown[organic[next].ID]; !dup {
				break
			}
			next++
		}
		if next >= len(organic) {
			continue
		}
		company := organic[next]
		next++
		shown[company.ID] = struct{}{}

		merged = append(merged, slotresultdomain.SlotResult{
			ID:        r.genID.Generate(),
			SearchID:  placement.SearchID,
			CompanyID: company.ID,
			CityID:    placement.CityID,
			NicheID:   placement.NicheID,
			Channel:   placement.Channel,
			Position:  position,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return merged
}
