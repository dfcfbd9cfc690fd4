package domain

import (
	"context"

	companydomain "github.com/FelipeFraul/buscai-v2-sub000/internal/company/domain"
	slotresultdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/slotresult/domain"
)

// Placement identifies the search the merged results belong to.
type Placement struct {
	SearchID string
	CityID   string
	NicheID  string
	Channel  slotresultdomain.Channel
}

type Ranker interface {
	// Rank orders the pool deterministically, dropping inactive and excluded
	// companies, and returns at most limit entries.
	Rank(pool []companydomain.Company, exclude map[string]struct{}, limit int) []companydomain.Company
	// Merge keeps paid results on their positions and fills the remaining
	// positions up to MaxPosition, in ascending order, with organic entries.
	Merge(ctx context.Context, placement Placement, paid []slotresultdomain.SlotResult, organic []companydomain.Company) []slotresultdomain.SlotResult
}
