package domain

import (
	"context"
	"errors"

	rankingdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/ranking/domain"
	slotresultdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/slotresult/domain"
)

var (
	ErrMissingRanking  = errors.New("missing_ranking")
	ErrMissingSearchID = errors.New("missing_search_id")
)

type Context struct {
	CityID  string
	NicheID string
	// ForceVisibility selects candidates whose wallet cannot cover the bid,
	// without billing them. Used for demos and testing.
	ForceVisibility bool
	Channel         slotresultdomain.Channel
}

// Outcome labels what happened to one candidate during allocation.
type Outcome string

const (
	OutcomeSelected        Outcome = "selected"
	OutcomeSelectedForced  Outcome = "selected_unbilled"
	OutcomeAlreadySelected Outcome = "already_selected"
	OutcomeNoBid           Outcome = "no_bid"
	OutcomeBudgetBlocked   Outcome = "budget_blocked"
	OutcomeFundsBlocked    Outcome = "funds_blocked"
)

type Service interface {
	// Allocate picks at most one winner per paid position. Partial results
	// are possible when the market has fewer eligible bidders than slots.
	Allocate(ctx context.Context, ranking *rankingdomain.Ranking, searchID string, actx Context) ([]slotresultdomain.SlotResult, error)
}
