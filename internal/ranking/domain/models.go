package domain

import (
	"context"
	"errors"
	"time"

	bidconfigdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/bidconfig/domain"
	companydomain "github.com/FelipeFraul/buscai-v2-sub000/internal/company/domain"
)

var ErrInvalidMarket = errors.New("invalid_market")

// MarketSnapshot is the highest manual bid observed at each paid position.
type MarketSnapshot [bidconfigdomain.PaidPositions]int64

func (m MarketSnapshot) At(position int) int64 {
	if position < 1 || position > len(m) {
		return 0
	}
	return m[position-1]
}

// AutoBid records how an automatic bidder's price was derived.
type AutoBid struct {
	TargetPosition int
	Threshold      int64
	Step           int64
	EffectiveBid   int64
	UsingFloor     bool
}

type Candidate struct {
	CompanyID string
	ConfigID  string
	Position  int
	Bid       int64
	Mode      bidconfigdomain.Mode
	Market    MarketSnapshot
	AutoBid   *AutoBid
	CreatedAt *time.Time
	Config    *bidconfigdomain.BidConfiguration
}

// Ranking is the per-market result of one ranking call. Paid lists are keyed
// by position 1..3; the first entry of each list is that position's head.
type Ranking struct {
	CityID      string
	NicheID     string
	Market      MarketSnapshot
	Paid        map[int][]Candidate
	OrganicPool []companydomain.Company
	// Rejected lists configuration ids that could not be interpreted.
	Rejected []string
}

// Candidates returns a copy of the ordered list for a position.
func (r *Ranking) Candidates(position int) []Candidate {
	if r == nil {
		return nil
	}
	list := r.Paid[position]
	out := make([]Candidate, len(list))
	copy(out, list)
	return out
}

type Service interface {
	GetRanking(ctx context.Context, cityID, nicheID string) (*Ranking, error)
}
