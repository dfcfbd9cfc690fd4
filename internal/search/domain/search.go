package domain

import (
	"context"
	"errors"

	slotresultdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/slotresult/domain"
)

var ErrSearchNotFound = errors.New("search_not_found")

type Request struct {
	CityID          string
	NicheID         string
	Channel         slotresultdomain.Channel
	ForceVisibility bool
}

type Response struct {
	SearchID string
	Results  []slotresultdomain.SlotResult
}

type Service interface {
	// Run ranks, allocates and persists the placements for one search.
	Run(ctx context.Context, req Request) (*Response, error)
	// SettleDelivery charges a deferred-channel search once its results
	// have actually been delivered.
	SettleDelivery(ctx context.Context, searchID string) (*Response, error)
}
