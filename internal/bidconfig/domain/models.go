package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrUnknownMode       = errors.New("unknown_bid_mode")
	ErrInvalidTarget     = errors.New("invalid_target_position")
	ErrConfigNotFound    = errors.New("bid_configuration_not_found")
	ErrMissingIdentifier = errors.New("missing_identifier")
)

// PaidPositions is the number of billable slots per search.
const PaidPositions = 3

type Mode string

const (
	ModeManual Mode = "manual"
	ModeAuto   Mode = "auto"
)

// ParseMode accepts the stored representation, including the legacy
// "automatic" alias, and returns the canonical mode.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "manual":
		return ModeManual, nil
	case "auto", "automatic":
		return ModeAuto, nil
	default:
		return "", ErrUnknownMode
	}
}

type BidConfiguration struct {
	ID             string     `gorm:"primaryKey;type:text"`
	CompanyID      string     `gorm:"type:text;not null;index"`
	CityID         string     `gorm:"type:text;not null;index:idx_bid_config_market"`
	NicheID        string     `gorm:"type:text;not null;index:idx_bid_config_market"`
	Mode           string     `gorm:"type:text;not null;default:manual"`
	BidPosition1   int64      `gorm:"not null;default:0"`
	BidPosition2   int64      `gorm:"not null;default:0"`
	BidPosition3   int64      `gorm:"not null;default:0"`
	TargetPosition *int       `gorm:""`
	TargetShare    *int       `gorm:""`
	DailyBudget    *int64     `gorm:""`
	PauseOnLimit   bool       `gorm:"not null;default:false"`
	Active         bool       `gorm:"not null"`
	CreatedAt      *time.Time `gorm:""`
}

func (BidConfiguration) TableName() string { return "bid_configurations" }

// Strategy is the closed set of bidding behaviours a configuration can carry.
type Strategy interface {
	isStrategy()
}

type Manual struct {
	Bids [PaidPositions]int64
}

// BidAt returns the manual bid for a 1-based position, or 0 when out of range.
func (m Manual) BidAt(position int) int64 {
	if position < 1 || position > PaidPositions {
		return 0
	}
	return m.Bids[position-1]
}

type Auto struct {
	TargetPosition int
	TargetShare    int
}

func (Manual) isStrategy() {}
func (Auto) isStrategy()   {}

// Strategy resolves the stored row into its tagged variant.
func (c BidConfiguration) Strategy() (Strategy, error) {
	mode, err := ParseMode(c.Mode)
	if err != nil {
		return nil, err
	}
	switch mode {
	case ModeAuto:
		if c.TargetPosition == nil || *c.TargetPosition < 1 || *c.TargetPosition > PaidPositions {
			return nil, ErrInvalidTarget
		}
		auto := Auto{TargetPosition: *c.TargetPosition}
		if c.TargetShare != nil {
			auto.TargetShare = *c.TargetShare
		}
		return auto, nil
	default:
		return Manual{Bids: [PaidPositions]int64{c.BidPosition1, c.BidPosition2, c.BidPosition3}}, nil
	}
}

// BudgetGated reports whether the daily budget gate applies to this configuration.
func (c BidConfiguration) BudgetGated() bool {
	return c.PauseOnLimit && c.DailyBudget != nil && *c.DailyBudget > 0
}
