package service

import (
	rankingdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/ranking/domain"
)

// CalculateAutoBid prices an automatic bidder one step above the market at
// its target position, falling back to the configured floor when no manual
// bid exists there.
func CalculateAutoBid(target int, market rankingdomain.MarketSnapshot, cfg rankingdomain.AutoBidConfig) rankingdomain.AutoBid {
	step := cfg.Step
	if step <= 0 {
		step = rankingdomain.DefaultAutoBidStep
	}

	threshold := market.At(target)
	usingFloor := false
	if threshold <= 0 {
		threshold = cfg.FloorAt(target)
		usingFloor = true
	}

	return rankingdomain.AutoBid{
		TargetPosition: target,
		Threshold:      threshold,
		Step:           step,
		EffectiveBid:   RoundUpToStep(threshold+1, step),
		UsingFloor:     usingFloor,
	}
}

// RoundUpToStep returns ceil(v/step)*step for positive v and step.
func RoundUpToStep(v, step int64) int64 {
	if step <= 0 {
		return v
	}
	if v <= 0 {
		return 0
	}
	return ((v + step - 1) / step) * step
}
