// Package domain contains the wallet ledger models and contracts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type TransactionType string

const (
	TransactionTypeSearchDebit         TransactionType = "search_debit"
	TransactionTypeRecharge            TransactionType = "recharge"
	TransactionTypeSubscriptionRenewal TransactionType = "subscription_renewal"
	TransactionTypeSubscriptionFailed  TransactionType = "subscription_failed"
	TransactionTypeCredit              TransactionType = "credit"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusConfirmed TransactionStatus = "confirmed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// Wallet holds a company's prepaid balance in minor currency units.
// Balance - Reserved must never go negative.
type Wallet struct {
	CompanyID string    `json:"company_id" gorm:"type:text;primaryKey"`
	Balance   int64     `json:"balance" gorm:"not null;default:0"`
	Reserved  int64     `json:"reserved" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	UpdatedAt time.Time `json:"updated_at" gorm:"not null"`
}

func (Wallet) TableName() string { return "company_wallets" }

func (w Wallet) Available() int64 {
	return w.Balance - w.Reserved
}

// Transaction is an append-only ledger row. The only permitted mutation is
// the status transition out of pending.
type Transaction struct {
	ID          snowflake.ID      `json:"id" gorm:"primaryKey"`
	CompanyID   string            `json:"company_id" gorm:"type:text;not null;index:idx_wallet_tx_spend,priority:1"`
	CityID      string            `json:"city_id" gorm:"type:text;not null;default:'';index:idx_wallet_tx_spend,priority:2"`
	NicheID     string            `json:"niche_id" gorm:"type:text;not null;default:'';index:idx_wallet_tx_spend,priority:3"`
	Type        TransactionType   `json:"type" gorm:"type:text;not null"`
	Amount      int64             `json:"amount" gorm:"not null"`
	Status      TransactionStatus `json:"status" gorm:"type:text;not null"`
	Reason      string            `json:"reason" gorm:"type:text"`
	Metadata    datatypes.JSONMap `json:"metadata" gorm:"type:jsonb"`
	OccurredAt  time.Time         `json:"occurred_at" gorm:"not null;index:idx_wallet_tx_spend,priority:4"`
	ConfirmedAt *time.Time        `json:"confirmed_at"`
}

func (Transaction) TableName() string { return "wallet_transactions" }

// ChargeMetadata identifies the search placement a debit pays for.
type ChargeMetadata struct {
	SearchID string
	Position int
	CityID   string
	NicheID  string
	Channel  string
}

// JSON renders the metadata stored on the ledger row.
func (m ChargeMetadata) JSON() datatypes.JSONMap {
	out := datatypes.JSONMap{}
	if m.SearchID != "" {
		out["search_id"] = m.SearchID
	}
	if m.Position > 0 {
		out["position"] = m.Position
	}
	if m.CityID != "" {
		out["city_id"] = m.CityID
	}
	if m.NicheID != "" {
		out["niche_id"] = m.NicheID
	}
	if m.Channel != "" {
		out["channel"] = m.Channel
	}
	return out
}

type ReserveStatus string

const (
	ReserveStatusReserved          ReserveStatus = "reserved"
	ReserveStatusInsufficientFunds ReserveStatus = "insufficient_funds"
)

type ReserveResult struct {
	Status      ReserveStatus
	Balance     int64
	Transaction *Transaction
}

func (r ReserveResult) Reserved() bool {
	return r.Status == ReserveStatusReserved
}

const (
	CoverageReasonOK                    = "ok"
	CoverageReasonInsufficientAvailable = "insufficient_available"
	CoverageReasonInvalidAmount         = "invalid_amount"
)

type Coverage struct {
	OK        bool
	Balance   int64
	Reserved  int64
	Available int64
	Reason    string
}

// CoverageFor evaluates whether w can pay amount without mutating anything.
func CoverageFor(w Wallet, amount int64) Coverage {
	cov := Coverage{
		Balance:   w.Balance,
		Reserved:  w.Reserved,
		Available: w.Available(),
	}
	switch {
	case amount <= 0:
		cov.Reason = CoverageReasonInvalidAmount
	case cov.Available >= amount:
		cov.OK = true
		cov.Reason = CoverageReasonOK
	default:
		cov.Reason = CoverageReasonInsufficientAvailable
	}
	return cov
}

// SpendFilter selects confirmed search debits for one company placement.
type SpendFilter struct {
	CompanyIDs []string
	CityID     string
	NicheID    string
	From       time.Time
	To         time.Time
}
