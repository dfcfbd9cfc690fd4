package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

var (
	ErrInvalidCompany         = errors.New("invalid_company")
	ErrInvalidAmount          = errors.New("invalid_amount")
	ErrTransactionNotFound    = errors.New("transaction_not_found")
	ErrNotRechargeTransaction = errors.New("not_recharge_transaction")
)

type Service interface {
	// ReserveCharge atomically debits amount from the company's wallet.
	// Insufficient funds is reported through ReserveResult, not as an error.
	ReserveCharge(ctx context.Context, companyID string, amount int64, reason string, meta ChargeMetadata) (ReserveResult, error)

	CreateRecharge(ctx context.Context, companyID string, amount int64, reason string) (*Transaction, error)
	ConfirmRecharge(ctx context.Context, transactionID snowflake.ID) (*Transaction, error)
	CancelRecharge(ctx context.Context, transactionID snowflake.ID) (*Transaction, error)

	CanCoverCharge(ctx context.Context, companyID string, amount int64) (Coverage, error)

	GetWallet(ctx context.Context, companyID string) (Wallet, error)
	GetWallets(ctx context.Context, companyIDs []string) (map[string]Wallet, error)
	ListTransactions(ctx context.Context, companyID string, limit int) ([]Transaction, error)

	// SpentBetween sums confirmed search debits per company in [from, to).
	SpentBetween(ctx context.Context, filter SpendFilter) (map[string]int64, error)
}

type Repository interface {
	EnsureWallet(ctx context.Context, db *gorm.DB, companyID string, now time.Time) error
	FindWallet(ctx context.Context, db *gorm.DB, companyID string) (*Wallet, error)
	FindWallets(ctx context.Context, db *gorm.DB, companyIDs []string) ([]Wallet, error)
	FindWalletForUpdate(ctx context.Context, db *gorm.DB, companyID string) (*Wallet, error)
	UpdateBalance(ctx context.Context, db *gorm.DB, companyID string, balance int64, now time.Time) error

	InsertTransaction(ctx context.Context, db *gorm.DB, tx *Transaction) error
	FindTransactionForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Transaction, error)
	UpdateTransactionStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status TransactionStatus, confirmedAt *time.Time) error
	ListTransactions(ctx context.Context, db *gorm.DB, companyID string, limit int) ([]Transaction, error)
	SumConfirmedDebits(ctx context.Context, db *gorm.DB, filter SpendFilter) (map[string]int64, error)
}
