package repository

import (
	"context"
	"errors"
	"time"

	walletdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/wallet/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() walletdomain.Repository {
	return &repo{}
}

func (r *repo) EnsureWallet(ctx context.Context, db *gorm.DB, companyID string, now time.Time) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&walletdomain.Wallet{
			CompanyID: companyID,
			CreatedAt: now,
			UpdatedAt: now,
		}).Error
}

func (r *repo) FindWallet(ctx context.Context, db *gorm.DB, companyID string) (*walletdomain.Wallet, error) {
	var wallet walletdomain.Wallet
	err := db.WithContext(ctx).Raw(
		`SELECT company_id, balance, reserved, created_at, updated_at
		 FROM company_wallets WHERE company_id = ?`,
		companyID,
	).Scan(&wallet).Error
	if err != nil {
		return nil, err
	}
	if wallet.CompanyID == "" {
		return nil, nil
	}
	return &wallet, nil
}

func (r *repo) FindWallets(ctx context.Context, db *gorm.DB, companyIDs []string) ([]walletdomain.Wallet, error) {
	if len(companyIDs) == 0 {
		return nil, nil
	}
	var wallets []walletdomain.Wallet
	err := db.WithContext(ctx).
		Where("company_id IN ?", companyIDs).
		Find(&wallets).Error
	if err != nil {
		return nil, err
	}
	return wallets, nil
}

func (r *repo) FindWalletForUpdate(ctx context.Context, db *gorm.DB, companyID string) (*walletdomain.Wallet, error) {
	var wallet walletdomain.Wallet
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("company_id = ?", companyID).
		First(&wallet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &wallet, nil
}

func (r *repo) UpdateBalance(ctx context.Context, db *gorm.DB, companyID string, balance int64, now time.Time) error {
	return db.WithContext(ctx).
		Model(&walletdomain.Wallet{}).
		Where("company_id = ?", companyID).
		Updates(map[string]any{
			"balance":    balance,
			"updated_at": now,
		}).Error
}

func (r *repo) InsertTransaction(ctx context.Context, db *gorm.DB, tx *walletdomain.Transaction) error {
	return db.WithContext(ctx).Create(tx).Error
}

func (r *repo) FindTransactionForUpdate(ctx context.Context, db *gorm.DB, id snowflake.ID) (*walletdomain.Transaction, error) {
	var tx walletdomain.Transaction
	err := db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &tx, nil
}

func (r *repo) UpdateTransactionStatus(
	ctx context.Context,
	db *gorm.DB,
	id snowflake.ID,
	status walletdomain.TransactionStatus,
	confirmedAt *time.Time,
) error {
	updates := map[string]any{"status": status}
	if confirmedAt != nil {
		updates["confirmed_at"] = *confirmedAt
	}
	return db.WithContext(ctx).
		Model(&walletdomain.Transaction{}).
		Where("id = ? AND status = ?", id, walletdomain.TransactionStatusPending).
		Updates(updates).Error
}

func (r *repo) ListTransactions(ctx context.Context, db *gorm.DB, companyID string, limit int) ([]walletdomain.Transaction, error) {
	if limit <= 0 {
		limit = 50
	}
	var txs []walletdomain.Transaction
	err := db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Order("occurred_at desc, id desc").
		Limit(limit).
		Find(&txs).Error
	if err != nil {
		return nil, err
	}
	return txs, nil
}

func (r *repo) SumConfirmedDebits(ctx context.Context, db *gorm.DB, filter walletdomain.SpendFilter) (map[string]int64, error) {
	out := make(map[string]int64, len(filter.CompanyIDs))
	if len(filter.CompanyIDs) == 0 {
		return out, nil
	}

	var rows []struct {
		CompanyID string
		Total     int64
	}
	err := db.WithContext(ctx).
		Model(&walletdomain.Transaction{}).
		Select("company_id, COALESCE(SUM(amount), 0) AS total").
		Where("company_id IN ?", filter.CompanyIDs).
		Where("city_id = ? AND niche_id = ?", filter.CityID, filter.NicheID).
		Where("type = ? AND status = ?", walletdomain.TransactionTypeSearchDebit, walletdomain.TransactionStatusConfirmed).
		Where("occurred_at >= ? AND occurred_at < ?", filter.From.UTC(), filter.To.UTC()).
		Group("company_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.CompanyID] = row.Total
	}
	return out, nil
}
