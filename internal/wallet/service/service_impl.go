package service

import (
	"context"
	"strings"
	"time"

	"github.com/FelipeFraul/buscai-v2-sub000/internal/clock"
	"github.com/FelipeFraul/buscai-v2-sub000/internal/observability"
	walletdomain "github.com/FelipeFraul/buscai-v2-sub000/internal/wallet/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  walletdomain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  walletdomain.Repository
}

func NewService(p Params) walletdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("wallet.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) ReserveCharge(
	ctx context.Context,
	companyID string,
	amount int64,
	reason string,
	meta walletdomain.ChargeMetadata,
) (walletdomain.ReserveResult, error) {
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return walletdomain.ReserveResult{}, walletdomain.ErrInvalidCompany
	}
	if amount <= 0 {
		return walletdomain.ReserveResult{}, walletdomain.ErrInvalidAmount
	}

	now := s.clock.Now(ctx)
	var result walletdomain.ReserveResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		wallet, err := s.lockWallet(ctx, tx, companyID, now)
		if err != nil {
			return err
		}

		if wallet.Available() < amount {
			result = walletdomain.ReserveResult{
				Status:  walletdomain.ReserveStatusInsufficientFunds,
				Balance: wallet.Balance,
			}
			return nil
		}

		newBalance := wallet.Balance - amount
		if err := s.repo.UpdateBalance(ctx, tx, companyID, newBalance, now); err != nil {
			return err
		}

		confirmedAt := now
		record := &walletdomain.Transaction{
			ID:          s.genID.Generate(),
			CompanyID:   companyID,
			CityID:      meta.CityID,
			NicheID:     meta.NicheID,
			Type:        walletdomain.TransactionTypeSearchDebit,
			Amount:      amount,
			Status:      walletdomain.TransactionStatusConfirmed,
			Reason:      strings.TrimSpace(reason),
			Metadata:    meta.JSON(),
			OccurredAt:  now,
			ConfirmedAt: &confirmedAt,
		}
		if err := s.repo.InsertTransaction(ctx, tx, record); err != nil {
			return err
		}

		result = walletdomain.ReserveResult{
			Status:      walletdomain.ReserveStatusReserved,
			Balance:     newBalance,
			Transaction: record,
		}
		return nil
	})
	if err != nil {
		s.log.Error("reserve charge failed",
			zap.String("company_id", companyID),
			zap.Int64("amount", amount),
			zap.Error(err),
		)
		return walletdomain.ReserveResult{}, err
	}

	observability.WalletReservationsTotal.WithLabelValues(string(result.Status)).Inc()
	if !result.Reserved() {
		s.log.Info("charge rejected: insufficient funds",
			zap.String("company_id", companyID),
			zap.Int64("amount", amount),
			zap.Int64("balance", result.Balance),
			zap.String("search_id", meta.SearchID),
		)
	}
	return result, nil
}

func (s *Service) CreateRecharge(ctx context.Context, companyID string, amount int64, reason string) (*walletdomain.Transaction, error) {
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return nil, walletdomain.ErrInvalidCompany
	}
	if amount <= 0 {
		return nil, walletdomain.ErrInvalidAmount
	}

	now := s.clock.Now(ctx)
	record := &walletdomain.Transaction{
		ID:         s.genID.Generate(),
		CompanyID:  companyID,
		Type:       walletdomain.TransactionTypeRecharge,
		Amount:     amount,
		Status:     walletdomain.TransactionStatusPending,
		Reason:     strings.TrimSpace(reason),
		OccurredAt: now,
	}
	if err := s.repo.InsertTransaction(ctx, s.db, record); err != nil {
		return nil, err
	}

	observability.WalletRechargesTotal.WithLabelValues("created").Inc()
	return record, nil
}

// ConfirmRecharge credits a pending recharge exactly once. Confirming an
// already confirmed or cancelled recharge returns it unchanged.
func (s *Service) ConfirmRecharge(ctx context.Context, transactionID snowflake.ID) (*walletdomain.Transaction, error) {
	now := s.clock.Now(ctx)
	var (
		out      *walletdomain.Transaction
		credited bool
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := s.repo.FindTransactionForUpdate(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		if record == nil {
			return walletdomain.ErrTransactionNotFound
		}
		if record.Type != walletdomain.TransactionTypeRecharge {
			return walletdomain.ErrNotRechargeTransaction
		}
		if record.Status != walletdomain.TransactionStatusPending {
			out = record
			return nil
		}

		wallet, err := s.lockWallet(ctx, tx, record.CompanyID, now)
		if err != nil {
			return err
		}
		if err := s.repo.UpdateBalance(ctx, tx, record.CompanyID, wallet.Balance+record.Amount, now); err != nil {
			return err
		}
		if err := s.repo.UpdateTransactionStatus(ctx, tx, record.ID, walletdomain.TransactionStatusConfirmed, &now); err != nil {
			return err
		}

		record.Status = walletdomain.TransactionStatusConfirmed
		record.ConfirmedAt = &now
		out = record
		credited = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if credited {
		observability.WalletRechargesTotal.WithLabelValues("confirmed").Inc()
		s.log.Info("recharge confirmed",
			zap.String("transaction_id", out.ID.String()),
			zap.String("company_id", out.CompanyID),
			zap.Int64("amount", out.Amount),
		)
	}
	return out, nil
}

func (s *Service) CancelRecharge(ctx context.Context, transactionID snowflake.ID) (*walletdomain.Transaction, error) {
	var out *walletdomain.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		record, err := s.repo.FindTransactionForUpdate(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		if record == nil {
			return walletdomain.ErrTransactionNotFound
		}
		if record.Type != walletdomain.TransactionTypeRecharge {
			return walletdomain.ErrNotRechargeTransaction
		}
		if record.Status == walletdomain.TransactionStatusPending {
			if err := s.repo.UpdateTransactionStatus(ctx, tx, record.ID, walletdomain.TransactionStatusCancelled, nil); err != nil {
				return err
			}
			record.Status = walletdomain.TransactionStatusCancelled
			observability.WalletRechargesTotal.WithLabelValues("cancelled").Inc()
		}
		out = record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) CanCoverCharge(ctx context.Context, companyID string, amount int64) (walletdomain.Coverage, error) {
	wallet, err := s.GetWallet(ctx, companyID)
	if err != nil {
		return walletdomain.Coverage{}, err
	}
	return walletdomain.CoverageFor(wallet, amount), nil
}

// GetWallet returns a zero wallet for companies that never transacted; the
// row itself is only created by the first monetary operation.
func (s *Service) GetWallet(ctx context.Context, companyID string) (walletdomain.Wallet, error) {
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return walletdomain.Wallet{}, walletdomain.ErrInvalidCompany
	}
	wallet, err := s.repo.FindWallet(ctx, s.db, companyID)
	if err != nil {
		return walletdomain.Wallet{}, err
	}
	if wallet == nil {
		return walletdomain.Wallet{CompanyID: companyID}, nil
	}
	return *wallet, nil
}

func (s *Service) GetWallets(ctx context.Context, companyIDs []string) (map[string]walletdomain.Wallet, error) {
	out := make(map[string]walletdomain.Wallet, len(companyIDs))
	wallets, err := s.repo.FindWallets(ctx, s.db, companyIDs)
	if err != nil {
		return nil, err
	}
	for _, w := range wallets {
		out[w.CompanyID] = w
	}
	for _, id := range companyIDs {
		if _, ok := out[id]; !ok {
			out[id] = walletdomain.Wallet{CompanyID: id}
		}
	}
	return out, nil
}

func (s *Service) ListTransactions(ctx context.Context, companyID string, limit int) ([]walletdomain.Transaction, error) {
	return s.repo.ListTransactions(ctx, s.db, strings.TrimSpace(companyID), limit)
}

func (s *Service) SpentBetween(ctx context.Context, filter walletdomain.SpendFilter) (map[string]int64, error) {
	return s.repo.SumConfirmedDebits(ctx, s.db, filter)
}

func (s *Service) lockWallet(ctx context.Context, tx *gorm.DB, companyID string, now time.Time) (*walletdomain.Wallet, error) {
	if err := s.repo.EnsureWallet(ctx, tx, companyID, now); err != nil {
		return nil, err
	}
	wallet, err := s.repo.FindWalletForUpdate(ctx, tx, companyID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return wallet, nil
}
