package points

import (
	"context"
	"fmt"
	"time"

	"github.com/osse101/MallLoyalty_Go/internal/domain"
	"github.com/osse101/MallLoyalty_Go/internal/event"
	"github.com/osse101/MallLoyalty_Go/internal/logger"
	"github.com/osse101/MallLoyalty_Go/internal/metrics"
	"github.com/osse101/MallLoyalty_Go/internal/repository"
)

// SweepReport summarises a sweep over every account with expired lots
type SweepReport struct {
	Accounts      int           `json:"accounts"`
	PointsExpired int           `json:"points_expired"`
	Failed        []string      `json:"failed,omitempty"`
	Duration      time.Duration `json:"duration"`
}

// SweepExpired expires every lot of the user that passed its expiry date and
// returns the number of points removed. Each lot gets its own expiration
// entry, and lots already marked expired are never processed again.
func (s *service) SweepExpired(ctx context.Context, userID string) (int, error) {
	unlock := s.lockManager.Lock(lockKey(userID))
	defer unlock()

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer repository.SafeRollback(ctx, tx)

	account, err := tx.GetAccountForUpdate(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to get points account: %w", err)
	}
	if account == nil {
		return 0, nil
	}

	expired, err := s.expireLots(ctx, tx, account, s.now())
	if err != nil {
		return 0, err
	}
	if len(expired) == 0 {
		return 0, nil
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	total := 0
	for _, txn := range expired {
		total -= txn.Amount
	}
	logger.FromContext(ctx).Info(LogMsgPointsExpired, "user_id", userID, "points", total, "lots", len(expired))
	s.publishExpired(ctx, userID, expired)
	return total, nil
}

// SweepAllExpired sweeps accounts one at a time, each in its own transaction,
// so a failure on one account does not block the rest.
func (s *service) SweepAllExpired(ctx context.Context) (*SweepReport, error) {
	log := logger.FromContext(ctx)
	start := time.Now()

	users, err := s.repo.ListUsersWithExpiredLots(ctx, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts with expired lots: %w", err)
	}
	log.Info(LogMsgSweepStarted, "accounts", len(users))

	report := &SweepReport{}
	for _, userID := range users {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		n, err := s.SweepExpired(ctx, userID)
		if err != nil {
			log.Error(LogMsgSweepAccountFailed, "user_id", userID, "error", err)
			report.Failed = append(report.Failed, userID)
			continue
		}
		if n > 0 {
			report.Accounts++
			report.PointsExpired += n
		}
	}

	report.Duration = time.Since(start)
	metrics.ExpirySweepDuration.Observe(report.Duration.Seconds())
	log.Info(LogMsgSweepCompleted, "accounts", report.Accounts, "points", report.PointsExpired, "failed", len(report.Failed), "duration", report.Duration)
	return report, nil
}

// expireLots marks the account's overdue lots expired inside tx and debits
// the remaining points from the account. The caller commits.
func (s *service) expireLots(ctx context.Context, tx repository.PointsTx, account *domain.PointsAccount, now time.Time) ([]domain.PointsTransaction, error) {
	lots, err := tx.ExpiredLotsForUpdate(ctx, account.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired lots: %w", err)
	}
	if len(lots) == 0 {
		return nil, nil
	}

	expired := make([]domain.PointsTransaction, 0, len(lots))
	for i := range lots {
		lot := &lots[i]
		pts := lot.RemainingPoints

		account.AvailablePoints -= pts
		if account.AvailablePoints < 0 {
			logger.FromContext(ctx).Warn(LogMsgBalanceBelowExpiry, "account_id", account.ID, "lot_id", lot.ID, "shortfall", -account.AvailablePoints)
			account.AvailablePoints = 0
		}

		lot.IsExpired = true
		if err := tx.UpdateLot(ctx, lot); err != nil {
			return nil, fmt.Errorf("failed to mark lot expired: %w", err)
		}

		txn := domain.PointsTransaction{
			AccountID:    account.ID,
			Type:         domain.TransactionExpiration,
			Amount:       -pts,
			BalanceAfter: account.AvailablePoints,
			Description:  fmt.Sprintf(DescExpirationFormat, lot.EarnedAt.Format(ExpirationDateLayout)),
			ReferenceID:  domain.Ref(fmt.Sprintf("%s%d", RefPrefixExpiration, lot.ID)),
			CreatedAt:    now,
		}
		if err := tx.InsertTransaction(ctx, &txn); err != nil {
			return nil, fmt.Errorf("failed to record expiration: %w", err)
		}
		expired = append(expired, txn)
	}

	if err := tx.UpdateAccount(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to update points account: %w", err)
	}
	return expired, nil
}

func (s *service) publishExpired(ctx context.Context, userID string, expired []domain.PointsTransaction) {
	for _, txn := range expired {
		ref := ""
		if txn.ReferenceID != nil {
			ref = *txn.ReferenceID
		}
		s.publish(ctx, event.NewPointsEvent(event.PointsExpired, userID, string(txn.Type), txn.Amount, txn.BalanceAfter, ref))
	}
}
