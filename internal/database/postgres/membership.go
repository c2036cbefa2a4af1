package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/osse101/MallLoyalty_Go/internal/domain"
	"github.com/osse101/MallLoyalty_Go/internal/repository"
)

const (
	membershipColumns = `user_id, tier, cumulative_spending::text, tier_started_at, created_at, updated_at`
	tierChangeColumns = `id, user_id, from_tier, to_tier, reason, spending_at_change::text, created_at`
)

type membershipRepository struct {
	db *pgxpool.Pool
}

// NewMembershipRepository creates a new PostgreSQL membership repository
func NewMembershipRepository(db *pgxpool.Pool) repository.Membership {
	return &membershipRepository{db: db}
}

func scanMembership(row pgx.Row) (*domain.MembershipAccount, error) {
	var a domain.MembershipAccount
	var tier, spending string
	if err := row.Scan(&a.UserID, &tier, &spending, &a.TierStartedAt, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.Tier = domain.TierName(tier)
	d, err := parseDecimal(spending)
	if err != nil {
		return nil, err
	}
	a.CumulativeSpending = d
	return &a, nil
}

func getMembership(ctx context.Context, q querier, userID string, forUpdate bool) (*domain.MembershipAccount, error) {
	query := `SELECT ` + membershipColumns + ` FROM membership_accounts WHERE user_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	account, err := scanMembership(q.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetMembership, err)
	}
	return account, nil
}

func (r *membershipRepository) GetMembership(ctx context.Context, userID string) (*domain.MembershipAccount, error) {
	return getMembership(ctx, r.db, userID, false)
}

func (r *membershipRepository) ListTierChanges(ctx context.Context, userID string, limit int) ([]domain.TierChangeRecord, error) {
	query := `
		SELECT ` + tierChangeColumns + `
		FROM tier_change_records
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToQueryTierChanges, err)
	}
	defer rows.Close()

	records := []domain.TierChangeRecord{}
	for rows.Next() {
		var rec domain.TierChangeRecord
		var from *string
		var to, spending string
		if err := rows.Scan(&rec.ID, &rec.UserID, &from, &to, &rec.Reason, &spending, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToQueryTierChanges, err)
		}
		if from != nil {
			ft := domain.TierName(*from)
			rec.FromTier = &ft
		}
		rec.ToTier = domain.TierName(to)
		if rec.SpendingAtChange, err = parseDecimal(spending); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *membershipRepository) BeginTx(ctx context.Context) (repository.MembershipTx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToBeginTransaction, err)
	}
	return &membershipTx{pgTx: pgTx{tx: tx}}, nil
}

type membershipTx struct {
	pgTx
}

func (t *membershipTx) GetMembershipForUpdate(ctx context.Context, userID string) (*domain.MembershipAccount, error) {
	return getMembership(ctx, t.tx, userID, true)
}

func (t *membershipTx) InsertMembership(ctx context.Context, account *domain.MembershipAccount) (bool, error) {
	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	if account.TierStartedAt.IsZero() {
		account.TierStartedAt = now
	}
	account.UpdatedAt = account.CreatedAt

	query := `
		INSERT INTO membership_accounts (user_id, tier, cumulative_spending, tier_started_at, created_at, updated_at)
		VALUES ($1, $2, $3::numeric, $4, $5, $6)
		ON CONFLICT (user_id) DO NOTHING`

	tag, err := t.tx.Exec(ctx, query,
		account.UserID,
		string(account.Tier),
		account.CumulativeSpending.String(),
		account.TierStartedAt,
		account.CreatedAt,
		account.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("%s: %w", ErrMsgFailedToInsertMembership, err)
	}
	return tag.RowsAffected() == 1, nil
}

func (t *membershipTx) UpdateMembership(ctx context.Context, account *domain.MembershipAccount) error {
	query := `
		UPDATE membership_accounts
		SET tier = $2, cumulative_spending = $3::numeric, tier_started_at = $4, updated_at = NOW()
		WHERE user_id = $1
		RETURNING updated_at`

	err := t.tx.QueryRow(ctx, query,
		account.UserID,
		string(account.Tier),
		account.CumulativeSpending.String(),
		account.TierStartedAt,
	).Scan(&account.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNoMembership
		}
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpdateMembership, err)
	}
	return nil
}

func (t *membershipTx) InsertTierChange(ctx context.Context, record *domain.TierChangeRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	var from *string
	if record.FromTier != nil {
		s := string(*record.FromTier)
		from = &s
	}

	query := `
		INSERT INTO tier_change_records (user_id, from_tier, to_tier, reason, spending_at_change, created_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6)
		RETURNING id`

	err := t.tx.QueryRow(ctx, query,
		record.UserID,
		from,
		string(record.ToTier),
		record.Reason,
		record.SpendingAtChange.String(),
		record.CreatedAt,
	).Scan(&record.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToInsertTierChange, err)
	}
	return nil
}

func (t *membershipTx) InsertSpendingEvent(ctx context.Context, userID string, orderID int64, amount decimal.Decimal, at time.Time) (bool, error) {
	query := `
		INSERT INTO membership_spending_events (user_id, order_id, amount, created_at)
		VALUES ($1, $2, $3::numeric, $4)
		ON CONFLICT (user_id, order_id) DO NOTHING`

	tag, err := t.tx.Exec(ctx, query, userID, orderID, amount.String(), at)
	if err != nil {
		return false, fmt.Errorf("%s: %w", ErrMsgFailedToInsertSpending, err)
	}
	return tag.RowsAffected() == 1, nil
}
