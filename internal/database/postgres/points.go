package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/MallLoyalty_Go/internal/domain"
	"github.com/osse101/MallLoyalty_Go/internal/repository"
)

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	accountColumns     = `id, user_id, available_points, total_points, lifetime_earned, lifetime_redeemed, created_at, updated_at`
	transactionColumns = `id, account_id, transaction_type, points, balance_after, description, reference_id, created_at`
	lotColumns         = `id, account_id, points_amount, remaining_points, earned_at, expires_at, is_expired, is_fully_redeemed, transaction_id`
	ruleColumns        = `id, rule_type, points_amount, is_percentage, min_order_amount::text, max_points_per_transaction, is_active, description`
)

type pointsRepository struct {
	db *pgxpool.Pool
}

// NewPointsRepository creates a new PostgreSQL points ledger repository
func NewPointsRepository(db *pgxpool.Pool) repository.Points {
	return &pointsRepository{db: db}
}

func scanAccount(row pgx.Row) (*domain.PointsAccount, error) {
	var a domain.PointsAccount
	err := row.Scan(&a.ID, &a.UserID, &a.AvailablePoints, &a.TotalPoints, &a.LifetimeEarned, &a.LifetimeRedeemed, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanTransaction(row pgx.Row) (*domain.PointsTransaction, error) {
	var t domain.PointsTransaction
	var txType string
	err := row.Scan(&t.ID, &t.AccountID, &txType, &t.Amount, &t.BalanceAfter, &t.Description, &t.ReferenceID, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	t.Type = domain.TransactionType(txType)
	return &t, nil
}

func scanLot(row pgx.Row) (*domain.PointsLot, error) {
	var l domain.PointsLot
	err := row.Scan(&l.ID, &l.AccountID, &l.PointsAmount, &l.RemainingPoints, &l.EarnedAt, &l.ExpiresAt, &l.IsExpired, &l.IsFullyRedeemed, &l.TransactionID)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func scanRule(row pgx.Row) (*domain.PointsRule, error) {
	var r domain.PointsRule
	var ruleType string
	var minOrder *string
	err := row.Scan(&r.ID, &ruleType, &r.PointsAmount, &r.IsPercentage, &minOrder, &r.MaxPointsPerTransaction, &r.IsActive, &r.Description)
	if err != nil {
		return nil, err
	}
	r.RuleType = domain.RuleType(ruleType)
	if r.MinOrderAmount, err = parseDecimalPtr(minOrder); err != nil {
		return nil, err
	}
	return &r, nil
}

func collectLots(rows pgx.Rows) ([]domain.PointsLot, error) {
	defer rows.Close()
	lots := []domain.PointsLot{}
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, err
		}
		lots = append(lots, *l)
	}
	return lots, rows.Err()
}

func getAccount(ctx context.Context, q querier, userID string, forUpdate bool) (*domain.PointsAccount, error) {
	query := `SELECT ` + accountColumns + ` FROM points_accounts WHERE user_id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}
	account, err := scanAccount(q.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetPointsAccount, err)
	}
	return account, nil
}

func (r *pointsRepository) GetAccount(ctx context.Context, userID string) (*domain.PointsAccount, error) {
	return getAccount(ctx, r.db, userID, false)
}

func (r *pointsRepository) ListTransactions(ctx context.Context, accountID int64, limit int) ([]domain.PointsTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM points_transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2`

	rows, err := r.db.Query(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToQueryTransactions, err)
	}
	defer rows.Close()

	txns := []domain.PointsTransaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToQueryTransactions, err)
		}
		txns = append(txns, *t)
	}
	return txns, rows.Err()
}

func (r *pointsRepository) FindTransaction(ctx context.Context, accountID int64, txType domain.TransactionType, referenceID string) (*domain.PointsTransaction, error) {
	query := `
		SELECT ` + transactionColumns + `
		FROM points_transactions
		WHERE account_id = $1 AND transaction_type = $2 AND reference_id = $3`

	t, err := scanTransaction(r.db.QueryRow(ctx, query, accountID, string(txType), referenceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToQueryTransactions, err)
	}
	return t, nil
}

func (r *pointsRepository) ListLots(ctx context.Context, accountID int64) ([]domain.PointsLot, error) {
	query := `SELECT ` + lotColumns + ` FROM points_lots WHERE account_id = $1 ORDER BY expires_at, id`
	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToQueryLots, err)
	}
	lots, err := collectLots(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToQueryLots, err)
	}
	return lots, nil
}

func (r *pointsRepository) SumExpiring(ctx context.Context, accountID int64, from, to time.Time) (int, error) {
	query := `
		SELECT COALESCE(SUM(remaining_points), 0)
		FROM points_lots
		WHERE account_id = $1
		  AND NOT is_expired
		  AND remaining_points > 0
		  AND expires_at >= $2
		  AND expires_at <= $3`

	var total int64
	if err := r.db.QueryRow(ctx, query, accountID, from, to).Scan(&total); err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgFailedToSumExpiring, err)
	}
	return int(total), nil
}

func (r *pointsRepository) ListUsersWithExpiredLots(ctx context.Context, now time.Time) ([]string, error) {
	query := `
		SELECT DISTINCT a.user_id
		FROM points_lots l
		JOIN points_accounts a ON a.id = l.account_id
		WHERE NOT l.is_expired
		  AND l.remaining_points > 0
		  AND l.expires_at < $1
		ORDER BY a.user_id`

	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToQueryExpiredAccounts, err)
	}
	users, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToQueryExpiredAccounts, err)
	}
	return users, nil
}

func (r *pointsRepository) GetActiveRule(ctx context.Context, ruleType domain.RuleType) (*domain.PointsRule, error) {
	query := `SELECT ` + ruleColumns + ` FROM points_rules WHERE rule_type = $1 AND is_active`
	rule, err := scanRule(r.db.QueryRow(ctx, query, string(ruleType)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToGetRule, err)
	}
	return rule, nil
}

func (r *pointsRepository) ListRules(ctx context.Context) ([]domain.PointsRule, error) {
	rows, err := r.db.Query(ctx, `SELECT `+ruleColumns+` FROM points_rules ORDER BY rule_type`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToQueryRules, err)
	}
	defer rows.Close()

	rules := []domain.PointsRule{}
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ErrMsgFailedToQueryRules, err)
		}
		rules = append(rules, *rule)
	}
	return rules, rows.Err()
}

func (r *pointsRepository) UpsertRule(ctx context.Context, rule *domain.PointsRule) error {
	query := `
		INSERT INTO points_rules (rule_type, points_amount, is_percentage, min_order_amount, max_points_per_transaction, is_active, description)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)
		ON CONFLICT (rule_type) DO UPDATE SET
			points_amount = EXCLUDED.points_amount,
			is_percentage = EXCLUDED.is_percentage,
			min_order_amount = EXCLUDED.min_order_amount,
			max_points_per_transaction = EXCLUDED.max_points_per_transaction,
			is_active = EXCLUDED.is_active,
			description = EXCLUDED.description
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		string(rule.RuleType),
		rule.PointsAmount,
		rule.IsPercentage,
		decimalArg(rule.MinOrderAmount),
		rule.MaxPointsPerTransaction,
		rule.IsActive,
		rule.Description,
	).Scan(&rule.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpsertRule, err)
	}
	return nil
}

func (r *pointsRepository) BeginTx(ctx context.Context) (repository.PointsTx, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToBeginTransaction, err)
	}
	return &pointsTx{pgTx: pgTx{tx: tx}}, nil
}

type pointsTx struct {
	pgTx
}

func (t *pointsTx) GetAccountForUpdate(ctx context.Context, userID string) (*domain.PointsAccount, error) {
	return getAccount(ctx, t.tx, userID, true)
}

func (t *pointsTx) GetOrCreateAccountForUpdate(ctx context.Context, userID string) (*domain.PointsAccount, error) {
	_, err := t.tx.Exec(ctx, `INSERT INTO points_accounts (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToCreatePointsAccount, err)
	}
	account, err := getAccount(ctx, t.tx, userID, true)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToCreatePointsAccount, domain.ErrAccountNotFound)
	}
	return account, nil
}

func (t *pointsTx) UpdateAccount(ctx context.Context, account *domain.PointsAccount) error {
	query := `
		UPDATE points_accounts
		SET available_points = $2, total_points = $3, lifetime_earned = $4, lifetime_redeemed = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := t.tx.QueryRow(ctx, query,
		account.ID,
		account.AvailablePoints,
		account.TotalPoints,
		account.LifetimeEarned,
		account.LifetimeRedeemed,
	).Scan(&account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpdatePointsAccount, err)
	}
	return nil
}

func (t *pointsTx) ReferenceExists(ctx context.Context, accountID int64, txType domain.TransactionType, referenceID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM points_transactions
			WHERE account_id = $1 AND transaction_type = $2 AND reference_id = $3
		)`

	var exists bool
	if err := t.tx.QueryRow(ctx, query, accountID, string(txType), referenceID).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", ErrMsgFailedToCheckReference, err)
	}
	return exists, nil
}

func (t *pointsTx) InsertTransaction(ctx context.Context, txn *domain.PointsTransaction) error {
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO points_transactions (account_id, transaction_type, points, balance_after, description, reference_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`

	err := t.tx.QueryRow(ctx, query,
		txn.AccountID,
		string(txn.Type),
		txn.Amount,
		txn.BalanceAfter,
		txn.Description,
		txn.ReferenceID,
		txn.CreatedAt,
	).Scan(&txn.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateReference, *txn.ReferenceID)
		}
		return fmt.Errorf("%s: %w", ErrMsgFailedToInsertTransaction, err)
	}
	return nil
}

func (t *pointsTx) InsertLot(ctx context.Context, lot *domain.PointsLot) error {
	query := `
		INSERT INTO points_lots (account_id, points_amount, remaining_points, earned_at, expires_at, is_expired, is_fully_redeemed, transaction_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err := t.tx.QueryRow(ctx, query,
		lot.AccountID,
		lot.PointsAmount,
		lot.RemainingPoints,
		lot.EarnedAt,
		lot.ExpiresAt,
		lot.IsExpired,
		lot.IsFullyRedeemed,
		lot.TransactionID,
	).Scan(&lot.ID)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToInsertLot, err)
	}
	return nil
}

func (t *pointsTx) UpdateLot(ctx context.Context, lot *domain.PointsLot) error {
	query := `
		UPDATE points_lots
		SET remaining_points = $2, is_expired = $3, is_fully_redeemed = $4
		WHERE id = $1`

	tag, err := t.tx.Exec(ctx, query, lot.ID, lot.RemainingPoints, lot.IsExpired, lot.IsFullyRedeemed)
	if err != nil {
		return fmt.Errorf("%s: %w", ErrMsgFailedToUpdateLot, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: lot %d not found", ErrMsgFailedToUpdateLot, lot.ID)
	}
	return nil
}

func (t *pointsTx) SpendableLotsForUpdate(ctx context.Context, accountID int64, now time.Time) ([]domain.PointsLot, error) {
	query := `
		SELECT ` + lotColumns + `
		FROM points_lots
		WHERE account_id = $1
		  AND NOT is_expired
		  AND remaining_points > 0
		  AND expires_at >= $2
		ORDER BY expires_at ASC, id ASC
		FOR UPDATE`

	rows, err := t.tx.Query(ctx, query, accountID, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToQueryLots, err)
	}
	lots, err := collectLots(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToQueryLots, err)
	}
	return lots, nil
}

func (t *pointsTx) ExpiredLotsForUpdate(ctx context.Context, accountID int64, now time.Time) ([]domain.PointsLot, error) {
	query := `
		SELECT ` + lotColumns + `
		FROM points_lots
		WHERE account_id = $1
		  AND NOT is_expired
		  AND remaining_points > 0
		  AND expires_at < $2
		ORDER BY expires_at ASC, id ASC
		FOR UPDATE`

	rows, err := t.tx.Query(ctx, query, accountID, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToQueryLots, err)
	}
	lots, err := collectLots(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgFailedToQueryLots, err)
	}
	return lots, nil
}
