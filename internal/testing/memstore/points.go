package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/osse101/MallLoyalty_Go/internal/domain"
	"github.com/osse101/MallLoyalty_Go/internal/repository"
)

type pointsState struct {
	accounts  map[string]domain.PointsAccount
	txns      []domain.PointsTransaction
	lots      []domain.PointsLot
	rules     map[domain.RuleType]domain.PointsRule
	nextAccID int64
	nextTxnID int64
	nextLotID int64
	nextRule  int64
}

func (s *pointsState) clone() *pointsState {
	c := *s
	c.accounts = make(map[string]domain.PointsAccount, len(s.accounts))
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	c.rules = make(map[domain.RuleType]domain.PointsRule, len(s.rules))
	for k, v := range s.rules {
		c.rules[k] = v
	}
	c.txns = append([]domain.PointsTransaction(nil), s.txns...)
	c.lots = append([]domain.PointsLot(nil), s.lots...)
	return &c
}

func (s *pointsState) accountByID(id int64) (domain.PointsAccount, bool) {
	for _, a := range s.accounts {
		if a.ID == id {
			return a, true
		}
	}
	return domain.PointsAccount{}, false
}

// PointsStore is an in-memory repository.Points
type PointsStore struct {
	faults
	txMu    sync.Mutex
	stateMu sync.RWMutex
	state   *pointsState
}

var _ repository.Points = (*PointsStore)(nil)

// NewPointsStore creates an empty store
func NewPointsStore() *PointsStore {
	return &PointsStore{state: &pointsState{
		accounts: make(map[string]domain.PointsAccount),
		rules:    make(map[domain.RuleType]domain.PointsRule),
	}}
}

func (s *PointsStore) read() *pointsState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// Account returns the committed account for a user
func (s *PointsStore) Account(userID string) (domain.PointsAccount, bool) {
	a, ok := s.read().accounts[userID]
	return a, ok
}

// Transactions returns the committed ledger entries for a user, oldest first
func (s *PointsStore) Transactions(userID string) []domain.PointsTransaction {
	st := s.read()
	acc, ok := st.accounts[userID]
	if !ok {
		return nil
	}
	var out []domain.PointsTransaction
	for _, t := range st.txns {
		if t.AccountID == acc.ID {
			out = append(out, t)
		}
	}
	return out
}

// Lots returns the committed lots for a user in creation order
func (s *PointsStore) Lots(userID string) []domain.PointsLot {
	st := s.read()
	acc, ok := st.accounts[userID]
	if !ok {
		return nil
	}
	var out []domain.PointsLot
	for _, l := range st.lots {
		if l.AccountID == acc.ID {
			out = append(out, l)
		}
	}
	return out
}

func (s *PointsStore) GetAccount(ctx context.Context, userID string) (*domain.PointsAccount, error) {
	if err := s.check("GetAccount"); err != nil {
		return nil, err
	}
	a, ok := s.read().accounts[userID]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *PointsStore) ListTransactions(ctx context.Context, accountID int64, limit int) ([]domain.PointsTransaction, error) {
	if err := s.check("ListTransactions"); err != nil {
		return nil, err
	}
	st := s.read()
	var out []domain.PointsTransaction
	for i := len(st.txns) - 1; i >= 0; i-- {
		if st.txns[i].AccountID != accountID {
			continue
		}
		out = append(out, st.txns[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *PointsStore) FindTransaction(ctx context.Context, accountID int64, txType domain.TransactionType, referenceID string) (*domain.PointsTransaction, error) {
	if err := s.check("FindTransaction"); err != nil {
		return nil, err
	}
	for _, t := range s.read().txns {
		if t.AccountID == accountID && t.Type == txType && t.ReferenceID != nil && *t.ReferenceID == referenceID {
			return &t, nil
		}
	}
	return nil, nil
}

func (s *PointsStore) ListLots(ctx context.Context, accountID int64) ([]domain.PointsLot, error) {
	var out []domain.PointsLot
	for _, l := range s.read().lots {
		if l.AccountID == accountID {
			out = append(out, l)
		}
	}
	sortLots(out)
	return out, nil
}

func (s *PointsStore) SumExpiring(ctx context.Context, accountID int64, from, to time.Time) (int, error) {
	total := 0
	for _, l := range s.read().lots {
		if l.AccountID == accountID && l.Spendable(from) && !l.ExpiresAt.After(to) {
			total += l.RemainingPoints
		}
	}
	return total, nil
}

func (s *PointsStore) ListUsersWithExpiredLots(ctx context.Context, now time.Time) ([]string, error) {
	if err := s.check("ListUsersWithExpiredLots"); err != nil {
		return nil, err
	}
	st := s.read()
	seen := make(map[int64]bool)
	var users []string
	for _, l := range st.lots {
		if !expiredPending(l, now) || seen[l.AccountID] {
			continue
		}
		seen[l.AccountID] = true
		if acc, ok := st.accountByID(l.AccountID); ok {
			users = append(users, acc.UserID)
		}
	}
	sort.Strings(users)
	return users, nil
}

func (s *PointsStore) GetActiveRule(ctx context.Context, ruleType domain.RuleType) (*domain.PointsRule, error) {
	if err := s.check("GetActiveRule"); err != nil {
		return nil, err
	}
	r, ok := s.read().rules[ruleType]
	if !ok || !r.IsActive {
		return nil, nil
	}
	return &r, nil
}

func (s *PointsStore) ListRules(ctx context.Context) ([]domain.PointsRule, error) {
	st := s.read()
	out := make([]domain.PointsRule, 0, len(st.rules))
	for _, r := range st.rules {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RuleType < out[j].RuleType })
	return out, nil
}

func (s *PointsStore) UpsertRule(ctx context.Context, rule *domain.PointsRule) error {
	if err := s.check("UpsertRule"); err != nil {
		return err
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.stateMu.Lock()
	defer s.stateMu.Unlock()

	next := s.state.clone()
	if existing, ok := next.rules[rule.RuleType]; ok {
		rule.ID = existing.ID
	} else {
		next.nextRule++
		rule.ID = next.nextRule
	}
	next.rules[rule.RuleType] = *rule
	s.state = next
	return nil
}

func (s *PointsStore) BeginTx(ctx context.Context) (repository.PointsTx, error) {
	if err := s.check("BeginTx"); err != nil {
		return nil, err
	}
	s.txMu.Lock()
	return &pointsTx{
		store:   s,
		work:    s.read().clone(),
		txState: txState{unlock: s.txMu.Unlock},
	}, nil
}

type pointsTx struct {
	txState
	store *PointsStore
	work  *pointsState
}

func (t *pointsTx) Commit(ctx context.Context) error {
	if err := t.store.check("Commit"); err != nil {
		_ = t.finish()
		return err
	}
	if t.done {
		return repository.ErrTxClosed
	}
	t.store.stateMu.Lock()
	t.store.state = t.work
	t.store.stateMu.Unlock()
	return t.finish()
}

func (t *pointsTx) Rollback(ctx context.Context) error {
	return t.finish()
}

func (t *pointsTx) GetAccountForUpdate(ctx context.Context, userID string) (*domain.PointsAccount, error) {
	if err := t.active(ctx); err != nil {
		return nil, err
	}
	a, ok := t.work.accounts[userID]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (t *pointsTx) GetOrCreateAccountForUpdate(ctx context.Context, userID string) (*domain.PointsAccount, error) {
	if err := t.active(ctx); err != nil {
		return nil, err
	}
	if a, ok := t.work.accounts[userID]; ok {
		return &a, nil
	}
	t.work.nextAccID++
	now := time.Now()
	a := domain.PointsAccount{ID: t.work.nextAccID, UserID: userID, CreatedAt: now, UpdatedAt: now}
	t.work.accounts[userID] = a
	return &a, nil
}

func (t *pointsTx) UpdateAccount(ctx context.Context, account *domain.PointsAccount) error {
	if err := t.active(ctx); err != nil {
		return err
	}
	if err := t.store.check("UpdateAccount"); err != nil {
		return err
	}
	account.UpdatedAt = time.Now()
	t.work.accounts[account.UserID] = *account
	return nil
}

func (t *pointsTx) ReferenceExists(ctx context.Context, accountID int64, txType domain.TransactionType, referenceID string) (bool, error) {
	if err := t.active(ctx); err != nil {
		return false, err
	}
	return t.work.hasReference(accountID, txType, referenceID), nil
}

func (s *pointsState) hasReference(accountID int64, txType domain.TransactionType, referenceID string) bool {
	for _, txn := range s.txns {
		if txn.AccountID == accountID && txn.Type == txType && txn.ReferenceID != nil && *txn.ReferenceID == referenceID {
			return true
		}
	}
	return false
}

func (t *pointsTx) InsertTransaction(ctx context.Context, txn *domain.PointsTransaction) error {
	if err := t.active(ctx); err != nil {
		return err
	}
	if err := t.store.check("InsertTransaction"); err != nil {
		return err
	}
	if txn.ReferenceID != nil && t.work.hasReference(txn.AccountID, txn.Type, *txn.ReferenceID) {
		return domain.ErrDuplicateReference
	}
	t.work.nextTxnID++
	txn.ID = t.work.nextTxnID
	if txn.CreatedAt.IsZero() {
		txn.CreatedAt = time.Now()
	}
	t.work.txns = append(t.work.txns, *txn)
	return nil
}

func (t *pointsTx) InsertLot(ctx context.Context, lot *domain.PointsLot) error {
	if err := t.active(ctx); err != nil {
		return err
	}
	if err := t.store.check("InsertLot"); err != nil {
		return err
	}
	t.work.nextLotID++
	lot.ID = t.work.nextLotID
	t.work.lots = append(t.work.lots, *lot)
	return nil
}

func (t *pointsTx) UpdateLot(ctx context.Context, lot *domain.PointsLot) error {
	if err := t.active(ctx); err != nil {
		return err
	}
	if err := t.store.check("UpdateLot"); err != nil {
		return err
	}
	for i := range t.work.lots {
		if t.work.lots[i].ID == lot.ID {
			t.work.lots[i] = *lot
			return nil
		}
	}
	return domain.ErrDatabaseError
}

func (t *pointsTx) SpendableLotsForUpdate(ctx context.Context, accountID int64, now time.Time) ([]domain.PointsLot, error) {
	if err := t.active(ctx); err != nil {
		return nil, err
	}
	var out []domain.PointsLot
	for _, l := range t.work.lots {
		if l.AccountID == accountID && l.Spendable(now) {
			out = append(out, l)
		}
	}
	sortLots(out)
	return out, nil
}

func (t *pointsTx) ExpiredLotsForUpdate(ctx context.Context, accountID int64, now time.Time) ([]domain.PointsLot, error) {
	if err := t.active(ctx); err != nil {
		return nil, err
	}
	var out []domain.PointsLot
	for _, l := range t.work.lots {
		if l.AccountID == accountID && expiredPending(l, now) {
			out = append(out, l)
		}
	}
	sortLots(out)
	return out, nil
}

func expiredPending(l domain.PointsLot, now time.Time) bool {
	return !l.IsExpired && l.RemainingPoints > 0 && l.ExpiresAt.Before(now)
}

func sortLots(lots []domain.PointsLot) {
	sort.SliceStable(lots, func(i, j int) bool {
		if !lots[i].ExpiresAt.Equal(lots[j].ExpiresAt) {
			return lots[i].ExpiresAt.Before(lots[j].ExpiresAt)
		}
		return lots[i].ID < lots[j].ID
	})
}
