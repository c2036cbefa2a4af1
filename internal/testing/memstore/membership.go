package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/osse101/MallLoyalty_Go/internal/domain"
	"github.com/osse101/MallLoyalty_Go/internal/repository"
)

type membershipState struct {
	accounts map[string]domain.MembershipAccount
	changes  []domain.TierChangeRecord
	spending map[spendingKey]decimal.Decimal
	nextID   int64
}

type spendingKey struct {
	userID  string
	orderID int64
}

func (s *membershipState) clone() *membershipState {
	c := *s
	c.accounts = make(map[string]domain.MembershipAccount, len(s.accounts))
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	c.changes = append([]domain.TierChangeRecord(nil), s.changes...)
	c.spending = make(map[spendingKey]decimal.Decimal, len(s.spending))
	for k, v := range s.spending {
		c.spending[k] = v
	}
	return &c
}

// MembershipStore is an in-memory repository.Membership
type MembershipStore struct {
	faults
	txMu    sync.Mutex
	stateMu sync.RWMutex
	state   *membershipState
}

var _ repository.Membership = (*MembershipStore)(nil)

// NewMembershipStore creates an empty store
func NewMembershipStore() *MembershipStore {
	return &MembershipStore{state: &membershipState{accounts: make(map[string]domain.MembershipAccount)}}
}

func (s *MembershipStore) read() *membershipState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// Put stores an account directly, bypassing history
func (s *MembershipStore) Put(account domain.MembershipAccount) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	next := s.state.clone()
	next.accounts[account.UserID] = account
	s.state = next
}

// Changes returns every committed tier change for a user, oldest first
func (s *MembershipStore) Changes(userID string) []domain.TierChangeRecord {
	var out []domain.TierChangeRecord
	for _, c := range s.read().changes {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out
}

func (s *MembershipStore) GetMembership(ctx context.Context, userID string) (*domain.MembershipAccount, error) {
	if err := s.check("GetMembership"); err != nil {
		return nil, err
	}
	a, ok := s.read().accounts[userID]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *MembershipStore) ListTierChanges(ctx context.Context, userID string, limit int) ([]domain.TierChangeRecord, error) {
	if err := s.check("ListTierChanges"); err != nil {
		return nil, err
	}
	all := s.read().changes
	var out []domain.TierChangeRecord
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].UserID != userID {
			continue
		}
		out = append(out, all[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (s *MembershipStore) BeginTx(ctx context.Context) (repository.MembershipTx, error) {
	if err := s.check("BeginTx"); err != nil {
		return nil, err
	}
	s.txMu.Lock()
	return &membershipTx{
		store:   s,
		work:    s.read().clone(),
		txState: txState{unlock: s.txMu.Unlock},
	}, nil
}

type membershipTx struct {
	txState
	store *MembershipStore
	work  *membershipState
}

func (t *membershipTx) Commit(ctx context.Context) error {
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

func (t *membershipTx) Rollback(ctx context.Context) error {
	return t.finish()
}

func (t *membershipTx) GetMembershipForUpdate(ctx context.Context, userID string) (*domain.MembershipAccount, error) {
	if err := t.active(ctx); err != nil {
		return nil, err
	}
	a, ok := t.work.accounts[userID]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (t *membershipTx) InsertMembership(ctx context.Context, account *domain.MembershipAccount) (bool, error) {
	if err := t.active(ctx); err != nil {
		return false, err
	}
	if _, ok := t.work.accounts[account.UserID]; ok {
		return false, nil
	}
	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now
	t.work.accounts[account.UserID] = *account
	return true, nil
}

func (t *membershipTx) UpdateMembership(ctx context.Context, account *domain.MembershipAccount) error {
	if err := t.active(ctx); err != nil {
		return err
	}
	if err := t.store.check("UpdateMembership"); err != nil {
		return err
	}
	if _, ok := t.work.accounts[account.UserID]; !ok {
		return domain.ErrNoMembership
	}
	account.UpdatedAt = time.Now()
	t.work.accounts[account.UserID] = *account
	return nil
}

func (t *membershipTx) InsertTierChange(ctx context.Context, record *domain.TierChangeRecord) error {
	if err := t.active(ctx); err != nil {
		return err
	}
	if err := t.store.check("InsertTierChange"); err != nil {
		return err
	}
	t.work.nextID++
	record.ID = t.work.nextID
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	t.work.changes = append(t.work.changes, *record)
	return nil
}

func (t *membershipTx) InsertSpendingEvent(ctx context.Context, userID string, orderID int64, amount decimal.Decimal, at time.Time) (bool, error) {
	if err := t.active(ctx); err != nil {
		return false, err
	}
	if err := t.store.check("InsertSpendingEvent"); err != nil {
		return false, err
	}
	key := spendingKey{userID: userID, orderID: orderID}
	if _, ok := t.work.spending[key]; ok {
		return false, nil
	}
	t.work.spending[key] = amount
	return true, nil
}
