package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/osse101/MallLoyalty_Go/internal/domain"
	"github.com/osse101/MallLoyalty_Go/internal/repository"
)

type orderState struct {
	amounts   map[int64]decimal.Decimal
	discounts []domain.OrderDiscount
	nextID    int64
}

func (s *orderState) clone() *orderState {
	c := *s
	c.amounts = make(map[int64]decimal.Decimal, len(s.amounts))
	for k, v := range s.amounts {
		c.amounts[k] = v
	}
	c.discounts = append([]domain.OrderDiscount(nil), s.discounts...)
	return &c
}

// OrderStore is an in-memory repository.Orders
type OrderStore struct {
	faults
	txMu    sync.Mutex
	stateMu sync.RWMutex
	state   *orderState
}

var _ repository.Orders = (*OrderStore)(nil)

// NewOrderStore creates an empty store
func NewOrderStore() *OrderStore {
	return &OrderStore{state: &orderState{amounts: make(map[int64]decimal.Decimal)}}
}

func (s *OrderStore) read() *orderState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

// PutOrder registers an order and its current amount
func (s *OrderStore) PutOrder(orderID int64, amount decimal.Decimal) {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	next := s.state.clone()
	next.amounts[orderID] = amount
	s.state = next
}

// Amount returns the committed amount of an order
func (s *OrderStore) Amount(orderID int64) (decimal.Decimal, bool) {
	a, ok := s.read().amounts[orderID]
	return a, ok
}

func (s *OrderStore) ListDiscounts(ctx context.Context, orderID int64) ([]domain.OrderDiscount, error) {
	var out []domain.OrderDiscount
	for _, d := range s.read().discounts {
		if d.OrderID == orderID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (s *OrderStore) BeginTx(ctx context.Context) (repository.OrderTx, error) {
	if err := s.check("BeginTx"); err != nil {
		return nil, err
	}
	s.txMu.Lock()
	return &orderTx{
		store:   s,
		work:    s.read().clone(),
		txState: txState{unlock: s.txMu.Unlock},
	}, nil
}

type orderTx struct {
	txState
	store *OrderStore
	work  *orderState
}

func (t *orderTx) Commit(ctx context.Context) error {
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

func (t *orderTx) Rollback(ctx context.Context) error {
	return t.finish()
}

func (t *orderTx) GetOrderAmountForUpdate(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	if err := t.active(ctx); err != nil {
		return decimal.Zero, err
	}
	amount, ok := t.work.amounts[orderID]
	if !ok {
		return decimal.Zero, domain.ErrOrderNotFound
	}
	return amount, nil
}

func (t *orderTx) UpdateOrderAmount(ctx context.Context, orderID int64, amount decimal.Decimal) error {
	if err := t.active(ctx); err != nil {
		return err
	}
	if _, ok := t.work.amounts[orderID]; !ok {
		return domain.ErrOrderNotFound
	}
	t.work.amounts[orderID] = amount
	return nil
}

func (t *orderTx) DiscountsForOrder(ctx context.Context, orderID int64) ([]domain.OrderDiscount, error) {
	if err := t.active(ctx); err != nil {
		return nil, err
	}
	var out []domain.OrderDiscount
	for _, d := range t.work.discounts {
		if d.OrderID == orderID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (t *orderTx) InsertDiscount(ctx context.Context, discount *domain.OrderDiscount) error {
	if err := t.active(ctx); err != nil {
		return err
	}
	if err := t.store.check("InsertDiscount"); err != nil {
		return err
	}
	t.work.nextID++
	discount.ID = t.work.nextID
	if discount.CreatedAt.IsZero() {
		discount.CreatedAt = time.Now()
	}
	t.work.discounts = append(t.work.discounts, *discount)
	return nil
}
