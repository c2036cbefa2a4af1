package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/osse101/MallLoyalty_Go/internal/domain"
)

// Membership defines persistence for membership accounts and their history
type Membership interface {
	GetMembership(ctx context.Context, userID string) (*domain.MembershipAccount, error)
	ListTierChanges(ctx context.Context, userID string, limit int) ([]domain.TierChangeRecord, error)
	BeginTx(ctx context.Context) (MembershipTx, error)
}

// MembershipTx locks the membership row for a read-modify-write
type MembershipTx interface {
	Tx
	GetMembershipForUpdate(ctx context.Context, userID string) (*domain.MembershipAccount, error)
	// InsertMembership reports false when the account already existed
	InsertMembership(ctx context.Context, account *domain.MembershipAccount) (bool, error)
	UpdateMembership(ctx context.Context, account *domain.MembershipAccount) error
	InsertTierChange(ctx context.Context, record *domain.TierChangeRecord) error
	// InsertSpendingEvent reports false when the order's spending was already counted
	InsertSpendingEvent(ctx context.Context, userID string, orderID int64, amount decimal.Decimal, at time.Time) (bool, error)
}
