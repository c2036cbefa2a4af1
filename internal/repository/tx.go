package repository

import (
	"context"
	"errors"
	"time"

	"github.com/osse101/MallLoyalty_Go/internal/domain"
	"github.com/osse101/MallLoyalty_Go/internal/logger"
)

// ErrTxClosed is returned by Rollback after the transaction already finished
var ErrTxClosed = errors.New(domain.ErrMsgTxClosed)

// RollbackTimeout bounds SafeRollback once the caller's context is gone
const RollbackTimeout = 5 * time.Second

// Tx defines the lifecycle shared by every repository transaction
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// SafeRollback is deferred right after BeginTx. It is a no-op after Commit.
// The rollback runs detached from ctx cancellation so a client hanging up
// mid-ledger-write still releases the row locks.
func SafeRollback(ctx context.Context, tx Tx) {
	rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), RollbackTimeout)
	defer cancel()

	err := tx.Rollback(rbCtx)
	if err == nil || errors.Is(err, ErrTxClosed) {
		return
	}
	logger.FromContext(ctx).Error(domain.ErrMsgRollbackFailed, "error", err)
}
