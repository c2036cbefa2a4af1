// Package memstore provides in-memory repositories for service tests.
//
// Each store serialises transactions: BeginTx takes an exclusive lock and
// works on a copy of the state that Commit publishes and Rollback discards.
// This is stricter than row locking but gives the same all-or-nothing
// visibility the Postgres repositories provide.
package memstore

import (
	"context"
	"errors"
	"sync"

	"github.com/osse101/MallLoyalty_Go/internal/repository"
)

// faults lets tests force a named operation to fail
type faults struct {
	mu   sync.Mutex
	errs map[string]error
}

// Fail makes the named operation return err until cleared with Fail(op, nil)
func (f *faults) Fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.errs == nil {
		f.errs = make(map[string]error)
	}
	if err == nil {
		delete(f.errs, op)
		return
	}
	f.errs[op] = err
}

func (f *faults) check(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errs[op]
}

// txState tracks the lifecycle shared by every in-memory transaction
type txState struct {
	done   bool
	unlock func()
}

func (t *txState) finish() error {
	if t.done {
		return repository.ErrTxClosed
	}
	t.done = true
	t.unlock()
	return nil
}

var errTxDone = errors.New("memstore: transaction already finished")

func (t *txState) active(ctx context.Context) error {
	if t.done {
		return errTxDone
	}
	return ctx.Err()
}
