package operation

import (
	"context"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
)

// SingleOperationManager ensures only 1 operation is happening a time. Starting a new
// operation always succeeds and cancels the previous one; nothing is ever queued.
// The zero value is ready to use and stamps operations with the wall clock.
type SingleOperationManager struct {
	mu        sync.Mutex
	clock     clock.Clock
	currentOp *Operation
}

// NewSingleOperationManager returns a manager that stamps operations with clk.
func NewSingleOperationManager(clk clock.Clock) *SingleOperationManager {
	return &SingleOperationManager{clock: clk}
}

// New creates a new operation, cancels the previous one and makes the new one current.
func (sm *SingleOperationManager) New(ctx context.Context, method string, args interface{}) *Operation {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.cancelInLock()

	clk := sm.clock
	if clk == nil {
		clk = clock.New()
	}
	op := &Operation{
		ID:        uuid.New(),
		Method:    method,
		Arguments: args,
		Started:   clk.Now(),
	}
	ctx = context.WithValue(ctx, opidKey, op)
	op.ctx, op.cancel = context.WithCancel(ctx)
	sm.currentOp = op
	return op
}

// Current returns the operation that owns the manager, or nil.
func (sm *SingleOperationManager) Current() *Operation {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.currentOp
}

// IsCurrent reports whether op still owns the manager.
func (sm *SingleOperationManager) IsCurrent(op *Operation) bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return op != nil && sm.currentOp == op
}

// OpRunning returns if there is a current operation.
func (sm *SingleOperationManager) OpRunning() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.currentOp != nil
}

// CancelRunning cancels the current operation, if any.
func (sm *SingleOperationManager) CancelRunning() {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.cancelInLock()
}

// Done releases ownership if op is still current. Its context is cancelled either way so
// anything derived from it is released.
func (sm *SingleOperationManager) Done(op *Operation) {
	if op == nil {
		return
	}
	sm.mu.Lock()
	defer sm.mu.Unlock()
	op.cancel()
	if sm.currentOp == op {
		sm.currentOp = nil
	}
}

// Find returns the current operation if its id matches.
func (sm *SingleOperationManager) Find(id uuid.UUID) *Operation {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.currentOp != nil && sm.currentOp.ID == id {
		return sm.currentOp
	}
	return nil
}

func (sm *SingleOperationManager) cancelInLock() {
	if sm.currentOp == nil {
		return
	}
	sm.currentOp.cancel()
	sm.currentOp = nil
}
