// Package operation manages exclusively-owned operations. An operation is identified by a uuid
// and carries a context that is cancelled the moment another operation takes ownership.
package operation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type opidKeyType string

const opidKey = opidKeyType("opid")

// Operation is one owner of a SingleOperationManager.
type Operation struct {
	ID        uuid.UUID
	Method    string
	Arguments interface{}
	Started   time.Time

	ctx    context.Context
	cancel context.CancelFunc
}

// Context returns the operation's context. It is done once the operation is cancelled or
// superseded.
func (o *Operation) Context() context.Context {
	return o.ctx
}

// Cancel cancels the context associated with an operation.
func (o *Operation) Cancel() {
	o.cancel()
}

// Cancelled reports whether the operation has been cancelled or superseded.
func (o *Operation) Cancelled() bool {
	return o.ctx.Err() != nil
}

// Get returns the Operation attached to ctx. This can be nil.
func Get(ctx context.Context) *Operation {
	o := ctx.Value(opidKey)
	if o == nil {
		return nil
	}
	return o.(*Operation)
}
