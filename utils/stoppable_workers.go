package utils

import (
	"context"
	"sync"

	goutils "go.viam.com/utils"
)

// StoppableWorkers is a group of goroutines sharing one cancellable context. Panics in a
// worker are captured and logged rather than taking the process down.
type StoppableWorkers struct {
	mu         sync.Mutex
	ctx        context.Context
	cancelFunc context.CancelFunc
	active     sync.WaitGroup
}

// NewStoppableWorkers runs the functions in separate goroutines under a context derived from
// parent. They can be stopped later.
func NewStoppableWorkers(parent context.Context, funcs ...func(context.Context)) *StoppableWorkers {
	ctx, cancel := context.WithCancel(parent)
	sw := &StoppableWorkers{ctx: ctx, cancelFunc: cancel}
	sw.Add(funcs...)
	return sw
}

// Add starts a goroutine per function. After Stop it starts nothing.
func (sw *StoppableWorkers) Add(funcs ...func(context.Context)) {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	if sw.ctx.Err() != nil {
		return
	}
	sw.active.Add(len(funcs))
	for _, f := range funcs {
		goutils.PanicCapturingGo(func() {
			defer sw.active.Done()
			f(sw.ctx)
		})
	}
}

// Stop cancels the shared context and waits for every worker to return. Calling it again is
// a no-op.
func (sw *StoppableWorkers) Stop() {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	sw.cancelFunc()
	sw.active.Wait()
}

// Context is the context the workers watch.
func (sw *StoppableWorkers) Context() context.Context {
	return sw.ctx
}
