package utils

import (
	"context"
	"testing"

	"go.uber.org/atomic"
	"go.viam.com/test"
)

func TestStoppableWorkers(t *testing.T) {
	var ran atomic.Int64
	started := make(chan struct{}, 2)
	sw := NewStoppableWorkers(context.Background(), func(ctx context.Context) {
		started <- struct{}{}
		<-ctx.Done()
		ran.Inc()
	})
	sw.Add(func(ctx context.Context) {
		started <- struct{}{}
		<-ctx.Done()
		ran.Inc()
	})
	<-started
	<-started
	sw.Stop()
	test.That(t, ran.Load(), test.ShouldEqual, int64(2))
	test.That(t, sw.Context().Err(), test.ShouldNotBeNil)

	// nothing starts after Stop
	sw.Add(func(ctx context.Context) { ran.Inc() })
	sw.Stop()
	test.That(t, ran.Load(), test.ShouldEqual, int64(2))
}

func TestStoppableWorkersParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	sw := NewStoppableWorkers(ctx, func(ctx context.Context) {
		<-ctx.Done()
		close(done)
	})
	cancel()
	<-done
	sw.Stop()
}
