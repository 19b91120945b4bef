package resilience_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/khalilvb06/ecm/internal/infra/resilience"
)

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	cb := resilience.NewCircuitBreaker("test")

	for i := 0; i < 6; i++ {
		cb.Execute(func() (any, error) {
			return nil, errors.New("collaborator down")
		})
	}

	_, err := cb.Execute(func() (any, error) {
		t.Fatal("open breaker must not execute the call")
		return nil, nil
	})
	if err == nil {
		t.Fatal("expected open-state error")
	}
}

func TestCircuitBreaker_StaysClosedOnSuccess(t *testing.T) {
	cb := resilience.NewCircuitBreaker("test-ok")

	for i := 0; i < 10; i++ {
		if _, err := cb.Execute(func() (any, error) { return "ok", nil }); err != nil {
			t.Fatalf("call %d: expected success, got %v", i, err)
		}
	}
}

func TestBulkhead_AcquireRelease(t *testing.T) {
	bh := resilience.NewBulkhead(2)

	if err := bh.Acquire(context.Background()); err != nil {
		t.Fatalf("expected acquire, got %v", err)
	}
	if err := bh.Acquire(context.Background()); err != nil {
		t.Fatalf("expected acquire, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := bh.Acquire(ctx); err == nil {
		t.Fatal("expected timeout on third acquire")
	}

	bh.Release()

	if err := bh.Acquire(context.Background()); err != nil {
		t.Fatalf("expected acquire after release, got %v", err)
	}
}
