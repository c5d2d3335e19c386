package httpapi

import (
	"context"
	"testing"
	"time"
)

type ctxKey struct{}

func waitDone(t *testing.T, ctx context.Context, what string) {
	t.Helper()
	select {
	case <-ctx.Done():
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("joined context not canceled after %s", what)
	}
}

func TestSetBaseContextNilFallsBack(t *testing.T) {
	defer SetBaseContext(context.Background())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	SetBaseContext(ctx)
	if serverBaseCtx.Err() == nil {
		t.Fatal("expected canceled base context to be installed")
	}
	//nolint:staticcheck // nil is the documented reset
	SetBaseContext(nil)
	if serverBaseCtx.Err() != nil {
		t.Fatal("nil should reset to Background")
	}
}

func TestJoinContextsKeepsRequestValues(t *testing.T) {
	base, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	req := context.WithValue(context.Background(), ctxKey{}, "req-1")
	j, cancel := joinContexts(base, req)
	defer cancel()
	if got := j.Value(ctxKey{}); got != "req-1" {
		t.Fatalf("request value lost: %v", got)
	}
	cancelBase()
	waitDone(t, j, "base shutdown")
}

func TestJoinContextsFollowsRequestCancel(t *testing.T) {
	req, cancelReq := context.WithCancel(context.Background())
	j, cancel := joinContexts(context.Background(), req)
	defer cancel()
	cancelReq()
	waitDone(t, j, "client disconnect")
}

func TestJoinContextsCancelDetaches(t *testing.T) {
	base, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	j, cancel := joinContexts(base, context.Background())
	cancel()
	waitDone(t, j, "handler end")
}
