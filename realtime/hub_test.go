package realtime

import (
	"context"
	"testing"

	"levelkit/core"
)

func TestHubFiltersByTenant(t *testing.T) {
	hub := NewHub()
	_, tenantCh := hub.Subscribe(1, 4)
	_, allCh := hub.Subscribe(AllTenants, 4)

	hub.Broadcast(context.Background(), core.NewLevelUp(1, 10, 2, 300))
	hub.Broadcast(context.Background(), core.NewLevelUp(2, 20, 1, 100))

	if got := len(tenantCh); got != 1 {
		t.Fatalf("tenant subscriber got %d events, want 1", got)
	}
	if got := len(allCh); got != 2 {
		t.Fatalf("all-tenants subscriber got %d events, want 2", got)
	}
	ev := <-tenantCh
	if ev.TenantID != 1 || ev.MemberID != 10 {
		t.Fatalf("event = %+v", ev)
	}
}

func TestHubUnsubscribeClosesChannel(t *testing.T) {
	hub := NewHub()
	id, ch := hub.Subscribe(AllTenants, 1)
	hub.Unsubscribe(id)
	if _, open := <-ch; open {
		t.Fatal("channel still open after unsubscribe")
	}
	// broadcast after unsubscribe must not panic
	hub.Broadcast(context.Background(), core.NewXPAwarded(1, 2, 5, 5))
}

func TestHubDropsWhenBufferFull(t *testing.T) {
	hub := NewHub()
	_, ch := hub.Subscribe(AllTenants, 1)

	hub.Broadcast(context.Background(), core.NewXPAwarded(1, 1, 5, 5))
	hub.Broadcast(context.Background(), core.NewXPAwarded(1, 1, 5, 10))

	if got := len(ch); got != 1 {
		t.Fatalf("buffered events = %d, want 1 (overflow dropped)", got)
	}
}
