package sdk

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"levelkit/adapters/memory"
	"levelkit/api/httpapi"
	"levelkit/core"
	"levelkit/engine"
	"levelkit/realtime"
)

func newTestServer(t *testing.T) (*httptest.Server, *memory.Store) {
	t.Helper()
	store := memory.New()
	e, err := engine.New(engine.Settings{Store: store})
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	server := httptest.NewServer(httpapi.NewMux(e, realtime.NewHub(), httpapi.Options{}))
	t.Cleanup(server.Close)
	return server, store
}

func TestClientMemberAndLeaderboard(t *testing.T) {
	server, store := newTestServer(t)
	ctx := context.Background()
	store.Upsert(ctx, core.MemberRecord{TenantID: 1, MemberID: 10, Name: "amy", Level: 1, TotalXP: 140})
	store.Upsert(ctx, core.MemberRecord{TenantID: 1, MemberID: 11, Name: "ben", Level: 2, TotalXP: 300})

	client, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	rec, err := client.Member(ctx, 1, 10)
	if err != nil {
		t.Fatalf("Member: %v", err)
	}
	if rec.Name != "amy" || rec.Rank == nil || *rec.Rank != 2 {
		t.Fatalf("record = %+v", rec)
	}

	_, err = client.Member(ctx, 1, 999)
	if !errors.Is(err, ErrNoRecord) {
		t.Fatalf("absent member err = %v, want ErrNoRecord", err)
	}

	records, err := client.Leaderboard(ctx, 1, "rank", 1)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(records) != 1 || records[0].Name != "ben" {
		t.Fatalf("records = %+v", records)
	}
}

func TestClientAdjustXP(t *testing.T) {
	server, store := newTestServer(t)
	ctx := context.Background()
	store.Upsert(ctx, core.MemberRecord{TenantID: 1, MemberID: 10, Name: "amy", TotalXP: 50})

	client, _ := NewClient(server.URL)
	rec, err := client.AdjustXP(ctx, 1, 10, 100)
	if err != nil {
		t.Fatalf("AdjustXP: %v", err)
	}
	if rec.TotalXP != 150 || rec.Level != 1 {
		t.Fatalf("record = %+v", rec)
	}

	if _, err := client.AdjustXP(ctx, 1, 10, 0); err == nil {
		t.Fatal("zero delta should fail client-side")
	}
}

func TestClientHealth(t *testing.T) {
	server, _ := newTestServer(t)
	client, _ := NewClient(server.URL)

	hs, err := client.Health(context.Background())
	if err != nil {
		t.Fatalf("Health: %v", err)
	}
	if hs.Status != "healthy" {
		t.Fatalf("status = %q", hs.Status)
	}
}

func TestClientSendsAPIKey(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		w.Write([]byte(`{"status":"healthy"}`))
	}))
	defer server.Close()

	client, _ := NewClient(server.URL, WithAPIKey("secret"))
	if _, err := client.Health(context.Background()); err != nil {
		t.Fatalf("Health: %v", err)
	}
	if gotKey != "secret" {
		t.Fatalf("key = %q", gotKey)
	}
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	if _, err := NewClient("  "); err == nil {
		t.Fatal("empty base URL should fail")
	}
}
