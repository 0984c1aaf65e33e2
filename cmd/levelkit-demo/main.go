// Command levelkit-demo runs the award engine against an in-memory store,
// simulating chat traffic and streaming the resulting events over a
// websocket endpoint on :8080.
package main

import (
	"context"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"time"

	ws "levelkit/adapters/websocket"
	"levelkit/announce"
	"levelkit/awards"
	"levelkit/core"
	"levelkit/engine"
	"levelkit/leveling"
	"levelkit/realtime"
)

const demoTenant core.TenantID = 1

var demoMembers = []struct {
	id   core.MemberID
	name string
}{
	{101, "amy"},
	{102, "ben"},
	{103, "cleo"},
	{104, "dev"},
}

// logMessenger prints announcements instead of posting to a chat platform.
type logMessenger struct{}

func (logMessenger) Send(ctx context.Context, tenant core.TenantID, channel int64, msg announce.Rendered) error {
	slog.Info("announcement", "tenant", tenant, "channel", channel, "content", msg.Content)
	return nil
}

func (logMessenger) ChannelExists(ctx context.Context, tenant core.TenantID, channel int64) bool {
	return true
}

func main() {
	// Use readable text logging for development/demo
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(textHandler))

	hub := realtime.NewHub()
	e, err := leveling.New(
		leveling.WithCooldown(1, 2*time.Second),
		leveling.WithMessenger(logMessenger{}),
		leveling.WithAnnouncements(announce.Announcement{
			Message: "GG [$name], you just advanced to **level [$level]**!",
		}),
		leveling.WithAwards(map[core.TenantID][]awards.RoleAward{
			demoTenant: {
				{RoleID: 9001, LevelRequirement: 1, Label: "regular"},
				{RoleID: 9003, LevelRequirement: 3, Label: "veteran"},
			},
		}),
		leveling.WithDispatchMode(engine.DispatchAsync),
		leveling.WithRealtime(hub),
		leveling.WithLogger(slog.Default()),
	)
	if err != nil {
		slog.Error("engine setup failed", "error", err)
		os.Exit(1)
	}

	go simulate(e)

	http.Handle("/ws", ws.Handler(hub))

	slog.Info("starting demo server on :8080, connect to ws://localhost:8080/ws")

	if err := http.ListenAndServe(":8080", nil); err != nil {
		slog.Error("demo server crashed", "error", err)
		os.Exit(1)
	}
}

// simulate feeds a message stream into the engine, one random member per
// second.
func simulate(e *engine.Engine) {
	ctx := context.Background()
	amount := engine.DefaultAmount()

	for range time.Tick(time.Second) {
		m := demoMembers[rand.Intn(len(demoMembers))]
		msg := engine.Message{
			TenantID:   demoTenant,
			ChannelID:  500,
			AuthorID:   m.id,
			AuthorName: m.name,
			Kind:       core.KindDefault,
			Profile:    core.MemberProfile{MemberID: m.id, DisplayName: m.name},
		}
		res, err := e.AwardXP(ctx, amount, msg, nil)
		if err != nil {
			slog.Error("award failed", "member", m.name, "error", err)
			continue
		}
		if res == engine.RecordedLevelUp {
			rec, _ := e.DataFor(ctx, demoTenant, m.id)
			if rec != nil {
				slog.Info("level up", "member", m.name, "level", rec.Level, "total_xp", rec.TotalXP)
			}
		}
	}
}
