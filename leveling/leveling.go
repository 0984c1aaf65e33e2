// Package leveling is the top-level entry point: it assembles an award
// engine from options so embedders do not have to wire the pieces by hand.
package leveling

import (
	"log/slog"
	"math/rand"
	"time"

	"levelkit/adapters/memory"
	"levelkit/announce"
	"levelkit/awards"
	"levelkit/cooldown"
	"levelkit/core"
	"levelkit/engine"
	"levelkit/realtime"
)

// Option configures the engine builder.
type Option func(*builder)

type builder struct {
	store         engine.RecordStore
	rate          int
	per           time.Duration
	awardsByT     map[core.TenantID][]awards.RoleAward
	policy        awards.Policy
	noXPRoles     []int64
	noXPChannels  []int64
	announceOn    bool
	announcements []announce.Announcement
	roles         engine.RoleManager
	messenger     engine.Messenger
	notifier      engine.Notifier
	mode          engine.DispatchMode
	hub           *realtime.Hub
	rand          *rand.Rand
	logger        *slog.Logger
}

// WithStore sets the record store (default in-memory).
func WithStore(s engine.RecordStore) Option { return func(b *builder) { b.store = s } }

// WithCooldown sets the rate limit (default 1 message per 60s).
func WithCooldown(rate int, per time.Duration) Option {
	return func(b *builder) { b.rate, b.per = rate, per }
}

// WithAwards sets per-tenant role awards; each tenant's list is validated
// when the engine is built.
func WithAwards(byTenant map[core.TenantID][]awards.RoleAward) Option {
	return func(b *builder) { b.awardsByT = byTenant }
}

// WithStackAwards selects whether earlier role awards are kept on level-up
// (true, the default) or replaced by the newest one.
func WithStackAwards(stack bool) Option {
	return func(b *builder) {
		if stack {
			b.policy = awards.Stack
		} else {
			b.policy = awards.Replace
		}
	}
}

// WithNoXPRoles blocks XP for members holding any of these roles.
func WithNoXPRoles(roleIDs ...int64) Option {
	return func(b *builder) { b.noXPRoles = roleIDs }
}

// WithNoXPChannels blocks XP for messages in these channels.
func WithNoXPChannels(channelIDs ...int64) Option {
	return func(b *builder) { b.noXPChannels = channelIDs }
}

// WithAnnounceLevelUp toggles level-up announcements (default on).
func WithAnnounceLevelUp(on bool) Option { return func(b *builder) { b.announceOn = on } }

// WithAnnouncements sets the announcement pool picked from on level-up.
func WithAnnouncements(anns ...announce.Announcement) Option {
	return func(b *builder) { b.announcements = anns }
}

// WithRoleManager wires the platform's role operations.
func WithRoleManager(r engine.RoleManager) Option { return func(b *builder) { b.roles = r } }

// WithMessenger wires the platform's message sending.
func WithMessenger(m engine.Messenger) Option { return func(b *builder) { b.messenger = m } }

// WithNotifier wires an external level-up notifier, such as a webhook sink.
func WithNotifier(n engine.Notifier) Option { return func(b *builder) { b.notifier = n } }

// WithDispatchMode selects sync or async event dispatch (default sync).
func WithDispatchMode(m engine.DispatchMode) Option { return func(b *builder) { b.mode = m } }

// WithRealtime bridges all engine events into a realtime hub.
func WithRealtime(h *realtime.Hub) Option { return func(b *builder) { b.hub = h } }

// WithRand sets the random source used for amount rolls and announcement
// picks; mainly for deterministic tests.
func WithRand(r *rand.Rand) Option { return func(b *builder) { b.rand = r } }

// WithLogger enables structured logging of swallowed side-effect failures.
func WithLogger(l *slog.Logger) Option { return func(b *builder) { b.logger = l } }

// New assembles an engine. Defaults: in-memory store, 1 message per 60s,
// announcements on, stacking role awards, sync dispatch.
func New(opts ...Option) (*engine.Engine, error) {
	b := &builder{
		rate:       1,
		per:        60 * time.Second,
		policy:     awards.Stack,
		announceOn: true,
		mode:       engine.DispatchSync,
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.store == nil {
		b.store = memory.New()
	}

	limiter, err := cooldown.NewLimiter(b.rate, b.per)
	if err != nil {
		return nil, err
	}

	var awardCfg awards.Config
	if len(b.awardsByT) > 0 {
		awardCfg, err = awards.NewConfig(b.awardsByT)
		if err != nil {
			return nil, err
		}
	}

	bus := engine.NewEventBus(b.mode)
	e, err := engine.New(engine.Settings{
		Store:           b.store,
		Limiter:         limiter,
		Awards:          awardCfg,
		Policy:          b.policy,
		Bus:             bus,
		Roles:           b.roles,
		Messenger:       b.messenger,
		Notifier:        b.notifier,
		Logger:          b.logger,
		NoXPRoles:       b.noXPRoles,
		NoXPChannels:    b.noXPChannels,
		AnnounceLevelUp: b.announceOn,
		Announcements:   b.announcements,
		Rand:            b.rand,
	})
	if err != nil {
		return nil, err
	}

	if b.hub != nil {
		b.hub.Attach(e.Subscribe)
	}
	return e, nil
}
