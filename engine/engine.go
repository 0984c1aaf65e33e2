package engine

import (
	"context"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"levelkit/announce"
	"levelkit/awards"
	"levelkit/cooldown"
	"levelkit/core"
)

// Message is the inbound event that can earn XP. The caller resolves all
// platform-derived fields (name, roles, profile) before invoking the engine;
// the engine only ever sees canonical identifiers.
type Message struct {
	TenantID      core.TenantID
	ChannelID     int64
	AuthorID      core.MemberID
	AuthorName    string
	AuthorIsBot   bool
	Kind          core.MessageKind
	AuthorRoleIDs []int64
	Profile       core.MemberProfile
	Now           time.Time
}

// Result reports the terminal state of an AwardXP call.
type Result int

const (
	// Ineligible means the message failed an eligibility gate; nothing was
	// mutated and no error is raised.
	Ineligible Result = iota
	// RateLimited means the member's cooldown bucket rejected the message.
	RateLimited
	// Recorded means XP was added without a level change.
	Recorded
	// RecordedLevelUp means XP was added and the member advanced exactly
	// one level.
	RecordedLevelUp
)

// Engine orchestrates the XP award pipeline: eligibility, rate limiting,
// bonus-adjusted amounts, transactional record updates, level-up detection,
// and side-effect dispatch.
type Engine struct {
	store     RecordStore
	limiter   *cooldown.Limiter
	awardCfg  awards.Config
	policy    awards.Policy
	bus       *EventBus
	roles     RoleManager
	messenger Messenger
	notifier  Notifier
	logger    *slog.Logger

	noXPRoles    map[int64]struct{}
	noXPChannels map[int64]struct{}

	announceLevelUp bool
	announcements   []announce.Announcement

	randMu sync.Mutex
	rand   *rand.Rand

	// mu guards active and the limiter swap in SetCooldown.
	mu     sync.RWMutex
	active bool
}

// Settings configures an Engine. Zero values fall back to defaults noted on
// each field.
type Settings struct {
	Store     RecordStore // required
	Limiter   *cooldown.Limiter
	Awards    awards.Config
	Policy    awards.Policy
	Bus       *EventBus // defaults to a sync bus
	Roles     RoleManager
	Messenger Messenger
	Notifier  Notifier
	Logger    *slog.Logger

	NoXPRoles    []int64
	NoXPChannels []int64

	AnnounceLevelUp bool
	Announcements   []announce.Announcement

	Rand *rand.Rand // defaults to a time-seeded source
}

// New builds an Engine. The store is required; a nil limiter means no rate
// limiting is applied.
func New(s Settings) (*Engine, error) {
	if s.Store == nil {
		return nil, errors.New("engine requires a record store")
	}
	bus := s.Bus
	if bus == nil {
		bus = NewEventBus(DispatchSync)
	}
	r := s.Rand
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	e := &Engine{
		store:           s.Store,
		limiter:         s.Limiter,
		awardCfg:        s.Awards,
		policy:          s.Policy,
		bus:             bus,
		roles:           s.Roles,
		messenger:       s.Messenger,
		notifier:        s.Notifier,
		logger:          s.Logger,
		noXPRoles:       toSet(s.NoXPRoles),
		noXPChannels:    toSet(s.NoXPChannels),
		announceLevelUp: s.AnnounceLevelUp,
		announcements:   s.Announcements,
		rand:            r,
		active:          true,
	}
	return e, nil
}

func toSet(ids []int64) map[int64]struct{} {
	m := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		m[id] = struct{}{}
	}
	return m
}

// Bus exposes the engine's event bus for subscriptions.
func (e *Engine) Bus() *EventBus { return e.bus }

// Subscribe is a convenience wrapper over the bus.
func (e *Engine) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	return e.bus.Subscribe(typ, handler)
}

// SetActive toggles the whole engine. While inactive every AwardXP call is
// an eligibility skip.
func (e *Engine) SetActive(active bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.active = active
}

// Active reports whether the engine is awarding XP.
func (e *Engine) Active() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.active
}

// SetCooldown swaps the rate limit, clearing all cooldown buckets.
func (e *Engine) SetCooldown(rate int, per time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.limiter == nil {
		l, err := cooldown.NewLimiter(rate, per)
		if err != nil {
			return err
		}
		e.limiter = l
		return nil
	}
	return e.limiter.SetCooldown(rate, per)
}

func (e *Engine) currentLimiter() *cooldown.Limiter {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.limiter
}

// AwardsFor returns the validated award set for a tenant, or nil.
func (e *Engine) AwardsFor(tenant core.TenantID) *awards.Set {
	return e.awardCfg[tenant]
}

func (e *Engine) eligible(msg Message) bool {
	if msg.TenantID == 0 {
		return false
	}
	if _, blocked := e.noXPChannels[msg.ChannelID]; blocked {
		return false
	}
	for _, roleID := range msg.AuthorRoleIDs {
		if _, blocked := e.noXPRoles[roleID]; blocked {
			return false
		}
	}
	if msg.AuthorIsBot {
		return false
	}
	if msg.Kind != core.KindDefault {
		return false
	}
	return e.Active()
}

// AwardXP runs the award pipeline for one inbound message. Eligibility
// failures and cooldown rejections are silent skips, not errors. A level-up
// advances the member exactly one level per call: xp resets to zero and any
// overshoot beyond the threshold is discarded.
func (e *Engine) AwardXP(ctx context.Context, amount Amount, msg Message, bonus *Bonus) (Result, error) {
	if !e.eligible(msg) {
		return Ineligible, nil
	}
	if amount == (Amount{}) {
		return Ineligible, &core.ConfigError{Field: "amount", Reason: "amount is unset; use FixedAmount, RangeAmount, or DefaultAmount"}
	}

	e.randMu.Lock()
	value := amount.roll(e.rand)
	e.randMu.Unlock()
	value = bonus.apply(value, msg.AuthorRoleIDs)

	now := msg.Now
	if now.IsZero() {
		now = time.Now()
	}
	if limiter := e.currentLimiter(); limiter != nil && !limiter.CheckAndConsume(msg.TenantID, msg.AuthorID, now) {
		return RateLimited, nil
	}

	rec, err := e.store.Get(ctx, msg.TenantID, msg.AuthorID)
	if err != nil {
		return Ineligible, err
	}

	if rec == nil {
		fresh := core.MemberRecord{
			TenantID: msg.TenantID,
			MemberID: msg.AuthorID,
			Name:     msg.AuthorName,
			Level:    0,
			XP:       value,
			TotalXP:  value,
		}
		if err := e.store.Upsert(ctx, fresh); err != nil {
			return Ineligible, err
		}
		e.bus.Publish(ctx, core.NewXPAwarded(msg.TenantID, msg.AuthorID, value, value))
		return Recorded, nil
	}

	if err := e.store.IncrementXP(ctx, msg.TenantID, msg.AuthorID, value); err != nil {
		return Ineligible, err
	}

	// re-read so the level-up check sees the committed xp
	rec, err = e.store.Get(ctx, msg.TenantID, msg.AuthorID)
	if err != nil || rec == nil {
		return Recorded, err
	}
	e.bus.Publish(ctx, core.NewXPAwarded(msg.TenantID, msg.AuthorID, value, rec.TotalXP))

	leveledUp := false
	next := core.NextLevelDetails(rec.Level)
	if rec.XP >= next.XPNeeded && rec.Level < next.Level {
		updated := *rec
		updated.Level = next.Level
		updated.XP = 0
		if err := e.store.Upsert(ctx, updated); err != nil {
			return Recorded, err
		}
		leveledUp = true
	}

	if err := e.refreshName(ctx, msg); err != nil {
		e.debug("refresh name failed", "tenant", msg.TenantID, "member", msg.AuthorID, "err", err)
	}

	if !leveledUp {
		return Recorded, nil
	}

	refreshed, err := e.DataFor(ctx, msg.TenantID, msg.AuthorID)
	if err != nil || refreshed == nil {
		return RecordedLevelUp, err
	}
	e.fireLevelUp(ctx, msg, *refreshed)
	return RecordedLevelUp, nil
}

// fireLevelUp dispatches the announcement, role awards, bus event, and the
// optional external notification. Side-effect failures are swallowed so a
// single tenant's misconfiguration cannot break leveling for others.
func (e *Engine) fireLevelUp(ctx context.Context, msg Message, rec core.MemberRecord) {
	e.bus.Publish(ctx, core.NewLevelUp(rec.TenantID, rec.MemberID, rec.Level, rec.TotalXP))

	if e.announceLevelUp && e.messenger != nil {
		e.sendAnnouncement(ctx, msg, rec)
	}
	if e.roles != nil {
		e.applyRoleAward(ctx, rec)
	}
	if e.notifier != nil {
		e.notifier.LevelUp(ctx, msg, rec)
	}
}

func (e *Engine) sendAnnouncement(ctx context.Context, msg Message, rec core.MemberRecord) {
	e.randMu.Lock()
	ann := announce.Pick(e.announcements, e.rand)
	e.randMu.Unlock()

	rendered := ann.Render(announce.Context{Record: rec, Profile: msg.Profile})

	channel := msg.ChannelID
	for _, id := range ann.ChannelIDs {
		if e.messenger.ChannelExists(ctx, msg.TenantID, id) {
			channel = id
			break
		}
	}
	if err := e.messenger.Send(ctx, msg.TenantID, channel, rendered); err != nil {
		e.debug("announcement send failed", "tenant", msg.TenantID, "channel", channel, "err", err)
	}
}

func (e *Engine) applyRoleAward(ctx context.Context, rec core.MemberRecord) {
	set := e.awardCfg[rec.TenantID]
	if set == nil {
		return
	}
	res, ok := set.Resolve(rec.Level, e.policy)
	if !ok {
		return
	}
	// grant and revoke fail independently: a role deleted on the platform
	// is a silent no-op for that side only
	if e.roles.RoleExists(ctx, rec.TenantID, res.Grant.RoleID) {
		if err := e.roles.AddRole(ctx, rec.TenantID, rec.MemberID, res.Grant.RoleID); err != nil {
			e.debug("role grant failed", "tenant", rec.TenantID, "role", res.Grant.RoleID, "err", err)
		}
	}
	if res.HasRevoke && res.Revoke != res.Grant {
		if e.roles.RoleExists(ctx, rec.TenantID, res.Revoke.RoleID) {
			if err := e.roles.RemoveRole(ctx, rec.TenantID, rec.MemberID, res.Revoke.RoleID); err != nil {
				e.debug("role revoke failed", "tenant", rec.TenantID, "role", res.Revoke.RoleID, "err", err)
			}
		}
	}
}

// refreshName mirrors the platform's current display name into the store
// when it has drifted.
func (e *Engine) refreshName(ctx context.Context, msg Message) error {
	if msg.AuthorName == "" {
		return nil
	}
	rec, err := e.store.Get(ctx, msg.TenantID, msg.AuthorID)
	if err != nil || rec == nil {
		return err
	}
	if rec.Name == msg.AuthorName {
		return nil
	}
	updated := *rec
	updated.Name = msg.AuthorName
	return e.store.Upsert(ctx, updated)
}

func (e *Engine) debug(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
