// Package webhook posts level-up notifications to external HTTP endpoints,
// for dashboards or moderation tooling outside the chat platform.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"time"

	"levelkit/core"
	"levelkit/engine"
)

// payload is the JSON body posted for each level-up.
type payload struct {
	Type     string        `json:"type"`
	TenantID core.TenantID `json:"tenant_id"`
	MemberID core.MemberID `json:"member_id"`
	Name     string        `json:"name"`
	Level    int           `json:"level"`
	TotalXP  int64         `json:"total_xp"`
	At       time.Time     `json:"at"`
}

// Sink delivers notifications synchronously; endpoints should answer fast
// or sit behind a queue. Delivery failures are logged, never returned, so
// the award pipeline stays unaffected.
type Sink struct {
	client    *http.Client
	endpoints []string
	logger    *slog.Logger
}

// Option configures a Sink.
type Option func(*Sink)

// WithClient overrides the HTTP client (default 2s timeout).
func WithClient(c *http.Client) Option {
	return func(s *Sink) {
		if c != nil {
			s.client = c
		}
	}
}

// WithLogger enables delivery-failure logging.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sink) { s.logger = l }
}

// New creates a sink posting to the given endpoints.
func New(endpoints []string, opts ...Option) *Sink {
	s := &Sink{
		client:    &http.Client{Timeout: 2 * time.Second},
		endpoints: append([]string{}, endpoints...),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LevelUp implements engine.Notifier.
func (s *Sink) LevelUp(ctx context.Context, _ engine.Message, rec core.MemberRecord) {
	s.post(ctx, payload{
		Type:     "level_up",
		TenantID: rec.TenantID,
		MemberID: rec.MemberID,
		Name:     rec.Name,
		Level:    rec.Level,
		TotalXP:  rec.TotalXP,
		At:       time.Now().UTC(),
	})
}

func (s *Sink) post(ctx context.Context, p payload) {
	if len(s.endpoints) == 0 {
		return
	}
	body, err := json.Marshal(p)
	if err != nil {
		return
	}
	for _, endpoint := range s.endpoints {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := s.client.Do(req)
		if err != nil {
			s.warn("webhook delivery failed", "endpoint", endpoint, "err", err)
			continue
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		if resp.StatusCode >= 400 {
			s.warn("webhook rejected", "endpoint", endpoint, "status", resp.StatusCode)
		}
	}
}

func (s *Sink) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}
