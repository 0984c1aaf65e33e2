// Package sdk provides typed access to the levelkit admin HTTP API and its
// websocket event stream.
package sdk

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"levelkit/core"
)

// Option configures the Client.
type Option func(*Client)

// Client talks to a running levelkitd.
type Client struct {
	baseURL    string
	wsURL      string
	httpClient *http.Client
	headers    http.Header
}

// NewClient targets the given base URL (e.g. http://localhost:8080/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	c := &Client{
		baseURL:    baseURL,
		wsURL:      deriveWSURL(baseURL),
		httpClient: http.DefaultClient,
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithAPIKey adds an X-API-Key header to every request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if strings.TrimSpace(key) != "" {
			c.headers.Set("X-API-Key", key)
		}
	}
}

// WithAuthToken adds an Authorization: Bearer header to every request.
func WithAuthToken(token string) Option {
	return func(c *Client) {
		if strings.TrimSpace(token) != "" {
			c.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

// Member fetches a member's record with rank. Returns ErrNoRecord when the
// member has never earned XP.
func (c *Client) Member(ctx context.Context, tenant core.TenantID, member core.MemberID) (core.MemberRecord, error) {
	u := fmt.Sprintf("%s/tenants/%d/members/%d", c.baseURL, tenant, member)
	var rec core.MemberRecord
	if err := c.getJSON(ctx, u, &rec); err != nil {
		return core.MemberRecord{}, err
	}
	return rec, nil
}

// Leaderboard fetches a tenant's records. Sort is one of name, level, xp,
// rank (empty defaults to rank); limit 0 means all.
func (c *Client) Leaderboard(ctx context.Context, tenant core.TenantID, sort string, limit int) ([]core.MemberRecord, error) {
	u, err := url.Parse(fmt.Sprintf("%s/tenants/%d/leaderboard", c.baseURL, tenant))
	if err != nil {
		return nil, err
	}
	q := u.Query()
	if sort != "" {
		q.Set("sort", sort)
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	u.RawQuery = q.Encode()

	var body LeaderboardPage
	if err := c.getJSON(ctx, u.String(), &body); err != nil {
		return nil, err
	}
	return body.Records, nil
}

// AdjustXP applies an admin XP delta (positive adds, negative removes) and
// returns the updated record.
func (c *Client) AdjustXP(ctx context.Context, tenant core.TenantID, member core.MemberID, delta int64) (core.MemberRecord, error) {
	if delta == 0 {
		return core.MemberRecord{}, errors.New("delta must be non-zero")
	}
	u := fmt.Sprintf("%s/tenants/%d/members/%d/xp?delta=%d", c.baseURL, tenant, member, delta)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	if err != nil {
		return core.MemberRecord{}, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return core.MemberRecord{}, err
	}
	defer resp.Body.Close()

	var rec core.MemberRecord
	if err := decodeJSON(resp, &rec); err != nil {
		return core.MemberRecord{}, err
	}
	return rec, nil
}

// Health probes /healthz.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	var hs HealthStatus
	if err := c.getJSON(ctx, c.baseURL+"/healthz", &hs); err != nil {
		return HealthStatus{}, err
	}
	return hs, nil
}

// SubscribeEvents streams leveling events over the websocket endpoint,
// scoped to one tenant unless tenant is 0. The channel closes when ctx is
// done or the connection drops.
func (c *Client) SubscribeEvents(ctx context.Context, tenant core.TenantID) (<-chan core.Event, error) {
	if c.wsURL == "" {
		return nil, errors.New("wsURL is not set; ensure baseURL is http/https")
	}
	target := c.wsURL
	if tenant != 0 {
		target += fmt.Sprintf("?tenant=%d", tenant)
	}
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	conn, _, err := dialer.DialContext(ctx, target, c.headers)
	if err != nil {
		return nil, err
	}

	out := make(chan core.Event, 32)
	go func() {
		defer close(out)
		defer conn.Close()
		for {
			select {
			case <-ctx.Done():
				return
			default:
				var ev core.Event
				if err := conn.ReadJSON(&ev); err != nil {
					return
				}
				select {
				case out <- ev:
				default:
					// drop if the consumer is slow
				}
			}
		}
	}()
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, u string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeJSON(resp, target)
}

func (c *Client) applyHeaders(r *http.Request) {
	for k, vals := range c.headers {
		for _, v := range vals {
			r.Header.Add(k, v)
		}
	}
}

func deriveWSURL(httpBase string) string {
	u, err := url.Parse(httpBase)
	if err != nil {
		return ""
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String()
}
