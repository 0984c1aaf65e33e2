// Package httpapi exposes a small admin REST surface over the award engine,
// plus a websocket stream of live events.
package httpapi

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	wsadapter "levelkit/adapters/websocket"
	"levelkit/core"
	"levelkit/engine"
	"levelkit/leaderboard"
	"levelkit/realtime"
)

// Options configures the HTTP surface.
type Options struct {
	// PathPrefix, if set, is prepended to all routes (e.g. "/api").
	PathPrefix string
	// AllowCORSOrigin enables basic CORS for the given origin ("*" for any).
	AllowCORSOrigin string
	// APIKeys enables static key auth via Authorization: Bearer or X-API-Key.
	APIKeys []string
	// RateLimitEnabled toggles per-client request limiting.
	RateLimitEnabled bool
	RateLimitRPM     int
	RateLimitBurst   int
}

// NewMux builds the admin handler. Routes:
//   - GET  {prefix}/tenants/{tenant}/members/{member}
//   - GET  {prefix}/tenants/{tenant}/leaderboard?sort=rank&limit=10
//   - POST {prefix}/tenants/{tenant}/members/{member}/xp?delta=50
//   - GET  {prefix}/healthz
//   - WS   {prefix}/ws?tenant={tenant}
func NewMux(e *engine.Engine, hub *realtime.Hub, opts Options) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(withPrefix(opts.PathPrefix, "/healthz"), func(w http.ResponseWriter, r *http.Request) {
		healthCheck(w, r, e)
	})

	if hub != nil {
		mux.Handle(withPrefix(opts.PathPrefix, "/ws"), wsadapter.Handler(hub))
	}

	mux.HandleFunc(withPrefix(opts.PathPrefix, "/tenants/"), func(w http.ResponseWriter, r *http.Request) {
		routeTenants(w, r, e, opts.PathPrefix)
	})

	var handler http.Handler = mux
	if opts.AllowCORSOrigin != "" {
		handler = withCORS(handler, opts.AllowCORSOrigin)
	}
	if len(opts.APIKeys) > 0 {
		handler = withAPIKeyAuth(handler, opts.APIKeys)
	}
	if opts.RateLimitEnabled && opts.RateLimitRPM > 0 && opts.RateLimitBurst > 0 {
		handler = withRateLimit(handler, opts.RateLimitRPM, opts.RateLimitBurst)
	}
	return handler
}

// routeTenants dispatches /tenants/{tenant}/... paths.
func routeTenants(w http.ResponseWriter, r *http.Request, e *engine.Engine, prefix string) {
	path := strings.TrimPrefix(r.URL.Path, prefix)
	parts := splitPath(path)
	// parts[0] is "tenants"
	if len(parts) < 3 {
		writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
		return
	}
	tenant, err := parseID(parts[1])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_tenant", "tenant must be a positive integer", nil)
		return
	}

	switch {
	case parts[2] == "leaderboard" && len(parts) == 3 && r.Method == http.MethodGet:
		handleLeaderboard(w, r, e, core.TenantID(tenant))

	case parts[2] == "members" && len(parts) == 4 && r.Method == http.MethodGet:
		member, err := parseID(parts[3])
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_member", "member must be a positive integer", nil)
			return
		}
		handleGetMember(w, r, e, core.TenantID(tenant), core.MemberID(member))

	case parts[2] == "members" && len(parts) == 5 && parts[4] == "xp" && r.Method == http.MethodPost:
		member, err := parseID(parts[3])
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_member", "member must be a positive integer", nil)
			return
		}
		handleAdjustXP(w, r, e, core.TenantID(tenant), core.MemberID(member))

	default:
		writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
	}
}

func handleGetMember(w http.ResponseWriter, r *http.Request, e *engine.Engine, tenant core.TenantID, member core.MemberID) {
	rec, err := e.DataFor(r.Context(), tenant, member)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
		return
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "not_found", "member has no record", nil)
		return
	}
	writeJSON(w, rec)
}

func handleLeaderboard(w http.ResponseWriter, r *http.Request, e *engine.Engine, tenant core.TenantID) {
	sortKey := leaderboard.SortKey(r.URL.Query().Get("sort"))
	if sortKey == "" {
		sortKey = leaderboard.ByRank
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer", nil)
			return
		}
		limit = n
	}

	records, err := e.EachMemberData(r.Context(), tenant, sortKey, limit)
	if err != nil {
		if !leaderboard.ValidSortKey(sortKey) {
			writeError(w, http.StatusBadRequest, "invalid_sort", err.Error(), nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
		return
	}
	writeJSON(w, map[string]any{"tenant_id": tenant, "records": records})
}

// handleAdjustXP applies an admin XP delta: positive adds, negative
// removes.
func handleAdjustXP(w http.ResponseWriter, r *http.Request, e *engine.Engine, tenant core.TenantID, member core.MemberID) {
	delta, err := strconv.ParseInt(r.URL.Query().Get("delta"), 10, 64)
	if err != nil || delta == 0 {
		writeError(w, http.StatusBadRequest, "invalid_delta", "delta must be a non-zero integer", nil)
		return
	}

	exists, err := e.IsInStore(r.Context(), tenant, member)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
		return
	}
	if !exists {
		writeError(w, http.StatusNotFound, "not_found", "member has no record", nil)
		return
	}

	if delta > 0 {
		err = e.AddXP(r.Context(), tenant, member, delta)
	} else {
		err = e.RemoveXP(r.Context(), tenant, member, -delta)
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_input", err.Error(), nil)
		return
	}

	rec, err := e.DataFor(r.Context(), tenant, member)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
		return
	}
	writeJSON(w, rec)
}

// healthCheck probes the store with a harmless read.
func healthCheck(w http.ResponseWriter, r *http.Request, e *engine.Engine) {
	_, err := e.RecordCount(r.Context(), nil)

	status := map[string]any{
		"status": "healthy",
		"checks": map[string]any{"storage": "ok"},
	}
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		status["status"] = "unhealthy"
		status["checks"].(map[string]any)["storage"] = "failed"
		_ = json.NewEncoder(w).Encode(status)
		return
	}
	writeJSON(w, status)
}

func withPrefix(prefix, path string) string {
	if prefix == "" || prefix == "/" {
		return path
	}
	return strings.TrimSuffix(prefix, "/") + path
}

func splitPath(p string) []string {
	var parts []string
	for _, part := range strings.Split(p, "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return parts
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, strconv.ErrSyntax
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{Code: code, Message: msg, Details: details})
}

// withCORS wraps a handler with a minimal CORS policy.
func withCORS(next http.Handler, origin string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Vary", "Origin")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withAPIKeyAuth enforces a shared API key list.
func withAPIKeyAuth(next http.Handler, apiKeys []string) http.Handler {
	allowed := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		k = strings.TrimSpace(k)
		if k != "" {
			allowed[k] = struct{}{}
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := extractAPIKey(r)
		if key == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing API key", nil)
			return
		}
		if _, ok := allowed[key]; !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid API key", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit applies a token-bucket limiter per client key.
func withRateLimit(next http.Handler, rpm, burst int) http.Handler {
	limiter := newRateLimiter(rpm, burst)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.allow(clientKey(r)) {
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractAPIKey(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return r.Header.Get("X-API-Key")
}

// clientKey uses the API key if present, otherwise the remote IP.
func clientKey(r *http.Request) string {
	if key := extractAPIKey(r); key != "" {
		return key
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type rateLimiter struct {
	rpm   float64
	burst float64
	mu    sync.Mutex
	b     map[string]*tokenBucket
}

type tokenBucket struct {
	tokens float64
	last   time.Time
}

func newRateLimiter(rpm, burst int) *rateLimiter {
	return &rateLimiter{
		rpm:   float64(rpm),
		burst: float64(burst),
		b:     make(map[string]*tokenBucket),
	}
}

func (l *rateLimiter) allow(key string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.b[key]
	if !ok {
		l.b[key] = &tokenBucket{tokens: l.burst - 1, last: now}
		return true
	}
	b.tokens += now.Sub(b.last).Minutes() * l.rpm
	if b.tokens > l.burst {
		b.tokens = l.burst
	}
	b.last = now
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}
