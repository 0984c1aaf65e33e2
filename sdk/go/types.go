package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"levelkit/core"
)

// TenantID and MemberID alias the core identifiers so SDK callers can stay
// off the internal packages.
type (
	TenantID = core.TenantID
	MemberID = core.MemberID
)

// LeaderboardPage is the leaderboard response body.
type LeaderboardPage struct {
	TenantID core.TenantID       `json:"tenant_id"`
	Records  []core.MemberRecord `json:"records"`
}

// HealthStatus describes the /healthz response.
type HealthStatus struct {
	Status string         `json:"status"`
	Checks map[string]any `json:"checks"`
}

// ErrNoRecord is returned when the queried member has never earned XP.
var ErrNoRecord = errors.New("member has no record")

func decodeJSON(resp *http.Response, target any) error {
	if resp.StatusCode == http.StatusNotFound {
		return ErrNoRecord
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("request failed: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}
