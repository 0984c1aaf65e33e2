// Package websocket streams leveling events to browser and bot clients.
package websocket

import (
	"net/http"
	"strconv"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"levelkit/core"
	"levelkit/realtime"
)

const (
	subscribeBuffer = 256
	writeTimeout    = 5 * time.Second
)

// Handler upgrades the request and streams hub events as JSON text frames.
// A `tenant` query parameter scopes the stream to one tenant; without it the
// client sees every tenant.
func Handler(hub *realtime.Hub) http.Handler {
	upgrader := gorillaws.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenant := realtime.AllTenants
		if raw := r.URL.Query().Get("tenant"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				http.Error(w, "invalid tenant", http.StatusBadRequest)
				return
			}
			tenant = core.TenantID(id)
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		id, ch := hub.Subscribe(tenant, subscribeBuffer)
		defer hub.Unsubscribe(id)

		for ev := range ch {
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(gorillaws.TextMessage, realtime.MarshalJSON(ev)); err != nil {
				return
			}
		}
	})
}
