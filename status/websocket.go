// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package status

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// writeWait bounds a single push; pingPeriod (90% of pongWait) schedules
// keepalive pings, and a viewer whose ping or push write fails is removed.
const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // dashboard is not browser-facing; no origin to enforce
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// viewer is one connected dashboard websocket, push-only: nothing is read
// from the connection, so pong frames are not processed either.
type viewer struct {
	conn *websocket.Conn
	send chan []byte
}

func newViewer(conn *websocket.Conn) *viewer {
	return &viewer{conn: conn, send: make(chan []byte, 4)}
}

// run drives the write pump and must be started in its own goroutine by
// the hub immediately after registration.
func (v *viewer) run(unregister func(*viewer)) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		unregister(v)
		_ = v.conn.Close()
	}()
	for {
		select {
		case buf, ok := <-v.send:
			_ = v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = v.conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := v.conn.WriteMessage(websocket.TextMessage, buf); err != nil {
				return
			}
		case <-ticker.C:
			_ = v.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := v.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// socketHub tracks every connected viewer and fans a snapshot out to
// all of them, scoped down to the one thing the dashboard needs:
// broadcast.
type socketHub struct {
	mu      sync.Mutex
	viewers map[*viewer]struct{}
}

func newSocketHub() *socketHub {
	return &socketHub{viewers: make(map[*viewer]struct{})}
}

func (h *socketHub) register(v *viewer) {
	h.mu.Lock()
	h.viewers[v] = struct{}{}
	h.mu.Unlock()
	go v.run(h.unregister)
}

func (h *socketHub) unregister(v *viewer) {
	h.mu.Lock()
	delete(h.viewers, v)
	h.mu.Unlock()
}

func (h *socketHub) broadcast(buf []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for v := range h.viewers {
		select {
		case v.send <- buf:
		default:
			// viewer's send buffer is full; drop rather than block the
			// caller of Dashboard.Refresh.
		}
	}
}
