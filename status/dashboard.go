// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package status implements the optional operator dashboard: a JSON
// status snapshot served over HTTP and pushed live to connected
// websocket viewers, built around an atomic.Value status snapshot plus
// ServeIndex/ServeSocket pair.
package status

import (
	"encoding/json"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/net/netutil"
)

// maxConnections bounds inbound dashboard connections to an order of
// magnitude appropriate for a side-channel admin surface.
const maxConnections = 64

// StatusSource is whatever can produce a JSON-marshalable snapshot;
// gameserver.Server.Status satisfies this without the status package
// importing gameserver, avoiding an import cycle between the two.
type StatusSource func() interface{}

// Dashboard serves the latest snapshot as JSON on "/" and streams it to
// websocket clients connected on "/ws".
type Dashboard struct {
	source StatusSource
	latest atomic.Value // json []byte
	hub    *socketHub
}

func NewDashboard(source StatusSource) *Dashboard {
	return &Dashboard{
		source: source,
		hub:    newSocketHub(),
	}
}

// Refresh re-marshals the current snapshot and pushes it to every
// connected websocket viewer. The cadence is up to the caller; cheap
// enough to run every tick at typical player counts. cmd/kenshimpd does
// not call it, so until something does, ServeIndex writes an empty body
// and viewers receive no pushes.
func (d *Dashboard) Refresh() {
	buf, err := json.Marshal(d.source())
	if err != nil {
		return
	}
	d.latest.Store(buf)
	d.hub.broadcast(buf)
}

// ServeIndex writes the latest snapshot (CORS header, content type, Load
// from the atomic.Value).
func (d *Dashboard) ServeIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")
	if buf, ok := d.latest.Load().([]byte); ok {
		_, _ = w.Write(buf)
	}
}

// ServeSocket upgrades the request and registers the new viewer with
// the push hub. No per-IP connection-count gate: the dashboard is not
// expected to be internet-facing (see config.Status's doc comment).
func (d *Dashboard) ServeSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	d.hub.register(newViewer(conn))
}

// ListenAndServe binds addr, wraps the listener in netutil.LimitListener,
// and serves ServeIndex/ServeSocket until the listener errors or is
// closed.
// Intended to run in its own goroutine; blocks until the listener dies.
func (d *Dashboard) ListenAndServe(addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", d.ServeIndex)
	mux.HandleFunc("/ws", d.ServeSocket)

	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	l = netutil.LimitListener(l, maxConnections)

	srv := &http.Server{
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	return srv.Serve(l)
}
