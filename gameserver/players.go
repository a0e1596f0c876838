// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package gameserver

import (
	"sync"
	"time"

	"github.com/gofrs/uuid"

	"github.com/kenshimp/replicore/protocol"
	"github.com/kenshimp/replicore/transport"
)

// ConnectedPlayer is the server-side per-connection record. Created on
// successful handshake; destroyed on disconnect/timeout/kick.
type ConnectedPlayer struct {
	ID             protocol.PlayerID
	Name           string
	Peer           transport.Peer
	PeerID         uint32
	Position       protocol.Vec3
	Zone           protocol.ZoneCoord
	PingMS         uint32
	LastUpdateTime time.Time
	Entities       []protocol.EntityID

	// CorrelationID tags every log line for this connection with a
	// short, globally unique token generated via github.com/gofrs/uuid.
	CorrelationID string
}

// PlayerTable owns the connected-player set plus the pending (post-
// CONNECT, pre-handshake) peer set. Guarded by one mutex so admin
// commands from the console thread can read status concurrently.
type PlayerTable struct {
	mu        sync.Mutex
	byID      map[protocol.PlayerID]*ConnectedPlayer
	byPeerID  map[uint32]*ConnectedPlayer
	pending   map[uint32]struct{}
	nextID    protocol.PlayerID
}

func NewPlayerTable() *PlayerTable {
	return &PlayerTable{
		byID:     make(map[protocol.PlayerID]*ConnectedPlayer),
		byPeerID: make(map[uint32]*ConnectedPlayer),
		pending:  make(map[uint32]struct{}),
		nextID:   1,
	}
}

// MarkPending records a newly-connected peer that has not yet completed
// a handshake.
func (t *PlayerTable) MarkPending(peerID uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[peerID] = struct{}{}
}

func (t *PlayerTable) IsPending(peerID uint32) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.pending[peerID]
	return ok
}

// Admit promotes a pending peer to a full ConnectedPlayer with a newly
// allocated, strictly monotonic PlayerID that never reuses 0.
func (t *PlayerTable) Admit(peerID uint32, peer transport.Peer, name string) *ConnectedPlayer {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, peerID)
	id := t.nextID
	t.nextID++
	correlation := ""
	if u, err := uuid.NewV4(); err == nil {
		correlation = u.String()[:8]
	}
	p := &ConnectedPlayer{
		ID:             id,
		Name:           name,
		Peer:           peer,
		PeerID:         peerID,
		LastUpdateTime: time.Now(),
		CorrelationID:  correlation,
	}
	t.byID[id] = p
	t.byPeerID[peerID] = p
	return p
}

func (t *PlayerTable) ByPeerID(peerID uint32) (*ConnectedPlayer, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.byPeerID[peerID]
	return p, ok
}

func (t *PlayerTable) ByID(id protocol.PlayerID) (*ConnectedPlayer, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.byID[id]
	return p, ok
}

// Remove tears down both indices for a disconnecting/kicked player.
func (t *PlayerTable) Remove(peerID uint32) (*ConnectedPlayer, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.pending, peerID)
	p, ok := t.byPeerID[peerID]
	if !ok {
		return nil, false
	}
	delete(t.byPeerID, peerID)
	delete(t.byID, p.ID)
	return p, true
}

// All returns a snapshot of every connected player.
func (t *PlayerTable) All() []*ConnectedPlayer {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*ConnectedPlayer, 0, len(t.byID))
	for _, p := range t.byID {
		out = append(out, p)
	}
	return out
}

func (t *PlayerTable) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byID)
}

// ByName does a linear scan for a connected player with a matching name
// (case-sensitive; console commands operate on the name the player
// chose at handshake time). Used only by admin.go's rarely-invoked
// ban/kick-by-name path, so the O(n) scan is not worth indexing.
func (t *PlayerTable) ByName(name string) (*ConnectedPlayer, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range t.byID {
		if p.Name == name {
			return p, true
		}
	}
	return nil, false
}

// UpdatePositionAndZone is called from the C2S_PositionUpdate handler.
func (p *ConnectedPlayer) UpdatePositionAndZone(pos protocol.Vec3) {
	p.Position = pos
	p.Zone = protocol.ZoneFromPosition(pos)
}
