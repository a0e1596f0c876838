// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package interest implements the zone-based interest manager: a
// conceptual grid of fixed-size zones over world coordinates, with a
// 3x3 visibility window per player.
package interest

import (
	"sync"

	"github.com/kenshimp/replicore/protocol"
)

// Radius is the default visibility window half-width: a
// zone is visible when both axis differences are within Radius, i.e. a
// 3x3 window around the player's own zone.
const Radius int32 = 1

// Visible is the pure predicate P3 is checked against: true iff
// playerZone and entityZone are adjacent under Radius.
func Visible(playerZone, entityZone protocol.ZoneCoord) bool {
	return playerZone.IsAdjacent(entityZone, Radius)
}

// Manager tracks each connected player's current zone and answers
// "which entities does this player currently care about" queries. It
// holds no entity data itself; callers supply zone lookups (typically
// backed by the registry or the server's entity table).
type Manager struct {
	mu    sync.RWMutex
	zones map[protocol.PlayerID]protocol.ZoneCoord
}

func NewManager() *Manager {
	return &Manager{zones: make(map[protocol.PlayerID]protocol.ZoneCoord)}
}

// OnPlayerMoved records a player's zone, recomputed from their current
// position by the caller. On the client side this is the local player;
// on the server it is whichever ConnectedPlayer just moved.
func (m *Manager) OnPlayerMoved(player protocol.PlayerID, newZone protocol.ZoneCoord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.zones[player] = newZone
}

func (m *Manager) PlayerZone(player protocol.PlayerID) (protocol.ZoneCoord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	z, ok := m.zones[player]
	return z, ok
}

func (m *Manager) Forget(player protocol.PlayerID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.zones, player)
}

// ShouldSync reports whether entityZone is currently visible to player.
// False (not an error) when the player's zone is not yet known.
func (m *Manager) ShouldSync(player protocol.PlayerID, entityZone protocol.ZoneCoord) bool {
	z, ok := m.PlayerZone(player)
	if !ok {
		return false
	}
	return Visible(z, entityZone)
}

// InterestZones returns the 3x3 set of zones currently visible to
// player, or nil if the player's zone is unknown.
func (m *Manager) InterestZones(player protocol.PlayerID) []protocol.ZoneCoord {
	z, ok := m.PlayerZone(player)
	if !ok {
		return nil
	}
	out := make([]protocol.ZoneCoord, 0, (2*Radius+1)*(2*Radius+1))
	for dx := -Radius; dx <= Radius; dx++ {
		for dz := -Radius; dz <= Radius; dz++ {
			out = append(out, protocol.ZoneCoord{X: z.X + dx, Z: z.Z + dz})
		}
	}
	return out
}

// EntitiesForPlayer filters candidates down to the entities whose zone,
// as reported by zoneOf, is visible to player, and returns them. It
// returns nil for an unknown player. Used each server tick to build the
// broadcast set without the manager needing to know about entities itself.
func (m *Manager) EntitiesForPlayer(player protocol.PlayerID, zoneOf func(protocol.EntityID) protocol.ZoneCoord, candidates []protocol.EntityID) []protocol.EntityID {
	z, ok := m.PlayerZone(player)
	if !ok {
		return nil
	}
	out := make([]protocol.EntityID, 0, len(candidates))
	for _, id := range candidates {
		if Visible(z, zoneOf(id)) {
			out = append(out, id)
		}
	}
	return out
}
