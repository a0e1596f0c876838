// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package gameserver

import (
	"sync"

	"github.com/kenshimp/replicore/combat"
	"github.com/kenshimp/replicore/protocol"
)

// ServerEntity is the authoritative server-side record for one entity.
// Clients hold only an advisory replica; this is the value reconciled
// into on every mutating handler and broadcast.
type ServerEntity struct {
	ID         protocol.EntityID
	Type       protocol.EntityType
	Owner      protocol.PlayerID // 0 = server-owned
	Zone       protocol.ZoneCoord
	Position   protocol.Vec3
	Rotation   protocol.Quat
	TemplateID uint32
	FactionID  uint32
	// TemplateName is optional, <= 255 bytes.
	TemplateName string
	Health       [protocol.BodyPartCount]float32
	AnimState    uint8
	MoveSpeed    uint8
	Flags        uint16
	Alive        bool

	AttackStat  float32
	DefenseStat float32
}

// AsCombatant exposes the subset of state combat.Resolver mutates,
// without letting the resolver see or touch zone/owner/template fields.
func (e *ServerEntity) AsCombatant() *combat.Combatant {
	return &combat.Combatant{
		AttackStat:  e.AttackStat,
		DefenseStat: e.DefenseStat,
		Health:      e.Health,
		Alive:       e.Alive,
	}
}

// ApplyCombatant writes a mutated Combatant's health/alive fields back.
func (e *ServerEntity) ApplyCombatant(c *combat.Combatant) {
	e.Health = c.Health
	e.Alive = c.Alive
}

// EntityStore owns the world's ServerEntity set. Guarded by a mutex
// because the console-input thread reads status concurrently with the
// single-threaded tick loop.
type EntityStore struct {
	mu      sync.Mutex
	byID    map[protocol.EntityID]*ServerEntity
	nextID  protocol.EntityID
}

func NewEntityStore() *EntityStore {
	return &EntityStore{
		byID:   make(map[protocol.EntityID]*ServerEntity),
		nextID: 1,
	}
}

// Spawn allocates a new, strictly increasing EntityID and stores e,
// holding the store's lock for both steps.
func (s *EntityStore) Spawn(e ServerEntity) *ServerEntity {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.nextID
	s.nextID++
	e.Zone = protocol.ZoneFromPosition(e.Position)
	stored := &e
	s.byID[stored.ID] = stored
	return stored
}

// Restore inserts an entity with a caller-supplied id, used only when
// rebuilding from a world save. Advances the allocator
// past the restored id.
func (s *EntityStore) Restore(e ServerEntity) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.Zone = protocol.ZoneFromPosition(e.Position)
	stored := &e
	s.byID[stored.ID] = stored
	if stored.ID >= s.nextID {
		s.nextID = stored.ID + 1
	}
}

func (s *EntityStore) Get(id protocol.EntityID) (*ServerEntity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	return e, ok
}

func (s *EntityStore) Despawn(id protocol.EntityID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
}

// All returns a snapshot slice of every entity. Copies the pointers,
// not the records, but callers outside the tick loop should treat the
// result as read-only.
func (s *EntityStore) All() []*ServerEntity {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*ServerEntity, 0, len(s.byID))
	for _, e := range s.byID {
		out = append(out, e)
	}
	return out
}

func (s *EntityStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// EntitiesOwnedBy returns every entity currently owned by player.
func (s *EntityStore) EntitiesOwnedBy(player protocol.PlayerID) []*ServerEntity {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*ServerEntity, 0)
	for _, e := range s.byID {
		if e.Owner == player {
			out = append(out, e)
		}
	}
	return out
}

// UpdateTransform overwrites position/rotation/anim/speed/flags and
// recomputes zone, per a C2S_PositionUpdate entry.
func (s *EntityStore) UpdateTransform(id protocol.EntityID, pos protocol.Vec3, rot protocol.Quat, anim, speed uint8, flags uint16) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return
	}
	e.Position = pos
	e.Rotation = rot
	e.AnimState = anim
	e.MoveSpeed = speed
	e.Flags = flags
	e.Zone = protocol.ZoneFromPosition(pos)
}

// ReassignOwner transfers every entity owned by from to 0 (server-owned)
// without despawning it.
func (s *EntityStore) ReassignOwner(from protocol.PlayerID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.byID {
		if e.Owner == from {
			e.Owner = 0
		}
	}
}
