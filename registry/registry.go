// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package registry implements the bidirectional entity index: a pair
// of maps guarded by one reader-writer lock,
// mapping a 32-bit network entity id to its metadata and (for locally
// reified entities) back to the opaque game-object handle that
// represents it in the host game.
package registry

import (
	"sync"

	"github.com/kenshimp/replicore/protocol"
)

// GameObject is an opaque handle to a concrete representation in the
// local game world. It is compared for equality only, never dereferenced
// by the registry itself; the LocalCharacterSource on the other side of
// the injection boundary knows what it actually points to.
type GameObject any

// Info is the registry's per-entity metadata record.
type Info struct {
	NetID           protocol.EntityID
	GameObject      GameObject // nil for ghost remote entities before reification
	Type            protocol.EntityType
	OwnerPlayerID   protocol.PlayerID // 0 = server-owned
	Zone            protocol.ZoneCoord
	LastPosition    protocol.Vec3
	LastRotation    protocol.Quat
	LastUpdateTick  protocol.TickNumber
	IsRemote        bool
}

// Registry is the thread-safe bidirectional index. The zero value is not
// usable; construct with New.
type Registry struct {
	mu         sync.RWMutex
	byNetID    map[protocol.EntityID]*Info
	byObject   map[GameObject]protocol.EntityID
	nextLocal  protocol.EntityID
}

func New() *Registry {
	return &Registry{
		byNetID:   make(map[protocol.EntityID]*Info),
		byObject:  make(map[GameObject]protocol.EntityID),
		nextLocal: 1,
	}
}

// Register assigns a new local id to obj if not already known, or returns
// the existing one (I2: at most one Info per non-nil GameObject).
func (r *Registry) Register(obj GameObject, t protocol.EntityType) protocol.EntityID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.byObject[obj]; ok {
		return id
	}
	id := r.nextLocal
	r.nextLocal++
	info := &Info{NetID: id, GameObject: obj, Type: t, IsRemote: false}
	r.byNetID[id] = info
	if obj != nil {
		r.byObject[obj] = id
	}
	return id
}

// RegisterRemote records a server-assigned remote entity whose game
// object is not yet reified. Advances the local id counter strictly past
// netID (I4: only the registry allocates local ids, and they never
// collide with a server-observed id).
func (r *Registry) RegisterRemote(netID protocol.EntityID, t protocol.EntityType, owner protocol.PlayerID, pos protocol.Vec3) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byNetID[netID] = &Info{
		NetID:         netID,
		Type:          t,
		OwnerPlayerID: owner,
		Zone:          protocol.ZoneFromPosition(pos),
		LastPosition:  pos,
		IsRemote:      true,
	}
	if netID >= r.nextLocal {
		r.nextLocal = netID + 1
	}
}

// SetGameObject binds a later-reified local representation to a known
// remote entity.
func (r *Registry) SetGameObject(netID protocol.EntityID, obj GameObject) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.byNetID[netID]
	if !ok {
		return
	}
	if info.GameObject != nil {
		delete(r.byObject, info.GameObject)
	}
	info.GameObject = obj
	if obj != nil {
		r.byObject[obj] = netID
	}
}

// UpdatePosition mutates LastPosition and recomputes Zone (I3).
func (r *Registry) UpdatePosition(id protocol.EntityID, pos protocol.Vec3) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.byNetID[id]
	if !ok {
		return
	}
	info.LastPosition = pos
	info.Zone = protocol.ZoneFromPosition(pos)
}

func (r *Registry) UpdateRotation(id protocol.EntityID, rot protocol.Quat) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if info, ok := r.byNetID[id]; ok {
		info.LastRotation = rot
	}
}

// SetLastUpdateTick records the server tick that last moved this entity.
func (r *Registry) SetLastUpdateTick(id protocol.EntityID, tick protocol.TickNumber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if info, ok := r.byNetID[id]; ok {
		info.LastUpdateTick = tick
	}
}

// Unregister removes both map entries for id.
func (r *Registry) Unregister(id protocol.EntityID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.byNetID[id]
	if !ok {
		return
	}
	if info.GameObject != nil {
		delete(r.byObject, info.GameObject)
	}
	delete(r.byNetID, id)
}

// RemoveEntitiesInZone unregisters every remote entity in zone (used when
// the local client unloads an area).
func (r *Registry) RemoveEntitiesInZone(zone protocol.ZoneCoord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, info := range r.byNetID {
		if info.IsRemote && info.Zone == zone {
			if info.GameObject != nil {
				delete(r.byObject, info.GameObject)
			}
			delete(r.byNetID, id)
		}
	}
}

// GetInfo returns a copy of the entity's metadata. Copies, not pointers,
// cross the lock boundary so callers never hold it.
func (r *Registry) GetInfo(id protocol.EntityID) (Info, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.byNetID[id]
	if !ok {
		return Info{}, false
	}
	return *info, true
}

func (r *Registry) GetNetID(obj GameObject) (protocol.EntityID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byObject[obj]
	return id, ok
}

func (r *Registry) GetGameObject(id protocol.EntityID) (GameObject, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.byNetID[id]
	if !ok || info.GameObject == nil {
		return nil, false
	}
	return info.GameObject, true
}

func (r *Registry) GetRemoteEntities() []protocol.EntityID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]protocol.EntityID, 0, len(r.byNetID))
	for id, info := range r.byNetID {
		if info.IsRemote {
			out = append(out, id)
		}
	}
	return out
}

func (r *Registry) GetEntitiesInZone(zone protocol.ZoneCoord) []protocol.EntityID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]protocol.EntityID, 0)
	for id, info := range r.byNetID {
		if info.Zone == zone {
			out = append(out, id)
		}
	}
	return out
}

func (r *Registry) GetPlayerEntities(playerID protocol.PlayerID) []protocol.EntityID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]protocol.EntityID, 0)
	for id, info := range r.byNetID {
		if info.OwnerPlayerID == playerID {
			out = append(out, id)
		}
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byNetID)
}

func (r *Registry) RemoteCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, info := range r.byNetID {
		if info.IsRemote {
			n++
		}
	}
	return n
}

func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byNetID = make(map[protocol.EntityID]*Info)
	r.byObject = make(map[GameObject]protocol.EntityID)
	r.nextLocal = 1
}
