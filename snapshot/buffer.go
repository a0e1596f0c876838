// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package snapshot implements the per-entity timestamped snapshot ring
// and its render-time interpolator.
package snapshot

import (
	"sync"

	"github.com/kenshimp/replicore/protocol"
)

// MaxSnapshots bounds the per-entity deque; oldest entries are evicted
// first once exceeded.
const MaxSnapshots = 20

// InterpDelaySec is the default render-time lag applied before sampling
// the buffer, smoothing over jitter between arrivals.
const InterpDelaySec float32 = 0.1

// Snapshot is one timestamped remote-entity sample.
type Snapshot struct {
	T         float32 // seconds, monotonic clock domain
	Pos       protocol.Vec3
	Rot       protocol.Quat
	MoveSpeed float32
	AnimState uint8
}

// Buffer holds the bounded, ascending-by-T snapshot history for every
// remote entity currently known to the client. Safe for concurrent use:
// the network thread appends while the game thread reads.
type Buffer struct {
	mu   sync.Mutex
	byID map[protocol.EntityID][]Snapshot
}

func NewBuffer() *Buffer {
	return &Buffer{byID: make(map[protocol.EntityID][]Snapshot)}
}

// Add appends s to id's deque in order, evicting from the front once
// MaxSnapshots is exceeded. Snapshots are expected to arrive in
// non-decreasing T; an out-of-order arrival is inserted at the correct
// position rather than dropped, since channel 2 does not guarantee order.
func (b *Buffer) Add(id protocol.EntityID, s Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.byID[id]
	i := len(list)
	for i > 0 && list[i-1].T > s.T {
		i--
	}
	list = append(list, Snapshot{})
	copy(list[i+1:], list[i:])
	list[i] = s
	if len(list) > MaxSnapshots {
		list = list[len(list)-MaxSnapshots:]
	}
	b.byID[id] = list
}

// Remove discards all history for id (used when the dispatcher handles
// an S2C_EntityDespawn).
func (b *Buffer) Remove(id protocol.EntityID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.byID, id)
}

// Interpolated is the resolved render-time sample for one entity.
type Interpolated struct {
	Pos       protocol.Vec3
	Rot       protocol.Quat
	MoveSpeed float32
	AnimState uint8
}

// GetInterpolated returns the render-time interpolated sample for id.
func (b *Buffer) GetInterpolated(id protocol.EntityID, renderTime float32) (Interpolated, bool) {
	interpTime := renderTime - InterpDelaySec

	b.mu.Lock()
	list := b.byID[id]
	cp := make([]Snapshot, len(list))
	copy(cp, list)
	b.mu.Unlock()

	if len(cp) == 0 {
		return Interpolated{}, false
	}

	var before, after *Snapshot
	for i := range cp {
		if cp[i].T <= interpTime {
			before = &cp[i]
		}
		if cp[i].T >= interpTime && after == nil {
			after = &cp[i]
		}
	}

	switch {
	case before == nil && after == nil:
		return Interpolated{}, false
	case before == nil:
		return fromSnapshot(*after), true
	case after == nil:
		return fromSnapshot(*before), true
	case before.T == after.T:
		return fromSnapshot(*before), true
	}

	u := (interpTime - before.T) / (after.T - before.T)
	u = protocol.Clamp32(u, 0, 1)

	result := Interpolated{
		Pos: before.Pos.Lerp(after.Pos, u),
		Rot: protocol.Slerp(before.Rot, after.Rot, u),
	}
	if u <= 0.5 {
		result.MoveSpeed = before.MoveSpeed
		result.AnimState = before.AnimState
	} else {
		result.MoveSpeed = after.MoveSpeed
		result.AnimState = after.AnimState
	}
	return result, true
}

func fromSnapshot(s Snapshot) Interpolated {
	return Interpolated{Pos: s.Pos, Rot: s.Rot, MoveSpeed: s.MoveSpeed, AnimState: s.AnimState}
}
