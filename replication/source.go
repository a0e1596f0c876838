// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package replication implements the client-side replication loop: the
// tick-driven sequence that samples locally-owned entities, batches and
// sends their positions, applies interpolated remote state, and tracks
// the local player's zone. It is the only package that talks across the
// injection boundary into the host game — everything else in this
// module is free of that coupling.
package replication

import (
	"github.com/kenshimp/replicore/protocol"
	"github.com/kenshimp/replicore/registry"
	"github.com/kenshimp/replicore/snapshot"
)

// LocalState is one locally-owned entity's current read/write state as
// exposed by the host game.
type LocalState struct {
	Object    registry.GameObject
	IsPlayer  bool // non-player locals are never auto-registered
	Pos       protocol.Vec3
	Rot       protocol.Quat
	MoveSpeed float32
	AnimState uint8
}

// LocalCharacterSource is the sole read/write bridge into the host
// game's memory. A reimplementation satisfies it with
// in-memory stubs for tests, or with whatever native technique the real
// deployment requires; this package never depends on how.
type LocalCharacterSource interface {
	// EnumerateLocal returns every locally-owned entity this tick.
	EnumerateLocal() []LocalState
	// ApplyRemote writes an interpolated remote sample back into the
	// game object's concrete representation (Phase B).
	ApplyRemote(obj registry.GameObject, s snapshot.Interpolated)
	// LocalPlayerPosition is used for zone tracking (Phase C).
	LocalPlayerPosition() protocol.Vec3
}

// GameClock delivers one call per rendered frame.
type GameClock interface {
	// Now returns seconds on a monotonic clock shared with the snapshot
	// buffer's timestamps.
	Now() float32
}
