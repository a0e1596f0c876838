// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package replication

import (
	"github.com/kenshimp/replicore/interest"
	"github.com/kenshimp/replicore/protocol"
	"github.com/kenshimp/replicore/registry"
	"github.com/kenshimp/replicore/snapshot"
	"github.com/kenshimp/replicore/transport"
)

// PosChangeThreshold is the minimum movement (meters) before a local
// entity's position is resent.
const PosChangeThreshold float32 = 0.1

// TickIntervalMS throttles per-entity position sends independently of
// the caller's frame rate.
const TickIntervalMS float32 = 50

// Loop drives the client's three-phase per-frame replication cycle.
// It owns no game-world state directly: everything it
// touches is the registry, the snapshot buffer, the interest manager, or
// the injected LocalCharacterSource/GameClock.
type Loop struct {
	source   LocalCharacterSource
	clock    GameClock
	reg      *registry.Registry
	buf      *snapshot.Buffer
	zones    *interest.Manager
	peer     transport.Peer
	localPID protocol.PlayerID

	lastSentAt map[protocol.EntityID]float32
}

func NewLoop(source LocalCharacterSource, clock GameClock, reg *registry.Registry, buf *snapshot.Buffer, zones *interest.Manager, peer transport.Peer, localPID protocol.PlayerID) *Loop {
	return &Loop{
		source:     source,
		clock:      clock,
		reg:        reg,
		buf:        buf,
		zones:      zones,
		peer:       peer,
		localPID:   localPID,
		lastSentAt: make(map[protocol.EntityID]float32),
	}
}

// OnGameTick runs phases A, B, and C once, in that order.
func (l *Loop) OnGameTick() {
	now := l.clock.Now()
	l.phaseA(now)
	l.phaseB(now)
	l.phaseC()
}

// phaseA samples locally-owned entities, threshold/throttle-filters
// them, and emits a batched unreliable C2S_PositionUpdate.
func (l *Loop) phaseA(now float32) {
	locals := l.source.EnumerateLocal()
	entries := make([]protocol.CharacterPosition, 0, len(locals))

	for _, ls := range locals {
		id, known := l.reg.GetNetID(ls.Object)
		if !known {
			if !ls.IsPlayer {
				continue // non-player locals are never auto-registered
			}
			id = l.reg.Register(ls.Object, protocol.EntityTypePlayerCharacter)
		}

		info, _ := l.reg.GetInfo(id)
		last, sentBefore := l.lastSentAt[id]
		if sentBefore && info.LastPosition.Distance(ls.Pos) < PosChangeThreshold {
			continue
		}
		if sentBefore && (now-last)*1000 < TickIntervalMS {
			continue
		}

		entries = append(entries, protocol.CharacterPosition{
			EntityID:       id,
			Position:       ls.Pos,
			CompressedQuat: protocol.CompressQuat(ls.Rot),
			AnimStateID:    ls.AnimState,
			MoveSpeed:      protocol.PackMoveSpeed(ls.MoveSpeed),
		})
		l.reg.UpdatePosition(id, ls.Pos)
		l.reg.UpdateRotation(id, ls.Rot)
		l.lastSentAt[id] = now

		if len(entries) == protocol.MaxPositionBatch {
			l.flushBatch(entries)
			entries = entries[:0]
		}
	}
	if len(entries) > 0 {
		l.flushBatch(entries)
	}
}

func (l *Loop) flushBatch(entries []protocol.CharacterPosition) {
	w := protocol.NewWriter()
	protocol.WriteHeader(w, protocol.Header{Type: protocol.C2SPositionUpdate})
	protocol.EncodeC2SPositionUpdate(w, entries)
	_ = l.peer.Send(transport.ChannelUnreliableSequenced, w.Bytes())
}

// phaseB applies the interpolator's current render-time sample to every
// known remote entity with a reified game object.
func (l *Loop) phaseB(now float32) {
	for _, id := range l.reg.GetRemoteEntities() {
		obj, ok := l.reg.GetGameObject(id)
		if !ok {
			continue // ghost: not yet reified, nothing to write to
		}
		result, ok := l.buf.GetInterpolated(id, now)
		if !ok {
			continue
		}
		l.source.ApplyRemote(obj, result)
		l.reg.UpdatePosition(id, result.Pos)
		l.reg.UpdateRotation(id, result.Rot)
	}
}

// phaseC recomputes the local player's zone and informs the interest
// manager so server-initiated spawns/unspawns filter correctly.
func (l *Loop) phaseC() {
	pos := l.source.LocalPlayerPosition()
	l.zones.OnPlayerMoved(l.localPID, protocol.ZoneFromPosition(pos))
}
