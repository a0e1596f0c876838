// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package registry

import (
	"testing"

	"github.com/kenshimp/replicore/protocol"
)

type fakeHandle struct{ n int }

func TestRegisterIsIdempotent(t *testing.T) {
	r := New()
	h := &fakeHandle{1}
	id1 := r.Register(h, protocol.EntityTypePlayerCharacter)
	id2 := r.Register(h, protocol.EntityTypePlayerCharacter)
	if id1 != id2 {
		t.Fatalf("repeat Register of same handle gave different ids: %d, %d", id1, id2)
	}
	if r.Count() != 1 {
		t.Fatalf("expected 1 entity, got %d", r.Count())
	}
}

func TestNoZeroNetID(t *testing.T) {
	r := New()
	id := r.Register(&fakeHandle{1}, protocol.EntityTypeNPC)
	if id == protocol.InvalidEntity {
		t.Fatal("I1 violated: net_id == 0 assigned")
	}
}

func TestRegisterRemoteAdvancesLocalCounter(t *testing.T) {
	r := New()
	r.RegisterRemote(500, protocol.EntityTypeNPC, 0, protocol.Vec3{})
	id := r.Register(&fakeHandle{1}, protocol.EntityTypePlayerCharacter)
	if id <= 500 {
		t.Fatalf("I4 violated: local id %d does not exceed observed remote id 500", id)
	}
}

func TestUnregisterRemovesBothMapEntries(t *testing.T) {
	r := New()
	h := &fakeHandle{1}
	id := r.Register(h, protocol.EntityTypePlayerCharacter)
	r.Unregister(id)
	if _, ok := r.GetInfo(id); ok {
		t.Fatal("GetInfo should fail after Unregister")
	}
	if _, ok := r.GetNetID(h); ok {
		t.Fatal("GetNetID should fail after Unregister")
	}
}

func TestZoneRecomputedOnPositionUpdate(t *testing.T) {
	r := New()
	id := r.Register(&fakeHandle{1}, protocol.EntityTypePlayerCharacter)
	r.UpdatePosition(id, protocol.Vec3{X: 800, Y: 0, Z: 0})
	info, _ := r.GetInfo(id)
	want := protocol.ZoneFromPosition(protocol.Vec3{X: 800, Y: 0, Z: 0})
	if info.Zone != want {
		t.Fatalf("I3 violated: zone %+v, want %+v", info.Zone, want)
	}
}

func TestSetGameObjectRebindsIndex(t *testing.T) {
	r := New()
	r.RegisterRemote(7, protocol.EntityTypeNPC, 0, protocol.Vec3{})
	h := &fakeHandle{1}
	r.SetGameObject(7, h)
	if id, ok := r.GetNetID(h); !ok || id != 7 {
		t.Fatalf("expected handle to resolve to netID 7, got %d, %v", id, ok)
	}
}

func TestRemoveEntitiesInZoneOnlyTouchesRemotes(t *testing.T) {
	r := New()
	local := r.Register(&fakeHandle{1}, protocol.EntityTypePlayerCharacter)
	r.UpdatePosition(local, protocol.Vec3{})
	r.RegisterRemote(99, protocol.EntityTypeNPC, 0, protocol.Vec3{})
	r.RemoveEntitiesInZone(protocol.ZoneFromPosition(protocol.Vec3{}))
	if _, ok := r.GetInfo(local); !ok {
		t.Fatal("local entity must survive RemoveEntitiesInZone")
	}
	if _, ok := r.GetInfo(99); ok {
		t.Fatal("remote entity in the cleared zone should be gone")
	}
}

func TestGetPlayerEntities(t *testing.T) {
	r := New()
	r.RegisterRemote(1, protocol.EntityTypePlayerCharacter, 42, protocol.Vec3{})
	r.RegisterRemote(2, protocol.EntityTypePlayerCharacter, 43, protocol.Vec3{})
	got := r.GetPlayerEntities(42)
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("GetPlayerEntities(42) = %v, want [1]", got)
	}
}
