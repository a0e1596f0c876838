// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package gameserver

import (
	"testing"

	"github.com/kenshimp/replicore/combat"
	"github.com/kenshimp/replicore/protocol"
)

func TestEntityStoreSpawnAssignsStrictlyIncreasingIDs(t *testing.T) {
	store := NewEntityStore()
	a := store.Spawn(ServerEntity{})
	b := store.Spawn(ServerEntity{})

	if a.ID == 0 || b.ID == 0 {
		t.Fatalf("spawned entities must never receive EntityID 0: got %d, %d", a.ID, b.ID)
	}
	if b.ID <= a.ID {
		t.Fatalf("EntityID must strictly increase: a=%d b=%d", a.ID, b.ID)
	}
}

func TestEntityStoreSpawnDerivesZoneFromPosition(t *testing.T) {
	store := NewEntityStore()
	pos := protocol.Vec3{X: 1200, Y: 0, Z: -600}
	e := store.Spawn(ServerEntity{Position: pos})

	want := protocol.ZoneFromPosition(pos)
	if e.Zone != want {
		t.Fatalf("Zone = %+v, want %+v", e.Zone, want)
	}
}

func TestEntityStoreRestorePreservesIDAndAdvancesAllocator(t *testing.T) {
	store := NewEntityStore()
	store.Restore(ServerEntity{ID: 50})

	next := store.Spawn(ServerEntity{})
	if next.ID <= 50 {
		t.Fatalf("Spawn after Restore(ID:50) gave id %d, want > 50", next.ID)
	}
	if _, ok := store.Get(50); !ok {
		t.Fatal("Restore must insert the entity under its caller-supplied id")
	}
}

func TestEntityStoreDespawnRemovesEntity(t *testing.T) {
	store := NewEntityStore()
	e := store.Spawn(ServerEntity{})
	store.Despawn(e.ID)

	if _, ok := store.Get(e.ID); ok {
		t.Fatal("Despawn must remove the entity from the store")
	}
}

func TestEntityStoreEntitiesOwnedBy(t *testing.T) {
	store := NewEntityStore()
	store.Spawn(ServerEntity{Owner: 1})
	store.Spawn(ServerEntity{Owner: 1})
	store.Spawn(ServerEntity{Owner: 2})

	owned := store.EntitiesOwnedBy(1)
	if len(owned) != 2 {
		t.Fatalf("EntitiesOwnedBy(1) returned %d entities, want 2", len(owned))
	}
	for _, e := range owned {
		if e.Owner != 1 {
			t.Fatalf("EntitiesOwnedBy(1) returned an entity owned by %d", e.Owner)
		}
	}
}

func TestEntityStoreUpdateTransformRecomputesZone(t *testing.T) {
	store := NewEntityStore()
	e := store.Spawn(ServerEntity{})

	newPos := protocol.Vec3{X: 5000, Y: 0, Z: 5000}
	newRot := protocol.Quat{W: 1}
	store.UpdateTransform(e.ID, newPos, newRot, 3, 7, 0x01)

	got, _ := store.Get(e.ID)
	if got.Position != newPos || got.Rotation != newRot {
		t.Fatalf("transform not applied: pos=%+v rot=%+v", got.Position, got.Rotation)
	}
	if got.AnimState != 3 || got.MoveSpeed != 7 || got.Flags != 0x01 {
		t.Fatalf("anim/speed/flags not applied: %+v", got)
	}
	want := protocol.ZoneFromPosition(newPos)
	if got.Zone != want {
		t.Fatalf("Zone = %+v, want %+v", got.Zone, want)
	}
}

// TestCombatantRoundTripPreservesState exercises the AsCombatant/
// ApplyCombatant bridge a combat handler relies on: the resolver must
// only ever see/mutate health and alive state, never owner/zone/template
// fields.
func TestCombatantRoundTripPreservesState(t *testing.T) {
	e := &ServerEntity{
		ID:          1,
		Owner:       7,
		AttackStat:  combat.DefaultAttack,
		DefenseStat: combat.DefaultDefense,
		Alive:       true,
	}
	for i := range e.Health {
		e.Health[i] = 100
	}

	c := e.AsCombatant()
	c.Health[protocol.BodyPartChest] = -60
	c.Alive = false
	e.ApplyCombatant(c)

	if e.Owner != 7 {
		t.Fatalf("ApplyCombatant must never touch Owner: got %d", e.Owner)
	}
	if e.Health[protocol.BodyPartChest] != -60 {
		t.Fatalf("ApplyCombatant did not write back health: got %v", e.Health[protocol.BodyPartChest])
	}
	if e.Alive {
		t.Fatal("ApplyCombatant did not write back Alive=false")
	}
}
