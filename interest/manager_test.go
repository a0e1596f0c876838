// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package interest

import (
	"testing"

	"github.com/kenshimp/replicore/protocol"
)

func TestZonePartitionsDisjoint(t *testing.T) {
	a := protocol.ZoneFromWorldPos(0, 0)
	b := protocol.ZoneFromWorldPos(749, 749)
	c := protocol.ZoneFromWorldPos(750, 0)
	if a != b {
		t.Fatalf("points within one 750x750 cell must share a zone: %+v != %+v", a, b)
	}
	if a == c {
		t.Fatalf("points across the cell boundary must differ: %+v == %+v", a, c)
	}
}

func TestIsAdjacentReflexiveAndSymmetric(t *testing.T) {
	a := protocol.ZoneCoord{X: 3, Z: -2}
	b := protocol.ZoneCoord{X: 4, Z: -1}
	if !a.IsAdjacent(a, Radius) {
		t.Fatal("IsAdjacent must be reflexive")
	}
	if a.IsAdjacent(b, Radius) != b.IsAdjacent(a, Radius) {
		t.Fatal("IsAdjacent must be symmetric")
	}
}

func TestIsAdjacentTrueIffWithinRadius(t *testing.T) {
	origin := protocol.ZoneCoord{X: 0, Z: 0}
	cases := []struct {
		z    protocol.ZoneCoord
		want bool
	}{
		{protocol.ZoneCoord{X: 0, Z: 0}, true},
		{protocol.ZoneCoord{X: 1, Z: 1}, true},
		{protocol.ZoneCoord{X: -1, Z: 1}, true},
		{protocol.ZoneCoord{X: 2, Z: 0}, false},
		{protocol.ZoneCoord{X: 0, Z: 2}, false},
	}
	for _, c := range cases {
		if got := origin.IsAdjacent(c.z, Radius); got != c.want {
			t.Errorf("IsAdjacent(%+v, radius=1) = %v, want %v", c.z, got, c.want)
		}
	}
}

func TestManagerShouldSync(t *testing.T) {
	m := NewManager()
	m.OnPlayerMoved(1, protocol.ZoneCoord{X: 0, Z: 0})
	if !m.ShouldSync(1, protocol.ZoneCoord{X: 1, Z: 0}) {
		t.Error("adjacent zone should sync")
	}
	if m.ShouldSync(1, protocol.ZoneCoord{X: 5, Z: 0}) {
		t.Error("distant zone should not sync")
	}
	if m.ShouldSync(2, protocol.ZoneCoord{X: 0, Z: 0}) {
		t.Error("unknown player zone should never sync")
	}
}

func TestInterestZonesIsNineCells(t *testing.T) {
	m := NewManager()
	m.OnPlayerMoved(1, protocol.ZoneCoord{X: 0, Z: 0})
	zones := m.InterestZones(1)
	if len(zones) != 9 {
		t.Fatalf("expected 3x3=9 zones, got %d", len(zones))
	}
}

func TestEntitiesForPlayerFiltersByVisibility(t *testing.T) {
	m := NewManager()
	m.OnPlayerMoved(1, protocol.ZoneCoord{X: 0, Z: 0})

	zoneOf := map[protocol.EntityID]protocol.ZoneCoord{
		10: {X: 0, Z: 0},
		11: {X: 1, Z: -1},
		12: {X: 5, Z: 5},
	}
	candidates := []protocol.EntityID{10, 11, 12}

	got := m.EntitiesForPlayer(1, func(id protocol.EntityID) protocol.ZoneCoord {
		return zoneOf[id]
	}, candidates)

	want := map[protocol.EntityID]bool{10: true, 11: true}
	if len(got) != len(want) {
		t.Fatalf("EntitiesForPlayer = %v, want exactly %v", got, want)
	}
	for _, id := range got {
		if !want[id] {
			t.Fatalf("EntitiesForPlayer returned unexpected entity %d", id)
		}
	}
}

func TestEntitiesForPlayerUnknownPlayerReturnsNil(t *testing.T) {
	m := NewManager()
	got := m.EntitiesForPlayer(99, func(protocol.EntityID) protocol.ZoneCoord {
		return protocol.ZoneCoord{}
	}, []protocol.EntityID{1, 2, 3})
	if got != nil {
		t.Fatalf("EntitiesForPlayer for an unknown player = %v, want nil", got)
	}
}
