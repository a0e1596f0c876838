// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package gameserver

import (
	"testing"

	"github.com/kenshimp/replicore/protocol"
)

func TestPlayerTableAdmitAssignsMonotonicIDs(t *testing.T) {
	pt := NewPlayerTable()
	pt.MarkPending(1)
	pt.MarkPending(2)

	a := pt.Admit(1, nil, "Alice")
	b := pt.Admit(2, nil, "Bob")

	if a.ID == 0 || b.ID == 0 {
		t.Fatalf("admitted players must never receive PlayerID 0: got %d, %d", a.ID, b.ID)
	}
	if a.ID == b.ID {
		t.Fatalf("admitted players must receive distinct ids: both got %d", a.ID)
	}
	if pt.IsPending(1) || pt.IsPending(2) {
		t.Fatal("Admit must clear the pending entry")
	}
	if pt.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", pt.Count())
	}
}

func TestPlayerTableByPeerIDAndByID(t *testing.T) {
	pt := NewPlayerTable()
	pt.MarkPending(7)
	p := pt.Admit(7, nil, "Carol")

	if got, ok := pt.ByPeerID(7); !ok || got != p {
		t.Fatalf("ByPeerID(7) = %v, %v; want %v, true", got, ok, p)
	}
	if got, ok := pt.ByID(p.ID); !ok || got != p {
		t.Fatalf("ByID(%d) = %v, %v; want %v, true", p.ID, got, ok, p)
	}
	if _, ok := pt.ByPeerID(999); ok {
		t.Fatal("ByPeerID must report false for an unknown peer")
	}
}

func TestPlayerTableRemoveClearsBothIndices(t *testing.T) {
	pt := NewPlayerTable()
	pt.MarkPending(3)
	p := pt.Admit(3, nil, "Dave")

	removed, ok := pt.Remove(3)
	if !ok || removed != p {
		t.Fatalf("Remove(3) = %v, %v; want %v, true", removed, ok, p)
	}
	if _, ok := pt.ByPeerID(3); ok {
		t.Fatal("Remove must drop the peer-id index entry")
	}
	if _, ok := pt.ByID(p.ID); ok {
		t.Fatal("Remove must drop the player-id index entry")
	}
	if pt.Count() != 0 {
		t.Fatalf("Count() = %d, want 0", pt.Count())
	}
}

func TestPlayerTableByName(t *testing.T) {
	pt := NewPlayerTable()
	pt.MarkPending(1)
	pt.Admit(1, nil, "Eve")

	if _, ok := pt.ByName("Eve"); !ok {
		t.Fatal("ByName must find a connected player by exact name")
	}
	if _, ok := pt.ByName("eve"); ok {
		t.Fatal("ByName must be case-sensitive")
	}
	if _, ok := pt.ByName("Nobody"); ok {
		t.Fatal("ByName must report false for an unconnected name")
	}
}

func TestUpdatePositionAndZoneRecomputesZone(t *testing.T) {
	p := &ConnectedPlayer{}
	pos := protocol.Vec3{X: 4000, Y: 0, Z: -2000}
	p.UpdatePositionAndZone(pos)

	if p.Position != pos {
		t.Fatalf("Position = %+v, want %+v", p.Position, pos)
	}
	want := protocol.ZoneFromPosition(pos)
	if p.Zone != want {
		t.Fatalf("Zone = %+v, want %+v", p.Zone, want)
	}
}
