// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package gameserver

import (
	"errors"
	"testing"

	"github.com/kenshimp/replicore/interest"
	"github.com/kenshimp/replicore/protocol"
)

func newTestServer() *Server {
	return &Server{
		entities: NewEntityStore(),
		players:  NewPlayerTable(),
	}
}

func TestAuthorizeAllowsOwner(t *testing.T) {
	s := newTestServer()
	owner := &ConnectedPlayer{ID: 1}
	e := s.entities.Spawn(ServerEntity{Owner: owner.ID})

	got, err := s.authorize(owner, e.ID)
	if err != nil {
		t.Fatalf("authorize returned %v for the true owner", err)
	}
	if got != e {
		t.Fatalf("authorize returned %+v, want %+v", got, e)
	}
}

func TestAuthorizeRejectsNonOwner(t *testing.T) {
	s := newTestServer()
	owner := &ConnectedPlayer{ID: 1}
	intruder := &ConnectedPlayer{ID: 2}
	e := s.entities.Spawn(ServerEntity{Owner: owner.ID})

	_, err := s.authorize(intruder, e.ID)
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("authorize(intruder) = %v, want ErrNotOwner", err)
	}
	// The rejection must be a pure no-op: the entity is untouched.
	got, ok := s.entities.Get(e.ID)
	if !ok || got.Owner != owner.ID {
		t.Fatalf("entity state changed after a rejected authorize call: %+v", got)
	}
}

func TestAuthorizeRejectsUnknownEntity(t *testing.T) {
	s := newTestServer()
	p := &ConnectedPlayer{ID: 1}

	_, err := s.authorize(p, protocol.EntityID(999))
	if !errors.Is(err, ErrNotOwner) {
		t.Fatalf("authorize on a missing entity = %v, want ErrNotOwner", err)
	}
}

func TestOnDisconnectReassignsOwnershipToServer(t *testing.T) {
	s := newTestServer()
	s.zones = interest.NewManager()
	p := &ConnectedPlayer{ID: 1}
	e1 := s.entities.Spawn(ServerEntity{Owner: p.ID})
	e2 := s.entities.Spawn(ServerEntity{Owner: p.ID})
	other := s.entities.Spawn(ServerEntity{Owner: 2})

	s.onDisconnect(p)

	for _, e := range []*ServerEntity{e1, e2} {
		got, ok := s.entities.Get(e.ID)
		if !ok {
			t.Fatalf("entity %d must still exist after owner disconnect", e.ID)
		}
		if got.Owner != 0 {
			t.Fatalf("entity %d owner = %d, want 0 (server-owned)", e.ID, got.Owner)
		}
	}
	gotOther, _ := s.entities.Get(other.ID)
	if gotOther.Owner != 2 {
		t.Fatalf("unrelated entity's owner changed: got %d, want 2", gotOther.Owner)
	}
}
