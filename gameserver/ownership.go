// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package gameserver

import (
	"log"

	"github.com/kenshimp/replicore/protocol"
)

// ErrNotOwner is the sentinel every ownership-gated handler checks for.
// This never reaches the wire: authorization failures are a silent
// discard plus a debug log, not a rejection message.
var ErrNotOwner = errNotOwner{}

type errNotOwner struct{}

func (errNotOwner) Error() string { return "gameserver: sender does not own entity" }

// authorize is the single ownership gate every mutating C2S handler
// routes through: server_entities[id].owner == sender.id. Returns the
// entity on success so callers don't re-fetch it.
func (s *Server) authorize(sender *ConnectedPlayer, id protocol.EntityID) (*ServerEntity, error) {
	e, ok := s.entities.Get(id)
	if !ok {
		return nil, ErrNotOwner
	}
	if e.Owner != sender.ID {
		log.Printf("[gameserver] %s: player %d rejected: does not own entity %d (owner=%d)",
			sender.CorrelationID, sender.ID, id, e.Owner)
		return nil, ErrNotOwner
	}
	return e, nil
}

// onDisconnect reassigns every entity the departing player owned to the
// server (owner=0) without despawning it.
func (s *Server) onDisconnect(p *ConnectedPlayer) {
	s.entities.ReassignOwner(p.ID)
	s.zones.Forget(p.ID)
}
