// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package gameserver

import (
	"log"

	"github.com/kenshimp/replicore/protocol"
	"github.com/kenshimp/replicore/transport"
)

// broadcast sends data on ch to every connected player except those
// named in except.
func (s *Server) broadcast(ch transport.Channel, data []byte, except ...protocol.PlayerID) {
	skip := make(map[protocol.PlayerID]struct{}, len(except))
	for _, id := range except {
		skip[id] = struct{}{}
	}
	for _, p := range s.players.All() {
		if _, ok := skip[p.ID]; ok {
			continue
		}
		if err := p.Peer.Send(ch, data); err != nil {
			log.Printf("[gameserver] send to player %d failed: %v", p.ID, err)
		}
	}
}

// sendTo sends data to exactly one player, a no-op if unknown.
func (s *Server) sendTo(id protocol.PlayerID, ch transport.Channel, data []byte) {
	p, ok := s.players.ByID(id)
	if !ok {
		return
	}
	if err := p.Peer.Send(ch, data); err != nil {
		log.Printf("[gameserver] send to player %d failed: %v", id, err)
	}
}

func encode(t protocol.MessageType, tick uint32, body func(w *protocol.Writer)) []byte {
	w := protocol.NewWriter()
	protocol.WriteHeader(w, protocol.Header{Type: t, Timestamp: tick})
	body(w)
	return w.Bytes()
}
