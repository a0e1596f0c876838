// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package gameserver

import (
	"fmt"

	"github.com/kenshimp/replicore/protocol"
	"github.com/kenshimp/replicore/transport"
)

// handleEvent is the transport.PacketHandler passed to Host.Poll each
// tick.
func (s *Server) handleEvent(e transport.Event) {
	switch e.Kind {
	case transport.EventConnect:
		s.players.MarkPending(e.PeerID)
	case transport.EventReceive:
		s.handleReceive(e)
	case transport.EventDisconnect:
		s.handlePeerDisconnect(e.PeerID)
	}
}

func (s *Server) handleReceive(e transport.Event) {
	r := protocol.NewReader(e.Data)
	header, err := protocol.ReadHeader(r)
	if err != nil {
		logger.Printf("dropping packet with truncated header from peer %d: %v", e.PeerID, err)
		return
	}

	if s.players.IsPending(e.PeerID) {
		if header.Type != protocol.C2SHandshake {
			logger.Printf("peer %d sent message type 0x%02x before handshake, dropping", e.PeerID, header.Type)
			return
		}
		s.handleHandshake(e.PeerID, r)
		return
	}

	sender, ok := s.players.ByPeerID(e.PeerID)
	if !ok {
		return // stale event for a peer that already disconnected this tick
	}

	switch header.Type {
	case protocol.C2SPositionUpdate:
		s.handlePositionUpdate(sender, r)
	case protocol.C2SMoveCommand:
		s.handleMoveCommand(sender, r)
	case protocol.C2SAttackIntent:
		s.handleAttackIntent(sender, r)
	case protocol.C2SEntitySpawnReq:
		s.handleEntitySpawnReq(sender, r)
	case protocol.C2SEntityDespawnReq:
		s.handleEntityDespawnReq(sender, r)
	case protocol.C2SBuildRequest:
		s.handleBuildRequest(sender, r)
	case protocol.C2SDoorInteract:
		s.handleDoorInteract(sender, r)
	case protocol.C2SZoneRequest:
		s.handleZoneRequest(sender, r)
	case protocol.C2SChatMessage:
		s.handleChatMessage(sender, r)
	case protocol.C2SAdminCommand:
		s.handleAdminCommand(sender, r)
	default:
		logger.Printf("%s: unhandled message type 0x%02x from player %d", sender.CorrelationID, header.Type, sender.ID)
	}
}

// handleHandshake validates protocol version and name, admits the peer
// as a ConnectedPlayer, and runs the newcomer sync sequence: ack,
// broadcast join, replay existing joins, world snapshot.
func (s *Server) handleHandshake(peerID uint32, r *protocol.Reader) {
	m, err := protocol.DecodeMsgHandshake(r)
	if err != nil {
		logger.Printf("peer %d sent malformed handshake: %v", peerID, err)
		return
	}
	peer, ok := s.host.Peer(peerID)
	if !ok {
		return
	}

	if m.ProtocolVersion != ProtocolVersion {
		s.rejectHandshake(peer, peerID, protocol.RejectVersionMismatch,
			fmt.Sprintf("Version mismatch: server=%d, client=%d", ProtocolVersion, m.ProtocolVersion))
		return
	}
	if s.players.Count() >= s.cfg.MaxPlayers {
		// Server full at handshake time is disconnected immediately, no
		// reject payload.
		s.host.Disconnect(peerID)
		return
	}
	if banned, _ := s.cloud.IsBanned(m.PlayerName); banned {
		s.rejectHandshake(peer, peerID, protocol.RejectBanned, "You are banned from this server")
		return
	}

	name := moderateName(m.PlayerName)
	p := s.players.Admit(peerID, peer, name)

	ack := encode(protocol.S2CHandshakeAck, s.tick, func(w *protocol.Writer) {
		s.mu.Lock()
		tod, weather := s.timeOfDay, s.weatherState
		s.mu.Unlock()
		protocol.MsgHandshakeAck{
			PlayerID:       p.ID,
			ServerTick:     s.tick,
			TimeOfDay:      tod,
			WeatherState:   weather,
			MaxPlayers:     uint8(s.cfg.MaxPlayers),
			CurrentPlayers: uint8(s.players.Count()),
		}.Encode(w)
	})
	s.sendTo(p.ID, transport.ChannelReliableOrdered, ack)

	joined := encode(protocol.S2CPlayerJoined, s.tick, func(w *protocol.Writer) {
		protocol.MsgPlayerJoined{PlayerID: p.ID, PlayerName: p.Name}.Encode(w)
	})
	s.broadcast(transport.ChannelReliableOrdered, joined)

	// Replay existing players' join events to the newcomer so their
	// client can populate a player list without a dedicated bulk message.
	for _, other := range s.players.All() {
		if other.ID == p.ID {
			continue
		}
		s.sendTo(p.ID, transport.ChannelReliableOrdered, encode(protocol.S2CPlayerJoined, s.tick, func(w *protocol.Writer) {
			protocol.MsgPlayerJoined{PlayerID: other.ID, PlayerName: other.Name}.Encode(w)
		}))
	}

	s.sendWorldSnapshot(p.ID)
	logger.Printf("%s: player %d (%q) joined from %s", p.CorrelationID, p.ID, p.Name, peer.RemoteAddr())
}

func (s *Server) rejectHandshake(peer transport.Peer, peerID uint32, code uint8, text string) {
	data := encode(protocol.S2CHandshakeReject, s.tick, func(w *protocol.Writer) {
		protocol.MsgHandshakeReject{Code: code, Text: text}.Encode(w)
	})
	_ = peer.Send(transport.ChannelReliableOrdered, data)
	s.host.Disconnect(peerID)
}

// sendWorldSnapshot streams one S2C_EntitySpawn per existing entity to
// a newcomer so its client can populate the world without a dedicated
// bulk message.
func (s *Server) sendWorldSnapshot(to protocol.PlayerID) {
	for _, e := range s.entities.All() {
		data := encode(protocol.S2CEntitySpawn, s.tick, func(w *protocol.Writer) {
			protocol.MsgEntitySpawn{
				EntityID:       e.ID,
				Type:           e.Type,
				OwnerID:        e.Owner,
				TemplateID:     e.TemplateID,
				Position:       e.Position,
				CompressedQuat: protocol.CompressQuat(e.Rotation),
				FactionID:      e.FactionID,
				TemplateName:   e.TemplateName,
			}.Encode(w)
		})
		s.sendTo(to, transport.ChannelReliableOrdered, data)
	}
}

// handlePositionUpdate applies every owned entry to server state and
// silently ignores entries naming an entity the sender doesn't own.
func (s *Server) handlePositionUpdate(sender *ConnectedPlayer, r *protocol.Reader) {
	entries, err := protocol.DecodeC2SPositionUpdate(r)
	if err != nil {
		logger.Printf("%s: malformed C2S_PositionUpdate: %v", sender.CorrelationID, err)
		return
	}
	for i, c := range entries {
		e, ok := s.entities.Get(c.EntityID)
		if !ok || e.Owner != sender.ID {
			continue // non-owned ids are silently ignored
		}
		rot := protocol.DecompressQuat(c.CompressedQuat)
		s.entities.UpdateTransform(c.EntityID, c.Position, rot, c.AnimStateID, c.MoveSpeed, c.Flags)
		if i == 0 {
			sender.UpdatePositionAndZone(c.Position)
		}
	}
}

func (s *Server) handleMoveCommand(sender *ConnectedPlayer, r *protocol.Reader) {
	m, err := protocol.DecodeMsgMoveCommand(r)
	if err != nil {
		logger.Printf("%s: malformed C2S_MoveCommand: %v", sender.CorrelationID, err)
		return
	}
	if _, err := s.authorize(sender, m.EntityID); err != nil {
		return
	}
	data := encode(protocol.S2CMoveCommand, s.tick, func(w *protocol.Writer) { m.Encode(w) })
	s.broadcast(transport.ChannelReliableUnordered, data, sender.ID)
}

// handleAttackIntent resolves combat once the attacker's ownership
// and the target's liveness are confirmed.
func (s *Server) handleAttackIntent(sender *ConnectedPlayer, r *protocol.Reader) {
	m, err := protocol.DecodeMsgAttackIntent(r)
	if err != nil {
		logger.Printf("%s: malformed C2S_AttackIntent: %v", sender.CorrelationID, err)
		return
	}
	attacker, err := s.authorize(sender, m.AttackerID)
	if err != nil {
		return
	}
	target, ok := s.entities.Get(m.TargetID)
	if !ok || !target.Alive {
		return
	}

	combatant := target.AsCombatant()
	result := s.combat.Resolve(attacker.AsCombatant(), combatant)
	target.ApplyCombatant(combatant)

	wasBlocked := uint8(0)
	if result.Blocked {
		wasBlocked = 1
	}
	wasKO := uint8(0)
	if result.KO {
		wasKO = 1
	}
	hit := encode(protocol.S2CCombatHit, s.tick, func(w *protocol.Writer) {
		protocol.MsgCombatHit{
			AttackerID:   m.AttackerID,
			TargetID:     m.TargetID,
			BodyPart:     result.BodyPart,
			Cut:          result.Cut,
			Blunt:        result.Blunt,
			Pierce:       result.Pierce,
			ResultHealth: result.ResultHealth,
			WasBlocked:   wasBlocked,
			WasKO:        wasKO,
		}.Encode(w)
	})
	s.broadcast(transport.ChannelReliableUnordered, hit)

	if result.Died {
		death := encode(protocol.S2CCombatDeath, s.tick, func(w *protocol.Writer) {
			protocol.MsgCombatDeath{EntityID: m.TargetID, KillerID: m.AttackerID}.Encode(w)
		})
		s.broadcast(transport.ChannelReliableOrdered, death)
	} else if result.KO {
		ko := encode(protocol.S2CCombatKO, s.tick, func(w *protocol.Writer) {
			protocol.MsgCombatDeath{EntityID: m.TargetID, KillerID: m.AttackerID}.Encode(w)
		})
		s.broadcast(transport.ChannelReliableOrdered, ko)
	}
}

// handleEntitySpawnReq creates a server-assigned entity and tells the
// requester its authoritative id.
func (s *Server) handleEntitySpawnReq(sender *ConnectedPlayer, r *protocol.Reader) {
	m, err := protocol.DecodeMsgEntitySpawnReq(r)
	if err != nil {
		logger.Printf("%s: malformed C2S_EntitySpawnReq: %v", sender.CorrelationID, err)
		return
	}
	e := s.entities.Spawn(ServerEntity{
		Type:         m.Type,
		Owner:        sender.ID,
		TemplateID:   m.TemplateID,
		FactionID:    m.FactionID,
		Position:     m.Position,
		Rotation:     m.Rotation,
		TemplateName: m.TemplateName,
		Alive:        true,
		AttackStat:   defaultAttackFor(m.Type),
		DefenseStat:  defaultDefenseFor(m.Type),
	})
	for i := range e.Health {
		e.Health[i] = 100
	}
	sender.Entities = append(sender.Entities, e.ID)

	data := encode(protocol.S2CEntitySpawn, s.tick, func(w *protocol.Writer) {
		protocol.MsgEntitySpawn{
			EntityID:       e.ID,
			Type:           e.Type,
			OwnerID:        e.Owner,
			TemplateID:     e.TemplateID,
			Position:       e.Position,
			CompressedQuat: protocol.CompressQuat(e.Rotation),
			FactionID:      e.FactionID,
			TemplateName:   e.TemplateName,
		}.Encode(w)
	})
	s.broadcast(transport.ChannelReliableOrdered, data)
}

func (s *Server) handleEntityDespawnReq(sender *ConnectedPlayer, r *protocol.Reader) {
	m, err := protocol.DecodeMsgEntityDespawnReq(r)
	if err != nil {
		logger.Printf("%s: malformed C2S_EntityDespawnReq: %v", sender.CorrelationID, err)
		return
	}
	if _, err := s.authorize(sender, m.EntityID); err != nil {
		return
	}
	s.entities.Despawn(m.EntityID)
	data := encode(protocol.S2CEntityDespawn, s.tick, func(w *protocol.Writer) {
		protocol.MsgEntityDespawn{EntityID: m.EntityID, Reason: protocol.DespawnNormal}.Encode(w)
	})
	s.broadcast(transport.ChannelReliableOrdered, data)
}

// handleBuildRequest creates a new server entity owned by the requester.
func (s *Server) handleBuildRequest(sender *ConnectedPlayer, r *protocol.Reader) {
	m, err := protocol.DecodeMsgBuildRequest(r)
	if err != nil {
		logger.Printf("%s: malformed C2S_BuildRequest: %v", sender.CorrelationID, err)
		return
	}
	e := s.entities.Spawn(ServerEntity{
		Type:       protocol.EntityTypeBuilding,
		Owner:      sender.ID,
		TemplateID: m.TemplateID,
		Position:   m.Position,
		Rotation:   protocol.DecompressQuat(m.CompressedQuat),
		Alive:      true,
	})
	data := encode(protocol.S2CBuildPlaced, s.tick, func(w *protocol.Writer) {
		protocol.MsgBuildPlaced{
			EntityID:       e.ID,
			TemplateID:     e.TemplateID,
			Position:       e.Position,
			CompressedQuat: protocol.CompressQuat(e.Rotation),
			BuilderID:      sender.ID,
		}.Encode(w)
	})
	s.broadcast(transport.ChannelReliableOrdered, data)
}

func (s *Server) handleDoorInteract(sender *ConnectedPlayer, r *protocol.Reader) {
	m, err := protocol.DecodeMsgDoorInteract(r)
	if err != nil {
		logger.Printf("%s: malformed C2S_DoorInteract: %v", sender.CorrelationID, err)
		return
	}
	if _, err := s.authorize(sender, m.EntityID); err != nil {
		return
	}
	var state uint8
	switch m.Action {
	case 1:
		state = protocol.DoorLocked
	case 2:
		state = protocol.DoorClosed
	default:
		// Action 0 (toggle) always opens: no per-door state is kept to
		// toggle from.
		state = protocol.DoorOpen
	}
	data := encode(protocol.S2CDoorState, s.tick, func(w *protocol.Writer) {
		protocol.MsgDoorState{EntityID: m.EntityID, State: state}.Encode(w)
	})
	s.broadcast(transport.ChannelReliableOrdered, data)
}

// handleZoneRequest lets a client ask for a resend of spawn events for
// zones it is about to need: the interest manager
// position broadcast already covers ongoing sync, so this replays the
// entity-spawn stream for the requested zone only.
func (s *Server) handleZoneRequest(sender *ConnectedPlayer, r *protocol.Reader) {
	m, err := protocol.DecodeMsgZoneRequest(r)
	if err != nil {
		logger.Printf("%s: malformed C2S_ZoneRequest: %v", sender.CorrelationID, err)
		return
	}
	zone := protocol.ZoneCoord{X: m.ZoneX, Z: m.ZoneY}
	for _, e := range s.entities.All() {
		if e.Zone != zone {
			continue
		}
		data := encode(protocol.S2CEntitySpawn, s.tick, func(w *protocol.Writer) {
			protocol.MsgEntitySpawn{
				EntityID:       e.ID,
				Type:           e.Type,
				OwnerID:        e.Owner,
				TemplateID:     e.TemplateID,
				Position:       e.Position,
				CompressedQuat: protocol.CompressQuat(e.Rotation),
				FactionID:      e.FactionID,
				TemplateName:   e.TemplateName,
			}.Encode(w)
		})
		s.sendTo(sender.ID, transport.ChannelReliableOrdered, data)
	}
}

func (s *Server) handleChatMessage(sender *ConnectedPlayer, r *protocol.Reader) {
	m, err := protocol.DecodeMsgChatMessage(r)
	if err != nil {
		logger.Printf("%s: malformed C2S_ChatMessage: %v", sender.CorrelationID, err)
		return
	}
	text := moderateChat(m.Text)
	data := encode(protocol.S2CChatMessage, s.tick, func(w *protocol.Writer) {
		protocol.MsgChatMessage{SenderID: sender.ID, Text: text}.Encode(w)
	})
	s.broadcast(transport.ChannelReliableOrdered, data)
}

func (s *Server) handleAdminCommand(sender *ConnectedPlayer, r *protocol.Reader) {
	// In-band admin commands from a connected client are not part of the
	// operator console; the wire slot exists for completeness but this
	// server only accepts admin commands from the local console
	// (Enqueue), so an in-band request is logged and dropped.
	if _, err := protocol.DecodeMsgAdminCommand(r); err != nil {
		logger.Printf("%s: malformed C2S_AdminCommand: %v", sender.CorrelationID, err)
		return
	}
	logger.Printf("%s: ignoring in-band admin command from player %d (console-only)", sender.CorrelationID, sender.ID)
}

// handlePeerDisconnect is the transport-level disconnect path: peer
// timeout or a dropped socket, as opposed to an operator kick.
func (s *Server) handlePeerDisconnect(peerID uint32) {
	s.handlePlayerLeft(peerID, protocol.LeaveTimeout)
}

// handlePlayerLeft tears down a player's connection state, reassigns
// their entities to the server, and broadcasts S2C_PlayerLeft with the
// supplied reason.
func (s *Server) handlePlayerLeft(peerID uint32, reason uint8) {
	p, ok := s.players.Remove(peerID)
	if !ok {
		return
	}
	s.onDisconnect(p)
	data := encode(protocol.S2CPlayerLeft, s.tick, func(w *protocol.Writer) {
		protocol.MsgPlayerLeft{PlayerID: p.ID, Reason: reason}.Encode(w)
	})
	s.broadcast(transport.ChannelReliableOrdered, data)
	logger.Printf("%s: player %d (%q) left (reason=%d)", p.CorrelationID, p.ID, p.Name, reason)
}

func defaultAttackFor(t protocol.EntityType) float32 {
	if t == protocol.EntityTypeTurret {
		return 35
	}
	return 20
}

func defaultDefenseFor(t protocol.EntityType) float32 {
	if t == protocol.EntityTypeBuilding || t == protocol.EntityTypeWorldBuilding {
		return 50
	}
	return 10
}
