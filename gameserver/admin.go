// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package gameserver

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kenshimp/replicore/protocol"
	"github.com/kenshimp/replicore/transport"
)

// AdminCommand is one console line, enqueued by the console-input
// goroutine and applied by the tick loop rather than directly.
type AdminCommand struct {
	Line  string
	Reply chan<- string // optional; receives one reply line and is not closed
}

// Enqueue submits a console command for processing on the next tick.
func (s *Server) Enqueue(cmd AdminCommand) {
	select {
	case s.adminQueue <- cmd:
	default:
		if cmd.Reply != nil {
			cmd.Reply <- "admin command queue full, dropped"
		}
	}
}

// drainAdmin processes every queued console command once per tick.
func (s *Server) drainAdmin() {
	for {
		select {
		case cmd := <-s.adminQueue:
			reply := s.runAdminCommand(cmd.Line)
			if cmd.Reply != nil {
				cmd.Reply <- reply
			}
		default:
			return
		}
	}
}

func (s *Server) runAdminCommand(line string) string {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return ""
	}
	switch fields[0] {
	case "help":
		return "commands: help, status, players, kick <id>, ban <name> [reason], unban <name>, say <msg>, save, stop"
	case "status":
		return fmt.Sprintf("tick=%d players=%d/%d entities=%d timeOfDay=%.3f weather=%d",
			s.tick, s.players.Count(), s.cfg.MaxPlayers, s.entities.Count(), s.timeOfDay, s.weatherState)
	case "players":
		var b strings.Builder
		for _, p := range s.players.All() {
			fmt.Fprintf(&b, "%d: %s (%dms)\n", p.ID, p.Name, p.PingMS)
		}
		if b.Len() == 0 {
			return "no players connected"
		}
		return strings.TrimSuffix(b.String(), "\n")
	case "kick":
		if len(fields) < 2 {
			return "usage: kick <id>"
		}
		id, err := strconv.ParseUint(fields[1], 10, 32)
		if err != nil {
			return "invalid player id"
		}
		return s.kick(protocol.PlayerID(id))
	case "ban":
		if len(fields) < 2 {
			return "usage: ban <name> [reason]"
		}
		reason := "banned by operator"
		if len(fields) > 2 {
			reason = strings.Join(fields[2:], " ")
		}
		if err := s.cloud.Ban(fields[1], reason); err != nil {
			return fmt.Sprintf("ban failed: %v", err)
		}
		if p, ok := s.players.ByName(fields[1]); ok {
			s.host.Disconnect(p.PeerID)
			s.handlePlayerLeft(p.PeerID, protocol.LeaveKicked)
		}
		return fmt.Sprintf("banned %q", fields[1])
	case "unban":
		if len(fields) < 2 {
			return "usage: unban <name>"
		}
		if err := s.cloud.Unban(fields[1]); err != nil {
			return fmt.Sprintf("unban failed: %v", err)
		}
		return fmt.Sprintf("unbanned %q", fields[1])
	case "say":
		if len(fields) < 2 {
			return "usage: say <message>"
		}
		text := moderateChat(strings.Join(fields[1:], " "))
		s.broadcast(transport.ChannelReliableOrdered, encode(protocol.S2CChatMessage, s.tick, func(w *protocol.Writer) {
			protocol.MsgChatMessage{SenderID: 0, Text: text}.Encode(w)
		}))
		return "broadcast sent"
	case "save":
		if err := s.saveWorld(); err != nil {
			return fmt.Sprintf("save failed: %v", err)
		}
		return "world saved"
	case "stop", "quit", "exit":
		s.requestShutdown()
		return "shutting down"
	default:
		return fmt.Sprintf("unknown command %q (try help)", fields[0])
	}
}

// kick disconnects a connected player by id, reusing the normal disconnect path so ownership reassignment
// and the S2C_PlayerLeft broadcast stay in one place.
func (s *Server) kick(id protocol.PlayerID) string {
	p, ok := s.players.ByID(id)
	if !ok {
		return fmt.Sprintf("no such player %d", id)
	}
	s.host.Disconnect(p.PeerID)
	s.handlePlayerLeft(p.PeerID, protocol.LeaveKicked)
	return fmt.Sprintf("kicked player %d", id)
}
