// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package replication

import (
	"log"

	"github.com/kenshimp/replicore/protocol"
	"github.com/kenshimp/replicore/registry"
	"github.com/kenshimp/replicore/snapshot"
	"github.com/kenshimp/replicore/transport"
)

// UISink receives chat/system text and join/leave notices. It is opaque
// to the dispatcher: no game-memory writes happen here.
type UISink interface {
	SystemMessage(text string)
	ChatMessage(sender protocol.PlayerID, text string)
	PlayerJoined(id protocol.PlayerID, name string)
	PlayerLeft(id protocol.PlayerID, reason uint8)
}

// TimeSyncSink receives authoritative clock updates from the server.
type TimeSyncSink interface {
	OnTimeSync(tick uint32, timeOfDay float32, weather int32, gameSpeed uint8)
}

// Dispatcher classifies inbound transport events by message type and
// routes them: lifecycle to the registry, time-sync to the clock
// driver, position updates into the snapshot buffer, chat/system to the
// UI sink. Runs on the network thread; never touches
// the external game world directly.
type Dispatcher struct {
	Registry *registry.Registry
	Buffer   *snapshot.Buffer
	UI       UISink
	TimeSync TimeSyncSink
	Now      func() float32 // current monotonic clock, for snapshot timestamps
}

func (d *Dispatcher) Handle(e transport.Event) {
	if e.Kind != transport.EventReceive {
		return
	}
	r := protocol.NewReader(e.Data)
	header, err := protocol.ReadHeader(r)
	if err != nil {
		log.Printf("replication: dropping packet with truncated header: %v", err)
		return
	}
	switch header.Type {
	case protocol.S2CPositionUpdate:
		d.handlePositionUpdate(r)
	case protocol.S2CEntitySpawn:
		d.handleEntitySpawn(r)
	case protocol.S2CEntityDespawn:
		d.handleEntityDespawn(r)
	case protocol.S2CPlayerJoined:
		d.handlePlayerJoined(r)
	case protocol.S2CPlayerLeft:
		d.handlePlayerLeft(r)
	case protocol.S2CTimeSync:
		d.handleTimeSync(r)
	case protocol.S2CChatMessage:
		d.handleChat(r)
	case protocol.S2CSystemMessage:
		d.handleSystemMessage(r)
	default:
		// Combat, stat, equipment, build, and door messages are applied
		// directly by the game-facing layer that owns those subsystems;
		// the replication dispatcher only owns entity lifecycle,
		// position, time, and chat.
	}
}

func (d *Dispatcher) handlePositionUpdate(r *protocol.Reader) {
	batch, err := protocol.DecodeS2CPositionUpdate(r)
	if err != nil {
		log.Printf("replication: malformed S2C_PositionUpdate: %v", err)
		return
	}
	now := d.Now()
	for _, c := range batch.Entries {
		if _, ok := d.Registry.GetInfo(c.EntityID); !ok {
			continue // spawn not yet observed; drop rather than guess type
		}
		d.Buffer.Add(c.EntityID, snapshot.Snapshot{
			T:         now,
			Pos:       c.Position,
			Rot:       protocol.DecompressQuat(c.CompressedQuat),
			MoveSpeed: protocol.UnpackMoveSpeed(c.MoveSpeed),
			AnimState: c.AnimStateID,
		})
	}
}

func (d *Dispatcher) handleEntitySpawn(r *protocol.Reader) {
	m, err := protocol.DecodeMsgEntitySpawn(r)
	if err != nil {
		log.Printf("replication: malformed S2C_EntitySpawn: %v", err)
		return
	}
	d.Registry.RegisterRemote(m.EntityID, m.Type, m.OwnerID, m.Position)
	d.Registry.UpdateRotation(m.EntityID, protocol.DecompressQuat(m.CompressedQuat))
}

func (d *Dispatcher) handleEntityDespawn(r *protocol.Reader) {
	m, err := protocol.DecodeMsgEntityDespawn(r)
	if err != nil {
		log.Printf("replication: malformed S2C_EntityDespawn: %v", err)
		return
	}
	d.Registry.Unregister(m.EntityID)
	d.Buffer.Remove(m.EntityID)
}

func (d *Dispatcher) handlePlayerJoined(r *protocol.Reader) {
	m, err := protocol.DecodeMsgPlayerJoined(r)
	if err != nil {
		log.Printf("replication: malformed S2C_PlayerJoined: %v", err)
		return
	}
	if d.UI != nil {
		d.UI.PlayerJoined(m.PlayerID, m.PlayerName)
	}
}

func (d *Dispatcher) handlePlayerLeft(r *protocol.Reader) {
	m, err := protocol.DecodeMsgPlayerLeft(r)
	if err != nil {
		log.Printf("replication: malformed S2C_PlayerLeft: %v", err)
		return
	}
	if d.UI != nil {
		d.UI.PlayerLeft(m.PlayerID, m.Reason)
	}
}

func (d *Dispatcher) handleTimeSync(r *protocol.Reader) {
	m, err := protocol.DecodeMsgTimeSync(r)
	if err != nil {
		log.Printf("replication: malformed S2C_TimeSync: %v", err)
		return
	}
	if d.TimeSync != nil {
		d.TimeSync.OnTimeSync(m.ServerTick, m.TimeOfDay, m.WeatherState, m.GameSpeed)
	}
}

func (d *Dispatcher) handleChat(r *protocol.Reader) {
	m, err := protocol.DecodeMsgChatMessage(r)
	if err != nil {
		log.Printf("replication: malformed S2C_ChatMessage: %v", err)
		return
	}
	if d.UI != nil {
		d.UI.ChatMessage(m.SenderID, m.Text)
	}
}

func (d *Dispatcher) handleSystemMessage(r *protocol.Reader) {
	m, err := protocol.DecodeMsgSystemMessage(r)
	if err != nil {
		log.Printf("replication: malformed S2C_SystemMessage: %v", err)
		return
	}
	if d.UI != nil {
		d.UI.SystemMessage(m.Text)
	}
}
