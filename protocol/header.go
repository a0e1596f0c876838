// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package protocol

// MessageType is the one-byte identifier at the front of every packet.
type MessageType uint8

const (
	C2SHandshake      MessageType = 0x01
	S2CHandshakeAck   MessageType = 0x02
	S2CHandshakeReject MessageType = 0x03
	C2SDisconnect     MessageType = 0x04
	S2CPlayerJoined   MessageType = 0x05
	S2CPlayerLeft     MessageType = 0x06
	C2SKeepalive      MessageType = 0x07
	S2CKeepaliveAck   MessageType = 0x08

	S2CWorldSnapshot MessageType = 0x10
	S2CTimeSync      MessageType = 0x11
	S2CZoneData      MessageType = 0x12

	S2CEntitySpawn    MessageType = 0x20
	S2CEntityDespawn  MessageType = 0x21
	C2SEntitySpawnReq MessageType = 0x22
	// C2SEntityDespawnReq takes the next free slot in the entity family.
	C2SEntityDespawnReq MessageType = 0x23

	C2SPositionUpdate MessageType = 0x30
	S2CPositionUpdate MessageType = 0x31
	C2SMoveCommand    MessageType = 0x32
	S2CMoveCommand    MessageType = 0x33

	C2SAttackIntent MessageType = 0x40
	S2CCombatHit    MessageType = 0x41
	S2CCombatBlock  MessageType = 0x42
	S2CCombatDeath  MessageType = 0x43
	S2CCombatKO     MessageType = 0x44
	C2SCombatStance MessageType = 0x45

	S2CStatUpdate      MessageType = 0x50
	S2CHealthUpdate    MessageType = 0x51
	S2CEquipmentUpdate MessageType = 0x52

	C2SItemPickup      MessageType = 0x60
	C2SItemDrop        MessageType = 0x61
	C2SItemTransfer    MessageType = 0x62
	S2CInventoryUpdate MessageType = 0x63

	C2SBuildRequest    MessageType = 0x70
	S2CBuildPlaced     MessageType = 0x71
	S2CBuildProgress   MessageType = 0x72
	S2CBuildDestroyed  MessageType = 0x73
	C2SDoorInteract    MessageType = 0x74
	S2CDoorState       MessageType = 0x75

	C2SChatMessage  MessageType = 0x80
	S2CChatMessage  MessageType = 0x81
	S2CSystemMessage MessageType = 0x82

	C2SAdminCommand  MessageType = 0x90
	S2CAdminResponse MessageType = 0x91

	// C2SZoneRequest shares the zone-data family and is assigned the next
	// free slot in that range.
	C2SZoneRequest MessageType = 0x13
)

// HeaderSize is fixed at exactly 8 bytes; any deviation breaks the wire.
const HeaderSize = 8

// FlagCompressed is bit 0 of Header.Flags. Reserved: the core never sets
// or interprets it.
const FlagCompressed uint8 = 1 << 0

// Header is the fixed 8-byte prefix of every packet.
type Header struct {
	Type      MessageType
	Flags     uint8
	Sequence  uint16
	Timestamp uint32 // server tick at emission (S2C) or zero (C2S)
}

// WriteHeader appends an 8-byte header to w.
func WriteHeader(w *Writer, h Header) {
	w.WriteU8(uint8(h.Type))
	w.WriteU8(h.Flags)
	w.WriteU16(h.Sequence)
	w.WriteU32(h.Timestamp)
}

// ReadHeader reads an 8-byte header from r.
func ReadHeader(r *Reader) (Header, error) {
	var h Header
	t, err := r.ReadU8()
	if err != nil {
		return h, err
	}
	flags, err := r.ReadU8()
	if err != nil {
		return h, err
	}
	seq, err := r.ReadU16()
	if err != nil {
		return h, err
	}
	ts, err := r.ReadU32()
	if err != nil {
		return h, err
	}
	h.Type = MessageType(t)
	h.Flags = flags
	h.Sequence = seq
	h.Timestamp = ts
	return h, nil
}
