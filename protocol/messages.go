// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package protocol

// EntityType is the small closed enum of server-known entity kinds.
type EntityType uint8

const (
	EntityTypePlayerCharacter EntityType = iota
	EntityTypeNPC
	EntityTypeAnimal
	EntityTypeBuilding
	EntityTypeWorldBuilding
	EntityTypeItem
	EntityTypeTurret
)

// BodyPart has a fixed ordinal, used directly as a combat hit-location index.
type BodyPart uint8

const (
	BodyPartHead BodyPart = iota
	BodyPartChest
	BodyPartStomach
	BodyPartLeftArm
	BodyPartRightArm
	BodyPartLeftLeg
	BodyPartRightLeg
	BodyPartCount // = 7
)

// EquipSlot has fourteen fixed ordinals, one per equippable gear slot.
type EquipSlot uint8

const (
	EquipSlotWeapon EquipSlot = iota
	EquipSlotBack
	EquipSlotHair
	EquipSlotHat
	EquipSlotEyes
	EquipSlotBody
	EquipSlotLegs
	EquipSlotShirt
	EquipSlotBoots
	EquipSlotGloves
	EquipSlotNeck
	EquipSlotBackpack
	EquipSlotBeard
	EquipSlotBelt
	EquipSlotCount // = 14
)

const MaxNameLength = 31

// EntityID / PlayerID: 0 denotes "none / server-owned / system".
type EntityID uint32
type PlayerID uint32

const (
	InvalidEntity EntityID = 0
	InvalidPlayer PlayerID = 0
)

// TickNumber is a monotonically increasing server tick counter.
type TickNumber uint32

// ── Connection messages ──

type MsgHandshake struct {
	ProtocolVersion  uint32
	PlayerName       string // encoded fixed to MaxNameLength+1 bytes
	GameVersionMajor uint8
	GameVersionMinor uint8
	GameVersionPatch uint8
}

func (m MsgHandshake) Encode(w *Writer) {
	w.WriteU32(m.ProtocolVersion)
	w.WriteFixedString(m.PlayerName, MaxNameLength)
	w.WriteU8(m.GameVersionMajor)
	w.WriteU8(m.GameVersionMinor)
	w.WriteU8(m.GameVersionPatch)
	w.WriteU8(0) // reserved
}

func DecodeMsgHandshake(r *Reader) (MsgHandshake, error) {
	var m MsgHandshake
	var err error
	if m.ProtocolVersion, err = r.ReadU32(); err != nil {
		return m, err
	}
	if m.PlayerName, err = r.ReadFixedString(MaxNameLength); err != nil {
		return m, err
	}
	if m.GameVersionMajor, err = r.ReadU8(); err != nil {
		return m, err
	}
	if m.GameVersionMinor, err = r.ReadU8(); err != nil {
		return m, err
	}
	if m.GameVersionPatch, err = r.ReadU8(); err != nil {
		return m, err
	}
	if _, err = r.ReadU8(); err != nil { // reserved
		return m, err
	}
	return m, nil
}

type MsgHandshakeAck struct {
	PlayerID       PlayerID
	ServerTick     uint32
	TimeOfDay      float32
	WeatherState   int32
	MaxPlayers     uint8
	CurrentPlayers uint8
}

func (m MsgHandshakeAck) Encode(w *Writer) {
	w.WriteU32(uint32(m.PlayerID))
	w.WriteU32(m.ServerTick)
	w.WriteF32(m.TimeOfDay)
	w.WriteI32(m.WeatherState)
	w.WriteU8(m.MaxPlayers)
	w.WriteU8(m.CurrentPlayers)
	w.WriteU16(0) // reserved
}

func DecodeMsgHandshakeAck(r *Reader) (MsgHandshakeAck, error) {
	var m MsgHandshakeAck
	var err error
	var v uint32
	if v, err = r.ReadU32(); err != nil {
		return m, err
	}
	m.PlayerID = PlayerID(v)
	if m.ServerTick, err = r.ReadU32(); err != nil {
		return m, err
	}
	if m.TimeOfDay, err = r.ReadF32(); err != nil {
		return m, err
	}
	if m.WeatherState, err = r.ReadI32(); err != nil {
		return m, err
	}
	if m.MaxPlayers, err = r.ReadU8(); err != nil {
		return m, err
	}
	if m.CurrentPlayers, err = r.ReadU8(); err != nil {
		return m, err
	}
	if _, err = r.ReadU16(); err != nil {
		return m, err
	}
	return m, nil
}

// Reject reason codes, carried in MsgHandshakeReject.Code.
const (
	RejectServerFull       uint8 = 0
	RejectVersionMismatch  uint8 = 1
	RejectBanned           uint8 = 2
	RejectOther            uint8 = 3
)

type MsgHandshakeReject struct {
	Code uint8
	Text string
}

func (m MsgHandshakeReject) Encode(w *Writer) {
	w.WriteU8(m.Code)
	w.WriteString(m.Text)
}

func DecodeMsgHandshakeReject(r *Reader) (MsgHandshakeReject, error) {
	var m MsgHandshakeReject
	var err error
	if m.Code, err = r.ReadU8(); err != nil {
		return m, err
	}
	if m.Text, err = r.ReadString(); err != nil {
		return m, err
	}
	return m, nil
}

type MsgPlayerJoined struct {
	PlayerID   PlayerID
	PlayerName string
}

func (m MsgPlayerJoined) Encode(w *Writer) {
	w.WriteU32(uint32(m.PlayerID))
	w.WriteString(m.PlayerName)
}

func DecodeMsgPlayerJoined(r *Reader) (MsgPlayerJoined, error) {
	var m MsgPlayerJoined
	var err error
	var v uint32
	if v, err = r.ReadU32(); err != nil {
		return m, err
	}
	m.PlayerID = PlayerID(v)
	if m.PlayerName, err = r.ReadString(); err != nil {
		return m, err
	}
	return m, nil
}

// Leave reasons, carried in MsgPlayerLeft.Reason.
const (
	LeaveDisconnect uint8 = 0
	LeaveTimeout    uint8 = 1
	LeaveKicked     uint8 = 2
)

type MsgPlayerLeft struct {
	PlayerID PlayerID
	Reason   uint8
}

func (m MsgPlayerLeft) Encode(w *Writer) {
	w.WriteU32(uint32(m.PlayerID))
	w.WriteU8(m.Reason)
}

func DecodeMsgPlayerLeft(r *Reader) (MsgPlayerLeft, error) {
	var m MsgPlayerLeft
	var err error
	var v uint32
	if v, err = r.ReadU32(); err != nil {
		return m, err
	}
	m.PlayerID = PlayerID(v)
	if m.Reason, err = r.ReadU8(); err != nil {
		return m, err
	}
	return m, nil
}

// ── Movement messages ──

// CharacterPositionSize is the wire size of a single CharacterPosition
// record: entity_id:u32, posX/Y/Z:f32, compressedQuat:u32, animStateId:u8,
// moveSpeed:u8, flags:u16 = 24 bytes.
const CharacterPositionSize = 24

// Movement flag bits.
const (
	MoveFlagRunning  uint16 = 1 << 0
	MoveFlagSneaking uint16 = 1 << 1
	MoveFlagInCombat uint16 = 1 << 2
)

type CharacterPosition struct {
	EntityID       EntityID
	Position       Vec3
	CompressedQuat uint32
	AnimStateID    uint8
	MoveSpeed      uint8 // 0-255 mapped to 0.0-15.0 m/s
	Flags          uint16
}

func (c CharacterPosition) Encode(w *Writer) {
	w.WriteU32(uint32(c.EntityID))
	w.WriteVec3(c.Position)
	w.WriteU32(c.CompressedQuat)
	w.WriteU8(c.AnimStateID)
	w.WriteU8(c.MoveSpeed)
	w.WriteU16(c.Flags)
}

func DecodeCharacterPosition(r *Reader) (CharacterPosition, error) {
	var c CharacterPosition
	var err error
	var v uint32
	if v, err = r.ReadU32(); err != nil {
		return c, err
	}
	c.EntityID = EntityID(v)
	if c.Position, err = r.ReadVec3(); err != nil {
		return c, err
	}
	if c.CompressedQuat, err = r.ReadU32(); err != nil {
		return c, err
	}
	if c.AnimStateID, err = r.ReadU8(); err != nil {
		return c, err
	}
	if c.MoveSpeed, err = r.ReadU8(); err != nil {
		return c, err
	}
	if c.Flags, err = r.ReadU16(); err != nil {
		return c, err
	}
	return c, nil
}

// PackMoveSpeed maps a m/s speed (0..15) onto a byte 0..255.
func PackMoveSpeed(metersPerSecond float32) uint8 {
	n := Clamp32(metersPerSecond/15, 0, 1)
	return uint8(n*255 + 0.5)
}

func UnpackMoveSpeed(b uint8) float32 {
	return (float32(b) / 255) * 15
}

// MaxPositionBatch is the batching cap for a single position-update
// packet: up to 255 CharacterPosition entries (count is a u8).
const MaxPositionBatch = 255

type PositionBatch struct {
	Source  PlayerID // 0 on C2S (unused); the server also sends 0 on S2C
	Entries []CharacterPosition
}

// EncodeC2SPositionUpdate writes a u8 count + count*CharacterPosition, no
// source field (the client always implies itself as the source).
func EncodeC2SPositionUpdate(w *Writer, entries []CharacterPosition) {
	w.WriteU8(uint8(len(entries)))
	for _, e := range entries {
		e.Encode(w)
	}
}

func DecodeC2SPositionUpdate(r *Reader) ([]CharacterPosition, error) {
	count, err := r.ReadU8()
	if err != nil {
		return nil, err
	}
	out := make([]CharacterPosition, 0, count)
	for i := 0; i < int(count); i++ {
		c, err := DecodeCharacterPosition(r)
		if err != nil {
			return out, err
		}
		out = append(out, c)
	}
	return out, nil
}

// EncodeS2CPositionUpdate writes sourcePlayer:u32 + u8 count +
// count*CharacterPosition.
func EncodeS2CPositionUpdate(w *Writer, source PlayerID, entries []CharacterPosition) {
	w.WriteU32(uint32(source))
	w.WriteU8(uint8(len(entries)))
	for _, e := range entries {
		e.Encode(w)
	}
}

func DecodeS2CPositionUpdate(r *Reader) (PositionBatch, error) {
	var b PositionBatch
	v, err := r.ReadU32()
	if err != nil {
		return b, err
	}
	b.Source = PlayerID(v)
	count, err := r.ReadU8()
	if err != nil {
		return b, err
	}
	b.Entries = make([]CharacterPosition, 0, count)
	for i := 0; i < int(count); i++ {
		c, err := DecodeCharacterPosition(r)
		if err != nil {
			return b, err
		}
		b.Entries = append(b.Entries, c)
	}
	return b, nil
}

type MsgMoveCommand struct {
	EntityID EntityID
	Target   Vec3
	MoveType uint8 // 0=walk, 1=run, 2=sneak
}

func (m MsgMoveCommand) Encode(w *Writer) {
	w.WriteU32(uint32(m.EntityID))
	w.WriteVec3(m.Target)
	w.WriteU8(m.MoveType)
}

func DecodeMsgMoveCommand(r *Reader) (MsgMoveCommand, error) {
	var m MsgMoveCommand
	var err error
	var v uint32
	if v, err = r.ReadU32(); err != nil {
		return m, err
	}
	m.EntityID = EntityID(v)
	if m.Target, err = r.ReadVec3(); err != nil {
		return m, err
	}
	if m.MoveType, err = r.ReadU8(); err != nil {
		return m, err
	}
	return m, nil
}

// ── Combat messages ──

type MsgAttackIntent struct {
	AttackerID EntityID
	TargetID   EntityID
	AttackType uint8 // 0=melee, 1=ranged
}

func (m MsgAttackIntent) Encode(w *Writer) {
	w.WriteU32(uint32(m.AttackerID))
	w.WriteU32(uint32(m.TargetID))
	w.WriteU8(m.AttackType)
}

func DecodeMsgAttackIntent(r *Reader) (MsgAttackIntent, error) {
	var m MsgAttackIntent
	var err error
	var v uint32
	if v, err = r.ReadU32(); err != nil {
		return m, err
	}
	m.AttackerID = EntityID(v)
	if v, err = r.ReadU32(); err != nil {
		return m, err
	}
	m.TargetID = EntityID(v)
	if m.AttackType, err = r.ReadU8(); err != nil {
		return m, err
	}
	return m, nil
}

type MsgCombatHit struct {
	AttackerID    EntityID
	TargetID      EntityID
	BodyPart      BodyPart
	Cut           float32
	Blunt         float32
	Pierce        float32
	ResultHealth  float32
	WasBlocked    uint8
	WasKO         uint8
}

func (m MsgCombatHit) Encode(w *Writer) {
	w.WriteU32(uint32(m.AttackerID))
	w.WriteU32(uint32(m.TargetID))
	w.WriteU8(uint8(m.BodyPart))
	w.WriteF32(m.Cut)
	w.WriteF32(m.Blunt)
	w.WriteF32(m.Pierce)
	w.WriteF32(m.ResultHealth)
	w.WriteU8(m.WasBlocked)
	w.WriteU8(m.WasKO)
}

func DecodeMsgCombatHit(r *Reader) (MsgCombatHit, error) {
	var m MsgCombatHit
	var err error
	var v uint32
	var b uint8
	if v, err = r.ReadU32(); err != nil {
		return m, err
	}
	m.AttackerID = EntityID(v)
	if v, err = r.ReadU32(); err != nil {
		return m, err
	}
	m.TargetID = EntityID(v)
	if b, err = r.ReadU8(); err != nil {
		return m, err
	}
	m.BodyPart = BodyPart(b)
	if m.Cut, err = r.ReadF32(); err != nil {
		return m, err
	}
	if m.Blunt, err = r.ReadF32(); err != nil {
		return m, err
	}
	if m.Pierce, err = r.ReadF32(); err != nil {
		return m, err
	}
	if m.ResultHealth, err = r.ReadF32(); err != nil {
		return m, err
	}
	if m.WasBlocked, err = r.ReadU8(); err != nil {
		return m, err
	}
	if m.WasKO, err = r.ReadU8(); err != nil {
		return m, err
	}
	return m, nil
}

// MsgCombatDeath doubles as the KO broadcast payload (same layout is sent
// under S2C_CombatDeath or S2C_CombatKO).
type MsgCombatDeath struct {
	EntityID EntityID
	KillerID EntityID // 0 if environmental
}

func (m MsgCombatDeath) Encode(w *Writer) {
	w.WriteU32(uint32(m.EntityID))
	w.WriteU32(uint32(m.KillerID))
}

func DecodeMsgCombatDeath(r *Reader) (MsgCombatDeath, error) {
	var m MsgCombatDeath
	var err error
	var v uint32
	if v, err = r.ReadU32(); err != nil {
		return m, err
	}
	m.EntityID = EntityID(v)
	if v, err = r.ReadU32(); err != nil {
		return m, err
	}
	m.KillerID = EntityID(v)
	return m, nil
}

// ── Entity lifecycle messages ──

type MsgEntitySpawn struct {
	EntityID       EntityID
	Type           EntityType
	OwnerID        PlayerID // 0 = server-owned
	TemplateID     uint32
	Position       Vec3
	CompressedQuat uint32
	FactionID      uint32
	TemplateName   string // optional, <= 255 bytes
}

func (m MsgEntitySpawn) Encode(w *Writer) {
	w.WriteU32(uint32(m.EntityID))
	w.WriteU8(uint8(m.Type))
	w.WriteU32(uint32(m.OwnerID))
	w.WriteU32(m.TemplateID)
	w.WriteVec3(m.Position)
	w.WriteU32(m.CompressedQuat)
	w.WriteU32(m.FactionID)
	w.WriteString(m.TemplateName)
}

func DecodeMsgEntitySpawn(r *Reader) (MsgEntitySpawn, error) {
	var m MsgEntitySpawn
	var err error
	var v uint32
	var b uint8
	if v, err = r.ReadU32(); err != nil {
		return m, err
	}
	m.EntityID = EntityID(v)
	if b, err = r.ReadU8(); err != nil {
		return m, err
	}
	m.Type = EntityType(b)
	if v, err = r.ReadU32(); err != nil {
		return m, err
	}
	m.OwnerID = PlayerID(v)
	if m.TemplateID, err = r.ReadU32(); err != nil {
		return m, err
	}
	if m.Position, err = r.ReadVec3(); err != nil {
		return m, err
	}
	if m.CompressedQuat, err = r.ReadU32(); err != nil {
		return m, err
	}
	if m.FactionID, err = r.ReadU32(); err != nil {
		return m, err
	}
	if m.TemplateName, err = r.ReadString(); err != nil {
		return m, err
	}
	return m, nil
}

// Despawn reasons.
const (
	DespawnNormal     uint8 = 0
	DespawnKilled     uint8 = 1
	DespawnOutOfRange uint8 = 2
)

type MsgEntityDespawn struct {
	EntityID EntityID
	Reason   uint8
}

func (m MsgEntityDespawn) Encode(w *Writer) {
	w.WriteU32(uint32(m.EntityID))
	w.WriteU8(m.Reason)
}

func DecodeMsgEntityDespawn(r *Reader) (MsgEntityDespawn, error) {
	var m MsgEntityDespawn
	var err error
	var v uint32
	if v, err = r.ReadU32(); err != nil {
		return m, err
	}
	m.EntityID = EntityID(v)
	if m.Reason, err = r.ReadU8(); err != nil {
		return m, err
	}
	return m, nil
}

type MsgEntitySpawnReq struct {
	Type         EntityType
	TemplateID   uint32
	FactionID    uint32
	Position     Vec3
	Rotation     Quat
	TemplateName string
}

func (m MsgEntitySpawnReq) Encode(w *Writer) {
	w.WriteU8(uint8(m.Type))
	w.WriteU32(m.TemplateID)
	w.WriteU32(m.FactionID)
	w.WriteVec3(m.Position)
	w.WriteU32(CompressQuat(m.Rotation))
	w.WriteString(m.TemplateName)
}

func DecodeMsgEntitySpawnReq(r *Reader) (MsgEntitySpawnReq, error) {
	var m MsgEntitySpawnReq
	var err error
	var b uint8
	var q uint32
	if b, err = r.ReadU8(); err != nil {
		return m, err
	}
	m.Type = EntityType(b)
	if m.TemplateID, err = r.ReadU32(); err != nil {
		return m, err
	}
	if m.FactionID, err = r.ReadU32(); err != nil {
		return m, err
	}
	if m.Position, err = r.ReadVec3(); err != nil {
		return m, err
	}
	if q, err = r.ReadU32(); err != nil {
		return m, err
	}
	m.Rotation = DecompressQuat(q)
	if m.TemplateName, err = r.ReadString(); err != nil {
		return m, err
	}
	return m, nil
}

type MsgEntityDespawnReq struct {
	EntityID EntityID
}

func (m MsgEntityDespawnReq) Encode(w *Writer) {
	w.WriteU32(uint32(m.EntityID))
}

func DecodeMsgEntityDespawnReq(r *Reader) (MsgEntityDespawnReq, error) {
	var m MsgEntityDespawnReq
	v, err := r.ReadU32()
	m.EntityID = EntityID(v)
	return m, err
}

// ── Stats messages ──

type MsgHealthUpdate struct {
	EntityID   EntityID
	Health     [BodyPartCount]float32
	BloodLevel float32
}

func (m MsgHealthUpdate) Encode(w *Writer) {
	w.WriteU32(uint32(m.EntityID))
	for _, h := range m.Health {
		w.WriteF32(h)
	}
	w.WriteF32(m.BloodLevel)
}

func DecodeMsgHealthUpdate(r *Reader) (MsgHealthUpdate, error) {
	var m MsgHealthUpdate
	var err error
	var v uint32
	if v, err = r.ReadU32(); err != nil {
		return m, err
	}
	m.EntityID = EntityID(v)
	for i := range m.Health {
		if m.Health[i], err = r.ReadF32(); err != nil {
			return m, err
		}
	}
	if m.BloodLevel, err = r.ReadF32(); err != nil {
		return m, err
	}
	return m, nil
}

type MsgEquipmentUpdate struct {
	EntityID       EntityID
	Slot           EquipSlot
	ItemTemplateID uint32 // 0 = empty
}

func (m MsgEquipmentUpdate) Encode(w *Writer) {
	w.WriteU32(uint32(m.EntityID))
	w.WriteU8(uint8(m.Slot))
	w.WriteU32(m.ItemTemplateID)
}

func DecodeMsgEquipmentUpdate(r *Reader) (MsgEquipmentUpdate, error) {
	var m MsgEquipmentUpdate
	var err error
	var v uint32
	var b uint8
	if v, err = r.ReadU32(); err != nil {
		return m, err
	}
	m.EntityID = EntityID(v)
	if b, err = r.ReadU8(); err != nil {
		return m, err
	}
	m.Slot = EquipSlot(b)
	if m.ItemTemplateID, err = r.ReadU32(); err != nil {
		return m, err
	}
	return m, nil
}

type MsgStatUpdate struct {
	EntityID  EntityID
	StatIndex uint8
	StatValue float32 // whole = level, decimal = XP%
}

func (m MsgStatUpdate) Encode(w *Writer) {
	w.WriteU32(uint32(m.EntityID))
	w.WriteU8(m.StatIndex)
	w.WriteF32(m.StatValue)
}

func DecodeMsgStatUpdate(r *Reader) (MsgStatUpdate, error) {
	var m MsgStatUpdate
	var err error
	var v uint32
	if v, err = r.ReadU32(); err != nil {
		return m, err
	}
	m.EntityID = EntityID(v)
	if m.StatIndex, err = r.ReadU8(); err != nil {
		return m, err
	}
	if m.StatValue, err = r.ReadF32(); err != nil {
		return m, err
	}
	return m, nil
}

// ── Building messages ──

type MsgBuildRequest struct {
	TemplateID     uint32
	Position       Vec3
	CompressedQuat uint32
}

func (m MsgBuildRequest) Encode(w *Writer) {
	w.WriteU32(m.TemplateID)
	w.WriteVec3(m.Position)
	w.WriteU32(m.CompressedQuat)
}

func DecodeMsgBuildRequest(r *Reader) (MsgBuildRequest, error) {
	var m MsgBuildRequest
	var err error
	if m.TemplateID, err = r.ReadU32(); err != nil {
		return m, err
	}
	if m.Position, err = r.ReadVec3(); err != nil {
		return m, err
	}
	if m.CompressedQuat, err = r.ReadU32(); err != nil {
		return m, err
	}
	return m, nil
}

type MsgBuildPlaced struct {
	EntityID       EntityID
	TemplateID     uint32
	Position       Vec3
	CompressedQuat uint32
	BuilderID      PlayerID
}

func (m MsgBuildPlaced) Encode(w *Writer) {
	w.WriteU32(uint32(m.EntityID))
	w.WriteU32(m.TemplateID)
	w.WriteVec3(m.Position)
	w.WriteU32(m.CompressedQuat)
	w.WriteU32(uint32(m.BuilderID))
}

func DecodeMsgBuildPlaced(r *Reader) (MsgBuildPlaced, error) {
	var m MsgBuildPlaced
	var err error
	var v uint32
	if v, err = r.ReadU32(); err != nil {
		return m, err
	}
	m.EntityID = EntityID(v)
	if m.TemplateID, err = r.ReadU32(); err != nil {
		return m, err
	}
	if m.Position, err = r.ReadVec3(); err != nil {
		return m, err
	}
	if m.CompressedQuat, err = r.ReadU32(); err != nil {
		return m, err
	}
	if v, err = r.ReadU32(); err != nil {
		return m, err
	}
	m.BuilderID = PlayerID(v)
	return m, nil
}

type MsgBuildProgress struct {
	EntityID EntityID
	Progress float32 // 0.0 to 1.0
}

func (m MsgBuildProgress) Encode(w *Writer) {
	w.WriteU32(uint32(m.EntityID))
	w.WriteF32(m.Progress)
}

func DecodeMsgBuildProgress(r *Reader) (MsgBuildProgress, error) {
	var m MsgBuildProgress
	var err error
	var v uint32
	if v, err = r.ReadU32(); err != nil {
		return m, err
	}
	m.EntityID = EntityID(v)
	if m.Progress, err = r.ReadF32(); err != nil {
		return m, err
	}
	return m, nil
}

// Door states.
const (
	DoorClosed uint8 = 0
	DoorOpen   uint8 = 1
	DoorLocked uint8 = 2
	DoorBroken uint8 = 3
)

type MsgDoorState struct {
	EntityID EntityID
	State    uint8
}

func (m MsgDoorState) Encode(w *Writer) {
	w.WriteU32(uint32(m.EntityID))
	w.WriteU8(m.State)
}

func DecodeMsgDoorState(r *Reader) (MsgDoorState, error) {
	var m MsgDoorState
	var err error
	var v uint32
	if v, err = r.ReadU32(); err != nil {
		return m, err
	}
	m.EntityID = EntityID(v)
	if m.State, err = r.ReadU8(); err != nil {
		return m, err
	}
	return m, nil
}

type MsgDoorInteract struct {
	EntityID EntityID
	Action   uint8 // 0=toggle, 1=lock, 2=unlock
}

func (m MsgDoorInteract) Encode(w *Writer) {
	w.WriteU32(uint32(m.EntityID))
	w.WriteU8(m.Action)
}

func DecodeMsgDoorInteract(r *Reader) (MsgDoorInteract, error) {
	var m MsgDoorInteract
	var err error
	var v uint32
	if v, err = r.ReadU32(); err != nil {
		return m, err
	}
	m.EntityID = EntityID(v)
	if m.Action, err = r.ReadU8(); err != nil {
		return m, err
	}
	return m, nil
}

// ── Time sync ──

type MsgTimeSync struct {
	ServerTick   uint32
	TimeOfDay    float32 // 0.0 to 1.0
	WeatherState int32
	GameSpeed    uint8 // 1-4
}

func (m MsgTimeSync) Encode(w *Writer) {
	w.WriteU32(m.ServerTick)
	w.WriteF32(m.TimeOfDay)
	w.WriteI32(m.WeatherState)
	w.WriteU8(m.GameSpeed)
}

func DecodeMsgTimeSync(r *Reader) (MsgTimeSync, error) {
	var m MsgTimeSync
	var err error
	if m.ServerTick, err = r.ReadU32(); err != nil {
		return m, err
	}
	if m.TimeOfDay, err = r.ReadF32(); err != nil {
		return m, err
	}
	if m.WeatherState, err = r.ReadI32(); err != nil {
		return m, err
	}
	if m.GameSpeed, err = r.ReadU8(); err != nil {
		return m, err
	}
	return m, nil
}

// ── Chat ──

type MsgChatMessage struct {
	SenderID PlayerID // 0 = system
	Text     string
}

func (m MsgChatMessage) Encode(w *Writer) {
	w.WriteU32(uint32(m.SenderID))
	w.WriteString(m.Text)
}

func DecodeMsgChatMessage(r *Reader) (MsgChatMessage, error) {
	var m MsgChatMessage
	var err error
	var v uint32
	if v, err = r.ReadU32(); err != nil {
		return m, err
	}
	m.SenderID = PlayerID(v)
	if m.Text, err = r.ReadString(); err != nil {
		return m, err
	}
	return m, nil
}

type MsgSystemMessage struct {
	Text string
}

func (m MsgSystemMessage) Encode(w *Writer) {
	w.WriteString(m.Text)
}

func DecodeMsgSystemMessage(r *Reader) (MsgSystemMessage, error) {
	var m MsgSystemMessage
	var err error
	m.Text, err = r.ReadString()
	return m, err
}

// ── Zone request (client-initiated interest refresh) ──

type MsgZoneRequest struct {
	ZoneX int32
	ZoneY int32
}

func (m MsgZoneRequest) Encode(w *Writer) {
	w.WriteI32(m.ZoneX)
	w.WriteI32(m.ZoneY)
}

func DecodeMsgZoneRequest(r *Reader) (MsgZoneRequest, error) {
	var m MsgZoneRequest
	var err error
	if m.ZoneX, err = r.ReadI32(); err != nil {
		return m, err
	}
	if m.ZoneY, err = r.ReadI32(); err != nil {
		return m, err
	}
	return m, nil
}

// ── Admin ──

type MsgAdminCommand struct {
	Command string
}

func (m MsgAdminCommand) Encode(w *Writer) {
	w.WriteString(m.Command)
}

func DecodeMsgAdminCommand(r *Reader) (MsgAdminCommand, error) {
	var m MsgAdminCommand
	var err error
	m.Command, err = r.ReadString()
	return m, err
}

type MsgAdminResponse struct {
	Text string
}

func (m MsgAdminResponse) Encode(w *Writer) {
	w.WriteString(m.Text)
}

func DecodeMsgAdminResponse(r *Reader) (MsgAdminResponse, error) {
	var m MsgAdminResponse
	var err error
	m.Text, err = r.ReadString()
	return m, err
}
