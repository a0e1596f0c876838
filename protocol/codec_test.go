// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package protocol

import "testing"

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{Type: S2CPositionUpdate, Flags: FlagCompressed, Sequence: 4242, Timestamp: 99999}
	w := NewWriter()
	WriteHeader(w, h)
	if w.Len() != HeaderSize {
		t.Fatalf("header encoded to %d bytes, want %d", w.Len(), HeaderSize)
	}
	got, err := ReadHeader(NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("ReadHeader: %v", err)
	}
	if got != h {
		t.Errorf("header round trip: got %+v, want %+v", got, h)
	}
}

func TestReaderTruncated(t *testing.T) {
	r := NewReader([]byte{1, 2, 3})
	if _, err := r.ReadU32(); err != ErrTruncated {
		t.Errorf("expected ErrTruncated reading u32 from 3 bytes, got %v", err)
	}
}

func TestCharacterPositionRoundTrip(t *testing.T) {
	c := CharacterPosition{
		EntityID:       12345,
		Position:       Vec3{X: 1.5, Y: -2.25, Z: 100},
		CompressedQuat: CompressQuat(IdentityQuat),
		AnimStateID:    7,
		MoveSpeed:      PackMoveSpeed(6.0),
		Flags:          MoveFlagRunning,
	}
	w := NewWriter()
	c.Encode(w)
	if w.Len() != CharacterPositionSize {
		t.Fatalf("CharacterPosition encoded to %d bytes, want %d", w.Len(), CharacterPositionSize)
	}
	got, err := DecodeCharacterPosition(NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("DecodeCharacterPosition: %v", err)
	}
	if got != c {
		t.Errorf("CharacterPosition round trip: got %+v, want %+v", got, c)
	}
}

func TestPositionBatchRoundTrip(t *testing.T) {
	entries := []CharacterPosition{
		{EntityID: 1, Position: Vec3{X: 1}, CompressedQuat: CompressQuat(IdentityQuat)},
		{EntityID: 2, Position: Vec3{X: 2}, CompressedQuat: CompressQuat(IdentityQuat)},
	}
	w := NewWriter()
	EncodeS2CPositionUpdate(w, 7, entries)
	batch, err := DecodeS2CPositionUpdate(NewReader(w.Bytes()))
	if err != nil {
		t.Fatalf("DecodeS2CPositionUpdate: %v", err)
	}
	if batch.Source != 7 || len(batch.Entries) != 2 {
		t.Fatalf("batch round trip mismatch: %+v", batch)
	}
}

func TestFixedStringPads(t *testing.T) {
	w := NewWriter()
	w.WriteFixedString("hello", 31)
	if w.Len() != 32 {
		t.Fatalf("fixed string encoded to %d bytes, want 32", w.Len())
	}
	got, err := NewReader(w.Bytes()).ReadFixedString(31)
	if err != nil {
		t.Fatalf("ReadFixedString: %v", err)
	}
	if got != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
}

func TestVelocityPackRoundTrip(t *testing.T) {
	cases := []float32{0, 15, -15, 7.5, -7.5, 100, -100}
	for _, v := range cases {
		got := UnpackVelocityComponent(PackVelocityComponent(v))
		want := Clamp32(v, -VelocityRange, VelocityRange)
		if absF(got-want) > 0.2 {
			t.Errorf("velocity round trip %f -> %f, want ~%f", v, got, want)
		}
	}
}
