// SPDX-FileCopyrightText: 2021 Softbear, Inc.
// SPDX-License-Identifier: AGPL-3.0-or-later

package protocol

import (
	"encoding/binary"
	"errors"
	"math"
)

// ErrTruncated is returned by every Read* method when the buffer runs out
// before the requested field is fully read. Decoders never read past the
// end of the buffer or touch uninitialized memory: the
// caller drops the packet and logs, the transport continues.
var ErrTruncated = errors.New("protocol: truncated packet")

// Writer accumulates a packet's bytes. The zero value is ready to use.
type Writer struct {
	buf []byte
}

func NewWriter() *Writer {
	return &Writer{buf: make([]byte, 0, 256)}
}

func (w *Writer) Bytes() []byte { return w.buf }
func (w *Writer) Len() int      { return len(w.buf) }

func (w *Writer) WriteRaw(b []byte) {
	w.buf = append(w.buf, b...)
}

func (w *Writer) WriteU8(v uint8) {
	w.buf = append(w.buf, v)
}

func (w *Writer) WriteU16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *Writer) WriteI32(v int32) {
	w.WriteU32(uint32(v))
}

func (w *Writer) WriteF32(v float32) {
	w.WriteU32(math.Float32bits(v))
}

func (w *Writer) WriteVec3(v Vec3) {
	w.WriteF32(v.X)
	w.WriteF32(v.Y)
	w.WriteF32(v.Z)
}

// WriteString writes a u16 length prefix followed by the raw bytes, no
// terminator. Truncates to 65535 bytes rather than
// overflowing the length prefix.
func (w *Writer) WriteString(s string) {
	if len(s) > math.MaxUint16 {
		s = s[:math.MaxUint16]
	}
	w.WriteU16(uint16(len(s)))
	if len(s) > 0 {
		w.WriteRaw([]byte(s))
	}
}

// WriteFixedString writes exactly n+1 bytes: s truncated to n bytes,
// null-padded on the right.
func (w *Writer) WriteFixedString(s string, n int) {
	b := make([]byte, n+1)
	copy(b[:n], s)
	w.WriteRaw(b)
}

// Reader consumes bytes from a fixed buffer, never reading past its end.
type Reader struct {
	data []byte
	pos  int
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) Remaining() int { return len(r.data) - r.pos }
func (r *Reader) Position() int  { return r.pos }

func (r *Reader) ReadRaw(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, ErrTruncated
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.ReadRaw(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadU16() (uint16, error) {
	b, err := r.ReadRaw(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.ReadRaw(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadI32() (int32, error) {
	v, err := r.ReadU32()
	return int32(v), err
}

func (r *Reader) ReadF32() (float32, error) {
	v, err := r.ReadU32()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

func (r *Reader) ReadVec3() (Vec3, error) {
	x, err := r.ReadF32()
	if err != nil {
		return Vec3{}, err
	}
	y, err := r.ReadF32()
	if err != nil {
		return Vec3{}, err
	}
	z, err := r.ReadF32()
	if err != nil {
		return Vec3{}, err
	}
	return Vec3{X: x, Y: y, Z: z}, nil
}

func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadU16()
	if err != nil {
		return "", err
	}
	b, err := r.ReadRaw(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ReadFixedString reads n+1 bytes and trims at the first NUL (or returns
// all n bytes if unterminated).
func (r *Reader) ReadFixedString(n int) (string, error) {
	b, err := r.ReadRaw(n + 1)
	if err != nil {
		return "", err
	}
	end := n
	for i, c := range b {
		if c == 0 {
			end = i
			break
		}
	}
	return string(b[:end]), nil
}
