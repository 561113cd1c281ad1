package protocol

import (
	"encoding/binary"
	"math"
)

// Encoder appends game datatypes to a growable buffer. Method names follow
// the protocol's type names: Short is int16, Integer int32, Long int64, and
// all of them are big-endian.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an encoder for a typical packet body.
func NewEncoder() *Encoder {
	return NewEncoderWithCap(256)
}

// NewEncoderWithCap returns an encoder whose buffer starts with capacity n.
func NewEncoderWithCap(n int) *Encoder {
	return &Encoder{buf: make([]byte, 0, n)}
}

// Reset empties the encoder and keeps its buffer.
func (e *Encoder) Reset() { e.buf = e.buf[:0] }

// Bytes returns the encoded bytes, valid until the next write or Reset.
func (e *Encoder) Bytes() []byte { return e.buf }

func (e *Encoder) Len() int { return len(e.buf) }

// WriteRaw appends b without a length prefix.
func (e *Encoder) WriteRaw(b []byte) { e.buf = append(e.buf, b...) }

func (e *Encoder) WriteBoolean(v bool) {
	var b byte
	if v {
		b = 0x01
	}
	e.buf = append(e.buf, b)
}

func (e *Encoder) WriteSignedByte(v int8)    { e.buf = append(e.buf, byte(v)) }
func (e *Encoder) WriteUnsignedByte(v uint8) { e.buf = append(e.buf, v) }

func (e *Encoder) WriteShort(v int16) { e.WriteUnsignedShort(uint16(v)) }

func (e *Encoder) WriteUnsignedShort(v uint16) {
	e.buf = binary.BigEndian.AppendUint16(e.buf, v)
}

func (e *Encoder) WriteInteger(v int32) { e.WriteUnsignedInteger(uint32(v)) }

func (e *Encoder) WriteUnsignedInteger(v uint32) {
	e.buf = binary.BigEndian.AppendUint32(e.buf, v)
}

func (e *Encoder) WriteLong(v int64) { e.WriteUnsignedLong(uint64(v)) }

func (e *Encoder) WriteUnsignedLong(v uint64) {
	e.buf = binary.BigEndian.AppendUint64(e.buf, v)
}

func (e *Encoder) WriteFloat(v float32)  { e.WriteUnsignedInteger(math.Float32bits(v)) }
func (e *Encoder) WriteDouble(v float64) { e.WriteUnsignedLong(math.Float64bits(v)) }

func (e *Encoder) WriteVarInt(v int32)  { e.buf = AppendVarInt(e.buf, v) }
func (e *Encoder) WriteVarLong(v int64) { e.buf = AppendVarLong(e.buf, v) }

// WriteString appends s as a VarInt byte length and its UTF-8 bytes.
func (e *Encoder) WriteString(s string) {
	e.WriteVarInt(int32(len(s)))
	e.buf = append(e.buf, s...)
}

// WriteByteArray appends b behind a VarInt length.
func (e *Encoder) WriteByteArray(b []byte) {
	e.WriteVarInt(int32(len(b)))
	e.buf = append(e.buf, b...)
}
