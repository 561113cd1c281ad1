package protocol

import (
	"encoding/binary"
	"math"
	"unicode/utf8"
)

// Allocation limits applied to length prefixes before anything is allocated.
const (
	// DefaultMaxAllocation is the default maximum allocation size (2MB),
	// the largest frame the game protocol allows.
	DefaultMaxAllocation = 2 * 1024 * 1024

	// MaxStringLen is the largest string payload in bytes. The protocol caps
	// strings at 32767 UTF-16 units, which is at most four bytes each.
	MaxStringLen = 32767 * 4

	// MaxCollectionCount bounds Array element counts.
	MaxCollectionCount = 100_000
)

// Decoder reads game datatypes from a byte slice, mirroring Encoder. Every
// read failure is a value error.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder creates a new decoder from the given byte slice.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}

// EOF returns true if all bytes have been read.
func (d *Decoder) EOF() bool {
	return d.pos >= len(d.buf)
}

// Position returns the current read position.
func (d *Decoder) Position() int {
	return d.pos
}

// Skip advances the position by n bytes.
func (d *Decoder) Skip(n int) error {
	if n < 0 || d.pos+n > len(d.buf) {
		return ErrBufferTooShort
	}
	d.pos += n
	return nil
}

// take consumes the next n bytes.
func (d *Decoder) take(n int) ([]byte, error) {
	if n < 0 || d.pos+n > len(d.buf) {
		return nil, ErrBufferTooShort
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

// ReadRaw reads exactly n bytes. The result aliases the decoder's buffer.
func (d *Decoder) ReadRaw(n int) ([]byte, error) {
	return d.take(n)
}

// ReadRest returns a copy of every unread byte.
func (d *Decoder) ReadRest() []byte {
	b := make([]byte, d.Remaining())
	copy(b, d.buf[d.pos:])
	d.pos = len(d.buf)
	return b
}

// ReadVarInt reads a 32-bit VarInt.
func (d *Decoder) ReadVarInt() (int32, error) {
	v, n := DecodeVarInt(d.buf[d.pos:])
	switch {
	case n == -2:
		return 0, ErrVarintOverflow
	case n < 0:
		return 0, ErrBufferTooShort
	}
	d.pos += n
	return v, nil
}

// ReadVarLong reads a 64-bit VarLong.
func (d *Decoder) ReadVarLong() (int64, error) {
	v, n := DecodeVarLong(d.buf[d.pos:])
	switch {
	case n == -2:
		return 0, ErrVarintOverflow
	case n < 0:
		return 0, ErrBufferTooShort
	}
	d.pos += n
	return v, nil
}

// readLength reads a VarInt length prefix and bounds it against the
// remaining buffer and limit.
func (d *Decoder) readLength(limit int) (int, error) {
	length, err := d.ReadVarInt()
	if err != nil {
		return 0, err
	}
	if length < 0 {
		return 0, ErrOutOfRange
	}
	if int(length) > limit {
		return 0, ErrAllocationTooLarge
	}
	if int(length) > d.Remaining() {
		return 0, ErrBufferTooShort
	}
	return int(length), nil
}

// ReadString reads a length-prefixed UTF-8 string.
func (d *Decoder) ReadString() (string, error) {
	n, err := d.readLength(MaxStringLen)
	if err != nil {
		return "", err
	}
	raw := d.buf[d.pos : d.pos+n]
	if !utf8.Valid(raw) {
		return "", ErrInvalidUTF8
	}
	d.pos += n
	return string(raw), nil
}

// ReadByteArray reads a VarInt length and a copy of that many bytes.
func (d *Decoder) ReadByteArray() ([]byte, error) {
	n, err := d.readLength(DefaultMaxAllocation)
	if err != nil {
		return nil, err
	}
	b := make([]byte, n)
	copy(b, d.buf[d.pos:d.pos+n])
	d.pos += n
	return b, nil
}

// ReadBoolean accepts only 0x00 and 0x01 and does not advance otherwise.
func (d *Decoder) ReadBoolean() (bool, error) {
	if d.pos >= len(d.buf) {
		return false, ErrBufferTooShort
	}
	switch d.buf[d.pos] {
	case 0x00:
		d.pos++
		return false, nil
	case 0x01:
		d.pos++
		return true, nil
	default:
		return false, ErrInvalidBool
	}
}

func (d *Decoder) ReadUnsignedByte() (uint8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Decoder) ReadSignedByte() (int8, error) {
	v, err := d.ReadUnsignedByte()
	return int8(v), err
}

func (d *Decoder) ReadUnsignedShort() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (d *Decoder) ReadShort() (int16, error) {
	v, err := d.ReadUnsignedShort()
	return int16(v), err
}

func (d *Decoder) ReadUnsignedInteger() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (d *Decoder) ReadInteger() (int32, error) {
	v, err := d.ReadUnsignedInteger()
	return int32(v), err
}

func (d *Decoder) ReadUnsignedLong() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

func (d *Decoder) ReadLong() (int64, error) {
	v, err := d.ReadUnsignedLong()
	return int64(v), err
}

func (d *Decoder) ReadFloat() (float32, error) {
	v, err := d.ReadUnsignedInteger()
	return math.Float32frombits(v), err
}

func (d *Decoder) ReadDouble() (float64, error) {
	v, err := d.ReadUnsignedLong()
	return math.Float64frombits(v), err
}

// ReadCollectionCount reads a VarInt count and validates it against limits.
func (d *Decoder) ReadCollectionCount() (int, error) {
	count, err := d.ReadVarInt()
	if err != nil {
		return 0, err
	}
	if count < 0 {
		return 0, ErrOutOfRange
	}
	if count > MaxCollectionCount {
		return 0, ErrCollectionTooLarge
	}
	// Every element takes at least one byte.
	if int(count) > d.Remaining() {
		return 0, ErrBufferTooShort
	}
	return int(count), nil
}
