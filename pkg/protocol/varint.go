package protocol

// Group limits for the two varint widths.
const (
	// MaxVarIntLen is the maximum number of bytes of a 32-bit VarInt.
	MaxVarIntLen = 5

	// MaxVarLongLen is the maximum number of bytes of a 64-bit VarLong.
	MaxVarLongLen = 10
)

// AppendVarInt appends v as a VarInt. Negative values use their 32-bit
// two's complement form and therefore always take five bytes.
func AppendVarInt(buf []byte, v int32) []byte {
	uv := uint32(v)
	for uv >= 0x80 {
		buf = append(buf, byte(uv)|0x80)
		uv >>= 7
	}
	return append(buf, byte(uv))
}

// AppendVarLong appends v as a VarLong.
func AppendVarLong(buf []byte, v int64) []byte {
	uv := uint64(v)
	for uv >= 0x80 {
		buf = append(buf, byte(uv)|0x80)
		uv >>= 7
	}
	return append(buf, byte(uv))
}

// DecodeVarInt decodes a VarInt from the start of buf.
// Returns (value, bytesRead). If bytesRead < 0, decoding failed:
//   - -1: buffer too short (incomplete varint)
//   - -2: more than MaxVarIntLen groups, or a last group carrying bits
//     above bit 31
func DecodeVarInt(buf []byte) (int32, int) {
	var v uint32
	for i, b := range buf {
		if i >= MaxVarIntLen || (i == MaxVarIntLen-1 && b > 0x0F) {
			return 0, -2
		}
		v |= uint32(b&0x7F) << (7 * uint(i))
		if b < 0x80 {
			return int32(v), i + 1
		}
	}
	if len(buf) >= MaxVarIntLen {
		return 0, -2
	}
	return 0, -1
}

// DecodeVarLong decodes a VarLong from the start of buf.
// Error results follow DecodeVarInt, with MaxVarLongLen groups and a last
// group limited to bit 63.
func DecodeVarLong(buf []byte) (int64, int) {
	var v uint64
	for i, b := range buf {
		if i >= MaxVarLongLen || (i == MaxVarLongLen-1 && b > 0x01) {
			return 0, -2
		}
		v |= uint64(b&0x7F) << (7 * uint(i))
		if b < 0x80 {
			return int64(v), i + 1
		}
	}
	if len(buf) >= MaxVarLongLen {
		return 0, -2
	}
	return 0, -1
}

// VarIntLen returns the number of bytes needed to encode v as a VarInt.
func VarIntLen(v int32) int {
	uv := uint32(v)
	n := 1
	for uv >= 0x80 {
		n++
		uv >>= 7
	}
	return n
}

// VarLongLen returns the number of bytes needed to encode v as a VarLong.
func VarLongLen(v int64) int {
	uv := uint64(v)
	n := 1
	for uv >= 0x80 {
		n++
		uv >>= 7
	}
	return n
}
