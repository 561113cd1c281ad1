// Package protocol implements the primitive wire datatypes and frame
// layering of the game protocol.
//
// # Datatypes
//
// Every wire type is a stateless package-level value implementing Datatype
// (dynamic, any-typed Serialize/Deserialize) and Codec[T] (typed streaming
// Write/Read over an Encoder or Decoder):
//
//   - Boolean: one byte, 0x00 or 0x01
//   - Byte, UnsignedByte, Short, UnsignedShort, Integer, UnsignedInteger,
//     Long, UnsignedLong: big-endian two's complement, 1 to 8 bytes
//   - Float, Double: IEEE-754 big-endian
//   - VarInt, VarLong: 7 bits per byte, least significant group first,
//     high bit set on every byte but the last; at most 5 and 10 bytes
//   - String: VarInt byte length + UTF-8
//   - ByteArray, RestOfBuffer, PositionType, Array(elem), Optional(elem)
//
// Serialize and Deserialize separate two failure kinds: ErrType when the
// argument is the wrong kind of value entirely, ErrValue when it is the
// right kind with bad content.
//
//	b, _ := protocol.Integer.Serialize(-1000000) // ff f0 bd c0
//	v, _ := protocol.Short.Deserialize([]byte{0x80, 0x00}) // int16(-32768)
//	_, err := protocol.Boolean.Serialize(1) // errors.Is(err, protocol.ErrType)
//
// # Frames
//
// FrameReader and FrameWriter add and remove the frame layers: a VarInt
// length prefix, the optional uncompressed-length field with a zlib body
// (see Compressor), and optional AES/CFB8 encryption of the whole stream
// (see NewSharedSecretStreams). Length mismatches are ErrFraming.
package protocol
