package protocol

import (
	"fmt"
	"unicode/utf8"
)

// Datatype is the dynamic face of a wire type: it accepts arbitrary Go
// values and reports ErrType for the wrong kind of value and ErrValue for
// bad content. Datatypes hold no state; the package-level values are the
// only instances.
type Datatype interface {
	// Name returns the wire type name, e.g. "VarInt".
	Name() string

	// Serialize encodes v into its canonical byte form.
	Serialize(v any) ([]byte, error)

	// Deserialize decodes data, which must be a []byte holding exactly one
	// encoded value.
	Deserialize(data any) (any, error)
}

// Codec is a Datatype with a statically typed streaming form, used by the
// packet field schema.
type Codec[T any] interface {
	Datatype
	Write(e *Encoder, v T) error
	Read(d *Decoder) (T, error)
}

// Primitive wire types.
var (
	Boolean Codec[bool] = booleanType{}

	Byte            Codec[int8]   = newFixedInt[int8]("Byte", 1, (*Encoder).WriteSignedByte, (*Decoder).ReadSignedByte)
	UnsignedByte    Codec[uint8]  = newFixedInt[uint8]("UnsignedByte", 1, (*Encoder).WriteUnsignedByte, (*Decoder).ReadUnsignedByte)
	Short           Codec[int16]  = newFixedInt[int16]("Short", 2, (*Encoder).WriteShort, (*Decoder).ReadShort)
	UnsignedShort   Codec[uint16] = newFixedInt[uint16]("UnsignedShort", 2, (*Encoder).WriteUnsignedShort, (*Decoder).ReadUnsignedShort)
	Integer         Codec[int32]  = newFixedInt[int32]("Integer", 4, (*Encoder).WriteInteger, (*Decoder).ReadInteger)
	UnsignedInteger Codec[uint32] = newFixedInt[uint32]("UnsignedInteger", 4, (*Encoder).WriteUnsignedInteger, (*Decoder).ReadUnsignedInteger)
	Long            Codec[int64]  = newFixedInt[int64]("Long", 8, (*Encoder).WriteLong, (*Decoder).ReadLong)
	UnsignedLong    Codec[uint64] = newFixedInt[uint64]("UnsignedLong", 8, (*Encoder).WriteUnsignedLong, (*Decoder).ReadUnsignedLong)

	Float  Codec[float32] = newFloat[float32]("Float", (*Encoder).WriteFloat, (*Decoder).ReadFloat)
	Double Codec[float64] = newFloat[float64]("Double", (*Encoder).WriteDouble, (*Decoder).ReadDouble)

	VarInt  Codec[int32] = varIntType{}
	VarLong Codec[int64] = varLongType{}

	String       Codec[string] = stringType{}
	ByteArray    Codec[[]byte] = byteArrayType{}
	RestOfBuffer Codec[[]byte] = restOfBufferType{}
)

// deserializeAll runs read over data and requires it to consume every byte.
func deserializeAll[T any](name string, data any, read func(*Decoder) (T, error)) (any, error) {
	b, ok := data.([]byte)
	if !ok {
		return nil, typeErrorf(name, data)
	}
	d := NewDecoder(b)
	v, err := read(d)
	if err != nil {
		return nil, wrapDatatype(name, err)
	}
	if !d.EOF() {
		return nil, wrapDatatype(name, ErrTrailingBytes)
	}
	return v, nil
}

// serializeWith encodes a value that has already passed the type check.
func serializeWith[T any](name string, v T, write func(*Encoder, T) error) ([]byte, error) {
	e := NewEncoderWithCap(16)
	if err := write(e, v); err != nil {
		return nil, wrapDatatype(name, err)
	}
	return e.Bytes(), nil
}

type booleanType struct{}

func (booleanType) Name() string { return "Boolean" }

func (t booleanType) Serialize(v any) ([]byte, error) {
	b, ok := v.(bool)
	if !ok {
		return nil, typeErrorf(t.Name(), v)
	}
	return serializeWith(t.Name(), b, t.Write)
}

func (t booleanType) Deserialize(data any) (any, error) {
	return deserializeAll(t.Name(), data, t.Read)
}

func (booleanType) Write(e *Encoder, v bool) error {
	e.WriteBoolean(v)
	return nil
}

func (booleanType) Read(d *Decoder) (bool, error) {
	return d.ReadBoolean()
}

type stringType struct{}

func (stringType) Name() string { return "String" }

func (t stringType) Serialize(v any) ([]byte, error) {
	s, ok := v.(string)
	if !ok {
		return nil, typeErrorf(t.Name(), v)
	}
	return serializeWith(t.Name(), s, t.Write)
}

func (t stringType) Deserialize(data any) (any, error) {
	return deserializeAll(t.Name(), data, t.Read)
}

func (stringType) Write(e *Encoder, v string) error {
	if len(v) > MaxStringLen {
		return ErrAllocationTooLarge
	}
	if !utf8.ValidString(v) {
		return ErrInvalidUTF8
	}
	e.WriteString(v)
	return nil
}

func (stringType) Read(d *Decoder) (string, error) {
	return d.ReadString()
}

type byteArrayType struct{}

func (byteArrayType) Name() string { return "ByteArray" }

func (t byteArrayType) Serialize(v any) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, typeErrorf(t.Name(), v)
	}
	return serializeWith(t.Name(), b, t.Write)
}

func (t byteArrayType) Deserialize(data any) (any, error) {
	return deserializeAll(t.Name(), data, t.Read)
}

func (byteArrayType) Write(e *Encoder, v []byte) error {
	if len(v) > DefaultMaxAllocation {
		return ErrAllocationTooLarge
	}
	e.WriteByteArray(v)
	return nil
}

func (byteArrayType) Read(d *Decoder) ([]byte, error) {
	return d.ReadByteArray()
}

// restOfBufferType holds whatever is left of the packet body, unprefixed.
type restOfBufferType struct{}

func (restOfBufferType) Name() string { return "RestOfBuffer" }

func (t restOfBufferType) Serialize(v any) ([]byte, error) {
	b, ok := v.([]byte)
	if !ok {
		return nil, typeErrorf(t.Name(), v)
	}
	return serializeWith(t.Name(), b, t.Write)
}

func (t restOfBufferType) Deserialize(data any) (any, error) {
	return deserializeAll(t.Name(), data, t.Read)
}

func (restOfBufferType) Write(e *Encoder, v []byte) error {
	e.WriteRaw(v)
	return nil
}

func (restOfBufferType) Read(d *Decoder) ([]byte, error) {
	return d.ReadRest(), nil
}

// lengthError reports a buffer of the wrong size for a fixed-width type.
func lengthError(want, got int) error {
	return fmt.Errorf("%w: data must have a length of %d, not %d", ErrValue, want, got)
}
