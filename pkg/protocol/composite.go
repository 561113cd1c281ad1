package protocol

import "fmt"

// Position is a block coordinate packed into one 64-bit value:
// x in the top 26 bits, y in the next 12, z in the low 26.
type Position struct {
	X, Y, Z int32
}

func (p Position) String() string {
	return fmt.Sprintf("(%d, %d, %d)", p.X, p.Y, p.Z)
}

// Pack returns the wire form of p.
func (p Position) Pack() (uint64, error) {
	if p.X < -1<<25 || p.X >= 1<<25 || p.Z < -1<<25 || p.Z >= 1<<25 || p.Y < -1<<11 || p.Y >= 1<<11 {
		return 0, fmt.Errorf("%w: position %s outside packable range", ErrOutOfRange, p)
	}
	return (uint64(p.X)&0x3FFFFFF)<<38 | (uint64(p.Y)&0xFFF)<<26 | uint64(p.Z)&0x3FFFFFF, nil
}

// UnpackPosition is the inverse of Position.Pack.
func UnpackPosition(v uint64) Position {
	x := int64(v) >> 38
	y := int64(v<<26) >> 52
	z := int64(v<<38) >> 38
	return Position{X: int32(x), Y: int32(y), Z: int32(z)}
}

// PositionType is the packed block position datatype.
var PositionType Codec[Position] = positionType{}

type positionType struct{}

func (positionType) Name() string { return "Position" }

func (t positionType) Serialize(v any) ([]byte, error) {
	p, ok := v.(Position)
	if !ok {
		return nil, typeErrorf(t.Name(), v)
	}
	return serializeWith(t.Name(), p, t.Write)
}

func (t positionType) Deserialize(data any) (any, error) {
	return deserializeAll(t.Name(), data, t.Read)
}

func (positionType) Write(e *Encoder, v Position) error {
	packed, err := v.Pack()
	if err != nil {
		return err
	}
	e.WriteUnsignedLong(packed)
	return nil
}

func (positionType) Read(d *Decoder) (Position, error) {
	v, err := d.ReadUnsignedLong()
	if err != nil {
		return Position{}, err
	}
	return UnpackPosition(v), nil
}

// Array returns a composite datatype of a VarInt element count followed by
// that many elements.
func Array[T any](elem Codec[T]) Codec[[]T] {
	return &arrayType[T]{elem: elem}
}

type arrayType[T any] struct {
	elem Codec[T]
}

func (t *arrayType[T]) Name() string { return "Array(" + t.elem.Name() + ")" }

func (t *arrayType[T]) Serialize(v any) ([]byte, error) {
	s, ok := v.([]T)
	if !ok {
		return nil, typeErrorf(t.Name(), v)
	}
	return serializeWith(t.Name(), s, t.Write)
}

func (t *arrayType[T]) Deserialize(data any) (any, error) {
	return deserializeAll(t.Name(), data, t.Read)
}

func (t *arrayType[T]) Write(e *Encoder, v []T) error {
	if len(v) > MaxCollectionCount {
		return ErrCollectionTooLarge
	}
	e.WriteVarInt(int32(len(v)))
	for _, item := range v {
		if err := t.elem.Write(e, item); err != nil {
			return wrapDatatype(t.elem.Name(), err)
		}
	}
	return nil
}

func (t *arrayType[T]) Read(d *Decoder) ([]T, error) {
	n, err := d.ReadCollectionCount()
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		item, err := t.elem.Read(d)
		if err != nil {
			return nil, wrapDatatype(t.elem.Name(), err)
		}
		out = append(out, item)
	}
	return out, nil
}

// Optional returns a composite datatype of a Boolean presence flag followed
// by the element when present. A nil pointer encodes as absent.
func Optional[T any](elem Codec[T]) Codec[*T] {
	return &optionalType[T]{elem: elem}
}

type optionalType[T any] struct {
	elem Codec[T]
}

func (t *optionalType[T]) Name() string { return "Optional(" + t.elem.Name() + ")" }

func (t *optionalType[T]) Serialize(v any) ([]byte, error) {
	p, ok := v.(*T)
	if !ok {
		return nil, typeErrorf(t.Name(), v)
	}
	return serializeWith(t.Name(), p, t.Write)
}

func (t *optionalType[T]) Deserialize(data any) (any, error) {
	return deserializeAll(t.Name(), data, t.Read)
}

func (t *optionalType[T]) Write(e *Encoder, v *T) error {
	e.WriteBoolean(v != nil)
	if v == nil {
		return nil
	}
	return wrapDatatype(t.elem.Name(), t.elem.Write(e, *v))
}

func (t *optionalType[T]) Read(d *Decoder) (*T, error) {
	present, err := d.ReadBoolean()
	if err != nil || !present {
		return nil, err
	}
	v, err := t.elem.Read(d)
	if err != nil {
		return nil, wrapDatatype(t.elem.Name(), err)
	}
	return &v, nil
}
