package protocol

import (
	"fmt"
	"math"
)

type integer interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// integerOf extracts an integer from any Go integer kind. Booleans, floats
// and everything else are rejected.
func integerOf(v any) (n int64, u uint64, signed, ok bool) {
	switch x := v.(type) {
	case int:
		return int64(x), 0, true, true
	case int8:
		return int64(x), 0, true, true
	case int16:
		return int64(x), 0, true, true
	case int32:
		return int64(x), 0, true, true
	case int64:
		return x, 0, true, true
	case uint:
		return 0, uint64(x), false, true
	case uint8:
		return 0, uint64(x), false, true
	case uint16:
		return 0, uint64(x), false, true
	case uint32:
		return 0, uint64(x), false, true
	case uint64:
		return 0, x, false, true
	case uintptr:
		return 0, uint64(x), false, true
	}
	return 0, 0, false, false
}

// intRange is the closed interval an integer wire type accepts.
type intRange struct {
	min int64
	max uint64
}

func (r intRange) contains(n int64, u uint64, signed bool) bool {
	if signed {
		if n < r.min {
			return false
		}
		return n < 0 || uint64(n) <= r.max
	}
	return u <= r.max
}

func (r intRange) err() error {
	return fmt.Errorf("%w: data must be an integer with value between %d and %d", ErrOutOfRange, r.min, r.max)
}

// fixedInt is a big-endian two's complement integer of a fixed width.
type fixedInt[T integer] struct {
	name  string
	size  int
	rng   intRange
	write func(*Encoder, T)
	read  func(*Decoder) (T, error)
}

func newFixedInt[T integer](name string, size int, write func(*Encoder, T), read func(*Decoder) (T, error)) *fixedInt[T] {
	var zero T
	bits := uint(size * 8)
	rng := intRange{max: math.MaxUint64 >> (64 - bits)}
	if zero-1 < zero {
		rng.min = -1 << (bits - 1)
		rng.max = 1<<(bits-1) - 1
	}
	return &fixedInt[T]{name: name, size: size, rng: rng, write: write, read: read}
}

func (t *fixedInt[T]) Name() string { return t.name }

// Size returns the encoded width in bytes.
func (t *fixedInt[T]) Size() int { return t.size }

func (t *fixedInt[T]) Serialize(v any) ([]byte, error) {
	n, u, signed, ok := integerOf(v)
	if !ok {
		return nil, typeErrorf(t.name, v)
	}
	if !t.rng.contains(n, u, signed) {
		return nil, wrapDatatype(t.name, t.rng.err())
	}
	x := T(u)
	if signed {
		x = T(n)
	}
	return serializeWith(t.name, x, t.Write)
}

func (t *fixedInt[T]) Deserialize(data any) (any, error) {
	if b, ok := data.([]byte); ok && len(b) != t.size {
		return nil, wrapDatatype(t.name, lengthError(t.size, len(b)))
	}
	return deserializeAll(t.name, data, t.Read)
}

func (t *fixedInt[T]) Write(e *Encoder, v T) error {
	t.write(e, v)
	return nil
}

func (t *fixedInt[T]) Read(d *Decoder) (T, error) {
	return t.read(d)
}

// float is an IEEE-754 big-endian float. Integers are accepted for
// serialization and widened.
type float[T ~float32 | ~float64] struct {
	name  string
	size  int
	write func(*Encoder, T)
	read  func(*Decoder) (T, error)
}

func newFloat[T ~float32 | ~float64](name string, write func(*Encoder, T), read func(*Decoder) (T, error)) *float[T] {
	var zero T
	size := 8
	if _, ok := any(zero).(float32); ok {
		size = 4
	}
	return &float[T]{name: name, size: size, write: write, read: read}
}

func (t *float[T]) Name() string { return t.name }

// Size returns the encoded width in bytes.
func (t *float[T]) Size() int { return t.size }

func (t *float[T]) Serialize(v any) ([]byte, error) {
	var f float64
	switch x := v.(type) {
	case float32:
		f = float64(x)
	case float64:
		f = x
	default:
		n, u, signed, ok := integerOf(v)
		if !ok {
			return nil, typeErrorf(t.name, v)
		}
		f = float64(u)
		if signed {
			f = float64(n)
		}
	}
	if t.size == 4 && !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
		return nil, wrapDatatype(t.name, fmt.Errorf("%w: %g overflows a 32-bit float", ErrOutOfRange, f))
	}
	return serializeWith(t.name, T(f), t.Write)
}

func (t *float[T]) Deserialize(data any) (any, error) {
	if b, ok := data.([]byte); ok && len(b) != t.size {
		return nil, wrapDatatype(t.name, lengthError(t.size, len(b)))
	}
	return deserializeAll(t.name, data, t.Read)
}

func (t *float[T]) Write(e *Encoder, v T) error {
	t.write(e, v)
	return nil
}

func (t *float[T]) Read(d *Decoder) (T, error) {
	return t.read(d)
}

var (
	varIntRange  = intRange{min: math.MinInt32, max: math.MaxInt32}
	varLongRange = intRange{min: math.MinInt64, max: math.MaxInt64}
)

type varIntType struct{}

func (varIntType) Name() string { return "VarInt" }

func (t varIntType) Serialize(v any) ([]byte, error) {
	n, u, signed, ok := integerOf(v)
	if !ok {
		return nil, typeErrorf(t.Name(), v)
	}
	if !varIntRange.contains(n, u, signed) {
		return nil, wrapDatatype(t.Name(), varIntRange.err())
	}
	x := int32(u)
	if signed {
		x = int32(n)
	}
	return AppendVarInt(nil, x), nil
}

func (t varIntType) Deserialize(data any) (any, error) {
	return deserializeAll(t.Name(), data, t.Read)
}

func (varIntType) Write(e *Encoder, v int32) error {
	e.WriteVarInt(v)
	return nil
}

func (varIntType) Read(d *Decoder) (int32, error) {
	return d.ReadVarInt()
}

type varLongType struct{}

func (varLongType) Name() string { return "VarLong" }

func (t varLongType) Serialize(v any) ([]byte, error) {
	n, u, signed, ok := integerOf(v)
	if !ok {
		return nil, typeErrorf(t.Name(), v)
	}
	if !varLongRange.contains(n, u, signed) {
		return nil, wrapDatatype(t.Name(), varLongRange.err())
	}
	x := int64(u)
	if signed {
		x = n
	}
	return AppendVarLong(nil, x), nil
}

func (t varLongType) Deserialize(data any) (any, error) {
	return deserializeAll(t.Name(), data, t.Read)
}

func (varLongType) Write(e *Encoder, v int64) error {
	e.WriteVarLong(v)
	return nil
}

func (varLongType) Read(d *Decoder) (int64, error) {
	return d.ReadVarLong()
}
