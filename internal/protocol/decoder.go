package protocol

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Value is one decoded payload field. The zero Value is invalid.
type Value struct {
	Type FieldType

	f float64
	i int64
	b bool
}

// Float64 returns the value as a float64. Integer and bitflag values are
// converted; ok is false only for the zero Value.
func (v Value) Float64() (float64, bool) {
	switch v.Type {
	case Float32:
		return v.f, true
	case Uint8, Uint16, Int16, Uint32:
		return float64(v.i), true
	case Bitflag:
		if v.b {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Int returns the value as an int64 for integer and bitflag types.
func (v Value) Int() (int64, bool) {
	switch v.Type {
	case Uint8, Uint16, Int16, Uint32:
		return v.i, true
	case Bitflag:
		if v.b {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// Bool returns the value as a bool for bitflag types.
func (v Value) Bool() (bool, bool) {
	if v.Type == Bitflag {
		return v.b, true
	}
	return false, false
}

// String formats the value for display.
func (v Value) String() string {
	switch v.Type {
	case Float32:
		return strconv.FormatFloat(v.f, 'f', -1, 32)
	case Uint8, Uint16, Int16, Uint32:
		return strconv.FormatInt(v.i, 10)
	case Bitflag:
		return strconv.FormatBool(v.b)
	default:
		return "<invalid>"
	}
}

// MarshalJSON emits the typed scalar (number or bool) rather than the
// struct internals.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Type {
	case Float32:
		return json.Marshal(v.f)
	case Uint8, Uint16, Int16, Uint32:
		return json.Marshal(v.i)
	case Bitflag:
		return json.Marshal(v.b)
	default:
		return nil, fmt.Errorf("cannot marshal value of type %s", v.Type)
	}
}

// Values maps payload keys to decoded values. A Values is produced fresh
// per decode and owned by the caller.
type Values map[string]Value

// OutOfRangeError reports a field spec whose offset and width exceed the
// payload. This indicates a registry/device mismatch and is always
// surfaced, never skipped.
type OutOfRangeError struct {
	Key        string
	Offset     int
	Width      int
	PayloadLen int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("field %q out of range: offset %d width %d exceeds payload of %d bytes",
		e.Key, e.Offset, e.Width, e.PayloadLen)
}

// Decode extracts every field in specs from payload. On any out-of-range
// spec the whole decode fails; a partial mapping is never returned.
func Decode(payload []byte, specs []FieldSpec) (Values, error) {
	values := make(Values, len(specs))
	for _, spec := range specs {
		width := spec.Type.Width()
		if spec.Offset < 0 || spec.Offset+width > len(payload) {
			return nil, &OutOfRangeError{
				Key:        spec.Key,
				Offset:     spec.Offset,
				Width:      width,
				PayloadLen: len(payload),
			}
		}

		raw := payload[spec.Offset : spec.Offset+width]
		value := Value{Type: spec.Type}
		switch spec.Type {
		case Uint8:
			value.i = int64(raw[0])
		case Uint16:
			value.i = int64(binary.LittleEndian.Uint16(raw))
		case Int16:
			value.i = int64(int16(binary.LittleEndian.Uint16(raw)))
		case Uint32:
			value.i = int64(binary.LittleEndian.Uint32(raw))
		case Float32:
			value.f = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw)))
		case Bitflag:
			value.b = raw[0] != 0
		}
		values[spec.Key] = value
	}
	return values, nil
}
