package protocol

import "fmt"

// FieldType identifies the primitive encoding of a payload field.
type FieldType int

const (
	// The zero FieldType is deliberately invalid so a zero Value cannot
	// masquerade as a decoded uint8.
	Uint8 FieldType = iota + 1
	Uint16
	Int16
	Uint32
	Float32
	Bitflag
)

// Width returns the number of payload bytes the type occupies.
func (t FieldType) Width() int {
	switch t {
	case Uint8, Bitflag:
		return 1
	case Uint16, Int16:
		return 2
	case Uint32, Float32:
		return 4
	default:
		return 0
	}
}

func (t FieldType) String() string {
	switch t {
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Int16:
		return "int16"
	case Uint32:
		return "uint32"
	case Float32:
		return "float32"
	case Bitflag:
		return "bitflag"
	default:
		return fmt.Sprintf("FieldType(%d)", int(t))
	}
}

// FieldSpec describes one payload field: where it lives and how to read it.
// Offsets are relative to the frame payload. Multi-byte integers and floats
// are little-endian; Float32 is IEEE-754.
type FieldSpec struct {
	Key    string
	Offset int
	Type   FieldType
}

// FrameKind identifies a payload layout carrying multiple fields.
type FrameKind int

const (
	// FrameNone is used by write acknowledgements, which carry no fields.
	FrameNone FrameKind = iota

	// FrameBulkData is the periodic 820-byte broadcast with the plant
	// temperatures.
	FrameBulkData

	// FrameThermostat is the 116-byte thermostat state frame.
	FrameThermostat
)

func (k FrameKind) String() string {
	switch k {
	case FrameNone:
		return "none"
	case FrameBulkData:
		return "bulk_data"
	case FrameThermostat:
		return "thermostat"
	default:
		return fmt.Sprintf("FrameKind(%d)", int(k))
	}
}

// UnknownFieldError reports a lookup for a key the registry does not define.
type UnknownFieldError struct {
	Key string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %q", e.Key)
}

// Field layouts, reverse-engineered from the controller's frames. These are
// process-wide immutable registries: defined once, read-only afterwards,
// safe for unsynchronized concurrent reads.
var (
	thermostatFields = []FieldSpec{
		{Key: "auto", Offset: 6, Type: Uint8},
		{Key: "heating", Offset: 19, Type: Bitflag},
		{Key: "mode", Offset: 21, Type: Uint8},
		{Key: "target_temp", Offset: 23, Type: Float32},
		{Key: "current_temp", Offset: 28, Type: Float32},
		{Key: "day_temp", Offset: 33, Type: Float32},
		{Key: "night_temp", Offset: 38, Type: Float32},
	}

	bulkDataFields = []FieldSpec{
		{Key: "heat_source_temp", Offset: 156, Type: Float32},
		{Key: "radiator_flow_temp", Offset: 161, Type: Float32},
		{Key: "dhw_temp", Offset: 171, Type: Float32},
		{Key: "buffer_tank_temp", Offset: 181, Type: Float32},
		{Key: "outside_temp", Offset: 186, Type: Float32},
	}

	fieldsByKey = func() map[string]FieldSpec {
		m := make(map[string]FieldSpec)
		for _, specs := range [][]FieldSpec{thermostatFields, bulkDataFields} {
			for _, spec := range specs {
				m[spec.Key] = spec
			}
		}
		return m
	}()
)

// LookupField returns the spec for a single payload key.
func LookupField(key string) (FieldSpec, error) {
	spec, ok := fieldsByKey[key]
	if !ok {
		return FieldSpec{}, &UnknownFieldError{Key: key}
	}
	return spec, nil
}

// FieldsFor returns the ordered field specs for a frame kind. The returned
// slice is shared and must not be mutated. FrameNone yields an empty slice.
func FieldsFor(kind FrameKind) []FieldSpec {
	switch kind {
	case FrameBulkData:
		return bulkDataFields
	case FrameThermostat:
		return thermostatFields
	default:
		return nil
	}
}
