package protocol

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func putFloat32(payload []byte, offset int, v float32) {
	binary.LittleEndian.PutUint32(payload[offset:], math.Float32bits(v))
}

func TestDecode_Thermostat(t *testing.T) {
	payload := make([]byte, 105)
	payload[6] = 1   // auto
	payload[19] = 1  // heating
	payload[21] = 2  // mode
	putFloat32(payload, 23, 65.5)
	putFloat32(payload, 28, 23.0)
	putFloat32(payload, 33, 21.0)
	putFloat32(payload, 38, 19.0)

	values, err := Decode(payload, FieldsFor(FrameThermostat))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if len(values) != len(FieldsFor(FrameThermostat)) {
		t.Errorf("decoded %d values, want %d", len(values), len(FieldsFor(FrameThermostat)))
	}

	wantInts := map[string]int64{"auto": 1, "mode": 2}
	for key, want := range wantInts {
		got, ok := values[key].Int()
		if !ok || got != want {
			t.Errorf("%s = %d (ok=%v), want %d", key, got, ok, want)
		}
	}

	heating, ok := values["heating"].Bool()
	if !ok || !heating {
		t.Errorf("heating = %v (ok=%v), want true", heating, ok)
	}

	wantFloats := map[string]float64{
		"target_temp":  65.5,
		"current_temp": 23.0,
		"day_temp":     21.0,
		"night_temp":   19.0,
	}
	for key, want := range wantFloats {
		got, ok := values[key].Float64()
		if !ok || math.Abs(got-want) > 1e-6 {
			t.Errorf("%s = %v (ok=%v), want %v", key, got, ok, want)
		}
	}
}

func TestDecode_BulkData(t *testing.T) {
	payload := make([]byte, 809)
	putFloat32(payload, 156, 60.0)
	putFloat32(payload, 161, 55.0)
	putFloat32(payload, 171, 50.0)
	putFloat32(payload, 181, 30.0)
	putFloat32(payload, 186, -15.0)

	values, err := Decode(payload, FieldsFor(FrameBulkData))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	want := map[string]float64{
		"heat_source_temp":   60.0,
		"radiator_flow_temp": 55.0,
		"dhw_temp":           50.0,
		"buffer_tank_temp":   30.0,
		"outside_temp":       -15.0,
	}
	for key, wantV := range want {
		got, ok := values[key].Float64()
		if !ok || math.Abs(got-wantV) > 1e-6 {
			t.Errorf("%s = %v (ok=%v), want %v", key, got, ok, wantV)
		}
	}
}

func TestDecode_Deterministic(t *testing.T) {
	payload := make([]byte, 105)
	for i := range payload {
		payload[i] = byte(i * 7)
	}
	specs := FieldsFor(FrameThermostat)

	first, err := Decode(payload, specs)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	second, err := Decode(payload, specs)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	for key, v := range first {
		if second[key] != v {
			t.Errorf("%s decoded differently on second run: %v vs %v", key, v, second[key])
		}
	}
}

func TestDecode_OutOfRange(t *testing.T) {
	// 40 bytes is enough for the early thermostat fields but not the
	// night_temp float at offset 38.
	payload := make([]byte, 40)

	values, err := Decode(payload, FieldsFor(FrameThermostat))
	if values != nil {
		t.Errorf("Decode() returned a partial mapping alongside an error: %v", values)
	}

	var oor *OutOfRangeError
	if !errors.As(err, &oor) {
		t.Fatalf("Decode() error = %v, want OutOfRangeError", err)
	}
	if oor.Key != "night_temp" {
		t.Errorf("OutOfRangeError.Key = %q, want night_temp", oor.Key)
	}
	if oor.Offset+oor.Width <= oor.PayloadLen {
		t.Errorf("reported range %d+%d does not exceed payload %d", oor.Offset, oor.Width, oor.PayloadLen)
	}
}

func TestDecode_EmptySpecs(t *testing.T) {
	values, err := Decode(nil, nil)
	if err != nil {
		t.Fatalf("Decode(nil, nil) error = %v", err)
	}
	if len(values) != 0 {
		t.Errorf("Decode(nil, nil) = %v, want empty map", values)
	}
}

func TestDecode_IntegerTypes(t *testing.T) {
	payload := []byte{0xff, 0x34, 0x12, 0xfe, 0xff, 0x78, 0x56, 0x34, 0x12, 0x00}
	specs := []FieldSpec{
		{Key: "u8", Offset: 0, Type: Uint8},
		{Key: "u16", Offset: 1, Type: Uint16},
		{Key: "i16", Offset: 3, Type: Int16},
		{Key: "u32", Offset: 5, Type: Uint32},
		{Key: "flag", Offset: 9, Type: Bitflag},
	}

	values, err := Decode(payload, specs)
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	wantInts := map[string]int64{
		"u8":  0xff,
		"u16": 0x1234,
		"i16": -2,
		"u32": 0x12345678,
	}
	for key, want := range wantInts {
		got, ok := values[key].Int()
		if !ok || got != want {
			t.Errorf("%s = %d (ok=%v), want %d", key, got, ok, want)
		}
	}

	flag, ok := values["flag"].Bool()
	if !ok || flag {
		t.Errorf("flag = %v (ok=%v), want false", flag, ok)
	}
}

func TestValueAccessors(t *testing.T) {
	var zero Value
	if _, ok := zero.Float64(); ok {
		t.Error("zero Value reported a float")
	}
	if _, ok := zero.Int(); ok {
		t.Error("zero Value reported an int")
	}
	if _, ok := zero.Bool(); ok {
		t.Error("zero Value reported a bool")
	}

	payload := []byte{0x05}
	values, err := Decode(payload, []FieldSpec{{Key: "x", Offset: 0, Type: Uint8}})
	if err != nil {
		t.Fatal(err)
	}
	if f, ok := values["x"].Float64(); !ok || f != 5 {
		t.Errorf("integer Float64() = %v, %v; want 5, true", f, ok)
	}
	if _, ok := values["x"].Bool(); ok {
		t.Error("integer value reported a bool")
	}
	if s := values["x"].String(); s != "5" {
		t.Errorf("String() = %q, want 5", s)
	}
}

func TestValueMarshalJSON(t *testing.T) {
	payload := make([]byte, 5)
	putFloat32(payload, 0, 21.5)
	payload[4] = 1

	values, err := Decode(payload, []FieldSpec{
		{Key: "temp", Offset: 0, Type: Float32},
		{Key: "on", Offset: 4, Type: Bitflag},
	})
	if err != nil {
		t.Fatal(err)
	}

	tempJSON, err := values["temp"].MarshalJSON()
	if err != nil || string(tempJSON) != "21.5" {
		t.Errorf("temp JSON = %s (err=%v), want 21.5", tempJSON, err)
	}
	onJSON, err := values["on"].MarshalJSON()
	if err != nil || string(onJSON) != "true" {
		t.Errorf("on JSON = %s (err=%v), want true", onJSON, err)
	}
	if _, err := (Value{}).MarshalJSON(); err == nil {
		t.Error("zero Value marshaled without error")
	}
}
