package protocol

import (
	"errors"
	"testing"
)

func TestFieldTypeWidth(t *testing.T) {
	tests := []struct {
		typ  FieldType
		want int
	}{
		{Uint8, 1},
		{Bitflag, 1},
		{Uint16, 2},
		{Int16, 2},
		{Uint32, 4},
		{Float32, 4},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			if got := tt.typ.Width(); got != tt.want {
				t.Errorf("Width() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestLookupField(t *testing.T) {
	spec, err := LookupField("target_temp")
	if err != nil {
		t.Fatalf("LookupField(target_temp) error = %v", err)
	}
	if spec.Type != Float32 || spec.Offset != 23 {
		t.Errorf("target_temp spec = %+v, want Float32 at offset 23", spec)
	}

	_, err = LookupField("no_such_key")
	var ufe *UnknownFieldError
	if !errors.As(err, &ufe) {
		t.Errorf("LookupField(no_such_key) error = %v, want UnknownFieldError", err)
	}
	if ufe != nil && ufe.Key != "no_such_key" {
		t.Errorf("UnknownFieldError.Key = %q, want no_such_key", ufe.Key)
	}
}

func TestFieldsFor(t *testing.T) {
	if got := FieldsFor(FrameNone); len(got) != 0 {
		t.Errorf("FieldsFor(FrameNone) = %v, want empty", got)
	}

	thermostat := FieldsFor(FrameThermostat)
	if len(thermostat) == 0 {
		t.Fatal("FieldsFor(FrameThermostat) is empty")
	}
	bulk := FieldsFor(FrameBulkData)
	if len(bulk) == 0 {
		t.Fatal("FieldsFor(FrameBulkData) is empty")
	}

	// Specs must come back in ascending offset order so decoders and
	// display layers can rely on a stable iteration.
	for _, specs := range map[string][]FieldSpec{"thermostat": thermostat, "bulk": bulk} {
		for i := 1; i < len(specs); i++ {
			if specs[i].Offset <= specs[i-1].Offset {
				t.Errorf("specs out of order: %q@%d after %q@%d",
					specs[i].Key, specs[i].Offset, specs[i-1].Key, specs[i-1].Offset)
			}
		}
	}
}

// Every field layout must fit inside the payload of the frames that carry
// it. A violation here means a registry bug that would otherwise only
// surface as an OutOfRange decode failure against the live device.
func TestFieldOffsetsWithinCommandFrames(t *testing.T) {
	for _, name := range Commands() {
		cmd, err := LookupCommand(name)
		if err != nil {
			t.Fatalf("LookupCommand(%s) error = %v", name, err)
		}
		if cmd.ExpectedLength == 0 {
			continue
		}

		payloadLen := cmd.ExpectedLength - MinFrameSize
		if payloadLen < 0 {
			t.Errorf("%s: expected length %d below minimum frame size", name, cmd.ExpectedLength)
			continue
		}
		for _, spec := range FieldsFor(cmd.Layout) {
			if spec.Offset+spec.Type.Width() > payloadLen {
				t.Errorf("%s: field %q (offset %d, width %d) exceeds payload of %d bytes",
					name, spec.Key, spec.Offset, spec.Type.Width(), payloadLen)
			}
		}
	}
}

func TestFieldKeysUnique(t *testing.T) {
	seen := make(map[string]FrameKind)
	for _, kind := range []FrameKind{FrameThermostat, FrameBulkData} {
		for _, spec := range FieldsFor(kind) {
			if prev, ok := seen[spec.Key]; ok {
				t.Errorf("key %q defined for both %s and %s", spec.Key, prev, kind)
			}
			seen[spec.Key] = kind
		}
	}
}
