package protocol

import "testing"

func TestModeName(t *testing.T) {
	tests := []struct {
		code int64
		want string
	}{
		{0, "schedule"},
		{1, "eco"},
		{2, "comfort"},
		{7, "frost"},
		{42, "mode(42)"},
	}
	for _, tt := range tests {
		if got := ModeName(tt.code); got != tt.want {
			t.Errorf("ModeName(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestPresetWriteCode(t *testing.T) {
	// The write code space differs from the reported mode codes.
	tests := []struct {
		name string
		want uint8
	}{
		{"schedule", 0x03},
		{"comfort", 0x01},
		{"eco", 0x02},
		{"frost", 0x00},
		{"COMFORT", 0x01}, // case-insensitive
	}
	for _, tt := range tests {
		got, err := PresetWriteCode(tt.name)
		if err != nil {
			t.Errorf("PresetWriteCode(%q) error = %v", tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PresetWriteCode(%q) = 0x%02x, want 0x%02x", tt.name, got, tt.want)
		}
	}

	if _, err := PresetWriteCode("bogus"); err == nil {
		t.Error("PresetWriteCode(bogus) should fail")
	}
}

func TestPresetNames_CoversAllModes(t *testing.T) {
	names := PresetNames()
	if len(names) != len(modeNames) {
		t.Errorf("PresetNames() has %d entries, mode table has %d", len(names), len(modeNames))
	}
	for _, name := range names {
		if _, err := PresetWriteCode(name); err != nil {
			t.Errorf("PresetWriteCode(%q) failed for listed name: %v", name, err)
		}
	}
}
