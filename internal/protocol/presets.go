package protocol

import (
	"fmt"
	"sort"
	"strings"
)

// Operating presets. The controller uses two code spaces: the mode field in
// the thermostat frame reports one set of codes, while SET_PRESET writes
// expect another. Both are covered here so callers only ever deal in names.
var (
	// mode field code -> preset name
	modeNames = map[int64]string{
		0: "schedule",
		1: "eco",
		2: "comfort",
		3: "outdoor",
		4: "airing",
		5: "party",
		6: "holiday",
		7: "frost",
	}

	// preset name -> SET_PRESET write code
	presetWriteCodes = map[string]uint8{
		"schedule": 0x03,
		"eco":      0x02,
		"comfort":  0x01,
		"outdoor":  0x07,
		"airing":   0x04,
		"party":    0x05,
		"holiday":  0x06,
		"frost":    0x00,
	}
)

// ModeName returns the preset name for a reported thermostat mode code, or
// a numeric placeholder for codes outside the known range.
func ModeName(code int64) string {
	if name, ok := modeNames[code]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", code)
}

// PresetWriteCode returns the SET_PRESET payload code for a preset name.
// Names are case-insensitive.
func PresetWriteCode(name string) (uint8, error) {
	code, ok := presetWriteCodes[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown preset %q (valid: %s)", name, strings.Join(PresetNames(), ", "))
	}
	return code, nil
}

// PresetNames returns all preset names in stable order.
func PresetNames() []string {
	names := make([]string, 0, len(presetWriteCodes))
	for name := range presetWriteCodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
