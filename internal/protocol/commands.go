package protocol

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Command names understood by the registry.
const (
	CmdGetDatas         = "GET_DATAS"
	CmdGetThermostat    = "GET_THERMOSTAT"
	CmdSetPreset        = "SET_PRESET"
	CmdSetSetpointDay   = "SET_SETPOINT_DAY"
	CmdSetSetpointNight = "SET_SETPOINT_NIGHT"
)

// Function codes used by the commands above.
const (
	FuncRead     = 0x40 // read request
	FuncWrite    = 0x29 // write request
	FuncWriteAck = 0xa9 // write acknowledgement
	FuncReadAck  = 0xc0 // thermostat read response
)

// setCode is the credential prefix every write payload carries:
// "USER-000\x004095\x00". Pinned to the controller firmware.
var setCode = []byte{
	0x55, 0x53, 0x45, 0x52, 0x2d, 0x30, 0x30, 0x30, 0x00,
	0x34, 0x30, 0x39, 0x35, 0x00,
}

// Write parameter codes.
var (
	paramPreset        = []byte{0x01, 0x1e, 0x01}
	paramSetpointDay   = []byte{0x01, 0x20, 0x01}
	paramSetpointNight = []byte{0x01, 0x21, 0x01}
)

// thermostatQuery is the read payload requesting the thermostat frame.
var thermostatQuery = []byte{0x64, 0x78, 0x00}

// CommandSpec ties a logical command name to its wire shape: the function
// code and addresses for outbound construction, and the acknowledgement
// code, search marker and expected length used to recognize the matching
// inbound frame.
type CommandSpec struct {
	Name         string
	FunctionCode byte
	Source       Address
	Dest         Address

	// AckCode is the function code of the matching response. Zero means
	// any code; the frame is then matched by marker and length alone.
	AckCode byte

	// SearchMarker is a byte sequence that must appear somewhere in the
	// matching frame. It disambiguates frames sharing a function code;
	// nil disables the check. Markers need not be unique across commands
	// but must never miss a frame belonging to their own command.
	SearchMarker []byte

	// ExpectedLength is the total byte count of the matching frame,
	// including delimiters and CRC. Zero accepts any length.
	ExpectedLength int

	// Layout selects the field specs used to decode the matching frame.
	Layout FrameKind
}

// UnknownCommandError reports a lookup for a command name the registry does
// not define.
type UnknownCommandError struct {
	Name string
}

func (e *UnknownCommandError) Error() string {
	return fmt.Sprintf("unknown command %q", e.Name)
}

// The command registry. Like the field layouts, this is immutable after
// initialization and safe for concurrent reads.
var commands = map[string]CommandSpec{
	CmdGetDatas: {
		Name:         CmdGetDatas,
		FunctionCode: FuncRead,
		Source:       AddrPanel,
		Dest:         AddrBroadcast,
		// The bulk broadcast is recognized by the controller serial tag
		// "1005842004\x00" it embeds, not by a dedicated function code.
		SearchMarker: []byte{
			0x31, 0x30, 0x30, 0x35, 0x38, 0x34, 0x32, 0x30, 0x30, 0x34, 0x00,
		},
		ExpectedLength: 820,
		Layout:         FrameBulkData,
	},
	CmdGetThermostat: {
		Name:           CmdGetThermostat,
		FunctionCode:   FuncRead,
		Source:         AddrThermostat,
		Dest:           AddrController,
		AckCode:        FuncReadAck,
		SearchMarker:   []byte{0x55, 0x53, 0x45, 0x52, 0x5f, 0x78, 0x34, 0x33}, // "USER_x43"
		ExpectedLength: 116,
		Layout:         FrameThermostat,
	},
	CmdSetPreset: {
		Name:         CmdSetPreset,
		FunctionCode: FuncWrite,
		Source:       AddrPanel,
		Dest:         AddrController,
		AckCode:      FuncWriteAck,
		Layout:       FrameNone,
	},
	CmdSetSetpointDay: {
		Name:         CmdSetSetpointDay,
		FunctionCode: FuncWrite,
		Source:       AddrPanel,
		Dest:         AddrController,
		AckCode:      FuncWriteAck,
		Layout:       FrameNone,
	},
	CmdSetSetpointNight: {
		Name:         CmdSetSetpointNight,
		FunctionCode: FuncWrite,
		Source:       AddrPanel,
		Dest:         AddrController,
		AckCode:      FuncWriteAck,
		Layout:       FrameNone,
	},
}

// LookupCommand returns the spec for a logical command name.
func LookupCommand(name string) (CommandSpec, error) {
	spec, ok := commands[name]
	if !ok {
		return CommandSpec{}, &UnknownCommandError{Name: name}
	}
	return spec, nil
}

// Commands returns the names of all registered commands.
func Commands() []string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	return names
}

// Matches reports whether frame answers the command: the function code must
// equal the ack code (when set), the total frame length must equal the
// expected length (when set) and the search marker (when set) must appear
// in the raw frame bytes.
func (c CommandSpec) Matches(frame *Frame) bool {
	if c.AckCode != 0 && frame.FunctionCode != c.AckCode {
		return false
	}
	if c.ExpectedLength != 0 && len(frame.Raw) != c.ExpectedLength {
		return false
	}
	if len(c.SearchMarker) > 0 && !bytes.Contains(frame.Raw, c.SearchMarker) {
		return false
	}
	return true
}

// ThermostatQuery returns the read payload for CmdGetThermostat.
func ThermostatQuery() []byte {
	payload := make([]byte, len(thermostatQuery))
	copy(payload, thermostatQuery)
	return payload
}

// PresetPayload builds the write payload selecting an operating preset
// (0-7 on the controller).
func PresetPayload(preset uint8) []byte {
	payload := make([]byte, 0, len(setCode)+len(paramPreset)+1)
	payload = append(payload, setCode...)
	payload = append(payload, paramPreset...)
	payload = append(payload, preset)
	return payload
}

// SetpointKind selects which temperature setpoint a write targets.
type SetpointKind int

const (
	SetpointDay SetpointKind = iota
	SetpointNight
)

func (k SetpointKind) String() string {
	switch k {
	case SetpointDay:
		return "day"
	case SetpointNight:
		return "night"
	default:
		return fmt.Sprintf("SetpointKind(%d)", int(k))
	}
}

// Command returns the registry name of the write command for the kind.
func (k SetpointKind) Command() string {
	if k == SetpointNight {
		return CmdSetSetpointNight
	}
	return CmdSetSetpointDay
}

// SetpointPayload builds the write payload for a temperature setpoint. The
// controller expects the value as a little-endian IEEE-754 float32.
func SetpointPayload(kind SetpointKind, temperature float64) []byte {
	param := paramSetpointDay
	if kind == SetpointNight {
		param = paramSetpointNight
	}
	payload := make([]byte, 0, len(setCode)+len(param)+4)
	payload = append(payload, setCode...)
	payload = append(payload, param...)
	payload = binary.LittleEndian.AppendUint32(payload, math.Float32bits(float32(temperature)))
	return payload
}
