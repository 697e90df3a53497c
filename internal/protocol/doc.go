// Package protocol implements the ecoMAX 360 binary wire protocol.
//
// Plum ecoMAX controllers speak a proprietary frame-based protocol over a
// TCP serial bridge. This package covers the pure, I/O-free parts of that
// protocol: the frame codec, the static field and command registries, and
// the payload value decoder. Connection handling lives in internal/client.
//
// # Frame Format
//
// Every frame is self-delimiting and self-validating:
//   - Start delimiter: 0x68
//   - Length: 2 bytes little-endian, counting SA + DA + F + payload
//   - Source address (SA): 2 bytes
//   - Destination address (DA): 2 bytes
//   - Function code (F): 1 byte
//   - Payload: variable length
//   - CRC: CRC-CCITT (XModem), 2 bytes big-endian, over length..payload
//   - End delimiter: 0x16
//
// # Registries
//
// Field layouts (byte offset and primitive type per key) and command specs
// (function code, addresses, acknowledgement code, search marker, expected
// frame length) are process-wide immutable tables initialized at startup.
// They are the single source of truth correlating a logical command name to
// its wire shape and are safe for unsynchronized concurrent reads.
//
// # Usage Example
//
//	cmd, err := protocol.LookupCommand(protocol.CmdGetThermostat)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	frame := protocol.BuildFrame(cmd.Source, cmd.Dest, cmd.FunctionCode, protocol.ThermostatQuery())
//	// ... write frame, read response bytes ...
//	resp, err := protocol.ParseFrame(buf)
//	if err == nil && cmd.Matches(resp) {
//	    values, err := protocol.Decode(resp.Payload, protocol.FieldsFor(cmd.Layout))
//	    // ...
//	}
//
// # Error Handling
//
// Malformed-frame errors (ErrTruncated, DelimiterError, LengthMismatchError,
// ChecksumMismatchError) are recoverable: callers discard the bytes and keep
// listening. OutOfRangeError from Decode indicates a registry/device
// mismatch and is always surfaced.
package protocol
