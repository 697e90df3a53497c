package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Frame delimiters and sizes for the ecoMAX wire protocol.
const (
	FrameStart = 0x68
	FrameEnd   = 0x16

	// HeaderSize covers start byte, length field, source address,
	// destination address and function code.
	HeaderSize = 8

	// TrailerSize covers the 2-byte CRC and the end delimiter.
	TrailerSize = 3

	// MinFrameSize is the size of a frame with an empty payload.
	MinFrameSize = HeaderSize + TrailerSize

	// MaxPayloadSize is an arbitrary safety limit; the largest frame the
	// controller is known to emit is the 820-byte periodic broadcast.
	MaxPayloadSize = 2048
)

// Address is a 2-byte device address as it appears on the wire.
type Address [2]byte

// Known controller addresses.
var (
	AddrController = Address{0x64, 0x00} // ecoMAX regulator
	AddrPanel      = Address{0x01, 0x00} // room panel / local client
	AddrThermostat = Address{0x20, 0x00} // thermostat module
	AddrBroadcast  = Address{0xff, 0xff}
)

func (a Address) String() string {
	return fmt.Sprintf("%02x%02x", a[0], a[1])
}

// Frame represents one parsed protocol frame.
//
// Wire layout:
//
//	[0]     0x68          start delimiter
//	[1-2]   length        uint16 little-endian, counts SA+DA+F+payload
//	[3-4]   SA0 SA1       source address
//	[5-6]   DA0 DA1       destination address
//	[7]     F             function code
//	[8+]    payload       variable length
//	[N-3..N-2] CRC        CRC-CCITT (XModem), big-endian, over bytes 1..N-4
//	[N-1]   0x16          end delimiter
type Frame struct {
	Source       Address
	Dest         Address
	FunctionCode byte
	Payload      []byte
	Raw          []byte // original frame bytes, including delimiters and CRC
}

// ErrTruncated reports a buffer too short to hold even an empty frame.
// No length or checksum validation is attempted on such buffers.
var ErrTruncated = errors.New("frame truncated")

// DelimiterError reports a buffer whose start or end byte is not the
// expected frame delimiter.
type DelimiterError struct {
	Offset int
	Got    byte
	Want   byte
}

func (e *DelimiterError) Error() string {
	return fmt.Sprintf("bad delimiter at offset %d: 0x%02x (expected 0x%02x)", e.Offset, e.Got, e.Want)
}

// LengthMismatchError reports a frame whose encoded length field does not
// match the byte count of the buffer.
type LengthMismatchError struct {
	Declared int // total frame size implied by the length field
	Actual   int // actual buffer size
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("length mismatch: length field implies %d bytes, got %d", e.Declared, e.Actual)
}

// ChecksumMismatchError reports a frame whose trailing CRC does not match
// the CRC recomputed over the frame contents.
type ChecksumMismatchError struct {
	Want uint16 // CRC carried in the frame
	Got  uint16 // CRC recomputed over the frame
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: frame carries 0x%04x, computed 0x%04x", e.Want, e.Got)
}

// BuildFrame assembles a complete frame for the given addresses, function
// code and payload. The length field and CRC are computed here; the result
// is ready to write to the socket. Pure function, no I/O.
func BuildFrame(source, dest Address, functionCode byte, payload []byte) []byte {
	frame := make([]byte, MinFrameSize+len(payload))

	frame[0] = FrameStart
	// Length counts SA, DA, F and the payload; the delimiters, the length
	// field itself and the CRC are excluded.
	binary.LittleEndian.PutUint16(frame[1:3], uint16(5+len(payload)))
	frame[3] = source[0]
	frame[4] = source[1]
	frame[5] = dest[0]
	frame[6] = dest[1]
	frame[7] = functionCode
	copy(frame[8:], payload)

	crc := Checksum(frame[1 : 8+len(payload)])
	binary.BigEndian.PutUint16(frame[8+len(payload):], crc)
	frame[len(frame)-1] = FrameEnd

	return frame
}

// ParseFrame validates buf as a single complete frame and extracts its
// fields. The returned Frame holds copies of the payload and raw bytes, so
// buf may be reused by the caller.
//
// Failures are recoverable: the caller is expected to discard the buffer
// and keep listening.
func ParseFrame(buf []byte) (*Frame, error) {
	if len(buf) < MinFrameSize {
		return nil, ErrTruncated
	}
	if buf[0] != FrameStart {
		return nil, &DelimiterError{Offset: 0, Got: buf[0], Want: FrameStart}
	}
	if buf[len(buf)-1] != FrameEnd {
		return nil, &DelimiterError{Offset: len(buf) - 1, Got: buf[len(buf)-1], Want: FrameEnd}
	}

	declared := int(binary.LittleEndian.Uint16(buf[1:3]))
	// Total frame size = start(1) + length(2) + declared + CRC(2) + end(1).
	if declared+6 != len(buf) {
		return nil, &LengthMismatchError{Declared: declared + 6, Actual: len(buf)}
	}

	want := binary.BigEndian.Uint16(buf[len(buf)-3 : len(buf)-1])
	got := Checksum(buf[1 : len(buf)-3])
	if want != got {
		return nil, &ChecksumMismatchError{Want: want, Got: got}
	}

	payload := make([]byte, len(buf)-MinFrameSize)
	copy(payload, buf[8:len(buf)-3])
	raw := make([]byte, len(buf))
	copy(raw, buf)

	return &Frame{
		Source:       Address{buf[3], buf[4]},
		Dest:         Address{buf[5], buf[6]},
		FunctionCode: buf[7],
		Payload:      payload,
		Raw:          raw,
	}, nil
}

// Checksum computes the CRC-CCITT (XModem) checksum the controller uses:
// polynomial 0x1021, initial value 0. The algorithm is pinned to the
// device firmware and is not negotiable.
func Checksum(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for i := 0; i < 8; i++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// String returns a debug representation of the frame.
func (f *Frame) String() string {
	return fmt.Sprintf("Frame{sa=%s, da=%s, fc=0x%02x, payload=%d bytes}",
		f.Source, f.Dest, f.FunctionCode, len(f.Payload))
}

// FrameScanner extracts complete frames from an accumulating byte stream.
//
// The controller batches frames and interleaves unsolicited broadcasts, and
// TCP delivery may split a frame across reads, so the scanner buffers fed
// bytes and delimits candidates by the start byte and the encoded length
// field. Malformed candidates are resynchronized one byte past their start
// delimiter so that a real frame beginning inside garbage is still found.
type FrameScanner struct {
	buf []byte
}

// Feed appends freshly read bytes to the scan buffer.
func (s *FrameScanner) Feed(p []byte) {
	s.buf = append(s.buf, p...)
}

// Next returns the next complete frame in the buffer.
//
// A nil frame with a nil error means more bytes are needed. A non-nil
// error reports a malformed candidate that has been discarded; the caller
// should keep calling Next.
func (s *FrameScanner) Next() (*Frame, error) {
	// Drop leading bytes until a start delimiter.
	start := 0
	for start < len(s.buf) && s.buf[start] != FrameStart {
		start++
	}
	if start > 0 {
		s.buf = s.buf[start:]
	}

	if len(s.buf) < 3 {
		return nil, nil
	}

	declared := int(binary.LittleEndian.Uint16(s.buf[1:3]))
	total := declared + 6
	if declared < 5 || declared > MaxPayloadSize+5 {
		// Length field is nonsense; this start byte is not a frame.
		err := &LengthMismatchError{Declared: total, Actual: len(s.buf)}
		s.buf = s.buf[1:]
		return nil, err
	}
	if len(s.buf) < total {
		return nil, nil
	}

	frame, err := ParseFrame(s.buf[:total])
	if err != nil {
		// The candidate did not validate; resync one byte in.
		s.buf = s.buf[1:]
		return nil, err
	}
	s.buf = s.buf[total:]
	return frame, nil
}

// Pending reports how many buffered bytes are waiting to be scanned.
func (s *FrameScanner) Pending() int {
	return len(s.buf)
}
