// Package capture records the packets of a connection to a file or object
// store and reads the recordings back.
//
// A capture starts with the 6 byte header "CWCAP\x01" followed by records:
//
//	┌──────────────────┬───────────┬───────────┬──────────────┬───────────────────┐
//	│ Offset ms        │ Direction │ State     │ Packet ID    │ Payload           │
//	│ (VarLong)        │ (1 byte)  │ (1 byte)  │ (VarInt)     │ (VarInt length +  │
//	│                  │           │           │              │ field bytes)      │
//	└──────────────────┴───────────┴───────────┴──────────────┴───────────────────┘
//
// Offsets are milliseconds since the recorder was created. Payloads are the
// packet fields re-encoded through the registry, without framing,
// compression or encryption.
package capture

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/vango-dev/craftwire/pkg/packet"
	"github.com/vango-dev/craftwire/pkg/protocol"
)

// Magic is the capture header.
const Magic = "CWCAP\x01"

// Errors returned when reading captures.
var (
	ErrBadMagic      = errors.New("capture: not a capture file")
	ErrCorruptRecord = errors.New("capture: corrupt record")
)

// Record is one captured packet.
type Record struct {
	Offset    time.Duration
	Direction packet.Direction
	State     packet.State
	ID        int32
	Payload   []byte
}

// Body returns the packet body (id followed by fields) as it appeared inside
// the frame.
func (r Record) Body() []byte {
	body := protocol.AppendVarInt(make([]byte, 0, len(r.Payload)+5), r.ID)
	return append(body, r.Payload...)
}

// Decode decodes the record through reg. Ids reg does not know decode to a
// *packet.Unknown.
func (r Record) Decode(reg *packet.Registry) (packet.Packet, error) {
	return reg.Decode(r.State, r.Direction, r.Body())
}

func (r Record) String() string {
	return fmt.Sprintf("%8.3fs %s %s 0x%02X (%d bytes)", r.Offset.Seconds(), r.Direction, r.State, r.ID, len(r.Payload))
}

func appendRecord(e *protocol.Encoder, r Record) {
	e.WriteVarLong(r.Offset.Milliseconds())
	e.WriteUnsignedByte(byte(r.Direction))
	e.WriteUnsignedByte(byte(r.State))
	e.WriteVarInt(r.ID)
	e.WriteByteArray(r.Payload)
}

// ReadAll reads a whole capture.
func ReadAll(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a capture held in memory.
func Parse(data []byte) ([]Record, error) {
	if !bytes.HasPrefix(data, []byte(Magic)) {
		return nil, ErrBadMagic
	}
	d := protocol.NewDecoder(data[len(Magic):])

	var records []Record
	for !d.EOF() {
		rec, err := readRecord(d)
		if err != nil {
			return records, fmt.Errorf("%w: record %d: %w", ErrCorruptRecord, len(records), err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func readRecord(d *protocol.Decoder) (Record, error) {
	var rec Record
	ms, err := d.ReadVarLong()
	if err != nil {
		return rec, err
	}
	dir, err := d.ReadUnsignedByte()
	if err != nil {
		return rec, err
	}
	state, err := d.ReadUnsignedByte()
	if err != nil {
		return rec, err
	}
	if packet.Direction(dir) > packet.Serverbound || packet.State(state) > packet.Play {
		return rec, protocol.ErrOutOfRange
	}
	id, err := d.ReadVarInt()
	if err != nil {
		return rec, err
	}
	payload, err := d.ReadByteArray()
	if err != nil {
		return rec, err
	}
	rec.Offset = time.Duration(ms) * time.Millisecond
	rec.Direction = packet.Direction(dir)
	rec.State = packet.State(state)
	rec.ID = id
	rec.Payload = payload
	return rec, nil
}
