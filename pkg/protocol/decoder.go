package protocol

import (
	"encoding/binary"
	"math"

	"github.com/snapwire/snapwire/pkg/sizebuf"
)

// Decoder reads protocol values from a SizeBuffer.
//
// Reads past the end of the message do not fail: integer reads return -1,
// the read cursor still advances, and Overrun reports the condition. A parse
// loop treats a negative read as the end of the message.
type Decoder struct {
	buf *sizebuf.Buffer
}

// NewDecoder creates a decoder over buf and resets its read cursor.
func NewDecoder(buf *sizebuf.Buffer) *Decoder {
	buf.BeginReading()
	return &Decoder{buf: buf}
}

// NewDecoderBytes creates a decoder over a received message.
func NewDecoderBytes(msg []byte) *Decoder {
	return NewDecoder(sizebuf.FromBytes(msg))
}

// Buffer returns the underlying buffer.
func (d *Decoder) Buffer() *sizebuf.Buffer {
	return d.buf
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return d.buf.Remaining()
}

// EOF returns true if all bytes have been read.
func (d *Decoder) EOF() bool {
	return d.buf.Remaining() == 0
}

// Overrun reports whether a read went past the end of the message.
func (d *Decoder) Overrun() bool {
	return d.buf.Overrun()
}

// Position returns the current read position.
func (d *Decoder) Position() int {
	return d.buf.ReadCount()
}

// ReadChar reads a signed byte, or -1 past the end.
func (d *Decoder) ReadChar() int {
	p, ok := d.buf.Next(1)
	if !ok {
		return -1
	}
	return int(int8(p[0]))
}

// ReadUint8 reads an unsigned byte, or -1 past the end.
func (d *Decoder) ReadUint8() int {
	p, ok := d.buf.Next(1)
	if !ok {
		return -1
	}
	return int(p[0])
}

// ReadShort reads a signed little-endian 16-bit value, or -1 past the end.
func (d *Decoder) ReadShort() int {
	p, ok := d.buf.Next(2)
	if !ok {
		return -1
	}
	return int(int16(binary.LittleEndian.Uint16(p)))
}

// ReadUShort reads an unsigned little-endian 16-bit value, or -1 past the end.
func (d *Decoder) ReadUShort() int {
	p, ok := d.buf.Next(2)
	if !ok {
		return -1
	}
	return int(binary.LittleEndian.Uint16(p))
}

// ReadLong reads a signed little-endian 32-bit value, or -1 past the end.
func (d *Decoder) ReadLong() int32 {
	p, ok := d.buf.Next(4)
	if !ok {
		return -1
	}
	return int32(binary.LittleEndian.Uint32(p))
}

// ReadFloat reads a little-endian IEEE 754 float, or -1 past the end.
func (d *Decoder) ReadFloat() float32 {
	p, ok := d.buf.Next(4)
	if !ok {
		return -1
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(p))
}

// ReadString reads a NUL-terminated string. Reading stops at the
// terminator, at the end of the message, or after MaxStringLen-1 bytes.
// The result is owned by the caller.
func (d *Decoder) ReadString() string {
	var s []byte
	for len(s) < MaxStringLen-1 {
		c := d.ReadChar()
		if c == -1 || c == 0 {
			break
		}
		s = append(s, byte(c))
	}
	return string(s)
}

// ReadData reads n raw bytes. Missing bytes past the end read as 0xFF,
// the low byte of the -1 sentinel.
func (d *Decoder) ReadData(n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = byte(d.ReadUint8())
	}
	return out
}

// ReadCoord reads a 1/8 unit fixed-point coordinate.
func (d *Decoder) ReadCoord() float32 {
	return float32(d.ReadShort()) * (1.0 / 8)
}

// ReadPos reads three coordinates.
func (d *Decoder) ReadPos() Vec3 {
	var pos Vec3
	pos[0] = d.ReadCoord()
	pos[1] = d.ReadCoord()
	pos[2] = d.ReadCoord()
	return pos
}

// ReadAngle reads a one-byte angle in degrees.
func (d *Decoder) ReadAngle() float32 {
	return float32(d.ReadChar()) * (360.0 / 256)
}

// ReadAngle16 reads a two-byte angle in degrees.
func (d *Decoder) ReadAngle16() float32 {
	return Short2Angle(d.ReadShort())
}
