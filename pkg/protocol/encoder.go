package protocol

import (
	"encoding/binary"
	"math"

	snaperrors "github.com/snapwire/snapwire/internal/errors"
	"github.com/snapwire/snapwire/pkg/sizebuf"
)

// Encoder writes little-endian protocol values into a SizeBuffer.
//
// Errors are sticky: after the first fatal error every further write is
// skipped and returns that error, so a caller can emit a whole message and
// check Err once.
type Encoder struct {
	buf *sizebuf.Buffer
	err error

	// Paranoid enables range checks on byte, char, short and coord writes.
	Paranoid bool
}

// NewEncoder creates an encoder appending to buf.
func NewEncoder(buf *sizebuf.Buffer) *Encoder {
	return &Encoder{buf: buf}
}

// Buffer returns the underlying buffer.
func (e *Encoder) Buffer() *sizebuf.Buffer {
	return e.buf
}

// Bytes returns the encoded bytes. The returned slice is valid until the
// next write.
func (e *Encoder) Bytes() []byte {
	return e.buf.Bytes()
}

// Len returns the number of bytes currently encoded.
func (e *Encoder) Len() int {
	return e.buf.Len()
}

// Err returns the first error hit by a write.
func (e *Encoder) Err() error {
	return e.err
}

// Reset clears the buffer and the sticky error.
func (e *Encoder) Reset() {
	e.buf.Clear()
	e.err = nil
}

func (e *Encoder) space(n int) []byte {
	if e.err != nil {
		return nil
	}
	p, err := e.buf.GetSpace(n)
	if err != nil {
		e.err = err
		return nil
	}
	return p
}

func (e *Encoder) rangeError(what string, v int) error {
	if e.err == nil {
		e.err = snaperrors.New("P003").Wrap(ErrRange).WithDetailf("%s %d", what, v)
	}
	return e.err
}

// WriteChar appends a signed byte.
func (e *Encoder) WriteChar(c int) error {
	if e.Paranoid && (c < -128 || c > 127) {
		return e.rangeError("char", c)
	}
	if p := e.space(1); p != nil {
		p[0] = byte(c)
	}
	return e.err
}

// WriteUint8 appends an unsigned byte.
func (e *Encoder) WriteUint8(c int) error {
	if e.Paranoid && (c < 0 || c > 255) {
		return e.rangeError("byte", c)
	}
	if p := e.space(1); p != nil {
		p[0] = byte(c)
	}
	return e.err
}

// WriteShort appends a 16-bit value in little-endian byte order.
func (e *Encoder) WriteShort(c int) error {
	if e.Paranoid && (c < math.MinInt16 || c > math.MaxUint16) {
		return e.rangeError("short", c)
	}
	if p := e.space(2); p != nil {
		binary.LittleEndian.PutUint16(p, uint16(c))
	}
	return e.err
}

// WriteLong appends a 32-bit value in little-endian byte order.
func (e *Encoder) WriteLong(c int32) error {
	if p := e.space(4); p != nil {
		binary.LittleEndian.PutUint32(p, uint32(c))
	}
	return e.err
}

// WriteFloat appends an IEEE 754 float in little-endian byte order.
func (e *Encoder) WriteFloat(f float32) error {
	if p := e.space(4); p != nil {
		binary.LittleEndian.PutUint32(p, math.Float32bits(f))
	}
	return e.err
}

// WriteString appends s followed by a NUL. The empty string encodes as a
// single NUL.
func (e *Encoder) WriteString(s string) error {
	if p := e.space(len(s) + 1); p != nil {
		copy(p, s)
		p[len(s)] = 0
	}
	return e.err
}

// WriteData appends raw bytes.
func (e *Encoder) WriteData(data []byte) error {
	if p := e.space(len(data)); p != nil {
		copy(p, data)
	}
	return e.err
}

// WriteCoord appends a world coordinate as a 1/8 unit fixed-point short.
// Paranoid encoders reject coordinates outside [-4096, 4095.875], which the
// signed ReadCoord could not recover.
func (e *Encoder) WriteCoord(f float32) error {
	v := roundInt(f * 8)
	if e.Paranoid && (v < math.MinInt16 || v > math.MaxInt16) {
		return e.rangeError("coord", v)
	}
	return e.WriteShort(v)
}

// WritePos appends three coordinates.
func (e *Encoder) WritePos(pos Vec3) error {
	e.WriteCoord(pos[0])
	e.WriteCoord(pos[1])
	return e.WriteCoord(pos[2])
}

// WriteAngle appends an angle in degrees with 360/256 resolution.
func (e *Encoder) WriteAngle(f float32) error {
	return e.WriteUint8(roundInt(f*256/360) & 0xFF)
}

// WriteAngle16 appends an angle in degrees with 360/65536 resolution.
func (e *Encoder) WriteAngle16(f float32) error {
	return e.WriteShort(Angle2Short(f))
}

// Angle2Short converts degrees to the 16-bit wire representation.
func Angle2Short(f float32) int {
	return int(f*65536/360) & 0xFFFF
}

// Short2Angle converts the 16-bit wire representation to degrees.
func Short2Angle(s int) float32 {
	return float32(s) * (360.0 / 65536)
}

func roundInt(f float32) int {
	return int(math.Round(float64(f)))
}
