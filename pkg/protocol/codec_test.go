package protocol

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	snaperrors "github.com/snapwire/snapwire/internal/errors"
	"github.com/snapwire/snapwire/pkg/sizebuf"
)

func newTestEncoder() *Encoder {
	return NewEncoder(sizebuf.New(MaxMsgLen))
}

func TestEncoderDecoder(t *testing.T) {
	e := newTestEncoder()

	e.WriteChar(-5)
	e.WriteUint8(200)
	e.WriteShort(-1234)
	e.WriteLong(-123456)
	e.WriteFloat(3.5)
	e.WriteString("hello")
	e.WriteString("")
	e.WriteCoord(10)
	e.WriteAngle(90)
	e.WriteAngle16(45)
	e.WriteData([]byte{0xDE, 0xAD})
	if err := e.Err(); err != nil {
		t.Fatalf("encode error = %v", err)
	}

	d := NewDecoder(e.Buffer())

	if v := d.ReadChar(); v != -5 {
		t.Errorf("ReadChar() = %d, want -5", v)
	}
	if v := d.ReadUint8(); v != 200 {
		t.Errorf("ReadUint8() = %d, want 200", v)
	}
	if v := d.ReadShort(); v != -1234 {
		t.Errorf("ReadShort() = %d, want -1234", v)
	}
	if v := d.ReadLong(); v != -123456 {
		t.Errorf("ReadLong() = %d, want -123456", v)
	}
	if v := d.ReadFloat(); v != 3.5 {
		t.Errorf("ReadFloat() = %v, want 3.5", v)
	}
	if v := d.ReadString(); v != "hello" {
		t.Errorf("ReadString() = %q, want \"hello\"", v)
	}
	if v := d.ReadString(); v != "" {
		t.Errorf("ReadString() = %q, want empty", v)
	}
	if v := d.ReadCoord(); v != 10 {
		t.Errorf("ReadCoord() = %v, want 10", v)
	}
	if v := d.ReadAngle(); v != 90 {
		t.Errorf("ReadAngle() = %v, want 90", v)
	}
	if v := d.ReadAngle16(); v != 45 {
		t.Errorf("ReadAngle16() = %v, want 45", v)
	}
	if v := d.ReadData(2); !bytes.Equal(v, []byte{0xDE, 0xAD}) {
		t.Errorf("ReadData(2) = %x, want dead", v)
	}

	if !d.EOF() || d.Overrun() {
		t.Errorf("EOF() = %v, Overrun() = %v; want true, false", d.EOF(), d.Overrun())
	}
}

func TestLittleEndian(t *testing.T) {
	tests := []struct {
		name  string
		write func(e *Encoder)
		want  []byte
	}{
		{"short", func(e *Encoder) { e.WriteShort(0x1234) }, []byte{0x34, 0x12}},
		{"negative short", func(e *Encoder) { e.WriteShort(-2) }, []byte{0xFE, 0xFF}},
		{"long", func(e *Encoder) { e.WriteLong(0x01020304) }, []byte{0x04, 0x03, 0x02, 0x01}},
		{"float", func(e *Encoder) { e.WriteFloat(1) }, []byte{0x00, 0x00, 0x80, 0x3F}},
		{"string", func(e *Encoder) { e.WriteString("ab") }, []byte{'a', 'b', 0}},
		{"empty string", func(e *Encoder) { e.WriteString("") }, []byte{0}},
		{"coord", func(e *Encoder) { e.WriteCoord(-1) }, []byte{0xF8, 0xFF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEncoder()
			tt.write(e)
			if !bytes.Equal(e.Bytes(), tt.want) {
				t.Errorf("got %x, want %x", e.Bytes(), tt.want)
			}
		})
	}
}

func TestCoordPrecision(t *testing.T) {
	tests := []struct {
		in   float32
		want float32
	}{
		{10, 10},
		{10.04, 10},
		{10.1, 10.125},
		{-3.3, -3.25},
		{0.0625, 0.125},
		{-4096, -4096},
		{4095.875, 4095.875},
	}

	for _, tt := range tests {
		e := newTestEncoder()
		e.WriteCoord(tt.in)
		got := NewDecoder(e.Buffer()).ReadCoord()
		if got != tt.want {
			t.Errorf("ReadCoord(WriteCoord(%v)) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAnglePrecision(t *testing.T) {
	encode := func(f float32) []byte {
		e := newTestEncoder()
		e.WriteAngle(f)
		return e.Bytes()
	}

	if !bytes.Equal(encode(360), encode(0)) {
		t.Errorf("WriteAngle(360) = %x, want WriteAngle(0) = %x", encode(360), encode(0))
	}

	tests := []struct {
		in   float32
		want float32
	}{
		{0, 0},
		{90, 90},
		{270, -90},
		{-45, -45},
		{1, 1.40625},
		{180, -180},
	}
	for _, tt := range tests {
		got := NewDecoderBytes(encode(tt.in)).ReadAngle()
		if got != tt.want {
			t.Errorf("ReadAngle(WriteAngle(%v)) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestAngle16(t *testing.T) {
	if got := Angle2Short(45); got != 8192 {
		t.Errorf("Angle2Short(45) = %d, want 8192", got)
	}
	if got := Angle2Short(-90); got != 0xC000 {
		t.Errorf("Angle2Short(-90) = %#x, want 0xc000", got)
	}
	if got := Short2Angle(16384); got != 90 {
		t.Errorf("Short2Angle(16384) = %v, want 90", got)
	}
}

func TestReadPastEnd(t *testing.T) {
	d := NewDecoderBytes([]byte{0x07})

	if v := d.ReadUint8(); v != 7 {
		t.Fatalf("ReadUint8() = %d, want 7", v)
	}
	if d.Overrun() {
		t.Fatal("Overrun() before reading past the end")
	}

	if v := d.ReadUint8(); v != -1 {
		t.Errorf("ReadUint8() past end = %d, want -1", v)
	}
	if v := d.ReadShort(); v != -1 {
		t.Errorf("ReadShort() past end = %d, want -1", v)
	}
	if v := d.ReadLong(); v != -1 {
		t.Errorf("ReadLong() past end = %d, want -1", v)
	}
	if v := d.ReadFloat(); v != -1 {
		t.Errorf("ReadFloat() past end = %v, want -1", v)
	}
	if v := d.ReadString(); v != "" {
		t.Errorf("ReadString() past end = %q, want empty", v)
	}
	if !d.Overrun() {
		t.Error("Overrun() = false after reading past the end")
	}
}

func TestReadPartialShort(t *testing.T) {
	d := NewDecoderBytes([]byte{0x01})
	if v := d.ReadShort(); v != -1 {
		t.Errorf("ReadShort() over 1 byte = %d, want -1", v)
	}
}

func TestReadStringBounded(t *testing.T) {
	long := strings.Repeat("a", 3000)
	d := NewDecoderBytes([]byte(long))

	s := d.ReadString()
	if len(s) != MaxStringLen-1 {
		t.Errorf("len(ReadString()) = %d, want %d", len(s), MaxStringLen-1)
	}
	if d.Remaining() != 3000-(MaxStringLen-1) {
		t.Errorf("Remaining() = %d, want %d", d.Remaining(), 3000-(MaxStringLen-1))
	}
}

func TestReadStringOwned(t *testing.T) {
	msg := []byte{'a', 'b', 0, 'c', 'd', 0}
	d := NewDecoderBytes(msg)
	first := d.ReadString()
	second := d.ReadString()
	msg[0] = 'z'

	if first != "ab" || second != "cd" {
		t.Errorf("ReadString() = %q, %q; want \"ab\", \"cd\"", first, second)
	}
}

func TestParanoidRange(t *testing.T) {
	tests := []struct {
		name  string
		write func(e *Encoder) error
	}{
		{"byte high", func(e *Encoder) error { return e.WriteUint8(256) }},
		{"byte negative", func(e *Encoder) error { return e.WriteUint8(-1) }},
		{"char high", func(e *Encoder) error { return e.WriteChar(128) }},
		{"short high", func(e *Encoder) error { return e.WriteShort(65536) }},
		{"coord high", func(e *Encoder) error { return e.WriteCoord(8192) }},
		{"coord past short", func(e *Encoder) error { return e.WriteCoord(4096) }},
		{"coord below short", func(e *Encoder) error { return e.WriteCoord(-4096.125) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEncoder()
			e.Paranoid = true

			err := tt.write(e)
			if !errors.Is(err, ErrRange) {
				t.Fatalf("error = %v, want ErrRange", err)
			}
			if !snaperrors.IsFatal(err) {
				t.Error("range error should be fatal")
			}
			if e.Len() != 0 {
				t.Errorf("Len() = %d, want 0", e.Len())
			}

			// sticky
			if err := e.WriteUint8(1); !errors.Is(err, ErrRange) {
				t.Errorf("subsequent write error = %v, want ErrRange", err)
			}
		})
	}
}

func TestParanoidCoordBounds(t *testing.T) {
	for _, f := range []float32{-4096, 4095.875} {
		e := newTestEncoder()
		e.Paranoid = true
		if err := e.WriteCoord(f); err != nil {
			t.Fatalf("WriteCoord(%v) error = %v", f, err)
		}
		if got := NewDecoder(e.Buffer()).ReadCoord(); got != f {
			t.Errorf("ReadCoord() = %v, want %v", got, f)
		}
	}
}

func TestEncoderOverflow(t *testing.T) {
	t.Run("disallowed", func(t *testing.T) {
		e := NewEncoder(sizebuf.New(2))
		err := e.WriteLong(1)
		if !errors.Is(err, sizebuf.ErrOverflow) {
			t.Fatalf("WriteLong() error = %v, want ErrOverflow", err)
		}
		if !snaperrors.IsFatal(err) {
			t.Error("overflow without permission should be fatal")
		}
		if !errors.Is(e.Err(), sizebuf.ErrOverflow) {
			t.Error("Err() should keep the overflow")
		}

		e.Reset()
		if e.Err() != nil {
			t.Errorf("Err() after Reset = %v", e.Err())
		}
	})

	t.Run("allowed", func(t *testing.T) {
		buf := sizebuf.New(4)
		buf.SetAllowOverflow(true)
		e := NewEncoder(buf)

		e.WriteShort(1)
		if err := e.WriteLong(0x0A0B0C0D); err != nil {
			t.Fatalf("WriteLong() error = %v", err)
		}
		if !buf.Overflowed() {
			t.Error("Overflowed() = false")
		}
		if !bytes.Equal(e.Bytes(), []byte{0x0D, 0x0C, 0x0B, 0x0A}) {
			t.Errorf("Bytes() = %x, want the last write only", e.Bytes())
		}
	})
}

func BenchmarkWriteCoord(b *testing.B) {
	e := newTestEncoder()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Reset()
		e.WritePos(Vec3{128.5, -64.25, 32})
	}
}

func BenchmarkReadString(b *testing.B) {
	msg := append([]byte("player_name_here"), 0)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		NewDecoderBytes(msg).ReadString()
	}
}
