package protocol

import (
	"fmt"

	snaperrors "github.com/snapwire/snapwire/internal/errors"
)

// RFBeam is the render effect that forces OldOrigin onto the wire: beams
// are drawn from OldOrigin to Origin.
const RFBeam = 1 << 7

// EntityState is an immutable snapshot of one entity as seen by the wire.
type EntityState struct {
	Number     int // 1..MaxEntities-1 on the wire
	Origin     Vec3
	Angles     Vec3
	OldOrigin  Vec3
	ModelIndex [4]uint8
	Frame      uint16
	Skin       uint32
	Effects    uint32
	RenderFX   uint32
	Solid      uint16
	Sound      uint8
	Event      uint8 // one-shot, never carried over from a baseline
}

// EntityBits is the change mask that prefixes an entity delta.
type EntityBits uint32

// Entity mask bits. The layout is fixed by the wire format; each byte's top
// bit announces that the next mask byte follows.
const (
	// first byte
	UOrigin1   EntityBits = 1 << 0
	UOrigin2   EntityBits = 1 << 1
	UAngle2    EntityBits = 1 << 2
	UAngle3    EntityBits = 1 << 3
	UFrame8    EntityBits = 1 << 4
	UEvent     EntityBits = 1 << 5
	URemove    EntityBits = 1 << 6
	UMoreBits1 EntityBits = 1 << 7

	// second byte
	UNumber16  EntityBits = 1 << 8
	UOrigin3   EntityBits = 1 << 9
	UAngle1    EntityBits = 1 << 10
	UModel     EntityBits = 1 << 11
	URenderFX8 EntityBits = 1 << 12
	UEffects8  EntityBits = 1 << 14
	UMoreBits2 EntityBits = 1 << 15

	// third byte
	USkin8      EntityBits = 1 << 16
	UFrame16    EntityBits = 1 << 17
	URenderFX16 EntityBits = 1 << 18
	UEffects16  EntityBits = 1 << 19
	UModel2     EntityBits = 1 << 20
	UModel3     EntityBits = 1 << 21
	UModel4     EntityBits = 1 << 22
	UMoreBits3  EntityBits = 1 << 23

	// fourth byte
	UOldOrigin EntityBits = 1 << 24
	USkin16    EntityBits = 1 << 25
	USound     EntityBits = 1 << 26
	USolid     EntityBits = 1 << 27
)

var (
	uOrigin = [3]EntityBits{UOrigin1, UOrigin2, UOrigin3}
	uAngle  = [3]EntityBits{UAngle1, UAngle2, UAngle3}
	uModel  = [4]EntityBits{UModel, UModel2, UModel3, UModel4}
)

// Width is the wire width selected for a variable-width field.
type Width uint8

const (
	WidthAbsent Width = iota
	Width8
	Width16
	Width32
)

// String returns the string representation of the width.
func (w Width) String() string {
	switch w {
	case WidthAbsent:
		return "absent"
	case Width8:
		return "8"
	case Width16:
		return "16"
	case Width32:
		return "32"
	default:
		return "unknown"
	}
}

// Field names a variable-width entity field.
type Field uint8

const (
	FieldNumber Field = iota
	FieldFrame
	FieldSkin
	FieldEffects
	FieldRenderFX
)

// fieldWidths is the encoding selection table. A field's width is carried by
// two mask bits: narrow alone selects 8 bits, wide alone 16 bits, both 32.
// limit16 is the exclusive bound for the 16-bit form; zero means the field
// has no 32-bit form.
var fieldWidths = [...]struct {
	narrow, wide EntityBits
	limit16      uint32
}{
	FieldNumber:   {0, UNumber16, 0},
	FieldFrame:    {UFrame8, UFrame16, 0},
	FieldSkin:     {USkin8, USkin16, 0x10000},
	FieldEffects:  {UEffects8, UEffects16, 0x8000},
	FieldRenderFX: {URenderFX8, URenderFX16, 0x8000},
}

// FieldWidth returns the width the mask selects for f.
func (b EntityBits) FieldWidth(f Field) Width {
	sel := fieldWidths[f]
	narrow := sel.narrow != 0 && b&sel.narrow != 0
	wide := b&sel.wide != 0
	switch {
	case narrow && wide:
		return Width32
	case wide:
		return Width16
	case narrow:
		return Width8
	default:
		return WidthAbsent
	}
}

// withWidth returns b with f's width bits set to w.
func (b EntityBits) withWidth(f Field, w Width) EntityBits {
	sel := fieldWidths[f]
	b &^= sel.narrow | sel.wide
	switch w {
	case Width8:
		b |= sel.narrow
	case Width16:
		b |= sel.wide
	case Width32:
		b |= sel.narrow | sel.wide
	}
	return b
}

// widthFor selects the narrowest width holding v for field f.
func widthFor(f Field, v uint32) Width {
	switch {
	case v < 256:
		return Width8
	case fieldWidths[f].limit16 == 0 || v < fieldWidths[f].limit16:
		return Width16
	default:
		return Width32
	}
}

// MaskLen returns the number of mask bytes b occupies on the wire.
func (b EntityBits) MaskLen() int {
	switch {
	case b&0xFF000000 != 0:
		return 4
	case b&0x00FF0000 != 0:
		return 3
	case b&0x0000FF00 != 0:
		return 2
	default:
		return 1
	}
}

// DeltaBits compares two snapshots and returns the change mask. The
// identity width bit is not included; it is added when the delta is written.
func DeltaBits(from, to *EntityState, isNew bool) EntityBits {
	var bits EntityBits

	for i := 0; i < 3; i++ {
		if to.Origin[i] != from.Origin[i] {
			bits |= uOrigin[i]
		}
		if to.Angles[i] != from.Angles[i] {
			bits |= uAngle[i]
		}
	}

	if to.Skin != from.Skin {
		bits = bits.withWidth(FieldSkin, widthFor(FieldSkin, to.Skin))
	}
	if to.Frame != from.Frame {
		bits = bits.withWidth(FieldFrame, widthFor(FieldFrame, uint32(to.Frame)))
	}
	if to.Effects != from.Effects {
		bits = bits.withWidth(FieldEffects, widthFor(FieldEffects, to.Effects))
	}
	if to.RenderFX != from.RenderFX {
		bits = bits.withWidth(FieldRenderFX, widthFor(FieldRenderFX, to.RenderFX))
	}

	if to.Solid != from.Solid {
		bits |= USolid
	}

	// events are pulses: sent whenever set, whatever the baseline holds
	if to.Event != 0 {
		bits |= UEvent
	}

	for i := range uModel {
		if to.ModelIndex[i] != from.ModelIndex[i] {
			bits |= uModel[i]
		}
	}

	if to.Sound != from.Sound {
		bits |= USound
	}

	if isNew || to.RenderFX&RFBeam != 0 {
		bits |= UOldOrigin
	}

	return bits
}

func checkEntityNumber(number int) error {
	if number <= 0 || number >= MaxEntities {
		return snaperrors.New("P001").Wrap(ErrEntityNumber).WithDetailf("number %d", number)
	}
	return nil
}

// WriteDeltaEntity appends the delta from from to to. Nothing is written
// when no field changed and force is false. isNew marks an entity entering
// the client's view, which always carries OldOrigin.
//
// A to.Number of 0 or at least MaxEntities is a fatal error.
func (e *Encoder) WriteDeltaEntity(from, to *EntityState, force, isNew bool) error {
	if err := checkEntityNumber(to.Number); err != nil {
		return err
	}

	bits := DeltaBits(from, to, isNew)
	if bits == 0 && !force {
		return nil
	}
	if to.Number >= 256 {
		bits |= UNumber16
	}

	e.writeEntityBits(bits, to.Number)

	for i := range uModel {
		if bits&uModel[i] != 0 {
			e.WriteUint8(int(to.ModelIndex[i]))
		}
	}

	e.writeWidth(bits.FieldWidth(FieldFrame), uint32(to.Frame))
	e.writeWidth(bits.FieldWidth(FieldSkin), to.Skin)
	e.writeWidth(bits.FieldWidth(FieldEffects), to.Effects)
	e.writeWidth(bits.FieldWidth(FieldRenderFX), to.RenderFX)

	for i := 0; i < 3; i++ {
		if bits&uOrigin[i] != 0 {
			e.WriteCoord(to.Origin[i])
		}
	}
	for i := 0; i < 3; i++ {
		if bits&uAngle[i] != 0 {
			e.WriteAngle(to.Angles[i])
		}
	}

	if bits&UOldOrigin != 0 {
		e.WritePos(to.OldOrigin)
	}

	if bits&USound != 0 {
		e.WriteUint8(int(to.Sound))
	}
	if bits&UEvent != 0 {
		e.WriteUint8(int(to.Event))
	}
	if bits&USolid != 0 {
		e.WriteShort(int(to.Solid))
	}

	return e.err
}

// WriteRemoveEntity appends a record telling the receiver that number left
// the frame.
func (e *Encoder) WriteRemoveEntity(number int) error {
	if err := checkEntityNumber(number); err != nil {
		return err
	}
	bits := URemove
	if number >= 256 {
		bits |= UNumber16
	}
	e.writeEntityBits(bits, number)
	return e.err
}

// writeEntityBits emits the mask, one to four bytes, then the number.
func (e *Encoder) writeEntityBits(bits EntityBits, number int) {
	switch bits.MaskLen() {
	case 4:
		bits |= UMoreBits3 | UMoreBits2 | UMoreBits1
	case 3:
		bits |= UMoreBits2 | UMoreBits1
	case 2:
		bits |= UMoreBits1
	}

	e.WriteUint8(int(bits & 0xFF))
	if bits&UMoreBits1 != 0 {
		e.WriteUint8(int(bits>>8) & 0xFF)
	}
	if bits&UMoreBits2 != 0 {
		e.WriteUint8(int(bits>>16) & 0xFF)
	}
	if bits&UMoreBits3 != 0 {
		e.WriteUint8(int(bits>>24) & 0xFF)
	}

	if bits&UNumber16 != 0 {
		e.WriteShort(number)
	} else {
		e.WriteUint8(number)
	}
}

func (e *Encoder) writeWidth(w Width, v uint32) {
	switch w {
	case Width8:
		e.WriteUint8(int(v & 0xFF))
	case Width16:
		e.WriteShort(int(v & 0xFFFF))
	case Width32:
		e.WriteLong(int32(v))
	}
}

// ReadEntityBits reads a delta header: the mask and the entity number.
// Running past the end of the message is reported as a soft error.
func (d *Decoder) ReadEntityBits() (EntityBits, int, error) {
	bits := EntityBits(d.ReadUint8() & 0xFF)
	if bits&UMoreBits1 != 0 {
		bits |= EntityBits(d.ReadUint8()&0xFF) << 8
	}
	if bits&UMoreBits2 != 0 {
		bits |= EntityBits(d.ReadUint8()&0xFF) << 16
	}
	if bits&UMoreBits3 != 0 {
		bits |= EntityBits(d.ReadUint8()&0xFF) << 24
	}

	var number int
	if bits&UNumber16 != 0 {
		number = d.ReadUShort()
	} else {
		number = d.ReadUint8()
	}

	if d.Overrun() {
		return 0, 0, newUnexpectedEnd("entity header")
	}
	return bits, number, nil
}

// ReadDeltaEntity rebuilds a snapshot from base and the fields flagged in
// bits. Fields without a bit keep the base value, except Event which is
// cleared.
func (d *Decoder) ReadDeltaEntity(base *EntityState, bits EntityBits, number int) (EntityState, error) {
	to := *base
	to.Number = number
	to.Event = 0

	for i := range uModel {
		if bits&uModel[i] != 0 {
			to.ModelIndex[i] = uint8(d.ReadUint8())
		}
	}

	if bits&UFrame8 != 0 {
		to.Frame = uint16(d.ReadUint8())
	}
	if bits&UFrame16 != 0 {
		to.Frame = uint16(d.ReadUShort())
	}

	d.readWidth(bits.FieldWidth(FieldSkin), &to.Skin)
	d.readWidth(bits.FieldWidth(FieldEffects), &to.Effects)
	d.readWidth(bits.FieldWidth(FieldRenderFX), &to.RenderFX)

	for i := 0; i < 3; i++ {
		if bits&uOrigin[i] != 0 {
			to.Origin[i] = d.ReadCoord()
		}
	}
	for i := 0; i < 3; i++ {
		if bits&uAngle[i] != 0 {
			to.Angles[i] = d.ReadAngle()
		}
	}

	if bits&UOldOrigin != 0 {
		to.OldOrigin = d.ReadPos()
	}

	if bits&USound != 0 {
		to.Sound = uint8(d.ReadUint8())
	}
	if bits&UEvent != 0 {
		to.Event = uint8(d.ReadUint8())
	}
	if bits&USolid != 0 {
		to.Solid = uint16(d.ReadUShort())
	}

	if d.Overrun() {
		return to, newUnexpectedEnd(fmt.Sprintf("entity %d", number))
	}
	return to, nil
}

// DecodeDeltaEntity reads a full delta record and applies it to base.
func (d *Decoder) DecodeDeltaEntity(base *EntityState) (EntityState, EntityBits, error) {
	bits, number, err := d.ReadEntityBits()
	if err != nil {
		return EntityState{}, 0, err
	}
	to, err := d.ReadDeltaEntity(base, bits, number)
	return to, bits, err
}

func (d *Decoder) readWidth(w Width, v *uint32) {
	switch w {
	case Width8:
		*v = uint32(d.ReadUint8() & 0xFF)
	case Width16:
		*v = uint32(d.ReadUShort() & 0xFFFF)
	case Width32:
		*v = uint32(d.ReadLong())
	}
}

// WritePacketEntitiesEnd terminates a packet-entities list: an empty mask
// followed by entity number 0.
func (e *Encoder) WritePacketEntitiesEnd() error {
	e.WriteShort(0)
	return e.err
}
