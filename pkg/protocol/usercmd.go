package protocol

// UserCmd is one frame of client input.
type UserCmd struct {
	Msec        uint8
	Buttons     uint8
	Angles      [3]int16
	ForwardMove int16
	SideMove    int16
	UpMove      int16
	Impulse     uint8
	LightLevel  uint8 // light level the player is standing on
}

// CmdBits is the change mask that prefixes a usercmd delta.
type CmdBits uint8

const (
	CMAngle1  CmdBits = 1 << 0
	CMAngle2  CmdBits = 1 << 1
	CMAngle3  CmdBits = 1 << 2
	CMForward CmdBits = 1 << 3
	CMSide    CmdBits = 1 << 4
	CMUp      CmdBits = 1 << 5
	CMButtons CmdBits = 1 << 6
	CMImpulse CmdBits = 1 << 7
)

var cmAngle = [3]CmdBits{CMAngle1, CMAngle2, CMAngle3}

// UserCmdBits returns the fields of to that differ from from.
func UserCmdBits(from, to *UserCmd) CmdBits {
	var bits CmdBits
	for i := range cmAngle {
		if to.Angles[i] != from.Angles[i] {
			bits |= cmAngle[i]
		}
	}
	if to.ForwardMove != from.ForwardMove {
		bits |= CMForward
	}
	if to.SideMove != from.SideMove {
		bits |= CMSide
	}
	if to.UpMove != from.UpMove {
		bits |= CMUp
	}
	if to.Buttons != from.Buttons {
		bits |= CMButtons
	}
	if to.Impulse != from.Impulse {
		bits |= CMImpulse
	}
	return bits
}

// WriteDeltaUserCmd appends the delta from from to to. Msec and LightLevel
// are always sent.
func (e *Encoder) WriteDeltaUserCmd(from, to *UserCmd) error {
	bits := UserCmdBits(from, to)
	e.WriteUint8(int(bits))

	for i := range cmAngle {
		if bits&cmAngle[i] != 0 {
			e.WriteShort(int(to.Angles[i]))
		}
	}
	if bits&CMForward != 0 {
		e.WriteShort(int(to.ForwardMove))
	}
	if bits&CMSide != 0 {
		e.WriteShort(int(to.SideMove))
	}
	if bits&CMUp != 0 {
		e.WriteShort(int(to.UpMove))
	}
	if bits&CMButtons != 0 {
		e.WriteUint8(int(to.Buttons))
	}
	if bits&CMImpulse != 0 {
		e.WriteUint8(int(to.Impulse))
	}

	e.WriteUint8(int(to.Msec))
	e.WriteUint8(int(to.LightLevel))

	return e.err
}

// ReadDeltaUserCmd applies a usercmd delta to from.
func (d *Decoder) ReadDeltaUserCmd(from *UserCmd) (UserCmd, error) {
	to := *from
	bits := CmdBits(d.ReadUint8())

	for i := range cmAngle {
		if bits&cmAngle[i] != 0 {
			to.Angles[i] = int16(d.ReadShort())
		}
	}
	if bits&CMForward != 0 {
		to.ForwardMove = int16(d.ReadShort())
	}
	if bits&CMSide != 0 {
		to.SideMove = int16(d.ReadShort())
	}
	if bits&CMUp != 0 {
		to.UpMove = int16(d.ReadShort())
	}
	if bits&CMButtons != 0 {
		to.Buttons = uint8(d.ReadUint8())
	}
	if bits&CMImpulse != 0 {
		to.Impulse = uint8(d.ReadUint8())
	}

	to.Msec = uint8(d.ReadUint8())
	to.LightLevel = uint8(d.ReadUint8())

	if d.Overrun() {
		return to, newUnexpectedEnd("usercmd")
	}
	return to, nil
}
