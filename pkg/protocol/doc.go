// Package protocol implements the snapshot wire format shared by the game
// server and its clients.
//
// All values are little-endian. Messages are built into a fixed-capacity
// sizebuf.Buffer by an Encoder and parsed back by a Decoder; neither owns
// goroutines or locks.
//
// # Primitives
//
//   - char, byte: 1 byte
//   - short: 2 bytes, long and float: 4 bytes
//   - string: bytes followed by a NUL
//   - coord: short holding round(value*8)
//   - angle: 1 byte holding round(degrees*256/360), angle16: 2 bytes
//   - dir: 1 byte index into a fixed table of 162 unit normals
//
// Reads past the end of a message return -1 and set the decoder's Overrun
// flag instead of failing, so a parse loop can stop on the first negative
// value.
//
// # Entity Deltas
//
// An entity record is a change mask of 1 to 4 bytes, the entity number
// (byte, or short when UNumber16 is set) and then each flagged field in a
// fixed order:
//
//	model1-4  frame  skin  effects  renderfx  origin[3]  angles[3]
//	oldorigin  sound  event  solid
//
// The top bit of each mask byte announces the next. Frame, skin, effects and
// renderfx are sent in the narrowest of 8, 16 or 32 bits that holds them;
// the choice is carried by a pair of mask bits (see EntityBits.FieldWidth).
// A packet-entities list ends with a zero mask and entity number 0.
//
// # User Commands
//
// A usercmd delta is a one-byte mask followed by the changed angles and
// moves (shorts), buttons and impulse (bytes), and always msec and light
// level.
//
// # Checksums
//
// BlockSequenceCRCByte derives a one-byte checksum of a message prefix
// keyed by the packet sequence, so a proxy cannot replay or forge commands.
//
// # Errors
//
// Codec errors carry a fatal or soft kind (see internal/errors). A fatal
// error means the stream or the caller is broken and the connection should
// be dropped; a soft error means content was lost but processing can go on.
package protocol
