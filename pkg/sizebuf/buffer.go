package sizebuf

import (
	"errors"
	"log/slog"

	snaperrors "github.com/snapwire/snapwire/internal/errors"
)

// Buffer errors.
var (
	ErrOverflow            = errors.New("sizebuf: overflow without allowOverflow")
	ErrReservationTooLarge = errors.New("sizebuf: reservation larger than buffer")
	ErrNegativeLength      = errors.New("sizebuf: negative length")
)

// OverflowFunc is notified whenever a reservation does not fit.
// allowed reports the policy that was applied.
type OverflowFunc func(capacity, need int, allowed bool)

// Buffer is a fixed-capacity byte buffer with a write and a read cursor.
// The zero value is an empty buffer with no capacity; bind storage with Init.
type Buffer struct {
	data          []byte
	cursize       int
	readcount     int
	overflowed    bool
	allowOverflow bool

	logger     *slog.Logger
	onOverflow OverflowFunc
}

// New creates a buffer over freshly allocated storage of the given capacity.
func New(capacity int) *Buffer {
	b := &Buffer{}
	b.Init(make([]byte, capacity))
	return b
}

// FromBytes creates a buffer whose written region is msg, ready for reading.
// The buffer references msg; it does not copy it.
func FromBytes(msg []byte) *Buffer {
	b := &Buffer{}
	b.Init(msg)
	b.cursize = len(msg)
	return b
}

// Init binds the buffer to caller-owned storage and clears cursors and flags.
// The capacity is len(storage). Logger and overflow hook are kept.
func (b *Buffer) Init(storage []byte) {
	b.data = storage
	b.cursize = 0
	b.readcount = 0
	b.overflowed = false
	b.allowOverflow = false
}

// SetAllowOverflow selects the overflow policy.
func (b *Buffer) SetAllowOverflow(allow bool) {
	b.allowOverflow = allow
}

// AllowOverflow returns the overflow policy.
func (b *Buffer) AllowOverflow() bool {
	return b.allowOverflow
}

// SetLogger sets the logger used for overflow warnings.
func (b *Buffer) SetLogger(logger *slog.Logger) {
	b.logger = logger
}

// OnOverflow installs a hook called on every overflow.
func (b *Buffer) OnOverflow(fn OverflowFunc) {
	b.onOverflow = fn
}

// Clear resets the write cursor and the overflow flag.
// Storage contents are left untouched.
func (b *Buffer) Clear() {
	b.cursize = 0
	b.overflowed = false
}

// Cap returns the capacity of the bound storage.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// Len returns the number of bytes written.
func (b *Buffer) Len() int {
	return b.cursize
}

// Bytes returns the written region. The slice aliases the storage and is
// valid until the next write.
func (b *Buffer) Bytes() []byte {
	return b.data[:b.cursize]
}

// Overflowed reports whether the current message was discarded by an
// overflow since the last Clear.
func (b *Buffer) Overflowed() bool {
	return b.overflowed
}

// GetSpace reserves n bytes at the write cursor and returns them for the
// caller to fill.
func (b *Buffer) GetSpace(n int) ([]byte, error) {
	if n < 0 {
		return nil, snaperrors.New("P003").Wrap(ErrNegativeLength).WithDetailf("length %d", n)
	}

	need := b.cursize + n
	if need > len(b.data) {
		if b.onOverflow != nil {
			b.onOverflow(len(b.data), need, b.allowOverflow)
		}
		if !b.allowOverflow {
			return nil, snaperrors.New("B001").Wrap(ErrOverflow).
				WithDetailf("size is %d, need %d", len(b.data), need)
		}
		if n > len(b.data) {
			return nil, snaperrors.New("B002").Wrap(ErrReservationTooLarge).
				WithDetailf("%d is > full buffer size %d", n, len(b.data))
		}

		b.log().Warn("overflow", "max", len(b.data), "need", need)
		b.Clear()
		b.overflowed = true
		need = n
	}

	space := b.data[b.cursize:need]
	b.cursize = need
	return space, nil
}

// Write appends data.
func (b *Buffer) Write(data []byte) error {
	space, err := b.GetSpace(len(data))
	if err != nil {
		return err
	}
	copy(space, data)
	return nil
}

// Insert writes data at pos, shifting the bytes at and after pos to the
// right. pos is clamped to the current size.
func (b *Buffer) Insert(data []byte, pos int) error {
	if pos > b.cursize {
		pos = b.cursize
	}
	if pos < 0 {
		pos = 0
	}

	before := b.cursize
	if _, err := b.GetSpace(len(data)); err != nil {
		return err
	}
	if b.cursize != before+len(data) {
		// overflow discarded the message, data is all that is left
		pos = 0
	}

	copy(b.data[pos+len(data):b.cursize], b.data[pos:b.cursize-len(data)])
	copy(b.data[pos:], data)
	return nil
}

// Print appends a NUL-terminated string. A NUL already ending the buffer
// is overwritten, so repeated calls build one continuous string.
func (b *Buffer) Print(text string) error {
	coalesce := b.cursize > 0 && b.data[b.cursize-1] == 0
	if coalesce {
		b.cursize--
	}

	space, err := b.GetSpace(len(text) + 1)
	if err != nil {
		if coalesce {
			b.cursize++
		}
		return err
	}
	copy(space, text)
	space[len(text)] = 0
	return nil
}

// BeginReading resets the read cursor to the start of the message.
func (b *Buffer) BeginReading() {
	b.readcount = 0
}

// ReadCount returns the read cursor. It may exceed Len after a read past
// the end.
func (b *Buffer) ReadCount() int {
	return b.readcount
}

// Remaining returns the number of unread bytes, never negative.
func (b *Buffer) Remaining() int {
	if b.readcount >= b.cursize {
		return 0
	}
	return b.cursize - b.readcount
}

// Overrun reports whether a read went past the written length.
func (b *Buffer) Overrun() bool {
	return b.readcount > b.cursize
}

// Next returns the next n unread bytes and advances the read cursor by n.
// If fewer than n bytes remain it returns ok=false; the cursor still
// advances so the caller's parse loop observes the end of the message.
func (b *Buffer) Next(n int) (p []byte, ok bool) {
	if n < 0 {
		return nil, false
	}
	start := b.readcount
	b.readcount += n
	if start+n > b.cursize {
		return nil, false
	}
	return b.data[start : start+n], true
}

func (b *Buffer) log() *slog.Logger {
	if b.logger != nil {
		return b.logger
	}
	return slog.Default().With("component", "sizebuf")
}
