package protocol

import (
	"errors"

	snaperrors "github.com/snapwire/snapwire/internal/errors"
)

// Protocol errors. Codec functions return them wrapped in a structured
// error carrying the fatal/soft kind; match with errors.Is.
var (
	ErrRange            = errors.New("protocol: value out of range")
	ErrEntityNumber     = errors.New("protocol: entity number out of range")
	ErrDirOutOfRange    = errors.New("protocol: direction index out of range")
	ErrNegativeSequence = errors.New("protocol: negative checksum sequence")
	ErrUnexpectedEnd    = errors.New("protocol: read past end of message")
	ErrRemoveUnknown    = errors.New("protocol: remove of unknown entity")
)

func newUnexpectedEnd(what string) error {
	return snaperrors.New("P004").Wrap(ErrUnexpectedEnd).WithDetail(what)
}
