package snapshot

import (
	"sort"

	snaperrors "github.com/snapwire/snapwire/internal/errors"
	"github.com/snapwire/snapwire/pkg/protocol"
)

// Baselines holds the spawn state of each entity. An entity entering a
// client's view is sent as a delta from its baseline rather than from an
// empty state.
//
// Baselines is not safe for concurrent use.
type Baselines struct {
	states map[int]protocol.EntityState
}

// NewBaselines creates an empty baseline set.
func NewBaselines() *Baselines {
	return &Baselines{states: make(map[int]protocol.EntityState)}
}

// Set stores s as the baseline for s.Number.
func (b *Baselines) Set(s protocol.EntityState) error {
	if s.Number <= 0 || s.Number >= protocol.MaxEntities {
		return snaperrors.New("P001").Wrap(protocol.ErrEntityNumber).WithDetailf("baseline %d", s.Number)
	}
	s.Event = 0
	b.states[s.Number] = s
	return nil
}

// Get returns the baseline for number, or an empty state carrying only the
// number when none was set. A nil *Baselines has no entries.
func (b *Baselines) Get(number int) protocol.EntityState {
	if b != nil {
		if s, ok := b.states[number]; ok {
			return s
		}
	}
	return protocol.EntityState{Number: number}
}

// Len returns the number of baselines.
func (b *Baselines) Len() int {
	if b == nil {
		return 0
	}
	return len(b.states)
}

// Numbers returns the entity numbers that have a baseline, ascending.
func (b *Baselines) Numbers() []int {
	if b == nil {
		return nil
	}
	numbers := make([]int, 0, len(b.states))
	for n := range b.states {
		numbers = append(numbers, n)
	}
	sort.Ints(numbers)
	return numbers
}

// Encode writes every baseline as a forced delta from the empty state,
// followed by the list terminator.
func (b *Baselines) Encode(e *protocol.Encoder) error {
	var null protocol.EntityState
	for _, n := range b.Numbers() {
		s := b.states[n]
		if err := e.WriteDeltaEntity(&null, &s, true, true); err != nil {
			return err
		}
	}
	return e.WritePacketEntitiesEnd()
}

// Decode reads baselines written by Encode and stores them, replacing
// existing entries with the same number.
func (b *Baselines) Decode(d *protocol.Decoder) error {
	var null protocol.EntityState
	for {
		bits, number, err := d.ReadEntityBits()
		if err != nil {
			return err
		}
		if number == 0 {
			return nil
		}
		s, err := d.ReadDeltaEntity(&null, bits, number)
		if err != nil {
			return err
		}
		if err := b.Set(s); err != nil {
			return err
		}
	}
}
