// Package snapshot encodes whole packet-entities frames: the set of
// entities a client sees, sent as deltas against the frame it last
// acknowledged.
package snapshot

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	snaperrors "github.com/snapwire/snapwire/internal/errors"
	"github.com/snapwire/snapwire/pkg/metrics"
	"github.com/snapwire/snapwire/pkg/protocol"
)

const defaultTracerName = "snapwire/snapshot"

// maxNumber sorts after every valid entity number.
const maxNumber = protocol.MaxEntities

// ErrFrameDiscarded reports a frame lost to an allowed buffer overflow.
var ErrFrameDiscarded = errors.New("snapshot: buffer overflowed, frame discarded")

// Option configures an Encoder or a Decoder.
type Option func(*options)

type options struct {
	baselines *Baselines
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	logger    *slog.Logger
}

// WithBaselines sets the baselines new entities are delta'd from.
func WithBaselines(b *Baselines) Option {
	return func(o *options) {
		o.baselines = b
	}
}

// WithMetrics sets the collectors frames are recorded to.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithTracerProvider sets the tracer provider. Default: the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracer = tp.Tracer(defaultTracerName)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

func newOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(defaultTracerName)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	o.logger = o.logger.With("component", "snapshot")
	return o
}

// Encoder writes packet-entities frames. It is not safe for concurrent use.
type Encoder struct {
	options
}

// NewEncoder creates a frame encoder.
func NewEncoder(opts ...Option) *Encoder {
	return &Encoder{options: newOptions(opts)}
}

// Baselines returns the baselines in use, which may be nil.
func (f *Encoder) Baselines() *Baselines {
	return f.baselines
}

// EncodeFrame writes the delta from the from frame to the to frame, then
// the list terminator. Both lists must be sorted by entity number.
//
// Entities present in both frames are sent only if they changed. Entities
// only in to are sent in full against their baseline. Entities only in
// from get a remove record.
//
// If the buffer allows overflow and fills up, it is cleared and marked
// overflowed; EncodeFrame then returns a soft B003 error and the frame is
// not recorded.
func (f *Encoder) EncodeFrame(ctx context.Context, e *protocol.Encoder, from, to []protocol.EntityState) error {
	_, span := f.tracer.Start(ctx, "snapshot.EncodeFrame",
		trace.WithAttributes(
			attribute.Int("snapshot.from_entities", len(from)),
			attribute.Int("snapshot.to_entities", len(to)),
		),
	)
	defer span.End()

	err := f.encodeFrame(span, e, from, to)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		f.logger.Warn("frame encode failed", "error", err)
	}
	return err
}

func (f *Encoder) encodeFrame(span trace.Span, e *protocol.Encoder, from, to []protocol.EntityState) error {
	if err := checkSorted(from); err != nil {
		return err
	}
	if err := checkSorted(to); err != nil {
		return err
	}

	start := e.Len()
	var deltas, added, removed int

	oldIndex, newIndex := 0, 0
	for oldIndex < len(from) || newIndex < len(to) {
		oldNum, newNum := maxNumber, maxNumber
		if oldIndex < len(from) {
			oldNum = from[oldIndex].Number
		}
		if newIndex < len(to) {
			newNum = to[newIndex].Number
		}

		switch {
		case newNum == oldNum:
			// delta from the previous frame; unchanged entities write nothing
			old, cur := &from[oldIndex], &to[newIndex]
			written, err := f.writeDelta(e, old, cur, false, false)
			if err != nil {
				return err
			}
			if written {
				deltas++
			}
			oldIndex++
			newIndex++

		case newNum < oldNum:
			// entering view: delta from the baseline
			base := f.baselines.Get(newNum)
			if _, err := f.writeDelta(e, &base, &to[newIndex], true, true); err != nil {
				return err
			}
			added++
			newIndex++

		default:
			// left view
			if err := e.WriteRemoveEntity(oldNum); err != nil {
				return err
			}
			f.metrics.RecordEntityRemove()
			removed++
			oldIndex++
		}
	}

	if err := e.WritePacketEntitiesEnd(); err != nil {
		return err
	}
	if e.Buffer().Overflowed() {
		span.SetAttributes(attribute.Bool("snapshot.overflowed", true))
		return snaperrors.New("B003").Wrap(ErrFrameDiscarded).
			WithDetailf("%d entities, buffer capacity %d", len(to), e.Buffer().Cap())
	}

	size := e.Len() - start
	span.SetAttributes(
		attribute.Int("snapshot.deltas", deltas),
		attribute.Int("snapshot.added", added),
		attribute.Int("snapshot.removed", removed),
		attribute.Int("snapshot.bytes", size),
	)
	f.metrics.RecordFrame(size, len(to))
	f.logger.Debug("frame encoded",
		"entities", len(to), "deltas", deltas, "added", added, "removed", removed, "bytes", size)
	return nil
}

func (f *Encoder) writeDelta(e *protocol.Encoder, from, to *protocol.EntityState, force, isNew bool) (bool, error) {
	before := e.Len()
	if err := e.WriteDeltaEntity(from, to, force, isNew); err != nil {
		return false, err
	}
	if e.Len() == before {
		return false, nil
	}

	bits := protocol.DeltaBits(from, to, isNew)
	if to.Number >= 256 {
		bits |= protocol.UNumber16
	}
	f.metrics.RecordEntityDelta(bits.MaskLen())
	return true, nil
}

// Decoder reads packet-entities frames. It is not safe for concurrent use.
type Decoder struct {
	options
}

// NewDecoder creates a frame decoder.
func NewDecoder(opts ...Option) *Decoder {
	return &Decoder{options: newOptions(opts)}
}

// DecodeFrame reads a frame written by EncodeFrame and applies it to from,
// returning the new entity list sorted by number. Entities carried over
// unchanged have their event cleared.
func (f *Decoder) DecodeFrame(ctx context.Context, d *protocol.Decoder, from []protocol.EntityState) ([]protocol.EntityState, error) {
	_, span := f.tracer.Start(ctx, "snapshot.DecodeFrame",
		trace.WithAttributes(attribute.Int("snapshot.from_entities", len(from))),
	)
	defer span.End()

	to, err := f.decodeFrame(d, from)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		f.logger.Warn("frame decode failed", "error", err)
		return nil, err
	}
	span.SetAttributes(attribute.Int("snapshot.to_entities", len(to)))
	return to, nil
}

func (f *Decoder) decodeFrame(d *protocol.Decoder, from []protocol.EntityState) ([]protocol.EntityState, error) {
	if err := checkSorted(from); err != nil {
		return nil, err
	}

	to := make([]protocol.EntityState, 0, len(from))
	carry := func(s protocol.EntityState) {
		s.Event = 0
		to = append(to, s)
	}

	oldIndex := 0
	for {
		bits, number, err := d.ReadEntityBits()
		if err != nil {
			return nil, err
		}
		if number == 0 {
			break
		}
		if number >= protocol.MaxEntities {
			return nil, snaperrors.New("P001").Wrap(protocol.ErrEntityNumber).WithDetailf("number %d", number)
		}
		if n := len(to); n > 0 && to[n-1].Number >= number {
			return nil, snaperrors.New("P006").WithDetailf("%d after %d", number, to[n-1].Number)
		}

		for oldIndex < len(from) && from[oldIndex].Number < number {
			carry(from[oldIndex])
			oldIndex++
		}

		inOld := oldIndex < len(from) && from[oldIndex].Number == number

		if bits&protocol.URemove != 0 {
			if !inOld {
				return nil, snaperrors.New("P005").Wrap(protocol.ErrRemoveUnknown).WithDetailf("number %d", number)
			}
			oldIndex++
			continue
		}

		var base protocol.EntityState
		if inOld {
			base = from[oldIndex]
			oldIndex++
		} else {
			base = f.baselines.Get(number)
		}

		s, err := d.ReadDeltaEntity(&base, bits, number)
		if err != nil {
			return nil, err
		}
		to = append(to, s)
	}

	for ; oldIndex < len(from); oldIndex++ {
		carry(from[oldIndex])
	}
	return to, nil
}

func checkSorted(list []protocol.EntityState) error {
	for i := 1; i < len(list); i++ {
		if list[i].Number <= list[i-1].Number {
			return snaperrors.New("P006").WithDetailf("%d after %d", list[i].Number, list[i-1].Number)
		}
	}
	return nil
}
