package demo

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	snaperrors "github.com/snapwire/snapwire/internal/errors"
	"github.com/snapwire/snapwire/pkg/metrics"
	"github.com/snapwire/snapwire/pkg/protocol"
	"github.com/snapwire/snapwire/pkg/sizebuf"
)

const defaultTracerName = "snapwire/demo"

// endMarker is the block length that ends a demo.
const endMarker = -1

// Demo errors.
var (
	ErrNoEndMarker     = errors.New("demo: missing end marker")
	ErrMessageTooLarge = errors.New("demo: message too large")
	ErrClosed          = errors.New("demo: recorder closed")
)

// Option configures a Recorder or a Player.
type Option func(*options)

type options struct {
	maxMsgLen int
	metrics   *metrics.Metrics
	tracer    trace.Tracer
	logger    *slog.Logger
}

// WithMaxMessageLen sets the largest message accepted. Default:
// protocol.MaxMsgLen.
func WithMaxMessageLen(n int) Option {
	return func(o *options) {
		o.maxMsgLen = n
	}
}

// WithMetrics sets the collectors recorded messages are counted in.
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
	o := options{maxMsgLen: protocol.MaxMsgLen}
	for _, opt := range opts {
		opt(&o)
	}
	if o.tracer == nil {
		o.tracer = otel.Tracer(defaultTracerName)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	o.logger = o.logger.With("component", "demo")
	return o
}

// Recorder accumulates messages and stores them as a demo on Close.
// It is not safe for concurrent use.
type Recorder struct {
	options
	store    Store
	name     string
	buf      bytes.Buffer
	messages int
	closed   bool
}

// NewRecorder creates a recorder that will store its demo under name.
func NewRecorder(store Store, name string, opts ...Option) *Recorder {
	return &Recorder{
		options: newOptions(opts),
		store:   store,
		name:    name,
	}
}

// WriteMessage appends the written region of msg.
func (r *Recorder) WriteMessage(msg *sizebuf.Buffer) error {
	return r.Write(msg.Bytes())
}

// Write appends one message. A message larger than the maximum message
// length is a fatal error and is not recorded.
func (r *Recorder) Write(msg []byte) error {
	if r.closed {
		return ErrClosed
	}
	if len(msg) > r.maxMsgLen {
		return snaperrors.New("D002").Wrap(ErrMessageTooLarge).
			WithDetailf("%d > %d", len(msg), r.maxMsgLen)
	}

	var hdr [4]byte
	binary.LittleEndian.PutUint32(hdr[:], uint32(len(msg)))
	r.buf.Write(hdr[:])
	r.buf.Write(msg)

	r.messages++
	r.metrics.RecordDemoMessage(len(msg))
	return nil
}

// Messages returns the number of messages recorded so far.
func (r *Recorder) Messages() int {
	return r.messages
}

// Close writes the end marker and stores the demo. Further writes fail
// with ErrClosed.
func (r *Recorder) Close(ctx context.Context) error {
	if r.closed {
		return ErrClosed
	}
	r.closed = true

	var end [4]byte
	m := int32(endMarker)
	binary.LittleEndian.PutUint32(end[:], uint32(m))
	r.buf.Write(end[:])

	ctx, span := r.tracer.Start(ctx, "demo.Store",
		trace.WithAttributes(
			attribute.String("demo.name", r.name),
			attribute.Int("demo.messages", r.messages),
			attribute.Int("demo.bytes", r.buf.Len()),
		),
	)
	defer span.End()

	if err := r.store.Put(ctx, r.name, bytes.NewReader(r.buf.Bytes())); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Error("demo store failed", "name", r.name, "error", err)
		return err
	}

	r.logger.Info("demo recorded", "name", r.name, "messages", r.messages, "bytes", r.buf.Len())
	return nil
}

// Player reads messages back from a demo.
type Player struct {
	options
	r      *bufio.Reader
	closer io.Closer
	done   bool
}

// NewPlayer reads a demo from r.
func NewPlayer(r io.Reader, opts ...Option) *Player {
	p := &Player{
		options: newOptions(opts),
		r:       bufio.NewReader(r),
	}
	if c, ok := r.(io.Closer); ok {
		p.closer = c
	}
	return p
}

// Open opens the demo stored under name.
func Open(ctx context.Context, store Store, name string, opts ...Option) (*Player, error) {
	o := newOptions(opts)
	ctx, span := o.tracer.Start(ctx, "demo.Open",
		trace.WithAttributes(attribute.String("demo.name", name)))
	defer span.End()

	rc, err := store.Get(ctx, name)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return &Player{options: o, r: bufio.NewReader(rc), closer: rc}, nil
}

// Next returns the next message as a buffer ready for reading. It returns
// io.EOF at the end marker. A demo that stops without the marker returns a
// soft error wrapping ErrNoEndMarker.
func (p *Player) Next() (*sizebuf.Buffer, error) {
	if p.done {
		return nil, io.EOF
	}

	var hdr [4]byte
	if _, err := io.ReadFull(p.r, hdr[:]); err != nil {
		return nil, p.truncated(err, "length")
	}

	n := int32(binary.LittleEndian.Uint32(hdr[:]))
	if n == endMarker {
		p.done = true
		return nil, io.EOF
	}
	if n < 0 || int(n) > p.maxMsgLen {
		return nil, snaperrors.New("D002").Wrap(ErrMessageTooLarge).
			WithDetailf("%d > %d", n, p.maxMsgLen)
	}

	msg := make([]byte, n)
	if _, err := io.ReadFull(p.r, msg); err != nil {
		return nil, p.truncated(err, "message")
	}
	return sizebuf.FromBytes(msg), nil
}

func (p *Player) truncated(err error, what string) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		p.done = true
		p.logger.Warn("demo ended without end marker", "at", what)
		return snaperrors.New("D001").Wrap(ErrNoEndMarker).WithDetail(what)
	}
	return snaperrors.New("D003").Wrap(err).WithDetail(what)
}

// Close closes the underlying reader if it has one.
func (p *Player) Close() error {
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}
