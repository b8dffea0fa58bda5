package demo

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/maxatome/go-testdeep/td"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel/trace/noop"

	snaperrors "github.com/snapwire/snapwire/internal/errors"
	"github.com/snapwire/snapwire/pkg/metrics"
	"github.com/snapwire/snapwire/pkg/protocol"
	"github.com/snapwire/snapwire/pkg/sizebuf"
)

type fakeS3 struct {
	objects map[string][]byte
	puts    []*s3.PutObjectInput
	err     error
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = data
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func testOptions(m *metrics.Metrics) []Option {
	return []Option{
		WithMetrics(m),
		WithTracerProvider(noop.NewTracerProvider()),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
}

func sampleMessages() [][]byte {
	return [][]byte{
		{0x01, 0x02, 0x03},
		{},
		bytes.Repeat([]byte{0xAB}, protocol.MaxMsgLen),
	}
}

func record(t *testing.T, store Store, name string, msgs [][]byte) {
	t.Helper()
	rec := NewRecorder(store, name, testOptions(nil)...)
	for _, m := range msgs {
		if err := rec.Write(m); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	if err := rec.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
}

func playAll(t *testing.T, store Store, name string) [][]byte {
	t.Helper()
	p, err := Open(context.Background(), store, name, testOptions(nil)...)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer p.Close()

	var got [][]byte
	for {
		msg, err := p.Next()
		if err == io.EOF {
			return got
		}
		if err != nil {
			t.Fatalf("Next() error = %v", err)
		}
		got = append(got, append([]byte{}, msg.Bytes()...))
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	store, err := NewFileStore(filepath.Join(t.TempDir(), "demos"))
	if err != nil {
		t.Fatal(err)
	}

	record(t, store, "match1.dm2", sampleMessages())
	td.Cmp(t, playAll(t, store, "match1.dm2"), sampleMessages())

	entries, _ := os.ReadDir(store.Dir())
	if len(entries) != 1 {
		t.Errorf("store dir has %d entries, want 1 (no temp files)", len(entries))
	}
}

func TestS3StoreRoundTrip(t *testing.T) {
	client := newFakeS3()
	store := NewS3Store(client, "bucket", "demos/")

	record(t, store, "match1.dm2", sampleMessages())
	if _, ok := client.objects["bucket/demos/match1.dm2"]; !ok {
		t.Fatalf("object not stored under prefix, have %v", len(client.objects))
	}
	if got := aws.ToInt64(client.puts[0].ContentLength); got != int64(len(client.objects["bucket/demos/match1.dm2"])) {
		t.Errorf("ContentLength = %d", got)
	}

	td.Cmp(t, playAll(t, store, "match1.dm2"), sampleMessages())
}

func TestStoreNotFound(t *testing.T) {
	fileStore, _ := NewFileStore(t.TempDir())
	stores := map[string]Store{
		"file": fileStore,
		"s3":   NewS3Store(newFakeS3(), "bucket", ""),
	}

	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			_, err := Open(context.Background(), store, "missing.dm2", testOptions(nil)...)
			if !errors.Is(err, ErrNotFound) {
				t.Errorf("Open() error = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStoreInvalidName(t *testing.T) {
	fileStore, _ := NewFileStore(t.TempDir())
	for _, name := range []string{"", "..", "../x", "a/b", `a\b`} {
		if err := fileStore.Put(context.Background(), name, bytes.NewReader(nil)); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Put(%q) error = %v, want ErrInvalidName", name, err)
		}
		if _, err := fileStore.Get(context.Background(), name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("Get(%q) error = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestS3StoreError(t *testing.T) {
	client := newFakeS3()
	client.err = errors.New("network down")

	rec := NewRecorder(NewS3Store(client, "bucket", ""), "x.dm2", testOptions(nil)...)
	err := rec.Close(context.Background())
	if snaperrors.CodeOf(err) != "D003" {
		t.Errorf("Close() error = %v, want D003", err)
	}
}

func TestRecorderMessageTooLarge(t *testing.T) {
	rec := NewRecorder(newMemStore(), "x", append(testOptions(nil), WithMaxMessageLen(4))...)

	err := rec.Write([]byte{1, 2, 3, 4, 5})
	if !errors.Is(err, ErrMessageTooLarge) || !snaperrors.IsFatal(err) {
		t.Errorf("Write() error = %v, want fatal ErrMessageTooLarge", err)
	}
	if rec.Messages() != 0 {
		t.Errorf("Messages() = %d, want 0", rec.Messages())
	}
}

func TestRecorderClosed(t *testing.T) {
	rec := NewRecorder(newMemStore(), "x", testOptions(nil)...)
	rec.Close(context.Background())

	if err := rec.Write([]byte{1}); !errors.Is(err, ErrClosed) {
		t.Errorf("Write() after Close error = %v, want ErrClosed", err)
	}
	if err := rec.Close(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("second Close() error = %v, want ErrClosed", err)
	}
}

func TestRecorderWireFormat(t *testing.T) {
	store := newMemStore()
	rec := NewRecorder(store, "x", testOptions(nil)...)

	buf := sizebuf.New(8)
	buf.Write([]byte{0xAA, 0xBB})
	rec.WriteMessage(buf)
	rec.Close(context.Background())

	want := []byte{
		0x02, 0x00, 0x00, 0x00, 0xAA, 0xBB,
		0xFF, 0xFF, 0xFF, 0xFF,
	}
	if !bytes.Equal(store.data["x"], want) {
		t.Errorf("demo = %x, want %x", store.data["x"], want)
	}
}

func TestPlayerMissingEndMarker(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"after message", []byte{0x01, 0, 0, 0, 0x07}},
		{"short length", []byte{0x01, 0x00}},
		{"short message", []byte{0x04, 0, 0, 0, 0x07}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPlayer(bytes.NewReader(tt.data), testOptions(nil)...)
			var err error
			for err == nil {
				_, err = p.Next()
			}
			if !errors.Is(err, ErrNoEndMarker) {
				t.Fatalf("Next() error = %v, want ErrNoEndMarker", err)
			}
			if !snaperrors.IsSoft(err) {
				t.Error("missing end marker should be soft")
			}
			if _, err := p.Next(); err != io.EOF {
				t.Errorf("Next() after end = %v, want io.EOF", err)
			}
		})
	}
}

func TestPlayerBadLength(t *testing.T) {
	data := []byte{0xFE, 0xFF, 0xFF, 0xFF}
	_, err := NewPlayer(bytes.NewReader(data), testOptions(nil)...).Next()
	if !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("Next() error = %v, want ErrMessageTooLarge", err)
	}

	data = []byte{0x00, 0x10, 0x00, 0x00}
	_, err = NewPlayer(bytes.NewReader(data), testOptions(nil)...).Next()
	if !errors.Is(err, ErrMessageTooLarge) {
		t.Errorf("Next() error = %v, want ErrMessageTooLarge", err)
	}
}

func TestPlayerMessagesDecode(t *testing.T) {
	store := newMemStore()
	rec := NewRecorder(store, "x", testOptions(nil)...)

	e := protocol.NewEncoder(sizebuf.New(protocol.MaxMsgLen))
	e.WriteString("hello")
	e.WriteShort(-3)
	rec.WriteMessage(e.Buffer())
	rec.Close(context.Background())

	p, err := Open(context.Background(), store, "x", testOptions(nil)...)
	if err != nil {
		t.Fatal(err)
	}
	msg, err := p.Next()
	if err != nil {
		t.Fatal(err)
	}
	d := protocol.NewDecoder(msg)
	if s := d.ReadString(); s != "hello" {
		t.Errorf("ReadString() = %q", s)
	}
	if v := d.ReadShort(); v != -3 {
		t.Errorf("ReadShort() = %d", v)
	}
}

func TestRecorderMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(metrics.WithRegistry(reg))
	rec := NewRecorder(newMemStore(), "x", testOptions(m)...)
	rec.Write([]byte{1, 2, 3})
	rec.Write(make([]byte, protocol.MaxMsgLen+1))

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	var messages float64
	for _, f := range families {
		if f.GetName() == "snapwire_demo_messages_total" {
			messages = counterValue(f.GetMetric()[0])
		}
	}
	if messages != 1 {
		t.Errorf("demo_messages_total = %v, want 1", messages)
	}
}

func counterValue(m *dto.Metric) float64 {
	return m.GetCounter().GetValue()
}

type memStore struct {
	data map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{data: make(map[string][]byte)}
}

func (s *memStore) Put(_ context.Context, name string, r io.Reader) error {
	b, err := io.ReadAll(r)
	s.data[name] = b
	return err
}

func (s *memStore) Get(_ context.Context, name string) (io.ReadCloser, error) {
	b, ok := s.data[name]
	if !ok {
		return nil, ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}
