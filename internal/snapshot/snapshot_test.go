package snapshot

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/danmuck/suitcase/internal/codec"
	"github.com/danmuck/suitcase/internal/codec/frame"
	"github.com/danmuck/suitcase/internal/testutil/testlog"
)

type checkpoint struct {
	Epoch  uint64
	Label  string
	Deltas []int32
}

func (c *checkpoint) SuitFields() []codec.Field {
	return []codec.Field{
		codec.F(&c.Epoch),
		codec.F(&c.Label),
		codec.SliceOf(&c.Deltas),
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "state", "checkpoint.suit")
	in := checkpoint{Epoch: 42, Label: "nightly", Deltas: []int32{-1, 0, 7}}

	if err := Save(path, &in, codec.DefaultOptions()); err != nil {
		t.Fatalf("save: %v", err)
	}
	out, err := Load[checkpoint](path, codec.DefaultOptions())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch: %+v vs %+v", in, out)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp file cleanup, found %d entries", len(entries))
	}
}

func TestSnapshotFileIsProtectedEncoding(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "checkpoint.suit")
	in := checkpoint{Epoch: 1, Label: "a"}
	if err := Save(path, &in, codec.DefaultOptions()); err != nil {
		t.Fatalf("save: %v", err)
	}
	onDisk, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	want, err := codec.Marshal(&in, true)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !bytes.Equal(onDisk, want) {
		t.Fatalf("snapshot bytes differ from protected encoding")
	}
}

func TestLoadDetectsCorruption(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "checkpoint.suit")
	in := checkpoint{Epoch: 9, Label: "corrupt-me"}
	if err := Save(path, &in, codec.DefaultOptions()); err != nil {
		t.Fatalf("save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	data[len(data)-1] ^= 0xFF
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if _, err := Load[checkpoint](path, codec.DefaultOptions()); !errors.Is(err, codec.ErrIntegrity) {
		t.Fatalf("expected integrity error, got %v", err)
	}
	report, err := Inspect(path, codec.DefaultOptions())
	if err == nil || report.Valid || report.Magic != "SUITCASE" {
		t.Fatalf("unexpected inspect result: %+v err=%v", report, err)
	}
}

func TestReadShortStreamIsBounds(t *testing.T) {
	testlog.Start(t)
	var buf bytes.Buffer
	in := checkpoint{Epoch: 3}
	if err := Write(&buf, &in, codec.DefaultOptions()); err != nil {
		t.Fatalf("write: %v", err)
	}
	truncated := buf.Bytes()[:buf.Len()-1]
	if _, err := Read[checkpoint](bytes.NewReader(truncated), codec.DefaultOptions()); !errors.Is(err, codec.ErrBounds) {
		t.Fatalf("expected bounds error, got %v", err)
	}
	if _, err := Read[checkpoint](bytes.NewReader(nil), codec.DefaultOptions()); !errors.Is(err, codec.ErrBounds) {
		t.Fatalf("expected bounds error for empty stream, got %v", err)
	}
}

func TestSaveRespectsLimits(t *testing.T) {
	testlog.Start(t)
	opts := codec.DefaultOptions()
	opts.Limits = frame.Limits{MaxPayloadBytes: 8}
	in := checkpoint{Label: "longer than eight bytes"}
	path := filepath.Join(t.TempDir(), "big.suit")
	if err := Save(path, &in, opts); !errors.Is(err, codec.ErrTooLarge) {
		t.Fatalf("expected too large, got %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("failed save must not leave a file: %v", err)
	}
}

func TestInspectReportsHeader(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "checkpoint.suit")
	in := checkpoint{Epoch: 5, Label: "ok"}
	if err := Save(path, &in, codec.DefaultOptions()); err != nil {
		t.Fatalf("save: %v", err)
	}
	report, err := Inspect(path, codec.DefaultOptions())
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !report.Valid || report.Magic != "SUITCASE" || report.Flags != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.FileBytes != int64(frame.HeaderLen)+int64(report.PayloadSize) {
		t.Fatalf("file size %d does not match header %d", report.FileBytes, report.PayloadSize)
	}
}

func TestUnlimitedReadRejectsForgedSize(t *testing.T) {
	testlog.Start(t)
	h := frame.HeaderFor([]byte{1, 2, 3, 4})
	h.PayloadSize = 1 << 60
	forged := append(frame.EncodeHeader(h), 1, 2, 3, 4)

	if _, err := Read[uint32](bytes.NewReader(forged), codec.Options{}); !errors.Is(err, codec.ErrBounds) {
		t.Fatalf("expected bounds error, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "forged.suit")
	if err := os.WriteFile(path, forged, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	report, err := Inspect(path, codec.Options{})
	if !errors.Is(err, frame.ErrTruncatedPayload) || report.Valid {
		t.Fatalf("expected truncated payload report, got %+v err=%v", report, err)
	}
	if report.PayloadSize != 1<<60 {
		t.Fatalf("report should carry the declared size: %d", report.PayloadSize)
	}
}

type observation struct {
	op        string
	typ       string
	protected bool
	err       error
}

type recordingObserver struct {
	calls []observation
}

func (o *recordingObserver) ObserveEncode(typ string, protected bool, size int, err error) {
	o.calls = append(o.calls, observation{"encode", typ, protected, err})
}

func (o *recordingObserver) ObserveDecode(typ string, protected bool, size int, err error) {
	o.calls = append(o.calls, observation{"decode", typ, protected, err})
}

func TestObserverSeesOneCallPerFrame(t *testing.T) {
	testlog.Start(t)
	obs := &recordingObserver{}
	opts := codec.DefaultOptions()
	opts.Observer = obs
	path := filepath.Join(t.TempDir(), "observed.suit")

	in := checkpoint{Epoch: 11}
	if err := Save(path, &in, opts); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := Load[checkpoint](path, opts); err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := Inspect(path, opts); err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if _, err := Inspect(filepath.Join(t.TempDir(), "missing.suit"), opts); err == nil {
		t.Fatalf("expected missing file error")
	}

	typ := reflect.TypeFor[checkpoint]().String()
	want := []observation{
		{"encode", typ, true, nil},
		{"decode", typ, true, nil},
		{"decode", FrameType, true, nil},
	}
	if !reflect.DeepEqual(obs.calls, want) {
		t.Fatalf("unexpected observations: %+v", obs.calls)
	}
}
