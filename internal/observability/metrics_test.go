package observability

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/danmuck/suitcase/internal/codec"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	before := testutil.ToFloat64(codecOps.WithLabelValues("encode", "metrics.test", "true", "ok"))
	RecordCodec("encode", "metrics.test", true, 128, nil)
	RecordCodec("encode", "metrics.test", true, 64, nil)
	after := testutil.ToFloat64(codecOps.WithLabelValues("encode", "metrics.test", "true", "ok"))
	if after-before != 2 {
		t.Fatalf("expected two recorded encodes, got %v", after-before)
	}
}

func TestResultLabels(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{fmt.Errorf("wrapped: %w", codec.ErrIntegrity), "integrity"},
		{codec.ErrTooLarge, "too_large"},
		{codec.ErrFutureVersion, "schema"},
		{codec.ErrBounds, "bounds"},
		{errors.New("other"), "error"},
	}
	for _, tc := range cases {
		if got := Result(tc.err); got != tc.want {
			t.Fatalf("Result(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestCodecObserverLogsFailures(t *testing.T) {
	var out bytes.Buffer
	obs := NewCodecObserver(zerolog.New(&out).Level(zerolog.InfoLevel), true)

	obs.ObserveEncode("observer.test", false, 10, nil)
	if out.Len() != 0 {
		t.Fatalf("successful call should log at debug only: %q", out.String())
	}
	obs.ObserveDecode("observer.test", true, 10, codec.ErrIntegrity)
	if !strings.Contains(out.String(), `"result":"integrity"`) {
		t.Fatalf("expected integrity failure log, got %q", out.String())
	}
	got := testutil.ToFloat64(codecOps.WithLabelValues("decode", "observer.test", "true", "integrity"))
	if got != 1 {
		t.Fatalf("expected one integrity decode metric, got %v", got)
	}
}
