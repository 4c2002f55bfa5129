package observability

import (
	"errors"
	"strconv"
	"sync"

	"github.com/danmuck/suitcase/internal/codec"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce sync.Once

	codecOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "suitcase",
			Subsystem: "codec",
			Name:      "operations_total",
			Help:      "Top-level encode and decode calls.",
		},
		[]string{"op", "type", "protected", "result"},
	)
	codecBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "suitcase",
			Subsystem: "codec",
			Name:      "encoded_bytes",
			Help:      "Size of encoded values in bytes.",
			Buckets:   prometheus.ExponentialBuckets(16, 4, 10),
		},
		[]string{"op", "type", "protected"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(codecOps, codecBytes)
	})
}

// Result classifies a codec error into a low-cardinality label.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, codec.ErrIntegrity):
		return "integrity"
	case errors.Is(err, codec.ErrTooLarge):
		return "too_large"
	case errors.Is(err, codec.ErrSchema):
		return "schema"
	case errors.Is(err, codec.ErrBounds):
		return "bounds"
	default:
		return "error"
	}
}

func RecordCodec(op, typ string, protected bool, size int, err error) {
	RegisterMetrics()
	protectedLabel := strconv.FormatBool(protected)
	codecOps.WithLabelValues(op, typ, protectedLabel, Result(err)).Inc()
	if err == nil {
		codecBytes.WithLabelValues(op, typ, protectedLabel).Observe(float64(size))
	}
}

func RecordEncode(typ string, protected bool, size int, err error) {
	RecordCodec("encode", typ, protected, size, err)
}

func RecordDecode(typ string, protected bool, size int, err error) {
	RecordCodec("decode", typ, protected, size, err)
}
