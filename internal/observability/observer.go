package observability

import (
	"github.com/rs/zerolog"
)

// CodecObserver records codec calls as metrics and logs failures.
type CodecObserver struct {
	Logger  zerolog.Logger
	Metrics bool
}

func NewCodecObserver(logger zerolog.Logger, metrics bool) *CodecObserver {
	return &CodecObserver{Logger: logger, Metrics: metrics}
}

func (o *CodecObserver) ObserveEncode(typ string, protected bool, size int, err error) {
	if o.Metrics {
		RecordEncode(typ, protected, size, err)
	}
	o.log("encode", typ, protected, size, err)
}

func (o *CodecObserver) ObserveDecode(typ string, protected bool, size int, err error) {
	if o.Metrics {
		RecordDecode(typ, protected, size, err)
	}
	o.log("decode", typ, protected, size, err)
}

func (o *CodecObserver) log(op, typ string, protected bool, size int, err error) {
	event := o.Logger.Debug()
	if err != nil {
		event = o.Logger.Warn().Err(err)
	}
	event.
		Str("op", op).
		Str("type", typ).
		Bool("protected", protected).
		Int("bytes", size).
		Str("result", Result(err)).
		Msg("codec_call")
}
