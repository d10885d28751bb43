package congestion

import (
	"io"

	"github.com/francoispqt/gojay"
)

// LifecycleSample is the single end-of-life observation a Sender reports
// (spec.md §6: "a single histogram observation is emitted at end-of-life,
// recording the final congestion window"). It is encoded with gojay for
// the same low-allocation reason the teacher's qlog package picks it for
// per-packet event records.
type LifecycleSample struct {
	FinalCongestionWindowSegments int64
}

var _ gojay.MarshalerJSONObject = LifecycleSample{}

// MarshalJSONObject implements gojay.MarshalerJSONObject.
func (s LifecycleSample) MarshalJSONObject(enc *gojay.Encoder) {
	enc.Int64Key("final_congestion_window_segments", s.FinalCongestionWindowSegments)
}

// IsNil implements gojay.MarshalerJSONObject.
func (s LifecycleSample) IsNil() bool { return false }

// Telemetry receives the lifecycle sample a Sender emits from Close. The
// default is a no-op sink; a transport that wants the sample on the wire
// installs a JSONTelemetry (or its own sink) with SetTelemetry.
type Telemetry interface {
	Emit(sample LifecycleSample)
}

// NopTelemetry discards every sample. It is the default Sender.telemetry.
type NopTelemetry struct{}

// Emit implements Telemetry by doing nothing.
func (NopTelemetry) Emit(LifecycleSample) {}

// JSONTelemetry writes each lifecycle sample to w as a single JSON object
// per line, gojay-encoded.
type JSONTelemetry struct {
	w io.Writer
}

// NewJSONTelemetry creates a Telemetry sink that gojay-encodes every
// sample to w.
func NewJSONTelemetry(w io.Writer) *JSONTelemetry {
	return &JSONTelemetry{w: w}
}

// Emit implements Telemetry.
func (t *JSONTelemetry) Emit(sample LifecycleSample) {
	enc := gojay.BorrowEncoder(t.w)
	defer enc.Release()
	if err := enc.EncodeObject(sample); err != nil {
		logger.Warn("telemetry: encode lifecycle sample failed")
		return
	}
	_, _ = t.w.Write([]byte("\n"))
}
