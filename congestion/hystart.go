package congestion

import (
	"time"

	"github.com/nagineni/quic-cc/protocol"
)

// HyStart samples ACK inter-arrival and RTT once per round while the
// sender is in slow start, and signals that slow start should be exited
// early once either the ACK-train or delay-increase trigger fires (spec.md
// §4.2). It keeps no per-sample history — just the two accumulators and a
// count, the same small-struct shape the teacher's
// HybridSlowStart/HybridSlowStartpp use
// (kalelpida-quic-go/internal/congestion/hybrid_slow_start_pp.go).
type HyStart struct {
	clock Clock

	started         bool
	roundStartSeq   protocol.PacketNumber
	earliestAckTime time.Time
	latestAckTime   time.Time
	roundMinRTT     time.Duration
	sampleCount     int
	exited          bool
}

const (
	// hystartMinSamples is the number of ACKs that must land in a round
	// before either trigger is evaluated (spec.md §4.2).
	hystartMinSamples = 8

	hystartEtaMin = 2 * time.Millisecond
	hystartEtaMax = 16 * time.Millisecond
)

// NewHyStart creates a HyStart detector. clock supplies ACK arrival
// timestamps for the ACK-train trigger.
func NewHyStart(clock Clock) *HyStart {
	return &HyStart{clock: clock}
}

// Reset arms a new round: clears the sample accumulators and the latched
// exit signal, and records the round's end marker.
func (h *HyStart) Reset(roundStartSeq protocol.PacketNumber) {
	h.roundStartSeq = roundStartSeq
	h.earliestAckTime = time.Time{}
	h.latestAckTime = time.Time{}
	h.roundMinRTT = 0
	h.sampleCount = 0
	h.started = true
	h.exited = false
}

// Update folds one RTT sample into the current round and evaluates both
// exit triggers once enough samples have accumulated.
func (h *HyStart) Update(rttSample, minRTTGlobal time.Duration) {
	now := h.clock.Now()
	if h.earliestAckTime.IsZero() {
		h.earliestAckTime = now
	}
	h.latestAckTime = now
	if h.roundMinRTT == 0 || rttSample < h.roundMinRTT {
		h.roundMinRTT = rttSample
	}
	h.sampleCount++
	if h.sampleCount < hystartMinSamples {
		return
	}

	if span := h.latestAckTime.Sub(h.earliestAckTime); span > minRTTGlobal/2 {
		h.exited = true
		logger.Debug("hystart: ack-train trigger fired")
		return
	}

	eta := minRTTGlobal / 16
	if eta < hystartEtaMin {
		eta = hystartEtaMin
	}
	if eta > hystartEtaMax {
		eta = hystartEtaMax
	}
	if h.roundMinRTT > minRTTGlobal+eta {
		h.exited = true
		logger.Debug("hystart: delay-increase trigger fired")
	}
}

// EndOfRound reports whether ackSeq closes out the current round.
func (h *HyStart) EndOfRound(ackSeq protocol.PacketNumber) bool {
	return ackSeq >= h.roundStartSeq
}

// Exit reports whether a trigger has fired since the last Reset.
func (h *HyStart) Exit() bool {
	return h.exited
}
