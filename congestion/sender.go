// Package congestion implements a sender-side congestion controller for a
// reliable datagram transport, modelled on TCP with Cubic (default) and
// Reno (testing) growth laws, augmented by HyStart for slow-start exit.
//
// The controller is passive: it never calls outward. The owning transport
// drives it with OnPacketSent/OnAck/OnLoss/OnFeedback/OnTimeout and
// queries it with TimeUntilSend/SmoothedRtt/RetransmissionDelay/
// CongestionWindow. It is single-threaded; the caller must serialize all
// access to a given Sender, the same contract the teacher's cubicSender
// assumes (NithinPJ998-quic-go/congestion/cubic_sender.go).
package congestion

import (
	"time"

	"github.com/nagineni/quic-cc/protocol"
)

// TransmissionType classifies an outgoing packet for the purposes of
// congestion-control bypass rules (spec.md §3, §4.4).
type TransmissionType int

const (
	// TransmissionOriginal is a packet carrying new data, not a
	// retransmission of anything previously sent.
	TransmissionOriginal TransmissionType = iota
	// TransmissionNackRetransmit is a retransmission triggered by an
	// explicit NACK signal from the peer.
	TransmissionNackRetransmit
	// TransmissionOtherRetransmit is any other kind of retransmission
	// (e.g. a timeout-driven resend).
	TransmissionOtherRetransmit
)

// Bandwidth is a throughput estimate in bytes per second. The controller
// never produces anything but zero (spec.md §6, Open Question (b)): a real
// bandwidth estimator is out of scope.
type Bandwidth int64

// Sender is the congestion-control state machine (spec.md §4.4, component
// C4). It owns the congestion window, slow-start threshold, bytes in
// flight, and the round-end marker, and orchestrates the Cubic
// calculator, the HyStart detector, and the RTT estimator on every event.
type Sender struct {
	clock Clock

	cwnd     int64 // segments
	ssthresh int64 // segments
	maxCwnd  int64 // segments, hard upper bound

	bytesInFlight protocol.ByteCount
	receiveWindow protocol.ByteCount

	reno      bool
	cwndCount int64

	endSeq       protocol.PacketNumber
	updateEndSeq bool

	lastLostTotal uint64

	mss protocol.ByteCount

	rtt     *RTTStats
	cubic   *Cubic
	hystart *HyStart

	telemetry Telemetry
}

// NewSender constructs a Sender. reno selects Reno growth instead of
// Cubic, immutably for the life of the connection (spec.md §3). maxCwnd is
// the hard upper bound on the congestion window, in segments; if zero or
// negative, protocol.MaxCongestionWindowPackets is used. clock may be nil,
// in which case DefaultClock (the wall clock) is used.
func NewSender(clock Clock, reno bool, maxCwnd protocol.ByteCount) *Sender {
	if clock == nil {
		clock = DefaultClock
	}
	maxSegments := int64(maxCwnd)
	if maxSegments <= 0 {
		maxSegments = int64(protocol.MaxCongestionWindowPackets)
	}
	return &Sender{
		clock:         clock,
		cwnd:          int64(protocol.InitialCongestionWindow),
		ssthresh:      maxSegments,
		maxCwnd:       maxSegments,
		receiveWindow: protocol.DefaultReceiveWindow,
		reno:          reno,
		updateEndSeq:  true,
		mss:           protocol.DefaultTCPMSS,
		rtt:           NewRTTStats(),
		cubic:         NewCubic(clock),
		hystart:       NewHyStart(clock),
		telemetry:     NopTelemetry{},
	}
}

// SetTelemetry installs the sink that receives the end-of-life lifecycle
// sample emitted by Close (spec.md §6: "a single histogram observation is
// emitted at end-of-life").
func (s *Sender) SetTelemetry(t Telemetry) {
	if t == nil {
		t = NopTelemetry{}
	}
	s.telemetry = t
}

// SetFromConfig applies boot-time configuration. Only the server side may
// override the initial congestion window (spec.md §4.4 "Configuration");
// the client keeps the default of 10 segments.
func (s *Sender) SetFromConfig(cfg BootConfig, isServer bool) {
	if isServer && cfg.ServerInitialCongestionWindow > 0 {
		s.cwnd = int64(cfg.ServerInitialCongestionWindow)
	}
}

// SetCongestionWindow forces the congestion window to the given number of
// bytes, clamped to the minimum congestion window.
func (s *Sender) SetCongestionWindow(bytes protocol.ByteCount) {
	cwnd := int64(bytes / s.mss)
	if cwnd < int64(protocol.MinCongestionWindow) {
		cwnd = int64(protocol.MinCongestionWindow)
	}
	s.cwnd = cwnd
}

// CongestionWindow returns the current congestion window in bytes.
func (s *Sender) CongestionWindow() protocol.ByteCount {
	return protocol.ByteCount(s.cwnd) * s.mss
}

// SmoothedRtt returns the current smoothed round-trip time.
func (s *Sender) SmoothedRtt() time.Duration {
	return s.rtt.SmoothedRTT()
}

// RetransmissionDelay returns the current retransmission timeout.
func (s *Sender) RetransmissionDelay() time.Duration {
	return s.rtt.RetransmissionDelay()
}

// BandwidthEstimate always returns zero (spec.md §6, Open Question (b)).
func (s *Sender) BandwidthEstimate() Bandwidth {
	return 0
}

// availableSendWindow is spec.md §4.4's
// max(0, min(receive_window, cwnd·MSS) − bytes_in_flight).
func (s *Sender) availableSendWindow() protocol.ByteCount {
	sendWindow := protocol.MinByteCountOf(s.receiveWindow, protocol.ByteCount(s.cwnd)*s.mss)
	if s.bytesInFlight >= sendWindow {
		return 0
	}
	return sendWindow - s.bytesInFlight
}

// TimeUntilSend answers "may I send now, and if not, how long should I
// wait?" (spec.md §4.4 "Send permission"). A zero Duration means send now;
// infiniteDuration means blocked.
func (s *Sender) TimeUntilSend(transmissionType TransmissionType, hasRetransmittableData, isHandshake bool) time.Duration {
	if !hasRetransmittableData || transmissionType == TransmissionNackRetransmit || isHandshake {
		return 0
	}
	if s.availableSendWindow() > 0 {
		return 0
	}
	return infiniteDuration
}

// OnPacketSent records a packet leaving the wire. Non-retransmittable
// packets (pure ACKs) do not touch controller state at all.
func (s *Sender) OnPacketSent(seq protocol.PacketNumber, bytes protocol.ByteCount, transmissionType TransmissionType, hasRetransmittableData bool) {
	if !hasRetransmittableData {
		return
	}
	s.bytesInFlight += bytes
	if transmissionType == TransmissionOriginal && s.updateEndSeq {
		s.endSeq = seq
		if s.availableSendWindow() == 0 {
			s.updateEndSeq = false
		}
	}
}

// OnPacketAbandoned removes abandoned bytes from the in-flight count
// without any congestion-window adjustment: abandonment is not loss
// (spec.md §4.4 "On packet abandoned").
func (s *Sender) OnPacketAbandoned(_ protocol.PacketNumber, abandonedBytes protocol.ByteCount) {
	if abandonedBytes > s.bytesInFlight {
		noteViolation("sender: bytes_in_flight would go negative on abandon")
		s.bytesInFlight = 0
		return
	}
	s.bytesInFlight -= abandonedBytes
}

// OnAck processes an acknowledgement for a single packet. rtt may be zero
// or infinite, in which case it is treated as an unusable timing sample
// and discarded (spec.md §4.4 "On ACK").
func (s *Sender) OnAck(seq protocol.PacketNumber, bytesAcked protocol.ByteCount, rtt time.Duration) {
	if bytesAcked > s.bytesInFlight {
		noteViolation("sender: bytes_in_flight would go negative on ack")
		s.bytesInFlight = 0
	} else {
		s.bytesInFlight -= bytesAcked
	}

	s.congestionAvoidance(seq)

	s.rtt.UpdateRTT(rtt)
	if rtt > 0 && rtt != infiniteDuration {
		if s.cwnd <= s.ssthresh && s.cwnd >= int64(protocol.HybridStartLowWindow) {
			if !s.hystart.started {
				s.hystart.Reset(s.endSeq)
			}
			s.hystart.Update(rtt, s.rtt.MinRTT())
			if s.hystart.Exit() {
				s.ssthresh = s.cwnd
				logger.Info("sender: hystart exit, entering congestion avoidance")
			}
		}
	}

	if seq == s.endSeq {
		s.updateEndSeq = true
	}
}

// isCwndLimited reports whether the sender is pushing hard enough against
// the window to justify growing it (spec.md §4.4: "within one burst of
// the edge").
func (s *Sender) isCwndLimited() bool {
	cwndBytes := protocol.ByteCount(s.cwnd) * s.mss
	if s.bytesInFlight >= cwndBytes {
		return true
	}
	return cwndBytes-s.bytesInFlight <= protocol.MaxBurstPackets*s.mss
}

// congestionAvoidance implements spec.md §4.4's "On ACK" step 2: growth in
// slow start or congestion avoidance, gated on IsCwndLimited. Mirrors the
// original's CongestionAvoidance ordering (original_source/net/quic/
// congestion_control/tcp_cubic_sender.cc): the slow-start branch can reset
// the HyStart round before the RTT sample is fed to it later in OnAck.
func (s *Sender) congestionAvoidance(seq protocol.PacketNumber) {
	if !s.isCwndLimited() {
		return
	}

	if s.cwnd < s.ssthresh {
		if s.hystart.EndOfRound(seq) {
			s.hystart.Reset(s.endSeq)
		}
		if s.cwnd < s.maxCwnd {
			s.cwnd++
		}
		return
	}

	if s.cwnd >= s.maxCwnd {
		return
	}
	if s.reno {
		s.cwndCount++
		if s.cwndCount >= s.cwnd {
			s.cwnd++
			s.cwndCount = 0
		}
		return
	}
	next := s.cubic.CongestionWindowAfterAck(s.cwnd, s.rtt.MinRTT())
	if next > s.maxCwnd {
		next = s.maxCwnd
	}
	s.cwnd = next
}

// OnLoss applies a single multiplicative-decrease event. Per spec.md §9
// Open Question (a), the controller applies this unconditionally on every
// call: it does not guard against multiple invocations within one RTT. A
// transport that wants loss events coalesced within an RTT must do so
// itself before calling OnLoss.
func (s *Sender) OnLoss(_ time.Time) {
	if s.reno {
		s.cwnd >>= 1
	} else {
		s.cwnd = s.cubic.CongestionWindowAfterPacketLoss(s.cwnd)
	}
	if s.cwnd < int64(protocol.MinCongestionWindow) {
		s.cwnd = int64(protocol.MinCongestionWindow)
	}
	s.ssthresh = s.cwnd
	logger.Info("sender: loss event")
}

// OnFeedback consumes a peer feedback report. A single OnLoss is applied
// if, and only if, the peer's cumulative lost-packet counter increased
// since the last report; a decreasing counter is treated as a peer reset
// (spec.md §9 Open Question (c)) and only rebaselines the counter.
func (s *Sender) OnFeedback(peerCumulativeLost uint64, peerReceiveWindow protocol.ByteCount, t time.Time) {
	delta := int64(peerCumulativeLost) - int64(s.lastLostTotal)
	if delta > 0 {
		s.OnLoss(t)
	}
	s.lastLostTotal = peerCumulativeLost
	s.receiveWindow = peerReceiveWindow
}

// OnTimeout handles a retransmission timeout. ssthresh is deliberately
// left untouched; the subsequent slow start re-discovers it (spec.md
// §4.4 "On timeout").
func (s *Sender) OnTimeout() {
	s.cubic.Reset()
	s.cwnd = 1
	logger.Info("sender: retransmission timeout")
}

// Close emits the end-of-life lifecycle sample (spec.md §6). It does not
// reset any state; calling any mutator afterwards is legal but pointless.
func (s *Sender) Close() {
	s.telemetry.Emit(LifecycleSample{FinalCongestionWindowSegments: s.cwnd})
}
