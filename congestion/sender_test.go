package congestion

import (
	"time"

	"github.com/nagineni/quic-cc/protocol"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

type fakeTelemetry struct {
	samples []LifecycleSample
}

func (f *fakeTelemetry) Emit(s LifecycleSample) {
	f.samples = append(f.samples, s)
}

var _ = Describe("Sender", func() {
	var clock mockClock

	BeforeEach(func() {
		clock = mockClock{}
	})

	It("grows the window by one segment per ACK during slow start", func() {
		sender := NewSender(&clock, true, 0)
		Expect(sender.CongestionWindow()).To(Equal(10 * protocol.DefaultTCPMSS))

		for i := protocol.PacketNumber(1); i <= 10; i++ {
			sender.OnPacketSent(i, protocol.DefaultTCPMSS, TransmissionOriginal, true)
		}
		Expect(sender.TimeUntilSend(TransmissionOriginal, true, false)).To(Equal(infiniteDuration))

		for i := protocol.PacketNumber(1); i <= 10; i++ {
			sender.OnAck(i, protocol.DefaultTCPMSS, 50*time.Millisecond)
		}
		Expect(sender.CongestionWindow()).To(Equal(20 * protocol.DefaultTCPMSS))
		Expect(sender.SmoothedRtt()).To(Equal(50 * time.Millisecond))
		Expect(sender.TimeUntilSend(TransmissionOriginal, true, false)).To(Equal(time.Duration(0)))
	})

	It("halves the Reno window on loss and sets ssthresh to match", func() {
		sender := NewSender(&clock, true, 0)
		sender.SetCongestionWindow(20 * protocol.DefaultTCPMSS)
		sender.OnLoss(time.Time{})
		Expect(sender.CongestionWindow()).To(Equal(10 * protocol.DefaultTCPMSS))
		Expect(sender.ssthresh).To(Equal(int64(10)))
	})

	It("applies Cubic fast convergence across two losses", func() {
		sender := NewSender(&clock, false, 0)
		sender.SetCongestionWindow(200 * protocol.DefaultTCPMSS)
		sender.OnLoss(time.Time{})
		Expect(sender.CongestionWindow()).To(Equal(140 * protocol.DefaultTCPMSS))

		sender.SetCongestionWindow(100 * protocol.DefaultTCPMSS)
		sender.OnLoss(time.Time{})
		Expect(sender.CongestionWindow()).To(Equal(70 * protocol.DefaultTCPMSS))
	})

	It("never reduces the congestion window below one segment", func() {
		sender := NewSender(&clock, true, 0)
		sender.SetCongestionWindow(1 * protocol.DefaultTCPMSS)
		sender.OnLoss(time.Time{})
		Expect(sender.CongestionWindow()).To(Equal(1 * protocol.DefaultTCPMSS))
	})

	It("bypasses send blocking for non-retransmittable and handshake packets", func() {
		sender := NewSender(&clock, true, 0)
		sender.SetCongestionWindow(1 * protocol.DefaultTCPMSS)
		sender.OnPacketSent(1, protocol.DefaultTCPMSS, TransmissionOriginal, true)

		Expect(sender.TimeUntilSend(TransmissionOriginal, false, false)).To(Equal(time.Duration(0)))
		Expect(sender.TimeUntilSend(TransmissionOriginal, true, false)).To(Equal(infiniteDuration))
		Expect(sender.TimeUntilSend(TransmissionOriginal, true, true)).To(Equal(time.Duration(0)))
		Expect(sender.TimeUntilSend(TransmissionNackRetransmit, true, false)).To(Equal(time.Duration(0)))
	})

	It("frees the send window when an abandoned packet's bytes are removed", func() {
		sender := NewSender(&clock, true, 0)
		sender.SetCongestionWindow(1 * protocol.DefaultTCPMSS)
		sender.OnPacketSent(1, protocol.DefaultTCPMSS, TransmissionOriginal, true)
		Expect(sender.TimeUntilSend(TransmissionOriginal, true, false)).To(Equal(infiniteDuration))

		sender.OnPacketAbandoned(1, protocol.DefaultTCPMSS)
		Expect(sender.TimeUntilSend(TransmissionOriginal, true, false)).To(Equal(time.Duration(0)))
	})

	It("applies a loss only when the peer's cumulative-lost counter increases", func() {
		sender := NewSender(&clock, true, 0)
		sender.SetCongestionWindow(20 * protocol.DefaultTCPMSS)

		// Baseline report: lastLostTotal starts at zero, so this first
		// report is itself seen as an increase and halves the window.
		sender.OnFeedback(5, protocol.DefaultReceiveWindow, time.Time{})
		Expect(sender.CongestionWindow()).To(Equal(10 * protocol.DefaultTCPMSS))

		// Counter advanced: one more loss applied.
		sender.OnFeedback(8, protocol.DefaultReceiveWindow, time.Time{})
		Expect(sender.CongestionWindow()).To(Equal(5 * protocol.DefaultTCPMSS))

		// Counter unchanged: no further loss.
		sender.OnFeedback(8, protocol.DefaultReceiveWindow, time.Time{})
		Expect(sender.CongestionWindow()).To(Equal(5 * protocol.DefaultTCPMSS))

		// Counter decreased: treated as a peer reset, rebaselined without
		// applying a loss.
		sender.OnFeedback(3, protocol.DefaultReceiveWindow, time.Time{})
		Expect(sender.CongestionWindow()).To(Equal(5 * protocol.DefaultTCPMSS))

		// Counter advances again from the new, lower baseline.
		sender.OnFeedback(6, protocol.DefaultReceiveWindow, time.Time{})
		Expect(sender.CongestionWindow()).To(Equal(2 * protocol.DefaultTCPMSS))
	})

	It("resets the Cubic epoch and collapses the window on timeout, leaving ssthresh alone", func() {
		sender := NewSender(&clock, false, 0)
		sender.SetCongestionWindow(100 * protocol.DefaultTCPMSS)
		sender.ssthresh = 50

		sender.OnTimeout()
		Expect(sender.CongestionWindow()).To(Equal(1 * protocol.DefaultTCPMSS))
		Expect(sender.ssthresh).To(Equal(int64(50)))
	})

	It("counts a precondition violation instead of driving bytes in flight negative", func() {
		sender := NewSender(&clock, true, 0)
		before := Violations()
		sender.OnAck(1, 10*protocol.DefaultTCPMSS, 50*time.Millisecond)
		Expect(Violations()).To(Equal(before + 1))
	})

	It("only lets the server override the initial congestion window", func() {
		serverSender := NewSender(&clock, true, 0)
		serverSender.SetFromConfig(BootConfig{ServerInitialCongestionWindow: 32}, true)
		Expect(serverSender.CongestionWindow()).To(Equal(32 * protocol.DefaultTCPMSS))

		clientSender := NewSender(&clock, true, 0)
		clientSender.SetFromConfig(BootConfig{ServerInitialCongestionWindow: 32}, false)
		Expect(clientSender.CongestionWindow()).To(Equal(10 * protocol.DefaultTCPMSS))
	})

	It("always reports a zero bandwidth estimate", func() {
		sender := NewSender(&clock, true, 0)
		Expect(sender.BandwidthEstimate()).To(Equal(Bandwidth(0)))
	})

	It("emits a single lifecycle sample on Close", func() {
		sender := NewSender(&clock, true, 0)
		telemetry := &fakeTelemetry{}
		sender.SetTelemetry(telemetry)
		sender.SetCongestionWindow(42 * protocol.DefaultTCPMSS)

		sender.Close()
		Expect(telemetry.samples).To(HaveLen(1))
		Expect(telemetry.samples[0].FinalCongestionWindowSegments).To(Equal(int64(42)))
	})
})
