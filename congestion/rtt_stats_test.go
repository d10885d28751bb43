package congestion

import (
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("RTT stats", func() {
	var rttStats *RTTStats

	BeforeEach(func() {
		rttStats = NewRTTStats()
	})

	It("reports the initial RTT guess before any sample arrives", func() {
		Expect(rttStats.MinRTT()).To(Equal(time.Duration(0)))
		Expect(rttStats.SmoothedRTT()).To(Equal(defaultInitialRTT))
	})

	It("seeds smoothed RTT and mean deviation from the first sample", func() {
		rttStats.UpdateRTT(300 * time.Millisecond)
		Expect(rttStats.LatestRTT()).To(Equal(300 * time.Millisecond))
		Expect(rttStats.SmoothedRTT()).To(Equal(300 * time.Millisecond))
		Expect(rttStats.MeanDeviation()).To(Equal(150 * time.Millisecond))
	})

	It("applies the EWMA on subsequent samples", func() {
		rttStats.UpdateRTT(100 * time.Millisecond)
		rttStats.UpdateRTT(200 * time.Millisecond)
		// smoothedRTT = 0.875*100ms + 0.125*200ms = 112.5ms
		Expect(rttStats.SmoothedRTT()).To(Equal(112500 * time.Microsecond))
	})

	It("tracks the minimum RTT across the connection", func() {
		rttStats.UpdateRTT(200 * time.Millisecond)
		Expect(rttStats.MinRTT()).To(Equal(200 * time.Millisecond))
		rttStats.UpdateRTT(10 * time.Millisecond)
		Expect(rttStats.MinRTT()).To(Equal(10 * time.Millisecond))
		rttStats.UpdateRTT(50 * time.Millisecond)
		Expect(rttStats.MinRTT()).To(Equal(10 * time.Millisecond))
	})

	It("silently discards zero and infinite samples", func() {
		rttStats.UpdateRTT(10 * time.Millisecond)
		rttStats.UpdateRTT(0)
		rttStats.UpdateRTT(infiniteDuration)
		Expect(rttStats.MinRTT()).To(Equal(10 * time.Millisecond))
		Expect(rttStats.SmoothedRTT()).To(Equal(10 * time.Millisecond))
	})

	It("treats a negative sample as a contract violation and ignores it", func() {
		rttStats.UpdateRTT(10 * time.Millisecond)
		before := Violations()
		rttStats.UpdateRTT(-1 * time.Millisecond)
		Expect(Violations()).To(Equal(before + 1))
		Expect(rttStats.SmoothedRTT()).To(Equal(10 * time.Millisecond))
	})

	It("computes the retransmission delay as srtt + 4*rttvar", func() {
		rttStats.UpdateRTT(100 * time.Millisecond)
		Expect(rttStats.RetransmissionDelay()).To(Equal(100*time.Millisecond + 4*50*time.Millisecond))
	})
})
