package congestion

import (
	"math"
	"math/big"
	"time"
)

// Cubic implements the window-growth half of TCP Cubic (RFC 8312-style),
// operating purely in segment counts as spec.md §3 mandates ("windows are
// expressed internally as an integer count of maximum segments"). It holds
// only the state of one loss-to-loss epoch; the owning Sender resets it on
// loss and on timeout, exactly as the original's TcpCubicSender::Reset and
// OnIncomingLoss do for its embedded cubic_ member
// (original_source/net/quic/congestion_control/tcp_cubic_sender.cc).
type Cubic struct {
	clock Clock

	started     bool // whether an epoch is currently open
	epochStart  time.Time
	cwndAtEpoch int64 // cwnd when this epoch's first ACK arrived
	wMax        int64 // cwnd just before the most recent loss
	k           time.Duration
}

const (
	// cubicC and cubicBeta are the RFC 8312 constants spec.md §4.1 fixes.
	cubicC    = 0.4
	cubicBeta = 0.3

	// cubicCScale is cubicC scaled by 1<<cubicFixedPointShift (0.4*1024 ≈
	// 410), giving the integer multiplier used in the hot-path cube
	// computation so that ordinary ACK processing never touches floats
	// (spec.md §4.1 "Numeric semantics"). The one-time per-epoch K
	// computation below still uses math.Cbrt — it runs once per loss
	// recovery, not once per ACK, so it isn't the "hot path" the no-float
	// rule is protecting.
	cubicCScale          = 410
	cubicFixedPointShift = 10 // 1<<10 == 1024
	cubicFinalShift      = 3*cubicFixedPointShift + cubicFixedPointShift

	// cubicBetaNum/cubicBetaDen and cubicFastConvergenceNum/Den express
	// (1-beta) and (1+beta)/2 as exact rationals so post-loss reduction
	// never touches floating point: beta=0.3 is not exactly representable
	// in binary, and a float64 multiply can truncate one segment short of
	// the floor spec.md §8 demands (e.g. 90*0.7 == 62.999...999, not 63).
	cubicBetaNum            = 7  // 1 - 0.3 == 7/10
	cubicBetaDen            = 10
	cubicFastConvergenceNum = 13 // (1+0.3)/2 == 13/20
	cubicFastConvergenceDen = 20
)

// NewCubic creates a fresh Cubic calculator. clock is consulted on every
// CongestionWindowAfterAck call to time the current epoch.
func NewCubic(clock Clock) *Cubic {
	return &Cubic{clock: clock}
}

// Reset clears all epoch state, as called on timeout (spec.md §4.4 "On
// timeout"). SetCongestionWindow does not call it.
func (c *Cubic) Reset() {
	c.started = false
	c.epochStart = time.Time{}
	c.cwndAtEpoch = 0
	c.k = 0
	logger.Debug("cubic: epoch reset")
}

// CongestionWindowAfterAck returns the next congestion window, in
// segments, following spec.md §4.1's contract.
func (c *Cubic) CongestionWindowAfterAck(currentCwnd int64, minRTT time.Duration) int64 {
	now := c.clock.Now()

	if !c.started {
		c.started = true
		c.epochStart = now
		c.cwndAtEpoch = currentCwnd
		if currentCwnd > c.wMax {
			// Recovering faster than the last peak: project from where we
			// are now rather than waiting to reach a stale W_max.
			c.k = 0
		} else {
			c.k = cubicK(c.wMax)
		}
	}

	elapsed := now.Sub(c.epochStart) + minRTT
	offsetUs := elapsed.Microseconds() - c.k.Microseconds()
	offsetScaled := (offsetUs << cubicFixedPointShift) / 1_000_000

	growthCap := currentCwnd + (currentCwnd >> 1)
	lowerBound := currentCwnd + 1

	// The cube of offsetScaled can run well past what fits in an int64
	// (a multi-minute-old epoch already overflows a plain int64 cube), so
	// the cube-and-scale step runs in arbitrary precision and is only
	// brought back down to int64 after clamping to [lowerBound,
	// growthCap], both of which fit comfortably in an int64.
	offset := big.NewInt(offsetScaled)
	cubed := new(big.Int).Mul(offset, offset)
	cubed.Mul(cubed, offset)
	delta := cubed.Mul(cubed, big.NewInt(cubicCScale))
	delta.Rsh(delta, cubicFinalShift)
	target := delta.Add(delta, big.NewInt(c.wMax))

	if target.Cmp(big.NewInt(growthCap)) > 0 {
		return growthCap
	}
	if target.Cmp(big.NewInt(lowerBound)) < 0 {
		return lowerBound
	}
	return target.Int64()
}

// CongestionWindowAfterPacketLoss returns the post-loss congestion window,
// in segments, applying fast convergence where the spec requires it.
func (c *Cubic) CongestionWindowAfterPacketLoss(currentCwnd int64) int64 {
	previousWMax := c.wMax
	c.wMax = currentCwnd
	if currentCwnd < previousWMax {
		c.wMax = currentCwnd * cubicFastConvergenceNum / cubicFastConvergenceDen
	}
	c.started = false
	c.epochStart = time.Time{}

	next := currentCwnd * cubicBetaNum / cubicBetaDen
	if next < 1 {
		next = 1
	}
	logger.Debug("cubic: window reduced on loss")
	return next
}

// cubicK computes K = cbrt(W_max * beta / C) per spec.md §4.1, in
// microsecond granularity. It runs once per epoch.
func cubicK(wMax int64) time.Duration {
	if wMax <= 0 {
		return 0
	}
	seconds := math.Cbrt(float64(wMax) * cubicBeta / cubicC)
	return time.Duration(seconds * float64(time.Second))
}
