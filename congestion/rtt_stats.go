package congestion

import "time"

// defaultInitialRTT is returned by SmoothedRTT before the first usable
// sample arrives (spec §4.3, §6: "initial RTT guess = 60 ms").
const defaultInitialRTT = 60 * time.Millisecond

const (
	rttAlpha           = 0.125
	rttOneMinusAlpha   = 1 - rttAlpha
	rttBeta            = 0.25
	rttOneMinusBeta    = 1 - rttBeta
)

// RTTStats maintains smoothed RTT, mean deviation, and minimum RTT over
// usable ACK samples, exactly as the original AckAccounting routine does
// (original_source/net/quic/congestion_control/tcp_cubic_sender.cc).
type RTTStats struct {
	latestRTT    time.Duration
	smoothedRTT  time.Duration
	meanDeviation time.Duration
	minRTT       time.Duration
}

// NewRTTStats creates a fresh, unseeded RTT estimator.
func NewRTTStats() *RTTStats {
	return &RTTStats{}
}

// UpdateRTT folds a new RTT sample into the estimator. Samples that are
// zero or infinite are discarded silently (spec: "the transport has no
// meaningful timing"). A negative sample is a contract violation: it is
// clamped to zero width and counted as a violation rather than applied.
func (r *RTTStats) UpdateRTT(sample time.Duration) {
	if sample <= 0 {
		if sample < 0 {
			noteViolation("rtt_stats: negative rtt sample")
		}
		return
	}
	if sample == infiniteDuration {
		return
	}

	if r.minRTT == 0 || sample < r.minRTT {
		r.minRTT = sample
	}

	r.latestRTT = sample
	if r.smoothedRTT == 0 {
		r.smoothedRTT = sample
		r.meanDeviation = sample / 2
		return
	}
	r.meanDeviation = time.Duration(rttOneMinusBeta*float64(r.meanDeviation) + rttBeta*float64(absDuration(r.smoothedRTT-sample)))
	r.smoothedRTT = time.Duration(rttOneMinusAlpha*float64(r.smoothedRTT) + rttAlpha*float64(sample))
}

// LatestRTT returns the most recent usable RTT sample.
func (r *RTTStats) LatestRTT() time.Duration { return r.latestRTT }

// SmoothedRTT returns the current smoothed RTT estimate, or the 60ms
// initial guess if no sample has been folded in yet (spec §4.3 public
// queries).
func (r *RTTStats) SmoothedRTT() time.Duration {
	if r.smoothedRTT == 0 {
		return defaultInitialRTT
	}
	return r.smoothedRTT
}

// MinRTT returns the minimum RTT observed across the connection's life.
func (r *RTTStats) MinRTT() time.Duration { return r.minRTT }

// MeanDeviation returns the current mean-deviation estimate.
func (r *RTTStats) MeanDeviation() time.Duration { return r.meanDeviation }

// RetransmissionDelay returns srtt + 4*rttvar, the RTO the sender should
// use (spec §4.3).
func (r *RTTStats) RetransmissionDelay() time.Duration {
	return r.SmoothedRTT() + 4*r.meanDeviation
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
