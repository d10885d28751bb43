package congestion

import (
	"sync/atomic"
	"time"
)

// infiniteDuration represents an unusable "infinite" RTT or send-delay
// sample, mirroring the source's QuicTime::Delta::Infinite().
const infiniteDuration time.Duration = 1<<63 - 1

// violations counts precondition violations (bytes-in-flight or RTT going
// negative) across every Sender in the process. Spec §7: these clamp and
// continue in a release build, but must surface a diagnostic counter.
var violations uint64

// Violations returns the number of precondition violations observed so
// far. Exposed for tests and for callers who want to alarm on it.
func Violations() uint64 { return atomic.LoadUint64(&violations) }

func noteViolation(msg string) {
	atomic.AddUint64(&violations, 1)
	logger.Warn(msg)
}
