package congestion

import "go.uber.org/zap"

// logger is the package-level sink for state-transition and diagnostic
// logging. It defaults to a no-op logger so importing this package never
// produces output on its own, mirroring the teacher's LogLevelNothing
// default in utils/log.go, just backed by zap instead of fmt.Fprintf.
var logger = zap.NewNop()

// SetLogger installs the *zap.Logger used for congestion diagnostics.
// Passing nil restores the no-op default.
func SetLogger(l *zap.Logger) {
	if l == nil {
		logger = zap.NewNop()
		return
	}
	logger = l
}
