package silo

import "go.uber.org/zap"

// Config holds process-wide configuration. The one knob this package needs
// ambiently, as opposed to per-Context via DefaultConfig/NewContext, is the
// structured logger used for the handful of conditions worth surfacing
// outside of a returned error: pool exhaustion warnings, event buffer
// overflows, and worker failures (see worker subpackage).
var Config config = config{logger: zap.NewNop()}

type config struct {
	logger *zap.Logger
}

// SetLogger installs the *zap.Logger used for this package's internal
// diagnostics. The default is a no-op logger so callers who don't care
// about this pay nothing.
func (c *config) SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	c.logger = l
}

// Logger returns the currently installed logger.
func (c *config) Logger() *zap.Logger {
	return c.logger
}
