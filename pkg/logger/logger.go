package logger

import (
	"strings"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/pxlchk1/complete-camping-app-2.0-sub001/pkg/config"
)

// SuppressFunc decides whether a log entry should be dropped before it
// reaches the sink. Used to keep known-benign vendor chatter (for example
// "offerings not configured" while the billing dashboard is still being set
// up) out of operational logs. Everything else passes through unchanged.
type SuppressFunc func(entry zapcore.Entry) bool

// MessagePatternSuppressor suppresses entries below error level whose
// message contains any of the given substrings.
func MessagePatternSuppressor(patterns []string) SuppressFunc {
	return func(entry zapcore.Entry) bool {
		if entry.Level >= zapcore.ErrorLevel {
			return false
		}
		for _, p := range patterns {
			if p != "" && strings.Contains(entry.Message, p) {
				return true
			}
		}
		return false
	}
}

type filterCore struct {
	zapcore.Core
	suppress SuppressFunc
}

func (c *filterCore) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.suppress != nil && c.suppress(entry) {
		return ce
	}
	return c.Core.Check(entry, ce)
}

func (c *filterCore) With(fields []zapcore.Field) zapcore.Core {
	return &filterCore{Core: c.Core.With(fields), suppress: c.suppress}
}

// WrapWithSuppressor installs the suppression predicate in front of an
// existing core. Exposed for tests that observe the filtered output.
func WrapWithSuppressor(core zapcore.Core, suppress SuppressFunc) zapcore.Core {
	if suppress == nil {
		return core
	}
	return &filterCore{Core: core, suppress: suppress}
}

// New builds the production logger without a suppression predicate.
func New() (*zap.SugaredLogger, error) {
	return NewWithSuppressor(nil)
}

// NewWithSuppressor builds the production logger with the given predicate
// installed in front of the sink.
func NewWithSuppressor(suppress SuppressFunc) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.TimeKey = "time"
	l, err := cfg.Build(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return WrapWithSuppressor(core, suppress)
	}))
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// NewFromConfig wires the configured suppression patterns into the logger.
func NewFromConfig(cfg *config.Config) (*zap.SugaredLogger, error) {
	return NewWithSuppressor(MessagePatternSuppressor(cfg.Logging.SuppressPatterns))
}

var Module = fx.Options(
	fx.Provide(NewFromConfig),
)

