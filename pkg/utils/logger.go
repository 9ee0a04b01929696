// Package utils holds small cross-cutting helpers shared by the engine,
// connectors, and command entrypoints.
package utils

import (
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogConfig configures InitLogger. All fields are optional; zero values
// fall back to sane defaults (info level, JSON to stderr).
type LogConfig struct {
	Level       string // debug, info, warn, error, fatal
	Format      string // "json" (default) or "text"
	Output      string // file path; empty means stderr
	Development bool   // zap development mode: readable stack traces, DPanic panics
}

// Logger wraps zap.Logger with a few domain-specific With helpers so call
// sites don't repeat zap.String("component", ...) everywhere.
type Logger struct {
	*zap.Logger
	sugar *zap.SugaredLogger
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// InitLogger builds a Logger from cfg. A file Output that cannot be opened
// falls back to stderr rather than failing startup over a logging problem.
func InitLogger(cfg LogConfig) *Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if strings.ToLower(cfg.Format) == "text" {
		encoderCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderCfg)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderCfg)
	}

	var sink zapcore.WriteSyncer = zapcore.AddSync(os.Stderr)
	if cfg.Output != "" {
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err == nil {
			sink = zapcore.AddSync(f)
		}
	}

	core := zapcore.NewCore(encoder, sink, parseLevel(cfg.Level))

	var opts []zap.Option
	if cfg.Development {
		opts = append(opts, zap.Development(), zap.AddStacktrace(zapcore.ErrorLevel))
	}

	zl := zap.New(core, opts...)
	return &Logger{Logger: zl, sugar: zl.Sugar()}
}

// With returns a child Logger carrying the given fields, mirroring
// zap.Logger.With but preserving the sugared logger alongside it.
func (l *Logger) With(fields ...zap.Field) *Logger {
	zl := l.Logger.With(fields...)
	return &Logger{Logger: zl, sugar: zl.Sugar()}
}

func (l *Logger) WithComponent(name string) *Logger { return l.With(zap.String("component", name)) }
func (l *Logger) WithExchange(venue string) *Logger { return l.With(zap.String("venue", venue)) }
func (l *Logger) WithSymbol(symbol string) *Logger  { return l.With(zap.String("symbol", symbol)) }
func (l *Logger) WithPairID(id int) *Logger         { return l.With(zap.Int("pair_id", id)) }

// Sugar exposes the sugared logger for printf-style call sites.
func (l *Logger) Sugar() *zap.SugaredLogger { return l.sugar }

var (
	globalMu     sync.Mutex
	globalLogger *Logger
)

// InitGlobalLogger builds a Logger from cfg and installs it as the process
// default, returning it for convenience.
func InitGlobalLogger(cfg LogConfig) *Logger {
	l := InitLogger(cfg)
	SetGlobalLogger(l)
	return l
}

// SetGlobalLogger installs l as the process default.
func SetGlobalLogger(l *Logger) {
	globalMu.Lock()
	globalLogger = l
	globalMu.Unlock()
}

// GetGlobalLogger returns the process default, lazily initializing it with
// defaults (info/json/stderr) on first use.
func GetGlobalLogger() *Logger {
	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = InitLogger(LogConfig{})
	}
	return globalLogger
}

// L is shorthand for GetGlobalLogger, used at call sites that don't carry a
// Logger through their constructor.
func L() *Logger { return GetGlobalLogger() }
