package logging

import (
	"io"
	"os"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	moduleKey = "module"

	// FormatterEnv selects the encoder: "text" for console output, anything
	// else for JSON.
	FormatterEnv = "LOG_FORMATTER"
	// ReportCallerEnv enables caller annotations when set to any value.
	ReportCallerEnv = "LOG_REPORT_CALLER"
)

// Logger is a per-module wrapper around zap.SugaredLogger. It is safe for
// concurrent use, including SetOut while other goroutines log.
type Logger struct {
	module string
	level  zap.AtomicLevel
	fields []interface{}

	mu     sync.Mutex
	writer io.Writer
	sugar  atomic.Pointer[zap.SugaredLogger]
}

func newLogger(module string, level zapcore.Level, w io.Writer) *Logger {
	l := &Logger{
		module: module,
		level:  zap.NewAtomicLevelAt(level),
		writer: w,
	}
	l.build(w)
	return l
}

// build swaps in a new sugared logger writing to w.
func (l *Logger) build(w io.Writer) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder

	var encoder zapcore.Encoder
	switch os.Getenv(FormatterEnv) {
	case "text":
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	var output io.Writer = os.Stdout
	if w != nil {
		output = w
	}

	options := []zap.Option{zap.AddCallerSkip(1)}
	if os.Getenv(ReportCallerEnv) != "" {
		options = append(options, zap.AddCaller())
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(output), l.level)
	fields := append([]interface{}{moduleKey, l.module}, l.fields...)
	l.sugar.Store(zap.New(core, options...).Sugar().With(fields...))
}

// With returns a child logger that adds the given key/value pairs to every
// entry. The child shares the parent's level.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	l.mu.Lock()
	w := l.writer
	l.mu.Unlock()

	child := &Logger{
		module: l.module,
		level:  l.level,
		writer: w,
		fields: append(append([]interface{}{}, l.fields...), keysAndValues...),
	}
	child.build(w)
	return child
}

// SetLevel changes the level of the logger and all children created by With.
func (l *Logger) SetLevel(level zapcore.Level) {
	l.level.SetLevel(level)
}

// Level returns the current level.
func (l *Logger) Level() zapcore.Level {
	return l.level.Level()
}

// IsDebugEnabled returns true if debug output would be written. Use it to
// guard expensive debug formatting.
func (l *Logger) IsDebugEnabled() bool {
	return l.level.Enabled(zapcore.DebugLevel)
}

// SetOut redirects output, mainly for tests.
func (l *Logger) SetOut(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writer = w
	l.build(w)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.sugar.Load().Sync()
}

// Debugf logs a debug message.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.sugar.Load().Debugf(format, args...)
}

// Debugw logs a debug message with key/value pairs.
func (l *Logger) Debugw(msg string, keysAndValues ...interface{}) {
	l.sugar.Load().Debugw(msg, keysAndValues...)
}

// Infof logs an info message.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.sugar.Load().Infof(format, args...)
}

// Infow logs an info message with key/value pairs.
func (l *Logger) Infow(msg string, keysAndValues ...interface{}) {
	l.sugar.Load().Infow(msg, keysAndValues...)
}

// Warnf logs a warning.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.sugar.Load().Warnf(format, args...)
}

// Warnw logs a warning with key/value pairs.
func (l *Logger) Warnw(msg string, keysAndValues ...interface{}) {
	l.sugar.Load().Warnw(msg, keysAndValues...)
}

// Errorf logs an error message.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.sugar.Load().Errorf(format, args...)
}

// Errorw logs an error message with key/value pairs.
func (l *Logger) Errorw(msg string, keysAndValues ...interface{}) {
	l.sugar.Load().Errorw(msg, keysAndValues...)
}
