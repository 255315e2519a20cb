package logging

import (
	"io"
	"strings"
	"sync"

	"go.uber.org/zap/zapcore"
)

// LogManager keeps track of all instantiated loggers
type LogManager struct {
	loggers  map[string]*Logger
	explicit map[string]bool
	defLevel zapcore.Level
	writer   io.Writer
}

var (
	manager *LogManager
	mu      sync.RWMutex
	once    sync.Once
)

func initManager() {
	manager = &LogManager{
		loggers:  make(map[string]*Logger),
		explicit: make(map[string]bool),
		defLevel: zapcore.InfoLevel,
	}
}

// resetForTesting resets the manager state - only for testing
func resetForTesting() {
	mu.Lock()
	defer mu.Unlock()
	manager = nil
	once = sync.Once{}
}

// GetLogger returns the logger for module, creating it at the default level
// on first use.
func GetLogger(module string) *Logger {
	once.Do(initManager)

	mu.RLock()
	l := manager.loggers[module]
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()

	if l := manager.loggers[module]; l != nil {
		return l
	}
	l = newLogger(module, manager.defLevel, manager.writer)
	manager.loggers[module] = l
	return l
}

// SetOutput redirects every current and future logger to w.
func SetOutput(w io.Writer) {
	once.Do(initManager)

	mu.Lock()
	defer mu.Unlock()
	manager.writer = w
	for _, l := range manager.loggers {
		l.SetOut(w)
	}
}

// ParseLevel converts a level name to a zapcore.Level. Unknown names map to
// info.
func ParseLevel(levelStr string) zapcore.Level {
	switch strings.ToLower(levelStr) {
	case "panic":
		return zapcore.PanicLevel
	case "fatal":
		return zapcore.FatalLevel
	case "error":
		return zapcore.ErrorLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "debug", "trace":
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// UpdateLogLevels applies a level string of the form
// "routeauthz.discovery:debug;.:info". The "." module sets the default for
// every logger without an explicit entry. Whitespace is ignored.
func UpdateLogLevels(logstr string) {
	once.Do(initManager)

	for _, s := range []string{" ", "\t", "\n"} {
		logstr = strings.ReplaceAll(logstr, s, "")
	}

	mu.Lock()
	defer mu.Unlock()

	for _, entry := range strings.Split(logstr, ";") {
		parts := strings.Split(entry, ":")
		if len(parts) != 2 {
			continue
		}
		module, level := parts[0], ParseLevel(parts[1])

		if module == "." {
			manager.defLevel = level
			for mod, l := range manager.loggers {
				if !manager.explicit[mod] {
					l.SetLevel(level)
				}
			}
			continue
		}

		manager.explicit[module] = true
		l := manager.loggers[module]
		if l == nil {
			l = newLogger(module, level, manager.writer)
			manager.loggers[module] = l
		}
		l.SetLevel(level)
	}
}
