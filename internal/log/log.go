package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelWarn  Level = "WARN"
	LevelError Level = "ERROR"
)

const (
	envLevel  = "ECONCAL_LOG_LEVEL"
	envFormat = "ECONCAL_LOG_FORMAT"
)

var (
	mu       sync.Mutex
	logger   *slog.Logger
	out      io.Writer = os.Stderr
	levelVar           = new(slog.LevelVar)
	initOnce sync.Once
)

// initLogger builds the global logger on first use. The level and format
// can be overridden from the environment before any config is loaded.
func initLogger() {
	initOnce.Do(func() {
		levelVar.Set(slog.LevelInfo)
		if v := strings.TrimSpace(os.Getenv(envLevel)); v != "" {
			levelVar.Set(toSlog(ParseLevel(v)))
		}
		mu.Lock()
		logger = slog.New(newHandler(out))
		mu.Unlock()
	})
}

func newHandler(w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{Level: levelVar}
	if strings.EqualFold(strings.TrimSpace(os.Getenv(envFormat)), "json") {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// SetOutput redirects all log output. Tests use it to capture lines.
func SetOutput(w io.Writer) {
	initLogger()
	mu.Lock()
	defer mu.Unlock()
	out = w
	logger = slog.New(newHandler(w))
}

func SetLevel(l Level) {
	initLogger()
	levelVar.Set(toSlog(l))
}

// ParseLevel maps a config/env string onto a Level. Unknown values map to INFO.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

func Debug(msg string, kv ...any) {
	current().Debug(msg, kv...)
}

func Info(msg string, kv ...any) {
	current().Info(msg, kv...)
}

func Warn(msg string, kv ...any) {
	current().Warn(msg, kv...)
}

func Error(msg string, err error, kv ...any) {
	// Prepend error into key-value list.
	extended := append([]any{"err", err}, kv...)
	current().Error(msg, extended...)
}

func current() *slog.Logger {
	initLogger()
	mu.Lock()
	defer mu.Unlock()
	return logger
}

func toSlog(l Level) slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
