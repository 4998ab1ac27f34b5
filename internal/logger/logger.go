package logger

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu     sync.RWMutex
	base   = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).Level(zerolog.WarnLevel).With().Timestamp().Logger()
	closer io.Closer
)

// Setup configures the process-wide base logger. With an empty file, a
// human readable console writer on stderr is used; otherwise JSON lines go
// to a size-rotated file. Unknown levels fall back to warn.
func Setup(level, file string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.WarnLevel
	}

	var w io.Writer
	var c io.Closer
	if file != "" {
		lj := &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10, // MB
			MaxBackups: 3,
			MaxAge:     28,
		}
		w, c = lj, lj
	} else {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}

	mu.Lock()
	defer mu.Unlock()
	if closer != nil {
		_ = closer.Close()
	}
	closer = c
	base = zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	return nil
}

// SetOutput replaces the base logger writer, keeping the current level.
// Tests use it to capture log lines.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	base = base.Output(w)
}

// New returns a logger tagged with the given component name.
func New(component string) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base.With().Str("component", component).Logger()
}

// Close flushes and closes the log file, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if closer == nil {
		return nil
	}
	err := closer.Close()
	closer = nil
	return err
}
