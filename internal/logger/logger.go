package logger

import (
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Logger struct{ zerolog.Logger }

var setTimeFormat sync.Once

// New logs JSON to stderr; stdout stays free for command output.
func New(level string) *Logger {
	return NewWithWriter(os.Stderr, level)
}

func NewWithWriter(w io.Writer, level string) *Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	// biến toàn cục của zerolog: chỉ ghi một lần
	setTimeFormat.Do(func() { zerolog.TimeFieldFormat = time.RFC3339 })
	z := zerolog.New(w).With().Timestamp().Logger().Level(lvl)
	return &Logger{z}
}

// Nop discards everything; used by tests.
func Nop() *Logger {
	return &Logger{zerolog.Nop()}
}

func (l *Logger) HTTPLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		l.Info().Str("method", r.Method).Str("path", r.URL.Path).Dur("dur", time.Since(start)).Msg("http")
	})
}
