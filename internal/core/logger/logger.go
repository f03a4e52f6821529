// Package logger provides the structured logging engine for AutoDoc.
// Uses log/slog with two sinks: stderr and an append-only log file under
// the AutoDoc home directory. Destructive and lifecycle operations are
// additionally recorded in an audit log.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Logger wraps slog.Logger with AutoDoc-specific utilities.
type Logger struct {
	*slog.Logger
	auditW io.Writer // append-only audit log writer (nil = disabled)
}

// Init initialises the global logger.
func Init(level, format, logFile, home string, debug bool) (*Logger, error) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	if debug {
		lvl = slog.LevelDebug
	}

	// Always write to stderr; mirror to the log file when it can be opened.
	writers := []io.Writer{os.Stderr}
	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0750); err == nil {
			if f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640); err == nil {
				writers = append(writers, f)
			}
		}
	}
	out := io.MultiWriter(writers...)

	opts := &slog.HandlerOptions{Level: lvl, AddSource: debug}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	base := slog.New(handler)
	slog.SetDefault(base)

	var auditW io.Writer
	if home != "" {
		auditPath := filepath.Join(home, "audit.log")
		if af, err := os.OpenFile(auditPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0640); err == nil {
			auditW = af
		}
	}

	return &Logger{Logger: base, auditW: auditW}, nil
}

// AuditEntry represents a single audit log event.
type AuditEntry struct {
	Timestamp time.Time `json:"ts"`
	Op        string    `json:"op"`     // up | down | clean | setup | scan | sync
	Target    string    `json:"target"` // service name, scan kind, etc.
	Result    string    `json:"result"` // success | failure
}

// Audit writes an append-only audit log entry.
func (l *Logger) Audit(entry AuditEntry) {
	l.Info("audit",
		"op", entry.Op,
		"target", entry.Target,
		"result", entry.Result,
	)
	if l.auditW == nil {
		return
	}
	line := fmt.Sprintf(`{"ts":%q,"op":%q,"target":%q,"result":%q}`+"\n",
		entry.Timestamp.UTC().Format(time.RFC3339),
		entry.Op, entry.Target, entry.Result,
	)
	_, _ = l.auditW.Write([]byte(line))
}

// Discard returns a logger that drops everything. Used in tests.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}
