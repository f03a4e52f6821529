// Package commands provides the shared context type and all CLI subcommands.
package commands

import (
	"context"
	"time"

	"github.com/autodoc-sh/autodoc/internal/core/config"
	"github.com/autodoc-sh/autodoc/internal/core/logger"
	"github.com/autodoc-sh/autodoc/internal/core/state"
)

// contextKey is the key type for values stored in a command context.
type contextKey string

const runtimeContextKey contextKey = "autodoc.runtime"

// GlobalFlags holds the parsed global flags for use by subcommands.
type GlobalFlags struct {
	Debug      bool
	JSONOutput bool
	DryRun     bool
}

// Runtime is the shared dependency bundle injected into each subcommand via context.
type Runtime struct {
	Config *config.Config
	Log    *logger.Logger
	State  *state.DB
	Flags  GlobalFlags
}

// NewContext returns a new context carrying the Runtime.
func NewContext(parent context.Context, rt *Runtime) context.Context {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithValue(parent, runtimeContextKey, rt)
}

// auditEntry builds a timestamped audit record for destructive operations.
func auditEntry(op, target, result string) logger.AuditEntry {
	return logger.AuditEntry{
		Timestamp: time.Now().UTC(),
		Op:        op,
		Target:    target,
		Result:    result,
	}
}

// FromContext extracts the Runtime from ctx. Panics if not present (programming error).
func FromContext(ctx context.Context) *Runtime {
	rt, ok := ctx.Value(runtimeContextKey).(*Runtime)
	if !ok || rt == nil {
		panic("autodoc: Runtime not found in context, missing PersistentPreRunE?")
	}
	return rt
}
