package teamdata

import (
	"context"
	"fmt"
	"log/slog"
)

// Op is the kind of mutation being reported.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Event describes one mutation.
type Event struct {
	Entity string
	Op     Op
	ID     string
}

// Message returns the user-facing text for a successful mutation.
func (e Event) Message() string {
	switch e.Op {
	case OpCreate:
		return fmt.Sprintf("%s created", e.Entity)
	case OpUpdate:
		return fmt.Sprintf("%s updated", e.Entity)
	case OpDelete:
		return fmt.Sprintf("%s removed", e.Entity)
	}
	return fmt.Sprintf("%s %s", e.Entity, e.Op)
}

// Notifier surfaces mutation outcomes. Failures carry the store's error.
type Notifier interface {
	Success(ctx context.Context, ev Event)
	Failure(ctx context.Context, ev Event, err error)
}

// LogNotifier reports outcomes through slog.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier. A nil logger uses slog.Default().
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Success(ctx context.Context, ev Event) {
	n.logger.InfoContext(ctx, ev.Message(), "entity", ev.Entity, "op", ev.Op, "id", ev.ID)
}

func (n *LogNotifier) Failure(ctx context.Context, ev Event, err error) {
	n.logger.WarnContext(ctx, fmt.Sprintf("%s %s failed", ev.Entity, ev.Op),
		"entity", ev.Entity, "op", ev.Op, "id", ev.ID, "error", err)
}
