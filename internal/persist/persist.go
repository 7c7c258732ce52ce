// Package persist is the best-effort side channel that records selected
// function results. Recording never reports failure to the caller.
package persist

import (
	"context"
	"log/slog"

	"github.com/socialvault/socialvault/internal/storage"
)

// Kind names the table an entry is written to.
type Kind string

const (
	KindPrediction Kind = "performance_prediction"
	KindSchedule   Kind = "schedule_suggestion"
)

// Entry is one result to record. Exactly one of Prediction or Schedule is set,
// matching Kind.
type Entry struct {
	Kind       Kind
	Prediction storage.PerformancePrediction
	Schedule   storage.ScheduleSuggestion
}

// Sink records entries. Implementations swallow and log their own errors.
type Sink interface {
	Record(ctx context.Context, e Entry)
}

// ResultStore is the subset of the store a StoreSink writes through.
type ResultStore interface {
	SavePrediction(p storage.PerformancePrediction) error
	SaveScheduleSuggestion(s storage.ScheduleSuggestion) error
}

// StoreSink writes entries to a ResultStore and logs failures as warnings.
type StoreSink struct {
	store  ResultStore
	logger *slog.Logger
}

// NewStoreSink creates a sink. A nil logger uses slog.Default().
func NewStoreSink(store ResultStore, logger *slog.Logger) *StoreSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreSink{store: store, logger: logger}
}

func (s *StoreSink) Record(ctx context.Context, e Entry) {
	var err error
	switch e.Kind {
	case KindPrediction:
		err = s.store.SavePrediction(e.Prediction)
	case KindSchedule:
		err = s.store.SaveScheduleSuggestion(e.Schedule)
	default:
		s.logger.WarnContext(ctx, "persist: unknown entry kind", "kind", e.Kind)
		return
	}
	if err != nil {
		s.logger.WarnContext(ctx, "persist: failed to record result", "kind", e.Kind, "error", err)
		return
	}
	s.logger.DebugContext(ctx, "persist: recorded result", "kind", e.Kind)
}

// Discard drops every entry.
var Discard Sink = discard{}

type discard struct{}

func (discard) Record(context.Context, Entry) {}
