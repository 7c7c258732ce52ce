// Package pipeline runs one function request end to end: dispatch the
// action, call the completion API, structure the reply and record it.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/socialvault/socialvault/internal/action"
	"github.com/socialvault/socialvault/internal/completion"
	"github.com/socialvault/socialvault/internal/extract"
	"github.com/socialvault/socialvault/internal/persist"
	"github.com/socialvault/socialvault/internal/storage"
)

// Runner wires the stages of a function request together. It holds no
// per-request state and is safe for concurrent use.
type Runner struct {
	client completion.Client
	sink   persist.Sink
	rng    extract.Rand
	logger *slog.Logger
}

// Option customises a Runner.
type Option func(*Runner)

// WithRand replaces the random source behind placeholder fields.
func WithRand(r extract.Rand) Option {
	return func(rn *Runner) { rn.rng = r }
}

// WithLogger sets the logger used for per-request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(rn *Runner) { rn.logger = l }
}

// NewRunner creates a Runner. A nil sink discards results.
func NewRunner(client completion.Client, sink persist.Sink, opts ...Option) *Runner {
	if sink == nil {
		sink = persist.Discard
	}
	r := &Runner{
		client: client,
		sink:   sink,
		rng:    globalRand{},
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Run handles one request body for fn. Errors from dispatch and from the
// completion API are returned; persistence problems never are.
func (r *Runner) Run(ctx context.Context, fn action.Function, body []byte) (extract.Result, error) {
	start := time.Now()

	call, err := action.Dispatch(fn, body)
	if err != nil {
		return extract.Result{}, err
	}

	raw, err := r.client.Complete(ctx, completion.Request{
		System:      call.Prompt.System,
		User:        call.Prompt.User,
		Temperature: call.Sampling.Temperature,
		MaxTokens:   call.Sampling.MaxTokens,
	})
	if err != nil {
		return extract.Result{}, fmt.Errorf("%s/%s: %w", fn, call.Action(), err)
	}

	res := extract.Structure(call.Action(), raw, r.rng)

	if e, ok := entryFor(call, res); ok {
		r.sink.Record(ctx, e)
	}

	r.logger.InfoContext(ctx, "function completed",
		"function", fn,
		"action", call.Action(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// entryFor maps the actions whose results are kept to a persistence entry.
func entryFor(call action.Call, res extract.Result) (persist.Entry, bool) {
	switch req := call.Request.(type) {
	case *action.PredictPerformanceRequest:
		likes, _ := res.Int(extract.FieldPredictedLikes)
		shares, _ := res.Int(extract.FieldPredictedShares)
		rate, _ := res.Float(extract.FieldEngagementRate)
		return persist.Entry{
			Kind: persist.KindPrediction,
			Prediction: storage.PerformancePrediction{
				TeamID:          req.TeamID,
				ContentID:       req.ContentID,
				Platform:        req.Platform,
				PredictedLikes:  likes,
				PredictedShares: shares,
				EngagementRate:  rate,
				RawAnalysis:     res.Content,
			},
		}, true
	case *action.SmartSchedulingRequest:
		return persist.Entry{
			Kind: persist.KindSchedule,
			Schedule: storage.ScheduleSuggestion{
				TeamID:         req.TeamID,
				Platform:       req.Platform,
				SuggestedTimes: res.Strings(extract.FieldSuggestedTimes),
				RawAnalysis:    res.Content,
			},
		}, true
	}
	return persist.Entry{}, false
}

// globalRand draws from the concurrency-safe top-level source.
type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
