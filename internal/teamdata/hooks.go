package teamdata

import "github.com/socialvault/socialvault/internal/storage"

// Hooks bundles the hooks of every team-scoped entity.
type Hooks struct {
	Competitors        *Hook[storage.Competitor]
	MarketInsights     *Hook[storage.MarketInsight]
	CompetitiveReports *Hook[storage.CompetitiveReport]
	CompetitorContent  *Hook[storage.CompetitorContent]
}

// NewHooks wires one hook per entity to the store. Options apply to all of them.
func NewHooks(s *storage.Store, opts ...Option) *Hooks {
	return &Hooks{
		Competitors:        NewHook[storage.Competitor]("competitor", s.Competitors(), opts...),
		MarketInsights:     NewHook[storage.MarketInsight]("market insight", s.MarketInsights(), opts...),
		CompetitiveReports: NewHook[storage.CompetitiveReport]("competitive report", s.CompetitiveReports(), opts...),
		CompetitorContent:  NewHook[storage.CompetitorContent]("competitor content", s.CompetitorContent(), opts...),
	}
}
