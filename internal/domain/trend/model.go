package trend

import (
	"time"
)

// Source identifies which upstream a record was observed on.
type Source string

const (
	SourceSearch Source = "search-trends"
	SourceSocial Source = "social"
	SourceManual Source = "manual"
)

// Valid reports whether s is one of the known sources.
func (s Source) Valid() bool {
	switch s {
	case SourceSearch, SourceSocial, SourceManual:
		return true
	}
	return false
}

// SearchDetails is the payload attached to search-trend records.
type SearchDetails struct {
	Region       string `json:"region"`
	TrafficScore int    `json:"traffic_score"`
	Change       int    `json:"change"`
}

// SocialDetails is the payload attached to social records.
type SocialDetails struct {
	Subreddit string `json:"subreddit"`
	Upvotes   int    `json:"upvotes"`
	Permalink string `json:"permalink"`
	URL       string `json:"url,omitempty"`
}

// ManualDetails is the payload attached to user-submitted records.
type ManualDetails struct {
	LifecycleStage string `json:"lifecycle_stage"`
	PopPotential   bool   `json:"pop_potential"`
	Notes          string `json:"notes,omitempty"`
}

// Details is a tagged union keyed by the record's Source. Exactly one
// member is non-nil for a well-formed record.
type Details struct {
	Search *SearchDetails `json:"search,omitempty"`
	Social *SocialDetails `json:"social,omitempty"`
	Manual *ManualDetails `json:"manual,omitempty"`
}

// Record is one source's observation of a named cultural signal at a
// point in time. (Name, Source) is the key used for detail lookups and
// analysis caching; uniqueness across time is not enforced.
type Record struct {
	Name            string    `json:"name"`
	Source          Source    `json:"source"`
	Category        string    `json:"category"`
	PopularityScore float64   `json:"popularity_score"`
	Details         Details   `json:"details"`
	ObservedAt      time.Time `json:"observed_at"`
}

// Snapshot is the merged, ordered output of one aggregation run across
// all sources. Snapshots are superseded by the next run, never mutated.
type Snapshot struct {
	GeneratedAt time.Time `json:"generated_at"`
	Trends      []Record  `json:"trends"`
}

// Find returns the first record matching (name, source), or nil.
func (s Snapshot) Find(name string, source Source) *Record {
	for i := range s.Trends {
		if s.Trends[i].Name == name && s.Trends[i].Source == source {
			return &s.Trends[i]
		}
	}
	return nil
}

// Insights holds the structured sections of an AI-generated analysis.
type Insights struct {
	SocialListening      string   `json:"social_listening"`
	BehavioralDrivers    string   `json:"behavioral_drivers"`
	MarketOpportunities  string   `json:"market_opportunities"`
	EngagementStrategies string   `json:"engagement_strategies"`
	RiskAssessment       string   `json:"risk_assessment"`
	ContentIdeas         []string `json:"content_ideas"`
}

// Analysis is the AI-derived insight for one (name, source) pair.
type Analysis struct {
	TrendName   string    `json:"trend_name"`
	Source      Source    `json:"source"`
	Context     string    `json:"context"`
	Insights    Insights  `json:"insights"`
	GeneratedAt time.Time `json:"generated_at"`
}

// HistoryEntry mirrors a Record at the moment of aggregation. Entries
// are append-only and never updated or deleted.
type HistoryEntry struct {
	TrendName       string    `json:"trend_name"`
	Source          Source    `json:"source"`
	Category        string    `json:"category"`
	PopularityScore float64   `json:"popularity_score"`
	Details         Details   `json:"details"`
	RecordedAt      time.Time `json:"recorded_at"`
}

// HistoryPoint is one point of a trend's popularity over time.
type HistoryPoint struct {
	RecordedAt      time.Time `json:"recorded_at"`
	PopularityScore float64   `json:"popularity_score"`
}
