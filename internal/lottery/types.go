// Package lottery defines the draw types shared across the ingestion and generation subsystems.
package lottery

import (
	"net/http"
	"time"
)

// Number space for the 6+1 draw.
const (
	RedCount   = 6
	RedMin     = 1
	RedMax     = 33
	BlueMin    = 1
	BlueMax    = 16
	IssueWidth = 7
)

// Provenance values persisted alongside each draw.
const (
	ProvenanceSynthetic     = "synthetic"
	ProvenanceScrapedPrefix = "scraped:"
)

// DrawRecord is one historical draw outcome.
type DrawRecord struct {
	Issue          string    `json:"issue"`
	DrawDate       time.Time `json:"draw_date"`
	Red            []int     `json:"red"`
	RedRevealOrder []int     `json:"red_reveal_order"`
	Blue           int       `json:"blue"`
	Provenance     string    `json:"provenance"`
	CreatedAt      time.Time `json:"created_at"`
}

// ExtractionResult is the transient output of a single extractor pass.
type ExtractionResult struct {
	Issue          string
	DrawDate       time.Time
	Red            []int
	RedRevealOrder []int
	Blue           int
}

// Record converts the extraction into a DrawRecord tagged with the given provenance.
func (r ExtractionResult) Record(provenance string) DrawRecord {
	return DrawRecord{
		Issue:          r.Issue,
		DrawDate:       r.DrawDate,
		Red:            append([]int(nil), r.Red...),
		RedRevealOrder: append([]int(nil), r.RedRevealOrder...),
		Blue:           r.Blue,
		Provenance:     provenance,
	}
}

// GeneratedCombination is a user-requested random draw.
type GeneratedCombination struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Red       []int     `json:"red"`
	Blue      int       `json:"blue"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
}

// Generation is the result of one generate request. Warnings carries
// non-fatal persistence failures for combinations that were still returned.
type Generation struct {
	Combinations []GeneratedCombination `json:"combinations"`
	Attempts     []int                  `json:"attempts_per_combination"`
	Warnings     []string               `json:"warnings,omitempty"`
}

// IngestionSummary reports the outcome of one ingestion run.
type IngestionSummary struct {
	TotalParsed int    `json:"total_parsed"`
	NewRecords  int    `json:"new_records"`
	Duplicates  int    `json:"duplicates"`
	Invalid     int    `json:"invalid"`
	Failures    int    `json:"failures"`
	// Skipped counts synthetic records withheld because history already
	// reaches their issue.
	Skipped     int    `json:"skipped"`
	Synthetic   bool   `json:"synthetic"`
	Stage       string `json:"stage,omitempty"`
}

// HeaderProfile is a browser-like set of request headers.
type HeaderProfile struct {
	UserAgent      string `mapstructure:"user_agent"`
	Referer        string `mapstructure:"referer"`
	AcceptLanguage string `mapstructure:"accept_language"`
}

// Headers renders the profile as HTTP headers.
func (p HeaderProfile) Headers() http.Header {
	h := http.Header{}
	if p.UserAgent != "" {
		h.Set("User-Agent", p.UserAgent)
	}
	if p.Referer != "" {
		h.Set("Referer", p.Referer)
	}
	if p.AcceptLanguage != "" {
		h.Set("Accept-Language", p.AcceptLanguage)
	}
	h.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	return h
}

// Source describes one external endpoint.
type Source struct {
	Name    string
	URL     string
	Referer string
}

// FetchOutcome classifies a fetch attempt.
type FetchOutcome string

// Fetch outcomes reported by a Fetcher.
const (
	OutcomeOK               FetchOutcome = "ok"
	OutcomeEmpty            FetchOutcome = "empty"
	OutcomeTransportFailure FetchOutcome = "transport_failure"
)

// FetchResult is returned by a Fetcher. Err is set only for transport failures.
type FetchResult struct {
	Outcome    FetchOutcome
	StatusCode int
	Body       []byte
	Profile    HeaderProfile
	Duration   time.Duration
	Err        error
}
