package extract

import (
	"regexp"

	"github.com/ymkfssy/shuangse-sub001/internal/lottery"
)

const defaultWindow = 240

// Strategy names accepted by New.
const (
	StrategyDateIssue = "date-issue"
	StrategyIssueDate = "issue-date"
	StrategyClass     = "class"
)

var (
	dateIssueAnchor = regexp.MustCompile(
		`\b(\d{4})[-/.年](\d{1,2})[-/.月](\d{1,2})日?\D{0,24}?\b(\d{5,9})\b`)
	issueDateAnchor = regexp.MustCompile(
		`\b(\d{5,9})\b\D{0,24}?\b(\d{4})[-/.年](\d{1,2})[-/.月](\d{1,2})日?`)
)

// Option tunes an extractor.
type Option func(*options)

type options struct {
	window      int
	newestFirst bool
}

// WithWindow sets the lookahead window, in bytes of normalized text.
func WithWindow(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.window = n
		}
	}
}

// WithNewestFirst stops at the first valid candidate for sources that list
// the newest draw first.
func WithNewestFirst() Option {
	return func(o *options) {
		o.newestFirst = true
	}
}

func buildOptions(opts []Option) options {
	o := options{window: defaultWindow}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// AnchorExtractor locates date/issue anchors in tag-stripped text and reads the
// seven numbers that follow each anchor.
type AnchorExtractor struct {
	name       string
	anchor     *regexp.Regexp
	issueGroup int
	yearGroup  int
	opts       options
}

// NewDateIssue matches documents where the draw date precedes the issue, e.g.
// "2025-10-16 第2025141期 03 08 ...".
func NewDateIssue(opts ...Option) *AnchorExtractor {
	return &AnchorExtractor{
		name:       StrategyDateIssue,
		anchor:     dateIssueAnchor,
		issueGroup: 4,
		yearGroup:  1,
		opts:       buildOptions(opts),
	}
}

// NewIssueDate matches documents where the issue precedes the draw date.
func NewIssueDate(opts ...Option) *AnchorExtractor {
	return &AnchorExtractor{
		name:       StrategyIssueDate,
		anchor:     issueDateAnchor,
		issueGroup: 1,
		yearGroup:  2,
		opts:       buildOptions(opts),
	}
}

// Name identifies the strategy.
func (e *AnchorExtractor) Name() string {
	return e.name
}

// Extract returns the newest valid draw in doc.
func (e *AnchorExtractor) Extract(doc []byte) (lottery.ExtractionResult, bool) {
	text := Normalize(doc)
	anchors := e.anchor.FindAllStringSubmatchIndex(text, -1)

	var (
		best  lottery.ExtractionResult
		found bool
	)
	for i, loc := range anchors {
		end := loc[1]
		limit := min(end+e.opts.window, len(text))
		if i+1 < len(anchors) && anchors[i+1][0] < limit {
			limit = anchors[i+1][0]
		}
		cand, ok := e.candidate(text, loc, text[end:limit])
		if !ok {
			continue
		}
		if !found || cand.Issue > best.Issue {
			best, found = cand, true
		}
		if e.opts.newestFirst {
			break
		}
	}
	return best, found
}

func (e *AnchorExtractor) candidate(text string, loc []int, window string) (lottery.ExtractionResult, bool) {
	group := func(g int) string {
		return text[loc[2*g]:loc[2*g+1]]
	}
	date, ok := parseDate(group(e.yearGroup), group(e.yearGroup+1), group(e.yearGroup+2))
	if !ok {
		return lottery.ExtractionResult{}, false
	}
	tokens := numberToken.FindAllString(window, lottery.RedCount+1)
	return buildResult(group(e.issueGroup), date, tokens)
}
