package extract

import (
	"bytes"

	"github.com/PuerkitoBio/goquery"

	"github.com/ymkfssy/shuangse-sub001/internal/lottery"
)

// Default selectors for ball markup such as <td class="ball_red">03</td>.
const (
	DefaultRowSelector  = "tr, li, dl"
	DefaultRedSelector  = `[class*="red"]`
	DefaultBlueSelector = `[class*="blue"]`
)

// ClassExtractor reads draws from rows whose ball cells carry red/blue class
// attributes. Issue and date are taken from the row text.
type ClassExtractor struct {
	rowSelector  string
	redSelector  string
	blueSelector string
	opts         options
}

// NewClass builds a ClassExtractor with the default selectors.
func NewClass(opts ...Option) *ClassExtractor {
	return &ClassExtractor{
		rowSelector:  DefaultRowSelector,
		redSelector:  DefaultRedSelector,
		blueSelector: DefaultBlueSelector,
		opts:         buildOptions(opts),
	}
}

// Name identifies the strategy.
func (e *ClassExtractor) Name() string {
	return StrategyClass
}

// Extract returns the newest valid draw in doc.
func (e *ClassExtractor) Extract(doc []byte) (lottery.ExtractionResult, bool) {
	parsed, err := goquery.NewDocumentFromReader(bytes.NewReader(doc))
	if err != nil {
		return lottery.ExtractionResult{}, false
	}

	var (
		best  lottery.ExtractionResult
		found bool
	)
	parsed.Find(e.rowSelector).EachWithBreak(func(_ int, row *goquery.Selection) bool {
		cand, ok := e.candidate(row)
		if !ok {
			return true
		}
		if !found || cand.Issue > best.Issue {
			best, found = cand, true
		}
		return !e.opts.newestFirst
	})
	return best, found
}

func (e *ClassExtractor) candidate(row *goquery.Selection) (lottery.ExtractionResult, bool) {
	reds := ballTokens(row.Find(e.redSelector))
	blues := ballTokens(row.Find(e.blueSelector))
	if len(reds) != lottery.RedCount || len(blues) != 1 {
		return lottery.ExtractionResult{}, false
	}

	markup, err := goquery.OuterHtml(row)
	if err != nil {
		return lottery.ExtractionResult{}, false
	}
	text := Normalize([]byte(markup))
	m := dateToken.FindStringSubmatch(text)
	if m == nil {
		return lottery.ExtractionResult{}, false
	}
	date, ok := parseDate(m[1], m[2], m[3])
	if !ok {
		return lottery.ExtractionResult{}, false
	}
	// Date digits are at most 4 wide, so the first 5-9 digit run is the issue.
	issue := issueToken.FindString(text)
	return buildResult(issue, date, append(reds, blues...))
}

// ballTokens collects numeric tokens from leaf elements only, so nested
// wrappers sharing a class are not counted twice.
func ballTokens(sel *goquery.Selection) []string {
	var tokens []string
	sel.Each(func(_ int, s *goquery.Selection) {
		if s.Children().Length() > 0 {
			return
		}
		tokens = append(tokens, numberToken.FindAllString(s.Text(), -1)...)
	})
	return tokens
}
