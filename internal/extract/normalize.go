// Package extract implements the draw extraction strategies run against raw
// source documents. Strategies never assume well-formed markup.
package extract

import (
	"html"
	"regexp"
	"strconv"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/ymkfssy/shuangse-sub001/internal/lottery"
)

var (
	stripPolicy = newStripPolicy()
	whitespace  = regexp.MustCompile(`\s+`)
	numberToken = regexp.MustCompile(`\b\d{1,2}\b`)
	issueToken  = regexp.MustCompile(`\b\d{5,9}\b`)
	dateToken   = regexp.MustCompile(`\b(\d{4})[-/.年](\d{1,2})[-/.月](\d{1,2})日?`)
)

func newStripPolicy() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	// Adjacent cells must not fuse into one token.
	p.AddSpaceWhenStrippingTag(true)
	return p
}

// Normalize strips markup, decodes entities and collapses whitespace.
func Normalize(doc []byte) string {
	text := stripPolicy.SanitizeBytes(doc)
	return whitespace.ReplaceAllString(html.UnescapeString(string(text)), " ")
}

// parseDate builds a calendar date and rejects overflowed values such as 02-30.
func parseDate(year, month, day string) (time.Time, bool) {
	y, err := strconv.Atoi(year)
	if err != nil {
		return time.Time{}, false
	}
	m, err := strconv.Atoi(month)
	if err != nil {
		return time.Time{}, false
	}
	d, err := strconv.Atoi(day)
	if err != nil {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

// buildResult validates the raw tokens of one candidate.
func buildResult(issue string, date time.Time, tokens []string) (lottery.ExtractionResult, bool) {
	if !lottery.ValidIssue(issue) || !lottery.IsDrawDay(date) {
		return lottery.ExtractionResult{}, false
	}
	if len(tokens) != lottery.RedCount+1 {
		return lottery.ExtractionResult{}, false
	}
	nums := make([]int, 0, len(tokens))
	for _, tok := range tokens {
		n, err := strconv.Atoi(tok)
		if err != nil {
			return lottery.ExtractionResult{}, false
		}
		nums = append(nums, n)
	}
	reveal := nums[:lottery.RedCount]
	blue := nums[lottery.RedCount]
	if len(lottery.NumberProblems(reveal, blue)) > 0 {
		return lottery.ExtractionResult{}, false
	}
	return lottery.ExtractionResult{
		Issue:          issue,
		DrawDate:       date,
		Red:            lottery.Canonical(reveal),
		RedRevealOrder: append([]int(nil), reveal...),
		Blue:           blue,
	}, true
}
