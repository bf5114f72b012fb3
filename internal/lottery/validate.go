package lottery

import (
	"fmt"
	"slices"
)

// ValidIssue reports whether issue is a fixed-width numeric token.
func ValidIssue(issue string) bool {
	if len(issue) != IssueWidth {
		return false
	}
	for i := 0; i < len(issue); i++ {
		if issue[i] < '0' || issue[i] > '9' {
			return false
		}
	}
	return true
}

// Canonical returns a sorted copy of nums.
func Canonical(nums []int) []int {
	out := append([]int(nil), nums...)
	slices.Sort(out)
	return out
}

// NumberProblems checks the red reveal order and blue number, returning one
// entry per broken rule.
func NumberProblems(red []int, blue int) []string {
	var problems []string
	if len(red) != RedCount {
		problems = append(problems, fmt.Sprintf("want %d red numbers, got %d", RedCount, len(red)))
	}
	seen := make(map[int]struct{}, len(red))
	for _, n := range red {
		if n < RedMin || n > RedMax {
			problems = append(problems, fmt.Sprintf("red %d outside [%d,%d]", n, RedMin, RedMax))
		}
		if _, dup := seen[n]; dup {
			problems = append(problems, fmt.Sprintf("red %d repeated", n))
		}
		seen[n] = struct{}{}
	}
	if blue < BlueMin || blue > BlueMax {
		problems = append(problems, fmt.Sprintf("blue %d outside [%d,%d]", blue, BlueMin, BlueMax))
	}
	return problems
}

// Validate enforces every DrawRecord invariant.
func Validate(r DrawRecord) error {
	var problems []string
	if !ValidIssue(r.Issue) {
		problems = append(problems, "issue must be a 7 digit token")
	}
	if r.DrawDate.IsZero() {
		problems = append(problems, "missing draw date")
	} else if !IsDrawDay(r.DrawDate) {
		problems = append(problems, fmt.Sprintf("%s is not a draw day", r.DrawDate.Weekday()))
	}
	problems = append(problems, NumberProblems(r.RedRevealOrder, r.Blue)...)
	if !slices.Equal(Canonical(r.RedRevealOrder), r.Red) {
		problems = append(problems, "canonical red numbers do not match reveal order")
	}
	if len(problems) > 0 {
		return &ValidationError{Issue: r.Issue, Problems: problems}
	}
	return nil
}
