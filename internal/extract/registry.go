package extract

import (
	"fmt"

	"github.com/ymkfssy/shuangse-sub001/internal/lottery"
)

// New builds a named strategy.
func New(name string, opts ...Option) (lottery.Extractor, error) {
	switch name {
	case StrategyDateIssue:
		return NewDateIssue(opts...), nil
	case StrategyIssueDate:
		return NewIssueDate(opts...), nil
	case StrategyClass:
		return NewClass(opts...), nil
	default:
		return nil, fmt.Errorf("unknown extraction strategy %q", name)
	}
}
