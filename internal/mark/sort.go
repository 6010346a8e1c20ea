package mark

import "sort"

// Strategy selects the single active total order over a mark set.
type Strategy string

const (
	// StrategyLine orders by ascending line number.
	StrategyLine Strategy = "line"

	// StrategyAlphabetical orders by lexicographic identifier.
	StrategyAlphabetical Strategy = "alphabetical"

	// StrategyRecency orders by descending creation time.
	StrategyRecency Strategy = "recency"
)

// ParseStrategy maps a configuration string to a Strategy, defaulting to
// line order for unrecognized values. Configuration validation rejects bad
// values before they get here; the fallback keeps the order total anyway.
func ParseStrategy(s string) Strategy {
	switch Strategy(s) {
	case StrategyLine, StrategyAlphabetical, StrategyRecency:
		return Strategy(s)
	default:
		return StrategyLine
	}
}

// Order sorts views in place by the given strategy. Ties break by
// ascending line number, then identifier, which keeps every strategy a
// deterministic total order.
func Order(views []View, strategy Strategy) {
	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i], views[j]
		switch strategy {
		case StrategyAlphabetical:
			if a.Identifier != b.Identifier {
				return a.Identifier < b.Identifier
			}
		case StrategyRecency:
			if a.CreatedAt != b.CreatedAt {
				return a.CreatedAt > b.CreatedAt
			}
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Identifier < b.Identifier
	})
}
