package inventory

import (
	"fmt"
	"strings"

	"rehabinv-cli/internal/model"
)

// StatusFilter is either "all" or one of the status tiers.
type StatusFilter string

const StatusAll StatusFilter = "all"

func ParseStatusFilter(s string) (StatusFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return StatusAll, nil
	case "critical", "red":
		return StatusFilter(TierCritical), nil
	case "low", "yellow":
		return StatusFilter(TierLow), nil
	case "ok", "green":
		return StatusFilter(TierOK), nil
	default:
		return "", fmt.Errorf("unknown status filter: %q (want all|critical|low|ok)", s)
	}
}

// Next cycles all -> critical -> low -> ok -> all.
func (f StatusFilter) Next() StatusFilter {
	switch f {
	case StatusAll:
		return StatusFilter(TierCritical)
	case StatusFilter(TierCritical):
		return StatusFilter(TierLow)
	case StatusFilter(TierLow):
		return StatusFilter(TierOK)
	default:
		return StatusAll
	}
}

// FilterBySearch keeps items whose folded name contains the folded query.
// Notes are not searched. A blank query returns all items.
func FilterBySearch(items []model.Item, query string) []model.Item {
	if strings.TrimSpace(query) == "" {
		return model.CloneItems(items)
	}
	q := Fold(query)
	out := make([]model.Item, 0, len(items))
	for _, it := range items {
		if strings.Contains(Fold(it.Name), q) {
			out = append(out, it)
		}
	}
	return out
}

func FilterByStatus(items []model.Item, status StatusFilter) []model.Item {
	if status == StatusAll || status == "" {
		return model.CloneItems(items)
	}
	out := make([]model.Item, 0, len(items))
	for _, it := range items {
		if StatusFilter(ClassifyItem(it)) == status {
			out = append(out, it)
		}
	}
	return out
}

type Query struct {
	Search string
	Status StatusFilter
}

func (q Query) IsZero() bool {
	return strings.TrimSpace(q.Search) == "" && (q.Status == "" || q.Status == StatusAll)
}

// Apply runs the search filter and then the status filter.
func (q Query) Apply(items []model.Item) []model.Item {
	return FilterByStatus(FilterBySearch(items, q.Search), q.Status)
}
