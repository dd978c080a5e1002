package inventory

import "rehabinv-cli/internal/model"

type StatusTier string

const (
	TierCritical StatusTier = "critical"
	TierLow      StatusTier = "low"
	TierOK       StatusTier = "ok"
)

// Tiers lists the tiers in severity order.
func Tiers() []StatusTier {
	return []StatusTier{TierCritical, TierLow, TierOK}
}

// Classify maps an item's type and value to a status tier.
// Zero is critical for both types and wins over low.
func Classify(t model.ItemType, value int) StatusTier {
	if value == 0 {
		return TierCritical
	}
	switch t {
	case model.ItemTypePercentage:
		if value < 33 {
			return TierLow
		}
	default:
		if value < 3 {
			return TierLow
		}
	}
	return TierOK
}

// ClassifyItem is Classify over an item's current value.
func ClassifyItem(it model.Item) StatusTier {
	return Classify(it.Type, it.Value)
}

func (t StatusTier) Label() string {
	switch t {
	case TierCritical:
		return "Out of Stock"
	case TierLow:
		return "Low Stock"
	default:
		return "In Stock"
	}
}
