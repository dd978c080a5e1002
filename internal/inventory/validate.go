package inventory

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"unicode"

	"rehabinv-cli/internal/model"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	ErrNameRequired    = errors.New("name is required")
	ErrDuplicateName   = errors.New("an item with this name already exists")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidType     = errors.New("invalid item type")
)

// ValidationError is a user-correctable input problem, reported before any gateway call.
type ValidationError struct {
	Field  string
	Err    error
	Detail string
}

func (e *ValidationError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Fold normalizes s for case- and diacritic-insensitive comparison:
// decompose, drop combining marks, lower-case.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// ValidateName checks that name is non-empty after trimming and does not collide
// with any other item's name. excludeID skips one item (renames); pass "" otherwise.
func ValidateName(name string, existing []model.Item, excludeID string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return &ValidationError{Field: "name", Err: ErrNameRequired}
	}
	folded := Fold(trimmed)
	for _, it := range existing {
		if excludeID != "" && it.ID == excludeID {
			continue
		}
		if Fold(strings.TrimSpace(it.Name)) == folded {
			return &ValidationError{Field: "name", Err: ErrDuplicateName}
		}
	}
	return nil
}

// ValidateValue rejects values outside the type's range instead of clamping them.
func ValidateValue(value int, t model.ItemType) error {
	if !t.Valid() {
		return &ValidationError{Field: "type", Err: ErrInvalidType, Detail: fmt.Sprintf("invalid item type: %q", string(t))}
	}
	if value < 0 || value > t.Max() {
		return &ValidationError{
			Field:  "value",
			Err:    ErrValueOutOfRange,
			Detail: fmt.Sprintf("%s must be between 0 and %d", strings.ToLower(t.Label()), t.Max()),
		}
	}
	return nil
}

// Clamp bounds value to [0, 9999] for quantities and [0, 100] for percentages.
func Clamp(value int, t model.ItemType) int {
	if value < 0 {
		return 0
	}
	if max := t.Max(); value > max {
		return max
	}
	return value
}

// ClampFloat truncates toward zero before clamping.
func ClampFloat(value float64, t model.ItemType) int {
	if math.IsNaN(value) {
		return 0
	}
	tr := math.Trunc(value)
	if tr >= float64(t.Max()) {
		return t.Max()
	}
	if tr <= 0 {
		return 0
	}
	return Clamp(int(tr), t)
}
