package field

import (
	"fmt"
	"time"
)

// Kind is the type tag of a metadata field value.
type Kind string

// Field kind constants. The set is closed so predicate evaluation can be
// exhaustively type-checked.
const (
	// Text is free text (title fragments, normalized descriptions).
	Text Kind = "text"
	// Categorical is an array of controlled-vocabulary values (regions, sectors).
	Categorical Kind = "categorical"
	// NumericRange is a bounded numeric span (grant amount in EUR).
	NumericRange Kind = "numeric_range"
	// DateRange is a bounded date span (application window).
	DateRange Kind = "date_range"
	// Bool is a binary flag (open/closed).
	Bool Kind = "bool"
)

// MaxCategories is the maximum number of values in a categorical field.
const MaxCategories = 64

// Value is an immutable tagged-union metadata value.
// Exactly one payload is populated, selected by Kind.
type Value struct {
	kind Kind

	text       string
	categories []string
	numMin     *float64
	numMax     *float64
	dateFrom   *time.Time
	dateTo     *time.Time
	boolVal    bool
}

// NewText creates a free-text value.
func NewText(text string) Value {
	return Value{kind: Text, text: text}
}

// NewCategorical validates and creates a categorical value.
// Values must be non-empty; at most MaxCategories entries.
func NewCategorical(values []string) (Value, error) {
	if len(values) > MaxCategories {
		return Value{}, fmt.Errorf("too many categorical values (max %d)", MaxCategories)
	}
	for i, v := range values {
		if v == "" {
			return Value{}, fmt.Errorf("categorical value [%d] is empty", i)
		}
	}
	return Value{kind: Categorical, categories: values}, nil
}

// NewNumericRange validates and creates a numeric span.
// At least one boundary required; min must not exceed max.
func NewNumericRange(min, max *float64) (Value, error) {
	if min == nil && max == nil {
		return Value{}, fmt.Errorf("numeric range requires at least one boundary")
	}
	if min != nil && max != nil && *min > *max {
		return Value{}, fmt.Errorf("numeric range min %g exceeds max %g", *min, *max)
	}
	return Value{kind: NumericRange, numMin: min, numMax: max}, nil
}

// NewDateRange validates and creates a date span.
// At least one boundary required; from must not be after to.
func NewDateRange(from, to *time.Time) (Value, error) {
	if from == nil && to == nil {
		return Value{}, fmt.Errorf("date range requires at least one boundary")
	}
	if from != nil && to != nil && from.After(*to) {
		return Value{}, fmt.Errorf("date range from %s is after to %s",
			from.Format(time.RFC3339), to.Format(time.RFC3339))
	}
	return Value{kind: DateRange, dateFrom: from, dateTo: to}, nil
}

// NewBool creates a boolean flag value.
func NewBool(v bool) Value {
	return Value{kind: Bool, boolVal: v}
}

// Kind returns the type tag.
func (v Value) Kind() Kind { return v.kind }

// Text returns the free-text payload.
func (v Value) Text() string { return v.text }

// Categories returns the categorical payload.
func (v Value) Categories() []string { return v.categories }

// NumericRange returns the numeric span boundaries (nil = unbounded side).
func (v Value) NumericRange() (min, max *float64) { return v.numMin, v.numMax }

// DateRange returns the date span boundaries (nil = unbounded side).
func (v Value) DateRange() (from, to *time.Time) { return v.dateFrom, v.dateTo }

// Bool returns the boolean payload.
func (v Value) Bool() bool { return v.boolVal }
