package predicate

import (
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/grantix/internal/domain/record"
	"github.com/kailas-cloud/grantix/internal/domain/record/field"
)

// MaxPredicates is the maximum number of predicates per query.
const MaxPredicates = 32

// Op is a filter operator. The set is closed.
type Op string

// Operator constants.
const (
	// Equals matches text (case-insensitive), a categorical member, or a bool flag.
	Equals Op = "equals"
	// Overlap matches when a categorical field shares at least one value.
	Overlap Op = "overlap"
	// Range matches when a numeric or date span intersects the given boundaries.
	Range Op = "range"
)

// Predicate is a single typed filter clause. Exactly one payload is
// populated, selected by the operator and the target field kind.
type Predicate struct {
	fieldName string
	op        Op

	text     string
	boolSet  bool
	boolVal  bool
	values   []string
	numSpan  *NumSpan
	dateSpan *DateSpan
}

// NewEquals creates a text equality predicate. For categorical fields the
// value matches by membership.
func NewEquals(fieldName, value string) (Predicate, error) {
	if fieldName == "" {
		return Predicate{}, fmt.Errorf("predicate field is required")
	}
	if value == "" {
		return Predicate{}, fmt.Errorf("equals value is required for field %q", fieldName)
	}
	return Predicate{fieldName: fieldName, op: Equals, text: value}, nil
}

// NewEqualsBool creates a boolean equality predicate.
func NewEqualsBool(fieldName string, value bool) (Predicate, error) {
	if fieldName == "" {
		return Predicate{}, fmt.Errorf("predicate field is required")
	}
	return Predicate{fieldName: fieldName, op: Equals, boolSet: true, boolVal: value}, nil
}

// NewOverlap creates an array-overlap predicate for categorical fields.
func NewOverlap(fieldName string, values []string) (Predicate, error) {
	if fieldName == "" {
		return Predicate{}, fmt.Errorf("predicate field is required")
	}
	if len(values) == 0 {
		return Predicate{}, fmt.Errorf("overlap values are required for field %q", fieldName)
	}
	for i, v := range values {
		if v == "" {
			return Predicate{}, fmt.Errorf("overlap value [%d] is empty for field %q", i, fieldName)
		}
	}
	return Predicate{fieldName: fieldName, op: Overlap, values: values}, nil
}

// NewRange creates a numeric range predicate.
func NewRange(fieldName string, span NumSpan) (Predicate, error) {
	if fieldName == "" {
		return Predicate{}, fmt.Errorf("predicate field is required")
	}
	return Predicate{fieldName: fieldName, op: Range, numSpan: &span}, nil
}

// NewDateRange creates a date range predicate.
func NewDateRange(fieldName string, span DateSpan) (Predicate, error) {
	if fieldName == "" {
		return Predicate{}, fmt.Errorf("predicate field is required")
	}
	return Predicate{fieldName: fieldName, op: Range, dateSpan: &span}, nil
}

// Field returns the target field name.
func (p Predicate) Field() string { return p.fieldName }

// Operator returns the filter operator.
func (p Predicate) Operator() Op { return p.op }

// Text returns the text equality payload.
func (p Predicate) Text() string { return p.text }

// BoolValue returns the boolean equality payload and whether it is set.
func (p Predicate) BoolValue() (value, ok bool) { return p.boolVal, p.boolSet }

// Values returns the overlap payload.
func (p Predicate) Values() []string { return p.values }

// NumRange returns the numeric range payload (nil when not a numeric range).
func (p Predicate) NumRange() *NumSpan { return p.numSpan }

// DateRange returns the date range payload (nil when not a date range).
func (p Predicate) DateRange() *DateSpan { return p.dateSpan }

// Matches reports whether the record satisfies this predicate.
// A missing field or a kind/operator mismatch never satisfies.
func (p Predicate) Matches(r record.Record) bool {
	v, ok := r.Field(p.fieldName)
	if !ok {
		return false
	}

	switch v.Kind() {
	case field.Text:
		return p.op == Equals && p.text != "" &&
			strings.EqualFold(v.Text(), p.text)
	case field.Categorical:
		switch p.op {
		case Equals:
			return p.text != "" && containsFold(v.Categories(), p.text)
		case Overlap:
			return anyOverlap(v.Categories(), p.values)
		}
		return false
	case field.NumericRange:
		if p.op != Range || p.numSpan == nil {
			return false
		}
		min, max := v.NumericRange()
		return p.numSpan.intersects(min, max)
	case field.DateRange:
		if p.op != Range || p.dateSpan == nil {
			return false
		}
		from, to := v.DateRange()
		return p.dateSpan.intersects(from, to)
	case field.Bool:
		return p.op == Equals && p.boolSet && v.Bool() == p.boolVal
	}
	return false
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}

func anyOverlap(a, b []string) bool {
	for _, x := range a {
		if containsFold(b, x) {
			return true
		}
	}
	return false
}

// NumSpan is a numeric range with gt/gte/lt/lte boundaries.
type NumSpan struct {
	gt  *float64
	gte *float64
	lt  *float64
	lte *float64
}

// NewNumSpan validates and creates a NumSpan.
// At least one boundary required. gt/gte and lt/lte are mutually exclusive.
func NewNumSpan(gt, gte, lt, lte *float64) (NumSpan, error) {
	if gt == nil && gte == nil && lt == nil && lte == nil {
		return NumSpan{}, fmt.Errorf("at least one range boundary is required")
	}
	if gt != nil && gte != nil {
		return NumSpan{}, fmt.Errorf("cannot specify both gt and gte")
	}
	if lt != nil && lte != nil {
		return NumSpan{}, fmt.Errorf("cannot specify both lt and lte")
	}
	return NumSpan{gt: gt, gte: gte, lt: lt, lte: lte}, nil
}

// GT returns the lower exclusive bound.
func (s NumSpan) GT() *float64 { return s.gt }

// GTE returns the lower inclusive bound.
func (s NumSpan) GTE() *float64 { return s.gte }

// LT returns the upper exclusive bound.
func (s NumSpan) LT() *float64 { return s.lt }

// LTE returns the upper inclusive bound.
func (s NumSpan) LTE() *float64 { return s.lte }

// intersects reports whether a field span [min, max] (nil = unbounded)
// intersects the predicate boundaries.
func (s NumSpan) intersects(min, max *float64) bool {
	// Field upper end must clear the predicate lower bound.
	if s.gt != nil && max != nil && *max <= *s.gt {
		return false
	}
	if s.gte != nil && max != nil && *max < *s.gte {
		return false
	}
	// Field lower end must clear the predicate upper bound.
	if s.lt != nil && min != nil && *min >= *s.lt {
		return false
	}
	if s.lte != nil && min != nil && *min > *s.lte {
		return false
	}
	return true
}

// DateSpan is a date range with after/before boundaries (both inclusive).
type DateSpan struct {
	after  *time.Time
	before *time.Time
}

// NewDateSpan validates and creates a DateSpan.
// At least one boundary required; after must not exceed before.
func NewDateSpan(after, before *time.Time) (DateSpan, error) {
	if after == nil && before == nil {
		return DateSpan{}, fmt.Errorf("at least one date boundary is required")
	}
	if after != nil && before != nil && after.After(*before) {
		return DateSpan{}, fmt.Errorf("date boundary after %s exceeds before %s",
			after.Format(time.RFC3339), before.Format(time.RFC3339))
	}
	return DateSpan{after: after, before: before}, nil
}

// After returns the inclusive lower date bound.
func (s DateSpan) After() *time.Time { return s.after }

// Before returns the inclusive upper date bound.
func (s DateSpan) Before() *time.Time { return s.before }

// intersects reports whether a field span [from, to] (nil = unbounded)
// intersects the predicate boundaries.
func (s DateSpan) intersects(from, to *time.Time) bool {
	if s.after != nil && to != nil && to.Before(*s.after) {
		return false
	}
	if s.before != nil && from != nil && from.After(*s.before) {
		return false
	}
	return true
}

// Set is a bounded conjunction of predicates.
type Set struct {
	preds []Predicate
}

// NewSet validates and creates a predicate Set.
func NewSet(preds ...Predicate) (Set, error) {
	if len(preds) > MaxPredicates {
		return Set{}, fmt.Errorf("too many predicates (max %d)", MaxPredicates)
	}
	return Set{preds: preds}, nil
}

// Predicates returns the clauses.
func (s Set) Predicates() []Predicate { return s.preds }

// IsEmpty reports whether the set has no clauses.
func (s Set) IsEmpty() bool { return len(s.preds) == 0 }

// MatchesAll reports whether the record satisfies every predicate.
// An empty set matches everything.
func (s Set) MatchesAll(r record.Record) bool {
	for _, p := range s.preds {
		if !p.Matches(r) {
			return false
		}
	}
	return true
}
