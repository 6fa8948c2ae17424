package records

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/grantix/internal/domain"
	"github.com/kailas-cloud/grantix/internal/domain/record"
	"github.com/kailas-cloud/grantix/internal/domain/search/predicate"
)

func floatPtr(f float64) *float64 { return &f }

func timePtr(t time.Time) *time.Time { return &t }

func mustSet(t *testing.T, preds ...predicate.Predicate) predicate.Set {
	t.Helper()
	s, err := predicate.NewSet(preds...)
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	return s
}

func TestBuildWhere_Empty(t *testing.T) {
	clauses, args, err := buildWhere(predicate.Set{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clauses) != 0 || len(args) != 0 {
		t.Errorf("expected no clauses, got %v / %v", clauses, args)
	}
}

func TestBuildWhere_CategoricalEquals(t *testing.T) {
	p, _ := predicate.NewEquals(record.FieldRegions, "ES213")

	clauses, args, err := buildWhere(mustSet(t, p))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clauses) != 1 || clauses[0] != "regions && $1" {
		t.Errorf("unexpected clauses: %v", clauses)
	}
	if len(args) != 1 {
		t.Fatalf("expected 1 arg, got %d", len(args))
	}
}

func TestBuildWhere_CategoricalOverlap(t *testing.T) {
	p, _ := predicate.NewOverlap(record.FieldSectors, []string{"Industry", "research"})

	clauses, _, err := buildWhere(mustSet(t, p))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clauses) != 1 || clauses[0] != "sectors && $1" {
		t.Errorf("unexpected clauses: %v", clauses)
	}
}

func TestBuildWhere_AmountRange(t *testing.T) {
	span, _ := predicate.NewNumSpan(nil, floatPtr(10000), nil, floatPtr(50000))
	p, _ := predicate.NewRange(record.FieldAmount, span)

	clauses, args, err := buildWhere(mustSet(t, p))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// presence guard + one clause per boundary
	if len(clauses) != 3 {
		t.Fatalf("expected 3 clauses, got %v", clauses)
	}
	if clauses[0] != "(amount_min IS NOT NULL OR amount_max IS NOT NULL)" {
		t.Errorf("unexpected presence clause: %q", clauses[0])
	}
	if clauses[1] != "(amount_max IS NULL OR amount_max >= $1)" {
		t.Errorf("unexpected gte clause: %q", clauses[1])
	}
	if clauses[2] != "(amount_min IS NULL OR amount_min <= $2)" {
		t.Errorf("unexpected lte clause: %q", clauses[2])
	}
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args))
	}
}

func TestBuildWhere_AmountExclusiveBounds(t *testing.T) {
	span, _ := predicate.NewNumSpan(floatPtr(5000), nil, floatPtr(90000), nil)
	p, _ := predicate.NewRange(record.FieldAmount, span)

	clauses, _, err := buildWhere(mustSet(t, p))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	joined := strings.Join(clauses, " AND ")
	if !strings.Contains(joined, "amount_max > $1") {
		t.Errorf("expected strict gt clause, got %q", joined)
	}
	if !strings.Contains(joined, "amount_min < $2") {
		t.Errorf("expected strict lt clause, got %q", joined)
	}
}

func TestBuildWhere_WindowRange(t *testing.T) {
	after := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	span, _ := predicate.NewDateSpan(timePtr(after), nil)
	p, _ := predicate.NewDateRange(record.FieldWindow, span)

	clauses, args, err := buildWhere(mustSet(t, p))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clauses) != 2 {
		t.Fatalf("expected 2 clauses, got %v", clauses)
	}
	if clauses[1] != "(window_to IS NULL OR window_to >= $1)" {
		t.Errorf("unexpected clause: %q", clauses[1])
	}
	if len(args) != 1 {
		t.Fatalf("expected 1 arg, got %d", len(args))
	}
}

func TestBuildWhere_OpenFlag(t *testing.T) {
	p, _ := predicate.NewEqualsBool(record.FieldOpen, true)

	clauses, args, err := buildWhere(mustSet(t, p))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(clauses) != 1 || clauses[0] != "open = $1" {
		t.Errorf("unexpected clauses: %v", clauses)
	}
	if len(args) != 1 || args[0] != true {
		t.Errorf("unexpected args: %v", args)
	}
}

func TestBuildWhere_ArgNumberingAcrossPredicates(t *testing.T) {
	regions, _ := predicate.NewOverlap(record.FieldRegions, []string{"es213"})
	open, _ := predicate.NewEqualsBool(record.FieldOpen, true)

	clauses, args, err := buildWhere(mustSet(t, regions, open))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if clauses[0] != "regions && $1" || clauses[1] != "open = $2" {
		t.Errorf("unexpected arg numbering: %v", clauses)
	}
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args))
	}
}

func TestBuildWhere_UnknownField(t *testing.T) {
	p, _ := predicate.NewEquals("budget_line", "x")

	_, _, err := buildWhere(mustSet(t, p))
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestBuildWhere_OperatorMismatch(t *testing.T) {
	span, _ := predicate.NewNumSpan(nil, floatPtr(1), nil, nil)

	rangeOnCategorical, _ := predicate.NewRange(record.FieldRegions, span)
	textOnOpen, _ := predicate.NewEquals(record.FieldOpen, "yes")
	overlapOnAmount, _ := predicate.NewOverlap(record.FieldAmount, []string{"5000"})

	for _, p := range []predicate.Predicate{rangeOnCategorical, textOnOpen, overlapOnAmount} {
		_, _, err := buildWhere(mustSet(t, p))
		if err == nil {
			t.Errorf("expected error for %s on %q", p.Operator(), p.Field())
			continue
		}
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("expected validation error, got %v", err)
		}
	}
}

func TestLowerAll(t *testing.T) {
	got := lowerAll([]string{"ES213", "Industry"})
	if got[0] != "es213" || got[1] != "industry" {
		t.Errorf("unexpected result: %v", got)
	}
}
