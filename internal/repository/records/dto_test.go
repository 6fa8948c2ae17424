package records

import (
	"testing"
	"time"

	"github.com/kailas-cloud/grantix/internal/domain/record"
	"github.com/kailas-cloud/grantix/internal/domain/record/field"
)

func TestToRecord_FullRow(t *testing.T) {
	published := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	from := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	row := announcementRow{
		ID:            "623001",
		Title:         "Ayudas a pymes industriales",
		Organization:  "SPRI",
		Summary:       "Subvenciones para proyectos de digitalización",
		PublishedAt:   published,
		Regions:       []string{"es213", "es211"},
		Sectors:       []string{"industry"},
		Beneficiaries: []string{"sme"},
		AmountMin:     floatPtr(5000),
		AmountMax:     floatPtr(50000),
		WindowFrom:    &from,
		WindowTo:      &to,
		Open:          true,
	}

	r := toRecord(row)

	if r.ID() != "623001" || r.Title() != "Ayudas a pymes industriales" {
		t.Errorf("unexpected identity: %s / %s", r.ID(), r.Title())
	}
	if r.Organization() != "SPRI" {
		t.Errorf("unexpected organization: %s", r.Organization())
	}
	if !r.PublishedAt().Equal(published) {
		t.Errorf("unexpected published_at: %v", r.PublishedAt())
	}

	regions, ok := r.Field(record.FieldRegions)
	if !ok || regions.Kind() != field.Categorical || len(regions.Categories()) != 2 {
		t.Errorf("unexpected regions field: %+v ok=%v", regions, ok)
	}

	amount, ok := r.Field(record.FieldAmount)
	if !ok || amount.Kind() != field.NumericRange {
		t.Fatalf("expected amount field, ok=%v", ok)
	}
	min, max := amount.NumericRange()
	if min == nil || *min != 5000 || max == nil || *max != 50000 {
		t.Errorf("unexpected amount span: %v %v", min, max)
	}

	window, ok := r.Field(record.FieldWindow)
	if !ok || window.Kind() != field.DateRange {
		t.Fatalf("expected window field, ok=%v", ok)
	}

	open, ok := r.Field(record.FieldOpen)
	if !ok || open.Kind() != field.Bool || !open.Bool() {
		t.Errorf("unexpected open field: %+v ok=%v", open, ok)
	}
}

func TestToRecord_SparseRow(t *testing.T) {
	row := announcementRow{
		ID:          "900001",
		Title:       "Convocatoria sin metadatos",
		PublishedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}

	r := toRecord(row)

	for _, name := range []string{record.FieldRegions, record.FieldSectors, record.FieldBeneficiaries, record.FieldAmount, record.FieldWindow} {
		if _, ok := r.Field(name); ok {
			t.Errorf("expected no %q field on sparse row", name)
		}
	}
	// the open flag is always present
	open, ok := r.Field(record.FieldOpen)
	if !ok || open.Bool() {
		t.Errorf("expected open=false, ok=%v", ok)
	}
}

func TestToRecord_HalfOpenAmount(t *testing.T) {
	row := announcementRow{
		ID:          "900002",
		Title:       "Convocatoria con mínimo",
		PublishedAt: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		AmountMin:   floatPtr(1000),
	}

	r := toRecord(row)

	amount, ok := r.Field(record.FieldAmount)
	if !ok {
		t.Fatal("expected amount field")
	}
	min, max := amount.NumericRange()
	if min == nil || *min != 1000 {
		t.Errorf("unexpected min: %v", min)
	}
	if max != nil {
		t.Errorf("expected unbounded max, got %v", *max)
	}
}
