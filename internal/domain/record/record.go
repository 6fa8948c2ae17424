package record

import (
	"fmt"
	"time"

	"github.com/kailas-cloud/grantix/internal/domain/record/field"
)

// Canonical metadata field names of the grant catalog schema.
const (
	FieldRegions       = "regions"
	FieldSectors       = "sectors"
	FieldBeneficiaries = "beneficiaries"
	FieldAmount        = "amount"
	FieldWindow        = "window"
	FieldOpen          = "open"
)

// Record is an immutable catalog entry: a grant announcement as persisted
// by the ingestion pipeline. The engine only reads it.
type Record struct {
	id           string
	title        string
	organization string
	summary      string
	publishedAt  time.Time
	fields       map[string]field.Value
}

// New validates and creates a Record.
func New(
	id, title, organization, summary string,
	publishedAt time.Time,
	fields map[string]field.Value,
) (Record, error) {
	if id == "" {
		return Record{}, fmt.Errorf("record id is required")
	}
	if title == "" {
		return Record{}, fmt.Errorf("record %q: title is required", id)
	}
	return Record{
		id:           id,
		title:        title,
		organization: organization,
		summary:      summary,
		publishedAt:  publishedAt,
		fields:       fields,
	}, nil
}

// Reconstruct creates a Record without validation (storage hydration).
func Reconstruct(
	id, title, organization, summary string,
	publishedAt time.Time,
	fields map[string]field.Value,
) Record {
	return Record{
		id:           id,
		title:        title,
		organization: organization,
		summary:      summary,
		publishedAt:  publishedAt,
		fields:       fields,
	}
}

// ID returns the announcement identifier.
func (r Record) ID() string { return r.id }

// Title returns the announcement title.
func (r Record) Title() string { return r.title }

// Organization returns the issuing organization.
func (r Record) Organization() string { return r.organization }

// Summary returns the normalized announcement summary.
func (r Record) Summary() string { return r.summary }

// PublishedAt returns the publication timestamp.
func (r Record) PublishedAt() time.Time { return r.publishedAt }

// Field returns the metadata value for a name.
func (r Record) Field(name string) (field.Value, bool) {
	v, ok := r.fields[name]
	return v, ok
}

// Fields returns a copy of the metadata mapping.
func (r Record) Fields() map[string]field.Value {
	out := make(map[string]field.Value, len(r.fields))
	for k, v := range r.fields {
		out[k] = v
	}
	return out
}
