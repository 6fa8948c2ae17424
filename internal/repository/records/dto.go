package records

import (
	"time"

	"github.com/lib/pq"

	"github.com/kailas-cloud/grantix/internal/domain/record"
	"github.com/kailas-cloud/grantix/internal/domain/record/field"
)

// announcementColumns is the column list for full-record scans.
const announcementColumns = `id, title, organization, summary, published_at,
	regions, sectors, beneficiaries, amount_min, amount_max, window_from, window_to, open`

// announcementRow mirrors one row of the announcements table.
// Categorical arrays are stored lowercase by the ingestion pipeline.
type announcementRow struct {
	ID            string         `db:"id"`
	Title         string         `db:"title"`
	Organization  string         `db:"organization"`
	Summary       string         `db:"summary"`
	PublishedAt   time.Time      `db:"published_at"`
	Regions       pq.StringArray `db:"regions"`
	Sectors       pq.StringArray `db:"sectors"`
	Beneficiaries pq.StringArray `db:"beneficiaries"`
	AmountMin     *float64       `db:"amount_min"`
	AmountMax     *float64       `db:"amount_max"`
	WindowFrom    *time.Time     `db:"window_from"`
	WindowTo      *time.Time     `db:"window_to"`
	Open          bool           `db:"open"`
}

// matchRow carries one filter search hit with its recency key.
type matchRow struct {
	ID          string    `db:"id"`
	PublishedAt time.Time `db:"published_at"`
}

// scoredRow carries one similarity search hit.
type scoredRow struct {
	ID    string  `db:"id"`
	Score float64 `db:"score"`
}

// toRecord converts a table row into a domain Record.
// Absent spans (both boundaries NULL) produce no metadata field.
func toRecord(row announcementRow) record.Record {
	fields := make(map[string]field.Value, 6)

	if len(row.Regions) > 0 {
		if v, err := field.NewCategorical(row.Regions); err == nil {
			fields[record.FieldRegions] = v
		}
	}
	if len(row.Sectors) > 0 {
		if v, err := field.NewCategorical(row.Sectors); err == nil {
			fields[record.FieldSectors] = v
		}
	}
	if len(row.Beneficiaries) > 0 {
		if v, err := field.NewCategorical(row.Beneficiaries); err == nil {
			fields[record.FieldBeneficiaries] = v
		}
	}
	if row.AmountMin != nil || row.AmountMax != nil {
		if v, err := field.NewNumericRange(row.AmountMin, row.AmountMax); err == nil {
			fields[record.FieldAmount] = v
		}
	}
	if row.WindowFrom != nil || row.WindowTo != nil {
		if v, err := field.NewDateRange(row.WindowFrom, row.WindowTo); err == nil {
			fields[record.FieldWindow] = v
		}
	}
	fields[record.FieldOpen] = field.NewBool(row.Open)

	return record.Reconstruct(row.ID, row.Title, row.Organization, row.Summary, row.PublishedAt, fields)
}
