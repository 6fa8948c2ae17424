package records

import (
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/kailas-cloud/grantix/internal/domain"
	"github.com/kailas-cloud/grantix/internal/domain/record"
	"github.com/kailas-cloud/grantix/internal/domain/search/predicate"
)

// buildWhere converts a predicate set into SQL clauses with positional args.
// Catalog arrays are stored lowercase, so categorical values are folded here.
// A predicate on a field the schema cannot filter is a validation error.
func buildWhere(preds predicate.Set) ([]string, []interface{}, error) {
	var clauses []string
	var args []interface{}

	next := func() int { return len(args) + 1 }

	for _, p := range preds.Predicates() {
		switch p.Field() {
		case record.FieldRegions, record.FieldSectors, record.FieldBeneficiaries:
			col := p.Field()
			switch p.Operator() {
			case predicate.Equals:
				if p.Text() == "" {
					return nil, nil, opMismatch(p)
				}
				clauses = append(clauses, fmt.Sprintf("%s && $%d", col, next()))
				args = append(args, pq.Array([]string{strings.ToLower(p.Text())}))
			case predicate.Overlap:
				clauses = append(clauses, fmt.Sprintf("%s && $%d", col, next()))
				args = append(args, pq.Array(lowerAll(p.Values())))
			default:
				return nil, nil, opMismatch(p)
			}

		case record.FieldAmount:
			span := p.NumRange()
			if p.Operator() != predicate.Range || span == nil {
				return nil, nil, opMismatch(p)
			}
			clauses = append(clauses, "(amount_min IS NOT NULL OR amount_max IS NOT NULL)")
			if gt := span.GT(); gt != nil {
				clauses = append(clauses, fmt.Sprintf("(amount_max IS NULL OR amount_max > $%d)", next()))
				args = append(args, *gt)
			}
			if gte := span.GTE(); gte != nil {
				clauses = append(clauses, fmt.Sprintf("(amount_max IS NULL OR amount_max >= $%d)", next()))
				args = append(args, *gte)
			}
			if lt := span.LT(); lt != nil {
				clauses = append(clauses, fmt.Sprintf("(amount_min IS NULL OR amount_min < $%d)", next()))
				args = append(args, *lt)
			}
			if lte := span.LTE(); lte != nil {
				clauses = append(clauses, fmt.Sprintf("(amount_min IS NULL OR amount_min <= $%d)", next()))
				args = append(args, *lte)
			}

		case record.FieldWindow:
			span := p.DateRange()
			if p.Operator() != predicate.Range || span == nil {
				return nil, nil, opMismatch(p)
			}
			clauses = append(clauses, "(window_from IS NOT NULL OR window_to IS NOT NULL)")
			if after := span.After(); after != nil {
				clauses = append(clauses, fmt.Sprintf("(window_to IS NULL OR window_to >= $%d)", next()))
				args = append(args, *after)
			}
			if before := span.Before(); before != nil {
				clauses = append(clauses, fmt.Sprintf("(window_from IS NULL OR window_from <= $%d)", next()))
				args = append(args, *before)
			}

		case record.FieldOpen:
			val, ok := p.BoolValue()
			if p.Operator() != predicate.Equals || !ok {
				return nil, nil, opMismatch(p)
			}
			clauses = append(clauses, fmt.Sprintf("open = $%d", next()))
			args = append(args, val)

		default:
			return nil, nil, domain.NewValidationError(
				"filters", fmt.Sprintf("unsupported filter field %q", p.Field()))
		}
	}

	return clauses, args, nil
}

func opMismatch(p predicate.Predicate) error {
	return domain.NewValidationError(
		"filters", fmt.Sprintf("operator %q does not apply to field %q", p.Operator(), p.Field()))
}

func lowerAll(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(v)
	}
	return out
}
