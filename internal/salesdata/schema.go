package salesdata

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"salespulse/pkg/contracts/domain"
)

// timestampLayout matches MM/DD/YYYY HH:MM:SS. Month, day and time fields
// accept one or two digits.
const timestampLayout = "1/2/2006 15:4:5"

// nullTokens are the cell values read as missing.
var nullTokens = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

func isNull(v string) bool {
	_, ok := nullTokens[v]
	return ok
}

// normalize maps null tokens to "".
func normalize(v string) string {
	if isNull(v) {
		return ""
	}
	return v
}

// parseNumber parses a finite number, tolerating surrounding spaces.
func parseNumber(v string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

var fixedKinds = map[string]domain.ColumnKind{
	domain.ColumnQuantity:   domain.KindNumeric,
	domain.ColumnUnitPrice:  domain.KindNumeric,
	domain.ColumnTotalPrice: domain.KindNumeric,
}

// header is the validated column layout of a CSV file.
type header struct {
	names []string
	index map[string]int
}

func newHeader(names []string) (*header, error) {
	h := &header{names: names, index: make(map[string]int, len(names))}
	for i, name := range names {
		if _, dup := h.index[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
		}
		h.index[name] = i
	}

	var missing []string
	for _, col := range domain.RequiredColumns {
		if _, ok := h.index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return h, nil
}

// value returns the normalized cell for column name, "" when the row is short.
func (h *header) value(fields []string, name string) string {
	i, ok := h.index[name]
	if !ok || i >= len(fields) {
		return ""
	}
	return normalize(fields[i])
}

// columns builds the dataset layout. Source columns keep header order with
// kinds inferred from rows; derived columns replace same-named source
// columns in place and are otherwise appended.
func (h *header) columns(rows [][]string) []domain.Column {
	derived := make(map[string]domain.ColumnKind, len(domain.DerivedColumns))
	for _, c := range domain.DerivedColumns {
		derived[c.Name] = c.Kind
	}

	cols := make([]domain.Column, 0, len(h.names)+len(domain.DerivedColumns))
	for _, name := range h.names {
		kind, ok := derived[name]
		switch {
		case ok:
			delete(derived, name)
		case fixedKinds[name] != "":
			kind = fixedKinds[name]
		default:
			kind = inferKind(rows, h.index[name])
		}
		cols = append(cols, domain.Column{Name: name, Kind: kind})
	}
	for _, c := range domain.DerivedColumns {
		if _, pending := derived[c.Name]; pending {
			cols = append(cols, c)
		}
	}
	return cols
}

// inferKind reports numeric when every non-null value in the column parses
// as a number.
func inferKind(rows [][]string, col int) domain.ColumnKind {
	for _, row := range rows {
		if col >= len(row) || isNull(row[col]) {
			continue
		}
		if _, ok := parseNumber(row[col]); !ok {
			return domain.KindText
		}
	}
	return domain.KindNumeric
}
