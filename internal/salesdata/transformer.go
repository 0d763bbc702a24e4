package salesdata

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"salespulse/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Errors wrapped by ParseError.
var (
	ErrInvalidEncoding = errors.New("file is not valid UTF-8 text")
	ErrEmptyFile       = errors.New("no columns to parse from file")
	ErrMissingColumns  = errors.New("missing required columns")
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrTooManyFields   = errors.New("too many fields")
)

// ParseError reports input that cannot be turned into a dataset.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Report describes what Transform kept and discarded.
type Report struct {
	RowsRead      int   `json:"rows_read"`
	RowsKept      int   `json:"rows_kept"`
	DroppedLines  []int `json:"dropped_lines"`
	CoercedValues int   `json:"coerced_values"`
}

// RowsDropped returns the number of rows discarded for lacking a timestamp.
func (r *Report) RowsDropped() int {
	return len(r.DroppedLines)
}

// parsedRow is a record before the timestamp policy is applied.
type parsedRow struct {
	record domain.OrderRecord
	timed  bool
}

// Transform parses raw CSV bytes into a dataset. Missing quantities default
// to 1 and missing total prices to the unit price. Rows whose order date and
// time do not form a valid timestamp are dropped and listed in the report.
func Transform(raw []byte) (*domain.Dataset, *Report, error) {
	if !utf8.Valid(raw) {
		return nil, nil, &ParseError{Err: ErrInvalidEncoding}
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	names, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, &ParseError{Err: ErrEmptyFile}
	}
	if err != nil {
		return nil, nil, &ParseError{Err: err}
	}
	h, err := newHeader(names)
	if err != nil {
		return nil, nil, &ParseError{Line: 1, Err: err}
	}

	var (
		rows  [][]string
		lines []int
	)
	for {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, &ParseError{Err: err}
		}
		line, _ := r.FieldPos(0)
		if len(fields) > len(names) {
			return nil, nil, &ParseError{
				Line: line,
				Err:  fmt.Errorf("%w: expected %d, saw %d", ErrTooManyFields, len(names), len(fields)),
			}
		}
		rows = append(rows, fields)
		lines = append(lines, line)
	}

	report := &Report{RowsRead: len(rows), DroppedLines: []int{}}
	parsed := make([]parsedRow, len(rows))
	for i, fields := range rows {
		parsed[i] = parseRow(h, fields, lines[i], report)
	}

	records, dropped := dropUntimed(parsed)
	report.DroppedLines = append(report.DroppedLines, dropped...)
	for i := range records {
		derive(&records[i])
	}
	report.RowsKept = len(records)

	return &domain.Dataset{
		Columns: h.columns(rows),
		Records: records,
	}, report, nil
}

// parseRow reads one CSV row, applying fill defaults and numeric coercion.
func parseRow(h *header, fields []string, line int, report *Report) parsedRow {
	rec := domain.OrderRecord{
		Line:          line,
		OrderID:       h.value(fields, domain.ColumnOrderID),
		OrderDate:     h.value(fields, domain.ColumnOrderDate),
		OrderTime:     h.value(fields, domain.ColumnOrderTime),
		PizzaName:     h.value(fields, domain.ColumnPizzaName),
		PizzaCategory: h.value(fields, domain.ColumnPizzaCategory),
		PizzaSize:     h.value(fields, domain.ColumnPizzaSize),
	}

	number := func(col string, fallback float64) float64 {
		v := h.value(fields, col)
		if v == "" {
			return fallback
		}
		f, ok := parseNumber(v)
		if !ok {
			report.CoercedValues++
			return 0
		}
		return f
	}
	rec.Quantity = number(domain.ColumnQuantity, 1)
	rec.UnitPrice = number(domain.ColumnUnitPrice, math.NaN())
	rec.TotalPrice = number(domain.ColumnTotalPrice, rec.UnitPrice)

	for _, name := range h.names {
		if rec.Field(name) != nil {
			continue
		}
		if rec.Extra == nil {
			rec.Extra = make(map[string]string)
		}
		rec.Extra[name] = h.value(fields, name)
	}

	// time.Parse tolerates a fractional second the layout does not name
	if rec.OrderDate == "" || rec.OrderTime == "" || strings.ContainsAny(rec.OrderTime, ".,") {
		return parsedRow{record: rec}
	}
	ts, err := time.Parse(timestampLayout, rec.OrderDate+" "+rec.OrderTime)
	if err != nil {
		return parsedRow{record: rec}
	}
	rec.OrderDatetime = ts
	return parsedRow{record: rec, timed: true}
}

// dropUntimed keeps rows with a valid timestamp, in input order, and returns
// the source line numbers of the rest.
func dropUntimed(rows []parsedRow) ([]domain.OrderRecord, []int) {
	kept := make([]domain.OrderRecord, 0, len(rows))
	var dropped []int
	for _, row := range rows {
		if !row.timed {
			dropped = append(dropped, row.record.Line)
			continue
		}
		kept = append(kept, row.record)
	}
	return kept, dropped
}

func derive(rec *domain.OrderRecord) {
	rec.Month = int(rec.OrderDatetime.Month())
	rec.DayOfWeek = rec.OrderDatetime.Weekday().String()
	rec.Hour = rec.OrderDatetime.Hour()
	rec.Revenue = rec.Quantity * rec.TotalPrice
}
