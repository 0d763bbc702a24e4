package exporter

import (
	"errors"
	"fmt"
	"strconv"

	"salespulse/internal/salesdata"
	"salespulse/pkg/contracts/domain"
)

// Export formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// ErrUnsupportedFormat is returned for formats other than csv and xlsx
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ContentType returns the media type of an export format
func ContentType(format string) string {
	switch format {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "text/csv; charset=utf-8"
	}
}

// cellValue returns the serialized value of one column, nil for missing
func cellValue(rec *domain.OrderRecord, col domain.Column) any {
	return salesdata.SerializeValue(rec.Field(col.Name), col.Kind)
}

// formatCell renders a serialized value as CSV text. Missing values are empty.
func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case string:
		return val
	default:
		return fmt.Sprint(val)
	}
}
