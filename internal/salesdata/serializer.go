package salesdata

import (
	"math"
	"time"

	"salespulse/pkg/contracts/domain"
)

// TimestampFormat is the serialized form of timestamps.
const TimestampFormat = "2006-01-02 15:04:05"

// SerializeValue converts a record value to a JSON-safe primitive.
// Timestamps become strings, numbers become float64 and missing values
// become nil. Text in a numeric column is parsed.
func SerializeValue(v any, kind domain.ColumnKind) any {
	switch val := v.(type) {
	case nil:
		return nil
	case time.Time:
		return val.Format(TimestampFormat)
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil
		}
		return val
	case float32:
		return SerializeValue(float64(val), kind)
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case string:
		if isNull(val) {
			return nil
		}
		if kind == domain.KindNumeric {
			f, ok := parseNumber(val)
			if !ok {
				return nil
			}
			return f
		}
		return val
	default:
		return v
	}
}

// SerializeRecord converts every column of rec, in dataset column order.
func SerializeRecord(ds *domain.Dataset, rec *domain.OrderRecord) domain.Row {
	row := make(domain.Row, len(ds.Columns))
	for i, col := range ds.Columns {
		row[i] = domain.Field{
			Key:   col.Name,
			Value: SerializeValue(rec.Field(col.Name), col.Kind),
		}
	}
	return row
}

// SerializeRecords converts up to n records from the start of the dataset.
// The result is never nil.
func SerializeRecords(ds *domain.Dataset, n int) []domain.Row {
	head := ds.Head(n)
	rows := make([]domain.Row, len(head))
	for i := range head {
		rows[i] = SerializeRecord(ds, &head[i])
	}
	return rows
}
