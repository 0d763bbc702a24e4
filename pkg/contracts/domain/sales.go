package domain

import (
	"time"
)

// Required CSV columns of a sales export.
const (
	ColumnOrderID       = "order_id"
	ColumnOrderDate     = "order_date"
	ColumnOrderTime     = "order_time"
	ColumnPizzaName     = "pizza_name"
	ColumnPizzaCategory = "pizza_category"
	ColumnPizzaSize     = "pizza_size"
	ColumnQuantity      = "quantity"
	ColumnUnitPrice     = "unit_price"
	ColumnTotalPrice    = "total_price"
)

// Columns derived during transformation, appended after the source columns.
const (
	ColumnOrderDatetime = "order_datetime"
	ColumnMonth         = "month"
	ColumnDayOfWeek     = "day_of_week"
	ColumnHour          = "hour"
	ColumnRevenue       = "revenue"
)

// RequiredColumns lists the columns every sales CSV must carry.
var RequiredColumns = []string{
	ColumnOrderID,
	ColumnOrderDate,
	ColumnOrderTime,
	ColumnQuantity,
	ColumnUnitPrice,
	ColumnTotalPrice,
	ColumnPizzaName,
	ColumnPizzaCategory,
	ColumnPizzaSize,
}

// DerivedColumns lists the derived columns in the order they are appended.
var DerivedColumns = []Column{
	{Name: ColumnOrderDatetime, Kind: KindTimestamp},
	{Name: ColumnMonth, Kind: KindNumeric},
	{Name: ColumnDayOfWeek, Kind: KindText},
	{Name: ColumnHour, Kind: KindNumeric},
	{Name: ColumnRevenue, Kind: KindNumeric},
}

// ColumnKind describes how values of a column are serialized.
type ColumnKind string

const (
	KindText      ColumnKind = "text"
	KindNumeric   ColumnKind = "numeric"
	KindTimestamp ColumnKind = "timestamp"
)

// Column is a named, typed dataset column
type Column struct {
	Name string     `json:"name"`
	Kind ColumnKind `json:"kind"`
}

// OrderRecord is one transformed sales row.
// Text fields hold "" for missing values; numeric fields hold NaN.
type OrderRecord struct {
	Line int `json:"-"`

	OrderID       string  `json:"order_id"`
	OrderDate     string  `json:"order_date"`
	OrderTime     string  `json:"order_time"`
	PizzaName     string  `json:"pizza_name"`
	PizzaCategory string  `json:"pizza_category"`
	PizzaSize     string  `json:"pizza_size"`
	Quantity      float64 `json:"quantity"`
	UnitPrice     float64 `json:"unit_price"`
	TotalPrice    float64 `json:"total_price"`

	OrderDatetime time.Time `json:"order_datetime"`
	Month         int       `json:"month"`
	DayOfWeek     string    `json:"day_of_week"`
	Hour          int       `json:"hour"`
	Revenue       float64   `json:"revenue"`

	// Extra holds passthrough columns not covered by the schema.
	Extra map[string]string `json:"-"`
}

// Field returns the typed value of the named column, or nil when the
// record has no such column.
func (r *OrderRecord) Field(name string) any {
	switch name {
	case ColumnOrderID:
		return r.OrderID
	case ColumnOrderDate:
		return r.OrderDate
	case ColumnOrderTime:
		return r.OrderTime
	case ColumnPizzaName:
		return r.PizzaName
	case ColumnPizzaCategory:
		return r.PizzaCategory
	case ColumnPizzaSize:
		return r.PizzaSize
	case ColumnQuantity:
		return r.Quantity
	case ColumnUnitPrice:
		return r.UnitPrice
	case ColumnTotalPrice:
		return r.TotalPrice
	case ColumnOrderDatetime:
		return r.OrderDatetime
	case ColumnMonth:
		return r.Month
	case ColumnDayOfWeek:
		return r.DayOfWeek
	case ColumnHour:
		return r.Hour
	case ColumnRevenue:
		return r.Revenue
	}
	if v, ok := r.Extra[name]; ok {
		return v
	}
	return nil
}

// Dataset is an ordered sequence of transformed records together with
// the column layout they were read with.
type Dataset struct {
	Columns []Column
	Records []OrderRecord
}

// Len returns the number of records
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// Head returns at most n records from the start of the dataset.
func (d *Dataset) Head(n int) []OrderRecord {
	if d == nil || n <= 0 {
		return nil
	}
	if n > len(d.Records) {
		n = len(d.Records)
	}
	return d.Records[:n]
}

// Kind returns the kind of the named column, KindText when unknown.
func (d *Dataset) Kind(name string) ColumnKind {
	for _, c := range d.Columns {
		if c.Name == name {
			return c.Kind
		}
	}
	return KindText
}

// ColumnNames returns the column names in dataset order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// Upload is a processed file held by the upload store. Entries are never
// mutated after they are stored.
type Upload struct {
	FileID      string
	Filename    string
	Dataset     *Dataset
	RecordCount int
	RowsDropped int
	Metrics     *Metrics
	UploadedAt  time.Time
}

// Summary returns the directory entry for the upload.
func (u *Upload) Summary() UploadSummary {
	return UploadSummary{
		Filename:    u.Filename,
		RecordCount: u.RecordCount,
		UploadTime:  u.FileID,
	}
}

// UploadSummary is the directory listing entry for an upload
type UploadSummary struct {
	Filename    string `json:"filename"`
	RecordCount int    `json:"record_count"`
	UploadTime  string `json:"upload_time"`
}
