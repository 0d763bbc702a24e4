// Package events contains event contract definitions published to
// websocket and message bus subscribers.
package events

import (
	"time"
)

// EventType identifies a published event
type EventType string

const (
	// EventUploadProcessed is published once per successfully processed upload
	EventUploadProcessed EventType = "upload.processed"
)

// Envelope wraps every published event
type Envelope struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
}

// UploadProcessed describes a stored upload
type UploadProcessed struct {
	FileID       string  `json:"file_id"`
	Filename     string  `json:"filename"`
	RecordCount  int     `json:"record_count"`
	RowsDropped  int     `json:"rows_dropped"`
	TotalRevenue float64 `json:"total_revenue"`
	TotalOrders  int     `json:"total_orders"`
	Replaced     bool    `json:"replaced"`
}
