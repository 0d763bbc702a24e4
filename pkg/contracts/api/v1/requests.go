// Package api contains the HTTP contract definitions for the SalesPulse API.
// Version v1 represents the current stable API version.
package api

import (
	"salespulse/pkg/contracts/domain"
)

// DefaultRawDataLimit is the number of rows returned when no limit is given.
const DefaultRawDataLimit = 50

// Export formats
const (
	ExportFormatCSV  = "csv"
	ExportFormatXLSX = "xlsx"
)

// RawDataRequest represents a raw-data page request
type RawDataRequest struct {
	FileID string `json:"file_id" validate:"required"`
	Limit  int    `json:"limit" query:"limit" validate:"min=0"`
}

// ExportRequest represents a dataset export request
type ExportRequest struct {
	FileID string `json:"file_id" validate:"required"`
	Format string `json:"format" query:"format" validate:"required,oneof=csv xlsx"`
}

// UploadResponse is returned after a file has been processed
type UploadResponse struct {
	Message     string          `json:"message"`
	FileID      string          `json:"file_id"`
	RecordCount int             `json:"record_count"`
	RowsDropped int             `json:"rows_dropped"`
	Metrics     *domain.Metrics `json:"metrics"`
}

// StatusResponse is the readiness payload served at the root path
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// UploadedFilesResponse maps file ids to their directory entries
type UploadedFilesResponse map[string]domain.UploadSummary
