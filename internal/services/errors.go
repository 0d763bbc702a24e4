package services

import (
	"errors"

	"salespulse/internal/exporter"
	"salespulse/internal/store"
	"salespulse/internal/validation"
)

// Upload service errors
var (
	ErrInvalidExtension    = validation.ErrInvalidExtension
	ErrMissingFile         = validation.ErrMissingFilename
	ErrUploadNotFound      = store.ErrNotFound
	ErrInvalidExportFormat = exporter.ErrUnsupportedFormat
	ErrInvalidLimit        = errors.New("limit must not be negative")
)
