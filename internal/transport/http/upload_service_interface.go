package http

import (
	"context"

	"salespulse/internal/services"
	api "salespulse/pkg/contracts/api/v1"
	"salespulse/pkg/contracts/domain"
)

// UploadServiceInterface defines the upload operations served over HTTP
type UploadServiceInterface interface {
	Upload(ctx context.Context, filename string, content []byte) (*api.UploadResponse, error)
	Metrics(ctx context.Context, fileID string) (*domain.Metrics, error)
	RawData(ctx context.Context, fileID string, limit int) ([]domain.Row, error)
	ListUploads(ctx context.Context) api.UploadedFilesResponse
	Export(ctx context.Context, fileID, format string) (*services.ExportResult, error)
}
