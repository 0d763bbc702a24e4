package services

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"salespulse/internal/events"
	"salespulse/internal/exporter"
	"salespulse/internal/infrastructure"
	"salespulse/internal/salesdata"
	"salespulse/internal/validation"
	api "salespulse/pkg/contracts/api/v1"
	"salespulse/pkg/contracts/domain"
	contract "salespulse/pkg/contracts/events"
)

// UploadProcessedMessage is returned with every accepted upload
const UploadProcessedMessage = "File processed successfully"

// maxLoggedLines caps the dropped line numbers written to a single log entry
const maxLoggedLines = 20

// UploadStore holds processed uploads
type UploadStore interface {
	Put(u domain.Upload) (*domain.Upload, bool)
	Get(id string) (*domain.Upload, error)
	List() []*domain.Upload
	Len() int
}

// UploadService ingests sales CSV files and serves the stored results
type UploadService struct {
	store     UploadStore
	validator *validation.FileValidator
	publisher events.Publisher
	tracer    trace.Tracer
	metrics   *infrastructure.BusinessMetrics
	logger    *slog.Logger
}

// NewUploadService creates an upload service. publisher, tracer and metrics
// may be nil.
func NewUploadService(store UploadStore, publisher events.Publisher, tracer trace.Tracer, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *UploadService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	validator := validation.NewFileValidator(logger)
	logger = infrastructure.WithComponent(logger, "upload_service")
	if tracer == nil {
		tracer = otel.Tracer(infrastructure.MeterName)
	}

	return &UploadService{
		store:     store,
		validator: validator,
		publisher: publisher,
		tracer:    tracer,
		metrics:   metrics,
		logger:    logger,
	}
}

// Upload validates the file name, transforms and aggregates content, stores
// the result and publishes an upload.processed event
func (s *UploadService) Upload(ctx context.Context, filename string, content []byte) (*api.UploadResponse, error) {
	// events published outside a request still carry a correlation id
	ctx = infrastructure.EnsureTraceID(ctx)
	ctx, span := s.tracer.Start(ctx, "upload.process",
		trace.WithAttributes(
			attribute.String("upload.filename", filename),
			attribute.Int("upload.size_bytes", len(content)),
		))
	defer span.End()

	start := time.Now()

	if err := s.validator.ValidateUploadName(filename); err != nil {
		infrastructure.RecordUploadFailure(ctx, s.metrics, "invalid_file")
		infrastructure.RecordError(ctx, err)
		return nil, err
	}

	ds, report, err := s.transform(ctx, content)
	if err != nil {
		infrastructure.RecordUploadFailure(ctx, s.metrics, "parse_error")
		infrastructure.RecordError(ctx, err)
		infrastructure.WithError(s.logger, err).WarnContext(ctx, "upload rejected",
			slog.String("filename", filename))
		return nil, fmt.Errorf("error processing file: %w", err)
	}

	if report.RowsDropped() > 0 {
		lines := report.DroppedLines
		if len(lines) > maxLoggedLines {
			lines = lines[:maxLoggedLines]
		}
		s.logger.InfoContext(ctx, "dropped rows without a valid order timestamp",
			slog.String("filename", filename),
			slog.Int("rows_dropped", report.RowsDropped()),
			slog.Any("lines", lines))
	}

	metrics := s.aggregate(ctx, ds)

	stored, replaced := s.store.Put(domain.Upload{
		Filename:    filename,
		Dataset:     ds,
		RecordCount: ds.Len(),
		RowsDropped: report.RowsDropped(),
		Metrics:     metrics,
	})
	span.SetAttributes(
		attribute.String("upload.file_id", stored.FileID),
		attribute.Int("upload.record_count", stored.RecordCount),
		attribute.Bool("upload.replaced", replaced),
	)

	duration := time.Since(start)
	infrastructure.RecordUpload(ctx, s.metrics, report.RowsKept, report.RowsDropped(), report.CoercedValues, duration)

	s.logger.InfoContext(ctx, "upload processed",
		slog.String("file_id", stored.FileID),
		slog.String("filename", filename),
		slog.Int("record_count", stored.RecordCount),
		slog.Int("rows_dropped", stored.RowsDropped),
		slog.Int("coerced_values", report.CoercedValues),
		slog.Bool("replaced", replaced),
		slog.Duration("duration", duration))

	s.publish(ctx, stored, replaced)

	return &api.UploadResponse{
		Message:     UploadProcessedMessage,
		FileID:      stored.FileID,
		RecordCount: stored.RecordCount,
		RowsDropped: stored.RowsDropped,
		Metrics:     stored.Metrics,
	}, nil
}

func (s *UploadService) transform(ctx context.Context, content []byte) (*domain.Dataset, *salesdata.Report, error) {
	_, span := s.tracer.Start(ctx, "salesdata.transform")
	defer span.End()

	ds, report, err := salesdata.Transform(content)
	if err != nil {
		span.RecordError(err)
		return nil, nil, err
	}
	span.SetAttributes(
		attribute.Int("rows.read", report.RowsRead),
		attribute.Int("rows.kept", report.RowsKept),
		attribute.Int("rows.dropped", report.RowsDropped()),
		attribute.Int("values.coerced", report.CoercedValues),
	)
	return ds, report, nil
}

func (s *UploadService) aggregate(ctx context.Context, ds *domain.Dataset) *domain.Metrics {
	_, span := s.tracer.Start(ctx, "salesdata.aggregate",
		trace.WithAttributes(attribute.Int("rows", ds.Len())))
	defer span.End()

	return salesdata.Aggregate(ds)
}

// publish announces a stored upload. Delivery failures never fail the upload.
func (s *UploadService) publish(ctx context.Context, u *domain.Upload, replaced bool) {
	if s.publisher == nil {
		return
	}

	env := events.NewEnvelope(ctx, contract.EventUploadProcessed, contract.UploadProcessed{
		FileID:       u.FileID,
		Filename:     u.Filename,
		RecordCount:  u.RecordCount,
		RowsDropped:  u.RowsDropped,
		TotalRevenue: u.Metrics.TotalRevenue,
		TotalOrders:  u.Metrics.TotalOrders,
		Replaced:     replaced,
	})

	if err := s.publisher.Publish(ctx, env); err != nil {
		if s.metrics != nil {
			s.metrics.EventPublishErrs.Add(ctx, 1)
		}
		s.logger.WarnContext(ctx, "failed to publish upload event",
			slog.String("file_id", u.FileID),
			slog.String("publisher", s.publisher.Name()),
			slog.String("error", err.Error()))
		return
	}
	infrastructure.AddSpanEvent(ctx, "event.published", attribute.String("event.id", env.ID))
}

// Metrics returns the metrics computed for an upload
func (s *UploadService) Metrics(ctx context.Context, fileID string) (*domain.Metrics, error) {
	u, err := s.store.Get(fileID)
	if err != nil {
		s.logger.DebugContext(ctx, "metrics lookup missed", slog.String("file_id", fileID))
		return nil, err
	}
	return u.Metrics, nil
}

// RawData returns up to limit serialized records from the start of an
// upload's dataset. A limit of zero yields an empty page.
func (s *UploadService) RawData(ctx context.Context, fileID string, limit int) ([]domain.Row, error) {
	if limit < 0 {
		return nil, ErrInvalidLimit
	}

	u, err := s.store.Get(fileID)
	if err != nil {
		s.logger.DebugContext(ctx, "raw data lookup missed", slog.String("file_id", fileID))
		return nil, err
	}
	return salesdata.SerializeRecords(u.Dataset, limit), nil
}

// ListUploads returns the directory of stored uploads keyed by file id
func (s *UploadService) ListUploads(ctx context.Context) api.UploadedFilesResponse {
	uploads := s.store.List()
	result := make(api.UploadedFilesResponse, len(uploads))
	for _, u := range uploads {
		result[u.FileID] = u.Summary()
	}
	return result
}

// ExportResult is a rendered dataset download
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Export renders an upload's full transformed dataset in the requested format
func (s *UploadService) Export(ctx context.Context, fileID, format string) (*ExportResult, error) {
	if format != exporter.FormatCSV && format != exporter.FormatXLSX {
		return nil, fmt.Errorf("%w: %q", ErrInvalidExportFormat, format)
	}

	u, err := s.store.Get(fileID)
	if err != nil {
		return nil, err
	}

	ctx, span := s.tracer.Start(ctx, "upload.export",
		trace.WithAttributes(
			attribute.String("upload.file_id", fileID),
			attribute.String("export.format", format),
		))
	defer span.End()

	var buf bytes.Buffer
	if err := exporter.Write(&buf, u.Dataset, format); err != nil {
		infrastructure.RecordError(ctx, err)
		return nil, fmt.Errorf("export %s as %s: %w", fileID, format, err)
	}

	s.logger.InfoContext(ctx, "upload exported",
		slog.String("file_id", fileID),
		slog.String("format", format),
		slog.Int("record_count", u.RecordCount),
		slog.Int("bytes", buf.Len()))

	return &ExportResult{
		Filename:    exportName(u.Filename, format),
		ContentType: exporter.ContentType(format),
		Data:        buf.Bytes(),
	}, nil
}

// exportName derives the download name, "sales.csv" becoming "sales_processed.xlsx"
func exportName(filename, format string) string {
	base := strings.TrimSuffix(path.Base(filename), validation.CSVExtension)
	if base == "" || base == "." || base == "/" {
		base = "upload"
	}
	return base + "_processed." + format
}
