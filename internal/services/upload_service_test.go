package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"salespulse/internal/infrastructure"
	"salespulse/internal/salesdata"
	"salespulse/internal/shared/testutil"
	"salespulse/internal/store"
	contract "salespulse/pkg/contracts/events"
)

// MockPublisher is a testify mock of events.Publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, env contract.Envelope) error {
	return m.Called(ctx, env).Error(0)
}

func (m *MockPublisher) Name() string {
	return "mock"
}

// stepClock advances one second per call
type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time {
	t := c.now
	c.now = c.now.Add(time.Second)
	return t
}

type fixture struct {
	svc       *UploadService
	store     *store.MemoryStore
	publisher *MockPublisher
	logs      *testutil.BufferedSlogHandler
	spans     *tracetest.SpanRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger, logs := testutil.NewTestLogger(t)
	clock := &stepClock{now: time.Unix(1420070400, 0)}
	st := store.NewMemoryStore(store.WithClock(clock.Now), store.WithLogger(logger))

	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	metrics, err := infrastructure.CreateBusinessMetrics(nil)
	require.NoError(t, err)

	pub := new(MockPublisher)
	return &fixture{
		svc:       NewUploadService(st, pub, tp.Tracer("test"), metrics, logger),
		store:     st,
		publisher: pub,
		logs:      logs,
		spans:     recorder,
	}
}

func (f *fixture) upload(t *testing.T, orders ...testutil.Order) string {
	t.Helper()
	if len(orders) == 0 {
		orders = testutil.DefaultOrders()
	}
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	resp, err := f.svc.Upload(context.Background(), "sales.csv", testutil.SalesCSV(orders...))
	require.NoError(t, err)
	return resp.FileID
}

func TestUploadService_Upload(t *testing.T) {
	f := newFixture(t)

	var published contract.Envelope
	f.publisher.On("Publish", mock.Anything, mock.MatchedBy(func(env contract.Envelope) bool {
		published = env
		return true
	})).Return(nil).Once()

	ctx := infrastructure.WithTraceID(context.Background(), "trace-upload")
	resp, err := f.svc.Upload(ctx, "sales.csv", testutil.SalesCSV(testutil.DefaultOrders()...))
	require.NoError(t, err)

	assert.Equal(t, UploadProcessedMessage, resp.Message)
	assert.Equal(t, "1420070400", resp.FileID)
	assert.Equal(t, 2, resp.RecordCount)
	assert.Zero(t, resp.RowsDropped)
	require.NotNil(t, resp.Metrics)
	assert.Equal(t, 30.0, resp.Metrics.TotalRevenue)
	assert.Equal(t, 2, resp.Metrics.TotalOrders)
	assert.Equal(t, 15.0, resp.Metrics.AvgOrderValue)

	stored, err := f.store.Get(resp.FileID)
	require.NoError(t, err)
	assert.Equal(t, "sales.csv", stored.Filename)
	assert.Same(t, stored.Metrics, resp.Metrics)

	f.publisher.AssertExpectations(t)
	assert.Equal(t, contract.EventUploadProcessed, published.Type)
	assert.Equal(t, "trace-upload", published.TraceID)
	assert.Equal(t, contract.UploadProcessed{
		FileID:       "1420070400",
		Filename:     "sales.csv",
		RecordCount:  2,
		TotalRevenue: 30,
		TotalOrders:  2,
	}, published.Data)

	testutil.AssertLogContains(t, f.logs, slog.LevelInfo, "upload processed")
	testutil.AssertNoErrors(t, f.logs)
}

func TestUploadService_UploadAssignsTraceID(t *testing.T) {
	f := newFixture(t)

	var published contract.Envelope
	f.publisher.On("Publish", mock.Anything, mock.MatchedBy(func(env contract.Envelope) bool {
		published = env
		return true
	})).Return(nil).Once()

	_, err := f.svc.Upload(context.Background(), "sales.csv", testutil.SalesCSV(testutil.DefaultOrders()...))
	require.NoError(t, err)

	f.publisher.AssertExpectations(t)
	assert.NotEmpty(t, published.TraceID)
}

func TestUploadService_UploadSpans(t *testing.T) {
	f := newFixture(t)
	f.upload(t)

	var names []string
	for _, s := range f.spans.Ended() {
		names = append(names, s.Name())
	}
	assert.ElementsMatch(t, []string{"salesdata.transform", "salesdata.aggregate", "upload.process"}, names)
}

func TestUploadService_UploadRejectsExtension(t *testing.T) {
	tests := []string{"sales.CSV", "sales.xlsx", "sales.csv.txt"}

	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)

			_, err := f.svc.Upload(context.Background(), name, testutil.SalesCSV(testutil.DefaultOrders()...))
			assert.ErrorIs(t, err, ErrInvalidExtension)
			assert.Zero(t, f.store.Len())
			f.publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
		})
	}
}

func TestUploadService_UploadParseError(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Upload(context.Background(), "sales.csv", []byte("order_id,quantity\n1,2\n"))
	require.Error(t, err)

	var perr *salesdata.ParseError
	require.True(t, errors.As(err, &perr))
	assert.ErrorIs(t, err, salesdata.ErrMissingColumns)
	assert.Contains(t, err.Error(), "error processing file")
	assert.Zero(t, f.store.Len())
	testutil.AssertLogContains(t, f.logs, slog.LevelWarn, "upload rejected")
}

func TestUploadService_UploadReportsDroppedRows(t *testing.T) {
	f := newFixture(t)

	orders := testutil.DefaultOrders()
	orders[1].Date = "2015-01-02"
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil)

	resp, err := f.svc.Upload(context.Background(), "sales.csv", testutil.SalesCSV(orders...))
	require.NoError(t, err)

	assert.Equal(t, 1, resp.RecordCount)
	assert.Equal(t, 1, resp.RowsDropped)
	testutil.AssertLogContains(t, f.logs, slog.LevelInfo, "dropped rows")
	testutil.AssertLogAttr(t, f.logs, "rows_dropped", int64(1))
}

func TestUploadService_UploadSurvivesPublishFailure(t *testing.T) {
	f := newFixture(t)
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	resp, err := f.svc.Upload(context.Background(), "sales.csv", testutil.SalesCSV(testutil.DefaultOrders()...))
	require.NoError(t, err)

	assert.Equal(t, 1, f.store.Len())
	assert.NotEmpty(t, resp.FileID)
	testutil.AssertLogContains(t, f.logs, slog.LevelWarn, "failed to publish upload event")
}

func TestUploadService_UploadWithoutPublisher(t *testing.T) {
	st := store.NewMemoryStore()
	svc := NewUploadService(st, nil, nil, nil, nil)

	_, err := svc.Upload(context.Background(), "sales.csv", testutil.SalesCSV(testutil.DefaultOrders()...))
	require.NoError(t, err)
	assert.Equal(t, 1, st.Len())
}

func TestUploadService_Metrics(t *testing.T) {
	f := newFixture(t)
	id := f.upload(t)

	m, err := f.svc.Metrics(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 30.0, m.TotalRevenue)

	_, err = f.svc.Metrics(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrUploadNotFound)
}

func TestUploadService_RawData(t *testing.T) {
	f := newFixture(t)
	id := f.upload(t)

	tests := []struct {
		name    string
		fileID  string
		limit   int
		want    int
		wantErr error
	}{
		{name: "first row", fileID: id, limit: 1, want: 1},
		{name: "limit above size", fileID: id, limit: 50, want: 2},
		{name: "zero limit", fileID: id, limit: 0, want: 0},
		{name: "negative limit", fileID: id, limit: -1, wantErr: ErrInvalidLimit},
		{name: "unknown id", fileID: "0", limit: 10, wantErr: ErrUploadNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := f.svc.RawData(context.Background(), tt.fileID, tt.limit)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, rows)
			assert.Len(t, rows, tt.want)
		})
	}

	rows, err := f.svc.RawData(context.Background(), id, 1)
	require.NoError(t, err)
	v, ok := rows[0].Get("order_datetime")
	require.True(t, ok)
	assert.Equal(t, "2015-01-01 11:38:36", v)
}

func TestUploadService_ListUploads(t *testing.T) {
	f := newFixture(t)
	assert.Empty(t, f.svc.ListUploads(context.Background()))

	first := f.upload(t)
	second := f.upload(t, testutil.DefaultOrders()[:1]...)

	list := f.svc.ListUploads(context.Background())
	require.Len(t, list, 2)
	assert.Equal(t, 2, list[first].RecordCount)
	assert.Equal(t, first, list[first].UploadTime)
	assert.Equal(t, 1, list[second].RecordCount)
	assert.Equal(t, "sales.csv", list[second].Filename)
}

func TestUploadService_Export(t *testing.T) {
	f := newFixture(t)
	id := f.upload(t)

	res, err := f.svc.Export(context.Background(), id, "csv")
	require.NoError(t, err)
	assert.Equal(t, "sales_processed.csv", res.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", res.ContentType)

	ds, _, err := salesdata.Transform(res.Data)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())

	res, err = f.svc.Export(context.Background(), id, "xlsx")
	require.NoError(t, err)
	assert.Equal(t, "sales_processed.xlsx", res.Filename)
	assert.NotEmpty(t, res.Data)

	_, err = f.svc.Export(context.Background(), id, "pdf")
	assert.ErrorIs(t, err, ErrInvalidExportFormat)

	_, err = f.svc.Export(context.Background(), "missing", "csv")
	assert.ErrorIs(t, err, ErrUploadNotFound)
}

func TestExportName(t *testing.T) {
	assert.Equal(t, "pizza_sales_processed.csv", exportName("pizza_sales.csv", "csv"))
	assert.Equal(t, "sales_processed.xlsx", exportName("reports/2015/sales.csv", "xlsx"))
	assert.Equal(t, "upload_processed.csv", exportName(".csv", "csv"))
}
