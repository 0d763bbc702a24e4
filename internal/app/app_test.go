package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/config"
	"salespulse/internal/shared/testutil"
	api "salespulse/pkg/contracts/api/v1"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Security.RateLimit.Enabled = false
	return cfg
}

func newTestApp(t *testing.T, mutate func(*config.Config)) *Application {
	t.Helper()
	cfg := testConfig()
	if mutate != nil {
		mutate(cfg)
	}

	// background goroutines may log after the test returns
	logger := slog.New(testutil.NewBufferedSlogHandler(nil))

	application, err := New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = application.Stop(context.Background())
	})
	return application
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(a *Application, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	return rec
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(nil, nil)
	require.Error(t, err)
}

func TestRootReportsReady(t *testing.T) {
	a := newTestApp(t, nil)

	rec := serve(a, httptest.NewRequest(http.MethodGet, "/", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got api.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "ready", got.Status)
	assert.Equal(t, "Pizza Analytics API is running!", got.Message)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestUploadLifecycle(t *testing.T) {
	a := newTestApp(t, nil)

	rec := serve(a, uploadRequest(t, "sales.csv", testutil.SalesCSV(testutil.DefaultOrders()...)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var uploaded api.UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploaded))
	assert.Equal(t, "File processed successfully", uploaded.Message)
	assert.Equal(t, 2, uploaded.RecordCount)
	require.NotEmpty(t, uploaded.FileID)

	var uploadBody map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &uploadBody))
	require.Contains(t, uploadBody, "metrics")

	rec = serve(a, httptest.NewRequest(http.MethodGet, "/api/metrics/"+uploaded.FileID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, string(uploadBody["metrics"]), rec.Body.String())
	var metrics map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &metrics))
	assert.Equal(t, 30.0, metrics["total_revenue"])
	assert.Equal(t, 2.0, metrics["total_orders"])

	rec = serve(a, httptest.NewRequest(http.MethodGet, "/api/raw-data/"+uploaded.FileID+"?limit=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var rows []map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "The Hawaiian Pizza", rows[0]["pizza_name"])

	rec = serve(a, httptest.NewRequest(http.MethodGet, "/api/uploaded-files", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var listing map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	require.Contains(t, listing, uploaded.FileID)
	assert.Equal(t, "sales.csv", listing[uploaded.FileID]["filename"])

	rec = serve(a, httptest.NewRequest(http.MethodGet, "/api/export/"+uploaded.FileID, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="sales_processed.csv"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(strings.TrimPrefix(rec.Body.String(), "\ufeff"), "pizza_id,order_id"))

	rec = serve(a, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, 1.0, health["uploads"])
}

func TestProblemResponses(t *testing.T) {
	a := newTestApp(t, nil)

	tests := []struct {
		name   string
		req    *http.Request
		status int
		code   string
	}{
		{
			name:   "unknown route",
			req:    httptest.NewRequest(http.MethodGet, "/nope", nil),
			status: http.StatusNotFound,
			code:   "NOT_FOUND",
		},
		{
			name:   "unknown api route",
			req:    httptest.NewRequest(http.MethodGet, "/api/nope", nil),
			status: http.StatusNotFound,
			code:   "NOT_FOUND",
		},
		{
			name:   "unknown upload",
			req:    httptest.NewRequest(http.MethodGet, "/api/metrics/123", nil),
			status: http.StatusNotFound,
			code:   "FILE_NOT_FOUND",
		},
		{
			name:   "wrong extension",
			req:    uploadRequest(t, "sales.txt", []byte("a,b\n1,2\n")),
			status: http.StatusBadRequest,
			code:   "INVALID_FILE_TYPE",
		},
		{
			name:   "wrong method",
			req:    httptest.NewRequest(http.MethodDelete, "/api/upload", nil),
			status: http.StatusMethodNotAllowed,
			code:   "METHOD_NOT_ALLOWED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(a, tt.req)

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

			var problem map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			assert.Equal(t, tt.code, problem["error_code"])
		})
	}
}

func TestPrometheusEndpoint(t *testing.T) {
	a := newTestApp(t, nil)

	rec := serve(a, uploadRequest(t, "sales.csv", testutil.SalesCSV(testutil.DefaultOrders()...)))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(a, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "salespulse_store_uploads 1")
	assert.Contains(t, body, "go_goroutines")
}

func TestMetricsEndpointDisabled(t *testing.T) {
	a := newTestApp(t, func(cfg *config.Config) {
		cfg.Telemetry.MetricExporter = "none"
	})

	rec := serve(a, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	a := newTestApp(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/upload", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	rec := serve(a, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestWebSocketReceivesUploadEvents(t *testing.T) {
	a := newTestApp(t, nil)
	srv := httptest.NewServer(a.Router)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return a.WebSocketHub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	req := uploadRequest(t, "sales.csv", testutil.SalesCSV(testutil.DefaultOrders()...))
	rec := serve(a, req)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(msg, &env))
	assert.Equal(t, "upload.processed", env["type"])
	data := env["data"].(map[string]interface{})
	assert.Equal(t, "sales.csv", data["filename"])
	assert.Equal(t, 2.0, data["record_count"])
}

func TestWebSocketDisabled(t *testing.T) {
	a := newTestApp(t, func(cfg *config.Config) {
		cfg.WebSocket.Enabled = false
	})

	assert.Nil(t, a.WebSocketHub)

	rec := serve(a, httptest.NewRequest(http.MethodGet, "/ws", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(a, uploadRequest(t, "sales.csv", testutil.SalesCSV(testutil.DefaultOrders()...)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(a, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	var health map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &health))
	assert.Equal(t, 0.0, health["websocket_clients"])
}

func TestServeShutsDownOnCancel(t *testing.T) {
	a := newTestApp(t, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, ln) }()

	resp, err := http.Get(fmt.Sprintf("http://%s/", ln.Addr()))
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	// stopping again returns the first result
	assert.NoError(t, a.Stop(context.Background()))
}

func TestRunFailsWhenAddressInUse(t *testing.T) {
	taken, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer taken.Close()

	port := taken.Addr().(*net.TCPAddr).Port
	a := newTestApp(t, func(cfg *config.Config) {
		cfg.Server.Port = port
	})

	err = a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}
