package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salespulse/internal/shared/testutil"
	"salespulse/internal/websocket"
	"salespulse/pkg/contracts/events"
)

func startWebSocketServer(t *testing.T, origins []string) (*websocket.Hub, string) {
	t.Helper()
	// pumps log after the test body returns, so records are not forwarded to t
	logger := slog.New(testutil.NewBufferedSlogHandler(nil))

	hub := websocket.NewHub(logger)
	hub.Start()
	t.Cleanup(hub.Stop)

	srv := httptest.NewServer(NewWebSocketHandler(hub, origins, 1024, 1024, logger))
	t.Cleanup(srv.Close)

	return hub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebSocketHandler_StreamsEvents(t *testing.T) {
	hub, url := startWebSocketServer(t, []string{"http://localhost:3000"})

	header := http.Header{"Origin": []string{"http://localhost:3000"}}
	conn, resp, err := gorilla.DefaultDialer.Dial(url, header)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, hub.Publish(context.Background(), events.Envelope{
		ID:   "evt-1",
		Type: events.EventUploadProcessed,
		Data: events.UploadProcessed{FileID: "1420070400", Filename: "sales.csv", RecordCount: 2},
	}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(msg, &env))
	assert.Equal(t, "upload.processed", env["type"])
	assert.Equal(t, "1420070400", env["data"].(map[string]interface{})["file_id"])
}

func TestWebSocketHandler_RejectsForeignOrigin(t *testing.T) {
	hub, url := startWebSocketServer(t, []string{"http://localhost:3000"})

	header := http.Header{"Origin": []string{"http://evil.example"}}
	_, resp, err := gorilla.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Zero(t, hub.ClientCount())
}

func TestWebSocketHandler_AllowsMissingOrigin(t *testing.T) {
	_, url := startWebSocketServer(t, []string{"http://localhost:3000"})

	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	conn.Close()
}
