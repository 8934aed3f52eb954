package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavpadwal/FluxCam/internal/logging"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := New("0", logging.Discard(), nil)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return s, ts
}

func TestPreviewPageServed(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBroadcastFrameReachesClient(t *testing.T) {
	s, ts := newTestServer(t)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/camera"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		return s.ClientCount() == 1
	}, time.Second, 5*time.Millisecond)

	frame := []byte{0xff, 0xd8, 0x01, 0x02, 0xff, 0xd9}
	s.BroadcastFrame(frame)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, msgType)
	assert.Equal(t, frame, payload)
}

func TestBroadcastWithNoClientsIsSafe(t *testing.T) {
	s := New("0", logging.Discard(), nil)
	s.BroadcastFrame([]byte("frame"))
	assert.Equal(t, 0, s.ClientCount())
}

func TestSetPortWhileStopped(t *testing.T) {
	s := New("8080", logging.Discard(), nil)
	require.NoError(t, s.SetPort("9090"))
	assert.Equal(t, "9090", s.Port())
}

func TestStopWithoutStartFails(t *testing.T) {
	s := New("8080", logging.Discard(), nil)
	assert.Error(t, s.Stop())
}

func TestLogCallbackForwarding(t *testing.T) {
	var levels []string
	s := New("8080", logging.Discard(), func(level, message string) {
		levels = append(levels, level)
	})

	s.addLog("INFO", "hello")
	s.addLog("ERROR", "boom")

	assert.Equal(t, []string{"INFO", "ERROR"}, levels)

	logs := s.GetRecentLogs(1)
	require.Len(t, logs, 1)
	assert.Contains(t, logs[0].Message, "boom")
}
