package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"order-server/src/logger"
	"order-server/src/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStats struct {
	stats   models.MServerStats
	clients map[int]models.MClientStatus
}

func (f *fakeStats) Stats() models.MServerStats { return f.stats }
func (f *fakeStats) IsAccepting() bool          { return f.stats.Accepting }
func (f *fakeStats) SetAccepting(a bool)        { f.stats.Accepting = a }
func (f *fakeStats) ClientStatus(id int) (models.MClientStatus, bool) {
	s, ok := f.clients[id]
	return s, ok
}

func newTestServer(t *testing.T) (*FastAPIServer, *fakeStats) {
	stats := &fakeStats{
		stats: models.MServerStats{RegisteredClients: 2, Accepting: true, HistoryCapacity: 100, StoredOrders: 3, ByKind: map[string]int64{}},
		clients: map[int]models.MClientStatus{
			0: {ClientID: 0, HistorySize: 3, HistoryCapacity: 100},
		},
	}
	s := NewFastAPIServer(&models.MConfig{Host: "127.0.0.1", Port: 8080}, logger.NewNopLogger())
	s.SetStatsProvider(stats)
	s.startHub()
	t.Cleanup(func() { s.Stop() })
	return s, stats
}

func get(t *testing.T, s *FastAPIServer, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.Handler().ServeHTTP(rec, req)
	return rec
}

// -----------------------------------------------------------------------------

func TestRoutes(t *testing.T) {
	s, _ := newTestServer(t)

	t.Run("health", func(t *testing.T) {
		rec := get(t, s, "/api/health")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok","connections":0,"registered_clients":2,"accepting":true}`, rec.Body.String())
	})

	t.Run("stats", func(t *testing.T) {
		rec := get(t, s, "/api/stats")
		require.Equal(t, http.StatusOK, rec.Code)

		var stats models.MServerStats
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
		assert.Equal(t, 3, stats.StoredOrders)
	})

	t.Run("known client", func(t *testing.T) {
		rec := get(t, s, "/api/clients/0")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"client_id":0,"history_size":3,"history_capacity":100}`, rec.Body.String())
	})

	t.Run("unknown client", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, get(t, s, "/api/clients/9").Code)
		assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/clients/abc").Code)
	})

	t.Run("metrics", func(t *testing.T) {
		rec := get(t, s, "/metrics")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "go_goroutines")
	})
}

// -----------------------------------------------------------------------------

func TestRoutesWithoutOrderServer(t *testing.T) {
	s := NewFastAPIServer(&models.MConfig{}, logger.NewNopLogger())
	assert.Equal(t, http.StatusServiceUnavailable, get(t, s, "/api/health").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(t, s, "/api/clients/0").Code)
}

// -----------------------------------------------------------------------------

func TestActivityFeed(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	// Queued before anyone listens: replayed on connect
	s.Broadcast(models.MActivityEvent{ID: "1", Type: models.EventClientRegistered, ClientID: 0})
	require.Eventually(t, func() bool {
		s.stateMutex.RLock()
		defer s.stateMutex.RUnlock()
		return s.recent.Size() == 1
	}, time.Second, 5*time.Millisecond)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var event models.MActivityEvent
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "1", event.ID)

	require.Eventually(t, func() bool { return s.ConnectionCount() == 1 }, time.Second, 5*time.Millisecond)

	// Only order events of client 1 from now on
	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"command": "subscribe", "types": []string{models.EventOrderAccepted}, "clientId": 1,
	}))
	time.Sleep(50 * time.Millisecond)

	s.Broadcast(models.MActivityEvent{ID: "2", Type: models.EventOrderAccepted, ClientID: 0})
	s.Broadcast(models.MActivityEvent{ID: "3", Type: models.EventTick, ClientID: 1})
	s.Broadcast(models.MActivityEvent{ID: "4", Type: models.EventOrderAccepted, ClientID: 1, Kind: "BuyStock"})

	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "4", event.ID)
	assert.Equal(t, "BuyStock", event.Kind)
}

// -----------------------------------------------------------------------------

func TestStopDisconnectsListeners(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.ConnectionCount() == 1 }, time.Second, 5*time.Millisecond)

	require.NoError(t, s.Stop())

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
	assert.Zero(t, s.ConnectionCount())
}
