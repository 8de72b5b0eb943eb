package ws

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/flipbook/internal/cartoon"
)

func dialHub(t *testing.T, hub *Hub) (*httptest.Server, *websocket.Conn) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleFramesWS))
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return srv, conn
}

func TestApplyOffsetBroadcast(t *testing.T) {
	hub := NewHub("browser", cartoon.NewRegistry())
	srv, conn := dialHub(t, hub)
	defer srv.Close()
	defer conn.Close()

	require.NoError(t, hub.ApplyOffset(-10, -3))

	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var f offsetFrame
	require.NoError(t, json.Unmarshal(data, &f))
	assert.Equal(t, uint64(1), f.FrameID)
	assert.Equal(t, "browser", f.Screen)
	assert.Equal(t, -10, f.X)
	assert.Equal(t, -3, f.Y)
}

func TestApplyOffsetConcurrentSenders(t *testing.T) {
	// Several cartoons can share one hub, so offsets arrive from
	// independent timer goroutines; the writes must be serialized per
	// connection.
	hub := NewHub("browser", cartoon.NewRegistry())
	srv, conn := dialHub(t, hub)
	defer srv.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	var wg sync.WaitGroup
	for g := 0; g < 2; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				_ = hub.ApplyOffset(-g*16, -i)
			}
		}(g)
	}
	wg.Wait()

	require.NoError(t, hub.Close())
	conn.Close()
	<-done
}

func TestHandleHealth(t *testing.T) {
	hub := NewHub("browser", cartoon.NewRegistry())
	w := httptest.NewRecorder()
	hub.HandleHealth(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp, "frame_id")
	assert.Contains(t, resp, "cartoons")
}
