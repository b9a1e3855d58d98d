package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ezcode-server/internal/selection"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type frame struct {
	Type    string          `json:"type"`
	Topic   string          `json:"topic"`
	Payload selection.Event `json:"payload"`
}

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	hub := NewHub(nil, zap.NewNop())
	go hub.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := r.URL.Query().Get("session")
		hello := func() []Message {
			return []Message{{Type: "hello", Topic: "session", Payload: selection.Event{}}}
		}
		_ = hub.ServeWS(w, r, sid, hello)
	}))
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, sessionID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?session=" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	// Первое сообщение приходит после регистрации клиента.
	var hello frame
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&hello))
	require.Equal(t, "hello", hello.Type)
	return conn
}

func TestHub_DeliversOnlyToOwnSession(t *testing.T) {
	hub, srv := startHub(t)
	mine := dial(t, srv, "s1")
	other := dial(t, srv, "s2")
	assert.Equal(t, 1, hub.ClientCount("s1"))

	hub.PublishSelection("s1", selection.Event{
		Set:     selection.Comparison,
		Kind:    selection.EventAdded,
		EntryID: "cursor",
		Entries: []selection.Entry{{ID: "cursor", Name: "Cursor IDE"}},
	})

	var got frame
	require.NoError(t, mine.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, mine.ReadJSON(&got))
	assert.Equal(t, MessageTypeSelection, got.Type)
	assert.Equal(t, "comparison", got.Topic)
	assert.Equal(t, selection.EventAdded, got.Payload.Kind)
	assert.Equal(t, "cursor", got.Payload.Entries[0].ID)

	require.NoError(t, other.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	var none frame
	assert.Error(t, other.ReadJSON(&none), "other session receives nothing")
}

func TestHub_UnsubscribeTopic(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "s1")

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "unsubscribe", "topic": "favorites"}))
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		for _, c := range hub.clients {
			if !c.IsSubscribed("favorites") {
				return true
			}
		}
		return false
	}, 5*time.Second, 10*time.Millisecond)

	hub.PublishSelection("s1", selection.Event{Set: selection.Favorites, Kind: selection.EventAdded})
	hub.PublishSelection("s1", selection.Event{Set: selection.Comparison, Kind: selection.EventCleared})

	var got frame
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "comparison", got.Topic)
	assert.Equal(t, selection.EventCleared, got.Payload.Kind)
}

func TestHub_EventDuringConnectIsDelivered(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub := NewHub(nil, zap.NewNop())
	go hub.Run(ctx)

	// Событие публикуется, пока строится начальный снимок.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r, "s1", func() []Message {
			hub.PublishSelection("s1", selection.Event{Set: selection.Comparison, Kind: selection.EventAdded, EntryID: "cursor"})
			return []Message{{Type: MessageTypeSelection, Topic: "comparison", Payload: selection.Event{Set: selection.Comparison, Kind: selection.EventLoaded}}}
		})
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	kinds := map[selection.EventKind]bool{}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for i := 0; i < 2; i++ {
		var got frame
		require.NoError(t, conn.ReadJSON(&got))
		kinds[got.Payload.Kind] = true
	}
	assert.True(t, kinds[selection.EventLoaded], "snapshot delivered")
	assert.True(t, kinds[selection.EventAdded], "concurrent event delivered")
}

func TestHub_SnapshotTargetsOnlyNewClient(t *testing.T) {
	_, srv := startHub(t)
	first := dial(t, srv, "s1")
	dial(t, srv, "s1")

	require.NoError(t, first.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	var none frame
	assert.Error(t, first.ReadJSON(&none), "existing client does not get the newcomer's snapshot")
}

func TestHub_ClientRemovedOnDisconnect(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "s1")
	require.Equal(t, 1, hub.ClientCount("s1"))

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount("s1") == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestHub_PublishNeverBlocks(t *testing.T) {
	hub := NewHub(nil, zap.NewNop()) // Run не запущен: очередь быстро переполняется
	done := make(chan struct{})
	go func() {
		for i := 0; i < publishBuffer*2; i++ {
			hub.PublishSelection("s1", selection.Event{Set: selection.Favorites})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("PublishSelection blocked")
	}
}
