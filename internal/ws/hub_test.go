package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coinwhisperer/internal/domain"
	"coinwhisperer/internal/events"
	"coinwhisperer/pkg/logger"
)

func init() {
	logger.Init("error", "test")
}

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	srv := httptest.NewServer(hub.Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) events.Event {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var event events.Event
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func TestHub_WelcomeMessage(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub)

	event := readEvent(t, conn)
	assert.Equal(t, events.TypeConnection, event.Type)

	data, ok := event.Data.(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, data["clientId"])
	assert.Contains(t, data["message"], "Connected")
}

func TestHub_BroadcastReachesAllClients(t *testing.T) {
	hub := NewHub()
	first := dialHub(t, hub)
	second := dialHub(t, hub)

	readEvent(t, first)
	readEvent(t, second)
	assert.Equal(t, 2, hub.ClientCount())

	hub.Broadcast(events.NewPostEvent(&domain.Post{
		ExternalID:     "1",
		CoinSymbol:     "DOGE",
		SentimentScore: 0.8,
	}))

	for _, conn := range []*websocket.Conn{first, second} {
		event := readEvent(t, conn)
		assert.Equal(t, events.TypeNewPost, event.Type)

		data, ok := event.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "DOGE", data["coinTag"])
		assert.Equal(t, 0.8, data["sentiment"])
	}
}

func TestHub_PingPong(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub)
	readEvent(t, conn)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))

	event := readEvent(t, conn)
	assert.Equal(t, "pong", event.Type)
}

func TestHub_ClientDisconnectRemoves(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub)
	readEvent(t, conn)
	require.Equal(t, 1, hub.ClientCount())

	conn.Close()

	require.Eventually(t, func() bool {
		return hub.ClientCount() == 0
	}, 2*time.Second, 20*time.Millisecond)
}
