package ws

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupWsServer(t *testing.T) (*Hub, *httptest.Server) {
	gin.SetMode(gin.TestMode)

	hub := NewHub()
	go hub.Run()

	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		ServeWs(hub, "public", c)
	})

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return hub, server
}

func dialWs(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws" + query
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestServeWs_SessionNormalization(t *testing.T) {
	t.Run("session with spaces joins the scrubbed room", func(t *testing.T) {
		hub, server := setupWsServer(t)

		conn := dialWs(t, server, "?session=my%20room")
		require.Eventually(t, func() bool {
			return hub.SessionViewers("myroom") == 1
		}, time.Second, 10*time.Millisecond)

		// 发消息那边清洗出来的也是 myroom，广播要能送达
		hub.BroadcastToSession("myroom", "hello")

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
		var event Event
		require.NoError(t, conn.ReadJSON(&event))
		assert.Equal(t, "new-message", event.Event)
		assert.Equal(t, "myroom", event.Session)
		assert.Equal(t, "hello", event.Message)
	})

	t.Run("non-latin session falls back to the default room", func(t *testing.T) {
		hub, server := setupWsServer(t)

		dialWs(t, server, "?session=%E8%81%8A%E5%A4%A9%E5%AE%A4")
		require.Eventually(t, func() bool {
			return hub.SessionViewers("public") == 1
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("missing session joins the default room", func(t *testing.T) {
		hub, server := setupWsServer(t)

		dialWs(t, server, "")
		require.Eventually(t, func() bool {
			return hub.SessionViewers("public") == 1
		}, time.Second, 10*time.Millisecond)
	})
}
