package sync

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerBroadcastsToTCPClients(t *testing.T) {
	hub := NewHub(nil)
	var sent []string
	hub.OnBroadcast = func(typ string) { sent = append(sent, typ) }

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewServer("", hub, nil).Serve(ctx, ln) }()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	r := bufio.NewReader(conn)
	welcome, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, welcome, `"welcome"`)
	assert.Equal(t, 1, hub.Stats().TCPClients)

	hub.Broadcast(CollectionEvent{Type: EventPlateCollected, PlayerID: "p1", GameID: "g1", Region: "CA", Title: "Sequoia"})

	line, err := r.ReadString('\n')
	require.NoError(t, err)
	var ev CollectionEvent
	require.NoError(t, json.Unmarshal([]byte(line), &ev))
	assert.Equal(t, EventPlateCollected, ev.Type)
	assert.Equal(t, "CA", ev.Region)
	assert.False(t, ev.At.IsZero())
	assert.Equal(t, []string{EventPlateCollected}, sent)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestWSHandlerReceivesBroadcast(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(nil)
	r := gin.New()
	r.GET("/ws", WSHandler(hub))
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer ws.Close()
	_ = ws.SetReadDeadline(time.Now().Add(5 * time.Second))

	_, msg, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), "websocket")
	assert.Equal(t, 1, hub.Stats().WSClients)

	hub.Broadcast(CollectionEvent{Type: EventGameCreated, PlayerID: "p1", GameID: "g1"})

	_, msg, err = ws.ReadMessage()
	require.NoError(t, err)
	var ev CollectionEvent
	require.NoError(t, json.Unmarshal(msg, &ev))
	assert.Equal(t, EventGameCreated, ev.Type)
	assert.Equal(t, "g1", ev.GameID)
}
