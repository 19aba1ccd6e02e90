package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"stablecircle/internal/domain"
	"stablecircle/internal/repository/memory"
	"stablecircle/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	ada   = "0x00000000000000000000000000000000000000a1"
	bo    = "0x00000000000000000000000000000000000000b2"
	stray = "0x00000000000000000000000000000000000000c3"
)

func newChatServer(t *testing.T) (*httptest.Server, *Hub, *service.ChatService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	service.InitJWT("ws-test-secret")

	store := memory.New()
	now := time.Now().UTC()
	h := &domain.Hub{
		ID: "hub-1", Name: "Rent", ContributionAmount: decimal.NewFromInt(10), MaxMembers: 3,
		Creator: ada, InviteCode: "SC-TEST-0001", Status: domain.HubStatusActive,
		CurrentRound: 1, TotalRounds: 3, CreatedAt: now,
	}
	require.NoError(t, h.AddMember(ada, "Ada", now))
	require.NoError(t, h.AddMember(bo, "Bo", now))
	require.NoError(t, store.CreateHub(context.Background(), h))

	hub := NewHub()
	chat := service.NewChatService(store)
	chat.SetBroadcaster(hub)

	r := gin.New()
	r.GET("/ws", HandleWS(hub, chat, nil))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub, chat
}

func dial(t *testing.T, srv *httptest.Server, wallet, hubID string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	token, err := service.GenerateJWT(wallet)
	require.NoError(t, err)
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?hub=" + hubID + "&token=" + token
	return websocket.DefaultDialer.Dial(u, nil)
}

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var f frame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func connect(t *testing.T, srv *httptest.Server, wallet string) *websocket.Conn {
	t.Helper()
	conn, _, err := dial(t, srv, wallet, "hub-1")
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.Equal(t, MsgReady, readFrame(t, conn).Type)
	return conn
}

func TestChatBroadcastToHubMembers(t *testing.T) {
	srv, hub, _ := newChatServer(t)
	a := connect(t, srv, ada)
	b := connect(t, srv, bo)
	assert.Equal(t, 2, hub.Connections("hub-1"))

	require.NoError(t, a.WriteJSON(InboundFrame{Type: MsgMessage, Content: "hello"}))

	for _, conn := range []*websocket.Conn{a, b} {
		f := readFrame(t, conn)
		require.Equal(t, MsgNewMessage, f.Type)
		var msg domain.Message
		require.NoError(t, json.Unmarshal(f.Payload, &msg))
		assert.Equal(t, "hello", msg.Content)
		assert.Equal(t, ada, msg.Sender)
		assert.Equal(t, "Ada", msg.SenderName)
	}
}

func TestChatSystemMessagesReachSockets(t *testing.T) {
	srv, _, chat := newChatServer(t)
	b := connect(t, srv, bo)

	chat.SystemMessage(context.Background(), "hub-1", "Round 1 complete")
	f := readFrame(t, b)
	require.Equal(t, MsgNewMessage, f.Type)
	var msg domain.Message
	require.NoError(t, json.Unmarshal(f.Payload, &msg))
	assert.Equal(t, domain.MessageTypeSystem, msg.Type)
}

func TestChatRejectsInvalidFrames(t *testing.T) {
	srv, _, _ := newChatServer(t)
	a := connect(t, srv, ada)

	require.NoError(t, a.WriteJSON(InboundFrame{Type: MsgMessage, Content: strings.Repeat("x", domain.MaxMessageLength+1)}))
	assert.Equal(t, MsgError, readFrame(t, a).Type)

	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte("{not json")))
	assert.Equal(t, MsgError, readFrame(t, a).Type)

	require.NoError(t, a.WriteJSON(InboundFrame{Type: MsgPing}))
	assert.Equal(t, MsgPong, readFrame(t, a).Type)
}

func TestHandshakeRejections(t *testing.T) {
	srv, _, _ := newChatServer(t)

	_, resp, err := dial(t, srv, stray, "hub-1")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	_, resp, err = dial(t, srv, ada, "missing")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?hub=hub-1&token=garbage"
	_, resp, err = websocket.DefaultDialer.Dial(u, nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHubDropsEmptyRooms(t *testing.T) {
	srv, hub, _ := newChatServer(t)
	a := connect(t, srv, ada)
	require.Equal(t, 1, hub.Connections("hub-1"))
	a.Close()
	assert.Eventually(t, func() bool { return hub.Connections("hub-1") == 0 }, 3*time.Second, 20*time.Millisecond)
}
