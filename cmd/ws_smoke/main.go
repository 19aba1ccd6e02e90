package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"time"

	"stablecircle/internal/logger"
	"stablecircle/internal/ws"

	"github.com/gorilla/websocket"
)

// ws_smoke expects a server running with DEV_MODE=true so that sign-in
// skips the signature check.
const (
	walletA = "0x000000000000000000000000000000000000a001"
	walletB = "0x000000000000000000000000000000000000b002"
)

var base string

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"), false)

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}
	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	base = "127.0.0.1:" + port

	tokenA := signIn(walletA, "Smoke A")
	tokenB := signIn(walletB, "Smoke B")

	var hub struct {
		ID         string `json:"id"`
		InviteCode string `json:"invite_code"`
	}
	post("/api/v1/hubs", tokenA, map[string]any{
		"name":                "ws smoke",
		"contribution_amount": "10",
		"duration_days":       7,
		"max_members":         2,
	}, &hub)
	post("/api/v1/hubs/join", tokenB, map[string]string{"invite_code": hub.InviteCode}, nil)

	connA := dial(tokenA, hub.ID)
	defer connA.Close()
	connB := dial(tokenB, hub.ID)
	defer connB.Close()

	waitFor(connA, ws.MsgReady)
	waitFor(connB, ws.MsgReady)

	if err := connA.WriteJSON(ws.InboundFrame{Type: ws.MsgMessage, Content: "hello from A"}); err != nil {
		logger.Fatal("write A", "error", err)
	}
	frame := waitFor(connB, ws.MsgNewMessage)
	logger.Info("B received", "frame", string(frame))
	logger.Info("smoke test finished")
}

func signIn(wallet, name string) string {
	var resp struct {
		Token string `json:"token"`
	}
	post("/api/v1/auth", "", map[string]string{"wallet": wallet, "name": name}, &resp)
	return resp.Token
}

func post(path, token string, body, out any) {
	raw, _ := json.Marshal(body)
	req, err := http.NewRequest(http.MethodPost, "http://"+base+path, bytes.NewReader(raw))
	if err != nil {
		logger.Fatal("build request", "path", path, "error", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		logger.Fatal("request failed", "path", path, "error", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		logger.Fatal("unexpected status", "path", path, "status", resp.StatusCode)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			logger.Fatal("decode response", "path", path, "error", err)
		}
	}
}

func dial(token, hubID string) *websocket.Conn {
	u := fmt.Sprintf("ws://%s/ws?token=%s&hub=%s", base, url.QueryEscape(token), url.QueryEscape(hubID))
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		logger.Fatal("dial", "hub_id", hubID, "error", err)
	}
	return conn
}

// waitFor reads until a frame of the given type arrives. A read error is
// fatal since gorilla connections cannot be read after a timeout.
func waitFor(conn *websocket.Conn, msgType string) []byte {
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			logger.Fatal("waiting for frame", "type", msgType, "error", err)
		}
		var f ws.OutboundFrame
		if json.Unmarshal(msg, &f) == nil && f.Type == msgType {
			return msg
		}
	}
}
