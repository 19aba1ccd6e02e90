package ws

import "encoding/json"

// client → server
type InboundFrame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// server → client
type OutboundFrame struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func encode(msgType string, payload interface{}) []byte {
	data, _ := json.Marshal(OutboundFrame{Type: msgType, Payload: payload})
	return data
}
