package ws

const (
	// client - server
	MsgMessage = "message"
	MsgPing    = "ping"

	// server - client
	MsgReady      = "ready"
	MsgNewMessage = "new_message"
	MsgPong       = "pong"
	MsgError      = "error"
)
