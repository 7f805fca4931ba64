// Package hub fans messages out to websocket viewers using a single
// goroutine that owns the client set.
package hub

// MessageType indicates the websocket message format.
type MessageType int

const (
	// JSONMessage is a JSON-encoded text message.
	JSONMessage MessageType = iota
	// BinaryMessage is raw binary data such as an encoded camera frame.
	BinaryMessage
)

// Message is one payload to deliver to every client.
type Message struct {
	Type MessageType
	Data []byte
}

// NewJSONMessage creates a JSON message from pre-encoded bytes.
func NewJSONMessage(data []byte) Message {
	return Message{Type: JSONMessage, Data: data}
}

// NewBinaryMessage creates a binary message.
func NewBinaryMessage(data []byte) Message {
	return Message{Type: BinaryMessage, Data: data}
}

// hello is sent to each client right after it registers.
type hello struct {
	ClientID string `json:"client_id"`
	Hub      string `json:"hub"`
}
