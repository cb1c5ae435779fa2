package types

import "encoding/json"

// JSON-serialized WebsocketMessage is what is actually sent via the websocket
// connection, the payload type is determined by the event name.
type WebsocketMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// MarshalMessage wraps a payload in the wire envelope.
func MarshalMessage(event string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(WebsocketMessage{Event: event, Data: data})
}
