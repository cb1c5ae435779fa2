package ws

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mitchellh/mapstructure"
	"github.com/scrumpoker/scrumpoker/globals"
	"github.com/scrumpoker/scrumpoker/types"
)

// Client is a middleman between one websocket connection and the hub. Every
// connection is one logical participant, identified by PlayerId.
type Client struct {
	hub  *Hub
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	Send chan []byte

	// PlayerId is the id this connection's player is stored under. It is
	// assigned at upgrade time and never changes for the connection.
	PlayerId string

	// roomCode is set once, on the first successful join. Guarded by the
	// hub's mutex.
	roomCode string

	doneChan chan struct{}
}

func NewClient(hub *Hub, conn *websocket.Conn, playerId string, doneChan chan struct{}) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		Send:     make(chan []byte, sendChannelSize),
		PlayerId: playerId,
		doneChan: doneChan,
	}
}

// trySend queues data for the write loop without blocking the hub. A client
// whose buffer is full has stopped reading, dropping is the lesser evil.
func (c *Client) trySend(data []byte) {
	select {
	case c.Send <- data:
	default:
		globals.AppLogger.Warn("send buffer full, dropping message", "player", c.PlayerId)
	}
}

// Close tears down the underlying connection. The read loop notices and
// drives the usual unregister path.
func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}

// ReadLoop pumps messages from the websocket connection to the protocol
// handler.
//
// The application runs ReadLoop in a per-connection goroutine. The
// application ensures that there is at most one reader on a connection by
// executing all reads from this goroutine.
func (c *Client) ReadLoop(handler *Handler) {
	defer func() {
		c.conn.Close()
		close(c.doneChan)
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { c.conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				globals.AppLogger.Info("ws closed unexpected", "player", c.PlayerId, "error", err)
			}
			return
		}

		message := types.WebsocketMessage{}
		if err := json.Unmarshal(raw, &message); err != nil {
			globals.AppLogger.Error("could not unmarshal ws message", "error", err)
			c.hub.SendTo(c, types.EventError, types.ErrorMessage{Message: "malformed message"})
			continue
		}
		c.dispatch(handler, message)
	}
}

// dispatch decodes the payload of one inbound message and routes it to the
// protocol handler. Unknown events are ignored.
func (c *Client) dispatch(handler *Handler, message types.WebsocketMessage) {
	payload := make(map[string]interface{})
	if len(message.Data) > 0 {
		if err := json.Unmarshal(message.Data, &payload); err != nil {
			globals.AppLogger.Error("could not unmarshal payload", "event", message.Event, "error", err)
			c.hub.SendTo(c, types.EventError, types.ErrorMessage{Message: "malformed payload"})
			return
		}
	}

	switch message.Event {
	case types.EventJoinRoom:
		msg := types.JoinRoomMessage{}
		if err := mapstructure.WeakDecode(payload, &msg); err != nil {
			globals.AppLogger.Error("could not decode join message", "error", err)
			c.hub.SendTo(c, types.EventError, types.ErrorMessage{Message: "malformed payload"})
			return
		}
		handler.HandleJoin(c, msg)

	case types.EventSelectCard:
		msg := types.SelectCardMessage{}
		if err := mapstructure.WeakDecode(payload, &msg); err != nil {
			globals.AppLogger.Error("could not decode select message", "error", err)
			c.hub.SendTo(c, types.EventError, types.ErrorMessage{Message: "malformed payload"})
			return
		}
		handler.HandleSelectCard(c, msg)

	case types.EventRevealCards:
		msg := types.RevealCardsMessage{}
		if err := mapstructure.WeakDecode(payload, &msg); err != nil {
			return
		}
		handler.HandleRevealCards(c, msg)

	case types.EventResetGame:
		msg := types.ResetGameMessage{}
		if err := mapstructure.WeakDecode(payload, &msg); err != nil {
			return
		}
		handler.HandleResetGame(c, msg)

	case types.EventRemovePlayer:
		msg := types.RemovePlayerMessage{}
		if err := mapstructure.WeakDecode(payload, &msg); err != nil {
			return
		}
		handler.HandleRemovePlayer(c, msg)

	default:
		globals.AppLogger.Debug("ignoring unknown event", "event", message.Event)
	}
}

// WriteLoop pumps messages from the hub to the websocket connection.
//
// A goroutine running WriteLoop is started for each connection. The
// application ensures that there is at most one writer to a connection by
// executing all writes from this goroutine.
func (c *Client) WriteLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.doneChan:
			return
		}
	}
}
