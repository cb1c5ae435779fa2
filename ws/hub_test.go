package ws

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/scrumpoker/scrumpoker/types"
)

// Concurrent fan-outs for the same room must not interleave per receiver:
// whatever order the broadcasts win the lock in, every participant has to
// observe the same sequence.
func TestBroadcastOrderConsistentAcrossReceivers(t *testing.T) {
	hub := NewHub()
	c1 := NewClient(hub, nil, "conn-1", make(chan struct{}))
	c2 := NewClient(hub, nil, "conn-2", make(chan struct{}))
	hub.Register(c1)
	hub.Register(c2)
	hub.PlaceInRoom(c1, "room")
	hub.PlaceInRoom(c2, "room")

	const senders = 8
	const perSender = 20

	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(sender int) {
			defer wg.Done()
			for j := 0; j < perSender; j++ {
				hub.BroadcastRoom("room", types.EventError, types.ErrorMessage{
					Message: fmt.Sprintf("%d-%d", sender, j),
				})
			}
		}(i)
	}
	wg.Wait()

	sequence := func(c *Client) []string {
		out := make([]string, 0, senders*perSender)
		for {
			select {
			case data := <-c.Send:
				msg := types.WebsocketMessage{}
				require.NoError(t, json.Unmarshal(data, &msg))
				payload := types.ErrorMessage{}
				require.NoError(t, json.Unmarshal(msg.Data, &payload))
				out = append(out, payload.Message)
			default:
				return out
			}
		}
	}

	first := sequence(c1)
	second := sequence(c2)
	require.Len(t, first, senders*perSender)
	assert.Equal(t, first, second)
}

func TestBroadcastRoomExceptSkipsOne(t *testing.T) {
	hub := NewHub()
	c1 := NewClient(hub, nil, "conn-1", make(chan struct{}))
	c2 := NewClient(hub, nil, "conn-2", make(chan struct{}))
	hub.Register(c1)
	hub.Register(c2)
	hub.PlaceInRoom(c1, "room")
	hub.PlaceInRoom(c2, "room")

	hub.BroadcastRoomExcept("room", c1, types.EventError, types.ErrorMessage{Message: "x"})

	select {
	case data := <-c1.Send:
		t.Fatalf("excepted client got a message: %s", data)
	default:
	}
	select {
	case <-c2.Send:
	default:
		t.Fatal("other client got nothing")
	}
}
