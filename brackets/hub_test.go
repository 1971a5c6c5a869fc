package brackets

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// region Hub tests

func TestHub_PublishReachesRoomMembers(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run()

	room := RoomForTournament("t1")
	watcher := &Client{Hub: hub, Send: make(chan []byte, 4), Room: room}
	bystander := &Client{Hub: hub, Send: make(chan []byte, 4), Room: RoomForTournament("t2")}
	hub.Register <- watcher
	hub.Register <- bystander

	require.Eventually(t, func() bool { return hub.RoomSize(room) == 1 }, time.Second, 5*time.Millisecond)

	hub.Publish("t1", EventMatchdayGenerated, map[string]int{"matchday": 2})

	var msg WebSocketMessage
	select {
	case raw := <-watcher.Send:
		require.NoError(t, json.Unmarshal(raw, &msg))
	case <-time.After(time.Second):
		t.Fatal("watcher received nothing")
	}
	assert.Equal(t, EventMatchdayGenerated, msg.Type)
	assert.Equal(t, room, msg.RoomID)
	assert.Empty(t, bystander.Send)
}

func TestHub_UnregisterClosesRoom(t *testing.T) {
	hub := NewHub(nil)
	go hub.Run()

	room := RoomForTournament("t1")
	client := &Client{Hub: hub, Send: make(chan []byte, 1), Room: room}
	hub.Register <- client
	require.Eventually(t, func() bool { return hub.RoomSize(room) == 1 }, time.Second, 5*time.Millisecond)

	hub.Unregister <- client
	require.Eventually(t, func() bool { return hub.RoomSize(room) == 0 }, time.Second, 5*time.Millisecond)

	_, open := <-client.Send
	assert.False(t, open)

	// Publishing to an empty room is a no-op.
	hub.Publish("t1", EventResultRecorded, nil)
}

// endregion
