package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlertHubBroadcast(t *testing.T) {
	hub := NewAlertHub()
	c := &Client{Send: make(chan []byte, 1)}
	hub.Register(c)
	assert.Equal(t, 1, hub.ClientCount())

	hub.Broadcast(map[string]string{"payment_id": "pay-1"})
	msg := <-c.Send
	assert.Contains(t, string(msg), "pay-1")

	c.Close()
	assert.Equal(t, 0, hub.ClientCount())
}

func TestAlertHubSkipsSlowClients(t *testing.T) {
	hub := NewAlertHub()
	slow := &Client{Send: make(chan []byte)} // no buffer, never read
	ok := &Client{Send: make(chan []byte, 4)}
	hub.Register(slow)
	hub.Register(ok)

	// Must not block on the slow client.
	hub.Broadcast(map[string]int{"n": 1})
	hub.Broadcast(map[string]int{"n": 2})

	require.Len(t, ok.Send, 2)
	assert.Empty(t, slow.Send)
}

func TestClientCloseIsIdempotent(t *testing.T) {
	hub := NewAlertHub()
	c := &Client{Send: make(chan []byte, 1)}
	hub.Register(c)
	c.Close()
	c.Close()
	assert.Equal(t, 0, hub.ClientCount())
}
