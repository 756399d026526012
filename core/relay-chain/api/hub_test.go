package api

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Shivam-Patel-G/earlybirds/core/relay-chain/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeSource struct {
	ch        chan *chain.Receipt
	cancelled chan struct{}
}

func newFakeSource() *fakeSource {
	return &fakeSource{ch: make(chan *chain.Receipt, 1), cancelled: make(chan struct{})}
}

func (f *fakeSource) subscribe(int) (<-chan *chain.Receipt, func()) {
	return f.ch, func() { close(f.cancelled) }
}

func TestHubBroadcastAndShutdown(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	src := newFakeSource()
	hub := NewHub(src.subscribe, nil)
	c := &client{send: make(chan []byte, sendBuffer)}
	hub.add(c)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	src.ch <- &chain.Receipt{Method: chain.MethodRegister, BlockNumber: 7}

	select {
	case data := <-c.send:
		var msg Message
		require.NoError(t, json.Unmarshal(data, &msg))
		assert.Equal(t, "receipt", msg.Type)
		assert.Equal(t, uint64(7), msg.Receipt.BlockNumber)
	case <-time.After(time.Second):
		t.Fatal("receipt not broadcast")
	}

	cancel()
	<-done
	<-src.cancelled

	_, open := <-c.send
	assert.False(t, open, "clients are closed on shutdown")
	assert.Equal(t, 0, hub.Clients())
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub(newFakeSource().subscribe, nil)
	slow := &client{send: make(chan []byte)}
	fast := &client{send: make(chan []byte, 1)}
	hub.add(slow)
	hub.add(fast)

	hub.broadcast(Message{Type: "receipt"})

	assert.Equal(t, 1, hub.Clients())
	_, open := <-slow.send
	assert.False(t, open)
	assert.NotEmpty(t, <-fast.send)

	status := hub.status()
	assert.Equal(t, 1, status.Clients)
	assert.Equal(t, uint64(1), status.Messages)
}
