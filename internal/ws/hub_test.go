package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestNewHub(t *testing.T) {
	hub := NewHub(nil)

	assert.NotNil(t, hub.sessions)
	assert.NotNil(t, hub.broadcast)
	assert.NotNil(t, hub.register)
	assert.NotNil(t, hub.unregister)
	assert.NotNil(t, hub.logger)
}

func TestHub_AddAndRemoveClient(t *testing.T) {
	hub := startHub(t)

	sessionID := uuid.New()
	client := newClient(hub, nil, sessionID, nil)

	require.True(t, hub.join(client))
	assert.Eventually(t, func() bool { return hub.ConnectedClients(sessionID) == 1 }, time.Second, 10*time.Millisecond)

	hub.leave(client)
	assert.Eventually(t, func() bool { return hub.ConnectedClients(sessionID) == 0 }, time.Second, 10*time.Millisecond)

	_, open := <-client.send
	assert.False(t, open, "send channel closed on removal")
}

func TestHub_Publish(t *testing.T) {
	hub := startHub(t)

	sessionID := uuid.New()
	client := newClient(hub, nil, sessionID, nil)
	require.True(t, hub.join(client))

	hub.Publish(sessionID, EventChallengePassed, map[string]string{"challenge": "blink"})

	select {
	case msg := <-client.send:
		var event Event
		require.NoError(t, json.Unmarshal(msg, &event))
		assert.Equal(t, EventChallengePassed, event.Type)
		assert.Equal(t, sessionID, event.SessionID)
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for message")
	}
}

func TestHub_SessionIsolation(t *testing.T) {
	hub := startHub(t)

	session1 := uuid.New()
	session2 := uuid.New()
	client1 := newClient(hub, nil, session1, nil)
	client2 := newClient(hub, nil, session2, nil)

	require.True(t, hub.join(client1))
	require.True(t, hub.join(client2))

	hub.Publish(session1, EventStep, nil)

	select {
	case <-client1.send:
	case <-time.After(time.Second):
		t.Fatal("client1 should receive message")
	}

	select {
	case <-client2.send:
		t.Fatal("client2 should not receive session1 events")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestHub_StopClosesClients(t *testing.T) {
	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	sessionID := uuid.New()
	client := newClient(hub, nil, sessionID, nil)
	require.True(t, hub.join(client))

	cancel()
	<-done

	_, open := <-client.send
	assert.False(t, open)
	assert.False(t, hub.join(newClient(hub, nil, sessionID, nil)), "join after stop")
	hub.leave(client)
}

// fakeConn replays scripted reads and records writes
type fakeConn struct {
	mu      sync.Mutex
	reads   [][]byte
	written [][]byte
	closed  bool
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.reads) == 0 {
		return 0, nil, errors.New("eof")
	}
	msg := f.reads[0]
	f.reads = f.reads[1:]
	return 1, msg, nil
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, data)
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) writes() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.written...)
}

func TestClient_ReadPumpRepliesAndUnregisters(t *testing.T) {
	hub := startHub(t)

	sessionID := uuid.New()
	conn := &fakeConn{reads: [][]byte{[]byte(`{"type":"frame"}`), []byte(`{"type":"ping"}`)}}

	var received []string
	client := newClient(hub, conn, sessionID, func(id uuid.UUID, msg []byte) []byte {
		assert.Equal(t, sessionID, id)
		received = append(received, string(msg))
		if string(msg) == `{"type":"ping"}` {
			return []byte(`{"type":"pong"}`)
		}
		return nil
	})
	require.True(t, hub.join(client))

	writeDone := make(chan struct{})
	go func() {
		client.WritePump()
		close(writeDone)
	}()

	client.ReadPump()

	select {
	case <-writeDone:
	case <-time.After(time.Second):
		t.Fatal("write pump did not exit after unregister")
	}

	assert.Equal(t, []string{`{"type":"frame"}`, `{"type":"ping"}`}, received)
	assert.Equal(t, [][]byte{[]byte(`{"type":"pong"}`)}, conn.writes())
	assert.Equal(t, 0, hub.ConnectedClients(sessionID))
}
