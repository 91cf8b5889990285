package vis

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/minio/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilFeedIsInert(t *testing.T) {
	var f *Feed
	assert.NotPanics(t, func() {
		f.Emit(Event{Worker: 1, State: StateIO})
		f.Close()
	})
}

func TestEmitNeverBlocks(t *testing.T) {
	f, err := Serve("127.0.0.1:0")
	require.NoError(t, err)
	defer f.Close()

	// far more events than the buffer holds, with no client connected
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100000; i++ {
			f.Emit(Event{Worker: i, State: StateIO, Op: "write", Time: time.Now()})
		}
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("emit blocked a worker")
	}
}

func TestBroadcastToClient(t *testing.T) {
	f, err := Serve("127.0.0.1:0")
	require.NoError(t, err)
	defer f.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+f.Addr().String()+"/", nil)
	require.NoError(t, err)
	defer conn.Close()

	// the registration races the emit; retry until the client is wired up
	var got Event
	require.Eventually(t, func() bool {
		f.Emit(Event{Worker: 2, State: StatePause, Time: time.Now()})
		conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return false
		}
		return json.Unmarshal(msg, &got) == nil
	}, 10*time.Second, 50*time.Millisecond)

	assert.Equal(t, 2, got.Worker)
	assert.Equal(t, StatePause, got.State)
	assert.Empty(t, got.Op)
}
