package sink

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liveprof/liveprof/render"
)

func dialStream(t *testing.T, s *Stream) *websocket.Conn {
	t.Helper()
	url := "ws://" + s.Addr() + framePath
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readFrame(t *testing.T, conn *websocket.Conn) *render.Frame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var frame render.Frame
	require.NoError(t, json.Unmarshal(data, &frame))
	return &frame
}

func TestStream_BroadcastsFrames(t *testing.T) {
	t.Parallel()

	s, err := NewStream("127.0.0.1:0")
	require.NoError(t, err)
	defer s.Close()

	conn := dialStream(t, s)

	require.NoError(t, s.Push(testFrame([]string{"hello"}, false)))
	frame := readFrame(t, conn)
	assert.Equal(t, []string{"hello"}, frame.Lines)
	assert.False(t, frame.Final)

	require.NoError(t, s.Push(testFrame([]string{"done"}, true)))
	frame = readFrame(t, conn)
	assert.Equal(t, []string{"done"}, frame.Lines)
	assert.True(t, frame.Final)
}

func TestStream_ReplaysLastFrameToNewClients(t *testing.T) {
	t.Parallel()

	s, err := NewStream("127.0.0.1:0")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Push(testFrame([]string{"latest"}, false)))

	conn := dialStream(t, s)
	frame := readFrame(t, conn)
	assert.Equal(t, []string{"latest"}, frame.Lines)
}

func TestStream_PushWithNoClients(t *testing.T) {
	t.Parallel()

	s, err := NewStream("127.0.0.1:0")
	require.NoError(t, err)
	defer s.Close()

	assert.NoError(t, s.Push(testFrame([]string{"unseen"}, false)))
}

func TestStream_PushAfterClose(t *testing.T) {
	t.Parallel()

	s, err := NewStream("127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	err = s.Push(testFrame([]string{"late"}, false))
	assert.ErrorIs(t, err, ErrStreamClosed)

	// Close is idempotent.
	assert.NoError(t, s.Close())
}

func TestStream_RejectsUnknownContent(t *testing.T) {
	t.Parallel()

	s, err := NewStream("127.0.0.1:0")
	require.NoError(t, err)
	defer s.Close()

	err = s.Push(42)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported content type")
}
