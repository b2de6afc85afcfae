package sink

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/liveprof/liveprof/internal/logging"
	"github.com/liveprof/liveprof/live"
)

// framePath is the websocket endpoint serving the frame stream.
const framePath = "/frames"

const (
	clientSendBuffer = 8
	writeTimeout     = 5 * time.Second
)

// ErrStreamClosed is returned by Push after Close.
var ErrStreamClosed = errors.New("sink: stream closed")

// Stream broadcasts JSON-encoded frames to websocket clients, so a browser
// or another process can watch the live view remotely. A client that cannot
// keep up is disconnected rather than ever delaying a push; the most recent
// frame is replayed to newly connected clients.
type Stream struct {
	listener net.Listener
	server   *http.Server
	upgrader websocket.Upgrader
	log      *logging.Logger

	mu      sync.Mutex
	clients map[*streamClient]struct{}
	last    []byte
	closed  bool
}

type streamClient struct {
	conn *websocket.Conn
	send chan []byte
}

// NewStream starts a frame stream server on addr (e.g. "127.0.0.1:0") and
// begins accepting websocket clients on /frames.
func NewStream(addr string) (*Stream, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("sink: listen on %s: %w", addr, err)
	}

	s := &Stream{
		listener: listener,
		log:      logging.With("sink", "stream"),
		clients:  make(map[*streamClient]struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc(framePath, s.handleFrames)
	s.server = &http.Server{
		Handler:     mux,
		ReadTimeout: 30 * time.Second,
	}

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("stream server stopped", "err", err)
		}
	}()

	s.log.Info("frame stream listening", "addr", s.Addr())
	return s, nil
}

// Addr returns the address the stream server is listening on.
func (s *Stream) Addr() string {
	return s.listener.Addr().String()
}

// Push implements live.Sink. Per-client delivery failures drop the client;
// they are never surfaced as push failures.
func (s *Stream) Push(content live.Content) error {
	frame, err := frameOf(content)
	if err != nil {
		return err
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("sink: encode frame: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStreamClosed
	}
	s.last = data

	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			// Client is not draining its buffer; cut it loose.
			s.dropLocked(c)
			s.log.Warn("dropped slow stream client", "addr", c.conn.RemoteAddr().String())
		}
	}
	return nil
}

// Close stops the server and disconnects all clients.
func (s *Stream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for c := range s.clients {
		s.dropLocked(c)
	}
	s.mu.Unlock()

	return s.server.Close()
}

func (s *Stream) handleFrames(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}

	c := &streamClient{
		conn: conn,
		send: make(chan []byte, clientSendBuffer),
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.clients[c] = struct{}{}
	if s.last != nil {
		c.send <- s.last
	}
	s.mu.Unlock()

	s.log.Debug("stream client connected", "addr", conn.RemoteAddr().String())
	go s.writeLoop(c)
	go s.readLoop(c)
}

// writeLoop delivers queued frames to one client until its channel closes
// or a write fails.
func (s *Stream) writeLoop(c *streamClient) {
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			s.drop(c)
			return
		}
	}
}

// readLoop consumes control messages and detects disconnects; the stream
// never expects data from clients.
func (s *Stream) readLoop(c *streamClient) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			s.drop(c)
			return
		}
	}
}

func (s *Stream) drop(c *streamClient) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropLocked(c)
}

func (s *Stream) dropLocked(c *streamClient) {
	if _, ok := s.clients[c]; !ok {
		return
	}
	delete(s.clients, c)
	close(c.send)
	c.conn.Close()
}
