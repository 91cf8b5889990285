// Package vis streams worker state transitions to visualization clients
// over a websocket. The feed is strictly fire-and-forget: with no listener,
// a slow listener or a full buffer, events are dropped and the workers never
// notice.
package vis

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	. "github.com/TritonDataCenter/manta-chum/pkg/logger"

	"github.com/minio/websocket"
)

// worker states as seen by a visualization client
const (
	StateIO      = "io"
	StatePause   = "pause"
	StateStopped = "stopped"
)

type Event struct {
	Worker int       `json:"worker"`
	State  string    `json:"state"`
	Op     string    `json:"op,omitempty"`
	Time   time.Time `json:"time"`
}

type Feed struct {
	events chan Event
	ln     net.Listener

	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
	done  chan struct{}
}

var upgrader = websocket.Upgrader{
	// local visualization tooling, any origin is fine
	CheckOrigin: func(*http.Request) bool { return true },
}

// Serve starts the feed listener on addr. A failure to bind is a startup
// error; everything after that is best-effort.
func Serve(addr string) (*Feed, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	f := &Feed{
		events: make(chan Event, 1024),
		ln:     ln,
		conns:  make(map[*websocket.Conn]struct{}),
		done:   make(chan struct{}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", f.handleClient)
	go func() {
		srv := &http.Server{Handler: mux}
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			Logger.Debugf("vis listener stopped: %v", err)
		}
	}()
	go f.broadcast()

	Logger.Infof("vis feed listening on %s", addr)
	return f, nil
}

func (f *Feed) handleClient(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		Logger.Debugf("vis upgrade failed: %v", err)
		return
	}
	f.mu.Lock()
	f.conns[conn] = struct{}{}
	f.mu.Unlock()
}

// Addr is the bound listener address, useful when addr was ":0".
func (f *Feed) Addr() net.Addr {
	return f.ln.Addr()
}

// Emit queues an event for broadcast. Safe on a nil feed; never blocks.
func (f *Feed) Emit(e Event) {
	if f == nil {
		return
	}
	select {
	case f.events <- e:
	default:
		// consumer can't keep up, drop
	}
}

func (f *Feed) broadcast() {
	for {
		select {
		case <-f.done:
			return
		case e := <-f.events:
			msg, err := json.Marshal(e)
			if err != nil {
				continue
			}
			f.mu.Lock()
			for conn := range f.conns {
				if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					conn.Close()
					delete(f.conns, conn)
				}
			}
			f.mu.Unlock()
		}
	}
}

func (f *Feed) Close() {
	if f == nil {
		return
	}
	close(f.done)
	f.ln.Close()
	f.mu.Lock()
	for conn := range f.conns {
		conn.Close()
	}
	f.conns = map[*websocket.Conn]struct{}{}
	f.mu.Unlock()
}
