// Package monitor streams dispatched action events to websocket clients.
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pleimann/camel-arbiter/internal/action"
)

const (
	clientBuffer = 64
	writeTimeout = 5 * time.Second
	readTimeout  = 60 * time.Second
)

// Message is the JSON form of one event
type Message struct {
	Scheme  string    `json:"scheme"`
	Action  string    `json:"action"`
	Phase   string    `json:"phase"`
	Control string    `json:"control,omitempty"`
	Time    time.Time `json:"time"`
}

type client struct {
	out chan []byte
}

// Hub fans events out to every connected client. A client that falls
// clientBuffer messages behind is disconnected.
type Hub struct {
	log      *log.Logger
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

func NewHub(logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		log:     logger,
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return isLoopbackRemote(r.RemoteAddr) },
		},
	}
}

// ActionEvent publishes e without blocking the caller
func (h *Hub) ActionEvent(e action.Event) {
	b, err := json.Marshal(Message{
		Scheme:  e.Scheme,
		Action:  e.Action,
		Phase:   e.Phase.String(),
		Control: e.Control,
		Time:    e.Time,
	})
	if err != nil {
		h.log.Printf("monitor: encoding event: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.out <- b:
		default:
			h.log.Printf("monitor: dropping slow client")
			h.remove(c)
		}
	}
}

// Clients returns the number of connected clients
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// remove must be called with mu held
func (h *Hub) remove(c *client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.out)
	}
}

func (h *Hub) add() (*client, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	c := &client{out: make(chan []byte, clientBuffer)}
	h.clients[c] = struct{}{}
	return c, true
}

// ServeHTTP upgrades the request and streams events until either side
// hangs up
func (h *Hub) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	c, ok := h.add()
	if !ok {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"), time.Now().Add(time.Second))
		return
	}

	// Clients never send anything meaningful; reading only notices the close.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-readDone:
			h.mu.Lock()
			h.remove(c)
			h.mu.Unlock()
			return
		case b, ok := <-c.out:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				h.mu.Lock()
				h.remove(c)
				h.mu.Unlock()
				return
			}
		}
	}
}

// Close disconnects every client and refuses new ones
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.remove(c)
	}
}

// Server serves a Hub on its own listener
type Server struct {
	hub  *Hub
	srv  *http.Server
	addr net.Addr
}

// Listen starts serving hub at path on addr
func Listen(addr, path string, hub *Hub) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(path, hub)
	s := &Server{
		hub:  hub,
		srv:  &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		addr: ln.Addr(),
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			hub.log.Printf("monitor: %v", err)
		}
	}()
	return s, nil
}

// Addr returns the bound address
func (s *Server) Addr() net.Addr { return s.addr }

// Shutdown closes the clients and stops the listener
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.srv.Shutdown(ctx)
}

func isLoopbackRemote(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
