// Package observer serves the read-only websocket feed of simulation
// snapshots. Observers subscribe, optionally filtering rooms and thinning
// the cadence; they never mutate the simulation.
package observer

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"campussim/internal/observerproto"
	"campussim/internal/sim/campus"
)

// Bootstrap is the static map description captured once at startup.
type Bootstrap struct {
	MapParams observerproto.MapParams
	Rooms     []observerproto.RoomInfo
}

type client struct {
	id  string
	out chan []byte

	mu         sync.Mutex
	rooms      map[string]bool
	everyTicks int
}

func (c *client) settings() (map[string]bool, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rooms, c.everyTicks
}

func (c *client) update(sub observerproto.SubscribeMsg) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(sub.Rooms) == 0 {
		c.rooms = nil
	} else {
		c.rooms = make(map[string]bool, len(sub.Rooms))
		for _, r := range sub.Rooms {
			c.rooms[r] = true
		}
	}
	c.everyTicks = sub.EveryTicks
	if c.everyTicks < 1 {
		c.everyTicks = 1
	}
}

type Server struct {
	log       *log.Logger
	bootstrap Bootstrap

	upgrader websocket.Upgrader
	nextID   atomic.Uint64

	mu      sync.Mutex
	clients map[string]*client

	latest atomic.Pointer[campus.WorldSnapshot]
}

func NewServer(b Bootstrap, logger *log.Logger) *Server {
	return &Server{
		log:       logger,
		bootstrap: b,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		clients: make(map[string]*client),
	}
}

// Publish fans a snapshot out to every subscriber. Called from the
// simulation loop after each tick; slow clients drop frames rather than
// stalling the loop.
func (s *Server) Publish(snap campus.WorldSnapshot) {
	s.latest.Store(&snap)

	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	var shared []byte
	for _, c := range clients {
		rooms, every := c.settings()
		if every > 1 && snap.Tick%every != 0 {
			continue
		}
		var b []byte
		if rooms == nil {
			if shared == nil {
				shared = marshalSnapshot(snap)
			}
			b = shared
		} else {
			b = marshalSnapshot(filterRooms(snap, rooms))
		}
		select {
		case c.out <- b:
		default:
			// Frame dropped; the next snapshot supersedes it anyway.
		}
	}
}

func marshalSnapshot(snap campus.WorldSnapshot) []byte {
	msg := observerproto.SnapshotMsg{
		Type:            "SNAPSHOT",
		ProtocolVersion: observerproto.Version,
		World:           snap,
	}
	b, _ := json.Marshal(msg)
	return b
}

func filterRooms(snap campus.WorldSnapshot, keep map[string]bool) campus.WorldSnapshot {
	filtered := make(map[string]campus.RoomSnapshot, len(keep))
	for name, rs := range snap.Rooms {
		if keep[name] {
			filtered[name] = rs
		}
	}
	snap.Rooms = filtered
	return snap
}

func (s *Server) BootstrapHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			rw.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		resp := observerproto.BootstrapResponse{
			ProtocolVersion: observerproto.Version,
			MapParams:       s.bootstrap.MapParams,
			Rooms:           s.bootstrap.Rooms,
		}
		if snap := s.latest.Load(); snap != nil {
			resp.Tick = snap.Tick
			resp.Time = snap.Time
		}

		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(resp)
	}
}

func (s *Server) WSHandler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}

		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Handshake: must send SUBSCRIBE first.
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var sub observerproto.SubscribeMsg
		if err := json.Unmarshal(msg, &sub); err != nil {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad subscribe"), time.Now().Add(time.Second))
			return
		}
		if sub.Type != "SUBSCRIBE" || sub.ProtocolVersion != observerproto.Version {
			_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected SUBSCRIBE"), time.Now().Add(time.Second))
			return
		}

		c := &client{
			id:  fmt.Sprintf("O%d", s.nextID.Add(1)),
			out: make(chan []byte, 8),
		}
		c.update(sub)

		s.mu.Lock()
		s.clients[c.id] = c
		s.mu.Unlock()
		defer func() {
			s.mu.Lock()
			delete(s.clients, c.id)
			s.mu.Unlock()
		}()

		// Send the latest snapshot immediately so the observer is not
		// blank until the next tick.
		if snap := s.latest.Load(); snap != nil {
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, marshalSnapshot(*snap)); err != nil {
				return
			}
		}

		// Writer goroutine.
		done := make(chan struct{})
		writeErr := make(chan error, 1)
		go func() {
			for {
				select {
				case <-done:
					writeErr <- nil
					return
				case b := <-c.out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						writeErr <- err
						return
					}
				}
			}
		}()

		// Reader loop: allow SUBSCRIBE updates.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			var sub observerproto.SubscribeMsg
			if err := json.Unmarshal(msg, &sub); err != nil {
				continue
			}
			if sub.Type != "SUBSCRIBE" || sub.ProtocolVersion != observerproto.Version {
				continue
			}
			c.update(sub)
		}

		close(done)
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

		// Best-effort wait for the writer to stop so it doesn't outlive conn.
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
