package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/teslashibe/go-vector/internal/log"
)

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	name   string
	logger *slog.Logger

	// Owned by Run.
	clients map[*Client]struct{}

	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	count   atomic.Int64
	dropped atomic.Uint64

	// changed is closed and replaced whenever the client count changes.
	changedMu sync.Mutex
	changed   chan struct{}

	runOnce sync.Once
	running atomic.Bool
}

// New creates a hub. Call Run to start delivering messages.
func New(name string) *Hub {
	return &Hub{
		name:       name,
		logger:     log.Component("hub." + name),
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan Message, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		changed:    make(chan struct{}),
	}
}

// Run delivers messages until ctx is done, then closes every client.
// Only the first call does anything.
func (h *Hub) Run(ctx context.Context) {
	h.runOnce.Do(func() { h.run(ctx) })
}

func (h *Hub) run(ctx context.Context) {
	h.running.Store(true)
	defer h.running.Store(false)
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.remove(c)
			}
			h.logger.Info("hub stopped")
			return

		case c := <-h.register:
			h.clients[c] = struct{}{}
			h.setCount(len(h.clients))
			h.greet(c)
			h.logger.Info("client connected", "client_id", c.id, "clients", len(h.clients))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.remove(c)
				h.logger.Info("client disconnected", "client_id", c.id, "clients", len(h.clients))
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Too slow to keep up with the feed.
					h.remove(c)
					h.logger.Warn("dropped slow client", "client_id", c.id)
				}
			}
		}
	}
}

func (h *Hub) remove(c *Client) {
	delete(h.clients, c)
	close(c.send)
	h.setCount(len(h.clients))
}

func (h *Hub) setCount(n int) {
	h.count.Store(int64(n))

	h.changedMu.Lock()
	close(h.changed)
	h.changed = make(chan struct{})
	h.changedMu.Unlock()
}

// clientsChanged returns a channel that is closed on the next change in
// the number of clients.
func (h *Hub) clientsChanged() <-chan struct{} {
	h.changedMu.Lock()
	defer h.changedMu.Unlock()
	return h.changed
}

func (h *Hub) greet(c *Client) {
	data, err := json.Marshal(hello{ClientID: c.id, Hub: h.name})
	if err != nil {
		return
	}
	select {
	case c.send <- NewJSONMessage(data):
	default:
	}
}

// Broadcast queues msg for every client. The message is dropped if the
// broadcast buffer is full so producers never block.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		if n := h.dropped.Add(1); n == 1 || n%100 == 0 {
			h.logger.Warn("broadcast channel full, dropping message", "dropped", n)
		}
	}
}

// BroadcastJSON encodes v and broadcasts it.
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(NewJSONMessage(data))
	return nil
}

// BroadcastBinary broadcasts binary data such as a camera frame.
func (h *Hub) BroadcastBinary(data []byte) {
	h.Broadcast(NewBinaryMessage(data))
}

// Relay broadcasts frames while at least one client is connected. open is
// called when the first client arrives and its context is cancelled when
// the last one leaves, so no frames are produced for an empty hub. Relay
// returns when ctx is done.
func (h *Hub) Relay(ctx context.Context, open func(context.Context) <-chan []byte) {
	for {
		changed := h.clientsChanged()
		if h.ClientCount() == 0 {
			select {
			case <-ctx.Done():
				return
			case <-changed:
				continue
			}
		}

		h.logger.Debug("relay started")
		if !h.relay(ctx, open) {
			return
		}
		h.logger.Debug("relay stopped")
	}
}

// relay forwards frames until the hub empties. It reports false when ctx
// is done or the source closed on its own.
func (h *Hub) relay(ctx context.Context, open func(context.Context) <-chan []byte) bool {
	rctx, cancel := context.WithCancel(ctx)
	defer cancel()

	frames := open(rctx)
	for {
		changed := h.clientsChanged()
		if h.ClientCount() == 0 {
			return true
		}
		select {
		case <-ctx.Done():
			return false
		case <-changed:
		case data, ok := <-frames:
			if !ok {
				return false
			}
			h.BroadcastBinary(data)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// IsRunning reports whether Run is delivering messages.
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}

// Dropped returns how many broadcasts were dropped because the buffer
// was full.
func (h *Hub) Dropped() uint64 {
	return h.dropped.Load()
}
