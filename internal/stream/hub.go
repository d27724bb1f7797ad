// Package stream pushes published frames to browser renderers over
// WebSocket and serves the small HTTP API next to it.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/signalsfoundry/orbit-viz/internal/logging"
	"github.com/signalsfoundry/orbit-viz/kb"
	"github.com/signalsfoundry/orbit-viz/model"
)

// Message types exchanged over /ws.
const (
	MsgTypeFrame  = "frame"
	MsgTypeCamera = "camera"
	MsgTypeError  = "error"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096

	defaultSendBuffer = 16
)

// ErrInvalidCamera is reported to a client whose camera message does not
// carry a finite position.
var ErrInvalidCamera = errors.New("invalid camera position")

// ClientMessage is a message from a renderer.
type ClientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ServerMessage is a message to a renderer.
type ServerMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Metrics receives hub counters. *observability.FrameCollector satisfies it.
type Metrics interface {
	SetStreamClients(n int)
	IncStreamDropped()
}

type noopMetrics struct{}

func (noopMetrics) SetStreamClients(int) {}
func (noopMetrics) IncStreamDropped()    {}

// Option customises a Hub.
type Option func(*Hub)

// WithMetrics installs a metrics sink.
func WithMetrics(m Metrics) Option {
	return func(h *Hub) {
		if m != nil {
			h.metrics = m
		}
	}
}

// WithSendBuffer sets the per-client queue length. Frames beyond it are
// dropped for that client rather than stalling the others.
func WithSendBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.sendBuffer = n
		}
	}
}

// WithAllowedOrigins adds origins accepted in addition to same-host and
// localhost.
func WithAllowedOrigins(origins ...string) Option {
	return func(h *Hub) {
		h.allowedOrigins = append(h.allowedOrigins, origins...)
	}
}

type client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	log  logging.Logger

	mu     sync.Mutex
	closed bool
	send   chan *websocket.PreparedMessage
}

// trySend queues msg unless the queue is full or closed.
func (c *client) trySend(msg *websocket.PreparedMessage) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

// close ends the write pump. It is safe to call more than once.
func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// Hub fans frames published to a FrameStore out to every connected renderer
// and applies camera moves sent back by them.
type Hub struct {
	store   *kb.FrameStore
	log     logging.Logger
	metrics Metrics

	upgrader       websocket.Upgrader
	allowedOrigins []string
	sendBuffer     int

	mu      sync.RWMutex
	clients map[string]*client

	register   chan *client
	unregister chan *client
	broadcast  chan kb.Event
	done       chan struct{}
	runOnce    sync.Once
}

// NewHub constructs a hub serving frames from store.
func NewHub(store *kb.FrameStore, log logging.Logger, opts ...Option) *Hub {
	if log == nil {
		log = logging.Noop()
	}
	h := &Hub{
		store:      store,
		log:        log,
		metrics:    noopMetrics{},
		sendBuffer: defaultSendBuffer,
		clients:    make(map[string]*client),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan kb.Event, defaultSendBuffer),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin:       h.checkOrigin,
		EnableCompression: true,
	}
	return h
}

// ClientCount reports the number of registered renderers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Run subscribes to the store and services client registration and
// broadcasts until ctx is cancelled. Every client is disconnected on return.
func (h *Hub) Run(ctx context.Context) {
	started := false
	h.runOnce.Do(func() { started = true })
	if !started {
		return
	}

	unsubscribe := h.store.Subscribe(h.enqueue)
	defer func() {
		unsubscribe()
		close(h.done)
		h.mu.Lock()
		for id, c := range h.clients {
			delete(h.clients, id)
			c.close()
		}
		h.mu.Unlock()
		h.metrics.SetStreamClients(0)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c.id] = c
			n := len(h.clients)
			h.mu.Unlock()
			h.metrics.SetStreamClients(n)
			c.log.Info(ctx, "renderer connected", logging.Int("clients", n))

		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c.id]; ok {
				delete(h.clients, c.id)
				c.close()
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.metrics.SetStreamClients(n)
			c.log.Info(ctx, "renderer disconnected", logging.Int("clients", n))

		case ev := <-h.broadcast:
			msg, err := eventMessage(ev)
			if err != nil {
				h.log.Warn(ctx, "failed to encode stream event", logging.Err(err))
				continue
			}
			h.mu.RLock()
			for _, c := range h.clients {
				if !c.trySend(msg) {
					h.metrics.IncStreamDropped()
					c.log.Debug(ctx, "send buffer full, dropping message")
				}
			}
			h.mu.RUnlock()
		}
	}
}

// enqueue runs on the publisher's goroutine and never blocks it.
func (h *Hub) enqueue(ev kb.Event) {
	select {
	case h.broadcast <- ev:
	default:
		h.metrics.IncStreamDropped()
	}
}

func eventMessage(ev kb.Event) (*websocket.PreparedMessage, error) {
	var msg ServerMessage
	switch ev.Type {
	case kb.EventFramePublished:
		msg = ServerMessage{Type: MsgTypeFrame, Data: ev.Frame}
	case kb.EventCameraMoved:
		msg = ServerMessage{Type: MsgTypeCamera, Data: ev.Camera}
	default:
		return nil, fmt.Errorf("unknown event type %d", ev.Type)
	}
	return prepare(msg)
}

func prepare(msg ServerMessage) (*websocket.PreparedMessage, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return websocket.NewPreparedMessage(websocket.TextMessage, payload)
}

// HandleWebSocket upgrades the request and attaches the renderer to the hub.
// The latest frame, when there is one, is queued before any broadcast.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	ctx, log := logging.WithConnLogger(r.Context(), h.log)

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn(ctx, "websocket upgrade failed", logging.Err(err))
		return
	}

	c := &client{
		id:   logging.ConnIDFromContext(ctx),
		hub:  h,
		conn: conn,
		send: make(chan *websocket.PreparedMessage, h.sendBuffer),
		log:  log,
	}
	if frame, err := h.store.Latest(); err == nil {
		if msg, err := prepare(ServerMessage{Type: MsgTypeFrame, Data: frame}); err == nil {
			c.trySend(msg)
		}
	}

	select {
	case h.register <- c:
	case <-h.done:
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn(context.Background(), "websocket read failed", logging.Err(err))
			}
			return
		}
		if err := c.handleMessage(msg); err != nil {
			c.reply(ServerMessage{Type: MsgTypeError, Data: err.Error()})
		}
	}
}

func (c *client) handleMessage(msg ClientMessage) error {
	switch msg.Type {
	case MsgTypeCamera:
		var cam model.Vector
		if err := json.Unmarshal(msg.Data, &cam); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidCamera, err)
		}
		if !finite(cam.X) || !finite(cam.Y) || !finite(cam.Z) {
			return ErrInvalidCamera
		}
		c.hub.store.SetCamera(cam)
		return nil
	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
}

// reply queues a direct response without blocking the read loop. Replies
// to a client the hub has already dropped are discarded.
func (c *client) reply(msg ServerMessage) {
	select {
	case <-c.hub.done:
		return
	default:
	}
	prepared, err := prepare(msg)
	if err != nil {
		return
	}
	c.trySend(prepared)
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WritePreparedMessage(msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Host == r.Host {
		return true
	}
	host := u.Hostname()
	if host == "localhost" || host == "127.0.0.1" {
		return true
	}
	for _, allowed := range h.allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return true
		}
	}
	h.log.Warn(r.Context(), "rejected websocket origin", logging.String("origin", origin))
	return false
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
