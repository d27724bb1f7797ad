package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/signalsfoundry/orbit-viz/internal/logging"
	"github.com/signalsfoundry/orbit-viz/kb"
	"github.com/signalsfoundry/orbit-viz/model"
)

type countingMetrics struct {
	mu      sync.Mutex
	clients int
	dropped int
}

func (m *countingMetrics) SetStreamClients(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients = n
}

func (m *countingMetrics) IncStreamDropped() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped++
}

func (m *countingMetrics) snapshot() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clients, m.dropped
}

func startHub(t *testing.T, store *kb.FrameStore, opts ...Option) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(store, nil, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	srv := httptest.NewServer(hub.Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) (string, json.RawMessage) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg ClientMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read message: %v", err)
	}
	return msg.Type, msg.Data
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func testFrame(index uint64) model.Frame {
	return model.Frame{
		Index:  index,
		Camera: model.Vector{Z: 5},
		Satellites: []model.SatelliteState{
			{ID: "sat-0", Name: "ISS", OrbitRadius: 1.0659},
		},
	}
}

func TestNewClientReceivesLatestFrame(t *testing.T) {
	store := kb.NewFrameStore(model.Vector{Z: 5})
	store.Publish(testFrame(7))
	_, srv := startHub(t, store)

	conn := dial(t, srv)
	typ, data := readMessage(t, conn)
	if typ != MsgTypeFrame {
		t.Fatalf("first message type = %q, want %q", typ, MsgTypeFrame)
	}
	var frame model.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if frame.Index != 7 || len(frame.Satellites) != 1 || frame.Satellites[0].Name != "ISS" {
		t.Fatalf("unexpected frame %+v", frame)
	}
}

func TestPublishedFramesAreBroadcast(t *testing.T) {
	store := kb.NewFrameStore(model.Vector{Z: 5})
	metrics := &countingMetrics{}
	hub, srv := startHub(t, store, WithMetrics(metrics))

	a := dial(t, srv)
	b := dial(t, srv)
	waitFor(t, "two clients", func() bool { return hub.ClientCount() == 2 })
	if clients, _ := metrics.snapshot(); clients != 2 {
		t.Fatalf("metrics clients = %d, want 2", clients)
	}

	store.Publish(testFrame(1))
	for _, conn := range []*websocket.Conn{a, b} {
		typ, data := readMessage(t, conn)
		if typ != MsgTypeFrame {
			t.Fatalf("message type = %q, want frame", typ)
		}
		var frame model.Frame
		if err := json.Unmarshal(data, &frame); err != nil || frame.Index != 1 {
			t.Fatalf("frame = %+v, err = %v", frame, err)
		}
	}
}

func TestCameraMessageMovesSharedCamera(t *testing.T) {
	store := kb.NewFrameStore(model.Vector{Z: 5})
	hub, srv := startHub(t, store)
	conn := dial(t, srv)
	waitFor(t, "client registration", func() bool { return hub.ClientCount() == 1 })

	err := conn.WriteJSON(map[string]interface{}{
		"type": MsgTypeCamera,
		"data": map[string]float64{"x": 1, "y": 2, "z": 3},
	})
	if err != nil {
		t.Fatalf("write camera: %v", err)
	}
	want := model.Vector{X: 1, Y: 2, Z: 3}
	waitFor(t, "camera update", func() bool { return store.Camera() == want })

	typ, _ := readMessage(t, conn)
	if typ != MsgTypeCamera {
		t.Fatalf("expected camera echo, got %q", typ)
	}
}

func TestUnknownMessageGetsError(t *testing.T) {
	store := kb.NewFrameStore(model.Vector{Z: 5})
	_, srv := startHub(t, store)
	conn := dial(t, srv)

	if err := conn.WriteJSON(map[string]string{"type": "warp"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	typ, data := readMessage(t, conn)
	if typ != MsgTypeError || !strings.Contains(string(data), "warp") {
		t.Fatalf("got %q %s, want error mentioning warp", typ, data)
	}
}

func TestDisconnectUnregisters(t *testing.T) {
	store := kb.NewFrameStore(model.Vector{Z: 5})
	metrics := &countingMetrics{}
	hub, srv := startHub(t, store, WithMetrics(metrics))
	conn := dial(t, srv)
	waitFor(t, "client registration", func() bool { return hub.ClientCount() == 1 })

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = conn.Close()
	waitFor(t, "client removal", func() bool { return hub.ClientCount() == 0 })
	waitFor(t, "metrics update", func() bool {
		clients, _ := metrics.snapshot()
		return clients == 0
	})
}

func TestClientSendAfterClose(t *testing.T) {
	hub := NewHub(kb.NewFrameStore(model.Vector{}), nil)
	c := &client{id: "c1", hub: hub, log: logging.Noop(), send: make(chan *websocket.PreparedMessage, 1)}
	msg, err := prepare(ServerMessage{Type: MsgTypeError, Data: "x"})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}

	if !c.trySend(msg) {
		t.Fatal("first send should be queued")
	}
	if c.trySend(msg) {
		t.Fatal("send into a full queue should be dropped")
	}

	c.close()
	c.close()
	if c.trySend(msg) {
		t.Fatal("send after close should be dropped")
	}
	c.reply(ServerMessage{Type: MsgTypeError, Data: "late"})
}

func TestReplyAfterHubShutdown(t *testing.T) {
	hub := NewHub(kb.NewFrameStore(model.Vector{}), nil)
	c := &client{id: "c1", hub: hub, log: logging.Noop(), send: make(chan *websocket.PreparedMessage, 4)}

	ctx, cancel := context.WithCancel(context.Background())
	finished := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(finished)
	}()
	hub.register <- c
	cancel()
	<-finished

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.reply(ServerMessage{Type: MsgTypeError, Data: "late"})
		}()
	}
	wg.Wait()

	if _, ok := <-c.send; ok {
		t.Fatal("queue should be closed and empty after shutdown")
	}
}

func TestCheckOrigin(t *testing.T) {
	hub := NewHub(kb.NewFrameStore(model.Vector{}), nil, WithAllowedOrigins("https://viz.example.com"))
	cases := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:3000", true},
		{"http://orbits.local", true},
		{"https://viz.example.com", true},
		{"https://evil.example.com", false},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "http://orbits.local/ws", nil)
		if tc.origin != "" {
			req.Header.Set("Origin", tc.origin)
		}
		if got := hub.checkOrigin(req); got != tc.want {
			t.Fatalf("checkOrigin(%q) = %v, want %v", tc.origin, got, tc.want)
		}
	}
}
