package kb

import (
	"errors"
	"sync"

	"github.com/signalsfoundry/orbit-viz/model"
)

// ErrNoFrame is returned when no frame has been published yet.
var ErrNoFrame = errors.New("no frame published yet")

// EventType indicates what kind of change happened in the store.
type EventType int

const (
	EventFramePublished EventType = iota
	EventCameraMoved
)

// Event is emitted to subscribers when something interesting happens.
type Event struct {
	Type   EventType
	Frame  model.Frame
	Camera model.Vector
}

// FrameStore is a thread-safe hand-off point between the frame loop and the
// goroutines that serve renderers. It holds the uploaded trail vertex buffers,
// the latest published frame and the shared camera position.
type FrameStore struct {
	mu sync.RWMutex

	catalog []model.CatalogEntry
	trails  map[string][]float32
	latest  *model.Frame
	camera  model.Vector

	nextSub int
	subs    map[int]func(Event)
}

// NewFrameStore constructs an empty store with the camera at cam.
func NewFrameStore(cam model.Vector) *FrameStore {
	return &FrameStore{
		trails: make(map[string][]float32),
		camera: cam,
		subs:   make(map[int]func(Event)),
	}
}

// SetCatalog records the catalog the scene was built from.
func (s *FrameStore) SetCatalog(entries []model.CatalogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog = append([]model.CatalogEntry(nil), entries...)
}

// Catalog returns a copy of the recorded catalog.
func (s *FrameStore) Catalog() []model.CatalogEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.CatalogEntry(nil), s.catalog...)
}

// UploadTrail copies flat into the buffer held for id, reusing its storage.
func (s *FrameStore) UploadTrail(id string, flat []float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trails[id] = append(s.trails[id][:0], flat...)
}

// Trail returns a copy of the last uploaded trail for id.
func (s *FrameStore) Trail(id string) []float32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	buf, ok := s.trails[id]
	if !ok {
		return nil
	}
	return append([]float32(nil), buf...)
}

// Publish attaches the uploaded trails to f, stores it as the latest frame
// and notifies subscribers outside the lock.
func (s *FrameStore) Publish(f model.Frame) {
	s.mu.Lock()
	for i := range f.Satellites {
		if buf, ok := s.trails[f.Satellites[i].ID]; ok {
			f.Satellites[i].Trail = append([]float32(nil), buf...)
		}
	}
	s.latest = &f
	subs := s.snapshotSubs()
	s.mu.Unlock()

	event := Event{Type: EventFramePublished, Frame: f}
	for _, sub := range subs {
		sub(event)
	}
}

// Latest returns the most recently published frame. The returned frame
// shares trail slices with the store and must be treated as read-only.
func (s *FrameStore) Latest() (model.Frame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return model.Frame{}, ErrNoFrame
	}
	return *s.latest, nil
}

// Camera returns the shared camera position.
func (s *FrameStore) Camera() model.Vector {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.camera
}

// SetCamera moves the shared camera and notifies subscribers.
func (s *FrameStore) SetCamera(cam model.Vector) {
	s.mu.Lock()
	s.camera = cam
	subs := s.snapshotSubs()
	s.mu.Unlock()

	event := Event{Type: EventCameraMoved, Camera: cam}
	for _, sub := range subs {
		sub(event)
	}
}

// Subscribe registers a callback for store events. It returns an unsubscribe function.
func (s *FrameStore) Subscribe(fn func(Event)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// snapshotSubs returns subscribers in registration order. Callers hold mu.
func (s *FrameStore) snapshotSubs() []func(Event) {
	out := make([]func(Event), 0, len(s.subs))
	for id := 0; id < s.nextSub; id++ {
		if fn, ok := s.subs[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}
