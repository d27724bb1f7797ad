package core

import "gonum.org/v1/gonum/spatial/r3"

// MaxTrailLength is the default number of positions a trail retains.
const MaxTrailLength = 100

// TrailSeedStep is the angular spacing, in radians, of the synthetic
// positions used to pre-seed a new satellite's trail.
const TrailSeedStep = 0.01

// Trail is a fixed-capacity FIFO of recent positions backed by a ring buffer.
// Pushing onto a full trail evicts the oldest position. A trail is owned by a
// single satellite and is not safe for concurrent use.
type Trail struct {
	buf   []r3.Vec
	head  int // index of the oldest element
	count int
	dirty bool
}

// NewTrail returns an empty trail. Capacities below one are raised to one.
func NewTrail(capacity int) *Trail {
	if capacity < 1 {
		capacity = 1
	}
	return &Trail{buf: make([]r3.Vec, capacity)}
}

// Push appends p as the newest position. If the trail was full, the oldest
// position is evicted and returned with ok set.
func (t *Trail) Push(p r3.Vec) (evicted r3.Vec, ok bool) {
	t.dirty = true
	if t.count < len(t.buf) {
		t.buf[(t.head+t.count)%len(t.buf)] = p
		t.count++
		return r3.Vec{}, false
	}
	evicted = t.buf[t.head]
	t.buf[t.head] = p
	t.head = (t.head + 1) % len(t.buf)
	return evicted, true
}

// Len returns the number of stored positions.
func (t *Trail) Len() int { return t.count }

// Cap returns the trail capacity.
func (t *Trail) Cap() int { return len(t.buf) }

// At returns the i-th position, 0 being the oldest. It panics if i is out of range.
func (t *Trail) At(i int) r3.Vec {
	if i < 0 || i >= t.count {
		panic("core: trail index out of range")
	}
	return t.buf[(t.head+i)%len(t.buf)]
}

// Newest returns the most recently pushed position.
func (t *Trail) Newest() (r3.Vec, bool) {
	if t.count == 0 {
		return r3.Vec{}, false
	}
	return t.At(t.count - 1), true
}

// Positions returns a copy of the stored positions, oldest first.
func (t *Trail) Positions() []r3.Vec {
	out := make([]r3.Vec, t.count)
	for i := range out {
		out[i] = t.At(i)
	}
	return out
}

// Flat returns the positions as interleaved x,y,z floats, oldest first,
// ready for upload to a line geometry vertex buffer.
func (t *Trail) Flat() []float32 {
	return t.AppendFlat(make([]float32, 0, 3*t.count))
}

// AppendFlat appends the interleaved positions to dst and returns the
// extended slice.
func (t *Trail) AppendFlat(dst []float32) []float32 {
	for i := 0; i < t.count; i++ {
		p := t.At(i)
		dst = append(dst, float32(p.X), float32(p.Y), float32(p.Z))
	}
	return dst
}

// Dirty reports whether the trail changed since the last MarkUploaded.
func (t *Trail) Dirty() bool { return t.dirty }

// MarkUploaded clears the dirty flag once the renderer holds the current contents.
func (t *Trail) MarkUploaded() { t.dirty = false }
