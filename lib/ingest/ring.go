package ingest

import "sync"

// chunkPool recycles the []byte buffers backing ring entries, the same
// sync.Pool-backed recycling the teacher's mode_s benchmarks exercise via
// UsePoolAllocator/Release for high-throughput frame decode (§12).
var chunkPool = sync.Pool{
	New: func() any { return make([]byte, 0, 4096) },
}

// AcquireChunk returns a recycled buffer with at least capacity n,
// resized to length n. Sample-acquisition collaborators should use this
// instead of allocating directly so the pool actually amortizes.
func AcquireChunk(n int) []byte {
	buf := chunkPool.Get().([]byte)
	if cap(buf) < n {
		return make([]byte, n)
	}
	return buf[:n]
}

// ReleaseChunk returns a buffer to the pool. Callers must not use buf
// after calling this.
func ReleaseChunk(buf []byte) {
	chunkPool.Put(buf[:0])
}

// Ring is a fixed-capacity, single-producer/single-consumer ring buffer of
// raw I/Q sample chunks, per §5's "bounded ring buffer of raw sample
// chunks". When full, Push drops the oldest chunk and reports it so the
// caller can recycle it and count it as dropped.
type Ring struct {
	mu       sync.Mutex
	notEmpty sync.Cond
	buf      [][]byte
	cap      int
	closed   bool
}

// NewRing returns an empty Ring that holds at most capacity chunks.
func NewRing(capacity int) *Ring {
	r := &Ring{cap: capacity}
	r.notEmpty.L = &r.mu
	return r
}

// Push appends chunk to the ring. If the ring is already full, the oldest
// chunk is evicted and returned as dropped (ok=false) so the caller can
// count it and return its backing array to chunkPool.
func (r *Ring) Push(chunk []byte) (dropped []byte, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.buf) >= r.cap {
		dropped = r.buf[0]
		r.buf = r.buf[1:]
		ok = false
	} else {
		ok = true
	}
	r.buf = append(r.buf, chunk)
	r.notEmpty.Signal()
	return dropped, ok
}

// Pop blocks until a chunk is available or the ring is closed, in which
// case it returns ok=false.
func (r *Ring) Pop() (chunk []byte, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for len(r.buf) == 0 && !r.closed {
		r.notEmpty.Wait()
	}
	if len(r.buf) == 0 {
		return nil, false
	}
	chunk = r.buf[0]
	r.buf = r.buf[1:]
	return chunk, true
}

// Close unblocks any pending Pop, causing it to return ok=false.
func (r *Ring) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	r.notEmpty.Broadcast()
}
