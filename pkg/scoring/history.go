package scoring

import "sync"

// Sample is one recorded scoring call: the inputs and the result produced.
type Sample struct {
	Request Request `json:"request"`
	Result  Result  `json:"result"`
}

// History is a fixed-capacity ring buffer of past samples with FIFO
// eviction. A mutex serializes writers; scoring itself is otherwise
// stateless, so this is the only synchronization the engine needs.
type History struct {
	mu    sync.Mutex
	buf   []Sample
	next  int
	count int
}

// NewHistory creates a ring buffer holding at most capacity samples.
// Capacity must be positive; NewScorer validates this.
func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = 1
	}
	return &History{buf: make([]Sample, capacity)}
}

// Append records a sample, evicting the oldest when full.
func (h *History) Append(s Sample) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.buf[h.next] = s
	h.next = (h.next + 1) % len(h.buf)
	if h.count < len(h.buf) {
		h.count++
	}
}

// Len returns the number of samples currently held.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.count
}

// Recent returns up to n samples, newest first.
func (h *History) Recent(n int) []Sample {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n > h.count {
		n = h.count
	}
	out := make([]Sample, 0, n)
	for i := 1; i <= n; i++ {
		idx := (h.next - i + len(h.buf)) % len(h.buf)
		out = append(out, h.buf[idx])
	}
	return out
}

// MovingAverage returns the mean overall score of the newest n samples,
// or 0 when the buffer is empty.
func (h *History) MovingAverage(n int) float64 {
	samples := h.Recent(n)
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += s.Result.OverallScore
	}
	return sum / float64(len(samples))
}
