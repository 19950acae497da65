package ground

import "time"

// FrameQueue is a FrameSource whose callbacks run when the host flushes it,
// once per frame. Callbacks requested while flushing run on the next flush.
type FrameQueue struct {
	pending []func(time.Duration)
	running []func(time.Duration)
}

// RequestFrame queues fn for the next Flush.
func (q *FrameQueue) RequestFrame(fn func(now time.Duration)) {
	q.pending = append(q.pending, fn)
}

// Len returns the number of callbacks waiting for the next Flush.
func (q *FrameQueue) Len() int {
	return len(q.pending)
}

// Flush runs every callback queued before the call, in request order.
func (q *FrameQueue) Flush(now time.Duration) {
	if len(q.pending) == 0 {
		return
	}
	q.running, q.pending = q.pending, q.running[:0]
	for i, fn := range q.running {
		q.running[i] = nil
		fn(now)
	}
	q.running = q.running[:0]
}
