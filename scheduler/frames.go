package scheduler

import "sync"

// FrameRequester defers work to the next animation frame. The returned function cancels the request; calling it after
// the frame ran is a no-op.
type FrameRequester interface {
	RequestFrame(fn func()) (cancel func())
}

type frameRequest struct {
	fn       func()
	canceled bool
}

// FrameQueue is a FrameRequester driven by explicit calls to Flush. Hosts call Flush once per tick of their event
// loop; tests call it to step frames.
type FrameQueue struct {
	mu      sync.Mutex
	pending []*frameRequest
}

func (q *FrameQueue) RequestFrame(fn func()) func() {
	req := &frameRequest{fn: fn}
	q.mu.Lock()
	q.pending = append(q.pending, req)
	q.mu.Unlock()
	return func() {
		q.mu.Lock()
		req.canceled = true
		q.mu.Unlock()
	}
}

// Pending returns the number of requests that will run on the next Flush.
func (q *FrameQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, req := range q.pending {
		if !req.canceled {
			n++
		}
	}
	return n
}

// Flush runs all requests made before the call and returns how many ran. Requests made while flushing run on the
// following Flush.
func (q *FrameQueue) Flush() int {
	q.mu.Lock()
	reqs := q.pending
	q.pending = nil
	q.mu.Unlock()

	n := 0
	for _, req := range reqs {
		q.mu.Lock()
		canceled := req.canceled
		req.canceled = true
		q.mu.Unlock()
		if canceled {
			continue
		}
		req.fn()
		n++
	}
	return n
}
