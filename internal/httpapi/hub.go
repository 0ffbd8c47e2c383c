package httpapi

import "sync"

// hub fans a stream of values out to every currently-subscribed
// channel, the same broadcast-to-many-SSE-clients shape the /events
// endpoint needs on top of the task manager's and orchestrator's
// single-callback event sources.
type hub[T any] struct {
	mu   sync.Mutex
	subs map[chan T]struct{}
}

func newHub[T any]() *hub[T] {
	return &hub[T]{subs: make(map[chan T]struct{})}
}

func (h *hub[T]) subscribe() chan T {
	ch := make(chan T, 32)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *hub[T]) unsubscribe(ch chan T) {
	h.mu.Lock()
	delete(h.subs, ch)
	h.mu.Unlock()
	close(ch)
}

func (h *hub[T]) broadcast(v T) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- v:
		default:
			// a slow subscriber drops events rather than blocking the
			// task manager's or orchestrator's publish call.
		}
	}
}
