package dispatch

import "sync"

// fifo is a thread-safe unbounded FIFO. Producers never block on Push; a
// single pump goroutine feeds the output channel in insertion order. It
// backs both the worker's request queue and each subscriber's result
// buffer, so a slow consumer can never stall a producer.
type fifo[T any] struct {
	mu     sync.Mutex
	items  []T
	closed bool

	wake chan struct{}
	done chan struct{}
	out  chan T
}

func newFIFO[T any]() *fifo[T] {
	q := &fifo[T]{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
		out:  make(chan T),
	}
	go q.pump()
	return q
}

// Push appends an item. It reports false once the queue is closed.
func (q *fifo[T]) Push(v T) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.items = append(q.items, v)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}
	return true
}

// Close stops the queue. Items not yet consumed are discarded and the
// output channel is closed once the pump observes the state.
func (q *fifo[T]) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	close(q.done)
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// C returns the consumption channel. It is closed after Close.
func (q *fifo[T]) C() <-chan T {
	return q.out
}

// Len reports the number of items waiting to be consumed.
func (q *fifo[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *fifo[T]) pump() {
	for {
		q.mu.Lock()
		for len(q.items) == 0 {
			closed := q.closed
			q.mu.Unlock()
			if closed {
				close(q.out)
				return
			}
			<-q.wake
			q.mu.Lock()
		}
		next := q.items[0]
		q.items = q.items[1:]
		if len(q.items) == 0 {
			q.items = nil
		}
		q.mu.Unlock()

		select {
		case q.out <- next:
		case <-q.done:
			close(q.out)
			return
		}
	}
}
