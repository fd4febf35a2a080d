package ingest

import "sync"

// Queue is a bounded ring of pending events. Gateway handler goroutines
// enqueue concurrently; a single accrual worker drains. When the ring is
// full the event is dropped rather than blocking the gateway.
type Queue struct {
	mu     sync.Mutex
	buffer []Event
	mask   uint32
	head   uint32
	tail   uint32
}

func NewQueue(size uint32) *Queue {
	if size == 0 {
		size = 4096
	}
	if size&(size-1) != 0 {
		size = nextPowerOf2(size)
	}
	return &Queue{
		buffer: make([]Event, size),
		mask:   size - 1,
	}
}

func (q *Queue) Enqueue(ev Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	nextHead := (q.head + 1) & q.mask
	if nextHead == q.tail {
		return false
	}
	q.buffer[q.head] = ev
	q.head = nextHead
	return true
}

func (q *Queue) Dequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.tail == q.head {
		return Event{}, false
	}
	ev := q.buffer[q.tail]
	q.buffer[q.tail] = Event{}
	q.tail = (q.tail + 1) & q.mask
	return ev, true
}

func (q *Queue) Len() uint32 {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.head >= q.tail {
		return q.head - q.tail
	}
	return (q.mask + 1) - (q.tail - q.head)
}

func (q *Queue) Capacity() uint32 {
	return q.mask + 1
}

func nextPowerOf2(n uint32) uint32 {
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n++
	return n
}
