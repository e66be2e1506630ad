// Stable min-priority queue over (priority, payload) pairs.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-PriorityQueue

package sim

import "container/heap"

// item couples a payload with its priority and the sequence number that
// makes equal priorities pop in strict insertion order. Payloads are never
// compared directly.
type item[T any] struct {
	priority []float64
	seq      uint64
	payload  T
}

type itemHeap[T any] []item[T]

func (h itemHeap[T]) Len() int { return len(h) }

func (h itemHeap[T]) Less(i, j int) bool {
	if c := lexCompare(h[i].priority, h[j].priority); c != 0 {
		return c < 0
	}
	return h[i].seq < h[j].seq
}

func (h itemHeap[T]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *itemHeap[T]) Push(x any) {
	*h = append(*h, x.(item[T]))
}

func (h *itemHeap[T]) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// lexCompare compares two priority vectors lexicographically. A missing
// component sorts before any present one.
func lexCompare(a, b []float64) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// MinQueue is a stable min-priority queue. Priorities may be scalar or a
// tuple (compared lexicographically); equal priorities resolve by insertion
// order via a monotonically increasing sequence number attached at push time.
type MinQueue[T any] struct {
	h   itemHeap[T]
	seq uint64
}

// Push inserts payload with the given priority components.
func (q *MinQueue[T]) Push(payload T, priority ...float64) {
	heap.Push(&q.h, item[T]{priority: priority, seq: q.seq, payload: payload})
	q.seq++
}

// Pop removes and returns the minimum-priority payload. The second return
// value is false when the queue is empty.
func (q *MinQueue[T]) Pop() (T, bool) {
	if len(q.h) == 0 {
		var zero T
		return zero, false
	}
	it := heap.Pop(&q.h).(item[T])
	return it.payload, true
}

// Len returns the number of queued payloads.
func (q *MinQueue[T]) Len() int { return len(q.h) }

// Clear empties the queue and resets the sequence counter.
func (q *MinQueue[T]) Clear() {
	q.h = q.h[:0]
	q.seq = 0
}
