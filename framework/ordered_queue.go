package framework

import (
	"sort"
	"sync"
)

// OrderedQueue accepts items tagged with a sequence index in any order, and delivers them on C
// strictly in index order starting from zero. Items that arrive early are held back until
// every item before them has been delivered.
type OrderedQueue struct {
	C         chan interface{}
	next      int
	deferred  []deferredItem
	lock      sync.Mutex
	closeOnce sync.Once
}

type deferredItem struct {
	index int
	item  interface{}
}

// NewOrderedQueue creates a queue. The channel size should be at least the number of items
// that will ever be accepted if nobody reads from C concurrently.
func NewOrderedQueue(channelSize int) *OrderedQueue {
	return &OrderedQueue{C: make(chan interface{}, channelSize)}
}

func (q *OrderedQueue) Accept(index int, item interface{}) {
	q.lock.Lock()
	defer q.lock.Unlock()
	if index != q.next {
		q.deferred = append(q.deferred, deferredItem{index: index, item: item})
		sort.Slice(q.deferred, func(i, j int) bool { return q.deferred[i].index < q.deferred[j].index })
		return
	}
	q.next++
	q.C <- item
	for len(q.deferred) > 0 {
		d := q.deferred[0]
		if d.index != q.next {
			break
		}
		q.deferred = q.deferred[1:]
		q.next++
		q.C <- d.item
	}
}

// Deferred returns the items that are still waiting for an earlier index.
func (q *OrderedQueue) Deferred() []interface{} {
	q.lock.Lock()
	ret := make([]interface{}, 0, len(q.deferred))
	for _, d := range q.deferred {
		ret = append(ret, d.item)
	}
	q.lock.Unlock()
	return ret
}

func (q *OrderedQueue) Close() {
	q.closeOnce.Do(func() {
		close(q.C)
	})
}
