// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package event

import (
	"sync"

	"github.com/edwingeng/deque"
)

// tierOrder lists every priority from most to least urgent. Pop scans it in
// this order.
var tierOrder = []Priority{PriorityHigh, PriorityMedium, PriorityLow, PriorityIgnored}

// Queue is the unbounded mailbox shared by all systems and the manager.
// Each priority tier is its own FIFO, which realizes the required ordering
// exactly: strict priority first, insertion order within a tier. One mutex
// covers the whole structure; queue traffic is rare next to resource
// transfers, so the coarse lock is deliberate.
type Queue struct {
	mutex  sync.Mutex
	tiers  map[Priority]deque.Deque
	length int

	// notify wakes a blocked consumer without it having to poll. Capacity
	// one: a single pending wake-up is enough, Pop drains the tiers.
	notify chan struct{}
}

// NewQueue returns an empty mailbox.
func NewQueue() *Queue {
	tiers := make(map[Priority]deque.Deque, len(tierOrder))
	for _, p := range tierOrder {
		tiers[p] = deque.NewDeque()
	}
	return &Queue{
		tiers:  tiers,
		notify: make(chan struct{}, 1),
	}
}

// Push appends the event to its priority tier.
func (q *Queue) Push(e Event) {
	q.mutex.Lock()
	q.tiers[e.Priority].PushBack(e)
	q.length++
	q.mutex.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Pop removes and returns the highest-priority, oldest event. It never
// blocks; ok is false when the queue is empty.
func (q *Queue) Pop() (Event, bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()

	for _, p := range tierOrder {
		if tier := q.tiers[p]; !tier.Empty() {
			q.length--
			return tier.PopFront().(Event), true
		}
	}
	return Event{}, false
}

// Len returns the number of queued events.
func (q *Queue) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return q.length
}

// Wait returns a channel that receives after a Push. A receipt does not
// guarantee an event is still queued; callers must treat it as a hint and
// call Pop.
func (q *Queue) Wait() <-chan struct{} {
	return q.notify
}
