// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resource

import (
	"fmt"
	"sync"
)

// Resource is a named, capacity-bounded quantity shared by the systems of
// the flight. The amount is only ever mutated through the transfer
// operations; every transfer is atomic with respect to concurrent transfers
// on the same resource. Transfers on different resources never contend.
type Resource struct {
	name     string
	capacity int

	mutex  sync.Mutex
	amount int
}

// New returns a resource holding amount units out of capacity.
func New(name string, amount, capacity int) *Resource {
	return &Resource{
		name:     name,
		capacity: capacity,
		amount:   amount,
	}
}

// Name returns the resource name.
func (r *Resource) Name() string {
	return r.name
}

// Capacity returns the maximum amount the resource can hold.
func (r *Resource) Capacity() int {
	return r.capacity
}

// Level returns the current amount.
func (r *Resource) Level() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.amount
}

// TransferInto adds as much of requested as the remaining capacity allows
// and returns the residual that did not fit. It never blocks and never
// fails; a nonzero residual means the resource is at capacity and the
// caller should retry later.
func (r *Resource) TransferInto(requested int) int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	room := r.capacity - r.amount
	transferred := requested
	if room < transferred {
		transferred = room
	}
	r.amount += transferred
	r.checkInvariant()

	return requested - transferred
}

// TransferFrom removes as much of requested as the current stock allows and
// returns the residual that could not be removed. A nonzero residual means
// the stock ran dry and the caller should retry later.
func (r *Resource) TransferFrom(requested int) int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	transferred := requested
	if r.amount < transferred {
		transferred = r.amount
	}
	r.amount -= transferred
	r.checkInvariant()

	return requested - transferred
}

// Snapshot returns a read-only copy of the resource state for display.
func (r *Resource) Snapshot() Snapshot {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return Snapshot{Name: r.name, Amount: r.amount, Capacity: r.capacity}
}

// checkInvariant must be called with the mutex held. A violation is a
// programming defect in the transfer arithmetic, not a runtime condition.
func (r *Resource) checkInvariant() {
	if r.amount < 0 || r.amount > r.capacity {
		panic(fmt.Sprintf("resource %s: amount %d outside [0, %d]", r.name, r.amount, r.capacity))
	}
}

// Snapshot is an immutable view of a resource at one instant.
type Snapshot struct {
	Name     string
	Amount   int
	Capacity int
}
