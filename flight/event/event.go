// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package event defines the notifications systems send to the flight
// manager, and the shared priority mailbox that carries them.
package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/cuinspace/flightsim/flight/resource"
)

// Kind identifies what a system observed about a resource.
type Kind int

const (
	// KindLow reports input stock at or below the low threshold.
	KindLow Kind = iota
	// KindInsufficient reports an input phase that could not be satisfied.
	KindInsufficient
	// KindCapacity reports an output phase blocked on a full resource.
	KindCapacity
	// KindHigh reports input stock above the high threshold.
	KindHigh
	// KindProduced reports a completed production batch.
	KindProduced
)

func (k Kind) String() string {
	switch k {
	case KindLow:
		return "Low"
	case KindInsufficient:
		return "Insufficient"
	case KindCapacity:
		return "Capacity"
	case KindHigh:
		return "High"
	case KindProduced:
		return "Produced"
	}
	return "Unknown"
}

// Priority is the tier an event is queued and consumed at.
type Priority int

// Tiers are ordered: a numerically greater priority is consumed first.
const (
	PriorityIgnored Priority = iota
	PriorityLow
	PriorityMedium
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityHigh:
		return "HIGH"
	case PriorityMedium:
		return "MED"
	case PriorityLow:
		return "LOW"
	}
	return "IGN"
}

// Priority maps each kind to exactly one tier. Produced never drives a mode
// decision, but it is still queued so the display can log it.
func (k Kind) Priority() Priority {
	switch k {
	case KindInsufficient:
		return PriorityHigh
	case KindLow, KindCapacity, KindHigh:
		return PriorityMedium
	}
	return PriorityIgnored
}

// Event is an immutable notification of a resource-state observation. It is
// created by a system, consumed exactly once by the manager, and forwarded
// to the display.
type Event struct {
	// ID correlates an event across log lines.
	ID string
	// Source is the name of the system that emitted the event.
	Source string
	// Resource the observation is about. Nil for Produced events of a
	// recipe with no input.
	Resource *resource.Resource
	Kind     Kind
	Priority Priority
	At       time.Time
}

// New builds an event; the priority is derived from the kind.
func New(source string, res *resource.Resource, kind Kind) Event {
	return Event{
		ID:       uuid.New().String(),
		Source:   source,
		Resource: res,
		Kind:     kind,
		Priority: kind.Priority(),
		At:       time.Now(),
	}
}

// ResourceName is the name of the event's resource, or "-" when it has none.
func (e Event) ResourceName() string {
	if e.Resource == nil {
		return "-"
	}
	return e.Resource.Name()
}
