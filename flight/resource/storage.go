// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package resource

import (
	"errors"
	"fmt"
)

// ErrDuplicateResource is returned when a resource name is registered twice.
var ErrDuplicateResource = errors.New("resource already registered")

// Storage is the centralized registry of every resource on the flight. It is
// populated once at scenario construction, before any system goroutine
// starts, and is read-only afterwards.
type Storage struct {
	resources []*Resource
	byName    map[string]*Resource
}

// NewStorage returns an empty registry.
func NewStorage() *Storage {
	return &Storage{
		byName: make(map[string]*Resource),
	}
}

// Add registers a resource. Registration order is preserved for display.
func (s *Storage) Add(r *Resource) error {
	if _, exists := s.byName[r.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateResource, r.Name())
	}
	s.resources = append(s.resources, r)
	s.byName[r.Name()] = r
	return nil
}

// ByName returns the named resource, or nil if it was never registered.
func (s *Storage) ByName(name string) *Resource {
	return s.byName[name]
}

// All returns the registered resources in registration order.
func (s *Storage) All() []*Resource {
	return s.resources
}

// Snapshot captures the state of every resource for display.
func (s *Storage) Snapshot() []Snapshot {
	out := make([]Snapshot, 0, len(s.resources))
	for _, r := range s.resources {
		out = append(out, r.Snapshot())
	}
	return out
}
