// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package manager implements the flight manager: the single consumer of the
// event queue. It owns the authoritative system and resource registries,
// reacts to events by retuning system modes, and decides when the
// simulation ends.
package manager

import (
	"time"

	"github.com/benbjohnson/clock"
	log "github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/cuinspace/flightsim/flight/event"
	"github.com/cuinspace/flightsim/flight/resource"
	"github.com/cuinspace/flightsim/flight/system"
)

// Sink receives every popped event and the end-of-run notice. Delivery is
// fire-and-forget: the manager never blocks on its sink.
type Sink interface {
	HandleEvent(e event.Event)
	Finish(reason string)
}

type nopSink struct{}

func (nopSink) HandleEvent(event.Event) {}
func (nopSink) Finish(string)           {}

// Config carries the manager's tunables and the designated resources whose
// state ends the run.
type Config struct {
	// PollInterval bounds how long the manager sleeps when the queue is
	// empty and no push wakes it earlier.
	PollInterval time.Duration
	// PauseInterval rate-limits reactions between queue drains.
	PauseInterval time.Duration
	// LifeCritical names the resource whose exhaustion ends the run.
	LifeCritical string
	// MissionDistance names the resource whose full capacity ends the
	// run, and whose final amount is the headline report.
	MissionDistance string
	// TimeScale divides the manager's sleeps, matching the systems.
	TimeScale int
}

// DefaultConfig matches the nominal flight parameters.
func DefaultConfig() Config {
	return Config{
		PollInterval:    10 * time.Millisecond,
		PauseInterval:   10 * time.Millisecond,
		LifeCritical:    "Oxygen",
		MissionDistance: "Distance",
		TimeScale:       1,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PollInterval <= 0 {
		c.PollInterval = d.PollInterval
	}
	if c.PauseInterval <= 0 {
		c.PauseInterval = d.PauseInterval
	}
	if c.LifeCritical == "" {
		c.LifeCritical = d.LifeCritical
	}
	if c.MissionDistance == "" {
		c.MissionDistance = d.MissionDistance
	}
	if c.TimeScale <= 0 {
		c.TimeScale = d.TimeScale
	}
	return c
}

// Manager supervises the simulation. Run executes on its own goroutine;
// the running flag and system modes are the only state it shares with the
// system goroutines.
type Manager struct {
	cfg     Config
	queue   *event.Queue
	storage *resource.Storage
	systems []*system.System
	sink    Sink
	clk     clock.Clock

	running *atomic.Bool
}

// New builds a manager over the given registries. A nil sink discards
// events; a nil clk selects the wall clock.
func New(storage *resource.Storage, queue *event.Queue, cfg Config, sink Sink, clk clock.Clock) *Manager {
	if sink == nil {
		sink = nopSink{}
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Manager{
		cfg:     cfg.withDefaults(),
		queue:   queue,
		storage: storage,
		sink:    sink,
		clk:     clk,
		running: atomic.NewBool(true),
	}
}

// AttachSink replaces the display sink. Must be called before Run starts;
// it exists because the console needs the manager as its state provider, so
// the two are wired in sequence.
func (m *Manager) AttachSink(s Sink) {
	if s != nil {
		m.sink = s
	}
}

// Register adds a system to the authoritative registry. Must be called
// before Run starts.
func (m *Manager) Register(sys *system.System) {
	m.systems = append(m.systems, sys)
}

// Systems returns the registered systems in registration order.
func (m *Manager) Systems() []*system.System {
	return m.systems
}

// Running reports whether the simulation is still live.
func (m *Manager) Running() bool {
	return m.running.Load()
}

// Run drains the event queue until a termination condition clears the
// running flag. This loop is the simulation driver.
func (m *Manager) Run() {
	log.Info("manager started")
	for m.running.Load() {
		e, ok := m.queue.Pop()
		if !ok {
			// Block until a push arrives, bounded by the poll
			// interval so a cleared running flag is noticed.
			timer := m.clk.Timer(m.scaled(m.cfg.PollInterval))
			select {
			case <-m.queue.Wait():
			case <-timer.C:
			}
			timer.Stop()
			continue
		}

		m.handle(e)
		m.clk.Sleep(m.scaled(m.cfg.PauseInterval))
	}
	log.Info("manager stopped")
}

// Stop ends the simulation from outside the event loop, e.g. on SIGINT.
func (m *Manager) Stop(reason string) {
	m.terminate(reason)
}

// HandleEvent applies one event's control decision. Exported for tests;
// Run is the production caller.
func (m *Manager) HandleEvent(e event.Event) {
	m.handle(e)
}

func (m *Manager) handle(e event.Event) {
	// Every event reaches the display, including ignored-tier ones.
	m.sink.HandleEvent(e)

	if e.Priority == event.PriorityIgnored {
		return
	}

	log.WithFields(log.Fields{
		"system":   e.Source,
		"resource": e.ResourceName(),
		"kind":     e.Kind.String(),
		"priority": e.Priority.String(),
	}).Debug("event popped")

	switch {
	case e.Kind == event.KindInsufficient && e.ResourceName() == m.cfg.LifeCritical:
		m.terminate(m.cfg.LifeCritical + " depleted")
	case e.Kind == event.KindCapacity && e.ResourceName() == m.cfg.MissionDistance:
		m.terminate("destination reached")
	case e.Kind == event.KindLow || e.Kind == event.KindInsufficient:
		m.retune(e, system.ModeFast)
	case e.Kind == event.KindCapacity || e.Kind == event.KindHigh:
		m.retune(e, system.ModeSlow)
	default:
		m.retune(e, system.ModeStandard)
	}
}

// retune applies the target mode to the systems upstream of the event's
// resource: only a system whose recipe output is the affected resource
// reacts. Terminated systems are never retuned.
func (m *Manager) retune(e event.Event, target system.Mode) {
	for _, sys := range m.systems {
		if sys.Mode() == system.ModeTerminate {
			continue
		}
		if sys.Recipe().Output == e.Resource {
			sys.SetMode(target)
			log.WithFields(log.Fields{
				"system": sys.Name(),
				"mode":   target.String(),
			}).Debug("mode changed")
		}
	}
}

// terminate clears the running flag and broadcasts Terminate to every
// system still alive. Unlike retune, the broadcast is unconditional: every
// system stops, whatever resource it produces.
func (m *Manager) terminate(reason string) {
	if !m.running.CompareAndSwap(true, false) {
		return
	}
	log.WithField("reason", reason).Info("terminating all systems")
	for _, sys := range m.systems {
		if sys.Mode() == system.ModeTerminate {
			continue
		}
		sys.SetMode(system.ModeTerminate)
	}
	m.sink.Finish(reason)
}

// FinalDistance returns the mission-distance resource's amount, the
// headline quantity of the final report. Zero when the scenario has no
// such resource.
func (m *Manager) FinalDistance() int {
	r := m.storage.ByName(m.cfg.MissionDistance)
	if r == nil {
		return 0
	}
	return r.Level()
}

// Snapshot captures a read-only view of every resource and system mode for
// the display.
func (m *Manager) Snapshot() Snapshot {
	statuses := make([]SystemStatus, 0, len(m.systems))
	for _, sys := range m.systems {
		statuses = append(statuses, SystemStatus{Name: sys.Name(), Mode: sys.Mode()})
	}
	return Snapshot{
		Resources: m.storage.Snapshot(),
		Systems:   statuses,
		Running:   m.running.Load(),
	}
}

func (m *Manager) scaled(d time.Duration) time.Duration {
	return d / time.Duration(m.cfg.TimeScale)
}

// SystemStatus pairs a system name with its current mode.
type SystemStatus struct {
	Name string
	Mode system.Mode
}

// Snapshot is a point-in-time view of the simulation for the display.
type Snapshot struct {
	Resources []resource.Snapshot
	Systems   []SystemStatus
	Running   bool
}
