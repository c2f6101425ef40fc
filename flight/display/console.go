// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package display renders the simulation state for a human: a resource
// table, the system modes, and a scrolling event log. It consumes only
// read-only snapshots and a fire-and-forget event feed; nothing in the core
// ever blocks on the display.
package display

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/fatih/color"

	"github.com/cuinspace/flightsim/flight/event"
	"github.com/cuinspace/flightsim/flight/manager"
)

const (
	// maxEventLines is the depth of the scrolling event log.
	maxEventLines = 15
	// eventBuffer bounds the fire-and-forget feed; overflow is dropped.
	eventBuffer = 64
)

// StateProvider supplies read-only simulation snapshots.
type StateProvider interface {
	Snapshot() manager.Snapshot
}

// Options tunes the console.
type Options struct {
	// Out defaults to the writer given to NewConsole callers; required.
	Out io.Writer
	// Plain disables the in-place TUI and prints frames sequentially.
	Plain bool
	// RefreshInterval defaults to 100ms.
	RefreshInterval time.Duration
	// Clock defaults to the wall clock.
	Clock clock.Clock
}

// Console is the terminal renderer. It implements manager.Sink.
type Console struct {
	provider StateProvider
	out      io.Writer
	plain    bool
	interval time.Duration
	clk      clock.Clock

	events chan event.Event

	mu       sync.Mutex
	lines    []string
	seq      int
	finished bool
	reason   string

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewConsole builds a console over the given state provider.
func NewConsole(provider StateProvider, opts Options) *Console {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = 100 * time.Millisecond
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	return &Console{
		provider: provider,
		out:      opts.Out,
		plain:    opts.Plain,
		interval: opts.RefreshInterval,
		clk:      opts.Clock,
		events:   make(chan event.Event, eventBuffer),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// HandleEvent queues an event for the log. Never blocks; when the buffer is
// full the event is dropped, the log is best-effort by design.
func (c *Console) HandleEvent(e event.Event) {
	select {
	case c.events <- e:
	default:
	}
}

// Finish records the end-of-run banner. The final frame is rendered by Run
// on its way out.
func (c *Console) Finish(reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finished = true
	c.reason = reason
}

// Run refreshes the screen until Stop is called. Goroutine entry point.
func (c *Console) Run() {
	defer close(c.done)
	if !c.plain {
		fmt.Fprint(c.out, "\033[2J")
	}
	ticker := c.clk.Ticker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			c.render()
			return
		case <-ticker.C:
			c.render()
		}
	}
}

// Stop ends the render loop and waits for the final frame.
func (c *Console) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	<-c.done
}

func (c *Console) render() {
	c.drainEvents()

	snap := c.provider.Snapshot()
	var b strings.Builder

	if !c.plain {
		b.WriteString("\033[H")
	}
	rule := strings.Repeat("-", 70)
	b.WriteString(rule + "\n")
	b.WriteString("Current Resource Amounts:\n")
	b.WriteString(rule + "\n")
	for _, r := range snap.Resources {
		fmt.Fprintf(&b, "%-20s: %4d / %4d\n", r.Name, r.Amount, r.Capacity)
	}
	b.WriteString("\nSystem Modes:\n")
	for _, s := range snap.Systems {
		fmt.Fprintf(&b, "%-20s: %s\n", s.Name, s.Mode.String())
	}
	b.WriteString("\nEvent Log:\n")

	c.mu.Lock()
	for _, line := range c.lines {
		b.WriteString(line + "\n")
	}
	finished, reason := c.finished, c.reason
	c.mu.Unlock()

	if finished {
		b.WriteString("\n===================================\n")
		b.WriteString("Simulation Completed.\n")
		if reason != "" {
			fmt.Fprintf(&b, "Reason: %s\n", reason)
		}
		b.WriteString("===================================\n")
	}

	fmt.Fprint(c.out, b.String())
}

func (c *Console) drainEvents() {
	for {
		select {
		case e := <-c.events:
			c.appendLine(c.formatEvent(e))
		default:
			return
		}
	}
}

func (c *Console) appendLine(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
	if len(c.lines) > maxEventLines {
		c.lines = c.lines[len(c.lines)-maxEventLines:]
	}
}

func (c *Console) formatEvent(e event.Event) string {
	c.mu.Lock()
	c.seq++
	seq := c.seq
	c.mu.Unlock()
	return fmt.Sprintf("Event [%04d]: [%s] Reported Resource [%s] Status [%s]",
		seq, e.Source, e.ResourceName(), kindLabel(e.Kind))
}

func kindLabel(k event.Kind) string {
	switch k {
	case event.KindLow:
		return color.YellowString("LOW")
	case event.KindInsufficient:
		return color.RedString("INSUFFICIENT")
	case event.KindCapacity:
		return color.BlueString("CAPACITY")
	case event.KindHigh:
		return color.GreenString("HIGH")
	case event.KindProduced:
		return "PRODUCED"
	}
	return "UNKNOWN"
}
