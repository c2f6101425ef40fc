// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package system implements the independent production units of the flight.
// Each system repeatedly converts an input resource into an output resource
// according to its recipe, reporting observations as events. Nothing inside
// a system is a fatal error: every shortage degrades to an event plus a
// paced retry, and only the manager stops a starved system, by setting its
// mode to Terminate.
package system

import (
	"time"

	"github.com/benbjohnson/clock"
	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"
	"go.uber.org/atomic"

	"github.com/cuinspace/flightsim/flight/event"
	"github.com/cuinspace/flightsim/flight/resource"
)

// Recipe is a system's fixed consumption/production rule. Input or Output
// may be nil to model a pure producer or a pure sink. Immutable after
// construction.
type Recipe struct {
	Input          *resource.Resource
	Output         *resource.Resource
	InputAmount    int
	OutputAmount   int
	ProcessingTime time.Duration
}

// Config carries the tunable pacing parameters shared by every system.
type Config struct {
	// CycleWait is the pause between cycles, keeping a healthy system
	// from flooding the event queue.
	CycleWait time.Duration
	// RetryWait paces the retries of a blocked input or output phase.
	RetryWait time.Duration
	// RetryBackoffMultiplier > 1 grows the retry pause exponentially up
	// to eight times RetryWait; otherwise retries are evenly paced.
	RetryBackoffMultiplier float64
	// LowMultiplier and HighMultiplier position the stock thresholds as
	// multiples of the recipe's input amount.
	LowMultiplier  int
	HighMultiplier int
	// TimeScale divides every simulated delay, speeding the whole run up
	// without changing its observable ordering.
	TimeScale int
}

// DefaultConfig matches the nominal flight parameters.
func DefaultConfig() Config {
	return Config{
		CycleWait:      500 * time.Millisecond,
		RetryWait:      500 * time.Millisecond,
		LowMultiplier:  2,
		HighMultiplier: 5,
		TimeScale:      1,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.CycleWait <= 0 {
		c.CycleWait = d.CycleWait
	}
	if c.RetryWait <= 0 {
		c.RetryWait = d.RetryWait
	}
	if c.LowMultiplier <= 0 {
		c.LowMultiplier = d.LowMultiplier
	}
	if c.HighMultiplier <= 0 {
		c.HighMultiplier = d.HighMultiplier
	}
	if c.TimeScale <= 0 {
		c.TimeScale = d.TimeScale
	}
	return c
}

// System is one independent production unit. Run executes on its own
// goroutine; Mode is the only field another goroutine writes.
type System struct {
	name   string
	recipe Recipe
	queue  *event.Queue
	cfg    Config
	clk    clock.Clock

	mode *atomic.Int32
}

// New builds a system in Standard mode. A nil clk selects the wall clock.
func New(name string, recipe Recipe, queue *event.Queue, cfg Config, clk clock.Clock) *System {
	if clk == nil {
		clk = clock.New()
	}
	return &System{
		name:   name,
		recipe: recipe,
		queue:  queue,
		cfg:    cfg.withDefaults(),
		clk:    clk,
		mode:   atomic.NewInt32(int32(ModeStandard)),
	}
}

// Name returns the system name.
func (s *System) Name() string {
	return s.name
}

// Recipe returns the system's production rule.
func (s *System) Recipe() Recipe {
	return s.recipe
}

// Mode returns the current mode.
func (s *System) Mode() Mode {
	return Mode(s.mode.Load())
}

// SetMode transitions the system. Terminate is absorbing: once set, every
// later transition is ignored.
func (s *System) SetMode(m Mode) {
	if s.Mode() == ModeTerminate {
		return
	}
	s.mode.Store(int32(m))
}

// Run drives the production loop until the mode becomes Terminate. It is
// the goroutine entry point for the system.
func (s *System) Run() {
	log.WithField("system", s.name).Info("system started")
	for s.Mode() != ModeTerminate {
		if s.Mode() == ModeDisabled {
			s.clk.Sleep(s.scaled(s.cfg.CycleWait))
			continue
		}
		s.RunCycle()
		s.clk.Sleep(s.scaled(s.cfg.CycleWait))
	}
	log.WithField("system", s.name).Info("system terminated")
}

// RunCycle executes one full production cycle: pull input, process, push
// output, then report the input stock thresholds.
func (s *System) RunCycle() {
	produced := 0
	if s.pullInput() {
		s.process()
		produced = s.recipe.OutputAmount
	}
	s.pushOutput(produced)
	s.reportThresholds()
}

// pullInput withdraws the recipe's input amount, retrying with back-off on
// shortage. Returns true when the input is fully satisfied. Recipes with no
// input are trivially satisfied.
func (s *System) pullInput() bool {
	if s.recipe.Input == nil {
		return true
	}
	remaining := s.recipe.InputAmount
	retry := s.newRetryBackOff()
	for remaining > 0 && s.Mode() != ModeTerminate {
		remaining = s.recipe.Input.TransferFrom(remaining)
		if remaining > 0 {
			s.emit(s.recipe.Input, event.KindInsufficient)
			s.clk.Sleep(retry.NextBackOff())
		}
	}
	return remaining == 0
}

// process simulates the conversion delay, scaled by the current mode, and
// announces the finished batch. The Produced event references the input
// resource the batch was made from.
func (s *System) process() {
	delay := s.Mode().adjust(s.recipe.ProcessingTime)
	s.clk.Sleep(s.scaled(delay))
	s.emit(s.recipe.Input, event.KindProduced)
}

// pushOutput deposits the produced amount, retrying with back-off while the
// output resource is at capacity.
func (s *System) pushOutput(amount int) {
	if s.recipe.Output == nil || amount <= 0 {
		return
	}
	retry := s.newRetryBackOff()
	for amount > 0 && s.Mode() != ModeTerminate {
		amount = s.recipe.Output.TransferInto(amount)
		if amount > 0 {
			s.emit(s.recipe.Output, event.KindCapacity)
			s.clk.Sleep(retry.NextBackOff())
		}
	}
}

// reportThresholds emits Low or High when the input stock crosses the
// configured multiples of the recipe's input amount.
func (s *System) reportThresholds() {
	if s.recipe.Input == nil {
		return
	}
	current := s.recipe.Input.Level()
	switch {
	case current <= s.recipe.InputAmount*s.cfg.LowMultiplier:
		s.emit(s.recipe.Input, event.KindLow)
	case current > s.recipe.InputAmount*s.cfg.HighMultiplier:
		s.emit(s.recipe.Input, event.KindHigh)
	}
}

func (s *System) emit(res *resource.Resource, kind event.Kind) {
	e := event.New(s.name, res, kind)
	s.queue.Push(e)
	log.WithFields(log.Fields{
		"system":   s.name,
		"resource": e.ResourceName(),
		"kind":     kind.String(),
		"event":    e.ID,
	}).Debug("event emitted")
}

func (s *System) newRetryBackOff() backoff.BackOff {
	wait := s.scaled(s.cfg.RetryWait)
	if s.cfg.RetryBackoffMultiplier > 1 {
		bo := backoff.NewExponentialBackOff()
		bo.InitialInterval = wait
		bo.Multiplier = s.cfg.RetryBackoffMultiplier
		bo.RandomizationFactor = 0
		bo.MaxInterval = wait * 8
		bo.MaxElapsedTime = 0 // retries stop only via Terminate
		bo.Reset()
		return bo
	}
	return backoff.NewConstantBackOff(wait)
}

func (s *System) scaled(d time.Duration) time.Duration {
	return d / time.Duration(s.cfg.TimeScale)
}
