// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package scenario loads and validates the initial flight configuration:
// the resources on board and the systems bound to their recipes. A
// malformed scenario is fatal at startup, before any goroutine runs.
package scenario

import (
	"errors"
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/benbjohnson/clock"

	"github.com/cuinspace/flightsim/flight/event"
	"github.com/cuinspace/flightsim/flight/resource"
	"github.com/cuinspace/flightsim/flight/system"
)

// ErrInvalidScenario wraps every validation failure.
var ErrInvalidScenario = errors.New("invalid scenario")

// ResourceDef declares one named resource store.
type ResourceDef struct {
	Name     string `toml:"name"`
	Amount   int    `toml:"amount"`
	Capacity int    `toml:"capacity"`
}

// SystemDef declares one system and its recipe. Input and Output name
// resources declared in the same scenario; either may be empty to model a
// pure producer or a pure sink.
type SystemDef struct {
	Name             string `toml:"name"`
	Input            string `toml:"input"`
	Output           string `toml:"output"`
	InputAmount      int    `toml:"input_amount"`
	OutputAmount     int    `toml:"output_amount"`
	ProcessingTimeMs int    `toml:"processing_time_ms"`
}

// Params designates the resources whose state ends the run.
type Params struct {
	LifeCritical    string `toml:"life_critical"`
	MissionDistance string `toml:"mission_distance"`
}

// Scenario is the full initial configuration.
type Scenario struct {
	Params    Params        `toml:"params"`
	Resources []ResourceDef `toml:"resources"`
	Systems   []SystemDef   `toml:"systems"`
}

// Load reads and validates a TOML scenario file.
func Load(path string) (*Scenario, error) {
	var sc Scenario
	if _, err := toml.DecodeFile(path, &sc); err != nil {
		return nil, fmt.Errorf("decoding scenario %s: %w", path, err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// Default returns the built-in flight: a rocket burning fuel for distance,
// with a generator, life support, and a crew breathing the oxygen.
func Default() *Scenario {
	return &Scenario{
		Params: Params{LifeCritical: "Oxygen", MissionDistance: "Distance"},
		Resources: []ResourceDef{
			{Name: "Fuel", Amount: 1000, Capacity: 1000},
			{Name: "Oxygen", Amount: 20, Capacity: 50},
			{Name: "Energy", Amount: 30, Capacity: 50},
			{Name: "Distance", Amount: 0, Capacity: 1000},
		},
		Systems: []SystemDef{
			{Name: "Propulsion", Input: "Fuel", Output: "Distance", InputAmount: 5, OutputAmount: 25, ProcessingTimeMs: 500},
			{Name: "Life Support", Input: "Energy", Output: "Oxygen", InputAmount: 10, OutputAmount: 5, ProcessingTimeMs: 100},
			{Name: "Crew", Input: "Oxygen", InputAmount: 5, ProcessingTimeMs: 200},
			{Name: "Generator", Input: "Fuel", Output: "Energy", InputAmount: 10, OutputAmount: 9, ProcessingTimeMs: 200},
		},
	}
}

// Validate checks the scenario for construction errors: bad quantities,
// duplicate names, dangling resource references.
func (sc *Scenario) Validate() error {
	if len(sc.Resources) == 0 {
		return fmt.Errorf("%w: no resources declared", ErrInvalidScenario)
	}

	resources := make(map[string]bool, len(sc.Resources))
	for _, r := range sc.Resources {
		switch {
		case r.Name == "":
			return fmt.Errorf("%w: resource with empty name", ErrInvalidScenario)
		case resources[r.Name]:
			return fmt.Errorf("%w: duplicate resource %q", ErrInvalidScenario, r.Name)
		case r.Amount < 0:
			return fmt.Errorf("%w: resource %q has negative amount %d", ErrInvalidScenario, r.Name, r.Amount)
		case r.Capacity < r.Amount:
			return fmt.Errorf("%w: resource %q capacity %d below amount %d", ErrInvalidScenario, r.Name, r.Capacity, r.Amount)
		}
		resources[r.Name] = true
	}

	systems := make(map[string]bool, len(sc.Systems))
	for _, s := range sc.Systems {
		switch {
		case s.Name == "":
			return fmt.Errorf("%w: system with empty name", ErrInvalidScenario)
		case systems[s.Name]:
			return fmt.Errorf("%w: duplicate system %q", ErrInvalidScenario, s.Name)
		case s.Input != "" && !resources[s.Input]:
			return fmt.Errorf("%w: system %q references unknown input %q", ErrInvalidScenario, s.Name, s.Input)
		case s.Output != "" && !resources[s.Output]:
			return fmt.Errorf("%w: system %q references unknown output %q", ErrInvalidScenario, s.Name, s.Output)
		case s.Input != "" && s.InputAmount <= 0:
			return fmt.Errorf("%w: system %q input amount must be positive, got %d", ErrInvalidScenario, s.Name, s.InputAmount)
		case s.OutputAmount < 0:
			return fmt.Errorf("%w: system %q has negative output amount %d", ErrInvalidScenario, s.Name, s.OutputAmount)
		case s.ProcessingTimeMs < 0:
			return fmt.Errorf("%w: system %q has negative processing time %d", ErrInvalidScenario, s.Name, s.ProcessingTimeMs)
		}
		systems[s.Name] = true
	}

	if sc.Params.LifeCritical != "" && !resources[sc.Params.LifeCritical] {
		return fmt.Errorf("%w: life-critical resource %q not declared", ErrInvalidScenario, sc.Params.LifeCritical)
	}
	if sc.Params.MissionDistance != "" && !resources[sc.Params.MissionDistance] {
		return fmt.Errorf("%w: mission-distance resource %q not declared", ErrInvalidScenario, sc.Params.MissionDistance)
	}
	return nil
}

// Build instantiates the storage registry and the systems bound to it. All
// systems share the given queue, pacing config, and clock.
func (sc *Scenario) Build(queue *event.Queue, cfg system.Config, clk clock.Clock) (*resource.Storage, []*system.System, error) {
	if err := sc.Validate(); err != nil {
		return nil, nil, err
	}

	storage := resource.NewStorage()
	for _, r := range sc.Resources {
		if err := storage.Add(resource.New(r.Name, r.Amount, r.Capacity)); err != nil {
			return nil, nil, err
		}
	}

	systems := make([]*system.System, 0, len(sc.Systems))
	for _, s := range sc.Systems {
		recipe := system.Recipe{
			InputAmount:    s.InputAmount,
			OutputAmount:   s.OutputAmount,
			ProcessingTime: time.Duration(s.ProcessingTimeMs) * time.Millisecond,
		}
		if s.Input != "" {
			recipe.Input = storage.ByName(s.Input)
		}
		if s.Output != "" {
			recipe.Output = storage.ByName(s.Output)
		}
		systems = append(systems, system.New(s.Name, recipe, queue, cfg, clk))
	}
	return storage, systems, nil
}
