// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package scenario

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuinspace/flightsim/flight/event"
	"github.com/cuinspace/flightsim/flight/system"
)

func TestDefaultScenarioIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestDefaultScenarioBuild(t *testing.T) {
	q := event.NewQueue()

	storage, systems, err := Default().Build(q, system.DefaultConfig(), nil)
	require.NoError(t, err)

	require.Len(t, systems, 4)
	assert.Equal(t, 1000, storage.ByName("Fuel").Level())
	assert.Equal(t, 50, storage.ByName("Oxygen").Capacity())

	byName := map[string]*system.System{}
	for _, s := range systems {
		byName[s.Name()] = s
	}

	prop := byName["Propulsion"].Recipe()
	assert.Same(t, storage.ByName("Fuel"), prop.Input)
	assert.Same(t, storage.ByName("Distance"), prop.Output)
	assert.Equal(t, 5, prop.InputAmount)
	assert.Equal(t, 25, prop.OutputAmount)
	assert.Equal(t, 500*time.Millisecond, prop.ProcessingTime)

	crew := byName["Crew"].Recipe()
	assert.Nil(t, crew.Output)
	assert.Equal(t, 0, crew.OutputAmount)
}

func TestLoadFromTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flight.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[params]
life_critical = "Water"
mission_distance = "Orbit"

[[resources]]
name = "Water"
amount = 10
capacity = 40

[[resources]]
name = "Orbit"
amount = 0
capacity = 100

[[systems]]
name = "Pump"
input = "Water"
output = "Orbit"
input_amount = 2
output_amount = 3
processing_time_ms = 50
`), 0o644))

	sc, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "Water", sc.Params.LifeCritical)
	require.Len(t, sc.Resources, 2)
	require.Len(t, sc.Systems, 1)
	assert.Equal(t, SystemDef{
		Name:             "Pump",
		Input:            "Water",
		Output:           "Orbit",
		InputAmount:      2,
		OutputAmount:     3,
		ProcessingTimeMs: 50,
	}, sc.Systems[0])
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestValidationFailures(t *testing.T) {
	base := func() *Scenario { return Default() }

	cases := []struct {
		name   string
		mutate func(*Scenario)
	}{
		{"no resources", func(sc *Scenario) { sc.Resources = nil }},
		{"empty resource name", func(sc *Scenario) { sc.Resources[0].Name = "" }},
		{"duplicate resource", func(sc *Scenario) { sc.Resources[1].Name = sc.Resources[0].Name }},
		{"negative amount", func(sc *Scenario) { sc.Resources[0].Amount = -1 }},
		{"capacity below amount", func(sc *Scenario) { sc.Resources[0].Capacity = sc.Resources[0].Amount - 1 }},
		{"empty system name", func(sc *Scenario) { sc.Systems[0].Name = "" }},
		{"duplicate system", func(sc *Scenario) { sc.Systems[1].Name = sc.Systems[0].Name }},
		{"dangling input", func(sc *Scenario) { sc.Systems[0].Input = "Helium" }},
		{"dangling output", func(sc *Scenario) { sc.Systems[0].Output = "Helium" }},
		{"non-positive input amount", func(sc *Scenario) { sc.Systems[0].InputAmount = 0 }},
		{"negative output amount", func(sc *Scenario) { sc.Systems[0].OutputAmount = -5 }},
		{"negative processing time", func(sc *Scenario) { sc.Systems[0].ProcessingTimeMs = -1 }},
		{"dangling life-critical", func(sc *Scenario) { sc.Params.LifeCritical = "Helium" }},
		{"dangling mission-distance", func(sc *Scenario) { sc.Params.MissionDistance = "Helium" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			sc := base()
			tc.mutate(sc)
			assert.ErrorIs(t, sc.Validate(), ErrInvalidScenario)
		})
	}
}
