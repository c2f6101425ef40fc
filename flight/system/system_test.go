// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package system

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuinspace/flightsim/flight/event"
	"github.com/cuinspace/flightsim/flight/resource"
)

func fastConfig() Config {
	return Config{
		CycleWait:      time.Millisecond,
		RetryWait:      time.Millisecond,
		LowMultiplier:  2,
		HighMultiplier: 5,
		TimeScale:      1,
	}
}

func drainKinds(q *event.Queue) []event.Kind {
	var kinds []event.Kind
	for {
		e, ok := q.Pop()
		if !ok {
			return kinds
		}
		kinds = append(kinds, e.Kind)
	}
}

func TestModeAdjust(t *testing.T) {
	base := 500 * time.Millisecond
	assert.Equal(t, 2*time.Second, ModeSlow.adjust(base))
	assert.Equal(t, 125*time.Millisecond, ModeFast.adjust(base))
	assert.Equal(t, base, ModeStandard.adjust(base))
}

func TestTerminateIsAbsorbing(t *testing.T) {
	q := event.NewQueue()
	sys := New("Propulsion", Recipe{}, q, fastConfig(), nil)

	sys.SetMode(ModeTerminate)
	sys.SetMode(ModeFast)
	sys.SetMode(ModeStandard)

	assert.Equal(t, ModeTerminate, sys.Mode())
}

func TestPropulsionSingleCycle(t *testing.T) {
	fuel := resource.New("Fuel", 1000, 1000)
	distance := resource.New("Distance", 0, 1000)
	q := event.NewQueue()

	sys := New("Propulsion", Recipe{
		Input:          fuel,
		Output:         distance,
		InputAmount:    5,
		OutputAmount:   25,
		ProcessingTime: 10 * time.Millisecond,
	}, q, fastConfig(), nil)

	sys.RunCycle()

	assert.Equal(t, 995, fuel.Level())
	assert.Equal(t, 25, distance.Level())

	kinds := drainKinds(q)
	assert.Contains(t, kinds, event.KindProduced)
	assert.NotContains(t, kinds, event.KindCapacity)
	assert.NotContains(t, kinds, event.KindInsufficient)
}

func TestThresholdReports(t *testing.T) {
	cases := []struct {
		name   string
		stock  int
		expect event.Kind
	}{
		{"low stock", 10, event.KindLow},   // 10 <= 5*2
		{"high stock", 40, event.KindHigh}, // 40 > 5*5
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			oxygen := resource.New("Oxygen", tc.stock, 50)
			q := event.NewQueue()
			sys := New("Crew", Recipe{Input: oxygen, InputAmount: 5, ProcessingTime: time.Millisecond}, q, fastConfig(), nil)

			sys.reportThresholds()

			kinds := drainKinds(q)
			require.Len(t, kinds, 1)
			assert.Equal(t, tc.expect, kinds[0])
		})
	}

	t.Run("healthy stock stays quiet", func(t *testing.T) {
		oxygen := resource.New("Oxygen", 20, 50) // 10 < 20 <= 25
		q := event.NewQueue()
		sys := New("Crew", Recipe{Input: oxygen, InputAmount: 5, ProcessingTime: time.Millisecond}, q, fastConfig(), nil)

		sys.reportThresholds()

		assert.Empty(t, drainKinds(q))
	})
}

func TestCrewDepletesOxygenThenStarves(t *testing.T) {
	oxygen := resource.New("Oxygen", 20, 50)
	q := event.NewQueue()
	sys := New("Crew", Recipe{
		Input:          oxygen,
		InputAmount:    5,
		ProcessingTime: time.Millisecond,
	}, q, fastConfig(), nil)

	for i := 0; i < 4; i++ {
		sys.RunCycle()
	}
	assert.Equal(t, 0, oxygen.Level())
	drainKinds(q)

	// The fifth cycle cannot satisfy its input and must keep reporting
	// Insufficient until it is externally terminated.
	done := make(chan struct{})
	go func() {
		sys.RunCycle()
		close(done)
	}()

	require.Eventually(t, func() bool {
		e, ok := q.Pop()
		return ok && e.Kind == event.KindInsufficient
	}, time.Second, time.Millisecond)

	sys.SetMode(ModeTerminate)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("starved cycle did not exit after Terminate")
	}
	assert.Equal(t, 0, oxygen.Level())
}

func TestCapacityBlockedOutputRetries(t *testing.T) {
	fuel := resource.New("Fuel", 100, 100)
	distance := resource.New("Distance", 995, 1000)
	q := event.NewQueue()
	sys := New("Propulsion", Recipe{
		Input:          fuel,
		Output:         distance,
		InputAmount:    5,
		OutputAmount:   25,
		ProcessingTime: time.Millisecond,
	}, q, fastConfig(), nil)

	done := make(chan struct{})
	go func() {
		sys.RunCycle()
		close(done)
	}()

	require.Eventually(t, func() bool {
		e, ok := q.Pop()
		return ok && e.Kind == event.KindCapacity
	}, time.Second, time.Millisecond)
	assert.Equal(t, 1000, distance.Level())

	sys.SetMode(ModeTerminate)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("capacity-blocked cycle did not exit after Terminate")
	}
}

func TestDisabledSystemIdles(t *testing.T) {
	oxygen := resource.New("Oxygen", 20, 50)
	q := event.NewQueue()
	sys := New("Crew", Recipe{Input: oxygen, InputAmount: 5, ProcessingTime: time.Millisecond}, q, fastConfig(), nil)
	sys.SetMode(ModeDisabled)

	done := make(chan struct{})
	go func() {
		sys.Run()
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 20, oxygen.Level())
	assert.Equal(t, 0, q.Len())

	sys.SetMode(ModeTerminate)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("disabled system did not exit after Terminate")
	}
}

func TestPureProducerNeedsNoInput(t *testing.T) {
	tank := resource.New("Water", 0, 100)
	q := event.NewQueue()
	sys := New("Recycler", Recipe{
		Output:         tank,
		OutputAmount:   10,
		ProcessingTime: time.Millisecond,
	}, q, fastConfig(), nil)

	sys.RunCycle()

	assert.Equal(t, 10, tank.Level())
	kinds := drainKinds(q)
	assert.Equal(t, []event.Kind{event.KindProduced}, kinds)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, DefaultConfig(), cfg)

	cfg = Config{TimeScale: 10}.withDefaults()
	assert.Equal(t, 10, cfg.TimeScale)
	assert.Equal(t, 500*time.Millisecond, cfg.CycleWait)
}
