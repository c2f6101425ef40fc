// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package system

import "time"

// Mode is a system's run-rate/lifecycle state. It is written only by the
// flight manager and read by the owning system once per cycle; a value one
// cycle stale is acceptable, so a plain atomic field carries it.
type Mode int32

const (
	// ModeTerminate is absorbing: the system finishes its current cycle
	// and exits permanently.
	ModeTerminate Mode = iota
	// ModeDisabled idles the system without touching resources.
	ModeDisabled
	// ModeSlow quadruples the processing delay.
	ModeSlow
	// ModeStandard runs the recipe at its nominal rate.
	ModeStandard
	// ModeFast quarters the processing delay.
	ModeFast
)

func (m Mode) String() string {
	switch m {
	case ModeTerminate:
		return "Terminate"
	case ModeDisabled:
		return "Disabled"
	case ModeSlow:
		return "Slow"
	case ModeStandard:
		return "Standard"
	case ModeFast:
		return "Fast"
	}
	return "Unknown"
}

// adjust scales a processing delay by the mode's speed factor.
func (m Mode) adjust(d time.Duration) time.Duration {
	switch m {
	case ModeSlow:
		return d * 4
	case ModeFast:
		return d / 4
	}
	return d
}
