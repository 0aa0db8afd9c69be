// Copyright (c) 2023, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package aecenv defines the contract for turn-based (Agent
// Environment Cycle) multi-agent environments: exactly one agent acts
// per step, observations are queried per-agent, and reward / done /
// info state updates after each action.  Observations and actions are
// exchanged as etensor.Tensor values, with per-agent space descriptors
// from espace declaring their legal shape, dtype and bounds.
package aecenv

import (
	"github.com/ccnlab/obs-wrap/espace"
	"github.com/emer/etable/etensor"
)

// Env is a turn-based multi-agent environment.  Calls are synchronous
// and single-threaded: one Reset / Observe / Step completes before the
// next is issued, and concurrent callers must serialize externally.
type Env interface {
	// Agents returns the ordered set of agent ids, stable for the session
	Agents() []string

	// AgentSelection returns the id of the agent whose turn it is
	AgentSelection() string

	// ObservationSpaces returns the per-agent observation space descriptors
	ObservationSpaces() map[string]espace.Space

	// ActionSpaces returns the per-agent action space descriptors
	ActionSpaces() map[string]espace.Space

	// Reset restores the environment to its initial state.  If observe,
	// it returns the first observation for the selected agent, else nil.
	Reset(observe bool) (etensor.Tensor, error)

	// Observe returns the current observation for given agent
	Observe(agent string) (etensor.Tensor, error)

	// Step applies the selected agent's action and advances the turn,
	// updating the reward / done / info state.  If observe, it returns
	// the acting agent's resulting observation, else nil.
	Step(action etensor.Tensor, observe bool) (etensor.Tensor, error)

	// Rewards returns the per-agent rewards from the last step
	Rewards() map[string]float64

	// Dones returns the per-agent episode-termination flags
	Dones() map[string]bool

	// Infos returns the per-agent auxiliary info
	Infos() map[string]any

	// Render renders the environment in given mode
	Render(mode string)

	// Close releases any resources held by the environment
	Close()
}
