// Copyright (c) 2023, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package wrap implements a configurable transform pipeline around a
// turn-based (AEC) multi-agent environment.  The Wrapper rewrites each
// agent's observations -- color reduction, spatial down-scaling,
// reshaping, range / dtype rescaling, temporal frame stacking -- and
// optionally continuousizes discrete action spaces, while keeping the
// declared space descriptors exactly consistent with the data it
// produces at runtime.  Spaces are rewritten once at construction; the
// identical transform chain runs on every observation thereafter.
package wrap

import (
	"github.com/ccnlab/obs-wrap/aecenv"
	"github.com/ccnlab/obs-wrap/espace"
	"github.com/emer/etable/etensor"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
)

// Wrapper is an aecenv.Env that rewrites the observations, actions and
// declared spaces of the environment it wraps.  Its configuration is
// immutable after New; all per-call state is the frame stacker and the
// random source, both owned exclusively by this instance.  Like the
// environments it wraps, a Wrapper is single-threaded: callers driving
// concurrent play must serialize externally.
type Wrapper struct {
	env             aecenv.Env
	cfg             *Config
	obsSpaces       map[string]espace.Space
	actSpaces       map[string]espace.Space
	origObsSpaces   map[string]espace.Space
	origActSpaces   map[string]espace.Space
	stacker         *FrameStacker
	rnd             rand.Source
	log             *zap.Logger
	spacesRewritten bool
}

var _ aecenv.Env = (*Wrapper)(nil)

// New wraps the given environment with the transforms declared in
// opts.  Options are normalized and validated eagerly: a nil return
// error guarantees every per-agent mapping is complete and every
// transform is legal for its space.  logger may be nil (no logging);
// non-fatal conditions (full grayscale cost, non-Box observation
// spaces) are logged as warnings.
func New(e aecenv.Env, opts *Options, logger *zap.Logger) (*Wrapper, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "obs-wrap"))

	cfg, err := newConfig(e, opts, logger)
	if err != nil {
		return nil, err
	}
	w := &Wrapper{
		env:           e,
		cfg:           cfg,
		origObsSpaces: e.ObservationSpaces(),
		origActSpaces: e.ActionSpaces(),
		rnd:           rand.NewSource(1),
		log:           logger,
	}

	agents := e.Agents()
	if cfg.ContinuousActions {
		w.actSpaces, err = continuousizeSpaces(agents, w.origActSpaces)
		if err != nil {
			return nil, err
		}
	} else {
		w.actSpaces = w.origActSpaces
	}

	if espace.AllBox(w.origObsSpaces) {
		w.obsSpaces = transformSpaces(agents, w.origObsSpaces, cfg)
		w.spacesRewritten = true
	} else {
		// data rewriting still proceeds: the declared spaces are then
		// informational only
		w.log.Warn("not all observation spaces are Box: observation spaces are not modified")
		w.obsSpaces = w.origObsSpaces
	}

	if cfg.FrameStacking > 1 {
		w.stacker = NewFrameStacker(cfg.FrameStacking, agents)
	}
	return w, nil
}

// Seed sets the seed of the random source used for continuous action
// sampling.  The draw sequence is a pure function of call order from
// this point; the default seed is 1.  Set before the first Step for
// reproducible runs.
func (w *Wrapper) Seed(seed uint64) {
	w.rnd.Seed(seed)
}

// Config returns the resolved transform configuration.
func (w *Wrapper) Config() *Config {
	return w.cfg
}

// SpacesRewritten reports whether the declared observation spaces were
// rewritten at construction (false when not all original spaces were
// Box).
func (w *Wrapper) SpacesRewritten() bool {
	return w.spacesRewritten
}

func (w *Wrapper) Agents() []string {
	return w.env.Agents()
}

func (w *Wrapper) AgentSelection() string {
	return w.env.AgentSelection()
}

// ObservationSpaces returns the rewritten per-agent observation
// spaces.  For every agent, a transformed observation matches this
// descriptor's shape and dtype exactly.
func (w *Wrapper) ObservationSpaces() map[string]espace.Space {
	return w.obsSpaces
}

// ActionSpaces returns the per-agent action spaces, continuousized
// when continuous actions are enabled.
func (w *Wrapper) ActionSpaces() map[string]espace.Space {
	return w.actSpaces
}

// OrigObservationSpaces returns the environment's unmodified
// observation spaces.
func (w *Wrapper) OrigObservationSpaces() map[string]espace.Space {
	return w.origObsSpaces
}

// OrigActionSpaces returns the environment's unmodified action spaces.
func (w *Wrapper) OrigActionSpaces() map[string]espace.Space {
	return w.origActSpaces
}

func (w *Wrapper) Rewards() map[string]float64 { return w.env.Rewards() }
func (w *Wrapper) Dones() map[string]bool      { return w.env.Dones() }
func (w *Wrapper) Infos() map[string]any       { return w.env.Infos() }

// Reset resets the wrapped environment.  If observe, the selected
// agent's first observation is returned transformed, and its frame
// buffer is re-established from it.
func (w *Wrapper) Reset(observe bool) (etensor.Tensor, error) {
	if !observe {
		_, err := w.env.Reset(false)
		return nil, err
	}
	obs, err := w.env.Reset(true)
	if err != nil {
		return nil, err
	}
	return w.transformObs(w.env.AgentSelection(), obs, true)
}

// Observe returns given agent's current observation, transformed.
func (w *Wrapper) Observe(agent string) (etensor.Tensor, error) {
	obs, err := w.env.Observe(agent)
	if err != nil {
		return nil, err
	}
	return w.transformObs(agent, obs, false)
}

// Step reverse-maps the caller's action for the selected agent,
// forwards it to the wrapped environment, and returns the acting
// agent's resulting observation transformed (nil when observe is
// false).  Environment errors propagate unchanged.
func (w *Wrapper) Step(action etensor.Tensor, observe bool) (etensor.Tensor, error) {
	agent := w.env.AgentSelection()
	act, err := w.modifyAction(agent, action)
	if err != nil {
		return nil, err
	}
	obs, err := w.env.Step(act, observe)
	if err != nil {
		return nil, err
	}
	if !observe {
		return nil, nil
	}
	return w.transformObs(agent, obs, false)
}

// Render renders the wrapped environment.
func (w *Wrapper) Render(mode string) {
	w.env.Render(mode)
}

// Close closes the wrapped environment.
func (w *Wrapper) Close() {
	w.env.Close()
}
