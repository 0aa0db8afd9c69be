// Copyright (c) 2023, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package gridenv provides a small turn-based multi-agent grid world
// implementing aecenv.Env.  Each agent sees a PatchSize x PatchSize x 3
// uint8 color patch of the world centered on its position, and acts by
// moving on the (toroidal) grid.  Even-index agents have a Discrete
// compass action space; odd-index agents have a MultiDiscrete
// direction x stride space, giving the heterogeneous per-agent spaces
// the wrapping pipeline is built for.
package gridenv

import (
	"fmt"

	"github.com/ccnlab/obs-wrap/aecenv"
	"github.com/ccnlab/obs-wrap/espace"
	"github.com/emer/emergent/env"
	"github.com/emer/emergent/evec"
	"github.com/emer/etable/etensor"
	"github.com/goki/ki/kit"
	"github.com/goki/mat32"
	"golang.org/x/exp/rand"
)

// Actions is the list of available compass moves
type Actions int

//go:generate stringer -type=Actions

var KiT_Actions = kit.Enums.AddEnum(ActionsN, false, nil)

// The actions avail
const (
	North Actions = iota
	East
	South
	West
	ActionsN
)

// ActionsCode are code letters for the actions
var ActionsCode = []string{"N", "E", "S", "W"}

// MaxStride is the number of stride choices for multi-discrete agents
// (0, 1 or 2 cells per move).
const MaxStride = 3

// Env is a flat toroidal grid world with colored cells and one camera
// patch observation per agent.
type Env struct {
	Nm        string                  `desc:"name of this environment"`
	Dsc       string                  `desc:"description of this environment"`
	Size      evec.Vec2i              `desc:"size of the 2D world"`
	PatchSize int                     `desc:"width and height of the camera patch each agent observes -- should be odd"`
	NAgents   int                     `desc:"number of agents in the world"`
	World     *etensor.Uint8          `view:"no-inline" desc:"grid world cell colors, Y x X x RGB"`
	AgentIds  []string                `desc:"ordered agent ids, agent_0 .. agent_n-1"`
	Pos       []evec.Vec2i            `inactive:"+" desc:"current grid position per agent"`
	Heading   []mat32.Vec2            `inactive:"+" desc:"unit heading vector per agent, from last move"`
	CurAgent  int                     `inactive:"+" desc:"index of the agent whose turn it is"`
	Tick      env.Ctr                 `view:"inline" desc:"step counter within episode -- Max sets episode length"`
	Episode   env.Ctr                 `view:"inline" desc:"episode counter"`
	Rews      map[string]float64      `desc:"per-agent reward from last step"`
	Dns       map[string]bool         `desc:"per-agent done flags"`
	Infs      map[string]any          `desc:"per-agent auxiliary info"`
	ObsSpaces map[string]espace.Space `view:"-" desc:"per-agent observation spaces"`
	ActSpaces map[string]espace.Space `view:"-" desc:"per-agent action spaces"`
	Rnd       *rand.Rand              `view:"-" desc:"random source for world generation"`
}

var _ aecenv.Env = (*Env)(nil)

// compass unit vectors in Y-up-negative grid coords, indexed by Actions
var actVecs = [ActionsN]evec.Vec2i{
	{X: 0, Y: -1}, // North
	{X: 1, Y: 0},  // East
	{X: 0, Y: 1},  // South
	{X: -1, Y: 0}, // West
}

func (ev *Env) Name() string { return ev.Nm }
func (ev *Env) Desc() string { return ev.Dsc }

// Defaults sets default world parameters.
func (ev *Env) Defaults() {
	ev.Nm = "GridEnv"
	ev.Dsc = "toroidal color grid world with camera-patch observations"
	ev.Size.Set(16, 16)
	ev.PatchSize = 5
	ev.NAgents = 2
	ev.Tick.Max = 100
}

// Config builds the world and the per-agent spaces -- call after
// Defaults and any parameter changes, before Init.
func (ev *Env) Config(nagents int) {
	if nagents > 0 {
		ev.NAgents = nagents
	}
	if ev.Rnd == nil {
		ev.Rnd = rand.New(rand.NewSource(1))
	}
	ev.World = etensor.NewUint8([]int{ev.Size.Y, ev.Size.X, 3}, nil, []string{"Y", "X", "RGB"})
	ev.AgentIds = make([]string, ev.NAgents)
	ev.Pos = make([]evec.Vec2i, ev.NAgents)
	ev.Heading = make([]mat32.Vec2, ev.NAgents)
	ev.ObsSpaces = make(map[string]espace.Space, ev.NAgents)
	ev.ActSpaces = make(map[string]espace.Space, ev.NAgents)
	for i := 0; i < ev.NAgents; i++ {
		ag := fmt.Sprintf("agent_%d", i)
		ev.AgentIds[i] = ag
		ev.ObsSpaces[ag] = espace.NewBoxFill(0, 255, etensor.UINT8,
			[]int{ev.PatchSize, ev.PatchSize, 3}, []string{"Y", "X", "RGB"})
		if i%2 == 0 {
			ev.ActSpaces[ag] = espace.NewDiscrete(int(ActionsN))
		} else {
			ev.ActSpaces[ag] = espace.NewMultiDiscrete([]int{int(ActionsN), MaxStride})
		}
	}
	ev.Rews = make(map[string]float64, ev.NAgents)
	ev.Dns = make(map[string]bool, ev.NAgents)
	ev.Infs = make(map[string]any, ev.NAgents)
}

// Init initializes the world for given run: regenerates cell colors
// and resets all per-agent state.
func (ev *Env) Init(run int) {
	ev.Episode.Scale = env.Run
	ev.Tick.Scale = env.Trial
	ev.Episode.Init()
	ev.Episode.Cur = run
	for i := 0; i < ev.World.Len(); i++ {
		ev.World.Values[i] = uint8(ev.Rnd.Intn(256))
	}
	ev.resetAgents()
}

func (ev *Env) resetAgents() {
	ev.Tick.Init()
	ev.CurAgent = 0
	for i, ag := range ev.AgentIds {
		ev.Pos[i].Set((i*ev.Size.X)/ev.NAgents, (i*ev.Size.Y)/ev.NAgents)
		ev.Heading[i] = headingVec(North)
		ev.Rews[ag] = 0
		ev.Dns[ag] = false
		ev.Infs[ag] = map[string]any{}
	}
}

// headingVec returns the unit heading vector for given compass action.
func headingVec(act Actions) mat32.Vec2 {
	a := mat32.DegToRad(float32(90 * int(act)))
	return mat32.Vec2{X: mat32.Sin(a), Y: -mat32.Cos(a)}
}

func (ev *Env) Agents() []string {
	return ev.AgentIds
}

func (ev *Env) AgentSelection() string {
	return ev.AgentIds[ev.CurAgent]
}

func (ev *Env) ObservationSpaces() map[string]espace.Space {
	return ev.ObsSpaces
}

func (ev *Env) ActionSpaces() map[string]espace.Space {
	return ev.ActSpaces
}

func (ev *Env) Rewards() map[string]float64 { return ev.Rews }
func (ev *Env) Dones() map[string]bool      { return ev.Dns }
func (ev *Env) Infos() map[string]any       { return ev.Infs }

// Reset restores the current world to its episode-start state.
func (ev *Env) Reset(observe bool) (etensor.Tensor, error) {
	ev.resetAgents()
	if !observe {
		return nil, nil
	}
	return ev.Observe(ev.AgentSelection())
}

// agentIdx returns the index for given agent id.
func (ev *Env) agentIdx(agent string) (int, error) {
	for i, ag := range ev.AgentIds {
		if ag == agent {
			return i, nil
		}
	}
	return -1, fmt.Errorf("gridenv: unknown agent id %q", agent)
}

// Observe renders the camera patch centered on given agent's position,
// with toroidal wrap-around at the world edges.
func (ev *Env) Observe(agent string) (etensor.Tensor, error) {
	ai, err := ev.agentIdx(agent)
	if err != nil {
		return nil, err
	}
	obs := etensor.NewUint8([]int{ev.PatchSize, ev.PatchSize, 3}, nil, []string{"Y", "X", "RGB"})
	half := ev.PatchSize / 2
	pos := ev.Pos[ai]
	for py := 0; py < ev.PatchSize; py++ {
		wy := wrap(pos.Y+py-half, ev.Size.Y)
		for px := 0; px < ev.PatchSize; px++ {
			wx := wrap(pos.X+px-half, ev.Size.X)
			for c := 0; c < 3; c++ {
				obs.Set([]int{py, px, c}, ev.World.Value([]int{wy, wx, c}))
			}
		}
	}
	return obs, nil
}

// Step applies the selected agent's action, updates reward / done /
// info, advances the turn, and returns the acting agent's resulting
// observation if observe.
func (ev *Env) Step(action etensor.Tensor, observe bool) (etensor.Tensor, error) {
	ai := ev.CurAgent
	ag := ev.AgentIds[ai]
	var act Actions
	stride := 1
	switch sp := ev.ActSpaces[ag].(type) {
	case *espace.Discrete:
		if !sp.Contains(action) {
			return nil, fmt.Errorf("gridenv: agent %s: action not in Discrete(%d)", ag, sp.N)
		}
		act = Actions(action.FloatVal1D(0))
	case *espace.MultiDiscrete:
		if !sp.Contains(action) {
			return nil, fmt.Errorf("gridenv: agent %s: action not in MultiDiscrete%v", ag, sp.Sizes)
		}
		act = Actions(action.FloatVal1D(0))
		stride = int(action.FloatVal1D(1))
	default:
		return nil, fmt.Errorf("gridenv: agent %s: unsupported action space kind %v", ag, sp.Kind())
	}

	dv := actVecs[act]
	ev.Pos[ai].X = wrap(ev.Pos[ai].X+dv.X*stride, ev.Size.X)
	ev.Pos[ai].Y = wrap(ev.Pos[ai].Y+dv.Y*stride, ev.Size.Y)

	// reward: brightness of landed cell, with a small bonus for
	// continuing in the same heading
	hd := headingVec(act)
	ev.Rews[ag] = ev.cellBrightness(ev.Pos[ai]) + 0.1*float64(hd.Dot(ev.Heading[ai]))
	ev.Heading[ai] = hd
	ev.Infs[ag] = map[string]any{"pos": ev.Pos[ai], "act": act.String()}

	ev.CurAgent = (ev.CurAgent + 1) % ev.NAgents
	if ev.Tick.Incr() {
		ev.Episode.Incr()
		for _, a := range ev.AgentIds {
			ev.Dns[a] = true
		}
	}

	if !observe {
		return nil, nil
	}
	return ev.Observe(ag)
}

// cellBrightness returns the mean RGB value at given cell, in [0, 1].
func (ev *Env) cellBrightness(p evec.Vec2i) float64 {
	sum := 0.0
	for c := 0; c < 3; c++ {
		sum += float64(ev.World.Value([]int{p.Y, p.X, c}))
	}
	return sum / (3 * 255)
}

// Render prints a text summary of agent state -- no graphical modes.
func (ev *Env) Render(mode string) {
	for i, ag := range ev.AgentIds {
		fmt.Printf("%s: pos=(%d,%d) rew=%.3f done=%v\n", ag, ev.Pos[i].X, ev.Pos[i].Y, ev.Rews[ag], ev.Dns[ag])
	}
}

// Close releases resources -- nothing to release here.
func (ev *Env) Close() {
}

// wrap wraps coordinate v into [0, n).
func wrap(v, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}
