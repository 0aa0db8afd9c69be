// Copyright (c) 2023, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wrap

import (
	"fmt"
	"os"

	"github.com/ccnlab/obs-wrap/aecenv"
	"github.com/ccnlab/obs-wrap/espace"
	"github.com/emer/etable/etensor"
	"github.com/emer/etable/minmax"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Options are the raw constructor arguments for the Wrapper.  Each
// per-agent option accepts either one uniform value applying to all
// agents, or a map keyed by agent id -- hence the any-typed fields,
// which New normalizes into an explicit per-agent Config or fails with
// a ConfigError.  Enum- and dtype-valued options also accept their
// string names, so Options round-trips through YAML.
type Options struct {
	ColorReduction    any  `yaml:"color_reduction,omitempty" desc:"collapse the channel axis of 3-D image observations: none, R, G, B or full (luminance grayscale) -- string, ColorReduction, or map of agent id to either"`
	DownScale         any  `yaml:"down_scale,omitempty" desc:"integer block-mean factor per observation axis -- []int or map of agent id to []int"`
	Reshape           any  `yaml:"reshape,omitempty" desc:"axis rewrite applied to all agents: none, expand (append unit axis) or flatten -- string or ReshapeMode"`
	RangeScale        any  `yaml:"range_scale,omitempty" desc:"scale observation values by (x-min)/(max-min) -- [2]float64, minmax.F64, or map of agent id to either"`
	NewDtype          any  `yaml:"new_dtype,omitempty" desc:"output element type for observations: uint8, int16, int32, int64, float32 or float64 -- string, etensor.Type, or map of agent id to either"`
	ContinuousActions bool `yaml:"continuous_actions" desc:"rewrite discrete and multi-discrete action spaces as continuous logit vectors, reverse-mapped by softmax sampling"`
	FrameStacking     int  `yaml:"frame_stacking" desc:"number of transformed observation frames to stack -- 1 disables stacking"`
}

// Defaults sets the default option values (no transforms, stacking
// depth 1).
func (op *Options) Defaults() {
	op.FrameStacking = 1
}

// ReadOptions parses Options from YAML bytes, on top of defaults.
func ReadOptions(b []byte) (*Options, error) {
	op := &Options{}
	op.Defaults()
	if err := yaml.Unmarshal(b, op); err != nil {
		return nil, fmt.Errorf("wrap: options yaml: %w", err)
	}
	return op, nil
}

// OpenOptions reads Options from a YAML file.
func OpenOptions(fname string) (*Options, error) {
	b, err := os.ReadFile(fname)
	if err != nil {
		return nil, err
	}
	return ReadOptions(b)
}

// Config is the fully resolved, immutable-after-construction transform
// configuration: every enabled option has an explicit entry for every
// agent.  A nil map means the option is disabled.
type Config struct {
	ColorReduction    map[string]ColorReduction `desc:"per-agent color reduction mode"`
	DownScale         map[string][]int          `desc:"per-agent block-mean factor per axis"`
	Reshape           ReshapeMode               `desc:"axis rewrite, uniform across agents"`
	RangeScale        map[string]minmax.F64     `desc:"per-agent value scaling bounds"`
	NewDtype          map[string]etensor.Type   `desc:"per-agent output element type"`
	ContinuousActions bool                      `desc:"continuousize discrete action spaces"`
	FrameStacking     int                       `desc:"stack depth, 1 = off"`
}

// newConfig normalizes and validates raw Options against the
// environment's agent set and observation spaces.
func newConfig(e aecenv.Env, opts *Options, log *zap.Logger) (*Config, error) {
	if opts == nil {
		opts = &Options{}
		opts.Defaults()
	}
	agents := e.Agents()
	obsSpaces := e.ObservationSpaces()
	cfg := &Config{
		ContinuousActions: opts.ContinuousActions,
		FrameStacking:     opts.FrameStacking,
	}

	var err error
	if cfg.ColorReduction, err = normColorReduction(agents, obsSpaces, opts.ColorReduction, log); err != nil {
		return nil, err
	}
	if cfg.DownScale, err = normDownScale(agents, obsSpaces, opts.DownScale); err != nil {
		return nil, err
	}
	if cfg.Reshape, err = normReshape(opts.Reshape); err != nil {
		return nil, err
	}
	if cfg.RangeScale, err = normRangeScale(agents, opts.RangeScale); err != nil {
		return nil, err
	}
	if cfg.NewDtype, err = normNewDtype(agents, opts.NewDtype); err != nil {
		return nil, err
	}
	if cfg.FrameStacking < 1 {
		return nil, &ConfigError{Option: "frame_stacking",
			Msg: fmt.Sprintf("depth must be a positive integer, is %d", cfg.FrameStacking)}
	}
	return cfg, nil
}

// normColorReduction expands a uniform mode or per-agent map, checking
// that every reduced observation space is a 3-D Box.
func normColorReduction(agents []string, obsSpaces map[string]espace.Space, raw any, log *zap.Logger) (map[string]ColorReduction, error) {
	if raw == nil {
		return nil, nil
	}
	crs := make(map[string]ColorReduction, len(agents))
	switch v := raw.(type) {
	case ColorReduction:
		for _, ag := range agents {
			crs[ag] = v
		}
	case string:
		cr, err := ColorReductionFromString(v)
		if err != nil {
			return nil, &ConfigError{Option: "color_reduction", Msg: err.Error()}
		}
		for _, ag := range agents {
			crs[ag] = cr
		}
	case map[string]ColorReduction:
		for _, ag := range agents {
			cr, ok := v[ag]
			if !ok {
				return nil, &ConfigError{Option: "color_reduction", Agent: ag, Msg: "missing from per-agent map"}
			}
			crs[ag] = cr
		}
	case map[string]string:
		for _, ag := range agents {
			s, ok := v[ag]
			if !ok {
				return nil, &ConfigError{Option: "color_reduction", Agent: ag, Msg: "missing from per-agent map"}
			}
			cr, err := ColorReductionFromString(s)
			if err != nil {
				return nil, &ConfigError{Option: "color_reduction", Agent: ag, Msg: err.Error()}
			}
			crs[ag] = cr
		}
	case map[string]any:
		for _, ag := range agents {
			rv, ok := v[ag]
			if !ok {
				return nil, &ConfigError{Option: "color_reduction", Agent: ag, Msg: "missing from per-agent map"}
			}
			s, ok := rv.(string)
			if !ok {
				return nil, &ConfigError{Option: "color_reduction", Agent: ag,
					Msg: fmt.Sprintf("must be a mode name string, is %T", rv)}
			}
			cr, err := ColorReductionFromString(s)
			if err != nil {
				return nil, &ConfigError{Option: "color_reduction", Agent: ag, Msg: err.Error()}
			}
			crs[ag] = cr
		}
	default:
		return nil, &ConfigError{Option: "color_reduction",
			Msg: fmt.Sprintf("must be a mode or a per-agent map, is %T", raw)}
	}
	for _, ag := range agents {
		if crs[ag] == NoColorReduction {
			continue
		}
		bx, ok := obsSpaces[ag].(*espace.Box)
		if !ok {
			return nil, &ConfigError{Option: "color_reduction", Agent: ag,
				Msg: "observation space is not a Box"}
		}
		if nd := len(bx.Shape()); nd != 3 {
			return nil, &ConfigError{Option: "color_reduction", Agent: ag,
				Msg: fmt.Sprintf("observation space must be 3-D (spatial x spatial x channel), is %d-D", nd)}
		}
		if crs[ag] == FullGrayscale {
			log.Warn("full grayscale color reduction can be slow -- a single channel (R, G, B) is faster",
				zap.String("agent", ag))
		}
	}
	return crs, nil
}

// normDownScale expands uniform factors or a per-agent map, checking
// factors are positive and match the observation dimensionality.
func normDownScale(agents []string, obsSpaces map[string]espace.Space, raw any) (map[string][]int, error) {
	if raw == nil {
		return nil, nil
	}
	dss := make(map[string][]int, len(agents))
	switch v := raw.(type) {
	case []int:
		for _, ag := range agents {
			dss[ag] = v
		}
	case []any:
		fac, err := intSlice(v)
		if err != nil {
			return nil, &ConfigError{Option: "down_scale", Msg: err.Error()}
		}
		for _, ag := range agents {
			dss[ag] = fac
		}
	case map[string][]int:
		for _, ag := range agents {
			fac, ok := v[ag]
			if !ok {
				return nil, &ConfigError{Option: "down_scale", Agent: ag, Msg: "missing from per-agent map"}
			}
			dss[ag] = fac
		}
	case map[string]any:
		for _, ag := range agents {
			rv, ok := v[ag]
			if !ok {
				return nil, &ConfigError{Option: "down_scale", Agent: ag, Msg: "missing from per-agent map"}
			}
			rs, ok := rv.([]any)
			if !ok {
				return nil, &ConfigError{Option: "down_scale", Agent: ag,
					Msg: fmt.Sprintf("must be a factor tuple, is %T", rv)}
			}
			fac, err := intSlice(rs)
			if err != nil {
				return nil, &ConfigError{Option: "down_scale", Agent: ag, Msg: err.Error()}
			}
			dss[ag] = fac
		}
	default:
		return nil, &ConfigError{Option: "down_scale",
			Msg: fmt.Sprintf("must be a factor tuple or a per-agent map, is %T", raw)}
	}
	for _, ag := range agents {
		for _, f := range dss[ag] {
			if f < 1 {
				return nil, &ConfigError{Option: "down_scale", Agent: ag,
					Msg: fmt.Sprintf("factors must be positive integers, got %v", dss[ag])}
			}
		}
		if bx, ok := obsSpaces[ag].(*espace.Box); ok {
			if len(dss[ag]) != len(bx.Shape()) {
				return nil, &ConfigError{Option: "down_scale", Agent: ag,
					Msg: fmt.Sprintf("need one factor per observation axis: %d factors for %d axes",
						len(dss[ag]), len(bx.Shape()))}
			}
		}
	}
	return dss, nil
}

// normReshape parses the uniform reshape mode.
func normReshape(raw any) (ReshapeMode, error) {
	switch v := raw.(type) {
	case nil:
		return NoReshape, nil
	case ReshapeMode:
		if v < NoReshape || v >= ReshapeModeN {
			return NoReshape, &ConfigError{Option: "reshape", Msg: fmt.Sprintf("invalid mode %d", v)}
		}
		return v, nil
	case string:
		rm, err := ReshapeModeFromString(v)
		if err != nil {
			return NoReshape, &ConfigError{Option: "reshape", Msg: err.Error()}
		}
		return rm, nil
	}
	return NoReshape, &ConfigError{Option: "reshape",
		Msg: fmt.Sprintf("must be a mode name, is %T", raw)}
}

// normRangeScale expands uniform (min, max) bounds or a per-agent map,
// checking min <= max.
func normRangeScale(agents []string, raw any) (map[string]minmax.F64, error) {
	if raw == nil {
		return nil, nil
	}
	rss := make(map[string]minmax.F64, len(agents))
	switch v := raw.(type) {
	case minmax.F64:
		for _, ag := range agents {
			rss[ag] = v
		}
	case [2]float64:
		for _, ag := range agents {
			rss[ag] = minmax.F64{Min: v[0], Max: v[1]}
		}
	case []any:
		mm, err := boundsPair(v)
		if err != nil {
			return nil, &ConfigError{Option: "range_scale", Msg: err.Error()}
		}
		for _, ag := range agents {
			rss[ag] = mm
		}
	case map[string]minmax.F64:
		for _, ag := range agents {
			mm, ok := v[ag]
			if !ok {
				return nil, &ConfigError{Option: "range_scale", Agent: ag, Msg: "missing from per-agent map"}
			}
			rss[ag] = mm
		}
	case map[string]any:
		for _, ag := range agents {
			rv, ok := v[ag]
			if !ok {
				return nil, &ConfigError{Option: "range_scale", Agent: ag, Msg: "missing from per-agent map"}
			}
			rs, ok := rv.([]any)
			if !ok {
				return nil, &ConfigError{Option: "range_scale", Agent: ag,
					Msg: fmt.Sprintf("must be a (min, max) pair, is %T", rv)}
			}
			mm, err := boundsPair(rs)
			if err != nil {
				return nil, &ConfigError{Option: "range_scale", Agent: ag, Msg: err.Error()}
			}
			rss[ag] = mm
		}
	default:
		return nil, &ConfigError{Option: "range_scale",
			Msg: fmt.Sprintf("must be a (min, max) pair or a per-agent map, is %T", raw)}
	}
	for _, ag := range agents {
		if rss[ag].Min > rss[ag].Max {
			return nil, &ConfigError{Option: "range_scale", Agent: ag,
				Msg: fmt.Sprintf("min %g is greater than max %g", rss[ag].Min, rss[ag].Max)}
		}
	}
	return rss, nil
}

// normNewDtype expands a uniform output dtype or a per-agent map.
func normNewDtype(agents []string, raw any) (map[string]etensor.Type, error) {
	if raw == nil {
		return nil, nil
	}
	dts := make(map[string]etensor.Type, len(agents))
	switch v := raw.(type) {
	case etensor.Type:
		if err := checkDtype(v); err != nil {
			return nil, &ConfigError{Option: "new_dtype", Msg: err.Error()}
		}
		for _, ag := range agents {
			dts[ag] = v
		}
	case string:
		dt, err := dtypeFromString(v)
		if err != nil {
			return nil, &ConfigError{Option: "new_dtype", Msg: err.Error()}
		}
		for _, ag := range agents {
			dts[ag] = dt
		}
	case map[string]etensor.Type:
		for _, ag := range agents {
			dt, ok := v[ag]
			if !ok {
				return nil, &ConfigError{Option: "new_dtype", Agent: ag, Msg: "missing from per-agent map"}
			}
			if err := checkDtype(dt); err != nil {
				return nil, &ConfigError{Option: "new_dtype", Agent: ag, Msg: err.Error()}
			}
			dts[ag] = dt
		}
	case map[string]any:
		for _, ag := range agents {
			rv, ok := v[ag]
			if !ok {
				return nil, &ConfigError{Option: "new_dtype", Agent: ag, Msg: "missing from per-agent map"}
			}
			s, ok := rv.(string)
			if !ok {
				return nil, &ConfigError{Option: "new_dtype", Agent: ag,
					Msg: fmt.Sprintf("must be a dtype name string, is %T", rv)}
			}
			dt, err := dtypeFromString(s)
			if err != nil {
				return nil, &ConfigError{Option: "new_dtype", Agent: ag, Msg: err.Error()}
			}
			dts[ag] = dt
		}
	default:
		return nil, &ConfigError{Option: "new_dtype",
			Msg: fmt.Sprintf("must be a dtype or a per-agent map, is %T", raw)}
	}
	return dts, nil
}

// supported output dtypes
var dtypeNames = map[string]etensor.Type{
	"uint8":   etensor.UINT8,
	"int16":   etensor.INT16,
	"int32":   etensor.INT32,
	"int64":   etensor.INT64,
	"float32": etensor.FLOAT32,
	"float64": etensor.FLOAT64,
}

func dtypeFromString(s string) (etensor.Type, error) {
	if dt, ok := dtypeNames[s]; ok {
		return dt, nil
	}
	return etensor.FLOAT64, fmt.Errorf("unknown or unsupported dtype %q", s)
}

func checkDtype(dt etensor.Type) error {
	for _, v := range dtypeNames {
		if v == dt {
			return nil
		}
	}
	return fmt.Errorf("unsupported dtype %v", dt)
}

// intSlice converts a decoded YAML sequence to []int.
func intSlice(vs []any) ([]int, error) {
	is := make([]int, len(vs))
	for i, v := range vs {
		n, ok := v.(int)
		if !ok {
			return nil, fmt.Errorf("element %d must be an integer, is %T", i, v)
		}
		is[i] = n
	}
	return is, nil
}

// boundsPair converts a decoded YAML (min, max) sequence to minmax.F64.
func boundsPair(vs []any) (minmax.F64, error) {
	var mm minmax.F64
	if len(vs) != 2 {
		return mm, fmt.Errorf("must have exactly 2 elements, has %d", len(vs))
	}
	fs := [2]float64{}
	for i, v := range vs {
		switch n := v.(type) {
		case int:
			fs[i] = float64(n)
		case float64:
			fs[i] = n
		default:
			return mm, fmt.Errorf("element %d must be numeric, is %T", i, v)
		}
	}
	mm.Min = fs[0]
	mm.Max = fs[1]
	return mm, nil
}
