// Copyright (c) 2023, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wrap

import (
	"testing"

	"github.com/ccnlab/obs-wrap/gridenv"
	"github.com/emer/etable/etensor"
	"github.com/emer/etable/minmax"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEnv(t *testing.T, nagents int) *gridenv.Env {
	t.Helper()
	ev := &gridenv.Env{}
	ev.Defaults()
	ev.Config(nagents)
	ev.Init(0)
	return ev
}

func mustConfig(t *testing.T, nagents int, opts *Options) *Config {
	t.Helper()
	cfg, err := newConfig(newTestEnv(t, nagents), opts, zap.NewNop())
	require.NoError(t, err)
	return cfg
}

func configErr(t *testing.T, nagents int, opts *Options) *ConfigError {
	t.Helper()
	_, err := newConfig(newTestEnv(t, nagents), opts, zap.NewNop())
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	return cerr
}

func TestDefaults(t *testing.T) {
	opts := &Options{}
	opts.Defaults()
	cfg := mustConfig(t, 2, opts)
	assert.Nil(t, cfg.ColorReduction)
	assert.Nil(t, cfg.DownScale)
	assert.Equal(t, NoReshape, cfg.Reshape)
	assert.Nil(t, cfg.RangeScale)
	assert.Nil(t, cfg.NewDtype)
	assert.False(t, cfg.ContinuousActions)
	assert.Equal(t, 1, cfg.FrameStacking)
}

func TestNilOptions(t *testing.T) {
	cfg, err := newConfig(newTestEnv(t, 2), nil, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.FrameStacking)
}

func TestUniformColorReductionExpands(t *testing.T) {
	cfg := mustConfig(t, 3, &Options{ColorReduction: "full", FrameStacking: 1})
	require.Len(t, cfg.ColorReduction, 3)
	for _, ag := range []string{"agent_0", "agent_1", "agent_2"} {
		assert.Equal(t, FullGrayscale, cfg.ColorReduction[ag])
	}
}

func TestPerAgentColorReduction(t *testing.T) {
	cfg := mustConfig(t, 2, &Options{
		ColorReduction: map[string]string{"agent_0": "R", "agent_1": "full"},
		FrameStacking:  1,
	})
	assert.Equal(t, RedOnly, cfg.ColorReduction["agent_0"])
	assert.Equal(t, FullGrayscale, cfg.ColorReduction["agent_1"])
}

func TestColorReductionMissingAgent(t *testing.T) {
	cerr := configErr(t, 2, &Options{
		ColorReduction: map[string]string{"agent_0": "R"},
		FrameStacking:  1,
	})
	assert.Equal(t, "color_reduction", cerr.Option)
	assert.Equal(t, "agent_1", cerr.Agent)
}

func TestColorReductionUnknownMode(t *testing.T) {
	cerr := configErr(t, 2, &Options{ColorReduction: "sepia", FrameStacking: 1})
	assert.Equal(t, "color_reduction", cerr.Option)
}

func TestColorReductionWrongType(t *testing.T) {
	cerr := configErr(t, 2, &Options{ColorReduction: 3.5, FrameStacking: 1})
	assert.Equal(t, "color_reduction", cerr.Option)
}

func TestDownScaleUniform(t *testing.T) {
	cfg := mustConfig(t, 2, &Options{DownScale: []int{2, 2, 1}, FrameStacking: 1})
	assert.Equal(t, []int{2, 2, 1}, cfg.DownScale["agent_0"])
	assert.Equal(t, []int{2, 2, 1}, cfg.DownScale["agent_1"])
}

func TestDownScaleArity(t *testing.T) {
	// factors are declared against the original observation shape
	cerr := configErr(t, 2, &Options{DownScale: []int{2, 2}, FrameStacking: 1})
	assert.Equal(t, "down_scale", cerr.Option)
}

func TestDownScaleNonPositive(t *testing.T) {
	cerr := configErr(t, 2, &Options{DownScale: []int{0, 1, 1}, FrameStacking: 1})
	assert.Equal(t, "down_scale", cerr.Option)
}

func TestReshapeModes(t *testing.T) {
	assert.Equal(t, Flatten, mustConfig(t, 1, &Options{Reshape: "flatten", FrameStacking: 1}).Reshape)
	assert.Equal(t, Expand, mustConfig(t, 1, &Options{Reshape: Expand, FrameStacking: 1}).Reshape)
	cerr := configErr(t, 1, &Options{Reshape: "fold", FrameStacking: 1})
	assert.Equal(t, "reshape", cerr.Option)
}

func TestRangeScale(t *testing.T) {
	cfg := mustConfig(t, 2, &Options{RangeScale: [2]float64{0, 255}, FrameStacking: 1})
	assert.Equal(t, minmax.F64{Min: 0, Max: 255}, cfg.RangeScale["agent_0"])

	cerr := configErr(t, 2, &Options{RangeScale: [2]float64{5, 1}, FrameStacking: 1})
	assert.Equal(t, "range_scale", cerr.Option)
}

func TestNewDtype(t *testing.T) {
	cfg := mustConfig(t, 2, &Options{NewDtype: "float32", FrameStacking: 1})
	assert.Equal(t, etensor.FLOAT32, cfg.NewDtype["agent_0"])
	assert.Equal(t, etensor.FLOAT32, cfg.NewDtype["agent_1"])

	cerr := configErr(t, 2, &Options{NewDtype: "complex128", FrameStacking: 1})
	assert.Equal(t, "new_dtype", cerr.Option)

	cerr = configErr(t, 2, &Options{NewDtype: etensor.STRING, FrameStacking: 1})
	assert.Equal(t, "new_dtype", cerr.Option)
}

func TestFrameStackingPositive(t *testing.T) {
	cerr := configErr(t, 1, &Options{FrameStacking: 0})
	assert.Equal(t, "frame_stacking", cerr.Option)
	cerr = configErr(t, 1, &Options{FrameStacking: -2})
	assert.Equal(t, "frame_stacking", cerr.Option)
}

func TestReadOptionsYAML(t *testing.T) {
	doc := []byte(`
color_reduction:
  agent_0: R
  agent_1: full
down_scale: [2, 2, 1]
reshape: flatten
range_scale: [0, 255]
new_dtype: float32
continuous_actions: true
frame_stacking: 2
`)
	opts, err := ReadOptions(doc)
	require.NoError(t, err)

	cfg := mustConfig(t, 2, opts)
	assert.Equal(t, RedOnly, cfg.ColorReduction["agent_0"])
	assert.Equal(t, FullGrayscale, cfg.ColorReduction["agent_1"])
	assert.Equal(t, []int{2, 2, 1}, cfg.DownScale["agent_0"])
	assert.Equal(t, Flatten, cfg.Reshape)
	assert.Equal(t, minmax.F64{Min: 0, Max: 255}, cfg.RangeScale["agent_1"])
	assert.Equal(t, etensor.FLOAT32, cfg.NewDtype["agent_0"])
	assert.True(t, cfg.ContinuousActions)
	assert.Equal(t, 2, cfg.FrameStacking)
}

func TestReadOptionsPerAgentYAML(t *testing.T) {
	doc := []byte(`
down_scale:
  agent_0: [2, 2, 1]
  agent_1: [1, 1, 3]
range_scale:
  agent_0: [0, 255]
  agent_1: [0, 1]
`)
	opts, err := ReadOptions(doc)
	require.NoError(t, err)
	assert.Equal(t, 1, opts.FrameStacking)

	cfg := mustConfig(t, 2, opts)
	assert.Equal(t, []int{1, 1, 3}, cfg.DownScale["agent_1"])
	assert.Equal(t, minmax.F64{Min: 0, Max: 1}, cfg.RangeScale["agent_1"])
}

func TestReadOptionsBadYAML(t *testing.T) {
	_, err := ReadOptions([]byte("frame_stacking: [not, an, int]"))
	assert.Error(t, err)
}

func TestColorReductionFromString(t *testing.T) {
	for s, want := range map[string]ColorReduction{
		"none": NoColorReduction, "R": RedOnly, "G": GreenOnly,
		"B": BlueOnly, "full": FullGrayscale, "FullGrayscale": FullGrayscale,
	} {
		cr, err := ColorReductionFromString(s)
		require.NoError(t, err)
		assert.Equal(t, want, cr)
	}
	_, err := ColorReductionFromString("Y")
	assert.Error(t, err)
}
