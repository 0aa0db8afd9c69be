// Copyright (c) 2023, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wrap

import (
	"math"
	"testing"

	"github.com/ccnlab/obs-wrap/espace"
	"github.com/emer/etable/etensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContinuousizeSpaces(t *testing.T) {
	orig := map[string]espace.Space{
		"d":  espace.NewDiscrete(4),
		"md": espace.NewMultiDiscrete([]int{4, 3}),
		"bx": espace.NewBoxFill(-1, 1, etensor.FLOAT32, []int{2}, nil),
	}
	out, err := continuousizeSpaces([]string{"d", "md", "bx"}, orig)
	require.NoError(t, err)

	d := out["d"].(*espace.Box)
	assert.Equal(t, []int{4}, d.Shape())
	assert.Equal(t, etensor.FLOAT64, d.Dtype())
	assert.True(t, math.IsInf(d.High.FloatVal1D(0), 1))

	md := out["md"].(*espace.Box)
	assert.Equal(t, []int{7}, md.Shape())

	// an existing Box passes through unchanged
	assert.Same(t, orig["bx"], out["bx"])
}

func TestModifyActionPassthrough(t *testing.T) {
	w, _ := newGridWrapper(t, &Options{FrameStacking: 1})
	act := etensor.NewInt64([]int{1}, nil, nil)
	out, err := w.modifyAction("agent_0", act)
	require.NoError(t, err)
	assert.Same(t, act, out.(*etensor.Int64))
}

func TestModifyActionInvalid(t *testing.T) {
	w, _ := newGridWrapper(t, &Options{ContinuousActions: true, FrameStacking: 1})
	bad := etensor.NewFloat64([]int{3}, nil, nil)
	_, err := w.modifyAction("agent_0", bad)
	var aerr *ActionError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, "agent_0", aerr.Agent)

	nan := etensor.NewFloat64([]int{4}, nil, nil)
	nan.Values[2] = math.NaN()
	_, err = w.modifyAction("agent_0", nan)
	assert.ErrorAs(t, err, &aerr)
}

func TestModifyActionPeakedDiscrete(t *testing.T) {
	w, _ := newGridWrapper(t, &Options{ContinuousActions: true, FrameStacking: 1})
	w.Seed(42)
	logits := etensor.NewFloat64([]int{4}, nil, nil)
	logits.Values = []float64{-100, -100, 100, -100}
	for i := 0; i < 100; i++ {
		out, err := w.modifyAction("agent_0", logits)
		require.NoError(t, err)
		require.Equal(t, []int{1}, out.Shapes())
		require.EqualValues(t, 2, out.FloatVal1D(0))
	}
}

func TestModifyActionPeakedMultiDiscrete(t *testing.T) {
	w, _ := newGridWrapper(t, &Options{ContinuousActions: true, FrameStacking: 1})
	w.Seed(42)
	// segments: directions [0:4) peaked at 3, strides [4:7) peaked at 0
	logits := etensor.NewFloat64([]int{7}, nil, nil)
	logits.Values = []float64{-100, -100, -100, 100, 100, -100, -100}
	for i := 0; i < 100; i++ {
		out, err := w.modifyAction("agent_1", logits)
		require.NoError(t, err)
		require.Equal(t, []int{2}, out.Shapes())
		require.EqualValues(t, 3, out.FloatVal1D(0))
		require.EqualValues(t, 0, out.FloatVal1D(1))
	}
}

// Uniform logits converge on a uniform draw distribution over many
// samples.
func TestSoftmaxConvergence(t *testing.T) {
	w, _ := newGridWrapper(t, &Options{ContinuousActions: true, FrameStacking: 1})
	w.Seed(42)

	const n = 10000
	counts := make([]int, 4)
	logits := etensor.NewFloat64([]int{4}, nil, nil)
	for i := 0; i < n; i++ {
		out, err := w.modifyAction("agent_0", logits)
		require.NoError(t, err)
		counts[int(out.FloatVal1D(0))]++
	}
	for a, c := range counts {
		assert.InDelta(t, n/4, c, 0.02*n, "action %d drawn %d times", a, c)
	}
}

// Extreme logits must not overflow the softmax.
func TestSoftmaxStability(t *testing.T) {
	w, _ := newGridWrapper(t, &Options{ContinuousActions: true, FrameStacking: 1})
	w.Seed(42)
	logits := etensor.NewFloat64([]int{4}, nil, nil)
	logits.Values = []float64{1000, 1000, 1000, 1000}
	for i := 0; i < 100; i++ {
		out, err := w.modifyAction("agent_0", logits)
		require.NoError(t, err)
		v := out.FloatVal1D(0)
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, 4.0)
	}
}

func TestSampleSoftmaxProportions(t *testing.T) {
	w, _ := newGridWrapper(t, &Options{ContinuousActions: true, FrameStacking: 1})
	w.Seed(7)

	// logits ln(1) and ln(3): expect roughly 25% / 75%
	vec := []float64{0, math.Log(3)}
	const n = 10000
	ones := 0
	for i := 0; i < n; i++ {
		if w.sampleSoftmax(vec) == 1 {
			ones++
		}
	}
	assert.InDelta(t, 0.75*n, ones, 0.02*n)
}
