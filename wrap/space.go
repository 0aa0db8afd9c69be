// Copyright (c) 2023, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wrap

import (
	"github.com/ccnlab/obs-wrap/espace"
	"github.com/emer/etable/etensor"
)

// transformSpaces computes the declared per-agent observation spaces
// by simulating every enabled transform on the original Box bounds.
// It is a pure function, run once at construction: the originals are
// never mutated or aliased, and the result must equal -- in shape,
// dtype and bounds -- what the observation transform produces from any
// member of the original space.  Callers ensure every space is a Box.
func transformSpaces(agents []string, orig map[string]espace.Space, cfg *Config) map[string]espace.Space {
	out := make(map[string]espace.Space, len(orig))
	for _, ag := range agents {
		out[ag] = transformBox(ag, orig[ag].(*espace.Box), cfg)
	}
	return out
}

// transformBox applies the enabled transform steps, in pipeline order,
// to one agent's Box bounds.
func transformBox(agent string, bx *espace.Box, cfg *Config) *espace.Box {
	low, high := bx.Low, bx.High

	// 1. color reduction: slice or luminance-combine the channel bounds
	if cr := cfg.ColorReduction[agent]; cr != NoColorReduction {
		low = colorReduce(low, cr)
		high = colorReduce(high, cr)
	}

	// 2. down scale: divide each extent by its factor and truncate the
	// flattened bounds to the new element count.  This reinterprets the
	// flat bound values at the new size -- an approximation, not a
	// true per-block bound.
	if fac, ok := cfg.DownScale[agent]; ok {
		sh := low.Shapes()
		osh := make([]int, len(sh))
		for i := range sh {
			osh[i] = sh[i] / fac[i]
		}
		low = reshaped(low, osh, nil)
		high = reshaped(high, osh, nil)
	}

	// 3. reshape: expand or flatten axes
	if cfg.Reshape != NoReshape {
		low = reshapeTensor(low, cfg.Reshape)
		high = reshapeTensor(high, cfg.Reshape)
	}

	// 4. range scale and/or dtype cast.  A dtype-only cast operates on
	// the current bounds, never stale state.
	dt := low.DataType()
	if ndt, ok := cfg.NewDtype[agent]; ok {
		dt = ndt
	}
	if mm, ok := cfg.RangeScale[agent]; ok {
		low = rangeScaleBounds(low, mm.Min, mm.Max, dt)
		high = rangeScaleBounds(high, mm.Min, mm.Max, dt)
	} else if dt != low.DataType() {
		low = castTensor(low, dt)
		high = castTensor(high, dt)
	}

	// 5. frame stack: replicate the bounds across the stacking axis
	if cfg.FrameStacking > 1 {
		low = stackBound(low, cfg.FrameStacking)
		high = stackBound(high, cfg.FrameStacking)
	}

	// when no step ran, still copy so the returned space never aliases
	// the original's bound tensors
	if low == bx.Low {
		low = castTensor(low, low.DataType())
		high = castTensor(high, high.DataType())
	}
	return espace.NewBox(low, high)
}

// stackBound replicates a bound tensor across the stacking axis, using
// the same concatenation layout as the FrameStacker.
func stackBound(bound etensor.Tensor, k int) etensor.Tensor {
	frames := make([]etensor.Tensor, k)
	for i := range frames {
		frames[i] = bound
	}
	return concatFrames(frames)
}
