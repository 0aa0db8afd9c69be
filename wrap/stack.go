// Copyright (c) 2023, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wrap

import "github.com/emer/etable/etensor"

// FrameStacker maintains one fixed-depth FIFO buffer of transformed
// observation frames per agent, and concatenates the frames in
// chronological order (oldest first) along the stacking axis.  Depth 1
// is identity and callers should bypass the stacker entirely.
// Access is single-threaded, like the rest of the pipeline.
type FrameStacker struct {
	Depth  int                         `desc:"number of frames stacked per agent"`
	Frames map[string][]etensor.Tensor `desc:"per-agent frame buffers, oldest first"`
}

// NewFrameStacker returns a stacker of given depth with an empty
// buffer for each agent.
func NewFrameStacker(depth int, agents []string) *FrameStacker {
	fs := &FrameStacker{Depth: depth}
	fs.Frames = make(map[string][]etensor.Tensor, len(agents))
	for _, ag := range agents {
		fs.Frames[ag] = nil
	}
	return fs
}

// Reset establishes the buffer for given agent from the first
// transformed observation of an episode, replicating it across all
// slots: there is no history before the first frame.
func (fs *FrameStacker) Reset(agent string, obs etensor.Tensor) {
	frames := make([]etensor.Tensor, fs.Depth)
	for i := range frames {
		frames[i] = obs
	}
	fs.Frames[agent] = frames
}

// Push evicts the oldest frame and appends obs as the newest.  A push
// onto an empty buffer (observe before reset) establishes it as Reset
// does.
func (fs *FrameStacker) Push(agent string, obs etensor.Tensor) {
	frames := fs.Frames[agent]
	if len(frames) == 0 {
		fs.Reset(agent, obs)
		return
	}
	copy(frames, frames[1:])
	frames[fs.Depth-1] = obs
}

// Stacked returns the concatenation of given agent's buffered frames
// along the stacking axis, oldest first.
func (fs *FrameStacker) Stacked(agent string) etensor.Tensor {
	return concatFrames(fs.Frames[agent])
}

// stackedShape returns the shape of a depth-k stack of frames of given
// shape.  The stacking axis depends on dimensionality, matching the
// concatenation layout of concatFrames exactly:
// 1-D (n) -> (k*n); 2-D (h, w) -> (h, w, k);
// 3-D and higher (..., c) -> (..., c*k).
func stackedShape(shape []int, k int) []int {
	switch len(shape) {
	case 1:
		return []int{k * shape[0]}
	case 2:
		return []int{shape[0], shape[1], k}
	default:
		ns := append([]int{}, shape...)
		ns[len(ns)-1] *= k
		return ns
	}
}

// stackSegment returns the per-frame contiguous segment length and the
// outer repeat count for the stacking layout of given frame shape:
// frame element i*seg+j lands at output element i*(k*seg)+s*seg+j for
// slot s.
func stackSegment(shape []int) (outer, seg int) {
	switch len(shape) {
	case 1:
		return 1, shape[0]
	case 2:
		return shape[0] * shape[1], 1
	default:
		seg = shape[len(shape)-1]
		return prodInts(shape[:len(shape)-1]), seg
	}
}

// concatFrames concatenates equal-shape frames along the stacking
// axis, oldest first, preserving dtype.
func concatFrames(frames []etensor.Tensor) etensor.Tensor {
	k := len(frames)
	shape := frames[0].Shapes()
	out := etensor.New(frames[0].DataType(), stackedShape(shape, k), nil, nil)
	outer, seg := stackSegment(shape)
	for i := 0; i < outer; i++ {
		for s, fr := range frames {
			for j := 0; j < seg; j++ {
				out.SetFloat1D(i*k*seg+s*seg+j, fr.FloatVal1D(i*seg+j))
			}
		}
	}
	return out
}
