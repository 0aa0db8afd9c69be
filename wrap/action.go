// Copyright (c) 2023, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wrap

import (
	"fmt"
	"math"

	"github.com/ccnlab/obs-wrap/espace"
	"github.com/emer/etable/etensor"
	"gonum.org/v1/gonum/stat/distuv"
)

// continuousizeSpaces rewrites the per-agent action spaces as
// continuous: Discrete(n) becomes an unbounded real vector of length
// n, MultiDiscrete(sizes) an unbounded real vector of length
// sum(sizes), and an existing Box passes through unchanged.  Any other
// kind fails explicitly.
func continuousizeSpaces(agents []string, orig map[string]espace.Space) (map[string]espace.Space, error) {
	inf := math.Inf(1)
	out := make(map[string]espace.Space, len(orig))
	for _, ag := range agents {
		switch sp := orig[ag].(type) {
		case *espace.Discrete:
			out[ag] = espace.NewBoxFill(-inf, inf, etensor.FLOAT64, []int{sp.N}, nil)
		case *espace.MultiDiscrete:
			out[ag] = espace.NewBoxFill(-inf, inf, etensor.FLOAT64, []int{sp.SumSizes()}, nil)
		case *espace.Box:
			out[ag] = sp
		default:
			return nil, &ActionError{Agent: ag,
				Msg: fmt.Sprintf("action space kind %v is not supported by continuous actions", sp.Kind())}
		}
	}
	return out, nil
}

// modifyAction reverse-maps a caller-supplied action back to the
// environment's original action space.  With continuous actions off it
// is a pass-through.  Otherwise the action must be contained in the
// computed continuous space; Discrete draws one softmax sample over
// the whole vector, MultiDiscrete partitions the vector into
// contiguous per-dimension segments (declared order, no padding or
// overlap) and samples each independently.
func (w *Wrapper) modifyAction(agent string, action etensor.Tensor) (etensor.Tensor, error) {
	if !w.cfg.ContinuousActions {
		return action, nil
	}
	warped := w.actSpaces[agent]
	if !warped.Contains(action) {
		return nil, &ActionError{Agent: agent, Msg: "received invalid action: not contained in the continuous action space"}
	}
	switch sp := w.origActSpaces[agent].(type) {
	case *espace.Discrete:
		idx := w.sampleSoftmax(logits(action, 0, sp.N))
		out := etensor.NewInt64([]int{1}, nil, nil)
		out.Values[0] = int64(idx)
		return out, nil
	case *espace.MultiDiscrete:
		out := etensor.NewInt64([]int{len(sp.Sizes)}, nil, nil)
		sidx := 0
		for i, sz := range sp.Sizes {
			out.Values[i] = int64(w.sampleSoftmax(logits(action, sidx, sz)))
			sidx += sz
		}
		return out, nil
	case *espace.Box:
		return action, nil
	default:
		return nil, &ActionError{Agent: agent,
			Msg: fmt.Sprintf("action space kind %v is not supported by continuous actions", sp.Kind())}
	}
}

// logits extracts n contiguous values starting at off.
func logits(action etensor.Tensor, off, n int) []float64 {
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = action.FloatVal1D(off + i)
	}
	return vals
}

// sampleSoftmax draws one index from the categorical distribution
// given by the numerically stable softmax of the logits, using the
// wrapper's seedable random source.
func (w *Wrapper) sampleSoftmax(vec []float64) int {
	mx := vec[0]
	for _, v := range vec[1:] {
		if v > mx {
			mx = v
		}
	}
	probs := make([]float64, len(vec))
	sum := 0.0
	for i, v := range vec {
		probs[i] = math.Exp(v - mx)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	cat := distuv.NewCategorical(probs, w.rnd)
	return int(cat.Rand())
}
