// Copyright (c) 2023, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wrap

import (
	"fmt"

	"github.com/emer/etable/etensor"
)

// transformObs applies the transform chain to one raw observation from
// the environment, in the same order the space rewrite used:
// color-reduce, block-reduce, reshape, range-scale / dtype cast, frame
// stack.  The result's shape and dtype always match the declared space
// computed at construction for this agent -- that equivalence is the
// core correctness property of the pipeline, and holds for every
// member of the agent's original space (non-dividing down-scale block
// sizes excepted, which are the caller's responsibility).
func (w *Wrapper) transformObs(agent string, obs etensor.Tensor, isReset bool) (etensor.Tensor, error) {
	if obs == nil {
		return nil, nil
	}

	if cr := w.cfg.ColorReduction[agent]; cr != NoColorReduction {
		obs = colorReduce(obs, cr)
	}

	if fac, ok := w.cfg.DownScale[agent]; ok {
		// color reduction may have dropped the channel axis; factors
		// are declared against the original shape.  For a non-Box
		// observation space the arity could not be checked at
		// construction, so it is checked against the data here.
		nd := obs.NumDims()
		if len(fac) < nd {
			return nil, &ConfigError{Option: "down_scale", Agent: agent,
				Msg: fmt.Sprintf("need one factor per observation axis: %d factors for %d axes", len(fac), nd)}
		}
		obs = blockReduce(obs, fac[:nd])
	}

	if w.cfg.Reshape != NoReshape {
		obs = reshapeTensor(obs, w.cfg.Reshape)
	}

	dt := obs.DataType()
	if ndt, ok := w.cfg.NewDtype[agent]; ok {
		dt = ndt
	}
	if mm, ok := w.cfg.RangeScale[agent]; ok {
		obs = rangeScaleData(obs, mm.Min, mm.Max, dt)
	} else if dt != obs.DataType() {
		obs = castTensor(obs, dt)
	}

	if w.stacker != nil {
		if isReset {
			w.stacker.Reset(agent, obs)
		} else {
			w.stacker.Push(agent, obs)
		}
		obs = w.stacker.Stacked(agent)
	}
	return obs, nil
}
