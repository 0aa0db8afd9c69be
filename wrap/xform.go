// Copyright (c) 2023, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wrap

import (
	"math"

	"github.com/emer/etable/etensor"
)

// lumWeights are the standard luminance weights for full grayscale
// reduction over R, G, B channels.
var lumWeights = [3]float64{0.299, 0.587, 0.114}

// prodInts returns the product of given dims.
func prodInts(vals []int) int {
	p := 1
	for _, v := range vals {
		p *= v
	}
	return p
}

// reshaped returns a new tensor of given shape with the same dtype,
// filled with the flat values of tsr in row-major order.  If the new
// shape has fewer elements, trailing values are dropped; this is how
// bounds are truncated for the down-scale approximation.
func reshaped(tsr etensor.Tensor, shape []int, names []string) etensor.Tensor {
	out := etensor.New(tsr.DataType(), shape, nil, names)
	n := out.Len()
	if tn := tsr.Len(); tn < n {
		n = tn
	}
	for i := 0; i < n; i++ {
		out.SetFloat1D(i, tsr.FloatVal1D(i))
	}
	return out
}

// castTensor returns a copy of tsr with given element type.
func castTensor(tsr etensor.Tensor, dt etensor.Type) etensor.Tensor {
	out := etensor.New(dt, tsr.Shapes(), nil, nil)
	for i := 0; i < tsr.Len(); i++ {
		out.SetFloat1D(i, tsr.FloatVal1D(i))
	}
	return out
}

// colorReduce collapses the channel axis of a 3-D tensor (Y x X x C)
// to a single channel per the given mode, preserving dtype.  Full
// grayscale rounds the luminance-weighted combination to nearest.
// Applies identically to observations and to space bounds, so the
// space rewrite and the data rewrite cannot diverge.
func colorReduce(tsr etensor.Tensor, cr ColorReduction) etensor.Tensor {
	sh := tsr.Shapes()
	ny, nx, nc := sh[0], sh[1], sh[2]
	out := etensor.New(tsr.DataType(), []int{ny, nx}, nil, nil)
	switch cr {
	case RedOnly, GreenOnly, BlueOnly:
		ch := cr.channel()
		for i := 0; i < ny*nx; i++ {
			out.SetFloat1D(i, tsr.FloatVal1D(i*nc+ch))
		}
	case FullGrayscale:
		for i := 0; i < ny*nx; i++ {
			v := 0.0
			for c := 0; c < 3; c++ {
				v += lumWeights[c] * tsr.FloatVal1D(i*nc+c)
			}
			out.SetFloat1D(i, math.Round(v))
		}
	}
	return out
}

// blockReduce reduces each axis of tsr by the matching integer factor,
// replacing every factor-sized block with its mean.  The mean is
// accumulated in float64 and converted back to the tensor's dtype
// (safe for uint8).  Axes where the factor does not divide the extent
// are truncated: trailing partial blocks are dropped, which callers
// must account for.
func blockReduce(tsr etensor.Tensor, fac []int) etensor.Tensor {
	sh := tsr.Shapes()
	nd := len(sh)
	osh := make([]int, nd)
	strides := make([]int, nd)
	st := 1
	for i := nd - 1; i >= 0; i-- {
		osh[i] = sh[i] / fac[i]
		strides[i] = st
		st *= sh[i]
	}
	out := etensor.New(tsr.DataType(), osh, nil, nil)
	bn := prodInts(fac[:nd])
	oidx := make([]int, nd)
	bidx := make([]int, nd)
	for o := 0; o < out.Len(); o++ {
		rem := o
		for i := nd - 1; i >= 0; i-- {
			oidx[i] = rem % osh[i]
			rem /= osh[i]
		}
		for i := range bidx {
			bidx[i] = 0
		}
		sum := 0.0
		for b := 0; b < bn; b++ {
			off := 0
			for i := 0; i < nd; i++ {
				off += (oidx[i]*fac[i] + bidx[i]) * strides[i]
			}
			sum += tsr.FloatVal1D(off)
			for i := nd - 1; i >= 0; i-- {
				bidx[i]++
				if bidx[i] < fac[i] {
					break
				}
				bidx[i] = 0
			}
		}
		out.SetFloat1D(o, sum/float64(bn))
	}
	return out
}

// reshapeTensor applies the expand / flatten axis rewrite.
func reshapeTensor(tsr etensor.Tensor, rm ReshapeMode) etensor.Tensor {
	switch rm {
	case Expand:
		sh := append([]int{}, tsr.Shapes()...)
		return reshaped(tsr, append(sh, 1), nil)
	case Flatten:
		return reshaped(tsr, []int{tsr.Len()}, nil)
	}
	return tsr
}

// rangeScaleData applies the observation value scaling
// (x - min) / (max - min) elementwise, into given dtype.
func rangeScaleData(tsr etensor.Tensor, min, max float64, dt etensor.Type) etensor.Tensor {
	out := etensor.New(dt, tsr.Shapes(), nil, nil)
	rng := max - min
	for i := 0; i < tsr.Len(); i++ {
		out.SetFloat1D(i, (tsr.FloatVal1D(i)-min)/rng)
	}
	return out
}

// rangeScaleBounds applies the space bound scaling
// (b / (max - min)) - min elementwise, into given dtype.  Note this is
// not the same formula as rangeScaleData; the two coincide for
// min = 0, the common case.
func rangeScaleBounds(tsr etensor.Tensor, min, max float64, dt etensor.Type) etensor.Tensor {
	out := etensor.New(dt, tsr.Shapes(), nil, nil)
	rng := max - min
	for i := 0; i < tsr.Len(); i++ {
		out.SetFloat1D(i, tsr.FloatVal1D(i)/rng-min)
	}
	return out
}
