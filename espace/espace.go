// Copyright (c) 2023, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package espace defines the space descriptors exchanged between an
// AEC multi-agent environment and its consumers: a rectangular Box
// bound over a tensor-valued observation or action, and Discrete /
// MultiDiscrete action sets.  Spaces are a closed tagged variant --
// code dispatching on a Space must handle every Kind and fail
// explicitly on anything else.
package espace

import (
	"math"

	"github.com/emer/etable/etensor"
	"github.com/goki/ki/kit"
	"golang.org/x/exp/rand"
)

// Kind is the tag identifying the concrete type of a Space.
type Kind int

//go:generate stringer -type=Kind

var KiT_Kind = kit.Enums.AddEnum(KindN, false, nil)

// The space kinds
const (
	// BoxKind is a rectangular bound over a numeric tensor
	BoxKind Kind = iota

	// DiscreteKind is a finite set of n actions, indices 0..n-1
	DiscreteKind

	// MultiDiscreteKind is a vector of independent discrete sub-actions
	MultiDiscreteKind

	KindN
)

// Space describes the legal values of an observation or action tensor.
// The concrete kinds are Box, Discrete and MultiDiscrete.
type Space interface {
	// Kind returns the variant tag for this space
	Kind() Kind

	// Contains reports whether x is a member of this space
	Contains(x etensor.Tensor) bool

	// Sample draws one member of this space using given random source
	Sample(rnd *rand.Rand) etensor.Tensor
}

////////////////////////////////////////////////////////////////////
//  Box

// Box is a rectangular bound on a numeric tensor: elementwise Low and
// High tensors of identical shape and dtype, which also define the
// shape and dtype of every member.
type Box struct {
	Low  etensor.Tensor `desc:"elementwise lower bound -- defines shape and dtype of the space"`
	High etensor.Tensor `desc:"elementwise upper bound -- same shape and dtype as Low"`
}

// NewBox returns a Box with the given bound tensors, which the Box
// takes ownership of.
func NewBox(low, high etensor.Tensor) *Box {
	return &Box{Low: low, High: high}
}

// NewBoxFill returns a Box of given dtype and shape with every element
// bounded by [lo, hi].
func NewBoxFill(lo, hi float64, typ etensor.Type, shape []int, names []string) *Box {
	low := etensor.New(typ, shape, nil, names)
	high := etensor.New(typ, shape, nil, names)
	for i := 0; i < low.Len(); i++ {
		low.SetFloat1D(i, lo)
		high.SetFloat1D(i, hi)
	}
	return &Box{Low: low, High: high}
}

func (bx *Box) Kind() Kind {
	return BoxKind
}

// Shape returns the tensor shape of members of this space.
func (bx *Box) Shape() []int {
	return bx.Low.Shapes()
}

// Dtype returns the element type of members of this space.
func (bx *Box) Dtype() etensor.Type {
	return bx.Low.DataType()
}

// Contains reports whether x has the shape of this space and every
// element within [Low, High].  NaN elements are never contained.
// Element type is not checked: containment is a value property.
func (bx *Box) Contains(x etensor.Tensor) bool {
	if x == nil || !ShapeEq(x.Shapes(), bx.Shape()) {
		return false
	}
	for i := 0; i < x.Len(); i++ {
		v := x.FloatVal1D(i)
		if math.IsNaN(v) || v < bx.Low.FloatVal1D(i) || v > bx.High.FloatVal1D(i) {
			return false
		}
	}
	return true
}

// Sample draws a uniform random member of this space, in the space's
// dtype.  Elements with an infinite bound are drawn from a standard
// normal instead.
func (bx *Box) Sample(rnd *rand.Rand) etensor.Tensor {
	smp := etensor.New(bx.Dtype(), bx.Shape(), nil, nil)
	for i := 0; i < smp.Len(); i++ {
		lo := bx.Low.FloatVal1D(i)
		hi := bx.High.FloatVal1D(i)
		if math.IsInf(lo, 0) || math.IsInf(hi, 0) {
			smp.SetFloat1D(i, rnd.NormFloat64())
		} else {
			smp.SetFloat1D(i, lo+rnd.Float64()*(hi-lo))
		}
	}
	return smp
}

////////////////////////////////////////////////////////////////////
//  Discrete

// Discrete is a finite action set: one integer index in [0, N).
type Discrete struct {
	N int `desc:"number of distinct actions"`
}

// NewDiscrete returns a Discrete space over n actions.
func NewDiscrete(n int) *Discrete {
	return &Discrete{N: n}
}

func (ds *Discrete) Kind() Kind {
	return DiscreteKind
}

// Contains reports whether x is a single integer index in [0, N).
func (ds *Discrete) Contains(x etensor.Tensor) bool {
	if x == nil || x.Len() != 1 {
		return false
	}
	v := x.FloatVal1D(0)
	return v == math.Trunc(v) && v >= 0 && v < float64(ds.N)
}

// Sample draws one uniform random action index.
func (ds *Discrete) Sample(rnd *rand.Rand) etensor.Tensor {
	smp := etensor.NewInt64([]int{1}, nil, nil)
	smp.Values[0] = int64(rnd.Intn(ds.N))
	return smp
}

////////////////////////////////////////////////////////////////////
//  MultiDiscrete

// MultiDiscrete is a vector of independent discrete sub-actions, with
// per-dimension sizes.
type MultiDiscrete struct {
	Sizes []int `desc:"number of distinct values for each sub-action, in declared order"`
}

// NewMultiDiscrete returns a MultiDiscrete space with given
// per-dimension sizes.
func NewMultiDiscrete(sizes []int) *MultiDiscrete {
	return &MultiDiscrete{Sizes: sizes}
}

func (md *MultiDiscrete) Kind() Kind {
	return MultiDiscreteKind
}

// SumSizes returns the total number of values across all sub-actions.
func (md *MultiDiscrete) SumSizes() int {
	sum := 0
	for _, sz := range md.Sizes {
		sum += sz
	}
	return sum
}

// Contains reports whether x is a vector of per-dimension indices,
// each within its sub-action's range.
func (md *MultiDiscrete) Contains(x etensor.Tensor) bool {
	if x == nil || x.Len() != len(md.Sizes) {
		return false
	}
	for i, sz := range md.Sizes {
		v := x.FloatVal1D(i)
		if v != math.Trunc(v) || v < 0 || v >= float64(sz) {
			return false
		}
	}
	return true
}

// Sample draws one uniform random index per sub-action.
func (md *MultiDiscrete) Sample(rnd *rand.Rand) etensor.Tensor {
	smp := etensor.NewInt64([]int{len(md.Sizes)}, nil, nil)
	for i, sz := range md.Sizes {
		smp.Values[i] = int64(rnd.Intn(sz))
	}
	return smp
}

////////////////////////////////////////////////////////////////////
//  Helpers

// ShapeEq reports whether two tensor shapes are identical.
func ShapeEq(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// AllBox reports whether every space in given map is a Box.
func AllBox(spaces map[string]Space) bool {
	for _, sp := range spaces {
		if sp.Kind() != BoxKind {
			return false
		}
	}
	return true
}
