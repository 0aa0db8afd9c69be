// Copyright (c) 2023, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wrap

import (
	"testing"

	"github.com/emer/etable/etensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func vec(vals ...float64) etensor.Tensor {
	tsr := etensor.NewFloat64([]int{len(vals)}, nil, nil)
	copy(tsr.Values, vals)
	return tsr
}

func flat(tsr etensor.Tensor) []float64 {
	out := make([]float64, tsr.Len())
	for i := range out {
		out[i] = tsr.FloatVal1D(i)
	}
	return out
}

func TestStackedShape(t *testing.T) {
	assert.Equal(t, []int{10}, stackedShape([]int{5}, 2))
	assert.Equal(t, []int{4, 3, 3}, stackedShape([]int{4, 3}, 3))
	assert.Equal(t, []int{2, 2, 6}, stackedShape([]int{2, 2, 3}, 2))
	assert.Equal(t, []int{2, 3, 4, 10}, stackedShape([]int{2, 3, 4, 5}, 2))
}

func TestResetReplicates(t *testing.T) {
	fs := NewFrameStacker(2, []string{"a"})
	fs.Reset("a", vec(1, 2, 3))
	assert.Equal(t, []float64{1, 2, 3, 1, 2, 3}, flat(fs.Stacked("a")))
}

func TestPushFIFO(t *testing.T) {
	fs := NewFrameStacker(3, []string{"a"})
	fs.Reset("a", vec(1))
	fs.Push("a", vec(2))
	fs.Push("a", vec(3))
	assert.Equal(t, []float64{1, 2, 3}, flat(fs.Stacked("a")))

	// oldest frame is evicted
	fs.Push("a", vec(4))
	assert.Equal(t, []float64{2, 3, 4}, flat(fs.Stacked("a")))
}

func TestPushOnEmptyEstablishes(t *testing.T) {
	fs := NewFrameStacker(3, []string{"a", "b"})
	fs.Push("b", vec(7))
	assert.Equal(t, []float64{7, 7, 7}, flat(fs.Stacked("b")))
}

func TestStack2DAddsTrailingAxis(t *testing.T) {
	f1 := etensor.NewFloat64([]int{2, 2}, nil, nil)
	f1.Values = []float64{1, 2, 3, 4}
	f2 := etensor.NewFloat64([]int{2, 2}, nil, nil)
	f2.Values = []float64{5, 6, 7, 8}

	fs := NewFrameStacker(2, []string{"a"})
	fs.Reset("a", f1)
	fs.Push("a", f2)
	out := fs.Stacked("a")
	require.Equal(t, []int{2, 2, 2}, out.Shapes())
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			assert.Equal(t, f1.Value([]int{y, x}), out.FloatVal1D((y*2+x)*2))
			assert.Equal(t, f2.Value([]int{y, x}), out.FloatVal1D((y*2+x)*2+1))
		}
	}
}

func TestStack3DConcatsLastAxis(t *testing.T) {
	f1 := etensor.NewFloat64([]int{1, 1, 2}, nil, nil)
	f1.Values = []float64{1, 2}
	f2 := etensor.NewFloat64([]int{1, 1, 2}, nil, nil)
	f2.Values = []float64{3, 4}

	fs := NewFrameStacker(2, []string{"a"})
	fs.Reset("a", f1)
	fs.Push("a", f2)
	out := fs.Stacked("a")
	require.Equal(t, []int{1, 1, 4}, out.Shapes())
	assert.Equal(t, []float64{1, 2, 3, 4}, flat(out))
}

func TestStackPreservesDtype(t *testing.T) {
	f := etensor.NewUint8([]int{3}, nil, nil)
	f.Values = []uint8{10, 20, 30}
	fs := NewFrameStacker(2, []string{"a"})
	fs.Reset("a", f)
	out := fs.Stacked("a")
	assert.Equal(t, etensor.UINT8, out.DataType())
	assert.Equal(t, []float64{10, 20, 30, 10, 20, 30}, flat(out))
}
