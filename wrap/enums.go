// Copyright (c) 2023, The CCNLab Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wrap

import (
	"fmt"

	"github.com/goki/ki/kit"
)

// ColorReduction selects how the channel axis of a 3-D image
// observation is collapsed to a single channel.
type ColorReduction int

//go:generate stringer -type=ColorReduction

var KiT_ColorReduction = kit.Enums.AddEnum(ColorReductionN, false, nil)

// The color reduction modes
const (
	// NoColorReduction leaves the channel axis unchanged
	NoColorReduction ColorReduction = iota

	// RedOnly keeps only channel 0
	RedOnly

	// GreenOnly keeps only channel 1
	GreenOnly

	// BlueOnly keeps only channel 2
	BlueOnly

	// FullGrayscale averages channels with luminance weights
	// (0.299, 0.587, 0.114) -- slower than a single-channel slice
	FullGrayscale

	ColorReductionN
)

// channel returns the channel index selected by a single-channel mode.
func (cr ColorReduction) channel() int {
	return int(cr) - int(RedOnly)
}

// ColorReductionFromString parses a color reduction mode from its
// short config name (none, R, G, B, full) or its enum name.
func ColorReductionFromString(s string) (ColorReduction, error) {
	switch s {
	case "", "none", "NoColorReduction":
		return NoColorReduction, nil
	case "R", "RedOnly":
		return RedOnly, nil
	case "G", "GreenOnly":
		return GreenOnly, nil
	case "B", "BlueOnly":
		return BlueOnly, nil
	case "full", "FullGrayscale":
		return FullGrayscale, nil
	}
	return NoColorReduction, fmt.Errorf("unknown color reduction mode %q", s)
}

// ReshapeMode selects the axis rewrite applied after downscaling.
type ReshapeMode int

//go:generate stringer -type=ReshapeMode

var KiT_ReshapeMode = kit.Enums.AddEnum(ReshapeModeN, false, nil)

// The reshape modes
const (
	// NoReshape leaves the shape unchanged
	NoReshape ReshapeMode = iota

	// Expand appends a trailing unit axis
	Expand

	// Flatten collapses all axes into one
	Flatten

	ReshapeModeN
)

// ReshapeModeFromString parses a reshape mode from its short config
// name (none, expand, flatten) or its enum name.
func ReshapeModeFromString(s string) (ReshapeMode, error) {
	switch s {
	case "", "none", "NoReshape":
		return NoReshape, nil
	case "expand", "Expand":
		return Expand, nil
	case "flatten", "Flatten":
		return Flatten, nil
	}
	return NoReshape, fmt.Errorf("unknown reshape mode %q", s)
}
