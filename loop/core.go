package loop

import (
	"github.com/pkg/math"
)

/*
This file defines the sample model shared by the two loop buffers.

Both buffers are statically sized: storage is handed in once and never
reallocated, the audio callback only moves cursors around inside it.

Window and playhead geometry is always expressed in *logical* indices,
0 being the oldest valid sample of the filled region. Physical storage
indices only ever come out of LogicalToPhysical.
*/

type AudioSample = float32

// still no positive modulus in the standard library
func mod(a, b int) int {
	return (a%b + b) % b
}

// LogicalToPhysical maps a logical index of the filled region onto a storage
// index. logical may be any integer, it is wrapped into [0, filled) first.
// oldest is the storage index of logical 0 and ring is the length of the
// circular region that storage is addressed through.
//
// Returns 0 when filled or ring is 0.
func LogicalToPhysical(logical, filled, oldest, ring int) int {
	if filled <= 0 || ring <= 0 {
		return 0
	}
	return mod(oldest+mod(logical, filled), ring)
}

// Sample is a detached copy of buffer audio, oldest sample first.
// pointers to samples are never handed out, Raster slices a copy
type Sample struct {
	Data []AudioSample
	Rate int
}

func (s Sample) Raster(offset, length int) Sample {
	l := len(s.Data)
	i1 := math.Min(offset, l)
	i2 := math.Min(offset+length, l)
	if i1 < 0 {
		i1 = 0
	}
	if i2 < i1 {
		i2 = i1
	}

	s.Data = s.Data[i1:i2]
	return s //not a pointer
}

func (s Sample) Len() int {
	return len(s.Data)
}

// Catmull-Rom through x1..x2, t in [0,1)
func cubicInterp(x0, x1, x2, x3, t float32) float32 {
	a := -0.5*x0 + 1.5*x1 - 1.5*x2 + 0.5*x3
	b := x0 - 2.5*x1 + 2.0*x2 - 0.5*x3
	c := -0.5*x0 + 0.5*x2
	d := x1
	return a*t*t*t + b*t*t + c*t + d
}
