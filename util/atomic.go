package util

import (
	"math"
	"sync/atomic"
)

// Float32 is a float32 that can be shared between the control loop and the
// audio callback without locks. Each Store is a single word write.
type Float32 struct {
	bits atomic.Uint32
}

func NewFloat32(v float32) *Float32 {
	f := &Float32{}
	f.Store(v)
	return f
}

func (f *Float32) Load() float32   { return math.Float32frombits(f.bits.Load()) }
func (f *Float32) Store(v float32) { f.bits.Store(math.Float32bits(v)) }
