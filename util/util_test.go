package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(5, Clamp(7, 0, 5))
	assert.Equal(0, Clamp(-3, 0, 5))
	assert.Equal(3, Clamp(3, 0, 5))
	assert.Equal(float32(1), Clamp01(float32(1.5)))
	assert.Equal(0.0, Clamp01(-0.2))
	assert.Equal(2, Min(2, 9))
	assert.Equal(9, Max(2, 9))
}

func TestFloat32(t *testing.T) {
	var f Float32
	assert.Equal(t, float32(0), f.Load())
	f.Store(-0.25)
	assert.Equal(t, float32(-0.25), f.Load())
	assert.Equal(t, float32(3), NewFloat32(3).Load())
}
