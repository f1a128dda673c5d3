package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eyebrain/Dream/scale"
	"github.com/eyebrain/Dream/settings"
)

func TestDACRange(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(uint16(0), DAC(-5))
	assert.Equal(uint16(4095), DAC(5))
	assert.InDelta(2048, DAC(0), 1)
	assert.Equal(uint16(0), DAC(-100))
	assert.Equal(uint16(4095), DAC(100))
	assert.Equal(DAC(0), DAC(float32(math.NaN())))

	prev := DAC(-6)
	for v := float32(-6); v <= 6; v += 0.01 {
		d := DAC(v)
		assert.LessOrEqual(d, uint16(DACMax))
		assert.GreaterOrEqual(d, prev, "monotonic at %v", v)
		prev = d
	}
}

func TestCVNoteAndHold(t *testing.T) {
	assert := assert.New(t)
	var c cvOut
	in := cvInput{scale: scale.Major, hold: settings.HoldBoth, cv1Enabled: true}

	in.cv1Active, in.cv1Note = true, 64
	in.cv2Active, in.cv2Note = true, 72
	cv1, cv2 := c.compute(in)
	assert.InDelta(4.0/12, cv1, 1e-6)
	assert.Equal(float32(1), cv2)

	// released, both hold
	in.cv1Active, in.cv2Active = false, false
	cv1, cv2 = c.compute(in)
	assert.InDelta(4.0/12, cv1, 1e-6)
	assert.Equal(float32(1), cv2)

	in.hold = settings.HoldCV1
	cv1, cv2 = c.compute(in)
	assert.InDelta(4.0/12, cv1, 1e-6)
	assert.Equal(float32(0), cv2)

	in.hold = settings.HoldOff
	cv1, cv2 = c.compute(in)
	assert.Equal(float32(0), cv1)
	assert.Equal(float32(0), cv2)
}

func TestCVActiveNoteIgnoresHold(t *testing.T) {
	for _, h := range []settings.HoldMode{settings.HoldOff, settings.HoldCV1, settings.HoldCV2, settings.HoldBoth} {
		var c cvOut
		cv1, cv2 := c.compute(cvInput{
			scale: scale.Major, hold: h, cv1Enabled: true,
			cv1Active: true, cv1Note: 64,
			cv2Active: true, cv2Note: 72,
		})
		assert.InDelta(t, 4.0/12, cv1, 1e-6, h.String())
		assert.Equal(t, float32(1), cv2, h.String())
	}
}

func TestCVQuantizesToScale(t *testing.T) {
	var c cvOut
	// C#4 is not in C major, the tie goes down to C
	_, cv2 := c.compute(cvInput{scale: scale.Major, cv2Active: true, cv2Note: 61})
	assert.Equal(t, float32(0), cv2)
}

func TestCVReese(t *testing.T) {
	assert := assert.New(t)
	var c cvOut
	in := cvInput{
		scale:      scale.Major,
		reese:      true,
		cv1Enabled: true,
		cv1Active:  true,
		cv1Note:    48,
		cv2Active:  true,
		cv2Note:    64, // E4
	}
	cv1, cv2 := c.compute(in)
	assert.InDelta(4.0/12, cv2, 1e-6)
	// one degree below E is D
	assert.InDelta(2.0/12, cv1, 1e-6)

	// without a CV2 note, CV1 follows its own tracker
	in.cv2Active = false
	cv1, _ = c.compute(in)
	assert.InDelta(-1.0, cv1, 1e-6)
}

func TestCV1Disabled(t *testing.T) {
	var c cvOut
	cv1, _ := c.compute(cvInput{scale: scale.Major, hold: settings.HoldBoth, cv1Active: true, cv1Note: 84})
	assert.Equal(t, float32(0), cv1)
}

func TestCVClamps(t *testing.T) {
	var c cvOut
	cv1, cv2 := c.compute(cvInput{
		scale:      scale.Blues,
		cv1Enabled: true,
		cv1Active:  true,
		cv1Note:    127,
		cv2Active:  true,
		cv2Note:    127,
	})
	assert.Equal(t, float32(CVLimit), cv1)
	assert.Equal(t, float32(CVLimit), cv2)
	assert.Equal(t, uint16(DACMax), DAC(cv2))
}
