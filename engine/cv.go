package engine

import (
	"github.com/eyebrain/Dream/scale"
	"github.com/eyebrain/Dream/settings"
	"github.com/eyebrain/Dream/util"
)

// DAC maps a voltage onto the 12 bit converter, -5 V at 0 and +5 V at 4095.
func DAC(v float32) uint16 {
	v = clampCV(v)
	return uint16((v + CVLimit) / (2 * CVLimit) * DACMax)
}

func clampCV(v float32) float32 {
	if v != v {
		return 0
	}
	return util.Clamp[float32](v, -CVLimit, CVLimit)
}

type cvInput struct {
	scale      scale.Type
	hold       settings.HoldMode
	reese      bool
	cv1Enabled bool
	cv1Active  bool
	cv1Note    uint8
	cv2Active  bool
	cv2Note    uint8
}

// cvOut remembers the last voltage of each output for hold mode.
type cvOut struct {
	last [2]float32
}

func (c *cvOut) compute(in cvInput) (cv1, cv2 float32) {
	switch {
	case in.cv2Active:
		cv2 = clampCV(scale.Quantize(scale.NoteVolts(in.cv2Note), in.scale))
		c.last[1] = cv2
	case in.hold.Holds(2):
		cv2 = c.last[1]
	}

	switch {
	case in.reese && in.cv2Active:
		cv1 = clampCV(scale.StepDown(scale.NoteVolts(in.cv2Note), in.scale))
		c.last[0] = cv1
	case in.cv1Active:
		// a played note wins over hold, as on CV2
		cv1 = clampCV(scale.Quantize(scale.NoteVolts(in.cv1Note), in.scale))
		c.last[0] = cv1
	case in.hold.Holds(1):
		cv1 = c.last[0]
	}
	if !in.cv1Enabled {
		cv1 = 0
	}
	return cv1, cv2
}
