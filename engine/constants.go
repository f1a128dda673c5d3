package engine

const (
	DefaultSampleRate = 44100

	// buffer A length in seconds, user editable
	BufferADefaultSeconds = 5
	BufferAMinSeconds     = 1
	BufferAMaxSeconds     = 20

	// freeze capture length in seconds, user editable
	FreezeDefaultSeconds = 0.5
	FreezeMinSeconds     = 0.5
	FreezeMaxSeconds     = 4

	DefaultClockThreshold = 0.1
	ClockTimeoutMs        = 2000
	GatePulseMs           = 10

	// fixed output attenuation before user gain
	Headroom = 0.8

	DACMax  = 4095
	CVLimit = 5.0

	// window knob floor so the window never fully collapses
	minWindowFrac = 0.0001

	// randomization knob dead zone and curve
	randDeadZone = 0.05
	randCurve    = 1.5

	// jitter period at randomization 0+ and 1
	jitterSlowMs = 800.0
	jitterFastMs = 120.0

	// pitch knob span around center, in octaves
	pitchSpan = 8.5

	// pitch bend range in semitones
	bendRange = 2.0

	DoublePressMs = 400
	TickInterval  = 10 // ms
)
