// Package scale snaps V/oct control voltages onto musical scales.
//
// Voltages use the -5..+5 V range of the CV outputs, 1 V per octave, with
// -5 V as semitone 0.
package scale

import (
	"math"
	"strings"
)

type Type int

const (
	Blues Type = iota
	Minor
	Major
	Pentatonic
	Whole
	Locrian
	Natural
	Count
)

// semitones from root, ascending
var tables = [Count][]int{
	Blues:      {0, 3, 5, 6, 7, 10},
	Minor:      {0, 2, 3, 5, 7, 8, 10},
	Major:      {0, 2, 4, 5, 7, 9, 11},
	Pentatonic: {0, 2, 4, 7, 9},
	Whole:      {0, 2, 4, 6, 8, 10},
	Locrian:    {0, 1, 3, 5, 6, 8, 10},
	Natural:    {0, 2, 4, 5, 7, 9, 11},
}

var Names = [Count]string{"Blues", "Minor", "Major", "Pentatonic", "Whole", "Locrian", "Natural"}

func (t Type) String() string {
	if t < 0 || t >= Count {
		return "Unknown"
	}
	return Names[t]
}

func (t Type) Valid() bool { return t >= 0 && t < Count }

// Degrees returns the table for t, nil for an unknown scale.
func (t Type) Degrees() []int {
	if !t.Valid() {
		return nil
	}
	return tables[t]
}

// snap float noise off exact semitones so a voltage computed from a table
// entry lands back on that entry
const snapEps = 1e-4

func toSemitones(v float32) float64 {
	s := (float64(v) + 5) * 12
	if r := math.Round(s); math.Abs(s-r) < snapEps {
		s = r
	}
	return s
}

func toVolts(semitones float64) float32 {
	return float32(semitones/12 - 5)
}

// nearest returns the index of the table entry closest to rem. Ties go to
// the first entry in table order.
func nearest(degrees []int, rem float64) int {
	best := 0
	minDist := 12.0
	for i, d := range degrees {
		dist := math.Abs(rem - float64(d))
		if dist < minDist {
			minDist = dist
			best = i
		}
	}
	return best
}

// Quantize snaps v to the nearest degree of scale t within its octave.
// Unknown scales pass v through. The result is not clamped.
func Quantize(v float32, t Type) float32 {
	degrees := t.Degrees()
	if degrees == nil {
		return v
	}
	semitones := toSemitones(v)
	octave := math.Floor(semitones / 12)
	rem := semitones - octave*12

	d := degrees[nearest(degrees, rem)]
	return toVolts(octave*12 + float64(d))
}

// StepDown quantizes v and moves one scale degree lower, dropping into the
// previous octave below the root.
func StepDown(v float32, t Type) float32 {
	degrees := t.Degrees()
	if degrees == nil {
		return v
	}
	semitones := toSemitones(v)
	octave := math.Floor(semitones / 12)
	rem := semitones - octave*12

	i := nearest(degrees, rem) - 1
	if i < 0 {
		i = len(degrees) - 1
		octave--
	}
	return toVolts(octave*12 + float64(degrees[i]))
}

// NoteVolts converts a MIDI note to V/oct with middle C (60) at 0 V.
func NoteVolts(note uint8) float32 {
	return (float32(note) - 60) / 12
}

// Parse looks a scale up by name, ignoring case.
func Parse(name string) (Type, bool) {
	for i, n := range Names {
		if strings.EqualFold(n, name) {
			return Type(i), true
		}
	}
	return Blues, false
}
