package host

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"
	"github.com/pkg/errors"

	"github.com/eyebrain/Dream/loop"
	"github.com/eyebrain/Dream/util"
)

// Stereo is decoded audio at a fixed rate.
type Stereo struct {
	L, R []float32
	Rate int
}

func (s Stereo) Len() int { return len(s.L) }

// LoadAudio decodes a WAV or MP3 file (by extension) and resamples it to
// rate.
func LoadAudio(path string, rate int) (Stereo, error) {
	f, err := os.Open(path)
	if err != nil {
		return Stereo{}, errors.Wrap(err, "open audio")
	}
	defer f.Close()

	var s beep.StreamSeekCloser
	var format beep.Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		s, format, err = mp3.Decode(f)
	default:
		s, format, err = wav.Decode(f)
	}
	if err != nil {
		return Stereo{}, errors.Wrapf(err, "decode %s", path)
	}

	var streamer beep.Streamer = s
	expect := s.Len()
	if int(format.SampleRate) != rate {
		r := beep.Resample(4, format.SampleRate, beep.SampleRate(rate), s)
		expect = int(float64(expect) / r.Ratio())
		streamer = r
	}

	out := Stereo{
		L:    make([]float32, 0, expect),
		R:    make([]float32, 0, expect),
		Rate: rate,
	}
	samples := make([][2]float64, 512)
	for {
		n, ok := streamer.Stream(samples)
		for i := 0; i < n; i++ {
			out.L = append(out.L, float32(samples[i][0]))
			out.R = append(out.R, float32(samples[i][1]))
		}
		if !ok {
			break
		}
	}
	if err := streamer.Err(); err != nil {
		return Stereo{}, errors.Wrapf(err, "stream %s", path)
	}
	return out, nil
}

// WriteWav writes l and r as a 16 bit stereo WAV, clipped to [-1,1].
func WriteWav(path string, l, r []float32, rate int) error {
	if len(l) != len(r) {
		return errors.Errorf("wav %s: channel lengths differ (%d, %d)", path, len(l), len(r))
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create output dir")
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create wav")
	}

	pos := 0
	src := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= len(l) {
			return 0, false
		}
		n := 0
		for n < len(samples) && pos < len(l) {
			samples[n][0] = float64(util.Clamp[float32](l[pos], -1, 1))
			samples[n][1] = float64(util.Clamp[float32](r[pos], -1, 1))
			n++
			pos++
		}
		return n, true
	})
	format := beep.Format{SampleRate: beep.SampleRate(rate), NumChannels: 2, Precision: 2}
	if err := wav.Encode(f, src, format); err != nil {
		f.Close()
		return errors.Wrapf(err, "encode %s", path)
	}
	return errors.Wrap(f.Close(), "close wav")
}

// ExportBuffer writes a buffer snapshot as a dual mono WAV.
func ExportBuffer(path string, s loop.Sample) error {
	if s.Len() == 0 {
		return errors.Errorf("export %s: buffer is empty", path)
	}
	return WriteWav(path, s.Data, s.Data, s.Rate)
}
