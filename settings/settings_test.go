package settings

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vazrupe/endibuf"

	"github.com/eyebrain/Dream/effects"
	"github.com/eyebrain/Dream/scale"
)

func sample() Record {
	r := Defaults()
	r.Effects[effects.Chorus] = Effect{
		P:            [4]float32{0.125, 0.25, 0.75, 1},
		Locked:       [4]bool{true, false, true, false},
		MidiChannel:  11,
		InputChannel: 3,
		Enabled:      true,
	}
	r.Gain = 73
	r.Blend = 12
	r.GainLocked = true
	r.BufferSeconds = 17
	r.FreezeSeconds = 2.5
	r.FreezeLocked = true
	r.BlendLock = true
	r.GranMidi = true
	r.Scale = int32(scale.Locrian)
	r.Reese = true
	r.CV1Enabled = false
	r.CV1Channel = 0
	r.CV2Channel = 16
	r.Hold = HoldCV2
	return r
}

func TestRoundTrip(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "nested", "settings.bin"))
	want := sample()
	require.NoError(t, s.Save(want))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	raw, err := os.ReadFile(s.Path)
	require.NoError(t, err)
	assert.Len(t, raw, Size)
	// little endian "GRAN"
	assert.Equal(t, []byte{0x4E, 0x41, 0x52, 0x47}, raw[:4])
}

func TestWriteEncodesWholeRecord(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "record.bin"))
	require.NoError(t, err)
	defer f.Close()

	w := endibuf.NewWriter(f)
	w.Endian = binary.BigEndian
	want := sample()
	require.NoError(t, want.Write(w))
	assert.Equal(t, binary.BigEndian, w.Endian)
	assert.EqualValues(t, Size, w.GetOffset())

	raw, err := os.ReadFile(f.Name())
	require.NoError(t, err)
	require.Len(t, raw, Size)
	assert.Equal(t, []byte{0x4E, 0x41, 0x52, 0x47}, raw[:4])

	got, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	var back Record
	rd := endibuf.NewReader(bytes.NewReader(raw))
	require.NoError(t, back.Read(rd))
	assert.Equal(t, want, back)
	assert.EqualValues(t, Size, rd.GetOffset())
}

func TestSaveStampsHeader(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "settings.bin"))
	r := sample()
	r.Magic = 0
	r.Version = 99
	require.NoError(t, s.Save(r))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, Magic, got.Magic)
	assert.Equal(t, Version, got.Version)
}

func TestSaveOverwritesEverything(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "settings.bin"))
	require.NoError(t, s.Save(sample()))
	require.NoError(t, s.Save(Defaults()))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), got)
}

func TestCorruptionRejected(t *testing.T) {
	good := filepath.Join(t.TempDir(), "settings.bin")
	require.NoError(t, NewStore(good).Save(sample()))
	raw, err := os.ReadFile(good)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mangle func([]byte) []byte
		want   error
	}{
		{"magic", func(b []byte) []byte { b[0] ^= 0xFF; return b }, ErrBadMagic},
		{"version", func(b []byte) []byte { b[4] = 1; return b }, ErrBadVersion},
		{"truncated", func(b []byte) []byte { return b[:Size/2] }, ErrShortRecord},
		{"empty", func(b []byte) []byte { return b[:0] }, ErrShortRecord},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := append([]byte(nil), raw...)
			path := filepath.Join(t.TempDir(), "settings.bin")
			require.NoError(t, os.WriteFile(path, tc.mangle(b), 0o644))

			got, err := LoadOrDefaults(NewStore(path))
			require.Error(t, err)
			assert.Equal(t, tc.want, errors.Cause(err))
			assert.Equal(t, Defaults(), got)

			_, err = Decode(tc.mangle(append([]byte(nil), raw...)))
			assert.Equal(t, tc.want, errors.Cause(err))
		})
	}
}

func TestMissingFileFallsBack(t *testing.T) {
	got, err := LoadOrDefaults(NewStore(filepath.Join(t.TempDir(), "nope.bin")))
	assert.Error(t, err)
	assert.Equal(t, Defaults(), got)
}

func TestEffectParamsConversion(t *testing.T) {
	r := sample()
	p := r.EffectParams()
	assert.Equal(t, 11, p[effects.Chorus].MidiChannel)
	assert.Equal(t, 3, p[effects.Chorus].InputChannel)

	var back Record
	back.SetEffects(p)
	assert.Equal(t, r.Effects, back.Effects)
}

func TestMemory(t *testing.T) {
	var m Memory
	_, err := m.Load()
	assert.Equal(t, ErrShortRecord, err)

	require.NoError(t, m.Save(sample()))
	require.NoError(t, m.Save(sample()))
	assert.Equal(t, 2, m.Count())
	got, err := m.Load()
	require.NoError(t, err)
	assert.Equal(t, sample(), got)
}

func TestHoldMode(t *testing.T) {
	assert := assert.New(t)
	assert.True(HoldBoth.Holds(1))
	assert.True(HoldBoth.Holds(2))
	assert.True(HoldCV1.Holds(1))
	assert.False(HoldCV1.Holds(2))
	assert.False(HoldOff.Holds(2))
	assert.Equal("CV2", HoldCV2.String())
	assert.Equal("Unknown", HoldMode(9).String())

	h, ok := ParseHoldMode("cv1")
	assert.True(ok)
	assert.Equal(HoldCV1, h)
	_, ok = ParseHoldMode("sometimes")
	assert.False(ok)
}
