package host

import (
	"log/slog"
	"sync"

	"github.com/pkg/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver

	"github.com/eyebrain/Dream/engine"
	"github.com/eyebrain/Dream/midimap"
)

// Transports listens on up to two MIDI inputs, one standing in for the
// USB port and one for the serial DIN port. Both may be open, only the one
// selected by State.MidiUSB is routed.
type Transports struct {
	Router *midimap.Router
	State  *engine.State
	log    *slog.Logger

	mu    sync.Mutex
	stops []func()
}

func NewTransports(r *midimap.Router, st *engine.State, logger *slog.Logger) *Transports {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transports{Router: r, State: st, log: logger}
}

// Open finds the named ports. An empty name leaves that transport closed.
func (t *Transports) Open(usbName, dinName string) error {
	for _, p := range []struct {
		name string
		usb  bool
	}{{usbName, true}, {dinName, false}} {
		if p.name == "" {
			continue
		}
		in, err := midi.FindInPort(p.name)
		if err != nil {
			t.Close()
			return errors.Wrapf(err, "midi port %q", p.name)
		}
		if err := t.Listen(in, p.usb); err != nil {
			t.Close()
			return err
		}
	}
	return nil
}

// Listen attaches an already opened input as the USB (usb true) or DIN
// transport.
func (t *Transports) Listen(in drivers.In, usb bool) error {
	stop, err := midi.ListenTo(in, t.receiver(usb))
	if err != nil {
		return errors.Wrapf(err, "listen on %s", in.String())
	}
	t.mu.Lock()
	t.stops = append(t.stops, stop)
	t.mu.Unlock()
	t.log.Info("midi port opened", "port", in.String(), "usb", usb)
	return nil
}

func (t *Transports) receiver(usb bool) func(midi.Message, int32) {
	return func(msg midi.Message, _ int32) {
		if t.State.MidiUSB.Load() != usb {
			return
		}
		t.Router.Handle(msg)
	}
}

func (t *Transports) Close() {
	t.mu.Lock()
	stops := t.stops
	t.stops = nil
	t.mu.Unlock()
	for _, stop := range stops {
		stop()
	}
	if len(stops) > 0 {
		t.log.Info("midi ports closed", "count", len(stops))
	}
}

// InPorts lists the MIDI input names the driver can see.
func InPorts() []string {
	var names []string
	for _, in := range midi.GetInPorts() {
		names = append(names, in.String())
	}
	return names
}

// CloseDriver releases the MIDI driver. Call once on exit.
func CloseDriver() {
	midi.CloseDriver()
}
