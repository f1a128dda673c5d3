package host

import (
	"log/slog"

	"github.com/gordonklaus/portaudio"
	"github.com/pkg/errors"

	"github.com/eyebrain/Dream/engine"
)

// PortAudio runs the engine on the default PortAudio device, four
// non-interleaved channels each way.
type PortAudio struct {
	stream *portaudio.Stream
	orch   *engine.Orchestrator
	log    *slog.Logger
}

func OpenPortAudio(st *engine.State, sampleRate, framesPerBuffer int, seed int64, logger *slog.Logger) (*PortAudio, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := portaudio.Initialize(); err != nil {
		return nil, errors.Wrap(err, "portaudio init")
	}
	p := &PortAudio{orch: engine.New(st, sampleRate, seed), log: logger}
	s, err := portaudio.OpenDefaultStream(engine.Channels, engine.Channels, float64(sampleRate), framesPerBuffer, p.orch.Process)
	if err != nil {
		portaudio.Terminate()
		return nil, errors.Wrap(err, "portaudio open stream")
	}
	p.stream = s
	logger.Info("portaudio stream opened", "rate", sampleRate, "frames", framesPerBuffer)
	return p, nil
}

func (p *PortAudio) Orchestrator() *engine.Orchestrator { return p.orch }

func (p *PortAudio) Start() error {
	return errors.Wrap(p.stream.Start(), "portaudio start")
}

func (p *PortAudio) Close() error {
	defer portaudio.Terminate()
	if err := p.stream.Stop(); err != nil {
		p.log.Warn("portaudio stop", "err", err)
	}
	return errors.Wrap(p.stream.Close(), "portaudio close")
}
