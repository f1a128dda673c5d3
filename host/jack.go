package host

import (
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/xthexder/go-jack"

	"github.com/eyebrain/Dream/engine"
)

// maxJackFrames bounds the scratch buffers. Larger JACK periods are
// processed in several engine blocks.
const maxJackFrames = 4096

// Jack runs the engine inside a JACK process callback with four inputs and
// four outputs.
type Jack struct {
	client *jack.Client
	orch   *engine.Orchestrator
	log    *slog.Logger

	portsIn  []*jack.Port
	portsOut []*jack.Port

	// preallocated, the callback never allocates
	inBuf   [][]float32
	outBuf  [][]float32
	inView  [][]float32
	outView [][]float32

	shutdown chan struct{}
}

// OpenJack connects to a running JACK server and builds the engine at the
// server's sample rate. Call Start to begin processing.
func OpenJack(name string, st *engine.State, seed int64, logger *slog.Logger) (*Jack, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, status := jack.ClientOpen(name, jack.NoStartServer)
	if status != 0 {
		return nil, errors.Errorf("jack open: %s", jack.StrError(status))
	}

	rate := int(client.GetSampleRate())
	j := &Jack{
		client:   client,
		orch:     engine.New(st, rate, seed),
		log:      logger,
		inBuf:    make([][]float32, engine.Channels),
		outBuf:   make([][]float32, engine.Channels),
		inView:   make([][]float32, engine.Channels),
		outView:  make([][]float32, engine.Channels),
		shutdown: make(chan struct{}),
	}
	for ch := 0; ch < engine.Channels; ch++ {
		j.inBuf[ch] = make([]float32, maxJackFrames)
		j.outBuf[ch] = make([]float32, maxJackFrames)
	}

	for i := 1; i <= engine.Channels; i++ {
		in := client.PortRegister(fmt.Sprintf("in_%d", i), jack.DEFAULT_AUDIO_TYPE, jack.PortIsInput, 0)
		out := client.PortRegister(fmt.Sprintf("out_%d", i), jack.DEFAULT_AUDIO_TYPE, jack.PortIsOutput, 0)
		if in == nil || out == nil {
			client.Close()
			return nil, errors.Errorf("jack: registering port %d failed", i)
		}
		j.portsIn = append(j.portsIn, in)
		j.portsOut = append(j.portsOut, out)
	}
	logger.Info("jack client opened", "name", client.GetName(), "rate", rate)
	return j, nil
}

func (j *Jack) Orchestrator() *engine.Orchestrator { return j.orch }

func (j *Jack) Start() error {
	if code := j.client.SetProcessCallback(j.process); code != 0 {
		return errors.Errorf("jack process callback: %s", jack.StrError(code))
	}
	j.client.OnShutdown(func() {
		j.log.Warn("jack server shut down")
		close(j.shutdown)
	})
	if code := j.client.Activate(); code != 0 {
		return errors.Errorf("jack activate: %s", jack.StrError(code))
	}
	return nil
}

// Done is closed when the server goes away.
func (j *Jack) Done() <-chan struct{} { return j.shutdown }

func (j *Jack) Close() error {
	if code := j.client.Close(); code != 0 {
		return errors.Errorf("jack close: %s", jack.StrError(code))
	}
	return nil
}

func (j *Jack) process(nframes uint32) int {
	var ins, outs [engine.Channels][]jack.AudioSample
	for ch := 0; ch < engine.Channels; ch++ {
		ins[ch] = j.portsIn[ch].GetBuffer(nframes)
		outs[ch] = j.portsOut[ch].GetBuffer(nframes)
	}

	total := int(nframes)
	for off := 0; off < total; off += maxJackFrames {
		n := total - off
		if n > maxJackFrames {
			n = maxJackFrames
		}
		for ch := 0; ch < engine.Channels; ch++ {
			j.inView[ch] = j.inBuf[ch][:n]
			j.outView[ch] = j.outBuf[ch][:n]
			for i := 0; i < n; i++ {
				j.inView[ch][i] = float32(ins[ch][off+i])
			}
		}
		j.orch.Process(j.inView, j.outView)
		for ch := 0; ch < engine.Channels; ch++ {
			for i := 0; i < n; i++ {
				outs[ch][off+i] = jack.AudioSample(j.outView[ch][i])
			}
		}
	}
	return 0
}
