// Package webctl is an HTTP stand-in for the hardware panel: knobs, gates,
// the encoder and the settings pages. Every edit goes through the
// engine.Controller so it is persisted exactly like a panel edit.
package webctl

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/cors"

	"github.com/eyebrain/Dream/effects"
	"github.com/eyebrain/Dream/engine"
	"github.com/eyebrain/Dream/scale"
	"github.com/eyebrain/Dream/settings"
)

type Server struct {
	c     *engine.Controller
	log   *slog.Logger
	start time.Time
}

func New(c *engine.Controller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{c: c, log: logger, start: time.Now()}
}

type valueBody struct {
	Value json.RawMessage `json:"value"`
}

type gateBody struct {
	High bool `json:"high"`
}

// EffectBody edits one slot. Absent fields are left alone.
type EffectBody struct {
	Params      [4]*float32 `json:"params"`
	Locked      [4]*bool    `json:"locked"`
	Enabled     *bool       `json:"enabled"`
	Input       *int        `json:"input"`
	MidiChannel *int        `json:"midi_channel"`
}

func (s *Server) Handler() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.HandleFunc("/status", s.handleStatus).Methods("GET")
	router.HandleFunc("/knob/{n:[0-9]+}", s.handleKnob).Methods("PUT")
	router.HandleFunc("/gate/{n:[0-9]+}", s.handleGate).Methods("PUT")
	router.HandleFunc("/param/{name}", s.handleParam).Methods("PUT")
	router.HandleFunc("/effect/{slot}", s.handleEffect).Methods("PUT")
	router.HandleFunc("/press", s.handlePress).Methods("POST")
	router.HandleFunc("/reset", s.handleReset).Methods("POST")

	return cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPut, http.MethodPost},
	}).Handler(router)
}

// ListenAndServe serves until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info("http control listening", "addr", addr)

	select {
	case err := <-errc:
		return errors.Wrap(err, "http control")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		return errors.Wrap(srv.Shutdown(shutdownCtx), "http shutdown")
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.c.State().Status()); err != nil {
		s.log.Warn("status encode", "err", err)
	}
}

func (s *Server) handleKnob(w http.ResponseWriter, r *http.Request) {
	n, _ := strconv.Atoi(mux.Vars(r)["n"])
	if n < 0 || n > 3 {
		http.Error(w, "knob must be 0-3", http.StatusNotFound)
		return
	}
	var v float32
	if !decodeValue(w, r, &v) {
		return
	}
	s.c.SetKnob(n, v)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGate(w http.ResponseWriter, r *http.Request) {
	n, _ := strconv.Atoi(mux.Vars(r)["n"])
	if n < 0 || n > 1 {
		http.Error(w, "gate must be 0 or 1", http.StatusNotFound)
		return
	}
	var body gateBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad body: "+err.Error(), http.StatusBadRequest)
		return
	}
	s.c.SetGate(n, body.High)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleParam(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	var (
		i int
		f float32
		b bool
		t string
	)
	switch name {
	case "gain", "blend", "buffer_seconds", "cv1_channel", "cv2_channel":
		if !decodeValue(w, r, &i) {
			return
		}
		switch name {
		case "gain":
			s.c.SetGain(i)
		case "blend":
			s.c.SetBlend(i)
		case "buffer_seconds":
			s.c.SetBufferSeconds(i)
		case "cv1_channel":
			s.c.SetCVChannel(1, i)
		case "cv2_channel":
			s.c.SetCVChannel(2, i)
		}
	case "freeze_seconds", "clock_threshold":
		if !decodeValue(w, r, &f) {
			return
		}
		if name == "freeze_seconds" {
			s.c.SetFreezeSeconds(f)
		} else {
			s.c.SetClockThreshold(f)
		}
	case "blend_lock", "reese", "cv1_enabled", "gran_midi", "midi_usb":
		if !decodeValue(w, r, &b) {
			return
		}
		switch name {
		case "blend_lock":
			s.c.SetBlendLock(b)
		case "reese":
			s.c.SetReese(b)
		case "cv1_enabled":
			s.c.SetCV1Enabled(b)
		case "gran_midi":
			s.c.SetGranMidi(b)
		case "midi_usb":
			s.c.SetMidiUSB(b)
		}
	case "scale":
		if !decodeValue(w, r, &t) {
			return
		}
		sc, ok := scale.Parse(t)
		if !ok {
			http.Error(w, fmt.Sprintf("unknown scale %q", t), http.StatusBadRequest)
			return
		}
		s.c.SetScale(sc)
	case "hold":
		if !decodeValue(w, r, &t) {
			return
		}
		h, ok := settings.ParseHoldMode(t)
		if !ok {
			http.Error(w, fmt.Sprintf("unknown hold mode %q", t), http.StatusBadRequest)
			return
		}
		s.c.SetHoldMode(h)
	default:
		http.Error(w, fmt.Sprintf("unknown parameter %q", name), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleEffect(w http.ResponseWriter, r *http.Request) {
	k, ok := parseSlot(mux.Vars(r)["slot"])
	if !ok {
		http.Error(w, "unknown effect slot", http.StatusNotFound)
		return
	}
	var body EffectBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad body: "+err.Error(), http.StatusBadRequest)
		return
	}
	for i, p := range body.Params {
		if p != nil {
			s.c.SetEffectParam(k, i, *p)
		}
	}
	for i, l := range body.Locked {
		if l != nil {
			s.c.SetEffectLocked(k, i, *l)
		}
	}
	if body.Enabled != nil {
		s.c.SetEffectEnabled(k, *body.Enabled)
	}
	if body.Input != nil {
		s.c.SetEffectInput(k, *body.Input)
	}
	if body.MidiChannel != nil {
		s.c.SetEffectMidiChannel(k, *body.MidiChannel)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePress(w http.ResponseWriter, r *http.Request) {
	s.c.Press(time.Since(s.start).Milliseconds())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.c.Reset()
	w.WriteHeader(http.StatusNoContent)
}

// parseSlot accepts an index or a name prefix ("ladder", "chorus").
func parseSlot(v string) (effects.Kind, bool) {
	if n, err := strconv.Atoi(v); err == nil {
		return effects.Kind(n), n >= 0 && n < int(effects.NumSlots)
	}
	for k := effects.Kind(0); k < effects.NumSlots; k++ {
		if strings.HasPrefix(strings.ToLower(k.String()), strings.ToLower(v)) && v != "" {
			return k, true
		}
	}
	return 0, false
}

func decodeValue(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	var body valueBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	if len(body.Value) == 0 {
		http.Error(w, "missing value", http.StatusBadRequest)
		return false
	}
	if err := json.Unmarshal(body.Value, dst); err != nil {
		http.Error(w, "bad value: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}
