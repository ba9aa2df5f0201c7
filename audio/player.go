package audio

import (
	"log/slog"
	"math"
	"sync"
	"time"

	"example.com/parentator/world/entities"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
)

const (
	resampleQuality = 4
	// distance in world units at which a sound is panned fully to one side
	panRange = 10.0
)

type PlayOptions struct {
	Volume   float64
	Position entities.Vec3
}

// Player mixes positioned one-shot sounds. Without a speaker the mixer is
// only drained by whoever streams from Mixer().
type Player struct {
	mu         sync.Mutex
	mixer      *beep.Mixer
	sampleRate beep.SampleRate
	listener   entities.Vec3
	speakerOn  bool
	logger     *slog.Logger
}

func NewPlayer(sampleRate beep.SampleRate, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{
		mixer:      &beep.Mixer{},
		sampleRate: sampleRate,
		logger:     logger,
	}
}

// StartSpeaker opens the audio device and feeds it the mixer.
func (p *Player) StartSpeaker(buffer time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.speakerOn {
		return nil
	}

	if err := speaker.Init(p.sampleRate, p.sampleRate.N(buffer)); err != nil {
		return err
	}
	speaker.Play(p.mixer)
	p.speakerOn = true
	return nil
}

func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.speakerOn {
		speaker.Close()
		p.speakerOn = false
	}
}

func (p *Player) SetListener(pos entities.Vec3) {
	p.mu.Lock()
	p.listener = pos
	p.mu.Unlock()
}

// Mixer is the stream of everything playing. Without a speaker, callers
// draining it must not race with Play.
func (p *Player) Mixer() beep.Streamer { return p.mixer }

// Active returns the number of sounds still playing.
func (p *Player) Active() int {
	n := 0
	p.withMixer(func(m *beep.Mixer, _ entities.Vec3) { n = m.Len() })
	return n
}

// Play starts s and reports whether it was audible.
func (p *Player) Play(s *Sound, opts PlayOptions) bool {
	if s == nil {
		return false
	}

	buf := s.data()
	if buf == nil {
		p.logger.Debug("sound not ready, skipping", "url", s.URL())
		return false
	}

	var streamer beep.Streamer = buf.Streamer(0, buf.Len())
	if rate := buf.Format().SampleRate; rate != p.sampleRate {
		streamer = beep.Resample(resampleQuality, rate, p.sampleRate, streamer)
	}

	p.withMixer(func(m *beep.Mixer, listener entities.Vec3) {
		panned := &effects.Pan{Streamer: streamer, Pan: pan(listener, opts.Position)}
		m.Add(volume(panned, opts.Volume))
	})

	return true
}

// withMixer serialises mixer access with the speaker goroutine when one runs.
func (p *Player) withMixer(fn func(m *beep.Mixer, listener entities.Vec3)) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.speakerOn {
		speaker.Lock()
		defer speaker.Unlock()
	}
	fn(p.mixer, p.listener)
}

func volume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol), Silent: false}
}

// pan places a source left or right of the listener along the X axis.
func pan(listener, source entities.Vec3) float64 {
	dx := (source.X - listener.X) / panRange
	return math.Max(-1, math.Min(1, dx))
}
