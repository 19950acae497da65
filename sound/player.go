// Package sound plays short synthesized cues for board events.
package sound

import (
	"math"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/phanxgames/ground"
	"go.uber.org/zap"
)

const sampleRate = beep.SampleRate(44100)

// historySize bounds the cues remembered by Played.
const historySize = 64

// Cue names one synthesized sound.
type Cue uint8

const (
	CueMove Cue = iota
	CueCapture
	CueDrop
)

func (c Cue) String() string {
	switch c {
	case CueMove:
		return "move"
	case CueCapture:
		return "capture"
	case CueDrop:
		return "drop"
	}
	return "unknown"
}

// Player mixes cues into the speaker. A Player whose Init failed stays
// silent; board callbacks still run.
type Player struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	initialized bool
	log         *zap.Logger
	played      []Cue
}

// NewPlayer creates a silent player. log may be nil.
func NewPlayer(log *zap.Logger) *Player {
	if log == nil {
		log = zap.NewNop()
	}
	return &Player{mixer: &beep.Mixer{}, log: log}
}

// Init opens the speaker. Failure is non-fatal: the player stays silent.
func (p *Player) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		p.log.Warn("audio unavailable", zap.Error(err))
		return err
	}
	speaker.Play(p.mixer)
	p.initialized = true
	return nil
}

// Close silences every playing cue.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}
	speaker.Lock()
	p.mixer.Clear()
	speaker.Unlock()
	p.initialized = false
}

// Play queues cue c.
func (p *Player) Play(c Cue) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.played) == historySize {
		copy(p.played, p.played[1:])
		p.played = p.played[:historySize-1]
	}
	p.played = append(p.played, c)
	if !p.initialized {
		return
	}
	s, err := Streamer(c)
	if err != nil {
		p.log.Warn("cue failed", zap.Stringer("cue", c), zap.Error(err))
		return
	}
	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
}

// Played returns the most recent cues requested, played or not, oldest
// first. At most historySize cues are kept.
func (p *Player) Played() []Cue {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Cue(nil), p.played...)
}

// Attach chains the player onto ev: moves play CueMove or CueCapture and
// dropped pieces play CueDrop. Existing callbacks keep running first.
func (p *Player) Attach(ev *ground.Events) {
	prevMove := ev.Move
	ev.Move = func(orig, dest ground.Key, captured *ground.Piece) {
		if prevMove != nil {
			prevMove(orig, dest, captured)
		}
		if captured != nil {
			p.Play(CueCapture)
		} else {
			p.Play(CueMove)
		}
	}
	prevDrop := ev.DropNewPiece
	ev.DropNewPiece = func(pc ground.Piece, k ground.Key) {
		if prevDrop != nil {
			prevDrop(pc, k)
		}
		p.Play(CueDrop)
	}
}

// Streamer synthesizes cue c: a short decaying sine, two of them for a
// capture.
func Streamer(c Cue) (beep.Streamer, error) {
	switch c {
	case CueCapture:
		hi, err := tone(660, 60*time.Millisecond)
		if err != nil {
			return nil, err
		}
		lo, err := tone(440, 90*time.Millisecond)
		if err != nil {
			return nil, err
		}
		return beep.Seq(hi, lo), nil
	case CueDrop:
		return tone(330, 80*time.Millisecond)
	default:
		return tone(520, 50*time.Millisecond)
	}
}

// tone is a sine of freq Hz lasting d with a linear decay envelope.
func tone(freq float64, d time.Duration) (beep.Streamer, error) {
	sine, err := generators.SineTone(sampleRate, freq)
	if err != nil {
		return nil, err
	}
	total := sampleRate.N(d)
	return &decay{s: beep.Take(total, sine), total: total, gain: 0.25}, nil
}

// decay scales its source linearly from gain down to zero over total samples.
type decay struct {
	s     beep.Streamer
	pos   int
	total int
	gain  float64
}

func (d *decay) Stream(samples [][2]float64) (int, bool) {
	n, ok := d.s.Stream(samples)
	for i := 0; i < n; i++ {
		g := d.gain * math.Max(0, 1-float64(d.pos)/float64(d.total))
		samples[i][0] *= g
		samples[i][1] *= g
		d.pos++
	}
	return n, ok
}

func (d *decay) Err() error {
	return d.s.Err()
}
