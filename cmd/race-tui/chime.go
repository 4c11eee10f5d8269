package main

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/okian/coffeerun/internal/domain/race"
)

const (
	sampleRate   = beep.SampleRate(44100)
	startTone    = 523.25
	finishTone   = 659.25
	finishStep   = 44.0
	coffeeTone   = 196.0
	shortNote    = 60 * time.Millisecond
	longNote     = 350 * time.Millisecond
	noteGap      = 40 * time.Millisecond
	speakerDelay = time.Second / 10
)

// chime turns race lifecycle callbacks into short sine tones. A chime
// that failed to open the speaker, or was muted, stays silent.
type chime struct {
	race.NopObserver
	on bool
}

func newChime(muted bool) (*chime, error) {
	c := &chime{}
	if muted {
		return c, nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(speakerDelay)); err != nil {
		return c, err
	}
	c.on = true
	return c, nil
}

func (c *chime) close() {
	if c.on {
		speaker.Close()
		c.on = false
	}
}

func (c *chime) RaceStarted(race.Started) {
	c.play(note(startTone, shortNote), beep.Silence(sampleRate.N(noteGap)), note(startTone*2, shortNote))
}

// RunnerFinished rises in pitch with every runner that crosses the line.
func (c *chime) RunnerFinished(f race.Finish) {
	c.play(note(finishTone+finishStep*float64(f.FinishOrder-1), shortNote))
}

func (c *chime) RaceCompleted(race.Result) {
	c.play(note(coffeeTone, longNote))
}

func (c *chime) play(parts ...beep.Streamer) {
	if !c.on {
		return
	}
	for _, p := range parts {
		if p == nil {
			return
		}
	}
	speaker.Play(beep.Seq(parts...))
}

func note(freq float64, d time.Duration) beep.Streamer {
	sine, err := generators.SineTone(sampleRate, freq)
	if err != nil {
		return nil
	}
	return beep.Take(sampleRate.N(d), sine)
}
