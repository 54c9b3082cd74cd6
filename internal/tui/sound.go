package tui

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

// Sound はゲーム中の効果音です。
type Sound int

const (
	SoundLock Sound = iota
	SoundClear
	SoundGameOver
)

// tone は効果音1つ分の周波数と長さです。
type tone struct {
	freq     float64
	duration time.Duration
}

var sounds = map[Sound][]tone{
	SoundLock:     {{220, 40 * time.Millisecond}},
	SoundClear:    {{660, 60 * time.Millisecond}, {880, 80 * time.Millisecond}},
	SoundGameOver: {{330, 150 * time.Millisecond}, {220, 150 * time.Millisecond}, {110, 300 * time.Millisecond}},
}

// SoundPlayer は beep のスピーカーに効果音を流します。初期化に失敗した場合は無音で動きます。
type SoundPlayer struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	initialized bool
}

// NewSoundPlayer は SoundPlayer を作ります。音を出すには Init を呼んでください。
func NewSoundPlayer() *SoundPlayer {
	return &SoundPlayer{mixer: &beep.Mixer{}}
}

// Init はスピーカーを初期化します。
func (p *SoundPlayer) Init() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return nil
	}
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return err
	}
	speaker.Play(p.mixer)
	p.initialized = true
	return nil
}

// Play は効果音を鳴らします。未初期化なら何もしません。
func (p *SoundPlayer) Play(s Sound) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}
	streamer, err := sequence(sounds[s])
	if err != nil {
		return
	}
	speaker.Lock()
	p.mixer.Add(streamer)
	speaker.Unlock()
}

// Close はスピーカーを閉じます。
func (p *SoundPlayer) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}
	speaker.Clear()
	speaker.Close()
	p.initialized = false
}

// sequence はトーンを順に鳴らすストリーマーを作ります。
func sequence(tones []tone) (beep.Streamer, error) {
	parts := make([]beep.Streamer, 0, len(tones))
	for _, t := range tones {
		sine, err := generators.SineTone(sampleRate, t.freq)
		if err != nil {
			return nil, err
		}
		parts = append(parts, beep.Take(sampleRate.N(t.duration), sine))
	}
	return beep.Seq(parts...), nil
}
