package ui

import (
	"encoding/binary"
	"math"
	"sync"

	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/rs/zerolog/log"
)

// SampleRate is the rate the audio context must be created with.
const SampleRate = 44100

// tone 描述一段合成音效：频率、时长、音量，freqEnd 不为 0 时做线性滑音
type tone struct {
	freq, freqEnd float64
	seconds       float64
	volume        float64
}

var tones = map[string]tone{
	"place":     {freq: 660, seconds: 0.06, volume: 0.35},
	"flip":      {freq: 990, seconds: 0.03, volume: 0.2},
	"illegal":   {freq: 220, freqEnd: 160, seconds: 0.12, volume: 0.3},
	"pass":      {freq: 440, freqEnd: 330, seconds: 0.15, volume: 0.3},
	"game_over": {freq: 523, freqEnd: 784, seconds: 0.4, volume: 0.3},
}

// AudioManager 播放合成音效；ctx 为 nil 时静音
type AudioManager struct {
	ctx     *audio.Context
	buffers map[string][]byte

	mu      sync.Mutex
	players []*audio.Player // 保留引用，防止被 GC
}

func NewAudioManager(ctx *audio.Context) *AudioManager {
	m := &AudioManager{ctx: ctx, buffers: make(map[string][]byte, len(tones))}
	if ctx == nil {
		return m
	}
	for name, t := range tones {
		m.buffers[name] = synth(t)
	}
	return m
}

// synth renders t as 16-bit little-endian stereo PCM with a short fade out.
func synth(t tone) []byte {
	n := int(t.seconds * SampleRate)
	buf := make([]byte, 4*n)
	phase := 0.0
	for i := 0; i < n; i++ {
		f := t.freq
		if t.freqEnd != 0 {
			f += (t.freqEnd - t.freq) * float64(i) / float64(n)
		}
		phase += 2 * math.Pi * f / SampleRate
		env := 1 - float64(i)/float64(n)
		v := int16(math.Sin(phase) * env * t.volume * math.MaxInt16)
		binary.LittleEndian.PutUint16(buf[4*i:], uint16(v))
		binary.LittleEndian.PutUint16(buf[4*i+2:], uint16(v))
	}
	return buf
}

// Play 播放 key 对应音效
func (m *AudioManager) Play(key string) {
	if m == nil || m.ctx == nil {
		return
	}
	data, ok := m.buffers[key]
	if !ok {
		log.Debug().Str("key", key).Msg("unknown sound")
		return
	}
	p := m.ctx.NewPlayerFromBytes(data)
	p.Play()
	m.mu.Lock()
	m.players = append(m.players, p)
	m.mu.Unlock()
}

// Update 应每帧调用一次，清理已停止的播放器
func (m *AudioManager) Update() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	alive := m.players[:0]
	for _, p := range m.players {
		if p.IsPlaying() {
			alive = append(alive, p)
		}
	}
	m.players = alive
}
