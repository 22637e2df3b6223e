package announce

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"codeberg.org/snonux/bingobg/internal/audio"
	"github.com/ebitengine/oto/v3"
)

// ToneSink plays the short fallback tone
type ToneSink interface {
	Beep(ctx context.Context) error
}

// OtoToneSink plays the tone as raw PCM through the system audio device
type OtoToneSink struct {
	ctx *oto.Context
	pcm []byte
}

var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
)

// NewOtoToneSink opens the audio device. Only one device context can exist
// per process, so the first sample rate wins.
func NewOtoToneSink(sampleRate int) (*OtoToneSink, error) {
	if sampleRate <= 0 {
		sampleRate = audio.ToneSampleRate
	}

	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 1,
			Format:       oto.FormatSignedInt16LE,
		}
		var ready chan struct{}
		otoCtx, ready, otoErr = oto.NewContext(op)
		if otoErr == nil {
			<-ready
		}
	})
	if otoErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrPlaybackBlocked, otoErr)
	}

	return &OtoToneSink{
		ctx: otoCtx,
		pcm: audio.TonePCM(sampleRate, audio.ToneDuration, audio.ToneFrequency),
	}, nil
}

// Beep plays the tone and waits until it has been played
func (s *OtoToneSink) Beep(ctx context.Context) error {
	player := s.ctx.NewPlayer(bytes.NewReader(s.pcm))
	player.Play()

	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()

	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			player.Close()
			return ctx.Err()
		case <-ticker.C:
		}
	}

	return player.Close()
}

// FileToneSink writes the tone as a WAV file and plays it with a Player
type FileToneSink struct {
	player     Player
	sampleRate int

	once sync.Once
	path string
	err  error
}

// NewFileToneSink creates a tone sink on top of player
func NewFileToneSink(player Player, sampleRate int) *FileToneSink {
	if sampleRate <= 0 {
		sampleRate = audio.ToneSampleRate
	}
	return &FileToneSink{player: player, sampleRate: sampleRate}
}

// Beep plays the tone file, writing it on first use
func (s *FileToneSink) Beep(ctx context.Context) error {
	s.once.Do(func() {
		wav := audio.ToneWAV(s.sampleRate, audio.ToneDuration, audio.ToneFrequency)
		s.path = filepath.Join(os.TempDir(), fmt.Sprintf("bingobg-tone-%d.wav", s.sampleRate))
		s.err = os.WriteFile(s.path, wav, 0644)
	})
	if s.err != nil {
		return fmt.Errorf("%w: writing tone: %v", ErrPlaybackBlocked, s.err)
	}

	return s.player.Play(ctx, s.path)
}
