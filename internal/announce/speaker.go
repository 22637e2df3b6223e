package announce

import (
	"context"
	"fmt"
	"sync"

	"codeberg.org/snonux/bingobg/internal/audio"
	"github.com/rs/zerolog"
)

// Speaker synthesizes speech live. Speak returns when the utterance ends;
// starting a new utterance cancels the one in progress.
type Speaker interface {
	Speak(ctx context.Context, text string) error
	Cancel()
}

// VoicePreference is the order in which voice languages are picked
var VoicePreference = []string{"bg", "en"}

// ESpeakSpeaker speaks through espeak-ng
type ESpeakSpeaker struct {
	espeak *audio.ESpeak
	voice  string
	log    zerolog.Logger

	voiceOnce sync.Once

	mu     sync.Mutex
	cancel context.CancelFunc
	seq    uint64
}

// NewESpeakSpeaker creates a speaker. An empty voice or "auto" selects a
// Bulgarian voice, else an English one, else whatever is installed.
func NewESpeakSpeaker(voice string, log zerolog.Logger) (*ESpeakSpeaker, error) {
	espeak, err := audio.New(audio.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSpeech, err)
	}
	if voice == "auto" {
		voice = ""
	}

	return &ESpeakSpeaker{
		espeak: espeak,
		voice:  voice,
		log:    log.With().Str("component", "speaker").Logger(),
	}, nil
}

// Speak says text and waits for the utterance to finish
func (s *ESpeakSpeaker) Speak(ctx context.Context, text string) error {
	s.resolveVoice(ctx)

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	uctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.seq++
	id := s.seq
	voice := s.voice
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if s.seq == id {
			s.cancel = nil
		}
		s.mu.Unlock()
		cancel()
	}()

	output, err := s.espeak.Command(uctx, text, voice).CombinedOutput()
	if err != nil {
		if uctx.Err() != nil {
			return uctx.Err()
		}
		return fmt.Errorf("%w: espeak-ng: %v: %s", ErrNoSpeech, err, output)
	}

	return nil
}

// Cancel stops the utterance in progress, if any
func (s *ESpeakSpeaker) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *ESpeakSpeaker) resolveVoice(ctx context.Context) {
	s.voiceOnce.Do(func() {
		s.mu.Lock()
		configured := s.voice
		s.mu.Unlock()
		if configured != "" {
			return
		}

		voices, err := s.espeak.Voices(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("Cannot list voices, using the default")
			return
		}

		v, ok := audio.SelectVoice(voices, VoicePreference...)
		if !ok {
			s.log.Warn().Msg("No espeak-ng voices installed")
			return
		}

		s.mu.Lock()
		s.voice = v.Language
		s.mu.Unlock()
		s.log.Info().Str("voice", v.Language).Str("name", v.Name).Msg("Speech voice selected")
	})
}
