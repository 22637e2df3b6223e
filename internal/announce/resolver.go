package announce

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"codeberg.org/snonux/bingobg/internal/numbers"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// Strategy names which step of the chain produced the sound
type Strategy string

const (
	StrategyCachedClip Strategy = "cached-clip"
	StrategyClip       Strategy = "clip"
	StrategySpeech     Strategy = "speech"
	StrategyTone       Strategy = "tone"
)

// Options configure a Resolver
type Options struct {
	ClipsDir    string
	LoadTimeout time.Duration
	// Beep plays the tone after successful speech as an extra cue
	Beep      bool
	Overrides numbers.Overrides
	// BreakerFailures consecutive speech failures open the breaker for
	// BreakerCooldown
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// DefaultOptions returns the resolver defaults
func DefaultOptions() Options {
	return Options{
		ClipsDir:        "public/audio/bg",
		LoadTimeout:     LoadTimeout,
		Beep:            true,
		BreakerFailures: 3,
		BreakerCooldown: 30 * time.Second,
	}
}

// Result reports how a number was announced
type Result struct {
	Number   int
	Tag      uint64
	Strategy Strategy
}

// Resolver announces numbers through the clip, speech and tone chain
type Resolver struct {
	opts    Options
	cache   *ClipCache
	player  Player
	speaker Speaker
	tone    ToneSink
	breaker *gobreaker.CircuitBreaker
	log     zerolog.Logger

	mu         sync.Mutex
	latest     uint64
	blocked    bool
	listeners  []func(blocked bool)
	cancelDraw context.CancelFunc
	wg         sync.WaitGroup
}

// NewResolver wires the strategies. speaker may be nil when no speech
// engine is installed.
func NewResolver(opts Options, player Player, speaker Speaker, tone ToneSink, log zerolog.Logger) *Resolver {
	def := DefaultOptions()
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = def.LoadTimeout
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = def.BreakerFailures
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = def.BreakerCooldown
	}

	r := &Resolver{
		opts:    opts,
		cache:   NewClipCache(opts.ClipsDir, opts.LoadTimeout),
		player:  player,
		speaker: speaker,
		tone:    tone,
		log:     log.With().Str("component", "announce").Logger(),
	}

	r.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "speech",
		Timeout: opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.BreakerFailures
		},
		// Cancelled utterances say nothing about the engine
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			r.log.Warn().Str("breaker", name).Stringer("from", from).Stringer("to", to).Msg("Speech breaker state changed")
		},
	})

	return r
}

// OnStatus registers a callback for changes of the blocked status
func (r *Resolver) OnStatus(fn func(blocked bool)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Blocked reports whether the last playback attempt was refused
func (r *Resolver) Blocked() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blocked
}

// Cache exposes the clip cache
func (r *Resolver) Cache() *ClipCache {
	return r.cache
}

// NextTag issues the tag of a new draw, making every older tag stale and
// cancelling the announcement in flight
func (r *Resolver) NextTag() (uint64, context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancelDraw != nil {
		r.cancelDraw()
	}
	r.latest++
	ctx, cancel := context.WithCancel(context.Background())
	r.cancelDraw = cancel
	return r.latest, ctx
}

// Draw announces a freshly drawn number in the background
func (r *Resolver) Draw(n int) uint64 {
	tag, ctx := r.NextTag()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		res, err := r.Announce(ctx, n, tag)
		switch {
		case err == nil:
			r.log.Debug().Int("number", n).Str("strategy", string(res.Strategy)).Msg("Number announced")
		case errors.Is(err, ErrStale), errors.Is(err, context.Canceled):
			r.log.Debug().Int("number", n).Uint64("tag", tag).Msg("Announcement dropped")
		default:
			r.log.Warn().Err(err).Int("number", n).Msg("Announcement failed")
		}
	}()

	return tag
}

// Preview announces n for a manual cell activation. It does not take part
// in draw staleness.
func (r *Resolver) Preview(ctx context.Context, n int) (Result, error) {
	return r.announce(ctx, n, 0)
}

// Announce plays n for the draw identified by tag
func (r *Resolver) Announce(ctx context.Context, n int, tag uint64) (Result, error) {
	if tag == 0 {
		return Result{}, fmt.Errorf("draw tag must be positive")
	}
	return r.announce(ctx, n, tag)
}

// Cancel stops speech and drops every announcement in flight
func (r *Resolver) Cancel() {
	r.mu.Lock()
	if r.cancelDraw != nil {
		r.cancelDraw()
		r.cancelDraw = nil
	}
	r.latest++
	r.mu.Unlock()

	if r.speaker != nil {
		r.speaker.Cancel()
	}
}

// Wait blocks until background announcements have returned
func (r *Resolver) Wait() {
	r.wg.Wait()
}

// Close cancels everything and releases downloaded clips
func (r *Resolver) Close() error {
	r.Cancel()
	r.Wait()
	return r.cache.Close()
}

func (r *Resolver) announce(ctx context.Context, n int, tag uint64) (Result, error) {
	if n < 1 || n > numbers.Max {
		return Result{}, fmt.Errorf("%w: %d", numbers.ErrOutOfRange, n)
	}
	res := Result{Number: n, Tag: tag}

	if err := r.checkStale(tag); err != nil {
		return res, err
	}

	// A cached clip is final: its playback error is reported, not retried
	if clip, known := r.cache.Lookup(n); known && clip != nil {
		res.Strategy = StrategyCachedClip
		return res, r.playClip(ctx, clip, tag)
	} else if !known {
		clip, err := r.cache.Load(ctx, n)
		if err == nil {
			res.Strategy = StrategyClip
			return res, r.playClip(ctx, clip, tag)
		}
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		r.log.Debug().Err(err).Int("number", n).Msg("No clip, trying speech")
	}

	if err := r.checkStale(tag); err != nil {
		return res, err
	}

	speechErr := r.speak(ctx, r.opts.Overrides.Phrase(n))
	if speechErr == nil {
		res.Strategy = StrategySpeech
		r.setBlocked(false)
		if r.opts.Beep && r.tone != nil {
			if err := r.tone.Beep(ctx); err != nil && ctx.Err() == nil {
				r.log.Debug().Err(err).Msg("Supplementary tone failed")
			}
		}
		return res, nil
	}
	if ctx.Err() != nil {
		return res, ctx.Err()
	}
	r.log.Debug().Err(speechErr).Int("number", n).Msg("Speech failed, falling back to tone")

	if err := r.checkStale(tag); err != nil {
		return res, err
	}

	res.Strategy = StrategyTone
	if r.tone == nil {
		r.setBlocked(true)
		return res, fmt.Errorf("%w: no tone output after %v", ErrPlaybackBlocked, speechErr)
	}
	if err := r.tone.Beep(ctx); err != nil {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		r.setBlocked(true)
		if !errors.Is(err, ErrPlaybackBlocked) {
			err = fmt.Errorf("%w: %v", ErrPlaybackBlocked, err)
		}
		return res, err
	}

	r.setBlocked(false)
	return res, nil
}

func (r *Resolver) playClip(ctx context.Context, clip *Clip, tag uint64) error {
	if err := r.checkStale(tag); err != nil {
		return err
	}

	err := r.player.Play(ctx, clip.Path)
	switch {
	case err == nil:
		r.setBlocked(false)
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		r.setBlocked(true)
		return fmt.Errorf("playing clip %s: %w", clip.Path, err)
	}
}

func (r *Resolver) speak(ctx context.Context, phrase string) error {
	if r.speaker == nil {
		return ErrNoSpeech
	}

	_, err := r.breaker.Execute(func() (interface{}, error) {
		return nil, r.speaker.Speak(ctx, phrase)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrNoSpeech, err)
	}
	return err
}

// checkStale fails for draw tags that are no longer the latest; tag 0 is
// never stale
func (r *Resolver) checkStale(tag uint64) error {
	if tag == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if tag != r.latest {
		return ErrStale
	}
	return nil
}

func (r *Resolver) setBlocked(blocked bool) {
	r.mu.Lock()
	if r.blocked == blocked {
		r.mu.Unlock()
		return
	}
	r.blocked = blocked
	listeners := append([]func(bool){}, r.listeners...)
	r.mu.Unlock()

	if blocked {
		r.log.Warn().Msg("Audio playback blocked")
	} else {
		r.log.Info().Msg("Audio playback available")
	}
	for _, fn := range listeners {
		fn(blocked)
	}
}
