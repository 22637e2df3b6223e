package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"codeberg.org/snonux/bingobg/internal/announce"
	"codeberg.org/snonux/bingobg/internal/caller"
	"codeberg.org/snonux/bingobg/internal/numbers"
)

// PreviewTimeout bounds a manual cell announcement
const PreviewTimeout = 10 * time.Second

// Session is a running game: every draw of the caller is announced and a
// reset silences whatever is being announced
type Session struct {
	Caller   *caller.Caller
	Resolver *announce.Resolver

	log         zerolog.Logger
	ctx         context.Context
	cancel      context.CancelFunc
	unsubscribe func()
	wg          sync.WaitGroup
	closeOnce   sync.Once
}

// New wires c and r together
func New(c *caller.Caller, r *announce.Resolver, log zerolog.Logger) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		Caller:   c,
		Resolver: r,
		log:      log.With().Str("component", "game").Logger(),
		ctx:      ctx,
		cancel:   cancel,
	}

	s.unsubscribe = c.Subscribe(func(ev caller.Event) {
		if ev.Kind != caller.EventDraw {
			return
		}
		// Draws queued before a reset belong to the abandoned game
		if ev.Snapshot.GameID != c.Snapshot().GameID {
			return
		}
		s.log.Info().Int("number", ev.Number).Int("index", ev.Index+1).Msg("Number drawn")
		r.Draw(ev.Number)
	})
	c.OnReset(r.Cancel)

	return s
}

// Preview announces n for a cell activation without touching the draw
func (s *Session) Preview(n int) error {
	if n < 1 || n > numbers.Max {
		return fmt.Errorf("%w: %d", numbers.ErrOutOfRange, n)
	}
	if s.ctx.Err() != nil {
		return s.ctx.Err()
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(s.ctx, PreviewTimeout)
		defer cancel()

		res, err := s.Resolver.Preview(ctx, n)
		switch {
		case err == nil:
			s.log.Debug().Int("number", n).Str("strategy", string(res.Strategy)).Msg("Cell previewed")
		case errors.Is(err, context.Canceled):
		default:
			s.log.Warn().Err(err).Int("number", n).Msg("Cell preview failed")
		}
	}()
	return nil
}

// AudioBlocked reports the last known playback status
func (s *Session) AudioBlocked() bool {
	return s.Resolver.Blocked()
}

// Wait blocks until pending draw events are dispatched and the
// announcements they started have finished
func (s *Session) Wait() {
	s.Caller.Sync()
	s.Resolver.Wait()
	s.wg.Wait()
}

// Close stops the caller and every announcement
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.unsubscribe()
		s.Caller.Close()
		s.cancel()
		s.wg.Wait()
		err = s.Resolver.Close()
	})
	return err
}
