// Package clips pre-renders the spoken clip of every bingo number with a
// text-to-speech provider.
package clips

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"codeberg.org/snonux/bingobg/internal"
	"codeberg.org/snonux/bingobg/internal/audio"
	"codeberg.org/snonux/bingobg/internal/numbers"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Options control a generation run
type Options struct {
	Dir       string
	Format    string // "mp3" or "wav"
	Workers   int
	Overwrite bool
	Overrides numbers.Overrides
	// Numbers limits the run; empty means 1..numbers.Max
	Numbers []int
}

// Failure is a number whose clip could not be rendered
type Failure struct {
	Number int
	Err    error
}

// Report summarizes a generation run
type Report struct {
	Generated []int
	Skipped   []int
	Failed    []Failure
}

// Err returns an error describing the failures, if any
func (r Report) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	return fmt.Errorf("%d of %d clips failed, first: %d: %w",
		len(r.Failed), len(r.Generated)+len(r.Skipped)+len(r.Failed), r.Failed[0].Number, r.Failed[0].Err)
}

// Generate renders <dir>/<n>.<format> for every selected number. Existing
// clips are kept unless Overwrite is set. A failing number does not stop
// the others; only context cancellation aborts the run.
func Generate(ctx context.Context, provider audio.Provider, opts Options, log zerolog.Logger) (Report, error) {
	if opts.Format == "" {
		opts.Format = "mp3"
	}
	if opts.Format != "mp3" && opts.Format != "wav" {
		return Report{}, fmt.Errorf("unsupported clip format: %s", opts.Format)
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return Report{}, fmt.Errorf("failed to create clip directory: %w", err)
	}

	todo := opts.Numbers
	if len(todo) == 0 {
		for n := 1; n <= numbers.Max; n++ {
			todo = append(todo, n)
		}
	}

	for _, n := range todo {
		if n < 1 || n > numbers.Max {
			return Report{}, fmt.Errorf("%w: %d", numbers.ErrOutOfRange, n)
		}
	}

	var (
		mu     sync.Mutex
		report Report
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)

	for _, n := range todo {
		path := filepath.Join(opts.Dir, internal.ClipFileName(n, opts.Format))
		if !opts.Overwrite {
			if info, err := os.Stat(path); err == nil && info.Size() > 0 {
				report.Skipped = append(report.Skipped, n)
				continue
			}
		}

		phrase := opts.Overrides.Phrase(n)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			err := provider.GenerateAudio(gctx, phrase, path)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn().Err(err).Int("number", n).Msg("Clip generation failed")
				os.Remove(path)
				report.Failed = append(report.Failed, Failure{Number: n, Err: err})
				return nil
			}

			log.Info().Int("number", n).Str("phrase", phrase).Str("file", path).Msg("Clip generated")
			report.Generated = append(report.Generated, n)
			return nil
		})
	}

	err := g.Wait()

	sort.Ints(report.Generated)
	sort.Ints(report.Skipped)
	sort.Slice(report.Failed, func(i, j int) bool { return report.Failed[i].Number < report.Failed[j].Number })

	return report, err
}
