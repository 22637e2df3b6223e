package processor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"codeberg.org/snonux/bingobg/internal/announce"
	"codeberg.org/snonux/bingobg/internal/archive"
	"codeberg.org/snonux/bingobg/internal/audio"
	"codeberg.org/snonux/bingobg/internal/batch"
	"codeberg.org/snonux/bingobg/internal/caller"
	"codeberg.org/snonux/bingobg/internal/cli"
	"codeberg.org/snonux/bingobg/internal/clips"
	"codeberg.org/snonux/bingobg/internal/game"
	"codeberg.org/snonux/bingobg/internal/gui"
	"codeberg.org/snonux/bingobg/internal/models"
	"codeberg.org/snonux/bingobg/internal/numbers"
	"codeberg.org/snonux/bingobg/internal/server"
)

// Processor runs the bingobg commands
type Processor struct {
	flags *cli.Flags
	log   zerolog.Logger
	out   io.Writer

	// newProvider builds the TTS provider for clip generation
	newProvider func(ctx context.Context, config *audio.Config) (audio.Provider, error)
	// newFallback builds the provider used when the primary one fails
	newFallback func() (audio.Provider, error)
}

// NewProcessor creates a new processor instance
func NewProcessor(flags *cli.Flags, log zerolog.Logger) *Processor {
	return &Processor{
		flags:       flags,
		log:         log,
		out:         os.Stdout,
		newProvider: audio.NewProvider,
		newFallback: func() (audio.Provider, error) {
			return audio.NewESpeakProvider(nil)
		},
	}
}

// NewSession builds a caller and an announcer from the configuration
func (p *Processor) NewSession() (*game.Session, error) {
	overrides, err := p.overrides()
	if err != nil {
		return nil, err
	}

	cfg := caller.DefaultConfig()
	cfg.Interval = p.flags.Interval
	cfg.Seed = p.flags.Seed
	c, err := caller.New(cfg, p.log)
	if err != nil {
		return nil, err
	}

	player := announce.NewExecPlayer(p.flags.Player)

	// A nil *ESpeakSpeaker must not end up in the interface
	var speaker announce.Speaker
	if !isOff(p.flags.Voice) {
		s, err := announce.NewESpeakSpeaker(p.flags.Voice, p.log)
		if err != nil {
			p.log.Warn().Err(err).Msg("Live speech unavailable")
		} else {
			speaker = s
		}
	}

	var tone announce.ToneSink
	if sink, err := announce.NewOtoToneSink(p.flags.SampleRate); err != nil {
		p.log.Debug().Err(err).Msg("Audio device unavailable, playing the tone through the player")
		tone = announce.NewFileToneSink(player, p.flags.SampleRate)
	} else {
		tone = sink
	}

	opts := announce.DefaultOptions()
	opts.ClipsDir = p.flags.ClipsDir
	opts.Beep = p.flags.Beep
	opts.Overrides = overrides
	r := announce.NewResolver(opts, player, speaker, tone, p.log)

	p.log.Info().
		Str("clips", p.flags.ClipsDir).
		Dur("interval", p.flags.Interval).
		Bool("speech", speaker != nil).
		Str("game_id", c.Snapshot().GameID).
		Msg("Game ready")

	return game.New(c, r, p.log), nil
}

// RunGUIMode launches the desktop board
func (p *Processor) RunGUIMode(logPane *gui.LogViewer) error {
	session, err := p.NewSession()
	if err != nil {
		return err
	}
	defer session.Close()

	app := gui.New(&gui.Config{Title: gui.DefaultTitle}, session, logPane, p.log)
	app.Run()

	return nil
}

// RunServeMode serves the board to browsers until ctx is cancelled
func (p *Processor) RunServeMode(ctx context.Context) error {
	session, err := p.NewSession()
	if err != nil {
		return err
	}
	defer session.Close()

	srv := server.New(server.Config{
		Bind: p.flags.Bind,
		Port: p.flags.Port,
	}, session, p.log)

	if err := srv.Listen(); err != nil {
		return err
	}
	fmt.Fprintf(p.out, "Board available at http://%s\n", srv.Addr())
	return srv.Run(ctx)
}

// GenerateClips renders the number clips with the configured provider
func (p *Processor) GenerateClips(ctx context.Context) (clips.Report, error) {
	format := strings.ToLower(p.flags.Format)
	if format != "mp3" && format != "wav" {
		return clips.Report{}, fmt.Errorf("unsupported clip format %q (use mp3 or wav)", p.flags.Format)
	}
	if strings.HasPrefix(p.flags.ClipsDir, "http://") || strings.HasPrefix(p.flags.ClipsDir, "https://") {
		return clips.Report{}, fmt.Errorf("clips can only be generated into a local directory, not %s", p.flags.ClipsDir)
	}

	overrides, err := p.overrides()
	if err != nil {
		return clips.Report{}, err
	}

	if _, err := os.Stat(p.flags.ClipsDir); err == nil && p.flags.Archive {
		dest, err := archive.ArchiveDir(p.flags.ClipsDir)
		if err != nil {
			return clips.Report{}, fmt.Errorf("failed to archive clips: %w", err)
		}
		fmt.Fprintf(p.out, "Archived existing clips to %s\n", dest)
	}

	provider, err := p.provider(ctx, format)
	if err != nil {
		return clips.Report{}, err
	}
	fmt.Fprintf(p.out, "Generating clips with %s into %s\n", provider.Name(), p.flags.ClipsDir)

	report, err := clips.Generate(ctx, provider, clips.Options{
		Dir:       p.flags.ClipsDir,
		Format:    format,
		Workers:   p.flags.Workers,
		Overwrite: p.flags.Overwrite,
		Overrides: overrides,
	}, p.log)
	if err != nil {
		return report, err
	}

	fmt.Fprintf(p.out, "Generated %d, skipped %d, failed %d\n",
		len(report.Generated), len(report.Skipped), len(report.Failed))
	for _, f := range report.Failed {
		fmt.Fprintf(p.out, "  %d: %v\n", f.Number, f.Err)
	}

	if p.flags.Zip != "" {
		n, err := archive.ZipClips(p.flags.ClipsDir, p.flags.Zip)
		if err != nil {
			return report, fmt.Errorf("failed to zip clips: %w", err)
		}
		fmt.Fprintf(p.out, "Wrote %d clips to %s\n", n, p.flags.Zip)
	}

	return report, report.Err()
}

// ListModels prints the TTS capable models of the OpenAI account
func (p *Processor) ListModels(ctx context.Context) error {
	return models.NewLister(cli.GetOpenAIKey()).ListAvailableModels(ctx, p.out)
}

func (p *Processor) provider(ctx context.Context, format string) (audio.Provider, error) {
	config := audio.DefaultProviderConfig()
	config.Provider = p.flags.Provider
	config.OutputDir = p.flags.ClipsDir
	config.OutputFormat = format
	config.OpenAIKey = cli.GetOpenAIKey()
	config.OpenAIModel = p.flags.OpenAIModel
	config.OpenAIVoice = p.flags.OpenAIVoice
	config.OpenAISpeed = p.flags.OpenAISpeed
	if p.flags.OpenAIInstruction != "" {
		config.OpenAIInstruction = p.flags.OpenAIInstruction
	}
	config.GeminiKey = cli.GetGeminiKey()
	config.GeminiModel = p.flags.GeminiModel
	config.GeminiVoice = p.flags.GeminiVoice
	if !isOff(p.flags.Voice) && p.flags.Voice != "auto" {
		config.ESpeakVoice = p.flags.Voice
	}

	primary, err := p.newProvider(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", p.flags.Provider, err)
	}
	if config.Provider == "espeak" {
		return primary, nil
	}

	fallback, err := p.newFallback()
	if err != nil {
		p.log.Debug().Err(err).Msg("No espeak-ng fallback for clip generation")
		return primary, nil
	}
	return audio.NewProviderWithFallback(primary, fallback, p.log), nil
}

func (p *Processor) overrides() (numbers.Overrides, error) {
	if p.flags.Overrides == "" {
		return nil, nil
	}
	overrides, err := batch.ReadOverridesFile(p.flags.Overrides)
	if err != nil {
		return nil, fmt.Errorf("failed to read overrides: %w", err)
	}
	p.log.Info().Int("count", len(overrides)).Str("file", p.flags.Overrides).Msg("Loaded phrase overrides")
	return overrides, nil
}

// IsInterrupted reports whether err only reflects a cancelled run
func IsInterrupted(err error) bool {
	return errors.Is(err, context.Canceled)
}

func isOff(voice string) bool {
	switch strings.ToLower(voice) {
	case "off", "none", "-":
		return true
	}
	return false
}
