package processor

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"codeberg.org/snonux/bingobg/internal/audio"
	"codeberg.org/snonux/bingobg/internal/caller"
	"codeberg.org/snonux/bingobg/internal/cli"
	"codeberg.org/snonux/bingobg/internal/numbers"
	"codeberg.org/snonux/bingobg/internal/testutil"
)

func newTestProcessor(t *testing.T, provider *testutil.MockProvider) (*Processor, *bytes.Buffer) {
	t.Helper()

	flags := cli.NewFlags()
	flags.ClipsDir = filepath.Join(t.TempDir(), "audio", "bg")
	flags.Provider = "espeak"

	var out bytes.Buffer
	p := NewProcessor(flags, zerolog.Nop())
	p.out = &out
	p.newProvider = func(ctx context.Context, config *audio.Config) (audio.Provider, error) {
		if config.OutputFormat != flags.Format {
			t.Errorf("provider format = %s, want %s", config.OutputFormat, flags.Format)
		}
		return provider, nil
	}
	p.newFallback = func() (audio.Provider, error) {
		return nil, errors.New("no fallback in tests")
	}
	return p, &out
}

func TestNewProcessor(t *testing.T) {
	flags := cli.NewFlags()
	p := NewProcessor(flags, zerolog.Nop())

	if p == nil {
		t.Fatal("NewProcessor returned nil")
	}
	if p.flags != flags {
		t.Error("Processor flags not set correctly")
	}
	if p.newProvider == nil || p.newFallback == nil {
		t.Error("Provider constructors not initialized")
	}
}

func TestGenerateClips(t *testing.T) {
	provider := &testutil.MockProvider{}
	p, out := newTestProcessor(t, provider)

	report, err := p.GenerateClips(context.Background())
	if err != nil {
		t.Fatalf("GenerateClips() error = %v", err)
	}
	if len(report.Generated) != numbers.Max {
		t.Errorf("generated %d clips, want %d", len(report.Generated), numbers.Max)
	}
	testutil.AssertFileExists(t, filepath.Join(p.flags.ClipsDir, "90.mp3"))

	if !strings.Contains(out.String(), "Generated 90, skipped 0, failed 0") {
		t.Errorf("unexpected summary: %q", out.String())
	}

	// A second run keeps what is there
	report, err = p.GenerateClips(context.Background())
	if err != nil {
		t.Fatalf("second GenerateClips() error = %v", err)
	}
	if len(report.Skipped) != numbers.Max {
		t.Errorf("skipped %d clips on the second run, want %d", len(report.Skipped), numbers.Max)
	}
}

func TestGenerateClipsWithOverridesAndZip(t *testing.T) {
	provider := &testutil.MockProvider{}
	p, _ := newTestProcessor(t, provider)

	overrides := filepath.Join(t.TempDir(), "overrides.txt")
	testutil.CreateTestFile(t, overrides, []byte("# spoken forms\n60 = шейсет\n"))
	p.flags.Overrides = overrides
	p.flags.Zip = filepath.Join(t.TempDir(), "bg.zip")

	if _, err := p.GenerateClips(context.Background()); err != nil {
		t.Fatalf("GenerateClips() error = %v", err)
	}

	found := false
	for _, text := range provider.Calls() {
		if text == "шейсет" {
			found = true
		}
		if text == "шестдесет" {
			t.Error("override was not applied to 60")
		}
	}
	if !found {
		t.Error("provider never received the override phrase")
	}

	zr, err := zip.OpenReader(p.flags.Zip)
	if err != nil {
		t.Fatalf("failed to open zip: %v", err)
	}
	defer zr.Close()
	if len(zr.File) != numbers.Max {
		t.Errorf("zip holds %d files, want %d", len(zr.File), numbers.Max)
	}
}

func TestGenerateClipsFailures(t *testing.T) {
	provider := &testutil.MockProvider{
		Errors: map[string]error{"седем": errors.New("quota exceeded")},
	}
	p, out := newTestProcessor(t, provider)

	report, err := p.GenerateClips(context.Background())
	if err == nil {
		t.Fatal("expected an error for the failed clip")
	}
	if len(report.Failed) != 1 || report.Failed[0].Number != 7 {
		t.Errorf("failed = %+v, want only 7", report.Failed)
	}
	if !strings.Contains(out.String(), "7: quota exceeded") {
		t.Errorf("failure not reported: %q", out.String())
	}
}

func TestGenerateClipsArchive(t *testing.T) {
	provider := &testutil.MockProvider{}
	p, out := newTestProcessor(t, provider)
	p.flags.ClipsDir = testutil.CreateClipsDirectory(t, []int{1}, nil)
	p.flags.Archive = true

	report, err := p.GenerateClips(context.Background())
	if err != nil {
		t.Fatalf("GenerateClips() error = %v", err)
	}
	if len(report.Generated) != numbers.Max {
		t.Errorf("generated %d clips after archiving, want %d", len(report.Generated), numbers.Max)
	}
	if !strings.Contains(out.String(), "Archived existing clips") {
		t.Errorf("archive not reported: %q", out.String())
	}
}

func TestGenerateClipsInvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		modify func(f *cli.Flags)
		want   string
	}{
		{"bad format", func(f *cli.Flags) { f.Format = "ogg" }, "unsupported clip format"},
		{"remote dir", func(f *cli.Flags) { f.ClipsDir = "https://example.com/bg" }, "local directory"},
		{"missing overrides", func(f *cli.Flags) { f.Overrides = "/nonexistent/overrides.txt" }, "overrides"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &testutil.MockProvider{}
			p, _ := newTestProcessor(t, provider)
			tt.modify(p.flags)

			_, err := p.GenerateClips(context.Background())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("GenerateClips() error = %v, want it to mention %q", err, tt.want)
			}
			if len(provider.Calls()) != 0 {
				t.Error("provider must not be called for invalid input")
			}
		})
	}
}

func TestGenerateClipsProviderError(t *testing.T) {
	p, _ := newTestProcessor(t, nil)
	p.newProvider = func(ctx context.Context, config *audio.Config) (audio.Provider, error) {
		return nil, errors.New("OpenAI API key is required")
	}

	if _, err := p.GenerateClips(context.Background()); err == nil || !strings.Contains(err.Error(), "API key") {
		t.Errorf("GenerateClips() error = %v, want provider error", err)
	}
}

func TestNewSessionInvalidConfig(t *testing.T) {
	t.Run("interval", func(t *testing.T) {
		flags := cli.NewFlags()
		flags.Interval = 4 * time.Second
		_, err := NewProcessor(flags, zerolog.Nop()).NewSession()
		if !errors.Is(err, caller.ErrInvalidInterval) {
			t.Errorf("NewSession() error = %v, want ErrInvalidInterval", err)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		flags := cli.NewFlags()
		flags.Overrides = filepath.Join(t.TempDir(), "missing.txt")
		if _, err := NewProcessor(flags, zerolog.Nop()).NewSession(); err == nil {
			t.Error("NewSession() should fail for a missing overrides file")
		}
	})
}

func TestListModelsWithoutKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	p, _ := newTestProcessor(t, nil)

	if err := p.ListModels(context.Background()); err == nil {
		t.Error("ListModels() should fail without an API key")
	}
}

func TestIsInterrupted(t *testing.T) {
	if !IsInterrupted(context.Canceled) {
		t.Error("context.Canceled is an interruption")
	}
	if IsInterrupted(os.ErrNotExist) {
		t.Error("os.ErrNotExist is not an interruption")
	}
}
