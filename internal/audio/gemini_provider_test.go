package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestGeminiProviderWAV(t *testing.T) {
	var gotText string
	p := &GeminiProvider{
		config: &Config{GeminiKey: "test-key"},
		synthesize: func(ctx context.Context, text string) ([]byte, string, error) {
			gotText = text
			return []byte{1, 0, 2, 0}, "audio/L16;codec=pcm;rate=24000", nil
		},
	}

	out := filepath.Join(t.TempDir(), "clips", "12.wav")
	if err := p.GenerateAudio(context.Background(), "дванадесет!", out); err != nil {
		t.Fatalf("GenerateAudio() error = %v", err)
	}

	if gotText != "дванадесет" {
		t.Errorf("synthesized text = %q, want cleaned phrase", gotText)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	if len(data) != 48 || string(data[:4]) != "RIFF" {
		t.Errorf("output is not the wrapped WAV: %d bytes", len(data))
	}
}

func TestGeminiProviderErrors(t *testing.T) {
	p := &GeminiProvider{
		config: &Config{GeminiKey: "test-key"},
		synthesize: func(ctx context.Context, text string) ([]byte, string, error) {
			return nil, "", errors.New("quota exceeded")
		},
	}

	if err := p.GenerateAudio(context.Background(), "one", "1.wav"); err == nil {
		t.Error("expected validation error for Latin text")
	}
	if err := p.GenerateAudio(context.Background(), "едно", filepath.Join(t.TempDir(), "1.wav")); err == nil {
		t.Error("expected synthesis error to propagate")
	}
}

func TestGeminiIsAvailable(t *testing.T) {
	if err := (&GeminiProvider{config: &Config{}}).IsAvailable(); err == nil {
		t.Error("IsAvailable() without key should fail")
	}
	if err := (&GeminiProvider{config: &Config{GeminiKey: "k"}}).IsAvailable(); err != nil {
		t.Errorf("IsAvailable() error = %v", err)
	}
}

func TestPCMRate(t *testing.T) {
	tests := []struct {
		mime string
		want int
	}{
		{"audio/L16;codec=pcm;rate=24000", 24000},
		{"audio/L16; rate=16000", 16000},
		{"audio/L16", geminiSampleRate},
		{"audio/L16;rate=bogus", geminiSampleRate},
	}

	for _, tt := range tests {
		if got := pcmRate(tt.mime); got != tt.want {
			t.Errorf("pcmRate(%q) = %d, want %d", tt.mime, got, tt.want)
		}
	}
}
