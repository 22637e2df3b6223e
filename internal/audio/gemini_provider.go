package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"google.golang.org/genai"
)

const geminiSampleRate = 24000

// GeminiProvider implements Provider with Gemini speech generation. Gemini
// returns raw PCM, which is wrapped into WAV and converted to MP3 on demand.
type GeminiProvider struct {
	config *Config
	// synthesize returns PCM samples and their MIME type
	synthesize func(ctx context.Context, text string) ([]byte, string, error)
}

// NewGeminiProvider creates a Gemini TTS provider
func NewGeminiProvider(ctx context.Context, config *Config) (Provider, error) {
	if config.GeminiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.GeminiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	p := &GeminiProvider{config: config}
	p.synthesize = func(ctx context.Context, text string) ([]byte, string, error) {
		return geminiSpeech(ctx, client, config, text)
	}
	return p, nil
}

func geminiSpeech(ctx context.Context, client *genai.Client, config *Config, text string) ([]byte, string, error) {
	prompt := fmt.Sprintf("Say in Bulgarian, clearly, like a bingo caller: %s", text)

	resp, err := client.Models.GenerateContent(ctx, config.GeminiModel, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseModalities: []string{"AUDIO"},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: config.GeminiVoice},
			},
		},
	})
	if err != nil {
		return nil, "", fmt.Errorf("Gemini TTS API error: %w", err)
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return part.InlineData.Data, part.InlineData.MIMEType, nil
			}
		}
	}

	return nil, "", fmt.Errorf("no audio data received from Gemini")
}

// GenerateAudio renders text into a WAV or MP3 clip
func (p *GeminiProvider) GenerateAudio(ctx context.Context, text string, outputFile string) error {
	if err := ValidateBulgarianText(text); err != nil {
		return err
	}

	pcm, mime, err := p.synthesize(ctx, cleanPhrase(text))
	if err != nil {
		return err
	}
	wav := PCMToWAV(pcm, pcmRate(mime))

	ext := strings.ToLower(filepath.Ext(outputFile))
	if ext == ".wav" {
		return writeAudio(outputFile, bytes.NewReader(wav))
	}
	if ext == "" {
		outputFile += ".mp3"
	}

	tempWAV := strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + "_temp.wav"
	if err := writeAudio(tempWAV, bytes.NewReader(wav)); err != nil {
		return err
	}
	defer os.Remove(tempWAV)

	return ConvertWAVToMP3(ctx, tempWAV, outputFile)
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// IsAvailable checks that a key is configured
func (p *GeminiProvider) IsAvailable() error {
	if p.config.GeminiKey == "" {
		return fmt.Errorf("Gemini API key not configured")
	}
	return nil
}

// pcmRate reads the rate parameter of an "audio/L16;codec=pcm;rate=24000"
// MIME type
func pcmRate(mime string) int {
	for _, param := range strings.Split(mime, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || strings.ToLower(key) != "rate" {
			continue
		}
		if rate, err := strconv.Atoi(value); err == nil && rate > 0 {
			return rate
		}
	}
	return geminiSampleRate
}
