package audio

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements Provider interface for OpenAI TTS
type OpenAIProvider struct {
	client      *openai.Client
	config      *Config
	cacheDir    string
	enableCache bool
	log         zerolog.Logger
}

// NewOpenAIProvider creates a new OpenAI TTS provider
func NewOpenAIProvider(config *Config) (Provider, error) {
	if config.OpenAIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	provider := &OpenAIProvider{
		client:      openai.NewClient(config.OpenAIKey),
		config:      config,
		cacheDir:    config.CacheDir,
		enableCache: config.EnableCache,
		log:         zerolog.Nop(),
	}

	if provider.enableCache && provider.cacheDir != "" {
		if err := os.MkdirAll(provider.cacheDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	return provider, nil
}

// SetLogger attaches a logger for request tracing
func (p *OpenAIProvider) SetLogger(log zerolog.Logger) {
	p.log = log
}

// GenerateAudio renders a number phrase using OpenAI TTS
func (p *OpenAIProvider) GenerateAudio(ctx context.Context, text string, outputFile string) error {
	if err := ValidateBulgarianText(text); err != nil {
		return err
	}

	format, outputFile := speechFormat(outputFile)

	if p.enableCache {
		cacheFile := p.getCacheFilePath(text, string(format))
		if _, err := os.Stat(cacheFile); err == nil {
			p.log.Debug().Str("text", text).Str("cache", cacheFile).Msg("OpenAI TTS cache hit")
			return copyFile(cacheFile, outputFile)
		}
	}

	phrase := cleanPhrase(text)
	p.log.Debug().
		Str("model", p.config.OpenAIModel).
		Str("voice", p.config.OpenAIVoice).
		Float64("speed", p.config.OpenAISpeed).
		Str("input", phrase).
		Msg("OpenAI TTS request")

	req := openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(p.config.OpenAIModel),
		Input:          phrase,
		Voice:          openai.SpeechVoice(p.config.OpenAIVoice),
		Speed:          p.config.OpenAISpeed,
		ResponseFormat: format,
	}
	if p.supportsInstructions() {
		req.Instructions = p.config.OpenAIInstruction
	}

	response, err := p.client.CreateSpeech(ctx, req)
	if err != nil {
		if strings.Contains(err.Error(), "does not have access to model") && p.supportsInstructions() {
			return fmt.Errorf("OpenAI TTS API error: %w\nNote: The %s model requires access. Try using --openai-model tts-1-hd instead", err, p.config.OpenAIModel)
		}
		return fmt.Errorf("OpenAI TTS API error: %w", err)
	}
	defer response.Close()

	if err := writeAudio(outputFile, response); err != nil {
		return fmt.Errorf("no audio from OpenAI: %w", err)
	}

	if p.enableCache {
		cacheFile := p.getCacheFilePath(text, string(format))
		if err := copyFile(outputFile, cacheFile); err != nil {
			p.log.Warn().Err(err).Msg("Failed to cache OpenAI clip")
		}
	}

	return nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// IsAvailable only checks the key; a test request would cost credits
func (p *OpenAIProvider) IsAvailable() error {
	if p.config.OpenAIKey == "" {
		return fmt.Errorf("OpenAI API key not configured")
	}
	return nil
}

func (p *OpenAIProvider) supportsInstructions() bool {
	if p.config.OpenAIInstruction == "" {
		return false
	}
	return p.config.OpenAIModel == "gpt-4o-mini-tts" || p.config.OpenAIModel == "gpt-4o-mini-audio-preview"
}

// getCacheFilePath derives a cache path from the phrase and voice settings
func (p *OpenAIProvider) getCacheFilePath(text, format string) string {
	h := md5.New()
	h.Write([]byte(text))
	h.Write([]byte(p.config.OpenAIModel))
	h.Write([]byte(p.config.OpenAIVoice))
	h.Write([]byte(fmt.Sprintf("%.2f", p.config.OpenAISpeed)))
	if p.supportsInstructions() {
		h.Write([]byte(p.config.OpenAIInstruction))
	}
	hash := hex.EncodeToString(h.Sum(nil))

	// Two-character fan-out keeps directories small
	return filepath.Join(p.cacheDir, hash[:2], hash[2:]+"."+format)
}

// speechFormat picks the response format from the file extension, appending
// .mp3 when there is none
func speechFormat(outputFile string) (openai.SpeechResponseFormat, string) {
	switch strings.ToLower(filepath.Ext(outputFile)) {
	case ".mp3":
		return openai.SpeechResponseFormatMp3, outputFile
	case ".wav":
		return openai.SpeechResponseFormatWav, outputFile
	case ".opus":
		return openai.SpeechResponseFormatOpus, outputFile
	case ".aac":
		return openai.SpeechResponseFormatAac, outputFile
	case ".flac":
		return openai.SpeechResponseFormatFlac, outputFile
	case "":
		return openai.SpeechResponseFormatMp3, outputFile + ".mp3"
	default:
		return openai.SpeechResponseFormatMp3, outputFile
	}
}

// cleanPhrase strips punctuation the TTS engines would otherwise read aloud
func cleanPhrase(text string) string {
	cleaned := strings.TrimSpace(text)

	for _, punct := range []string{"!", "?", ".", ",", ";", ":", "\"", "'", "(", ")", "[", "]", "{", "}", "-", "—", "–"} {
		cleaned = strings.ReplaceAll(cleaned, punct, "")
	}

	return strings.Join(strings.Fields(cleaned), " ")
}

// writeAudio streams r into path, creating parent directories
func writeAudio(path string, r io.Reader) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	written, err := io.Copy(out, r)
	if err != nil {
		return fmt.Errorf("failed to write audio file: %w", err)
	}
	if written == 0 {
		return fmt.Errorf("empty audio stream")
	}

	return nil
}

// copyFile copies a file from src to dst
func copyFile(src, dst string) error {
	dir := filepath.Dir(dst)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	destination, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destination.Close()

	_, err = io.Copy(destination, source)
	return err
}
