package audio

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// ESpeakConfig holds configuration for espeak-ng speech
type ESpeakConfig struct {
	Voice     string // Voice or language (e.g. "bg", "bg+m1", "en")
	Speed     int    // Words per minute
	Pitch     int    // 0 to 99
	Amplitude int    // 0 to 200
}

// DefaultConfig returns the default configuration for Bulgarian voice. The
// speed is slightly below espeak-ng's default of 175 so numbers are clear.
func DefaultConfig() *ESpeakConfig {
	return &ESpeakConfig{
		Voice:     "bg",
		Speed:     166,
		Pitch:     50,
		Amplitude: 100,
	}
}

// Voice is one entry of `espeak-ng --voices`
type Voice struct {
	Language string
	Name     string
	File     string
}

// ESpeak drives the espeak-ng binary
type ESpeak struct {
	config *ESpeakConfig
	binary string
}

// New creates a new ESpeak instance with the given configuration
func New(config *ESpeakConfig) (*ESpeak, error) {
	if err := checkESpeakInstalled(); err != nil {
		return nil, err
	}

	if config == nil {
		config = DefaultConfig()
	}

	return &ESpeak{config: config, binary: "espeak-ng"}, nil
}

// GenerateAudio renders text into a WAV file
func (e *ESpeak) GenerateAudio(ctx context.Context, text string, outputFile string) error {
	if text == "" {
		return fmt.Errorf("text cannot be empty")
	}

	dir := filepath.Dir(outputFile)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	args := append(e.args(e.config.Voice), "-w", outputFile, text)
	output, err := exec.CommandContext(ctx, e.binary, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("espeak-ng failed: %w\nOutput: %s", err, string(output))
	}

	return nil
}

// GenerateMP3 renders text into an MP3 file through a temporary WAV
func (e *ESpeak) GenerateMP3(ctx context.Context, text string, outputFile string) error {
	tempWAV := strings.TrimSuffix(outputFile, filepath.Ext(outputFile)) + "_temp.wav"

	if err := e.GenerateAudio(ctx, text, tempWAV); err != nil {
		return err
	}
	defer os.Remove(tempWAV)

	return ConvertWAVToMP3(ctx, tempWAV, outputFile)
}

// Command builds the command speaking text aloud on the default output
// device with the given voice; an empty voice uses the configured one
func (e *ESpeak) Command(ctx context.Context, text, voice string) *exec.Cmd {
	if voice == "" {
		voice = e.config.Voice
	}
	args := append(e.args(voice), text)
	return exec.CommandContext(ctx, e.binary, args...)
}

// Voices lists the voices installed with espeak-ng
func (e *ESpeak) Voices(ctx context.Context) ([]Voice, error) {
	output, err := exec.CommandContext(ctx, e.binary, "--voices").Output()
	if err != nil {
		return nil, fmt.Errorf("failed to list espeak-ng voices: %w", err)
	}
	return ParseVoices(string(output)), nil
}

// SetSpeed updates the speech speed
func (e *ESpeak) SetSpeed(speed int) {
	if speed < 80 {
		speed = 80
	} else if speed > 450 {
		speed = 450
	}
	e.config.Speed = speed
}

func (e *ESpeak) args(voice string) []string {
	return []string{
		"-v", voice,
		"-s", strconv.Itoa(e.config.Speed),
		"-p", strconv.Itoa(e.config.Pitch),
		"-a", strconv.Itoa(e.config.Amplitude),
	}
}

// ParseVoices parses the table printed by `espeak-ng --voices`
func ParseVoices(output string) []Voice {
	var voices []Voice

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 5 || fields[0] == "Pty" {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			continue
		}
		voices = append(voices, Voice{
			Language: fields[1],
			Name:     fields[3],
			File:     fields[4],
		})
	}

	return voices
}

// SelectVoice returns the first voice whose language starts with one of the
// prefixes, tried in order, and otherwise the first voice at all
func SelectVoice(voices []Voice, prefixes ...string) (Voice, bool) {
	for _, prefix := range prefixes {
		for _, v := range voices {
			if strings.HasPrefix(strings.ToLower(v.Language), prefix) {
				return v, true
			}
		}
	}

	if len(voices) > 0 {
		return voices[0], true
	}
	return Voice{}, false
}

// checkESpeakInstalled verifies that espeak-ng is available on the system
func checkESpeakInstalled() error {
	if _, err := exec.LookPath("espeak-ng"); err != nil {
		return fmt.Errorf("espeak-ng is not installed or not in PATH: %w", err)
	}
	return nil
}

// ConvertWAVToMP3 converts a WAV file to MP3 using ffmpeg
func ConvertWAVToMP3(ctx context.Context, wavFile, mp3File string) error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return fmt.Errorf("ffmpeg is not installed or not in PATH: %w", err)
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", "-i", wavFile, "-acodec", "mp3", "-y", mp3File)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg conversion failed: %w\nOutput: %s", err, string(output))
	}

	return nil
}
