package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"
)

// MockPlayer records played files
type MockPlayer struct {
	mu     sync.Mutex
	Err    error
	Played []string
	// Block makes Play wait until the context is done
	Block bool
}

// Play records path and returns Err
func (m *MockPlayer) Play(ctx context.Context, path string) error {
	m.mu.Lock()
	m.Played = append(m.Played, path)
	err, block := m.Err, m.Block
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

// Calls returns a copy of the played paths
func (m *MockPlayer) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Played...)
}

// SetErr changes the error returned by Play
func (m *MockPlayer) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}

// MockSpeaker records utterances
type MockSpeaker struct {
	mu      sync.Mutex
	Err     error
	Spoken  []string
	Cancels int
	// Started receives the text of each utterance when non-nil
	Started chan string
	// Block makes Speak wait until the context is done
	Block bool
}

// Speak records text and returns Err
func (m *MockSpeaker) Speak(ctx context.Context, text string) error {
	m.mu.Lock()
	m.Spoken = append(m.Spoken, text)
	err, block, started := m.Err, m.Block, m.Started
	m.mu.Unlock()

	if started != nil {
		started <- text
	}
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

// Cancel counts cancellations
func (m *MockSpeaker) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Cancels++
}

// Utterances returns a copy of the spoken phrases
func (m *MockSpeaker) Utterances() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Spoken...)
}

// SetErr changes the error returned by Speak
func (m *MockSpeaker) SetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Err = err
}

// MockToneSink counts beeps
type MockToneSink struct {
	mu    sync.Mutex
	Err   error
	Beeps int
}

// Beep counts the call and returns Err
func (m *MockToneSink) Beep(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Beeps++
	return m.Err
}

// Count returns the number of beeps
func (m *MockToneSink) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Beeps
}

// MockProvider is a TTS provider writing fixed data
type MockProvider struct {
	mu       sync.Mutex
	Data     []byte
	Errors   map[string]error
	Texts    []string
	NameStr  string
	Unusable error
}

// GenerateAudio writes Data to outputFile unless an error is set for text
func (m *MockProvider) GenerateAudio(ctx context.Context, text string, outputFile string) error {
	m.mu.Lock()
	m.Texts = append(m.Texts, text)
	err := m.Errors[text]
	data := m.Data
	m.mu.Unlock()

	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if data == nil {
		data = MP3Data
	}
	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		return fmt.Errorf("mock provider: %w", err)
	}
	return nil
}

// Name returns the configured name
func (m *MockProvider) Name() string {
	if m.NameStr == "" {
		return "mock"
	}
	return m.NameStr
}

// IsAvailable returns Unusable
func (m *MockProvider) IsAvailable() error {
	return m.Unusable
}

// Calls returns the texts requested so far
func (m *MockProvider) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.Texts...)
}
