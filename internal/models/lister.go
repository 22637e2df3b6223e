package models

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Catalog groups model IDs by what they can do for clip generation
type Catalog struct {
	Speech []string // text-to-speech capable
	Audio  []string // audio chat models, usable with instructions
	Other  int      // models of no use for clips
}

// Categorize sorts model IDs into a Catalog
func Categorize(ids []string) Catalog {
	var c Catalog
	for _, id := range ids {
		switch {
		case strings.Contains(id, "tts"):
			c.Speech = append(c.Speech, id)
		case strings.Contains(id, "audio"):
			c.Audio = append(c.Audio, id)
		default:
			c.Other++
		}
	}
	sort.Strings(c.Speech)
	sort.Strings(c.Audio)
	return c
}

// Lister handles listing available OpenAI models
type Lister struct {
	apiKey string
	client *openai.Client
}

// NewLister creates a new model lister
func NewLister(apiKey string) *Lister {
	return &Lister{
		apiKey: apiKey,
		client: openai.NewClient(apiKey),
	}
}

// ListAvailableModels prints the speech capable models to w
func (l *Lister) ListAvailableModels(ctx context.Context, w io.Writer) error {
	if l.apiKey == "" {
		return fmt.Errorf("OpenAI API key not found. Set OPENAI_API_KEY environment variable or configure in .bingobg.yaml")
	}

	list, err := l.client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}

	ids := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		ids = append(ids, m.ID)
	}

	return Print(w, Categorize(ids))
}

// Print writes a catalog in the CLI's listing format
func Print(w io.Writer, c Catalog) error {
	var b strings.Builder

	b.WriteString("Available OpenAI Models for number clips:\n")
	b.WriteString("\nText-to-Speech (TTS) Models:\n")
	if len(c.Speech) == 0 {
		b.WriteString("  No TTS models found\n")
	}
	for _, id := range c.Speech {
		fmt.Fprintf(&b, "  %s\n", id)
	}

	if len(c.Audio) > 0 {
		b.WriteString("\nAudio Models:\n")
		for _, id := range c.Audio {
			fmt.Fprintf(&b, "  %s\n", id)
		}
	}

	if c.Other > 0 {
		fmt.Fprintf(&b, "\n(%d other models omitted)\n", c.Other)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
