// Package models lists the OpenAI models usable for rendering number clips,
// so users can pick a value for --openai-model.
package models
