package server

import (
	"errors"
	"fmt"
	"time"

	"codeberg.org/snonux/bingobg/internal/caller"
	"codeberg.org/snonux/bingobg/internal/numbers"
)

// Intents sent by the page
const (
	IntentStartPause  = "start-pause"
	IntentStep        = "step"
	IntentReset       = "reset"
	IntentSetInterval = "set-interval"
	IntentCell        = "cell"
)

// ErrInvalidIntent is returned for intents the server does not accept
var ErrInvalidIntent = errors.New("invalid intent")

// Intent is a message from the page
type Intent struct {
	Intent string `json:"intent"`
	Value  int    `json:"value,omitempty"`
}

// StateMessage carries the game state to the page
type StateMessage struct {
	Type string `json:"type"`
	caller.Snapshot
	IntervalMillis int64  `json:"interval"`
	AudioBlocked   bool   `json:"audio_blocked"`
	Event          string `json:"event,omitempty"`
	Number         int    `json:"number,omitempty"`
}

// ErrorMessage reports a rejected intent to the page that sent it
type ErrorMessage struct {
	Type   string `json:"type"`
	Intent string `json:"intent,omitempty"`
	Error  string `json:"error"`
}

func newStateMessage(s caller.Snapshot, blocked bool) StateMessage {
	return StateMessage{
		Type:           "state",
		Snapshot:       s,
		IntervalMillis: s.IntervalMillis(),
		AudioBlocked:   blocked,
	}
}

func newErrorMessage(intent string, err error) ErrorMessage {
	return ErrorMessage{Type: "error", Intent: intent, Error: err.Error()}
}

// Validate checks the intent name and its value
func (in Intent) Validate() error {
	switch in.Intent {
	case IntentStartPause, IntentStep, IntentReset:
		return nil
	case IntentSetInterval:
		if !caller.ValidInterval(time.Duration(in.Value) * time.Millisecond) {
			return fmt.Errorf("%w: interval %d ms", ErrInvalidIntent, in.Value)
		}
		return nil
	case IntentCell:
		if in.Value < 1 || in.Value > numbers.Max {
			return fmt.Errorf("%w: cell %d", ErrInvalidIntent, in.Value)
		}
		return nil
	case "":
		return fmt.Errorf("%w: missing intent", ErrInvalidIntent)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidIntent, in.Intent)
	}
}
