package caller

import (
	"fmt"
	"time"
)

// State of the scheduler
type State int

const (
	StateIdle State = iota
	StateCountdown
	StateRunning
	StatePaused
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateCountdown:
		return "countdown"
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	case StateFinished:
		return "finished"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText renders the state as its name
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// EventKind tells listeners what changed
type EventKind int

const (
	// EventState is published on every state transition and interval change
	EventState EventKind = iota
	// EventCountdown carries the new countdown value in Snapshot.Countdown
	EventCountdown
	// EventDraw carries the freshly drawn Number and its Index in the order
	EventDraw
	// EventProgress is published on every animation frame while running
	EventProgress
	// EventReset is published after a new order has been shuffled
	EventReset
)

func (k EventKind) String() string {
	switch k {
	case EventState:
		return "state"
	case EventCountdown:
		return "countdown"
	case EventDraw:
		return "draw"
	case EventProgress:
		return "progress"
	case EventReset:
		return "reset"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is delivered to listeners registered with Subscribe
type Event struct {
	Kind     EventKind
	Number   int
	Index    int
	Snapshot Snapshot

	done chan struct{}
}

// Listener receives scheduler events on the dispatch goroutine
type Listener func(Event)

// Snapshot is an immutable view of the scheduler
type Snapshot struct {
	State     State         `json:"state"`
	Playing   bool          `json:"playing"`
	Cursor    int           `json:"cursor"`
	Current   int           `json:"current"`
	Countdown int           `json:"countdown"`
	Drawn     []int         `json:"drawn"`
	Progress  float64       `json:"progress"`
	Interval  time.Duration `json:"-"`
	Total     int           `json:"total"`
	Seq       uint64        `json:"seq"`
	GameID    string        `json:"game_id"`
}

// IntervalMillis is the configured draw interval in milliseconds
func (s Snapshot) IntervalMillis() int64 {
	return s.Interval.Milliseconds()
}

// Remaining is how many numbers are still in the bag
func (s Snapshot) Remaining() int {
	return s.Total - len(s.Drawn)
}

// HasCurrent reports whether a number has been drawn yet
func (s Snapshot) HasCurrent() bool {
	return s.Cursor >= 0
}
