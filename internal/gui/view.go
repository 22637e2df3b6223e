package gui

import (
	"fmt"
	"strconv"
	"time"

	"codeberg.org/snonux/bingobg/internal/caller"
)

// Board texts
const (
	DefaultTitle = "Бинго BG"

	labelStart   = "Старт"
	labelPause   = "Пауза"
	labelStep    = "Следващо"
	labelReset   = "Ново теглене"
	labelCurrent = "Текущо число"
	cellTooltip  = "Кликни, за да чуеш числото"
	idleNumber   = "–"
)

// Columns of the number grid; 90 numbers fill nine rows
const gridColumns = 10

func playLabel(s caller.Snapshot) string {
	if s.Playing {
		return labelPause
	}
	return labelStart
}

// bigText is the countdown while it runs, else the current number
func bigText(s caller.Snapshot) string {
	if s.State == caller.StateCountdown {
		return strconv.Itoa(s.Countdown)
	}
	if s.HasCurrent() {
		return strconv.Itoa(s.Current)
	}
	return idleNumber
}

// captionText is hidden on a fresh board
func captionText(s caller.Snapshot) string {
	if s.State == caller.StateIdle && !s.HasCurrent() {
		return ""
	}
	return labelCurrent
}

func audioStatusText(blocked bool) string {
	if blocked {
		return "Аудио статус: ❌"
	}
	return "Аудио статус: ✅"
}

func drawnText(s caller.Snapshot) string {
	return fmt.Sprintf("Изтеглени: %d / %d", len(s.Drawn), s.Total)
}

func intervalLabel(d time.Duration) string {
	return fmt.Sprintf("%ds", int(d/time.Second))
}

func intervalOptions() []string {
	opts := make([]string, len(caller.Intervals))
	for i, d := range caller.Intervals {
		opts[i] = intervalLabel(d)
	}
	return opts
}

// parseIntervalLabel maps a select option back to its interval
func parseIntervalLabel(label string) (time.Duration, bool) {
	for _, d := range caller.Intervals {
		if intervalLabel(d) == label {
			return d, true
		}
	}
	return 0, false
}

// controlsEnabled returns whether start and step may be used
func controlsEnabled(s caller.Snapshot) (start, step bool) {
	finished := s.State == caller.StateFinished
	return !finished, !finished && !s.Playing
}
