package gui

import (
	"testing"
	"time"

	"codeberg.org/snonux/bingobg/internal/caller"
)

func TestBigText(t *testing.T) {
	tests := []struct {
		name string
		snap caller.Snapshot
		want string
	}{
		{"idle", caller.Snapshot{State: caller.StateIdle, Cursor: -1}, idleNumber},
		{"countdown", caller.Snapshot{State: caller.StateCountdown, Cursor: -1, Countdown: 2, Playing: true}, "2"},
		{"running", caller.Snapshot{State: caller.StateRunning, Cursor: 4, Current: 73, Playing: true}, "73"},
		{"paused", caller.Snapshot{State: caller.StatePaused, Cursor: 0, Current: 9}, "9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := bigText(tt.snap); got != tt.want {
				t.Errorf("bigText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCaptionText(t *testing.T) {
	if got := captionText(caller.Snapshot{State: caller.StateIdle, Cursor: -1}); got != "" {
		t.Errorf("fresh board caption = %q, want empty", got)
	}
	if got := captionText(caller.Snapshot{State: caller.StateCountdown, Cursor: -1}); got != labelCurrent {
		t.Errorf("countdown caption = %q, want %q", got, labelCurrent)
	}
	if got := captionText(caller.Snapshot{State: caller.StateIdle, Cursor: 3}); got != labelCurrent {
		t.Errorf("stepped board caption = %q, want %q", got, labelCurrent)
	}
}

func TestPlayLabel(t *testing.T) {
	if got := playLabel(caller.Snapshot{Playing: true}); got != "Пауза" {
		t.Errorf("playLabel(playing) = %q", got)
	}
	if got := playLabel(caller.Snapshot{}); got != "Старт" {
		t.Errorf("playLabel(stopped) = %q", got)
	}
}

func TestAudioStatusText(t *testing.T) {
	if got := audioStatusText(false); got != "Аудио статус: ✅" {
		t.Errorf("audioStatusText(false) = %q", got)
	}
	if got := audioStatusText(true); got != "Аудио статус: ❌" {
		t.Errorf("audioStatusText(true) = %q", got)
	}
}

func TestIntervalLabels(t *testing.T) {
	opts := intervalOptions()
	want := []string{"3s", "5s", "8s", "10s"}
	if len(opts) != len(want) {
		t.Fatalf("intervalOptions() = %v, want %v", opts, want)
	}
	for i := range want {
		if opts[i] != want[i] {
			t.Errorf("option %d = %q, want %q", i, opts[i], want[i])
		}
		d, ok := parseIntervalLabel(opts[i])
		if !ok || d != caller.Intervals[i] {
			t.Errorf("parseIntervalLabel(%q) = %v, %v", opts[i], d, ok)
		}
	}

	if _, ok := parseIntervalLabel("4s"); ok {
		t.Error("4s is not a selectable interval")
	}
	if got := intervalLabel(10 * time.Second); got != "10s" {
		t.Errorf("intervalLabel(10s) = %q", got)
	}
}

func TestControlsEnabled(t *testing.T) {
	tests := []struct {
		name      string
		snap      caller.Snapshot
		start     bool
		step      bool
	}{
		{"idle", caller.Snapshot{State: caller.StateIdle}, true, true},
		{"running", caller.Snapshot{State: caller.StateRunning, Playing: true}, true, false},
		{"paused", caller.Snapshot{State: caller.StatePaused}, true, true},
		{"finished", caller.Snapshot{State: caller.StateFinished}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, step := controlsEnabled(tt.snap)
			if start != tt.start || step != tt.step {
				t.Errorf("controlsEnabled() = %v, %v, want %v, %v", start, step, tt.start, tt.step)
			}
		})
	}
}
