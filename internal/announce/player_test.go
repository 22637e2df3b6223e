package announce

import (
	"context"
	"errors"
	"os"
	"runtime"
	"testing"

	"codeberg.org/snonux/bingobg/internal/audio"
	"codeberg.org/snonux/bingobg/internal/testutil"
)

func TestExecPlayerCommandOverride(t *testing.T) {
	p := NewExecPlayer("mpv --no-video")

	name, args, err := p.commandFor("/clips/5.mp3")
	if err != nil {
		t.Fatalf("commandFor() error = %v", err)
	}
	if name != "mpv" || len(args) != 2 || args[0] != "--no-video" || args[1] != "/clips/5.mp3" {
		t.Errorf("commandFor() = %s %v", name, args)
	}
}

func TestExecPlayerDiscovery(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("player discovery order is Linux specific")
	}

	tests := []struct {
		name      string
		installed map[string]bool
		path      string
		want      string
		wantErr   bool
	}{
		{"mpg123 preferred", map[string]bool{"mpg123": true, "aplay": true}, "1.mp3", "mpg123", false},
		{"ffplay next", map[string]bool{"ffplay": true, "play": true}, "1.mp3", "ffplay", false},
		{"aplay for wav", map[string]bool{"aplay": true}, "1.wav", "aplay", false},
		{"mpg123 skipped for wav", map[string]bool{"mpg123": true, "aplay": true}, "1.wav", "aplay", false},
		{"mpg123 skipped for tone", map[string]bool{"mpg123": true, "paplay": true}, "/tmp/tone.WAV", "paplay", false},
		{"mpg123 alone cannot play wav", map[string]bool{"mpg123": true}, "1.wav", "", true},
		{"aplay cannot play mp3", map[string]bool{"aplay": true}, "1.mp3", "", true},
		{"nothing installed", map[string]bool{}, "1.wav", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewExecPlayer("")
			p.lookPath = func(name string) (string, error) {
				if tt.installed[name] {
					return "/usr/bin/" + name, nil
				}
				return "", errors.New("not found")
			}

			name, _, err := p.commandFor(tt.path)
			if tt.wantErr {
				if !errors.Is(err, ErrPlaybackBlocked) {
					t.Errorf("commandFor() error = %v, want ErrPlaybackBlocked", err)
				}
				return
			}
			if err != nil || name != tt.want {
				t.Errorf("commandFor() = %s, %v; want %s", name, err, tt.want)
			}
		})
	}
}

func TestExecPlayerPlay(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses POSIX true/false")
	}

	if err := NewExecPlayer("true").Play(context.Background(), "x.mp3"); err != nil {
		t.Errorf("Play() with a succeeding player error = %v", err)
	}

	err := NewExecPlayer("false").Play(context.Background(), "x.mp3")
	if !errors.Is(err, ErrPlaybackBlocked) {
		t.Errorf("Play() with a failing player error = %v, want ErrPlaybackBlocked", err)
	}
}

func TestFileToneSink(t *testing.T) {
	player := &testutil.MockPlayer{}
	sink := NewFileToneSink(player, 8000)

	for i := 0; i < 2; i++ {
		if err := sink.Beep(context.Background()); err != nil {
			t.Fatalf("Beep() error = %v", err)
		}
	}

	played := player.Calls()
	if len(played) != 2 || played[0] != played[1] {
		t.Fatalf("played = %v, want the same tone file twice", played)
	}
	t.Cleanup(func() { os.Remove(played[0]) })

	testutil.AssertFileContent(t, played[0], audio.ToneWAV(8000, audio.ToneDuration, audio.ToneFrequency))
}
