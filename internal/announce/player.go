package announce

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// Player plays an audio file and returns once playback has finished
type Player interface {
	Play(ctx context.Context, path string) error
}

// ExecPlayer plays files with a platform command line player
type ExecPlayer struct {
	// Command overrides player discovery, e.g. "mpv --no-video"
	Command string

	lookPath func(string) (string, error)
}

// NewExecPlayer creates a player; an empty command picks one for the platform
func NewExecPlayer(command string) *ExecPlayer {
	return &ExecPlayer{Command: command, lookPath: exec.LookPath}
}

// Play runs the player for path and waits for it to exit
func (p *ExecPlayer) Play(ctx context.Context, path string) error {
	name, args, err := p.commandFor(path)
	if err != nil {
		return err
	}

	output, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return fmt.Errorf("%w: %s exited with %d: %s", ErrPlaybackBlocked, name, exitErr.ExitCode(), strings.TrimSpace(string(output)))
	}
	return fmt.Errorf("%w: %v", ErrPlaybackBlocked, err)
}

// commandFor picks the player command line for the platform. mpg123 comes
// first on Linux for MP3 clips; WAV files go to the next installed player.
func (p *ExecPlayer) commandFor(path string) (string, []string, error) {
	if fields := strings.Fields(p.Command); len(fields) > 0 {
		return fields[0], append(fields[1:], path), nil
	}

	switch runtime.GOOS {
	case "darwin":
		return "afplay", []string{path}, nil
	case "linux", "freebsd", "openbsd":
		candidates := []struct {
			name string
			args []string
		}{
			{"mpg123", []string{"-q", path}},
			{"ffplay", []string{"-nodisp", "-autoexit", "-loglevel", "quiet", path}},
			{"play", []string{"-q", path}},
			{"paplay", []string{path}},
			{"aplay", []string{"-q", path}},
		}
		ext := strings.ToLower(filepath.Ext(path))
		for _, c := range candidates {
			// aplay and paplay cannot decode MP3, mpg123 only decodes MPEG audio
			if (c.name == "aplay" || c.name == "paplay") && ext == ".mp3" {
				continue
			}
			if c.name == "mpg123" && ext == ".wav" {
				continue
			}
			if _, err := p.lookPath(c.name); err == nil {
				return c.name, c.args, nil
			}
		}
		return "", nil, fmt.Errorf("%w: no audio player found, install mpg123, ffplay, sox, paplay or aplay", ErrPlaybackBlocked)
	case "windows":
		return "powershell", []string{"-NoProfile", "-Command",
			fmt.Sprintf("(New-Object Media.SoundPlayer '%s').PlaySync()", path)}, nil
	default:
		return "", nil, fmt.Errorf("%w: unsupported platform %s", ErrPlaybackBlocked, runtime.GOOS)
	}
}
