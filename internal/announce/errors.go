package announce

import "errors"

var (
	// ErrPlaybackBlocked means the audio output refused to play
	ErrPlaybackBlocked = errors.New("audio playback blocked")
	// ErrStale means a newer draw superseded the announcement
	ErrStale = errors.New("announcement superseded by a newer draw")
	// ErrNoClip means no usable pre-recorded clip exists for a number
	ErrNoClip = errors.New("no clip for number")
	// ErrNoSpeech means speech synthesis is unavailable or failed
	ErrNoSpeech = errors.New("speech synthesis unavailable")
)
