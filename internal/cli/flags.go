package cli

import (
	"time"

	"github.com/spf13/viper"
)

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile    string
	LogLevel   string
	ListModels bool

	// Game flags
	Interval time.Duration
	Seed     int64

	// Announcement flags
	ClipsDir   string
	Beep       bool
	SampleRate int
	Voice      string // espeak-ng voice for live speech, "auto" picks one
	Player     string // external player command, empty means auto-detect

	// Clip generation flags
	Provider  string
	Format    string
	Workers   int
	Overrides string
	Zip       string
	Overwrite bool
	Archive   bool

	// OpenAI flags
	OpenAIModel       string
	OpenAIVoice       string
	OpenAISpeed       float64
	OpenAIInstruction string

	// Gemini flags
	GeminiModel string
	GeminiVoice string

	// Server flags
	Bind string
	Port int
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		LogLevel:    "info",
		Interval:    5 * time.Second,
		ClipsDir:    "public/audio/bg",
		Beep:        true,
		SampleRate:  44100,
		Voice:       "auto",
		Provider:    "openai",
		Format:      "mp3",
		Workers:     4,
		OpenAIModel: "gpt-4o-mini-tts",
		OpenAIVoice: "alloy",
		OpenAISpeed: 1.0,
		GeminiModel: "gemini-2.5-flash-preview-tts",
		GeminiVoice: "Kore",
		Bind:        "127.0.0.1",
		Port:        8090,
	}
}

// Load copies the effective configuration back into the flags. Viper
// resolves the precedence: explicit flag, environment, config file, flag
// default.
func (f *Flags) Load() {
	f.LogLevel = stringOr(viper.GetString("log.level"), f.LogLevel)
	if d := viper.GetDuration("game.interval"); d > 0 {
		f.Interval = d
	}
	if viper.IsSet("game.seed") {
		f.Seed = viper.GetInt64("game.seed")
	}

	f.ClipsDir = stringOr(viper.GetString("audio.clips_dir"), f.ClipsDir)
	if viper.IsSet("audio.beep") {
		f.Beep = viper.GetBool("audio.beep")
	}
	if rate := viper.GetInt("audio.sample_rate"); rate > 0 {
		f.SampleRate = rate
	}
	f.Voice = stringOr(viper.GetString("audio.voice"), f.Voice)
	f.Player = stringOr(viper.GetString("audio.player"), f.Player)

	f.Provider = stringOr(viper.GetString("tts.provider"), f.Provider)
	f.OpenAIModel = stringOr(viper.GetString("tts.openai_model"), f.OpenAIModel)
	f.OpenAIVoice = stringOr(viper.GetString("tts.openai_voice"), f.OpenAIVoice)
	if speed := viper.GetFloat64("tts.openai_speed"); speed > 0 {
		f.OpenAISpeed = speed
	}
	f.OpenAIInstruction = stringOr(viper.GetString("tts.openai_instruction"), f.OpenAIInstruction)
	f.GeminiModel = stringOr(viper.GetString("tts.gemini_model"), f.GeminiModel)
	f.GeminiVoice = stringOr(viper.GetString("tts.gemini_voice"), f.GeminiVoice)

	f.Format = stringOr(viper.GetString("clips.format"), f.Format)
	if workers := viper.GetInt("clips.workers"); workers > 0 {
		f.Workers = workers
	}
	f.Overrides = stringOr(viper.GetString("clips.overrides"), f.Overrides)
	f.Zip = stringOr(viper.GetString("clips.zip"), f.Zip)

	f.Bind = stringOr(viper.GetString("server.bind"), f.Bind)
	if port := viper.GetInt("server.port"); port > 0 {
		f.Port = port
	}
}

func stringOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
