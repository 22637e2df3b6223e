package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/bingobg/internal"
)

// CreateRootCommand creates and configures the root cobra command
func CreateRootCommand(flags *Flags) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bingobg",
		Short: "Bulgarian bingo number caller",
		Long: `bingobg draws the numbers 1 to 90 in random order and announces
each one in Bulgarian.

Announcements use pre-generated clips when present and fall back to
live speech (espeak-ng) and finally to a short tone.

Examples:
  bingobg                         # Launch the desktop board (default)
  bingobg serve --port 8090       # Serve the board to a browser
  bingobg clips --provider openai # Generate the 90 number clips
  bingobg --list-models           # List TTS models for the OpenAI key`,
		Args:          cobra.NoArgs,
		Version:       internal.Version,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	setupFlags(rootCmd, flags)

	return rootCmd
}

// CreateServeCommand creates the command serving the board to a browser
func CreateServeCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the bingo board over HTTP and websocket",
		Long: `serve runs the caller behind an HTTP server. Open the printed address
in a browser to see the board; numbers are announced on this machine.`,
		Args: cobra.NoArgs,
	}

	cmd.Flags().StringVar(&flags.Bind, "bind", flags.Bind, "Address to listen on")
	cmd.Flags().IntVar(&flags.Port, "port", flags.Port, "Port to listen on")

	bindPFlags(cmd, map[string]string{
		"server.bind": "bind",
		"server.port": "port",
	})

	return cmd
}

// CreateClipsCommand creates the command that pre-generates number clips
func CreateClipsCommand(flags *Flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clips",
		Short: "Generate the 90 Bulgarian number clips",
		Long: `clips renders every number from 1 to 90 with a text-to-speech
provider into <clips-dir>/<n>.<format>. Existing clips are kept unless
--overwrite is given.`,
		Args: cobra.NoArgs,
	}

	cmd.Flags().StringVar(&flags.Provider, "provider", flags.Provider, "TTS provider: openai, gemini or espeak")
	cmd.Flags().StringVarP(&flags.Format, "format", "f", flags.Format, "Clip format (mp3 or wav)")
	cmd.Flags().IntVar(&flags.Workers, "workers", flags.Workers, "Number of clips generated concurrently")
	cmd.Flags().StringVar(&flags.Overrides, "overrides", "", "File with phrase overrides, one '<n> = <phrase>' per line")
	cmd.Flags().StringVar(&flags.Zip, "zip", "", "Write the generated clips into this zip archive")
	cmd.Flags().BoolVar(&flags.Overwrite, "overwrite", false, "Regenerate clips that already exist")
	cmd.Flags().BoolVar(&flags.Archive, "archive", false, "Move the existing clips directory to an archive before generating")

	// OpenAI flags
	cmd.Flags().StringVar(&flags.OpenAIModel, "openai-model", flags.OpenAIModel, "OpenAI TTS model: tts-1, tts-1-hd, gpt-4o-mini-tts")
	cmd.Flags().StringVar(&flags.OpenAIVoice, "openai-voice", flags.OpenAIVoice, "OpenAI voice: alloy, ash, ballad, coral, echo, fable, onyx, nova, sage, shimmer, verse")
	cmd.Flags().Float64Var(&flags.OpenAISpeed, "openai-speed", flags.OpenAISpeed, "OpenAI speech speed (0.25 to 4.0, may be ignored by gpt-4o-mini-tts)")
	cmd.Flags().StringVar(&flags.OpenAIInstruction, "openai-instruction", "", "Voice instructions for gpt-4o-mini-tts")

	// Gemini flags
	cmd.Flags().StringVar(&flags.GeminiModel, "gemini-model", flags.GeminiModel, "Gemini TTS model")
	cmd.Flags().StringVar(&flags.GeminiVoice, "gemini-voice", flags.GeminiVoice, "Gemini prebuilt voice name")

	bindPFlags(cmd, map[string]string{
		"tts.provider":           "provider",
		"tts.openai_model":       "openai-model",
		"tts.openai_voice":       "openai-voice",
		"tts.openai_speed":       "openai-speed",
		"tts.openai_instruction": "openai-instruction",
		"tts.gemini_model":       "gemini-model",
		"tts.gemini_voice":       "gemini-voice",
		"clips.format":           "format",
		"clips.workers":          "workers",
		"clips.overrides":        "overrides",
		"clips.zip":              "zip",
	})

	return cmd
}

func setupFlags(cmd *cobra.Command, flags *Flags) {
	// Global flags
	cmd.PersistentFlags().StringVar(&flags.CfgFile, "config", "", "config file (default is $HOME/.bingobg.yaml)")
	cmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", flags.LogLevel, "Log level: debug, info, warn, error")
	cmd.PersistentFlags().DurationVarP(&flags.Interval, "interval", "i", flags.Interval, "Time between draws: 3s, 5s, 8s or 10s")
	cmd.PersistentFlags().Int64Var(&flags.Seed, "seed", 0, "Shuffle seed (0 picks a random one)")
	cmd.PersistentFlags().StringVar(&flags.ClipsDir, "clips-dir", flags.ClipsDir, "Directory or http(s) URL holding <n>.mp3 / <n>.wav clips")
	cmd.PersistentFlags().BoolVar(&flags.Beep, "beep", flags.Beep, "Play a short tone after live speech")
	cmd.PersistentFlags().IntVar(&flags.SampleRate, "sample-rate", flags.SampleRate, "Sample rate of the fallback tone")
	cmd.PersistentFlags().StringVar(&flags.Voice, "voice", flags.Voice, "espeak-ng voice for live speech (auto selects a Bulgarian voice)")
	cmd.PersistentFlags().StringVar(&flags.Player, "player", "", "Audio player command (default: auto-detect)")

	// Local flags
	cmd.Flags().BoolVar(&flags.ListModels, "list-models", false, "List available OpenAI models for the current API key")

	// Bind flags to viper
	bindFlagsToViper(cmd)
}

func bindFlagsToViper(cmd *cobra.Command) {
	for key, name := range map[string]string{
		"log.level":         "log-level",
		"game.interval":     "interval",
		"game.seed":         "seed",
		"audio.clips_dir":   "clips-dir",
		"audio.beep":        "beep",
		"audio.sample_rate": "sample-rate",
		"audio.voice":       "voice",
		"audio.player":      "player",
	} {
		viper.BindPFlag(key, cmd.PersistentFlags().Lookup(name))
	}
}

func bindPFlags(cmd *cobra.Command, keys map[string]string) {
	for key, name := range keys {
		viper.BindPFlag(key, cmd.Flags().Lookup(name))
	}
}

// InitConfig loads .env and initializes viper configuration
func InitConfig(cfgFile string) {
	// A missing .env is fine
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting home directory: %v\n", err)
			return
		}

		// Search config in home directory with name ".bingobg" (without extension)
		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".bingobg")
	}

	// Environment variables, BINGOBG_GAME_INTERVAL maps to game.interval
	viper.SetEnvPrefix("BINGOBG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// GetOpenAIKey retrieves the OpenAI API key from environment or config
func GetOpenAIKey() string {
	// First check environment variable
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		return key
	}

	// Then check config file
	return viper.GetString("tts.openai_key")
}

// GetGeminiKey retrieves the Gemini API key from environment or config
func GetGeminiKey() string {
	for _, env := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if key := os.Getenv(env); key != "" {
			return key
		}
	}
	return viper.GetString("tts.gemini_key")
}
