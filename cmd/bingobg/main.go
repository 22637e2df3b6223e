package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"codeberg.org/snonux/bingobg/internal/cli"
	"codeberg.org/snonux/bingobg/internal/gui"
	"codeberg.org/snonux/bingobg/internal/processor"
)

func main() {
	// Create flags instance
	flags := cli.NewFlags()

	// Create commands
	rootCmd := cli.CreateRootCommand(flags)
	serveCmd := cli.CreateServeCommand(flags)
	clipsCmd := cli.CreateClipsCommand(flags)
	rootCmd.AddCommand(serveCmd, clipsCmd)

	// Set up command initialization
	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
		flags.Load()
	})

	// Set the run functions
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, flags)
	}
	serveCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runWithSignals(flags, func(ctx context.Context, proc *processor.Processor) error {
			return proc.RunServeMode(ctx)
		})
	}
	clipsCmd.RunE = func(cmd *cobra.Command, args []string) error {
		return runWithSignals(flags, func(ctx context.Context, proc *processor.Processor) error {
			_, err := proc.GenerateClips(ctx)
			return err
		})
	}

	// Execute command
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCommand(cmd *cobra.Command, flags *cli.Flags) error {
	// Handle --list-models flag
	if flags.ListModels {
		log, err := newLogger(flags, os.Stderr)
		if err != nil {
			return err
		}
		return processor.NewProcessor(flags, log).ListModels(cmd.Context())
	}

	// No subcommand - launch the desktop board
	logPane := gui.NewLogViewer()
	log, err := newLogger(flags, os.Stderr, logPane)
	if err != nil {
		return err
	}
	return processor.NewProcessor(flags, log).RunGUIMode(logPane)
}

func runWithSignals(flags *cli.Flags, run func(context.Context, *processor.Processor) error) error {
	log, err := newLogger(flags, os.Stderr)
	if err != nil {
		return err
	}

	// Context / shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err = run(ctx, processor.NewProcessor(flags, log))
	if processor.IsInterrupted(err) {
		fmt.Fprintln(os.Stderr, "Interrupted")
		return nil
	}
	return err
}

func newLogger(flags *cli.Flags, out io.Writer, extra ...io.Writer) (zerolog.Logger, error) {
	return cli.SetupLogging(flags.LogLevel, out, extra...)
}
