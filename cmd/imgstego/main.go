package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

type globalFlags struct {
	logLevel   string
	logFormat  string
	tagChannel string
	alignment  string
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "imgstego",
		Short: "Hide audio in PNG images and get it back",
		Long: `imgstego spreads a WAV or MP3 clip across the low bits of one or more
PNG images. Each encoded image carries a sequence tag, so extraction works
on the images in any order.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "text", "Log format (text, json)")
	cmd.PersistentFlags().StringVar(&flags.tagChannel, "tag-channel", "alpha", "Byte of pixel (0,0) holding the sequence tag (alpha, red)")
	cmd.PersistentFlags().StringVar(&flags.alignment, "alignment", "pad", "Misaligned audio on extract (pad, strict)")

	cmd.AddCommand(newHideCommand(flags))
	cmd.AddCommand(newExtractCommand(flags))
	cmd.AddCommand(newCapacityCommand())
	cmd.AddCommand(newVerifyCommand(flags))

	return cmd
}
