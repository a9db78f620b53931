package main

import (
	"github.com/spf13/cobra"

	"github.com/alucardeht/wayleave/internal/config"
	"github.com/alucardeht/wayleave/internal/logger"
)

var (
	configPath string
	logLevel   string
	logFormat  string

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "wayleave",
	Short: "Generate wayleave cover letters from agreement text",
	Long: `wayleave reads the text of an electricity wayleave agreement, extracts the
landowner, property address, company and payment wording, and renders the
fixed cover letter that accompanies the agreement.

Single documents:
  wayleave generate agreement.txt     Print the letter
  wayleave extract agreement.txt      Show the extracted fields

Folders:
  wayleave scan [dir]                 Write letters for new or changed agreements
  wayleave watch [dir]                Keep writing letters as agreements arrive

Tool server:
  wayleave serve                      JSON-RPC tools over stdio
  wayleave daemon                     JSON-RPC tools over a unix socket`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log") {
			loaded.Log.Level = logLevel
		}
		if cmd.Flags().Changed("log-format") {
			loaded.Log.Format = logFormat
		}
		if err := loaded.Validate(); err != nil {
			return err
		}

		level, _ := logger.ParseLevel(loaded.Log.Level)
		logger.Init(logger.Config{Level: level, Format: loaded.Log.Format})

		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file (default ~/.wayleave/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info",
		"Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"Log format: text, json")
}
