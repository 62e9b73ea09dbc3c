package cmd

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docchat/internal/config"
	"github.com/ziadkadry99/docchat/internal/logging"
)

var (
	cfgFile   string
	verbose   bool
	sessionID string
)

var rootCmd = &cobra.Command{
	Use:   "docchat",
	Short: "Chat with your PDF, Word and CSV files",
	Long: `docchat indexes the text of PDF and Word documents into a local vector
index and answers questions grounded in it. CSV files are handed to a
tabular agent instead. A cloud model is used when its API key is set and
it answers; otherwise a local Ollama model takes over.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// API keys usually live in .env; a missing file is fine.
		_ = godotenv.Load()

		level, file := "info", ""
		if cfg, err := config.Load(cfgFile); err == nil {
			level, file = cfg.Log.Level, cfg.Log.File
		}
		if verbose {
			level = "debug"
		}
		logging.Setup(level, file)
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".docchat.yml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&sessionID, "session", "", "chat session ID (default: the most recent session)")
}
