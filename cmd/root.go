package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"squash/internal/config"
	"squash/internal/logging"
)

var (
	configPath string
	logLevel   string

	cfg  *config.Config
	logs = logging.NewManager()
)

var rootCmd = &cobra.Command{
	Use:   "squash",
	Short: "squash - shrink images to a quality or a byte budget",
	Long: "squash compresses images once at a fixed quality, or searches for the best encoding that\n" +
		"fits a byte budget, from files, an interactive picker, or a camera stream.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := loadConfig()
		if err != nil {
			return err
		}
		cfg = loaded

		level := cfg.LogLevel
		if cmd.Flags().Changed("log-level") {
			level = logLevel
		}
		parsed, ok := logging.ParseLevel(level)
		if !ok {
			return fmt.Errorf("unknown log level %q", level)
		}
		return logs.Upgrade(cfg.LogFile, parsed, logging.DefaultFileOptions())
	},
}

func Execute() {
	err := rootCmd.Execute()
	_ = logs.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromPath(configPath)
	}
	return config.Load()
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	rootCmd.SilenceErrors = true

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: search $SQUASH_CONFIG_DIR, ~/.config/squash, .)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
}
