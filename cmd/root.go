package cmd

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"imagematcher/config"
	"imagematcher/logging"
	"imagematcher/utils"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "imagematcher",
	Short: "Find images that look like a query image",
	Long: `imagematcher compares a query image against every jpg, jpeg, png and bmp
file under a directory using SIFT keypoints and brute-force descriptor
matching, and lists the candidates whose mean match distance is below a
threshold. Lower scores mean more similar images.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseLogger()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (default imagematcher.yaml next to the executable)")
	rootCmd.PersistentFlags().Bool("debug", false, "Write debug output to the log file")
	rootCmd.PersistentFlags().String("logfile", "", "Debug log file path")
	rootCmd.PersistentFlags().String("db", "", "Run history database path")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

func loadConfig(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if path == "" {
		path = utils.GetDefaultConfigPath()
	}
	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	cfg = loaded

	flags := cmd.Flags()
	if flags.Changed("debug") {
		cfg.Log.Debug = mustGetBool(cmd, "debug")
	}
	if flags.Changed("logfile") {
		cfg.Log.File = mustGetString(cmd, "logfile")
	}
	if flags.Changed("db") {
		cfg.History.Path = mustGetString(cmd, "db")
	}

	if cfg.Log.Debug {
		if err := logging.SetupLogger(cfg.Log.File); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to setup logging: %v, debug output goes to stderr\n", err)
			logging.SetDebug(true)
		} else {
			fmt.Fprintf(os.Stderr, "Debug mode enabled. Logging to: %s\n", cfg.Log.File)
		}
	}
	return nil
}
