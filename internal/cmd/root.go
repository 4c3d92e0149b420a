package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/archive"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/config"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/custom"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/detector"
	"github.com/Yadav-Aayansh/Cyber-Attack-Detector/internal/logging"
)

var (
	cfgFile   string
	outputFmt string

	cfg    config.Config
	logger *slog.Logger
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "cyberdetect",
	Short: "cyberdetect: access-log threat detection",
	Long: `cyberdetect scans web server access logs (combined format with host and
server address) for attack patterns: SQL injection, path traversal, bots,
file inclusion, WordPress probes, brute force, error bursts and internal
address access. Generated custom detectors extend the built-in set.

Logs can be scanned once, analysed through an HTTP API, or followed live.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(viper.GetViper())
		if err != nil {
			return err
		}
		cfg = loaded
		logger = logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
		slog.SetDefault(logger)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default: $HOME/.cyberdetect.yaml)")
	flags.StringVarP(&outputFmt, "output", "o", "text", "output format: text, json, csv")
	flags.String("log-level", "info", "log level: debug, info, warn, error")
	flags.String("log-format", "text", "log format: text, json")

	cobra.CheckErr(viper.BindPFlag("log.level", flags.Lookup("log-level")))
	cobra.CheckErr(viper.BindPFlag("log.format", flags.Lookup("log-format")))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".cyberdetect")
		viper.SetConfigType("yaml")
	}

	config.BindEnv(viper.GetViper())
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			fmt.Fprintf(os.Stderr, "warning: reading config: %v\n", err)
		}
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

func extractor() archive.Extractor {
	return archive.Extractor{MaxBytes: cfg.Archive.MaxBytes}
}

func openStore() (*custom.Store, error) {
	store, err := custom.NewStore(cfg.Custom.StorePath)
	if err != nil {
		return nil, fmt.Errorf("opening detector store: %w", err)
	}
	return store, nil
}

// buildRegistry returns the built-in detectors followed by every stored custom detector.
// A stored detector whose id or name is already registered is skipped with a warning.
func buildRegistry(store *custom.Store) (*detector.Registry, error) {
	reg := detector.NewRegistry()
	exec := custom.Executor{Timeout: cfg.Custom.Timeout}
	for _, def := range store.List() {
		err := reg.Register(custom.NewDetector(def, exec), def.AttackType())
		switch {
		case errors.Is(err, detector.ErrDuplicateDetector):
			slog.Warn("skipping custom detector", "id", def.ID, "error", err)
		case err != nil:
			return nil, fmt.Errorf("registering %s: %w", def.ID, err)
		}
	}
	return reg, nil
}

// checkNameFree fails when name is already used by a registered attack type.
func checkNameFree(reg *detector.Registry, name string) error {
	for _, at := range reg.AttackTypes() {
		if at.Name == name {
			return fmt.Errorf("%w: attack type %q is used by %q", detector.ErrDuplicateDetector, name, at.Endpoint)
		}
	}
	return nil
}
