// Package cmd implements the nextron command line.
package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/nextron/internal/config"
	"github.com/Iron-Ham/nextron/internal/errors"
	"github.com/Iron-Ham/nextron/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "nextron",
	Short: "Build and develop Next.js + Electron applications",
	Long: `nextron drives a desktop application made of two processes: a Next.js
renderer served by a dev server, and an Electron host process bundled from
main/background.{ts,js}.

In development it runs the renderer dev server, rebuilds the host bundle on
every change and restarts the host process. For production it builds both
bundles and packages them with electron-builder.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	projectDirFlag string
	// configReadErr holds a failure to parse an existing config file.
	configReadErr error
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("project-config", "c", "", "config file (default is ./nextron.yaml)")
	rootCmd.PersistentFlags().StringVar(&projectDirFlag, "dir", "", "project directory (default is the current directory)")
	rootCmd.PersistentFlags().String("log-level", "", "debug log level: debug, info, warn, error")
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()
	bindFlags()

	configReadErr = nil
	if cfgFile := viper.GetString("config_file"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(config.FileName)
		viper.AddConfigPath(projectDir())
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix(config.EnvPrefix)
	// Replace dots with underscores for nested keys in env vars
	// e.g., NEXTRON_HOST_COMMAND for host.command
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing config file is fine; a broken one is reported by the command.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			configReadErr = err
		}
	}
}

// bindFlags connects flags that override config keys. It runs on every
// initialization so a reset viper picks the bindings up again.
func bindFlags() {
	_ = viper.BindPFlag("config_file", rootCmd.PersistentFlags().Lookup("project-config"))
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("renderer_port", devCmd.Flags().Lookup("renderer-port"))
	_ = viper.BindPFlag("startup_delay", devCmd.Flags().Lookup("startup-delay"))
}

// projectDir returns the absolute project directory.
func projectDir() string {
	dir := projectDirFlag
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}

// loadConfig returns the validated project configuration.
func loadConfig() (*config.Config, error) {
	if configReadErr != nil {
		return nil, errors.NewConfigError("failed to read config file", configReadErr).
			WithHint("check " + viper.ConfigFileUsed())
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.NewConfigError("invalid configuration", err)
	}
	return cfg, nil
}

// newLogger creates the debug logger for the project in dir.
// Returns a NopLogger if logging is disabled or if creation fails.
func newLogger(dir string, cfg *config.Config, stderr io.Writer) *logging.Logger {
	if !cfg.Logging.Enabled {
		return logging.NopLogger()
	}

	rotationConfig := logging.RotationConfig{
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
		Compress:   cfg.Logging.Compress,
	}

	logger, err := logging.NewLoggerWithRotation(config.LogDir(dir), cfg.Logging.Level, rotationConfig)
	if err != nil {
		// Log creation failure shouldn't prevent the command from running
		fmt.Fprintf(stderr, "Warning: failed to create logger: %v\n", err)
		return logging.NopLogger()
	}
	return logger
}

// reportedError signals that the failure was already printed.
// It keeps the cause so the exit code can still be derived from it.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// IsReported reports whether err was already printed by the command.
func IsReported(err error) bool {
	var r *reportedError
	return errors.As(err, &r)
}

// report prints err for humans and marks it as reported.
func report(console *logging.Console, headline string, err error) error {
	var cfgErr *errors.ConfigError
	if errors.As(err, &cfgErr) {
		msg := cfgErr.Message()
		if cause := cfgErr.Unwrap(); cause != nil && !errors.Is(cause, errors.ErrRemovedFlag) {
			msg = fmt.Sprintf("%s: %v", msg, cause)
		}
		if cfgErr.Hint != "" {
			msg = fmt.Sprintf("%s. Please %s.", msg, cfgErr.Hint)
		}
		console.Error("%s", msg)
	} else {
		console.Fatal(headline, err)
	}
	return &reportedError{err: err}
}

// ReportError prints an error that no command has printed yet, such as a
// flag parsing failure. Errors that are not user-facing come from argument
// parsing, so they are followed by a pointer to the usage text.
func ReportError(w io.Writer, err error) {
	if err == nil || IsReported(err) {
		return
	}
	console := logging.NewConsole(w)
	if errors.IsUserFacing(err) {
		_ = report(console, "nextron failed:", err)
		return
	}
	console.Error("%v", err)
	console.Info("Run 'nextron --help' for usage.")
}
