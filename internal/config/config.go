package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	// FileName is the base name of the project config file (nextron.yaml).
	FileName = "nextron"
	// DefaultFileType is the format used when creating a config file.
	DefaultFileType = "yaml"
	// EnvPrefix prefixes environment overrides, e.g. NEXTRON_MAIN_SRC_DIR.
	EnvPrefix = "NEXTRON"
	// StateDirName holds nextron's own files (debug log) inside the project.
	StateDirName = ".nextron"

	// DefaultRendererPort is the port the renderer dev server listens on.
	DefaultRendererPort = 8888
)

// Config represents the project configuration read from nextron.yaml,
// NEXTRON_* environment variables and built-in defaults.
type Config struct {
	// RendererSrcDir is the front-end source directory handed to the renderer command.
	RendererSrcDir string `mapstructure:"renderer_src_dir" yaml:"renderer_src_dir"`
	// MainSrcDir holds background.{ts,js} and the optional preload script.
	MainSrcDir string `mapstructure:"main_src_dir" yaml:"main_src_dir"`
	// StartupDelay is the time in milliseconds between starting the renderer
	// and starting to watch the host sources.
	StartupDelay int `mapstructure:"startup_delay" yaml:"startup_delay"`
	// RendererPort is the default for --renderer-port.
	RendererPort int `mapstructure:"renderer_port" yaml:"renderer_port"`

	Renderer RendererConfig `mapstructure:"renderer" yaml:"renderer"`
	Host     HostConfig     `mapstructure:"host" yaml:"host"`
	Bundler  BundlerConfig  `mapstructure:"bundler" yaml:"bundler"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// RendererConfig controls the renderer dev server.
type RendererConfig struct {
	// Command is the renderer executable, invoked as "<command> -p <port> <dir>".
	Command string `mapstructure:"command" yaml:"command"`
}

// HostConfig controls the host application process.
type HostConfig struct {
	// Command is the host executable.
	Command string `mapstructure:"command" yaml:"command"`
	// AppPath is the first argument passed to the host command.
	AppPath string `mapstructure:"app_path" yaml:"app_path"`
}

// BundlerConfig holds user overrides for the host bundle. Empty values keep
// the built-in defaults for the current mode.
type BundlerConfig struct {
	// External lists extra modules to leave unbundled, in addition to
	// package.json dependencies.
	External []string `mapstructure:"external" yaml:"external,omitempty"`
	// Define holds "identifier=expression" substitutions, e.g.
	// process.env.API_URL="https://example.com". Pairs are used instead of a
	// map because config keys may not contain dots.
	Define []string `mapstructure:"define" yaml:"define,omitempty"`
	// Target is "esnext", "es2015".."es2022" or "nodeN".
	Target string `mapstructure:"target" yaml:"target"`
	// Sourcemap is one of none, inline, linked, external, both.
	Sourcemap string `mapstructure:"sourcemap" yaml:"sourcemap,omitempty"`
	// Minify overrides the mode default when set.
	Minify *bool `mapstructure:"minify" yaml:"minify,omitempty"`
	// Loader holds ".ext=loader" assignments, e.g. ".node=file".
	Loader []string `mapstructure:"loader" yaml:"loader,omitempty"`
	// Alias holds "from=to" package substitutions.
	Alias []string `mapstructure:"alias" yaml:"alias,omitempty"`
	// WatchDirs are extra directories to watch besides the main source dir.
	WatchDirs []string `mapstructure:"watch_dirs" yaml:"watch_dirs,omitempty"`
	// Ignore holds extra glob patterns excluded from watching.
	Ignore []string `mapstructure:"ignore" yaml:"ignore,omitempty"`
	// DebounceMs is the quiet period before a rebuild starts.
	DebounceMs int `mapstructure:"debounce_ms" yaml:"debounce_ms"`
}

// LoggingConfig controls the debug log written to .nextron/debug.log.
type LoggingConfig struct {
	// Enabled turns on the debug log (default: false)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Level is the minimum level written: debug, info, warn, error
	Level string `mapstructure:"level" yaml:"level"`
	// MaxSizeMB is the size at which the log is rotated
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups is the number of rotated files kept
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`
	// Compress gzips rotated files
	Compress bool `mapstructure:"compress" yaml:"compress"`
}

// Default returns a Config with the built-in default values.
func Default() *Config {
	return &Config{
		RendererSrcDir: "renderer",
		MainSrcDir:     "main",
		StartupDelay:   0,
		RendererPort:   DefaultRendererPort,
		Renderer: RendererConfig{
			Command: "next",
		},
		Host: HostConfig{
			Command: "electron",
			AppPath: ".",
		},
		Bundler: BundlerConfig{
			Target:     "node18",
			DebounceMs: 100,
		},
		Logging: LoggingConfig{
			Enabled:    false,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			Compress:   false,
		},
	}
}

// SetDefaults registers default values with viper.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("renderer_src_dir", defaults.RendererSrcDir)
	viper.SetDefault("main_src_dir", defaults.MainSrcDir)
	viper.SetDefault("startup_delay", defaults.StartupDelay)
	viper.SetDefault("renderer_port", defaults.RendererPort)

	viper.SetDefault("renderer.command", defaults.Renderer.Command)

	viper.SetDefault("host.command", defaults.Host.Command)
	viper.SetDefault("host.app_path", defaults.Host.AppPath)

	viper.SetDefault("bundler.target", defaults.Bundler.Target)
	viper.SetDefault("bundler.debounce_ms", defaults.Bundler.DebounceMs)

	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)
}

// Load reads the configuration from viper into a Config struct and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration, falling back to defaults when
// it cannot be loaded.
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// ConfigFile returns the config file of the project in dir: the first
// existing nextron.{yaml,yml,json,toml}, or nextron.yaml when none exists.
func ConfigFile(dir string) string {
	for _, ext := range []string{"yaml", "yml", "json", "toml"} {
		path := filepath.Join(dir, FileName+"."+ext)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return filepath.Join(dir, FileName+"."+DefaultFileType)
}

// StateDir returns the directory holding nextron's own files for the
// project in dir.
func StateDir(dir string) string {
	return filepath.Join(dir, StateDirName)
}

// LogDir returns the directory holding the debug log of the project in dir.
func LogDir(dir string) string {
	return StateDir(dir)
}
