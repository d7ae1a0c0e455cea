package cmd

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/nextron/internal/config"
	"github.com/Iron-Ham/nextron/internal/session"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or modify the project configuration",
	Long: `View or modify the nextron configuration of the project.

Without arguments, displays the effective configuration: built-in defaults,
overridden by nextron.yaml, overridden by NEXTRON_* environment variables.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value in the project's nextron.yaml.

Keys use dot notation, e.g.:
  nextron config set renderer_src_dir app-renderer
  nextron config set startup_delay 2000
  nextron config set bundler.sourcemap linked

Valid keys:
  renderer_src_dir     - Renderer source directory (default: renderer)
  main_src_dir         - Host source directory (default: main)
  startup_delay        - Milliseconds between renderer start and host bundling
  renderer_port        - Renderer dev server port (default: 8888)
  renderer.command     - Renderer dev server executable (default: next)
  host.command         - Host executable (default: electron)
  host.app_path        - First argument of the host command (default: .)
  bundler.target       - Bundle language level, e.g. node18 or es2020
  bundler.sourcemap    - none, inline, linked, external or both
  bundler.minify       - Minify the bundle (true/false)
  bundler.debounce_ms  - Quiet period before a rebuild starts
  logging.enabled      - Write .nextron/debug.log (true/false)
  logging.level        - debug, info, warn or error
  logging.max_size_mb  - Rotate the debug log at this size
  logging.max_backups  - Rotated debug logs to keep
  logging.compress     - Gzip rotated debug logs (true/false)`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file",
	Long:  `Create nextron.yaml in the project directory with all available options.`,
	RunE:  runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
}

// settableKeys maps the keys accepted by "config set" to their value type.
var settableKeys = map[string]string{
	"renderer_src_dir":    "string",
	"main_src_dir":        "string",
	"startup_delay":       "int",
	"renderer_port":       "int",
	"renderer.command":    "string",
	"host.command":        "string",
	"host.app_path":       "string",
	"bundler.target":      "string",
	"bundler.sourcemap":   "string",
	"bundler.minify":      "bool",
	"bundler.debounce_ms": "int",
	"logging.enabled":     "bool",
	"logging.level":       "string",
	"logging.max_size_mb": "int",
	"logging.max_backups": "int",
	"logging.compress":    "bool",
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	// Show where config is being read from
	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "# Config file: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "# Config file: (none - using defaults)\n")
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to render configuration: %w", err)
	}
	_, err = out.Write(data)
	return err
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	keyType, ok := settableKeys[key]
	if !ok {
		keys := make([]string, 0, len(settableKeys))
		for k := range settableKeys {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		return fmt.Errorf("unknown configuration key: %s\nValid keys: %s", key, strings.Join(keys, ", "))
	}

	// Validate the value based on type
	var typedValue any
	switch keyType {
	case "string":
		typedValue = value
	case "bool":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: expected true or false", key)
		}
		typedValue = b
	case "int":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for %s: expected integer", key)
		}
		typedValue = n
	}

	viper.Set(key, typedValue)
	if _, err := config.Load(); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	configFile := config.ConfigFile(projectDir())
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %v\n", key, typedValue)
	fmt.Fprintf(cmd.OutOrStdout(), "Config saved to %s\n", configFile)
	return nil
}

// defaultConfigContent is written by "config init".
const defaultConfigContent = `# nextron configuration

# Renderer (Next.js) source directory, served by "next -p <port> <dir>"
renderer_src_dir: renderer

# Host (Electron) source directory holding background.{ts,js} and an
# optional preload.{ts,js}
main_src_dir: main

# Milliseconds to wait after starting the renderer before bundling the host
startup_delay: 0

# Renderer dev server port; --renderer-port overrides it
renderer_port: 8888

renderer:
  command: next

host:
  command: electron
  # First argument passed to the host command
  app_path: .

# Host bundle settings. package.json dependencies are always left unbundled.
bundler:
  # Language level of the bundle: esnext, es2015..es2022 or nodeN
  target: node18
  # none, inline, linked, external or both (default depends on dev/build)
  # sourcemap: inline
  # minify: false
  # Extra modules to leave unbundled
  # external: []
  # "identifier=expression" substitutions
  # define:
  #   - process.env.API_URL="https://example.com"
  # ".ext=loader" assignments
  # loader:
  #   - .node=file
  # Extra directories to watch and glob patterns to ignore
  # watch_dirs: []
  # ignore: []
  # Quiet period in milliseconds before a rebuild starts
  debounce_ms: 100

# Debug log written to .nextron/debug.log
logging:
  enabled: false
  level: info
  max_size_mb: 10
  max_backups: 3
  compress: false
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configFile := config.ConfigFile(projectDir())

	// Check if config file already exists
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists at %s\nUse 'nextron config set' to modify values", configFile)
	}

	if err := os.WriteFile(configFile, []byte(defaultConfigContent), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", configFile)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	configFile := config.ConfigFile(projectDir())

	if viper.ConfigFileUsed() != "" {
		fmt.Fprintf(out, "Active config: %s\n", viper.ConfigFileUsed())
	} else {
		fmt.Fprintf(out, "Default path: %s (not created)\n", configFile)
	}

	fmt.Fprintf(out, "\nSearch order: %s.{yaml,yml,json,toml} in %s\n", config.FileName, projectDir())
	fmt.Fprintf(out, "Environment variables: %s_* (e.g., %s_MAIN_SRC_DIR)\n", config.EnvPrefix, config.EnvPrefix)

	stateDir := config.StateDir(projectDir())
	fmt.Fprintf(out, "\nState directory: %s\n", stateDir)
	switch lock, live := session.IsLocked(stateDir); {
	case live:
		fmt.Fprintf(out, "Dev session: running (pid %d, renderer port %d, since %s)\n",
			lock.PID, lock.RendererPort, lock.StartedAt.Format(time.RFC3339))
	case lock != nil:
		fmt.Fprintf(out, "Dev session: stale lock from pid %d (removed by the next 'nextron dev')\n", lock.PID)
	default:
		fmt.Fprintln(out, "Dev session: none")
	}
	return nil
}
