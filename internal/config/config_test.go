package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}
	if cfg.RendererSrcDir != "renderer" {
		t.Errorf("RendererSrcDir = %q, want %q", cfg.RendererSrcDir, "renderer")
	}
	if cfg.MainSrcDir != "main" {
		t.Errorf("MainSrcDir = %q, want %q", cfg.MainSrcDir, "main")
	}
	if cfg.StartupDelay != 0 {
		t.Errorf("StartupDelay = %d, want 0", cfg.StartupDelay)
	}
	if cfg.RendererPort != 8888 {
		t.Errorf("RendererPort = %d, want 8888", cfg.RendererPort)
	}
	if cfg.Renderer.Command != "next" {
		t.Errorf("Renderer.Command = %q, want next", cfg.Renderer.Command)
	}
	if cfg.Host.Command != "electron" || cfg.Host.AppPath != "." {
		t.Errorf("Host = %+v", cfg.Host)
	}
	if cfg.Bundler.DebounceMs != 100 {
		t.Errorf("Bundler.DebounceMs = %d, want 100", cfg.Bundler.DebounceMs)
	}
	if cfg.Bundler.Minify != nil {
		t.Error("Bundler.Minify should be unset so the mode default applies")
	}
	if cfg.Logging.Enabled {
		t.Error("Logging.Enabled should be false by default")
	}
	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Default config should be valid, got %v", errs)
	}
}

func TestSetDefaults_Load(t *testing.T) {
	resetViper(t)
	SetDefaults()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}

	want := Default()
	if cfg.RendererSrcDir != want.RendererSrcDir || cfg.MainSrcDir != want.MainSrcDir {
		t.Errorf("dirs = %q/%q", cfg.RendererSrcDir, cfg.MainSrcDir)
	}
	if cfg.RendererPort != want.RendererPort || cfg.Host.AppPath != want.Host.AppPath {
		t.Errorf("Load() = %+v", cfg)
	}
	if cfg.Logging.MaxSizeMB != want.Logging.MaxSizeMB || cfg.Logging.MaxBackups != want.Logging.MaxBackups {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoad_FromFile(t *testing.T) {
	resetViper(t)
	SetDefaults()

	dir := t.TempDir()
	content := `main_src_dir: src/main
renderer_src_dir: src/renderer
startup_delay: 1500
host:
  app_path: build
bundler:
  external: [serialport]
  define:
    - process.env.API_URL="https://api.example.com"
  loader:
    - .node=file
  minify: false
  sourcemap: external
logging:
  enabled: true
  level: debug
`
	path := filepath.Join(dir, "nextron.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig() = %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}

	if cfg.MainSrcDir != "src/main" || cfg.RendererSrcDir != "src/renderer" {
		t.Errorf("dirs = %q/%q", cfg.MainSrcDir, cfg.RendererSrcDir)
	}
	if cfg.StartupDelay != 1500 {
		t.Errorf("StartupDelay = %d", cfg.StartupDelay)
	}
	if cfg.Host.AppPath != "build" || cfg.Host.Command != "electron" {
		t.Errorf("Host = %+v", cfg.Host)
	}
	if len(cfg.Bundler.External) != 1 || cfg.Bundler.External[0] != "serialport" {
		t.Errorf("External = %v", cfg.Bundler.External)
	}
	if len(cfg.Bundler.Define) != 1 || !strings.HasPrefix(cfg.Bundler.Define[0], "process.env.API_URL=") {
		t.Errorf("Define = %v", cfg.Bundler.Define)
	}
	if cfg.Bundler.Minify == nil || *cfg.Bundler.Minify {
		t.Errorf("Minify = %v, want explicit false", cfg.Bundler.Minify)
	}
	if cfg.Bundler.Sourcemap != "external" {
		t.Errorf("Sourcemap = %q", cfg.Bundler.Sourcemap)
	}
	if !cfg.Logging.Enabled || cfg.Logging.Level != "debug" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoad_Invalid(t *testing.T) {
	resetViper(t)
	SetDefaults()
	viper.Set("bundler.sourcemap", "eval")
	viper.Set("startup_delay", -1)

	_, err := Load()
	if err == nil {
		t.Fatal("expected validation error")
	}
	verrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("expected ValidationErrors, got %T", err)
	}
	if len(verrs) != 2 {
		t.Errorf("expected 2 validation errors, got %d: %v", len(verrs), verrs)
	}

	if Get().Bundler.Sourcemap != "" {
		t.Error("Get() should fall back to defaults on invalid config")
	}
}

func TestLoad_Env(t *testing.T) {
	resetViper(t)
	SetDefaults()
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	t.Setenv("NEXTRON_MAIN_SRC_DIR", "electron-src")
	t.Setenv("NEXTRON_HOST_COMMAND", "/opt/electron/electron")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if cfg.MainSrcDir != "electron-src" {
		t.Errorf("MainSrcDir = %q", cfg.MainSrcDir)
	}
	if cfg.Host.Command != "/opt/electron/electron" {
		t.Errorf("Host.Command = %q", cfg.Host.Command)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()

	if got := ConfigFile(dir); got != filepath.Join(dir, "nextron.yaml") {
		t.Errorf("ConfigFile() without file = %q", got)
	}

	yml := filepath.Join(dir, "nextron.yml")
	if err := os.WriteFile(yml, []byte("main_src_dir: main\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if got := ConfigFile(dir); got != yml {
		t.Errorf("ConfigFile() = %q, want %q", got, yml)
	}

	if got := LogDir(dir); got != filepath.Join(dir, ".nextron") {
		t.Errorf("LogDir() = %q", got)
	}
}
