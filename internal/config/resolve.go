package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Iron-Ham/nextron/internal/bundler"
	"github.com/Iron-Ham/nextron/internal/errors"
)

const (
	// DefaultRemoteDebuggingPort is appended to the host arguments unless
	// the user already passes --remote-debugging-port.
	DefaultRemoteDebuggingPort = 5858
	// DefaultInspectPort is appended to the host arguments unless the user
	// already passes --inspect.
	DefaultInspectPort = 9292
)

// BuildOptions is the fully resolved description of a dev session or
// production build. It is immutable once returned by Resolve.
type BuildOptions struct {
	ProjectDir string
	Mode       bundler.Mode

	RendererPort int
	StartupDelay time.Duration
	RunOnly      bool

	RendererCommand string
	RendererSrcDir  string

	HostCommand   string
	HostAppPath   string
	HostExtraArgs []string

	MainSrcDir       string
	HostEntryPath    string
	PreloadEntryPath string // empty when the project has no preload script

	Package *PackageJSON
	Watch   bundler.Config
}

// RendererArgs returns the renderer command arguments: -p <port> <dir>.
func (o *BuildOptions) RendererArgs() []string {
	return []string{"-p", strconv.Itoa(o.RendererPort), o.RendererSrcDir}
}

// HostArgs returns the host command arguments: <app path> <port> <extra...>.
func (o *BuildOptions) HostArgs() []string {
	args := make([]string, 0, len(o.HostExtraArgs)+2)
	args = append(args, o.HostAppPath, strconv.Itoa(o.RendererPort))
	return append(args, o.HostExtraArgs...)
}

// DevFlags holds the dev command-line options that are not config keys.
// Port and startup delay flags are bound into the Config instead.
type DevFlags struct {
	RunOnly         bool
	ElectronOptions string
}

// TransformFunc adjusts the bundler configuration after all defaults and
// user overrides have been applied.
type TransformFunc func(bundler.Config, bundler.Mode) bundler.Config

type resolveOptions struct {
	mode      bundler.Mode
	transform TransformFunc
}

// ResolveOption configures Resolve.
type ResolveOption func(*resolveOptions)

// WithMode selects development (default) or production bundle defaults.
func WithMode(mode bundler.Mode) ResolveOption {
	return func(o *resolveOptions) { o.mode = mode }
}

// WithTransform installs a programmatic bundler configuration hook.
func WithTransform(fn TransformFunc) ResolveOption {
	return func(o *resolveOptions) { o.transform = fn }
}

// Resolve combines the project on disk, the configuration and the command
// line into BuildOptions. All failures are *errors.ConfigError.
func Resolve(projectDir string, flags DevFlags, cfg *Config, opts ...ResolveOption) (*BuildOptions, error) {
	ro := resolveOptions{mode: bundler.Development}
	for _, opt := range opts {
		opt(&ro)
	}

	if cfg == nil {
		cfg = Default()
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errors.NewConfigError("invalid configuration", ValidationErrors(errs))
	}

	dir, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, errors.NewConfigError("cannot resolve project directory", err)
	}

	pkg, err := ReadPackageJSON(dir)
	if err != nil {
		return nil, err
	}

	typescript := fileExists(filepath.Join(dir, "tsconfig.json"))
	entry, ok := findSource(dir, cfg.MainSrcDir, "background", typescript)
	if !ok {
		return nil, errors.NewConfigError(
			fmt.Sprintf("no background entry found in %s", filepath.Join(dir, cfg.MainSrcDir)),
			errors.ErrEntryNotFound,
		).WithField("main_src_dir").
			WithHint("create background.ts or background.js in the main source directory")
	}
	preload, _ := findSource(dir, cfg.MainSrcDir, "preload", typescript)

	bcfg := bundlerConfig(dir, cfg, pkg, ro.mode, typescript)
	bcfg.Entries = []bundler.Entry{{Name: "background", Path: entry}}
	if preload != "" {
		bcfg.Entries = append(bcfg.Entries, bundler.Entry{Name: "preload", Path: preload})
	}

	if ro.transform != nil {
		bcfg = ro.transform(bcfg.Clone(), ro.mode)
	}
	if err := bcfg.Validate(); err != nil {
		return nil, errors.NewConfigError("invalid bundler configuration", err).WithField("bundler")
	}

	return &BuildOptions{
		ProjectDir:       dir,
		Mode:             ro.mode,
		RendererPort:     cfg.RendererPort,
		StartupDelay:     time.Duration(cfg.StartupDelay) * time.Millisecond,
		RunOnly:          flags.RunOnly,
		RendererCommand:  cfg.Renderer.Command,
		RendererSrcDir:   cfg.RendererSrcDir,
		HostCommand:      cfg.Host.Command,
		HostAppPath:      cfg.Host.AppPath,
		HostExtraArgs:    HostExtraArgs(flags.ElectronOptions),
		MainSrcDir:       cfg.MainSrcDir,
		HostEntryPath:    entry,
		PreloadEntryPath: preload,
		Package:          pkg,
		Watch:            bcfg,
	}, nil
}

// bundlerConfig merges mode defaults, package.json and user overrides.
func bundlerConfig(dir string, cfg *Config, pkg *PackageJSON, mode bundler.Mode, typescript bool) bundler.Config {
	b := bundler.DefaultConfig(dir, mode)
	user := cfg.Bundler

	b.External = dedupe(append(append(b.External, pkg.Dependencies...), user.External...))
	b.WatchDirs = dedupe(append([]string{cfg.MainSrcDir}, user.WatchDirs...))
	b.Ignore = dedupe(append(append(b.Ignore, filepath.ToSlash(cfg.RendererSrcDir)), user.Ignore...))

	if typescript {
		b.Tsconfig = "tsconfig.json"
	}
	if user.Target != "" {
		b.Target = user.Target
	}
	if user.Sourcemap != "" {
		b.Sourcemap = strings.ToLower(user.Sourcemap)
	}
	if user.Minify != nil {
		b.Minify = *user.Minify
	}
	if user.DebounceMs > 0 {
		b.Debounce = time.Duration(user.DebounceMs) * time.Millisecond
	}

	// Validate has already rejected malformed pairs.
	define, _ := ParsePairs(user.Define)
	for k, v := range define {
		b.Define[k] = v
	}
	loader, _ := ParsePairs(user.Loader)
	for k, v := range loader {
		b.Loader[k] = v
	}
	alias, _ := ParsePairs(user.Alias)
	for k, v := range alias {
		b.Alias[k] = v
	}

	return b
}

// findSource returns the project-relative path of <mainDir>/<name>.ts or
// .js, preferring .ts in TypeScript projects.
func findSource(dir, mainDir, name string, typescript bool) (string, bool) {
	exts := []string{".js", ".ts"}
	if typescript {
		exts = []string{".ts", ".js"}
	}
	for _, ext := range exts {
		rel := filepath.Join(mainDir, name+ext)
		if fileExists(filepath.Join(dir, rel)) {
			return rel, true
		}
	}
	return "", false
}

// HostExtraArgs splits the --electron-options value on whitespace and adds
// the default debugging ports unless the user already set them.
func HostExtraArgs(electronOptions string) []string {
	args := strings.Fields(electronOptions)
	if !strings.Contains(electronOptions, "--remote-debugging-port") {
		args = append(args, fmt.Sprintf("--remote-debugging-port=%d", DefaultRemoteDebuggingPort))
	}
	if !strings.Contains(electronOptions, "--inspect") {
		args = append(args, fmt.Sprintf("--inspect=%d", DefaultInspectPort))
	}
	return args
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
