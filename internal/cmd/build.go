package cmd

import (
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/nextron/internal/builder"
	"github.com/Iron-Ham/nextron/internal/bundler"
	"github.com/Iron-Ham/nextron/internal/config"
	"github.com/Iron-Ham/nextron/internal/event"
	"github.com/Iron-Ham/nextron/internal/logging"
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the renderer and host bundles and package the application",
	Long: `Build the application for distribution.

Previous output in app/ and dist/ is removed, the renderer is built with
"next build", the host sources are bundled in production mode and the result
is packaged with electron-builder. Platform and architecture flags are passed
to electron-builder as given.`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

var (
	buildPlatform builder.PlatformFlags
	buildNoPack   bool
)

// newBuildRunner creates the runner for external build tools.
var newBuildRunner = func(dir string) builder.Runner { return builder.ExecRunner{Dir: dir} }

func init() {
	rootCmd.AddCommand(buildCmd)

	f := buildCmd.Flags()
	f.BoolVar(&buildPlatform.Mac, "mac", false, "build for macOS")
	f.BoolVar(&buildPlatform.Linux, "linux", false, "build for Linux")
	f.BoolVar(&buildPlatform.Win, "win", false, "build for Windows")
	f.BoolVar(&buildPlatform.X64, "x64", false, "build for x64")
	f.BoolVar(&buildPlatform.IA32, "ia32", false, "build for ia32")
	f.BoolVar(&buildPlatform.ARMv7l, "armv7l", false, "build for armv7l")
	f.BoolVar(&buildPlatform.ARM64, "arm64", false, "build for arm64")
	f.BoolVar(&buildPlatform.Universal, "universal", false, "build a macOS universal binary")
	f.StringVar(&buildPlatform.Config, "config", "", "electron-builder config file")
	f.StringVar(&buildPlatform.Publish, "publish", "", "electron-builder publish policy")
	f.BoolVar(&buildNoPack, "no-pack", false, "skip packaging")
}

func runBuild(cmd *cobra.Command, _ []string) error {
	console := logging.NewConsole(cmd.OutOrStdout())
	errConsole := logging.NewConsole(cmd.ErrOrStderr())
	const headline = "Cannot build electron packages:"

	cfg, err := loadConfig()
	if err != nil {
		return report(errConsole, headline, err)
	}

	opts, err := config.Resolve(projectDir(), config.DevFlags{}, cfg, config.WithMode(bundler.Production))
	if err != nil {
		return report(errConsole, headline, err)
	}

	if slices.Contains(opts.Package.Dependencies, "next") {
		console.Info("To reduce the bundle size of the electron app, we recommend placing next and nextron in devDependencies instead of dependencies.")
	}

	logger := newLogger(opts.ProjectDir, cfg, cmd.ErrOrStderr()).WithSession(uuid.NewString())
	defer func() { _ = logger.Close() }()

	bus := event.NewBus()
	subscribeBuildConsole(bus, console, errConsole)

	b := builder.New(*opts,
		builder.WithRunner(newBuildRunner(opts.ProjectDir)),
		builder.WithBus(bus),
		builder.WithLogger(logger),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := b.Run(ctx, builder.RunOptions{Platform: buildPlatform, NoPack: buildNoPack})
	if err != nil {
		return report(errConsole, headline, err)
	}

	if res.DistDir != "" {
		rel, relErr := filepath.Rel(opts.ProjectDir, res.DistDir)
		if relErr != nil {
			rel = res.DistDir
		}
		console.Info("See `%s` directory", rel)
	}
	return nil
}

var buildStepMessages = map[string]string{
	builder.StepClean:    "Clearing previous builds",
	builder.StepRenderer: "Building renderer process",
	builder.StepHost:     "Building main process",
	builder.StepPackage:  "Packaging - please wait a moment",
}

// subscribeBuildConsole renders build steps as status lines. Failures and
// compiler output go to errConsole.
func subscribeBuildConsole(bus *event.Bus, console, errConsole *logging.Console) {
	bus.Subscribe(event.TypeBuildStep, func(e event.Event) {
		ev := e.(event.BuildStepEvent)
		switch ev.Status {
		case event.StepStarted:
			console.Info("%s", buildStepMessages[ev.Step])
		case event.StepSkipped:
			if ev.Step == builder.StepPackage {
				console.Info("Skip packaging...")
			}
		case event.StepFailed:
			errConsole.Error("Step %q failed after %s", ev.Step, ev.Duration.Round(time.Millisecond))
		}
	})
	bus.Subscribe(event.TypeCompileFinished, func(e event.Event) {
		ev := e.(event.CompileFinishedEvent)
		errConsole.Diagnostics(ev.Diagnostics)
		errConsole.Diagnostics(ev.Warnings)
	})
}
