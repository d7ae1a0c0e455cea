package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/Iron-Ham/nextron/internal/bundler"
	"github.com/Iron-Ham/nextron/internal/config"
	"github.com/Iron-Ham/nextron/internal/errors"
	"github.com/Iron-Ham/nextron/internal/event"
	"github.com/Iron-Ham/nextron/internal/logging"
	"github.com/Iron-Ham/nextron/internal/session"
	"github.com/Iron-Ham/nextron/internal/supervisor"
)

var devCmd = &cobra.Command{
	Use:   "dev",
	Short: "Run the renderer dev server and the host process with live rebuilds",
	Long: `Run the application in development mode.

The renderer dev server is started first. After --startup-delay milliseconds
the host sources are bundled into app/ and watched; every successful rebuild
restarts the Electron host process. Compile errors are printed and leave the
running host untouched. Stopping the renderer or pressing Ctrl+C ends the
session and stops every process.`,
	Args: cobra.NoArgs,
	RunE: runDev,
}

var (
	devRunOnly         bool
	devElectronOptions string
)

// legacyDevFlag is a dev option that has been removed. Using it fails before
// anything is started.
type legacyDevFlag struct {
	name string
	hint func(value string) string
}

var legacyDevFlags = []legacyDevFlag{
	{"port", func(v string) string { return fmt.Sprintf("use --renderer-port %s instead", v) }},
	{"remote-debugging-port", func(v string) string {
		return fmt.Sprintf(`use --electron-options="--remote-debugging-port=%s" instead`, v)
	}},
	{"inspect", func(v string) string { return fmt.Sprintf(`use --electron-options="--inspect=%s" instead`, v) }},
}

// newLauncher creates the process launcher for dev sessions.
var newLauncher = func() supervisor.Launcher { return supervisor.ExecLauncher{} }

func init() {
	rootCmd.AddCommand(devCmd)

	f := devCmd.Flags()
	f.Int("renderer-port", config.DefaultRendererPort, "port of the renderer dev server")
	f.Int("startup-delay", 0, "milliseconds to wait after starting the renderer before bundling the host")
	f.BoolVar(&devRunOnly, "run-only", false, "start the host once and never restart it on rebuilds")
	f.StringVar(&devElectronOptions, "electron-options", "", "extra arguments for the host process, separated by spaces")

	for _, lf := range legacyDevFlags {
		f.String(lf.name, "", "removed")
		_ = f.MarkHidden(lf.name)
	}
}

// checkLegacyFlags rejects removed options.
func checkLegacyFlags(flags *pflag.FlagSet) error {
	for _, lf := range legacyDevFlags {
		flag := flags.Lookup(lf.name)
		if flag == nil || !flag.Changed {
			continue
		}
		return errors.NewConfigError(
			fmt.Sprintf("The option --%s has been removed", lf.name),
			errors.ErrRemovedFlag,
		).WithFlag(lf.name).WithHint(lf.hint(flag.Value.String()))
	}
	return nil
}

func runDev(cmd *cobra.Command, _ []string) error {
	console := logging.NewConsole(cmd.OutOrStdout())
	errConsole := logging.NewConsole(cmd.ErrOrStderr())

	if err := checkLegacyFlags(cmd.Flags()); err != nil {
		return report(errConsole, "", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return report(errConsole, "", err)
	}

	opts, err := config.Resolve(projectDir(), config.DevFlags{
		RunOnly:         devRunOnly,
		ElectronOptions: devElectronOptions,
	}, cfg)
	if err != nil {
		return report(errConsole, "", err)
	}

	sessionID := uuid.NewString()
	logger := newLogger(opts.ProjectDir, cfg, cmd.ErrOrStderr()).WithSession(sessionID)
	defer func() { _ = logger.Close() }()

	lock, err := session.AcquireLock(config.StateDir(opts.ProjectDir), sessionID, opts.RendererPort, logger)
	if err != nil {
		return report(errConsole, "", errors.NewConfigError("cannot start the dev session", err).
			WithHint("stop the other session first"))
	}
	defer func() { _ = lock.Release() }()
	logger.Info("dev session starting",
		"project", opts.ProjectDir,
		"renderer_port", opts.RendererPort,
		"startup_delay_ms", opts.StartupDelay.Milliseconds(),
		"run_only", opts.RunOnly,
		"entries", len(opts.Watch.Entries))

	bus := event.NewBus()
	bus.OnPanic(func(eventType string, recovered any, stack []byte) {
		logger.Error("event handler panicked",
			"event_type", eventType,
			"panic", fmt.Sprint(recovered),
			"stack", string(stack))
	})
	bus.SubscribeAll(func(e event.Event) {
		logger.Debug("event", "type", e.EventType())
	})
	subscribeDevConsole(bus, console, errConsole, opts.Watch.WatchDirs)

	compiler := bundler.New(opts.Watch, bundler.WithLogger(logger))
	sup := supervisor.New(*opts,
		supervisor.BundleCompiler{Compiler: compiler},
		newLauncher(),
		supervisor.WithBus(bus),
		supervisor.WithLogger(logger),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := sup.Run(ctx); err != nil {
		return report(errConsole, "Cannot run the dev session:", err)
	}
	return nil
}

// subscribeDevConsole renders supervisor events as status lines. Failures
// go to errConsole.
func subscribeDevConsole(bus *event.Bus, console, errConsole *logging.Console, watchDirs []string) {
	bus.Subscribe(event.TypeRendererStarted, func(e event.Event) {
		ev := e.(event.RendererStartedEvent)
		console.Info("Run renderer process: %s", commandLine(ev.Command, ev.Args))
	})
	bus.Subscribe(event.TypeHostStarted, func(e event.Event) {
		ev := e.(event.HostStartedEvent)
		console.Info("Run main process: %s", commandLine(ev.Command, ev.Args))
	})
	bus.Subscribe(event.TypeHostFailed, func(e event.Event) {
		ev := e.(event.HostFailedEvent)
		errConsole.Error("Failed to start main process: %v", ev.Err)
	})
	bus.Subscribe(event.TypeCompileFinished, func(e event.Event) {
		ev := e.(event.CompileFinishedEvent)
		if !ev.OK {
			errConsole.Error("Main process failed to compile, keeping the previous build running")
			errConsole.Diagnostics(ev.Diagnostics)
			return
		}
		errConsole.Diagnostics(ev.Warnings)
	})
	bus.Subscribe(event.TypeRendererExited, func(e event.Event) {
		ev := e.(event.RendererExitedEvent)
		console.Info("Renderer process exited with code %d", ev.ExitCode)
	})

	// Announced once, after the first good build.
	var watchingID string
	watchingID = bus.Subscribe(event.TypeCompileFinished, func(e event.Event) {
		if !e.(event.CompileFinishedEvent).OK {
			return
		}
		bus.Unsubscribe(watchingID)
		console.Info("Watching %s for changes", strings.Join(watchDirs, ", "))
	})
}

func commandLine(command string, args []string) string {
	return strings.TrimSpace(command + " " + strings.Join(args, " "))
}
