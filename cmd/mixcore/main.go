// Command mixcore is the headless process entry point: it wires
// Settings, the dependency-injected App, and a headless tick that runs
// Session.Render and Router.Tick through App.TickHeadless (Input.Tick is
// not called on this path). The GUI scene graph, window
// management, and file dialogs are out of scope and are expected to
// drive this same App from a separate process layer.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mixcore/core/internal/app"
	"github.com/mixcore/core/internal/logging"
	"github.com/mixcore/core/internal/settings"
)

var version = "0.1.0"

type flags struct {
	help     bool
	version  bool
	test     bool
	clean    bool
	headless bool
	settings string
	fontSize int
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	var f flags

	root := &cobra.Command{
		Use:           "mixcore [session-file]",
		Short:         "Real-time video mixing and streaming core",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetArgs(argv)

	flagSet := root.Flags()
	flagSet.BoolVarP(&f.help, "help", "H", false, "show this help message")
	flagSet.BoolVarP(&f.version, "version", "V", false, "print the version and exit")
	flagSet.BoolVarP(&f.test, "test", "T", false, "run a headless self-test and exit")
	flagSet.BoolVarP(&f.clean, "clean", "C", false, "reset user settings to defaults")
	flagSet.BoolVarP(&f.headless, "headless", "L", false, "run without a display/GUI layer")
	flagSet.StringVarP(&f.settings, "settings", "S", "", "path to a settings file")
	flagSet.IntVarP(&f.fontSize, "fontsize", "F", 0, "UI font size override")

	var sessionFile string
	root.RunE = func(cmd *cobra.Command, args []string) error {
		if len(args) == 1 {
			sessionFile = args[0]
		}
		return nil
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if f.help {
		fmt.Println(root.UsageString())
		return 0
	}
	if f.version {
		fmt.Printf("mixcore version %s\n", version)
		return 0
	}

	cfg, err := settings.Load(f.settings)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if f.clean {
		cfg.Clean()
		if err := cfg.Save(settingsPathOrDefault(f.settings)); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	if f.fontSize > 0 {
		cfg.SetFontSize(f.fontSize)
	}

	format := logging.FormatText
	if f.headless {
		format = logging.FormatJSON
	}
	logging.Init(format, slog.LevelInfo, os.Stderr)
	log := logging.L("main")

	a := app.New(cfg)
	lockDir := lockDirFor(f.settings)
	if err := a.Start(lockDir, "mixcore", "255.255.255.255", false); err != nil {
		log.Error("initialization failed", "err", err)
		return 1
	}
	defer a.Stop()

	if sessionFile != "" {
		log.Info("session file argument received (XML session format is out of scope)", "path", sessionFile)
	}

	if f.test {
		return runSelfTest(a, log)
	}

	return runHeadlessLoop(a, log)
}

func settingsPathOrDefault(path string) string {
	if path != "" {
		return path
	}
	return "./settings.yaml"
}

func lockDirFor(settingsPath string) string {
	if settingsPath != "" {
		return settingsPath + ".locks"
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return dir + "/mixcore"
}

// runSelfTest ticks the App a handful of times and reports success,
// exercising the same code path --headless does without waiting for
// an external shutdown signal.
func runSelfTest(a *app.App, log *slog.Logger) int {
	for i := 0; i < 10; i++ {
		a.TickHeadless(16 * time.Millisecond)
	}
	log.Info("self-test passed", "instance_id", a.Lock.ID())
	return 0
}

// runHeadlessLoop runs a single headless tick and returns; it does not
// loop and does not wait for a termination signal.
func runHeadlessLoop(a *app.App, log *slog.Logger) int {
	a.TickHeadless(16 * time.Millisecond)
	log.Info("headless tick completed")
	return 0
}
