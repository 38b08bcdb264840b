package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"admute/internal/config"
	"admute/internal/console"
	"admute/internal/daemon"
	"admute/internal/logging"
	"admute/internal/monitor"
	"admute/internal/reporter"
	"admute/pkg/audio"
	"admute/pkg/detector"
	"admute/pkg/integrations/process"
	"admute/pkg/window"
)

var (
	version = "0.1.0"
	commit  = "unknown"
	date    = "unknown"
)

const appName = "admute"

func main() {
	command := "run"
	if len(os.Args) > 1 {
		command = os.Args[1]
	}

	switch command {
	case "run":
		os.Exit(runMonitor())
	case "pids":
		listPIDs()
	case "windows":
		os.Exit(listWindows(false))
	case "probe":
		os.Exit(listWindows(true))
	case "once":
		os.Exit(muteOnce())
	case "status":
		showStatus()
	case "stop":
		stopMonitor()
	case "version":
		fmt.Printf("%s version %s\n", appName, version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`admute - Mutes the media player while it plays advertisements

Usage:
  admute [command] [options]

Commands:
  run [--json]       Watch the player and mute adverts (default)
  pids               List matching processes and their PIDs
  windows            List matching PIDs with their visible window
  probe              Like windows, plus each title and its classification
  once               Probe and apply the mute state once
  status             Show whether a monitor is running
  stop               Stop the running monitor
  version            Show version information
  help               Show this help message

Environment Variables:
  ADMUTE_PROCESS_NAME         Exact player process name (Spotify.exe / spotify)
  ADMUTE_SEARCH               Process name substring to scan for
  ADMUTE_MARKER               Title substring marking an advertisement
  ADMUTE_SEARCH_INTERVAL_MS   Poll interval while the player is absent
  ADMUTE_IDLE_INTERVAL_MS     Poll interval during normal playback
  ADMUTE_ADVERT_INTERVAL_MS   Poll interval during an advertisement
  ADMUTE_FAIL_FAST            Exit on the first mute failure (true/false)
  ADMUTE_PID_FILE             PID file path
  ADMUTE_CLEAR_SCREEN         Clear the terminal at startup (true/false)
  ADMUTE_COLOR                auto, always or never
  ADMUTE_LOG_LEVEL            debug, info, warn, error
  ADMUTE_LOG_FILE             Also write diagnostics to this file

Version: %s
`, version)
}

func hasFlag(name string) bool {
	if len(os.Args) < 3 {
		return false
	}
	for _, arg := range os.Args[2:] {
		if arg == name {
			return true
		}
	}
	return false
}

// setup loads and validates the configuration and builds the diagnostic
// logger. It exits on failure.
func setup() (*config.Config, *logging.Logger) {
	cfg, envErr := config.New()

	logger, err := logging.New(
		logging.WithConsole(os.Stderr, cfg.Console.Color == "never"),
		logging.WithLevel(logging.ParseLevel(cfg.Log.Level)),
		logging.WithFile(cfg.Log.File),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialise logging: %v\n", err)
		os.Exit(1)
	}

	if envErr != nil {
		logger.Warn().Err(envErr).Msg("Using default poll intervals")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}

	return cfg, logger
}

func runMonitor() int {
	cfg, logger := setup()
	defer logger.Close()
	log := logger.Logger

	dm := daemon.New(cfg.Daemon.PIDFile)
	if err := dm.Acquire(); err != nil {
		log.Error().Err(err).Msg("Cannot start monitor")
		return 1
	}
	defer dm.RemovePID()

	// COM is bound to this goroutine's thread; the loop below must stay on it
	plat, err := detector.New(log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialise platform backends")
		return 1
	}
	defer plat.Close()

	log.Debug().Msgf("Configuration:\n%s", cfg.String())

	printer := console.New(cfg.Console.Color, cfg.Target.ProcessName)
	muter := audio.NewSessionMuter(plat.Audio, printer)
	rep := reporter.New()

	mon := monitor.New(cfg, monitor.Deps{
		Locator:  process.NewLocator(log),
		Windows:  window.NewResolver(plat.Windows, log),
		Titles:   plat.Windows,
		Muter:    muter,
		Observer: printer,
		Recorder: rep,
	}, log)

	if cfg.Console.ClearScreen {
		printer.ClearScreen()
	}
	printer.Banner(plat.Windows.Name() + "/" + muter.Backend())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := 0
	if err := mon.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("Monitor stopped")
		code = 1
	}

	printReport(rep.Report(), hasFlag("--json"), log)
	return code
}

func printReport(report *reporter.Report, asJSON bool, log zerolog.Logger) {
	if !asJSON {
		fmt.Println()
		fmt.Print(reporter.FormatReportText(report))
		return
	}

	out, err := reporter.FormatReportJSON(report)
	if err != nil {
		log.Error().Err(err).Msg("Failed to format report")
		return
	}
	fmt.Println(out)
}

// sortedNames returns the keys of a process match map in a stable order
func sortedNames(matches map[string][]uint32) []string {
	names := make([]string, 0, len(matches))
	for name := range matches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func listPIDs() {
	cfg, logger := setup()
	defer logger.Close()

	matches := process.NewLocator(logger.Logger).FindTargetPIDs(cfg.Target.SearchSubstring)
	if len(matches) == 0 {
		fmt.Printf("No process matching %q\n", cfg.Target.SearchSubstring)
		return
	}

	for _, name := range sortedNames(matches) {
		fmt.Printf("%-30s %v\n", name, matches[name])
	}
}

func listWindows(withTitles bool) int {
	cfg, logger := setup()
	defer logger.Close()
	log := logger.Logger

	plat, err := detector.New(log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialise platform backends")
		return 1
	}
	defer plat.Close()

	resolver := window.NewResolver(plat.Windows, log)
	matches := process.NewLocator(log).FindTargetPIDs(cfg.Target.SearchSubstring)
	if len(matches) == 0 {
		fmt.Printf("No process matching %q\n", cfg.Target.SearchSubstring)
		return 0
	}

	for _, name := range sortedNames(matches) {
		for _, pid := range matches[name] {
			h, ok := resolver.FindWindow(pid)
			if !ok {
				fmt.Printf("%-24s pid %-8d no visible window\n", name, pid)
				continue
			}
			if !withTitles {
				fmt.Printf("%-24s pid %-8d window 0x%x\n", name, pid, uintptr(h))
				continue
			}

			title, ok := plat.Windows.ReadTitle(h)
			if !ok {
				fmt.Printf("%-24s pid %-8d window 0x%x (no title)\n", name, pid, uintptr(h))
				continue
			}
			kind := "content"
			if monitor.IsAdvert(title, cfg.Target.AdvertMarker) {
				kind = "ADVERT"
			}
			fmt.Printf("%-24s pid %-8d window 0x%x [%s] %q\n", name, pid, uintptr(h), kind, title)
		}
	}

	return 0
}

// muteOnce runs a single monitor step for the configured player and
// applies the resulting mute state
func muteOnce() int {
	cfg, logger := setup()
	defer logger.Close()
	log := logger.Logger

	plat, err := detector.New(log)
	if err != nil {
		log.Error().Err(err).Msg("Failed to initialise platform backends")
		return 1
	}
	defer plat.Close()

	printer := console.New(cfg.Console.Color, cfg.Target.ProcessName)
	mon := monitor.New(cfg, monitor.Deps{
		Locator:  process.NewLocator(log),
		Windows:  window.NewResolver(plat.Windows, log),
		Titles:   plat.Windows,
		Muter:    audio.NewSessionMuter(plat.Audio, printer),
		Observer: printer,
	}, log)

	state, res, err := mon.Step(mon.Initial())
	if err == nil {
		err = res.Err
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to apply mute state")
		return 1
	}

	if state.HasTarget() && res.MuteRequested && !res.MuteChanged {
		printer.Line("Mute state already correct (muted: %v)", res.Mute)
	}
	return 0
}

func stopMonitor() {
	cfg, logger := setup()
	defer logger.Close()

	dm := daemon.New(cfg.Daemon.PIDFile)

	running, pid, err := dm.IsRunning()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to check monitor status")
	}

	if !running {
		fmt.Println("Monitor is not running")
		return
	}

	fmt.Printf("Stopping monitor (PID: %d)...\n", pid)
	if err := dm.Stop(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to stop monitor")
	}

	fmt.Println("Monitor stopped successfully")
}

func showStatus() {
	cfg, logger := setup()
	defer logger.Close()

	dm := daemon.New(cfg.Daemon.PIDFile)

	running, pid, err := dm.IsRunning()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to check monitor status")
	}

	if !running {
		fmt.Println("Status: Not running")
	} else {
		fmt.Printf("Status: Running (PID: %d)\n", pid)
	}
	fmt.Printf("PID File: %s\n", dm.PIDFile())
	fmt.Printf("Display: %s\n", detector.DetectDisplayServer())

	matches := process.NewLocator(logger.Logger).FindTargetPIDs(cfg.Target.SearchSubstring)
	if pids := matches[cfg.Target.ProcessName]; len(pids) > 0 {
		fmt.Printf("Player: %s %v\n", cfg.Target.ProcessName, pids)
	} else {
		fmt.Printf("Player: %s not running\n", cfg.Target.ProcessName)
	}
}
