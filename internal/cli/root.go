package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rileyhilliard/rtop/internal/config"
	"github.com/rileyhilliard/rtop/internal/errors"
	"github.com/rileyhilliard/rtop/internal/logger"
	"github.com/rileyhilliard/rtop/internal/metrics"
	"github.com/rileyhilliard/rtop/internal/monitor"
	"github.com/rileyhilliard/rtop/internal/privileged"
	"github.com/rileyhilliard/rtop/internal/shell"
)

// Global flags
var (
	cfgFile      string
	intervalFlag string
	shellFlag    string
	debugFlag    bool
	noColorFlag  bool
)

var rootCmd = &cobra.Command{
	Use:   "rtop",
	Short: "Terminal system monitor with an embedded shell",
	Long: `rtop shows CPU, memory, GPU, network, processes, services and logs in
one terminal dashboard, next to a persistent shell on F12.

Logs and journals you can't read open behind a sudo password prompt. The
password goes to sudo on stdin and is wiped as soon as the read is done.

Keys:
  F1          Help
  F2-F6       Dashboard, Processes, Services, Logs, Journal
  F12         Shell (any other tab key leaves it running)
  F10         Quit`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}
		if err := applyFlags(cfg, runFlags{
			Interval: intervalFlag,
			Shell:    shellFlag,
			Debug:    debugFlag,
			NoColor:  noColorFlag,
		}); err != nil {
			return err
		}
		return runDashboard(cfg)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/rtop/config.yaml)")
	rootCmd.Flags().StringVar(&intervalFlag, "interval", "", "refresh interval (e.g., 1s, 500ms)")
	rootCmd.Flags().StringVar(&shellFlag, "shell", "", "shell to run on F12")
	rootCmd.Flags().BoolVar(&debugFlag, "debug", false, "write debug logs")
	rootCmd.Flags().BoolVar(&noColorFlag, "no-color", false, "disable colors")
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if code, ok := errors.GetExitCode(err); ok {
			os.Exit(code)
		}
		fmt.Fprint(os.Stderr, err.Error())
		if !strings.HasSuffix(err.Error(), "\n") {
			fmt.Fprintln(os.Stderr)
		}
		if isUnknownCommandError(err) {
			if name := extractUnknownCommand(err); name != "" {
				fmt.Fprintf(os.Stderr, "\n  '%s' isn't an rtop command. Run 'rtop --help' to see what is.\n", name)
			}
		}
		os.Exit(1)
	}
}

// runFlags are the command-line overrides for the dashboard.
type runFlags struct {
	Interval string
	Shell    string
	Debug    bool
	NoColor  bool
}

// applyFlags layers command-line flags over the loaded config and
// re-validates the result.
func applyFlags(cfg *config.Config, f runFlags) error {
	if f.Interval != "" {
		d, err := time.ParseDuration(f.Interval)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("Invalid interval: %s", f.Interval),
				"Use a valid duration like 1s, 500ms, or 2s")
		}
		cfg.Interval = d
	}
	if f.Shell != "" {
		cfg.Shell.Path = f.Shell
	}
	if f.Debug {
		cfg.Log.Level = "debug"
	}
	if f.NoColor {
		cfg.UI.Color = "never"
	}
	return config.Validate(cfg)
}

// loadConfig finds and loads the config, falling back to defaults when no
// file exists.
func loadConfig() (*config.Config, string, error) {
	cfg, path, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, "", err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// colorProfile maps the ui.color setting to a termenv profile.
func colorProfile(mode string) termenv.Profile {
	switch mode {
	case "never":
		return termenv.Ascii
	case "always":
		return termenv.TrueColor
	default:
		return termenv.EnvColorProfile()
	}
}

func runDashboard(cfg *config.Config) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New(errors.ErrTerminal,
			"rtop needs an interactive terminal",
			"Run it directly in a terminal, not through a pipe or redirect.")
	}

	if err := logger.Init(logger.Config{
		File:       config.Expand(cfg.Log.File),
		Level:      cfg.Log.Level,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	}); err != nil {
		return err
	}
	defer func() { _ = logger.Shutdown() }()

	log := logger.ForComponent(logger.CompCLI)
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		log.Debug("terminal size %dx%d", w, h)
	}

	lipgloss.SetColorProfile(colorProfile(cfg.UI.Color))

	manager := monitor.NewShellManager(shellOptions(cfg), cfg.Shell.ScrollbackBytes)
	defer func() {
		if err := manager.Close(); err != nil {
			log.Warn("close shell: %v", err)
		}
	}()

	model := monitor.NewModel(modelOptions(cfg, manager))
	log.Info("rtop %s starting, refresh every %s", versionString(), cfg.Interval)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return errors.WrapWithCode(err, errors.ErrTerminal,
			"The terminal UI stopped unexpectedly",
			"Check the log file for details.")
	}
	return nil
}

func shellOptions(cfg *config.Config) shell.Options {
	return shell.Options{
		Path:        config.Expand(cfg.Shell.Path),
		Args:        cfg.Shell.Args,
		Term:        cfg.Shell.Term,
		QueueSize:   cfg.Shell.QueueSize,
		GracePeriod: cfg.Shell.GracePeriod,
		Logger:      logger.ForComponent(logger.CompShell),
	}
}

func modelOptions(cfg *config.Config, manager *monitor.ShellManager) monitor.Options {
	return monitor.Options{
		Collector: metrics.NewCollector(metrics.Options{
			Logger: logger.ForComponent(logger.CompMetrics),
		}),
		Broker: privileged.NewBroker(privileged.Options{
			SudoPath: cfg.Privileged.SudoPath,
			MaxLines: cfg.Privileged.MaxLines,
			Logger:   logger.ForComponent(logger.CompPrivileged),
		}),
		Shell:       manager,
		History:     metrics.NewHistory(cfg.HistorySize),
		Interval:    cfg.Interval,
		ShellPoll:   cfg.Shell.PollInterval,
		MaxAttempts: cfg.Privileged.MaxAttempts,
		Thresholds: monitor.Thresholds{
			Warning:  cfg.UI.Thresholds.Warning,
			Critical: cfg.UI.Thresholds.Critical,
		},
		LogsDir:    config.Expand(cfg.Logs.Dir),
		JournalDir: config.Expand(cfg.Logs.JournalDir),
		Version:    currentBuild().Version,
		Logger:     logger.ForComponent(logger.CompMonitor),
	}
}

// isUnknownCommandError checks if the error is cobra's unknown command or flag error.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") || strings.HasPrefix(msg, "unknown flag")
}

// extractUnknownCommand pulls the command name out of cobra's
// `unknown command "foo" for "rtop"` message.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}
