package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/tabfetch/packages/core/config"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	configFlag   string
	dbFlag       string
	verboseFlag  int // 0=warnings, 1=-v info, 2=-vv debug
	quietFlag    bool
	noColorFlag  bool
	outputFlag   string
	timeoutFlag  string
	proxyFlag    string
	insecureFlag bool
	logFileFlag  string

	// appConfig is the merged configuration, set before any command runs.
	appConfig = config.DefaultConfig()
)

var rootCmd = &cobra.Command{
	Use:   "tabfetch",
	Short: "Send HTTP requests from a browser tab or the background.",
	Long: `tabfetch composes one HTTP request at a time and sends it either from
inside the active tab of a persistent browser session, carrying that page's
cookies and origin, or from the background context with its own identity.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		reportError(rootCmd.ErrOrStderr(), err)
		os.Exit(exitCodeFor(err))
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFlag, "config", getEnvString("TABFETCH_CONFIG", ""), "Path to config file (env: TABFETCH_CONFIG)")
	pf.StringVar(&dbFlag, "db", getEnvString("TABFETCH_DB", ""), "Session database (env: TABFETCH_DB)")
	pf.CountVarP(&verboseFlag, "verbose", "v", "Verbose logging (-v, -vv for more detail)")
	pf.BoolVarP(&quietFlag, "quiet", "q", false, "Disable logging")
	pf.BoolVar(&noColorFlag, "no-color", getEnvBool("TABFETCH_NO_COLOR", false), "Disable colored output (env: TABFETCH_NO_COLOR)")
	pf.StringVarP(&outputFlag, "output", "o", getEnvString("TABFETCH_OUTPUT", ""), "Output format: console, json (env: TABFETCH_OUTPUT)")
	pf.StringVar(&timeoutFlag, "timeout", getEnvString("TABFETCH_TIMEOUT", ""), "Exchange deadline, e.g. 20s (env: TABFETCH_TIMEOUT)")
	pf.StringVar(&proxyFlag, "proxy", getEnvString("TABFETCH_PROXY", ""), "Proxy URL for HTTP requests (env: TABFETCH_PROXY)")
	pf.BoolVarP(&insecureFlag, "insecure", "k", getEnvBool("TABFETCH_INSECURE", false), "Disable SSL certificate validation (env: TABFETCH_INSECURE)")
	pf.StringVar(&logFileFlag, "log-file", getEnvString("TABFETCH_LOG_FILE", ""), "Also write JSON logs to a rotated file (env: TABFETCH_LOG_FILE)")

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})
}

// setup resolves the configuration and attaches the logger to the command
// context.
func setup(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig()
	if err != nil {
		return err
	}
	appConfig = cfg

	logger := newLogger(cmd.ErrOrStderr(), cfg)
	cmd.SetContext(logger.WithContext(cmd.Context()))
	return nil
}

func resolveConfig() (*config.Config, error) {
	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, err
	}

	overrides := &config.Config{
		Database: dbFlag,
		Proxy:    proxyFlag,
		Output:   outputFlag,
	}
	if timeoutFlag != "" {
		timeout, err := parseTimeout(timeoutFlag)
		if err != nil {
			return nil, &config.Error{Err: err}
		}
		overrides.Timeout = timeout
	}
	if noColorFlag {
		overrides.NoColor = config.BoolPtr(true)
	}
	if insecureFlag {
		overrides.ValidateSSL = config.BoolPtr(false)
	}
	if verboseFlag > 0 {
		overrides.Verbose = config.BoolPtr(true)
	}

	cfg := fileConfig.Merge(overrides)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// parseTimeout accepts a duration ("20s") or bare milliseconds ("20000").
func parseTimeout(s string) (int, error) {
	if ms, err := strconv.Atoi(s); err == nil && ms > 0 {
		return ms, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid timeout value %q (use format like 20s, 1m, 500ms)", s)
	}
	return int(d.Milliseconds()), nil
}

func newLogger(stderr io.Writer, cfg *config.Config) zerolog.Logger {
	if quietFlag {
		return zerolog.Nop()
	}

	level := zerolog.WarnLevel
	switch {
	case verboseFlag >= 2:
		level = zerolog.DebugLevel
	case verboseFlag == 1 || cfg.GetVerbose():
		level = zerolog.InfoLevel
	}

	var w io.Writer = zerolog.ConsoleWriter{
		Out:        stderr,
		TimeFormat: time.Kitchen,
		NoColor:    cfg.GetNoColor(),
	}
	if logFileFlag != "" {
		w = zerolog.MultiLevelWriter(w, &lumberjack.Logger{
			Filename:   logFileFlag,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		})
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func reportError(w io.Writer, err error) {
	var shown *renderedError
	if errors.As(err, &shown) {
		return
	}
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(w, "%s %v\n", red("Error:"), err)

	var usage *usageError
	if errors.As(err, &usage) {
		fmt.Fprintf(w, "Run '%s --help' for usage.\n", rootCmd.CommandPath())
	}
}

func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}
