package cmd

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/tabfetch/packages/form"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/time/rate"
)

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
	// WatchMinInterval is the minimum time between two submissions
	WatchMinInterval = time.Second
)

var watchCmd = &cobra.Command{
	Use:   "watch <form.yaml>",
	Short: "Submit a form file and re-submit it on every save",
	Long: `Submit the request described by a YAML form file, then watch the file
and submit it again each time it is saved. The output is cleared before
every submission.

Examples:
  tabfetch watch request.yaml
  tabfetch watch request.yaml -o json`,
	Args: usageArgs(cobra.ExactArgs(1)),
	RunE: watchCommand,
}

var watchEnvFileFlag string

func init() {
	watchCmd.Flags().StringVar(&watchEnvFileFlag, "env-file", getEnvString("TABFETCH_ENV_FILE", ""), "Dotenv file for {{placeholders}}, read before the form's own env file (env: TABFETCH_ENV_FILE)")

	rootCmd.AddCommand(watchCmd)
}

func watchCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := zerolog.Ctx(ctx)
	cfg := appConfig

	path, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	// A form that is broken at start fails the command instead of being watched.
	if _, err := form.Load(path); err != nil {
		return err
	}

	sess, err := openSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer sess.Close()

	surface := newSurface(cmd, cfg)
	limiter := rate.NewLimiter(rate.Every(WatchMinInterval), 1)

	submit := func() {
		if err := limiter.Wait(ctx); err != nil {
			return
		}
		f, err := form.Load(path)
		if err != nil {
			surface.Reset()
			surface.Status(err.Error(), true)
			return
		}
		expander, err := newExpander(watchEnvFileFlag, f.EnvFile)
		if err != nil {
			surface.Reset()
			surface.Status(err.Error(), true)
			return
		}
		// Failures are already on the surface.
		_, _ = sess.newRunner(cfg, surface, expander).Submit(ctx, f.Fields())
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	// Editors often replace the file, so watch its directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}

	submit()
	logger.Info().Str("form", path).Msg("Watching for changes (press Ctrl+C to stop)")

	changes := make(chan struct{}, 1)
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-changes:
				submit()
			case <-done:
				return
			}
		}
	}()
	defer func() {
		close(done)
		wg.Wait()
	}()

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != path || (!event.Has(fsnotify.Write) && !event.Has(fsnotify.Create)) {
				continue
			}
			logger.Debug().Str("event", event.Op.String()).Msg("Form changed")

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(WatchDebounceDelay, func() {
				select {
				case changes <- struct{}{}:
				default:
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn().Err(err).Msg("File watcher error")
		}
	}
}
