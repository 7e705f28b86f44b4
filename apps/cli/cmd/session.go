package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/tabfetch/packages/browser"
	"github.com/abdul-hamid-achik/tabfetch/packages/core/config"
	"github.com/abdul-hamid-achik/tabfetch/packages/core/env"
	"github.com/abdul-hamid-achik/tabfetch/packages/core/runner"
	"github.com/abdul-hamid-achik/tabfetch/packages/db"
	"github.com/abdul-hamid-achik/tabfetch/packages/dispatch"
	"github.com/abdul-hamid-achik/tabfetch/packages/http"
	"github.com/abdul-hamid-achik/tabfetch/packages/output"
	"github.com/abdul-hamid-achik/tabfetch/packages/request"
	"github.com/abdul-hamid-achik/tabfetch/packages/store"
	"github.com/spf13/cobra"
)

// session is the persistent browser session: its tabs, the cookie stores
// of both execution contexts and the last-used form fields.
type session struct {
	db            *db.Client
	tabs          *browser.TabStore
	pageJar       *browser.Jar
	backgroundJar *browser.Jar
	fields        *store.SQLite
}

func openSession(ctx context.Context, cfg *config.Config) (*session, error) {
	client, err := db.NewClient(cfg.GetDatabase())
	if err != nil {
		return nil, fmt.Errorf("opening session database: %w", err)
	}

	pageJar, err := browser.NewJar(ctx, client, browser.ScopePage)
	if err != nil {
		_ = client.Close()
		return nil, err
	}
	backgroundJar, err := browser.NewJar(ctx, client, browser.ScopeBackground)
	if err != nil {
		_ = client.Close()
		return nil, err
	}

	return &session{
		db:            client,
		tabs:          browser.NewTabStore(client),
		pageJar:       pageJar,
		backgroundJar: backgroundJar,
		fields:        store.NewSQLite(client),
	}, nil
}

func (s *session) Close() error {
	return s.db.Close()
}

func (s *session) jar(background bool) *browser.Jar {
	if background {
		return s.backgroundJar
	}
	return s.pageJar
}

// newRunner wires one submission engine: the background client, the page
// injector and the composer, all sharing the configured network settings.
func (s *session) newRunner(cfg *config.Config, surface output.Surface, expander request.Expander) *runner.Runner {
	background := http.NewClient(append(clientOptions(cfg), http.WithJar(s.backgroundJar))...)
	injector := browser.NewInjector(s.tabs, s.pageJar, clientOptions(cfg)...)

	executor := dispatch.NewExecutor(background,
		dispatch.WithTimeout(cfg.GetTimeout()),
		dispatch.WithPages(s.tabs, injector),
	)

	var composerOpts []request.ComposerOption
	if expander != nil {
		composerOpts = append(composerOpts, request.WithExpander(expander))
	}
	composer := request.NewComposer(s.fields, composerOpts...)

	return runner.NewRunner(composer, executor, surface)
}

func clientOptions(cfg *config.Config) []http.ClientOption {
	opts := []http.ClientOption{
		http.WithFollowRedirects(cfg.GetFollowRedirects()),
		http.WithValidateSSL(cfg.GetValidateSSL()),
		http.WithDefaultHeaders(cfg.Headers),
	}
	if cfg.MaxRedirects > 0 {
		opts = append(opts, http.WithMaxRedirects(cfg.MaxRedirects))
	}
	if cfg.Proxy != "" {
		opts = append(opts, http.WithProxy(cfg.Proxy))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, http.WithUserAgent(cfg.UserAgent))
	}
	return opts
}

func newSurface(cmd *cobra.Command, cfg *config.Config) output.Surface {
	if strings.EqualFold(cfg.Output, config.OutputJSON) {
		return output.NewJSONSurface(output.JSONWithWriter(cmd.OutOrStdout()))
	}
	return output.NewConsoleSurface(
		output.WithWriter(cmd.OutOrStdout()),
		output.WithStatusWriter(cmd.ErrOrStderr()),
		output.WithNoColor(cfg.GetNoColor()),
	)
}

// newExpander returns a placeholder resolver loaded with the given dotenv
// files. Empty paths are skipped.
func newExpander(envFiles ...string) (*env.Resolver, error) {
	resolver := env.NewResolver()
	for _, path := range envFiles {
		if path == "" {
			continue
		}
		if err := resolver.LoadFile(path); err != nil {
			return nil, &config.Error{Path: path, Err: err}
		}
	}
	return resolver, nil
}
