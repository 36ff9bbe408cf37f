// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/bissquit/incident-console/internal/api"
	"github.com/bissquit/incident-console/internal/auth"
	"github.com/bissquit/incident-console/internal/config"
	"github.com/bissquit/incident-console/internal/pkg/ctxlog"
	"github.com/bissquit/incident-console/internal/store"
	"github.com/bissquit/incident-console/internal/tui"
)

// App represents the console instance: configuration, logging, the
// API client, and the resolved session. One App runs one TUI program.
type App struct {
	config   *config.Config
	logger   *slog.Logger
	closeLog func() error

	client  *api.Client
	session *auth.Session

	toaster       *tui.Toaster
	statusHandler *tui.StatusLogHandler
}

// New creates a console instance: builds the logger, loads the stored
// token, and resolves the session against the API. Returns
// auth.ErrNoToken or auth.ErrTokenExpired when a login is needed.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{config: cfg}
	if err := app.initLogger(cfg.Log); err != nil {
		return nil, err
	}

	token, err := auth.LoadToken(cfg.API.TokenFile)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.client = api.NewClient(api.Config{
		BaseURL:   cfg.API.BaseURL,
		Token:     token,
		Timeout:   cfg.API.Timeout,
		RateLimit: cfg.API.RateLimit,
		Burst:     cfg.API.Burst,
	})

	establishCtx, cancel := context.WithTimeout(ctx, cfg.API.Timeout)
	defer cancel()

	session, err := auth.Establish(establishCtx, app.client, token)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.session = session

	app.logger.Info("session established",
		"user", session.User().Email,
		"privileged", session.IsPrivileged(),
	)
	return app, nil
}

// Run wires the cache and controllers to the TUI and blocks until the
// program exits.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)

	cache := store.NewCache()
	queries := store.NewQueries(cache)
	mutations := store.NewMutations(a.client, cache, a.toaster)

	model := tui.NewModel(ctx, a.client, cache, queries, mutations, a.session, a.config.UI.PageSize, a.logger)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	// Connect the async notification paths now that the program exists.
	a.toaster.SetProgram(program)
	a.statusHandler.SetProgram(program)

	a.logger.Info("starting console", "base_url", a.config.API.BaseURL)
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run program: %w", err)
	}
	return nil
}

// Close releases the log file.
func (a *App) Close() error {
	a.logger.Info("shutting down")
	if a.closeLog != nil {
		return a.closeLog()
	}
	return nil
}

// Login authenticates against the API and stores the token for
// subsequent sessions. Used by the login subcommand, before any
// session exists.
func Login(ctx context.Context, cfg *config.Config, username, password string) error {
	client := api.NewClient(api.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		RateLimit: cfg.API.RateLimit,
		Burst:     cfg.API.Burst,
	})

	loginCtx, cancel := context.WithTimeout(ctx, cfg.API.Timeout)
	defer cancel()

	token, err := client.Login(loginCtx, username, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := auth.SaveToken(cfg.API.TokenFile, token.AccessToken); err != nil {
		return err
	}
	return nil
}

// initLogger builds the background logger. Records go to the
// configured file (or nowhere) plus the TUI status bar for warnings
// and errors; stdout and stderr stay untouched while the alt screen
// is active.
func (a *App) initLogger(cfg config.LogConfig) error {
	base := ctxlog.NewDiscardLogger()
	if cfg.File != "" {
		logger, closeLog, err := ctxlog.NewFileLogger(cfg.File, cfg.Level)
		if err != nil {
			return err
		}
		base = logger
		a.closeLog = closeLog
	}

	a.toaster = tui.NewToaster()
	a.statusHandler = tui.NewStatusLogHandler(slog.LevelWarn)

	a.logger = slog.New(fanout{base.Handler(), a.statusHandler})
	return nil
}

// fanout delivers each record to every handler that accepts its level.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range f {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanout) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, handler := range f {
		if handler.Enabled(ctx, record.Level) {
			errs = append(errs, handler.Handle(ctx, record.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	derived := make(fanout, len(f))
	for i, handler := range f {
		derived[i] = handler.WithAttrs(attrs)
	}
	return derived
}

func (f fanout) WithGroup(name string) slog.Handler {
	derived := make(fanout, len(f))
	for i, handler := range f {
		derived[i] = handler.WithGroup(name)
	}
	return derived
}
