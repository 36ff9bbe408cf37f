package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bissquit/incident-console/internal/app"
	"github.com/bissquit/incident-console/internal/auth"
	"github.com/bissquit/incident-console/internal/config"
	"github.com/bissquit/incident-console/internal/version"
)

func main() {
	configPath := pflag.String("config", "", "path to config file (default: user config dir)")
	baseURL := pflag.String("base-url", "", "override the API base URL")
	logFile := pflag.String("log-file", "", "override the log file path")
	logLevel := pflag.String("log-level", "", "override the log level (debug, info, warn, error)")
	showVersion := pflag.Bool("version", false, "print version and exit")
	pflag.Parse()

	if *showVersion {
		fmt.Printf("incident-console %s (%s, built %s)\n", version.Version, version.GitCommit, version.BuildDate)
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatal(err)
	}
	if *baseURL != "" {
		cfg.API.BaseURL = *baseURL
	}
	if *logFile != "" {
		cfg.Log.File = *logFile
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch pflag.Arg(0) {
	case "login":
		err = runLogin(ctx, cfg)
	case "":
		err = runConsole(ctx, cfg)
	default:
		err = fmt.Errorf("unknown command %q (try: incident-console [login])", pflag.Arg(0))
	}
	if err != nil {
		fatal(err)
	}
}

// loadConfig resolves the config path: an explicit path must exist, the
// conventional default is optional.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	path = config.DefaultPath()
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			path = ""
		}
	}
	return config.Load(path)
}

// runConsole resolves the session and runs the TUI.
func runConsole(ctx context.Context, cfg *config.Config) error {
	console, err := app.New(ctx, cfg)
	if err != nil {
		if errors.Is(err, auth.ErrNoToken) || errors.Is(err, auth.ErrTokenExpired) {
			return fmt.Errorf("%w\nrun 'incident-console login' to authenticate", err)
		}
		return err
	}
	defer console.Close()

	return console.Run(ctx)
}

// runLogin prompts for credentials, authenticates, and stores the
// token. The password never echoes.
func runLogin(ctx context.Context, cfg *config.Config) error {
	fmt.Print("Email: ")
	reader := bufio.NewReader(os.Stdin)
	username, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("read email: %w", err)
	}
	username = strings.TrimSpace(username)

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}

	if err := app.Login(ctx, cfg, username, string(password)); err != nil {
		return err
	}
	fmt.Printf("Logged in against %s; token stored in %s\n", cfg.API.BaseURL, cfg.API.TokenFile)
	return nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "incident-console:", err)
	os.Exit(1)
}
