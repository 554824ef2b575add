package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/runger/rselect/internal/config"
	rlog "github.com/runger/rselect/internal/log"
	"github.com/runger/rselect/internal/picker"
)

func runSelect(cmd *cobra.Command, args []string) error {
	paths := config.DefaultPaths()
	cfg, cfgPath, err := loadConfig(paths)
	if err != nil {
		return err
	}
	if err := applyFlags(cfg, opts); err != nil {
		return err
	}

	src, err := buildSource(cfg, opts, args, os.Stdin)
	if err != nil {
		return err
	}

	tty, err := openTerminal()
	if err != nil {
		return err
	}
	defer tty.Close()

	logger, closeLog, err := setupLogger(cfg, paths)
	if err != nil {
		return err
	}
	defer closeLog()
	logger, _ = rlog.WithSession(logger)
	rlog.LogSessionStart(logger, rlog.SessionInfo{
		Version:    Version,
		ConfigPath: cfgPath,
		Source:     src.name,
		PID:        os.Getpid(),
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM)
	defer stop()

	value, err := prompt(ctx, cfg, src, logger, tea.WithInput(tty), tea.WithOutput(tty))
	rlog.LogSessionEnd(logger, outcome(err), ExitCode(err))
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), value)

	if opts.copy {
		if err := clipboard.WriteAll(value); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "rselect: warning: failed to copy to clipboard: %v\n", err)
		}
	}
	return nil
}

// prompt runs the picker for src. A fetch failure that leaves nothing to
// select is reported together with its cause.
func prompt(ctx context.Context, cfg *config.Config, src origin, logger *slog.Logger, progOpts ...tea.ProgramOption) (string, error) {
	var fetchErr error
	value, err := picker.Run(ctx, picker.Config[string]{
		Message:      cfg.Prompt.Message,
		SearchText:   cfg.Prompt.SearchText,
		Choices:      src.choices,
		Source:       src.source,
		TickInterval: cfg.TickInterval(),
		OnFetchError: func(err error) { fetchErr = err },
		Logger:       logger,
	}, progOpts...)

	if errors.Is(err, picker.ErrNoSelectableChoices) && fetchErr != nil {
		return "", fmt.Errorf("%w: %w", err, fetchErr)
	}
	return value, err
}

// configFile returns the file named by --config, or the default one.
func configFile(paths *config.Paths) string {
	if opts.configPath != "" {
		return opts.configPath
	}
	return paths.ConfigFile()
}

// loadConfig reads configFile with environment overrides applied.
func loadConfig(paths *config.Paths) (*config.Config, string, error) {
	path := configFile(paths)
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, path, nil
}

// applyFlags overlays explicitly given flags on the loaded configuration.
func applyFlags(cfg *config.Config, o selectOptions) error {
	if o.message != "" {
		cfg.Prompt.Message = o.message
	}
	if o.searchText != "" {
		cfg.Prompt.SearchText = o.searchText
	}
	if o.tickInterval > 0 {
		cfg.Prompt.TickIntervalMs = int(o.tickInterval.Milliseconds())
	}
	if o.delay > 0 {
		cfg.Source.DelayMs = int(o.delay.Milliseconds())
	}
	if o.timeout > 0 {
		cfg.Source.TimeoutMs = int(o.timeout.Milliseconds())
	}
	if o.grpcMethod != "" {
		cfg.Source.GRPCMethod = o.grpcMethod
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

// setupLogger returns the session logger. Logs go to log.file when set,
// to the cache directory when the level is debug, and nowhere otherwise:
// the prompt owns the terminal.
func setupLogger(cfg *config.Config, paths *config.Paths) (*slog.Logger, func(), error) {
	level, err := rlog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}

	path := cfg.Log.File
	if path == "" && level == slog.LevelDebug {
		path = paths.LogFile()
	}
	if path == "" {
		return rlog.New(&rlog.Config{Output: io.Discard, Level: level}), func() {}, nil
	}

	w, err := rlog.OpenFile(path)
	if err != nil {
		return nil, nil, err
	}
	return rlog.New(&rlog.Config{Output: w, Level: level}), func() { _ = w.Close() }, nil
}

// outcome names how a session ended, for the log.
func outcome(err error) string {
	switch {
	case err == nil:
		return "selected"
	case errors.Is(err, picker.ErrCancelled):
		return "cancelled"
	case errors.Is(err, picker.ErrNoSelectableChoices):
		return "no_choices"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "interrupted"
	default:
		return "error"
	}
}
