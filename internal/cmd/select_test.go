package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/rselect/internal/config"
	"github.com/runger/rselect/internal/picker"
	"github.com/runger/rselect/internal/source"
)

var discardLogger = slog.New(slog.DiscardHandler)

func TestPrompt_StaticChoices(t *testing.T) {
	src, err := buildSource(config.DefaultConfig(), selectOptions{}, []string{"red", "green"}, nil)
	require.NoError(t, err)

	value, err := prompt(context.Background(), config.DefaultConfig(), src, discardLogger,
		tea.WithInput(strings.NewReader("j\r")), tea.WithOutput(io.Discard))
	require.NoError(t, err)
	assert.Equal(t, "green", value)
}

func TestPrompt_RemoteChoices(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Prompt.TickIntervalMs = 5

	src := origin{name: "static", source: &source.Static{
		Delay: 30 * time.Millisecond,
		Items: []picker.Item[string]{
			picker.Separator{},
			picker.Choice[string]{Value: "only"},
		},
	}}

	// Keys are ignored while loading, so enter is sent after the fetch
	// has settled.
	r, w := io.Pipe()
	go func() {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte("\r"))
	}()
	t.Cleanup(func() { _ = w.Close() })

	value, err := prompt(context.Background(), cfg, src, discardLogger, tea.WithInput(r), tea.WithOutput(io.Discard))
	require.NoError(t, err)
	assert.Equal(t, "only", value)
}

func TestPrompt_FetchFailureIsReported(t *testing.T) {
	boom := errors.New("connection refused")
	src := origin{name: "func", source: picker.SourceFunc[string](func(context.Context) ([]picker.Item[string], error) {
		return nil, boom
	})}

	_, err := prompt(context.Background(), config.DefaultConfig(), src, discardLogger,
		tea.WithInput(nil), tea.WithOutput(io.Discard))
	require.ErrorIs(t, err, picker.ErrNoSelectableChoices)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, exitFailure, ExitCode(err))
}

func TestApplyFlags(t *testing.T) {
	cfg := config.DefaultConfig()
	err := applyFlags(cfg, selectOptions{
		message:      "Pick a pod",
		searchText:   "Listing pods",
		tickInterval: 100 * time.Millisecond,
		delay:        2 * time.Second,
		timeout:      10 * time.Second,
		grpcMethod:   "/k8s.Pods/List",
	})
	require.NoError(t, err)

	assert.Equal(t, "Pick a pod", cfg.Prompt.Message)
	assert.Equal(t, "Listing pods", cfg.Prompt.SearchText)
	assert.Equal(t, 100*time.Millisecond, cfg.TickInterval())
	assert.Equal(t, 2*time.Second, cfg.Delay())
	assert.Equal(t, 10*time.Second, cfg.Timeout())
	assert.Equal(t, "/k8s.Pods/List", cfg.Source.GRPCMethod)
}

func TestApplyFlags_KeepsConfigWhenUnset(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Prompt.Message = "From file"

	require.NoError(t, applyFlags(cfg, selectOptions{}))
	assert.Equal(t, "From file", cfg.Prompt.Message)
	assert.Equal(t, config.DefaultConfig().Source, cfg.Source)
}

func TestSetupLogger(t *testing.T) {
	dir := t.TempDir()
	paths := &config.Paths{ConfigDir: dir, CacheDir: filepath.Join(dir, "cache")}

	t.Run("info discards", func(t *testing.T) {
		logger, closeLog, err := setupLogger(config.DefaultConfig(), paths)
		require.NoError(t, err)
		defer closeLog()

		logger.Info("nowhere")
		_, err = os.Stat(paths.LogFile())
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("debug writes to cache", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Log.Level = "debug"

		logger, closeLog, err := setupLogger(cfg, paths)
		require.NoError(t, err)
		logger.Debug("fetch started")
		closeLog()

		data, err := os.ReadFile(paths.LogFile())
		require.NoError(t, err)
		assert.Contains(t, string(data), "fetch started")
	})

	t.Run("explicit file", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Log.File = filepath.Join(dir, "custom", "r.log")

		logger, closeLog, err := setupLogger(cfg, paths)
		require.NoError(t, err)
		logger.Info("choice confirmed")
		logger.Debug("hidden at info")
		closeLog()

		data, err := os.ReadFile(cfg.Log.File)
		require.NoError(t, err)
		assert.Contains(t, string(data), "choice confirmed")
		assert.NotContains(t, string(data), "hidden at info")
	})

	t.Run("bad level", func(t *testing.T) {
		cfg := config.DefaultConfig()
		cfg.Log.Level = "shout"
		_, _, err := setupLogger(cfg, paths)
		assert.Error(t, err)
	})
}
