package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/0fflineDocs/Cipher/internal/client"
	"github.com/0fflineDocs/Cipher/internal/config"
	"github.com/0fflineDocs/Cipher/internal/conversation"
	"github.com/0fflineDocs/Cipher/internal/event"
	"github.com/0fflineDocs/Cipher/internal/logging"
	"github.com/0fflineDocs/Cipher/internal/pipeline"
	"github.com/0fflineDocs/Cipher/internal/render"
	"github.com/0fflineDocs/Cipher/internal/selection"
	"github.com/spf13/cobra"
)

// app holds the collaborators a command works with.
type app struct {
	cfg     *config.Config
	logger  *logging.Logger
	client  *client.Client
	bus     *event.Bus
	store   *conversation.Store
	syncer  *conversation.Sync
	printer *render.Printer
	council *selection.Council
	presets *selection.PresetStore
}

func newApp(cmd *cobra.Command) (*app, error) {
	if configErr != nil {
		return nil, configErr
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	c, err := client.New(cfg.API.BaseURL,
		client.WithTimeout(cfg.API.RequestTimeout()),
		client.WithLogger(logger))
	if err != nil {
		_ = logger.Close()
		return nil, err
	}

	bus := event.NewBus(event.WithLogger(logger))
	store := conversation.NewStore(bus)
	return &app{
		cfg:     cfg,
		logger:  logger,
		client:  c,
		bus:     bus,
		store:   store,
		syncer:  conversation.NewSync(store, c, logger),
		printer: render.New(cmd.OutOrStdout(), render.ColorMode(cfg.Output.Color)),
		council: selection.NewCouncil(cfg.Council.Members, cfg.Council.Chairman, cfg.Council.MaxMembers),
		presets: selection.NewPresetStore(config.PresetDir(), cfg.Council.MaxMembers),
	}, nil
}

func newLogger(cfg *config.Config) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	logger, err := logging.NewLogger(cfg.Logging.ResolveDir(), cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

func (a *app) Close() {
	_ = a.logger.Close()
}

func (a *app) controllerOptions() []pipeline.Option {
	return []pipeline.Option{pipeline.WithLogger(a.logger), pipeline.WithBus(a.bus)}
}

// interruptContext is canceled on Ctrl-C so an in-flight stream is abandoned.
func interruptContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt)
}

// openConversation loads id, or creates a conversation when id is empty.
func (a *app) openConversation(ctx context.Context, id string) (string, error) {
	if id == "" {
		sum, err := a.syncer.Create(ctx)
		if err != nil {
			return "", err
		}
		return sum.ID, nil
	}
	if err := a.syncer.Open(ctx, id); err != nil {
		return "", err
	}
	return id, nil
}

// fail prints err through the printer and marks it as reported.
func (a *app) fail(err error) error {
	a.printer.Error(err)
	return &reportedError{err: err}
}
