package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jscyril/audio_tombola/api"
	"github.com/jscyril/audio_tombola/internal/audio"
	"github.com/jscyril/audio_tombola/internal/config"
	"github.com/jscyril/audio_tombola/internal/logging"
	"github.com/jscyril/audio_tombola/internal/media"
	"github.com/jscyril/audio_tombola/internal/session"
	"github.com/jscyril/audio_tombola/internal/ui"
	"github.com/jscyril/audio_tombola/pkg/events"
)

var (
	cfgFile  string
	envFile  string
	capacity int
	cfg      *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "tombola [files or directories...]",
	Short: "Number a batch of audio clips and draw them at random",
	Long: `Load audio clips, put them in order to give each one a number, then
draw the numbers at random. Every drawn number plays its clip.

Files and directories given as arguments are loaded on start, after the
configured media_directories.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
	RunE:              runTombola,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/tombola/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before the config")
	rootCmd.PersistentFlags().IntVar(&capacity, "capacity", 0, "maximum number of clips (overrides config)")
}

// loadConfig resolves configuration for every command
func loadConfig(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}

	var err error
	if cfgFile != "" {
		cfg, err = config.LoadConfig(cfgFile)
	} else {
		cfg, err = config.LoadOrCreate(config.GetConfigPath())
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cmd.Flags().Changed("capacity") {
		cfg.Capacity = capacity
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// openLogger sets up the file logger and stores it on ctx
func openLogger(ctx context.Context) (context.Context, io.Closer, error) {
	logger, closer, err := logging.New(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		return ctx, nil, fmt.Errorf("open log file: %w", err)
	}
	return logging.WithLogger(ctx, logger), closer, nil
}

// newSession builds a session over manager and preloads the configured
// directories and paths. The session is usable even when some media failed
// to load.
func newSession(ctx context.Context, manager *media.Manager, player api.Player, bus *events.EventBus, paths []string, opts ...session.Option) (*session.Session, error) {
	logger := logging.FromContext(ctx)
	opts = append([]session.Option{
		session.WithCapacity(cfg.Capacity),
		session.WithBus(bus),
		session.WithLogger(logger),
	}, opts...)
	sess := session.New(manager, player, opts...)

	preload := append(append([]string{}, cfg.MediaDirectories...), paths...)
	if len(preload) == 0 {
		return sess, nil
	}

	accepted, err := sess.AddFiles(ctx, preload)
	logger.Info("preloaded media", "paths", len(preload), "accepted", accepted)
	return sess, err
}

func runTombola(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ctx, closer, err := openLogger(ctx)
	if err != nil {
		return err
	}
	defer closer.Close()
	logger := logging.FromContext(ctx)

	bus := events.NewEventBus()
	defer bus.Close()

	manager := media.NewManager(cfg.ImportWorkers, logger)
	player := audio.NewPlayer(manager, cfg.SampleRate, cfg.DefaultVolume, logger)
	player.Start(ctx)

	sess, err := newSession(ctx, manager, player, bus, args)
	if err != nil {
		logger.Warn("some media could not be loaded", "error", err)
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %v\n", err)
	}
	defer sess.ResetAll()

	logger.Info("starting", "capacity", cfg.Capacity, "entries", sess.Registry().Len())
	if err := ui.Run(ctx, sess, player, bus, cfg.KeyBindings); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
