package main

import (
	"context"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"keylatch/internal/api"
	"keylatch/internal/capture"
	"keylatch/internal/config"
	"keylatch/internal/hotkey"
	"keylatch/internal/input"
	"keylatch/internal/logging"
	"keylatch/internal/osutils"
	"keylatch/internal/tray"
)

var runOpts struct {
	noTray  bool
	elevate bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the capture service (default)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runService(cmd.Context())
	},
}

func init() {
	runCmd.Flags().BoolVar(&runOpts.noTray, "no-tray", false, "do not show the tray icon")
	runCmd.Flags().BoolVar(&runOpts.elevate, "elevate", false, "relaunch with administrator rights if needed")
	// Bare "keylatch" runs the service too.
	rootCmd.Flags().AddFlagSet(runCmd.Flags())
}

// loadConfig reads the config file and builds the logger it describes.
func loadConfig() (*config.Manager, zerolog.Logger, error) {
	boot := logging.NewFromEnv()

	cfgMgr, err := config.NewManager(logging.Component(boot, "config"))
	if err != nil {
		return nil, boot, err
	}
	if err := cfgMgr.Load(); err != nil {
		boot.Warn().Err(err).Msg("failed to load config, using defaults")
	}

	cfg := cfgMgr.Get()
	log := logging.New(logging.FromEnv(logging.Config{
		Level:      logging.ParseLevel(cfg.Logging.Level, zerolog.InfoLevel),
		Format:     cfg.Logging.Format,
		TimeFormat: time.RFC3339,
	}))
	return cfgMgr, log, nil
}

func runService(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}

	cfgMgr, log, err := loadConfig()
	if err != nil {
		return err
	}
	cfg := cfgMgr.Get()

	if runOpts.elevate && !osutils.IsAdmin() {
		args := slices.DeleteFunc(slices.Clone(os.Args[1:]), func(a string) bool { return a == "--elevate" })
		if err := osutils.RelaunchElevated(args); err != nil {
			log.Warn().Err(err).Msg("could not relaunch elevated, continuing")
		} else {
			log.Info().Msg("relaunched with administrator rights")
			return nil
		}
	}

	focus := input.NewProcessFocus(cfg.Target.Processes)
	opts := capture.Options{
		Focus:       focus,
		Release:     cfg.Capture.ReleaseTiming(),
		OpenChatKey: cfg.Capture.OpenChat(),
		CapsLock:    input.CapsLockOn,
		Logger:      logging.Component(log, "capture"),
	}
	if injector, err := input.NewInjector(); err != nil {
		log.Warn().Err(err).Msg("synthetic key injection unavailable, latched keys will not be pressed or released")
	} else {
		opts.Injector = injector
	}
	engine := capture.NewEngine(opts)

	hkMgr := hotkey.NewManager(logging.Component(log, "hotkey"))

	// Debouncer for hotkeys
	var lastHkTime time.Time
	var hkMux sync.Mutex
	debounce := func() bool {
		hkMux.Lock()
		defer hkMux.Unlock()
		if time.Since(lastHkTime) < 500*time.Millisecond {
			return false
		}
		lastHkTime = time.Now()
		return true
	}

	refreshShortcuts := func(cfg *config.Config) {
		hkMgr.Clear()
		if cfg.Hotkeys.StopCapture == "" {
			return
		}
		_, err := hkMgr.Register(cfg.Hotkeys.StopCapture, func() {
			if !debounce() {
				return
			}
			log.Warn().Msg("emergency stop hotkey pressed, ending capture")
			if err := engine.StopCapture(); err != nil {
				log.Error().Err(err).Msg("emergency stop failed")
			}
		})
		if err != nil {
			log.Warn().Err(err).Str("hotkey", cfg.Hotkeys.StopCapture).Msg("failed to register stop hotkey")
			return
		}
		log.Debug().Str("hotkey", cfg.Hotkeys.StopCapture).Msg("registered stop hotkey")
	}
	refreshShortcuts(cfg)

	cfgMgr.OnConfigChange(func(cfg *config.Config) {
		if err := engine.SetOpenChatKey(cfg.Capture.OpenChat()); err != nil {
			log.Error().Err(err).Msg("apply open chat key")
		}
		engine.SetReleaseTiming(cfg.Capture.ReleaseTiming())
		focus.SetTargets(cfg.Target.Processes)
		refreshShortcuts(cfg)
		log.Info().Msg("configuration reloaded")
	})
	if err := cfgMgr.Watch(); err != nil {
		log.Warn().Err(err).Msg("config watch disabled")
	}

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return input.NewListener(logging.Component(log, "input")).Run(gctx, engine)
	})

	keyEvents, unsubscribe := engine.Subscribe(64)
	g.Go(func() error {
		defer unsubscribe()
		hkMgr.Run(gctx, keyEvents)
		return nil
	})

	if cfg.API.Enabled {
		server := api.NewServer(engine, cfg.API.Addr, cfg.API.Token, logging.Component(log, "api"))
		server.SetAllowedOrigins(cfg.API.AllowedOrigins)
		cfgMgr.OnConfigChange(func(cfg *config.Config) {
			server.SetAllowedOrigins(cfg.API.AllowedOrigins)
		})
		g.Go(func() error {
			if err := server.Run(gctx); err != nil {
				log.Error().Err(err).Msg("api server stopped; continuing without remote control")
			}
			return nil
		})
	}

	log.Info().Str("version", version).Str("config", cfgMgr.Path()).Msg("keylatch running, press Ctrl+C to stop")

	if cfg.General.ShowTray && !runOpts.noTray {
		defaults := func() (string, string) {
			c := cfgMgr.Get()
			return c.Capture.Mode, c.Capture.InputMode
		}
		menu := tray.NewCaptureMenu(engine, defaults, stop, logging.Component(log, "tray"))
		go func() {
			<-gctx.Done()
			menu.Stop()
		}()
		menu.Run()
		stop()
	}

	err = g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if serr := engine.Shutdown(shutdownCtx); serr != nil {
		log.Warn().Err(serr).Msg("releasing latched keys on exit")
	}
	log.Info().Msg("shut down")
	return err
}
