package commands

import (
	"context"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/toaster/internal/core/config"
	"github.com/colonyops/toaster/internal/core/eventbus"
	"github.com/colonyops/toaster/internal/core/logging"
	"github.com/colonyops/toaster/internal/core/metrics"
	"github.com/colonyops/toaster/internal/core/schedule"
	"github.com/colonyops/toaster/internal/core/toast"
	"github.com/colonyops/toaster/internal/profiler"
	"github.com/colonyops/toaster/internal/tui"
)

const eventBusSize = 64

type DashboardCmd struct {
	flags        *Flags
	build        tui.BuildInfo
	profilerPort int
	metricsAddr  string
	noWatch      bool
}

// NewDashboardCmd creates the interactive dashboard command.
func NewDashboardCmd(flags *Flags, build tui.BuildInfo) *DashboardCmd {
	return &DashboardCmd{flags: flags, build: build}
}

// Flags returns the dashboard flags for registration on the root command.
func (cmd *DashboardCmd) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "profiler-port",
			Usage:       "enable pprof HTTP endpoint on specified port (e.g., 6060)",
			Sources:     cli.EnvVars("TOASTER_PROFILER_PORT"),
			Destination: &cmd.profilerPort,
		},
		&cli.StringFlag{
			Name:        "metrics-listen",
			Usage:       "serve Prometheus metrics on this address (overrides metrics.listen)",
			Sources:     cli.EnvVars("TOASTER_METRICS_LISTEN"),
			Destination: &cmd.metricsAddr,
		},
		&cli.BoolFlag{
			Name:        "no-watch",
			Usage:       "do not reload the config file when it changes",
			Sources:     cli.EnvVars("TOASTER_NO_WATCH"),
			Destination: &cmd.noWatch,
		},
	}
}

// Register adds the dashboard command to the application.
func (cmd *DashboardCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:        "dashboard",
		Usage:       "Open the interactive notification dashboard",
		UsageText:   "toaster dashboard [options]",
		Description: "Shows configured schedules and presents their notifications as toasts. Keys spawn demo toasts.",
		Flags:       cmd.Flags(),
		Action:      cmd.Run,
	})
	return app
}

// Run executes the dashboard. Exported for use as default command.
func (cmd *DashboardCmd) Run(ctx context.Context, _ *cli.Command) error {
	cfg := cmd.flags.Config

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if cmd.profilerPort > 0 {
		profServer := profiler.New(cmd.profilerPort, logging.Component("profiler"))
		if err := profServer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start profiler: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := profServer.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("failed to shutdown profiler server")
			}
		}()
	}

	store := toast.NewStore()
	engine := toast.NewEngine(store, toast.WithLogger(logging.Component("engine")))
	defer engine.Close()
	toast.RegisterDebugLogger(engine, logging.Component("toast"))

	bus := eventbus.New(eventBusSize)
	eventbus.RegisterDebugLogger(bus, logging.Component("eventbus"))
	go bus.Start(ctx)

	eventbus.NewNotificationRouter(bus, store).Register()

	scheduler := schedule.New(bus, schedule.WithLogger(logging.Component("schedule")))
	if err := scheduler.Reload(cfg.Schedules); err != nil {
		return fmt.Errorf("load schedules: %w", err)
	}
	scheduler.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := scheduler.Stop(stopCtx); err != nil {
			log.Warn().Err(err).Msg("scheduler did not stop cleanly")
		}
	}()

	collector := metrics.New()
	defer collector.Attach(engine)()

	addr := cfg.Metrics.Listen
	if cmd.metricsAddr != "" {
		addr = cmd.metricsAddr
	}
	if addr != "" {
		go func() {
			if err := collector.Serve(ctx, addr, logging.Component("metrics")); err != nil {
				log.Error().Err(err).Str("addr", addr).Msg("metrics server failed")
			}
		}()
	}

	model := tui.New(tui.Options{
		Store:     store,
		Engine:    engine,
		Toasts:    cfg.Toasts,
		Schedules: scheduler,
		Logger:    logging.Component("tui"),
		Build:     cmd.build,
		Theme:     cfg.Theme,
	})
	defer model.Close()

	p := tea.NewProgram(model)

	// Styles are package globals read while rendering, so the theme is
	// switched on the program's update loop rather than on the bus goroutine.
	bus.SubscribeConfigReloaded(func(payload eventbus.ConfigReloadedPayload) {
		p.Send(tui.ThemeChangedMsg{Name: payload.Config.Theme})
		if err := scheduler.Reload(payload.Config.Schedules); err != nil {
			log.Error().Err(err).Msg("reload schedules")
		}
	})

	if !cmd.noWatch {
		watcher, err := config.NewWatcher(cmd.flags.ConfigPath,
			config.WithWatcherLogger(logging.Component("config")),
			config.OnReload(func(c *config.Config) {
				bus.PublishConfigReloaded(eventbus.ConfigReloadedPayload{Config: c})
			}),
			config.OnError(func(err error) {
				bus.PublishConfigInvalid(eventbus.ConfigInvalidPayload{Path: cmd.flags.ConfigPath, Err: err})
			}),
		)
		if err != nil {
			log.Warn().Err(err).Msg("config watcher disabled")
		} else {
			defer func() { _ = watcher.Close() }()
		}
	}

	bus.PublishTuiStarted(eventbus.TUIStartedPayload{})
	defer bus.PublishTuiStopped(eventbus.TUIStoppedPayload{})

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run dashboard: %w", err)
	}
	return nil
}
