package internal

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"memoriesbot/internal/backup"
	"memoriesbot/internal/controllers"
	"memoriesbot/internal/driver/discord"
	"memoriesbot/internal/providers"
	"memoriesbot/internal/schedule/interfaces"
	"memoriesbot/internal/services"
	"memoriesbot/internal/structures"
)

const readyTimeout = 30 * time.Second

type App struct {
	WebServer *http.Server

	conf        *structures.Config
	logger      providers.Logger
	driver      *discord.Driver
	scheduler   interfaces.SchedulerInterface
	pins        *services.PinService
	fileManager *backup.FileManager
}

func NewApp(
	healthController *controllers.HealthController,
	scheduler interfaces.SchedulerInterface,
	pins *services.PinService,
	driver *discord.Driver,
	fileManager *backup.FileManager,
	conf *structures.Config,
	logger providers.Logger,
	router providers.RouterProviderInterface,
	metrics providers.MetricsProviderInterface,
) *App {
	// Inner mux: admin routes
	apiMux := http.NewServeMux()
	for _, route := range router.GetRoutes() {
		apiMux.Handle(route.Url, route.Handler)
	}

	// Wrap admin routes with metrics middleware
	instrumentedAPI := providers.MetricsMiddleware(metrics, logger, apiMux)

	// Outer mux: infrastructure + instrumented admin API
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthController.Health)
	if conf.Metrics.Enabled {
		mux.Handle("/metrics", promhttp.Handler())
	}
	mux.Handle("/", instrumentedAPI)

	return &App{
		WebServer: &http.Server{
			Addr:         conf.WebServer.Host + ":" + strconv.Itoa(conf.WebServer.Port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 2 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		conf:        conf,
		logger:      logger,
		driver:      driver,
		scheduler:   scheduler,
		pins:        pins,
		fileManager: fileManager,
	}
}

// Run connects the bot, schedules the daily check and serves the admin API
// until ctx is done or a termination signal arrives.
func (a *App) Run(ctx context.Context) error {
	a.logger.Infof(providers.TypeApp, "Starting %s", a.conf.AppName)
	defer a.close()

	if err := a.scheduler.Restore(); err != nil {
		a.logger.Errorf(providers.TypeApp, "Restore error: %s", err)
	}
	if status, err := a.pins.Status(); err != nil {
		a.logger.Errorf(providers.TypeApp, "Cannot read stores: %s", err)
	} else {
		a.logger.Infof(providers.TypeApp, "Loaded %d channels, %d pins and %d role bindings", status.Channels, status.Pins, status.Roles)
	}

	if err := a.driver.Open(a.pins); err != nil {
		return err
	}
	defer a.closeDriver()

	a.scheduler.Init()

	serverErr := make(chan error, 1)
	go func() {
		a.logger.Infof(providers.TypeApp, "Listening HTTP clients on %s:%d", a.conf.WebServer.Host, a.conf.WebServer.Port)
		if err := a.WebServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	var runErr error
	select {
	case <-stop:
		a.logger.Infof(providers.TypeApp, "Shutdown signal received")
	case <-ctx.Done():
		a.logger.Infof(providers.TypeApp, "Shutdown requested")
	case err := <-serverErr:
		runErr = fmt.Errorf("server error: %w", err)
	}

	a.scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.WebServer.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}
	if err := a.scheduler.Persist(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr == nil {
		a.logger.Infof(providers.TypeApp, "gracefully stopped")
	}
	return runErr
}

// CheckOnce connects, runs one manual memory check and disconnects.
func (a *App) CheckOnce(ctx context.Context) (services.ScanReport, error) {
	defer a.close()
	if err := a.connect(ctx); err != nil {
		return services.ScanReport{}, err
	}
	defer a.closeDriver()
	return a.scheduler.Trigger(ctx)
}

// ResyncOnce connects, refetches the pins of every watched channel and disconnects.
func (a *App) ResyncOnce(ctx context.Context) (int, error) {
	defer a.close()
	if err := a.connect(ctx); err != nil {
		return 0, err
	}
	defer a.closeDriver()
	count, err := a.pins.ResyncPins(ctx)
	if err != nil {
		return 0, err
	}
	return count, a.scheduler.Persist()
}

func (a *App) connect(ctx context.Context) error {
	if err := a.scheduler.Restore(); err != nil {
		a.logger.Errorf(providers.TypeApp, "Restore error: %s", err)
	}
	if err := a.driver.Open(a.pins); err != nil {
		return err
	}
	readyCtx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()
	if err := a.driver.WaitReady(readyCtx); err != nil {
		a.closeDriver()
		return err
	}
	return nil
}

func (a *App) closeDriver() {
	if err := a.driver.Close(); err != nil {
		a.logger.Warnf(providers.TypeApp, "Error while disconnecting: %s", err)
	}
}

func (a *App) close() {
	a.fileManager.Close()
	a.logger.Close()
}
