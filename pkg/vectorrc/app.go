package vectorrc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/teslashibe/go-vector/internal/log"
	"github.com/teslashibe/go-vector/pkg/camera"
	"github.com/teslashibe/go-vector/pkg/robot"
	"github.com/teslashibe/go-vector/pkg/session"
	"github.com/teslashibe/go-vector/pkg/web"
)

// App is the remote-control application.
type App struct {
	config Config
	logger *slog.Logger

	robot   robot.Controller
	bridge  *robot.HTTPController // nil in mock mode
	session *session.Controller
	feed    *camera.Feed
	source  *camera.Source // nil in mock mode
	web     *web.Server
}

// New creates the application. Environment overrides are applied and the
// result is validated. Configure logging from Config() before calling Init.
func New(cfg Config) (*App, error) {
	cfg.LoadEnvConfig()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &App{config: cfg}, nil
}

// Config returns the effective configuration.
func (a *App) Config() Config {
	return a.config
}

// Init connects to the robot and builds every component.
// Call this after New() and before Run().
func (a *App) Init(ctx context.Context) error {
	a.logger = log.Component("vectorrc")

	if err := a.initRobot(ctx); err != nil {
		return err
	}

	names, err := a.robot.ListAnimations(ctx)
	if err != nil {
		// The session still works with speech and driving.
		a.logger.Warn("could not list animations", "error", err)
	}
	catalog := session.NewCatalog(names)

	a.session = session.New(a.robot, catalog)

	a.feed = camera.NewFeed(a.config.Feed)
	if a.bridge != nil {
		a.source = camera.NewSource(a.config.CameraSourceURL(), a.feed)
	}

	a.web = web.NewServer(web.Config{
		Port:      a.config.HTTPPort,
		StaticDir: a.config.StaticDir,
		Debug:     a.config.Debug,
		Version:   a.config.Version,
	}, a.feed, a.robot)
	a.web.Attach(a.session)

	a.logger.Info("initialized",
		"robot", a.robotName(),
		"animations", catalog.Len(),
		"session_id", a.session.ID(),
	)
	return nil
}

func (a *App) initRobot(ctx context.Context) error {
	if a.config.Mock {
		a.robot = robot.NewMock(session.DefaultAnimationsForKeys[:]...)
		return nil
	}

	bridge := robot.NewHTTPController(a.config.RobotURL())
	bridge.SetPollInterval(a.config.TelemetryInterval)
	if err := bridge.Connect(ctx); err != nil {
		return fmt.Errorf("connect to robot: %w", err)
	}
	a.bridge = bridge
	a.robot = bridge
	return nil
}

func (a *App) robotName() string {
	if a.bridge == nil {
		return "mock"
	}
	return a.bridge.BaseURL
}

// Run starts the background loops and the web server.
// Blocks until ctx is cancelled or the server fails.
func (a *App) Run(ctx context.Context) error {
	if a.bridge != nil {
		go func() {
			if err := a.bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("robot dispatch stopped", "error", err)
			}
		}()
	}
	if a.source != nil {
		go a.source.Run(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.web.Start()
	}()

	a.logger.Info("remote control ready", "url", fmt.Sprintf("http://localhost:%d", a.config.HTTPPort))

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return fmt.Errorf("web server: %w", err)
	}
}

// Shutdown stops the session and the web server.
func (a *App) Shutdown(ctx context.Context) error {
	if a.web != nil {
		a.web.Attach(nil)
	}
	if a.session != nil {
		a.session.Close()
	}
	if a.web != nil {
		if err := a.web.Shutdown(ctx); err != nil {
			return fmt.Errorf("web shutdown: %w", err)
		}
	}
	return nil
}
