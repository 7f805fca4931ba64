// Package web serves the browser remote control.
//
// Every route that touches the session goes through one mutex, so the
// session controller never sees overlapping calls. Until a session is
// attached, those routes do nothing and return an empty 200.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"github.com/teslashibe/go-vector/internal/log"
	"github.com/teslashibe/go-vector/pkg/camera"
	"github.com/teslashibe/go-vector/pkg/hub"
	"github.com/teslashibe/go-vector/pkg/robot"
	"github.com/teslashibe/go-vector/pkg/session"
)

// Config holds the web server settings.
type Config struct {
	Port      int
	StaticDir string // served at "/" when set
	Debug     bool   // enables request logging
	Version   string
}

// Server is the remote-control HTTP server.
type Server struct {
	app    *fiber.App
	cfg    Config
	logger *slog.Logger

	// mu serializes all session access.
	mu      sync.Mutex
	session *session.Controller

	telemetry robot.TelemetryReader
	feed      *camera.Feed
	settings  *camera.Manager
	cameraHub *hub.Hub

	// ctx ends every open image stream on Shutdown.
	ctx     context.Context
	cancel  context.CancelFunc
	started atomic.Bool
}

// NewServer creates the server. telemetry may be nil, in which case the HUD
// routes report 503.
func NewServer(cfg Config, feed *camera.Feed, telemetry robot.TelemetryReader) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		cfg:       cfg,
		logger:    log.Component("web"),
		telemetry: telemetry,
		feed:      feed,
		settings:  camera.NewManager(feed.Config()),
		cameraHub: hub.New("camera"),
		ctx:       ctx,
		cancel:    cancel,
	}
	s.settings.OnConfigChange = feed.SetConfig

	app := fiber.New(fiber.Config{
		AppName:               "vectorrc",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New())
	if cfg.Debug {
		app.Use(logger.New())
	}

	// Session input
	app.Post("/keydown", s.handleKey(true))
	app.Post("/keyup", s.handleKey(false))
	app.Post("/mousemove", s.handleMouseMove)
	app.Post("/setMouseLookEnabled", s.handleSetMouseLook)
	app.Post("/setTorchModeEnabled", s.handleSetTorch)
	app.Post("/setFreeplayEnabled", s.handleSetFreeplay)
	app.Post("/setExploreEnabled", s.handleSetExplore)
	app.Post("/dropDownSelect", s.handleDropDownSelect)
	app.Post("/sayText", s.handleSayText)
	app.Post("/updateVector", s.handleUpdate)
	app.Get("/animSelectors", s.handleAnimSelectors)

	// Telemetry
	app.Get("/updateVectorHud", s.handleHud)
	app.Get("/updateVectorStats", s.handleStats)

	// Camera
	app.Get("/vectorImage", s.handleImage)
	api := app.Group("/api")
	api.Get("/camera", s.handleGetCameraConfig)
	api.Post("/camera", s.handleSetCameraConfig)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/camera", websocket.New(s.handleCameraWS))

	app.Get("/health", s.handleHealth)
	app.Get("/metrics", s.handleMetrics)

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Attach makes c the active session. Passing nil detaches it.
func (s *Server) Attach(c *session.Controller) {
	s.mu.Lock()
	s.session = c
	s.mu.Unlock()
}

// Start runs the camera hub and serves HTTP until the listener fails or
// Shutdown is called.
func (s *Server) Start() error {
	s.started.Store(true)
	s.runCameraHub()

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.logger.Info("web server listening", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown ends open image streams and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	if !s.started.Load() {
		return nil
	}
	return s.app.ShutdownWithContext(ctx)
}

// runCameraHub starts the /ws/camera hub. Frames are encoded for it only
// while a viewer is connected.
func (s *Server) runCameraHub() {
	go s.cameraHub.Run(s.ctx)
	go s.cameraHub.Relay(s.ctx, s.feed.Frames)
}

func (s *Server) handleCameraWS(c *websocket.Conn) {
	hub.NewClient(s.cameraHub, c).Run()
}
