// Package vectorrc wires the robot bridge, session controller, camera feed
// and web server into one application.
package vectorrc

import (
	"strings"
	"time"

	"github.com/teslashibe/go-vector/internal/config"
	"github.com/teslashibe/go-vector/pkg/camera"
	"github.com/teslashibe/go-vector/pkg/robot"
)

// Config holds all configuration for the remote control.
// Flag parsing is done in cmd/vectorrc/main.go; this struct is data only.
type Config struct {
	// Debug enables request logging and debug-level logs.
	Debug bool

	// LogLevel is one of debug, info, warn, error.
	LogLevel string

	// Robot bridge address.
	RobotHost string
	RobotPort int

	// CameraURL overrides the bridge camera websocket URL.
	CameraURL string

	// Mock runs against an in-memory robot, for trying the UI without one.
	Mock bool

	// HTTPPort is the port the browser connects to.
	HTTPPort int

	// StaticDir holds the page and its assets. Empty disables static serving.
	StaticDir string

	// TelemetryInterval is how often robot state is polled.
	TelemetryInterval time.Duration

	// Feed configures the camera feed served to browsers.
	Feed camera.FeedConfig

	Version string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		LogLevel:          "info",
		RobotHost:         config.DefaultRobotHost,
		RobotPort:         config.DefaultRobotPort,
		HTTPPort:          config.DefaultHTTPPort,
		StaticDir:         "./web",
		TelemetryInterval: robot.DefaultPollInterval,
		Feed:              camera.DefaultFeedConfig(),
	}
}

// LoadEnvConfig applies environment overrides.
// Call this after flag parsing. LOG_LEVEL is ignored when Debug is set.
func (c *Config) LoadEnvConfig() {
	c.RobotHost = config.RobotHost(c.RobotHost)
	c.RobotPort = config.Int("ROBOT_PORT", c.RobotPort)
	c.HTTPPort = config.Int("PORT", c.HTTPPort)
	c.CameraURL = config.String("CAMERA_URL", c.CameraURL)
	if c.Debug {
		c.LogLevel = "debug"
	} else {
		c.LogLevel = config.String("LOG_LEVEL", c.LogLevel)
	}
	c.Mock = config.Bool("ROBOT_MOCK", c.Mock)
}

// RobotURL returns the bridge HTTP API base URL.
func (c *Config) RobotURL() string {
	return config.RobotAPIURL(c.RobotHost, c.RobotPort)
}

// CameraSourceURL returns the camera websocket URL, derived from the robot
// address unless CameraURL is set.
func (c *Config) CameraSourceURL() string {
	if c.CameraURL != "" {
		return c.CameraURL
	}
	return config.RobotCameraURL(c.RobotHost, c.RobotPort)
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if !c.Mock && c.RobotHost == "" {
		return &ConfigError{Field: "RobotHost", Message: "robot host is required (set -robot or ROBOT_HOST)"}
	}
	if c.RobotPort < 1 || c.RobotPort > 65535 {
		return &ConfigError{Field: "RobotPort", Message: "robot port must be between 1 and 65535"}
	}
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return &ConfigError{Field: "HTTPPort", Message: "HTTP port must be between 1 and 65535"}
	}
	if c.TelemetryInterval <= 0 {
		return &ConfigError{Field: "TelemetryInterval", Message: "telemetry interval must be positive"}
	}
	if errs := c.Feed.Validate(); len(errs) > 0 {
		return &ConfigError{Field: "Feed", Message: "camera feed: " + strings.Join(errs, "; ")}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
