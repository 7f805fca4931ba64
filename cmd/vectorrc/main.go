// vectorrc - drive a Vector robot from the browser
// Keyboard and mouse input become motor commands; digit keys and space
// queue animations and speech; the camera is streamed back to the page.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/teslashibe/go-vector/internal/config"
	"github.com/teslashibe/go-vector/internal/log"
	"github.com/teslashibe/go-vector/pkg/robot"
	"github.com/teslashibe/go-vector/pkg/vectorrc"
)

var version = "0.1.0"

func main() {
	loaded := config.LoadDotEnv()
	cfg := parseFlags()

	app, err := vectorrc.New(cfg)
	if err != nil {
		fatal("configuration error", err)
	}

	log.Init(app.Config().LogLevel)
	if loaded {
		log.Debug("loaded .env")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Init(ctx); err != nil {
		if errors.Is(err, robot.ErrNotConnected) {
			cfg := app.Config()
			fmt.Fprintf(os.Stderr, "Could not reach the robot bridge at %s.\n", cfg.RobotURL())
			fmt.Fprintln(os.Stderr, "Check that the robot is on, the bridge is running, and ROBOT_HOST/ROBOT_PORT are right,")
			fmt.Fprintln(os.Stderr, "or start with -mock to try the page without a robot.")
		}
		fatal("initialization failed", err)
	}

	runErr := app.Run(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := app.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}

	if runErr != nil {
		fatal("runtime error", runErr)
	}
	log.Info("goodbye")
}

// parseFlags parses command line flags and returns configuration.
func parseFlags() vectorrc.Config {
	cfg := vectorrc.DefaultConfig()
	cfg.Version = version

	flag.BoolVar(&cfg.Debug, "debug", false, "Enable request logging and debug logs")
	flag.StringVar(&cfg.RobotHost, "robot", cfg.RobotHost, "Robot bridge host (ROBOT_HOST overrides)")
	flag.IntVar(&cfg.RobotPort, "robot-port", cfg.RobotPort, "Robot bridge port (ROBOT_PORT overrides)")
	flag.StringVar(&cfg.CameraURL, "camera-url", "", "Camera websocket URL (default derived from the robot address)")
	flag.IntVar(&cfg.HTTPPort, "port", cfg.HTTPPort, "HTTP port for the browser (PORT overrides)")
	flag.StringVar(&cfg.StaticDir, "static", cfg.StaticDir, "Directory with the control page, empty to disable")
	flag.BoolVar(&cfg.Mock, "mock", false, "Run against an in-memory robot")
	flag.DurationVar(&cfg.TelemetryInterval, "telemetry", cfg.TelemetryInterval, "Robot telemetry poll interval")
	flag.IntVar(&cfg.Feed.Width, "placeholder-width", cfg.Feed.Width, "Width of the image shown before the camera connects")
	flag.IntVar(&cfg.Feed.Height, "placeholder-height", cfg.Feed.Height, "Height of the image shown before the camera connects")
	flag.StringVar(&cfg.Feed.Format, "image-format", cfg.Feed.Format, "Image format served to browsers: png or jpeg")
	flag.Parse()

	return cfg
}

func fatal(msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}
