// Package config provides configuration helpers for go-vector commands.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Default robot bridge configuration.
const (
	DefaultRobotHost = "127.0.0.1"
	DefaultRobotPort = 8443
	DefaultHTTPPort  = 5000
)

// LoadDotEnv loads variables from the given .env files (".env" when none are
// given). Variables already present in the environment are not overridden.
// It reports whether a file was loaded; a missing file is not an error.
func LoadDotEnv(files ...string) bool {
	if len(files) == 0 {
		files = []string{".env"}
	}
	return godotenv.Load(files...) == nil
}

// String returns the env var named key, or def if unset or empty.
func String(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Int returns the env var named key parsed as an int, or def if unset or invalid.
func Int(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Bool returns the env var named key parsed as a bool, or def if unset or invalid.
func Bool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// RobotHost returns the robot bridge host from ROBOT_HOST.
// Falls back to the provided default if not set.
func RobotHost(defaultHost string) string {
	return String("ROBOT_HOST", defaultHost)
}

// RobotAPIURL returns the robot bridge HTTP API URL.
func RobotAPIURL(host string, port int) string {
	return fmt.Sprintf("http://%s:%d", host, port)
}

// RobotCameraURL returns the robot bridge camera websocket URL.
func RobotCameraURL(host string, port int) string {
	return fmt.Sprintf("ws://%s:%d/ws/camera", host, port)
}
