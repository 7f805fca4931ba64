// Package camera serves the robot's camera to browsers.
//
// A Feed holds the latest frame published by a Source. Viewers either read a
// continuous multipart stream or poll single frames, depending on what their
// browser can render. Until the first frame arrives, a solid gray placeholder
// is served instead.
package camera

import (
	"fmt"
	"time"
)

// Output formats.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
)

// Limits for the configurable feed values.
const (
	MaxWidth        = 1920
	MaxHeight       = 1080
	MinPollInterval = 10 * time.Millisecond
	MaxPollInterval = 5 * time.Second
)

// FeedConfig holds the feed settings. They can be changed at runtime
// through a Manager.
type FeedConfig struct {
	// Placeholder size in pixels, used until the first frame arrives.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Format is the encoding served to viewers: "png" or "jpeg".
	Format string `json:"format"`

	// Quality is the JPEG quality 1-100. Ignored for PNG.
	Quality int `json:"quality"`

	// PollInterval is the longest a stream waits before re-sending the
	// current frame when no new one has arrived.
	PollInterval time.Duration `json:"poll_interval"`
}

// DefaultFeedConfig returns the settings used when nothing is configured.
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		Width:        320,
		Height:       240,
		Format:       FormatPNG,
		Quality:      80,
		PollInterval: 100 * time.Millisecond,
	}
}

// Validate checks that every value is in range.
// Returns a list of validation errors, or nil if valid.
func (c *FeedConfig) Validate() []string {
	var errs []string

	if c.Width < 1 || c.Width > MaxWidth {
		errs = append(errs, fmt.Sprintf("width must be between 1 and %d", MaxWidth))
	}
	if c.Height < 1 || c.Height > MaxHeight {
		errs = append(errs, fmt.Sprintf("height must be between 1 and %d", MaxHeight))
	}
	if c.Format != FormatPNG && c.Format != FormatJPEG {
		errs = append(errs, "format must be png or jpeg")
	}
	if c.Quality < 1 || c.Quality > 100 {
		errs = append(errs, "quality must be between 1 and 100")
	}
	if c.PollInterval < MinPollInterval || c.PollInterval > MaxPollInterval {
		errs = append(errs, fmt.Sprintf("poll_interval must be between %s and %s", MinPollInterval, MaxPollInterval))
	}

	return errs
}

// ContentType returns the MIME type of frames encoded with this config.
func (c *FeedConfig) ContentType() string {
	if c.Format == FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}
