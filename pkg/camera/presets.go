package camera

import "time"

// Preset names for common feed configurations.
const (
	PresetDefault = "default"
	PresetJPEG    = "jpeg"
	PresetLarge   = "large"
	PresetLowRate = "lowrate"
)

// Presets returns all available preset configurations.
func Presets() map[string]FeedConfig {
	return map[string]FeedConfig{
		PresetDefault: DefaultFeedConfig(),
		PresetJPEG:    JPEGConfig(),
		PresetLarge:   LargeConfig(),
		PresetLowRate: LowRateConfig(),
	}
}

// PresetNames returns the available preset names in display order.
func PresetNames() []string {
	return []string{PresetDefault, PresetJPEG, PresetLarge, PresetLowRate}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *FeedConfig {
	if cfg, ok := Presets()[name]; ok {
		return &cfg
	}
	return nil
}

// JPEGConfig serves JPEG frames, which are much smaller than PNG on
// slow links.
func JPEGConfig() FeedConfig {
	cfg := DefaultFeedConfig()
	cfg.Format = FormatJPEG
	cfg.Quality = 75
	return cfg
}

// LargeConfig uses a 640x480 placeholder to match the full camera size.
func LargeConfig() FeedConfig {
	cfg := DefaultFeedConfig()
	cfg.Width = 640
	cfg.Height = 480
	return cfg
}

// LowRateConfig re-sends idle frames rarely, for viewers on metered links.
func LowRateConfig() FeedConfig {
	cfg := JPEGConfig()
	cfg.PollInterval = time.Second
	return cfg
}
