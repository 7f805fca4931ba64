package camera

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Manager holds the current feed configuration and handles updates.
type Manager struct {
	config FeedConfig
	mu     sync.RWMutex

	// OnConfigChange is called after a valid config is stored.
	OnConfigChange func(cfg FeedConfig)
}

// NewManager creates a manager starting from cfg.
func NewManager(cfg FeedConfig) *Manager {
	return &Manager{config: cfg}
}

// GetConfig returns the current configuration.
func (m *Manager) GetConfig() FeedConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// SetConfig validates and stores cfg.
func (m *Manager) SetConfig(cfg FeedConfig) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("validation failed: %v", errs)
	}

	m.mu.Lock()
	m.config = cfg
	callback := m.OnConfigChange
	m.mu.Unlock()

	if callback != nil {
		callback(cfg)
	}
	return nil
}

// UpdateConfig applies a partial update. A "preset" key replaces the whole
// config first; the other keys then override individual fields.
func (m *Manager) UpdateConfig(params map[string]any) error {
	cfg := m.GetConfig()

	if name, ok := params["preset"].(string); ok {
		preset := GetPreset(name)
		if preset == nil {
			return fmt.Errorf("unknown preset: %s", name)
		}
		cfg = *preset
	}

	for key, value := range params {
		switch key {
		case "width":
			if v, ok := toInt(value); ok {
				cfg.Width = v
			}
		case "height":
			if v, ok := toInt(value); ok {
				cfg.Height = v
			}
		case "format":
			if v, ok := value.(string); ok {
				cfg.Format = v
			}
		case "quality":
			if v, ok := toInt(value); ok {
				cfg.Quality = v
			}
		case "poll_interval_ms":
			if v, ok := toInt(value); ok {
				cfg.PollInterval = time.Duration(v) * time.Millisecond
			}
		}
	}

	return m.SetConfig(cfg)
}

// ConfigJSON returns the current config for the settings API. The poll
// interval is reported in milliseconds.
func (m *Manager) ConfigJSON() map[string]any {
	cfg := m.GetConfig()
	return map[string]any{
		"width":            cfg.Width,
		"height":           cfg.Height,
		"format":           cfg.Format,
		"quality":          cfg.Quality,
		"poll_interval_ms": cfg.PollInterval.Milliseconds(),
		"presets":          PresetNames(),
	}
}

func toInt(v any) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	case json.Number:
		i, err := val.Int64()
		if err == nil {
			return int(i), true
		}
	}
	return 0, false
}
