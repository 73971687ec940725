package config

import (
	"encoding/json"
	"os"
	"time"
)

// Config holds runtime configuration for the detection client and app behavior.
// Fields may be loaded from a JSON file and overridden by command-line flags.
type Config struct {
	Debug bool `json:"debug"`

	// Detection service
	Endpoint       string `json:"endpoint"`
	TimeoutSeconds int    `json:"timeout_seconds"`

	// Display
	DisplayWidthRatio      float64 `json:"display_width_ratio"`
	WindowWidth            int     `json:"window_width"`
	WindowHeight           int     `json:"window_height"`
	PreferServerAnnotation bool    `json:"prefer_server_annotation"`
	MinConfidence          float64 `json:"min_confidence"`

	// Image spooling
	JPEGQuality int    `json:"jpeg_quality"`
	SpoolDir    string `json:"spool_dir"`
}

// DefaultEndpoint is the local development address of the detection service.
const DefaultEndpoint = "http://127.0.0.1:5000/detect"

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:                  false,
		Endpoint:               DefaultEndpoint,
		TimeoutSeconds:         30,
		DisplayWidthRatio:      0.9,
		WindowWidth:            900,
		WindowHeight:           760,
		PreferServerAnnotation: false,
		MinConfidence:          0,
		JPEGQuality:            90,
		SpoolDir:               "",
	}
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	if c.DisplayWidthRatio <= 0 || c.DisplayWidthRatio > 1 {
		c.DisplayWidthRatio = 0.9
	}
	if c.WindowWidth < 320 {
		c.WindowWidth = 320
	}
	if c.WindowHeight < 240 {
		c.WindowHeight = 240
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		c.MinConfidence = 0
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		c.JPEGQuality = 90
	}
	return nil
}

// Timeout returns the detection round-trip bound.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Load attempts to read configuration from the given JSON file path. If the file does not
// exist it returns DefaultConfig(). On JSON error it returns defaults with the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return DefaultConfig(), err
	}
	_ = cfg.Validate()
	return cfg, nil
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}
