package engine

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/spaghettifunk/prism/engine/core"
)

// ApplicationConfig holds everything the engine needs before the first frame:
// window placement, the frame ring depth, and where to find the scene and
// compiled shaders.
type ApplicationConfig struct {
	Name        string `toml:"name"`
	StartPosX   uint32 `toml:"start_pos_x"`
	StartPosY   uint32 `toml:"start_pos_y"`
	StartWidth  uint32 `toml:"start_width"`
	StartHeight uint32 `toml:"start_height"`

	// FramesInFlight is how many frames the CPU may record ahead of the GPU.
	FramesInFlight int `toml:"frames_in_flight"`

	LogLevel  string `toml:"log_level"`
	AssetsDir string `toml:"assets_dir"`
	ScenePath string `toml:"scene_path"`
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() *ApplicationConfig {
	return &ApplicationConfig{
		Name:           "Prism",
		StartPosX:      100,
		StartPosY:      100,
		StartWidth:     1280,
		StartHeight:    720,
		FramesInFlight: 3,
		LogLevel:       "debug",
		AssetsDir:      "assets",
		ScenePath:      "assets/scene.toml",
	}
}

// LoadConfig reads a TOML application config. A missing file is not an error:
// the defaults are returned so the engine can run without any setup. Fields
// absent from the file keep their default values.
func LoadConfig(path string) (*ApplicationConfig, error) {
	cfg := DefaultConfig()

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			core.LogDebug("no config file at `%s`, using defaults", path)
			return cfg, nil
		}
		err = fmt.Errorf("failed to read config `%s`: %w", path, err)
		core.LogError(err.Error())
		return nil, err
	}

	if err := toml.Unmarshal(raw, cfg); err != nil {
		err = fmt.Errorf("failed to parse config `%s`: %w", path, err)
		core.LogError(err.Error())
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	return cfg, nil
}

func (c *ApplicationConfig) validate() error {
	if c.FramesInFlight < 1 {
		return fmt.Errorf("frames_in_flight must be at least 1, got %d", c.FramesInFlight)
	}
	if c.StartWidth == 0 || c.StartHeight == 0 {
		return fmt.Errorf("window size %dx%d is not usable", c.StartWidth, c.StartHeight)
	}
	if _, ok := parseLogLevel(c.LogLevel); !ok {
		return fmt.Errorf("unknown log level `%s`", c.LogLevel)
	}
	return nil
}

// Level returns the configured log level, falling back to info for values
// validate would have rejected.
func (c *ApplicationConfig) Level() core.LogLevel {
	if lvl, ok := parseLogLevel(c.LogLevel); ok {
		return lvl
	}
	return core.InfoLevel
}

func parseLogLevel(s string) (core.LogLevel, bool) {
	switch s {
	case "debug":
		return core.DebugLevel, true
	case "info", "":
		return core.InfoLevel, true
	case "warn":
		return core.WarnLevel, true
	case "error":
		return core.ErrorLevel, true
	}
	return core.InfoLevel, false
}
