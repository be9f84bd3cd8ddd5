// Package config handles viewer configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Config holds all viewer settings.
type Config struct {
	Graphics GraphicsConfig `yaml:"graphics" toml:"graphics"`
	Camera   CameraConfig   `yaml:"camera" toml:"camera"`
	Scene    SceneConfig    `yaml:"scene" toml:"scene"`
	Loading  LoadingConfig  `yaml:"loading" toml:"loading"`
	Logging  LoggingConfig  `yaml:"logging" toml:"logging"`
}

// GraphicsConfig holds display and rendering settings.
type GraphicsConfig struct {
	Width       int     `yaml:"width" toml:"width"`
	Height      int     `yaml:"height" toml:"height"`
	Fullscreen  bool    `yaml:"fullscreen" toml:"fullscreen"`
	VSync       bool    `yaml:"vsync" toml:"vsync"`
	FPSLimit    int     `yaml:"fps_limit" toml:"fps_limit"`
	PixelRatio  float32 `yaml:"pixel_ratio" toml:"pixel_ratio"` // capped at 2
	ShowHelpers bool    `yaml:"show_helpers" toml:"show_helpers"`
	ShowFPS     bool    `yaml:"show_fps" toml:"show_fps"`

	// ScreenshotDir receives F12 captures; empty means the working directory.
	ScreenshotDir string `yaml:"screenshot_dir" toml:"screenshot_dir"`

	// Outline pass around the hovered object.
	OutlineColor     [3]float32 `yaml:"outline_color" toml:"outline_color"`
	OutlineStrength  float32    `yaml:"outline_strength" toml:"outline_strength"`
	OutlineGlow      float32    `yaml:"outline_glow" toml:"outline_glow"`
	OutlineThickness float32    `yaml:"outline_thickness" toml:"outline_thickness"`
}

// CameraConfig holds camera framing and orbit control limits.
// Angles are in radians.
type CameraConfig struct {
	FOV         float32    `yaml:"fov" toml:"fov"` // degrees
	Near        float32    `yaml:"near" toml:"near"`
	Far         float32    `yaml:"far" toml:"far"`
	Position    [3]float32 `yaml:"position" toml:"position"`
	Target      [3]float32 `yaml:"target" toml:"target"`
	MinDistance float32    `yaml:"min_distance" toml:"min_distance"`
	MaxDistance float32    `yaml:"max_distance" toml:"max_distance"`
	MinPolar    float32    `yaml:"min_polar" toml:"min_polar"`
	MaxPolar    float32    `yaml:"max_polar" toml:"max_polar"`
	MinAzimuth  float32    `yaml:"min_azimuth" toml:"min_azimuth"`
	MaxAzimuth  float32    `yaml:"max_azimuth" toml:"max_azimuth"`
	TargetMin   [3]float32 `yaml:"target_min" toml:"target_min"`
	TargetMax   [3]float32 `yaml:"target_max" toml:"target_max"`
	RotateSpeed float32    `yaml:"rotate_speed" toml:"rotate_speed"`
	ZoomSpeed   float32    `yaml:"zoom_speed" toml:"zoom_speed"`
	PanSpeed    float32    `yaml:"pan_speed" toml:"pan_speed"`
}

// AssetConfig describes one loadable showroom piece.
type AssetConfig struct {
	ID          string `yaml:"id" toml:"id"`
	Label       string `yaml:"label,omitempty" toml:"label,omitempty"`
	Model       string `yaml:"model" toml:"model"`
	Diffuse     string `yaml:"diffuse,omitempty" toml:"diffuse,omitempty"`
	Alpha       string `yaml:"alpha,omitempty" toml:"alpha,omitempty"`
	Interactive bool   `yaml:"interactive" toml:"interactive"`
	Emissive    bool   `yaml:"emissive,omitempty" toml:"emissive,omitempty"`
}

// SceneConfig holds the asset manifest and pivot orientation.
type SceneConfig struct {
	AssetRoot      string        `yaml:"asset_root" toml:"asset_root"` // directory or http(s) URL
	PivotRotationY float32       `yaml:"pivot_rotation_y" toml:"pivot_rotation_y"`
	Assets         []AssetConfig `yaml:"assets" toml:"assets"`
}

// LoadingConfig holds asset pipeline settings.
type LoadingConfig struct {
	DecodeWorkers int           `yaml:"decode_workers" toml:"decode_workers"`
	FetchTimeout  time.Duration `yaml:"fetch_timeout" toml:"fetch_timeout"` // 0 disables
	Cache         bool          `yaml:"cache" toml:"cache"`
	Watch         bool          `yaml:"watch" toml:"watch"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level" toml:"level"`
	LogFile string `yaml:"log_file" toml:"log_file"`
	JSON    bool   `yaml:"json" toml:"json"`
}

var (
	environmentPieces = []string{"room", "man", "girl", "cube-green", "cube-white", "chair"}

	interactivePieces = []struct{ id, label string }{
		{"camera", "4K Camera"},
		{"lamps", "Lighting System"},
		{"main-screen", "Backdrop System"},
		{"projector", "Projection Equipment Kit"},
		{"screens-system", "Speaker Screen System"},
		{"sensor-screen", "Touch Screen"},
		{"assistent-place", "Assistant Station"},
		{"server", "Server"},
		{"sufler", "Teleprompter"},
	}
)

// Default returns a Config with sensible default values.
func Default() *Config {
	cfg := &Config{
		Graphics: GraphicsConfig{
			Width:            1280,
			Height:           720,
			Fullscreen:       false,
			VSync:            true,
			PixelRatio:       1,
			OutlineColor:     [3]float32{1, 1, 1},
			OutlineStrength:  1.0,
			OutlineGlow:      4.0,
			OutlineThickness: 1.0,
			ScreenshotDir:    "screenshots",
		},
		Camera: CameraConfig{
			FOV:         50,
			Near:        0.1,
			Far:         1000,
			Position:    [3]float32{0, 30, 80},
			MinDistance: 40,
			MaxDistance: 120,
			MinPolar:    0,
			MaxPolar:    math.Pi / 2,
			MinAzimuth:  0,
			MaxAzimuth:  math.Pi / 2,
			TargetMin:   [3]float32{-16, 0, -16},
			TargetMax:   [3]float32{16, 0, 16},
			RotateSpeed: 0.005,
			ZoomSpeed:   0.1,
			PanSpeed:    0.05,
		},
		Scene: SceneConfig{
			AssetRoot:      "./assets",
			PivotRotationY: 1.0,
		},
		Loading: LoadingConfig{
			DecodeWorkers: 4,
			Cache:         true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}

	for _, id := range environmentPieces {
		cfg.Scene.Assets = append(cfg.Scene.Assets, AssetConfig{
			ID:      id,
			Model:   "models/" + id + ".glb",
			Diffuse: "textures/" + id + ".jpg",
		})
	}
	for _, p := range interactivePieces {
		a := AssetConfig{
			ID:          p.id,
			Label:       p.label,
			Model:       "models/" + p.id + ".glb",
			Diffuse:     "textures/" + p.id + ".jpg",
			Interactive: true,
		}
		if p.id == "sensor-screen" {
			a.Alpha = "textures/sensor-screen-alpha.jpg"
		}
		cfg.Scene.Assets = append(cfg.Scene.Assets, a)
	}

	return cfg
}

// Label returns the display label for an asset ID, or "" if none is configured.
func (c *SceneConfig) Label(id string) string {
	for _, a := range c.Assets {
		if a.ID == id {
			return a.Label
		}
	}
	return ""
}

// Validate reports every inconsistent setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Graphics.Width <= 0 || c.Graphics.Height <= 0 {
		errs = append(errs, fmt.Errorf("graphics: invalid size %dx%d", c.Graphics.Width, c.Graphics.Height))
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 {
		errs = append(errs, fmt.Errorf("camera: fov %v out of range", c.Camera.FOV))
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		errs = append(errs, fmt.Errorf("camera: invalid clip planes near=%v far=%v", c.Camera.Near, c.Camera.Far))
	}
	if c.Camera.MinDistance > c.Camera.MaxDistance {
		errs = append(errs, fmt.Errorf("camera: min_distance %v > max_distance %v", c.Camera.MinDistance, c.Camera.MaxDistance))
	}
	for i := 0; i < 3; i++ {
		if c.Camera.TargetMin[i] > c.Camera.TargetMax[i] {
			errs = append(errs, fmt.Errorf("camera: target box axis %d is inverted", i))
		}
	}
	for i, a := range c.Scene.Assets {
		if a.ID == "" {
			errs = append(errs, fmt.Errorf("scene: asset #%d has no id", i))
		}
		if a.Model == "" {
			errs = append(errs, fmt.Errorf("scene: asset %q has no model path", a.ID))
		}
	}
	if c.Loading.DecodeWorkers < 1 {
		errs = append(errs, fmt.Errorf("loading: decode_workers must be at least 1"))
	}
	return errors.Join(errs...)
}
