package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Graphics.Width != 1280 || cfg.Graphics.Height != 720 {
		t.Errorf("expected 1280x720, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
	}
	if !cfg.Graphics.VSync {
		t.Error("expected vsync to be true by default")
	}
	if cfg.Graphics.ScreenshotDir != "screenshots" {
		t.Errorf("expected screenshot dir 'screenshots', got %q", cfg.Graphics.ScreenshotDir)
	}

	if cfg.Camera.FOV != 50 {
		t.Errorf("expected fov 50, got %v", cfg.Camera.FOV)
	}
	if cfg.Camera.Position != [3]float32{0, 30, 80} {
		t.Errorf("expected camera at (0,30,80), got %v", cfg.Camera.Position)
	}
	if cfg.Camera.MinDistance != 40 || cfg.Camera.MaxDistance != 120 {
		t.Errorf("expected distance 40..120, got %v..%v", cfg.Camera.MinDistance, cfg.Camera.MaxDistance)
	}
	if cfg.Camera.TargetMin != [3]float32{-16, 0, -16} || cfg.Camera.TargetMax != [3]float32{16, 0, 16} {
		t.Errorf("unexpected target box %v..%v", cfg.Camera.TargetMin, cfg.Camera.TargetMax)
	}

	if len(cfg.Scene.Assets) != 15 {
		t.Fatalf("expected 15 default assets, got %d", len(cfg.Scene.Assets))
	}
	interactive := 0
	for _, a := range cfg.Scene.Assets {
		if a.Interactive {
			interactive++
			if a.Label == "" {
				t.Errorf("interactive asset %q has no label", a.ID)
			}
		}
	}
	if interactive != 9 {
		t.Errorf("expected 9 interactive assets, got %d", interactive)
	}
	if got := cfg.Scene.Label("server"); got != "Server" {
		t.Errorf("expected label 'Server', got %q", got)
	}
	if got := cfg.Scene.Label("room"); got != "" {
		t.Errorf("expected no label for environment piece, got %q", got)
	}

	if cfg.Loading.FetchTimeout != 0 {
		t.Errorf("expected no fetch timeout by default, got %v", cfg.Loading.FetchTimeout)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should be valid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "showroom.yaml")

	yamlContent := `
graphics:
  width: 1920
  height: 1080
  fullscreen: true

camera:
  max_distance: 200

scene:
  asset_root: "https://cdn.example.com/3d"
  assets:
    - id: lamp
      model: models/lamp.glb
      interactive: true
      label: Lamp

loading:
  fetch_timeout: 5s
  watch: true

logging:
  level: "debug"
  log_file: "viewer.log"
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Graphics.Width != 1920 || !cfg.Graphics.Fullscreen {
		t.Errorf("graphics not loaded: %+v", cfg.Graphics)
	}
	if cfg.Camera.MaxDistance != 200 {
		t.Errorf("expected max distance 200, got %v", cfg.Camera.MaxDistance)
	}
	// Untouched keys keep their defaults.
	if cfg.Camera.MinDistance != 40 {
		t.Errorf("expected min distance to stay 40, got %v", cfg.Camera.MinDistance)
	}
	if len(cfg.Scene.Assets) != 1 || cfg.Scene.Assets[0].ID != "lamp" {
		t.Fatalf("expected asset list to be replaced, got %+v", cfg.Scene.Assets)
	}
	if cfg.Loading.FetchTimeout != 5*time.Second {
		t.Errorf("expected fetch timeout 5s, got %v", cfg.Loading.FetchTimeout)
	}
	if !cfg.Loading.Watch {
		t.Error("expected watch to be enabled")
	}
	if cfg.Logging.LogFile != "viewer.log" {
		t.Errorf("expected log file 'viewer.log', got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromTOMLFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "showroom.toml")

	tomlContent := `
[graphics]
width = 800
height = 600

[scene]
asset_root = "/srv/showroom"

[[scene.assets]]
id = "chair"
model = "models/chair.glb"
diffuse = "textures/chair.png"

[logging]
level = "warn"
`
	if err := os.WriteFile(configPath, []byte(tomlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Graphics.Width != 800 || cfg.Graphics.Height != 600 {
		t.Errorf("expected 800x600, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
	}
	if cfg.Scene.AssetRoot != "/srv/showroom" {
		t.Errorf("expected asset root /srv/showroom, got %s", cfg.Scene.AssetRoot)
	}
	if len(cfg.Scene.Assets) != 1 || cfg.Scene.Assets[0].Diffuse != "textures/chair.png" {
		t.Errorf("unexpected assets %+v", cfg.Scene.Assets)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("expected level warn, got %s", cfg.Logging.Level)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")

	invalidYAML := `
graphics:
  width: not a number
  invalid syntax here
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := Default()
	if err := loadFromFile(cfg, "/nonexistent/showroom.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Graphics.Width = 0
	cfg.Camera.MinDistance = 500
	cfg.Camera.TargetMin[0] = 100
	cfg.Scene.Assets = append(cfg.Scene.Assets, AssetConfig{ID: "broken"})
	cfg.Loading.DecodeWorkers = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"invalid size", "min_distance", "axis 0", `"broken" has no model`, "decode_workers"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %q", want, err.Error())
		}
	}
}

func TestSaveTo(t *testing.T) {
	tmpDir := t.TempDir()

	for _, name := range []string{"nested/showroom.yaml", "nested/showroom.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(tmpDir, name)

			cfg := Default()
			cfg.Graphics.Width = 1024
			cfg.Scene.AssetRoot = "/data/showroom"

			if err := cfg.SaveTo(path); err != nil {
				t.Fatalf("failed to save config: %v", err)
			}

			loaded := Default()
			loaded.Scene.Assets = nil
			if err := loadFromFile(loaded, path); err != nil {
				t.Fatalf("failed to reload config: %v", err)
			}
			if loaded.Graphics.Width != 1024 {
				t.Errorf("expected width 1024, got %d", loaded.Graphics.Width)
			}
			if loaded.Scene.AssetRoot != "/data/showroom" {
				t.Errorf("expected asset root /data/showroom, got %s", loaded.Scene.AssetRoot)
			}
			if len(loaded.Scene.Assets) != len(cfg.Scene.Assets) {
				t.Errorf("expected %d assets, got %d", len(cfg.Scene.Assets), len(loaded.Scene.Assets))
			}
		})
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
	if !filepath.IsAbs(dir) {
		t.Errorf("ConfigDir should return absolute path, got %s", dir)
	}
}

func TestFindConfigFile(t *testing.T) {
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	tmpDir := t.TempDir()
	os.Chdir(tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "showroom.toml"), []byte("[graphics]\nwidth = 800\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path != "./showroom.toml" {
		t.Errorf("expected ./showroom.toml, got %q", path)
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true },
			verify: func(cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
				if !cfg.Graphics.ShowHelpers {
					t.Error("expected helpers to be shown with debug flag")
				}
			},
			teardown: func() { *flagDebug = false },
		},
		{
			name:  "assets flag",
			setup: func() { *flagAssets = "http://localhost:8080/3d" },
			verify: func(cfg *Config) {
				if cfg.Scene.AssetRoot != "http://localhost:8080/3d" {
					t.Errorf("expected asset root override, got %s", cfg.Scene.AssetRoot)
				}
			},
			teardown: func() { *flagAssets = "" },
		},
		{
			name:  "fullscreen flag",
			setup: func() { *flagFullscreen = true },
			verify: func(cfg *Config) {
				if !cfg.Graphics.Fullscreen {
					t.Error("expected fullscreen to be true with fullscreen flag")
				}
			},
			teardown: func() { *flagFullscreen = false },
		},
		{
			name: "width and height flags",
			setup: func() {
				*flagWidth = 2560
				*flagHeight = 1440
			},
			verify: func(cfg *Config) {
				if cfg.Graphics.Width != 2560 || cfg.Graphics.Height != 1440 {
					t.Errorf("expected 2560x1440, got %dx%d", cfg.Graphics.Width, cfg.Graphics.Height)
				}
			},
			teardown: func() {
				*flagWidth = 0
				*flagHeight = 0
			},
		},
		{
			name:  "watch flag",
			setup: func() { *flagWatch = true },
			verify: func(cfg *Config) {
				if !cfg.Loading.Watch {
					t.Error("expected watch to be enabled")
				}
			},
			teardown: func() { *flagWatch = false },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(cfg)
		})
	}
}

func TestLoadPriority(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "showroom.yaml")

	yamlContent := `
graphics:
  width: 1600
  height: 900
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	*flagConfig = configPath
	*flagWidth = 1920
	defer func() {
		*flagConfig = ""
		*flagWidth = 0
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Graphics.Width != 1920 {
		t.Errorf("expected width 1920 from flag, got %d", cfg.Graphics.Width)
	}
	if cfg.Graphics.Height != 900 {
		t.Errorf("expected height 900 from file, got %d", cfg.Graphics.Height)
	}
}
