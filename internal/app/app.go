// Package app implements the main loop: it owns the window, input and
// renderer and drives the viewer and showroom from SDL events.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/veandco/go-sdl2/sdl"
	"go.uber.org/zap"

	"github.com/Faultbox/showroom/internal/assets"
	"github.com/Faultbox/showroom/internal/config"
	"github.com/Faultbox/showroom/internal/engine/debug"
	"github.com/Faultbox/showroom/internal/engine/input"
	"github.com/Faultbox/showroom/internal/engine/renderer"
	"github.com/Faultbox/showroom/internal/engine/window"
	"github.com/Faultbox/showroom/internal/logger"
	"github.com/Faultbox/showroom/internal/showroom"
	"github.com/Faultbox/showroom/internal/viewer"
)

const title = "Showroom"

// App is the running viewer application.
type App struct {
	cfg      *config.Config
	log      *zap.Logger
	running  bool
	window   *window.Window
	renderer *renderer.Renderer
	input    *input.Input
	viewer   *viewer.Viewer
	showroom *showroom.Showroom
	watcher  *assets.Watcher
	shots    *debug.Screenshots
	capture  bool
}

// New creates the window, the GL renderer and the scene.
func New(cfg *config.Config) (*App, error) {
	a := &App{cfg: cfg, log: logger.Named("app")}
	a.log.Info("initializing showroom",
		zap.Int("width", cfg.Graphics.Width),
		zap.Int("height", cfg.Graphics.Height),
		zap.String("assets", cfg.Scene.AssetRoot),
	)

	var err error
	a.window, err = window.New(window.Config{
		Title:      title,
		Width:      cfg.Graphics.Width,
		Height:     cfg.Graphics.Height,
		Fullscreen: cfg.Graphics.Fullscreen,
		VSync:      cfg.Graphics.VSync,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	// Renderer AFTER window, since the OpenGL context must exist
	w, h := a.window.GetSize()
	g := cfg.Graphics
	a.renderer, err = renderer.New(renderer.Config{
		Width:            w,
		Height:           h,
		PixelRatio:       g.PixelRatio,
		ClearColor:       mgl32.Vec4{0, 0, 0, 1},
		OutlineColor:     mgl32.Vec3(g.OutlineColor),
		OutlineStrength:  g.OutlineStrength,
		OutlineGlow:      g.OutlineGlow,
		OutlineThickness: g.OutlineThickness,
	})
	if err != nil {
		a.window.Close()
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}

	base, err := assets.OpenSource(cfg.Scene.AssetRoot)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening asset root: %w", err)
	}
	src := base
	var cached *assets.CachedSource
	if cfg.Loading.Cache {
		cached = assets.NewCachedSource(base)
		src = cached
	}

	a.viewer, err = viewer.New(viewer.Options{
		Config:   cfg,
		Renderer: a.renderer,
		Source:   src,
		Debug:    g.ShowHelpers,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create viewer: %w", err)
	}
	a.viewer.Resize(w, h)

	a.showroom = showroom.New(a.viewer, &cfg.Scene, a.window, showroom.Hooks{
		Clicked: func(id, label string) {
			a.window.SetTitle(title + " - " + label)
		},
		Settled: func(agg assets.Aggregate) {
			if agg.Failed > 0 {
				a.window.SetTitle(fmt.Sprintf("%s (%d of %d pieces failed)", title, agg.Failed, agg.Submitted))
			}
		},
	})

	if cfg.Loading.Watch {
		if err := a.startWatcher(base, cached); err != nil {
			a.log.Warn("asset watching disabled", zap.Error(err))
		}
	}

	a.input = input.New()
	a.shots = debug.NewScreenshots(g.ScreenshotDir, "showroom")
	a.log.Info("showroom initialized")
	return a, nil
}

func (a *App) startWatcher(base assets.Source, cached *assets.CachedSource) error {
	dir, ok := base.(*assets.DirSource)
	if !ok {
		return errors.New("asset root is not a directory")
	}
	var err error
	a.watcher, err = assets.NewWatcher(a.viewer.Pipeline(), dir, cached, showroom.Requests(&a.cfg.Scene))
	return err
}

// Run starts loading and runs the frame loop until the window closes.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := a.showroom.Start(ctx); err != nil {
		a.log.Error("some pieces were rejected", zap.Error(err))
	}
	if a.watcher != nil {
		go func() {
			if err := a.watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.log.Error("asset watcher stopped", zap.Error(err))
			}
		}()
	}

	a.running = true
	lastTime := time.Now()
	frameCount := 0
	fpsTimer := time.Now()

	var frameBudget time.Duration
	if a.cfg.Graphics.FPSLimit > 0 {
		frameBudget = time.Second / time.Duration(a.cfg.Graphics.FPSLimit)
	}

	a.log.Info("starting frame loop")
	for a.running {
		now := time.Now()
		dt := now.Sub(lastTime).Seconds()
		lastTime = now

		if a.input.Update() {
			a.running = false
			break
		}
		a.handleEvents()

		tip := a.showroom.Tooltip()
		tx, ty := tip.Position()
		a.renderer.SetOverlay(tip.Image(), tx, ty, tip.Visible())

		a.viewer.Tick(float32(dt))
		if a.capture {
			a.capture = false
			a.screenshot()
		}
		a.window.SwapBuffers()

		frameCount++
		if time.Since(fpsTimer) >= time.Second {
			a.log.Debug("fps", zap.Int("count", frameCount), zap.String("dt", fmt.Sprintf("%.2fms", dt*1000)))
			if a.cfg.Graphics.ShowFPS {
				a.window.SetTitle(fmt.Sprintf("%s - %d fps", title, frameCount))
			}
			frameCount = 0
			fpsTimer = time.Now()
		}

		if frameBudget > 0 {
			if spent := time.Since(now); spent < frameBudget {
				time.Sleep(frameBudget - spent)
			}
		}
	}

	return nil
}

func (a *App) handleEvents() {
	for _, event := range a.input.Events() {
		switch event.Type {
		case input.EventWindowResize:
			a.viewer.Resize(event.Width, event.Height)
		case input.EventKeyDown:
			switch event.Key {
			case sdl.SCANCODE_ESCAPE:
				a.running = false
			case sdl.SCANCODE_F12:
				a.capture = true
			}
		case input.EventMouseMove:
			a.viewer.PointerMove(float32(event.MouseX), float32(event.MouseY))
		case input.EventMouseDown:
			b := viewer.ButtonPrimary
			if event.Button == input.ButtonRight {
				b = viewer.ButtonSecondary
			}
			a.viewer.PointerDown(b)
		case input.EventMouseUp:
			a.viewer.PointerUp()
		case input.EventMouseWheel:
			a.viewer.Wheel(event.Wheel)
		}
	}
}

func (a *App) screenshot() {
	pixels, w, h := a.renderer.ReadPixels()
	path, err := a.shots.SavePixels(pixels, w, h)
	if err != nil {
		a.log.Error("screenshot failed", zap.Error(err))
		return
	}
	a.log.Info("screenshot saved", zap.String("path", path))
}

// Close releases the scene, the renderer and the window.
func (a *App) Close() {
	a.log.Info("closing showroom")

	if a.showroom != nil {
		a.showroom.Close()
	}
	if a.viewer != nil {
		a.viewer.Close()
		a.renderer = nil
	}
	if a.renderer != nil {
		a.renderer.Close()
	}
	if a.window != nil {
		a.window.Close()
	}
}
