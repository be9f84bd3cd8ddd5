// Package showroom holds the application reactions of the viewer: it submits
// the configured pieces, keeps the hover tooltip and cursor in step with the
// pointer, reports clicks and logs loading progress.
package showroom

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/showroom/internal/assets"
	"github.com/Faultbox/showroom/internal/config"
	"github.com/Faultbox/showroom/internal/engine/picking"
	"github.com/Faultbox/showroom/internal/events"
	"github.com/Faultbox/showroom/internal/logger"
	"github.com/Faultbox/showroom/internal/pointer"
	"github.com/Faultbox/showroom/internal/scene"
)

// Host is the part of the viewer the showroom drives.
type Host interface {
	Bus() *events.Bus
	Submit(ctx context.Context, req assets.Request) (assets.Ticket, error)
}

// Cursor switches the pointer shape.
type Cursor interface {
	SetHand(hand bool)
}

// Hooks are optional callbacks for host-level reactions.
type Hooks struct {
	// Clicked runs when an interactive piece is clicked.
	Clicked func(id, label string)
	// Settled runs each time every submitted piece has a final outcome.
	Settled func(assets.Aggregate)
}

// Showroom reacts to viewer events.
type Showroom struct {
	host    Host
	scene   *config.SceneConfig
	cursor  Cursor
	hooks   Hooks
	tooltip *Tooltip
	log     *zap.Logger

	subs     []events.Subscription
	progress map[string]float64
	pressed  pointer.State
}

// New subscribes the showroom reactions on the host's bus. cursor may be nil.
func New(host Host, sc *config.SceneConfig, cursor Cursor, hooks Hooks) *Showroom {
	s := &Showroom{
		host:     host,
		scene:    sc,
		cursor:   cursor,
		hooks:    hooks,
		tooltip:  NewTooltip(),
		log:      logger.Named("showroom"),
		progress: make(map[string]float64),
	}

	bus := host.Bus()
	s.subs = append(s.subs,
		events.On(bus, events.Intersect, s.onIntersect),
		bus.Subscribe(events.LostIntersect, func(any) { s.onLostIntersect() }),
		events.On(bus, events.PointerDown, s.onPointerDown),
		events.On(bus, events.PointerUp, s.onPointerUp),
		events.On(bus, events.PointerMove, s.onPointerMove),
		events.On(bus, events.ObjectClicked, s.onClick),
		events.On(bus, events.ModelLoading, s.onProgress),
		events.On(bus, events.ModelLoaded, s.onLoaded),
		events.On(bus, events.ModelFailed, s.onFailed),
		events.On(bus, events.ModelsSettled, s.onSettled),
	)
	return s
}

// Requests converts the configured pieces into load requests, environment
// pieces first.
func Requests(sc *config.SceneConfig) []assets.Request {
	reqs := make([]assets.Request, 0, len(sc.Assets))
	for _, interactive := range []bool{false, true} {
		for _, a := range sc.Assets {
			if a.Interactive != interactive {
				continue
			}
			reqs = append(reqs, assets.Request{
				ID:                 a.ID,
				ModelPath:          a.Model,
				DiffuseTexturePath: a.Diffuse,
				AlphaTexturePath:   a.Alpha,
				Interactive:        a.Interactive,
				Emissive:           a.Emissive,
			})
		}
	}
	return reqs
}

// Start submits every configured piece. Rejected requests are reported
// together; the rest keep loading.
func (s *Showroom) Start(ctx context.Context) error {
	reqs := Requests(s.scene)
	s.log.Info("loading showroom", zap.Int("pieces", len(reqs)))

	var errs []error
	for _, req := range reqs {
		if _, err := s.host.Submit(ctx, req); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("submitting showroom: %w", err)
	}
	return nil
}

// Tooltip returns the hover tooltip.
func (s *Showroom) Tooltip() *Tooltip {
	return s.tooltip
}

// Progress returns the latest percentage reported for a piece.
func (s *Showroom) Progress(id string) float64 {
	return s.progress[id]
}

// Close removes the subscriptions.
func (s *Showroom) Close() {
	for _, sub := range s.subs {
		sub.Cancel()
	}
	s.subs = nil
}

// Label returns the display name of a piece, falling back to its ID.
func (s *Showroom) Label(id string) string {
	if l := s.scene.Label(id); l != "" {
		return l
	}
	return id
}

func (s *Showroom) onIntersect(d picking.HoverData) {
	s.setHand(true)
	s.tooltip.Show(s.Label(d.Object.ID), d.Pointer.PixelX, d.Pointer.PixelY)
}

func (s *Showroom) onLostIntersect() {
	s.setHand(false)
	s.tooltip.Hide()
}

func (s *Showroom) onPointerDown(p pointer.State) {
	s.pressed = p
	s.tooltip.Hide()
}

// onPointerUp drops the hand after a drag: the drag ends the hover without a
// lost-intersect.
func (s *Showroom) onPointerUp(p pointer.State) {
	if !pointer.IsClick(s.pressed, p) {
		s.setHand(false)
	}
}

func (s *Showroom) onPointerMove(p pointer.State) {
	s.tooltip.Follow(p.PixelX, p.PixelY)
}

func (s *Showroom) onClick(n *scene.Node) {
	if !n.Interactive {
		return
	}
	label := s.Label(n.ID)
	s.log.Info("object clicked", zap.String("id", n.ID), zap.String("label", label))
	if s.hooks.Clicked != nil {
		s.hooks.Clicked(n.ID, label)
	}
}

func (s *Showroom) onProgress(p assets.Progress) {
	s.progress[p.ID] = p.Percent
	s.log.Debug("loading",
		zap.String("id", p.ID),
		zap.Stringer("stage", p.Stage),
		zap.Float64("percent", p.Percent),
	)
}

func (s *Showroom) onLoaded(o assets.Outcome) {
	s.progress[o.ID] = 100
}

func (s *Showroom) onFailed(o assets.Outcome) {
	s.log.Warn("piece unavailable", zap.String("id", o.ID), zap.Error(o.Err))
}

func (s *Showroom) onSettled(a assets.Aggregate) {
	s.log.Info("all models settled",
		zap.Int("loaded", a.Loaded),
		zap.Int("failed", a.Failed),
	)
	if s.hooks.Settled != nil {
		s.hooks.Settled(a)
	}
}

func (s *Showroom) setHand(hand bool) {
	if s.cursor != nil {
		s.cursor.SetHand(hand)
	}
}
