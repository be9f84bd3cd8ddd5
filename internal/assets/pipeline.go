package assets

import (
	"context"
	"errors"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Faultbox/showroom/internal/events"
	"github.com/Faultbox/showroom/internal/logger"
	"github.com/Faultbox/showroom/internal/scene"
)

// Scheduler runs closures on the thread that owns the scene and the bus.
// loop.Queue satisfies it.
type Scheduler interface {
	Post(fn func())
}

// Options configures a Pipeline.
type Options struct {
	Source    Source
	Scheduler Scheduler
	Bus       *events.Bus
	// Pivot receives every loaded piece. A nil pivot fails each submission
	// with a ConfigurationError.
	Pivot *scene.Node

	// DecodeWorkers bounds concurrent geometry decodes. Default 1.
	DecodeWorkers int
	// FetchTimeout bounds a whole submission. Zero means no timeout.
	FetchTimeout time.Duration
	// MaxAnisotropy is applied to every texture. Default 1.
	MaxAnisotropy float32
}

type submission struct {
	ticket  Ticket
	req     Request
	stage   Stage
	percent float64
}

// Pipeline loads submitted requests concurrently. Fetching and decoding
// happen on background goroutines; progress, attachment and outcome
// publishing are posted to the Scheduler.
type Pipeline struct {
	src     Source
	sched   Scheduler
	bus     *events.Bus
	pivot   *scene.Node
	timeout time.Duration
	log     *zap.Logger

	pool       worker.DynamicWorkerPool
	taskID     atomic.Int64
	anisotropy atomic.Uint32 // float32 bits

	mu   sync.Mutex
	subs map[Ticket]*submission
	agg  Aggregate

	closed    chan struct{}
	closeOnce sync.Once
}

// New creates a pipeline.
func New(opts Options) (*Pipeline, error) {
	switch {
	case opts.Source == nil:
		return nil, configError("", errors.New("no asset source"))
	case opts.Scheduler == nil:
		return nil, configError("", errors.New("no scheduler"))
	case opts.Bus == nil:
		return nil, configError("", errors.New("no event bus"))
	}

	workers := max(opts.DecodeWorkers, 1)
	p := &Pipeline{
		src:     opts.Source,
		sched:   opts.Scheduler,
		bus:     opts.Bus,
		pivot:   opts.Pivot,
		timeout: opts.FetchTimeout,
		log:     logger.Named("assets"),
		pool:    worker.NewDynamicWorkerPool(workers, 256, 1*time.Second),
		subs:    make(map[Ticket]*submission),
		closed:  make(chan struct{}),
	}
	p.SetMaxAnisotropy(opts.MaxAnisotropy)
	return p, nil
}

// SetMaxAnisotropy sets the anisotropy used for textures loaded from now on.
func (p *Pipeline) SetMaxAnisotropy(v float32) {
	if v < 1 {
		v = 1
	}
	p.anisotropy.Store(math.Float32bits(v))
}

func (p *Pipeline) maxAnisotropy() float32 {
	return math.Float32frombits(p.anisotropy.Load())
}

// Submit starts loading req and returns its ticket. Invalid requests are
// reported both as the returned error and as a model_failed outcome, so
// completion counting over events stays exact. Safe for concurrent use.
func (p *Pipeline) Submit(ctx context.Context, req Request) (Ticket, error) {
	sub := &submission{ticket: uuid.New(), req: req}

	p.mu.Lock()
	p.subs[sub.ticket] = sub
	p.agg.Submitted++
	p.agg.Remaining++
	p.mu.Unlock()

	err := req.Validate()
	if err == nil && p.pivot == nil {
		err = configError(req.ID, errors.New("no pivot node to attach to"))
	}
	if err == nil && p.isClosed() {
		err = configError(req.ID, ErrClosed)
	}
	if err != nil {
		p.settle(sub, nil, err)
		return sub.ticket, err
	}

	p.log.Debug("load submitted",
		zap.String("id", req.ID),
		zap.Stringer("ticket", sub.ticket),
		zap.String("model", req.ModelPath),
	)
	go p.run(ctx, sub)
	return sub.ticket, nil
}

func (p *Pipeline) run(ctx context.Context, sub *submission) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	mat, err := p.buildMaterial(ctx, sub)
	if err != nil {
		p.settle(sub, nil, err)
		return
	}

	p.setStage(sub, StageGeometry)
	mesh, err := p.loadGeometry(ctx, sub)
	if err != nil {
		p.settle(sub, nil, err)
		return
	}

	node := scene.NewNode(sub.req.ID)
	node.Interactive = sub.req.Interactive
	node.Mesh = mesh
	node.Material = mat
	p.settle(sub, node, nil)
}

// fetch reads a whole asset, reporting byte progress for stage.
func (p *Pipeline) fetch(ctx context.Context, sub *submission, stage Stage, path string) ([]byte, error) {
	rc, size, err := p.src.Open(ctx, path)
	if err != nil {
		return nil, fetchError(sub.req.ID, path, err)
	}
	defer rc.Close()

	data, err := readAll(ctx, rc, size, func(loaded, total int64) {
		p.report(sub, Progress{
			ID:      sub.req.ID,
			Ticket:  sub.ticket,
			Stage:   stage,
			Path:    path,
			Total:   total,
			Loaded:  loaded,
			Percent: Percent(loaded, total),
		})
	})
	if err != nil {
		return nil, fetchError(sub.req.ID, path, err)
	}
	return data, nil
}

type decodeResult struct {
	mesh *scene.Mesh
	err  error
}

// loadGeometry fetches the model and decodes it on the worker pool.
func (p *Pipeline) loadGeometry(ctx context.Context, sub *submission) (*scene.Mesh, error) {
	path := sub.req.ModelPath
	data, err := p.fetch(ctx, sub, StageGeometry, path)
	if err != nil {
		return nil, err
	}

	if p.isClosed() {
		return nil, configError(sub.req.ID, ErrClosed)
	}
	done := make(chan decodeResult, 1)
	p.pool.SubmitTask(worker.Task{
		ID: int(p.taskID.Add(1)),
		Do: func() (any, error) {
			mesh, err := DecodeGeometry(data)
			done <- decodeResult{mesh: mesh, err: err}
			return mesh, err
		},
	})

	select {
	case r := <-done:
		if r.err != nil {
			return nil, decodeError(sub.req.ID, path, r.err)
		}
		return r.mesh, nil
	case <-ctx.Done():
		return nil, fetchError(sub.req.ID, path, ctx.Err())
	case <-p.closed:
		return nil, configError(sub.req.ID, ErrClosed)
	}
}

// Close stops the decode workers. Later submissions fail with ErrClosed and
// loads waiting on a decode give up. Safe to call more than once.
func (p *Pipeline) Close() {
	p.closeOnce.Do(func() {
		close(p.closed)
		p.pool.Stop()
		p.log.Debug("pipeline closed")
	})
}

func (p *Pipeline) isClosed() bool {
	select {
	case <-p.closed:
		return true
	default:
		return false
	}
}

func (p *Pipeline) report(sub *submission, pr Progress) {
	p.sched.Post(func() {
		p.mu.Lock()
		sub.percent = pr.Percent
		p.mu.Unlock()
		p.bus.Publish(events.ModelLoading, pr)
	})
}

func (p *Pipeline) setStage(sub *submission, stage Stage) {
	p.mu.Lock()
	sub.stage = stage
	p.mu.Unlock()
}

// settle delivers the single terminal outcome of a submission. On the
// scheduler thread it attaches node (replacing a same-ID piece), updates the
// aggregate and publishes model_loaded or model_failed, then models_settled
// once nothing remains in flight.
func (p *Pipeline) settle(sub *submission, node *scene.Node, err error) {
	outcome := Outcome{ID: sub.req.ID, Ticket: sub.ticket, Err: err}

	p.sched.Post(func() {
		if node != nil {
			if replaced := p.pivot.Attach(node); replaced != nil {
				p.log.Debug("replaced piece", zap.String("id", node.ID))
			}
		}

		p.mu.Lock()
		sub.percent = 100
		if err == nil {
			sub.stage = StageAttached
			p.agg.Loaded++
		} else {
			sub.stage = StageFailed
			p.agg.Failed++
		}
		p.agg.Remaining--
		agg := p.agg
		p.mu.Unlock()

		if err == nil {
			p.log.Info("model loaded",
				zap.String("id", outcome.ID),
				zap.Int("triangles", node.Mesh.TriangleCount()),
			)
			p.bus.Publish(events.ModelLoaded, outcome)
		} else {
			p.log.Error("model failed",
				zap.String("id", outcome.ID),
				zap.Stringer("kind", KindOf(err)),
				zap.Error(err),
			)
			p.bus.Publish(events.ModelFailed, outcome)
		}

		if agg.Settled() {
			p.bus.Publish(events.ModelsSettled, agg)
		}
	})
}

// Aggregate returns the submission counters.
func (p *Pipeline) Aggregate() Aggregate {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.agg
}

// Status returns the stage of a submission.
func (p *Pipeline) Status(t Ticket) (Stage, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	sub, ok := p.subs[t]
	if !ok {
		return 0, false
	}
	return sub.stage, true
}

// OverallPercent is the mean of the latest percentage of every submission;
// settled submissions count as 100. It is 0 before anything is submitted.
func (p *Pipeline) OverallPercent() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.subs) == 0 {
		return 0
	}
	var sum float64
	for _, sub := range p.subs {
		sum += sub.percent
	}
	return sum / float64(len(p.subs))
}
