package di

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Config is the externally supplied configuration for one resolution run,
// sliced per service by name. The resolver passes cfg[name] to that service's
// factory unmodified and never interprets the contents.
type Config map[string]any

// nodeState tracks one service through a resolution run.
type nodeState int32

const (
	statePending nodeState = iota
	stateWaiting
	stateRunning
	stateResolved
	stateFailed
	stateSkipped
)

func (s nodeState) String() string {
	switch s {
	case statePending:
		return "pending"
	case stateWaiting:
		return "waiting"
	case stateRunning:
		return "running"
	case stateResolved:
		return "resolved"
	case stateFailed:
		return "failed"
	case stateSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// node is the per-service bookkeeping for one resolution run. err and value
// are written before done is closed and only read after done is closed.
type node struct {
	desc  Descriptor
	state atomic.Int32
	done  chan struct{}
	value any
	err   error
}

func (n *node) setState(s nodeState) { n.state.Store(int32(s)) }
func (n *node) getState() nodeState  { return nodeState(n.state.Load()) }

// Resolver walks a validated dependency graph and invokes each service's
// factory exactly once, in dependency order, with independent branches
// running concurrently. The resolver itself is stateless and reusable; every
// Resolve call performs an independent full build.
type Resolver struct {
	logger   *zap.Logger
	observer Observer
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger used for per-service resolution progress.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithObserver sets an observer notified of resolution lifecycle events,
// typically a metrics collector.
func WithObserver(o Observer) Option {
	return func(r *Resolver) {
		if o != nil {
			r.observer = o
		}
	}
}

// New creates a Resolver. Without options it is silent: no-op logger and
// no-op observer.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		logger:   zap.NewNop(),
		observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve freezes the registry, validates the dependency graph, and builds
// every registered service. On success it returns one instance per
// registered name. On any failure it returns a single CompositionError and
// no usable result; already-built instances are discarded, not rolled back.
//
// Validation errors (unknown dependency, cycle) abort before any factory
// runs. The first factory failure cancels the context passed to all
// still-pending factories (best effort; a factory must be responsive to
// cancellation for the run to wind down promptly). Services whose factories
// never ran because something upstream failed are reported as skipped.
func (r *Resolver) Resolve(ctx context.Context, reg *Registry, cfg Config) (Resolved, error) {
	reg.freeze()
	start := time.Now()

	g, err := buildGraph(reg)
	if err != nil {
		cerr := &CompositionError{Err: err}
		r.logger.Error("dependency graph validation failed", zap.Error(err))
		r.observer.ResolutionFinished(time.Since(start), cerr)
		return nil, cerr
	}

	r.logger.Debug("dependency graph validated",
		zap.Int("services", len(g.nodes)),
		zap.Strings("order", g.order),
	)
	r.observer.ResolutionStarted(len(g.nodes))

	nodes := make(map[string]*node, len(g.nodes))
	for _, name := range g.nodes {
		desc, _ := reg.Lookup(name)
		nodes[name] = &node{desc: desc, done: make(chan struct{})}
	}

	group, gctx := errgroup.WithContext(ctx)
	for _, name := range g.order {
		n := nodes[name]
		group.Go(func() error {
			return r.buildNode(gctx, n, nodes, cfg)
		})
	}

	waitErr := group.Wait()
	elapsed := time.Since(start)

	if waitErr != nil {
		cerr := &CompositionError{Err: waitErr}
		var ferr *FactoryError
		if errors.As(waitErr, &ferr) {
			cerr.Failed = ferr.Service
		}
		for _, name := range g.nodes {
			if nodes[name].getState() == stateSkipped {
				cerr.Skipped = append(cerr.Skipped, name)
			}
		}
		r.logger.Error("composition failed",
			zap.String("failed_service", cerr.Failed),
			zap.Strings("skipped", cerr.Skipped),
			zap.Duration("elapsed", elapsed),
			zap.Error(waitErr),
		)
		r.observer.ResolutionFinished(elapsed, cerr)
		return nil, cerr
	}

	resolved := make(Resolved, len(g.nodes))
	for name, n := range nodes {
		resolved[name] = n.value
	}

	r.logger.Info("composition resolved",
		zap.Int("services", len(resolved)),
		zap.Duration("elapsed", elapsed),
	)
	r.observer.ResolutionFinished(elapsed, nil)
	return resolved, nil
}

// buildNode waits for the node's dependencies, then runs its factory. A node
// whose dependency failed, or whose run was cancelled before it started,
// terminates as skipped without ever invoking its factory.
func (r *Resolver) buildNode(ctx context.Context, n *node, nodes map[string]*node, cfg Config) error {
	name := n.desc.Name
	n.setState(stateWaiting)

	for _, depName := range n.desc.Dependencies {
		dep := nodes[depName]
		select {
		case <-dep.done:
			if dep.err != nil {
				n.setState(stateSkipped)
				n.err = dep.err
				close(n.done)
				return nil
			}
		case <-ctx.Done():
			n.setState(stateSkipped)
			n.err = ctx.Err()
			close(n.done)
			return ctx.Err()
		}
	}

	deps := make(Dependencies, len(n.desc.Dependencies))
	for _, depName := range n.desc.Dependencies {
		deps[depName] = nodes[depName].value
	}

	n.setState(stateRunning)
	r.observer.ServiceStarted(name)
	r.logger.Debug("building service", zap.String("service", name))
	started := time.Now()

	value, err := n.desc.Factory(ctx, deps, cfg[name])
	buildTime := time.Since(started)

	if err != nil {
		ferr := &FactoryError{Service: name, Err: err}
		n.err = ferr
		n.setState(stateFailed)
		close(n.done)
		r.observer.ServiceFailed(name, buildTime, err)
		r.logger.Error("service factory failed",
			zap.String("service", name),
			zap.Duration("elapsed", buildTime),
			zap.Error(err),
		)
		return ferr
	}

	n.value = value
	n.setState(stateResolved)
	close(n.done)
	r.observer.ServiceResolved(name, buildTime)
	r.logger.Debug("service resolved",
		zap.String("service", name),
		zap.Duration("elapsed", buildTime),
	)
	return nil
}
