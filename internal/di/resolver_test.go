package di

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eventLog records factory start/done events in observed order.
type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()
}

func (l *eventLog) indexOf(event string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, e := range l.events {
		if e == event {
			return i
		}
	}
	return -1
}

// recordingFactory produces value and logs "start:<name>" / "done:<name>".
func recordingFactory(log *eventLog, name string, value any) Factory {
	return func(ctx context.Context, deps Dependencies, cfg any) (any, error) {
		log.add("start:" + name)
		defer log.add("done:" + name)
		return value, nil
	}
}

func TestResolve_AllServicesResolved(t *testing.T) {
	// Arrange: logger and db are independent roots, userRepo needs db,
	// userService needs logger and userRepo.
	log := &eventLog{}
	registry := NewRegistry()
	require.NoError(t, registry.Register(Descriptor{
		Name: "logger", Factory: recordingFactory(log, "logger", "logger-instance"),
	}))
	require.NoError(t, registry.Register(Descriptor{
		Name: "db", Factory: recordingFactory(log, "db", "db-instance"),
	}))
	require.NoError(t, registry.Register(Descriptor{
		Name: "userRepo", Dependencies: []string{"db"},
		Factory: recordingFactory(log, "userRepo", "repo-instance"),
	}))
	require.NoError(t, registry.Register(Descriptor{
		Name: "userService", Dependencies: []string{"logger", "userRepo"},
		Factory: recordingFactory(log, "userService", "service-instance"),
	}))

	// Act
	resolved, err := New().Resolve(context.Background(), registry, nil)

	// Assert: exactly one entry per registered name.
	require.NoError(t, err)
	require.Len(t, resolved, 4)
	assert.Equal(t, "logger-instance", resolved["logger"])
	assert.Equal(t, "db-instance", resolved["db"])
	assert.Equal(t, "repo-instance", resolved["userRepo"])
	assert.Equal(t, "service-instance", resolved["userService"])

	// Dependencies complete strictly before dependents start.
	assert.Less(t, log.indexOf("done:db"), log.indexOf("start:userRepo"))
	assert.Less(t, log.indexOf("done:logger"), log.indexOf("start:userService"))
	assert.Less(t, log.indexOf("done:userRepo"), log.indexOf("start:userService"))
}

func TestResolve_FactoryReceivesOnlyDeclaredDependencies(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(Descriptor{Name: "a", Factory: nopFactory}))
	require.NoError(t, registry.Register(Descriptor{Name: "b", Factory: nopFactory}))

	var got Dependencies
	require.NoError(t, registry.Register(Descriptor{
		Name: "c", Dependencies: []string{"a"},
		Factory: func(ctx context.Context, deps Dependencies, cfg any) (any, error) {
			got = deps
			return "c", nil
		},
	}))

	_, err := New().Resolve(context.Background(), registry, nil)

	require.NoError(t, err)
	require.Len(t, got, 1)
	_, hasA := got["a"]
	assert.True(t, hasA)
}

func TestResolve_FactoryReceivesConfigSlice(t *testing.T) {
	registry := NewRegistry()
	var gotCfg any
	require.NoError(t, registry.Register(Descriptor{
		Name: "db",
		Factory: func(ctx context.Context, deps Dependencies, cfg any) (any, error) {
			gotCfg = cfg
			return "db", nil
		},
	}))
	require.NoError(t, registry.Register(Descriptor{
		Name: "unconfigured",
		Factory: func(ctx context.Context, deps Dependencies, cfg any) (any, error) {
			assert.Nil(t, cfg)
			return "ok", nil
		},
	}))

	cfg := Config{"db": map[string]any{"dsn": "memory://"}}
	_, err := New().Resolve(context.Background(), registry, cfg)

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"dsn": "memory://"}, gotCfg)
}

func TestResolve_CyclicDependency_NoFactoryRuns(t *testing.T) {
	var calls atomic.Int32
	counting := func(ctx context.Context, deps Dependencies, cfg any) (any, error) {
		calls.Add(1)
		return nil, nil
	}

	registry := NewRegistry()
	require.NoError(t, registry.Register(Descriptor{Name: "a", Dependencies: []string{"b"}, Factory: counting}))
	require.NoError(t, registry.Register(Descriptor{Name: "b", Dependencies: []string{"a"}, Factory: counting}))

	resolved, err := New().Resolve(context.Background(), registry, nil)

	assert.Nil(t, resolved)
	var cerr *CompositionError
	require.ErrorAs(t, err, &cerr)
	var cyclic *CyclicDependencyError
	require.ErrorAs(t, err, &cyclic)
	require.Len(t, cyclic.Path, 3)
	assert.Equal(t, cyclic.Path[0], cyclic.Path[2])
	assert.Equal(t, int32(0), calls.Load())
}

func TestResolve_UnknownDependency_NoFactoryRuns(t *testing.T) {
	var calls atomic.Int32
	registry := NewRegistry()
	require.NoError(t, registry.Register(Descriptor{
		Name: "a", Dependencies: []string{"missing"},
		Factory: func(ctx context.Context, deps Dependencies, cfg any) (any, error) {
			calls.Add(1)
			return nil, nil
		},
	}))

	resolved, err := New().Resolve(context.Background(), registry, nil)

	assert.Nil(t, resolved)
	var unknown *UnknownDependencyError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "a", unknown.Service)
	assert.Equal(t, "missing", unknown.Dependency)
	assert.Equal(t, int32(0), calls.Load())
}

func TestResolve_FactoryFailure_FailsFastAndSkipsDownstream(t *testing.T) {
	// Arrange: c -> b -> a, a's factory fails.
	boom := errors.New("connection refused")
	var downstreamCalls atomic.Int32
	counting := func(ctx context.Context, deps Dependencies, cfg any) (any, error) {
		downstreamCalls.Add(1)
		return nil, nil
	}

	registry := NewRegistry()
	require.NoError(t, registry.Register(Descriptor{
		Name: "a",
		Factory: func(ctx context.Context, deps Dependencies, cfg any) (any, error) {
			return nil, boom
		},
	}))
	require.NoError(t, registry.Register(Descriptor{Name: "b", Dependencies: []string{"a"}, Factory: counting}))
	require.NoError(t, registry.Register(Descriptor{Name: "c", Dependencies: []string{"b"}, Factory: counting}))

	// Act
	resolved, err := New().Resolve(context.Background(), registry, nil)

	// Assert
	assert.Nil(t, resolved)
	var cerr *CompositionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "a", cerr.Failed)
	assert.Equal(t, []string{"b", "c"}, cerr.Skipped)
	var ferr *FactoryError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, "a", ferr.Service)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int32(0), downstreamCalls.Load())
}

func TestResolve_FailureCancelsPendingBranch(t *testing.T) {
	// An independent slow branch must observe cancellation once the failing
	// branch aborts the run.
	boom := errors.New("boom")
	cancelled := make(chan struct{})

	registry := NewRegistry()
	require.NoError(t, registry.Register(Descriptor{
		Name: "slow",
		Factory: func(ctx context.Context, deps Dependencies, cfg any) (any, error) {
			select {
			case <-ctx.Done():
				close(cancelled)
				return nil, ctx.Err()
			case <-time.After(5 * time.Second):
				return nil, errors.New("cancellation never arrived")
			}
		},
	}))
	require.NoError(t, registry.Register(Descriptor{
		Name: "failing",
		Factory: func(ctx context.Context, deps Dependencies, cfg any) (any, error) {
			time.Sleep(10 * time.Millisecond) // let slow start first
			return nil, boom
		},
	}))

	resolved, err := New().Resolve(context.Background(), registry, nil)

	assert.Nil(t, resolved)
	var cerr *CompositionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "failing", cerr.Failed)
	assert.ErrorIs(t, err, boom)

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("slow factory never observed cancellation")
	}
}

func TestResolve_IndependentBranchesRunConcurrently(t *testing.T) {
	// Each branch waits for the other to start; the run only completes if
	// the resolver actually overlaps independent factories.
	aStarted := make(chan struct{})
	bStarted := make(chan struct{})

	rendezvous := func(mine, other chan struct{}) Factory {
		return func(ctx context.Context, deps Dependencies, cfg any) (any, error) {
			close(mine)
			select {
			case <-other:
				return "ok", nil
			case <-time.After(2 * time.Second):
				return nil, errors.New("sibling branch never started")
			}
		}
	}

	registry := NewRegistry()
	require.NoError(t, registry.Register(Descriptor{Name: "a", Factory: rendezvous(aStarted, bStarted)}))
	require.NoError(t, registry.Register(Descriptor{Name: "b", Factory: rendezvous(bStarted, aStarted)}))

	resolved, err := New().Resolve(context.Background(), registry, nil)

	require.NoError(t, err)
	assert.Len(t, resolved, 2)
}

func TestResolve_SuspendingFactoryDoesNotBlockIndependentBranch(t *testing.T) {
	// fast must finish while slow is still suspended.
	slowRelease := make(chan struct{})
	fastDone := make(chan struct{})

	registry := NewRegistry()
	require.NoError(t, registry.Register(Descriptor{
		Name: "slow",
		Factory: func(ctx context.Context, deps Dependencies, cfg any) (any, error) {
			select {
			case <-slowRelease:
				return "slow", nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	}))
	require.NoError(t, registry.Register(Descriptor{
		Name: "fast",
		Factory: func(ctx context.Context, deps Dependencies, cfg any) (any, error) {
			defer close(fastDone)
			return "fast", nil
		},
	}))

	go func() {
		// Release slow only after fast has finished.
		select {
		case <-fastDone:
		case <-time.After(2 * time.Second):
		}
		close(slowRelease)
	}()

	resolved, err := New().Resolve(context.Background(), registry, nil)

	require.NoError(t, err)
	assert.Equal(t, "fast", resolved["fast"])
	assert.Equal(t, "slow", resolved["slow"])
}

func TestResolve_ExternalCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	registry := NewRegistry()
	require.NoError(t, registry.Register(Descriptor{
		Name: "blocked",
		Factory: func(ctx context.Context, deps Dependencies, cfg any) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}))
	require.NoError(t, registry.Register(Descriptor{
		Name: "dependent", Dependencies: []string{"blocked"}, Factory: nopFactory,
	}))

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	resolved, err := New().Resolve(ctx, registry, nil)

	assert.Nil(t, resolved)
	var cerr *CompositionError
	require.ErrorAs(t, err, &cerr)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, cerr.Skipped, "dependent")
}

func TestResolve_TwoRunsBuildIndependentInstances(t *testing.T) {
	type instance struct{ n int }
	var builds atomic.Int32

	registry := NewRegistry()
	require.NoError(t, registry.Register(Descriptor{
		Name: "svc",
		Factory: func(ctx context.Context, deps Dependencies, cfg any) (any, error) {
			return &instance{n: int(builds.Add(1))}, nil
		},
	}))

	resolver := New()
	first, err := resolver.Resolve(context.Background(), registry, nil)
	require.NoError(t, err)
	second, err := resolver.Resolve(context.Background(), registry, nil)
	require.NoError(t, err)

	assert.Equal(t, int32(2), builds.Load())
	assert.NotSame(t, first["svc"], second["svc"])
}

func TestResolve_RepeatedRunsProduceSameContent(t *testing.T) {
	registry := NewRegistry()
	require.NoError(t, registry.Register(Descriptor{Name: "left", Factory: recordingFactory(&eventLog{}, "left", "L")}))
	require.NoError(t, registry.Register(Descriptor{Name: "right", Factory: recordingFactory(&eventLog{}, "right", "R")}))
	require.NoError(t, registry.Register(Descriptor{
		Name: "join", Dependencies: []string{"left", "right"},
		Factory: func(ctx context.Context, deps Dependencies, cfg any) (any, error) {
			return deps["left"].(string) + deps["right"].(string), nil
		},
	}))

	resolver := New()
	for i := 0; i < 20; i++ {
		resolved, err := resolver.Resolve(context.Background(), registry, nil)
		require.NoError(t, err)
		assert.Equal(t, Resolved{"left": "L", "right": "R", "join": "LR"}, resolved)
	}
}

func TestResolve_ObserverSeesLifecycle(t *testing.T) {
	obs := &captureObserver{}
	registry := NewRegistry()
	require.NoError(t, registry.Register(Descriptor{Name: "a", Factory: nopFactory}))
	require.NoError(t, registry.Register(Descriptor{Name: "b", Dependencies: []string{"a"}, Factory: nopFactory}))

	_, err := New(WithObserver(obs)).Resolve(context.Background(), registry, nil)

	require.NoError(t, err)
	assert.Equal(t, 2, obs.started)
	assert.ElementsMatch(t, []string{"a", "b"}, obs.resolvedServices())
	assert.Equal(t, 1, obs.finished)
	assert.NoError(t, obs.finishedErr)
}

func TestResolve_ObserverSeesFactoryFailure(t *testing.T) {
	obs := &captureObserver{}
	boom := errors.New("boom")
	registry := NewRegistry()
	require.NoError(t, registry.Register(Descriptor{
		Name: "a",
		Factory: func(ctx context.Context, deps Dependencies, cfg any) (any, error) {
			return nil, boom
		},
	}))
	require.NoError(t, registry.Register(Descriptor{
		Name: "b", Dependencies: []string{"a"}, Factory: nopFactory,
	}))

	_, err := New(WithObserver(obs)).Resolve(context.Background(), registry, nil)

	require.Error(t, err)
	assert.Equal(t, []string{"a"}, obs.failedServices())
	assert.Empty(t, obs.resolvedServices())
	assert.Equal(t, 1, obs.finished)
	assert.ErrorIs(t, obs.finishedErr, boom)
}

func TestResolve_ObserverSeesValidationFailure(t *testing.T) {
	// A cyclic graph fails before any factory runs; the observer still sees
	// the run finish.
	obs := &captureObserver{}
	registry := NewRegistry()
	require.NoError(t, registry.Register(Descriptor{
		Name: "a", Dependencies: []string{"b"}, Factory: nopFactory,
	}))
	require.NoError(t, registry.Register(Descriptor{
		Name: "b", Dependencies: []string{"a"}, Factory: nopFactory,
	}))

	_, err := New(WithObserver(obs)).Resolve(context.Background(), registry, nil)

	require.Error(t, err)
	assert.Zero(t, obs.started)
	assert.Equal(t, 1, obs.finished)
	var cerr *CompositionError
	assert.ErrorAs(t, obs.finishedErr, &cerr)
}

// captureObserver records observer callbacks for assertions.
type captureObserver struct {
	mu          sync.Mutex
	started     int
	resolved    []string
	failed      []string
	finished    int
	finishedErr error
}

func (o *captureObserver) ResolutionStarted(services int) {
	o.mu.Lock()
	o.started = services
	o.mu.Unlock()
}

func (o *captureObserver) ServiceStarted(string) {}

func (o *captureObserver) ServiceResolved(service string, _ time.Duration) {
	o.mu.Lock()
	o.resolved = append(o.resolved, service)
	o.mu.Unlock()
}

func (o *captureObserver) ServiceFailed(service string, _ time.Duration, _ error) {
	o.mu.Lock()
	o.failed = append(o.failed, service)
	o.mu.Unlock()
}

func (o *captureObserver) ResolutionFinished(_ time.Duration, err error) {
	o.mu.Lock()
	o.finished++
	o.finishedErr = err
	o.mu.Unlock()
}

func (o *captureObserver) resolvedServices() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.resolved))
	copy(out, o.resolved)
	return out
}

func (o *captureObserver) failedServices() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, len(o.failed))
	copy(out, o.failed)
	return out
}
