package workflow

import (
	"context"
	"sync"

	"github.com/skillsmith/skillsmith/internal/sidecar"
)

// Dispatcher hands a built config off to whichever supervision mode a run is
// configured for: a fresh one-shot process, or a persistent helper kept warm
// in a pool (§4.4). Both modes publish every event — including the terminal
// one — to the sink they were constructed with, not one passed per call:
// that sink is exactly what the Engine that owns this Dispatcher watches for
// completion, so it must stay fixed across every Dispatch a run makes.
type Dispatcher interface {
	Dispatch(ctx context.Context, agentID string, cfg sidecar.Config) error
}

// Canceller is implemented by dispatchers that can interrupt an already
// dispatched agent_id before its own terminal event would otherwise arrive.
// Only one-shot dispatch supports this directly (§4.4.1); pool mode relies
// on its per-request timeout instead (§4.4.2), so PoolDispatcher does not
// implement it.
type Canceller interface {
	Cancel(agentID string) error
}

// OneShotDispatcher spawns a new helper process per invocation, grounded on
// the default path through spawn_sidecar — no persistent pool involved.
type OneShotDispatcher struct {
	Registry     *sidecar.Registry
	NodeBin      string
	HelperScript string
	Sink         sidecar.Sink
}

func (d OneShotDispatcher) Dispatch(ctx context.Context, agentID string, cfg sidecar.Config) error {
	return d.Registry.Spawn(ctx, agentID, d.NodeBin, d.HelperScript, cfg, d.Sink)
}

// Cancel interrupts a one-shot agent_id in flight, following the registry's
// cancellation contract (§4.4.1): SIGTERM, agent-cancelled emitted
// immediately, force-kill after its watchdog if it hasn't exited.
func (d OneShotDispatcher) Cancel(agentID string) error {
	return d.Registry.Cancel(agentID, d.Sink)
}

// PoolDispatcher routes requests through a persistent helper kept alive for
// Skill, reused across every step run against that skill (§4.4.2). The
// original's pool keys its map by skill name directly, not by a broader
// "kind" category — Skill is exactly the value SendRequest receives as its
// pool key. The pool's sink was already fixed at NewPool time; it is not
// repeated here.
type PoolDispatcher struct {
	Pool       *sidecar.Pool
	Skill      string
	TimeoutSec int
}

func (d PoolDispatcher) Dispatch(ctx context.Context, agentID string, cfg sidecar.Config) error {
	return d.Pool.SendRequest(ctx, d.Skill, agentID, cfg, d.TimeoutSec)
}

// Bus sits between a dispatcher and its downstream sink: every event still
// reaches Next (a CLI printer, a log writer, whatever the caller wants to
// observe), but a RunStep call can additionally register a one-shot watcher
// for a single agent_id to learn when that particular run reaches a
// terminal event, without polling or a second sink per call. Both Registry
// and Pool require a sink fixed at construction time, so the Engine builds
// one Bus and hands it to every dispatcher it constructs.
type Bus struct {
	mu      sync.Mutex
	next    sidecar.Sink
	waiters map[string]func(sidecar.Event)
}

// NewBus wraps next (nil defaults to sidecar.NopSink) with watcher routing.
func NewBus(next sidecar.Sink) *Bus {
	if next == nil {
		next = sidecar.NopSink
	}
	return &Bus{next: next, waiters: make(map[string]func(sidecar.Event))}
}

// Publish implements sidecar.Sink: forward to the fixed downstream sink,
// then to whichever watcher is registered for this event's agent_id, if any.
func (b *Bus) Publish(e sidecar.Event) {
	b.next.Publish(e)

	b.mu.Lock()
	waiter := b.waiters[e.AgentID]
	b.mu.Unlock()

	if waiter != nil {
		waiter(e)
	}
}

// Watch registers fn to receive every event published for agentID until
// Unwatch is called. Only one watcher may be registered per agent_id at a
// time; a second Watch call for the same agentID replaces the first.
func (b *Bus) Watch(agentID string, fn func(sidecar.Event)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.waiters[agentID] = fn
}

// Unwatch removes agentID's watcher, if any.
func (b *Bus) Unwatch(agentID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.waiters, agentID)
}
