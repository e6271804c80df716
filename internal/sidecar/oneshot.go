package sidecar

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

// cancelWatchdog is how long Cancel waits after sending a termination
// signal before force-killing a helper that hasn't exited (§4.4.1).
const cancelWatchdog = 5 * time.Second

type oneshotEntry struct {
	proc      *StartedProcess
	cancelled bool
}

// Registry supervises one-shot helper invocations: spawn, stream output,
// and guarantee exactly one terminal event per agent_id even on crash or
// cancellation (§4.4.1).
type Registry struct {
	mu      sync.Mutex
	agents  map[string]*oneshotEntry
	starter Starter
}

// NewRegistry builds an empty registry. A nil starter defaults to
// ExecStarter (spawning real processes).
func NewRegistry(starter Starter) *Registry {
	if starter == nil {
		starter = ExecStarter
	}
	return &Registry{agents: make(map[string]*oneshotEntry), starter: starter}
}

// Spawn launches a one-shot helper for agentID and returns once the
// process has started — it does not wait for completion. Output is
// streamed to sink as it arrives; the terminal event (agent-exit or
// agent-cancelled) arrives on sink asynchronously.
func (r *Registry) Spawn(ctx context.Context, agentID, nodeBin, helperScript string, cfg Config, sink Sink) error {
	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal sidecar config: %w", err)
	}

	proc, err := r.starter(ctx, nodeBin, []string{helperScript, string(configJSON)}, cfg.Cwd, false)
	if err != nil {
		return fmt.Errorf("spawn sidecar: %w", err)
	}

	r.mu.Lock()
	r.agents[agentID] = &oneshotEntry{proc: proc}
	r.mu.Unlock()

	logFile, err := openAgentLog(cfg.Cwd, agentID, cfg)
	if err != nil {
		logFile = nil // best-effort logging only, never blocks the run
	}

	go r.supervise(agentID, proc, logFile, sink)
	return nil
}

// supervise streams stdout/stderr until the child closes both, then reaps
// its exit status and emits the terminal event unless Cancel already did.
func (r *Registry) supervise(agentID string, proc *StartedProcess, logFile *logHandle, sink Sink) {
	defer closeLog(logFile)

	var eg errgroup.Group
	eg.Go(func() error { return r.pumpStdout(agentID, proc, logFile, sink) })
	eg.Go(func() error { return r.pumpStderr(agentID, proc, logFile, sink) })
	_ = eg.Wait() // scanner errors are not fatal to reaping the child

	waitErr := proc.Wait()
	success := waitErr == nil

	r.mu.Lock()
	wasCancelled := false
	if e, ok := r.agents[agentID]; ok {
		wasCancelled = e.cancelled
	}
	delete(r.agents, agentID)
	r.mu.Unlock()

	if wasCancelled {
		// Cancel already emitted the terminal event.
		return
	}
	sink.Publish(Event{Type: EventExit, AgentID: agentID, Success: success})
	logFile.writeLine(map[string]interface{}{"type": "agent-exit", "success": success})
}

func (r *Registry) pumpStdout(agentID string, proc *StartedProcess, logFile *logHandle, sink Sink) error {
	scanner := bufio.NewScanner(proc.Stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)
	for scanner.Scan() {
		line := scanner.Text()
		sink.Publish(Event{Type: EventMessage, AgentID: agentID, Line: line})
		logFile.writeRaw(line)
	}
	return scanner.Err()
}

func (r *Registry) pumpStderr(agentID string, proc *StartedProcess, logFile *logHandle, sink Sink) error {
	scanner := bufio.NewScanner(proc.Stderr)
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)
	for scanner.Scan() {
		line := scanner.Text()
		sink.Publish(Event{Type: EventStderr, AgentID: agentID, Line: line})
		logFile.writeLine(map[string]interface{}{"type": "stderr", "content": line})
	}
	return scanner.Err()
}

// Cancel marks agentID cancelled, sends SIGTERM, emits agent-cancelled
// immediately, and force-kills the process after cancelWatchdog if it
// hasn't exited by then (§4.4.1 steps 1-5).
func (r *Registry) Cancel(agentID string, sink Sink) error {
	r.mu.Lock()
	e, ok := r.agents[agentID]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("agent %q not found", agentID)
	}
	e.cancelled = true
	r.mu.Unlock() // lock released before the signal is sent

	_ = e.proc.Signal(syscall.SIGTERM)
	sink.Publish(Event{Type: EventCancelled, AgentID: agentID})

	go func() {
		time.Sleep(cancelWatchdog)
		r.mu.Lock()
		still, stillPresent := r.agents[agentID]
		r.mu.Unlock()
		if stillPresent && still == e {
			_ = e.proc.Kill()
		}
	}()
	return nil
}
