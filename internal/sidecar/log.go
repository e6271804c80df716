package sidecar

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// logHandle is a per-run JSON-lines log under .agent-logs/, so a run can
// be tailed live and replayed after the fact. A nil *logHandle is valid
// and makes every method a no-op — logging is best-effort and must never
// fail or block a run.
type logHandle struct {
	f *os.File
}

// openAgentLog creates (or truncates) cwd/.agent-logs/<agentID>.jsonl and
// writes a redacted config line first. Returns an error if the log
// directory or file can't be created; Spawn then proceeds without a log.
func openAgentLog(cwd, agentID string, cfg Config) (*logHandle, error) {
	dir := filepath.Join(cwd, ".agent-logs")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating agent log dir %s: %w", dir, err)
	}

	path := filepath.Join(dir, agentID+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("creating agent log %s: %w", path, err)
	}

	h := &logHandle{f: f}
	h.writeLine(map[string]interface{}{
		"type":   "config",
		"config": cfg.redacted(false),
	})
	return h, nil
}

// writeLine marshals v as one JSON line and appends it.
func (h *logHandle) writeLine(v interface{}) {
	if h == nil || h.f == nil {
		return
	}
	line, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintln(h.f, string(line))
}

// writeRaw appends line verbatim — used for helper stdout, which is
// already a JSON-lines stream and shouldn't be re-wrapped.
func (h *logHandle) writeRaw(line string) {
	if h == nil || h.f == nil {
		return
	}
	fmt.Fprintln(h.f, line)
}

func closeLog(h *logHandle) {
	if h == nil || h.f == nil {
		return
	}
	_ = h.f.Close()
}
