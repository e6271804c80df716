// Package sidecar supervises the helper processes that actually run an
// agent step: one-shot helpers spawned per invocation, and a persistent
// pool of long-lived helpers keyed by skill kind, amortising their
// start-up cost across requests (§4.4).
package sidecar

import "encoding/json"

// Config is the configuration blob handed to a helper. It is serialised
// once and passed as a single argv value (one-shot mode) or as the
// "config" field of a request envelope (pool mode) — never over stdin at
// spawn time, so there is no race between the parent's write and the
// child's startup.
type Config struct {
	Prompt                     string   `json:"prompt"`
	Model                      string   `json:"model"`
	APIKey                     string   `json:"apiKey"`
	Cwd                        string   `json:"cwd"`
	AllowedTools               []string `json:"allowedTools,omitempty"`
	MaxTurns                   int      `json:"maxTurns,omitempty"`
	PermissionMode             string   `json:"permissionMode,omitempty"`
	SessionID                  string   `json:"sessionId,omitempty"`
	Betas                      []string `json:"betas,omitempty"`
	MaxThinkingTokens          int      `json:"maxThinkingTokens,omitempty"`
	AgentName                  string   `json:"agentName,omitempty"`
	PathToClaudeCodeExecutable string   `json:"pathToClaudeCodeExecutable,omitempty"`
}

// redacted returns a copy of the config suitable for logging: the API key
// replaced, and (for the pool's config event) the prompt dropped since it
// can be large and isn't needed for observability.
func (c Config) redacted(dropPrompt bool) map[string]interface{} {
	m := map[string]interface{}{
		"prompt":         c.Prompt,
		"model":          c.Model,
		"apiKey":         "[REDACTED]",
		"cwd":            c.Cwd,
		"allowedTools":   c.AllowedTools,
		"maxTurns":       c.MaxTurns,
		"permissionMode": c.PermissionMode,
		"sessionId":      c.SessionID,
	}
	if dropPrompt {
		delete(m, "prompt")
	}
	return m
}

// requestEnvelope is the message written to a persistent helper's stdin.
// request_id is always set to the agent_id so reader routing and one-shot
// routing share the same addressing scheme.
type requestEnvelope struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id"`
	Config    Config `json:"config"`
}

// readyMessage is the single line a freshly spawned persistent helper must
// emit on stdout before it is considered usable.
type readyMessage struct {
	Type string `json:"type"`
}

func isSidecarReady(line string) error {
	var msg readyMessage
	if err := json.Unmarshal([]byte(line), &msg); err != nil {
		return err
	}
	if msg.Type != "sidecar_ready" {
		return errUnexpectedReady(msg.Type)
	}
	return nil
}

type errUnexpectedReady string

func (e errUnexpectedReady) Error() string {
	return "expected sidecar_ready, got type " + string(e)
}

// routedMessage is the minimal shape read off a persistent helper's stdout
// line to route it by request_id and detect terminal messages.
type routedMessage struct {
	Type      string `json:"type"`
	RequestID string `json:"request_id"`
}
