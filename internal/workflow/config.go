// Package workflow drives the fixed eight-stage pipeline a skill moves
// through: building each step's prompt and helper configuration, handing it
// to a sidecar dispatcher, capturing its output back into the catalogue, and
// supporting rerun/resume/reset-from transitions (§4.5).
package workflow

import (
	"strconv"
	"strings"

	"github.com/skillsmith/skillsmith/internal/models"
)

// fullTools is the allowed-tools list every agent step grants; there is no
// per-step narrowing in the original implementation.
var fullTools = []string{"Read", "Write", "Edit", "Glob", "Grep", "Bash", "Task", "Skill"}

// StepConfig is the fixed, step-indexed configuration an agent invocation
// reads from, independent of any particular skill or run.
type StepConfig struct {
	StepIndex      int
	Name           string
	PromptTemplate string // e.g. "reasoning.md", resolved against an agents/<skill_type>/ or agents/shared/ directory
	AllowedTools   []string
	MaxTurns       int
}

// stepConfigs is indexed by step; human-review steps (1, 3) and the
// client-only refinement step (8, never scheduled) have no entry.
var stepConfigs = map[int]StepConfig{
	0: {StepIndex: 0, Name: "Research Concepts", PromptTemplate: "research-concepts.md", AllowedTools: fullTools, MaxTurns: 50},
	2: {StepIndex: 2, Name: "Perform Research", PromptTemplate: "research-patterns-and-merge.md", AllowedTools: fullTools, MaxTurns: 50},
	4: {StepIndex: 4, Name: "Reasoning", PromptTemplate: "reasoning.md", AllowedTools: fullTools, MaxTurns: 100},
	5: {StepIndex: 5, Name: "Build Skill", PromptTemplate: "build.md", AllowedTools: fullTools, MaxTurns: 120},
	6: {StepIndex: 6, Name: "Validate", PromptTemplate: "validate.md", AllowedTools: fullTools, MaxTurns: 80},
	7: {StepIndex: 7, Name: "Test", PromptTemplate: "test.md", AllowedTools: fullTools, MaxTurns: 80},
}

// GetStepConfig returns step's fixed configuration, or a *models.PreconditionError
// naming steps 1 and 3 as human-review and step 8 as client-only when step
// isn't an agent step.
func GetStepConfig(step int) (StepConfig, error) {
	cfg, ok := stepConfigs[step]
	if !ok {
		return StepConfig{}, &models.PreconditionError{
			Subject: "step_index",
			Reason:  "unknown step index; steps 1 and 3 are human review, step 8 is client-side refinement only",
		}
	}
	return cfg, nil
}

// modelIDs maps the accepted shorthands to full model identifiers; anything
// else passes through unchanged on the assumption it's already a full ID.
var modelIDs = map[string]string{
	"sonnet": "claude-sonnet-4-5-20250929",
	"haiku":  "claude-haiku-4-5-20251001",
	"opus":   "claude-opus-4-6",
}

// ResolveModelID resolves a shorthand ("sonnet", "haiku", "opus") to a full
// model identifier, passing through anything it doesn't recognize.
func ResolveModelID(shorthand string) string {
	if id, ok := modelIDs[shorthand]; ok {
		return id
	}
	return shorthand
}

// DefaultModelForStep names the shorthand used when debug mode is off:
// reasoning (step 4) gets the highest-quality model, everything else the
// fast one.
func DefaultModelForStep(step int) string {
	if step == 4 {
		return "opus"
	}
	return "sonnet"
}

// thinkingBudgets is only consulted when extended thinking is enabled.
var thinkingBudgets = map[int]int{
	0: 8000,
	2: 8000,
	4: 32000,
	5: 16000,
	6: 8000,
	7: 8000,
}

// ThinkingBudgetForStep returns step's thinking-token budget, and whether
// one is defined at all (every agent step has one; human-review steps
// don't, since they never run).
func ThinkingBudgetForStep(step int) (int, bool) {
	budget, ok := thinkingBudgets[step]
	return budget, ok
}

// BuildBetas assembles the beta header list a request needs: the 1M-token
// context beta when extended context is on, and interleaved thinking
// whenever a thinking budget is set on a non-opus model (opus supports
// thinking natively, without the beta).
func BuildBetas(extendedContext bool, thinkingBudget int, hasThinkingBudget bool, model string) []string {
	var betas []string
	if extendedContext {
		betas = append(betas, "context-1m-2025-08-07")
	}
	if hasThinkingBudget && thinkingBudget > 0 && !containsOpus(model) {
		betas = append(betas, "interleaved-thinking-2025-05-14")
	}
	return betas
}

func containsOpus(model string) bool {
	return strings.Contains(model, "opus")
}

// DeriveAgentName builds the agent identity passed to the helper, combining
// the skill's type with the step's phase so the agent runner can select the
// matching persona (agents/<skill_type>/<phase>.md, falling back to
// agents/shared/<phase>.md).
func DeriveAgentName(skillType models.SkillType, promptTemplate string) string {
	phase := strings.TrimSuffix(promptTemplate, ".md")
	return string(skillType) + "-" + phase
}

// MakeAgentID allocates the agent identifier a run is addressed by on the
// sidecar's wire protocol: "<skill>-step<N>-<unix_ms>".
func MakeAgentID(skillName string, step int, unixMillis int64) string {
	return skillName + "-step" + strconv.Itoa(step) + "-" + strconv.FormatInt(unixMillis, 10)
}

// ParseAgentID recovers (skillName, step) from an agent_id built by
// MakeAgentID. Skill names may themselves contain hyphens, so it anchors on
// the last "-step" marker rather than splitting on every hyphen.
func ParseAgentID(agentID string) (skillName string, step int, ok bool) {
	idx := strings.LastIndex(agentID, "-step")
	if idx < 0 {
		return "", 0, false
	}
	rest := agentID[idx+len("-step"):]
	sep := strings.IndexByte(rest, '-')
	if sep < 0 {
		return "", 0, false
	}
	n, err := strconv.Atoi(rest[:sep])
	if err != nil {
		return "", 0, false
	}
	return agentID[:idx], n, true
}
