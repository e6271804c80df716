package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// SkillSourceOrigin records how a skill entered the catalogue.
type SkillSourceOrigin string

const (
	SourceOriginCreated     SkillSourceOrigin = "created"
	SourceOriginImported    SkillSourceOrigin = "imported"
	SourceOriginMarketplace SkillSourceOrigin = "marketplace"
	SourceOriginTeam        SkillSourceOrigin = "team"
)

// SkillType is drawn from a fixed vocabulary; unknown values are rejected at
// the catalogue boundary with a PreconditionError.
type SkillType string

const (
	SkillTypePlatform        SkillType = "platform"
	SkillTypeDomain          SkillType = "domain"
	SkillTypeSource          SkillType = "source"
	SkillTypeDataEngineering SkillType = "data-engineering"
)

// ValidSkillTypes lists every accepted skill-type tag.
var ValidSkillTypes = []SkillType{
	SkillTypePlatform, SkillTypeDomain, SkillTypeSource, SkillTypeDataEngineering,
}

func (t SkillType) Valid() bool {
	for _, v := range ValidSkillTypes {
		if v == t {
			return true
		}
	}
	return false
}

// skillNamePattern rejects path traversal, separators, and empty names.
var skillNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateSkillName enforces the identity invariant from the data model: a
// unique short name that can never escape its directory.
func ValidateSkillName(name string) error {
	if name == "" {
		return fmt.Errorf("skill name must not be empty")
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("skill name %q must not contain path separators or '..'", name)
	}
	if !skillNamePattern.MatchString(name) {
		return fmt.Errorf("skill name %q contains invalid characters", name)
	}
	return nil
}

// Skill is the stable identity shared by every other entity in the core.
type Skill struct {
	Name               string            `json:"name"`
	Domain             string            `json:"domain"`
	SkillType          SkillType         `json:"skill_type"`
	SourceOrigin       SkillSourceOrigin `json:"source_origin"`
	AuthorLogin        string            `json:"author_login,omitempty"`
	AuthorDisplayName  string            `json:"author_display_name,omitempty"`
	Description        string            `json:"description,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// RunStatus is the status field of a WorkflowRun.
type RunStatus string

const (
	RunStatusPending    RunStatus = "pending"
	RunStatusInProgress RunStatus = "in_progress"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusError      RunStatus = "error"
)

// WorkflowRun is the one-row-per-skill summary of pipeline progress.
type WorkflowRun struct {
	SkillName   string    `json:"skill_name"`
	CurrentStep int       `json:"current_step"`
	Status      RunStatus `json:"status"`
	Domain      string    `json:"domain"`
	SkillType   SkillType `json:"skill_type"`
	AuthorLogin string    `json:"author_login,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// StepStatus is the status field of a WorkflowStep.
type StepStatus string

const (
	StepStatusPending    StepStatus = "pending"
	StepStatusInProgress StepStatus = "in_progress"
	StepStatusCompleted  StepStatus = "completed"
)

// FirstStep and LastStep bound the fixed 8-stage machine (indices 0..=7).
// Step 8 is a UI-only refinement phase and is never scheduled.
const (
	FirstStep = 0
	LastStep  = 7
)

// HumanReviewSteps produce no files and auto-advance.
var HumanReviewSteps = map[int]bool{1: true, 3: true}

// NonDetectableSteps cannot be inferred from disk state alone during
// reconciliation: the two human-review steps, step 2 (it edits
// clarifications.md in place and leaves no file of its own), plus step 7
// because it is optional. This is the deliberate asymmetry called out in the open
// questions — step 7 IS scheduled by the engine but is NOT detectable.
var NonDetectableSteps = map[int]bool{1: true, 2: true, 3: true, 7: true}

// IsAgentStep reports whether step produces files via a helper invocation.
func IsAgentStep(step int) bool {
	return step >= FirstStep && step <= LastStep && !HumanReviewSteps[step]
}

// WorkflowStep is one row per (skill, step index).
type WorkflowStep struct {
	SkillName   string     `json:"skill_name"`
	StepIndex   int        `json:"step_index"`
	Status      StepStatus `json:"status"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Artifact is a (skill, step, relative_path) keyed file record.
type Artifact struct {
	SkillName    string    `json:"skill_name"`
	StepIndex    int       `json:"step_index"`
	RelativePath string    `json:"relative_path"`
	Content      string    `json:"content"`
	Size         int64     `json:"size"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Session is a PID-tagged row proving a live instance owns a skill's
// in-progress workflow.
type Session struct {
	ID        string    `json:"id"`
	SkillName string    `json:"skill_name"`
	PID       int       `json:"pid"`
	CreatedAt time.Time `json:"created_at"`
}

// Lock is the exclusive per-skill lease. Holder identity distinguishes a
// lock-conflict error from a generic one.
type Lock struct {
	SkillName  string    `json:"skill_name"`
	InstanceID string    `json:"instance_id"`
	PID        int       `json:"pid"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// ImportedSkillOrigin records the remote origin of a skill handed to the
// core by an external collaborator (repository import, marketplace, team
// share). The core never fetches anything itself; this is a pure record of
// what was deposited.
type ImportedSkillOrigin struct {
	SkillName  string    `json:"skill_name"`
	Owner      string    `json:"owner"`
	Repo       string    `json:"repo"`
	Ref        string    `json:"ref,omitempty"`
	ImportedAt time.Time `json:"imported_at"`
}

// SettingsDocument is the catalogue's single-row user settings document
// (§4.1, §6.3). APIToken and OAuthToken are hydrated from the OS keychain on
// read and extracted back out on write; callers never see which store they
// came from.
type SettingsDocument struct {
	SchemaVersion      int            `json:"schema_version"`
	APIToken           string         `json:"api_token,omitempty"`
	OAuthToken         string         `json:"oauth_token,omitempty"`
	DefaultModel       string         `json:"default_model,omitempty"`
	StepModelOverrides map[int]string `json:"step_model_overrides,omitempty"`
	DebugMode          bool           `json:"debug_mode,omitempty"`
	ExtendedContext    bool           `json:"extended_context,omitempty"`
	ExtendedThinking   bool           `json:"extended_thinking,omitempty"`
	SkillsPath         string         `json:"skills_path,omitempty"`
}

// AgentRunRecord is one row per sidecar invocation, supplementing the spec's
// literal data model with the run-level telemetry original_source captures
// (AgentRunRecord in the Rust implementation).
type AgentRunRecord struct {
	AgentID     string     `json:"agent_id"`
	SkillName   string     `json:"skill_name"`
	StepIndex   int        `json:"step_index"`
	Model       string     `json:"model"`
	Success     *bool      `json:"success,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
