// Package artifacts turns catalogue rows into files on disk before a helper
// runs, and turns files on disk back into catalogue rows after one finishes,
// decoupling persistence (the catalogue) from working bytes (disk) (§4.2).
package artifacts

import "path/filepath"

// stepOutputFiles returns the exact relative paths step declares as output.
// Step 5's paths are resolved against the skills root, not the workspace
// root, by the caller — this only names the files, not their base directory.
func stepOutputFiles(step int) []string {
	switch step {
	case 0:
		return []string{"context/research-concepts.md"}
	case 2:
		return []string{"context/clarifications.md"}
	case 4:
		return []string{"context/decisions.md"}
	case 5:
		return []string{"SKILL.md"}
	case 6:
		return []string{"context/agent-validation-log.md"}
	case 7:
		return []string{"context/test-skill.md"}
	default:
		return nil
	}
}

// stepOutputGlob names step 0's sibling research files — "context/research-
// concepts.md" plus any "context/research-*.md" the agent chose to write
// beyond the one fixed, always-detected file.
const stepOutputGlob = "context/research-*.md"

// agentSteps lists every step capable of producing output, in order. Human-
// review steps (1, 3) are excluded since they write nothing new.
var agentSteps = []int{0, 2, 4, 5, 6, 7}

// contextOutputFiles is the fixed set of context outputs — one from step 0's
// research family, step 2's in-place clarifications, and step 4's decisions
// — that staging and capture additionally surface under the skills root's
// context directory, since that root is the advertised surface for a
// finished skill rather than a scratch workspace.
var contextOutputFiles = map[string]bool{
	"context/research-concepts.md": true,
	"context/clarifications.md":    true,
	"context/decisions.md":         true,
}

// stepDir returns the base directory a step's output is resolved against:
// the skills root for the build step, the workspace root for everything
// else. skillsRoot falling back to workspaceRoot when unset is the caller's
// responsibility (§4.2: "when the skills root is unset, it collapses to the
// workspace root").
func stepDir(step int, workspaceDir, skillsDir string) string {
	if step == 5 {
		return skillsDir
	}
	return workspaceDir
}

func skillWorkspaceDir(workspaceRoot, skillName string) string {
	return filepath.Join(workspaceRoot, skillName)
}

func skillSkillsDir(skillsRoot, skillName string) string {
	if skillsRoot == "" {
		return ""
	}
	return filepath.Join(skillsRoot, skillName)
}

// referencesDir is where step 5 deposits supporting reference markdown,
// walked in full by capture rather than named file-by-file.
func referencesDir(skillsDir string) string {
	return filepath.Join(skillsDir, "references")
}

func contextDir(dir string) string {
	return filepath.Join(dir, "context")
}

// StepOutputPath returns the absolute path step's primary declared output
// resolves to, used to compose the "write output to" instruction handed to
// a helper (§4.5 step 4, grounded on build_prompt's output_path derivation).
// Empty for a human-review step, which declares no output.
func StepOutputPath(step int, workspaceRoot, skillsRoot, skillName string) string {
	files := stepOutputFiles(step)
	if len(files) == 0 {
		return ""
	}
	if skillsRoot == "" {
		skillsRoot = workspaceRoot
	}
	workspaceDir := skillWorkspaceDir(workspaceRoot, skillName)
	skillsDir := skillSkillsDir(skillsRoot, skillName)
	return filepath.Join(stepDir(step, workspaceDir, skillsDir), files[0])
}

// WorkspaceSkillDir, WorkspaceContextDir, SkillOutputDir, and
// SkillOutputContextDir expose the same directories build_prompt narrates
// to the agent, so the prompt builder never has to know artifacts' internal
// path layout.
func WorkspaceSkillDir(workspaceRoot, skillName string) string {
	return skillWorkspaceDir(workspaceRoot, skillName)
}

func WorkspaceContextDir(workspaceRoot, skillName string) string {
	return contextDir(skillWorkspaceDir(workspaceRoot, skillName))
}

// SkillOutputDir is where the build step's SKILL.md and references/ live:
// the skills root when configured, the workspace otherwise.
func SkillOutputDir(workspaceRoot, skillsRoot, skillName string) string {
	if skillsRoot == "" {
		return skillWorkspaceDir(workspaceRoot, skillName)
	}
	return skillSkillsDir(skillsRoot, skillName)
}

func SkillOutputContextDir(workspaceRoot, skillsRoot, skillName string) string {
	return contextDir(SkillOutputDir(workspaceRoot, skillsRoot, skillName))
}

// SharedContextFile is the one cross-skill reference every prompt points
// at, kept directly under the workspace root regardless of skill.
func SharedContextFile(workspaceRoot string) string {
	return filepath.Join(workspaceRoot, "references", "shared-context.md")
}
