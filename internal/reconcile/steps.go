package reconcile

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/skillsmith/skillsmith/internal/models"
)

// requiredOutputFile returns the single file whose presence proves step has
// run, relative to either the working directory (workspace root) or, for
// the build step, the skills-root output directory. Detection only needs
// one file per step even where the table names a glob of extras (§4.5's
// research-*.md siblings of research-concepts.md) since output discovery
// for capture reads the declared list in full but furthest-step detection
// only needs proof that the step ran at all.
func requiredOutputFile(step int) string {
	switch step {
	case 0:
		return "context/research-concepts.md"
	case 2:
		return "context/clarifications.md"
	case 4:
		return "context/decisions.md"
	case 5:
		return "SKILL.md"
	case 6:
		return "context/agent-validation-log.md"
	case 7:
		return "context/test-skill.md"
	default:
		return ""
	}
}

// detectFurthestStep scans step output files in order and returns the
// greatest step N such that all of step N's declared output exists, or -1
// if no step's output was found. Non-detectable steps (human-review, step 2,
// plus step 7 per the deliberate asymmetry in §9) are skipped over rather than
// breaking the scan, matching original_source's treatment of its own
// non-detectable step. The scan stops at the first missing detectable
// step, since later steps cannot be valid without earlier ones.
func detectFurthestStep(workingDir, skillsOutputDir string) int {
	furthest := -1
	for step := models.FirstStep; step <= models.LastStep; step++ {
		if models.NonDetectableSteps[step] {
			continue
		}
		file := requiredOutputFile(step)
		if file == "" {
			continue
		}
		dir := workingDir
		if step == 5 {
			dir = skillsOutputDir
		}
		if fileExists(filepath.Join(dir, file)) {
			furthest = step
			continue
		}
		break
	}
	return furthest
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// dirHasEntries reports whether path exists and is a non-empty directory.
func dirHasEntries(path string) bool {
	entries, err := os.ReadDir(path)
	return err == nil && len(entries) > 0
}

// hasSkillsArtifact reports whether a skill has any output deposited under
// the skills root: a built SKILL.md, or context files written directly
// there (mirroring original_source's has_skill_output).
func hasSkillsArtifact(skillsOutputDir string) bool {
	if fileExists(filepath.Join(skillsOutputDir, "SKILL.md")) {
		return true
	}
	if dirHasEntries(filepath.Join(skillsOutputDir, "references")) {
		return true
	}
	if dirHasEntries(filepath.Join(skillsOutputDir, "context")) {
		return true
	}
	return false
}

// nonDetectableStepsBetween counts non-detectable steps strictly between
// lower and upper (exclusive both ends), used by the gap-tolerance formula
// in §4.3 case 2.
func nonDetectableStepsBetween(lower, upper int) int {
	if lower > upper {
		lower, upper = upper, lower
	}
	count := 0
	for step := lower + 1; step < upper; step++ {
		if models.NonDetectableSteps[step] {
			count++
		}
	}
	return count
}

// validSkillDirName validates a directory entry name the same way the catalogue
// does, so a stray non-skill directory under either root is never treated
// as a skill.
func validSkillDirName(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	return models.ValidateSkillName(name) == nil
}
