package artifacts

import (
	"os"
	"path/filepath"

	"github.com/skillsmith/skillsmith/internal/models"
)

// WipeContext removes the entire context/ directory ahead of a fresh step-0
// start (no resume, no rerun), so a previous run's research files never
// leak into a new one (§4.5 "Run", step 1 of the 8-step protocol).
func WipeContext(workspaceRoot, skillName string) error {
	return os.RemoveAll(contextDir(skillWorkspaceDir(workspaceRoot, skillName)))
}

// ResetOutputs deletes every file declared as output of fromStep..=LastStep,
// matching delete_step_output_files/clean_step_output: step 5's files live
// under the skills root (or the workspace as a fallback) alongside its
// references/ directory and any built .skill archive; every other step's
// files live under the workspace. Step 4's chat session file is cleared
// whenever it falls inside the reset range, since reasoning must restart
// from an empty transcript (§4.5 "Reset-from(N)"). Best-effort: a missing
// file is not an error, matching the original's silent remove_file checks.
func ResetOutputs(workspaceRoot, skillsRoot, skillName string, fromStep int) {
	if skillsRoot == "" {
		skillsRoot = workspaceRoot
	}
	workspaceDir := skillWorkspaceDir(workspaceRoot, skillName)
	skillsDir := skillSkillsDir(skillsRoot, skillName)

	for step := fromStep; step <= models.LastStep; step++ {
		if step == 5 {
			resetStep5Output(skillsDir, skillName)
			continue
		}
		for _, rel := range stepOutputFiles(step) {
			_ = os.Remove(filepath.Join(workspaceDir, rel))
		}
	}

	if fromStep <= 4 {
		_ = os.Remove(filepath.Join(workspaceDir, "logs", "reasoning-chat.json"))
	}
}

func resetStep5Output(skillsDir, skillName string) {
	if skillsDir == "" {
		return
	}
	for _, rel := range stepOutputFiles(5) {
		_ = os.Remove(filepath.Join(skillsDir, rel))
	}
	_ = os.RemoveAll(referencesDir(skillsDir))
	_ = os.Remove(filepath.Join(skillsDir, skillName+".skill"))
}
