package workflow

import (
	"fmt"

	"github.com/skillsmith/skillsmith/internal/artifacts"
)

// rerunMarker is prepended to a rerun's prompt so the agent summarizes its
// existing output before regenerating it, instead of treating the step as
// untouched (§4.5 "Rerun").
const rerunMarker = "[RERUN MODE]\n\n"

// BuildPrompt narrates every directory an agent step needs to know about —
// mirroring build_prompt — then instructs it to write its output to the
// step's declared file. rerun prepends rerunMarker; resume does not, since a
// resumed step is not being regenerated from scratch.
func BuildPrompt(step int, skillName, domain, workspaceRoot, skillsRoot string, rerun bool) string {
	outputPath := artifacts.StepOutputPath(step, workspaceRoot, skillsRoot, skillName)

	prompt := fmt.Sprintf(
		"The domain is: %s. The skill name is: %s. "+
			"The shared context file is: %s. "+
			"The skill directory is: %s. "+
			"The context directory (for reading and writing intermediate files) is: %s. "+
			"The skill output directory (SKILL.md and references/) is: %s. "+
			"The skill output context directory (persisted clarifications and decisions) is: %s. "+
			"Write output to %s.",
		domain,
		skillName,
		artifacts.SharedContextFile(workspaceRoot),
		artifacts.WorkspaceSkillDir(workspaceRoot, skillName),
		artifacts.WorkspaceContextDir(workspaceRoot, skillName),
		artifacts.SkillOutputDir(workspaceRoot, skillsRoot, skillName),
		artifacts.SkillOutputContextDir(workspaceRoot, skillsRoot, skillName),
		outputPath,
	)

	if rerun {
		prompt = rerunMarker + prompt
	}
	return prompt
}
