// Package reconcile aligns the catalogue with disk state without losing work
// (§4.3). A pass runs only when a caller invokes Run; in this CLI the doctor
// command is that caller, and no command runs a pass automatically at start.
package reconcile

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/skillsmith/skillsmith/internal/models"
	"github.com/skillsmith/skillsmith/internal/store"
)

// Orphan is a skill with a finished artifact on disk but no working
// directory in the workspace (§4.3 case 3, GLOSSARY).
type Orphan struct {
	SkillName string `json:"skill_name"`
	Reason    string `json:"reason"`
}

// Report summarises one reconciliation pass.
type Report struct {
	Orphans          []Orphan `json:"orphans"`
	Notifications    []string `json:"notifications"`
	AutoCleaned      int      `json:"auto_cleaned"`
	ReclaimedLocks   int      `json:"reclaimed_locks"`
	OrphanedSessions int      `json:"orphaned_sessions"`
}

// Reconciler is constructed fresh per run; it carries no state between
// invocations (§9: "capture/stage as pure functions of (catalogue, roots)").
type Reconciler struct {
	db            *sql.DB
	workspaceRoot string
	skillsRoot    string
}

// New returns a Reconciler bound to db and the two on-disk roots.
func New(db *sql.DB, workspaceRoot, skillsRoot string) *Reconciler {
	return &Reconciler{db: db, workspaceRoot: workspaceRoot, skillsRoot: skillsRoot}
}

// Run performs the full reconciliation pass: reap dead sessions and locks,
// then classify every skill named by disk or catalogue and act per §4.3's
// table. Skills currently held by a live session are skipped entirely —
// another instance owns them.
func (r *Reconciler) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	reclaimed, err := store.ReclaimDeadLocks(r.db)
	if err != nil {
		return nil, fmt.Errorf("reconcile: reclaim dead locks: %w", err)
	}
	report.ReclaimedLocks = reclaimed

	orphanedSessions, err := store.ReconcileOrphanedSessions(r.db)
	if err != nil {
		return nil, fmt.Errorf("reconcile: reconcile orphaned sessions: %w", err)
	}
	report.OrphanedSessions = orphanedSessions

	liveSkills, err := liveSessionSkills(r.db)
	if err != nil {
		return nil, fmt.Errorf("reconcile: list live sessions: %w", err)
	}

	skills, err := store.ListSkills(r.db)
	if err != nil {
		return nil, fmt.Errorf("reconcile: list skills: %w", err)
	}
	catalogNames := make(map[string]bool, len(skills))
	for _, s := range skills {
		catalogNames[s.Name] = true
	}

	diskNames, err := r.diskSkillNames()
	if err != nil {
		return nil, fmt.Errorf("reconcile: scan disk: %w", err)
	}

	all := make(map[string]bool, len(catalogNames)+len(diskNames))
	for name := range catalogNames {
		all[name] = true
	}
	for name := range diskNames {
		all[name] = true
	}

	for name := range all {
		if liveSkills[name] {
			continue
		}
		if err := r.classify(report, name, catalogNames[name]); err != nil {
			return nil, fmt.Errorf("reconcile %q: %w", name, err)
		}
	}

	return report, nil
}

func (r *Reconciler) classify(report *Report, name string, hasCatalogRow bool) error {
	workingDir := filepath.Join(r.workspaceRoot, name)
	skillsOutputDir := filepath.Join(r.skillsRoot, name)

	hasWorkingDir := dirExists(workingDir)
	hasArtifact := hasSkillsArtifact(skillsOutputDir)

	switch {
	case !hasCatalogRow && (hasWorkingDir || hasArtifact):
		return r.handleDiskOnly(report, name, workingDir, skillsOutputDir)
	case hasCatalogRow && hasWorkingDir:
		return r.handleConsistencyCheck(report, name, workingDir, skillsOutputDir)
	case hasCatalogRow && !hasWorkingDir && hasArtifact:
		report.Orphans = append(report.Orphans, Orphan{
			SkillName: name,
			Reason:    "finished artifact on disk but no working directory",
		})
		return nil
	case hasCatalogRow && !hasWorkingDir && !hasArtifact:
		return r.handleAutoClean(report, name)
	}
	return nil
}

// diskNextStep converts a furthest-completed-step reading (as returned by
// detectFurthestStep: -1 means nothing detected) into the next-step-to-run
// convention current_step uses everywhere else in the catalogue.
func diskNextStep(furthest int) (step int, status models.RunStatus) {
	switch {
	case furthest < 0:
		return models.FirstStep, models.RunStatusPending
	case furthest == models.LastStep:
		return furthest, models.RunStatusCompleted
	default:
		return furthest + 1, models.RunStatusInProgress
	}
}

// handleDiskOnly is §4.3 case 1: insert a conservative row and mark steps
// whose files exist as completed.
func (r *Reconciler) handleDiskOnly(report *Report, name, workingDir, skillsOutputDir string) error {
	furthest := detectFurthestStep(workingDir, skillsOutputDir)

	skill := models.Skill{Name: name, SourceOrigin: models.SourceOriginCreated, SkillType: models.SkillTypeDomain}
	if err := store.CreateSkill(r.db, skill); err != nil {
		return fmt.Errorf("insert conservative row: %w", err)
	}

	if furthest < 0 {
		report.Notifications = append(report.Notifications,
			fmt.Sprintf("skill %q found on disk with no detectable progress; catalogue row inserted at step 0", name))
		return nil
	}

	nextStep, status := diskNextStep(furthest)
	err := store.Transact(r.db, func(tx *sql.Tx) error {
		if err := store.MarkWorkflowStepsCompletedBelow(tx, name, furthest+1); err != nil {
			return err
		}
		return store.AdvanceWorkflowRun(tx, name, nextStep, status)
	})
	if err != nil {
		return fmt.Errorf("mark disk-only progress: %w", err)
	}
	report.Notifications = append(report.Notifications,
		fmt.Sprintf("skill %q found on disk at step %d with no catalogue row; row inserted", name, furthest))
	return nil
}

// handleConsistencyCheck is §4.3 cases 2 and 5: compare the disk-derived
// step against the catalogue's current_step and reconcile any drift.
func (r *Reconciler) handleConsistencyCheck(report *Report, name, workingDir, skillsOutputDir string) error {
	run, err := store.GetWorkflowRun(r.db, name)
	if err != nil {
		return fmt.Errorf("get workflow run: %w", err)
	}

	furthest := detectFurthestStep(workingDir, skillsOutputDir)
	diskStep, diskStatus := diskNextStep(furthest)
	catalogStep := run.CurrentStep

	switch {
	case diskStep == catalogStep:
		return nil // case 5: consistent, no action
	case diskStep > catalogStep:
		if err := store.Transact(r.db, func(tx *sql.Tx) error {
			return store.AdvanceWorkflowRun(tx, name, diskStep, diskStatus)
		}); err != nil {
			return fmt.Errorf("advance to disk step: %w", err)
		}
		report.Notifications = append(report.Notifications,
			fmt.Sprintf("skill %q: disk is ahead of catalogue (disk=%d, catalogue=%d); advanced", name, diskStep, catalogStep))
		return nil
	default: // diskStep < catalogStep
		gap := catalogStep - diskStep
		tolerance := nonDetectableStepsBetween(diskStep, catalogStep) + 1
		if gap <= tolerance {
			return nil // within tolerance of non-detectable steps; keep catalogue's value
		}
		resetTo := diskStep
		if resetTo < models.FirstStep {
			resetTo = models.FirstStep
		}
		if err := store.Transact(r.db, func(tx *sql.Tx) error {
			if err := store.ResetWorkflowSteps(tx, name, resetTo); err != nil {
				return err
			}
			return store.ResetWorkflowRun(tx, name, resetTo)
		}); err != nil {
			return fmt.Errorf("reset to disk step: %w", err)
		}
		report.Notifications = append(report.Notifications,
			fmt.Sprintf("skill %q: disk is behind catalogue beyond tolerance (disk=%d, catalogue=%d); reset to %d", name, diskStep, catalogStep, resetTo))
		return nil
	}
}

// handleAutoClean is §4.3 case 4: delete the catalogue row, cascading to
// every dependent table.
func (r *Reconciler) handleAutoClean(report *Report, name string) error {
	if err := store.DeleteSkill(r.db, name); err != nil {
		return fmt.Errorf("auto-clean: %w", err)
	}
	report.AutoCleaned++
	report.Notifications = append(report.Notifications,
		fmt.Sprintf("skill %q had no trace on disk; catalogue rows auto-cleaned", name))
	return nil
}

// diskSkillNames returns the union of directory names found under the
// workspace root and the skills root.
func (r *Reconciler) diskSkillNames() (map[string]bool, error) {
	names := map[string]bool{}
	for _, root := range []string{r.workspaceRoot, r.skillsRoot} {
		entries, err := os.ReadDir(root)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() && validSkillDirName(e.Name()) {
				names[e.Name()] = true
			}
		}
	}
	return names, nil
}

// liveSessionSkills returns the set of skill names currently held by a
// session whose PID is still alive, which the classifier must skip because
// another instance owns them.
func liveSessionSkills(db *sql.DB) (map[string]bool, error) {
	sessions, err := store.ListSessions(db)
	if err != nil {
		return nil, err
	}
	live := make(map[string]bool, len(sessions))
	for _, s := range sessions {
		live[s.SkillName] = true
	}
	return live, nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
