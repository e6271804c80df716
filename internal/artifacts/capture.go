package artifacts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/skillsmith/skillsmith/internal/models"
	"github.com/skillsmith/skillsmith/internal/store"
)

// Capture reads step's declared output paths off disk and upserts any that
// are new or changed into the catalogue, returning the captured records
// (§4.2 "disk → A"). Step 5 additionally walks references/ under the skills
// root in full.
func Capture(db *sql.DB, skillName string, step int, workspaceRoot, skillsRoot string) ([]models.Artifact, error) {
	if skillsRoot == "" {
		skillsRoot = workspaceRoot
	}
	workspaceDir := skillWorkspaceDir(workspaceRoot, skillName)
	skillsDir := skillSkillsDir(skillsRoot, skillName)
	dir := stepDir(step, workspaceDir, skillsDir)

	var captured []models.Artifact
	for _, relPath := range stepOutputFiles(step) {
		a, ok, err := captureFile(db, skillName, step, dir, relPath)
		if err != nil {
			return captured, err
		}
		if ok {
			captured = append(captured, a)
		}
	}

	if step == 0 {
		siblings, err := captureGlob(db, skillName, step, dir, stepOutputGlob)
		if err != nil {
			return captured, err
		}
		captured = append(captured, siblings...)
	}

	if step == 5 {
		refs, err := captureReferences(db, skillName, skillsDir)
		if err != nil {
			return captured, err
		}
		captured = append(captured, refs...)
	}

	if err := mirrorContextOutputs(workspaceDir, skillsDir, captured); err != nil {
		return captured, err
	}

	return captured, nil
}

// captureFile reads dir/relPath if present and upserts it when absent or
// size-changed from the catalogue's existing copy, matching original_
// source's reconcile_single_file size guard.
func captureFile(db *sql.DB, skillName string, step int, dir, relPath string) (models.Artifact, bool, error) {
	path := filepath.Join(dir, relPath)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.Artifact{}, false, nil
		}
		return models.Artifact{}, false, fmt.Errorf("stat %s: %w", path, err)
	}

	existing, err := store.GetArtifact(db, skillName, relPath)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return models.Artifact{}, false, fmt.Errorf("get existing artifact %s: %w", relPath, err)
	}
	if err == nil && existing.Size == info.Size() {
		return models.Artifact{}, false, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return models.Artifact{}, false, fmt.Errorf("read %s: %w", path, err)
	}

	a := models.Artifact{
		SkillName:    skillName,
		StepIndex:    step,
		RelativePath: relPath,
		Content:      string(content),
		Size:         int64(len(content)),
	}
	if err := store.SaveArtifact(db, a); err != nil {
		return models.Artifact{}, false, fmt.Errorf("save artifact %s: %w", relPath, err)
	}
	return a, true, nil
}

// captureGlob captures every file under dir matching pattern (relative to
// dir), used for step 0's undeclared research-*.md siblings.
func captureGlob(db *sql.DB, skillName string, step int, dir, pattern string) ([]models.Artifact, error) {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", pattern, err)
	}

	var out []models.Artifact
	for _, abs := range matches {
		rel, err := filepath.Rel(dir, abs)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		a, ok, err := captureFile(db, skillName, step, dir, rel)
		if err != nil {
			return out, err
		}
		if ok {
			out = append(out, a)
		}
	}
	return out, nil
}

// captureReferences walks references/ under the skill's output directory in
// full, capturing every markdown file found (§4.2, §4.5 step 5).
func captureReferences(db *sql.DB, skillName, skillsDir string) ([]models.Artifact, error) {
	root := referencesDir(skillsDir)
	var out []models.Artifact
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		rel, relErr := filepath.Rel(skillsDir, path)
		if relErr != nil {
			return relErr
		}
		a, ok, captureErr := captureFile(db, skillName, 5, skillsDir, filepath.ToSlash(rel))
		if captureErr != nil {
			return captureErr
		}
		if ok {
			out = append(out, a)
		}
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return out, fmt.Errorf("walk references: %w", err)
	}
	return out, nil
}

// mirrorContextOutputs copies any just-captured context output that belongs
// to the fixed context-output set into the skills root's context directory,
// guarded by the same size check staging uses (§4.2: "after capture, for
// steps {0, 2, 4}, copies the corresponding context output ... the skills
// root is the advertised surface").
func mirrorContextOutputs(workspaceDir, skillsDir string, captured []models.Artifact) error {
	if skillsDir == "" || skillsDir == workspaceDir {
		return nil
	}
	for _, a := range captured {
		if !contextOutputFiles[a.RelativePath] {
			continue
		}
		dest := filepath.Join(contextDir(skillsDir), filepath.Base(a.RelativePath))
		if err := writeIfChanged(dest, a.Content); err != nil {
			return fmt.Errorf("mirror %s: %w", a.RelativePath, err)
		}
	}
	return nil
}

// ScanDisk captures any step output written to the workspace that hasn't
// been captured yet, across every agent step. This recovers work done
// between capture intervals when the process was killed (§4.2
// "Reconciliation scan").
func ScanDisk(db *sql.DB, skillName, workspaceRoot, skillsRoot string) ([]models.Artifact, error) {
	var all []models.Artifact
	for _, step := range agentSteps {
		captured, err := Capture(db, skillName, step, workspaceRoot, skillsRoot)
		if err != nil {
			return all, fmt.Errorf("scan step %d: %w", step, err)
		}
		all = append(all, captured...)
	}
	return all, nil
}

// captureRetryDelays is the deterministic 100/200/300ms schedule from §4.2.
// Only the first two entries are ever consumed: three total attempts means
// two gaps between them, matching the retry helper this is grounded on.
var captureRetryDelays = []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 300 * time.Millisecond}

const captureMaxAttempts = 3

// fixedDelay is a backoff.BackOff that walks a fixed delay schedule instead
// of growing one, since capture retries exist to ride out short-lived
// catalogue contention, not to back off from a degrading resource.
type fixedDelay struct {
	delays []time.Duration
	next   int
}

func (f *fixedDelay) NextBackOff() time.Duration {
	if f.next >= len(f.delays) {
		return backoff.Stop
	}
	d := f.delays[f.next]
	f.next++
	return d
}

func (f *fixedDelay) Reset() { f.next = 0 }

// CaptureWithRetry wraps Capture with the best-effort retry policy used on
// the terminal-event capture path: three attempts, waiting 100ms and then
// 200ms between them, notifying onRetry (if non-nil) before each wait (§4.2).
func CaptureWithRetry(ctx context.Context, db *sql.DB, skillName string, step int, workspaceRoot, skillsRoot string, onRetry func(attempt int, err error)) ([]models.Artifact, error) {
	b := backoff.WithContext(backoff.WithMaxRetries(&fixedDelay{delays: captureRetryDelays}, captureMaxAttempts-1), ctx)

	var captured []models.Artifact
	attempt := 0
	err := backoff.RetryNotify(func() error {
		attempt++
		var err error
		captured, err = Capture(db, skillName, step, workspaceRoot, skillsRoot)
		return err
	}, b, func(err error, _ time.Duration) {
		if onRetry != nil {
			onRetry(attempt, err)
		}
	})
	return captured, err
}
