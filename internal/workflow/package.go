package workflow

import (
	"archive/zip"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/skillsmith/skillsmith/internal/artifacts"
)

// PackageResult is what a successful Package call reports: where the built
// archive landed and how big it is.
type PackageResult struct {
	FilePath  string
	SizeBytes int64
}

// Package stages the catalogue's artifacts to disk, then zips SKILL.md and
// the references/ directory into <skill_name>.skill, grounded on
// package_skill/create_skill_zip. source_dir follows the same precedence
// as everywhere else: the skills root when one is configured, else the
// workspace.
func Package(db *sql.DB, workspaceRoot, skillsRoot, skillName string) (PackageResult, error) {
	if err := artifacts.Stage(db, skillName, workspaceRoot, skillsRoot); err != nil {
		return PackageResult{}, fmt.Errorf("stage artifacts: %w", err)
	}

	sourceDir := artifacts.SkillOutputDir(workspaceRoot, skillsRoot, skillName)
	if _, err := os.Stat(sourceDir); err != nil {
		return PackageResult{}, fmt.Errorf("skill directory not found: %s", sourceDir)
	}

	outputPath := filepath.Join(sourceDir, skillName+".skill")
	if err := createSkillZip(sourceDir, outputPath); err != nil {
		return PackageResult{}, err
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return PackageResult{}, fmt.Errorf("read zip metadata: %w", err)
	}
	return PackageResult{FilePath: outputPath, SizeBytes: info.Size()}, nil
}

func createSkillZip(sourceDir, outputPath string) error {
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create zip file: %w", err)
	}
	defer func() { _ = f.Close() }()

	zw := zip.NewWriter(f)

	skillMD := filepath.Join(sourceDir, "SKILL.md")
	if _, err := os.Stat(skillMD); err == nil {
		if err := addFileToZip(zw, skillMD, "SKILL.md"); err != nil {
			_ = zw.Close()
			return err
		}
	}

	referencesDir := filepath.Join(sourceDir, "references")
	if info, err := os.Stat(referencesDir); err == nil && info.IsDir() {
		if err := addDirToZip(zw, referencesDir, "references"); err != nil {
			_ = zw.Close()
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize zip: %w", err)
	}
	return nil
}

func addFileToZip(zw *zip.Writer, path, name string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = src.Close() }()

	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("add %s to zip: %w", name, err)
	}
	if _, err := io.Copy(w, src); err != nil {
		return fmt.Errorf("write %s to zip: %w", name, err)
	}
	return nil
}

func addDirToZip(zw *zip.Writer, dir, prefix string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", dir, err)
	}
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		name := prefix + "/" + entry.Name()
		if entry.IsDir() {
			if err := addDirToZip(zw, path, name); err != nil {
				return err
			}
			continue
		}
		if err := addFileToZip(zw, path, name); err != nil {
			return err
		}
	}
	return nil
}
