package app

import (
	"errors"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Settings represents process-wide configuration loaded from config.yaml.
// Field names match snake_case YAML keys. This is distinct from the
// catalogue's settings document (internal/store/settings.go), which holds
// user-editable preferences and secrets; this struct only covers what the
// binary needs before it can open the catalogue at all.
type Settings struct {
	DBPath           string `yaml:"db_path"`
	WorkspaceRoot    string `yaml:"workspace_root"`
	SkillsRoot       string `yaml:"skills_root"`
	InstanceID       string `yaml:"instance_id"`
	HelperScriptPath string `yaml:"helper_script_path"`
}

// settingsOnce, settings, settingsErr implement the sync.Once lazy-load singleton for config.
// dbPathOverrideMu and dbPathOverride implement a mutex-protected process-wide override for CLI --db-path.
// These globals are required by the sync.Once pattern and the RWMutex pattern; they cannot be avoided.
//
//nolint:gochecknoglobals // sync.Once singleton + RWMutex override are intentional process-wide state
var (
	settingsOnce sync.Once
	settings     Settings
	settingsErr  error

	dbPathOverrideMu sync.RWMutex
	dbPathOverride   string
)

// SetDBPathOverride sets a process-wide database path override.
// Intended for CLI flag support (e.g. --db-path).
func SetDBPathOverride(path string) {
	dbPathOverrideMu.Lock()
	dbPathOverride = path
	dbPathOverrideMu.Unlock()
}

func getDBPathOverride() string {
	dbPathOverrideMu.RLock()
	v := dbPathOverride
	dbPathOverrideMu.RUnlock()
	return v
}

// LoadSettings loads configuration once using the documented lookup order.
// Lookup order (first found wins):
// 1) ~/.config/skillsmith/config.yaml
// 2) /etc/skillsmith/config.yaml
// 3) ./config.yaml (lowest priority; allows repo-local overrides if desired)
// Environment variables are handled separately.
func LoadSettings() (Settings, error) {
	settingsOnce.Do(func() {
		settings = Settings{}

		// 1) User config (~/.config/skillsmith/config.yaml)
		dir, err := ConfigDir()
		if err != nil {
			settingsErr = err
			return
		}
		if s, err := loadSettingsFile(filepath.Join(dir, "config.yaml")); err == nil {
			settings = s
			applyDefaults(&settings, dir)
			return
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			settingsErr = err
			return
		}

		// 2) /etc
		if s, err := loadSettingsFile(filepath.Join(string(os.PathSeparator), "etc", "skillsmith", "config.yaml")); err == nil {
			settings = s
			applyDefaults(&settings, dir)
			return
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			settingsErr = err
			return
		}

		// 3) Local ./config.yaml (lowest priority)
		if s, err := loadSettingsFile("config.yaml"); err == nil {
			settings = s
			applyDefaults(&settings, dir)
			return
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			settingsErr = err
			return
		}

		settings = Settings{}
		applyDefaults(&settings, dir)
	})

	return settings, settingsErr
}

// applyDefaults fills in roots relative to the config directory when the
// loaded document left them blank, so a bare config.yaml (or none at all)
// still yields a usable workspace.
func applyDefaults(s *Settings, configDir string) {
	if s.WorkspaceRoot == "" {
		s.WorkspaceRoot = filepath.Join(configDir, "workspace")
	}
	if s.SkillsRoot == "" {
		s.SkillsRoot = filepath.Join(configDir, "skills")
	}
	if s.HelperScriptPath == "" {
		s.HelperScriptPath = filepath.Join(configDir, "agent-runner.js")
	}
}

func loadSettingsFile(path string) (Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Settings{}, err
	}
	return s, nil
}
