package app

import (
	"os"
	"path/filepath"
)

// ConfigDir returns ~/.config/skillsmith/ on all platforms.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "skillsmith"), nil
}

// EnsureConfigDir creates the config directory and default config.yaml if missing.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	configFile := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		return os.WriteFile(configFile, []byte(defaultConfig), 0600)
	}
	return nil
}

const defaultConfig = `# skillsmith configuration
# Run: skillsmith --help

# Optional: override the SQLite database location.
# Can also be set via SKILLSMITH_DB_PATH or --db-path.
# db_path: ~/.config/skillsmith/skillsmith.db

# Optional: where skill workspaces and the skills catalogue directory live.
# workspace_root: ~/.config/skillsmith/workspace
# skills_root: ~/.config/skillsmith/skills

# Optional: path to the bundled Node.js agent runner script the sidecar
# manager spawns. Defaults next to this config file.
# helper_script_path: ~/.config/skillsmith/agent-runner.js
`
