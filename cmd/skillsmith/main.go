// Skillsmith drives a skill through its eight-step build workflow, dispatching
// each step to a Node.js agent helper and recording catalogue state, run
// history, and staged artifacts in SQLite.
package main

import (
	"os"
	"runtime/debug"

	"github.com/skillsmith/skillsmith/internal/commands"
)

// version is set via ldflags (-X main.version=v1.0.0) or detected
// automatically from Go module info embedded by go install.
var version = "dev"

func main() {
	if version == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
	}
	if err := commands.Execute(version); err != nil {
		os.Exit(1)
	}
}
