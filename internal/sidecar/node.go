package sidecar

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// nodeCandidates are tried in order: PATH first, then well-known install
// locations on macOS and Linux.
var nodeCandidates = []string{
	"node",
	"/usr/local/bin/node",
	"/opt/homebrew/bin/node",
	"/usr/bin/node",
}

// minNodeMajor and maxNodeMajor bound the Node.js versions the bundled
// agent runner is known to work with; 25+ currently crashes with a
// TypeError in its minified bundle.
const (
	minNodeMajor = 18
	maxNodeMajor = 24
)

// ResolveNodeBinary finds a Node.js binary compatible with the agent
// runner, preferring the first compatible candidate in nodeCandidates and
// falling back to the first one that runs at all if none match the
// supported range; that fallback is returned without any warning. Exported so a one-shot
// Dispatcher can be built with the same resolution Pool uses internally
// (§4.4.1's "NodeBin" field is provided by the caller, unlike pool mode).
func ResolveNodeBinary(ctx context.Context) (string, error) {
	var firstAvailable string

	for _, candidate := range nodeCandidates {
		out, err := exec.CommandContext(ctx, candidate, "--version").Output()
		if err != nil {
			continue
		}
		version := strings.TrimSpace(string(out))
		if firstAvailable == "" {
			firstAvailable = candidate
		}
		if isNodeCompatible(version) {
			return candidate, nil
		}
	}

	if firstAvailable != "" {
		return firstAvailable, nil
	}
	return "", fmt.Errorf("node.js not found: install node.js %d-%d from https://nodejs.org", minNodeMajor, maxNodeMajor)
}

// isNodeCompatible reports whether a "vMAJOR.MINOR.PATCH" version string
// falls in the supported major version range.
func isNodeCompatible(version string) bool {
	trimmed := strings.TrimPrefix(version, "v")
	major, _, _ := strings.Cut(trimmed, ".")
	n, err := strconv.Atoi(major)
	if err != nil {
		return false
	}
	return n >= minNodeMajor && n <= maxNodeMajor
}
