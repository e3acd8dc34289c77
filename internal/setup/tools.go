package setup

import (
	"fmt"
	"path/filepath"
	"strings"
)

// toolInfo holds display and install metadata for a known tool.
type toolInfo struct {
	// Display is the human name used in progress lines.
	Display string
	// InstallURL is where to get the tool.
	InstallURL string
	// Note is an extra install hint.
	Note string
}

// knownTools maps tool binary names to their metadata.
var knownTools = map[string]toolInfo{
	"python3": {Display: "Python", InstallURL: "https://www.python.org/downloads/"},
	"python":  {Display: "Python", InstallURL: "https://www.python.org/downloads/"},
	"node":    {Display: "Node.js", InstallURL: "https://nodejs.org/en/download"},
	"npm":     {Display: "npm", InstallURL: "https://nodejs.org/en/download", Note: "npm ships with Node.js."},
	"pnpm":    {Display: "pnpm", InstallURL: "https://pnpm.io/installation"},
	"yarn":    {Display: "Yarn", InstallURL: "https://yarnpkg.com/getting-started/install"},
}

// lookupTool returns metadata for name, which may be a path.
func lookupTool(name string) (toolInfo, bool) {
	base := strings.TrimSuffix(filepath.Base(name), ".exe")
	info, ok := knownTools[base]
	return info, ok
}

// displayName returns the human name for a tool binary.
func displayName(name string) string {
	if info, ok := lookupTool(name); ok {
		return info.Display
	}
	return name
}

// ErrToolUnavailable is returned when a required tool cannot be run.
// It includes actionable install instructions when the tool is known.
type ErrToolUnavailable struct {
	Name string
	Info *toolInfo
}

func NewErrToolUnavailable(name string) ErrToolUnavailable {
	e := ErrToolUnavailable{Name: name}
	if info, ok := lookupTool(name); ok {
		e.Info = &info
	}
	return e
}

func (e ErrToolUnavailable) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s is required but not installed or not in PATH.", e.Name)

	if e.Info == nil {
		return b.String()
	}
	if e.Info.InstallURL != "" {
		fmt.Fprintf(&b, "\nInstall: %s", e.Info.InstallURL)
	}
	if e.Info.Note != "" {
		fmt.Fprintf(&b, "\nNote: %s", e.Info.Note)
	}
	return b.String()
}
