// Package pathutil converts between the absolute paths quickreply keeps
// internally and the root-relative paths it shows to people.
package pathutil

import (
	"path/filepath"
	"strings"
)

// ToRelative converts an absolute path to relative based on a root directory.
// Falls back to the original path if conversion fails or path is already relative.
//
// Examples:
//   - ToRelative("/srv/bot/replies/greetings.kdl", "/srv/bot") → "replies/greetings.kdl"
//   - ToRelative("/etc/replies.kdl", "/srv/bot") → "/etc/replies.kdl" (outside root)
//   - ToRelative("replies.kdl", "/srv/bot") → "replies.kdl" (already relative)
func ToRelative(absPath, rootDir string) string {
	if absPath == "" || rootDir == "" {
		return absPath
	}

	if !filepath.IsAbs(absPath) {
		return absPath
	}

	absPath = filepath.Clean(absPath)
	rootDir = filepath.Clean(rootDir)

	relPath, err := filepath.Rel(rootDir, absPath)
	if err != nil {
		return absPath
	}

	// Outside the root the absolute path is clearer
	if relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return absPath
	}

	return relPath
}

// ToRelativeAll converts every path in paths. The input slice is not modified.
func ToRelativeAll(paths []string, rootDir string) []string {
	if len(paths) == 0 {
		return paths
	}

	converted := make([]string, len(paths))
	for i, p := range paths {
		converted[i] = ToRelative(p, rootDir)
	}
	return converted
}

// SourceLabel renders a corpus entry source for display. File sources
// become root-relative; labels such as "default" and "inline" pass through.
func SourceLabel(source, rootDir string) string {
	if !filepath.IsAbs(source) {
		return source
	}
	return ToRelative(source, rootDir)
}
