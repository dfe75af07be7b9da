package naming

import (
	"path/filepath"
	"strings"
)

// FontDirSuffix marks a font directory inside a project working tree.
const FontDirSuffix = ".rcjk"

var segmentEscaper = strings.NewReplacer("%", "%25", "/", "%2F", "\\", "%5C")

// EscapeSegment percent-escapes the characters that cannot appear in a single
// directory segment.
func EscapeSegment(name string) string {
	return segmentEscaper.Replace(name)
}

// ProjectDirName returns the working-tree directory name for a project slug.
func ProjectDirName(slug string) string {
	return EscapeSegment(slug)
}

// FontDirName returns the directory name for a font slug.
func FontDirName(slug string) string {
	return EscapeSegment(slug) + FontDirSuffix
}

// GlifPath returns a glif path relative to the font directory. Layers pass the
// group name and are nested one level below the leaf directory.
func GlifPath(leafDir, groupName, filename string) string {
	if groupName == "" {
		return filepath.Join(leafDir, filename)
	}
	return filepath.Join(leafDir, EscapeSegment(groupName), filename)
}
