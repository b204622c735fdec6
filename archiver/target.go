package archiver

import (
	"path/filepath"
	"strings"
)

// Target is where Archiver.Archive places the copy. It is either an
// ExplicitDestination or AutoNamed.
type Target interface {
	// String describes the target for logging.
	String() string
	isTarget()
}

// ExplicitDestination copies the template verbatim to Path.
type ExplicitDestination struct {
	Path string
}

func (target ExplicitDestination) String() string {
	return target.Path
}

func (ExplicitDestination) isTarget() {}

// AutoNamed derives the destination from the current date and time. See
// DeriveName and RunDirName.
type AutoNamed struct{}

func (AutoNamed) String() string {
	return "<auto-named>"
}

func (AutoNamed) isTarget() {}

// ParseTarget maps a save path hint to a Target. An empty hint and any spelling
// of the current directory, like "." or "./", request auto-naming while any
// other value is used as explicit destination.
func ParseTarget(hint string) Target {
	if isCurrentDir(hint) {
		return AutoNamed{}
	}
	return ExplicitDestination{Path: hint}
}

// isCurrentDir reports whether the relative path only consists of "."
// elements and separators. Parent elements are not resolved, so "a/.." is no
// spelling of the current directory.
func isCurrentDir(path string) bool {
	path = filepath.ToSlash(path)
	if strings.HasPrefix(path, "/") {
		return false
	}
	for _, element := range strings.Split(path, "/") {
		if element != "" && element != "." {
			return false
		}
	}
	return true
}
