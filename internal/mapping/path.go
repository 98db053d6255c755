package mapping

import (
	"errors"
	"fmt"
	"strings"
)

// SplitPath returns the slash-separated segments of a path.
func SplitPath(path string) []string {
	return strings.Split(path, "/")
}

// LastSegment returns the final segment of a path.
func LastSegment(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}

	return path
}

// ParentPath returns everything before the final segment, or "" for a
// single-segment path.
func ParentPath(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[:i]
	}

	return ""
}

// ValidatePath checks mapping path syntax: one or more segments separated
// by single slashes, never beginning or ending with a slash.
func ValidatePath(path string) error {
	if path == "" {
		return errors.New("empty path")
	}

	if strings.HasPrefix(path, "/") {
		return fmt.Errorf("invalid path %q: leading slash", path)
	}

	if strings.HasSuffix(path, "/") {
		return fmt.Errorf("invalid path %q: trailing slash", path)
	}

	for _, seg := range strings.Split(path, "/") {
		if seg == "" {
			return fmt.Errorf("invalid path %q: empty segment", path)
		}
	}

	return nil
}
