// Package sanitize validates untrusted request input that becomes part of
// filesystem paths or shell arguments.
package sanitize

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Validation errors.
var (
	// ErrPathTraversal indicates a path contains directory traversal sequences.
	ErrPathTraversal = errors.New("path contains directory traversal")

	// ErrEmptyPath indicates an empty path was provided.
	ErrEmptyPath = errors.New("path cannot be empty")

	// ErrInvalidProjectName indicates the project name is unusable as a
	// directory name or shell argument.
	ErrInvalidProjectName = errors.New("invalid project name")
)

// projectNamePattern matches names safe to use as a single path component and
// inside a quoted shell argument: letters, digits, dot, underscore, hyphen and
// spaces, not starting with a dot or a space, at most 255 chars.
var projectNamePattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9._ -]{0,254}$`)

// ValidateProjectName checks that a name is a safe single path component.
func ValidateProjectName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty", ErrInvalidProjectName)
	}
	if strings.ContainsAny(name, "/\\") {
		return fmt.Errorf("%w: contains path separator", ErrInvalidProjectName)
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("%w: contains '..'", ErrInvalidProjectName)
	}
	if strings.HasSuffix(name, " ") {
		return fmt.Errorf("%w: trailing space", ErrInvalidProjectName)
	}
	if !projectNamePattern.MatchString(name) {
		return fmt.Errorf("%w: must be letters, digits, '._ -' and not start with '.'", ErrInvalidProjectName)
	}
	return nil
}

// ValidatePath checks a path for traversal and, when allowedRoot is given,
// that the path resolves inside that root. Returns the cleaned absolute path.
func ValidatePath(path, allowedRoot string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}

	if strings.Contains(path, "..") {
		return "", fmt.Errorf("%w: contains '..'", ErrPathTraversal)
	}

	cleanPath := filepath.Clean(path)
	if strings.Contains(cleanPath, "..") {
		return "", fmt.Errorf("%w: resolves to traversal", ErrPathTraversal)
	}

	absPath := cleanPath
	if !filepath.IsAbs(cleanPath) {
		var err error
		absPath, err = filepath.Abs(cleanPath)
		if err != nil {
			return "", fmt.Errorf("failed to resolve path: %w", err)
		}
	}

	if allowedRoot != "" {
		absRoot, err := filepath.Abs(allowedRoot)
		if err != nil {
			return "", fmt.Errorf("failed to resolve allowed root: %w", err)
		}

		rel, err := filepath.Rel(absRoot, absPath)
		if err != nil {
			return "", fmt.Errorf("%w: path outside allowed root", ErrPathTraversal)
		}
		if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("%w: path escapes allowed root", ErrPathTraversal)
		}
	}

	return absPath, nil
}
