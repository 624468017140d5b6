// Package project implements the on-disk project model: a directory under
// the projects root holding a hidden metadata descriptor, an optional user
// init script and a per-project kernel spec directory.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// On-disk layout of a project directory.
const (
	// MetadataFile is the hidden JSON file marking a directory as a project.
	MetadataFile = ".swanproject"

	// UserScriptFile holds shell text executed at kernel startup.
	UserScriptFile = ".userscript"

	// ReadmeFile is picked up for display when present.
	ReadmeFile = "README.md"

	// KernelDir is the per-project kernel spec directory, relative to the
	// project root. Regenerated by the external kernel tool.
	KernelDir = ".local/share/jupyter/kernels"
)

// Common errors.
var (
	ErrProjectExists   = errors.New("project already exists")
	ErrProjectNotFound = errors.New("project not found")
	ErrNotInProject    = errors.New("path is not inside a project")
	ErrInvalidMetadata = errors.New("invalid project metadata")
)

// Metadata is the software environment descriptor stored in .swanproject.
// Field order matches the sorted-key JSON the frontend expects.
type Metadata struct {
	Platform string `json:"platform"`
	Release  string `json:"release"`
	Stack    string `json:"stack"`
}

// Info is the full project description returned to the frontend.
type Info struct {
	Metadata
	Name       string `json:"name"`
	Readme     string `json:"readme,omitempty"`
	UserScript string `json:"user_script"`
}

// encodeMetadata renders metadata in the .swanproject wire format:
// 4-space indent, sorted keys, trailing newline.
func encodeMetadata(meta Metadata) ([]byte, error) {
	b, err := json.MarshalIndent(meta, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}
	return append(b, '\n'), nil
}

// decodeMetadata parses a .swanproject file.
func decodeMetadata(b []byte) (Metadata, error) {
	var meta Metadata
	if err := json.Unmarshal(b, &meta); err != nil {
		return Metadata{}, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	return meta, nil
}

// readMetadata loads the metadata file from a project directory.
func readMetadata(dir string) (Metadata, error) {
	b, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return Metadata{}, fmt.Errorf("%w: %s", ErrProjectNotFound, dir)
		}
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}
	return decodeMetadata(b)
}
