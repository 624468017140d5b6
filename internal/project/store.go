package project

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/swan-cern/swanprojects/internal/sanitize"
)

// Store performs all project filesystem operations under a fixed root.
//
// Mutations are serialized by a store-wide mutex so two concurrent edits of
// the same project cannot interleave their directory rename and file writes.
type Store struct {
	mu     sync.Mutex
	root   string
	home   string
	logger *zap.Logger
}

// NewStore creates a store rooted at root. Relative request paths are
// resolved against home, matching how the notebook frontend addresses files.
func NewStore(root, home string, logger *zap.Logger) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("projects root cannot be empty")
	}
	if home == "" {
		return nil, fmt.Errorf("home directory cannot be empty")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve projects root: %w", err)
	}

	return &Store{
		root:   absRoot,
		home:   home,
		logger: logger,
	}, nil
}

// Root returns the absolute projects root directory.
func (s *Store) Root() string {
	return s.root
}

// Dir returns the directory a project with the given name lives in.
// The name must already be validated.
func (s *Store) Dir(name string) string {
	return filepath.Join(s.root, name)
}

// Create creates a new project directory with its metadata and user script.
// Returns the project directory. The directory is removed again if writing
// the project files fails, so metadata and directory always exist together.
func (s *Store) Create(ctx context.Context, name string, meta Metadata, userScript string) (string, error) {
	if err := sanitize.ValidateProjectName(name); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return "", fmt.Errorf("failed to create projects root: %w", err)
	}

	dir := s.Dir(name)
	if err := os.Mkdir(dir, 0o755); err != nil {
		if os.IsExist(err) {
			return "", fmt.Errorf("%w: %s", ErrProjectExists, name)
		}
		return "", fmt.Errorf("failed to create project directory: %w", err)
	}

	if err := s.writeFiles(dir, meta, userScript); err != nil {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			s.logger.Warn("failed to clean up partial project",
				zap.String("dir", dir), zap.Error(rmErr))
		}
		return "", err
	}

	s.logger.Info("created project",
		zap.String("name", name),
		zap.String("stack", meta.Stack),
		zap.String("release", meta.Release),
		zap.String("platform", meta.Platform))

	return dir, nil
}

// Edit renames a project when oldName differs from name, rewrites its
// metadata and user script, and removes stale native python kernel dirs.
// Returns the (possibly new) project directory.
func (s *Store) Edit(ctx context.Context, oldName, name string, meta Metadata, userScript string) (string, error) {
	if err := sanitize.ValidateProjectName(oldName); err != nil {
		return "", err
	}
	if err := sanitize.ValidateProjectName(name); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := s.Dir(name)
	if oldName != name {
		oldDir := s.Dir(oldName)
		if _, err := os.Stat(oldDir); err != nil {
			if os.IsNotExist(err) {
				return "", fmt.Errorf("%w: %s", ErrProjectNotFound, oldName)
			}
			return "", fmt.Errorf("failed to stat project: %w", err)
		}
		if _, err := os.Stat(dir); err == nil {
			return "", fmt.Errorf("%w: %s", ErrProjectExists, name)
		}
		if err := os.Rename(oldDir, dir); err != nil {
			return "", fmt.Errorf("failed to rename project: %w", err)
		}
	} else if _, err := os.Stat(dir); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrProjectNotFound, name)
		}
		return "", fmt.Errorf("failed to stat project: %w", err)
	}

	// The kernel tool generates fresh python kernel specs; drop the old
	// native ones so stale interpreters don't linger in the launcher.
	for _, stale := range []string{"python2", "python3"} {
		kernelDir := filepath.Join(dir, KernelDir, stale)
		if _, err := os.Stat(kernelDir); err == nil {
			if err := os.RemoveAll(kernelDir); err != nil {
				return "", fmt.Errorf("failed to remove stale kernel %s: %w", stale, err)
			}
		}
	}

	if err := s.writeFiles(dir, meta, userScript); err != nil {
		return "", err
	}

	s.logger.Info("edited project",
		zap.String("old_name", oldName),
		zap.String("name", name),
		zap.String("stack", meta.Stack))

	return dir, nil
}

// InfoAt resolves the project containing path and returns its description.
// Returns ErrNotInProject when the path is outside any project.
func (s *Store) InfoAt(ctx context.Context, path string) (*Info, error) {
	dir, ok := s.Resolve(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotInProject, path)
	}

	meta, err := readMetadata(dir)
	if err != nil {
		return nil, err
	}

	info := &Info{
		Metadata:   meta,
		Name:       filepath.Base(dir),
		UserScript: s.userScript(dir),
	}

	if readme, err := os.ReadFile(filepath.Join(dir, ReadmeFile)); err == nil {
		info.Readme = string(readme)
	}

	return info, nil
}

// Resolve walks up from path toward the projects root looking for a
// directory holding a metadata file. Relative paths are resolved against the
// store's home directory. Returns the project directory and whether one was
// found.
func (s *Store) Resolve(path string) (string, bool) {
	if path == "" {
		return "", false
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.home, path)
	}
	abs, err := sanitize.ValidatePath(path, s.root)
	if err != nil {
		return "", false
	}

	for dir := abs; strings.HasPrefix(dir, s.root) && dir != s.root; dir = filepath.Dir(dir) {
		if _, err := os.Stat(filepath.Join(dir, MetadataFile)); err == nil {
			return dir, true
		}
	}
	return "", false
}

// userScript reads the user script file, returning "" when absent.
func (s *Store) userScript(dir string) string {
	b, err := os.ReadFile(filepath.Join(dir, UserScriptFile))
	if err != nil {
		return ""
	}
	return string(b)
}

// writeFiles writes the metadata and user script files into dir.
func (s *Store) writeFiles(dir string, meta Metadata, userScript string) error {
	b, err := encodeMetadata(meta)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, MetadataFile), b, 0o644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, UserScriptFile), []byte(userScript), 0o644); err != nil {
		return fmt.Errorf("failed to write user script: %w", err)
	}
	return nil
}
