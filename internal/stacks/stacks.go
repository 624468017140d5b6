// Package stacks serves the static software-stack catalogue (stacks.json).
package stacks

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"
)

// ErrInvalidCatalogue indicates the stacks file failed schema validation.
var ErrInvalidCatalogue = errors.New("invalid stacks catalogue")

// Stack describes one software stack the user can pick for a project.
type Stack struct {
	Name     string    `json:"name"`
	Logo     string    `json:"logo,omitempty"`
	Releases []Release `json:"releases"`
}

// Release is one release of a stack with the platforms it is built for.
type Release struct {
	Name      string   `json:"name"`
	Platforms []string `json:"platforms"`
}

// Service loads and serves the stacks catalogue. The catalogue is validated
// against an embedded JSON Schema; a file that fails validation never
// replaces a previously loaded one.
type Service struct {
	mu     sync.RWMutex
	path   string
	logger *zap.Logger
	schema *jsonschema.Schema
	stacks []Stack
}

// NewService creates a stacks service reading from path.
func NewService(path string, logger *zap.Logger) (*Service, error) {
	if path == "" {
		return nil, fmt.Errorf("stacks file path cannot be empty")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	schema, err := compileSchema()
	if err != nil {
		return nil, fmt.Errorf("failed to compile stacks schema: %w", err)
	}

	return &Service{
		path:   path,
		logger: logger,
		schema: schema,
	}, nil
}

// Load reads, validates and installs the catalogue from disk.
func (s *Service) Load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("failed to read stacks file %s: %w", s.path, err)
	}

	stacks, err := s.parse(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.stacks = stacks
	s.mu.Unlock()

	s.logger.Info("loaded stacks catalogue",
		zap.String("path", s.path),
		zap.Int("stacks", len(stacks)))

	return nil
}

// Catalogue returns the currently installed stacks.
func (s *Service) Catalogue() []Stack {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stacks
}

// parse validates raw catalogue bytes against the schema and decodes them.
func (s *Service) parse(data []byte) ([]Stack, error) {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalogue, err)
	}
	if err := s.schema.Validate(inst); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalogue, err)
	}

	var stacks []Stack
	if err := json.Unmarshal(data, &stacks); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalogue, err)
	}
	return stacks, nil
}
