package funnel

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrDefinitionNotFound is returned for an unknown saved funnel name.
var ErrDefinitionNotFound = errors.New("funnel definition not found")

// Definition is a saved funnel.
// Fingerprint is the SHA-256 of the raw YAML file, computed at load time.
type Definition struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description"`
	Steps       []Step `json:"steps" yaml:"steps"`
	Fingerprint string `json:"fingerprint" yaml:"-"`
}

// DefinitionRepository serves saved funnel definitions.
type DefinitionRepository interface {
	Get(ctx context.Context, name string) (*Definition, error)

	// List returns all definitions sorted by name.
	List(ctx context.Context) ([]Definition, error)
}

// FileSystemDefinitionRepository loads funnel definitions from *.yaml files in a directory.
// Each file holds exactly one definition. Files are read once at startup.
type FileSystemDefinitionRepository struct {
	dir         string
	definitions map[string]Definition
}

// NewFileSystemDefinitionRepository eagerly loads every definition in dir.
// A missing directory yields an empty repository.
func NewFileSystemDefinitionRepository(dir string) (*FileSystemDefinitionRepository, error) {
	repo := &FileSystemDefinitionRepository{
		dir:         dir,
		definitions: make(map[string]Definition),
	}
	if dir == "" {
		return repo, nil
	}
	if err := repo.load(); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *FileSystemDefinitionRepository) load() error {
	info, err := os.Stat(r.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("funnel dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("funnel path %q is not a directory", r.dir)
	}

	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("reading funnel dir: %w", err)
	}

	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}

		path := filepath.Join(r.dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading funnel file %s: %w", path, err)
		}

		var def Definition
		if err := yaml.Unmarshal(data, &def); err != nil {
			return fmt.Errorf("parsing funnel file %s: %w", path, err)
		}
		if def.Name == "" {
			continue // comment-only file
		}
		if err := Validate(def.Name, def.Steps); err != nil {
			return fmt.Errorf("funnel file %s: %w", path, err)
		}
		if _, exists := r.definitions[def.Name]; exists {
			return fmt.Errorf("funnel %q: duplicate name (check multiple YAML files)", def.Name)
		}

		def.Fingerprint = fmt.Sprintf("%x", sha256.Sum256(data))
		r.definitions[def.Name] = def
	}
	return nil
}

func (r *FileSystemDefinitionRepository) Get(_ context.Context, name string) (*Definition, error) {
	def, ok := r.definitions[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDefinitionNotFound, name)
	}
	return &def, nil
}

func (r *FileSystemDefinitionRepository) List(_ context.Context) ([]Definition, error) {
	out := make([]Definition, 0, len(r.definitions))
	for _, def := range r.definitions {
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
