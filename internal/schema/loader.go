package schema

import (
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadDir registers every kind declared in *.yaml / *.yml files under dir.
// Each file holds exactly one kind at the top level. A missing directory is
// not an error. Returns the number of kinds loaded.
func LoadDir(v *Vocabulary, dir string) (int, error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("vocabulary dir: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("vocabulary path %q is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading vocabulary dir: %w", err)
	}

	loaded := 0
	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}

		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return loaded, fmt.Errorf("reading kind file %s: %w", path, err)
		}

		var k Kind
		if err := yaml.Unmarshal(data, &k); err != nil {
			return loaded, fmt.Errorf("parsing kind file %s: %w", path, err)
		}
		if k.Type == "" {
			continue // skip empty / comment-only files
		}
		k.Fingerprint = fmt.Sprintf("%x", sha256.Sum256(data))

		if err := v.Register(k); err != nil {
			return loaded, fmt.Errorf("kind file %s: %w", path, err)
		}
		loaded++

		slog.Debug("[Vocabulary] Registered kind", "type", k.Type, "category", k.Category, "file", e.Name())
	}
	return loaded, nil
}
