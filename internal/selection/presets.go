package selection

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// PresetVersion is the preset file format version.
const PresetVersion = "1"

// Preset is a named council selection stored as YAML.
type Preset struct {
	// Name is the preset's identifier and file name stem
	Name string `yaml:"name"`
	// Description is shown in listings (optional)
	Description string `yaml:"description,omitempty"`
	// Version is the preset file format version (currently "1")
	Version  string   `yaml:"version"`
	Members  []string `yaml:"members"`
	Chairman string   `yaml:"chairman"`
}

var presetNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// Validate checks that the preset is well-formed. maxMembers bounds the member count.
func (p *Preset) Validate(maxMembers int) error {
	if !presetNameRegex.MatchString(p.Name) {
		return fmt.Errorf("invalid preset name %q (letters, digits, '-' and '_' only)", p.Name)
	}
	if p.Version != PresetVersion {
		return fmt.Errorf("unsupported preset version: %s (supported: %s)", p.Version, PresetVersion)
	}
	if len(p.Members) == 0 {
		return errors.New("preset must list at least one member")
	}
	if maxMembers > 0 && len(p.Members) > maxMembers {
		return fmt.Errorf("preset lists %d members (max %d)", len(p.Members), maxMembers)
	}
	for i, m := range p.Members {
		if slices.Contains(p.Members[:i], m) {
			return fmt.Errorf("member %q listed twice", m)
		}
	}
	if p.Chairman == "" {
		return errors.New("preset chairman is required")
	}
	return nil
}

// Apply loads the preset into c.
func (p *Preset) Apply(c *Council) error {
	return c.Set(p.Members, p.Chairman)
}

// PresetFromCouncil captures the council's current selection.
func PresetFromCouncil(name, description string, c *Council) *Preset {
	return &Preset{
		Name:        name,
		Description: description,
		Version:     PresetVersion,
		Members:     c.Members(),
		Chairman:    c.Chairman(),
	}
}

// PresetStore reads and writes preset files in a directory.
type PresetStore struct {
	dir string
	max int
}

// NewPresetStore creates a store rooted at dir. maxMembers bounds member counts.
func NewPresetStore(dir string, maxMembers int) *PresetStore {
	return &PresetStore{dir: dir, max: maxMembers}
}

// Dir returns the directory presets are stored in.
func (s *PresetStore) Dir() string {
	return s.dir
}

func (s *PresetStore) path(name string) string {
	return filepath.Join(s.dir, name+".yaml")
}

// Load reads the named preset.
func (s *PresetStore) Load(name string) (*Preset, error) {
	return LoadPresetFile(s.path(name), s.max)
}

// Save validates and writes the preset, replacing any existing file.
func (s *PresetStore) Save(p *Preset) error {
	if err := p.Validate(s.max); err != nil {
		return fmt.Errorf("invalid preset: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating presets directory: %w", err)
	}
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding preset: %w", err)
	}
	if err := os.WriteFile(s.path(p.Name), data, 0o644); err != nil {
		return fmt.Errorf("writing preset file: %w", err)
	}
	return nil
}

// List loads every valid preset in the directory, sorted by name. Invalid
// files are skipped and reported in the returned errors. A missing directory
// yields no presets.
func (s *PresetStore) List() ([]*Preset, []error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, []error{fmt.Errorf("reading presets directory: %w", err)}
	}

	var presets []*Preset
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		p, err := LoadPresetFile(filepath.Join(s.dir, name), s.max)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		presets = append(presets, p)
	}
	slices.SortFunc(presets, func(a, b *Preset) int { return strings.Compare(a.Name, b.Name) })
	return presets, errs
}

// LoadPresetFile loads a preset from a YAML file.
func LoadPresetFile(path string, maxMembers int) (*Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading preset file: %w", err)
	}

	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing preset file: %w", err)
	}

	if err := p.Validate(maxMembers); err != nil {
		return nil, fmt.Errorf("invalid preset: %w", err)
	}
	return &p, nil
}
