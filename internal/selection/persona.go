// Package selection holds the user's council and debate choices.
//
// Selections are independent of any in-flight pipeline: a controller reads
// them once when a send starts.
package selection

import (
	"fmt"
	"slices"

	"github.com/0fflineDocs/Cipher/internal/errors"
)

// Default council selection: the four cybersecurity personas chaired by the
// Strategic Principal.
var (
	DefaultMembers = []string{
		"Security Architect",
		"Strategic Advisory",
		"Cybersecurity Research",
		"Business Risk & Compliance",
	}
	DefaultChairman = "Strategic Principal"
)

const (
	// DefaultMaxMembers is the largest council the backend accepts.
	DefaultMaxMembers = 6
	// DefaultRounds is used when a debate does not set a round count.
	DefaultRounds = 3
	// MinRounds and MaxRounds bound the debate round count.
	MinRounds = 1
	MaxRounds = 5
)

// Persona is a council member, chairman, debater or moderator as served by
// the backend's catalog endpoints.
type Persona struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string `json:"name" yaml:"name"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Style       string `json:"style,omitempty" yaml:"style,omitempty"`
	Model       string `json:"model,omitempty" yaml:"model,omitempty"`
	Personality string `json:"personality,omitempty" yaml:"personality,omitempty"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty"`
}

// Catalog is the council persona catalog, keyed by category.
type Catalog struct {
	Personas map[string][]Persona `json:"personas"`
	Chairmen []Persona            `json:"chairmen"`
}

// Categories returns the category names in sorted order.
func (c Catalog) Categories() []string {
	names := make([]string, 0, len(c.Personas))
	for name := range c.Personas {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Member finds a council persona by name.
func (c Catalog) Member(name string) (Persona, bool) {
	for _, cat := range c.Categories() {
		for _, p := range c.Personas[cat] {
			if p.Name == name {
				return p, true
			}
		}
	}
	return Persona{}, false
}

// Chairman finds a chairman by name.
func (c Catalog) Chairman(name string) (Persona, bool) {
	return findPersona(c.Chairmen, func(p Persona) bool { return p.Name == name })
}

// DebateCatalog lists the debaters and moderators available for debates.
type DebateCatalog struct {
	Debaters   []Persona `json:"debaters"`
	Moderators []Persona `json:"moderators"`
}

// Debater finds a debater by id.
func (c DebateCatalog) Debater(id string) (Persona, bool) {
	return findPersona(c.Debaters, func(p Persona) bool { return p.ID == id })
}

// Moderator finds a moderator by name.
func (c DebateCatalog) Moderator(name string) (Persona, bool) {
	return findPersona(c.Moderators, func(p Persona) bool { return p.Name == name })
}

// Check reports the first debater or moderator in cfg that the catalog does
// not offer. An empty moderator is allowed.
func (c DebateCatalog) Check(cfg DebateConfig) error {
	if _, ok := c.Debater(cfg.DebaterFor); !ok {
		return unknownPersona("debater_for", cfg.DebaterFor)
	}
	if _, ok := c.Debater(cfg.DebaterAgainst); !ok {
		return unknownPersona("debater_against", cfg.DebaterAgainst)
	}
	if cfg.Moderator != "" {
		if _, ok := c.Moderator(cfg.Moderator); !ok {
			return unknownPersona("moderator", cfg.Moderator)
		}
	}
	return nil
}

func unknownPersona(field, name string) error {
	return errors.NewValidationError(fmt.Sprintf("unknown persona %q", name)).
		WithField(field).WithValue(name).WithCause(errors.ErrUnknownPersona)
}

func findPersona(list []Persona, match func(Persona) bool) (Persona, bool) {
	if i := slices.IndexFunc(list, match); i >= 0 {
		return list[i], true
	}
	return Persona{}, false
}
