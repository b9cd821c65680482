package selection

import (
	"slices"

	"github.com/0fflineDocs/Cipher/internal/errors"
)

// Council is an ordered set of council member names plus a chairman.
type Council struct {
	members  []string
	chairman string

	defaults        []string
	defaultChairman string
	max             int
}

// NewCouncil creates a council preloaded with the given defaults.
// Duplicates are dropped and the list is cut at maxMembers. A limit below one
// or above DefaultMaxMembers uses DefaultMaxMembers.
func NewCouncil(defaults []string, chairman string, maxMembers int) *Council {
	if maxMembers < 1 || maxMembers > DefaultMaxMembers {
		maxMembers = DefaultMaxMembers
	}
	c := &Council{defaultChairman: chairman, max: maxMembers}
	for _, name := range defaults {
		if name == "" || slices.Contains(c.defaults, name) || len(c.defaults) == maxMembers {
			continue
		}
		c.defaults = append(c.defaults, name)
	}
	c.Reset()
	return c
}

// DefaultCouncil returns the stock council selection.
func DefaultCouncil() *Council {
	return NewCouncil(DefaultMembers, DefaultChairman, DefaultMaxMembers)
}

// Members returns the selected members in selection order.
func (c *Council) Members() []string {
	return slices.Clone(c.members)
}

// Chairman returns the selected chairman.
func (c *Council) Chairman() string {
	return c.chairman
}

// Max returns the member limit.
func (c *Council) Max() int {
	return c.max
}

// Full reports whether no more members can be added.
func (c *Council) Full() bool {
	return len(c.members) >= c.max
}

// Contains reports whether name is selected.
func (c *Council) Contains(name string) bool {
	return slices.Contains(c.members, name)
}

// Add appends name to the council.
func (c *Council) Add(name string) error {
	if name == "" {
		return errors.NewValidationError("member name is required").WithField("council.members")
	}
	if c.Contains(name) {
		return errors.NewValidationError("member already selected").
			WithField("council.members").WithValue(name).WithCause(errors.ErrDuplicateMember)
	}
	if c.Full() {
		return errors.NewValidationError("council is full").
			WithField("council.members").WithValue(name).WithCause(errors.ErrTooManyMembers)
	}
	c.members = append(c.members, name)
	return nil
}

// Remove deselects name. It reports whether name was selected.
func (c *Council) Remove(name string) bool {
	before := len(c.members)
	c.members = slices.DeleteFunc(c.members, func(m string) bool { return m == name })
	return len(c.members) != before
}

// Toggle selects name if it is not selected and deselects it otherwise. It
// reports whether name is selected afterwards. Selecting into a full council
// fails with ErrTooManyMembers and leaves the selection unchanged.
func (c *Council) Toggle(name string) (bool, error) {
	if c.Remove(name) {
		return false, nil
	}
	if err := c.Add(name); err != nil {
		return false, err
	}
	return true, nil
}

// SetChairman selects the chairman.
func (c *Council) SetChairman(name string) {
	c.chairman = name
}

// Set replaces the members and chairman, validating them as Add would.
// On error the previous selection is kept.
func (c *Council) Set(members []string, chairman string) error {
	next := &Council{max: c.max}
	for _, m := range members {
		if err := next.Add(m); err != nil {
			return err
		}
	}
	c.members = next.members
	if chairman != "" {
		c.chairman = chairman
	}
	return nil
}

// Reset restores the configured default selection.
func (c *Council) Reset() {
	c.members = slices.Clone(c.defaults)
	c.chairman = c.defaultChairman
}
