package selection

import (
	"fmt"

	"github.com/0fflineDocs/Cipher/internal/errors"
)

// DebateConfig is the debate setup handed to the debate pipeline.
type DebateConfig struct {
	DebaterFor     string `json:"debater_for"`
	DebaterAgainst string `json:"debater_against"`
	Moderator      string `json:"moderator,omitempty"`
	NumRounds      int    `json:"num_rounds"`
}

// Validate checks that both sides are set to different debaters and the
// round count is in range.
func (c DebateConfig) Validate() error {
	if c.DebaterFor == "" || c.DebaterAgainst == "" {
		return errors.NewValidationError("both debaters are required").WithField("debaters")
	}
	if c.DebaterFor == c.DebaterAgainst {
		return errors.NewValidationError("debaters must differ").
			WithField("debaters").WithValue(c.DebaterFor).WithCause(errors.ErrSameDebater)
	}
	if c.NumRounds < MinRounds || c.NumRounds > MaxRounds {
		return roundsError(c.NumRounds)
	}
	return nil
}

func roundsError(n int) error {
	return errors.NewValidationError(fmt.Sprintf("rounds must be between %d and %d", MinRounds, MaxRounds)).
		WithField("num_rounds").WithValue(n).WithCause(errors.ErrInvalidRounds)
}

// Debate holds the debate setup being edited.
type Debate struct {
	debaterFor     string
	debaterAgainst string
	moderator      string
	rounds         int
}

// NewDebate returns an empty debate setup with the default round count.
func NewDebate() *Debate {
	return &Debate{rounds: DefaultRounds}
}

// SetFor selects id as the debater arguing for the position. Selecting the
// current debater again clears the side. An id already arguing against is
// rejected with ErrSameDebater.
func (d *Debate) SetFor(id string) error {
	next, err := toggleSide(d.debaterFor, d.debaterAgainst, id)
	if err != nil {
		return err
	}
	d.debaterFor = next
	return nil
}

// SetAgainst is SetFor for the opposing side.
func (d *Debate) SetAgainst(id string) error {
	next, err := toggleSide(d.debaterAgainst, d.debaterFor, id)
	if err != nil {
		return err
	}
	d.debaterAgainst = next
	return nil
}

func toggleSide(current, other, id string) (string, error) {
	if id != "" && id == other {
		return current, errors.NewValidationError("persona already debating the other side").
			WithField("debaters").WithValue(id).WithCause(errors.ErrSameDebater)
	}
	if id == current {
		return "", nil
	}
	return id, nil
}

// SetModerator selects the moderator by name. An empty name means no verdict.
func (d *Debate) SetModerator(name string) {
	d.moderator = name
}

// SetRounds sets the number of rebuttal rounds.
func (d *Debate) SetRounds(n int) error {
	if n < MinRounds || n > MaxRounds {
		return roundsError(n)
	}
	d.rounds = n
	return nil
}

// Ready reports whether both sides are chosen.
func (d *Debate) Ready() bool {
	return d.debaterFor != "" && d.debaterAgainst != "" && d.debaterFor != d.debaterAgainst
}

// Config snapshots the current setup. An unset round count becomes
// DefaultRounds.
func (d *Debate) Config() DebateConfig {
	rounds := d.rounds
	if rounds == 0 {
		rounds = DefaultRounds
	}
	return DebateConfig{
		DebaterFor:     d.debaterFor,
		DebaterAgainst: d.debaterAgainst,
		Moderator:      d.moderator,
		NumRounds:      rounds,
	}
}
