package selection

import (
	"testing"

	"github.com/0fflineDocs/Cipher/internal/errors"
)

func TestDebate_Sides(t *testing.T) {
	d := NewDebate()
	if d.Ready() {
		t.Fatal("empty debate should not be ready")
	}

	if err := d.SetFor("vector"); err != nil {
		t.Fatalf("SetFor() error = %v", err)
	}
	if err := d.SetAgainst("vector"); !errors.Is(err, errors.ErrSameDebater) {
		t.Fatalf("SetAgainst(same) error = %v, want ErrSameDebater", err)
	}
	if d.Config().DebaterAgainst != "" {
		t.Error("rejected selection changed the against side")
	}
	if err := d.SetAgainst("phantom"); err != nil {
		t.Fatalf("SetAgainst() error = %v", err)
	}
	if !d.Ready() {
		t.Error("debate with both sides should be ready")
	}

	// Reselecting the current debater clears the side.
	if err := d.SetFor("vector"); err != nil {
		t.Fatalf("SetFor(toggle) error = %v", err)
	}
	if d.Config().DebaterFor != "" || d.Ready() {
		t.Errorf("toggle did not clear the side: %+v", d.Config())
	}
}

func TestDebate_Rounds(t *testing.T) {
	tests := []struct {
		rounds  int
		wantErr bool
	}{
		{0, true},
		{1, false},
		{3, false},
		{5, false},
		{6, true},
		{-1, true},
	}
	for _, tt := range tests {
		d := NewDebate()
		err := d.SetRounds(tt.rounds)
		if tt.wantErr {
			if !errors.Is(err, errors.ErrInvalidRounds) {
				t.Errorf("SetRounds(%d) error = %v, want ErrInvalidRounds", tt.rounds, err)
			}
			if d.Config().NumRounds != DefaultRounds {
				t.Errorf("SetRounds(%d) changed rounds after error", tt.rounds)
			}
			continue
		}
		if err != nil {
			t.Errorf("SetRounds(%d) error = %v", tt.rounds, err)
		}
		if d.Config().NumRounds != tt.rounds {
			t.Errorf("NumRounds = %d, want %d", d.Config().NumRounds, tt.rounds)
		}
	}
}

func TestDebate_Config(t *testing.T) {
	d := NewDebate()
	_ = d.SetFor("vector")
	_ = d.SetAgainst("beacon")
	d.SetModerator("Arbiter")

	cfg := d.Config()
	want := DebateConfig{DebaterFor: "vector", DebaterAgainst: "beacon", Moderator: "Arbiter", NumRounds: 3}
	if cfg != want {
		t.Errorf("Config() = %+v, want %+v", cfg, want)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestDebateConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     DebateConfig
		wantErr error
	}{
		{"missing side", DebateConfig{DebaterFor: "a", NumRounds: 3}, errors.ErrInvalidInput},
		{"same side", DebateConfig{DebaterFor: "a", DebaterAgainst: "a", NumRounds: 3}, errors.ErrSameDebater},
		{"bad rounds", DebateConfig{DebaterFor: "a", DebaterAgainst: "b", NumRounds: 9}, errors.ErrInvalidRounds},
		{"valid without moderator", DebateConfig{DebaterFor: "a", DebaterAgainst: "b", NumRounds: 1}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
