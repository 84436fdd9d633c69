package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Profile is one named, recently-opened byte source: the file path to
// reopen and the grammar it was last parsed with.
type Profile struct {
	Path    string `toml:"path"`
	Grammar string `toml:"grammar"`
}

// Profiles is the legacy hexbait.toml document: a set of named profiles a
// user can switch between without retyping a path and grammar, one level
// up from a single session's Config.
type Profiles struct {
	Profiles map[string]Profile `toml:"profiles"`
}

// LoadProfiles reads path as a TOML profiles document. A missing file
// yields an empty Profiles rather than an error, matching LoadKDL's
// absent-file behavior.
func LoadProfiles(path string) (*Profiles, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Profiles{Profiles: map[string]Profile{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var p Profiles
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if p.Profiles == nil {
		p.Profiles = map[string]Profile{}
	}
	return &p, nil
}

// Save writes p back out to path in TOML form, used after a session adds or
// updates a named profile.
func (p *Profiles) Save(path string) error {
	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode profiles: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Get looks up a profile by name.
func (p *Profiles) Get(name string) (Profile, bool) {
	prof, ok := p.Profiles[name]
	return prof, ok
}

// Set adds or replaces a named profile.
func (p *Profiles) Set(name string, prof Profile) {
	if p.Profiles == nil {
		p.Profiles = map[string]Profile{}
	}
	p.Profiles[name] = prof
}
