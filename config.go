package gatelab

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

//go:embed profiles.toml
var builtinProfilesTOML []byte

type profileFile struct {
	Profiles map[string]*Profile `toml:"profiles"`
}

// LoadProfiles decodes and validates every profile in r, keyed by table name.
func LoadProfiles(r io.Reader) (map[string]*Profile, error) {
	var f profileFile
	dec := toml.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProfile, err)
	}
	for key, p := range f.Profiles {
		if p == nil {
			return nil, fmt.Errorf("%w: %s: empty table", ErrInvalidProfile, key)
		}
		p.Key = key
		if p.Name == "" {
			p.Name = key
		}
		if err := p.Validate(); err != nil {
			return nil, err
		}
	}
	return f.Profiles, nil
}

var (
	builtinOnce sync.Once
	builtin     map[string]*Profile
)

// BuiltinProfiles returns fresh copies of the embedded profiles.
func BuiltinProfiles() map[string]*Profile {
	builtinOnce.Do(func() {
		var err error
		builtin, err = LoadProfiles(bytes.NewReader(builtinProfilesTOML))
		if err != nil {
			panic(fmt.Sprintf("embedded profiles: %v", err))
		}
	})
	out := make(map[string]*Profile, len(builtin))
	for k, p := range builtin {
		out[k] = p.Clone()
	}
	return out
}

// BuiltinProfile returns a copy of one embedded profile, or nil.
func BuiltinProfile(key string) *Profile {
	return BuiltinProfiles()[key]
}

// LoadProfileFile overlays the profiles in path onto the built-ins.
// An empty path yields the built-ins alone.
func LoadProfileFile(path string) (map[string]*Profile, error) {
	profiles := BuiltinProfiles()
	if path == "" {
		return profiles, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	user, err := LoadProfiles(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	maps.Copy(profiles, user)
	return profiles, nil
}

// ProfileKeys lists profile keys in sorted order.
func ProfileKeys(profiles map[string]*Profile) []string {
	return slices.Sorted(maps.Keys(profiles))
}
