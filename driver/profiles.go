package driver

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Profile is a named, reusable session request loaded from the profiles
// file. Prefs and caps values go through the same true/false coercion as
// PREF:/CAP: tokens.
type Profile struct {
	Browser        string            `yaml:"browser"`
	Headless       bool              `yaml:"headless"`
	ExecutablePath string            `yaml:"executable_path"`
	Args           []string          `yaml:"args"`
	Prefs          map[string]string `yaml:"prefs"`
	Caps           map[string]string `yaml:"caps"`
	BaseURL        string            `yaml:"base_url"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
}

// Profiles is the parsed profiles file.
type Profiles struct {
	Default  string             `yaml:"default"`
	Profiles map[string]Profile `yaml:"profiles"`
}

// LoadProfiles reads a YAML profiles file.
func LoadProfiles(path string) (*Profiles, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles file: %w", err)
	}
	var p Profiles
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("parse profiles file %s: %w", path, err)
	}
	return &p, nil
}

// Resolve returns the named profile, or the default one for an empty name.
// Unknown names fail listing what the file actually defines.
func (p *Profiles) Resolve(name string) (Profile, error) {
	if name == "" {
		name = p.Default
	}
	if name == "" {
		return Profile{}, fmt.Errorf("no profile name given and the profiles file sets no default")
	}
	profile, ok := p.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q: available profiles are %s", name, strings.Join(p.Names(), ", "))
	}
	return profile, nil
}

// Names returns the defined profile names, sorted.
func (p *Profiles) Names() []string {
	names := make([]string, 0, len(p.Profiles))
	for name := range p.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Request converts the profile into a session request. The option groups
// are re-encoded as a custom-options string so profile-based and
// string-based construction share one code path.
func (p Profile) Request() Request {
	var tokens []string
	for _, arg := range p.Args {
		tokens = append(tokens, argPrefix+arg)
	}
	for _, key := range sortedKeys(p.Prefs) {
		tokens = append(tokens, prefPrefix+key+"="+p.Prefs[key])
	}
	for _, key := range sortedKeys(p.Caps) {
		tokens = append(tokens, capPrefix+key+"="+p.Caps[key])
	}
	req := Request{
		Browser:        p.Browser,
		Headless:       p.Headless,
		ExecutablePath: p.ExecutablePath,
		CustomOptions:  strings.Join(tokens, ","),
		BaseURL:        p.BaseURL,
	}
	if p.TimeoutSeconds > 0 {
		req.DefaultTimeout = time.Duration(p.TimeoutSeconds) * time.Second
	}
	return req
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
