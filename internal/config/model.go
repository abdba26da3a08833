package config

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// Model is the unified, format-agnostic representation of a plume
// configuration: the build profiles, the live deployment settings and the
// optional reload notification.
type Model struct {
	DefaultProfile string
	Profiles       map[string]*Profile
	Deploy         *Deploy
	Notify         *Notify

	// Sources lists the files the model was read from. It is empty when the
	// embedded defaults were used.
	Sources []string
}

// Profile describes one way of assembling the bundle: which files go in, in
// which order, and which ones are kept out.
type Profile struct {
	Name         string
	Description  string
	OutputPrefix string
	LogFile      string

	CSSDir   string
	JSDir    string
	HTMLDir  string
	BuildDir string

	CSSOrder  []string
	JSOrder   []string
	ModuleCSS []string

	// Ignored holds file names superseded by refactors. They are never picked
	// up as extras.
	Ignored []string
	// Exclude holds case-insensitive name fragments; a file whose name
	// contains one of them never reaches the output.
	Exclude []string
	// StripMenu holds the feature names whose menu entries are removed from
	// the body template.
	StripMenu []string
	// ExtraJS holds doublestar patterns, relative to the project root, for
	// scripts appended after the ordered list.
	ExtraJS []string

	SkipUnderscore bool
}

// Deploy holds the settings of the live mirror.
type Deploy struct {
	Profile        string
	LiveDir        string
	LogFile        string
	AssetDirs      []string
	LandingPage    string
	IndexOutput    string
	MTimeTolerance time.Duration
	// TrustMTime skips hashing equal-size files whose timestamps agree
	// within MTimeTolerance.
	TrustMTime     bool
	RemoveRetries  int
	RemoveDelay    time.Duration
}

// Notify configures the socket.io endpoint told about fresh deployments.
type Notify struct {
	URL       string
	Namespace string
	Event     string
	Timeout   time.Duration
}

// Profile returns the named profile. An empty name selects the default one.
func (m *Model) Profile(name string) (*Profile, error) {
	if name == "" {
		name = m.DefaultProfile
	}
	p, ok := m.Profiles[name]
	if !ok {
		return nil, fmt.Errorf("unknown profile %q (available: %s)", name, strings.Join(m.ProfileNames(), ", "))
	}
	return p, nil
}

// ProfileNames returns the profile names in lexical order.
func (m *Model) ProfileNames() []string {
	names := make([]string, 0, len(m.Profiles))
	for name := range m.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsIgnored reports whether a file name is on the superseded list.
func (p *Profile) IsIgnored(name string) bool {
	for _, ignored := range p.Ignored {
		if ignored == name {
			return true
		}
	}
	return false
}

// IsExcluded reports whether a path contains one of the exclusion
// fragments in its file name.
func (p *Profile) IsExcluded(name string) bool {
	lower := strings.ToLower(baseName(name))
	for _, fragment := range p.Exclude {
		if fragment != "" && strings.Contains(lower, strings.ToLower(fragment)) {
			return true
		}
	}
	return false
}
