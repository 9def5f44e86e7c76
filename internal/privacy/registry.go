// Package privacy detects and redacts personally identifiable information in
// free text. All call sites share one detector registry; each call site selects
// the detectors it needs through a Scope.
package privacy

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed detectors.yaml
var embeddedDetectors []byte

// Category is the label of a PII detector (email, phone, ...).
type Category string

// Scope selects the subset of detectors used at a call site.
type Scope string

const (
	ScopeReport          Scope = "report"
	ScopeDonationMessage Scope = "donation_message"
	ScopeLog             Scope = "log"
)

func (s *Scope) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	switch Scope(raw) {
	case ScopeReport, ScopeDonationMessage, ScopeLog:
		*s = Scope(raw)
		return nil
	default:
		return fmt.Errorf("invalid detector scope: %q", raw)
	}
}

// Detector is one entry of the registry: a predicate plus a redaction transform.
type Detector struct {
	Name        Category `yaml:"name"`
	Description string   `yaml:"description"`
	Priority    int      `yaml:"priority"`
	Pattern     string   `yaml:"pattern"`
	Replacement string   `yaml:"replacement"`
	Scopes      []Scope  `yaml:"scopes"`

	re *regexp.Regexp
}

// Match reports whether the detector finds its pattern in text.
func (d *Detector) Match(text string) bool {
	return d.re.MatchString(text)
}

// Redact replaces every match in text with the detector's placeholder.
func (d *Detector) Redact(text string) string {
	return d.re.ReplaceAllString(text, d.Replacement)
}

type registryFile struct {
	Detectors []Detector `yaml:"detectors"`
}

// Registry is the compiled, priority-ordered set of detectors.
type Registry struct {
	detectors []Detector
	byScope   map[Scope][]*Detector
}

// LoadRegistry parses and compiles a detector table.
func LoadRegistry(data []byte) (*Registry, error) {
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal detector registry: %w", err)
	}
	if len(file.Detectors) == 0 {
		return nil, fmt.Errorf("detector registry is empty")
	}

	seen := make(map[Category]bool, len(file.Detectors))
	for i := range file.Detectors {
		d := &file.Detectors[i]
		if d.Name == "" {
			return nil, fmt.Errorf("detector %d has no name", i)
		}
		if seen[d.Name] {
			return nil, fmt.Errorf("duplicate detector %q", d.Name)
		}
		seen[d.Name] = true

		re, err := regexp.Compile(d.Pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to compile detector %q: %w", d.Name, err)
		}
		d.re = re
	}

	sort.SliceStable(file.Detectors, func(i, j int) bool {
		return file.Detectors[i].Priority < file.Detectors[j].Priority
	})

	r := &Registry{
		detectors: file.Detectors,
		byScope:   make(map[Scope][]*Detector),
	}
	for i := range r.detectors {
		d := &r.detectors[i]
		for _, s := range d.Scopes {
			r.byScope[s] = append(r.byScope[s], d)
		}
	}
	return r, nil
}

// DefaultRegistry compiles the embedded detector table.
func DefaultRegistry() (*Registry, error) {
	return LoadRegistry(embeddedDetectors)
}

// MustDefaultRegistry is DefaultRegistry for package-level initialisation.
// The embedded table is static, so a failure here is a build defect.
func MustDefaultRegistry() *Registry {
	r, err := DefaultRegistry()
	if err != nil {
		panic(err)
	}
	return r
}

// Detectors returns the detectors of a scope in priority order.
func (r *Registry) Detectors(scope Scope) []*Detector {
	return r.byScope[scope]
}

// Categories lists the category names available in a scope.
func (r *Registry) Categories(scope Scope) []Category {
	ds := r.byScope[scope]
	out := make([]Category, 0, len(ds))
	for _, d := range ds {
		out = append(out, d.Name)
	}
	return out
}

// Detect returns the categories of scope present in text, in priority order.
// No match yields an empty slice.
func (r *Registry) Detect(scope Scope, text string) []Category {
	return detect(r.byScope[scope], text)
}

func detect(detectors []*Detector, text string) []Category {
	if text == "" {
		return nil
	}
	var found []Category
	for _, d := range detectors {
		if d.Match(text) {
			found = append(found, d.Name)
		}
	}
	return found
}
