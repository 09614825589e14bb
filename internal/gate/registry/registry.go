// Package registry is the documentation-facing twin of the catalog. It keys
// the same schemas by human-readable name and carries domain tags,
// descriptions, and fixture-based regression checks. The registry is used for
// reporting and tooling, never for runtime dispatch.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	schemapkg "github.com/pageloom/eventgate/internal/gate/schema"
)

// Entry describes one registered schema.
type Entry struct {
	// Name is the human-readable registry key, e.g. "HealthCheck". It is a
	// separate namespace from the wire event type.
	Name        string           `json:"name"`
	Schema      schemapkg.Schema `json:"-"`
	Domain      string           `json:"domain"`
	Version     string           `json:"version,omitempty"`
	Description string           `json:"description,omitempty"`
	Tags        []string         `json:"tags,omitempty"`
}

// Registry holds entries in declaration order. Like the catalog it is
// immutable after construction.
type Registry struct {
	entries map[string]Entry
	names   []string
}

// New builds a registry from the given entries. Entries with an empty name,
// a nil schema, or a duplicate name are rejected.
func New(entries ...Entry) (*Registry, error) {
	r := &Registry{
		entries: make(map[string]Entry, len(entries)),
		names:   make([]string, 0, len(entries)),
	}
	for i, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("eventgate: registry entry %d has no name", i)
		}
		if e.Schema == nil {
			return nil, fmt.Errorf("eventgate: registry entry %q has no schema", e.Name)
		}
		if _, dup := r.entries[e.Name]; dup {
			return nil, fmt.Errorf("eventgate: duplicate registry entry %q", e.Name)
		}
		r.entries[e.Name] = e
		r.names = append(r.names, e.Name)
	}
	return r, nil
}

// MustNew is New that panics on error, for static registry declarations.
func MustNew(entries ...Entry) *Registry {
	r, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return r
}

// Entry returns the entry registered under name.
func (r *Registry) Entry(name string) (Entry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

// Names returns the registered names in declaration order. The slice is a
// copy.
func (r *Registry) Names() []string {
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// Len returns the number of registered entries.
func (r *Registry) Len() int { return len(r.names) }

// Stats summarizes the registry for coverage reporting.
type Stats struct {
	Registered int            `json:"registered"`
	Domains    map[string]int `json:"domains"`
	Discovered int            `json:"discovered,omitempty"`
	// CoveragePct is registered/discovered as a percentage; zero when no
	// discovered count was supplied.
	CoveragePct float64 `json:"coverage_pct,omitempty"`
}

// Stats computes per-domain counts and, when discovered is positive, the
// share of discovered schema sources that made it into the registry.
func (r *Registry) Stats(discovered int) Stats {
	stats := Stats{
		Registered: len(r.names),
		Domains:    make(map[string]int),
		Discovered: discovered,
	}
	for _, name := range r.names {
		stats.Domains[r.entries[name].Domain]++
	}
	if discovered > 0 {
		stats.CoveragePct = float64(stats.Registered) / float64(discovered) * 100
	}
	return stats
}

// FixtureFailure names a fixture that did not validate and why.
type FixtureFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// FixtureReport is the outcome of a ValidateFixtures run.
type FixtureReport struct {
	// TotalFixtures counts the fixture files found; entries without a
	// fixture file are skipped and do not appear here.
	TotalFixtures int              `json:"total_fixtures"`
	Validated     int              `json:"validated"`
	Failures      []FixtureFailure `json:"failures"`
}

// OK reports whether every found fixture validated.
func (r FixtureReport) OK() bool { return len(r.Failures) == 0 }

// ValidateFixtures reads one JSON fixture per entry from dir, named
// <Name>.json, and validates each against its schema. A missing fixture is
// skipped; an unreadable or invalid fixture becomes a failure entry. The
// returned error is non-nil only when dir itself is unusable.
func (r *Registry) ValidateFixtures(dir string) (FixtureReport, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return FixtureReport{}, fmt.Errorf("eventgate: fixtures directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return FixtureReport{}, fmt.Errorf("eventgate: fixtures path %q is not a directory", dir)
	}

	report := FixtureReport{Failures: []FixtureFailure{}}
	for _, name := range r.names {
		data, err := os.ReadFile(filepath.Join(dir, name+".json"))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}

		report.TotalFixtures++
		if err != nil {
			report.Failures = append(report.Failures, FixtureFailure{Name: name, Error: err.Error()})
			continue
		}

		if _, issues := r.entries[name].Schema.Parse(data); len(issues) > 0 {
			report.Failures = append(report.Failures, FixtureFailure{Name: name, Error: joinIssues(issues)})
			continue
		}
		report.Validated++
	}
	return report, nil
}

func joinIssues(issues []schemapkg.Issue) string {
	parts := make([]string, len(issues))
	for i, issue := range issues {
		parts[i] = issue.String()
	}
	return strings.Join(parts, "; ")
}
