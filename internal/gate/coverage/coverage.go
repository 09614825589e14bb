// Package coverage diffs observed event traffic against the catalog, for
// finding event types that are emitted but have no schema yet.
package coverage

import (
	catalogpkg "github.com/pageloom/eventgate/internal/gate/catalog"
)

// Report summarizes which observed event types are missing from the catalog.
type Report struct {
	CatalogCount  int      `json:"catalog_count"`
	ObservedCount int      `json:"observed_count"`
	Unknown       []string `json:"unknown"`
	UnknownCount  int      `json:"unknown_count"`
}

// Diff reports the observed event types that have no catalog schema. Unknown
// preserves the first-seen order of observed and holds no duplicates;
// ObservedCount is the raw length of observed, duplicates included. Diff is a
// pure function.
func Diff(cat *catalogpkg.Catalog, observed []string) Report {
	known := make(map[string]struct{}, cat.Len())
	for _, eventType := range cat.Types() {
		known[eventType] = struct{}{}
	}

	seen := make(map[string]struct{})
	unknown := make([]string, 0)
	for _, name := range observed {
		if _, ok := known[name]; ok {
			continue
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		unknown = append(unknown, name)
	}

	return Report{
		CatalogCount:  cat.Len(),
		ObservedCount: len(observed),
		Unknown:       unknown,
		UnknownCount:  len(unknown),
	}
}
