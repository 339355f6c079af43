// Package search implements the shortcut search over a catalog snapshot.
package search

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/dshills/keystrike/internal/shortcut"
)

// Search returns the definitions whose description contains query, ignoring
// case, in catalog order. An empty query matches nothing: results
// only appear once the user has typed something.
func Search(cat *shortcut.Catalog, query string) []shortcut.Definition {
	results := []shortcut.Definition{}
	if query == "" {
		return results
	}

	fold := cases.Fold()
	needle := fold.String(query)

	cat.Each(func(_ shortcut.Group, d shortcut.Definition) bool {
		if strings.Contains(fold.String(d.Description), needle) {
			results = append(results, d)
		}
		return true
	})
	return results
}

// Result pairs a definition with the name of the group it came from.
type Result struct {
	Group      string
	Definition shortcut.Definition
}

// SearchGroups is Search with group names attached, for display.
func SearchGroups(cat *shortcut.Catalog, query string) []Result {
	results := []Result{}
	if query == "" {
		return results
	}

	fold := cases.Fold()
	needle := fold.String(query)

	cat.Each(func(g shortcut.Group, d shortcut.Definition) bool {
		if strings.Contains(fold.String(d.Description), needle) {
			results = append(results, Result{Group: g.Name, Definition: d})
		}
		return true
	})
	return results
}
