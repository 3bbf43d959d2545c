// Package schema maps topics to their display column order and titles.
// Configured tables are consulted in declaration order and the first entry
// whose prefix matches the topic wins; topics matching no entry fall back
// to the package defaults.
package schema

import (
	"strings"

	"github.com/krisvansteen/Dashboards/config"
)

// DefaultOrder is the process-wide fallback column order, matching the race
// timing feed this board was built for.
var DefaultOrder = []string{
	"Rang",
	"Rugnummer",
	"Naam",
	"Team",
	"AantalPassages",
	"RaceTijdStr",
	"AchterstandStr",
}

// DefaultTitles maps field names to display titles for the fallback order.
var DefaultTitles = map[string]string{
	"Rang":           "Positie",
	"Rugnummer":      "Nr",
	"Naam":           "Renner",
	"Team":           "Ploeg",
	"AantalPassages": "Passages",
	"RaceTijdStr":    "Tijd",
	"AchterstandStr": "Achterstand",
}

type entry struct {
	prefix string
	order  []string
	titles map[string]string
}

// Resolver resolves a topic to its configured column order and titles.
// It is immutable after construction and safe for unsynchronized concurrent
// use.
type Resolver struct {
	entries       []entry
	defaultOrder  []string
	defaultTitles map[string]string
}

// NewResolver builds a resolver from configured column tables. Entries are
// consulted in declaration order; if two prefixes both match a topic the
// first one wins. Tables without titles fall back to the default titles for
// fields that have one.
func NewResolver(tables []config.ColumnTable) *Resolver {
	r := &Resolver{
		defaultOrder:  DefaultOrder,
		defaultTitles: DefaultTitles,
	}
	for _, table := range tables {
		titles := table.Titles
		if titles == nil {
			titles = DefaultTitles
		}
		r.entries = append(r.entries, entry{
			prefix: table.Prefix,
			order:  table.Order,
			titles: titles,
		})
	}
	return r
}

// Resolve returns the column order and display titles for a topic. The first
// configured prefix that the topic starts with wins; no match returns the
// process-wide defaults. Returned values are copies, callers may mutate them
// freely.
func (r *Resolver) Resolve(topic string) ([]string, map[string]string) {
	for _, e := range r.entries {
		if strings.HasPrefix(topic, e.prefix) {
			return copyOrder(e.order), copyTitles(e.titles)
		}
	}
	return copyOrder(r.defaultOrder), copyTitles(r.defaultTitles)
}

func copyOrder(order []string) []string {
	out := make([]string, len(order))
	copy(out, order)
	return out
}

func copyTitles(titles map[string]string) map[string]string {
	out := make(map[string]string, len(titles))
	for k, v := range titles {
		out[k] = v
	}
	return out
}
