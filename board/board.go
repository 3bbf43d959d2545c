package board

import (
	"sync"

	"github.com/krisvansteen/Dashboards/schema"
)

// Row is one record within a topic's current table. Field order for display
// comes from the topic's column schema, not from the map.
type Row map[string]any

// Snapshot is a point-in-time copy of the whole cache. Topics preserves
// first-seen order; Rows, Columns and Titles are keyed by topic.
type Snapshot struct {
	Topics  []string                     `json:"topics"`
	Rows    map[string][]Row             `json:"rows"`
	Columns map[string][]string          `json:"columns"`
	Titles  map[string]map[string]string `json:"titles"`
}

// entry pairs a topic's rows with the schema derived from the same update.
// The two are only ever written together.
type entry struct {
	rows    []Row
	columns []string
	titles  map[string]string
}

// Cache is the live topic store: one writer (the ingestion pipeline), many
// readers. Each Put fully replaces a topic's rows and schema under a single
// lock acquisition, so readers never observe a torn pair.
type Cache struct {
	resolver *schema.Resolver

	mu      sync.RWMutex
	entries map[string]*entry
	order   []string // first-seen topic order

	metrics *cacheMetrics
}

// Option configures a Cache.
type Option func(*Cache)

// NewCache creates an empty cache backed by the given resolver.
func NewCache(resolver *schema.Resolver, opts ...Option) *Cache {
	c := &Cache{
		resolver: resolver,
		entries:  make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Put stores the latest payload for a topic, replacing any prior value.
//
// A payload that is a non-empty JSON array of objects is stored as rows, and
// the topic's column schema becomes the resolver's base order filtered to the
// keys of the FIRST row (fields missing from the first row are dropped even
// if later rows carry them). Any other payload stores an empty row set with
// the unfiltered base order.
//
// Shaping and schema resolution happen before the write lock is taken.
func (c *Cache) Put(topic string, payload any) {
	baseOrder, titles := c.resolver.Resolve(topic)

	rows := shapeRows(payload)
	columns := baseOrder
	if len(rows) > 0 {
		columns = filterColumns(baseOrder, rows[0])
	}

	e := &entry{rows: rows, columns: columns, titles: titles}

	c.mu.Lock()
	if _, seen := c.entries[topic]; !seen {
		c.order = append(c.order, topic)
	}
	c.entries[topic] = e
	topics := len(c.entries)
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.recordPut(topic, topics)
	}
}

// Snapshot returns a point-in-time copy of the cache. Later mutations never
// affect the returned value. Non-finite numeric values are replaced with nil
// during the copy so they cannot leak into JSON output.
func (c *Cache) Snapshot() Snapshot {
	c.mu.RLock()

	snap := Snapshot{
		Topics:  make([]string, len(c.order)),
		Rows:    make(map[string][]Row, len(c.entries)),
		Columns: make(map[string][]string, len(c.entries)),
		Titles:  make(map[string]map[string]string, len(c.entries)),
	}
	copy(snap.Topics, c.order)

	for topic, e := range c.entries {
		snap.Rows[topic] = copyRows(e.rows)
		snap.Columns[topic] = copyStrings(e.columns)
		snap.Titles[topic] = copyStringMap(e.titles)
	}
	c.mu.RUnlock()

	if c.metrics != nil {
		c.metrics.recordSnapshot()
	}
	return snap
}

// Reset atomically clears all topics.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.entries = make(map[string]*entry)
	c.order = nil
	c.mu.Unlock()

	if c.metrics != nil {
		c.metrics.recordReset()
	}
}

// TopicCount returns the number of cached topics.
func (c *Cache) TopicCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// shapeRows converts a decoded payload into rows. Only a non-empty array
// whose elements are all objects counts as tabular; anything else yields an
// empty row set.
func shapeRows(payload any) []Row {
	items, ok := payload.([]any)
	if !ok || len(items) == 0 {
		return nil
	}

	rows := make([]Row, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil
		}
		rows = append(rows, Row(m))
	}
	return rows
}

// filterColumns keeps base-order fields present in the first row, preserving
// base order.
func filterColumns(baseOrder []string, first Row) []string {
	columns := make([]string, 0, len(baseOrder))
	for _, field := range baseOrder {
		if _, ok := first[field]; ok {
			columns = append(columns, field)
		}
	}
	return columns
}

func copyRows(rows []Row) []Row {
	out := make([]Row, len(rows))
	for i, row := range rows {
		copied := make(Row, len(row))
		for field, value := range row {
			copied[field] = sanitizeValue(value)
		}
		out[i] = copied
	}
	return out
}

func copyStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func copyStringMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
