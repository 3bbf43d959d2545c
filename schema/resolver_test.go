package schema

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisvansteen/Dashboards/config"
)

func TestResolve_NoMatchReturnsDefaults(t *testing.T) {
	r := NewResolver(nil)

	order, titles := r.Resolve("anything/at/all")
	assert.Equal(t, DefaultOrder, order)
	assert.Equal(t, DefaultTitles, titles)
}

func TestResolve_PrefixMatch(t *testing.T) {
	r := NewResolver([]config.ColumnTable{
		{
			Prefix: "race/sprint",
			Order:  []string{"Rugnummer", "Naam"},
			Titles: map[string]string{"Rugnummer": "Nr"},
		},
		{
			Prefix: "race/",
			Order:  []string{"Rang", "Rugnummer"},
		},
	})

	order, titles := r.Resolve("race/sprint/final")
	assert.Equal(t, []string{"Rugnummer", "Naam"}, order)
	assert.Equal(t, map[string]string{"Rugnummer": "Nr"}, titles)

	// Falls through to the broader prefix
	order, _ = r.Resolve("race/pass")
	assert.Equal(t, []string{"Rang", "Rugnummer"}, order)
}

func TestResolve_DeclarationOrderBreaksTies(t *testing.T) {
	r := NewResolver([]config.ColumnTable{
		{Prefix: "race/", Order: []string{"First"}},
		{Prefix: "race/pass", Order: []string{"Second"}},
	})

	// Both prefixes match; the first declared entry wins.
	order, _ := r.Resolve("race/pass")
	assert.Equal(t, []string{"First"}, order)
}

func TestResolve_MissingTitlesFallBackToDefaults(t *testing.T) {
	r := NewResolver([]config.ColumnTable{
		{Prefix: "race/", Order: []string{"Rang", "Naam"}},
	})

	_, titles := r.Resolve("race/pass")
	assert.Equal(t, "Positie", titles["Rang"])
	assert.Equal(t, "Renner", titles["Naam"])
}

func TestResolve_ReturnsCopies(t *testing.T) {
	r := NewResolver([]config.ColumnTable{
		{
			Prefix: "race/",
			Order:  []string{"Rang"},
			Titles: map[string]string{"Rang": "Positie"},
		},
	})

	order, titles := r.Resolve("race/pass")
	order[0] = "mutated"
	titles["Rang"] = "mutated"

	order2, titles2 := r.Resolve("race/pass")
	assert.Equal(t, []string{"Rang"}, order2)
	assert.Equal(t, "Positie", titles2["Rang"])
}

func TestResolve_ConcurrentUse(t *testing.T) {
	r := NewResolver([]config.ColumnTable{
		{Prefix: "race/", Order: []string{"Rang", "Rugnummer"}},
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				order, titles := r.Resolve("race/pass")
				require.Len(t, order, 2)
				require.NotNil(t, titles)
			}
		}()
	}
	wg.Wait()
}
