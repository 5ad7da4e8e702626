package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapacity(t *testing.T) {
	assert.Equal(t, 52, Capacity())
}

func TestGenerator_Generate(t *testing.T) {
	g := NewSeededGenerator(1)

	p, err := g.Generate(nil)
	require.NoError(t, err)

	assert.Contains(t, Circumstances, p.Circumstances)

	matched := false
	for _, category := range Categories {
		if strings.HasPrefix(p.ThingDiscovered, category+" ") {
			location := strings.TrimPrefix(p.ThingDiscovered, category+" ")
			if assert.Contains(t, Locations, location) {
				matched = true
			}
		}
	}
	assert.True(t, matched, "thing discovered %q is not category + location", p.ThingDiscovered)
}

func TestGenerator_NeverRepeatsWithinPlanet(t *testing.T) {
	g := NewSeededGenerator(42)

	var existing []string
	seen := make(map[string]bool)
	for i := 0; i < Capacity(); i++ {
		p, err := g.Generate(existing)
		require.NoError(t, err)
		require.False(t, seen[p.ThingDiscovered], "duplicate %q at draw %d", p.ThingDiscovered, i)
		seen[p.ThingDiscovered] = true
		existing = append(existing, p.ThingDiscovered)
	}
	assert.Len(t, seen, Capacity())

	_, err := g.Generate(existing)
	assert.ErrorIs(t, err, ErrPromptsExhausted)
}

func TestGenerator_LastRemainingCombination(t *testing.T) {
	g := NewSeededGenerator(7)

	var existing []string
	for _, category := range Categories {
		for _, location := range Locations {
			existing = append(existing, category+" "+location)
		}
	}
	last := existing[len(existing)-1]
	existing = existing[:len(existing)-1]

	for i := 0; i < 5; i++ {
		p, err := g.Generate(existing)
		require.NoError(t, err)
		assert.Equal(t, last, p.ThingDiscovered)
	}
}

func TestGenerator_SuggestThingsToDiscover(t *testing.T) {
	g := NewSeededGenerator(3)
	for i := 0; i < 100; i++ {
		n := g.SuggestThingsToDiscover()
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, 6)
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name          string
		circumstances string
		thing         string
		want          bool
	}{
		{"Generated pair", "You come upon it suddenly", "A ruin on a glacier", true},
		{"Longest pair", "You find it after an arduous journey", "A plant or other immobile form of life on the snowy peak of a mountain", true},
		{"Unknown circumstances", "While walking", "A ruin on a glacier", false},
		{"Category only", "You come upon it suddenly", "A ruin", false},
		{"Unknown location", "You come upon it suddenly", "A ruin on the moon", false},
		{"Swapped fields", "A ruin on a glacier", "You come upon it suddenly", false},
		{"Empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValid(tt.circumstances, tt.thing))
		})
	}

	g := NewSeededGenerator(5)
	for i := 0; i < 20; i++ {
		p, err := g.Generate(nil)
		require.NoError(t, err)
		assert.True(t, IsValid(p.Circumstances, p.ThingDiscovered), "generated %+v", p)
	}
}

// Discovery stores circumstances in 40 and things in 70 characters.
func TestPromptsFitDiscoveryColumns(t *testing.T) {
	for _, c := range Circumstances {
		assert.LessOrEqual(t, len(c), 40, c)
	}
	for _, category := range Categories {
		for _, location := range Locations {
			thing := category + " " + location
			assert.LessOrEqual(t, len(thing), 70, thing)
		}
	}
}
