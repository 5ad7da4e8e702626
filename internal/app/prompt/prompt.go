package prompt

import (
	"errors"
	"math/rand"
	"slices"
	"strings"
	"sync"
	"time"
)

var ErrPromptsExhausted = errors.New("every discovery prompt has already been used on this planet")

var Circumstances = []string{
	"You find it after an arduous journey",
	"You come upon it suddenly",
	"You spot it as you are resting",
}

var Categories = []string{
	"A living being",
	"A plant or other immobile form of life",
	"A ruin",
	"A natural phenomenon",
}

var Locations = []string{
	"in a field taller than you",
	"under the light of the moon(s)",
	"by a gentle river",
	"in a steep canyon",
	"in a treetop",
	"on the snowy peak of a mountain",
	"near a volcano",
	"on a glacier",
	"deep underground",
	"on a cliff face",
	"in the desert",
	"in deep water",
	"floating in the air",
}

// Prompt is the randomly generated part of a discovery.
type Prompt struct {
	Circumstances   string
	ThingDiscovered string
}

// Generator draws prompts. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewGenerator() *Generator {
	return NewSeededGenerator(time.Now().UnixNano())
}

// NewSeededGenerator returns a deterministic generator.
func NewSeededGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Capacity is the number of distinct things that can be discovered on one planet.
func Capacity() int {
	return len(Categories) * len(Locations)
}

// IsValid reports whether circumstances and thing could have been drawn by Generate.
func IsValid(circumstances, thing string) bool {
	if !slices.Contains(Circumstances, circumstances) {
		return false
	}
	for _, category := range Categories {
		if location, ok := strings.CutPrefix(thing, category+" "); ok && slices.Contains(Locations, location) {
			return true
		}
	}
	return false
}

// Generate picks a circumstance and a thing discovered that is not in existing.
// The thing is uniform over the unused category/location combinations.
func (g *Generator) Generate(existing []string) (Prompt, error) {
	used := make(map[string]struct{}, len(existing))
	for _, thing := range existing {
		used[thing] = struct{}{}
	}

	candidates := make([]string, 0, Capacity())
	for _, category := range Categories {
		for _, location := range Locations {
			thing := category + " " + location
			if _, ok := used[thing]; !ok {
				candidates = append(candidates, thing)
			}
		}
	}
	if len(candidates) == 0 {
		return Prompt{}, ErrPromptsExhausted
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	return Prompt{
		Circumstances:   Circumstances[g.rng.Intn(len(Circumstances))],
		ThingDiscovered: candidates[g.rng.Intn(len(candidates))],
	}, nil
}

// SuggestThingsToDiscover proposes a number of discoveries for a new planet.
func (g *Generator) SuggestThingsToDiscover() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return 1 + g.rng.Intn(6)
}
