package session

import (
	"log/slog"
	"slices"
)

// NumSlots is the number of animation keys, '0' through '9'.
const NumSlots = 10

// Blocklist holds test animations that misbehave when played remotely.
var Blocklist = []string{
	"ANIMATION_TEST",
	"soundTestAnim",
}

// DefaultAnimationsForKeys is the initial animation for each digit key.
var DefaultAnimationsForKeys = [NumSlots]string{
	"anim_turn_left_01",                      // 0
	"anim_blackjack_victorwin_01",            // 1
	"anim_pounce_success_02",                 // 2
	"anim_feedback_shutup_01",                // 3
	"anim_knowledgegraph_success_01",         // 4
	"anim_wakeword_groggyeyes_listenloop_01", // 5
	"anim_fistbump_success_01",               // 6
	"anim_reacttoface_unidentified_01",       // 7
	"anim_rtpickup_loop_10",                  // 8
	"anim_volume_stage_05",                   // 9
}

// Catalog is the sorted, deduplicated list of playable animation names.
type Catalog struct {
	names []string
}

// NewCatalog builds a catalog from the robot's animation list.
func NewCatalog(names []string) *Catalog {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n == "" || slices.Contains(Blocklist, n) {
			continue
		}
		out = append(out, n)
	}
	slices.Sort(out)
	return &Catalog{names: slices.Compact(out)}
}

// Len returns the number of animations.
func (c *Catalog) Len() int { return len(c.names) }

// Names returns a copy of the animation names.
func (c *Catalog) Names() []string { return slices.Clone(c.names) }

// Name returns the animation at index i.
func (c *Catalog) Name(i int) (string, bool) {
	if i < 0 || i >= len(c.names) {
		return "", false
	}
	return c.names[i], true
}

// Index returns the position of name, or -1.
func (c *Catalog) Index(name string) int {
	i, ok := slices.BinarySearch(c.names, name)
	if !ok {
		return -1
	}
	return i
}

// Bindings maps each digit key to a catalog index.
type Bindings [NumSlots]int

// DefaultBindings resolves DefaultAnimationsForKeys against the catalog.
// A missing default falls back to the slot's own index, or 0 when the
// catalog is too short for that.
func DefaultBindings(c *Catalog, logger *slog.Logger) Bindings {
	var b Bindings
	for slot, name := range DefaultAnimationsForKeys {
		idx := c.Index(name)
		if idx < 0 {
			idx = slot
			if idx >= c.Len() {
				idx = 0
			}
			if logger != nil {
				logger.Warn("default animation not in catalog", "slot", slot, "animation", name, "fallback_index", idx)
			}
		}
		b[slot] = idx
	}
	return b
}
