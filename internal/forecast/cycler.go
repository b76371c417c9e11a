// Package forecast implements the procedural broadcast pipeline: the area
// cycle, the report generator with its text and speech-markup renderers,
// and the bounded buffer that decouples generation from playback pacing.
package forecast

import (
	"fmt"

	"longwave/internal/types"
)

// AreaCycler walks a shuffled permutation of the standard sea areas so each
// is visited exactly once per lap, with rare phantom-area interruptions.
// Phantom draws never touch the cursor and never count toward a lap; a
// repeat across a reshuffle boundary is accepted.
//
// The cycler is not safe for concurrent use; the broadcast loop is the
// single caller.
type AreaCycler struct {
	standard    []types.SeaArea
	phantom     []types.SeaArea
	phantomProb float64
	rng         Rand

	order  []types.SeaArea
	cursor int
}

// NewAreaCycler builds a cycler over the given area sets. phantomProb is
// the per-call probability of a phantom interruption; zero disables
// phantoms entirely. A nil rng falls back to the default source.
func NewAreaCycler(standard, phantom []types.SeaArea, phantomProb float64, rng Rand) (*AreaCycler, error) {
	if len(standard) == 0 {
		return nil, fmt.Errorf("area cycler needs at least one standard area")
	}
	if phantomProb < 0 || phantomProb >= 1 {
		return nil, fmt.Errorf("phantom probability %v outside [0,1)", phantomProb)
	}
	if rng == nil {
		rng = NewRand()
	}

	c := &AreaCycler{
		standard:    append([]types.SeaArea(nil), standard...),
		phantom:     append([]types.SeaArea(nil), phantom...),
		phantomProb: phantomProb,
		rng:         rng,
	}
	c.reshuffle()
	return c, nil
}

// reshuffle starts a new lap with a fresh Fisher-Yates permutation.
func (c *AreaCycler) reshuffle() {
	if c.order == nil {
		c.order = append([]types.SeaArea(nil), c.standard...)
	}
	c.rng.Shuffle(len(c.order), func(i, j int) {
		c.order[i], c.order[j] = c.order[j], c.order[i]
	})
	c.cursor = 0
}

// Next returns the area for the next report. With probability phantomProb
// it returns a uniformly drawn phantom area and leaves the standard cursor
// untouched; otherwise it advances through the current permutation,
// reshuffling when a lap completes.
func (c *AreaCycler) Next() types.SeaArea {
	if len(c.phantom) > 0 && c.phantomProb > 0 && c.rng.Float64() < c.phantomProb {
		return c.phantom[c.rng.IntN(len(c.phantom))]
	}

	if c.cursor == len(c.order) {
		c.reshuffle()
	}
	area := c.order[c.cursor]
	c.cursor++
	return area
}

// AtLapStart reports whether the next standard draw will be the first of
// its lap. The generator stamps the drawn report so playback can front it
// with a continuity announcement.
func (c *AreaCycler) AtLapStart() bool {
	return c.cursor == 0 || c.cursor == len(c.order)
}
