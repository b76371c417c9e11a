package forecast

import (
	"fmt"
	"time"

	"longwave/internal/types"
	"longwave/internal/vocab"
)

// Probabilities holds the Bernoulli weights for the optional report
// clauses. Each draw is independent; none are mutually exclusive.
type Probabilities struct {
	CompoundForce      float64
	WindBehavior       float64
	WindModifier       float64
	WindTiming         float64
	Icing              float64
	VisibilityBecoming float64
}

// DefaultProbabilities returns the weights observed in the original
// broadcast.
func DefaultProbabilities() Probabilities {
	return Probabilities{
		CompoundForce:      0.15,
		WindBehavior:       0.20,
		WindModifier:       0.15,
		WindTiming:         0.12,
		Icing:              0.10,
		VisibilityBecoming: 0.10,
	}
}

// ReportGenerator synthesizes complete, renderable weather reports. All
// randomness resolves inside Generate; the resulting report renders
// deterministically forever after.
type ReportGenerator struct {
	cycler *AreaCycler
	rng    Rand
	probs  Probabilities
	now    func() time.Time

	directions      []string
	behaviors       []string
	modifiers       []string
	timings         []string
	connectors      []string
	precipModifiers []string
	precipTypes     []string
	visibilities    []string
	icingSeverities []string
}

// GeneratorOption customizes a ReportGenerator.
type GeneratorOption func(*ReportGenerator)

// WithProbabilities overrides the default clause weights.
func WithProbabilities(p Probabilities) GeneratorOption {
	return func(g *ReportGenerator) { g.probs = p }
}

// WithNowFunc overrides the timestamp source, for tests.
func WithNowFunc(now func() time.Time) GeneratorOption {
	return func(g *ReportGenerator) { g.now = now }
}

// NewReportGenerator builds a generator over the given cycler. A nil rng
// falls back to the default source.
func NewReportGenerator(cycler *AreaCycler, rng Rand, opts ...GeneratorOption) (*ReportGenerator, error) {
	if cycler == nil {
		return nil, fmt.Errorf("report generator needs an area cycler")
	}
	if rng == nil {
		rng = NewRand()
	}

	g := &ReportGenerator{
		cycler:          cycler,
		rng:             rng,
		probs:           DefaultProbabilities(),
		now:             time.Now,
		directions:      vocab.Directions(),
		behaviors:       vocab.Behaviors(),
		modifiers:       vocab.Modifiers(),
		timings:         vocab.Timings(),
		connectors:      vocab.Connectors(),
		precipModifiers: vocab.PrecipModifiers(),
		precipTypes:     vocab.PrecipTypes(),
		visibilities:    vocab.Visibilities(),
		icingSeverities: vocab.IcingSeverities(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate draws the next area and a full set of conditions, then renders
// both the plain-text and speech-markup variants. A structurally invalid
// report is a programming defect and surfaces as an error immediately.
func (g *ReportGenerator) Generate() (*types.WeatherReport, error) {
	atLapStart := g.cycler.AtLapStart()
	area := g.cycler.Next()

	report := &types.WeatherReport{
		Area:          area,
		OpensLap:      area.Kind == types.AreaStandard && atLapStart,
		Wind:          g.drawWind(),
		Precipitation: g.drawPrecipitation(),
		Icing:         g.drawIcing(),
		Timestamp:     g.now().UTC(),
	}
	g.drawVisibility(report)

	if err := report.Validate(); err != nil {
		return nil, err
	}

	report.RenderedText = RenderText(report)
	report.RenderedSSML = RenderSSML(report)
	return report, nil
}

// drawWind resolves the wind clause. A compound force starts from a base
// of 4-8 and adds 1 or 2; a single force spans 4-12.
func (g *ReportGenerator) drawWind() types.WindCondition {
	wind := types.WindCondition{
		Direction: g.pick(g.directions),
	}

	if g.rng.Float64() < g.probs.CompoundForce {
		wind.Force = 4 + g.rng.IntN(5)
		wind.SecondForce = wind.Force + 1 + g.rng.IntN(2)
		wind.Connector = g.pick(g.connectors)
	} else {
		wind.Force = 4 + g.rng.IntN(9)
	}

	if g.rng.Float64() < g.probs.WindBehavior {
		wind.Behavior = g.pick(g.behaviors)
	}
	if g.rng.Float64() < g.probs.WindModifier {
		wind.Modifier = g.pick(g.modifiers)
	}
	if g.rng.Float64() < g.probs.WindTiming {
		wind.Timing = g.pick(g.timings)
	}
	return wind
}

// drawPrecipitation is always present: one modifier term, one type term.
func (g *ReportGenerator) drawPrecipitation() types.Precipitation {
	return types.Precipitation{
		Modifier: g.pick(g.precipModifiers),
		Type:     g.pick(g.precipTypes),
	}
}

func (g *ReportGenerator) drawIcing() *types.Icing {
	if g.rng.Float64() < g.probs.Icing {
		return &types.Icing{Severity: g.pick(g.icingSeverities)}
	}
	return nil
}

func (g *ReportGenerator) drawVisibility(report *types.WeatherReport) {
	report.Visibility = g.pick(g.visibilities)
	if g.rng.Float64() < g.probs.VisibilityBecoming {
		report.VisibilityBecoming = g.pick(g.visibilities)
	}
}

func (g *ReportGenerator) pick(terms []string) string {
	return terms[g.rng.IntN(len(terms))]
}
