package forecast

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"longwave/internal/types"
)

func fixedReport() *types.WeatherReport {
	return &types.WeatherReport{
		Area:          types.SeaArea{Name: "Dogger", Kind: types.AreaStandard, ID: "dogger"},
		Wind:          types.WindCondition{Direction: "northwesterly", Force: 6},
		Precipitation: types.Precipitation{Modifier: "occasional", Type: "rain"},
		Visibility:    "good",
		Timestamp:     time.Date(2026, 1, 12, 0, 48, 0, 0, time.UTC),
	}
}

// Render is deterministic: two calls on the same report are byte-identical.
func TestRenderTextDeterminism(t *testing.T) {
	r := fixedReport()
	r.Wind.Behavior = "veering"
	r.Icing = &types.Icing{Severity: "light icing"}
	r.VisibilityBecoming = "poor"

	first := RenderText(r)
	second := RenderText(r)
	assert.Equal(t, first, second)

	assert.Equal(t, RenderSSML(r), RenderSSML(r))
}

func TestRenderTextTemplate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*types.WeatherReport)
		want   string
	}{
		{
			name:   "minimal report",
			mutate: func(r *types.WeatherReport) {},
			want:   "Dogger. Northwesterly 6. Occasional rain. Good.",
		},
		{
			name: "all optional clauses",
			mutate: func(r *types.WeatherReport) {
				r.Wind.Behavior = "backing"
				r.Wind.Modifier = "increasing"
				r.Wind.Timing = "later"
				r.VisibilityBecoming = "poor"
				r.Icing = &types.Icing{Severity: "light icing"}
			},
			want: "Dogger. Northwesterly 6, backing, increasing later. Occasional rain. Good, becoming poor. Light icing.",
		},
		{
			name: "compound force below gale",
			mutate: func(r *types.WeatherReport) {
				r.Wind.Force = 4
				r.Wind.SecondForce = 5
				r.Wind.Connector = "to"
			},
			want: "Dogger. Northwesterly 4 to 5. Occasional rain. Good.",
		},
		{
			name: "compound force crossing into gale",
			mutate: func(r *types.WeatherReport) {
				r.Wind.Force = 7
				r.Wind.SecondForce = 9
				r.Wind.Connector = "to"
			},
			want: "Dogger. Northwesterly 7 to severe gale 9. Occasional rain. Good.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := fixedReport()
			tt.mutate(r)
			assert.Equal(t, tt.want, RenderText(r))
		})
	}
}

// Forces 8-12 render via Beaufort names; 4-7 as bare integers.
func TestBeaufortRendering(t *testing.T) {
	named := map[int]string{
		8:  "gale 8",
		9:  "severe gale 9",
		10: "storm 10",
		11: "violent storm 11",
		12: "hurricane force 12",
	}
	for force, want := range named {
		r := fixedReport()
		r.Wind.Force = force
		assert.Contains(t, RenderText(r), want, "force %d", force)
	}
	for force := 4; force <= 7; force++ {
		r := fixedReport()
		r.Wind.Force = force
		assert.Contains(t, RenderText(r), fmt.Sprintf("Northwesterly %d.", force))
	}
}

func TestSevereGaleSubstring(t *testing.T) {
	r := fixedReport()
	r.Wind.Force = 9
	require.NoError(t, r.Validate())
	assert.Contains(t, RenderText(r), "severe gale 9")
}
