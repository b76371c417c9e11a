// Package vocab holds the fixed vocabulary tables the broadcast is built
// from: the sea-area geography, the wind and weather term pools, the
// Beaufort force names, and the supplementary warning messages. Everything
// in this package is immutable reference data; accessors return copies so
// callers can never corrupt the tables.
package vocab

import (
	"strings"

	"longwave/internal/types"
)

// standardAreaNames is the canonical ordered set of 31 sea areas, read in
// this order only for identity; broadcast order comes from the cycler's
// shuffle.
var standardAreaNames = []string{
	"Viking",
	"North Utsire",
	"South Utsire",
	"Forties",
	"Cromarty",
	"Forth",
	"Tyne",
	"Dogger",
	"Fisher",
	"German Bight",
	"Humber",
	"Thames",
	"Dover",
	"Wight",
	"Portland",
	"Plymouth",
	"Biscay",
	"Trafalgar",
	"FitzRoy",
	"Sole",
	"Lundy",
	"Fastnet",
	"Irish Sea",
	"Shannon",
	"Rockall",
	"Malin",
	"Hebrides",
	"Bailey",
	"Fair Isle",
	"Faeroes",
	"South-East Iceland",
}

// phantomAreaNames are the fictitious areas injected rarely for effect.
var phantomAreaNames = []string{
	"Greywater",
	"Silence Bank",
	"The Drowned Meadow",
	"The Unnumbered",
	"Lost Argosy",
	"Midnight Shoal",
	"The Forgetting",
}

// Wind vocabulary.
var (
	directions = []string{
		"northerly", "northeasterly", "easterly", "southeasterly",
		"southerly", "southwesterly", "westerly", "northwesterly",
		"cyclonic", "variable",
	}
	behaviors  = []string{"backing", "veering", "becoming cyclonic"}
	modifiers  = []string{"increasing", "decreasing", "occasionally severe"}
	timings    = []string{"later", "soon", "for a time", "at first"}
	connectors = []string{"to", "or"}
)

// Weather vocabulary.
var (
	precipModifiers = []string{
		"occasional", "intermittent", "squally", "wintry", "thundery", "heavy",
	}
	precipTypes  = []string{"rain", "drizzle", "showers", "sleet", "snow", "hail"}
	visibilities = []string{
		"good", "moderate", "poor", "very poor",
		"moderate or good", "poor or very poor",
	}
	icingSeverities = []string{"light icing", "moderate icing"}
)

// beaufortNames maps high wind forces to their traditional names. Forces
// 4-7 render as bare numbers and have no entry here.
var beaufortNames = map[int]string{
	8:  "gale",
	9:  "severe gale",
	10: "storm",
	11: "violent storm",
	12: "hurricane force",
}

// warningMessages is the fixed pool of supplementary messages spoken at a
// report boundary when the listener has been away for over a minute.
var warningMessages = []string{
	"Attention all shipping. The listening station has gone dark.",
	"This is a supplementary bulletin. No watch is being kept on this frequency.",
	"Attention. The forecast continues whether or not anyone receives it.",
	"A vessel is reported adrift. The operator has left the set unattended.",
	"Supplementary notice. The light at the listening post has not been seen for some time.",
	"Attention all stations. Transmissions are proceeding into an empty room.",
	"Notice to mariners. The shore contact has been lost and is presumed absent.",
	"This bulletin is repeated for any watchkeeper remaining.",
	"Attention. The sea areas continue in their order. The listener does not.",
	"Supplementary warning. No acknowledgement has been received from the shore.",
	"Attention all shipping. The forecast is being read to the dark.",
	"Final notice before resumption. The broadcast holds its course alone.",
}

// announcements are continuity lines spoken at lap boundaries. The %s verb
// is the issue time, formatted by the session.
var announcements = []string{
	"And now the Shipping Forecast, issued at %s for the waters that remain.",
	"The Shipping Forecast continues, issued at %s, on behalf of whoever is still listening.",
	"Here is the Shipping Forecast, issued at %s, without interruption, without end.",
}

// slugify derives the stable lowercase identifier for an area name.
func slugify(name string) string {
	s := strings.ToLower(name)
	s = strings.ReplaceAll(s, " ", "-")
	return s
}

// StandardAreas returns the 31 canonical sea areas in table order.
func StandardAreas() []types.SeaArea {
	out := make([]types.SeaArea, len(standardAreaNames))
	for i, name := range standardAreaNames {
		out[i] = types.SeaArea{Name: name, Kind: types.AreaStandard, ID: slugify(name)}
	}
	return out
}

// PhantomAreas returns the phantom areas in table order.
func PhantomAreas() []types.SeaArea {
	out := make([]types.SeaArea, len(phantomAreaNames))
	for i, name := range phantomAreaNames {
		out[i] = types.SeaArea{Name: name, Kind: types.AreaPhantom, ID: slugify(name)}
	}
	return out
}

// Directions returns the wind direction terms.
func Directions() []string { return copyStrings(directions) }

// Behaviors returns the wind behavior terms (backing, veering, ...).
func Behaviors() []string { return copyStrings(behaviors) }

// Modifiers returns the wind modifier terms.
func Modifiers() []string { return copyStrings(modifiers) }

// Timings returns the wind timing phrases.
func Timings() []string { return copyStrings(timings) }

// Connectors returns the compound-force connector terms.
func Connectors() []string { return copyStrings(connectors) }

// PrecipModifiers returns the precipitation modifier terms.
func PrecipModifiers() []string { return copyStrings(precipModifiers) }

// PrecipTypes returns the precipitation type terms.
func PrecipTypes() []string { return copyStrings(precipTypes) }

// Visibilities returns the visibility terms.
func Visibilities() []string { return copyStrings(visibilities) }

// IcingSeverities returns the icing severity terms.
func IcingSeverities() []string { return copyStrings(icingSeverities) }

// BeaufortName returns the traditional name for a high wind force, and
// whether the force has one. Forces 4-7 return false and render as bare
// numbers.
func BeaufortName(force int) (string, bool) {
	name, ok := beaufortNames[force]
	return name, ok
}

// WarningPool returns the supplementary warning messages. IDs are stable
// positional slugs so playback telemetry can name them.
func WarningPool() []types.WarningMessage {
	out := make([]types.WarningMessage, len(warningMessages))
	for i, text := range warningMessages {
		out[i] = types.WarningMessage{ID: warningID(i), Text: text}
	}
	return out
}

// warningID builds the stable positional identifier for a pool entry.
func warningID(i int) string {
	return "warning-" + string(rune('a'+i))
}

// Announcements returns the lap-boundary continuity lines.
func Announcements() []string { return copyStrings(announcements) }

func copyStrings(src []string) []string {
	out := make([]string, len(src))
	copy(out, src)
	return out
}
