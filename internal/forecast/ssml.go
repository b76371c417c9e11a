package forecast

import (
	"strings"

	"longwave/internal/types"
)

// Speech-markup prosody settings. Standard areas read at the measured
// baseline rate; phantom areas slow down and drop in pitch so the listener
// hears that something is off.
const (
	standardRate = "0.85"
	phantomRate  = "0.7"
	phantomPitch = "-15%"
	areaBreak    = "600ms"
)

// xmlEscaper covers the five XML special characters. Every interpolated
// string passes through it before entering the markup.
var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

// RenderSSML produces the speech-markup reading of a report. Like
// RenderText it is a pure function of the report's fields. The area name
// gets strong emphasis followed by a fixed pause; the remaining clauses
// read continuously inside one prosody element.
func RenderSSML(r *types.WeatherReport) string {
	var b strings.Builder
	b.WriteString("<speak>")

	if r.Area.IsPhantom() {
		b.WriteString(`<prosody rate="` + phantomRate + `" pitch="` + phantomPitch + `">`)
	} else {
		b.WriteString(`<prosody rate="` + standardRate + `">`)
	}

	b.WriteString(`<emphasis level="strong">`)
	b.WriteString(xmlEscaper.Replace(r.Area.Name))
	b.WriteString(`</emphasis>`)
	b.WriteString(`<break time="` + areaBreak + `"/>`)

	clauses := []string{
		windClause(r.Wind),
		precipitationClause(r.Precipitation),
		visibilityClause(r),
	}
	if r.Icing != nil {
		clauses = append(clauses, capitalize(r.Icing.Severity))
	}
	b.WriteString(xmlEscaper.Replace(strings.Join(clauses, ". ") + "."))

	b.WriteString("</prosody>")
	b.WriteString("</speak>")
	return b.String()
}

// RenderMessageSSML wraps free-form spoken text (warnings, continuity
// announcements) in the baseline prosody.
func RenderMessageSSML(text string) string {
	var b strings.Builder
	b.WriteString("<speak>")
	b.WriteString(`<prosody rate="` + standardRate + `">`)
	b.WriteString(xmlEscaper.Replace(text))
	b.WriteString("</prosody>")
	b.WriteString("</speak>")
	return b.String()
}
