package forecast

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"longwave/internal/types"
	"longwave/internal/vocab"
)

// RenderText produces the canonical plain-text reading of a report. It is a
// pure function of the report's fields: calling it twice on the same report
// yields byte-identical output.
//
// Clause order and punctuation are fixed:
//
//	Area. Wind[, behavior][, modifier][ timing]. Precipitation.
//	Visibility[, becoming X]. [Icing.]
func RenderText(r *types.WeatherReport) string {
	clauses := []string{
		r.Area.Name,
		windClause(r.Wind),
		precipitationClause(r.Precipitation),
		visibilityClause(r),
	}
	if r.Icing != nil {
		clauses = append(clauses, capitalize(r.Icing.Severity))
	}
	return strings.Join(clauses, ". ") + "."
}

// windClause renders the wind condition: direction, force label(s), then
// the optional descriptors in their fixed order.
func windClause(w types.WindCondition) string {
	var b strings.Builder
	b.WriteString(capitalize(w.Direction))
	b.WriteByte(' ')
	b.WriteString(forceLabel(w.Force))
	if w.IsCompound() {
		b.WriteByte(' ')
		b.WriteString(w.Connector)
		b.WriteByte(' ')
		b.WriteString(forceLabel(w.SecondForce))
	}
	if w.Behavior != "" {
		b.WriteString(", ")
		b.WriteString(w.Behavior)
	}
	if w.Modifier != "" {
		b.WriteString(", ")
		b.WriteString(w.Modifier)
	}
	if w.Timing != "" {
		b.WriteByte(' ')
		b.WriteString(w.Timing)
	}
	return b.String()
}

// forceLabel renders a single Beaufort force: named for 8-12 ("gale 8"),
// a bare number for 4-7.
func forceLabel(force int) string {
	if name, ok := vocab.BeaufortName(force); ok {
		return name + " " + strconv.Itoa(force)
	}
	return strconv.Itoa(force)
}

func precipitationClause(p types.Precipitation) string {
	return capitalize(p.Modifier) + " " + p.Type
}

func visibilityClause(r *types.WeatherReport) string {
	clause := capitalize(r.Visibility)
	if r.VisibilityBecoming != "" {
		clause += ", becoming " + r.VisibilityBecoming
	}
	return clause
}

// capitalize upper-cases the first rune only; vocabulary terms are stored
// lowercase.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	first, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(first)) + s[size:]
}
