// Package logo selects the tenant logo shown in the report header.
package logo

import (
	"embed"
	"html/template"
	"strings"
)

//go:embed assets/*.svg
var assets embed.FS

// Variant identifies one of the bundled logos.
type Variant string

// Bundled logo variants, in match priority order.
const (
	FMMatrix Variant = "fm-matrix"
	Pulse    Variant = "pulse"
	Default  Variant = "default"
)

// hostname substrings checked in order; the first match wins.
var tenants = []struct {
	substring string
	variant   Variant
}{
	{"fm-matrix", FMMatrix},
	{"pulse", Pulse},
}

var markup = mustLoad(FMMatrix, Pulse, Default)

// Resolve maps a hostname to a logo variant. Matching is a case-insensitive
// substring test; unknown or empty hostnames resolve to Default.
func Resolve(hostname string) Variant {
	host := strings.ToLower(strings.TrimSpace(hostname))
	if host == "" {
		return Default
	}
	for _, t := range tenants {
		if strings.Contains(host, t.substring) {
			return t.variant
		}
	}
	return Default
}

// Markup returns the inline SVG for the logo matching hostname.
func Markup(hostname string) template.HTML {
	return markup[Resolve(hostname)]
}

// SVG returns the inline SVG for v, or the default mark for unknown variants.
func SVG(v Variant) template.HTML {
	if m, ok := markup[v]; ok {
		return m
	}
	return markup[Default]
}

func mustLoad(variants ...Variant) map[Variant]template.HTML {
	out := make(map[Variant]template.HTML, len(variants))
	for _, v := range variants {
		data, err := assets.ReadFile("assets/" + string(v) + ".svg")
		if err != nil {
			panic("logo: missing asset for " + string(v))
		}
		out[v] = template.HTML(strings.TrimSpace(string(data))) //nolint:gosec // bundled static asset
	}
	return out
}
