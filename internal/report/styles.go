package report

import (
	_ "embed"
	"html/template"
)

//go:embed templates/styles.css
var stylesheet string

var styleBlock = "<style>\n" + stylesheet + "</style>"

// PageStyles returns the <style> block shared by the preview and PDF renderers.
func PageStyles() string {
	return styleBlock
}

func pageStylesHTML() template.HTML {
	return template.HTML(styleBlock) //nolint:gosec // embedded static stylesheet
}
