package logo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		hostname string
		want     Variant
	}{
		{"fm-matrix.example.com", FMMatrix},
		{"APP.FM-MATRIX.IO", FMMatrix},
		{"pulse.example.com", Pulse},
		{"fm-matrix-pulse.example.com", FMMatrix},
		{"localhost", Default},
		{"", Default},
		{"   ", Default},
	}

	for _, tt := range tests {
		t.Run(tt.hostname, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.hostname))
		})
	}
}

func TestMarkup(t *testing.T) {
	for _, v := range []Variant{FMMatrix, Pulse, Default} {
		m := string(SVG(v))
		assert.True(t, strings.HasPrefix(m, "<svg"), v)
	}

	assert.Contains(t, string(Markup("pulse.example.com")), `aria-label="Pulse"`)
	assert.Equal(t, SVG(Default), SVG(Variant("unknown")))
}
