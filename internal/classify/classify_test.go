package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		title       string
		description string
		contains    []string
	}{
		{name: "ai", title: "AI breakthrough in robotics", contains: []string{Technology}},
		{name: "stocks", title: "Stock market rally", contains: []string{Business}},
		{name: "space", title: "NASA telescope spots new galaxy", contains: []string{Science}},
		{name: "health", title: "New vaccine trial", description: "Hospital data shows results", contains: []string{Health}},
		{name: "climate", title: "Climate summit ends", contains: []string{Environment}},
		{name: "sports", title: "Champions League final", contains: []string{Sports}},
		{name: "description only", title: "", description: "The central bank raised the interest rate", contains: []string{Business}},
		{name: "multiple", title: "AI startup shares soar on Wall Street", contains: []string{Technology, Business}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.title, tt.description)
			for _, c := range tt.contains {
				assert.Contains(t, got, c)
			}
		})
	}
}

func TestClassify_Empty(t *testing.T) {
	got := Classify("", "")

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestClassify_WordBoundary(t *testing.T) {
	got := Classify("He said it again", "")

	assert.NotContains(t, got, Technology)
}

func TestClassify_Deterministic(t *testing.T) {
	first := Classify("AI startup shares soar as climate tech funds grow", "")

	for i := 0; i < 20; i++ {
		assert.Equal(t, first, Classify("AI startup shares soar as climate tech funds grow", ""))
	}
}

func TestClassify_OnlyKnownCategories(t *testing.T) {
	got := Classify("Football club signs AI company sponsor after vaccine research", "")

	for _, c := range got {
		assert.Contains(t, AllCategories(), c)
	}
}
