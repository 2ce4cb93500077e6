package dispatch_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/civicpulse/civic-report-api/dispatch"
)

func TestCloseness(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{name: "exact match", a: "Elm St", b: "Elm St", want: 1},
		{name: "case and whitespace folded", a: "  ELM   st ", b: "elm st", want: 1},
		{name: "substring", a: "Elm St", b: "Elm Street, near Public Library", want: 0.75},
		{name: "no overlap", a: "District 1", b: "Oak Ave", want: 0},
		{name: "empty label", a: "", b: "Elm St", want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, dispatch.Closeness(tc.a, tc.b))
		})
	}
}

func TestCloseness_Ordering(t *testing.T) {
	complaint := "Elm Street, near Public Library"

	exact := dispatch.Closeness("Elm Street, near Public Library", complaint)
	contained := dispatch.Closeness("Elm Street", complaint)
	overlap := dispatch.Closeness("Public Works Yard, Elm District", complaint)
	unrelated := dispatch.Closeness("District 9", complaint)

	assert.Greater(t, exact, contained)
	assert.Greater(t, contained, overlap)
	assert.Greater(t, overlap, unrelated)
}

func TestCloseness_Symmetric(t *testing.T) {
	assert.Equal(t,
		dispatch.Closeness("Elm St", "Elm Street near the library"),
		dispatch.Closeness("Elm Street near the library", "Elm St"))
}
