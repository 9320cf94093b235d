package xuri

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const unitBase = "https://unit.example"

func TestToHTTP(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"localunit cell", "personium-localunit:/cell1/", "https://unit.example/cell1/"},
		{"localunit no leading slash", "personium-localunit:cell1/", "https://unit.example/cell1/"},
		{"already http", "https://unit.example/cell1/", "https://unit.example/cell1/"},
		{"foreign unit", "https://other.example/cell9/", "https://other.example/cell9/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToHTTP(unitBase, tt.in))
		})
	}
}

func TestToLocalUnit(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"under unit", "https://unit.example/cell1/", "personium-localunit:/cell1/"},
		{"foreign unit unchanged", "https://other.example/cell1/", "https://other.example/cell1/"},
		{"already localunit", "personium-localunit:/cell1/", "personium-localunit:/cell1/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ToLocalUnit(unitBase, tt.in))
		})
	}
}

func TestEquivalent(t *testing.T) {
	assert.True(t, Equivalent(unitBase, "personium-localunit:/cell1/", "https://unit.example/cell1/"))
	assert.True(t, Equivalent(unitBase, "https://unit.example/cell1", "https://unit.example/cell1/"))
	assert.False(t, Equivalent(unitBase, "personium-localunit:/cell1/", "https://unit.example/cell2/"))
	assert.False(t, Equivalent(unitBase, "https://other.example/cell1/", "personium-localunit:/cell1/"))
}

func TestRoundTrip(t *testing.T) {
	u := "https://unit.example/app-cell/"
	assert.Equal(t, u, ToHTTP(unitBase, ToLocalUnit(unitBase, u)))
}
