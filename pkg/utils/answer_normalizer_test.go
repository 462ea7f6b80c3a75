package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsAffirmative(t *testing.T) {
	testCases := []struct {
		input    string
		expected bool
	}{
		{"si", true},
		{"Si", true},
		{"sí", true},
		{"SÍ", true},
		{"  sí  ", true},
		{"SI", true},
		{"no", false},
		{"", false},
		{"tal vez", false},
		{"sin", false},
		{"yes", false},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsAffirmative(tc.input))
		})
	}
}

func TestFoldDiacritics(t *testing.T) {
	assert.Equal(t, "dificultad para respirar", FoldDiacritics("dificultad para respirar"))
	assert.Equal(t, "Cardiaca", FoldDiacritics("Cardíaca"))
	assert.Equal(t, "nino", FoldDiacritics("niño"))
}

func TestNormalizeText(t *testing.T) {
	assert.Equal(t, "dolor toracico intenso", NormalizeText("  Dolor   TORÁCICO\tintenso "))
	assert.Equal(t, "", NormalizeText("   "))
}
