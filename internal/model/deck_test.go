package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanWords_DropsBlankRows(t *testing.T) {
	rows := []Word{
		{Word: "hus", Translation: "house"},
		{Word: "", Translation: "car"},
		{Word: "bil", Translation: "   "},
		{Word: "  katt ", Translation: " cat "},
	}

	got := CleanWords(rows)

	assert.Equal(t, []Word{
		{Word: "hus", Translation: "house"},
		{Word: "katt", Translation: "cat"},
	}, got)
}

func TestCleanWords_EmptyInput(t *testing.T) {
	assert.Empty(t, CleanWords(nil))
}

func TestCleanWords_NormalizesToNFC(t *testing.T) {
	// "é" written as e + combining acute accent
	decomposed := "cafe\u0301"

	got := CleanWords([]Word{{Word: decomposed, Translation: "coffee"}})

	assert.Len(t, got, 1)
	assert.Equal(t, "caf\u00e9", got[0].Word)
}

func TestCleanWords_ClampsAccuracy(t *testing.T) {
	got := CleanWords([]Word{
		{Word: "a", Translation: "b", Accuracy: -0.5},
		{Word: "c", Translation: "d", Accuracy: 1.7},
		{Word: "e", Translation: "f", Accuracy: 0.25},
	})

	assert.Equal(t, 0.0, got[0].Accuracy)
	assert.Equal(t, 1.0, got[1].Accuracy)
	assert.Equal(t, 0.25, got[2].Accuracy)
}

func TestUserProfileOwns(t *testing.T) {
	p := &UserProfile{VocabIDs: []string{"d1", "d2"}}

	assert.True(t, p.Owns("d2"))
	assert.False(t, p.Owns("d3"))
}

func TestTierValid(t *testing.T) {
	assert.True(t, TierFree.Valid())
	assert.True(t, TierPaid.Valid())
	assert.False(t, Tier("gold").Valid())
}
