package tokenizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_Cl100k(t *testing.T) {
	c := New("cl100k_base")
	assert.Equal(t, "cl100k_base", c.Name())
	assert.Equal(t, 2, c.Count("hello world"))
	assert.Equal(t, 0, c.Count(""))
}

func TestNew_UnknownEncodingFallsBack(t *testing.T) {
	c := New("no_such_encoding")
	assert.Equal(t, "estimate", c.Name())
	assert.Greater(t, c.Count("What is the price to earnings ratio?"), 0)
}

func TestEstimateCounter(t *testing.T) {
	var c EstimateCounter
	assert.Equal(t, 0, c.Count(""))
	assert.Equal(t, 1, c.Count("a"))
	// 8 words, 40 chars: (8 + 10) / 2
	assert.Equal(t, 9, c.Count("one two three four five six seven eight!"))
}

func TestCountMessages(t *testing.T) {
	var c EstimateCounter
	assert.Equal(t, 4+1+4+1, CountMessages(c, "a", "b"))
}
