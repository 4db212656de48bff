package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	generated := Generate()
	assert.True(t, strings.HasPrefix(generated, "batch-"))

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := Generate()
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}
