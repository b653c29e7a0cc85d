package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateShortUUID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateShortUUID()
		assert.Len(t, id, 8)
		assert.True(t, IsValidNoteID(id), id)
		assert.True(t, IsValidShortHashFilename(id+".json"), id)
		seen[id] = true
	}
	assert.Greater(t, len(seen), 95, "IDs should be practically unique")
}

func TestIsValidShortHashFilename(t *testing.T) {
	assert.True(t, IsValidShortHashFilename("a1b2c3d4.json"))
	assert.True(t, IsValidShortHashFilename("A1B2C3D4"))
	assert.False(t, IsValidShortHashFilename("config.json"))
	assert.False(t, IsValidShortHashFilename("a1b2c3d4e.json"))
	assert.False(t, IsValidShortHashFilename(".a1b2c3d4.json.swp"))
}
