package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKm(t *testing.T) {
	t.Run("zero distance for identical points", func(t *testing.T) {
		assert.Zero(t, HaversineKm(25.2048, 55.2708, 25.2048, 55.2708))
	})

	t.Run("dubai to abu dhabi", func(t *testing.T) {
		d := HaversineKm(25.2048, 55.2708, 24.4539, 54.3773)
		assert.InDelta(t, 123, d, 5)
	})

	t.Run("symmetric", func(t *testing.T) {
		ab := HaversineKm(25.2048, 55.2708, 24.4539, 54.3773)
		ba := HaversineKm(24.4539, 54.3773, 25.2048, 55.2708)
		assert.InDelta(t, ab, ba, 1e-9)
	})

	t.Run("one degree of latitude", func(t *testing.T) {
		d := HaversineKm(25, 55, 26, 55)
		assert.InDelta(t, 111.2, d, 0.5)
	})
}
