package detectcache

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/neurondb/NeuronIP/api/internal/piimodel"
)

func TestGetMiss(t *testing.T) {
	c := Init(10)
	_, ok := c.Get("t.col", "cfg-1")
	assert.False(t, ok)
}

func TestPutThenGetHit(t *testing.T) {
	c := Init(10)
	result := piimodel.DetectionResult{HasPii: true, HighestConfidencePiiType: "EMAIL"}
	c.Put("t.col", "cfg-1", result)

	got, ok := c.Get("t.col", "cfg-1")
	assert.True(t, ok)
	assert.Equal(t, "EMAIL", got.HighestConfidencePiiType)
}

func TestConfigStampMismatchIsMiss(t *testing.T) {
	c := Init(10)
	c.Put("t.col", "cfg-1", piimodel.DetectionResult{})

	_, ok := c.Get("t.col", "cfg-2")
	assert.False(t, ok)
}

func TestInvalidateAllClearsCache(t *testing.T) {
	c := Init(10)
	c.Put("t.col", "cfg-1", piimodel.DetectionResult{})
	c.InvalidateAll()

	assert.Equal(t, 0, c.Size())
	_, ok := c.Get("t.col", "cfg-1")
	assert.False(t, ok)
}

func TestEvictionBoundsSize(t *testing.T) {
	c := Init(2)
	c.Put("a", "cfg", piimodel.DetectionResult{})
	c.Put("b", "cfg", piimodel.DetectionResult{})
	c.Put("c", "cfg", piimodel.DetectionResult{})

	assert.LessOrEqual(t, c.Size(), 2)
}

func TestHitRatio_NoAccessesIsZero(t *testing.T) {
	c := Init(10)
	assert.Equal(t, 0.0, c.HitRatio())
}

func TestHitRatio_TracksHitsAndMisses(t *testing.T) {
	c := Init(10)
	c.Put("t.col", "cfg-1", piimodel.DetectionResult{})

	c.Get("t.col", "cfg-1") // hit
	c.Get("t.col", "cfg-1") // hit
	c.Get("missing", "cfg-1") // miss

	assert.InDelta(t, 2.0/3.0, c.HitRatio(), 0.001)
}

func TestHitRatio_ResetByInvalidateAll(t *testing.T) {
	c := Init(10)
	c.Put("t.col", "cfg-1", piimodel.DetectionResult{})
	c.Get("t.col", "cfg-1")
	c.InvalidateAll()

	assert.Equal(t, 0.0, c.HitRatio())
}
