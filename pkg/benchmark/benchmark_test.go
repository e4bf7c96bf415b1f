package benchmark

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigurations(t *testing.T) {
	configs := DefaultConfigurations()
	require.Len(t, configs, 12)

	assert.Equal(t, Configuration{1, 1, "Sequential (baseline)"}, configs[0])

	for _, c := range configs {
		assert.GreaterOrEqual(t, c.ProfileWorkers, 1)
		assert.GreaterOrEqual(t, c.ImageWorkers, 1)
		assert.LessOrEqual(t, c.ProfileWorkers, 5)
		assert.LessOrEqual(t, c.ImageWorkers, 10)
	}
}

func result(pw, iw int, imgPerSec float64, rateHits, imagesFailed int) Result {
	return Result{
		Config:          Configuration{ProfileWorkers: pw, ImageWorkers: iw},
		Duration:        10 * time.Second,
		ImagesPerSecond: imgPerSec,
		RateLimitHits:   rateHits,
		ImagesFailed:    imagesFailed,
	}
}

func TestRank(t *testing.T) {
	results := []Result{
		result(1, 1, 0.5, 0, 0),
		result(5, 10, 3.2, 4, 2),
		result(2, 5, 1.8, 0, 0),
	}

	ranked := Rank(results)

	require.Len(t, ranked, 3)
	assert.Equal(t, 3.2, ranked[0].ImagesPerSecond)
	assert.Equal(t, 1.8, ranked[1].ImagesPerSecond)
	assert.Equal(t, 0.5, ranked[2].ImagesPerSecond)

	// Input order is untouched
	assert.Equal(t, 0.5, results[0].ImagesPerSecond)
}

func TestRecommendPicksFastestClean(t *testing.T) {
	results := []Result{
		result(1, 1, 0.5, 0, 0),
		result(5, 10, 3.2, 4, 0), // fastest, but rate limited
		result(3, 5, 2.1, 0, 0),  // fastest clean run
		result(2, 5, 1.8, 0, 0),
	}

	best := Recommend(results)
	require.NotNil(t, best)
	assert.Equal(t, 3, best.Config.ProfileWorkers)
	assert.Equal(t, 5, best.Config.ImageWorkers)
}

func TestRecommendFallsBackToFewestRateHits(t *testing.T) {
	results := []Result{
		result(5, 10, 3.2, 6, 1),
		result(3, 5, 2.1, 2, 1),
		result(2, 3, 1.4, 3, 0),
	}

	best := Recommend(results)
	require.NotNil(t, best)
	assert.Equal(t, 2, best.RateLimitHits)
}

func TestRecommendEmpty(t *testing.T) {
	assert.Nil(t, Recommend(nil))
}

func TestRecommendConservative(t *testing.T) {
	results := []Result{
		result(5, 10, 3.2, 0, 0), // too aggressive for long runs
		result(2, 5, 1.8, 0, 0),
		result(1, 3, 0.9, 0, 0),
	}

	best := RecommendConservative(results)
	require.NotNil(t, best)
	assert.Equal(t, 2, best.Config.ProfileWorkers)
	assert.Equal(t, 5, best.Config.ImageWorkers)
}

func TestRecommendConservativeNoneQualify(t *testing.T) {
	results := []Result{
		result(5, 10, 3.2, 0, 0),
		result(2, 5, 1.8, 3, 0), // within bounds but rate limited
	}

	assert.Nil(t, RecommendConservative(results))
}
