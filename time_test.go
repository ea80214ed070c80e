package taskflow_test

import (
	"testing"
	"time"

	taskflow "github.com/goliatone/go-taskflow"
	"github.com/stretchr/testify/assert"
)

func TestIsWithinThresholdPeriod(t *testing.T) {
	t.Run("recent time is within threshold", func(t *testing.T) {
		within, err := taskflow.IsWithinThresholdPeriod(time.Now().Add(-time.Hour), "24h")
		assert.NoError(t, err)
		assert.True(t, within)
	})

	t.Run("old time is outside threshold", func(t *testing.T) {
		within, err := taskflow.IsWithinThresholdPeriod(time.Now().Add(-48*time.Hour), "24h")
		assert.NoError(t, err)
		assert.False(t, within)
	})

	t.Run("invalid pattern errors", func(t *testing.T) {
		_, err := taskflow.IsWithinThresholdPeriod(time.Now(), "not-a-duration")
		assert.Error(t, err)
	})
}

func TestIsOutsideThresholdPeriod(t *testing.T) {
	outside, err := taskflow.IsOutsideThresholdPeriod(time.Now().Add(-48*time.Hour), "24h")
	assert.NoError(t, err)
	assert.True(t, outside)

	outside, err = taskflow.IsOutsideThresholdPeriod(time.Now().Add(-time.Minute), "24h")
	assert.NoError(t, err)
	assert.False(t, outside)
}
