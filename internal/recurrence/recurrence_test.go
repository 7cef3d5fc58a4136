package recurrence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, value)
	require.NoError(t, err)
	return ts
}

func TestParseMode(t *testing.T) {
	for _, value := range []string{"", "none", "NONE", " None "} {
		mode, err := ParseMode(value)
		require.NoError(t, err)
		assert.Equal(t, None, mode)
	}

	mode, err := ParseMode("Daily")
	require.NoError(t, err)
	assert.Equal(t, Daily, mode)

	mode, err = ParseMode("WEEKLY")
	require.NoError(t, err)
	assert.Equal(t, Weekly, mode)

	_, err = ParseMode("fortnightly")
	assert.Error(t, err)
}

func TestExpandNoneIgnoresUntil(t *testing.T) {
	start := mustParse(t, "2025-01-01T18:00:00Z")
	until := mustParse(t, "2025-03-01T00:00:00Z")

	instances := Expand(start, nil, None, &until)

	require.Len(t, instances, 1)
	assert.True(t, instances[0].Start.Equal(start))
	assert.Nil(t, instances[0].End)
}

func TestExpandDailyInclusiveUntil(t *testing.T) {
	start := mustParse(t, "2025-01-01T18:00:00Z")
	until := mustParse(t, "2025-01-03T18:00:00Z")

	instances := Expand(start, nil, Daily, &until)

	require.Len(t, instances, 3)
	assert.True(t, instances[0].Start.Equal(start))
	assert.True(t, instances[1].Start.Equal(start.AddDate(0, 0, 1)))
	assert.True(t, instances[2].Start.Equal(start.AddDate(0, 0, 2)))
}

func TestExpandDailyDefaultHorizon(t *testing.T) {
	start := mustParse(t, "2025-01-01T09:00:00Z")

	instances := Expand(start, nil, Daily, nil)

	// 30-day horizon, inclusive of both endpoints.
	require.Len(t, instances, 31)
	last := instances[len(instances)-1]
	assert.True(t, last.Start.Equal(start.AddDate(0, 0, 30)))
}

func TestExpandWeeklyDefaultHorizon(t *testing.T) {
	start := mustParse(t, "2025-01-01T09:00:00Z")

	instances := Expand(start, nil, Weekly, nil)

	require.Len(t, instances, 9)
	for i, inst := range instances {
		assert.True(t, inst.Start.Equal(start.AddDate(0, 0, 7*i)))
	}
}

func TestExpandUntilBeforeStartEmitsFirstInstance(t *testing.T) {
	start := mustParse(t, "2025-06-01T10:00:00Z")
	until := mustParse(t, "2025-05-01T10:00:00Z")

	instances := Expand(start, nil, Daily, &until)

	require.Len(t, instances, 1)
	assert.True(t, instances[0].Start.Equal(start))
}

func TestExpandCapsInstances(t *testing.T) {
	start := mustParse(t, "2025-01-01T10:00:00Z")
	until := start.AddDate(0, 0, 400)

	instances := Expand(start, nil, Daily, &until)

	assert.Len(t, instances, MaxInstances)
}

func TestExpandStepsEndTimeWithStart(t *testing.T) {
	start := mustParse(t, "2025-01-01T18:00:00Z")
	end := mustParse(t, "2025-01-01T20:30:00Z")
	until := mustParse(t, "2025-01-15T18:00:00Z")

	instances := Expand(start, &end, Weekly, &until)

	require.Len(t, instances, 3)
	for _, inst := range instances {
		require.NotNil(t, inst.End)
		assert.Equal(t, 2*time.Hour+30*time.Minute, inst.End.Sub(inst.Start))
	}
	assert.True(t, instances[2].End.Equal(end.AddDate(0, 0, 14)))
}

func TestExpandPreservesWallClockAcrossDST(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// Two days before the spring-forward transition on 2025-03-09.
	start := time.Date(2025, 3, 7, 18, 0, 0, 0, loc)
	until := start.AddDate(0, 0, 4)

	instances := Expand(start, nil, Daily, &until)

	require.Len(t, instances, 5)
	for _, inst := range instances {
		assert.Equal(t, 18, inst.Start.Hour())
	}
}
