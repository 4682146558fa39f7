package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateOf(t *testing.T) {
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	require.NoError(t, err)

	// 2024-03-10 20:00 UTC is already 2024-03-11 in Jakarta (UTC+7).
	instant := time.Date(2024, 3, 10, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, Date(2024, 3, 11), DateOf(instant, jakarta))
	assert.Equal(t, Date(2024, 3, 10), DateOf(instant, nil))
}

func TestEndOfNextDay(t *testing.T) {
	got := EndOfNextDay(Date(2024, 2, 28), time.UTC)
	assert.Equal(t, time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC), got)
}

func TestMonthsBetween(t *testing.T) {
	assert.Equal(t, 0, MonthsBetween(Date(2024, 5, 1), Date(2024, 5, 31)))
	assert.Equal(t, 1, MonthsBetween(Date(2024, 5, 31), Date(2024, 6, 1)))
	assert.Equal(t, 14, MonthsBetween(Date(2023, 11, 15), Date(2025, 1, 2)))
	assert.Equal(t, -1, MonthsBetween(Date(2024, 6, 1), Date(2024, 5, 1)))
}

func TestDateRange(t *testing.T) {
	r := NewDateRange(Date(2024, 1, 30), Date(2024, 2, 2))
	assert.True(t, r.Valid())
	assert.Equal(t, 4, r.Len())
	assert.Equal(t, []time.Time{Date(2024, 1, 30), Date(2024, 1, 31), Date(2024, 2, 1), Date(2024, 2, 2)}, r.Days())
	assert.True(t, r.Contains(Date(2024, 2, 1)))
	assert.False(t, r.Contains(Date(2024, 2, 3)))

	assert.True(t, r.Overlaps(NewDateRange(Date(2024, 2, 2), Date(2024, 2, 5))))
	assert.False(t, r.Overlaps(NewDateRange(Date(2024, 2, 3), Date(2024, 2, 5))))

	backwards := NewDateRange(Date(2024, 2, 2), Date(2024, 2, 1))
	assert.False(t, backwards.Valid())
	assert.Equal(t, 0, backwards.Len())
}
