package dateutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateOf_UsesOwnLocation(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	utc := time.Date(2026, 3, 1, 17, 30, 0, 0, time.UTC)

	assert.Equal(t, "2026-03-01", Format(DateOf(utc)))
	assert.Equal(t, "2026-03-02", Format(DateOf(utc.In(loc))))
}

func TestAt_RollsOverMidnight(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	date, err := Parse("2026-03-02")
	require.NoError(t, err)

	got := At(date, 24*60+75, loc)
	assert.Equal(t, time.Date(2026, 3, 3, 1, 15, 0, 0, loc), got)
	assert.Equal(t, "2026-03-01", Format(AddDays(date, -1)))
}
