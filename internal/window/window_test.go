package window

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify_Bands(t *testing.T) {
	target := FromHM(9, 0)
	cases := []struct {
		name    string
		current MinuteOfDay
		want    Window
	}{
		{"17 before", FromHM(8, 43), None},
		{"16 before", FromHM(8, 44), Before15},
		{"15 before", FromHM(8, 45), Before15},
		{"14 before", FromHM(8, 46), Before15},
		{"13 before", FromHM(8, 47), None},
		{"6 before", FromHM(8, 54), Before5},
		{"5 before", FromHM(8, 55), Before5},
		{"4 before", FromHM(8, 56), Before5},
		{"3 before", FromHM(8, 57), None},
		{"1 before", FromHM(8, 59), AtTime},
		{"on time", FromHM(9, 0), AtTime},
		{"1 after", FromHM(9, 1), AtTime},
		{"2 after", FromHM(9, 2), None},
		{"14 after", FromHM(9, 14), After15},
		{"15 after", FromHM(9, 15), After15},
		{"16 after", FromHM(9, 16), After15},
		{"17 after", FromHM(9, 17), None},
		{"far away", FromHM(21, 0), None},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.current, target))
		})
	}
}

func TestClassify_MidnightWrap(t *testing.T) {
	assert.Equal(t, 15, Offset(FromHM(23, 55), FromHM(0, 10)))
	assert.Equal(t, Before15, Classify(FromHM(23, 55), FromHM(0, 10)))
	assert.Equal(t, After15, Classify(FromHM(0, 5), FromHM(23, 50)))
	assert.Equal(t, AtTime, Classify(FromHM(0, 0), FromHM(23, 59)))
}

func TestNormalize_Range(t *testing.T) {
	for diff := -3000; diff <= 3000; diff++ {
		n := Normalize(diff)
		assert.GreaterOrEqual(t, n, -720)
		assert.Less(t, n, 720)
		assert.Zero(t, (diff-n)%MinutesPerDay)
	}
}

func TestClassify_Periodic(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		cur := MinuteOfDay(r.Intn(MinutesPerDay))
		target := MinuteOfDay(r.Intn(MinutesPerDay))
		assert.Equal(t, Classify(cur, target), Classify(cur+MinutesPerDay, target))
		assert.Equal(t, Classify(cur, target), Classify(cur, target+MinutesPerDay))
	}
}

func TestForOffset_MutuallyExclusive(t *testing.T) {
	bands := map[Window]func(int) bool{
		Before15: func(d int) bool { return d >= 14 && d <= 16 },
		Before5:  func(d int) bool { return d >= 4 && d <= 6 },
		AtTime:   func(d int) bool { return d >= -1 && d <= 1 },
		After15:  func(d int) bool { return d >= -16 && d <= -14 },
	}
	for d := -720; d < 720; d++ {
		matches := 0
		for w, in := range bands {
			if in(d) {
				matches++
				assert.Equal(t, w, ForOffset(d))
			}
		}
		assert.LessOrEqual(t, matches, 1)
		if matches == 0 {
			assert.Equal(t, None, ForOffset(d))
		}
	}
}

func TestShouldRemindClockOut(t *testing.T) {
	end := FromHM(17, 0)
	assert.True(t, ShouldRemindClockOut(FromHM(17, 15), end))
	assert.True(t, ShouldRemindClockOut(FromHM(17, 14), end))
	assert.False(t, ShouldRemindClockOut(FromHM(17, 0), end))
	assert.False(t, ShouldRemindClockOut(FromHM(16, 45), end))
	assert.True(t, ShouldRemindClockOut(FromHM(0, 15), FromHM(0, 0)))
	assert.True(t, ShouldRemindClockOut(FromHM(0, 5), FromHM(23, 50)))
}

func TestFromTime_UsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	utc := time.Date(2026, 3, 2, 0, 45, 0, 0, time.UTC)
	assert.Equal(t, FromHM(8, 45), FromTime(utc.In(loc)))
	assert.Equal(t, Before15, Classify(FromTime(utc.In(loc)), FromHM(9, 0)))
}
