package aggregation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustBucket(t *testing.T, date string, unit Unit) PeriodBucket {
	t.Helper()
	b, ok := utcCalendar.Bucket(date, unit)
	require.True(t, ok, "bucket %s %s", date, unit)
	return b
}

func TestBucketDay(t *testing.T) {
	b := mustBucket(t, "2025-6-5", UnitDay)
	assert.Equal(t, "2025-06-05", b.Key)
	assert.Equal(t, "2025-06-05", b.Label)
	assert.Equal(t, time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC).UnixMilli(), b.SortKey)
}

func TestBucketWeekSharesKeyMondayToSunday(t *testing.T) {
	wed := mustBucket(t, "2025-06-11", UnitWeek)
	sun := mustBucket(t, "2025-06-15", UnitWeek)
	mon := mustBucket(t, "2025-06-09", UnitWeek)
	next := mustBucket(t, "2025-06-16", UnitWeek)

	assert.Equal(t, wed.Key, sun.Key)
	assert.Equal(t, wed.Key, mon.Key)
	assert.Equal(t, "2025-06-09", wed.Key)
	assert.Equal(t, "2025-06-09 〜 2025-06-15", wed.Label)
	assert.Equal(t, time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC).UnixMilli(), wed.SortKey)

	assert.Equal(t, "2025-06-16", next.Key)
	assert.NotEqual(t, wed.Key, next.Key)
}

func TestBucketWeekAcrossYearBoundary(t *testing.T) {
	b := mustBucket(t, "2025-01-01", UnitWeek)
	assert.Equal(t, "2024-12-30", b.Key)
	assert.Equal(t, "2024-12-30 〜 2025-01-05", b.Label)
}

func TestBucketWeekHonoursWeekStart(t *testing.T) {
	sundayWeeks := Calendar{Location: time.UTC, WeekStart: time.Sunday}
	b, ok := sundayWeeks.Bucket("2025-06-11", UnitWeek)
	require.True(t, ok)
	assert.Equal(t, "2025-06-08", b.Key)
	assert.Equal(t, "2025-06-08 〜 2025-06-14", b.Label)
}

func TestBucketMonth(t *testing.T) {
	jan := mustBucket(t, "2025-01-31", UnitMonth)
	feb := mustBucket(t, "2025-02-01", UnitMonth)
	assert.Equal(t, "2025-01", jan.Key)
	assert.Equal(t, "2025-01", jan.Label)
	assert.Equal(t, "2025-02", feb.Key)
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC).UnixMilli(), feb.SortKey)
	assert.Less(t, jan.SortKey, feb.SortKey)
}

func TestBucketSameKeyIffSamePeriod(t *testing.T) {
	start := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 90; i++ {
		a := start.AddDate(0, 0, i)
		for j := i; j < i+14; j++ {
			b := start.AddDate(0, 0, j)
			aw := mustBucket(t, a.Format(DateLayout), UnitWeek)
			bw := mustBucket(t, b.Format(DateLayout), UnitWeek)
			aMon := a.AddDate(0, 0, -((int(a.Weekday()) + 6) % 7))
			bMon := b.AddDate(0, 0, -((int(b.Weekday()) + 6) % 7))
			assert.Equal(t, aMon.Equal(bMon), aw.Key == bw.Key, "%s vs %s", a, b)

			am := mustBucket(t, a.Format(DateLayout), UnitMonth)
			bm := mustBucket(t, b.Format(DateLayout), UnitMonth)
			sameMonth := a.Year() == b.Year() && a.Month() == b.Month()
			assert.Equal(t, sameMonth, am.Key == bm.Key, "%s vs %s", a, b)
		}
	}
}

func TestBucketInvalid(t *testing.T) {
	_, ok := utcCalendar.Bucket("", UnitDay)
	assert.False(t, ok)
	_, ok = utcCalendar.Bucket("2025-06-11", Unit("quarter"))
	assert.False(t, ok)
}

func TestParseUnit(t *testing.T) {
	u, err := ParseUnit(" Week ")
	require.NoError(t, err)
	assert.Equal(t, UnitWeek, u)
	_, err = ParseUnit("year")
	assert.ErrorIs(t, err, ErrInvalidUnit)
}
