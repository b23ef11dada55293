package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kscal/internal/model"
)

var kst = time.FixedZone("KST", 9*60*60)

// 2026-01-05 is a Monday; a fixed base keeps every relative case exact.
var testNow = time.Date(2026, 1, 5, 10, 0, 0, 0, kst)

func TestSubstituteRelativeDays(t *testing.T) {
	t.Run("replaces the three relative day tokens", func(t *testing.T) {
		assert.Equal(t, "2026년 01월 05일 오후 3시", substituteRelativeDays("오늘 오후 3시", testNow))
		assert.Equal(t, "2026년 01월 06일 오후 3시", substituteRelativeDays("내일 오후 3시", testNow))
		assert.Equal(t, "2026년 01월 07일 오후 3시", substituteRelativeDays("모레 오후 3시", testNow))
	})

	t.Run("is idempotent", func(t *testing.T) {
		once := substituteRelativeDays("내일 오후 3시", testNow)
		twice := substituteRelativeDays(once, testNow)
		assert.Equal(t, once, twice)
	})
}

func TestSubstituteNextWeekday(t *testing.T) {
	t.Run("resolves to the weekday at least 7 days ahead", func(t *testing.T) {
		// Base is Monday; 다음주 수요일 = (2-0)%7+7 = 9 days ahead.
		assert.Equal(t, "2026년 01월 14일 오후 1시", substituteNextWeekday("다음주 수요일 오후 1시", testNow))
		// Same weekday as the base still jumps a full week.
		assert.Equal(t, "2026년 01월 12일 회의", substituteNextWeekday("다음주 월요일 회의", testNow))
	})

	t.Run("leaves text without the pattern alone", func(t *testing.T) {
		assert.Equal(t, "수요일 오후 1시", substituteNextWeekday("수요일 오후 1시", testNow))
	})
}

func TestEnsureYear(t *testing.T) {
	t.Run("prefixes the current year when absent", func(t *testing.T) {
		assert.Equal(t, "2026년 3월 1일 오후 2시", ensureYear("3월 1일 오후 2시", testNow))
	})

	t.Run("never fires when a year token is present", func(t *testing.T) {
		assert.Equal(t, "2027년 3월 1일", ensureYear("2027년 3월 1일", testNow))
		assert.Equal(t, "2027-03-01 14:00", ensureYear("2027-03-01 14:00", testNow))
	})
}

func TestConvertMeridiem(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"오후 3시", "15:00"},
		{"오전 3시", "03:00"},
		{"오전 12시", "00:00"},
		{"오후 12시", "12:00"},
		{"오후 11시", "23:00"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, convertMeridiem(tt.input))
		})
	}
}

func TestCanonicalize(t *testing.T) {
	assert.Equal(t, "2026- 01-05 15:00", canonicalize("2026년  01월 05일  15:00"))
	assert.Equal(t, "2026- 강남역", canonicalize(" 2026년 강남역 "))
}

func TestNormalize(t *testing.T) {
	n := NewNormalizer(kst)

	t.Run("relative day with meridiem", func(t *testing.T) {
		got := n.Normalize("내일 오후 3시", testNow)
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2026, 1, 6, 15, 0, 0, 0, kst), *got)
	})

	t.Run("midnight and noon edge cases", func(t *testing.T) {
		got := n.Normalize("모레 오전 12시", testNow)
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2026, 1, 7, 0, 0, 0, 0, kst), *got)

		got = n.Normalize("오늘 오후 12시", testNow)
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2026, 1, 5, 12, 0, 0, 0, kst), *got)
	})

	t.Run("absolute date", func(t *testing.T) {
		got := n.Normalize("2026년 3월 1일 오후 2시", testNow)
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2026, 3, 1, 14, 0, 0, 0, kst), *got)
	})

	t.Run("next week weekday", func(t *testing.T) {
		got := n.Normalize("다음주 수요일 오후 1시", testNow)
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2026, 1, 14, 13, 0, 0, 0, kst), *got)
	})

	t.Run("time only prefers the future", func(t *testing.T) {
		// 15:00 is still ahead of the 10:00 base: today.
		got := n.Normalize("오후 3시", testNow)
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2026, 1, 5, 15, 0, 0, 0, kst), *got)

		// 09:00 already passed: tomorrow.
		got = n.Normalize("오전 9시", testNow)
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2026, 1, 6, 9, 0, 0, 0, kst), *got)
	})

	t.Run("bare weekday rolls to the next future occurrence", func(t *testing.T) {
		got := n.Normalize("금요일 오후 3시", testNow)
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2026, 1, 9, 15, 0, 0, 0, kst), *got)

		// Today's weekday with a past time jumps a full week.
		got = n.Normalize("월요일 오전 9시", testNow)
		require.NotNil(t, got)
		assert.Equal(t, time.Date(2026, 1, 12, 9, 0, 0, 0, kst), *got)
	})

	t.Run("unparseable fragment returns nil", func(t *testing.T) {
		assert.Nil(t, n.Normalize("아무말시", testNow))
		assert.Nil(t, n.Normalize("", testNow))
	})

	t.Run("result carries the civil timezone", func(t *testing.T) {
		got := n.Normalize("내일 오후 3시", testNow)
		require.NotNil(t, got)
		assert.Equal(t, kst.String(), got.Location().String())
	})
}

func TestClassifyTime(t *testing.T) {
	assert.Equal(t, model.KindRelativeDay, ClassifyTime("내일 오후 3시"))
	assert.Equal(t, model.KindRelativeWeekday, ClassifyTime("다음주 수요일 오후 1시"))
	assert.Equal(t, model.KindAbsolute, ClassifyTime("2026년 3월 1일 오후 2시"))
	assert.Equal(t, model.KindTimeOnly, ClassifyTime("오후 3시"))
	assert.Equal(t, model.KindUnknown, ClassifyTime("아무말"))
}
