package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDatePhrase(t *testing.T) {
	// testNow is Wednesday 2025-03-12.
	cases := map[string]string{
		"today":              "2025-03-12",
		"by end of day":      "2025-03-12",
		"tomorrow":           "2025-03-13",
		"day after tomorrow": "2025-03-14",
		"next week":          "2025-03-17",
		"end of the week":    "2025-03-16",
		"next month":         "2025-04-01",
		"end of month":       "2025-03-31",
		"in 3 days":          "2025-03-15",
		"in two weeks":       "2025-03-26",
		"friday":             "2025-03-14",
		"on Fri please":      "2025-03-14",
		"wednesday":          "2025-03-19",
		"next monday":        "2025-03-17",
		"2025-05-01":         "2025-05-01",
	}
	for phrase, want := range cases {
		got, ok := parseDatePhrase(phrase, testNow)
		if assert.True(t, ok, phrase) {
			assert.Equal(t, want, got, phrase)
		}
	}

	for _, phrase := range []string{"someday", "", "2025-02-30"} {
		_, ok := parseDatePhrase(phrase, testNow)
		assert.False(t, ok, phrase)
	}
}

func TestNamedWindow(t *testing.T) {
	w, ok := namedWindow("this week", testNow)
	assert.True(t, ok)
	after, before := w.filterBounds()
	assert.Equal(t, "2025-03-09", after)
	assert.Equal(t, "2025-03-17", before)

	w, ok = namedWindow("Today", testNow)
	assert.True(t, ok)
	after, before = w.filterBounds()
	assert.Equal(t, "2025-03-11", after)
	assert.Equal(t, "2025-03-13", before)

	_, ok = namedWindow("someday", testNow)
	assert.False(t, ok)
}

func TestShiftDate(t *testing.T) {
	assert.Equal(t, "2025-02-28", shiftDate("2025-03-01", -1))
	assert.Equal(t, "2025-03-02", shiftDate("2025-03-01", 1))
	assert.Equal(t, "", shiftDate("March 1st", 1))
}
