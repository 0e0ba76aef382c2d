package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCompactNumber(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1.0K"},
		{15_260, "15.3K"},
		{2_500_000, "2.5M"},
		{676_570_149, "676.6M"},
		{1_000_000_000, "1.0B"},
		{-1500, "-1,500"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CompactNumber(tc.in), "CompactNumber(%d)", tc.in)
	}
}

func TestFormatCount(t *testing.T) {
	assert.Equal(t, "1,234,567", FormatCount(1234567))
	assert.Equal(t, "12", FormatCount(12))
}

func TestFormatDateLabel(t *testing.T) {
	assert.Equal(t, "Jan 22, 2020", FormatDateLabel("1/22/20"))
	assert.Equal(t, "Dec 31, 2021", FormatDateLabel("12/31/21"))
	assert.Equal(t, "not-a-date", FormatDateLabel("not-a-date"))
}

func TestFormatUpdatedIsRelative(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	got := FormatUpdated(now.Add(-3*time.Hour), now)
	assert.Contains(t, got, "3 hours ago")
}

func TestFormatRate(t *testing.T) {
	assert.Equal(t, "1.2%", FormatRate(1.23))
	assert.Equal(t, "0.0%", FormatRate(0))
}
