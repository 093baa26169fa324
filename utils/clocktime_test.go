package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClock(t *testing.T) {
	cases := map[string]int{
		"00:00": 0,
		"09:30": 570,
		"9:05":  545,
		"23:59": 1439,
		"24:00": 1440,
	}
	for in, want := range cases {
		got, err := ParseClock(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestParseClockRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", "9", "09:5", "25:00", "24:01", "10:60", "ab:cd", "-1:00", "+9:30", "-0:00", "09:+5", "9: 5"} {
		_, err := ParseClock(in)
		assert.Error(t, err, in)
	}
}

func TestFormatClock(t *testing.T) {
	assert.Equal(t, "00:00", FormatClock(0))
	assert.Equal(t, "10:05", FormatClock(605))
	assert.Equal(t, "24:00", FormatClock(1440))
}

func TestDayName(t *testing.T) {
	assert.Equal(t, "Sunday", DayName(0))
	assert.Equal(t, "Saturday", DayName(6))
	assert.Equal(t, "", DayName(7))
}
