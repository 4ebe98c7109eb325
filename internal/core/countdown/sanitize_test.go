package countdown

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeSeconds(t *testing.T) {
	tests := map[string]int{
		"":      0,
		"abc":   0,
		"-15":   0,
		"+7":    7,
		" 42 ":  42,
		"12abc": 12,
		"3.9":   3,
		"-":     0,
		"1500":  1500,
	}
	for input, want := range tests {
		require.Equal(t, want, SanitizeSeconds(input), "input %q", input)
	}
	require.Equal(t, 0, SanitizeSeconds("9999999999999999999999"), "overflow")
}

func TestFromClockCapsFields(t *testing.T) {
	require.Equal(t, 1*3600+2*60+3, FromClock("1", "2", "3"))
	require.Equal(t, 23*3600+59*60+59, FromClock("99", "75", "61"))
	require.Equal(t, 25*60, FromClock("", "25", "x"))
	require.Equal(t, 0, FromClock("-1", "-1", "-1"))
}

func TestProgress(t *testing.T) {
	require.Equal(t, 1.0, Progress(0, 0))
	require.Equal(t, 0.0, Progress(100, 100))
	require.Equal(t, 0.25, Progress(100, 75))
	require.Equal(t, 0.0, Progress(100, 200))
	require.Equal(t, 1.0, Progress(100, -10))
}
