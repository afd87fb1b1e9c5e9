package month

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	m, err := Parse("202401")
	require.NoError(t, err)
	assert.Equal(t, "202401", m.String())

	for _, bad := range []string{"", "2024", "2024-01", "202413", "20240a", "January"} {
		_, err := Parse(bad)
		assert.ErrorIs(t, err, ErrInvalidMonth, "input %q", bad)
	}
}

func TestFromTime(t *testing.T) {
	at := time.Date(2024, time.March, 31, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, Month("202403"), FromTime(at))
}

func TestDays(t *testing.T) {
	assert.Equal(t, 31, Month("202401").Days())
	assert.Equal(t, 29, Month("202402").Days(), "leap year")
	assert.Equal(t, 28, Month("202302").Days())
	assert.Equal(t, 30, Month("202404").Days())
}

func TestPrevAcrossYearBoundary(t *testing.T) {
	assert.Equal(t, Month("202312"), Month("202401").Prev())
	assert.Equal(t, Month("202406"), Month("202407").Prev())
}

func TestStartEnd(t *testing.T) {
	m := Month("202402")
	assert.Equal(t, time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC), m.Start())
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), m.End())
}
