package payroll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidPeriod(t *testing.T) {
	assert.True(t, ValidPeriod("2024-02"))
	assert.True(t, ValidPeriod("1999-12"))
	for _, bad := range []string{"", "2024-13", "2024-2", "24-02", "2024-02-01", "2024/02", "abcd-ef"} {
		assert.Falsef(t, ValidPeriod(bad), "%q", bad)
	}
}

func TestDaysInPeriod(t *testing.T) {
	cases := map[string]int{"2024-02": 29, "2023-02": 28, "2024-04": 30, "2024-12": 31}
	for period, want := range cases {
		got, err := DaysInPeriod(period)
		require.NoError(t, err)
		assert.Equal(t, want, got, period)
	}
	_, err := DaysInPeriod("2024-2")
	assert.ErrorIs(t, err, ErrInvalidPeriod)
}

func TestPeriodOf(t *testing.T) {
	assert.Equal(t, "2024-03", PeriodOf(time.Date(2024, 3, 31, 23, 0, 0, 0, time.UTC)))
}
