package payroll

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransition(t *testing.T) {
	cases := []struct {
		from, to Status
		ok       bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPaid, StatusPending, true},
		{StatusPending, StatusPending, true},
		{StatusPaid, StatusPaid, true},
		{StatusPending, "Cancelled", false},
		{"Draft", StatusPaid, false},
		{"", StatusPending, false},
	}
	for _, tc := range cases {
		err := Transition(tc.from, tc.to)
		if tc.ok {
			assert.NoErrorf(t, err, "%s -> %s", tc.from, tc.to)
		} else {
			assert.ErrorIsf(t, err, ErrInvalidTransition, "%s -> %s", tc.from, tc.to)
		}
	}
}

func TestParseStatus(t *testing.T) {
	status, ok := ParseStatus("Paid")
	assert.True(t, ok)
	assert.Equal(t, StatusPaid, status)
	_, ok = ParseStatus("paid")
	assert.False(t, ok)
}
