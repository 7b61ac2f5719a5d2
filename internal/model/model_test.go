package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoleRejectsUnknown(t *testing.T) {
	r, err := ParseRole("STADIUM_OWNER")
	require.NoError(t, err)
	assert.Equal(t, RoleStadiumOwner, r)

	_, err = ParseRole("ADMIN")
	assert.Error(t, err)
	_, err = ParseRole("player")
	assert.Error(t, err)
	assert.False(t, Role("").Valid())
}

func TestParseSlotStart(t *testing.T) {
	start, end, err := ParseSlotStart("08:00")
	require.NoError(t, err)
	assert.Equal(t, "08:00", start)
	assert.Equal(t, "09:00", end)

	start, end, err = ParseSlotStart("8:00")
	require.NoError(t, err)
	assert.Equal(t, "08:00", start)
	assert.Equal(t, "09:00", end)

	_, end, err = ParseSlotStart("22:00")
	require.NoError(t, err)
	assert.Equal(t, "23:00", end)

	for _, bad := range []string{"07:00", "7:00", "23:00", "10:30", "1000", ""} {
		_, _, err := ParseSlotStart(bad)
		assert.Error(t, err, bad)
	}
}

func TestParseSlotDate(t *testing.T) {
	assert.NoError(t, ParseSlotDate("2024-03-01"))
	assert.Error(t, ParseSlotDate("2024-13-01"))
	assert.Error(t, ParseSlotDate("01/03/2024"))
}

func TestDayStarts(t *testing.T) {
	starts := DayStarts()
	require.Len(t, starts, 15)
	assert.Equal(t, "08:00", starts[0])
	assert.Equal(t, "22:00", starts[len(starts)-1])
}

func TestParseDecision(t *testing.T) {
	d, err := ParseDecision("reject")
	require.NoError(t, err)
	assert.Equal(t, DecisionReject, d)
	_, err = ParseDecision("maybe")
	assert.Error(t, err)
}
