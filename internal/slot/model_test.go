package slot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpecialization(t *testing.T) {
	spec, err := ParseSpecialization("Cardiology")
	require.NoError(t, err)
	assert.Equal(t, SpecCardiology, spec)

	_, err = ParseSpecialization("cardiology")
	assert.Error(t, err, "specializations are case sensitive")

	_, err = ParseSpecialization("Podiatry")
	assert.Error(t, err)
}

func TestParseTimeSlot(t *testing.T) {
	ts, err := ParseTimeSlot("09:00-09:30")
	require.NoError(t, err)
	assert.Equal(t, TimeSlot0900, ts)

	_, err = ParseTimeSlot("09:00-10:00")
	assert.Error(t, err, "only fixed half-hour buckets are valid")

	_, err = ParseTimeSlot("")
	assert.Error(t, err)
}

func TestNormalizeDate(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	in := time.Date(2025, 5, 1, 23, 45, 12, 999, loc)

	got := NormalizeDate(in)

	assert.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, time.UTC, got.Location())
}
