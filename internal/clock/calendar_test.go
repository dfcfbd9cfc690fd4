package clock

import (
	"context"
	"testing"
	"time"

	testclockctx "github.com/FelipeFraul/buscai-v2-sub000/internal/testclock/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusinessCalendarDayUsesFixedTimezone(t *testing.T) {
	cal, err := NewBusinessCalendar("America/Sao_Paulo")
	require.NoError(t, err)

	// 01:30 UTC on the 15th is still the 14th in Sao Paulo (UTC-3).
	day := cal.Day(time.Date(2026, 3, 15, 1, 30, 0, 0, time.UTC))
	assert.Equal(t, "2026-03-14", day.Key)
	assert.Equal(t, time.Date(2026, 3, 14, 3, 0, 0, 0, time.UTC), day.Start)
	assert.Equal(t, time.Date(2026, 3, 15, 3, 0, 0, 0, time.UTC), day.End)

	day = cal.Day(time.Date(2026, 3, 15, 3, 0, 0, 0, time.UTC))
	assert.Equal(t, "2026-03-15", day.Key)
}

func TestBusinessCalendarDefaultsAndErrors(t *testing.T) {
	cal, err := NewBusinessCalendar("")
	require.NoError(t, err)
	assert.Equal(t, DefaultBusinessTimezone, cal.Location().String())

	_, err = NewBusinessCalendar("Mars/Olympus_Mons")
	assert.ErrorIs(t, err, ErrInvalidTimezone)
}

func TestSystemClockHonoursSimulatedTime(t *testing.T) {
	simulated := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	ctx := testclockctx.WithSimulatedTime(context.Background(), simulated)

	assert.Equal(t, simulated, New().Now(ctx))
	assert.WithinDuration(t, time.Now().UTC(), New().Now(context.Background()), time.Minute)
}
