package clock

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

const DefaultBusinessTimezone = "America/Sao_Paulo"

var ErrInvalidTimezone = errors.New("invalid_business_timezone")

// BusinessCalendar resolves business-day boundaries in one fixed timezone.
// Budgets reset on these boundaries regardless of the host's local time.
type BusinessCalendar struct {
	loc *time.Location
}

// BusinessDay is the half-open interval [Start, End) in UTC.
type BusinessDay struct {
	Start time.Time
	End   time.Time
	Key   string
}

func NewBusinessCalendar(timezone string) (*BusinessCalendar, error) {
	name := strings.TrimSpace(timezone)
	if name == "" {
		name = DefaultBusinessTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTimezone, name)
	}
	return &BusinessCalendar{loc: loc}, nil
}

func (c *BusinessCalendar) Location() *time.Location {
	return c.loc
}

func (c *BusinessCalendar) Day(t time.Time) BusinessDay {
	local := t.In(c.loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.loc)
	end := start.AddDate(0, 0, 1)
	return BusinessDay{
		Start: start.UTC(),
		End:   end.UTC(),
		Key:   start.Format("2006-01-02"),
	}
}
