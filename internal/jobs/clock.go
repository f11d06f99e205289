package jobs

import (
	"fmt"
	"regexp"
	"time"
	_ "time/tzdata" // zone database for minimal images

	"go.uber.org/zap"
)

// DefaultTimezone is used when the configured zone cannot be loaded.
const DefaultTimezone = "Africa/Cairo"

const (
	dateLayout   = "2006-01-02"
	minuteLayout = "15:04"
)

var clockPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Clock supplies the current instant.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Window is the current time decomposed in the configured zone, at minute
// resolution. The minute is the width of the match window.
type Window struct {
	Date    string    // YYYY-MM-DD
	Time    string    // HH:MM
	Weekday int       // 0=Sunday..6=Saturday
	Instant time.Time // exact instant, for timestamps and cooldowns
}

// WindowAt decomposes t as observed in loc.
func WindowAt(t time.Time, loc *time.Location) Window {
	local := t.In(loc)
	return Window{
		Date:    local.Format(dateLayout),
		Time:    local.Format(minuteLayout),
		Weekday: int(local.Weekday()),
		Instant: t,
	}
}

// Resolver resolves the current Window in one fixed zone.
type Resolver struct {
	clock Clock
	loc   *time.Location
}

// NewResolver loads timezone, falling back to DefaultTimezone and then UTC.
func NewResolver(clock Clock, timezone string, logger *zap.Logger) *Resolver {
	if clock == nil {
		clock = SystemClock{}
	}
	loc, err := LoadLocation(timezone)
	if err != nil {
		logger.Warn("falling back to default time zone",
			zap.String("timezone", timezone),
			zap.String("fallback", loc.String()),
			zap.Error(err),
		)
	}
	return &Resolver{clock: clock, loc: loc}
}

// LoadLocation returns the named zone. On failure it returns the fallback zone
// together with a ConfigurationError.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err == nil {
		return loc, nil
	}

	cfgErr := &ConfigurationError{Field: "timezone", Value: name, Err: err}
	if fallback, ferr := time.LoadLocation(DefaultTimezone); ferr == nil {
		return fallback, cfgErr
	}
	return time.UTC, cfgErr
}

func (r *Resolver) Now() Window {
	return WindowAt(r.clock.Now(), r.loc)
}

func (r *Resolver) Location() *time.Location {
	return r.loc
}

// ParseMinuteOfDay validates an HH:MM wall-clock minute.
func ParseMinuteOfDay(s string) (string, error) {
	if !clockPattern.MatchString(s) {
		return "", &ConfigurationError{Field: "minute of day", Value: s, Err: errMalformedClock}
	}
	return s, nil
}

// MustMinuteOfDay returns s when it is a valid HH:MM, otherwise fallback.
func MustMinuteOfDay(s, fallback string) string {
	if v, err := ParseMinuteOfDay(s); err == nil {
		return v
	}
	return fallback
}

func parseLocalMinute(date, clock string, loc *time.Location) (time.Time, error) {
	if _, err := ParseMinuteOfDay(clock); err != nil {
		return time.Time{}, err
	}
	t, err := time.ParseInLocation(dateLayout+" "+minuteLayout, date+" "+clock, loc)
	if err != nil {
		return time.Time{}, &ConfigurationError{Field: "scheduled date", Value: fmt.Sprintf("%s %s", date, clock), Err: err}
	}
	return t, nil
}
