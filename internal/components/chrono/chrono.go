package chrono

import "time"

// TimeAPI is the interface that anything depending on the system clock should use.
type TimeAPI interface {
	Now() time.Time
	Location() *time.Location
}

// StandardTime is the standard implementation of TimeAPI using the standard library.
type StandardTime struct {
	location *time.Location
}

// NewStandardTime creates a StandardTime for the given IANA timezone name.
func NewStandardTime(tz string) (StandardTime, error) {
	location, err := time.LoadLocation(tz)
	if err != nil {
		return StandardTime{}, err
	}
	return StandardTime{location: location}, nil
}

func (s StandardTime) Now() time.Time {
	if s.location == nil {
		return time.Now()
	}
	return time.Now().In(s.location)
}

func (s StandardTime) Location() *time.Location {
	if s.location == nil {
		return time.Local
	}
	return s.location
}

// FixedTime always returns the same instant, it is used in tests.
type FixedTime struct {
	T time.Time
}

func (f FixedTime) Now() time.Time {
	return f.T
}

func (f FixedTime) Location() *time.Location {
	return f.T.Location()
}
