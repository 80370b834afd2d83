package chrono

import "time"

// API is the clock used for anything that ends up in a report, it lets tests
// pin time.
type API interface {
	Now() time.Time
	Location() *time.Location
}

// StandardImpl reads the wall clock in India Standard Time, the time zone
// the upstream publishes results in.
type StandardImpl struct {
	location *time.Location
}

var ist = time.FixedZone("IST", 5*60*60+30*60)

// NewStandardImpl falls back to a fixed +05:30 zone when the tz database is
// not installed.
func NewStandardImpl() StandardImpl {
	location, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		location = ist
	}
	return StandardImpl{location: location}
}

func (s StandardImpl) Now() time.Time {
	return time.Now().In(s.location)
}

func (s StandardImpl) Location() *time.Location {
	return s.location
}

// FixedImpl is a clock that moves only when told to.
type FixedImpl struct {
	Current time.Time
}

func (f *FixedImpl) Now() time.Time {
	return f.Current
}

func (f *FixedImpl) Location() *time.Location {
	return f.Current.Location()
}

func (f *FixedImpl) Advance(d time.Duration) {
	f.Current = f.Current.Add(d)
}
