package domain

import "time"

// Interval is a rental period. Start must be strictly before End.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func NewInterval(start, end time.Time) (Interval, error) {
	iv := Interval{Start: start.UTC(), End: end.UTC()}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

func (iv Interval) Validate() error {
	if iv.Start.IsZero() || iv.End.IsZero() {
		return InvalidInput("rental start and end are required")
	}
	if !iv.Start.Before(iv.End) {
		return InvalidInput("rental end must be after rental start")
	}
	return nil
}

func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Overlaps treats the boundaries as inclusive: a reservation ending at the
// instant another begins still counts as overlapping, so back-to-back rentals
// of the last unit need a gap between return and pickup.
func (iv Interval) Overlaps(other Interval) bool {
	return !iv.Start.After(other.End) && !other.Start.After(iv.End)
}
