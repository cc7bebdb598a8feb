package model

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	Start Date `json:"start"`
	End   Date `json:"end"`
}

// IsZero reports whether the range is unset.
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Days returns the inclusive length of the range. Inverted ranges have length 0.
func (r DateRange) Days() int {
	if r.IsZero() || r.End.Before(r.Start.Time) {
		return 0
	}
	return r.Start.DaysUntil(r.End) + 1
}

// Overlap returns the number of days shared by r and o.
func (r DateRange) Overlap(o DateRange) int {
	if r.Days() == 0 || o.Days() == 0 {
		return 0
	}
	start := r.Start
	if o.Start.After(start.Time) {
		start = o.Start
	}
	end := r.End
	if o.End.Before(end.Time) {
		end = o.End
	}
	if end.Before(start.Time) {
		return 0
	}
	return start.DaysUntil(end) + 1
}

// Intersects reports whether r and o share at least one day.
func (r DateRange) Intersects(o DateRange) bool {
	return r.Overlap(o) > 0
}

// Equal reports whether both ranges cover exactly the same days.
func (r DateRange) Equal(o DateRange) bool {
	return r.Start.Equal(o.Start.Time) && r.End.Equal(o.End.Time)
}

// Trip is one planned stay at a resort.
type Trip struct {
	ID       string    `json:"id"`
	UserID   string    `json:"user_id"`
	ResortID string    `json:"resort_id"`
	Range    DateRange `json:"range"`
}

// SpanOf returns the range from the earliest to the latest date. Empty input yields a zero range.
func SpanOf(dates []Date) DateRange {
	var r DateRange
	for _, d := range dates {
		if d.IsZero() {
			continue
		}
		if r.Start.IsZero() || d.Before(r.Start.Time) {
			r.Start = d
		}
		if r.End.IsZero() || d.After(r.End.Time) {
			r.End = d
		}
	}
	return r
}
