package domain

import "time"

type ClosureType string

const (
	ClosurePrep     ClosureType = "prep"
	ClosureReserved ClosureType = "reserved"
)

// ClosedDate blocks a calendar date from new bookings. An accepted
// purchase claims three dates: two prep days and the event day.
type ClosedDate struct {
	Date time.Time // date only, UTC midnight
	Type ClosureType
}

// ClosedDatesFor builds the batch of dates a purchase on eventDate
// claims: eventDate-2 and eventDate-1 as prep, eventDate as reserved.
func ClosedDatesFor(eventDate time.Time) []ClosedDate {
	d := DateOnly(eventDate)
	return []ClosedDate{
		{Date: d.AddDate(0, 0, -2), Type: ClosurePrep},
		{Date: d.AddDate(0, 0, -1), Type: ClosurePrep},
		{Date: d, Type: ClosureReserved},
	}
}
