// Package calendar holds the wall-clock value types used for scheduling.
// Values are plain structs copied by value; nothing is validated or normalised
// on construction, and there is no leap-year handling.
package calendar

import "fmt"

type Time struct {
	Hour   int
	Minute int
	Second int
}

type Date struct {
	Year  int
	Month int
	Day   int
}

type DateTime struct {
	Date Date
	Time Time
}

// Duration is a signed count of seconds. Negative values are representable
// but only positive durations advance a clock value.
type Duration int

func (d Duration) Seconds() int { return int(d) }
func (d Duration) Minutes() int { return int(d) / 60 }
func (d Duration) Hours() int   { return int(d) / 3600 }

func NewTime(hour, minute, second int) Time {
	return Time{Hour: hour, Minute: minute, Second: second}
}

func NewDate(year, month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// At combines the date with a time of day.
func (d Date) At(hour, minute, second int) DateTime {
	return DateTime{Date: d, Time: NewTime(hour, minute, second)}
}

// DaysInMonth returns 31 for 1,3,5,7,8,10,12, 28 for 2 and 30 for anything
// else, including out-of-range months.
func DaysInMonth(month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 2:
		return 28
	default:
		return 30
	}
}

func compareInts(pairs ...[2]int) int {
	for _, p := range pairs {
		switch {
		case p[0] < p[1]:
			return -1
		case p[0] > p[1]:
			return 1
		}
	}
	return 0
}

// Compare orders times field by field (hour, minute, second).
func (t Time) Compare(u Time) int {
	return compareInts([2]int{t.Hour, u.Hour}, [2]int{t.Minute, u.Minute}, [2]int{t.Second, u.Second})
}

func (t Time) After(u Time) bool  { return t.Compare(u) > 0 }
func (t Time) Before(u Time) bool { return t.Compare(u) < 0 }

// Compare orders dates field by field (year, month, day).
func (d Date) Compare(e Date) int {
	return compareInts([2]int{d.Year, e.Year}, [2]int{d.Month, e.Month}, [2]int{d.Day, e.Day})
}

func (dt DateTime) Compare(other DateTime) int {
	if c := dt.Date.Compare(other.Date); c != 0 {
		return c
	}
	return dt.Time.Compare(other.Time)
}

func (dt DateTime) After(other DateTime) bool  { return dt.Compare(other) > 0 }
func (dt DateTime) Before(other DateTime) bool { return dt.Compare(other) < 0 }

// Since returns the seconds elapsed from other to t assuming both fall on the
// same day. The result is negative when other is later than t.
func (t Time) Since(other Time) Duration {
	return Duration((t.Hour-other.Hour)*3600 + (t.Minute-other.Minute)*60 + (t.Second - other.Second))
}

// AddDuration advances t by d seconds, wrapping at midnight. Durations <= 0
// leave t unchanged. A field only carries when it reaches exactly its
// rollover value, so out-of-range fields are never normalised.
func (t Time) AddDuration(d Duration) Time {
	for i := Duration(0); i < d; i++ {
		t, _ = t.tick()
	}
	return t
}

// tick advances the clock by one second and reports whether the hour
// wrapped from 23 to 0.
func (t Time) tick() (Time, bool) {
	t.Second++
	if t.Second != 60 {
		return t, false
	}
	t.Second = 0
	t.Minute++
	if t.Minute != 60 {
		return t, false
	}
	t.Minute = 0
	t.Hour++
	if t.Hour != 24 {
		return t, false
	}
	t.Hour = 0
	return t, true
}

// nextDay rolls to day 1 of the following month once the day reaches the
// month length, and into the next year after December.
func (d Date) nextDay() Date {
	if d.Day != DaysInMonth(d.Month) {
		d.Day++
		return d
	}
	d.Day = 1
	if d.Month == 12 {
		d.Month = 1
		d.Year++
	} else {
		d.Month++
	}
	return d
}

// AddDuration advances dt by d seconds, rolling the date forward at every
// midnight crossing. Durations <= 0 leave dt unchanged.
func (dt DateTime) AddDuration(d Duration) DateTime {
	var wrapped bool
	for i := Duration(0); i < d; i++ {
		if dt.Time, wrapped = dt.Time.tick(); wrapped {
			dt.Date = dt.Date.nextDay()
		}
	}
	return dt
}

func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

func (dt DateTime) String() string {
	return dt.Date.String() + "T" + dt.Time.String()
}
