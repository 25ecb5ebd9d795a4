package schedule

import (
	"time"

	"github.com/teambition/rrule-go"

	"econcal/internal/model"
)

// fomcMonths are the months with a scheduled FOMC decision.
var fomcMonths = []time.Month{
	time.January, time.March, time.May, time.June,
	time.July, time.September, time.November, time.December,
}

// NthDayOfWeek returns the n-th occurrence of weekday in the given month.
// When n is larger than the number of such weekdays in the month, the last
// one in the month is returned instead of rolling into the next month.
// n < 1 is treated as 1.
func NthDayOfWeek(year int, month time.Month, weekday time.Weekday, n int) model.Date {
	if n < 1 {
		n = 1
	}
	first := model.NewDate(year, month, 1)
	offset := int(weekday-first.Weekday()+7) % 7
	day := 1 + offset + (n-1)*7

	last := daysIn(year, month)
	if day > last {
		back := int(model.NewDate(year, month, last).Weekday()-weekday+7) % 7
		day = last - back
	}
	return model.NewDate(year, month, day)
}

func daysIn(year int, month time.Month) int {
	return model.NewDate(year, month+1, 0).Day
}

// FOMCDates returns the 2nd Wednesday of each FOMC month.
func FOMCDates(year int) []model.Date {
	out := make([]model.Date, 0, len(fomcMonths))
	for _, m := range fomcMonths {
		out = append(out, NthDayOfWeek(year, m, time.Wednesday, 2))
	}
	return out
}

// NFPDates returns the 1st Friday of every month.
func NFPDates(year int) []model.Date {
	return monthly(year, func(m time.Month) model.Date {
		return NthDayOfWeek(year, m, time.Friday, 1)
	})
}

// RetailSalesDates returns the 2nd Friday of every month.
func RetailSalesDates(year int) []model.Date {
	return monthly(year, func(m time.Month) model.Date {
		return NthDayOfWeek(year, m, time.Friday, 2)
	})
}

// CPIDates picks one Wednesday per month: the first one falling on the
// 12th-15th, otherwise the one closest to the 13.5th (earlier wins a tie),
// otherwise the 2nd or 1st Wednesday.
func CPIDates(year int) []model.Date {
	return monthly(year, func(m time.Month) model.Date {
		return cpiDate(wednesdays(year, m))
	})
}

func wednesdays(year int, month time.Month) []model.Date {
	out := make([]model.Date, 0, 5)
	for d := NthDayOfWeek(year, month, time.Wednesday, 1); d.Month == month; d = d.AddDays(7) {
		out = append(out, d)
	}
	return out
}

func cpiDate(weds []model.Date) model.Date {
	for _, w := range weds {
		if w.Day >= 12 && w.Day <= 15 {
			return w
		}
	}
	// Every month has at least four Wednesdays, so closest is always set.
	closest := weds[0]
	for _, w := range weds[1:] {
		if distance(w.Day) < distance(closest.Day) {
			closest = w
		}
	}
	return closest
}

func distance(day int) float64 {
	d := float64(day) - 13.5
	if d < 0 {
		return -d
	}
	return d
}

// PPIDates returns, for each CPI date, the closest weekday strictly before it.
func PPIDates(cpi []model.Date) []model.Date {
	out := make([]model.Date, 0, len(cpi))
	for _, c := range cpi {
		d := c.AddDays(-1)
		for d.IsWeekend() {
			d = d.AddDays(-1)
		}
		out = append(out, d)
	}
	return out
}

// ISMManufacturingDates returns the 1st Monday-to-Friday day of every month.
func ISMManufacturingDates(year int) []model.Date {
	return nthBusinessDays(year, 1)
}

// ISMNonManufacturingDates returns the 3rd Monday-to-Friday day of every month.
func ISMNonManufacturingDates(year int) []model.Date {
	return nthBusinessDays(year, 3)
}

// nthBusinessDays evaluates FREQ=MONTHLY;BYDAY=MO,TU,WE,TH,FR;BYSETPOS=n
// over the given year.
func nthBusinessDays(year, n int) []model.Date {
	return evaluate(rrule.ROption{
		Freq:      rrule.MONTHLY,
		Dtstart:   yearStart(year),
		Until:     yearEnd(year),
		Byweekday: []rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR},
		Bysetpos:  []int{n},
	})
}

// JoblessClaimsDates returns every Thursday of the year.
func JoblessClaimsDates(year int) []model.Date {
	return evaluate(rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   yearStart(year),
		Until:     yearEnd(year),
		Byweekday: []rrule.Weekday{rrule.TH},
	})
}

// Recurrences are anchored at noon: rrule-go reads a zero Dtstart as unset,
// and midnight on January 1 of year 1 is the zero time.Time.
func yearStart(year int) time.Time {
	return time.Date(year, time.January, 1, 12, 0, 0, 0, time.UTC)
}

func yearEnd(year int) time.Time {
	return time.Date(year, time.December, 31, 12, 0, 0, 0, time.UTC)
}

// evaluate expands a recurrence whose options are fixed at compile time;
// an invalid option set is a programming error.
func evaluate(opt rrule.ROption) []model.Date {
	r, err := rrule.NewRRule(opt)
	if err != nil {
		panic("schedule: invalid recurrence: " + err.Error())
	}
	times := r.All()
	out := make([]model.Date, 0, len(times))
	for _, t := range times {
		out = append(out, model.DateOf(t))
	}
	return out
}

func monthly(year int, pick func(time.Month) model.Date) []model.Date {
	out := make([]model.Date, 0, 12)
	for m := time.January; m <= time.December; m++ {
		out = append(out, pick(m))
	}
	return out
}
