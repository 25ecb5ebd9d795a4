// Package tz converts between U.S. Eastern and China Standard Time using the
// U.S. daylight-saving rule (second Sunday of March through the first Sunday
// of November). Both zones are modelled as fixed offsets so the functions
// never consult the host tz database.
package tz

import (
	"time"

	"econcal/internal/model"
)

var (
	// Beijing is China Standard Time, UTC+8 all year.
	Beijing = time.FixedZone("CST", 8*60*60)

	edt = time.FixedZone("EDT", -4*60*60)
	est = time.FixedZone("EST", -5*60*60)
)

// Eastern returns the fixed-offset Eastern zone for the given DST state.
func Eastern(isDST bool) *time.Location {
	if isDST {
		return edt
	}
	return est
}

// IsDaylightSavingTime reports whether U.S. Eastern daylight time is in
// effect on civil date d. DST starts on the 2nd Sunday of March (inclusive)
// and ends on the 1st Sunday of November (that Sunday is still counted as
// DST, the day after is not).
func IsDaylightSavingTime(d model.Date) bool {
	switch {
	case d.Month < time.March || d.Month > time.November:
		return false
	case d.Month > time.March && d.Month < time.November:
		return true
	case d.Month == time.March:
		return d.Day >= firstSunday(d.Year, time.March)+7
	default:
		return d.Day <= firstSunday(d.Year, time.November)
	}
}

func firstSunday(year int, month time.Month) int {
	wd := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday()
	return 1 + int(time.Sunday-wd+7)%7
}

// EasternToBeijing treats the wall clock of et as U.S. Eastern time and
// returns the same absolute instant expressed in Beijing: +12h under DST,
// +13h otherwise. The location attached to et is ignored.
func EasternToBeijing(et time.Time, isDST bool) time.Time {
	shift := 13 * time.Hour
	if isDST {
		shift = 12 * time.Hour
	}
	wall := time.Date(et.Year(), et.Month(), et.Day(), et.Hour(), et.Minute(), et.Second(), et.Nanosecond(), Beijing)
	return wall.Add(shift)
}

// EasternWall converts an absolute instant to U.S. Eastern wall time,
// choosing EDT or EST with IsDaylightSavingTime on the resulting date.
func EasternWall(t time.Time) time.Time {
	std := t.In(est)
	if !IsDaylightSavingTime(model.DateOf(std)) {
		return std
	}
	return t.In(edt)
}

// ReleaseInstant returns the Beijing instant of a release at clock c on
// Eastern civil date d.
func ReleaseInstant(d model.Date, c model.Clock) time.Time {
	return EasternToBeijing(d.At(c, time.UTC), IsDaylightSavingTime(d))
}

// DisplayET formats the Eastern wall clock as HH:MM.
func DisplayET(et time.Time) string {
	return et.Format("15:04")
}

// DisplayBJ formats the Beijing wall clock as HH:MM, prefixed with "次日 "
// when the Beijing calendar date is later than the Eastern one.
func DisplayBJ(et, bj time.Time) string {
	s := bj.Format("15:04")
	if model.DateOf(bj).After(model.DateOf(et)) {
		return "次日 " + s
	}
	return s
}
