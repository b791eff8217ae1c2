package mailq

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var monthMap = map[string]time.Month{
	"Jan": time.January, "Feb": time.February, "Mar": time.March,
	"Apr": time.April, "May": time.May, "Jun": time.June,
	"Jul": time.July, "Aug": time.August, "Sep": time.September,
	"Oct": time.October, "Nov": time.November, "Dec": time.December,
}

// ResolveQueueDate converts a mailq arrival date ("Tue Feb 10 10:35:41",
// no year) into an absolute time. The candidate is built with now's
// year; a candidate in the future rolls back one year, which covers
// December messages inspected in early January. Messages older than a
// year cannot be disambiguated and resolve into the wrong year.
func ResolveQueueDate(raw string, now time.Time) (time.Time, error) {
	fields := strings.Fields(raw)
	if len(fields) != 4 {
		return time.Time{}, fmt.Errorf("malformed queue date %q", raw)
	}
	// fields[0] is the weekday, which carries no information.
	return resolveMonthDay(fields[1], fields[2], fields[3], now)
}

// ResolveSyslogDate converts a syslog date ("Sep  5 10:30:36", no year)
// into an absolute time, with the same single-step year rollback.
func ResolveSyslogDate(raw string, now time.Time) (time.Time, error) {
	fields := strings.Fields(raw)
	if len(fields) != 3 {
		return time.Time{}, fmt.Errorf("malformed syslog date %q", raw)
	}
	return resolveMonthDay(fields[0], fields[1], fields[2], now)
}

func resolveMonthDay(mon, day, clock string, now time.Time) (time.Time, error) {
	month, ok := monthMap[mon]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown month %q", mon)
	}

	d, err := strconv.Atoi(day)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed day %q", day)
	}

	hms := strings.Split(clock, ":")
	if len(hms) != 3 {
		return time.Time{}, fmt.Errorf("malformed time %q", clock)
	}
	hour, err := strconv.Atoi(hms[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed time %q", clock)
	}
	minute, err := strconv.Atoi(hms[1])
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed time %q", clock)
	}
	second, err := strconv.Atoi(hms[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed time %q", clock)
	}

	t := time.Date(now.Year(), month, d, hour, minute, second, 0, now.Location())
	if t.After(now) {
		t = time.Date(now.Year()-1, month, d, hour, minute, second, 0, now.Location())
	}
	return t, nil
}
