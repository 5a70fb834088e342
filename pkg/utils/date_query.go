package utils

import (
	"regexp"
	"strconv"
)

// DateQuery holds date components recognized in a search string.
// Zero-valued components were not part of the query.
type DateQuery struct {
	Year  int
	Month int
	Day   int
}

var (
	digitsRe    = regexp.MustCompile(`^\d+$`)
	separatorRe = regexp.MustCompile(`[./-]`)
)

// ParseDateQuery recognizes the date-shorthand patterns YYYY, MMYY,
// DDMMYY, YYYYMM and YYYYMMDD, each optionally separated by ".", "/"
// or "-". It returns nil when the input is not one of these patterns,
// in which case the caller treats it as plain text.
func ParseDateQuery(search string) *DateQuery {
	parts := separatorRe.Split(search, -1)
	for _, p := range parts {
		if !digitsRe.MatchString(p) {
			return nil
		}
	}

	if len(parts) > 1 {
		return parseSeparated(parts)
	}
	return parseCompact(search)
}

func parseSeparated(parts []string) *DateQuery {
	switch len(parts) {
	case 2:
		a, _ := strconv.Atoi(parts[0])
		b, _ := strconv.Atoi(parts[1])
		if len(parts[0]) == 2 && len(parts[1]) == 2 && validMonth(a) {
			return &DateQuery{Year: shortYear(b), Month: a}
		}
		if len(parts[0]) == 4 && len(parts[1]) == 2 && validYear(a) && validMonth(b) {
			return &DateQuery{Year: a, Month: b}
		}
	case 3:
		a, _ := strconv.Atoi(parts[0])
		b, _ := strconv.Atoi(parts[1])
		c, _ := strconv.Atoi(parts[2])
		if len(parts[0]) == 2 && len(parts[1]) == 2 && len(parts[2]) == 2 && validMonth(b) && validDay(a) {
			return &DateQuery{Year: shortYear(c), Month: b, Day: a}
		}
		if len(parts[0]) == 4 && len(parts[1]) == 2 && len(parts[2]) == 2 && validYear(a) && validMonth(b) && validDay(c) {
			return &DateQuery{Year: a, Month: b, Day: c}
		}
	}
	return nil
}

func parseCompact(search string) *DateQuery {
	switch len(search) {
	case 4:
		// A 4-digit number reads as a year when plausible and as
		// MMYY otherwise. "1899" is neither and stays plain text.
		v, _ := strconv.Atoi(search)
		if validYear(v) {
			return &DateQuery{Year: v}
		}
		month, _ := strconv.Atoi(search[:2])
		year, _ := strconv.Atoi(search[2:])
		if validMonth(month) {
			return &DateQuery{Year: shortYear(year), Month: month}
		}
	case 6:
		// Ambiguous between DDMMYY and YYYYMM. The short form
		// wins when its day and month are in range.
		day, _ := strconv.Atoi(search[:2])
		month, _ := strconv.Atoi(search[2:4])
		year, _ := strconv.Atoi(search[4:])
		if validMonth(month) && validDay(day) {
			return &DateQuery{Year: shortYear(year), Month: month, Day: day}
		}
		year, _ = strconv.Atoi(search[:4])
		month, _ = strconv.Atoi(search[4:])
		if validYear(year) && validMonth(month) {
			return &DateQuery{Year: year, Month: month}
		}
	case 8:
		year, _ := strconv.Atoi(search[:4])
		month, _ := strconv.Atoi(search[4:6])
		day, _ := strconv.Atoi(search[6:])
		if validYear(year) && validMonth(month) && validDay(day) {
			return &DateQuery{Year: year, Month: month, Day: day}
		}
	}
	return nil
}

func shortYear(y int) int {
	if y < 100 {
		return y + 2000
	}
	return y
}

func validYear(y int) bool  { return y >= 1900 && y <= 2100 }
func validMonth(m int) bool { return m >= 1 && m <= 12 }
func validDay(d int) bool   { return d >= 1 && d <= 31 }
