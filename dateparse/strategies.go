package dateparse

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

var (
	errNoMatch = errors.New("layout does not match")
	errRange   = errors.New("field out of range")
)

var (
	dayNames   = []string{"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday"}
	monthNames = []string{"january", "february", "march", "april", "may", "june", "july", "august", "september", "october", "november", "december"}

	isoRE   = regexp.MustCompile(`^(\d{4})-(\d{1,2})-(\d{1,2})(?:T|t|\s+)(\d{1,2}):(\d{2})(?::(\d{2})(?:[.,](\d{1,9}))?)?\s*(\S*)$`)
	clockRE = regexp.MustCompile(`(?:^|[^0-9:])(\d{1,2}):(\d{2})(?::(\d{2}))?(?:[^0-9:]|$)`)
	// an offset must not be glued to preceding digits, which keeps -2024 in
	// "05-Mar-2024" from being read as a zone.
	offsetRE   = regexp.MustCompile(`(?:^|[^0-9])([+-]\d{2}:?\d{2})(?:[^0-9]|$)`)
	meridiemRE = regexp.MustCompile(`^(\s*([AaPp])\.?[Mm]\.?)(?:[^A-Za-z]|$)`)
)

// clockMark separates the tokens before and after the clock so that day and
// month are never paired across it.
const clockMark = "|"

// fields holds calendar values before they are range checked and assembled.
type fields struct {
	year, month, day     int
	hour, minute, second int
	nsec                 int
}

func (f fields) validate() error {
	if f.year < 1900 || f.year > 9999 {
		return errRange
	}
	if f.month < 1 || f.month > 12 {
		return errRange
	}
	if f.day < 1 || f.day > daysIn(time.Month(f.month), f.year) {
		return errRange
	}
	if f.hour < 0 || f.hour > 23 || f.minute < 0 || f.minute > 59 || f.second < 0 || f.second > 59 {
		return errRange
	}
	return nil
}

func (f fields) timestamp(z zone, local *time.Location) (Timestamp, error) {
	if err := f.validate(); err != nil {
		return Timestamp{}, err
	}
	t := time.Date(f.year, time.Month(f.month), f.day, f.hour, f.minute, f.second, f.nsec, z.location(local))
	return Timestamp{Time: t, Zone: z.kind, ZoneName: z.name}, nil
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// parseRFC5322 handles "[Day-name[,]] day month year hh:mm[:ss] [zone]".
func parseRFC5322(raw string, local *time.Location) (Timestamp, error) {
	toks := tokenize(stripComments(raw))
	if len(toks) > 0 && isDayName(toks[0]) {
		toks = toks[1:]
	}
	if len(toks) < 4 || len(toks) > 5 {
		return Timestamp{}, errNoMatch
	}

	var f fields
	var err error
	if f.day, err = parseDay(toks[0]); err != nil {
		return Timestamp{}, err
	}
	if f.month, err = parseMonth(toks[1]); err != nil {
		return Timestamp{}, err
	}
	if f.year, err = parseYear(toks[2]); err != nil {
		return Timestamp{}, err
	}
	if f.hour, f.minute, f.second, err = parseClock(toks[3]); err != nil {
		return Timestamp{}, err
	}

	z := localZone
	if len(toks) == 5 {
		if z, err = zoneToken(toks[4]); err != nil {
			return Timestamp{}, err
		}
	}
	return f.timestamp(z, local)
}

// parseCtime handles the asctime/ctime shape "[Day-name] Month day hh:mm[:ss]
// [zone] year [zone]".
func parseCtime(raw string, local *time.Location) (Timestamp, error) {
	toks := tokenize(stripComments(raw))
	if len(toks) > 0 && isDayName(toks[0]) {
		toks = toks[1:]
	}
	if len(toks) < 4 {
		return Timestamp{}, errNoMatch
	}

	var f fields
	var err error
	if f.month, err = parseMonth(toks[0]); err != nil {
		return Timestamp{}, err
	}
	if f.day, err = parseDay(toks[1]); err != nil {
		return Timestamp{}, err
	}
	if f.hour, f.minute, f.second, err = parseClock(toks[2]); err != nil {
		return Timestamp{}, err
	}

	rest := toks[3:]
	z := localZone
	zoneSeen := false
	if !isDigits(rest[0]) {
		if z, err = zoneToken(rest[0]); err != nil {
			return Timestamp{}, err
		}
		zoneSeen = true
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return Timestamp{}, errNoMatch
	}
	if len(rest[0]) != 4 {
		return Timestamp{}, errNoMatch
	}
	if f.year, err = parseYear(rest[0]); err != nil {
		return Timestamp{}, err
	}
	rest = rest[1:]

	switch {
	case len(rest) == 0:
	case len(rest) == 1 && !zoneSeen:
		if z, err = zoneToken(rest[0]); err != nil {
			return Timestamp{}, err
		}
	default:
		return Timestamp{}, errNoMatch
	}
	return f.timestamp(z, local)
}

// parseISO handles "YYYY-MM-DD[T ]hh:mm[:ss[.frac]][zone]".
func parseISO(raw string, local *time.Location) (Timestamp, error) {
	m := isoRE.FindStringSubmatch(strings.TrimSpace(stripComments(raw)))
	if m == nil {
		return Timestamp{}, errNoMatch
	}

	f := fields{
		year:   atoi(m[1]),
		month:  atoi(m[2]),
		day:    atoi(m[3]),
		hour:   atoi(m[4]),
		minute: atoi(m[5]),
		second: atoi(m[6]),
	}
	if frac := m[7]; frac != "" {
		f.nsec = atoi(frac + strings.Repeat("0", 9-len(frac)))
	}

	z := localZone
	switch tok := m[8]; {
	case tok == "":
	case tok == "Z" || tok == "z":
		z = zone{kind: ZoneOffset, name: "Z", offset: 0}
	default:
		var err error
		if z, err = zoneToken(tok); err != nil {
			return Timestamp{}, err
		}
	}
	return f.timestamp(z, local)
}

// parseScan is the last resort: it looks for a clock, a month name with the
// day number next to it and a four digit year anywhere in the string. Zone
// information is taken from the text after the clock.
func parseScan(raw string, local *time.Location) (Timestamp, error) {
	loc := clockRE.FindStringSubmatchIndex(raw)
	if loc == nil {
		return Timestamp{}, errNoMatch
	}

	var f fields
	f.hour = atoi(raw[loc[2]:loc[3]])
	f.minute = atoi(raw[loc[4]:loc[5]])
	if loc[6] >= 0 {
		f.second = atoi(raw[loc[6]:loc[7]])
	}

	end := loc[5]
	if loc[6] >= 0 {
		end = loc[7]
	}
	before, after := raw[:loc[2]], raw[end:]

	if mm := meridiemRE.FindStringSubmatchIndex(after); mm != nil {
		if f.hour < 1 || f.hour > 12 {
			return Timestamp{}, errRange
		}
		pm := after[mm[4]]|0x20 == 'p'
		switch {
		case pm && f.hour != 12:
			f.hour += 12
		case !pm && f.hour == 12:
			f.hour = 0
		}
		after = after[mm[3]:]
	}

	z := localZone
	if om := offsetRE.FindStringSubmatchIndex(after); om != nil {
		oz, err := parseOffset(after[om[2]:om[3]])
		if err == nil {
			z = oz
			after = after[:om[2]] + " " + after[om[3]:]
		}
	}
	if z.kind == ZoneLocal {
		for _, tok := range scanTokens(after) {
			if nz, ok := lookupZone(tok); ok {
				z = nz
				break
			}
		}
	}

	toks := append(scanTokens(before), clockMark)
	toks = append(toks, scanTokens(after)...)

	mi := -1
	for i, tok := range toks {
		if !isLetters(tok) {
			continue
		}
		if m, err := parseMonth(tok); err == nil {
			f.month = m
			mi = i
			break
		}
	}
	if mi < 0 {
		return Timestamp{}, errNoMatch
	}

	day, err := adjacentDay(toks, mi)
	if err != nil {
		return Timestamp{}, err
	}
	f.day = day

	year, ok := findYear(toks, mi)
	if !ok {
		return Timestamp{}, errNoMatch
	}
	f.year = year

	return f.timestamp(z, local)
}

// adjacentDay reads the day from the token right before the month, or else
// right after it. A day number out of range fails instead of looking further.
func adjacentDay(toks []string, month int) (int, error) {
	for _, i := range []int{month - 1, month + 1} {
		if i < 0 || i >= len(toks) {
			continue
		}
		if tok := toks[i]; len(tok) <= 2 && isDigits(tok) {
			return parseDay(tok)
		}
	}
	return 0, errNoMatch
}

// findYear prefers the first four digit token after the month and falls back
// to the last one before it.
func findYear(toks []string, month int) (int, bool) {
	for _, tok := range toks[month+1:] {
		if len(tok) == 4 && isDigits(tok) {
			return atoi(tok), true
		}
	}
	for i := month - 1; i >= 0; i-- {
		if tok := toks[i]; len(tok) == 4 && isDigits(tok) {
			return atoi(tok), true
		}
	}
	return 0, false
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
}

func scanTokens(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		switch r {
		case ',', '/', '-', '.', '(', ')', ';', '[', ']', '<', '>':
			return true
		}
		return unicode.IsSpace(r)
	})
}

// stripComments removes parenthesised comments, nested ones included. An
// unbalanced opening parenthesis drops the rest of the string.
func stripComments(s string) string {
	if !strings.Contains(s, "(") {
		return s
	}
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '(':
			depth++
		case r == ')' && depth > 0:
			depth--
			if depth == 0 {
				b.WriteByte(' ')
			}
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isDayName(tok string) bool {
	l := strings.ToLower(strings.TrimSuffix(tok, "."))
	if len(l) < 3 || !isLetters(l) {
		return false
	}
	for _, name := range dayNames {
		if strings.HasPrefix(name, l) {
			return true
		}
	}
	return false
}

// parseMonth accepts the three letter abbreviation, the full name, or any
// prefix of at least three letters ("Sept").
func parseMonth(tok string) (int, error) {
	l := strings.ToLower(strings.TrimSuffix(tok, "."))
	if len(l) < 3 || !isLetters(l) {
		return 0, errNoMatch
	}
	for i, name := range monthNames {
		if strings.HasPrefix(name, l) {
			return i + 1, nil
		}
	}
	return 0, errNoMatch
}

func parseDay(tok string) (int, error) {
	if len(tok) == 0 || len(tok) > 2 || !isDigits(tok) {
		return 0, errNoMatch
	}
	d := atoi(tok)
	if d < 1 || d > 31 {
		return 0, errRange
	}
	return d, nil
}

// parseYear accepts four digit years and the obsolete two and three digit
// forms from RFC 5322 section 4.3.
func parseYear(tok string) (int, error) {
	if !isDigits(tok) {
		return 0, errNoMatch
	}
	y := atoi(tok)
	switch len(tok) {
	case 4:
		return y, nil
	case 3:
		return y + 1900, nil
	case 2:
		if y < 50 {
			return y + 2000, nil
		}
		return y + 1900, nil
	}
	return 0, errNoMatch
}

func parseClock(tok string) (h, m, s int, err error) {
	parts := strings.Split(tok, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, 0, 0, errNoMatch
	}
	vals := make([]int, 3)
	for i, p := range parts {
		if len(p) == 0 || len(p) > 2 || !isDigits(p) {
			return 0, 0, 0, errNoMatch
		}
		vals[i] = atoi(p)
	}
	if vals[0] > 23 || vals[1] > 59 || vals[2] > 59 {
		return 0, 0, 0, errRange
	}
	return vals[0], vals[1], vals[2], nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isLetters(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i] | 0x20
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
