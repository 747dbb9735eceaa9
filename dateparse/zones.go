package dateparse

import (
	"strconv"
	"strings"
	"time"
)

const hour = 60 * 60

// namedZones maps abbreviations to the offset they literally name. Daylight
// variants have their own entries; no seasonal correction is applied, so a
// header saying CET in July still resolves to +0100.
var namedZones = map[string]int{
	"UT":  0,
	"UTC": 0,
	"GMT": 0,

	// North America
	"EST":  -5 * hour,
	"EDT":  -4 * hour,
	"CST":  -6 * hour,
	"CDT":  -5 * hour,
	"MST":  -7 * hour,
	"MDT":  -6 * hour,
	"PST":  -8 * hour,
	"PDT":  -7 * hour,
	"AKST": -9 * hour,
	"AKDT": -8 * hour,
	"HST":  -10 * hour,
	"AST":  -4 * hour,
	"ADT":  -3 * hour,
	"NST":  -(3*hour + 30*60),
	"NDT":  -(2*hour + 30*60),

	// Europe
	"WET":  0,
	"WEST": 1 * hour,
	"BST":  1 * hour,
	"CET":  1 * hour,
	"CEST": 2 * hour,
	"MET":  1 * hour,
	"MEST": 2 * hour,
	"MEZ":  1 * hour,
	"MESZ": 2 * hour,
	"EET":  2 * hour,
	"EEST": 3 * hour,
	"MSK":  3 * hour,

	// Asia / Pacific
	"IST":  5*hour + 30*60,
	"HKT":  8 * hour,
	"SGT":  8 * hour,
	"AWST": 8 * hour,
	"JST":  9 * hour,
	"KST":  9 * hour,
	"ACST": 9*hour + 30*60,
	"AEST": 10 * hour,
	"AEDT": 11 * hour,
	"NZST": 12 * hour,
	"NZDT": 13 * hour,
}

type zone struct {
	kind   ZoneKind
	name   string
	offset int
}

var localZone = zone{kind: ZoneLocal}

func (z zone) location(local *time.Location) *time.Location {
	if z.kind == ZoneLocal {
		return local
	}
	return time.FixedZone(z.name, z.offset)
}

// zoneToken interprets a single token in zone position. Numeric offsets and
// table hits resolve to a fixed offset. Military letters and unknown
// abbreviations fall back to local time. Anything else is not a zone.
func zoneToken(tok string) (zone, error) {
	if tok == "" {
		return localZone, nil
	}
	if tok[0] == '+' || tok[0] == '-' {
		return parseOffset(tok)
	}
	if !isLetters(tok) {
		return zone{}, errNoMatch
	}
	if z, ok := lookupZone(tok); ok {
		return z, nil
	}
	return localZone, nil
}

func lookupZone(tok string) (zone, bool) {
	name := strings.ToUpper(tok)
	offset, ok := namedZones[name]
	if !ok {
		return zone{}, false
	}
	return zone{kind: ZoneNamed, name: name, offset: offset}, true
}

// parseOffset accepts +HHMM and +HH:MM.
func parseOffset(tok string) (zone, error) {
	if len(tok) < 5 || (tok[0] != '+' && tok[0] != '-') {
		return zone{}, errNoMatch
	}
	digits := strings.Replace(tok[1:], ":", "", 1)
	if len(digits) != 4 || !isDigits(digits) {
		return zone{}, errNoMatch
	}
	hh, _ := strconv.Atoi(digits[:2])
	mm, _ := strconv.Atoi(digits[2:])
	if hh > 23 || mm > 59 {
		return zone{}, errRange
	}

	offset := hh*hour + mm*60
	if tok[0] == '-' {
		offset = -offset
	}
	return zone{kind: ZoneOffset, name: tok[:1] + digits, offset: offset}, nil
}
