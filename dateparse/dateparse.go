// Package dateparse turns the Date header values found in real-world email
// into absolute instants.
//
// Mail clients have emitted dates in many shapes over the decades, so parsing
// is a chain of strategies tried in a fixed order. The first strategy that
// recognises the input wins; later strategies are progressively looser.
package dateparse

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrUnparseableDate = errors.New("unparseable date")

// UnparseableError carries the raw header value that no strategy understood.
type UnparseableError struct {
	Raw string
}

func (e *UnparseableError) Error() string {
	return fmt.Sprintf("unparseable date %q", e.Raw)
}

func (e *UnparseableError) Unwrap() error {
	return ErrUnparseableDate
}

// ZoneKind describes where the UTC offset of a Timestamp came from.
type ZoneKind int

const (
	// ZoneLocal means the header carried no usable zone and the wall clock
	// was interpreted in the parser's local location.
	ZoneLocal ZoneKind = iota
	// ZoneOffset means an explicit numeric offset such as +0100.
	ZoneOffset
	// ZoneNamed means a zone abbreviation resolved through the zone table.
	ZoneNamed
)

func (k ZoneKind) String() string {
	switch k {
	case ZoneOffset:
		return "offset"
	case ZoneNamed:
		return "named"
	default:
		return "local"
	}
}

// Timestamp is a parsed Date header value.
type Timestamp struct {
	Time     time.Time
	Zone     ZoneKind
	ZoneName string
	Strategy string
}

// ZoneLabel is a short human readable description of the zone.
func (t Timestamp) ZoneLabel() string {
	if t.Zone == ZoneLocal || t.ZoneName == "" {
		return "local"
	}
	return t.ZoneName
}

// Strategy names, in the order they are tried.
const (
	StrategyRFC5322 = "rfc5322"
	StrategyCtime   = "ctime"
	StrategyISO     = "iso"
	StrategyScan    = "scan"
)

// Strategy is a single parsing attempt. Parse must not have side effects.
type Strategy struct {
	Name  string
	Parse func(raw string, local *time.Location) (Timestamp, error)
}

// Strategies is the default parsing chain.
var Strategies = []Strategy{
	{Name: StrategyRFC5322, Parse: parseRFC5322},
	{Name: StrategyCtime, Parse: parseCtime},
	{Name: StrategyISO, Parse: parseISO},
	{Name: StrategyScan, Parse: parseScan},
}

// Parser resolves Date header values. The zero value uses time.Local and the
// default strategy chain.
type Parser struct {
	// Local is the location used for headers without a usable zone.
	Local      *time.Location
	Strategies []Strategy
}

func New(local *time.Location) *Parser {
	return &Parser{Local: local}
}

// Parse runs raw through the strategy chain and returns the first success.
func (p *Parser) Parse(raw string) (Timestamp, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return Timestamp{}, &UnparseableError{Raw: raw}
	}

	local := p.Local
	if local == nil {
		local = time.Local
	}
	strategies := p.Strategies
	if len(strategies) == 0 {
		strategies = Strategies
	}

	for _, s := range strategies {
		ts, err := s.Parse(value, local)
		if err != nil {
			continue
		}
		ts.Strategy = s.Name
		return ts, nil
	}

	return Timestamp{}, &UnparseableError{Raw: raw}
}
