package topology

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Direction says which way traffic flows across a link.
type Direction int

const (
	DirectionInvalid Direction = iota
	DirectionASideToZSide
	DirectionZSideToASide
	DirectionBidirectional
)

func (d Direction) Valid() bool {
	return d >= DirectionInvalid && d <= DirectionBidirectional
}

func (d Direction) String() string {
	switch d {
	case DirectionASideToZSide:
		return "ASIDE_TO_ZSIDE"
	case DirectionZSideToASide:
		return "ZSIDE_TO_ASIDE"
	case DirectionBidirectional:
		return "BIDIRECTIONAL"
	default:
		return "INVALID"
	}
}

// Symbol is the arrow used in list rows and link titles.
func (d Direction) Symbol() string {
	switch d {
	case DirectionASideToZSide:
		return "→"
	case DirectionZSideToASide:
		return "←"
	case DirectionBidirectional:
		return "↔"
	default:
		return "⊗"
	}
}

func (d Direction) Text() string {
	switch d {
	case DirectionASideToZSide:
		return "A-Side to Z-Side"
	case DirectionZSideToASide:
		return "Z-Side to A-Side"
	case DirectionBidirectional:
		return "Bidirectional"
	default:
		return "Invalid"
	}
}

// Class is the scene class for strokes, e.g. "direction-1".
func (d Direction) Class() string {
	return fmt.Sprintf("direction-%d", d.code())
}

// ArrowAtStart reports whether the a-side end carries an arrowhead.
func (d Direction) ArrowAtStart() bool {
	return d == DirectionZSideToASide || d == DirectionBidirectional
}

// ArrowAtEnd reports whether the z-side end carries an arrowhead.
func (d Direction) ArrowAtEnd() bool {
	return d == DirectionASideToZSide || d == DirectionBidirectional
}

func (d Direction) code() int {
	if !d.Valid() {
		return int(DirectionInvalid)
	}
	return int(d)
}

func (d Direction) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.code())
}

func (d *Direction) UnmarshalJSON(b []byte) error {
	*d = ParseDirection(rawScalar(b))
	return nil
}

// ParseDirection accepts integer codes, numeric strings and enum names. Anything else is
// DirectionInvalid.
func ParseDirection(v string) Direction {
	if n, ok := parseCode(v); ok {
		d := Direction(n)
		if d.Valid() {
			return d
		}
		return DirectionInvalid
	}
	switch normalizeName(v, "LINKDIRECTION", "DIRECTION") {
	case "ASIDETOZSIDE", "ATOZ", "FORWARD":
		return DirectionASideToZSide
	case "ZSIDETOASIDE", "ZTOA", "REVERSE":
		return DirectionZSideToASide
	case "BIDIRECTIONAL", "BOTH":
		return DirectionBidirectional
	default:
		return DirectionInvalid
	}
}

// Status is the operational state of a link. StatusInvalid doubles as "unknown".
type Status int

const (
	StatusInvalid Status = iota
	StatusUp
	StatusDown
	StatusPartial
)

func (s Status) Valid() bool {
	return s >= StatusInvalid && s <= StatusPartial
}

func (s Status) String() string {
	switch s {
	case StatusUp:
		return "UP"
	case StatusDown:
		return "DOWN"
	case StatusPartial:
		return "PARTIAL"
	default:
		return "INVALID"
	}
}

func (s Status) Text() string {
	switch s {
	case StatusUp:
		return "Up"
	case StatusDown:
		return "Down"
	case StatusPartial:
		return "Partial"
	default:
		return "Unknown"
	}
}

// BadgeClass is the list/detail class, e.g. "status-up".
func (s Status) BadgeClass() string {
	switch s {
	case StatusUp:
		return "status-up"
	case StatusDown:
		return "status-down"
	case StatusPartial:
		return "status-partial"
	default:
		return "status-invalid"
	}
}

// Class is the scene class for strokes, e.g. "status-1".
func (s Status) Class() string {
	return fmt.Sprintf("status-%d", s.code())
}

func (s Status) code() int {
	if !s.Valid() {
		return int(StatusInvalid)
	}
	return int(s)
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.code())
}

func (s *Status) UnmarshalJSON(b []byte) error {
	*s = ParseStatus(rawScalar(b))
	return nil
}

func ParseStatus(v string) Status {
	if n, ok := parseCode(v); ok {
		s := Status(n)
		if s.Valid() {
			return s
		}
		return StatusInvalid
	}
	switch normalizeName(v, "LINKSTATUS", "STATUS") {
	case "UP", "OK", "ONLINE":
		return StatusUp
	case "DOWN", "OFFLINE":
		return StatusDown
	case "PARTIAL", "DEGRADED":
		return StatusPartial
	default:
		return StatusInvalid
	}
}

// rawScalar turns a JSON token into a plain string. Objects, arrays and null become "".
func rawScalar(b []byte) string {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" || s[0] == '{' || s[0] == '[' {
		return ""
	}
	if s[0] == '"' {
		var out string
		if err := json.Unmarshal([]byte(s), &out); err != nil {
			return ""
		}
		return out
	}
	return s
}

func parseCode(v string) (int, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

func normalizeName(v string, prefixes ...string) string {
	n := strings.ToUpper(strings.TrimSpace(v))
	n = strings.NewReplacer("_", "", "-", "", " ", "").Replace(n)
	for _, p := range prefixes {
		if strings.HasPrefix(n, p) && len(n) > len(p) {
			return strings.TrimPrefix(n, p)
		}
	}
	return n
}
