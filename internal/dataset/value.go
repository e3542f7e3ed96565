package dataset

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// Kind tags the dynamic type of a cell.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindText
)

// Value is a nullable number or string cell. The zero Value is Null.
type Value struct {
	kind Kind
	num  float64
	text string
}

// Null is the absent value.
var Null = Value{}

// Number wraps f. NaN and infinities are stored as Null so numeric fields
// are always finite or absent.
func Number(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Null
	}
	return Value{kind: KindNumber, num: f}
}

// Text wraps s. An empty string is Null.
func Text(s string) Value {
	if s == "" {
		return Null
	}
	return Value{kind: KindText, text: s}
}

func (v Value) Kind() Kind     { return v.kind }
func (v Value) IsNull() bool   { return v.kind == KindNull }
func (v Value) IsNumber() bool { return v.kind == KindNumber }

// Float returns the numeric value, if any.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// Truthy mirrors the loose truthiness used by the row validity filter:
// Null, zero and the empty string are false.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNumber:
		return v.num != 0
	case KindText:
		return v.text != ""
	}
	return false
}

// String renders the value for display and CSV export. Null renders as "".
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return FormatNumber(v.num)
	case KindText:
		return v.text
	}
	return ""
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return []byte(FormatNumber(v.num)), nil
	case KindText:
		return json.Marshal(v.text)
	}
	return []byte("null"), nil
}

func (v *Value) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	switch {
	case s == "null":
		*v = Null
		return nil
	case strings.HasPrefix(s, `"`):
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*v = Text(str)
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*v = Number(f)
	return nil
}

// FormatNumber renders f the shortest way that round-trips, switching to
// exponent notation only for very large or very small magnitudes.
func FormatNumber(f float64) string {
	a := math.Abs(f)
	if a != 0 && (a >= 1e21 || a < 1e-6) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

const maxExactInt = 1 << 53

var numericCell = regexp.MustCompile(`^\s*-?(\d+\.?|\.\d+|\d+\.\d+)([eE][-+]?\d+)?\s*$`)

// ParseValue applies the cell transform: "" and "null" become Null,
// numeric-looking cells become numbers and everything else stays text.
func ParseValue(raw string) Value {
	if raw == "" || raw == "null" {
		return Null
	}
	if numericCell.MatchString(raw) {
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		// magnitudes past the exact integer range of float64 stay text
		if err == nil && math.Abs(f) < maxExactInt {
			return Number(f)
		}
	}
	return Value{kind: KindText, text: raw}
}

// ParseYear parses the leading base-10 integer of raw, ignoring leading
// whitespace and trailing garbage ("2018.0" -> 2018, "2018abc" -> 2018).
// It returns false when no digits are present.
func ParseYear(raw string) (int, bool) {
	s := strings.TrimLeft(raw, " \t\r\n")
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
