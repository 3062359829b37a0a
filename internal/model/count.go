package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Count is a shipment total that is either a number or placeholder text
// (for example "..." while the profile is pending).
type Count struct {
	value   float64
	text    string
	numeric bool
}

// CountOf returns a numeric Count.
func CountOf(n float64) Count {
	return Count{value: n, numeric: true}
}

// TextCount returns a placeholder Count carrying free text.
func TextCount(s string) Count {
	return Count{text: s}
}

// PendingCount returns the "..." placeholder.
func PendingCount() Count {
	return TextCount(PendingMarker)
}

// ParseCount coerces a loosely typed value into a Count. Numeric strings
// such as "1,200" become numbers; other text is kept as a placeholder.
func ParseCount(v any) Count {
	switch t := v.(type) {
	case float64:
		return CountOf(t)
	case int:
		return CountOf(float64(t))
	case int64:
		return CountOf(float64(t))
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return CountOf(f)
		}
		return TextCount(t.String())
	case string:
		s := strings.TrimSpace(t)
		if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil {
			return CountOf(f)
		}
		return TextCount(s)
	default:
		return CountOf(0)
	}
}

// IsPlaceholder reports whether the count is text rather than a number.
func (c Count) IsPlaceholder() bool { return !c.numeric }

// Value returns the numeric value and whether the count is numeric.
func (c Count) Value() (float64, bool) { return c.value, c.numeric }

func (c Count) String() string {
	if c.numeric {
		return strconv.FormatFloat(c.value, 'f', -1, 64)
	}
	return c.text
}

// MarshalJSON emits a JSON number for numeric counts, a string otherwise.
func (c Count) MarshalJSON() ([]byte, error) {
	if c.numeric {
		return []byte(strconv.FormatFloat(c.value, 'f', -1, 64)), nil
	}
	return json.Marshal(c.text)
}

// UnmarshalJSON accepts a number, a string, or null.
func (c *Count) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*c = Count{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return eris.Wrap(err, "count: decode string")
		}
		*c = ParseCount(s)
		return nil
	}
	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		return eris.Wrapf(err, "count: decode %s", string(data))
	}
	*c = CountOf(f)
	return nil
}
