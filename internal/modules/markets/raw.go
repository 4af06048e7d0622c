package markets

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// RawEvent is an event record as returned by the gamma events endpoint.
// Every field is optional and loosely typed upstream.
type RawEvent struct {
	ID      LooseString `json:"id"`
	Title   string      `json:"title"`
	Slug    string      `json:"slug"`
	Image   *string     `json:"image,omitempty"`
	Volume  LooseNumber `json:"volume"`
	EndDate *string     `json:"endDate,omitempty"`
	Markets []RawMarket `json:"markets,omitempty"`
}

// RawMarket is a market record nested in a RawEvent
type RawMarket struct {
	ID             LooseString     `json:"id"`
	Title          string          `json:"title,omitempty"`
	Question       string          `json:"question,omitempty"`
	GroupItemTitle string          `json:"groupItemTitle,omitempty"`
	Outcomes       json.RawMessage `json:"outcomes,omitempty"`
	OutcomePrices  json.RawMessage `json:"outcomePrices,omitempty"`
}

// LooseString accepts a JSON string or number
type LooseString string

// UnmarshalJSON implements json.Unmarshaler
func (s *LooseString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = LooseString(str)
		return nil
	}
	// Numbers and anything else keep their literal form
	*s = LooseString(string(data))
	return nil
}

// LooseNumber accepts a JSON number, a numeric string or null.
// Values that do not coerce to a finite number read as 0.
type LooseNumber struct {
	value float64
	valid bool
}

// Float returns the coerced value, 0 when not a finite number
func (n LooseNumber) Float() float64 {
	if !n.valid {
		return 0
	}
	return n.value
}

// Valid reports whether the raw value coerced to a finite number
func (n LooseNumber) Valid() bool {
	return n.valid
}

// UnmarshalJSON implements json.Unmarshaler. It never fails: bad input is simply invalid.
func (n *LooseNumber) UnmarshalJSON(data []byte) error {
	v, ok := coerceNumber(data)
	*n = LooseNumber{value: v, valid: ok}
	return nil
}

// MarshalJSON implements json.Marshaler
func (n LooseNumber) MarshalJSON() ([]byte, error) {
	if !n.valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.value)
}

// coerceNumber turns a raw JSON value into a finite float.
// Numbers pass through, strings are parsed after trimming (an empty string is 0),
// anything else fails.
func coerceNumber(data []byte) (float64, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return 0, false
	}

	switch data[0] {
	case '"':
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return 0, false
		}
		str = strings.TrimSpace(str)
		if str == "" {
			return 0, true
		}
		v, err := strconv.ParseFloat(str, 64)
		if err != nil || !isFinite(v) {
			return 0, false
		}
		return v, true
	case 'n', 't', 'f', '[', '{':
		return 0, false
	default:
		v, err := strconv.ParseFloat(string(data), 64)
		if err != nil || !isFinite(v) {
			return 0, false
		}
		return v, true
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
