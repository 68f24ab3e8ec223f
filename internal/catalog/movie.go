// Package catalog holds the immutable in-memory movie catalog and the loaders
// that build it once at startup from a CSV file or a PostgreSQL table.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Movie is one catalog entry. Every field is a plain string once loaded;
// missing source values are "".
type Movie struct {
	ID       string `json:"Id"`
	Title    string `json:"Title"`
	Year     Year   `json:"Year"`
	Category string `json:"Category"`
	Rating   string `json:"Rating"`
	Overview string `json:"Overview"`
}

// Year is a release year in canonical integer form, or "" when the source had
// none. It encodes as a JSON number when set.
type Year string

// ParseYear normalizes a raw year cell. Float renderings such as "2019.0"
// collapse to "2019"; values that are not numeric are kept verbatim.
func ParseYear(raw string) Year {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return Year(strconv.Itoa(n))
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil && f == float64(int64(f)) {
		return Year(strconv.FormatInt(int64(f), 10))
	}
	return Year(raw)
}

// Int returns the numeric year and whether one is set.
func (y Year) Int() (int, bool) {
	n, err := strconv.Atoi(string(y))
	if err != nil {
		return 0, false
	}
	return n, true
}

func (y Year) MarshalJSON() ([]byte, error) {
	if n, ok := y.Int(); ok {
		return []byte(strconv.Itoa(n)), nil
	}
	return json.Marshal(string(y))
}

func (y *Year) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*y = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding year: %w", err)
		}
		*y = ParseYear(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decoding year: %w", err)
	}
	*y = ParseYear(n.String())
	return nil
}
