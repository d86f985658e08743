package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Text renders an upstream value as trimmed text. nil becomes "".
func Text(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

// Ident renders an identifier: trimmed and lower-cased.
func Ident(v any) string {
	return strings.ToLower(Text(v))
}

// Int parses an upstream numeric value. Numbers may arrive as JSON numbers or
// numeric strings; fractions are truncated. Anything else is reported as not ok.
func Int(v any) (int64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case int:
		return int64(x), true
	case int64:
		return x, true
	case float64:
		return int64(math.Trunc(x)), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case json.Number:
		return parseInt(x.String())
	case string:
		return parseInt(x)
	default:
		return parseInt(fmt.Sprint(x))
	}
}

// IntOr returns Int(v) or 0 when v is missing or not numeric.
func IntOr(v any) int64 {
	n, _ := Int(v)
	return n
}

func parseInt(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, true
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return int64(f), true
	}
	return 0, false
}

// Code is a business status code that upstream sends either as a JSON number
// or as a string.
type Code string

// UnmarshalJSON accepts 0, "0", 200 and "200" alike.
func (c *Code) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*c = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		*c = Code(strings.TrimSpace(str))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("code: %w", err)
	}
	*c = Code(n.String())
	return nil
}

// MarshalJSON writes numeric codes as numbers.
func (c Code) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseInt(string(c), 10, 64); err == nil {
		return []byte(c), nil
	}
	return json.Marshal(string(c))
}

// Is reports whether the code equals n.
func (c Code) Is(n int) bool {
	return string(c) == strconv.Itoa(n)
}

// Seconds is a duration in whole seconds, sent as a number or a string.
type Seconds int64

// UnmarshalJSON accepts 7200 and "7200".
func (s *Seconds) UnmarshalJSON(b []byte) error {
	var raw any
	dec := json.NewDecoder(strings.NewReader(string(b)))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	if raw == nil {
		*s = 0
		return nil
	}
	n, ok := Int(raw)
	if !ok {
		return fmt.Errorf("seconds: cannot parse %s", b)
	}
	*s = Seconds(n)
	return nil
}
