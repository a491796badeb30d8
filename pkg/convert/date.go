package convert

import (
	"fmt"
	"reflect"
	"strings"
	"time"
)

// DefaultDateLayout is the pattern used when none is configured.
const DefaultDateLayout = "dd/MM/yyyy"

var (
	timeType    = reflect.TypeFor[time.Time]()
	timePtrType = reflect.TypeFor[*time.Time]()
)

// DateConverter parses dates written with a pattern such as "yyyy-MM-dd".
// A blank value or "none" converts to nil for *time.Time and to the zero
// time for time.Time.
type DateConverter struct {
	Layout   string
	Location *time.Location
}

func (c DateConverter) Accept(t reflect.Type) bool {
	return t == timeType || t == timePtrType
}

func (c DateConverter) Convert(value string, t reflect.Type) (any, error) {
	value = strings.TrimSpace(value)
	if value == "" || strings.EqualFold(value, "none") {
		if t == timePtrType {
			return (*time.Time)(nil), nil
		}
		return time.Time{}, nil
	}

	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	parsed, err := time.ParseInLocation(GoLayout(c.Layout), value, loc)
	if err != nil {
		return nil, fmt.Errorf("date pattern %s: %w", c.Layout, err)
	}
	if t == timePtrType {
		return &parsed, nil
	}
	return parsed, nil
}

var dateTokens = map[string]string{
	"yyyy": "2006",
	"yy":   "06",
	"MMMM": "January",
	"MMM":  "Jan",
	"MM":   "01",
	"M":    "1",
	"dd":   "02",
	"d":    "2",
	"EEEE": "Monday",
	"EEE":  "Mon",
	"HH":   "15",
	"hh":   "03",
	"h":    "3",
	"mm":   "04",
	"m":    "4",
	"ss":   "05",
	"s":    "5",
	"SSS":  "000",
	"SS":   "00",
	"S":    "0",
	"a":    "PM",
	"z":    "MST",
	"Z":    "-0700",
	"XXX":  "Z07:00",
}

// GoLayout translates a date pattern in the yyyy-MM-dd style into a Go
// reference layout. Text in single quotes is copied as is.
func GoLayout(pattern string) string {
	var b strings.Builder
	for i := 0; i < len(pattern); {
		ch := pattern[i]
		if ch == '\'' {
			end := strings.IndexByte(pattern[i+1:], '\'')
			if end < 0 {
				b.WriteString(pattern[i+1:])
				break
			}
			b.WriteString(pattern[i+1 : i+1+end])
			i += end + 2
			continue
		}

		j := i
		for j < len(pattern) && pattern[j] == ch {
			j++
		}
		run := pattern[i:j]
		if layout, ok := dateTokens[run]; ok {
			b.WriteString(layout)
		} else {
			b.WriteString(run)
		}
		i = j
	}
	return b.String()
}
