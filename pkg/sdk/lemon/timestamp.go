package lemon

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Layouts used by the API.
const (
	LayoutMillis = "2006-01-02T15:04:05.000-07:00"
	LayoutDate   = "2006-01-02"
)

// Timestamp is an ISO-8601 instant or date that re-encodes to the same
// form it was parsed from.
type Timestamp struct {
	time.Time
	layout string
}

// ParseTimestamp parses s as a timestamp or a plain date.
func ParseTimestamp(s string) (Timestamp, error) {
	if t, err := time.Parse(LayoutDate, s); err == nil {
		return Timestamp{Time: t, layout: LayoutDate}, nil
	}
	layout := instantLayout(s)
	if t, err := time.Parse(layout, s); err == nil {
		return Timestamp{Time: t, layout: layout}, nil
	}
	return Timestamp{}, errors.Errorf("unrecognized timestamp %q", s)
}

// instantLayout mirrors the fraction width and zone style of s so that
// formatting reproduces it, trailing zeros and a "Z" suffix included.
func instantLayout(s string) string {
	const base = "2006-01-02T15:04:05"
	layout := base
	if len(s) > len(base) && s[len(base)] == '.' {
		n := 0
		for _, c := range s[len(base)+1:] {
			if c < '0' || c > '9' {
				break
			}
			n++
		}
		layout += "." + strings.Repeat("0", n)
	}
	if strings.HasSuffix(s, "Z") {
		return layout + "Z07:00"
	}
	return layout + "-07:00"
}

// TimestampOf wraps t, encoding with millisecond precision.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp{Time: t, layout: LayoutMillis}
}

// DateOf wraps t, encoding the date only.
func DateOf(t time.Time) Timestamp {
	return Timestamp{Time: t, layout: LayoutDate}
}

// IsDate reports whether the timestamp carries a date only.
func (t Timestamp) IsDate() bool {
	return t.layout == LayoutDate
}

func (t Timestamp) String() string {
	if t.Time.IsZero() {
		return ""
	}
	layout := t.layout
	if layout == "" {
		layout = LayoutMillis
	}
	return t.Time.Format(layout)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Time.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.Quote(t.String())), nil
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return errors.Wrapf(err, "timestamp %s", b)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
