package value

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/leekchan/timeutil"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidHex is returned for hex literals with odd length or non hex digits
	ErrInvalidHex = fmt.Errorf("invalid hex string")

	timeLayouts = []string{"15:04:05.999999999", "15:04:05", "15:04", "15.04.05"}
	tzLayouts   = []string{
		"2006-01-02 15:04:05.999999999Z07:00",
		"2006-01-02 15:04:05.999999999Z07",
		"2006-01-02 15:04:05.999999999 Z07:00",
		"2006-01-02T15:04:05.999999999Z07:00",
	}
)

// ParseDate parses a DATE literal body such as 2020-01-31.
func ParseDate(s string) (TimeValue, error) {
	s = strings.TrimSpace(s)
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		t, err = dateparse.ParseIn(s, time.UTC)
		if err != nil {
			return TimeValue{}, err
		}
	}
	y, m, d := t.Date()
	return NewDateValue(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)), nil
}

// ParseTime parses a TIME literal body such as 12:30:00.5
func ParseTime(s string) (TimeValue, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return NewTimeOfDayValue(t), nil
		}
	}
	return TimeValue{}, fmt.Errorf("cannot parse %q as TIME", s)
}

// ParseTimestamp parses a TIMESTAMP literal body; with @tz the value must
// carry a zone offset, without it any offset is dropped.
func ParseTimestamp(s string, tz bool) (TimeValue, error) {
	s = strings.TrimSpace(s)
	if tz {
		for _, layout := range tzLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return NewTimestampTzValue(t), nil
			}
		}
		t, err := dateparse.ParseAny(s)
		if err != nil {
			return TimeValue{}, err
		}
		return NewTimestampTzValue(t), nil
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil {
		return TimeValue{}, err
	}
	return NewTimestampValue(t), nil
}

// ParseHex decodes the body of an X'..' literal, whitespace is ignored.
func ParseHex(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			return -1
		}
		return r
	}, s)
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidHex
	}
	return b, nil
}

// ParseDecimal parses a decimal literal which may carry an exponent.
func ParseDecimal(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// FormatTime renders @t in the literal format of @vt.
func FormatTime(t time.Time, vt ValueType) string {
	switch vt {
	case DateType:
		return timeutil.Strftime(&t, "%Y-%m-%d")
	case TimeType:
		return timeutil.Strftime(&t, "%H:%M:%S") + fraction(t)
	case TimestampTzType:
		_, off := t.Zone()
		sign := "+"
		if off < 0 {
			sign = "-"
			off = -off
		}
		return timeutil.Strftime(&t, "%Y-%m-%d %H:%M:%S") + fraction(t) +
			fmt.Sprintf("%s%02d:%02d", sign, off/3600, (off%3600)/60)
	}
	return timeutil.Strftime(&t, "%Y-%m-%d %H:%M:%S") + fraction(t)
}

func fraction(t time.Time) string {
	ns := t.Nanosecond()
	if ns == 0 {
		return ""
	}
	return strings.TrimRight(fmt.Sprintf(".%09d", ns), "0")
}
