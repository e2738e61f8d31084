package sheetsdb

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// serialEpoch is day zero of spreadsheet serial dates.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// cells is one data row keyed by its header.
type cells map[string]interface{}

func isBlank(v interface{}) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

func parseString(v interface{}) (string, error) {
	if isBlank(v) {
		return "", nil
	}
	s, err := cast.ToStringE(v)
	return strings.TrimSpace(s), err
}

// parseBool reads checkbox cells (bool) as well as typed "TRUE"/"FALSE", "1"/"0".
func parseBool(v interface{}) (bool, error) {
	if isBlank(v) {
		return false, nil
	}
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	return cast.ToBoolE(v)
}

// parseInt accepts numbers and numeric strings ("85", "85.0") but no fractions.
func parseInt(v interface{}) (int, error) {
	if isBlank(v) {
		return 0, nil
	}
	if s, ok := v.(string); ok {
		v = strings.TrimSpace(s)
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%v is not a whole number", v)
	}
	return int(f), nil
}

// parseTime reads RFC 3339 strings (what the store writes) and serial dates (cells formatted as dates by hand).
func parseTime(v interface{}) (time.Time, error) {
	if isBlank(v) {
		return time.Time{}, nil
	}
	switch v := v.(type) {
	case float64:
		d := time.Duration(math.Round(v * 24 * float64(time.Hour) / float64(time.Millisecond)))
		return serialEpoch.Add(d * time.Millisecond), nil
	case string:
		t, err := cast.ToTimeInDefaultLocationE(strings.TrimSpace(v), time.UTC)
		return t.UTC(), err
	default:
		t, err := cast.ToTimeInDefaultLocationE(v, time.UTC)
		return t.UTC(), err
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// decoder reads typed values out of a row and keeps the first parsing error.
type decoder struct {
	c   cells
	err error
}

func (d *decoder) fail(col string, err error) {
	if d.err == nil {
		d.err = errors.Wrapf(err, "parsing column %s", col)
	}
}

func (d *decoder) String(col string) string {
	s, err := parseString(d.c[col])
	if err != nil {
		d.fail(col, err)
	}
	return s
}

func (d *decoder) Int(col string) int {
	i, err := parseInt(d.c[col])
	if err != nil {
		d.fail(col, err)
	}
	return i
}

func (d *decoder) Bool(col string) bool {
	b, err := parseBool(d.c[col])
	if err != nil {
		d.fail(col, err)
	}
	return b
}

func (d *decoder) Time(col string) time.Time {
	t, err := parseTime(d.c[col])
	if err != nil {
		d.fail(col, err)
	}
	return t
}
